package market

import (
	"fmt"
	"strings"
)

// Amount is an unsigned ledger token amount in e8s.
type Amount uint64

// Memo is the correlation id linking a reservation to its ledger transfer.
type Memo uint64

// BlockIndex addresses a block on the external ledger.
type BlockIndex uint64

// Identity is the opaque caller identity supplied by the host environment.
type Identity struct {
	value string
}

// NewIdentity validates and normalizes an identity token.
func NewIdentity(raw string) (Identity, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Identity{}, fmt.Errorf("%w: empty value", ErrInvalidIdentity)
	}
	return Identity{value: trimmed}, nil
}

// String returns the normalized identity token.
func (identity Identity) String() string {
	return identity.value
}

// IsZero reports whether the identity is unset.
func (identity Identity) IsZero() bool {
	return identity.value == ""
}

// MarshalText encodes the identity for JSON documents and storage rows.
func (identity Identity) MarshalText() ([]byte, error) {
	return []byte(identity.value), nil
}

// UnmarshalText restores an identity from its stored form. Stored
// identities may be empty when the record never carried one.
func (identity *Identity) UnmarshalText(text []byte) error {
	identity.value = strings.TrimSpace(string(text))
	return nil
}

// NewAmount validates an amount and ensures it is strictly positive.
func NewAmount(raw uint64) (Amount, error) {
	if raw == 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	return Amount(raw), nil
}

// Uint64 returns the raw e8s value.
func (amount Amount) Uint64() uint64 {
	return uint64(amount)
}

// LoanStatus defines the loan lifecycle.
type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "pending"
	LoanStatusApproved  LoanStatus = "approved"
	LoanStatusRejected  LoanStatus = "rejected"
	LoanStatusPaid      LoanStatus = "paid"
	LoanStatusCompleted LoanStatus = "completed"
)

// String returns the status literal.
func (status LoanStatus) String() string {
	return string(status)
}

// ParseLoanStatus validates a stored status literal.
func ParseLoanStatus(raw string) (LoanStatus, error) {
	switch LoanStatus(raw) {
	case LoanStatusPending, LoanStatusApproved, LoanStatusRejected, LoanStatusPaid, LoanStatusCompleted:
		return LoanStatus(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLoanStatus, raw)
}

// ReservationStatus defines the reservation lifecycle.
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusCompleted ReservationStatus = "completed"
)

// String returns the status literal.
func (status ReservationStatus) String() string {
	return string(status)
}

// ReservationKind partitions the reservation stores by flow.
type ReservationKind string

const (
	ReservationPayout    ReservationKind = "payout"
	ReservationRepayment ReservationKind = "repayment"
	ReservationSavings   ReservationKind = "savings"
)

// String returns the kind literal.
func (kind ReservationKind) String() string {
	return string(kind)
}

// CollateralStatus marks whether a collateral backs an active loan.
type CollateralStatus string

const (
	CollateralStatusAvailable CollateralStatus = "available"
	CollateralStatusLocked    CollateralStatus = "locked"
)

// Reservation is a claim that a specific ledger transfer is expected.
// While pending it is keyed by memo; once completed it is persisted keyed
// by the caller identity that completed it.
type Reservation struct {
	Price          Amount
	Status         ReservationStatus
	Counterparty   Identity
	PaidAtBlock    *BlockIndex
	Memo           Memo
	Kind           ReservationKind
	SubjectID      string
	CreatedUnixUTC int64
}

// Borrower is an identity-linked borrower profile. The loan and collateral
// id lists are back-references; the authoritative loan-to-borrower link is
// the snapshot embedded in each Loan.
type Borrower struct {
	ID             string
	Owner          Identity
	Name           string
	Email          string
	LoanIDs        []string
	CollateralIDs  []string
	CreatedUnixUTC int64
}

// Lender is an identity-linked lender profile with a savings balance.
type Lender struct {
	ID             string
	Owner          Identity
	Name           string
	Email          string
	SavingsE8s     uint64
	CreatedUnixUTC int64
}

// Collateral is a borrower-owned record backing at most one active loan.
type Collateral struct {
	ID             string
	BorrowerID     string
	Description    string
	ValueE8s       uint64
	Status         CollateralStatus
	CreatedUnixUTC int64
}

// Loan is the aggregate driving the reservation protocol. Borrower, Lender,
// and Collateral are copies taken at creation time, not references.
type Loan struct {
	ID             string
	Status         LoanStatus
	Borrower       Borrower
	Lender         Lender
	Collateral     Collateral
	AmountE8s      uint64
	RepaidE8s      uint64
	Terms          string
	DueDate        string
	GuarantorIDs   []string
	CreatedUnixUTC int64
}

// Repayment is an audit record written when a repayment is reserved.
type Repayment struct {
	ID             string
	LoanID         string
	Payer          Identity
	AmountE8s      uint64
	CreatedUnixUTC int64
}

// LoanRequest is a borrower's application against a loan offer.
type LoanRequest struct {
	ID             string
	LoanID         string
	Applicant      Identity
	Description    string
	AmountE8s      uint64
	Selected       bool
	CreatedUnixUTC int64
}

// BorrowerInput carries the fields a caller supplies when registering.
type BorrowerInput struct {
	Name  string
	Email string
}

// Validate checks the input structurally.
func (input BorrowerInput) Validate() error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: borrower name is required", ErrInvalidPayload)
	}
	return nil
}

// LenderInput carries the fields a caller supplies when registering.
type LenderInput struct {
	Name  string
	Email string
}

// Validate checks the input structurally.
func (input LenderInput) Validate() error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: lender name is required", ErrInvalidPayload)
	}
	return nil
}

// CollateralInput describes a new collateral record.
type CollateralInput struct {
	BorrowerID  string
	Description string
	ValueE8s    uint64
}

// Validate checks the input structurally.
func (input CollateralInput) Validate() error {
	if strings.TrimSpace(input.BorrowerID) == "" {
		return fmt.Errorf("%w: borrower id is required", ErrInvalidPayload)
	}
	if input.ValueE8s == 0 {
		return fmt.Errorf("%w: collateral value must be greater than zero", ErrInvalidPayload)
	}
	return nil
}

// LoanInput describes a new loan. Borrower, lender, and collateral are
// referenced by id and snapshotted into the loan at creation.
type LoanInput struct {
	BorrowerID   string
	LenderID     string
	CollateralID string
	AmountE8s    uint64
	Terms        string
	DueDate      string
	GuarantorIDs []string
}

// Validate checks the input structurally.
func (input LoanInput) Validate() error {
	if strings.TrimSpace(input.BorrowerID) == "" {
		return fmt.Errorf("%w: borrower id is required", ErrInvalidPayload)
	}
	if strings.TrimSpace(input.LenderID) == "" {
		return fmt.Errorf("%w: lender id is required", ErrInvalidPayload)
	}
	if strings.TrimSpace(input.CollateralID) == "" {
		return fmt.Errorf("%w: collateral id is required", ErrInvalidPayload)
	}
	if input.AmountE8s == 0 {
		return fmt.Errorf("%w: loan amount must be greater than zero", ErrInvalidPayload)
	}
	return nil
}

// LoanUpdate carries the mutable loan fields.
type LoanUpdate struct {
	ID           string
	Terms        string
	DueDate      string
	GuarantorIDs []string
}

// Validate checks the update structurally.
func (update LoanUpdate) Validate() error {
	if strings.TrimSpace(update.ID) == "" {
		return fmt.Errorf("%w: loan id is required", ErrInvalidPayload)
	}
	return nil
}

// RequestInput describes a new loan request.
type RequestInput struct {
	LoanID      string
	Description string
	AmountE8s   uint64
}

// Validate checks the input structurally.
func (input RequestInput) Validate() error {
	if strings.TrimSpace(input.LoanID) == "" {
		return fmt.Errorf("%w: loan id is required", ErrInvalidPayload)
	}
	if input.AmountE8s == 0 {
		return fmt.Errorf("%w: request amount must be greater than zero", ErrInvalidPayload)
	}
	return nil
}
