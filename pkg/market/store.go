package market

import "context"

// Store is the persistence contract used by Service. Implementations provide
// ordered, durable insert/get/remove semantics per record family; Put methods
// overwrite any existing record under the same key.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error

	GetLoan(ctx context.Context, loanID string) (Loan, error)
	PutLoan(ctx context.Context, loan Loan) error
	ListLoans(ctx context.Context) ([]Loan, error)

	GetBorrower(ctx context.Context, borrowerID string) (Borrower, error)
	PutBorrower(ctx context.Context, borrower Borrower) error
	ListBorrowers(ctx context.Context) ([]Borrower, error)
	FindBorrowerByOwner(ctx context.Context, owner Identity) (Borrower, error)

	GetLender(ctx context.Context, lenderID string) (Lender, error)
	PutLender(ctx context.Context, lender Lender) error
	ListLenders(ctx context.Context) ([]Lender, error)
	FindLenderByOwner(ctx context.Context, owner Identity) (Lender, error)

	GetCollateral(ctx context.Context, collateralID string) (Collateral, error)
	PutCollateral(ctx context.Context, collateral Collateral) error
	ListCollaterals(ctx context.Context) ([]Collateral, error)

	PutRepayment(ctx context.Context, repayment Repayment) error
	ListRepayments(ctx context.Context, loanID string) ([]Repayment, error)

	GetRequest(ctx context.Context, requestID string) (LoanRequest, error)
	PutRequest(ctx context.Context, request LoanRequest) error
	ListRequests(ctx context.Context) ([]LoanRequest, error)
	ListLoanRequests(ctx context.Context, loanID string) ([]LoanRequest, error)

	// PutPendingReservation inserts a pending reservation keyed by its memo
	// within its kind partition.
	PutPendingReservation(ctx context.Context, reservation Reservation) error
	// GetPendingReservation reads a pending reservation without consuming it.
	GetPendingReservation(ctx context.Context, kind ReservationKind, memo Memo) (Reservation, error)
	// TakePendingReservation removes and returns the pending reservation for
	// the memo. It fails with ErrReservationNotFound when the entry is absent
	// or was already consumed; at most one caller can take a given memo.
	TakePendingReservation(ctx context.Context, kind ReservationKind, memo Memo) (Reservation, error)

	// PutPersistedReservation records a completed reservation keyed by the
	// completing caller's identity. Last write wins per identity.
	PutPersistedReservation(ctx context.Context, kind ReservationKind, owner Identity, reservation Reservation) error
	GetPersistedReservation(ctx context.Context, kind ReservationKind, owner Identity) (Reservation, error)
}
