package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BorrowerRow mirrors the borrowers table. Loan and collateral
// back-references are stored as JSON arrays of record ids.
type BorrowerRow struct {
	BorrowerID    string         `gorm:"type:uuid;primaryKey"`
	Owner         string         `gorm:"not null;index:uniq_borrower_owner,unique"`
	Name          string         `gorm:"not null"`
	Email         string         `gorm:""`
	LoanIDs       datatypes.JSON `gorm:"not null"`
	CollateralIDs datatypes.JSON `gorm:"not null"`
	CreatedAt     time.Time      `gorm:"not null"`
}

func (BorrowerRow) TableName() string { return "borrowers" }

func (row *BorrowerRow) BeforeCreate(tx *gorm.DB) error {
	if row.BorrowerID == "" {
		row.BorrowerID = uuid.NewString()
	}
	return nil
}

// LenderRow mirrors the lenders table.
type LenderRow struct {
	LenderID   string    `gorm:"type:uuid;primaryKey"`
	Owner      string    `gorm:"not null;index:uniq_lender_owner,unique"`
	Name       string    `gorm:"not null"`
	Email      string    `gorm:""`
	SavingsE8s int64     `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (LenderRow) TableName() string { return "lenders" }

func (row *LenderRow) BeforeCreate(tx *gorm.DB) error {
	if row.LenderID == "" {
		row.LenderID = uuid.NewString()
	}
	return nil
}

// CollateralRow mirrors the collaterals table.
type CollateralRow struct {
	CollateralID string    `gorm:"type:uuid;primaryKey"`
	BorrowerID   string    `gorm:"type:uuid;not null;index:idx_collateral_borrower"`
	Description  string    `gorm:""`
	ValueE8s     int64     `gorm:"not null"`
	Status       string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (CollateralRow) TableName() string { return "collaterals" }

func (row *CollateralRow) BeforeCreate(tx *gorm.DB) error {
	if row.CollateralID == "" {
		row.CollateralID = uuid.NewString()
	}
	return nil
}

// LoanRow mirrors the loans table. The borrower, lender, and collateral
// columns hold creation-time snapshots as JSON documents.
type LoanRow struct {
	LoanID       string         `gorm:"type:uuid;primaryKey"`
	Status       string         `gorm:"not null;index:idx_loans_status"`
	Borrower     datatypes.JSON `gorm:"not null"`
	Lender       datatypes.JSON `gorm:"not null"`
	Collateral   datatypes.JSON `gorm:"not null"`
	AmountE8s    int64          `gorm:"not null"`
	RepaidE8s    int64          `gorm:"not null"`
	Terms        string         `gorm:""`
	DueDate      string         `gorm:""`
	GuarantorIDs datatypes.JSON `gorm:"not null"`
	CreatedAt    time.Time      `gorm:"not null;index:idx_loans_created"`
}

func (LoanRow) TableName() string { return "loans" }

func (row *LoanRow) BeforeCreate(tx *gorm.DB) error {
	if row.LoanID == "" {
		row.LoanID = uuid.NewString()
	}
	return nil
}

// RepaymentRow mirrors the repayments table.
type RepaymentRow struct {
	RepaymentID string    `gorm:"type:uuid;primaryKey"`
	LoanID      string    `gorm:"type:uuid;not null;index:idx_repayments_loan"`
	Payer       string    `gorm:"not null"`
	AmountE8s   int64     `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (RepaymentRow) TableName() string { return "repayments" }

func (row *RepaymentRow) BeforeCreate(tx *gorm.DB) error {
	if row.RepaymentID == "" {
		row.RepaymentID = uuid.NewString()
	}
	return nil
}

// LoanRequestRow mirrors the loan_requests table.
type LoanRequestRow struct {
	RequestID   string    `gorm:"type:uuid;primaryKey"`
	LoanID      string    `gorm:"type:uuid;not null;index:idx_requests_loan"`
	Applicant   string    `gorm:"not null"`
	Description string    `gorm:""`
	AmountE8s   int64     `gorm:"not null"`
	Selected    bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (LoanRequestRow) TableName() string { return "loan_requests" }

func (row *LoanRequestRow) BeforeCreate(tx *gorm.DB) error {
	if row.RequestID == "" {
		row.RequestID = uuid.NewString()
	}
	return nil
}

// PendingReservationRow mirrors the pending_reservations table. The memo
// is stored as its decimal string form so the full uint64 range survives
// every backend.
type PendingReservationRow struct {
	Kind         string    `gorm:"primaryKey"`
	Memo         string    `gorm:"primaryKey"`
	PriceE8s     int64     `gorm:"not null"`
	Status       string    `gorm:"not null"`
	Counterparty string    `gorm:"not null"`
	SubjectID    string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (PendingReservationRow) TableName() string { return "pending_reservations" }

// PersistedReservationRow mirrors the persisted_reservations table,
// keyed by the identity that completed the reservation.
type PersistedReservationRow struct {
	Kind         string    `gorm:"primaryKey"`
	Owner        string    `gorm:"primaryKey"`
	Memo         string    `gorm:"not null"`
	PriceE8s     int64     `gorm:"not null"`
	Status       string    `gorm:"not null"`
	Counterparty string    `gorm:"not null"`
	SubjectID    string    `gorm:"not null"`
	PaidAtBlock  *int64    `gorm:""`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (PersistedReservationRow) TableName() string { return "persisted_reservations" }

// LeagueUserRow mirrors the league_users table.
type LeagueUserRow struct {
	UserID    string    `gorm:"type:uuid;primaryKey"`
	Owner     string    `gorm:"not null"`
	Name      string    `gorm:"not null"`
	Email     string    `gorm:""`
	Role      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (LeagueUserRow) TableName() string { return "league_users" }

func (row *LeagueUserRow) BeforeCreate(tx *gorm.DB) error {
	if row.UserID == "" {
		row.UserID = uuid.NewString()
	}
	return nil
}

// LeagueRow mirrors the leagues table.
type LeagueRow struct {
	LeagueID  string    `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	Sport     string    `gorm:"not null;index:idx_leagues_sport"`
	CreatedBy string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (LeagueRow) TableName() string { return "leagues" }

func (row *LeagueRow) BeforeCreate(tx *gorm.DB) error {
	if row.LeagueID == "" {
		row.LeagueID = uuid.NewString()
	}
	return nil
}

// TournamentRow mirrors the tournaments table.
type TournamentRow struct {
	TournamentID string         `gorm:"type:uuid;primaryKey"`
	Name         string         `gorm:"not null"`
	Structure    string         `gorm:"not null"`
	TeamIDs      datatypes.JSON `gorm:"not null"`
	Sport        string         `gorm:"not null"`
	CreatedAt    time.Time      `gorm:"not null"`
}

func (TournamentRow) TableName() string { return "tournaments" }

func (row *TournamentRow) BeforeCreate(tx *gorm.DB) error {
	if row.TournamentID == "" {
		row.TournamentID = uuid.NewString()
	}
	return nil
}

// TeamRow mirrors the teams table. Players is a JSON array of
// participant identities.
type TeamRow struct {
	TeamID    string         `gorm:"type:uuid;primaryKey"`
	Name      string         `gorm:"not null"`
	Coach     string         `gorm:"not null"`
	Players   datatypes.JSON `gorm:"not null"`
	Sport     string         `gorm:"not null;index:idx_teams_sport"`
	CreatedAt time.Time      `gorm:"not null"`
}

func (TeamRow) TableName() string { return "teams" }

func (row *TeamRow) BeforeCreate(tx *gorm.DB) error {
	if row.TeamID == "" {
		row.TeamID = uuid.NewString()
	}
	return nil
}

// MatchRow mirrors the matches table. The home and away columns hold
// scheduling-time team snapshots as JSON documents.
type MatchRow struct {
	MatchID       string         `gorm:"type:uuid;primaryKey"`
	HomeTeam      datatypes.JSON `gorm:"not null"`
	AwayTeam      datatypes.JSON `gorm:"not null"`
	Sport         string         `gorm:"not null;index:idx_matches_sport"`
	ScheduledDate string         `gorm:"not null"`
	Result        *string        `gorm:""`
	CreatedAt     time.Time      `gorm:"not null"`
}

func (MatchRow) TableName() string { return "matches" }

func (row *MatchRow) BeforeCreate(tx *gorm.DB) error {
	if row.MatchID == "" {
		row.MatchID = uuid.NewString()
	}
	return nil
}
