// Package gormstore persists marketplace and league records through GORM,
// running against SQLite for local deployments and PostgreSQL in production.
package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/CedarStreetLab/loanmarket/pkg/market"
)

const (
	pgUniqueViolationCode = "23505"
	sqliteConstraintCode  = 19
	emptyJSONArray        = "[]"

	errorOperationStore     = "store"
	errorSubjectLoan        = "loan"
	errorSubjectBorrower    = "borrower"
	errorSubjectLender      = "lender"
	errorSubjectCollateral  = "collateral"
	errorSubjectRepayment   = "repayment"
	errorSubjectRequest     = "request"
	errorSubjectReservation = "reservation"
	errorCodeGet            = "get"
	errorCodePut            = "put"
	errorCodeList           = "list"
	errorCodeTake           = "take"
	errorCodeDuplicate      = "duplicate"
	errorCodeInvalid        = "invalid"
)

// Store implements market.Store using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates every marketplace and league table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&BorrowerRow{},
		&LenderRow{},
		&CollateralRow{},
		&LoanRow{},
		&RepaymentRow{},
		&LoanRequestRow{},
		&PendingReservationRow{},
		&PersistedReservationRow{},
		&LeagueUserRow{},
		&LeagueRow{},
		&TournamentRow{},
		&TeamRow{},
		&MatchRow{},
	)
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore market.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

func (store *Store) GetLoan(ctx context.Context, loanID string) (market.Loan, error) {
	var row LoanRow
	err := store.db.WithContext(ctx).Where("loan_id = ?", loanID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return market.Loan{}, wrapStoreError(errorSubjectLoan, errorCodeGet, market.ErrLoanNotFound)
	}
	if err != nil {
		return market.Loan{}, wrapStoreError(errorSubjectLoan, errorCodeGet, err)
	}
	return mapLoanRow(row)
}

func (store *Store) PutLoan(ctx context.Context, loan market.Loan) error {
	row, err := loanRowFrom(loan)
	if err != nil {
		return wrapStoreError(errorSubjectLoan, errorCodeInvalid, err)
	}
	if err := store.db.WithContext(ctx).Save(&row).Error; err != nil {
		return wrapStoreError(errorSubjectLoan, errorCodePut, err)
	}
	return nil
}

func (store *Store) ListLoans(ctx context.Context) ([]market.Loan, error) {
	var rows []LoanRow
	err := store.db.WithContext(ctx).Order("created_at ASC, loan_id ASC").Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectLoan, errorCodeList, err)
	}
	loans := make([]market.Loan, 0, len(rows))
	for _, row := range rows {
		loan, err := mapLoanRow(row)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, nil
}

func (store *Store) GetBorrower(ctx context.Context, borrowerID string) (market.Borrower, error) {
	var row BorrowerRow
	err := store.db.WithContext(ctx).Where("borrower_id = ?", borrowerID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return market.Borrower{}, wrapStoreError(errorSubjectBorrower, errorCodeGet, market.ErrBorrowerNotFound)
	}
	if err != nil {
		return market.Borrower{}, wrapStoreError(errorSubjectBorrower, errorCodeGet, err)
	}
	return mapBorrowerRow(row)
}

func (store *Store) PutBorrower(ctx context.Context, borrower market.Borrower) error {
	row, err := borrowerRowFrom(borrower)
	if err != nil {
		return wrapStoreError(errorSubjectBorrower, errorCodeInvalid, err)
	}
	err = store.db.WithContext(ctx).Save(&row).Error
	if isUniqueViolation(err) {
		return wrapStoreError(errorSubjectBorrower, errorCodeDuplicate, market.ErrAlreadyRegistered)
	}
	if err != nil {
		return wrapStoreError(errorSubjectBorrower, errorCodePut, err)
	}
	return nil
}

func (store *Store) ListBorrowers(ctx context.Context) ([]market.Borrower, error) {
	var rows []BorrowerRow
	err := store.db.WithContext(ctx).Order("created_at ASC, borrower_id ASC").Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectBorrower, errorCodeList, err)
	}
	borrowers := make([]market.Borrower, 0, len(rows))
	for _, row := range rows {
		borrower, err := mapBorrowerRow(row)
		if err != nil {
			return nil, err
		}
		borrowers = append(borrowers, borrower)
	}
	return borrowers, nil
}

func (store *Store) FindBorrowerByOwner(ctx context.Context, owner market.Identity) (market.Borrower, error) {
	var row BorrowerRow
	err := store.db.WithContext(ctx).Where("owner = ?", owner.String()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return market.Borrower{}, wrapStoreError(errorSubjectBorrower, errorCodeGet, market.ErrBorrowerNotFound)
	}
	if err != nil {
		return market.Borrower{}, wrapStoreError(errorSubjectBorrower, errorCodeGet, err)
	}
	return mapBorrowerRow(row)
}

func (store *Store) GetLender(ctx context.Context, lenderID string) (market.Lender, error) {
	var row LenderRow
	err := store.db.WithContext(ctx).Where("lender_id = ?", lenderID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return market.Lender{}, wrapStoreError(errorSubjectLender, errorCodeGet, market.ErrLenderNotFound)
	}
	if err != nil {
		return market.Lender{}, wrapStoreError(errorSubjectLender, errorCodeGet, err)
	}
	return mapLenderRow(row), nil
}

func (store *Store) PutLender(ctx context.Context, lender market.Lender) error {
	row := lenderRowFrom(lender)
	err := store.db.WithContext(ctx).Save(&row).Error
	if isUniqueViolation(err) {
		return wrapStoreError(errorSubjectLender, errorCodeDuplicate, market.ErrAlreadyRegistered)
	}
	if err != nil {
		return wrapStoreError(errorSubjectLender, errorCodePut, err)
	}
	return nil
}

func (store *Store) ListLenders(ctx context.Context) ([]market.Lender, error) {
	var rows []LenderRow
	err := store.db.WithContext(ctx).Order("created_at ASC, lender_id ASC").Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectLender, errorCodeList, err)
	}
	lenders := make([]market.Lender, 0, len(rows))
	for _, row := range rows {
		lenders = append(lenders, mapLenderRow(row))
	}
	return lenders, nil
}

func (store *Store) FindLenderByOwner(ctx context.Context, owner market.Identity) (market.Lender, error) {
	var row LenderRow
	err := store.db.WithContext(ctx).Where("owner = ?", owner.String()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return market.Lender{}, wrapStoreError(errorSubjectLender, errorCodeGet, market.ErrLenderNotFound)
	}
	if err != nil {
		return market.Lender{}, wrapStoreError(errorSubjectLender, errorCodeGet, err)
	}
	return mapLenderRow(row), nil
}

func (store *Store) GetCollateral(ctx context.Context, collateralID string) (market.Collateral, error) {
	var row CollateralRow
	err := store.db.WithContext(ctx).Where("collateral_id = ?", collateralID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return market.Collateral{}, wrapStoreError(errorSubjectCollateral, errorCodeGet, market.ErrCollateralNotFound)
	}
	if err != nil {
		return market.Collateral{}, wrapStoreError(errorSubjectCollateral, errorCodeGet, err)
	}
	return mapCollateralRow(row), nil
}

func (store *Store) PutCollateral(ctx context.Context, collateral market.Collateral) error {
	row := collateralRowFrom(collateral)
	if err := store.db.WithContext(ctx).Save(&row).Error; err != nil {
		return wrapStoreError(errorSubjectCollateral, errorCodePut, err)
	}
	return nil
}

func (store *Store) ListCollaterals(ctx context.Context) ([]market.Collateral, error) {
	var rows []CollateralRow
	err := store.db.WithContext(ctx).Order("created_at ASC, collateral_id ASC").Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectCollateral, errorCodeList, err)
	}
	collaterals := make([]market.Collateral, 0, len(rows))
	for _, row := range rows {
		collaterals = append(collaterals, mapCollateralRow(row))
	}
	return collaterals, nil
}

func (store *Store) PutRepayment(ctx context.Context, repayment market.Repayment) error {
	row := RepaymentRow{
		RepaymentID: repayment.ID,
		LoanID:      repayment.LoanID,
		Payer:       repayment.Payer.String(),
		AmountE8s:   int64(repayment.AmountE8s),
		CreatedAt:   time.Unix(repayment.CreatedUnixUTC, 0).UTC(),
	}
	if err := store.db.WithContext(ctx).Save(&row).Error; err != nil {
		return wrapStoreError(errorSubjectRepayment, errorCodePut, err)
	}
	return nil
}

func (store *Store) ListRepayments(ctx context.Context, loanID string) ([]market.Repayment, error) {
	var rows []RepaymentRow
	err := store.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("created_at ASC, repayment_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectRepayment, errorCodeList, err)
	}
	repayments := make([]market.Repayment, 0, len(rows))
	for _, row := range rows {
		payer, err := parseIdentity(row.Payer)
		if err != nil {
			return nil, wrapStoreError(errorSubjectRepayment, errorCodeInvalid, err)
		}
		repayments = append(repayments, market.Repayment{
			ID:             row.RepaymentID,
			LoanID:         row.LoanID,
			Payer:          payer,
			AmountE8s:      uint64(row.AmountE8s),
			CreatedUnixUTC: row.CreatedAt.Unix(),
		})
	}
	return repayments, nil
}

func (store *Store) GetRequest(ctx context.Context, requestID string) (market.LoanRequest, error) {
	var row LoanRequestRow
	err := store.db.WithContext(ctx).Where("request_id = ?", requestID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return market.LoanRequest{}, wrapStoreError(errorSubjectRequest, errorCodeGet, market.ErrRequestNotFound)
	}
	if err != nil {
		return market.LoanRequest{}, wrapStoreError(errorSubjectRequest, errorCodeGet, err)
	}
	return mapRequestRow(row)
}

func (store *Store) PutRequest(ctx context.Context, request market.LoanRequest) error {
	row := LoanRequestRow{
		RequestID:   request.ID,
		LoanID:      request.LoanID,
		Applicant:   request.Applicant.String(),
		Description: request.Description,
		AmountE8s:   int64(request.AmountE8s),
		Selected:    request.Selected,
		CreatedAt:   time.Unix(request.CreatedUnixUTC, 0).UTC(),
	}
	if err := store.db.WithContext(ctx).Save(&row).Error; err != nil {
		return wrapStoreError(errorSubjectRequest, errorCodePut, err)
	}
	return nil
}

func (store *Store) ListRequests(ctx context.Context) ([]market.LoanRequest, error) {
	return store.listRequests(ctx, store.db.WithContext(ctx))
}

func (store *Store) ListLoanRequests(ctx context.Context, loanID string) ([]market.LoanRequest, error) {
	return store.listRequests(ctx, store.db.WithContext(ctx).Where("loan_id = ?", loanID))
}

func (store *Store) listRequests(_ context.Context, query *gorm.DB) ([]market.LoanRequest, error) {
	var rows []LoanRequestRow
	err := query.Order("created_at ASC, request_id ASC").Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectRequest, errorCodeList, err)
	}
	requests := make([]market.LoanRequest, 0, len(rows))
	for _, row := range rows {
		request, err := mapRequestRow(row)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, nil
}

func (store *Store) PutPendingReservation(ctx context.Context, reservation market.Reservation) error {
	row := PendingReservationRow{
		Kind:         reservation.Kind.String(),
		Memo:         formatMemo(reservation.Memo),
		PriceE8s:     int64(reservation.Price.Uint64()),
		Status:       reservation.Status.String(),
		Counterparty: reservation.Counterparty.String(),
		SubjectID:    reservation.SubjectID,
		CreatedAt:    time.Unix(reservation.CreatedUnixUTC, 0).UTC(),
	}
	err := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return wrapStoreError(errorSubjectReservation, errorCodePut, err)
	}
	return nil
}

func (store *Store) GetPendingReservation(ctx context.Context, kind market.ReservationKind, memo market.Memo) (market.Reservation, error) {
	var row PendingReservationRow
	err := store.db.WithContext(ctx).
		Where("kind = ? AND memo = ?", kind.String(), formatMemo(memo)).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return market.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeGet, market.ErrReservationNotFound)
	}
	if err != nil {
		return market.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeGet, err)
	}
	return mapPendingRow(row)
}

// TakePendingReservation removes the pending reservation in one guarded
// delete so only a single caller can consume a given memo.
func (store *Store) TakePendingReservation(ctx context.Context, kind market.ReservationKind, memo market.Memo) (market.Reservation, error) {
	var row PendingReservationRow
	err := store.db.WithContext(ctx).
		Where("kind = ? AND memo = ?", kind.String(), formatMemo(memo)).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return market.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeTake, market.ErrReservationNotFound)
	}
	if err != nil {
		return market.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeTake, err)
	}
	result := store.db.WithContext(ctx).
		Where("kind = ? AND memo = ?", kind.String(), formatMemo(memo)).
		Delete(&PendingReservationRow{})
	if result.Error != nil {
		return market.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeTake, result.Error)
	}
	if result.RowsAffected == 0 {
		return market.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeTake, market.ErrReservationNotFound)
	}
	return mapPendingRow(row)
}

func (store *Store) PutPersistedReservation(ctx context.Context, kind market.ReservationKind, owner market.Identity, reservation market.Reservation) error {
	var paidAtBlock *int64
	if reservation.PaidAtBlock != nil {
		value := int64(*reservation.PaidAtBlock)
		paidAtBlock = &value
	}
	row := PersistedReservationRow{
		Kind:         kind.String(),
		Owner:        owner.String(),
		Memo:         formatMemo(reservation.Memo),
		PriceE8s:     int64(reservation.Price.Uint64()),
		Status:       reservation.Status.String(),
		Counterparty: reservation.Counterparty.String(),
		SubjectID:    reservation.SubjectID,
		PaidAtBlock:  paidAtBlock,
		CreatedAt:    time.Unix(reservation.CreatedUnixUTC, 0).UTC(),
	}
	err := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return wrapStoreError(errorSubjectReservation, errorCodePut, err)
	}
	return nil
}

func (store *Store) GetPersistedReservation(ctx context.Context, kind market.ReservationKind, owner market.Identity) (market.Reservation, error) {
	var row PersistedReservationRow
	err := store.db.WithContext(ctx).
		Where("kind = ? AND owner = ?", kind.String(), owner.String()).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return market.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeGet, market.ErrReservationNotFound)
	}
	if err != nil {
		return market.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeGet, err)
	}
	return mapPersistedRow(row)
}

func wrapStoreError(subject string, code string, err error) error {
	return market.WrapError(errorOperationStore, subject, code, err)
}

func mapLoanRow(row LoanRow) (market.Loan, error) {
	status, err := market.ParseLoanStatus(row.Status)
	if err != nil {
		return market.Loan{}, wrapStoreError(errorSubjectLoan, errorCodeInvalid, err)
	}
	var borrower market.Borrower
	if err := json.Unmarshal(row.Borrower, &borrower); err != nil {
		return market.Loan{}, wrapStoreError(errorSubjectLoan, errorCodeInvalid, err)
	}
	var lender market.Lender
	if err := json.Unmarshal(row.Lender, &lender); err != nil {
		return market.Loan{}, wrapStoreError(errorSubjectLoan, errorCodeInvalid, err)
	}
	var collateral market.Collateral
	if err := json.Unmarshal(row.Collateral, &collateral); err != nil {
		return market.Loan{}, wrapStoreError(errorSubjectLoan, errorCodeInvalid, err)
	}
	guarantorIDs, err := decodeStringList(row.GuarantorIDs)
	if err != nil {
		return market.Loan{}, wrapStoreError(errorSubjectLoan, errorCodeInvalid, err)
	}
	return market.Loan{
		ID:             row.LoanID,
		Status:         status,
		Borrower:       borrower,
		Lender:         lender,
		Collateral:     collateral,
		AmountE8s:      uint64(row.AmountE8s),
		RepaidE8s:      uint64(row.RepaidE8s),
		Terms:          row.Terms,
		DueDate:        row.DueDate,
		GuarantorIDs:   guarantorIDs,
		CreatedUnixUTC: row.CreatedAt.Unix(),
	}, nil
}

func loanRowFrom(loan market.Loan) (LoanRow, error) {
	borrower, err := json.Marshal(loan.Borrower)
	if err != nil {
		return LoanRow{}, err
	}
	lender, err := json.Marshal(loan.Lender)
	if err != nil {
		return LoanRow{}, err
	}
	collateral, err := json.Marshal(loan.Collateral)
	if err != nil {
		return LoanRow{}, err
	}
	guarantorIDs, err := encodeStringList(loan.GuarantorIDs)
	if err != nil {
		return LoanRow{}, err
	}
	return LoanRow{
		LoanID:       loan.ID,
		Status:       loan.Status.String(),
		Borrower:     borrower,
		Lender:       lender,
		Collateral:   collateral,
		AmountE8s:    int64(loan.AmountE8s),
		RepaidE8s:    int64(loan.RepaidE8s),
		Terms:        loan.Terms,
		DueDate:      loan.DueDate,
		GuarantorIDs: guarantorIDs,
		CreatedAt:    time.Unix(loan.CreatedUnixUTC, 0).UTC(),
	}, nil
}

func mapBorrowerRow(row BorrowerRow) (market.Borrower, error) {
	owner, err := parseIdentity(row.Owner)
	if err != nil {
		return market.Borrower{}, wrapStoreError(errorSubjectBorrower, errorCodeInvalid, err)
	}
	loanIDs, err := decodeStringList(row.LoanIDs)
	if err != nil {
		return market.Borrower{}, wrapStoreError(errorSubjectBorrower, errorCodeInvalid, err)
	}
	collateralIDs, err := decodeStringList(row.CollateralIDs)
	if err != nil {
		return market.Borrower{}, wrapStoreError(errorSubjectBorrower, errorCodeInvalid, err)
	}
	return market.Borrower{
		ID:             row.BorrowerID,
		Owner:          owner,
		Name:           row.Name,
		Email:          row.Email,
		LoanIDs:        loanIDs,
		CollateralIDs:  collateralIDs,
		CreatedUnixUTC: row.CreatedAt.Unix(),
	}, nil
}

func borrowerRowFrom(borrower market.Borrower) (BorrowerRow, error) {
	loanIDs, err := encodeStringList(borrower.LoanIDs)
	if err != nil {
		return BorrowerRow{}, err
	}
	collateralIDs, err := encodeStringList(borrower.CollateralIDs)
	if err != nil {
		return BorrowerRow{}, err
	}
	return BorrowerRow{
		BorrowerID:    borrower.ID,
		Owner:         borrower.Owner.String(),
		Name:          borrower.Name,
		Email:         borrower.Email,
		LoanIDs:       loanIDs,
		CollateralIDs: collateralIDs,
		CreatedAt:     time.Unix(borrower.CreatedUnixUTC, 0).UTC(),
	}, nil
}

func mapLenderRow(row LenderRow) market.Lender {
	owner, _ := parseIdentity(row.Owner)
	return market.Lender{
		ID:             row.LenderID,
		Owner:          owner,
		Name:           row.Name,
		Email:          row.Email,
		SavingsE8s:     uint64(row.SavingsE8s),
		CreatedUnixUTC: row.CreatedAt.Unix(),
	}
}

func lenderRowFrom(lender market.Lender) LenderRow {
	return LenderRow{
		LenderID:   lender.ID,
		Owner:      lender.Owner.String(),
		Name:       lender.Name,
		Email:      lender.Email,
		SavingsE8s: int64(lender.SavingsE8s),
		CreatedAt:  time.Unix(lender.CreatedUnixUTC, 0).UTC(),
	}
}

func mapCollateralRow(row CollateralRow) market.Collateral {
	return market.Collateral{
		ID:             row.CollateralID,
		BorrowerID:     row.BorrowerID,
		Description:    row.Description,
		ValueE8s:       uint64(row.ValueE8s),
		Status:         market.CollateralStatus(row.Status),
		CreatedUnixUTC: row.CreatedAt.Unix(),
	}
}

func collateralRowFrom(collateral market.Collateral) CollateralRow {
	return CollateralRow{
		CollateralID: collateral.ID,
		BorrowerID:   collateral.BorrowerID,
		Description:  collateral.Description,
		ValueE8s:     int64(collateral.ValueE8s),
		Status:       string(collateral.Status),
		CreatedAt:    time.Unix(collateral.CreatedUnixUTC, 0).UTC(),
	}
}

func mapRequestRow(row LoanRequestRow) (market.LoanRequest, error) {
	applicant, err := parseIdentity(row.Applicant)
	if err != nil {
		return market.LoanRequest{}, wrapStoreError(errorSubjectRequest, errorCodeInvalid, err)
	}
	return market.LoanRequest{
		ID:             row.RequestID,
		LoanID:         row.LoanID,
		Applicant:      applicant,
		Description:    row.Description,
		AmountE8s:      uint64(row.AmountE8s),
		Selected:       row.Selected,
		CreatedUnixUTC: row.CreatedAt.Unix(),
	}, nil
}

func mapPendingRow(row PendingReservationRow) (market.Reservation, error) {
	return mapReservationFields(row.Kind, row.Memo, row.PriceE8s, row.Status, row.Counterparty, row.SubjectID, nil, row.CreatedAt)
}

func mapPersistedRow(row PersistedReservationRow) (market.Reservation, error) {
	return mapReservationFields(row.Kind, row.Memo, row.PriceE8s, row.Status, row.Counterparty, row.SubjectID, row.PaidAtBlock, row.CreatedAt)
}

func mapReservationFields(kind string, memoText string, priceE8s int64, status string, counterparty string, subjectID string, paidAtBlock *int64, createdAt time.Time) (market.Reservation, error) {
	memo, err := parseMemo(memoText)
	if err != nil {
		return market.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
	}
	price, err := market.NewAmount(uint64(priceE8s))
	if err != nil {
		return market.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
	}
	identity, err := parseIdentity(counterparty)
	if err != nil {
		return market.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
	}
	var block *market.BlockIndex
	if paidAtBlock != nil {
		value := market.BlockIndex(uint64(*paidAtBlock))
		block = &value
	}
	return market.Reservation{
		Price:          price,
		Status:         market.ReservationStatus(status),
		Counterparty:   identity,
		PaidAtBlock:    block,
		Memo:           memo,
		Kind:           market.ReservationKind(kind),
		SubjectID:      subjectID,
		CreatedUnixUTC: createdAt.Unix(),
	}, nil
}

func parseIdentity(raw string) (market.Identity, error) {
	return market.NewIdentity(raw)
}

func formatMemo(memo market.Memo) string {
	return strconv.FormatUint(uint64(memo), 10)
}

func parseMemo(raw string) (market.Memo, error) {
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed memo %q: %w", raw, err)
	}
	return market.Memo(value), nil
}

func encodeStringList(values []string) (datatypes.JSON, error) {
	if len(values) == 0 {
		return datatypes.JSON([]byte(emptyJSONArray)), nil
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(encoded), nil
}

func decodeStringList(raw datatypes.JSON) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}
