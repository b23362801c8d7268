package market

import (
	"context"
	"fmt"
)

// AddLoan creates a loan in pending status. The referenced borrower, lender,
// and collateral are copied into the loan as creation-time snapshots, the
// collateral is marked locked, and the loan id is appended to the borrower's
// back-reference list.
func (service *Service) AddLoan(ctx context.Context, input LoanInput) (Loan, error) {
	if err := input.Validate(); err != nil {
		return Loan{}, err
	}
	var loan Loan
	err := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		borrower, err := transactionStore.GetBorrower(ctx, input.BorrowerID)
		if err != nil {
			return err
		}
		lender, err := transactionStore.GetLender(ctx, input.LenderID)
		if err != nil {
			return err
		}
		collateral, err := transactionStore.GetCollateral(ctx, input.CollateralID)
		if err != nil {
			return err
		}
		collateral.Status = CollateralStatusLocked
		if err := transactionStore.PutCollateral(ctx, collateral); err != nil {
			return err
		}
		loan = Loan{
			ID:             service.newID(),
			Status:         LoanStatusPending,
			Borrower:       borrower,
			Lender:         lender,
			Collateral:     collateral,
			AmountE8s:      input.AmountE8s,
			Terms:          input.Terms,
			DueDate:        input.DueDate,
			GuarantorIDs:   input.GuarantorIDs,
			CreatedUnixUTC: service.nowFn().UTC().Unix(),
		}
		if err := transactionStore.PutLoan(ctx, loan); err != nil {
			return err
		}
		borrower.LoanIDs = append(borrower.LoanIDs, loan.ID)
		return transactionStore.PutBorrower(ctx, borrower)
	})
	if err != nil {
		return Loan{}, err
	}
	return loan, nil
}

// UpdateLoan applies the mutable loan fields.
func (service *Service) UpdateLoan(ctx context.Context, update LoanUpdate) (Loan, error) {
	if err := update.Validate(); err != nil {
		return Loan{}, err
	}
	var loan Loan
	err := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		current, err := transactionStore.GetLoan(ctx, update.ID)
		if err != nil {
			return err
		}
		if update.Terms != "" {
			current.Terms = update.Terms
		}
		if update.DueDate != "" {
			current.DueDate = update.DueDate
		}
		if update.GuarantorIDs != nil {
			current.GuarantorIDs = update.GuarantorIDs
		}
		loan = current
		return transactionStore.PutLoan(ctx, current)
	})
	if err != nil {
		return Loan{}, err
	}
	return loan, nil
}

// GetLoan returns the loan with the given id.
func (service *Service) GetLoan(ctx context.Context, loanID string) (Loan, error) {
	if loanID == "" {
		return Loan{}, fmt.Errorf("%w: loan id is required", ErrInvalidPayload)
	}
	return service.store.GetLoan(ctx, loanID)
}

// GetLoans returns every loan in insertion order.
func (service *Service) GetLoans(ctx context.Context) ([]Loan, error) {
	return service.store.ListLoans(ctx)
}

// GetActiveLoans returns loans whose principal has been approved and not yet
// paid off.
func (service *Service) GetActiveLoans(ctx context.Context) ([]Loan, error) {
	return service.loansWithStatus(ctx, "", LoanStatusApproved)
}

// GetLenderPendingLoans returns the lender's loans awaiting a decision.
func (service *Service) GetLenderPendingLoans(ctx context.Context, lenderID string) ([]Loan, error) {
	return service.loansWithStatus(ctx, lenderID, LoanStatusPending)
}

// GetLenderActiveLoans returns the lender's approved loans.
func (service *Service) GetLenderActiveLoans(ctx context.Context, lenderID string) ([]Loan, error) {
	return service.loansWithStatus(ctx, lenderID, LoanStatusApproved)
}

// GetLenderCompletedLoans returns the lender's loans whose principal payout
// reservation has been created.
func (service *Service) GetLenderCompletedLoans(ctx context.Context, lenderID string) ([]Loan, error) {
	return service.loansWithStatus(ctx, lenderID, LoanStatusCompleted)
}

func (service *Service) loansWithStatus(ctx context.Context, lenderID string, status LoanStatus) ([]Loan, error) {
	loans, err := service.store.ListLoans(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]Loan, 0, len(loans))
	for _, loan := range loans {
		if loan.Status != status {
			continue
		}
		if lenderID != "" && loan.Lender.ID != lenderID {
			continue
		}
		matched = append(matched, loan)
	}
	return matched, nil
}

// ApproveLoan transitions a pending loan to approved.
func (service *Service) ApproveLoan(ctx context.Context, loanID string) (Loan, error) {
	return service.decideLoan(ctx, loanID, LoanStatusApproved)
}

// RejectLoan transitions a pending loan to rejected.
func (service *Service) RejectLoan(ctx context.Context, loanID string) (Loan, error) {
	return service.decideLoan(ctx, loanID, LoanStatusRejected)
}

func (service *Service) decideLoan(ctx context.Context, loanID string, decision LoanStatus) (Loan, error) {
	if loanID == "" {
		return Loan{}, fmt.Errorf("%w: loan id is required", ErrInvalidPayload)
	}
	var loan Loan
	err := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		current, err := transactionStore.GetLoan(ctx, loanID)
		if err != nil {
			return err
		}
		if current.Status != LoanStatusPending {
			return fmt.Errorf("%w: loan %s is %s", ErrLoanNotPending, loanID, current.Status)
		}
		current.Status = decision
		loan = current
		return transactionStore.PutLoan(ctx, current)
	})
	if err != nil {
		return Loan{}, err
	}
	return loan, nil
}

// AddRequest records a borrower's application against a loan offer.
func (service *Service) AddRequest(ctx context.Context, caller Identity, input RequestInput) (LoanRequest, error) {
	if caller.IsZero() {
		return LoanRequest{}, fmt.Errorf("%w: caller identity is required", ErrInvalidIdentity)
	}
	if err := input.Validate(); err != nil {
		return LoanRequest{}, err
	}
	var request LoanRequest
	err := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if _, err := transactionStore.GetLoan(ctx, input.LoanID); err != nil {
			return err
		}
		request = LoanRequest{
			ID:             service.newID(),
			LoanID:         input.LoanID,
			Applicant:      caller,
			Description:    input.Description,
			AmountE8s:      input.AmountE8s,
			CreatedUnixUTC: service.nowFn().UTC().Unix(),
		}
		return transactionStore.PutRequest(ctx, request)
	})
	if err != nil {
		return LoanRequest{}, err
	}
	return request, nil
}

// SelectRequest marks a request as the one chosen for its loan.
func (service *Service) SelectRequest(ctx context.Context, requestID string) (LoanRequest, error) {
	if requestID == "" {
		return LoanRequest{}, fmt.Errorf("%w: request id is required", ErrInvalidPayload)
	}
	var request LoanRequest
	err := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		current, err := transactionStore.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		current.Selected = true
		request = current
		return transactionStore.PutRequest(ctx, current)
	})
	if err != nil {
		return LoanRequest{}, err
	}
	return request, nil
}

// GetRequest returns a single loan request.
func (service *Service) GetRequest(ctx context.Context, requestID string) (LoanRequest, error) {
	if requestID == "" {
		return LoanRequest{}, fmt.Errorf("%w: request id is required", ErrInvalidPayload)
	}
	return service.store.GetRequest(ctx, requestID)
}

// GetRequests returns every loan request in insertion order.
func (service *Service) GetRequests(ctx context.Context) ([]LoanRequest, error) {
	return service.store.ListRequests(ctx)
}

// GetLoanRequests returns the requests filed against one loan.
func (service *Service) GetLoanRequests(ctx context.Context, loanID string) ([]LoanRequest, error) {
	if loanID == "" {
		return nil, fmt.Errorf("%w: loan id is required", ErrInvalidPayload)
	}
	return service.store.ListLoanRequests(ctx, loanID)
}

// GetRepayments returns the repayment audit records for a loan.
func (service *Service) GetRepayments(ctx context.Context, loanID string) ([]Repayment, error) {
	if loanID == "" {
		return nil, fmt.Errorf("%w: loan id is required", ErrInvalidPayload)
	}
	return service.store.ListRepayments(ctx, loanID)
}
