package market

import (
	"context"
	"errors"
	"fmt"
)

// ReservePayout creates a pending payout reservation for a loan's principal.
// The loan is optimistically marked completed before any transfer happens;
// the caller is expected to perform the ledger transfer and then call
// CompletePayout with the resulting block and the returned memo.
func (service *Service) ReservePayout(ctx context.Context, caller Identity, loanID string) (Reservation, error) {
	var reservation Reservation
	operationError := func() error {
		if caller.IsZero() {
			return fmt.Errorf("%w: caller identity is required", ErrInvalidIdentity)
		}
		if loanID == "" {
			return fmt.Errorf("%w: loan id is required", ErrInvalidPayload)
		}
		return service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
			loan, err := transactionStore.GetLoan(ctx, loanID)
			if err != nil {
				return err
			}
			loan.Status = LoanStatusCompleted
			if err := transactionStore.PutLoan(ctx, loan); err != nil {
				return err
			}
			reservation = service.newReservation(ReservationPayout, loanID, loanID, caller, loan.Borrower.Owner, Amount(loan.AmountE8s))
			return transactionStore.PutPendingReservation(ctx, reservation)
		})
	}()
	if operationError == nil {
		service.armDiscard(ReservationPayout, reservation.Memo)
	}
	service.logOperation(ctx, OperationLog{
		Operation: operationReservePayout,
		Caller:    caller,
		SubjectID: loanID,
		Memo:      reservation.Memo,
		Amount:    reservation.Price,
		Error:     operationError,
	})
	return reservation, operationError
}

// ReserveRepayment creates a pending repayment reservation toward a loan's
// lender. The repayment audit record and the loan's cumulative repaid amount
// are written immediately, before the transfer is verified; once the repaid
// total reaches the loan amount the loan is marked paid.
func (service *Service) ReserveRepayment(ctx context.Context, caller Identity, loanID string, amount Amount) (Reservation, error) {
	var reservation Reservation
	operationError := func() error {
		if caller.IsZero() {
			return fmt.Errorf("%w: caller identity is required", ErrInvalidIdentity)
		}
		if loanID == "" {
			return fmt.Errorf("%w: loan id is required", ErrInvalidPayload)
		}
		if amount == 0 {
			return fmt.Errorf("%w: repayment amount must be greater than zero", ErrInvalidAmount)
		}
		return service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
			loan, err := transactionStore.GetLoan(ctx, loanID)
			if err != nil {
				return err
			}
			loan.RepaidE8s += amount.Uint64()
			if loan.RepaidE8s >= loan.AmountE8s {
				loan.Status = LoanStatusPaid
			}
			if err := transactionStore.PutLoan(ctx, loan); err != nil {
				return err
			}
			repayment := Repayment{
				ID:             service.newID(),
				LoanID:         loanID,
				Payer:          caller,
				AmountE8s:      amount.Uint64(),
				CreatedUnixUTC: service.nowFn().UTC().Unix(),
			}
			if err := transactionStore.PutRepayment(ctx, repayment); err != nil {
				return err
			}
			reservation = service.newReservation(ReservationRepayment, loanID, loanID, caller, loan.Lender.Owner, amount)
			return transactionStore.PutPendingReservation(ctx, reservation)
		})
	}()
	if operationError == nil {
		service.armDiscard(ReservationRepayment, reservation.Memo)
	}
	service.logOperation(ctx, OperationLog{
		Operation: operationReserveRepayment,
		Caller:    caller,
		SubjectID: loanID,
		Memo:      reservation.Memo,
		Amount:    amount,
		Error:     operationError,
	})
	return reservation, operationError
}

// ReserveSavings creates a pending savings reservation toward a lender. The
// lender's savings balance is credited optimistically at reservation time.
func (service *Service) ReserveSavings(ctx context.Context, caller Identity, lenderID string, amount Amount) (Reservation, error) {
	var reservation Reservation
	operationError := func() error {
		if caller.IsZero() {
			return fmt.Errorf("%w: caller identity is required", ErrInvalidIdentity)
		}
		if lenderID == "" {
			return fmt.Errorf("%w: lender id is required", ErrInvalidPayload)
		}
		if amount == 0 {
			return fmt.Errorf("%w: savings amount must be greater than zero", ErrInvalidAmount)
		}
		return service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
			lender, err := transactionStore.GetLender(ctx, lenderID)
			if err != nil {
				return err
			}
			lender.SavingsE8s += amount.Uint64()
			if err := transactionStore.PutLender(ctx, lender); err != nil {
				return err
			}
			reservation = service.newReservation(ReservationSavings, memoSubjectSavings, lenderID, caller, lender.Owner, amount)
			return transactionStore.PutPendingReservation(ctx, reservation)
		})
	}()
	if operationError == nil {
		service.armDiscard(ReservationSavings, reservation.Memo)
	}
	service.logOperation(ctx, OperationLog{
		Operation: operationReserveSavings,
		Caller:    caller,
		SubjectID: lenderID,
		Memo:      reservation.Memo,
		Amount:    amount,
		Error:     operationError,
	})
	return reservation, operationError
}

// CompletePayout verifies the payout transfer and moves the reservation from
// the pending store to the persisted store.
func (service *Service) CompletePayout(ctx context.Context, caller Identity, counterparty Identity, loanID string, amount Amount, block BlockIndex, memo Memo) (Reservation, error) {
	return service.completeReservation(ctx, operationCompletePayout, ReservationPayout, caller, counterparty, loanID, amount, block, memo)
}

// CompleteRepayment verifies the repayment transfer and moves the reservation
// from the pending store to the persisted store.
func (service *Service) CompleteRepayment(ctx context.Context, caller Identity, counterparty Identity, loanID string, amount Amount, block BlockIndex, memo Memo) (Reservation, error) {
	return service.completeReservation(ctx, operationCompleteRepayment, ReservationRepayment, caller, counterparty, loanID, amount, block, memo)
}

// CompleteSavings verifies the savings transfer and moves the reservation
// from the pending store to the persisted store.
func (service *Service) CompleteSavings(ctx context.Context, caller Identity, counterparty Identity, lenderID string, amount Amount, block BlockIndex, memo Memo) (Reservation, error) {
	return service.completeReservation(ctx, operationCompleteSavings, ReservationSavings, caller, counterparty, lenderID, amount, block, memo)
}

// completeReservation is the shared second phase. Verification happens before
// any mutation, so a failed or unavailable ledger query leaves the pending
// reservation untouched and retryable. Consuming the pending entry inside the
// transaction makes completion at-most-once per memo: a second attempt finds
// the entry gone and fails.
func (service *Service) completeReservation(ctx context.Context, operation string, kind ReservationKind, caller Identity, counterparty Identity, subjectID string, amount Amount, block BlockIndex, memo Memo) (Reservation, error) {
	var reservation Reservation
	operationError := func() error {
		if caller.IsZero() {
			return fmt.Errorf("%w: caller identity is required", ErrInvalidIdentity)
		}
		if counterparty.IsZero() {
			return fmt.Errorf("%w: counterparty identity is required", ErrInvalidIdentity)
		}
		if amount == 0 {
			return fmt.Errorf("%w: amount must be greater than zero", ErrInvalidAmount)
		}
		verified, err := service.VerifyPayment(ctx, caller, counterparty, amount, block, memo)
		if err != nil {
			return err
		}
		if !verified {
			return ErrPaymentFailed
		}
		return service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
			pending, err := transactionStore.TakePendingReservation(ctx, kind, memo)
			if errors.Is(err, ErrReservationNotFound) {
				persisted, persistedErr := transactionStore.GetPersistedReservation(ctx, kind, caller)
				if persistedErr == nil && persisted.Memo == memo {
					return ErrPaymentCompleted
				}
				return err
			}
			if err != nil {
				return err
			}
			paidAt := block
			pending.Status = ReservationStatusCompleted
			pending.PaidAtBlock = &paidAt
			reservation = pending
			return transactionStore.PutPersistedReservation(ctx, kind, caller, pending)
		})
	}()
	service.logOperation(ctx, OperationLog{
		Operation: operation,
		Caller:    caller,
		SubjectID: subjectID,
		Memo:      memo,
		Amount:    amount,
		Error:     operationError,
	})
	return reservation, operationError
}

func (service *Service) newReservation(kind ReservationKind, memoSubject string, subjectID string, caller Identity, counterparty Identity, price Amount) Reservation {
	now := service.nowFn()
	return Reservation{
		Price:          price,
		Status:         ReservationStatusPending,
		Counterparty:   counterparty,
		Memo:           NewMemo(memoSubject, caller, now),
		Kind:           kind,
		SubjectID:      subjectID,
		CreatedUnixUTC: now.UTC().Unix(),
	}
}
