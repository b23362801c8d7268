package market

import (
	"context"
	"errors"
	"testing"
)

func TestReservePayoutMarksLoanCompletedAndStoresPending(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	scheduler := &manualScheduler{}
	seedLoan(test, store, testLoan(test, "L1", 1000))
	service := mustNewService(test, store, newStubLedger(), WithDiscardScheduler(scheduler))
	caller := mustIdentity(test, "lender-principal")

	reservation, err := service.ReservePayout(context.Background(), caller, "L1")
	if err != nil {
		test.Fatalf("reserve payout: %v", err)
	}
	if reservation.Status != ReservationStatusPending {
		test.Fatalf("expected pending reservation, got %s", reservation.Status)
	}
	if reservation.Price != 1000 {
		test.Fatalf("expected price 1000, got %d", reservation.Price)
	}
	if reservation.Counterparty != mustIdentity(test, "borrower-principal") {
		test.Fatalf("expected borrower counterparty, got %s", reservation.Counterparty)
	}
	loan := store.loans["L1"]
	if loan.Status != LoanStatusCompleted {
		test.Fatalf("expected loan completed, got %s", loan.Status)
	}
	if store.pendingCount(ReservationPayout) != 1 {
		test.Fatalf("expected 1 pending reservation, got %d", store.pendingCount(ReservationPayout))
	}
	if _, err := store.GetPendingReservation(context.Background(), ReservationPayout, reservation.Memo); err != nil {
		test.Fatalf("pending reservation not keyed by memo: %v", err)
	}
	if len(scheduler.delays) != 1 || scheduler.delays[0] != defaultReservationTTL {
		test.Fatalf("expected one discard armed for %s, got %v", defaultReservationTTL, scheduler.delays)
	}
}

func TestReservePayoutUnknownLoan(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustNewService(test, store, newStubLedger(), WithDiscardScheduler(&manualScheduler{}))
	caller := mustIdentity(test, "lender-principal")

	_, err := service.ReservePayout(context.Background(), caller, "missing")
	if !errors.Is(err, ErrLoanNotFound) {
		test.Fatalf("expected ErrLoanNotFound, got %v", err)
	}
	if !errors.Is(err, ErrNotFound) {
		test.Fatalf("expected ErrNotFound category, got %v", err)
	}
}

func TestCompletePayoutMovesReservationToPersisted(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	ledger := newStubLedger()
	seedLoan(test, store, testLoan(test, "L1", 1000))
	service := mustNewService(test, store, ledger, WithDiscardScheduler(&manualScheduler{}))
	caller := mustIdentity(test, "lender-principal")
	counterparty := mustIdentity(test, "borrower-principal")

	reservation, err := service.ReservePayout(context.Background(), caller, "L1")
	if err != nil {
		test.Fatalf("reserve payout: %v", err)
	}
	ledger.addTransfer(7, reservation.Memo, caller, counterparty, 1000)

	completed, err := service.CompletePayout(context.Background(), caller, counterparty, "L1", mustAmount(test, 1000), 7, reservation.Memo)
	if err != nil {
		test.Fatalf("complete payout: %v", err)
	}
	if completed.Status != ReservationStatusCompleted {
		test.Fatalf("expected completed status, got %s", completed.Status)
	}
	if completed.PaidAtBlock == nil || *completed.PaidAtBlock != 7 {
		test.Fatalf("expected paid-at block 7, got %v", completed.PaidAtBlock)
	}
	if store.pendingCount(ReservationPayout) != 0 {
		test.Fatalf("expected pending store empty, got %d entries", store.pendingCount(ReservationPayout))
	}
	persisted, err := store.GetPersistedReservation(context.Background(), ReservationPayout, caller)
	if err != nil {
		test.Fatalf("persisted reservation missing: %v", err)
	}
	if persisted.Memo != reservation.Memo {
		test.Fatalf("expected persisted memo %d, got %d", reservation.Memo, persisted.Memo)
	}
}

func TestCompletePayoutTwiceFailsSecondTime(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	ledger := newStubLedger()
	seedLoan(test, store, testLoan(test, "L1", 1000))
	service := mustNewService(test, store, ledger, WithDiscardScheduler(&manualScheduler{}))
	caller := mustIdentity(test, "lender-principal")
	counterparty := mustIdentity(test, "borrower-principal")

	reservation, err := service.ReservePayout(context.Background(), caller, "L1")
	if err != nil {
		test.Fatalf("reserve payout: %v", err)
	}
	ledger.addTransfer(7, reservation.Memo, caller, counterparty, 1000)
	if _, err := service.CompletePayout(context.Background(), caller, counterparty, "L1", mustAmount(test, 1000), 7, reservation.Memo); err != nil {
		test.Fatalf("first completion: %v", err)
	}

	_, err = service.CompletePayout(context.Background(), caller, counterparty, "L1", mustAmount(test, 1000), 7, reservation.Memo)
	if !errors.Is(err, ErrPaymentCompleted) {
		test.Fatalf("expected ErrPaymentCompleted, got %v", err)
	}
	if !errors.Is(err, ErrNotFound) {
		test.Fatalf("expected ErrNotFound category, got %v", err)
	}
}

func TestCompletePayoutWrongAmountLeavesPendingRetryable(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	ledger := newStubLedger()
	seedLoan(test, store, testLoan(test, "L1", 1000))
	service := mustNewService(test, store, ledger, WithDiscardScheduler(&manualScheduler{}))
	caller := mustIdentity(test, "lender-principal")
	counterparty := mustIdentity(test, "borrower-principal")

	reservation, err := service.ReservePayout(context.Background(), caller, "L1")
	if err != nil {
		test.Fatalf("reserve payout: %v", err)
	}
	ledger.addTransfer(7, reservation.Memo, caller, counterparty, 999)

	_, err = service.CompletePayout(context.Background(), caller, counterparty, "L1", mustAmount(test, 1000), 7, reservation.Memo)
	if !errors.Is(err, ErrPaymentFailed) {
		test.Fatalf("expected ErrPaymentFailed, got %v", err)
	}
	if store.pendingCount(ReservationPayout) != 1 {
		test.Fatalf("expected pending reservation retained, got %d entries", store.pendingCount(ReservationPayout))
	}

	ledger.addTransfer(8, reservation.Memo, caller, counterparty, 1000)
	if _, err := service.CompletePayout(context.Background(), caller, counterparty, "L1", mustAmount(test, 1000), 8, reservation.Memo); err != nil {
		test.Fatalf("retry completion: %v", err)
	}
	if store.pendingCount(ReservationPayout) != 0 {
		test.Fatalf("expected pending store empty after retry")
	}
}

func TestCompletePayoutLedgerFailureLeavesStateUntouched(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	ledger := newStubLedger()
	seedLoan(test, store, testLoan(test, "L1", 1000))
	service := mustNewService(test, store, ledger, WithDiscardScheduler(&manualScheduler{}))
	caller := mustIdentity(test, "lender-principal")
	counterparty := mustIdentity(test, "borrower-principal")

	reservation, err := service.ReservePayout(context.Background(), caller, "L1")
	if err != nil {
		test.Fatalf("reserve payout: %v", err)
	}
	ledger.queryErr = ErrLedgerUnavailable

	_, err = service.CompletePayout(context.Background(), caller, counterparty, "L1", mustAmount(test, 1000), 7, reservation.Memo)
	if !errors.Is(err, ErrLedgerUnavailable) {
		test.Fatalf("expected ledger failure surfaced, got %v", err)
	}
	if store.pendingCount(ReservationPayout) != 1 {
		test.Fatalf("expected pending reservation retained on ledger failure")
	}
	if _, err := store.GetPersistedReservation(context.Background(), ReservationPayout, caller); !errors.Is(err, ErrReservationNotFound) {
		test.Fatalf("expected no persisted record on ledger failure, got %v", err)
	}
}

func TestDiscardRemovesPendingAndBlocksCompletion(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	ledger := newStubLedger()
	scheduler := &manualScheduler{}
	seedLoan(test, store, testLoan(test, "L1", 1000))
	service := mustNewService(test, store, ledger, WithDiscardScheduler(scheduler))
	caller := mustIdentity(test, "lender-principal")
	counterparty := mustIdentity(test, "borrower-principal")

	reservation, err := service.ReservePayout(context.Background(), caller, "L1")
	if err != nil {
		test.Fatalf("reserve payout: %v", err)
	}
	scheduler.fireAll()

	if store.pendingCount(ReservationPayout) != 0 {
		test.Fatalf("expected pending reservation discarded")
	}
	ledger.addTransfer(7, reservation.Memo, caller, counterparty, 1000)
	_, err = service.CompletePayout(context.Background(), caller, counterparty, "L1", mustAmount(test, 1000), 7, reservation.Memo)
	if !errors.Is(err, ErrReservationNotFound) {
		test.Fatalf("expected ErrReservationNotFound after discard, got %v", err)
	}
	// The optimistic loan mutation survives the discard.
	if store.loans["L1"].Status != LoanStatusCompleted {
		test.Fatalf("expected loan to remain completed, got %s", store.loans["L1"].Status)
	}
}

func TestDiscardAfterCompletionIsNoop(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	ledger := newStubLedger()
	scheduler := &manualScheduler{}
	logger := &recorderLogger{}
	seedLoan(test, store, testLoan(test, "L1", 1000))
	service := mustNewService(test, store, ledger, WithDiscardScheduler(scheduler), WithOperationLogger(logger))
	caller := mustIdentity(test, "lender-principal")
	counterparty := mustIdentity(test, "borrower-principal")

	reservation, err := service.ReservePayout(context.Background(), caller, "L1")
	if err != nil {
		test.Fatalf("reserve payout: %v", err)
	}
	ledger.addTransfer(7, reservation.Memo, caller, counterparty, 1000)
	if _, err := service.CompletePayout(context.Background(), caller, counterparty, "L1", mustAmount(test, 1000), 7, reservation.Memo); err != nil {
		test.Fatalf("complete payout: %v", err)
	}

	scheduler.fireAll()

	if _, err := store.GetPersistedReservation(context.Background(), ReservationPayout, caller); err != nil {
		test.Fatalf("persisted record lost after discard fired: %v", err)
	}
	last := logger.entries[len(logger.entries)-1]
	if last.Operation != operationDiscard || last.Status != operationStatusNoop {
		test.Fatalf("expected noop discard log, got %+v", last)
	}
}

func TestReserveRepaymentAccumulatesAndMarksPaid(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	seedLoan(test, store, testLoan(test, "L1", 1000))
	service := mustNewService(test, store, newStubLedger(), WithDiscardScheduler(&manualScheduler{}))
	caller := mustIdentity(test, "borrower-principal")

	first, err := service.ReserveRepayment(context.Background(), caller, "L1", mustAmount(test, 600))
	if err != nil {
		test.Fatalf("first repayment: %v", err)
	}
	if store.loans["L1"].Status == LoanStatusPaid {
		test.Fatalf("loan marked paid too early")
	}
	second, err := service.ReserveRepayment(context.Background(), caller, "L1", mustAmount(test, 500))
	if err != nil {
		test.Fatalf("second repayment: %v", err)
	}
	if first.Memo == second.Memo {
		test.Fatalf("expected distinct memos for consecutive reservations")
	}
	loan := store.loans["L1"]
	if loan.Status != LoanStatusPaid {
		test.Fatalf("expected loan paid after cumulative 1100, got %s", loan.Status)
	}
	if loan.RepaidE8s != 1100 {
		test.Fatalf("expected repaid 1100, got %d", loan.RepaidE8s)
	}
	repayments, err := service.GetRepayments(context.Background(), "L1")
	if err != nil {
		test.Fatalf("list repayments: %v", err)
	}
	if len(repayments) != 2 {
		test.Fatalf("expected 2 repayment records, got %d", len(repayments))
	}
	if first.Counterparty != mustIdentity(test, "lender-principal") {
		test.Fatalf("expected lender counterparty, got %s", first.Counterparty)
	}
}

func TestReserveSavingsCreditsLenderOptimistically(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	owner := mustIdentity(test, "lender-principal")
	if err := store.PutLender(context.Background(), Lender{ID: "lender-1", Owner: owner, Name: "Grace"}); err != nil {
		test.Fatalf("seed lender: %v", err)
	}
	service := mustNewService(test, store, newStubLedger(), WithDiscardScheduler(&manualScheduler{}))
	caller := mustIdentity(test, "saver-principal")

	reservation, err := service.ReserveSavings(context.Background(), caller, "lender-1", mustAmount(test, 250))
	if err != nil {
		test.Fatalf("reserve savings: %v", err)
	}
	if store.lenders["lender-1"].SavingsE8s != 250 {
		test.Fatalf("expected savings 250, got %d", store.lenders["lender-1"].SavingsE8s)
	}
	if reservation.Counterparty != owner {
		test.Fatalf("expected lender counterparty, got %s", reservation.Counterparty)
	}
	if store.pendingCount(ReservationSavings) != 1 {
		test.Fatalf("expected 1 pending savings reservation")
	}
}

func TestCompleteSavingsPersistsByCallerIdentity(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	ledger := newStubLedger()
	owner := mustIdentity(test, "lender-principal")
	if err := store.PutLender(context.Background(), Lender{ID: "lender-1", Owner: owner, Name: "Grace"}); err != nil {
		test.Fatalf("seed lender: %v", err)
	}
	service := mustNewService(test, store, ledger, WithDiscardScheduler(&manualScheduler{}))
	caller := mustIdentity(test, "saver-principal")

	reservation, err := service.ReserveSavings(context.Background(), caller, "lender-1", mustAmount(test, 250))
	if err != nil {
		test.Fatalf("reserve savings: %v", err)
	}
	ledger.addTransfer(3, reservation.Memo, caller, owner, 250)
	completed, err := service.CompleteSavings(context.Background(), caller, owner, "lender-1", mustAmount(test, 250), 3, reservation.Memo)
	if err != nil {
		test.Fatalf("complete savings: %v", err)
	}
	if completed.Status != ReservationStatusCompleted {
		test.Fatalf("expected completed savings reservation, got %s", completed.Status)
	}
	if _, err := store.GetPersistedReservation(context.Background(), ReservationSavings, caller); err != nil {
		test.Fatalf("persisted savings record missing: %v", err)
	}
}

func TestPersistedReservationLastWriteWinsPerCaller(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	ledger := newStubLedger()
	seedLoan(test, store, testLoan(test, "L1", 1000))
	seedLoan(test, store, func() Loan {
		loan := testLoan(test, "L2", 700)
		return loan
	}())
	service := mustNewService(test, store, ledger, WithDiscardScheduler(&manualScheduler{}))
	caller := mustIdentity(test, "lender-principal")
	counterparty := mustIdentity(test, "borrower-principal")

	firstReservation, err := service.ReservePayout(context.Background(), caller, "L1")
	if err != nil {
		test.Fatalf("reserve L1: %v", err)
	}
	secondReservation, err := service.ReservePayout(context.Background(), caller, "L2")
	if err != nil {
		test.Fatalf("reserve L2: %v", err)
	}
	ledger.addTransfer(1, firstReservation.Memo, caller, counterparty, 1000)
	ledger.addTransfer(2, secondReservation.Memo, caller, counterparty, 700)
	if _, err := service.CompletePayout(context.Background(), caller, counterparty, "L1", mustAmount(test, 1000), 1, firstReservation.Memo); err != nil {
		test.Fatalf("complete L1: %v", err)
	}
	if _, err := service.CompletePayout(context.Background(), caller, counterparty, "L2", mustAmount(test, 700), 2, secondReservation.Memo); err != nil {
		test.Fatalf("complete L2: %v", err)
	}

	// One persisted record per caller identity: the second completion
	// overwrote the first.
	persisted, err := store.GetPersistedReservation(context.Background(), ReservationPayout, caller)
	if err != nil {
		test.Fatalf("persisted record missing: %v", err)
	}
	if persisted.Memo != secondReservation.Memo {
		test.Fatalf("expected last completion persisted, got memo %d", persisted.Memo)
	}
}
