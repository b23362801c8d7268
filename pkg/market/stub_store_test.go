package market

import (
	"context"
	"testing"
	"time"
)

// stubStore is an in-memory Store with insertion-ordered listings and
// per-method error injection.
type stubStore struct {
	loans       map[string]Loan
	loanOrder   []string
	borrowers   map[string]Borrower
	lenders     map[string]Lender
	collaterals map[string]Collateral
	repayments  []Repayment
	requests    map[string]LoanRequest
	pending     map[ReservationKind]map[Memo]Reservation
	persisted   map[ReservationKind]map[string]Reservation

	getLoanError     error
	putLoanError     error
	putPendingError  error
	takePendingError error
	putPersistError  error
}

func newStubStore(test *testing.T) *stubStore {
	test.Helper()
	return &stubStore{
		loans:       map[string]Loan{},
		borrowers:   map[string]Borrower{},
		lenders:     map[string]Lender{},
		collaterals: map[string]Collateral{},
		requests:    map[string]LoanRequest{},
		pending:     map[ReservationKind]map[Memo]Reservation{},
		persisted:   map[ReservationKind]map[string]Reservation{},
	}
}

func (store *stubStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error {
	return fn(ctx, store)
}

func (store *stubStore) GetLoan(_ context.Context, loanID string) (Loan, error) {
	if store.getLoanError != nil {
		return Loan{}, store.getLoanError
	}
	loan, ok := store.loans[loanID]
	if !ok {
		return Loan{}, ErrLoanNotFound
	}
	return loan, nil
}

func (store *stubStore) PutLoan(_ context.Context, loan Loan) error {
	if store.putLoanError != nil {
		return store.putLoanError
	}
	if _, ok := store.loans[loan.ID]; !ok {
		store.loanOrder = append(store.loanOrder, loan.ID)
	}
	store.loans[loan.ID] = loan
	return nil
}

func (store *stubStore) ListLoans(_ context.Context) ([]Loan, error) {
	loans := make([]Loan, 0, len(store.loanOrder))
	for _, loanID := range store.loanOrder {
		loans = append(loans, store.loans[loanID])
	}
	return loans, nil
}

func (store *stubStore) GetBorrower(_ context.Context, borrowerID string) (Borrower, error) {
	borrower, ok := store.borrowers[borrowerID]
	if !ok {
		return Borrower{}, ErrBorrowerNotFound
	}
	return borrower, nil
}

func (store *stubStore) PutBorrower(_ context.Context, borrower Borrower) error {
	store.borrowers[borrower.ID] = borrower
	return nil
}

func (store *stubStore) ListBorrowers(_ context.Context) ([]Borrower, error) {
	borrowers := make([]Borrower, 0, len(store.borrowers))
	for _, borrower := range store.borrowers {
		borrowers = append(borrowers, borrower)
	}
	return borrowers, nil
}

func (store *stubStore) FindBorrowerByOwner(_ context.Context, owner Identity) (Borrower, error) {
	for _, borrower := range store.borrowers {
		if borrower.Owner == owner {
			return borrower, nil
		}
	}
	return Borrower{}, ErrBorrowerNotFound
}

func (store *stubStore) GetLender(_ context.Context, lenderID string) (Lender, error) {
	lender, ok := store.lenders[lenderID]
	if !ok {
		return Lender{}, ErrLenderNotFound
	}
	return lender, nil
}

func (store *stubStore) PutLender(_ context.Context, lender Lender) error {
	store.lenders[lender.ID] = lender
	return nil
}

func (store *stubStore) ListLenders(_ context.Context) ([]Lender, error) {
	lenders := make([]Lender, 0, len(store.lenders))
	for _, lender := range store.lenders {
		lenders = append(lenders, lender)
	}
	return lenders, nil
}

func (store *stubStore) FindLenderByOwner(_ context.Context, owner Identity) (Lender, error) {
	for _, lender := range store.lenders {
		if lender.Owner == owner {
			return lender, nil
		}
	}
	return Lender{}, ErrLenderNotFound
}

func (store *stubStore) GetCollateral(_ context.Context, collateralID string) (Collateral, error) {
	collateral, ok := store.collaterals[collateralID]
	if !ok {
		return Collateral{}, ErrCollateralNotFound
	}
	return collateral, nil
}

func (store *stubStore) PutCollateral(_ context.Context, collateral Collateral) error {
	store.collaterals[collateral.ID] = collateral
	return nil
}

func (store *stubStore) ListCollaterals(_ context.Context) ([]Collateral, error) {
	collaterals := make([]Collateral, 0, len(store.collaterals))
	for _, collateral := range store.collaterals {
		collaterals = append(collaterals, collateral)
	}
	return collaterals, nil
}

func (store *stubStore) PutRepayment(_ context.Context, repayment Repayment) error {
	store.repayments = append(store.repayments, repayment)
	return nil
}

func (store *stubStore) ListRepayments(_ context.Context, loanID string) ([]Repayment, error) {
	repayments := make([]Repayment, 0, len(store.repayments))
	for _, repayment := range store.repayments {
		if repayment.LoanID == loanID {
			repayments = append(repayments, repayment)
		}
	}
	return repayments, nil
}

func (store *stubStore) GetRequest(_ context.Context, requestID string) (LoanRequest, error) {
	request, ok := store.requests[requestID]
	if !ok {
		return LoanRequest{}, ErrRequestNotFound
	}
	return request, nil
}

func (store *stubStore) PutRequest(_ context.Context, request LoanRequest) error {
	store.requests[request.ID] = request
	return nil
}

func (store *stubStore) ListRequests(_ context.Context) ([]LoanRequest, error) {
	requests := make([]LoanRequest, 0, len(store.requests))
	for _, request := range store.requests {
		requests = append(requests, request)
	}
	return requests, nil
}

func (store *stubStore) ListLoanRequests(_ context.Context, loanID string) ([]LoanRequest, error) {
	requests := make([]LoanRequest, 0, len(store.requests))
	for _, request := range store.requests {
		if request.LoanID == loanID {
			requests = append(requests, request)
		}
	}
	return requests, nil
}

func (store *stubStore) PutPendingReservation(_ context.Context, reservation Reservation) error {
	if store.putPendingError != nil {
		return store.putPendingError
	}
	partition, ok := store.pending[reservation.Kind]
	if !ok {
		partition = map[Memo]Reservation{}
		store.pending[reservation.Kind] = partition
	}
	partition[reservation.Memo] = reservation
	return nil
}

func (store *stubStore) GetPendingReservation(_ context.Context, kind ReservationKind, memo Memo) (Reservation, error) {
	reservation, ok := store.pending[kind][memo]
	if !ok {
		return Reservation{}, ErrReservationNotFound
	}
	return reservation, nil
}

func (store *stubStore) TakePendingReservation(_ context.Context, kind ReservationKind, memo Memo) (Reservation, error) {
	if store.takePendingError != nil {
		return Reservation{}, store.takePendingError
	}
	reservation, ok := store.pending[kind][memo]
	if !ok {
		return Reservation{}, ErrReservationNotFound
	}
	delete(store.pending[kind], memo)
	return reservation, nil
}

func (store *stubStore) PutPersistedReservation(_ context.Context, kind ReservationKind, owner Identity, reservation Reservation) error {
	if store.putPersistError != nil {
		return store.putPersistError
	}
	partition, ok := store.persisted[kind]
	if !ok {
		partition = map[string]Reservation{}
		store.persisted[kind] = partition
	}
	partition[owner.String()] = reservation
	return nil
}

func (store *stubStore) GetPersistedReservation(_ context.Context, kind ReservationKind, owner Identity) (Reservation, error) {
	reservation, ok := store.persisted[kind][owner.String()]
	if !ok {
		return Reservation{}, ErrReservationNotFound
	}
	return reservation, nil
}

func (store *stubStore) pendingCount(kind ReservationKind) int {
	return len(store.pending[kind])
}

// stubLedger serves canned block ranges keyed by the queried start index.
type stubLedger struct {
	blocks   map[BlockIndex][]Block
	queryErr error
}

func newStubLedger() *stubLedger {
	return &stubLedger{blocks: map[BlockIndex][]Block{}}
}

func (ledger *stubLedger) QueryBlocks(_ context.Context, start BlockIndex, _ uint64) (BlockRange, error) {
	if ledger.queryErr != nil {
		return BlockRange{}, ledger.queryErr
	}
	return BlockRange{Blocks: ledger.blocks[start]}, nil
}

func (ledger *stubLedger) addTransfer(block BlockIndex, memo Memo, sender Identity, receiver Identity, amountE8s uint64) {
	ledger.blocks[block] = append(ledger.blocks[block], Block{
		Transaction: Transaction{
			Memo: memo,
			Transfer: &Transfer{
				From:   AddressForIdentity(sender),
				To:     AddressForIdentity(receiver),
				Amount: Tokens{E8s: amountE8s},
			},
		},
	})
}

// manualScheduler records armed discards and fires them on demand.
type manualScheduler struct {
	delays []time.Duration
	armed  []func()
}

func (scheduler *manualScheduler) ArmDiscard(delay time.Duration, discard func()) {
	scheduler.delays = append(scheduler.delays, delay)
	scheduler.armed = append(scheduler.armed, discard)
}

func (scheduler *manualScheduler) fireAll() {
	fired := scheduler.armed
	scheduler.armed = nil
	for _, discard := range fired {
		discard()
	}
}

// newTestClock returns a clock that advances one nanosecond per reading so
// consecutive memos never collide.
func newTestClock(start int64) func() time.Time {
	var ticks int64
	return func() time.Time {
		ticks++
		return time.Unix(start, ticks).UTC()
	}
}

func mustIdentity(test *testing.T, raw string) Identity {
	test.Helper()
	identity, err := NewIdentity(raw)
	if err != nil {
		test.Fatalf("identity %q: %v", raw, err)
	}
	return identity
}

func mustAmount(test *testing.T, raw uint64) Amount {
	test.Helper()
	amount, err := NewAmount(raw)
	if err != nil {
		test.Fatalf("amount %d: %v", raw, err)
	}
	return amount
}

func mustNewService(test *testing.T, store Store, ledger LedgerClient, options ...ServiceOption) *Service {
	test.Helper()
	service, err := NewService(store, ledger, newTestClock(1_700_000_000), options...)
	if err != nil {
		test.Fatalf("service init: %v", err)
	}
	return service
}

func seedLoan(test *testing.T, store *stubStore, loan Loan) Loan {
	test.Helper()
	if err := store.PutLoan(context.Background(), loan); err != nil {
		test.Fatalf("seed loan: %v", err)
	}
	return loan
}

func testLoan(test *testing.T, loanID string, amountE8s uint64) Loan {
	test.Helper()
	return Loan{
		ID:     loanID,
		Status: LoanStatusApproved,
		Borrower: Borrower{
			ID:    "borrower-1",
			Owner: mustIdentity(test, "borrower-principal"),
			Name:  "Ada",
		},
		Lender: Lender{
			ID:    "lender-1",
			Owner: mustIdentity(test, "lender-principal"),
			Name:  "Grace",
		},
		AmountE8s: amountE8s,
	}
}
