package market

import "time"

const (
	operationReservePayout     = "reserve_payout"
	operationReserveRepayment  = "reserve_repayment"
	operationReserveSavings    = "reserve_savings"
	operationCompletePayout    = "complete_payout"
	operationCompleteRepayment = "complete_repayment"
	operationCompleteSavings   = "complete_savings"
	operationVerifyPayment     = "verify_payment"
	operationDiscard           = "discard_reservation"

	operationStatusOK        = "ok"
	operationStatusError     = "error"
	operationStatusDiscarded = "discarded"
	operationStatusNoop      = "noop"

	// memoSubjectSavings is the correlation-id subject for savings deposits,
	// which are not tied to a loan.
	memoSubjectSavings = "savings"

	// defaultReservationTTL is how long an unconfirmed reservation survives
	// before the discard timer removes it.
	defaultReservationTTL = 120 * time.Second
)
