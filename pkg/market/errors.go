package market

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the marketplace service. The payment
// errors wrap ErrNotFound so callers that only branch on the category keep
// working, while errors.Is still distinguishes the precise cause.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidPayload = errors.New("invalid payload")

	ErrLoanNotFound        = fmt.Errorf("%w: loan", ErrNotFound)
	ErrBorrowerNotFound    = fmt.Errorf("%w: borrower", ErrNotFound)
	ErrLenderNotFound      = fmt.Errorf("%w: lender", ErrNotFound)
	ErrCollateralNotFound  = fmt.Errorf("%w: collateral", ErrNotFound)
	ErrRequestNotFound     = fmt.Errorf("%w: loan request", ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("%w: reservation", ErrNotFound)

	ErrPaymentFailed    = fmt.Errorf("%w: cannot verify the payment", ErrNotFound)
	ErrPaymentCompleted = fmt.Errorf("%w: payment already completed", ErrNotFound)

	ErrLoanNotPending    = errors.New("loan is not pending")
	ErrLedgerUnavailable = errors.New("ledger unavailable")
	ErrAlreadyRegistered = errors.New("identity already registered")

	ErrInvalidIdentity      = errors.New("invalid identity")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidLoanStatus    = errors.New("invalid loan status")
	ErrInvalidServiceConfig = errors.New("invalid service config")
)

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
