package market

import (
	"context"
	"time"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// OperationLogger records domain-level events emitted by Service operations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes a state-changing marketplace operation.
type OperationLog struct {
	Operation string
	Caller    Identity
	SubjectID string
	Memo      Memo
	Amount    Amount
	Status    string
	Error     error
}

// WithOperationLogger wires a logger that receives callbacks for every operation.
func WithOperationLogger(logger OperationLogger) ServiceOption {
	return func(service *Service) {
		service.logger = logger
	}
}

// WithDiscardScheduler replaces the default timer-based discard scheduler.
func WithDiscardScheduler(scheduler DiscardScheduler) ServiceOption {
	return func(service *Service) {
		service.scheduler = scheduler
	}
}

// WithReservationTTL overrides the reservation discard timeout.
func WithReservationTTL(ttl time.Duration) ServiceOption {
	return func(service *Service) {
		if ttl > 0 {
			service.reservationTTL = ttl
		}
	}
}

// WithIDGenerator replaces the record id generator.
func WithIDGenerator(generate func() string) ServiceOption {
	return func(service *Service) {
		if generate != nil {
			service.newID = generate
		}
	}
}
