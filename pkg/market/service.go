package market

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service contains the marketplace domain logic over a Store and the
// external ledger.
type Service struct {
	store          Store
	ledger         LedgerClient
	nowFn          func() time.Time
	newID          func() string
	scheduler      DiscardScheduler
	logger         OperationLogger
	reservationTTL time.Duration
}

// NewService wires a Service.
func NewService(store Store, ledger LedgerClient, now func() time.Time, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if ledger == nil {
		return nil, fmt.Errorf("%w: ledger dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{
		store:          store,
		ledger:         ledger,
		nowFn:          now,
		newID:          uuid.NewString,
		scheduler:      TimerScheduler{},
		reservationTTL: defaultReservationTTL,
	}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}
