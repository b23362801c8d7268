package market

import (
	"context"
	"errors"
	"time"
)

// DiscardScheduler arms the one-shot discard callback for a reservation.
// There is no cancellation: a timer armed at reservation time always fires,
// and the discard callback must tolerate the entry being gone already.
type DiscardScheduler interface {
	ArmDiscard(delay time.Duration, discard func())
}

// TimerScheduler fires discard callbacks on real timers.
type TimerScheduler struct{}

// ArmDiscard schedules the callback after the delay.
func (TimerScheduler) ArmDiscard(delay time.Duration, discard func()) {
	time.AfterFunc(delay, discard)
}

func (service *Service) armDiscard(kind ReservationKind, memo Memo) {
	service.scheduler.ArmDiscard(service.reservationTTL, func() {
		service.discardReservation(kind, memo)
	})
}

// discardReservation removes an unconfirmed pending reservation. Removal is
// idempotent: when completion won the race the entry is already gone and the
// callback is a no-op.
func (service *Service) discardReservation(kind ReservationKind, memo Memo) {
	ctx := context.Background()
	_, err := service.store.TakePendingReservation(ctx, kind, memo)
	entry := OperationLog{
		Operation: operationDiscard,
		SubjectID: kind.String(),
		Memo:      memo,
		Status:    operationStatusDiscarded,
	}
	switch {
	case err == nil:
	case errors.Is(err, ErrReservationNotFound):
		entry.Status = operationStatusNoop
	default:
		entry.Status = operationStatusError
		entry.Error = err
	}
	service.logOperation(ctx, entry)
}
