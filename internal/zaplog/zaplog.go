// Package zaplog bridges marketplace operation callbacks onto a
// structured zap logger and prometheus counters.
package zaplog

import (
	"context"

	"go.uber.org/zap"

	"github.com/CedarStreetLab/loanmarket/pkg/market"
)

// OperationLogger writes one structured log line per marketplace
// operation. It satisfies market.OperationLogger.
type OperationLogger struct {
	logger *zap.Logger
}

// NewOperationLogger wraps a zap logger. A nil logger falls back to a
// no-op logger so the service never has to nil-check.
func NewOperationLogger(logger *zap.Logger) *OperationLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OperationLogger{logger: logger}
}

// LogOperation records a single operation outcome.
func (operationLogger *OperationLogger) LogOperation(_ context.Context, entry market.OperationLog) {
	operationsTotal.WithLabelValues(entry.Operation, entry.Status).Inc()
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
		zap.String("subject_id", entry.SubjectID),
		zap.Uint64("memo", uint64(entry.Memo)),
		zap.Uint64("amount_e8s", entry.Amount.Uint64()),
	}
	if !entry.Caller.IsZero() {
		fields = append(fields, zap.String("caller", entry.Caller.String()))
	}
	if entry.Error != nil {
		fields = append(fields, zap.Error(entry.Error))
		operationLogger.logger.Warn("marketplace operation failed", fields...)
		return
	}
	operationLogger.logger.Info("marketplace operation", fields...)
}
