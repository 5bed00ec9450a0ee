package logging

import (
	"context"
	"log/slog"

	"atmospress/internal/services"
)

// Shared structured-log keys. The console handler treats FieldComponent
// specially; the rest are ordinary attributes carried onto every record.
const (
	FieldComponent     = "component"
	FieldRunID         = "run_id"
	FieldStage         = "stage"
	FieldKind          = "kind"
	FieldMode          = "mode"
	FieldCorrelationID = "correlation_id"
)

// WithContext copies run identity out of ctx onto the logger: run_id, stage,
// and correlation_id, whichever are set. A nil logger gets the nop base.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	attrs := make([]any, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		attrs = append(attrs, slog.String(FieldRunID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		attrs = append(attrs, slog.String(FieldStage, stage))
	}
	if id, ok := services.CorrelationIDFromContext(ctx); ok {
		attrs = append(attrs, slog.String(FieldCorrelationID, id))
	}
	if len(attrs) == 0 {
		return logger
	}
	return logger.With(attrs...)
}
