package logging

import (
	"context"
	"log/slog"

	"folio/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldComicID is the standardized structured logging key for library comic identifiers.
	FieldComicID = "comic_id"
	// FieldSessionID is the standardized structured logging key for page-stream sessions.
	FieldSessionID = "session_id"
	// FieldStage is the standardized structured logging key for processing stages.
	FieldStage = "stage"
	// FieldPageIndex is the 0-based page ordinal a log line refers to.
	FieldPageIndex = "page_index"
	// FieldPageCount is the total number of pages in a container.
	FieldPageCount = "page_count"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType names the kind of occurrence so logs can be filtered.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields turns the services scope on ctx into slog attributes.
func ContextFields(ctx context.Context) []slog.Attr {
	scope := services.ScopeFrom(ctx)
	pairs := [...][2]string{
		{FieldComicID, scope.ComicID},
		{FieldSessionID, scope.SessionID},
		{FieldStage, scope.Stage},
		{FieldCorrelationID, scope.RequestID},
	}
	var fields []slog.Attr
	for _, p := range pairs {
		if p[1] != "" {
			fields = append(fields, slog.String(p[0], p[1]))
		}
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
