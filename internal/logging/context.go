package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (e.g. "dependency_cycle").
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to do next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAnalysis names the analysis a log line belongs to.
	FieldAnalysis = "analysis"
	// FieldRunID identifies one apply run; it matches the manifest run ID.
	FieldRunID = "run_id"
	// FieldEntityID identifies the content entity a log line refers to.
	FieldEntityID = "entity_id"
	// FieldGroup names a deployment group.
	FieldGroup = "group"
)

type contextKey int

const (
	runIDKey contextKey = iota
	analysisKey
)

// WithRunID tags ctx with an apply run identifier.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, strings.TrimSpace(runID))
}

// RunIDFromContext returns the apply run identifier stored in ctx.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(runIDKey).(string)
	return v, ok && v != ""
}

// WithAnalysis tags ctx with the analysis being computed.
func WithAnalysis(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, analysisKey, strings.TrimSpace(name))
}

// AnalysisFromContext returns the analysis name stored in ctx.
func AnalysisFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(analysisKey).(string)
	return v, ok && v != ""
}

// WithContext returns logger tagged with the analysis name and run ID stored
// in ctx, if any.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var args []any
	if name, ok := AnalysisFromContext(ctx); ok {
		args = append(args, Analysis(name))
	}
	if id, ok := RunIDFromContext(ctx); ok {
		args = append(args, RunID(id))
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}
