package logging

import (
	"log/slog"
	"time"

	"sieve/internal/asset"
)

// Attr is the attribute type accepted by every helper in this package.
type Attr = slog.Attr

func String(key, value string) Attr { return slog.String(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

// Error renders err under the "error" key; a nil error is logged as "<nil>".
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// EntityID tags a line with the content entity it concerns.
func EntityID(id asset.ID) Attr { return slog.String(FieldEntityID, string(id)) }

// Group tags a line with a deployment group.
func Group(group asset.GroupID) Attr { return slog.String(FieldGroup, string(group)) }

// RunID tags a line with an apply run identifier.
func RunID(id string) Attr { return slog.String(FieldRunID, id) }

// Analysis tags a line with an analysis name.
func Analysis(name string) Attr { return slog.String(FieldAnalysis, name) }

// NewNop returns a logger that drops every record.
func NewNop() *slog.Logger { return slog.New(slog.DiscardHandler) }

// NewComponentLogger scopes logger to a component. A nil logger yields a
// discarding one.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(slog.String(FieldComponent, component))
}

var warnDefaults = [...]struct{ key, value string }{
	{FieldErrorHint, "check logs for details"},
	{FieldImpact, "operation completed with warnings"},
}

// WarnWithContext logs a warning that always states its event type, a hint and
// an impact. Values supplied in attrs win over the defaults.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	present := make(map[string]bool, len(attrs))
	args := make([]any, 0, len(attrs)+len(warnDefaults)+1)
	for _, a := range attrs {
		present[a.Key] = true
		args = append(args, a)
	}
	if !present[FieldEventType] {
		args = append(args, slog.String(FieldEventType, eventType))
	}
	for _, d := range warnDefaults {
		if !present[d.key] {
			args = append(args, slog.String(d.key, d.value))
		}
	}
	logger.Warn(msg, args...)
}
