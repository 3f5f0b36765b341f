package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

type field struct {
	key   string
	value slog.Value
}

// consoleHandler writes one human-readable line per record:
//
//	2026-01-02 15:04:05 INFO  [ownership] analysis: computed anchors=3
//
// Component and analysis move into the prefix; every other attribute follows
// the message as key=value.
type consoleHandler struct {
	mu        *sync.Mutex
	out       io.Writer
	level     slog.Leveler
	addSource bool

	component string
	analysis  string
	fields    []field
	prefix    string
}

func newConsoleHandler(w io.Writer, level slog.Leveler, addSource bool) *consoleHandler {
	return &consoleHandler{mu: new(sync.Mutex), out: w, level: level, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	component, analysis := h.component, h.analysis
	fields := make([]field, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		fields = collect(fields, h.prefix, a, &component, &analysis)
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var b strings.Builder
	b.WriteString(ts.In(time.Local).Format(consoleTimeLayout))
	b.WriteByte(' ')
	b.WriteString(levelTag(r.Level))
	b.WriteByte(' ')
	if analysis != "" {
		b.WriteString("[" + analysis + "] ")
	}
	if component != "" {
		b.WriteString(component + ": ")
	}
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(msg)
	if h.addSource && r.PC != 0 {
		if src := r.Source(); src != nil {
			b.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
		}
	}
	for _, list := range [][]field{h.fields, fields} {
		for _, f := range list {
			b.WriteByte(' ')
			b.WriteString(f.key)
			b.WriteByte('=')
			b.WriteString(renderValue(f.value))
		}
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = append([]field(nil), h.fields...)
	for _, a := range attrs {
		next.fields = collect(next.fields, h.prefix, a, &next.component, &next.analysis)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// collect appends a, flattening groups into dotted keys. The first top-level
// component and analysis values are captured instead of appended.
func collect(dst []field, prefix string, a slog.Attr, component, analysis *string) []field {
	if a.Equal(slog.Attr{}) {
		return dst
	}
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			dst = collect(dst, inner, ga, component, analysis)
		}
		return dst
	}
	if prefix == "" {
		switch {
		case a.Key == FieldComponent && *component == "":
			*component = plainValue(a.Value)
			return dst
		case a.Key == FieldAnalysis && *analysis == "":
			*analysis = plainValue(a.Value)
			return dst
		case a.Key == FieldComponent || a.Key == FieldAnalysis:
			return dst
		}
	}
	if a.Key == "" {
		return dst
	}
	return append(dst, field{key: prefix + a.Key, value: a.Value})
}
