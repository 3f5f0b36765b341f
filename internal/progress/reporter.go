package progress

import (
	"io"
	"log/slog"
	"sync"

	"github.com/schollz/progressbar/v3"

	"sieve/internal/logging"
)

// Reporter receives progress updates. stepIndex counts completed steps.
type Reporter interface {
	Step(stepIndex, totalSteps int, label string)
}

// Func adapts a function to Reporter.
type Func func(stepIndex, totalSteps int, label string)

// Step calls f.
func (f Func) Step(stepIndex, totalSteps int, label string) {
	f(stepIndex, totalSteps, label)
}

type nopReporter struct{}

func (nopReporter) Step(int, int, string) {}

// Nop discards progress.
var Nop Reporter = nopReporter{}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Reporter) Reporter {
	if r == nil {
		return Nop
	}
	return r
}

// LogReporter writes sampled progress lines to a logger.
type LogReporter struct {
	mu      sync.Mutex
	logger  *slog.Logger
	sampler *logging.ProgressSampler
}

// NewLogReporter logs at most one line per 10% or label change.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	return &LogReporter{
		logger:  logging.NewComponentLogger(logger, "progress"),
		sampler: logging.NewProgressSampler(10),
	}
}

// Step implements Reporter.
func (r *LogReporter) Step(stepIndex, totalSteps int, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.sampler.ShouldLog(stepIndex, totalSteps, label) {
		return
	}
	r.logger.Info(label, logging.Int("step", stepIndex), logging.Int("total", totalSteps))
}

// Bar renders progress as a terminal bar.
type Bar struct {
	mu    sync.Mutex
	w     io.Writer
	bar   *progressbar.ProgressBar
	total int
}

// NewBar creates a bar that writes to w.
func NewBar(w io.Writer) *Bar {
	return &Bar{w: w}
}

// Step implements Reporter.
func (b *Bar) Step(stepIndex, totalSteps int, label string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar == nil || totalSteps != b.total {
		if b.bar != nil {
			_ = b.bar.Finish()
		}
		limit := totalSteps
		if limit <= 0 {
			limit = -1
		}
		b.bar = progressbar.NewOptions(limit,
			progressbar.OptionSetWriter(b.w),
			progressbar.OptionSetDescription(label),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetWidth(30),
		)
		b.total = totalSteps
	}
	b.bar.Describe(label)
	_ = b.bar.Set(stepIndex)
}

// Finish clears the bar.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar != nil {
		_ = b.bar.Finish()
		b.bar = nil
	}
}
