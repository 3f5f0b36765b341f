package apply

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sieve/internal/asset"
)

// ErrPartialApply is returned by Manifest.Err when at least one item failed.
var ErrPartialApply = errors.New("apply incomplete")

// Outcome is the result of one apply item.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
	OutcomePlanned Outcome = "planned"
)

// Item is one corrective write.
type Item struct {
	EntityID asset.ID
	Label    string
	Action   string
	Detail   string
	Outcome  Outcome
	Err      error
}

// Manifest records every item of an apply run in execution order.
type Manifest struct {
	RunID      string
	Operation  string
	DryRun     bool
	Cancelled  bool
	StartedAt  time.Time
	FinishedAt time.Time
	Items      []Item
}

// Counts tallies outcomes.
type Counts struct {
	Applied int
	Skipped int
	Failed  int
	Planned int
}

// NewManifest starts a manifest with a fresh run ID.
func NewManifest(operation string, dryRun bool) *Manifest {
	return &Manifest{
		RunID:     uuid.NewString(),
		Operation: operation,
		DryRun:    dryRun,
		StartedAt: time.Now().UTC(),
	}
}

// Record appends an item.
func (m *Manifest) Record(item Item) {
	m.Items = append(m.Items, item)
}

// Finish stamps the completion time.
func (m *Manifest) Finish() {
	m.FinishedAt = time.Now().UTC()
}

// Counts returns outcome totals.
func (m *Manifest) Counts() Counts {
	var c Counts
	for _, item := range m.Items {
		switch item.Outcome {
		case OutcomeApplied:
			c.Applied++
		case OutcomeSkipped:
			c.Skipped++
		case OutcomeFailed:
			c.Failed++
		case OutcomePlanned:
			c.Planned++
		}
	}
	return c
}

// Failures returns the failed items in order.
func (m *Manifest) Failures() []Item {
	var out []Item
	for _, item := range m.Items {
		if item.Outcome == OutcomeFailed {
			out = append(out, item)
		}
	}
	return out
}

// Err reports ErrPartialApply with the failure count, or nil when every item
// succeeded or was skipped.
func (m *Manifest) Err() error {
	failed := m.Counts().Failed
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s completed with %d failures", ErrPartialApply, m.Operation, failed)
}
