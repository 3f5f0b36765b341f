package analysis

import (
	"context"
	"errors"
	"fmt"

	"sieve/internal/apply"
	"sieve/internal/contentdb"
	"sieve/internal/dedup"
	"sieve/internal/logging"
	"sieve/internal/ownership"
	"sieve/internal/policy"
)

// ErrIncompleteAnalysis is returned when an apply path would act on a
// result cut short by cancellation.
var ErrIncompleteAnalysis = errors.New("analysis incomplete")

// ApplyOptions tunes an apply run.
type ApplyOptions struct {
	DryRun bool
}

// Regroup moves mis-owned entities and orphans according to the ownership
// analysis, then drops the cached classification.
func (f *Facade) Regroup(ctx context.Context, opts ApplyOptions) (*apply.Manifest, error) {
	release, err := f.beginApply(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	classification, err := f.OwnershipClassification(ctx, false)
	if err != nil {
		return nil, err
	}
	if classification.Partial {
		return nil, fmt.Errorf("regroup: %w", ErrIncompleteAnalysis)
	}

	manifest := ownership.Regroup(ctx, f.db, classification, ownership.RegroupOptions{
		CatchAllGroup: f.settings.CatchAllGroup,
		DryRun:        opts.DryRun,
		Logger:        f.logger,
		Progress:      f.progress,
	})
	return f.finishApply(ctx, manifest, Ownership)
}

// RemoveDuplicates merges every duplicate group into its keeper. Deleting
// entities can change any analysis, so the whole cache is dropped.
func (f *Facade) RemoveDuplicates(ctx context.Context, opts ApplyOptions) (*apply.Manifest, error) {
	release, err := f.beginApply(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	report, err := f.Duplicates(ctx, false)
	if err != nil {
		return nil, err
	}
	if report.Partial {
		return nil, fmt.Errorf("remove duplicates: %w", ErrIncompleteAnalysis)
	}

	manifest := dedup.Resolve(ctx, f.db, report.Groups, dedup.ResolveOptions{
		DryRun:   opts.DryRun,
		Logger:   f.logger,
		Progress: f.progress,
	})
	return f.finishApply(ctx, manifest, Names()...)
}

// FixAudioCompression writes the expected load type and compression format
// for every audio finding.
func (f *Facade) FixAudioCompression(ctx context.Context, opts ApplyOptions) (*apply.Manifest, error) {
	release, err := f.beginApply(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	findings, err := f.AudioFindings(ctx, false)
	if err != nil {
		return nil, err
	}

	manifest := policy.FixAudio(ctx, f.db, findings, policy.FixOptions{
		DryRun:   opts.DryRun,
		Logger:   f.logger,
		Progress: f.progress,
	})
	return f.finishApply(ctx, manifest, AudioWrongCompression)
}

func (f *Facade) beginApply(ctx context.Context) (func(), error) {
	f.writeMu.Lock()
	if f.lock == nil {
		return f.writeMu.Unlock, nil
	}
	if err := f.lock.Acquire(ctx); err != nil {
		f.writeMu.Unlock()
		return nil, err
	}
	return func() {
		if err := f.lock.Release(); err != nil {
			logging.WarnWithContext(f.logger, "apply lock release failed", "apply_lock_release_failed",
				logging.String("lock_path", f.lock.Path()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the lock file if no sieve process is running"),
			)
		}
		f.writeMu.Unlock()
	}, nil
}

// finishApply journals the manifest and invalidates stale entries. Dry runs
// write nothing and leave the cache alone.
func (f *Facade) finishApply(ctx context.Context, manifest *apply.Manifest, stale ...string) (*apply.Manifest, error) {
	logger := logging.WithContext(logging.WithRunID(ctx, manifest.RunID), f.logger)
	if manifest.DryRun {
		return manifest, nil
	}

	f.Invalidate(stale...)
	if err := f.db.RecordApply(context.WithoutCancel(ctx), journalRecords(manifest)); err != nil {
		logging.WarnWithContext(logger, "apply journal write failed", "apply_journal_failed",
			logging.String("operation", manifest.Operation),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check content database permissions"),
			logging.String(logging.FieldImpact, "run missing from sieve history"),
		)
	}

	counts := manifest.Counts()
	logger.Info("apply complete",
		logging.String("operation", manifest.Operation),
		logging.Int("applied", counts.Applied),
		logging.Int("skipped", counts.Skipped),
		logging.Int("failed", counts.Failed),
		logging.Bool("cancelled", manifest.Cancelled),
	)
	return manifest, manifest.Err()
}

func journalRecords(manifest *apply.Manifest) []contentdb.ApplyRecord {
	records := make([]contentdb.ApplyRecord, 0, len(manifest.Items))
	for _, item := range manifest.Items {
		record := contentdb.ApplyRecord{
			RunID:      manifest.RunID,
			Operation:  manifest.Operation,
			EntityID:   string(item.EntityID),
			Detail:     item.Detail,
			Outcome:    string(item.Outcome),
			RecordedAt: manifest.FinishedAt,
		}
		if item.Err != nil {
			record.Error = item.Err.Error()
		}
		records = append(records, record)
	}
	return records
}
