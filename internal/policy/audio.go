package policy

import (
	"context"
	"fmt"
	"log/slog"

	"sieve/internal/apply"
	"sieve/internal/asset"
	"sieve/internal/logging"
	"sieve/internal/progress"
)

// Audio load types.
const (
	LoadDecompressOnLoad   = "decompress_on_load"
	LoadCompressedInMemory = "compressed_in_memory"
	LoadStreaming          = "streaming"
)

// Audio compression formats.
const (
	FormatADPCM  = "adpcm"
	FormatVorbis = "vorbis"
)

// OperationFixAudio names audio fix runs in manifests and the apply journal.
const OperationFixAudio = "fix_audio"

// Finding is one attribute that does not match policy.
type Finding struct {
	Entity    asset.Entity
	Attribute string
	Current   string
	Expected  string
}

// AudioRules are the clip length thresholds in seconds.
type AudioRules struct {
	ShortClipSeconds float64
	LongClipSeconds  float64
}

// Expected returns the load type and compression format a clip of the given
// duration should use.
func (r AudioRules) Expected(duration float64) (loadType, format string) {
	switch {
	case duration < r.ShortClipSeconds:
		return LoadDecompressOnLoad, FormatADPCM
	case duration > r.LongClipSeconds:
		return LoadStreaming, FormatVorbis
	default:
		return LoadCompressedInMemory, FormatVorbis
	}
}

// AudioWrongCompression returns findings for clips whose load type or
// compression format differs from the rules. Clips without a duration are
// skipped.
func AudioWrongCompression(clips []asset.Entity, rules AudioRules) []Finding {
	var out []Finding
	for _, c := range clips {
		if c.Kind != asset.KindAudio {
			continue
		}
		duration, ok := c.Attributes.Float(asset.AttrDurationSeconds)
		if !ok {
			continue
		}
		loadType, format := rules.Expected(duration)
		for _, check := range []struct{ attr, want string }{
			{asset.AttrLoadType, loadType},
			{asset.AttrCompressionFormat, format},
		} {
			current, _ := c.Attributes.String(check.attr)
			if current == check.want {
				continue
			}
			out = append(out, Finding{Entity: c, Attribute: check.attr, Current: current, Expected: check.want})
		}
	}
	return out
}

// AttributeWriter persists attribute changes.
type AttributeWriter interface {
	SetAttributes(ctx context.Context, id asset.ID, attrs asset.Attributes) error
}

// FixOptions tunes a fix run.
type FixOptions struct {
	DryRun   bool
	Logger   *slog.Logger
	Progress progress.Reporter
}

// FixAudio writes the expected values of findings, one write per entity.
// Failures do not stop the run; cancellation stops before the next entity.
func FixAudio(ctx context.Context, w AttributeWriter, findings []Finding, opts FixOptions) *apply.Manifest {
	manifest := apply.NewManifest(OperationFixAudio, opts.DryRun)
	defer manifest.Finish()

	logger := logging.WithContext(ctx, logging.NewComponentLogger(opts.Logger, "policy"))
	reporter := progress.OrNop(opts.Progress)

	type change struct {
		entity asset.Entity
		attrs  asset.Attributes
		detail string
	}
	var changes []*change
	byID := make(map[asset.ID]*change)
	for _, f := range findings {
		c, ok := byID[f.Entity.ID]
		if !ok {
			c = &change{entity: f.Entity, attrs: asset.Attributes{}}
			byID[f.Entity.ID] = c
			changes = append(changes, c)
		} else {
			c.detail += ", "
		}
		c.attrs[f.Attribute] = f.Expected
		c.detail += fmt.Sprintf("%s: %s -> %s", f.Attribute, f.Current, f.Expected)
	}

	for i, c := range changes {
		if ctx.Err() != nil {
			manifest.Cancelled = true
			break
		}
		reporter.Step(i, len(changes), "fixing "+c.entity.Label())
		item := apply.Item{EntityID: c.entity.ID, Label: c.entity.Label(), Action: "set_attributes", Detail: c.detail}
		switch {
		case opts.DryRun:
			item.Outcome = apply.OutcomePlanned
		default:
			if err := w.SetAttributes(ctx, c.entity.ID, c.attrs); err != nil {
				item.Outcome = apply.OutcomeFailed
				item.Err = err
				logging.WarnWithContext(logger, "audio settings update failed", "policy_fix_failed",
					logging.EntityID(c.entity.ID),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "rerun fix-audio after resolving the error"),
					logging.String(logging.FieldImpact, "clip keeps its current import settings"),
				)
			} else {
				item.Outcome = apply.OutcomeApplied
			}
		}
		manifest.Record(item)
	}
	if !manifest.Cancelled {
		reporter.Step(len(changes), len(changes), "audio fixes complete")
	}

	counts := manifest.Counts()
	logger.Info("audio fixes finished",
		logging.RunID(manifest.RunID),
		logging.Bool("dry_run", opts.DryRun),
		logging.Int("applied", counts.Applied),
		logging.Int("failed", counts.Failed),
		logging.Int("planned", counts.Planned),
	)
	return manifest
}
