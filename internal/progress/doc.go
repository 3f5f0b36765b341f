// Package progress reports coarse analysis progress as (step, total, label)
// triples.
//
// Analyses accept a Reporter and call Step at natural iteration boundaries.
// The terminal Bar renders a progress bar; LogReporter emits sampled log
// lines for non-interactive output.
package progress
