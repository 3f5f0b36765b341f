// Package apply holds the bookkeeping shared by corrective writes: the
// per-item manifest every apply run produces, the partial failure error, and
// the cross-process lock that keeps two sieve processes from writing to one
// content database at the same time.
//
// Apply runs are best effort. Items are written one at a time, successful
// writes are never rolled back, and every item lands in the manifest with its
// outcome so a run that failed halfway can be inspected and re-run.
package apply
