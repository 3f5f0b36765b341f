// Package preflight provides readiness checks for the filesystem paths sieve
// depends on.
//
// These checks run in two contexts:
//   - Apply commands call RunAll before writing and refuse to start when a
//     check fails, so a run does not die halfway on a permission error.
//   - The CLI "sieve status" command prints every result.
package preflight
