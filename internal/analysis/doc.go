// Package analysis exposes the named, cached analyses and the apply paths
// that act on them.
//
// Each analysis computes from the content database on a cache miss or a
// forced refresh and stores its result in a TTL cache under its name.
// Analyses never read each other's cache entries. Concurrent misses for the
// same name share one computation.
//
// Apply operations (regroup, duplicate removal, audio fixes) are serialized
// in process by a writer mutex and across processes by an optional file
// lock. Each journals its manifest to the content database and invalidates
// the cache entries its writes make stale.
package analysis
