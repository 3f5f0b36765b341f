// Package ttlcache provides the keyed memoization store shared by all analyses.
//
// Every entry carries an absolute expiry instant computed from a wall clock at
// Set time. An entry whose expiry has passed is indistinguishable from an
// absent one: IsValid reports false, TryGet misses, and Get fails with
// ErrCacheMiss. There is no size bound or eviction policy beyond expiry;
// ClearExpired exists for callers that want to reclaim memory eagerly.
//
// Reads take a shared lock and writes an exclusive one, so a single writer
// and any number of concurrent readers may use one Cache.
package ttlcache
