// Package contentdb persists the content graph in SQLite and implements the
// host database contract the analyses consume.
//
// The Store exposes entity lookup by kind and group, anchor listing, direct
// and transitive references, group moves, attribute edits, reference
// retargeting, deletion, and raw audio sample loading. Each call is
// individually fallible and commits on its own; callers that need a batch of
// writes record per-item outcomes instead of relying on a transaction.
// Calls spanning several statements, and manifest import, run in one
// transaction that is retried while SQLite reports the database busy.
//
// Apply runs are journaled in apply_log so operators can audit what a regroup
// or deduplication changed. The schema version lives in PRAGMA user_version;
// users re-import into a fresh database to adopt the new schema.
package contentdb
