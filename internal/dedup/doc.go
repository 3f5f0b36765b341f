// Package dedup finds content-identical entities and merges them.
//
// Candidates are bucketed by kind and a configurable set of metadata
// attributes first; only entities inside the same bucket have their content
// compared. Content is equal when the raw bytes match or when every decoded
// sample differs by less than a tolerance. Equal pairs are merged with a
// union-find so that equality is transitive in the reported groups.
//
// Within a group the keeper is the entity that appears first in the input
// pool; the rest are removable. Resolve points references at the keeper and
// deletes the removables.
package dedup
