// Package ownership partitions shared content across anchors and detects
// content that no anchor needs.
//
// Anchors are processed in the order given. Each anchor claims every
// transitive dependency that no earlier anchor has claimed; a dependency
// reachable from several anchors therefore belongs to the first of them.
// A claimed entity is mis-owned when it is not currently placed in its
// owner's canonical group. Entities sitting in an anchor group that no anchor
// depends on are orphans.
//
// Regroup turns a classification into group moves: mis-owned entities go to
// their owner's group, orphans to a single catch-all group. Moves are applied
// one by one and recorded in an apply.Manifest.
package ownership
