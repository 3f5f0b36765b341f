// Package depgraph computes transitive dependency closures over a directed
// graph supplied as an edge function.
//
// The graph may contain cycles. Traversal keeps an explicit stack and a
// per-node visit state, so it terminates on any finite graph and never
// recurses. Edges that close a cycle, including self edges, are skipped and
// reported as Cycle values; they are diagnostics, not failures.
//
// Output order is DFS preorder from the root, so a deterministic edge function
// yields a deterministic closure.
package depgraph
