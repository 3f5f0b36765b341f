package depgraph

import (
	"context"
	"errors"
	"fmt"
)

// ErrDependencyCycle marks a back edge found during traversal.
var ErrDependencyCycle = errors.New("dependency cycle detected")

type visitState uint8

const (
	stateVisiting visitState = iota + 1
	stateDone
)

// MissingPolicy controls behavior when a referenced node does not exist.
type MissingPolicy uint8

const (
	MissingPolicyIgnore MissingPolicy = iota
	MissingPolicyError
)

// MissingError reports a reference to a node that does not exist.
type MissingError[K comparable] struct {
	From K
	Key  K
}

// Error returns the error string.
func (e MissingError[K]) Error() string {
	return fmt.Sprintf("missing node %v referenced from %v", e.Key, e.From)
}

// Cycle is a skipped edge From -> To whose target was still on the stack.
type Cycle[K comparable] struct {
	From K
	To   K
}

// Err wraps the cycle as an ErrDependencyCycle error.
func (c Cycle[K]) Err() error {
	return fmt.Errorf("%w: %v -> %v", ErrDependencyCycle, c.From, c.To)
}

// Config configures a traversal.
type Config[K comparable] struct {
	// Next returns the direct dependencies of a node in a stable order.
	Next func(context.Context, K) ([]K, error)
	// Exists reports whether a referenced node is present. Nil treats every node as present.
	Exists  func(K) bool
	Missing MissingPolicy
}

// Result is the closure of a root.
type Result[K comparable] struct {
	// Nodes holds every node reachable from the root, excluding the root, in DFS preorder.
	Nodes  []K
	Cycles []Cycle[K]
}

type frame[K comparable] struct {
	key      K
	children []K
	next     int
}

// Closure returns every node transitively reachable from root. Cancellation is
// checked before each node expansion; on cancellation the nodes discovered so
// far are returned together with the context error.
func Closure[K comparable](ctx context.Context, root K, cfg Config[K]) (Result[K], error) {
	var result Result[K]
	if cfg.Next == nil {
		return result, errors.New("dependency closure: next function is nil")
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	states := map[K]visitState{root: stateVisiting}
	children, err := cfg.Next(ctx, root)
	if err != nil {
		return result, fmt.Errorf("expand %v: %w", root, err)
	}
	stack := []frame[K]{{key: root, children: children}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.children) {
			states[top.key] = stateDone
			stack = stack[:len(stack)-1]
			continue
		}
		from := top.key
		child := top.children[top.next]
		top.next++

		switch states[child] {
		case stateVisiting:
			result.Cycles = append(result.Cycles, Cycle[K]{From: from, To: child})
			continue
		case stateDone:
			continue
		}

		if cfg.Exists != nil && !cfg.Exists(child) {
			if cfg.Missing == MissingPolicyError {
				return result, MissingError[K]{From: from, Key: child}
			}
			continue
		}

		if err := ctx.Err(); err != nil {
			return result, err
		}

		states[child] = stateVisiting
		result.Nodes = append(result.Nodes, child)
		grandchildren, err := cfg.Next(ctx, child)
		if err != nil {
			return result, fmt.Errorf("expand %v: %w", child, err)
		}
		stack = append(stack, frame[K]{key: child, children: grandchildren})
	}

	return result, nil
}

// Sanitize normalizes a dependency set produced elsewhere: the root itself and
// repeated entries are dropped, first occurrences keep their position.
func Sanitize[K comparable](root K, deps []K) []K {
	seen := make(map[K]struct{}, len(deps))
	out := make([]K, 0, len(deps))
	for _, dep := range deps {
		if dep == root {
			continue
		}
		if _, ok := seen[dep]; ok {
			continue
		}
		seen[dep] = struct{}{}
		out = append(out, dep)
	}
	return out
}
