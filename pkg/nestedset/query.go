package nestedset

import (
	"context"
	"fmt"
)

// Descendants returns every node strictly inside n's interval, in document
// order. Containment is a single range predicate: intervals never partially
// overlap, so any node whose left falls inside (n.left, n.right) lies
// entirely inside n.
func (r *Manager[T1]) Descendants(ctx context.Context, n *Node[T1]) (Nodes[T1], error) {
	if !r.store.Has(n) {
		return nil, fmt.Errorf("descendants of %s: %w", n, ErrDetachedNode)
	}
	return r.store.Range(ctx, FieldLeft, SpanBetween(n.Left()+1, n.Right()))
}

// Children returns the immediate children of n in document order by walking
// the contiguous chain: the first child starts at n.left+1 and every next
// one at the previous child's right+1.
func (r *Manager[T1]) Children(ctx context.Context, n *Node[T1]) (Nodes[T1], error) {
	if !r.store.Has(n) {
		return nil, fmt.Errorf("children of %s: %w", n, ErrDetachedNode)
	}
	return r.chain(ctx, n.Left()+1, n.Right())
}

// Roots returns the top-level sibling chain, leftmost first.
func (r *Manager[T1]) Roots(ctx context.Context) (Nodes[T1], error) {
	min, max, ok, err := r.store.Bounds(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return r.chain(ctx, min, max+1)
}

func (r *Manager[T1]) chain(ctx context.Context, start, end int64) (Nodes[T1], error) {
	var nodes Nodes[T1]
	position := start
	for position < end {
		found, err := r.store.Range(ctx, FieldLeft, SpanBetween(position, position+1))
		if err != nil {
			return nil, err
		}
		if len(found) != 1 {
			return nil, fmt.Errorf("interval chain broken at %d", position)
		}
		nodes = append(nodes, found[0])
		position = found[0].Right() + 1
	}
	return nodes, nil
}

// Ancestors returns every node strictly containing n, outermost first.
func (r *Manager[T1]) Ancestors(ctx context.Context, n *Node[T1]) (Nodes[T1], error) {
	if !r.store.Has(n) {
		return nil, fmt.Errorf("ancestors of %s: %w", n, ErrDetachedNode)
	}
	candidates, err := r.store.Range(ctx, FieldLeft, SpanUntil(n.Left()))
	if err != nil {
		return nil, err
	}
	var ancestors Nodes[T1]
	for _, candidate := range candidates {
		if candidate.Right() > n.Right() {
			ancestors = append(ancestors, candidate)
		}
	}
	return ancestors, nil
}

// Parent returns the immediate parent of n, or nil when n is a root.
func (r *Manager[T1]) Parent(ctx context.Context, n *Node[T1]) (*Node[T1], error) {
	ancestors, err := r.Ancestors(ctx, n)
	if err != nil {
		return nil, err
	}
	if len(ancestors) == 0 {
		return nil, nil
	}
	return ancestors[len(ancestors)-1], nil
}
