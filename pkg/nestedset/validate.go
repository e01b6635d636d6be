package nestedset

import (
	"context"
	"errors"
	"fmt"
)

// Validate checks the nested-set invariants over the full node set:
// right > left everywhere, all endpoints pairwise distinct, intervals either
// disjoint or strictly nested, childless nodes exactly two wide, and the
// sibling chain contiguous at every level including the roots.
func (r *Manager[T1]) Validate(ctx context.Context) error {
	nodes, err := r.store.List(ctx)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return nil
	}

	var errm error
	seen := map[int64]struct{}{}
	for _, n := range nodes {
		if n.Right() <= n.Left() {
			errm = errors.Join(errm, fmt.Errorf("node %s: right must exceed left", n))
		}
		for _, v := range []int64{n.Left(), n.Right()} {
			if _, ok := seen[v]; ok {
				errm = errors.Join(errm, fmt.Errorf("duplicate interval endpoint %d", v))
			}
			seen[v] = struct{}{}
		}
	}
	if errm != nil {
		return errm
	}

	// nodes are ordered by left; walk them with an ancestor stack, tracking
	// the next left the chain at the current level must produce
	var stack Nodes[T1]
	cursor := nodes[0].Left()
	pop := func() {
		top := stack[len(stack)-1]
		if cursor != top.Right() {
			errm = errors.Join(errm, fmt.Errorf("gap inside %s: expected a node at %d", top, cursor))
		}
		cursor = top.Right() + 1
		stack = stack[:len(stack)-1]
	}
	for _, n := range nodes {
		for len(stack) > 0 && n.Left() > stack[len(stack)-1].Right() {
			pop()
		}
		if n.Left() != cursor {
			errm = errors.Join(errm, fmt.Errorf("node %s breaks the sibling chain: expected left %d", n, cursor))
			cursor = n.Left()
		}
		if len(stack) > 0 && n.Right() > stack[len(stack)-1].Right() {
			errm = errors.Join(errm, fmt.Errorf("node %s partially overlaps %s", n, stack[len(stack)-1]))
		}
		stack = append(stack, n)
		cursor = n.Left() + 1
	}
	for len(stack) > 0 {
		pop()
	}
	return errm
}
