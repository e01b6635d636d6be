package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/henderiw/nstree/pkg/nestedset"
)

// Store is an in-memory dual-tier implementation of nestedset.Store: nodes
// staged via Add sit in a pending set until Flush promotes them to the
// committed set. Shift renumbers both tiers in lock-step so that a caller
// issuing several mutations before a flush still observes consistent
// intervals.
type Store[T1 any] struct {
	m         *sync.RWMutex
	committed map[int64]*nestedset.Node[T1]
	staged    map[int64]*nestedset.Node[T1]
	nextID    int64
}

var _ nestedset.Store[struct{}] = (*Store[struct{}])(nil)

func New[T1 any]() *Store[T1] {
	return &Store[T1]{
		m:         new(sync.RWMutex),
		committed: map[int64]*nestedset.Node[T1]{},
		staged:    map[int64]*nestedset.Node[T1]{},
		nextID:    1,
	}
}

func (r *Store[T1]) List(ctx context.Context) (nestedset.Nodes[T1], error) {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.collect(func(n *nestedset.Node[T1]) bool { return true }), nil
}

func (r *Store[T1]) Range(ctx context.Context, field nestedset.Field, span nestedset.Span) (nestedset.Nodes[T1], error) {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.collect(func(n *nestedset.Node[T1]) bool {
		return span.Matches(fieldOf(n, field))
	}), nil
}

func (r *Store[T1]) Shift(ctx context.Context, field nestedset.Field, span nestedset.Span, delta int64) error {
	r.m.Lock()
	defer r.m.Unlock()

	for _, tier := range []map[int64]*nestedset.Node[T1]{r.committed, r.staged} {
		for _, n := range tier {
			if !span.Matches(fieldOf(n, field)) {
				continue
			}
			if field == nestedset.FieldRight {
				n.SetInterval(n.Left(), n.Right()+delta)
			} else {
				n.SetInterval(n.Left()+delta, n.Right())
			}
		}
	}
	return nil
}

func (r *Store[T1]) Add(ctx context.Context, n *nestedset.Node[T1]) error {
	r.m.Lock()
	defer r.m.Unlock()

	if r.has(n) {
		return fmt.Errorf("node %s is already attached", n)
	}
	n.SetID(r.nextID)
	r.nextID++
	r.staged[n.ID()] = n
	return nil
}

func (r *Store[T1]) Has(n *nestedset.Node[T1]) bool {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.has(n)
}

func (r *Store[T1]) has(n *nestedset.Node[T1]) bool {
	if n == nil || n.ID() == 0 {
		return false
	}
	if _, ok := r.committed[n.ID()]; ok {
		return true
	}
	_, ok := r.staged[n.ID()]
	return ok
}

func (r *Store[T1]) Bounds(ctx context.Context) (int64, int64, bool, error) {
	r.m.RLock()
	defer r.m.RUnlock()

	var min, max int64
	found := false
	for _, tier := range []map[int64]*nestedset.Node[T1]{r.committed, r.staged} {
		for _, n := range tier {
			if !found {
				min, max = n.Left(), n.Right()
				found = true
				continue
			}
			if n.Left() < min {
				min = n.Left()
			}
			if n.Right() > max {
				max = n.Right()
			}
		}
	}
	return min, max, found, nil
}

// Flush promotes every staged node to the committed tier.
func (r *Store[T1]) Flush(ctx context.Context) error {
	r.m.Lock()
	defer r.m.Unlock()

	for id, n := range r.staged {
		r.committed[id] = n
		delete(r.staged, id)
	}
	return nil
}

// Staged returns the number of nodes awaiting Flush.
func (r *Store[T1]) Staged() int {
	r.m.RLock()
	defer r.m.RUnlock()

	return len(r.staged)
}

func (r *Store[T1]) Count() int {
	r.m.RLock()
	defer r.m.RUnlock()

	return len(r.committed) + len(r.staged)
}

func (r *Store[T1]) collect(match func(n *nestedset.Node[T1]) bool) nestedset.Nodes[T1] {
	var nodes nestedset.Nodes[T1]
	for _, tier := range []map[int64]*nestedset.Node[T1]{r.committed, r.staged} {
		for _, n := range tier {
			if match(n) {
				nodes = append(nodes, n)
			}
		}
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Left() < nodes[j].Left()
	})
	return nodes
}

func fieldOf[T1 any](n *nestedset.Node[T1], field nestedset.Field) int64 {
	if field == nestedset.FieldRight {
		return n.Right()
	}
	return n.Left()
}
