package nestedset

import (
	"context"
	"fmt"
)

// Manager owns the interval arithmetic of a nested-set tree kept in a flat
// Store. It is the sole writer of the left/right pairs; the payloads are
// never touched. A single writer at a time is assumed, mirroring the store
// contract: every mutation validates all of its preconditions before the
// first bulk shift is issued, so a failed operation leaves the tree
// unchanged.
type Manager[T1 any] struct {
	store Store[T1]
}

func New[T1 any](store Store[T1]) *Manager[T1] {
	return &Manager[T1]{
		store: store,
	}
}

func (r *Manager[T1]) Store() Store[T1] {
	return r.store
}

// shift adds delta to every left in span and independently to every right in
// span. Two passes are required: a node can have one endpoint inside the
// range and the other outside when the range boundary is an endpoint of that
// node, which is exactly how a parent grows around a freshly opened gap.
func (r *Manager[T1]) shift(ctx context.Context, delta int64, span Span) error {
	if span.IsUnbounded() {
		return ErrMalformedShiftRange
	}
	if err := r.store.Shift(ctx, FieldLeft, span, delta); err != nil {
		return err
	}
	return r.store.Shift(ctx, FieldRight, span, delta)
}

// shiftFrom opens a gap of width gap at position, pushing whichever side of
// the occupied number space holds fewer interval slots. It returns the left
// edge of the opened gap: position when the nodes at and above position were
// pushed forward, position-gap when the nodes below were pushed back.
func (r *Manager[T1]) shiftFrom(ctx context.Context, position, gap int64) (int64, error) {
	min, max, ok, err := r.store.Bounds(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return position, nil
	}
	if position-min < max-position {
		if err := r.shift(ctx, -gap, SpanUntil(position)); err != nil {
			return 0, err
		}
		return position - gap, nil
	}
	if err := r.shift(ctx, gap, SpanFrom(position)); err != nil {
		return 0, err
	}
	return position, nil
}

// AddChild places e as the last child of parent. A nil parent appends e as
// the last root instead. The parent must be attached to the store.
func (r *Manager[T1]) AddChild(ctx context.Context, e, parent *Node[T1]) error {
	if parent == nil {
		_, max, ok, err := r.store.Bounds(ctx)
		if err != nil {
			return err
		}
		position := int64(1)
		if ok {
			position = max + 1
		}
		e.SetInterval(position, position+1)
		return r.store.Add(ctx, e)
	}
	if !r.store.Has(parent) {
		return fmt.Errorf("add child below %s: %w", parent, ErrDetachedNode)
	}
	// the right-field pass of the shift covers parent.Right() itself, so
	// the parent grows by the gap width and e ends up as its last child
	position, err := r.shiftFrom(ctx, parent.Right(), 2)
	if err != nil {
		return err
	}
	e.SetInterval(position, position+1)
	return r.store.Add(ctx, e)
}

// InsertBefore places e immediately before sibling, under the same parent.
// The sibling must be attached to the store.
func (r *Manager[T1]) InsertBefore(ctx context.Context, e, sibling *Node[T1]) error {
	if !r.store.Has(sibling) {
		return fmt.Errorf("insert before %s: %w", sibling, ErrDetachedNode)
	}
	position, err := r.shiftFrom(ctx, sibling.Left(), 2)
	if err != nil {
		return err
	}
	e.SetInterval(position, position+1)
	return r.store.Add(ctx, e)
}

// Move relocates the whole subtree rooted at source to become the last child
// of target. Three bulk shifts, no auxiliary storage: the subtree is parked
// below the occupied number space, the hole it left is closed while a gap of
// the same width opens just inside target's right boundary, and the subtree
// slides back in. Between the shifts the global invariants are violated,
// which is why all of them belong to one logical mutation.
func (r *Manager[T1]) Move(ctx context.Context, source, target *Node[T1]) error {
	if !r.store.Has(source) {
		return fmt.Errorf("move source %s: %w", source, ErrDetachedNode)
	}
	if !r.store.Has(target) {
		return fmt.Errorf("move target %s: %w", target, ErrDetachedNode)
	}
	if source.Equal(target) {
		return fmt.Errorf("move %s below itself: %w", source, ErrIllegalMove)
	}
	if source.Contains(target) {
		return fmt.Errorf("move %s below %s: %w", source, target, ErrIllegalMove)
	}
	min, _, ok, err := r.store.Bounds(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("move source %s: %w", source, ErrDetachedNode)
	}

	srcLeft, srcRight := source.Left(), source.Right()
	tgtRight := target.Right()
	width := srcRight - srcLeft + 1
	hole := srcRight + 1

	// park the subtree at [min-width, min-1], below everything else
	if err := r.shift(ctx, -(hole - min), SpanBetween(srcLeft, hole)); err != nil {
		return err
	}

	// endpoints are pairwise distinct, so tgtRight is either beyond the
	// evacuated interval or entirely before it
	var newLeft int64
	if tgtRight > srcRight {
		// target sits after the hole: pull the nodes between them back by
		// width, closing the hole; the gap reopens just inside target's
		// right boundary
		if err := r.shift(ctx, -width, SpanBetween(hole, tgtRight)); err != nil {
			return err
		}
		newLeft = tgtRight - width
	} else {
		// target sits before the hole: push the nodes from target's right
		// boundary up to the hole forward by width; the hole closes behind
		// them and the gap opens at tgtRight, growing target around it
		if err := r.shift(ctx, width, SpanBetween(tgtRight, srcLeft)); err != nil {
			return err
		}
		newLeft = tgtRight
	}

	// bring the subtree back in as target's last child
	return r.shift(ctx, newLeft-(min-width), SpanBetween(min-width, min))
}
