package nestedset

import (
	"context"
)

// Field selects which interval endpoint a predicate or bulk update applies
// to.
type Field string

const (
	FieldLeft  Field = "left"
	FieldRight Field = "right"
)

// Span is a half-open range [From, To) over interval coordinates. A nil
// bound means unbounded on that side; a span with neither bound is invalid
// as a shift predicate.
type Span struct {
	From *int64
	To   *int64
}

func SpanFrom(from int64) Span {
	return Span{From: &from}
}

func SpanUntil(to int64) Span {
	return Span{To: &to}
}

func SpanBetween(from, to int64) Span {
	return Span{From: &from, To: &to}
}

func (r Span) Matches(v int64) bool {
	if r.From != nil && v < *r.From {
		return false
	}
	if r.To != nil && v >= *r.To {
		return false
	}
	return true
}

func (r Span) IsUnbounded() bool {
	return r.From == nil && r.To == nil
}

// Store is the flat, orderable storage medium the Manager renumbers. An
// implementation keeps two tiers: rows already durable and nodes staged via
// Add but not yet flushed. Shift must update both tiers in lock-step so that
// staged nodes stay consistent with durable rows across further mutations.
type Store[T1 any] interface {
	// List returns every node in both tiers, ordered by left ascending.
	List(ctx context.Context) (Nodes[T1], error)
	// Range returns the nodes whose chosen field falls in span, ordered by
	// left ascending.
	Range(ctx context.Context, field Field, span Span) (Nodes[T1], error)
	// Shift adds delta to the chosen field of every node whose field falls
	// in span, across both tiers.
	Shift(ctx context.Context, field Field, span Span, delta int64) error
	// Add stages n for persistence. From this point on n is attached.
	Add(ctx context.Context, n *Node[T1]) error
	// Has reports whether n is attached, i.e. staged or durable.
	Has(n *Node[T1]) bool
	// Bounds returns the minimum left and the maximum right over both
	// tiers; ok is false when the store holds no nodes.
	Bounds(ctx context.Context) (min, max int64, ok bool, err error)
}
