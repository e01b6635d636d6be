package nestedset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// nopStore records nothing; it only lets the internal shift guard be
// exercised without a real store.
type nopStore struct{}

func (nopStore) List(ctx context.Context) (Nodes[string], error) { return nil, nil }
func (nopStore) Range(ctx context.Context, field Field, span Span) (Nodes[string], error) {
	return nil, nil
}
func (nopStore) Shift(ctx context.Context, field Field, span Span, delta int64) error { return nil }
func (nopStore) Add(ctx context.Context, n *Node[string]) error                       { return nil }
func (nopStore) Has(n *Node[string]) bool                                             { return true }
func (nopStore) Bounds(ctx context.Context) (int64, int64, bool, error)               { return 0, 0, false, nil }

func TestShiftRejectsUnboundedRange(t *testing.T) {
	r := New[string](nopStore{})
	err := r.shift(context.Background(), 2, Span{})
	assert.ErrorIs(t, err, ErrMalformedShiftRange)
}
