package nestedset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpanMatches(t *testing.T) {
	cases := map[string]struct {
		span    Span
		matches []int64
		misses  []int64
	}{
		"Bounded": {
			span:    SpanBetween(2, 6),
			matches: []int64{2, 3, 5},
			misses:  []int64{1, 6, 7},
		},
		"FromOnly": {
			span:    SpanFrom(4),
			matches: []int64{4, 100},
			misses:  []int64{3, -10},
		},
		"ToOnly": {
			span:    SpanUntil(4),
			matches: []int64{3, -10},
			misses:  []int64{4, 100},
		},
		"Unbounded": {
			span:    Span{},
			matches: []int64{-1, 0, 1},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			for _, v := range tc.matches {
				if !tc.span.Matches(v) {
					t.Errorf("%s: expected %d to match", name, v)
				}
			}
			for _, v := range tc.misses {
				if tc.span.Matches(v) {
					t.Errorf("%s: expected %d not to match", name, v)
				}
			}
		})
	}
}

func TestNodeHelpers(t *testing.T) {
	parent := RestoreNode(1, 1, 6, "parent")
	child := RestoreNode(2, 2, 5, "child")
	leaf := RestoreNode(3, 3, 4, "leaf")
	other := RestoreNode(4, 7, 8, "other")

	assert.True(t, leaf.IsLeaf())
	assert.False(t, parent.IsLeaf())
	assert.True(t, parent.HasChildren())
	assert.Equal(t, int64(6), parent.Width())
	assert.Equal(t, int64(2), leaf.Width())

	assert.True(t, parent.Contains(child))
	assert.True(t, child.Contains(leaf))
	assert.False(t, child.Contains(parent))
	assert.False(t, parent.Contains(other))
	assert.True(t, leaf.IsDescendantOf(parent))
	assert.False(t, other.IsDescendantOf(parent))

	// containment is strict: a node does not contain itself
	assert.False(t, parent.Contains(parent))
	assert.True(t, parent.Equal(RestoreNode(9, 1, 6, "copy")))
}
