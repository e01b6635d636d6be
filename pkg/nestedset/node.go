package nestedset

import (
	"fmt"
)

// Node is a single record in a nested-set encoded tree. The interval
// [left, right] is assigned once when a Manager operation places the node in
// a tree and is only ever shifted by a constant afterwards. The payload is
// opaque to the tree machinery; identity/key fields belong to the payload or
// to the store, not to the interval pair.
type Node[T1 any] struct {
	id    int64
	left  int64
	right int64
	data  T1
}

type Nodes[T1 any] []*Node[T1]

// NewNode returns a detached node carrying d. It has no interval until a
// Manager operation attaches it to a tree.
func NewNode[T1 any](d T1) *Node[T1] {
	return &Node[T1]{data: d}
}

// RestoreNode rebuilds a node from durable storage.
func RestoreNode[T1 any](id, left, right int64, d T1) *Node[T1] {
	return &Node[T1]{id: id, left: left, right: right, data: d}
}

func (r *Node[T1]) ID() int64    { return r.id }
func (r *Node[T1]) Left() int64  { return r.left }
func (r *Node[T1]) Right() int64 { return r.right }
func (r *Node[T1]) Data() T1     { return r.data }

func (r *Node[T1]) String() string {
	return fmt.Sprintf("[%d, %d]", r.left, r.right)
}

// SetInterval overwrites the interval pair. The Manager and the store
// implementations are the only legitimate callers; everyone else treats the
// pair as read-only.
func (r *Node[T1]) SetInterval(left, right int64) {
	r.left = left
	r.right = right
}

// SetID records the key the store assigned when the node was staged or
// flushed.
func (r *Node[T1]) SetID(id int64) {
	r.id = id
}

// Width is the number of interval slots the subtree rooted here occupies.
func (r *Node[T1]) Width() int64 {
	return r.right - r.left + 1
}

// IsLeaf reports whether the node has no children, which the encoding
// expresses as right == left+1.
func (r *Node[T1]) IsLeaf() bool {
	return r.right == r.left+1
}

func (r *Node[T1]) HasChildren() bool {
	return !r.IsLeaf()
}

// Contains reports whether other lies strictly inside r's interval, i.e.
// whether other is a descendant of r.
func (r *Node[T1]) Contains(other *Node[T1]) bool {
	return r.left < other.left && other.right < r.right
}

func (r *Node[T1]) IsDescendantOf(other *Node[T1]) bool {
	return other.Contains(r)
}

func (r *Node[T1]) Equal(other *Node[T1]) bool {
	return r.left == other.left && r.right == other.right
}
