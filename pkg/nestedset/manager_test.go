package nestedset_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/henderiw/nstree/pkg/memstore"
	"github.com/henderiw/nstree/pkg/nestedset"
)

func newTree() (*nestedset.Manager[string], *memstore.Store[string]) {
	store := memstore.New[string]()
	return nestedset.New[string](store), store
}

// attach places a node with a known interval directly in the store, so that
// tests can start from a precise tree shape.
func attach(t *testing.T, ctx context.Context, store *memstore.Store[string], name string, left, right int64) *nestedset.Node[string] {
	t.Helper()
	n := nestedset.NewNode(name)
	n.SetInterval(left, right)
	if err := store.Add(ctx, n); err != nil {
		t.Fatalf("attach %s: %v", name, err)
	}
	return n
}

func intervals(t *testing.T, ctx context.Context, r *nestedset.Manager[string]) map[string][2]int64 {
	t.Helper()
	nodes, err := r.Store().List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := map[string][2]int64{}
	for _, n := range nodes {
		got[n.Data()] = [2]int64{n.Left(), n.Right()}
	}
	return got
}

// moveFixture is the tree E=[1,10] with children A=[2,5] (child A1=[3,4])
// and B=[6,9] (child B1=[7,8]).
func moveFixture(t *testing.T, ctx context.Context, store *memstore.Store[string]) map[string]*nestedset.Node[string] {
	return map[string]*nestedset.Node[string]{
		"E":  attach(t, ctx, store, "E", 1, 10),
		"A":  attach(t, ctx, store, "A", 2, 5),
		"A1": attach(t, ctx, store, "A1", 3, 4),
		"B":  attach(t, ctx, store, "B", 6, 9),
		"B1": attach(t, ctx, store, "B1", 7, 8),
	}
}

func TestAddChild(t *testing.T) {
	ctx := context.Background()
	r, _ := newTree()

	e := nestedset.NewNode("E")
	assert.NoError(t, r.AddChild(ctx, e, nil))
	assert.Equal(t, [2]int64{1, 2}, [2]int64{e.Left(), e.Right()})

	s := nestedset.NewNode("S")
	assert.NoError(t, r.AddChild(ctx, s, e))
	assert.Equal(t, [2]int64{1, 4}, [2]int64{e.Left(), e.Right()})
	assert.Equal(t, [2]int64{2, 3}, [2]int64{s.Left(), s.Right()})
	assert.NoError(t, r.Validate(ctx))
}

func TestAddChildAppendsRoots(t *testing.T) {
	ctx := context.Background()
	r, _ := newTree()

	e := nestedset.NewNode("E")
	c := nestedset.NewNode("C")
	assert.NoError(t, r.AddChild(ctx, e, nil))
	assert.NoError(t, r.AddChild(ctx, c, nil))

	want := map[string][2]int64{
		"E": {1, 2},
		"C": {3, 4},
	}
	if diff := cmp.Diff(want, intervals(t, ctx, r)); diff != "" {
		t.Errorf("unexpected intervals: -want +got:\n%s", diff)
	}

	// the gap at E.right sits closer to the low end of the number space, so
	// the cheaper shift pushes E's left edge back instead of moving C
	s := nestedset.NewNode("S")
	assert.NoError(t, r.AddChild(ctx, s, e))
	want = map[string][2]int64{
		"E": {-1, 2},
		"S": {0, 1},
		"C": {3, 4},
	}
	if diff := cmp.Diff(want, intervals(t, ctx, r)); diff != "" {
		t.Errorf("unexpected intervals: -want +got:\n%s", diff)
	}
	assert.NoError(t, r.Validate(ctx))
}

func TestAddChildDetachedParent(t *testing.T) {
	ctx := context.Background()
	r, _ := newTree()

	parent := nestedset.NewNode("parent")
	child := nestedset.NewNode("child")
	err := r.AddChild(ctx, child, parent)
	assert.ErrorIs(t, err, nestedset.ErrDetachedNode)
	// nothing may be staged after a failed precondition
	got := intervals(t, ctx, r)
	if len(got) != 0 {
		t.Errorf("expected an empty store, got: %v", got)
	}
}

func TestInsertBefore(t *testing.T) {
	ctx := context.Background()
	r, store := newTree()

	e := attach(t, ctx, store, "E", 1, 4)
	s := attach(t, ctx, store, "S", 2, 3)

	l := nestedset.NewNode("L")
	assert.NoError(t, r.InsertBefore(ctx, l, s))
	assert.NoError(t, r.Validate(ctx))

	// L precedes S below the same parent
	children, err := r.Children(ctx, e)
	assert.NoError(t, err)
	names := []string{}
	for _, child := range children {
		names = append(names, child.Data())
	}
	if diff := cmp.Diff([]string{"L", "S"}, names); diff != "" {
		t.Errorf("unexpected child order: -want +got:\n%s", diff)
	}
	assert.True(t, l.IsDescendantOf(e))
	assert.Equal(t, s.Left()-1, l.Right())
}

func TestInsertBeforeDetachedSibling(t *testing.T) {
	ctx := context.Background()
	r, _ := newTree()

	sibling := nestedset.NewNode("sibling")
	err := r.InsertBefore(ctx, nestedset.NewNode("L"), sibling)
	assert.ErrorIs(t, err, nestedset.ErrDetachedNode)
}

func TestMove(t *testing.T) {
	cases := map[string]struct {
		source string
		target string
		want   map[string][2]int64
	}{
		"TargetAfterSource": {
			source: "A",
			target: "B",
			want: map[string][2]int64{
				"E":  {1, 10},
				"B":  {2, 9},
				"B1": {3, 4},
				"A":  {5, 8},
				"A1": {6, 7},
			},
		},
		"TargetBeforeSource": {
			source: "B",
			target: "A",
			want: map[string][2]int64{
				"E":  {1, 10},
				"A":  {2, 9},
				"A1": {3, 4},
				"B":  {5, 8},
				"B1": {6, 7},
			},
		},
		"ReappendToOwnParent": {
			source: "A",
			target: "E",
			want: map[string][2]int64{
				"E":  {1, 10},
				"B":  {2, 5},
				"B1": {3, 4},
				"A":  {6, 9},
				"A1": {7, 8},
			},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r, store := newTree()
			nodes := moveFixture(t, ctx, store)

			assert.NoError(t, r.Move(ctx, nodes[tc.source], nodes[tc.target]))
			if diff := cmp.Diff(tc.want, intervals(t, ctx, r)); diff != "" {
				t.Errorf("%s: unexpected intervals: -want +got:\n%s", name, diff)
			}
			assert.NoError(t, r.Validate(ctx))

			// the subtree ends up as the target's last child with its
			// internal structure intact
			assert.True(t, nodes[tc.source].IsDescendantOf(nodes[tc.target]))
			children, err := r.Children(ctx, nodes[tc.target])
			assert.NoError(t, err)
			assert.Equal(t, tc.source, children[len(children)-1].Data())
		})
	}
}

func TestMoveIllegal(t *testing.T) {
	cases := map[string]struct {
		source string
		target string
	}{
		"TargetIsChild":      {source: "A", target: "A1"},
		"TargetIsDescendant": {source: "E", target: "B1"},
		"TargetIsSelf":       {source: "B", target: "B"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r, store := newTree()
			nodes := moveFixture(t, ctx, store)
			before := intervals(t, ctx, r)

			err := r.Move(ctx, nodes[tc.source], nodes[tc.target])
			assert.ErrorIs(t, err, nestedset.ErrIllegalMove)
			if diff := cmp.Diff(before, intervals(t, ctx, r)); diff != "" {
				t.Errorf("%s: rejected move mutated the tree: -want +got:\n%s", name, diff)
			}
		})
	}
}

func TestMoveDetached(t *testing.T) {
	ctx := context.Background()
	r, store := newTree()
	e := attach(t, ctx, store, "E", 1, 2)

	err := r.Move(ctx, nestedset.NewNode("X"), e)
	assert.ErrorIs(t, err, nestedset.ErrDetachedNode)
	err = r.Move(ctx, e, nestedset.NewNode("X"))
	assert.ErrorIs(t, err, nestedset.ErrDetachedNode)
}

func TestMinimalTouch(t *testing.T) {
	ctx := context.Background()
	r, store := newTree()

	r1 := attach(t, ctx, store, "R1", 1, 2)
	r2 := attach(t, ctx, store, "R2", 3, 4)

	// the gap opens at R2.right: only R2 sits at or above it, so R1 must
	// come through the shift untouched
	x := nestedset.NewNode("X")
	assert.NoError(t, r.AddChild(ctx, x, r2))
	assert.Equal(t, [2]int64{1, 2}, [2]int64{r1.Left(), r1.Right()})
	assert.Equal(t, [2]int64{3, 6}, [2]int64{r2.Left(), r2.Right()})
	assert.Equal(t, [2]int64{4, 5}, [2]int64{x.Left(), x.Right()})
	assert.NoError(t, r.Validate(ctx))
}

func TestStagedMutations(t *testing.T) {
	ctx := context.Background()
	r, store := newTree()

	// several mutations before a single flush: staged nodes must be shifted
	// in lock-step with everything else
	e := nestedset.NewNode("E")
	assert.NoError(t, r.AddChild(ctx, e, nil))
	s1 := nestedset.NewNode("S1")
	assert.NoError(t, r.AddChild(ctx, s1, e))
	s2 := nestedset.NewNode("S2")
	assert.NoError(t, r.AddChild(ctx, s2, e))
	assert.Equal(t, 3, store.Staged())
	assert.NoError(t, r.Validate(ctx))

	assert.NoError(t, store.Flush(ctx))
	assert.Equal(t, 0, store.Staged())
	assert.Equal(t, 3, store.Count())

	// a durable/staged mix keeps working
	s0 := nestedset.NewNode("S0")
	assert.NoError(t, r.InsertBefore(ctx, s0, s1))
	assert.Equal(t, 1, store.Staged())
	assert.NoError(t, r.Validate(ctx))
	assert.NoError(t, r.Move(ctx, s1, s2))
	assert.NoError(t, r.Validate(ctx))

	children, err := r.Children(ctx, e)
	assert.NoError(t, err)
	names := []string{}
	for _, child := range children {
		names = append(names, child.Data())
	}
	if diff := cmp.Diff([]string{"S0", "S2"}, names); diff != "" {
		t.Errorf("unexpected child order: -want +got:\n%s", diff)
	}
}
