package orgtree

import (
	"context"
	"fmt"

	"github.com/henderiw/nstree/pkg/memstore"
	"github.com/henderiw/nstree/pkg/nestedset"
	"k8s.io/apimachinery/pkg/labels"
)

// OrgTree maintains a named, labeled hierarchy (org units, locations, menu
// entries, ...) on top of the nested-set manager. Units are keyed by name;
// the interval bookkeeping stays hidden behind the manager.
type OrgTree interface {
	AddUnit(ctx context.Context, name string, l labels.Set, parent string) error
	InsertBefore(ctx context.Context, name string, l labels.Set, sibling string) error
	Move(ctx context.Context, name, newParent string) error

	Get(name string) (*nestedset.Node[Unit], error)
	Has(name string) bool
	Children(ctx context.Context, name string) ([]Unit, error)
	Descendants(ctx context.Context, name string) ([]Unit, error)
	Roots(ctx context.Context) ([]Unit, error)
	GetByLabel(selector labels.Selector) []Unit

	Count() int
	Flush(ctx context.Context) error
	Validate(ctx context.Context) error
}

type Unit struct {
	Name   string
	Labels labels.Set
}

func New() OrgTree {
	store := memstore.New[Unit]()
	return &orgTree{
		store: store,
		mgr:   nestedset.New[Unit](store),
		units: map[string]*nestedset.Node[Unit]{},
	}
}

type orgTree struct {
	store *memstore.Store[Unit]
	mgr   *nestedset.Manager[Unit]
	units map[string]*nestedset.Node[Unit]
}

func (r *orgTree) AddUnit(ctx context.Context, name string, l labels.Set, parent string) error {
	if _, ok := r.units[name]; ok {
		return fmt.Errorf("unit %s already exists", name)
	}
	var parentNode *nestedset.Node[Unit]
	if parent != "" {
		var err error
		parentNode, err = r.Get(parent)
		if err != nil {
			return err
		}
	}
	n := nestedset.NewNode(Unit{Name: name, Labels: l})
	if err := r.mgr.AddChild(ctx, n, parentNode); err != nil {
		return err
	}
	r.units[name] = n
	return nil
}

func (r *orgTree) InsertBefore(ctx context.Context, name string, l labels.Set, sibling string) error {
	if _, ok := r.units[name]; ok {
		return fmt.Errorf("unit %s already exists", name)
	}
	siblingNode, err := r.Get(sibling)
	if err != nil {
		return err
	}
	n := nestedset.NewNode(Unit{Name: name, Labels: l})
	if err := r.mgr.InsertBefore(ctx, n, siblingNode); err != nil {
		return err
	}
	r.units[name] = n
	return nil
}

func (r *orgTree) Move(ctx context.Context, name, newParent string) error {
	source, err := r.Get(name)
	if err != nil {
		return err
	}
	target, err := r.Get(newParent)
	if err != nil {
		return err
	}
	return r.mgr.Move(ctx, source, target)
}

func (r *orgTree) Get(name string) (*nestedset.Node[Unit], error) {
	n, ok := r.units[name]
	if !ok {
		return nil, fmt.Errorf("unit %s not found", name)
	}
	return n, nil
}

func (r *orgTree) Has(name string) bool {
	_, ok := r.units[name]
	return ok
}

func (r *orgTree) Children(ctx context.Context, name string) ([]Unit, error) {
	n, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	children, err := r.mgr.Children(ctx, n)
	if err != nil {
		return nil, err
	}
	return units(children), nil
}

func (r *orgTree) Descendants(ctx context.Context, name string) ([]Unit, error) {
	n, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	descendants, err := r.mgr.Descendants(ctx, n)
	if err != nil {
		return nil, err
	}
	return units(descendants), nil
}

func (r *orgTree) Roots(ctx context.Context) ([]Unit, error) {
	roots, err := r.mgr.Roots(ctx)
	if err != nil {
		return nil, err
	}
	return units(roots), nil
}

func (r *orgTree) GetByLabel(selector labels.Selector) []Unit {
	var selected []Unit
	for _, n := range r.units {
		if selector.Matches(n.Data().Labels) {
			selected = append(selected, n.Data())
		}
	}
	return selected
}

func (r *orgTree) Count() int {
	return r.store.Count()
}

func (r *orgTree) Flush(ctx context.Context) error {
	return r.store.Flush(ctx)
}

func (r *orgTree) Validate(ctx context.Context) error {
	return r.mgr.Validate(ctx)
}

func units(nodes nestedset.Nodes[Unit]) []Unit {
	var selected []Unit
	for _, n := range nodes {
		selected = append(selected, n.Data())
	}
	return selected
}
