package iptree

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/hansthienpondt/nipam/pkg/table"
	"github.com/henderiw/nstree/pkg/memstore"
	"github.com/henderiw/nstree/pkg/nestedset"
	"go4.org/netipx"
	"k8s.io/apimachinery/pkg/labels"
)

// IPTree keeps claimed prefixes as a nested-set hierarchy scoped to an IP
// range: a prefix becomes a child of the most specific prefix that covers
// it, and claiming a covering prefix re-parents the claims it covers.
type IPTree interface {
	Claim(ctx context.Context, prefix string, route table.Route) error
	Get(prefix string) (table.Route, error)
	Has(prefix string) bool

	Children(ctx context.Context, prefix string) ([]netip.Prefix, error)
	Descendants(ctx context.Context, prefix string) ([]netip.Prefix, error)
	GetByLabel(selector labels.Selector) table.Routes

	Count() int
	Flush(ctx context.Context) error
	Validate(ctx context.Context) error
}

type claim struct {
	prefix netip.Prefix
	route  table.Route
}

func New(from, to netip.Addr) (IPTree, error) {
	ipRange := netipx.IPRangeFrom(from, to)
	if !ipRange.IsValid() {
		return nil, fmt.Errorf("invalid ip range from %s to %s", from.String(), to.String())
	}
	store := memstore.New[claim]()
	return &ipTree{
		store:    store,
		mgr:      nestedset.New[claim](store),
		ipRange:  ipRange,
		prefixes: map[netip.Prefix]*nestedset.Node[claim]{},
	}, nil
}

type ipTree struct {
	store    *memstore.Store[claim]
	mgr      *nestedset.Manager[claim]
	ipRange  netipx.IPRange
	prefixes map[netip.Prefix]*nestedset.Node[claim]
}

func (r *ipTree) Claim(ctx context.Context, prefix string, route table.Route) error {
	pfx, err := r.validatePrefix(prefix)
	if err != nil {
		return err
	}
	if _, ok := r.prefixes[pfx]; ok {
		return fmt.Errorf("prefix %s is already claimed", prefix)
	}

	parent := r.covering(pfx)
	// the claims the new prefix takes over are exactly the covered prefixes
	// that sit directly below the new prefix's own parent; their subtrees
	// follow them
	var takeover []*nestedset.Node[claim]
	for covered, coveredNode := range r.prefixes {
		if contains(pfx, covered) && samePrefix(r.covering(covered), parent) {
			takeover = append(takeover, coveredNode)
		}
	}

	var parentNode *nestedset.Node[claim]
	if parent != nil {
		parentNode = r.prefixes[*parent]
	}
	n := nestedset.NewNode(claim{prefix: pfx, route: route})
	if err := r.mgr.AddChild(ctx, n, parentNode); err != nil {
		return err
	}
	r.prefixes[pfx] = n

	for _, coveredNode := range takeover {
		if err := r.mgr.Move(ctx, coveredNode, n); err != nil {
			return err
		}
	}
	return nil
}

func samePrefix(a, b *netip.Prefix) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (r *ipTree) Get(prefix string) (table.Route, error) {
	pfx, err := r.validatePrefix(prefix)
	if err != nil {
		return table.Route{}, err
	}
	n, ok := r.prefixes[pfx]
	if !ok {
		return table.Route{}, fmt.Errorf("prefix %s not found", prefix)
	}
	return n.Data().route, nil
}

func (r *ipTree) Has(prefix string) bool {
	pfx, err := r.validatePrefix(prefix)
	if err != nil {
		return false
	}
	_, ok := r.prefixes[pfx]
	return ok
}

func (r *ipTree) Children(ctx context.Context, prefix string) ([]netip.Prefix, error) {
	return r.related(ctx, prefix, r.mgr.Children)
}

func (r *ipTree) Descendants(ctx context.Context, prefix string) ([]netip.Prefix, error) {
	return r.related(ctx, prefix, r.mgr.Descendants)
}

func (r *ipTree) related(ctx context.Context, prefix string, query func(context.Context, *nestedset.Node[claim]) (nestedset.Nodes[claim], error)) ([]netip.Prefix, error) {
	pfx, err := r.validatePrefix(prefix)
	if err != nil {
		return nil, err
	}
	n, ok := r.prefixes[pfx]
	if !ok {
		return nil, fmt.Errorf("prefix %s not found", prefix)
	}
	nodes, err := query(ctx, n)
	if err != nil {
		return nil, err
	}
	prefixes := make([]netip.Prefix, 0, len(nodes))
	for _, node := range nodes {
		prefixes = append(prefixes, node.Data().prefix)
	}
	return prefixes, nil
}

func (r *ipTree) GetByLabel(selector labels.Selector) table.Routes {
	var routes table.Routes
	for _, n := range r.prefixes {
		route := n.Data().route
		if selector.Matches(route.Labels()) {
			routes = append(routes, route)
		}
	}
	return routes
}

func (r *ipTree) Count() int {
	return r.store.Count()
}

func (r *ipTree) Flush(ctx context.Context) error {
	return r.store.Flush(ctx)
}

func (r *ipTree) Validate(ctx context.Context) error {
	return r.mgr.Validate(ctx)
}

func (r *ipTree) validatePrefix(prefix string) (netip.Prefix, error) {
	pfx, err := netip.ParsePrefix(prefix)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("prefix %s is invalid", prefix)
	}
	pfx = pfx.Masked()
	pfxRange := netipx.RangeOfPrefix(pfx)
	if !r.ipRange.Contains(pfxRange.From()) || !r.ipRange.Contains(pfxRange.To()) {
		return netip.Prefix{}, fmt.Errorf("prefix %s does not fit in the range from %s to %s",
			prefix, r.ipRange.From().String(), r.ipRange.To().String())
	}
	return pfx, nil
}

// covering returns the most specific claimed prefix that strictly contains
// pfx, or nil when pfx belongs at the top level.
func (r *ipTree) covering(pfx netip.Prefix) *netip.Prefix {
	var best *netip.Prefix
	for candidate := range r.prefixes {
		candidate := candidate
		if !contains(candidate, pfx) {
			continue
		}
		if best == nil || candidate.Bits() > best.Bits() {
			best = &candidate
		}
	}
	return best
}

func contains(p, q netip.Prefix) bool {
	return p.Bits() < q.Bits() && p.Contains(q.Addr())
}
