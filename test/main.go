package main

import (
	"context"
	"fmt"

	"github.com/henderiw/nstree/pkg/orgtree"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/selection"
)

var units = []struct {
	name   string
	parent string
	labels map[string]string
}{
	{name: "hq", labels: map[string]string{"region": "global"}},
	{name: "emea", parent: "hq", labels: map[string]string{"region": "emea"}},
	{name: "amer", parent: "hq", labels: map[string]string{"region": "amer"}},
	{name: "ghent", parent: "emea", labels: map[string]string{"region": "emea"}},
	{name: "antwerp", parent: "emea", labels: map[string]string{"region": "emea"}},
	{name: "nyc", parent: "amer", labels: map[string]string{"region": "amer"}},
}

func main() {
	ctx := context.Background()
	t := orgtree.New()

	for _, u := range units {
		if err := t.AddUnit(ctx, u.name, u.labels, u.parent); err != nil {
			fmt.Println("add", u.name, "failed:", err)
			return
		}
	}
	dump(ctx, t, "initial tree")

	if err := t.Move(ctx, "ghent", "amer"); err != nil {
		fmt.Println("move failed:", err)
		return
	}
	dump(ctx, t, "after moving ghent below amer")

	req, _ := labels.NewRequirement("region", selection.Equals, []string{"emea"})
	for _, u := range t.GetByLabel(labels.NewSelector().Add(*req)) {
		fmt.Println("emea unit:", u.Name)
	}

	if err := t.Validate(ctx); err != nil {
		fmt.Println("invariants violated:", err)
	}
}

func dump(ctx context.Context, t orgtree.OrgTree, header string) {
	fmt.Println(header)
	roots, err := t.Roots(ctx)
	if err != nil {
		fmt.Println("roots failed:", err)
		return
	}
	for _, root := range roots {
		printUnit(ctx, t, root.Name, 1)
	}
}

func printUnit(ctx context.Context, t orgtree.OrgTree, name string, depth int) {
	n, err := t.Get(name)
	if err != nil {
		fmt.Println("get failed:", err)
		return
	}
	for i := 0; i < depth; i++ {
		fmt.Print("  ")
	}
	fmt.Println(name, n.String())
	children, err := t.Children(ctx, name)
	if err != nil {
		fmt.Println("children failed:", err)
		return
	}
	for _, child := range children {
		printUnit(ctx, t, child.Name, depth+1)
	}
}
