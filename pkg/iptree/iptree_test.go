package iptree

import (
	"context"
	"testing"

	"github.com/hansthienpondt/nipam/pkg/table"
	"github.com/tj/assert"
	"go4.org/netipx"
	"k8s.io/apimachinery/pkg/labels"
)

func TestClaim(t *testing.T) {
	cases := map[string]struct {
		ipRange            string
		newSuccessPrefixes []string
		newFailedPrefixes  []string
		expectedPrefixes   int
	}{
		"Normal": {
			ipRange:            "10.0.0.0-10.0.0.255",
			newSuccessPrefixes: []string{"10.0.0.0/26", "10.0.0.64/26"},
			newFailedPrefixes:  []string{"10.0.1.0/24", "10.0.0.64/26"},
			expectedPrefixes:   2,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			ipRange, err := netipx.ParseIPRange(tc.ipRange)
			assert.NoError(t, err)
			r, err := New(ipRange.From(), ipRange.To())
			assert.NoError(t, err)

			for _, prefix := range tc.newSuccessPrefixes {
				err := r.Claim(ctx, prefix, table.Route{})
				assert.NoError(t, err)
			}
			for _, prefix := range tc.newFailedPrefixes {
				err := r.Claim(ctx, prefix, table.Route{})
				assert.Error(t, err)
			}
			for _, prefix := range tc.newSuccessPrefixes {
				if !r.Has(prefix) {
					t.Errorf("%s expecting success claim prefix: %s\n", name, prefix)
				}
			}
			if r.Count() != tc.expectedPrefixes {
				t.Errorf("%s: -want %d, +got: %d\n", name, tc.expectedPrefixes, r.Count())
			}
			assert.NoError(t, r.Validate(ctx))
		})
	}
}

func TestCoveringClaimTakesOver(t *testing.T) {
	ctx := context.Background()

	ipRange, err := netipx.ParseIPRange("10.0.0.0-10.0.0.255")
	assert.NoError(t, err)
	r, err := New(ipRange.From(), ipRange.To())
	assert.NoError(t, err)

	assert.NoError(t, r.Claim(ctx, "10.0.0.0/28", table.Route{}))
	assert.NoError(t, r.Claim(ctx, "10.0.0.0/26", table.Route{}))
	assert.NoError(t, r.Claim(ctx, "10.0.0.64/26", table.Route{}))
	assert.NoError(t, r.Validate(ctx))

	// the /24 covers every claim made so far; they all move below it, the
	// /28 staying below its /26
	assert.NoError(t, r.Claim(ctx, "10.0.0.0/24", table.Route{}))
	assert.NoError(t, r.Validate(ctx))

	children, err := r.Children(ctx, "10.0.0.0/24")
	assert.NoError(t, err)
	assert.Len(t, children, 2)

	descendants, err := r.Descendants(ctx, "10.0.0.0/24")
	assert.NoError(t, err)
	assert.Len(t, descendants, 3)

	children, err = r.Children(ctx, "10.0.0.0/26")
	assert.NoError(t, err)
	assert.Len(t, children, 1)
	assert.Equal(t, "10.0.0.0/28", children[0].String())
}

func TestGetByLabel(t *testing.T) {
	ctx := context.Background()

	ipRange, err := netipx.ParseIPRange("10.0.0.0-10.0.0.255")
	assert.NoError(t, err)
	r, err := New(ipRange.From(), ipRange.To())
	assert.NoError(t, err)

	assert.NoError(t, r.Claim(ctx, "10.0.0.0/26", table.Route{}))
	assert.NoError(t, r.Claim(ctx, "10.0.0.64/26", table.Route{}))

	routes := r.GetByLabel(labels.Everything())
	assert.Len(t, routes, 2)
}
