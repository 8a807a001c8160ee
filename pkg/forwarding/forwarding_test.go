package forwarding

import (
	"testing"

	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/kernel"
	"github.com/routesim/netsim/pkg/ospf"
	"github.com/routesim/netsim/pkg/prefix"
	"github.com/routesim/netsim/pkg/router"
)

func buildTriangle(t *testing.T) (*kernel.Network, id.RouterID, id.RouterID, id.RouterID, id.RouterID) {
	t.Helper()
	n := kernel.NewNetwork()
	asn := id.InternalASN
	r1 := n.AddRouter(router.Internal, asn, "r1")
	r2 := n.AddRouter(router.Internal, asn, "r2")
	r3 := n.AddRouter(router.Internal, asn, "r3")
	ext := n.AddRouter(router.External, id.ASN(65001), "ext")

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(n.AddLink(r1, r2, 1, ospf.Backbone))
	must(n.AddLink(r2, r3, 1, ospf.Backbone))
	must(n.AddLink(r1, r3, 1, ospf.Backbone))
	must(n.AddLink(r1, ext, 1, ospf.Backbone))
	must(n.SetBGPSession(r1, r2, bgproute.SessionIBGPPeer))
	must(n.SetBGPSession(r1, r3, bgproute.SessionIBGPPeer))
	must(n.SetBGPSession(r2, r3, bgproute.SessionIBGPPeer))
	must(n.SetBGPSession(r1, ext, bgproute.SessionEBGP))

	n.StopAfter = 20000
	must(n.Simulate())
	return n, r1, r2, r3, ext
}

func TestForwardingExitsThroughBorderRouter(t *testing.T) {
	n, r1, r2, _, ext := buildTriangle(t)
	p := prefix.MustParseIPv4Net("198.51.100.0/24")
	if err := n.AdvertiseExternalRoute(ext, p, bgproute.Route{Prefix: p, NextHop: ext, ASPath: []id.ASN{65001}}); err != nil {
		t.Fatal(err)
	}
	if err := n.Simulate(); err != nil {
		t.Fatal(err)
	}

	tbl, err := Build(n)
	if err != nil {
		t.Fatal(err)
	}

	e1, ok := tbl.Entry(r1, p)
	if !ok || len(e1.NextHops) != 1 || e1.NextHops[0].ToDestination || e1.NextHops[0].Router != ext {
		t.Fatalf("r1 expected next hop ext, got %+v ok=%v", e1, ok)
	}

	e2, ok := tbl.Entry(r2, p)
	if !ok || len(e2.NextHops) != 1 || e2.NextHops[0].Router != r1 {
		t.Fatalf("r2 expected next hop r1, got %+v ok=%v", e2, ok)
	}

	paths, err := tbl.GetPaths(r2, p)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || len(paths[0].Routers) != 3 || paths[0].Routers[2] != ext {
		t.Fatalf("expected single path r2 -> r1 -> ext, got %+v", paths)
	}
}

func TestForwardingBlackHoleOnMissingRoute(t *testing.T) {
	n, r1, r2, _, _ := buildTriangle(t)
	_ = r1
	tbl, err := Build(n)
	if err != nil {
		t.Fatal(err)
	}
	p := prefix.MustParseIPv4Net("10.0.0.0/24")
	if _, err := tbl.GetPaths(r2, p); err == nil {
		t.Fatal("expected a black hole error for an unadvertised prefix")
	}
}

func TestForwardingStaticOverride(t *testing.T) {
	n, r1, r2, r3, _ := buildTriangle(t)
	r2Router, err := n.Router(r2)
	if err != nil {
		t.Fatal(err)
	}
	p := prefix.MustParseIPv4Net("203.0.113.0/24")
	r2Router.SetStaticRoute(p, r3)

	tbl, err := Build(n)
	if err != nil {
		t.Fatal(err)
	}
	e, ok := tbl.Entry(r2, p)
	if !ok || len(e.NextHops) != 1 || e.NextHops[0].Router != r3 {
		t.Fatalf("expected static override to r3, got %+v ok=%v", e, ok)
	}
	_ = r1
}
