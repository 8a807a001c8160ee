package format

import (
	"strings"
	"testing"

	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/forwarding"
	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/kernel"
	"github.com/routesim/netsim/pkg/ospf"
	"github.com/routesim/netsim/pkg/prefix"
	"github.com/routesim/netsim/pkg/router"
)

func buildPair(t *testing.T) (*kernel.Network, id.RouterID, id.RouterID) {
	t.Helper()
	n := kernel.NewNetwork()
	r0 := n.AddRouter(router.Internal, id.InternalASN, "r0")
	r1 := n.AddRouter(router.Internal, id.InternalASN, "r1")
	if err := n.AddLink(r0, r1, 1, ospf.Backbone); err != nil {
		t.Fatal(err)
	}
	if err := n.SetBGPSession(r0, r1, bgproute.SessionIBGPPeer); err != nil {
		t.Fatal(err)
	}
	n.StopAfter = 5000
	if err := n.Simulate(); err != nil {
		t.Fatal(err)
	}
	return n, r0, r1
}

func TestRouteViewUsesRouterNames(t *testing.T) {
	n, r0, _ := buildPair(t)
	route := bgproute.Route{Prefix: prefix.MustParseIPv4Net("10.0.0.0/8"), NextHop: r0, ASPath: []id.ASN{65001}}
	out := RouteView{Route: route}.Format(n)
	if !strings.Contains(out, "r0") {
		t.Fatalf("expected router name r0 in output, got %q", out)
	}
}

func TestAreaTableViewListsDestinations(t *testing.T) {
	n, r0, r1 := buildPair(t)
	rtr, err := n.Router(r0)
	if err != nil {
		t.Fatal(err)
	}
	c, ok := rtr.OSPFArea(ospf.Backbone)
	if !ok {
		t.Fatal("expected r0 to participate in the backbone area")
	}
	out := AreaTableView{Area: ospf.Backbone, Table: c.Table()}.Format(n)
	if !strings.Contains(out, "r1") {
		t.Fatalf("expected r1 listed as a destination, got %q", out)
	}
	_ = r1
}

func TestForwardingEntryViewBlackHole(t *testing.T) {
	out := ForwardingEntryView{Entry: forwarding.Entry{}}.Format(nil)
	if out != "<black hole>" {
		t.Fatalf("expected black-hole rendering, got %q", out)
	}
}

func TestForwardingPathViewJoinsRouterNames(t *testing.T) {
	n, r0, r1 := buildPair(t)
	out := ForwardingPathView{Path: forwarding.Path{Routers: []id.RouterID{r0, r1}}}.Format(n)
	if out != "r0 -> r1" {
		t.Fatalf("got %q", out)
	}
}
