package kernel

import (
	"testing"

	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/ospf"
	"github.com/routesim/netsim/pkg/prefix"
	"github.com/routesim/netsim/pkg/router"
)

// TestSimpleEBGPAdvertisementConverges builds two internal routers
// connected by OSPF plus an external neighbor advertising a prefix, and
// checks the route reaches the far internal router via iBGP.
func TestSimpleEBGPAdvertisementConverges(t *testing.T) {
	n := NewNetwork()
	asn := id.InternalASN
	r1 := n.AddRouter(router.Internal, asn, "r1")
	r2 := n.AddRouter(router.Internal, asn, "r2")
	ext := n.AddRouter(router.External, id.ASN(65001), "ext")

	if err := n.AddLink(r1, r2, 1, ospf.Backbone); err != nil {
		t.Fatal(err)
	}
	if err := n.AddLink(r1, ext, 1, ospf.Backbone); err != nil {
		t.Fatal(err)
	}
	if err := n.SetBGPSession(r1, r2, bgproute.SessionIBGPPeer); err != nil {
		t.Fatal(err)
	}
	if err := n.SetBGPSession(r1, ext, bgproute.SessionEBGP); err != nil {
		t.Fatal(err)
	}

	n.StopAfter = 10000
	if err := n.Simulate(); err != nil {
		t.Fatal(err)
	}

	p := prefix.MustParseIPv4Net("203.0.113.0/24")
	if err := n.AdvertiseExternalRoute(ext, p, bgproute.Route{Prefix: p, NextHop: ext, ASPath: []id.ASN{65001}}); err != nil {
		t.Fatal(err)
	}
	if err := n.Simulate(); err != nil {
		t.Fatal(err)
	}

	router2, err := n.Router(r2)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := router2.BGP.RIB().Get(p); !ok {
		t.Fatal("expected route to converge to r2 via iBGP")
	}
}

func TestAddLinkRejectsTwoExternalRouters(t *testing.T) {
	n := NewNetwork()
	a := n.AddRouter(router.External, id.ASN(1), "a")
	b := n.AddRouter(router.External, id.ASN(2), "b")
	if err := n.AddLink(a, b, 1, ospf.Backbone); err == nil {
		t.Fatal("expected error connecting two external routers")
	}
}

func TestDeviceNotFoundError(t *testing.T) {
	n := NewNetwork()
	if _, err := n.Router(id.RouterID(99)); err == nil {
		t.Fatal("expected device-not-found error")
	}
}
