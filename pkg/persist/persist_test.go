package persist

import (
	"encoding/json"
	"testing"

	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/config"
	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/kernel"
	"github.com/routesim/netsim/pkg/ospf"
	"github.com/routesim/netsim/pkg/prefix"
	"github.com/routesim/netsim/pkg/router"
	"github.com/routesim/netsim/pkg/routemap"
)

func buildNetwork(t *testing.T) *kernel.Network {
	t.Helper()
	n := kernel.NewNetwork()
	r1 := n.AddRouter(router.Internal, id.InternalASN, "r1")
	r2 := n.AddRouter(router.Internal, id.InternalASN, "r2")
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
	p := prefix.MustParseIPv4Net("10.0.0.0/8")
	if err := n.AdvertiseExternalRoute(ext, p, bgproute.Route{Prefix: p, NextHop: ext, ASPath: []id.ASN{65001}}); err != nil {
		t.Fatal(err)
	}
	if err := n.SetStaticRoute(r1, prefix.MustParseIPv4Net("192.0.2.0/24"), r2); err != nil {
		t.Fatal(err)
	}
	n.StopAfter = 10000
	if err := n.Simulate(); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	n := buildNetwork(t)

	s, err := Snapshot(n, config.New(), "ipv4")
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var reread State
	if err := json.Unmarshal(data, &reread); err != nil {
		t.Fatal(err)
	}

	restored, _, err := Restore(&reread)
	if err != nil {
		t.Fatal(err)
	}

	r1, err := restored.RouterByName("r1")
	if err != nil {
		t.Fatal(err)
	}
	r2, err := restored.RouterByName("r2")
	if err != nil {
		t.Fatal(err)
	}
	p := prefix.MustParseIPv4Net("10.0.0.0/8")
	entry, ok := r2.BGP.RIB().Get(p)
	if !ok {
		t.Fatal("expected restored r2 to carry the advertised prefix")
	}
	if entry.Route.ASPath[0] != 65001 {
		t.Fatalf("unexpected as-path after restore: %v", entry.Route.ASPath)
	}
	if nh, ok := r1.StaticRoute(prefix.MustParseIPv4Net("192.0.2.0/24")); !ok || nh != r2.ID {
		t.Fatalf("expected static route on restored r1 to point at r2, got %v (ok=%v)", nh, ok)
	}
}

func TestCompactVariantOmitsQueueAndReconverges(t *testing.T) {
	n := buildNetwork(t)

	s, err := Compact(n, config.New(), "ipv4")
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Queue) != 0 {
		t.Fatalf("compact variant must omit queue, got %d entries", len(s.Queue))
	}

	restored, _, err := Restore(s)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := restored.RouterByName("r2")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r2.BGP.RIB().Get(prefix.MustParseIPv4Net("10.0.0.0/8")); !ok {
		t.Fatal("expected compact restore to reconverge and carry the advertised prefix")
	}
}

func TestRouteMapItemRoundTripsThroughConfig(t *testing.T) {
	n := kernel.NewNetwork()
	r1 := n.AddRouter(router.Internal, id.InternalASN, "r1")
	r2 := n.AddRouter(router.Internal, id.InternalASN, "r2")
	if err := n.AddLink(r1, r2, 1, ospf.Backbone); err != nil {
		t.Fatal(err)
	}
	if err := n.SetBGPSession(r1, r2, bgproute.SessionIBGPPeer); err != nil {
		t.Fatal(err)
	}
	n.StopAfter = 1000
	if err := n.Simulate(); err != nil {
		t.Fatal(err)
	}

	item := routemap.Item{
		Order:   10,
		State:   routemap.Deny,
		Matches: []routemap.Match{routemap.ASPathContains{ASN: 65001}},
	}
	cfg := config.New()
	if err := cfg.Claim(config.Expr{
		Subject: config.RouteMapSubject(r1, r2, config.In, 10),
		Value:   config.Value{RouteMapItem: item},
	}); err != nil {
		t.Fatal(err)
	}

	s, err := Snapshot(n, cfg, "ipv4")
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var reread State
	if err := json.Unmarshal(data, &reread); err != nil {
		t.Fatal(err)
	}
	restored, restoredCfg, err := Restore(&reread)
	if err != nil {
		t.Fatal(err)
	}
	if len(restoredCfg.Subjects()) != 1 {
		t.Fatalf("expected one restored config expr, got %d", len(restoredCfg.Subjects()))
	}

	nr1, err := restored.RouterByName("r1")
	if err != nil {
		t.Fatal(err)
	}
	nr2, err := restored.RouterByName("r2")
	if err != nil {
		t.Fatal(err)
	}
	pc, ok := nr1.BGP.Peers()[nr2.ID]
	if !ok || pc.In == nil {
		t.Fatalf("expected restored r1 to carry an inbound route-map toward r2")
	}
}
