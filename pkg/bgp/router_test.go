package bgp

import (
	"testing"

	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/prefix"
)

func noIGP(id.RouterID) (float64, bool) { return 0, false }

// reachableIGP reports every next hop OSPF-reachable at a fixed cost, for
// tests exercising iBGP-learned routes that aren't about reachability
// itself.
func reachableIGP(id.RouterID) (float64, bool) { return 1, true }

func TestDecisionPrefersShorterASPath(t *testing.T) {
	r := NewRouter(1, id.ASN(100), noIGP)
	r.SetPeer(PeerConfig{Peer: 2, RemoteASN: 200, Session: bgproute.SessionEBGP})
	r.SetPeer(PeerConfig{Peer: 3, RemoteASN: 300, Session: bgproute.SessionEBGP})

	p := prefix.MustParseIPv4Net("10.0.0.0/8")

	r.HandleUpdate(2, p, bgproute.RIBEntry{Route: bgproute.Route{Prefix: p, NextHop: 2, ASPath: []id.ASN{200, 400}}})
	r.HandleUpdate(3, p, bgproute.RIBEntry{Route: bgproute.Route{Prefix: p, NextHop: 3, ASPath: []id.ASN{300}}})

	best, ok := r.RIB().Get(p)
	if !ok {
		t.Fatal("expected a best path")
	}
	if best.Peer != id.RouterID(3) {
		t.Fatalf("expected shorter AS-path (via peer 3) to win, got peer %v path %v", best.Peer, best.Route.ASPath)
	}
}

func TestEBGPLearnedReflectedToAllPeers(t *testing.T) {
	r := NewRouter(1, id.ASN(100), noIGP)
	r.SetPeer(PeerConfig{Peer: 2, Session: bgproute.SessionEBGP})
	r.SetPeer(PeerConfig{Peer: 3, Session: bgproute.SessionIBGPPeer})

	p := prefix.MustParseIPv4Net("10.0.0.0/8")
	events := r.HandleUpdate(2, p, bgproute.RIBEntry{Route: bgproute.Route{Prefix: p, NextHop: 2, ASPath: []id.ASN{200}}})

	if len(events) != 1 {
		t.Fatalf("expected one advertisement to peer 3, got %d", len(events))
	}
	if events[0].Dst != id.RouterID(3) {
		t.Fatalf("expected advertisement to peer 3, got dst=%v", events[0].Dst)
	}
}

func TestIBGPLearnedNotReflectedToNonClientIBGPPeer(t *testing.T) {
	r := NewRouter(1, id.ASN(100), reachableIGP)
	r.SetPeer(PeerConfig{Peer: 2, Session: bgproute.SessionIBGPPeer})
	r.SetPeer(PeerConfig{Peer: 3, Session: bgproute.SessionIBGPPeer})

	p := prefix.MustParseIPv4Net("10.0.0.0/8")
	events := r.HandleUpdate(2, p, bgproute.RIBEntry{Route: bgproute.Route{Prefix: p, NextHop: 2}})

	if len(events) != 0 {
		t.Fatalf("expected no reflection between non-client iBGP peers, got %d events", len(events))
	}
}

func TestRouteReflectionToClient(t *testing.T) {
	r := NewRouter(1, id.ASN(100), reachableIGP)
	r.SetPeer(PeerConfig{Peer: 2, Session: bgproute.SessionIBGPPeer})
	r.SetPeer(PeerConfig{Peer: 3, Session: bgproute.SessionIBGPClient})

	p := prefix.MustParseIPv4Net("10.0.0.0/8")
	events := r.HandleUpdate(2, p, bgproute.RIBEntry{Route: bgproute.Route{Prefix: p, NextHop: 2}})

	if len(events) != 1 || events[0].Dst != id.RouterID(3) {
		t.Fatalf("expected reflection only to client peer 3, got %+v", events)
	}
	if events[0].BGPUpdate.Entry.Route.OriginatorID == nil {
		t.Fatal("expected ORIGINATOR_ID to be stamped on reflection")
	}
}

func TestNoAdvertiseSuppressesAllPeers(t *testing.T) {
	r := NewRouter(1, id.ASN(100), noIGP)
	r.SetPeer(PeerConfig{Peer: 2, Session: bgproute.SessionEBGP})

	p := prefix.MustParseIPv4Net("10.0.0.0/8")
	noAdv := bgproute.Community{ASN: id.InternalASN, Value: bgproute.CommunityNoAdvertise}
	events := r.Originate(p, bgproute.Route{Prefix: p, NextHop: 1, Communities: []bgproute.Community{noAdv}})
	if len(events) != 0 {
		t.Fatalf("expected NO_ADVERTISE to suppress all export, got %d events", len(events))
	}
}

func TestIBGPLearnedIneligibleWithoutIGPReachability(t *testing.T) {
	r := NewRouter(1, id.ASN(100), noIGP)
	r.SetPeer(PeerConfig{Peer: 2, Session: bgproute.SessionIBGPPeer})

	p := prefix.MustParseIPv4Net("10.0.0.0/8")
	r.HandleUpdate(2, p, bgproute.RIBEntry{Route: bgproute.Route{Prefix: p, NextHop: 2}})

	if _, ok := r.RIB().Get(p); ok {
		t.Fatal("expected iBGP-learned entry with no OSPF-reachable next hop to be ineligible")
	}
}

func TestEBGPLearnedEligibleWithoutIGPCost(t *testing.T) {
	r := NewRouter(1, id.ASN(100), noIGP)
	r.SetPeer(PeerConfig{Peer: 2, Session: bgproute.SessionEBGP})

	p := prefix.MustParseIPv4Net("10.0.0.0/8")
	r.HandleUpdate(2, p, bgproute.RIBEntry{Route: bgproute.Route{Prefix: p, NextHop: 2, ASPath: []id.ASN{200}}})

	if _, ok := r.RIB().Get(p); !ok {
		t.Fatal("expected eBGP-learned entry to be eligible without an IGP cost")
	}
}

func TestRefreshIGPCostWithdrawsEntryGoneUnreachable(t *testing.T) {
	reachable := true
	cost := func(id.RouterID) (float64, bool) { return 1, reachable }
	r := NewRouter(1, id.ASN(100), cost)
	r.SetPeer(PeerConfig{Peer: 2, Session: bgproute.SessionIBGPPeer})
	r.SetPeer(PeerConfig{Peer: 3, Session: bgproute.SessionIBGPClient})

	p := prefix.MustParseIPv4Net("10.0.0.0/8")
	r.HandleUpdate(2, p, bgproute.RIBEntry{Route: bgproute.Route{Prefix: p, NextHop: 2}})
	if _, ok := r.RIB().Get(p); !ok {
		t.Fatal("expected entry to be installed while reachable")
	}

	reachable = false
	r.RefreshIGPCost()
	if _, ok := r.RIB().Get(p); ok {
		t.Fatal("expected entry to be withdrawn once its next hop became OSPF-unreachable")
	}
}

func TestClusterListLoopDropsEntry(t *testing.T) {
	r := NewRouter(1, id.ASN(100), reachableIGP)
	r.SetPeer(PeerConfig{Peer: 2, Session: bgproute.SessionIBGPPeer})

	p := prefix.MustParseIPv4Net("10.0.0.0/8")
	r.HandleUpdate(2, p, bgproute.RIBEntry{
		Route: bgproute.Route{Prefix: p, NextHop: 2, ClusterList: []id.RouterID{1}},
	})

	if _, ok := r.RIB().Get(p); ok {
		t.Fatal("expected entry whose CLUSTER_LIST already contains this router to be dropped")
	}
}

func TestSuppressUnchangedReadvertisement(t *testing.T) {
	r := NewRouter(1, id.ASN(100), noIGP)
	r.SetPeer(PeerConfig{Peer: 2, Session: bgproute.SessionEBGP})
	p := prefix.MustParseIPv4Net("10.0.0.0/8")

	first := r.Originate(p, bgproute.Route{Prefix: p, NextHop: 1})
	if len(first) != 1 {
		t.Fatalf("expected one advertisement, got %d", len(first))
	}
	second := r.Originate(p, bgproute.Route{Prefix: p, NextHop: 1})
	if len(second) != 0 {
		t.Fatalf("expected re-origination with identical route to be suppressed, got %d events", len(second))
	}
}
