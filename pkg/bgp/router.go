// Package bgp implements the per-router BGP process (spec §4.1,
// component G): RIB-in/RIB/RIB-out tables, the decision process, and the
// advertisement and suppression rules that turn a change in best path
// into outbound update/withdraw events.
package bgp

import (
	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/event"
	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/prefix"
	"github.com/routesim/netsim/pkg/routemap"
)

// PeerConfig is one configured BGP session.
type PeerConfig struct {
	Peer      id.RouterID
	RemoteASN id.ASN
	Session   bgproute.SessionType
	// In and Out are the import and export route-maps; nil applies no
	// policy. This router is a route reflector for Peer exactly when
	// Session == SessionIBGPClient.
	In  *routemap.List
	Out *routemap.List
}

// IGPCostFunc resolves the OSPF intra-AS cost from this router to a
// given next-hop router, used to populate RIBEntry.IGPCost (spec §4.1
// step 6) and as the callback the network kernel re-invokes whenever
// OSPF convergence changes (spec's OSPF -> BGP refresh rule).
type IGPCostFunc func(nextHop id.RouterID) (float64, bool)

// Router is one router's BGP process.
type Router struct {
	Self id.RouterID
	ASN  id.ASN

	peers map[id.RouterID]PeerConfig

	ribIn  map[id.RouterID]*prefix.Map[bgproute.RIBEntry]
	rib    *prefix.Map[bgproute.RIBEntry]
	ribOut map[id.RouterID]*prefix.Map[bgproute.RIBEntry]

	// local holds routes this router originates itself (static routes
	// and externally-advertised prefixes), keyed like an extra "peer"
	// with RouterID equal to Self so the decision process treats it
	// uniformly.
	local *prefix.Map[bgproute.RIBEntry]

	igpCost IGPCostFunc
}

// NewRouter creates an empty BGP process for self in asn.
func NewRouter(self id.RouterID, asn id.ASN, igpCost IGPCostFunc) *Router {
	return &Router{
		Self:    self,
		ASN:     asn,
		peers:   make(map[id.RouterID]PeerConfig),
		ribIn:   make(map[id.RouterID]*prefix.Map[bgproute.RIBEntry]),
		rib:     prefix.NewMap[bgproute.RIBEntry](),
		ribOut:  make(map[id.RouterID]*prefix.Map[bgproute.RIBEntry]),
		local:   prefix.NewMap[bgproute.RIBEntry](),
		igpCost: igpCost,
	}
}

// SetPeer installs or replaces a peer session's configuration.
func (r *Router) SetPeer(cfg PeerConfig) {
	r.peers[cfg.Peer] = cfg
	if _, ok := r.ribIn[cfg.Peer]; !ok {
		r.ribIn[cfg.Peer] = prefix.NewMap[bgproute.RIBEntry]()
	}
	if _, ok := r.ribOut[cfg.Peer]; !ok {
		r.ribOut[cfg.Peer] = prefix.NewMap[bgproute.RIBEntry]()
	}
}

// RemovePeer tears down a session, withdrawing everything learned from
// it and re-running the decision process for every affected prefix.
func (r *Router) RemovePeer(peer id.RouterID) []event.Event {
	in, ok := r.ribIn[peer]
	if !ok {
		return nil
	}
	var out []event.Event
	for _, p := range in.Keys() {
		out = append(out, r.withdrawFromPeer(peer, p)...)
	}
	delete(r.peers, peer)
	delete(r.ribIn, peer)
	delete(r.ribOut, peer)
	return out
}

// SetRouteMapIn/SetRouteMapOut set a peer's import/export route-map.
func (r *Router) SetRouteMapIn(peer id.RouterID, l *routemap.List) {
	cfg := r.peers[peer]
	cfg.In = l
	r.peers[peer] = cfg
}

func (r *Router) SetRouteMapOut(peer id.RouterID, l *routemap.List) {
	cfg := r.peers[peer]
	cfg.Out = l
	r.peers[peer] = cfg
}

// Originate installs a locally-originated route (static route or
// externally-advertised prefix) and re-runs the decision process.
func (r *Router) Originate(p prefix.Prefix, route bgproute.Route) []event.Event {
	entry := bgproute.RIBEntry{Route: route, Session: bgproute.SessionEBGP, Peer: r.Self}
	r.local.Set(p, entry)
	return r.reconsider(p)
}

// Withdraw removes a locally-originated route.
func (r *Router) Withdraw(p prefix.Prefix) []event.Event {
	r.local.Delete(p)
	return r.reconsider(p)
}

// HandleUpdate processes an inbound BGP update from peer: applies the
// import route-map, stores it in RIB-in, and re-runs the decision
// process for the prefix.
func (r *Router) HandleUpdate(peer id.RouterID, p prefix.Prefix, entry bgproute.RIBEntry) []event.Event {
	cfg, ok := r.peers[peer]
	if !ok {
		return nil
	}
	entry.Session = cfg.Session
	entry.Peer = peer
	if cost, ok := r.igpCost(entry.Route.NextHop); ok {
		entry.IGPCost = bgproute.NewCost(cost)
	}
	if cfg.In != nil {
		transformed, survived := routemap.Evaluate(cfg.In, entry)
		if !survived {
			r.ribIn[peer].Delete(p)
			return r.reconsider(p)
		}
		entry = transformed
	}
	r.ribIn[peer].Set(p, entry)
	return r.reconsider(p)
}

// HandleWithdraw processes an inbound BGP withdrawal from peer.
func (r *Router) HandleWithdraw(peer id.RouterID, p prefix.Prefix) []event.Event {
	return r.withdrawFromPeer(peer, p)
}

func (r *Router) withdrawFromPeer(peer id.RouterID, p prefix.Prefix) []event.Event {
	if in, ok := r.ribIn[peer]; ok {
		in.Delete(p)
	}
	return r.reconsider(p)
}

// RefreshIGPCost re-evaluates every RIB-in entry's IGP cost (the OSPF ->
// BGP refresh rule) and re-runs the decision process for every affected
// prefix. Call this whenever the OSPF area table changes.
func (r *Router) RefreshIGPCost() []event.Event {
	var out []event.Event
	touched := prefix.NewSet()
	for _, in := range r.ribIn {
		for _, p := range in.Keys() {
			e, _ := in.Get(p)
			if cost, ok := r.igpCost(e.Route.NextHop); ok {
				e.IGPCost = bgproute.NewCost(cost)
			} else {
				// Next hop is no longer OSPF-reachable: invalidate the
				// stale cost so an iBGP-learned entry drops out of
				// eligibility in reconsider instead of keeping a cost
				// that no longer corresponds to a real path.
				e.IGPCost = bgproute.Cost{}
			}
			in.Set(p, e)
			touched.Add(p)
		}
	}
	for _, p := range touched.Items() {
		out = append(out, r.reconsider(p)...)
	}
	return out
}

// eligible gates a RIB-in entry before it may compete in the decision
// process (spec §4.1, invariant I2): an eBGP-learned entry is assumed
// directly reachable, but an iBGP-learned entry needs a finite
// OSPF-resolved IGP cost to its next hop, and any entry whose
// CLUSTER_LIST already contains this router is a reflection loop.
func (r *Router) eligible(e bgproute.RIBEntry) bool {
	if e.Route.HasCluster(r.Self) {
		return false
	}
	if e.Session.IsIBGP() && !e.IGPCost.Valid() {
		return false
	}
	return true
}

// reconsider re-runs the decision process for prefix p and, if the best
// path changed, emits the resulting advertisement/withdrawal events.
func (r *Router) reconsider(p prefix.Prefix) []event.Event {
	var candidates []bgproute.RIBEntry
	if e, ok := r.local.Get(p); ok {
		candidates = append(candidates, e)
	}
	for _, in := range r.ribIn {
		if e, ok := in.Get(p); ok && r.eligible(e) {
			candidates = append(candidates, e)
		}
	}

	var currentPtr *bgproute.RIBEntry
	if cur, ok := r.rib.Get(p); ok {
		currentPtr = &cur
	}

	newBest, ok := bgproute.Best(candidates, currentPtr)
	oldBest, hadOld := r.rib.Get(p)

	if !ok {
		if !hadOld {
			return nil
		}
		r.rib.Delete(p)
		return r.propagateWithdraw(p)
	}

	if hadOld && oldBest.Equal(newBest) {
		return nil
	}
	r.rib.Set(p, newBest)
	return r.propagateUpdate(p, newBest)
}

// propagateUpdate applies each peer's export policy and advertisement
// rules, skipping peers whose last-advertised copy is unchanged.
func (r *Router) propagateUpdate(p prefix.Prefix, best bgproute.RIBEntry) []event.Event {
	var out []event.Event
	for peer, cfg := range r.peers {
		if peer == best.Peer {
			// Split horizon: never advertise a route back to the peer
			// it was learned from.
			if _, had := r.ribOut[peer].Get(p); had {
				r.ribOut[peer].Delete(p)
				out = append(out, event.NewBGPWithdraw(r.Self, peer, p))
			}
			continue
		}
		if !r.advertisable(cfg, best) {
			if _, had := r.ribOut[peer].Get(p); had {
				r.ribOut[peer].Delete(p)
				out = append(out, event.NewBGPWithdraw(r.Self, peer, p))
			}
			continue
		}
		outbound := r.exportEntry(cfg, best)
		if cfg.Out != nil {
			transformed, survived := routemap.Evaluate(cfg.Out, outbound)
			if !survived {
				if _, had := r.ribOut[peer].Get(p); had {
					r.ribOut[peer].Delete(p)
					out = append(out, event.NewBGPWithdraw(r.Self, peer, p))
				}
				continue
			}
			outbound = transformed
		}
		if prev, had := r.ribOut[peer].Get(p); had && prev.Equal(outbound) {
			continue // suppress unchanged re-advertisement
		}
		r.ribOut[peer].Set(p, outbound)
		out = append(out, event.NewBGPUpdate(r.Self, peer, p, outbound))
	}
	return out
}

func (r *Router) propagateWithdraw(p prefix.Prefix) []event.Event {
	var out []event.Event
	for peer := range r.peers {
		if _, had := r.ribOut[peer].Get(p); had {
			r.ribOut[peer].Delete(p)
			out = append(out, event.NewBGPWithdraw(r.Self, peer, p))
		}
	}
	return out
}

// advertisable applies the split-horizon and well-known-community
// suppression rules of spec §4.1: a route learned over iBGP is never
// re-advertised to another iBGP peer unless this router is a route
// reflector for that peer (or the route was learned from a client);
// NO_ADVERTISE blocks every peer; NO_EXPORT and NO_EXPORT_SUBCONFED
// block eBGP peers.
func (r *Router) advertisable(cfg PeerConfig, best bgproute.RIBEntry) bool {
	if best.Route.HasCommunity(bgproute.Community{ASN: id.InternalASN, Value: bgproute.CommunityNoAdvertise}) {
		return false
	}
	if cfg.Session == bgproute.SessionEBGP {
		if best.Route.HasCommunity(bgproute.Community{ASN: id.InternalASN, Value: bgproute.CommunityNoExport}) ||
			best.Route.HasCommunity(bgproute.Community{ASN: id.InternalASN, Value: bgproute.CommunityNoExportSubConfed}) {
			return false
		}
		return true
	}
	// iBGP peer.
	if best.Session.IsIBGP() {
		// Learned over iBGP: a route from a client is reflected to every
		// iBGP peer except that client; a route from a non-client peer
		// is reflected only to clients.
		if best.Session == bgproute.SessionIBGPClient {
			return best.Peer != cfg.Peer
		}
		return cfg.Session == bgproute.SessionIBGPClient
	}
	return true
}

// exportEntry builds the outbound copy of best for cfg's peer: stripping
// non-public communities and AS-path prepending on eBGP export, next-hop
// handling, and reflection metadata
// (ORIGINATOR_ID/CLUSTER_LIST) when reflecting between iBGP peers.
func (r *Router) exportEntry(cfg PeerConfig, best bgproute.RIBEntry) bgproute.RIBEntry {
	route := best.Route

	if cfg.Session == bgproute.SessionEBGP {
		route = route.StripNonPublicCommunities()
		route = route.Prepend(r.ASN)
		route = route.WithNextHop(r.Self)
	} else if best.Session.IsIBGP() {
		// Reflecting between iBGP peers: stamp ORIGINATOR_ID (if not
		// already set) and append this router to CLUSTER_LIST.
		if route.OriginatorID == nil {
			route = route.WithOriginatorID(best.Peer)
		}
		route = route.WithClusterAppend(r.Self)
	} else {
		// Originated locally or learned over eBGP: next-hop-self for
		// iBGP peers (simplification — next-hop is always set to this
		// router rather than preserved, avoiding a separate
		// next-hop-unchanged policy knob).
		route = route.WithNextHop(r.Self)
	}

	return bgproute.RIBEntry{Route: route, Session: best.Session, Peer: best.Peer}
}

// RIB returns the current best-path table.
func (r *Router) RIB() *prefix.Map[bgproute.RIBEntry] { return r.rib }

// RIBIn returns the RIB-in table learned from peer.
func (r *Router) RIBIn(peer id.RouterID) (*prefix.Map[bgproute.RIBEntry], bool) {
	m, ok := r.ribIn[peer]
	return m, ok
}

// RIBOut returns the RIB-out table advertised to peer.
func (r *Router) RIBOut(peer id.RouterID) (*prefix.Map[bgproute.RIBEntry], bool) {
	m, ok := r.ribOut[peer]
	return m, ok
}

// Peers returns a copy of every configured peer session, keyed by peer
// router ID. Used by pkg/persist to serialize BGP session configuration.
func (r *Router) Peers() map[id.RouterID]PeerConfig {
	out := make(map[id.RouterID]PeerConfig, len(r.peers))
	for k, v := range r.peers {
		out[k] = v
	}
	return out
}

// Local returns the table of routes this router originates itself
// (static routes and externally-advertised prefixes). Used by
// pkg/persist to serialize external advertisements.
func (r *Router) Local() *prefix.Map[bgproute.RIBEntry] { return r.local }
