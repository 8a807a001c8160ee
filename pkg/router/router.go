// Package router implements the router aggregate (spec §3 "Router",
// component H): a single device that is either Internal (runs both BGP
// and OSPF) or External (runs only BGP, towards the internal network's
// border routers), owning static routes and the load-balancing flag,
// and dispatching inbound events to the right protocol subsystem.
package router

import (
	"sort"

	"github.com/routesim/netsim/pkg/bgp"
	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/event"
	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/ospf"
	"github.com/routesim/netsim/pkg/ospf/local"
	"github.com/routesim/netsim/pkg/prefix"
	"github.com/routesim/netsim/pkg/simerr"
)

// Kind distinguishes an internal (AS-member) router from an external
// (outside-the-AS) router, per spec §3.
type Kind int

const (
	Internal Kind = iota
	External
)

func (k Kind) String() string {
	if k == External {
		return "external"
	}
	return "internal"
}

// Router is one network device.
type Router struct {
	ID   id.RouterID
	Kind Kind
	ASN  id.ASN

	BGP *bgp.Router

	// areas is nil for an External router (no OSPF). Internal routers
	// own one local.Coordinator per area they participate in, under the
	// distributed OSPF mode; when the network runs in global/oracle
	// mode the kernel owns the tables directly instead and this map
	// stays empty (see pkg/kernel).
	areas map[ospf.Area]*local.Coordinator
	// neighborArea maps an OSPF neighbor router to the area the
	// adjacency belongs to, so inbound OSPF events can be routed to the
	// right Coordinator.
	neighborArea map[id.RouterID]ospf.Area

	// static holds administrator-configured next-hop overrides, keyed
	// by destination prefix (spec §5 "static route").
	static *prefix.Map[id.RouterID]

	LoadBalancing bool
}

// NewInternal creates an Internal router with an empty BGP process and
// no OSPF areas yet (added via AddOSPFLink).
func NewInternal(self id.RouterID, asn id.ASN) *Router {
	r := &Router{
		ID:           self,
		Kind:         Internal,
		ASN:          asn,
		areas:        make(map[ospf.Area]*local.Coordinator),
		neighborArea: make(map[id.RouterID]ospf.Area),
		static:       prefix.NewMap[id.RouterID](),
	}
	r.BGP = bgp.NewRouter(self, asn, r.igpCostTo)
	return r
}

// NewExternal creates an External router: BGP only, no OSPF.
func NewExternal(self id.RouterID, asn id.ASN) *Router {
	r := &Router{
		ID:     self,
		Kind:   External,
		ASN:    asn,
		static: prefix.NewMap[id.RouterID](),
	}
	r.BGP = bgp.NewRouter(self, asn, func(id.RouterID) (float64, bool) { return 0, false })
	return r
}

// AddOSPFLink establishes an intra-area OSPF adjacency to peer in area
// (Internal routers only).
func (r *Router) AddOSPFLink(peer id.RouterID, area ospf.Area, weight float64) ([]event.Event, error) {
	if r.Kind == External {
		return nil, &simerr.DeviceIsExternalRouterError{ID: r.ID}
	}
	c, ok := r.areas[area]
	if !ok {
		c = local.NewCoordinator(r.ID, area)
		r.areas[area] = c
	}
	r.neighborArea[peer] = area
	events := c.AddLink(peer, weight)
	return events, nil
}

// RemoveOSPFLink tears down an adjacency.
func (r *Router) RemoveOSPFLink(peer id.RouterID) []event.Event {
	area, ok := r.neighborArea[peer]
	if !ok {
		return nil
	}
	delete(r.neighborArea, peer)
	return r.areas[area].RemoveLink(peer)
}

// HandleEvent dispatches an inbound event to the owning subsystem (BGP
// or the OSPF area coordinator for the sending neighbor) and, if the
// event was OSPF and changed this router's area table, re-runs the
// BGP IGP-cost refresh, per spec's OSPF -> BGP coupling rule.
func (r *Router) HandleEvent(e event.Event) []event.Event {
	switch e.Kind {
	case event.KindBGPUpdate:
		return r.BGP.HandleUpdate(e.Src, e.BGPUpdate.Prefix, e.BGPUpdate.Entry)
	case event.KindBGPWithdraw:
		return r.BGP.HandleWithdraw(e.Src, e.BGPWithdraw.Prefix)
	case event.KindTimeout:
		if e.Timeout == nil || !e.Timeout.HasPeer {
			return nil
		}
		area, ok := r.neighborArea[e.Timeout.Peer]
		if !ok {
			return nil
		}
		return r.dispatchOSPF(area, e)
	default:
		area, ok := r.neighborArea[e.Src]
		if !ok {
			return nil
		}
		return r.dispatchOSPF(area, e)
	}
}

// dispatchOSPF hands e to the coordinator owning area and, if the
// resulting area table changed, re-runs the BGP IGP-cost refresh.
func (r *Router) dispatchOSPF(area ospf.Area, e event.Event) []event.Event {
	c := r.areas[area]
	before := c.Table()
	out := c.HandleEvent(e)
	if !tablesEqual(before, c.Table()) {
		out = append(out, r.BGP.RefreshIGPCost()...)
	}
	return out
}

func tablesEqual(a, b map[id.RouterID]ospf.SPFEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || va.Cost != vb.Cost || len(va.NextHops) != len(vb.NextHops) {
			return false
		}
		for i := range va.NextHops {
			if va.NextHops[i] != vb.NextHops[i] {
				return false
			}
		}
	}
	return true
}

// igpCostTo resolves the cheapest OSPF-area cost from this router to
// dst, across every area it participates in.
func (r *Router) igpCostTo(dst id.RouterID) (float64, bool) {
	best := 0.0
	found := false
	for _, c := range r.areas {
		if e, ok := c.Table()[dst]; ok {
			if !found || e.Cost < best {
				best, found = e.Cost, true
			}
		}
	}
	return best, found
}

// SetStaticRoute installs an administrator static route, overriding BGP
// next-hop resolution for p (spec §5).
func (r *Router) SetStaticRoute(p prefix.Prefix, nextHop id.RouterID) { r.static.Set(p, nextHop) }

// RemoveStaticRoute deletes a static route.
func (r *Router) RemoveStaticRoute(p prefix.Prefix) bool { return r.static.Delete(p) }

// StaticRoute returns the static next-hop override for p, if any.
func (r *Router) StaticRoute(p prefix.Prefix) (id.RouterID, bool) { return r.static.Get(p) }

// StaticRoutes returns every prefix with a static override, in ascending
// order (used by the forwarding-state builder to enumerate entries that
// a BGP-only walk of the RIB would miss).
func (r *Router) StaticRoutes() []prefix.Prefix { return r.static.Keys() }

// IGPNextHops returns the best-cost set of direct-neighbor router IDs
// along the shortest path(s) towards dst, across every OSPF area this
// router participates in (spec §4.8: "the selected BGP route's next-hop
// resolved through OSPF to a set of direct-neighbor router IDs"). Ties
// across areas are unioned, matching the single-area ECMP tie-break.
func (r *Router) IGPNextHops(dst id.RouterID) ([]id.RouterID, bool) {
	var best float64
	var hops []id.RouterID
	found := false
	for _, c := range r.areas {
		e, ok := c.Table()[dst]
		if !ok {
			continue
		}
		switch {
		case !found || e.Cost < best:
			best, hops, found = e.Cost, append([]id.RouterID(nil), e.NextHops...), true
		case e.Cost == best:
			hops = unionRouterIDs(hops, e.NextHops)
		}
	}
	return hops, found
}

func unionRouterIDs(a, b []id.RouterID) []id.RouterID {
	seen := make(map[id.RouterID]bool, len(a))
	out := append([]id.RouterID(nil), a...)
	for _, h := range a {
		seen[h] = true
	}
	for _, h := range b {
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// OSPFAreas returns the set of areas this router participates in, sorted.
func (r *Router) OSPFAreas() []ospf.Area {
	out := make([]ospf.Area, 0, len(r.areas))
	for a := range r.areas {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// OSPFArea returns the coordinator for area, if this router participates
// in it.
func (r *Router) OSPFArea(area ospf.Area) (*local.Coordinator, bool) {
	c, ok := r.areas[area]
	return c, ok
}

// AdvertiseExternalRoute originates a BGP route from this router towards
// its configured peers (used both for External routers advertising into
// the internal AS, and for internal static/local origination).
func (r *Router) AdvertiseExternalRoute(p prefix.Prefix, route bgproute.Route) []event.Event {
	return r.BGP.Originate(p, route)
}

// RetractExternalRoute withdraws a previously-advertised external route.
func (r *Router) RetractExternalRoute(p prefix.Prefix) []event.Event {
	return r.BGP.Withdraw(p)
}
