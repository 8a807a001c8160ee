// Package forwarding derives the per-router forwarding state from
// converged BGP/OSPF state (spec §3 "Forwarding state", §4.8, component
// K): static-route override, otherwise the selected BGP route's next-hop
// resolved through OSPF (or a direct link, for a neighbor not carried in
// any area) to a set of direct-neighbor router IDs, plus lazy per-source
// path enumeration with forwarding-loop and black-hole detection.
package forwarding

import (
	"fmt"
	"sort"

	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/kernel"
	"github.com/routesim/netsim/pkg/prefix"
	"github.com/routesim/netsim/pkg/router"
	"github.com/routesim/netsim/pkg/simerr"
)

// NextHop is one entry of a forwarding decision: either a direct-neighbor
// router to forward through, or the "to-destination" sentinel denoting
// local origination / external delivery at this router.
type NextHop struct {
	ToDestination bool
	Router        id.RouterID
}

func (h NextHop) String() string {
	if h.ToDestination {
		return "to-destination"
	}
	return h.Router.String()
}

// Entry is one router's forwarding decision for one prefix: an ordered
// list of next hops (more than one only under load balancing).
type Entry struct {
	NextHops []NextHop
}

// Empty reports whether this prefix has no usable next hop at all (not
// present in the router's BGP RIB and no static override).
func (e Entry) Empty() bool { return len(e.NextHops) == 0 }

// Table is a snapshot of every router's forwarding state, derived once
// from converged state and never mutated in place (spec §4.7: "a
// derived, externally-owned snapshot that may be rebuilt at any time").
type Table struct {
	byRouter map[id.RouterID]*prefix.Map[Entry]
	direct   map[id.RouterID]map[id.RouterID]bool

	// reverse[r][p] is the set of predecessor routers whose forwarding
	// entry for p names r as a next hop (spec §3's reverse index).
	reverse map[id.RouterID]map[string]map[id.RouterID]bool

	pathCache map[pathKey][]Path
}

type pathKey struct {
	src id.RouterID
	p   string
}

// Build derives the forwarding state of every router in n from its
// currently-converged BGP/OSPF state.
func Build(n *kernel.Network) (*Table, error) {
	t := &Table{
		byRouter:  make(map[id.RouterID]*prefix.Map[Entry]),
		direct:    make(map[id.RouterID]map[id.RouterID]bool),
		reverse:   make(map[id.RouterID]map[string]map[id.RouterID]bool),
		pathCache: make(map[pathKey][]Path),
	}
	for _, l := range n.Links() {
		t.link(l.A, l.B)
	}
	for _, rid := range n.Routers() {
		r, err := n.Router(rid)
		if err != nil {
			return nil, err
		}
		entries, err := t.buildRouter(r)
		if err != nil {
			return nil, err
		}
		t.byRouter[rid] = entries
	}
	t.buildReverse()
	return t, nil
}

func (t *Table) link(a, b id.RouterID) {
	if t.direct[a] == nil {
		t.direct[a] = make(map[id.RouterID]bool)
	}
	if t.direct[b] == nil {
		t.direct[b] = make(map[id.RouterID]bool)
	}
	t.direct[a][b] = true
	t.direct[b][a] = true
}

func (t *Table) buildRouter(r *router.Router) (*prefix.Map[Entry], error) {
	out := prefix.NewMap[Entry]()
	prefixes := make(map[string]prefix.Prefix)

	for _, p := range r.StaticRoutes() {
		prefixes[p.String()] = p
	}
	rib := r.BGP.RIB()
	for _, p := range rib.Keys() {
		prefixes[p.String()] = p
	}

	sorted := make([]prefix.Prefix, 0, len(prefixes))
	for _, p := range prefixes {
		sorted = append(sorted, p)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	for _, p := range sorted {
		out.Set(p, t.resolve(r, p))
	}
	return out, nil
}

// resolve computes one prefix's forwarding entry at r, per spec §4.8:
// static override first, otherwise the selected BGP route's next-hop
// resolved through OSPF (falling back to a direct link, for an eBGP
// neighbor or intra-area peer not carried by any area's SPF table) to a
// set of direct-neighbor router IDs. Locally originated routes, and a
// next-hop equal to r itself, map to the "to-destination" sentinel.
func (t *Table) resolve(r *router.Router, p prefix.Prefix) Entry {
	if nh, ok := r.StaticRoute(p); ok {
		return t.resolveNextHop(r, nh)
	}

	entry, ok := r.BGP.RIB().Get(p)
	if !ok {
		return Entry{}
	}
	if r.Kind == router.External {
		// External routers deliver every prefix they carry directly.
		return Entry{NextHops: []NextHop{{ToDestination: true}}}
	}
	return t.resolveNextHop(r, entry.Route.NextHop)
}

func (t *Table) resolveNextHop(r *router.Router, nextHop id.RouterID) Entry {
	if nextHop == r.ID {
		return Entry{NextHops: []NextHop{{ToDestination: true}}}
	}
	hops, ok := r.IGPNextHops(nextHop)
	if !ok || len(hops) == 0 {
		if t.direct[r.ID][nextHop] {
			return Entry{NextHops: []NextHop{{Router: nextHop}}}
		}
		return Entry{}
	}
	if !r.LoadBalancing {
		min := hops[0]
		for _, h := range hops[1:] {
			if h < min {
				min = h
			}
		}
		return Entry{NextHops: []NextHop{{Router: min}}}
	}
	out := make([]NextHop, len(hops))
	for i, h := range hops {
		out[i] = NextHop{Router: h}
	}
	return Entry{NextHops: out}
}

// buildReverse populates the (router, prefix) -> predecessor-set index
// from the forward entries already computed.
func (t *Table) buildReverse() {
	for src, entries := range t.byRouter {
		entries.Range(func(p prefix.Prefix, e Entry) bool {
			key := p.String()
			for _, h := range e.NextHops {
				if h.ToDestination {
					continue
				}
				if t.reverse[h.Router] == nil {
					t.reverse[h.Router] = make(map[string]map[id.RouterID]bool)
				}
				if t.reverse[h.Router][key] == nil {
					t.reverse[h.Router][key] = make(map[id.RouterID]bool)
				}
				t.reverse[h.Router][key][src] = true
			}
			return true
		})
	}
}

// Entry returns router r's forwarding decision for p.
func (t *Table) Entry(r id.RouterID, p prefix.Prefix) (Entry, bool) {
	m, ok := t.byRouter[r]
	if !ok {
		return Entry{}, false
	}
	return m.Get(p)
}

// Predecessors returns the routers whose forwarding entry for p names r
// as a next hop (spec §3's reverse index).
func (t *Table) Predecessors(r id.RouterID, p prefix.Prefix) []id.RouterID {
	byPrefix, ok := t.reverse[r]
	if !ok {
		return nil
	}
	set, ok := byPrefix[p.String()]
	if !ok {
		return nil
	}
	out := make([]id.RouterID, 0, len(set))
	for rid := range set {
		out = append(out, rid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Path is one router-level path discovered by GetPaths: the sequence of
// routers visited, ending either at a router with a "to-destination"
// entry (a delivered path) or reported as a loop/black-hole error.
type Path struct {
	Routers []id.RouterID
}

// GetPaths enumerates every router-level path from src towards prefix p,
// following each router's forwarding entry (branching under load
// balancing), detecting a forwarding loop (a router recurring on a path)
// or a forwarding black hole (an empty next-hop set reached before
// delivery) — both reported as distinct error kinds rather than panics,
// per spec §4.8. Results are memoized per (src, prefix).
func (t *Table) GetPaths(src id.RouterID, p prefix.Prefix) ([]Path, error) {
	key := pathKey{src: src, p: p.String()}
	if cached, ok := t.pathCache[key]; ok {
		return cached, nil
	}
	paths, err := t.walk(src, p, []id.RouterID{src}, make(map[id.RouterID]bool, 4))
	if err != nil {
		return nil, err
	}
	t.pathCache[key] = paths
	return paths, nil
}

func (t *Table) walk(cur id.RouterID, p prefix.Prefix, soFar []id.RouterID, visited map[id.RouterID]bool) ([]Path, error) {
	visited[cur] = true

	entry, ok := t.Entry(cur, p)
	if !ok || entry.Empty() {
		return nil, &simerr.ForwardingBlackHoleError{Path: toStringers(soFar)}
	}

	var out []Path
	for _, h := range entry.NextHops {
		if h.ToDestination {
			out = append(out, Path{Routers: append([]id.RouterID(nil), soFar...)})
			continue
		}
		if visited[h.Router] {
			return nil, &simerr.ForwardingLoopError{ToLoop: cur, FirstLoop: h.Router}
		}
		nextVisited := make(map[id.RouterID]bool, len(visited)+1)
		for k := range visited {
			nextVisited[k] = true
		}
		nextPath := make([]id.RouterID, len(soFar)+1)
		copy(nextPath, soFar)
		nextPath[len(soFar)] = h.Router
		sub, err := t.walk(h.Router, p, nextPath, nextVisited)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

func toStringers(rs []id.RouterID) []fmt.Stringer {
	out := make([]fmt.Stringer, len(rs))
	for i, r := range rs {
		out[i] = r
	}
	return out
}
