// Package format implements spec §9's "polymorphic display given a
// network context" interface: every core entity is wrapped in a small
// View type that knows how to render itself using the owning
// *kernel.Network (to turn router IDs into names, walk forwarding
// entries, etc). Grounded on teacher's pkg/cli/format.go/table.go
// (color/table rendering primitives, carried into pkg/cli directly) —
// this package supplies the per-entity Format() that pkg/cli's table
// renderer consumes, which the teacher's flat string-building CLI
// commands never needed because they formatted SONiC config fields
// directly rather than domain objects requiring network context.
package format

import (
	"fmt"
	"sort"
	"strings"

	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/forwarding"
	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/kernel"
	"github.com/routesim/netsim/pkg/ospf"
	"github.com/routesim/netsim/pkg/routemap"
)

// Formatter is implemented by every View type in this package.
type Formatter interface {
	Format(n *kernel.Network) string
}

func name(n *kernel.Network, r id.RouterID) string {
	if n == nil {
		return r.String()
	}
	return n.Name(r)
}

// RouteView formats a bgproute.Route.
type RouteView struct{ Route bgproute.Route }

func (v RouteView) Format(n *kernel.Network) string {
	r := v.Route
	asPath := make([]string, len(r.ASPath))
	for i, a := range r.ASPath {
		asPath[i] = a.String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s via %s", r.Prefix, name(n, r.NextHop))
	if len(asPath) > 0 {
		fmt.Fprintf(&b, " as-path=[%s]", strings.Join(asPath, " "))
	}
	fmt.Fprintf(&b, " local-pref=%d med=%d", r.LocalPrefOrDefault(), r.MEDOrDefault())
	if len(r.Communities) > 0 {
		cs := make([]string, len(r.Communities))
		for i, c := range r.Communities {
			cs[i] = c.String()
		}
		fmt.Fprintf(&b, " communities=[%s]", strings.Join(cs, " "))
	}
	if r.OriginatorID != nil {
		fmt.Fprintf(&b, " originator=%s", name(n, *r.OriginatorID))
	}
	if len(r.ClusterList) > 0 {
		cl := make([]string, len(r.ClusterList))
		for i, c := range r.ClusterList {
			cl[i] = name(n, c)
		}
		fmt.Fprintf(&b, " cluster-list=[%s]", strings.Join(cl, " "))
	}
	return b.String()
}

// RIBEntryView formats a bgproute.RIBEntry.
type RIBEntryView struct{ Entry bgproute.RIBEntry }

func (v RIBEntryView) Format(n *kernel.Network) string {
	e := v.Entry
	s := fmt.Sprintf("%s [%s from %s weight=%d]", RouteView{Route: e.Route}.Format(n), e.Session, name(n, e.Peer), e.WeightOrDefault())
	if e.IGPCost.Valid() {
		s += fmt.Sprintf(" igp-cost=%g", e.IGPCost.Value())
	}
	if e.AdvertTarget != nil {
		s += fmt.Sprintf(" advertised-to=%s", name(n, *e.AdvertTarget))
	}
	return s
}

// RouteMapListView formats a routemap.List.
type RouteMapListView struct{ List *routemap.List }

func (v RouteMapListView) Format(n *kernel.Network) string {
	if v.List == nil {
		return "<no route-map>"
	}
	items := v.List.Items()
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = formatRouteMapItem(it)
	}
	return strings.Join(lines, "\n")
}

func formatRouteMapItem(it routemap.Item) string {
	state := "allow"
	if it.State == routemap.Deny {
		state = "deny"
	}
	flow := "exit"
	switch it.Flow.Kind {
	case routemap.Continue:
		flow = "continue"
	case routemap.ContinueAt:
		flow = fmt.Sprintf("continue-at(%d)", it.Flow.At)
	}
	return fmt.Sprintf("%5d %-5s match=%d set=%d flow=%s", it.Order, state, len(it.Matches), len(it.Sets), flow)
}

// LSAView formats an ospf.LSA.
type LSAView struct{ LSA ospf.LSA }

func (v LSAView) Format(n *kernel.Network) string {
	age := "fresh"
	if v.LSA.Age == ospf.MaxAgeFlag {
		age = "max-age"
	}
	k := v.LSA.Key
	subject := fmt.Sprintf("%s(%s)", k.Type, name(n, k.Originator))
	if k.HasTarget {
		subject = fmt.Sprintf("%s(%s->%s)", k.Type, name(n, k.Originator), name(n, k.Target))
	}
	return fmt.Sprintf("%s seq=%d age=%s", subject, v.LSA.SeqNo, age)
}

// AreaTableView formats one router's SPF table for a single OSPF area.
type AreaTableView struct {
	Area  ospf.Area
	Table map[id.RouterID]ospf.SPFEntry
}

func (v AreaTableView) Format(n *kernel.Network) string {
	dests := make([]id.RouterID, 0, len(v.Table))
	for d := range v.Table {
		dests = append(dests, d)
	}
	sort.Slice(dests, func(i, j int) bool { return dests[i] < dests[j] })

	lines := make([]string, 0, len(dests)+1)
	lines = append(lines, fmt.Sprintf("%s:", v.Area))
	for _, d := range dests {
		e := v.Table[d]
		hops := make([]string, len(e.NextHops))
		for i, h := range e.NextHops {
			hops[i] = name(n, h)
		}
		lines = append(lines, fmt.Sprintf("  %-12s cost=%-6g next-hops=[%s]", name(n, d), e.Cost, strings.Join(hops, " ")))
	}
	return strings.Join(lines, "\n")
}

// ForwardingEntryView formats one router's forwarding.Entry for one
// prefix.
type ForwardingEntryView struct {
	Entry forwarding.Entry
}

func (v ForwardingEntryView) Format(n *kernel.Network) string {
	if v.Entry.Empty() {
		return "<black hole>"
	}
	hops := make([]string, len(v.Entry.NextHops))
	for i, h := range v.Entry.NextHops {
		if h.ToDestination {
			hops[i] = "to-destination"
		} else {
			hops[i] = name(n, h.Router)
		}
	}
	return strings.Join(hops, ", ")
}

// ForwardingPathView formats one forwarding.Path.
type ForwardingPathView struct {
	Path forwarding.Path
}

func (v ForwardingPathView) Format(n *kernel.Network) string {
	hops := make([]string, len(v.Path.Routers))
	for i, r := range v.Path.Routers {
		hops[i] = name(n, r)
	}
	return strings.Join(hops, " -> ")
}
