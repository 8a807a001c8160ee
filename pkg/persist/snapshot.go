package persist

import (
	"fmt"

	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/config"
	"github.com/routesim/netsim/pkg/kernel"
	"github.com/routesim/netsim/pkg/prefix"
	"github.com/routesim/netsim/pkg/router"
)

func routerKindString(k router.Kind) string {
	if k == router.External {
		return "external"
	}
	return "internal"
}

func parseRouterKind(s string) (router.Kind, error) {
	switch s {
	case "internal", "":
		return router.Internal, nil
	case "external":
		return router.External, nil
	default:
		return 0, fmt.Errorf("persist: unknown router kind %q", s)
	}
}

// snapshotRouters builds the "routers" and "external_routes" records for
// every router in n, under the given prefix universe.
func snapshotRouters(n *kernel.Network, universe string) ([]RouterRecord, []ExternalRouteRecord, error) {
	var routers []RouterRecord
	var externals []ExternalRouteRecord
	for _, rid := range n.Routers() {
		r, err := n.Router(rid)
		if err != nil {
			return nil, nil, err
		}
		rec := RouterRecord{
			ID:            uint32(rid),
			Name:          n.Name(rid),
			ASN:           uint32(r.ASN),
			Kind:          routerKindString(r.Kind),
			LoadBalancing: r.LoadBalancing,
		}
		for _, p := range r.StaticRoutes() {
			nh, _ := r.StaticRoute(p)
			rec.StaticRoutes = append(rec.StaticRoutes, StaticRouteRecord{
				Prefix:  formatPrefix(p),
				NextHop: uint32(nh),
			})
		}
		routers = append(routers, rec)

		r.BGP.Local().Range(func(p prefix.Prefix, e bgproute.RIBEntry) bool {
			externals = append(externals, ExternalRouteRecord{
				Router: uint32(rid),
				Route:  encodeRoute(e.Route, universe),
			})
			return true
		})
	}
	return routers, externals, nil
}

// snapshotLinks builds the "links" records for every topology edge in n.
func snapshotLinks(n *kernel.Network) []LinkRecord {
	var out []LinkRecord
	for _, l := range n.Links() {
		out = append(out, LinkRecord{A: uint32(l.A), B: uint32(l.B), Weight: l.Weight, Area: uint32(l.Area)})
	}
	return out
}

// snapshotQueue builds the "queue" records for every event still pending
// in n, without draining it (spec §6 "queue" key via the non-destructive
// Network.PendingEvents accessor).
func snapshotQueue(n *kernel.Network, universe string) ([]EventRecord, error) {
	pending := n.PendingEvents()
	out := make([]EventRecord, 0, len(pending))
	for _, e := range pending {
		rec, err := encodeEvent(e, universe)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Snapshot builds the full persisted-state document for n: every
// top-level key, including "queue" (spec §6 "Persisted state").
func Snapshot(n *kernel.Network, cfg *config.Config, universe string) (*State, error) {
	if universe == "" {
		universe = "ipv4"
	}
	routers, externals, err := snapshotRouters(n, universe)
	if err != nil {
		return nil, err
	}
	exprs, err := encodeConfig(cfg, universe)
	if err != nil {
		return nil, err
	}
	queue, err := snapshotQueue(n, universe)
	if err != nil {
		return nil, err
	}
	return &State{
		Universe:       universe,
		Routers:        routers,
		Links:          snapshotLinks(n),
		Config:         exprs,
		ExternalRoutes: externals,
		Queue:          queue,
		StopAfter:      n.StopAfter,
	}, nil
}

// Compact builds the "compact" variant: identical to Snapshot except the
// derived queue is omitted, to be reconstructed on load by replaying
// Config and ExternalRoutes through simulate() (spec §6).
func Compact(n *kernel.Network, cfg *config.Config, universe string) (*State, error) {
	s, err := Snapshot(n, cfg, universe)
	if err != nil {
		return nil, err
	}
	s.Queue = nil
	s.Compact = true
	return s, nil
}
