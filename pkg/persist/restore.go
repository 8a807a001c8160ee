package persist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/routesim/netsim/pkg/config"
	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/kernel"
	"github.com/routesim/netsim/pkg/ospf"
	"github.com/routesim/netsim/pkg/prefix"
	"github.com/routesim/netsim/pkg/routemap"
)

// idMap translates router IDs embedded in a persisted document into the
// fresh IDs allocated on import (spec §6 "Identifier stability").
type idMap map[uint32]id.RouterID

func (m idMap) lookup(old uint32) (id.RouterID, error) {
	nid, ok := m[old]
	if !ok {
		return 0, fmt.Errorf("persist: document references unknown router id %d", old)
	}
	return nid, nil
}

// remapRef translates a single "r<old-id>" token, leaving anything else
// (direction names, decimal orders) untouched.
func (m idMap) remapRef(tok string) string {
	if !strings.HasPrefix(tok, "r") {
		return tok
	}
	old, err := strconv.ParseUint(tok[1:], 10, 32)
	if err != nil {
		return tok
	}
	nid, ok := m[uint32(old)]
	if !ok {
		return tok
	}
	return nid.String()
}

// remapKey rewrites every router-ID token of a Subject.Key, which is
// built from fmt.Sprintf("%s|...", id.RouterID...) by the config
// package's Subject constructors.
func (m idMap) remapKey(key string) string {
	parts := strings.Split(key, "|")
	for i, p := range parts {
		parts[i] = m.remapRef(p)
	}
	return strings.Join(parts, "|")
}

func remapRouteMapItem(it routemap.Item, m idMap) (routemap.Item, error) {
	out := it
	out.Matches = make([]routemap.Match, len(it.Matches))
	for i, match := range it.Matches {
		if nh, ok := match.(routemap.NextHopEquals); ok {
			rid, err := m.lookup(uint32(nh.RouterID))
			if err != nil {
				return routemap.Item{}, err
			}
			out.Matches[i] = routemap.NextHopEquals{RouterID: rid}
			continue
		}
		out.Matches[i] = match
	}
	out.Sets = make([]routemap.SetAction, len(it.Sets))
	for i, set := range it.Sets {
		if sn, ok := set.(routemap.SetNextHop); ok {
			rid, err := m.lookup(uint32(sn.RouterID))
			if err != nil {
				return routemap.Item{}, err
			}
			out.Sets[i] = routemap.SetNextHop{RouterID: rid}
			continue
		}
		out.Sets[i] = set
	}
	return out, nil
}

// restoreTopology recreates every router and link from s, returning the
// live network and the old-id -> new-id mapping.
func restoreTopology(s *State) (*kernel.Network, idMap, error) {
	n := kernel.NewNetwork()
	n.StopAfter = s.StopAfter
	m := make(idMap, len(s.Routers))
	for _, rr := range s.Routers {
		kind, err := parseRouterKind(rr.Kind)
		if err != nil {
			return nil, nil, err
		}
		nid := n.AddRouter(kind, id.ASN(rr.ASN), rr.Name)
		m[rr.ID] = nid
	}
	for _, lr := range s.Links {
		a, err := m.lookup(lr.A)
		if err != nil {
			return nil, nil, err
		}
		b, err := m.lookup(lr.B)
		if err != nil {
			return nil, nil, err
		}
		if err := n.AddLink(a, b, lr.Weight, ospf.Area(lr.Area)); err != nil {
			return nil, nil, err
		}
	}
	for _, rr := range s.Routers {
		rid, err := m.lookup(rr.ID)
		if err != nil {
			return nil, nil, err
		}
		if err := n.SetLoadBalancing(rid, rr.LoadBalancing); err != nil {
			return nil, nil, err
		}
		for _, sr := range rr.StaticRoutes {
			p, err := parsePrefix(s.Universe, sr.Prefix)
			if err != nil {
				return nil, nil, err
			}
			nh, err := m.lookup(sr.NextHop)
			if err != nil {
				return nil, nil, err
			}
			if err := n.SetStaticRoute(rid, p, nh); err != nil {
				return nil, nil, err
			}
		}
	}
	return n, m, nil
}

// restoreConfig applies every config expression in s.Config to n, using m
// to translate document-local router IDs to n's freshly allocated ones.
// Route-map items are the one expression kind with no equivalent kernel
// setter and so are installed directly on the peer's BGP process.
func restoreConfig(n *kernel.Network, recs []ExprRecord, universe string, m idMap) (*config.Config, error) {
	exprs := make([]config.Expr, 0, len(recs))
	for _, rec := range recs {
		remapped := rec
		remapped.Key = m.remapKey(rec.Key)
		e, err := decodeExpr(remapped, universe)
		if err != nil {
			return nil, err
		}

		switch e.Subject.Kind {
		case config.LinkWeight:
			a, b, err := parsePairKey(remapped.Key)
			if err != nil {
				return nil, err
			}
			if err := n.SetLinkWeight(a, b, e.Value.Weight); err != nil {
				return nil, err
			}
		case config.AreaAssignment:
			a, b, err := parsePairKey(remapped.Key)
			if err != nil {
				return nil, err
			}
			if err := n.SetOSPFArea(a, b, e.Value.Area); err != nil {
				return nil, err
			}
		case config.BGPSession:
			a, b, err := parsePairKey(remapped.Key)
			if err != nil {
				return nil, err
			}
			if err := n.SetBGPSession(a, b, e.Value.SessionType); err != nil {
				return nil, err
			}
		case config.RouteMapItem:
			item, err := remapRouteMapItem(e.Value.RouteMapItem, m)
			if err != nil {
				return nil, err
			}
			e.Value.RouteMapItem = item
			if err := installRouteMapItem(n, remapped.Key, item); err != nil {
				return nil, err
			}
		case config.StaticRoute:
			router, p, err := parseStaticKey(remapped.Key, universe)
			if err != nil {
				return nil, err
			}
			nextHop, err := m.lookup(rec.Value.StaticNextHop)
			if err != nil {
				return nil, err
			}
			e.Value.StaticNextHop = nextHop
			if err := n.SetStaticRoute(router, p, nextHop); err != nil {
				return nil, err
			}
		case config.LoadBalancing:
			router, err := m.lookup(parseSingleRef(rec.Key))
			if err != nil {
				return nil, err
			}
			if err := n.SetLoadBalancing(router, e.Value.LBEnabled); err != nil {
				return nil, err
			}
		}

		exprs = append(exprs, e)
	}
	return config.FromExprs(exprs)
}

func parseSingleRef(s string) uint32 {
	v, _ := strconv.ParseUint(strings.TrimPrefix(s, "r"), 10, 32)
	return uint32(v)
}

func parsePairKey(key string) (id.RouterID, id.RouterID, error) {
	parts := strings.SplitN(key, "|", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("persist: malformed pair key %q", key)
	}
	a, err := strconv.ParseUint(strings.TrimPrefix(parts[0], "r"), 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("persist: malformed pair key %q: %w", key, err)
	}
	b, err := strconv.ParseUint(strings.TrimPrefix(parts[1], "r"), 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("persist: malformed pair key %q: %w", key, err)
	}
	return id.RouterID(a), id.RouterID(b), nil
}

func parseStaticKey(key, universe string) (id.RouterID, prefix.Prefix, error) {
	parts := strings.SplitN(key, "|", 2)
	if len(parts) != 2 {
		return 0, nil, fmt.Errorf("persist: malformed static-route key %q", key)
	}
	r, err := strconv.ParseUint(strings.TrimPrefix(parts[0], "r"), 10, 32)
	if err != nil {
		return 0, nil, fmt.Errorf("persist: malformed static-route key %q: %w", key, err)
	}
	p, err := parsePrefix(universe, parts[1])
	if err != nil {
		return 0, nil, err
	}
	return id.RouterID(r), p, nil
}

// installRouteMapItem inserts item on the correct side (In/Out) of the
// (router, peer) session named by key, already remapped to fresh IDs.
func installRouteMapItem(n *kernel.Network, key string, item routemap.Item) error {
	parts := strings.SplitN(key, "|", 4)
	if len(parts) != 4 {
		return fmt.Errorf("persist: malformed route-map-item key %q", key)
	}
	routerID, err := parseRouterRefStrict(parts[0])
	if err != nil {
		return err
	}
	peerID, err := parseRouterRefStrict(parts[1])
	if err != nil {
		return err
	}
	r, err := n.Router(routerID)
	if err != nil {
		return err
	}
	peers := r.BGP.Peers()
	pc, ok := peers[peerID]
	if !ok {
		return fmt.Errorf("persist: route-map item for unconfigured session %s->%s", routerID, peerID)
	}
	var list *routemap.List
	switch parts[2] {
	case "out":
		if pc.Out == nil {
			pc.Out = routemap.NewList()
		}
		list = pc.Out
	default:
		if pc.In == nil {
			pc.In = routemap.NewList()
		}
		list = pc.In
	}
	list.Insert(item)
	r.BGP.SetPeer(pc)
	return nil
}

func parseRouterRefStrict(tok string) (id.RouterID, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(tok, "r"), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("persist: malformed router ref %q: %w", tok, err)
	}
	return id.RouterID(v), nil
}

// Restore reconstructs a *kernel.Network and its declarative *config.Config
// from a persisted-state document. For the full variant, pending queue
// events are re-enqueued directly; for the compact variant, the network is
// instead re-simulated to reconstruct derived tables (spec §6).
func Restore(s *State) (*kernel.Network, *config.Config, error) {
	universe := s.Universe
	if universe == "" {
		universe = "ipv4"
	}
	n, m, err := restoreTopology(s)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := restoreConfig(n, s.Config, universe, m)
	if err != nil {
		return nil, nil, err
	}
	for _, er := range s.ExternalRoutes {
		rid, err := m.lookup(er.Router)
		if err != nil {
			return nil, nil, err
		}
		route, err := decodeRoute(er.Route, universe)
		if err != nil {
			return nil, nil, err
		}
		route.NextHop = rid
		if err := n.AdvertiseExternalRoute(rid, route.Prefix, route); err != nil {
			return nil, nil, err
		}
	}

	if s.Compact {
		if err := n.Simulate(); err != nil {
			return nil, nil, err
		}
		return n, cfg, nil
	}

	for _, rec := range s.Queue {
		e, err := decodeEvent(rec, universe)
		if err != nil {
			return nil, nil, err
		}
		src, err := m.lookup(uint32(e.Src))
		if err != nil {
			return nil, nil, err
		}
		dst, err := m.lookup(uint32(e.Dst))
		if err != nil {
			return nil, nil, err
		}
		e.Src, e.Dst = src, dst
		if e.Timeout != nil && e.Timeout.HasPeer {
			peer, err := m.lookup(uint32(e.Timeout.Peer))
			if err != nil {
				return nil, nil, err
			}
			e.Timeout.Peer = peer
		}
		n.Enqueue(e)
	}
	return n, cfg, nil
}
