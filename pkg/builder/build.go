package builder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/kernel"
	"github.com/routesim/netsim/pkg/ospf"
	"github.com/routesim/netsim/pkg/prefix"
	"github.com/routesim/netsim/pkg/router"
	"github.com/routesim/netsim/pkg/util"
)

// Build constructs a *kernel.Network from a parsed Topology, issuing
// the same sequence of operations an operator driving the CLI by hand
// would: create routers, then links, then sessions, then
// advertisements and static routes, per spec §6.
func Build(topo *Topology) (*kernel.Network, error) {
	n := kernel.NewNetwork()
	byName := make(map[string]id.RouterID)

	for spec, def := range topo.Routers {
		names, err := expandRouterNames(spec)
		if err != nil {
			return nil, fmt.Errorf("router %q: %w", spec, err)
		}
		kind := router.Internal
		if def.Kind == "external" {
			kind = router.External
		}
		for _, name := range names {
			if _, exists := byName[name]; exists {
				return nil, fmt.Errorf("router %q declared more than once", name)
			}
			byName[name] = n.AddRouter(kind, id.ASN(def.ASN), name)
		}
	}

	for i, l := range topo.Links {
		a, err := resolve(byName, l.A)
		if err != nil {
			return nil, fmt.Errorf("link %d: %w", i, err)
		}
		b, err := resolve(byName, l.B)
		if err != nil {
			return nil, fmt.Errorf("link %d: %w", i, err)
		}
		weight := l.Weight
		if weight == 0 {
			weight = topo.Defaults.LinkWeight
		}
		area := ospf.Area(topo.Defaults.Area)
		if l.Area != nil {
			area = ospf.Area(*l.Area)
		}
		if err := n.AddLink(a, b, weight, area); err != nil {
			return nil, fmt.Errorf("link %d (%s-%s): %w", i, l.A, l.B, err)
		}
	}

	for i, s := range topo.Sessions {
		a, err := resolve(byName, s.A)
		if err != nil {
			return nil, fmt.Errorf("session %d: %w", i, err)
		}
		b, err := resolve(byName, s.B)
		if err != nil {
			return nil, fmt.Errorf("session %d: %w", i, err)
		}
		typ, err := sessionType(n, a, b, s.Type)
		if err != nil {
			return nil, fmt.Errorf("session %d: %w", i, err)
		}
		if err := n.SetBGPSession(a, b, typ); err != nil {
			return nil, fmt.Errorf("session %d (%s-%s): %w", i, s.A, s.B, err)
		}
	}

	parsePrefix := prefixParser(topo.Universe)
	for i, a := range topo.Adverts {
		rid, err := resolve(byName, a.Router)
		if err != nil {
			return nil, fmt.Errorf("advertisement %d: %w", i, err)
		}
		p, err := parsePrefix(a.Prefix)
		if err != nil {
			return nil, fmt.Errorf("advertisement %d: %w", i, err)
		}
		route, err := buildAdvertisedRoute(a, rid, p)
		if err != nil {
			return nil, fmt.Errorf("advertisement %d: %w", i, err)
		}
		if err := n.AdvertiseExternalRoute(rid, p, route); err != nil {
			return nil, fmt.Errorf("advertisement %d: %w", i, err)
		}
	}

	for i, s := range topo.Statics {
		rid, err := resolve(byName, s.Router)
		if err != nil {
			return nil, fmt.Errorf("static_route %d: %w", i, err)
		}
		nh, err := resolve(byName, s.NextHop)
		if err != nil {
			return nil, fmt.Errorf("static_route %d: %w", i, err)
		}
		p, err := parsePrefix(s.Prefix)
		if err != nil {
			return nil, fmt.Errorf("static_route %d: %w", i, err)
		}
		if err := n.SetStaticRoute(rid, p, nh); err != nil {
			return nil, fmt.Errorf("static_route %d: %w", i, err)
		}
	}

	for _, name := range topo.LoadBalancing {
		rid, err := resolve(byName, name)
		if err != nil {
			return nil, fmt.Errorf("load_balancing: %w", err)
		}
		if err := n.SetLoadBalancing(rid, true); err != nil {
			return nil, fmt.Errorf("load_balancing %s: %w", name, err)
		}
	}

	return n, nil
}

func expandRouterNames(spec string) ([]string, error) {
	names, err := util.ExpandInterfaceRange(spec)
	if err != nil {
		// No trailing digit range in the key: treat it as a literal name.
		return []string{spec}, nil
	}
	return names, nil
}

func resolve(byName map[string]id.RouterID, name string) (id.RouterID, error) {
	rid, ok := byName[name]
	if !ok {
		return 0, fmt.Errorf("undefined router %q", name)
	}
	return rid, nil
}

// sessionType resolves a YAML session type string to a bgproute.SessionType,
// defaulting to iBGP-peer within an AS and eBGP across ASes per spec §6.
func sessionType(n *kernel.Network, a, b id.RouterID, typ string) (bgproute.SessionType, error) {
	switch typ {
	case "ibgp-peer":
		return bgproute.SessionIBGPPeer, nil
	case "ibgp-client":
		return bgproute.SessionIBGPClient, nil
	case "ebgp":
		return bgproute.SessionEBGP, nil
	case "":
		ra, err := n.Router(a)
		if err != nil {
			return 0, err
		}
		rb, err := n.Router(b)
		if err != nil {
			return 0, err
		}
		if ra.ASN == rb.ASN {
			return bgproute.SessionIBGPPeer, nil
		}
		return bgproute.SessionEBGP, nil
	default:
		return 0, fmt.Errorf("unknown session type %q", typ)
	}
}

func buildAdvertisedRoute(a AdvertDef, rid id.RouterID, p prefix.Prefix) (bgproute.Route, error) {
	asPath := make([]id.ASN, len(a.ASPath))
	for i, asn := range a.ASPath {
		asPath[i] = id.ASN(asn)
	}
	if len(asPath) == 0 {
		asPath = []id.ASN{id.ASN(a.Origin)}
	}
	communities := make([]bgproute.Community, 0, len(a.Communities))
	for _, c := range a.Communities {
		parsed, err := parseCommunity(c)
		if err != nil {
			return bgproute.Route{}, err
		}
		communities = append(communities, parsed)
	}
	return bgproute.Route{
		Prefix:      p,
		NextHop:     rid,
		ASPath:      asPath,
		MED:         a.MED,
		Communities: communities,
	}, nil
}

func parseCommunity(s string) (bgproute.Community, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return bgproute.Community{}, fmt.Errorf("community %q must be 'asn:value'", s)
	}
	asn, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return bgproute.Community{}, fmt.Errorf("community %q: %w", s, err)
	}
	val, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return bgproute.Community{}, fmt.Errorf("community %q: %w", s, err)
	}
	return bgproute.Community{ASN: id.ASN(asn), Value: uint32(val)}, nil
}

// prefixParser returns a parser for prefix strings under the chosen
// universe, per spec §6 "prefix universe choice".
func prefixParser(universe string) func(string) (prefix.Prefix, error) {
	switch universe {
	case "flat":
		return func(s string) (prefix.Prefix, error) {
			s = strings.TrimPrefix(s, "P")
			v, err := strconv.ParseUint(s, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("flat prefix %q: %w", s, err)
			}
			return prefix.Flat(v), nil
		}
	case "single":
		return func(string) (prefix.Prefix, error) { return prefix.Single{}, nil }
	default:
		return func(s string) (prefix.Prefix, error) {
			p, err := prefix.ParseIPv4Net(s)
			if err != nil {
				return nil, err
			}
			return p, nil
		}
	}
}
