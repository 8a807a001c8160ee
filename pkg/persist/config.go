package persist

import (
	"fmt"

	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/config"
	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/ospf"
)

func kindString(k config.Kind) string {
	switch k {
	case config.LinkWeight:
		return "link-weight"
	case config.AreaAssignment:
		return "area"
	case config.BGPSession:
		return "bgp-session"
	case config.RouteMapItem:
		return "route-map-item"
	case config.StaticRoute:
		return "static-route"
	case config.LoadBalancing:
		return "load-balancing"
	default:
		return "unknown"
	}
}

func parseKind(s string) (config.Kind, error) {
	switch s {
	case "link-weight":
		return config.LinkWeight, nil
	case "area":
		return config.AreaAssignment, nil
	case "bgp-session":
		return config.BGPSession, nil
	case "route-map-item":
		return config.RouteMapItem, nil
	case "static-route":
		return config.StaticRoute, nil
	case "load-balancing":
		return config.LoadBalancing, nil
	default:
		return 0, fmt.Errorf("persist: unknown config kind %q", s)
	}
}

// ValueRecord is the JSON encoding of a config.Value: exactly one field
// is meaningful, selected by the owning ExprRecord's Kind (spec §4.9).
type ValueRecord struct {
	Weight        float64     `json:"weight,omitempty"`
	Area          uint32      `json:"area,omitempty"`
	SessionType   string      `json:"session_type,omitempty"`
	RouteMapItem  *ItemRecord `json:"route_map_item,omitempty"`
	StaticNextHop uint32      `json:"static_next_hop,omitempty"`
	LBEnabled     bool        `json:"lb_enabled,omitempty"`
}

// ExprRecord is the JSON encoding of a config.Expr.
type ExprRecord struct {
	Kind  string      `json:"kind"`
	Key   string      `json:"key"`
	Value ValueRecord `json:"value"`
}

func encodeExpr(e config.Expr, universe string) (ExprRecord, error) {
	rec := ExprRecord{Kind: kindString(e.Subject.Kind), Key: e.Subject.Key}
	v := e.Value
	switch e.Subject.Kind {
	case config.LinkWeight:
		rec.Value.Weight = v.Weight
	case config.AreaAssignment:
		rec.Value.Area = uint32(v.Area)
	case config.BGPSession:
		rec.Value.SessionType = v.SessionType.String()
	case config.RouteMapItem:
		item, err := encodeItem(v.RouteMapItem, universe)
		if err != nil {
			return ExprRecord{}, err
		}
		rec.Value.RouteMapItem = &item
	case config.StaticRoute:
		rec.Value.StaticNextHop = uint32(v.StaticNextHop)
	case config.LoadBalancing:
		rec.Value.LBEnabled = v.LBEnabled
	}
	return rec, nil
}

func decodeExpr(rec ExprRecord, universe string) (config.Expr, error) {
	kind, err := parseKind(rec.Kind)
	if err != nil {
		return config.Expr{}, err
	}
	e := config.Expr{Subject: config.Subject{Kind: kind, Key: rec.Key}}
	switch kind {
	case config.LinkWeight:
		e.Value.Weight = rec.Value.Weight
	case config.AreaAssignment:
		e.Value.Area = ospf.Area(rec.Value.Area)
	case config.BGPSession:
		st, err := bgproute.ParseSessionType(rec.Value.SessionType)
		if err != nil {
			return config.Expr{}, err
		}
		e.Value.SessionType = st
	case config.RouteMapItem:
		if rec.Value.RouteMapItem == nil {
			return config.Expr{}, fmt.Errorf("persist: route-map-item expr missing value")
		}
		item, err := decodeItem(*rec.Value.RouteMapItem, universe)
		if err != nil {
			return config.Expr{}, err
		}
		e.Value.RouteMapItem = item
	case config.StaticRoute:
		e.Value.StaticNextHop = id.RouterID(rec.Value.StaticNextHop)
	case config.LoadBalancing:
		e.Value.LBEnabled = rec.Value.LBEnabled
	}
	return e, nil
}

func encodeConfig(c *config.Config, universe string) ([]ExprRecord, error) {
	exprs := c.Exprs()
	out := make([]ExprRecord, 0, len(exprs))
	for _, e := range exprs {
		rec, err := encodeExpr(e, universe)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
