package persist

import (
	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/id"
)

// RouteRecord is the JSON encoding of a bgproute.Route, with Prefix
// rendered as a string under the document's chosen universe (spec §6
// "prefix universe choice") since prefix.Prefix is an interface.
type RouteRecord struct {
	Prefix       string           `json:"prefix"`
	ASPath       []uint32         `json:"as_path,omitempty"`
	NextHop      uint32           `json:"next_hop"`
	LocalPref    *int             `json:"local_pref,omitempty"`
	MED          *int             `json:"med,omitempty"`
	Communities  []string         `json:"communities,omitempty"`
	OriginatorID *uint32          `json:"originator_id,omitempty"`
	ClusterList  []uint32         `json:"cluster_list,omitempty"`
}

func encodeRoute(r bgproute.Route, universe string) RouteRecord {
	rec := RouteRecord{
		Prefix:    formatPrefix(r.Prefix),
		NextHop:   uint32(r.NextHop),
		LocalPref: r.LocalPref,
		MED:       r.MED,
	}
	for _, a := range r.ASPath {
		rec.ASPath = append(rec.ASPath, uint32(a))
	}
	for _, c := range r.Communities {
		rec.Communities = append(rec.Communities, formatCommunity(c))
	}
	if r.OriginatorID != nil {
		v := uint32(*r.OriginatorID)
		rec.OriginatorID = &v
	}
	for _, c := range r.ClusterList {
		rec.ClusterList = append(rec.ClusterList, uint32(c))
	}
	return rec
}

func decodeRoute(rec RouteRecord, universe string) (bgproute.Route, error) {
	p, err := parsePrefix(universe, rec.Prefix)
	if err != nil {
		return bgproute.Route{}, err
	}
	r := bgproute.Route{
		Prefix:    p,
		NextHop:   id.RouterID(rec.NextHop),
		LocalPref: rec.LocalPref,
		MED:       rec.MED,
	}
	for _, a := range rec.ASPath {
		r.ASPath = append(r.ASPath, id.ASN(a))
	}
	for _, s := range rec.Communities {
		c, err := parseCommunityString(s)
		if err != nil {
			return bgproute.Route{}, err
		}
		r.Communities = append(r.Communities, c)
	}
	if rec.OriginatorID != nil {
		v := id.RouterID(*rec.OriginatorID)
		r.OriginatorID = &v
	}
	for _, c := range rec.ClusterList {
		r.ClusterList = append(r.ClusterList, id.RouterID(c))
	}
	return r, nil
}

// RIBEntryRecord is the JSON encoding of a bgproute.RIBEntry.
type RIBEntryRecord struct {
	Route        RouteRecord `json:"route"`
	Session      string      `json:"session"`
	Peer         uint32      `json:"peer"`
	AdvertTarget *uint32     `json:"advert_target,omitempty"`
	IGPCost      *float64    `json:"igp_cost,omitempty"`
	Weight       *int        `json:"weight,omitempty"`
}

func encodeRIBEntry(e bgproute.RIBEntry, universe string) RIBEntryRecord {
	rec := RIBEntryRecord{
		Route:   encodeRoute(e.Route, universe),
		Session: e.Session.String(),
		Peer:    uint32(e.Peer),
		Weight:  e.Weight,
	}
	if e.AdvertTarget != nil {
		v := uint32(*e.AdvertTarget)
		rec.AdvertTarget = &v
	}
	if e.IGPCost.Valid() {
		v := e.IGPCost.Value()
		rec.IGPCost = &v
	}
	return rec
}

func decodeRIBEntry(rec RIBEntryRecord, universe string) (bgproute.RIBEntry, error) {
	route, err := decodeRoute(rec.Route, universe)
	if err != nil {
		return bgproute.RIBEntry{}, err
	}
	session, err := bgproute.ParseSessionType(rec.Session)
	if err != nil {
		return bgproute.RIBEntry{}, err
	}
	e := bgproute.RIBEntry{
		Route:   route,
		Session: session,
		Peer:    id.RouterID(rec.Peer),
		Weight:  rec.Weight,
	}
	if rec.AdvertTarget != nil {
		v := id.RouterID(*rec.AdvertTarget)
		e.AdvertTarget = &v
	}
	if rec.IGPCost != nil {
		e.IGPCost = bgproute.NewCost(*rec.IGPCost)
	}
	return e, nil
}
