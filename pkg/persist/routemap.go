package persist

import (
	"fmt"

	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/prefix"
	"github.com/routesim/netsim/pkg/routemap"
)

// matchRecord is the JSON-tagged-union encoding of a routemap.Match,
// since Go's encoding/json cannot round-trip an interface-typed field
// without one.
type matchRecord struct {
	Kind        string   `json:"kind"`
	Prefixes    []string `json:"prefixes,omitempty"`     // prefix-in
	ASN         uint32   `json:"asn,omitempty"`           // as-path-contains
	Exact       *int     `json:"exact,omitempty"`         // as-path-length
	Min         int      `json:"min,omitempty"`           // as-path-length
	Max         int      `json:"max,omitempty"`           // as-path-length
	RouterID    uint32   `json:"router_id,omitempty"`     // next-hop-equals
	CommunityASN uint32  `json:"community_asn,omitempty"` // community-contains/absent
	CommunityVal uint32  `json:"community_value,omitempty"`
}

func encodeMatch(m routemap.Match, universe string) (matchRecord, error) {
	switch v := m.(type) {
	case routemap.PrefixIn:
		ps := make([]string, 0, len(v.Set.Items()))
		for _, p := range v.Set.Items() {
			ps = append(ps, formatPrefix(p))
		}
		return matchRecord{Kind: "prefix-in", Prefixes: ps}, nil
	case routemap.ASPathContains:
		return matchRecord{Kind: "as-path-contains", ASN: uint32(v.ASN)}, nil
	case routemap.ASPathLength:
		return matchRecord{Kind: "as-path-length", Exact: v.Exact, Min: v.Min, Max: v.Max}, nil
	case routemap.NextHopEquals:
		return matchRecord{Kind: "next-hop-equals", RouterID: uint32(v.RouterID)}, nil
	case routemap.CommunityContains:
		return matchRecord{Kind: "community-contains", CommunityASN: uint32(v.Community.ASN), CommunityVal: v.Community.Value}, nil
	case routemap.CommunityAbsent:
		return matchRecord{Kind: "community-absent", CommunityASN: uint32(v.Community.ASN), CommunityVal: v.Community.Value}, nil
	default:
		return matchRecord{}, fmt.Errorf("unknown match type %T", m)
	}
}

func decodeMatch(r matchRecord, universe string) (routemap.Match, error) {
	switch r.Kind {
	case "prefix-in":
		set := prefix.NewSet()
		for _, s := range r.Prefixes {
			p, err := parsePrefix(universe, s)
			if err != nil {
				return nil, err
			}
			set.Add(p)
		}
		return routemap.PrefixIn{Set: set}, nil
	case "as-path-contains":
		return routemap.ASPathContains{ASN: id.ASN(r.ASN)}, nil
	case "as-path-length":
		return routemap.ASPathLength{Exact: r.Exact, Min: r.Min, Max: r.Max}, nil
	case "next-hop-equals":
		return routemap.NextHopEquals{RouterID: id.RouterID(r.RouterID)}, nil
	case "community-contains":
		return routemap.CommunityContains{Community: bgproute.Community{ASN: id.ASN(r.CommunityASN), Value: r.CommunityVal}}, nil
	case "community-absent":
		return routemap.CommunityAbsent{Community: bgproute.Community{ASN: id.ASN(r.CommunityASN), Value: r.CommunityVal}}, nil
	default:
		return nil, fmt.Errorf("unknown match kind %q", r.Kind)
	}
}

// setRecord is the tagged-union encoding of a routemap.SetAction.
type setRecord struct {
	Kind         string `json:"kind"`
	RouterID     uint32 `json:"router_id,omitempty"`     // set-next-hop
	Value        int    `json:"value,omitempty"`         // set-weight/local-pref/med
	Clear        bool   `json:"clear,omitempty"`         // set-weight/local-pref/med
	FloatValue   float64 `json:"float_value,omitempty"`  // set-igp-cost
	CommunityASN uint32 `json:"community_asn,omitempty"` // add/remove-community
	CommunityVal uint32 `json:"community_value,omitempty"`
}

func encodeSet(s routemap.SetAction) (setRecord, error) {
	switch v := s.(type) {
	case routemap.SetNextHop:
		return setRecord{Kind: "set-next-hop", RouterID: uint32(v.RouterID)}, nil
	case routemap.SetWeight:
		return setRecord{Kind: "set-weight", Value: v.Value, Clear: v.Clear}, nil
	case routemap.SetLocalPref:
		return setRecord{Kind: "set-local-pref", Value: v.Value, Clear: v.Clear}, nil
	case routemap.SetMED:
		return setRecord{Kind: "set-med", Value: v.Value, Clear: v.Clear}, nil
	case routemap.SetIGPCost:
		return setRecord{Kind: "set-igp-cost", FloatValue: v.Value}, nil
	case routemap.AddCommunity:
		return setRecord{Kind: "add-community", CommunityASN: uint32(v.Community.ASN), CommunityVal: v.Community.Value}, nil
	case routemap.RemoveCommunity:
		return setRecord{Kind: "remove-community", CommunityASN: uint32(v.Community.ASN), CommunityVal: v.Community.Value}, nil
	default:
		return setRecord{}, fmt.Errorf("unknown set-action type %T", s)
	}
}

func decodeSet(r setRecord) (routemap.SetAction, error) {
	switch r.Kind {
	case "set-next-hop":
		return routemap.SetNextHop{RouterID: id.RouterID(r.RouterID)}, nil
	case "set-weight":
		return routemap.SetWeight{Value: r.Value, Clear: r.Clear}, nil
	case "set-local-pref":
		return routemap.SetLocalPref{Value: r.Value, Clear: r.Clear}, nil
	case "set-med":
		return routemap.SetMED{Value: r.Value, Clear: r.Clear}, nil
	case "set-igp-cost":
		return routemap.SetIGPCost{Value: r.FloatValue}, nil
	case "add-community":
		return routemap.AddCommunity{Community: bgproute.Community{ASN: id.ASN(r.CommunityASN), Value: r.CommunityVal}}, nil
	case "remove-community":
		return routemap.RemoveCommunity{Community: bgproute.Community{ASN: id.ASN(r.CommunityASN), Value: r.CommunityVal}}, nil
	default:
		return nil, fmt.Errorf("unknown set-action kind %q", r.Kind)
	}
}

// ItemRecord is the JSON encoding of one routemap.Item.
type ItemRecord struct {
	Order   int16       `json:"order"`
	Deny    bool        `json:"deny,omitempty"`
	Matches []matchRecord `json:"matches,omitempty"`
	Sets    []setRecord   `json:"sets,omitempty"`
	Flow    string      `json:"flow,omitempty"` // "exit" (default), "continue", "continue-at"
	FlowAt  int16       `json:"flow_at,omitempty"`
}

func encodeItem(it routemap.Item, universe string) (ItemRecord, error) {
	rec := ItemRecord{Order: it.Order, Deny: it.State == routemap.Deny}
	for _, m := range it.Matches {
		mr, err := encodeMatch(m, universe)
		if err != nil {
			return ItemRecord{}, err
		}
		rec.Matches = append(rec.Matches, mr)
	}
	for _, s := range it.Sets {
		sr, err := encodeSet(s)
		if err != nil {
			return ItemRecord{}, err
		}
		rec.Sets = append(rec.Sets, sr)
	}
	switch it.Flow.Kind {
	case routemap.Continue:
		rec.Flow = "continue"
	case routemap.ContinueAt:
		rec.Flow = "continue-at"
		rec.FlowAt = it.Flow.At
	}
	return rec, nil
}

func decodeItem(rec ItemRecord, universe string) (routemap.Item, error) {
	it := routemap.Item{Order: rec.Order}
	if rec.Deny {
		it.State = routemap.Deny
	}
	for _, mr := range rec.Matches {
		m, err := decodeMatch(mr, universe)
		if err != nil {
			return routemap.Item{}, err
		}
		it.Matches = append(it.Matches, m)
	}
	for _, sr := range rec.Sets {
		s, err := decodeSet(sr)
		if err != nil {
			return routemap.Item{}, err
		}
		it.Sets = append(it.Sets, s)
	}
	switch rec.Flow {
	case "continue":
		it.Flow = routemap.Flow{Kind: routemap.Continue}
	case "continue-at":
		it.Flow = routemap.Flow{Kind: routemap.ContinueAt, At: rec.FlowAt}
	}
	return it, nil
}
