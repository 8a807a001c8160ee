package routemap

import (
	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/prefix"
)

// Match is one conjunct of an item's match conjunction (spec §4.2).
type Match interface {
	Matches(r bgproute.Route) bool
}

// PrefixIn matches iff the route's prefix is covered (longest-match) by
// any prefix in Set.
type PrefixIn struct{ Set *prefix.Set }

func (m PrefixIn) Matches(r bgproute.Route) bool { return m.Set.Matches(r.Prefix) }

// ASPathContains matches iff asn appears anywhere in the AS-path.
type ASPathContains struct{ ASN id.ASN }

func (m ASPathContains) Matches(r bgproute.Route) bool {
	for _, a := range r.ASPath {
		if a == m.ASN {
			return true
		}
	}
	return false
}

// ASPathLength matches either an exact length or an inclusive [Min, Max]
// range, selected by Exact (non-nil) vs Min/Max.
type ASPathLength struct {
	Exact    *int
	Min, Max int
}

func (m ASPathLength) Matches(r bgproute.Route) bool {
	n := len(r.ASPath)
	if m.Exact != nil {
		return n == *m.Exact
	}
	return n >= m.Min && n <= m.Max
}

// NextHopEquals matches iff the route's next hop is rid.
type NextHopEquals struct{ RouterID id.RouterID }

func (m NextHopEquals) Matches(r bgproute.Route) bool { return r.NextHop == m.RouterID }

// CommunityContains matches iff the route carries community c.
type CommunityContains struct{ Community bgproute.Community }

func (m CommunityContains) Matches(r bgproute.Route) bool { return r.HasCommunity(m.Community) }

// CommunityAbsent ("DenyCommunity" in spec §4.2) matches iff the route
// does NOT carry community c.
type CommunityAbsent struct{ Community bgproute.Community }

func (m CommunityAbsent) Matches(r bgproute.Route) bool { return !r.HasCommunity(m.Community) }

// all evaluates a conjunction: true iff every matcher holds (an empty
// conjunction is vacuously true, matching "all" routes).
func all(matches []Match, r bgproute.Route) bool {
	for _, m := range matches {
		if !m.Matches(r) {
			return false
		}
	}
	return true
}
