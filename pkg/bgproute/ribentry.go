package bgproute

import (
	"fmt"
	"math"

	"github.com/routesim/netsim/pkg/id"
)

// SessionType is the type of BGP session an entry was learned over, per
// spec §3.
type SessionType int

const (
	// SessionIBGPPeer: iBGP session between two non-reflector peers (or
	// reflector-to-reflector/non-client).
	SessionIBGPPeer SessionType = iota
	// SessionIBGPClient: iBGP session where the local router is a route
	// reflector and the peer is its client.
	SessionIBGPClient
	// SessionEBGP: eBGP session (crosses an AS boundary).
	SessionEBGP
)

func (s SessionType) String() string {
	switch s {
	case SessionIBGPPeer:
		return "ibgp-peer"
	case SessionIBGPClient:
		return "ibgp-client"
	case SessionEBGP:
		return "ebgp"
	default:
		return "unknown"
	}
}

// IsIBGP reports whether s is either iBGP variant.
func (s SessionType) IsIBGP() bool { return s == SessionIBGPPeer || s == SessionIBGPClient }

// ParseSessionType parses the session-type names accepted by the kernel's
// set_bgp_session operation and the YAML builder.
func ParseSessionType(s string) (SessionType, error) {
	switch s {
	case "ibgp-peer", "iBGP-peer", "ibgp", "iBGP":
		return SessionIBGPPeer, nil
	case "ibgp-client", "iBGP-client":
		return SessionIBGPClient, nil
	case "ebgp", "eBGP":
		return SessionEBGP, nil
	default:
		return 0, fmt.Errorf("bgproute: invalid session type %q", s)
	}
}

// Cost is an optional, non-NaN IGP cost, per spec §3 ("non-NaN float,
// may be unset"). The zero value is "unset".
type Cost struct {
	valid bool
	value float64
}

// NewCost wraps a known-finite cost. Panics if v is NaN, matching the
// "non-NaN float" invariant — a NaN IGP cost is an internal bug, not a
// representable domain value.
func NewCost(v float64) Cost {
	if math.IsNaN(v) {
		panic("bgproute: IGP cost must not be NaN")
	}
	return Cost{valid: true, value: v}
}

func (c Cost) Valid() bool    { return c.valid }
func (c Cost) Value() float64 { return c.value }

func (c Cost) String() string {
	if !c.valid {
		return "-"
	}
	return fmt.Sprintf("%g", c.value)
}

// RIBEntry is a Route plus the per-peer bookkeeping spec §3 ("BGP RIB
// entry") attaches to it.
type RIBEntry struct {
	Route Route

	Session SessionType
	Peer    id.RouterID

	// AdvertTarget is set only in RIB-out: the peer this copy was (or
	// would be) advertised to.
	AdvertTarget *id.RouterID

	IGPCost Cost

	// Weight is the local weight (default 100). It is the only
	// attribute visible solely at the receiving router — spec §4.2
	// says a Weight set-action is never propagated.
	Weight *int
}

func (e RIBEntry) WeightOrDefault() int {
	if e.Weight != nil {
		return *e.Weight
	}
	return defaultWeight
}

// Equal reports whether two entries carry the same route and are
// attributed to the local router the same way — used to decide whether
// a re-advertisement would be a no-op (spec §4.1's suppress-if-unchanged
// rule for outbound updates).
func (e RIBEntry) Equal(o RIBEntry) bool {
	return e.Route.Equal(o.Route) && e.Session == o.Session && e.Peer == o.Peer
}

// Compare implements the spec §4.1 tie-break ladder. It returns >0 if a
// is strictly preferred to b, <0 if b is preferred, and 0 if every step
// ties (in which case the decision process must keep the current best
// for stability, per spec §4.1: "the selection is stable").
func Compare(a, b RIBEntry) int {
	// 1. Higher local weight.
	if d := a.WeightOrDefault() - b.WeightOrDefault(); d != 0 {
		return d
	}
	// 2. Higher LOCAL_PREF.
	if d := a.Route.LocalPrefOrDefault() - b.Route.LocalPrefOrDefault(); d != 0 {
		return d
	}
	// 3. Shorter AS-path.
	if d := len(b.Route.ASPath) - len(a.Route.ASPath); d != 0 {
		return d
	}
	// 4. Lower MED, only when the first AS in the path matches.
	if aAS, aOK := a.Route.FirstAS(); aOK {
		if bAS, bOK := b.Route.FirstAS(); bOK && aAS == bAS {
			if d := b.Route.MEDOrDefault() - a.Route.MEDOrDefault(); d != 0 {
				return d
			}
		}
	} else if _, bOK := b.Route.FirstAS(); !bOK {
		// Both locally originated (no AS hops): MED still comparable.
		if d := b.Route.MEDOrDefault() - a.Route.MEDOrDefault(); d != 0 {
			return d
		}
	}
	// 5. Prefer eBGP-learned over iBGP-learned.
	if a.Session == SessionEBGP && b.Session.IsIBGP() {
		return 1
	}
	if b.Session == SessionEBGP && a.Session.IsIBGP() {
		return -1
	}
	// 6. Lower IGP cost to next hop.
	if a.IGPCost.Valid() && b.IGPCost.Valid() {
		if a.IGPCost.Value() < b.IGPCost.Value() {
			return 1
		}
		if a.IGPCost.Value() > b.IGPCost.Value() {
			return -1
		}
	}
	// 7. Lower next-hop router ID.
	if a.Route.NextHop != b.Route.NextHop {
		if a.Route.NextHop < b.Route.NextHop {
			return 1
		}
		return -1
	}
	// 8. Lower ORIGINATOR_ID (or learning peer if absent).
	aOrig, bOrig := originatorOrPeer(a), originatorOrPeer(b)
	if aOrig != bOrig {
		if aOrig < bOrig {
			return 1
		}
		return -1
	}
	// 9. Shorter CLUSTER_LIST.
	if d := len(b.Route.ClusterList) - len(a.Route.ClusterList); d != 0 {
		return d
	}
	// 10. Lower learning peer ID.
	if a.Peer != b.Peer {
		if a.Peer < b.Peer {
			return 1
		}
		return -1
	}
	return 0
}

func originatorOrPeer(e RIBEntry) id.RouterID {
	if e.Route.OriginatorID != nil {
		return *e.Route.OriginatorID
	}
	return e.Peer
}

// Best returns the entry in entries that is maximal under Compare,
// breaking all-tie situations by keeping current (spec §4.1 stability
// rule) when current is itself a member of entries with a zero compare
// result against the computed best. Returns ok=false for an empty input.
func Best(entries []RIBEntry, current *RIBEntry) (RIBEntry, bool) {
	if len(entries) == 0 {
		var zero RIBEntry
		return zero, false
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if Compare(e, best) > 0 {
			best = e
		}
	}
	if current != nil {
		for _, e := range entries {
			if samePeerAndPrefix(e, *current) && Compare(e, best) == 0 {
				return *current, true
			}
		}
	}
	return best, true
}

func samePeerAndPrefix(a, b RIBEntry) bool {
	return a.Peer == b.Peer && a.Route.Prefix != nil && b.Route.Prefix != nil && a.Route.Prefix.Equal(b.Route.Prefix)
}
