// Package bgproute defines the BGP route and RIB-entry records and the
// total order used by the decision process's best-path tie-break ladder
// (spec §3, §4.1). Deliberately omits ORIGIN, ATOMIC_AGGREGATE, and
// AGGREGATOR, per spec §1's non-goals.
package bgproute

import (
	"fmt"
	"sort"
	"strings"

	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/prefix"
)

// Well-known community values (ASN field is the public/internal ASN
// id.InternalASN=65535 for all of these, per spec §3).
const (
	CommunityNoExport           uint32 = 0xFFFFFF01
	CommunityNoAdvertise        uint32 = 0xFFFFFF02
	CommunityNoExportSubConfed  uint32 = 0xFFFFFF03
	CommunityGracefulShutdown   uint32 = 0xFFFF0000
	CommunityBlackhole          uint32 = 0xFFFF029A
)

// Community is a (ASN, value) pair. A community is "public" (transitive
// across eBGP) iff its ASN is the reserved internal ASN (65535), per
// spec §3 — counter-intuitively, the *absence* of a real owning ASN is
// what the reference model treats as public.
type Community struct {
	ASN   id.ASN
	Value uint32
}

func (c Community) String() string { return fmt.Sprintf("%d:%d", uint32(c.ASN), c.Value) }

// Public reports whether c is eligible to cross an eBGP boundary.
func (c Community) Public() bool { return c.ASN == id.InternalASN }

const (
	defaultLocalPref = 100
	defaultMED       = 0
	defaultWeight    = 100
)

// Route is a BGP path: prefix, attributes, and the next-hop router.
// Optional fields use pointers so "absent" and "explicitly set to the
// default" are distinguishable up to the point of comparison, where
// Equal applies defaults per spec §3 ("two routes compare equal iff all
// fields, after applying defaults, are equal").
type Route struct {
	Prefix       prefix.Prefix
	ASPath       []id.ASN // origin last, freshest AS prepended (index 0)
	NextHop      id.RouterID
	LocalPref    *int
	MED          *int
	Communities  []Community
	OriginatorID *id.RouterID
	ClusterList  []id.RouterID
}

// LocalPrefOrDefault returns LOCAL_PREF, defaulting to 100.
func (r Route) LocalPrefOrDefault() int {
	if r.LocalPref != nil {
		return *r.LocalPref
	}
	return defaultLocalPref
}

// MEDOrDefault returns MED, defaulting to 0.
func (r Route) MEDOrDefault() int {
	if r.MED != nil {
		return *r.MED
	}
	return defaultMED
}

// FirstAS returns the AS nearest this router (the most recently
// prepended hop), used by the MED tie-break's "same neighboring AS"
// condition. Returns (0, false) for a locally-originated route with an
// empty path.
func (r Route) FirstAS() (id.ASN, bool) {
	if len(r.ASPath) == 0 {
		return 0, false
	}
	return r.ASPath[0], true
}

// Origin returns the AS at the end of the path (the originating AS), or
// (0, false) if the path is empty.
func (r Route) Origin() (id.ASN, bool) {
	if len(r.ASPath) == 0 {
		return 0, false
	}
	return r.ASPath[len(r.ASPath)-1], true
}

// Prepend returns a copy of r with asn prepended to the front of the
// AS-path (the "fresh AS prepended" rule of spec §3), applied when an
// eBGP session emits the route onward.
func (r Route) Prepend(asn id.ASN) Route {
	cp := r.clone()
	cp.ASPath = append([]id.ASN{asn}, cp.ASPath...)
	return cp
}

// WithNextHop returns a copy of r with NextHop replaced.
func (r Route) WithNextHop(nh id.RouterID) Route {
	cp := r.clone()
	cp.NextHop = nh
	return cp
}

// WithOriginatorID sets ORIGINATOR_ID if it is currently absent.
func (r Route) WithOriginatorID(id_ id.RouterID) Route {
	if r.OriginatorID != nil {
		return r.clone()
	}
	cp := r.clone()
	cp.OriginatorID = &id_
	return cp
}

// WithClusterAppend appends rid to CLUSTER_LIST.
func (r Route) WithClusterAppend(rid id.RouterID) Route {
	cp := r.clone()
	cp.ClusterList = append(append([]id.RouterID(nil), cp.ClusterList...), rid)
	return cp
}

// HasCluster reports whether rid already appears in CLUSTER_LIST — the
// reflection loop-prevention check of spec §9's open question.
func (r Route) HasCluster(rid id.RouterID) bool {
	for _, c := range r.ClusterList {
		if c == rid {
			return true
		}
	}
	return false
}

// StripNonPublicCommunities drops every community that is not public,
// applied when a route crosses an eBGP boundary (spec §4.1).
func (r Route) StripNonPublicCommunities() Route {
	cp := r.clone()
	kept := cp.Communities[:0:0]
	for _, c := range cp.Communities {
		if c.Public() {
			kept = append(kept, c)
		}
	}
	cp.Communities = kept
	return cp
}

// HasCommunity reports exact membership.
func (r Route) HasCommunity(c Community) bool {
	for _, have := range r.Communities {
		if have == c {
			return true
		}
	}
	return false
}

func (r Route) clone() Route {
	cp := r
	cp.ASPath = append([]id.ASN(nil), r.ASPath...)
	cp.Communities = append([]Community(nil), r.Communities...)
	cp.ClusterList = append([]id.RouterID(nil), r.ClusterList...)
	return cp
}

// Equal reports field equality after applying defaults, per spec §3.
func (r Route) Equal(o Route) bool {
	if !samePrefix(r.Prefix, o.Prefix) {
		return false
	}
	if r.NextHop != o.NextHop {
		return false
	}
	if !asPathEqual(r.ASPath, o.ASPath) {
		return false
	}
	if r.LocalPrefOrDefault() != o.LocalPrefOrDefault() {
		return false
	}
	if r.MEDOrDefault() != o.MEDOrDefault() {
		return false
	}
	if !communitiesEqual(r.Communities, o.Communities) {
		return false
	}
	if !originatorEqual(r.OriginatorID, o.OriginatorID) {
		return false
	}
	if !clusterListEqual(r.ClusterList, o.ClusterList) {
		return false
	}
	return true
}

func samePrefix(a, b prefix.Prefix) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

func asPathEqual(a, b []id.ASN) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func clusterListEqual(a, b []id.RouterID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func originatorEqual(a, b *id.RouterID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func communitiesEqual(a, b []Community) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]Community(nil), a...)
	sb := append([]Community(nil), b...)
	sort.Slice(sa, func(i, j int) bool { return communityLess(sa[i], sa[j]) })
	sort.Slice(sb, func(i, j int) bool { return communityLess(sb[i], sb[j]) })
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

func communityLess(a, b Community) bool {
	if a.ASN != b.ASN {
		return a.ASN < b.ASN
	}
	return a.Value < b.Value
}

// String renders a compact, human-readable summary (used by pkg/format).
func (r Route) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s via %s", r.Prefix, r.NextHop)
	if len(r.ASPath) > 0 {
		parts := make([]string, len(r.ASPath))
		for i, a := range r.ASPath {
			parts[i] = a.String()
		}
		fmt.Fprintf(&sb, " path=[%s]", strings.Join(parts, " "))
	}
	fmt.Fprintf(&sb, " lp=%d med=%d", r.LocalPrefOrDefault(), r.MEDOrDefault())
	return sb.String()
}
