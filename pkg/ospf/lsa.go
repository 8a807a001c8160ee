// Package ospf implements the OSPF link-state database, area data
// structure, and SPF computation (spec §3 "OSPF area"/"LSA"/"Area data
// structure"/"OSPF RIB", §4.3). The neighbor adjacency state machine and
// reliable flooding (component E) live in the sibling pkg/ospf/neighbor;
// the two coordinator modes (component F) live in pkg/ospf/global and
// pkg/ospf/local.
package ospf

import (
	"fmt"
	"math"

	"github.com/routesim/netsim/pkg/id"
)

// Area is a 32-bit OSPF area number; Backbone (area 0) is always present.
type Area uint32

const Backbone Area = 0

func (a Area) String() string { return fmt.Sprintf("area%d", uint32(a)) }

// LSAType distinguishes the three LSA kinds of spec §3.
type LSAType int

const (
	RouterLSA LSAType = iota
	SummaryLSA
	ExternalLSA
)

func (t LSAType) String() string {
	switch t {
	case RouterLSA:
		return "router"
	case SummaryLSA:
		return "summary"
	case ExternalLSA:
		return "external"
	default:
		return "unknown"
	}
}

// Key identifies an LSA by (type, originator, optional target), per spec
// glossary "LSA key". Target is meaningful for Summary/External LSAs
// (the advertised destination router); it is the zero RouterID for
// Router-LSAs, which have exactly one per originating router per area.
//
// Router IDs are allocated starting at 0, so "no target" cannot be
// represented by the zero value alone; HasTarget disambiguates.
type Key struct {
	Type       LSAType
	Originator id.RouterID
	Target     id.RouterID
	HasTarget  bool
}

func (k Key) String() string {
	if k.HasTarget {
		return fmt.Sprintf("%s(%s->%s)", k.Type, k.Originator, k.Target)
	}
	return fmt.Sprintf("%s(%s)", k.Type, k.Originator)
}

// RouterKey builds a Router-LSA key.
func RouterKey(originator id.RouterID) Key { return Key{Type: RouterLSA, Originator: originator} }

// SummaryKey builds a Summary-LSA key.
func SummaryKey(originator, target id.RouterID) Key {
	return Key{Type: SummaryLSA, Originator: originator, Target: target, HasTarget: true}
}

// ExternalKey builds an External-LSA key.
func ExternalKey(originator, target id.RouterID) Key {
	return Key{Type: ExternalLSA, Originator: originator, Target: target, HasTarget: true}
}

// MaxSeqNo is the saturating ceiling for LSA sequence numbers (spec §9
// expansion: saturate rather than wrap, per original_source's
// MAX_SEQ_NO).
const MaxSeqNo = math.MaxInt32

// Link is one of a Router-LSA's intra-area links.
type Link struct {
	Neighbor id.RouterID
	Weight   float64
}

// RouterBody is a Router-LSA's payload: this router's intra-area links.
type RouterBody struct {
	Links []Link
}

// SummaryBody is a Summary-LSA's payload: the advertised cost from the
// originator (an area-border router) to Key.Target.
type SummaryBody struct {
	Cost float64
}

// ExternalBody is an External-LSA's payload: advertised cost to an
// external neighbor.
type ExternalBody struct {
	Cost float64
}

// Age is an LSA's age flag (spec §3: "fresh" or "MaxAge").
type Age int

const (
	Fresh Age = iota
	MaxAgeFlag
)

// LSA is a single link-state advertisement.
type LSA struct {
	Key      Key
	SeqNo    int64
	Age      Age
	Router   *RouterBody   // set iff Key.Type == RouterLSA
	Summary  *SummaryBody  // set iff Key.Type == SummaryLSA
	External *ExternalBody // set iff Key.Type == ExternalLSA
}

func (l LSA) String() string {
	return fmt.Sprintf("LSA{%s seq=%d age=%v}", l.Key, l.SeqNo, l.Age)
}

// NextSeqNo returns the sequence number to use when re-originating this
// LSA, saturating at MaxSeqNo.
func (l LSA) NextSeqNo() int64 {
	if l.SeqNo >= MaxSeqNo {
		return MaxSeqNo
	}
	return l.SeqNo + 1
}

// Newer reports whether l is strictly newer than other (higher sequence
// number; MaxAge-vs-fresh at equal sequence number is not itself a
// newness signal in this model — age is tracked as a separate flag and
// acted on by the flooding algorithm, per spec §4.4).
func (l LSA) Newer(other LSA) bool { return l.SeqNo > other.SeqNo }

// Header is the lightweight (key, seqno, age) summary exchanged during
// database description and used to decide what to request, per spec
// §4.4.
type Header struct {
	Key   Key
	SeqNo int64
	Age   Age
}

func (l LSA) Header() Header { return Header{Key: l.Key, SeqNo: l.SeqNo, Age: l.Age} }

// HeaderNewer reports whether h describes an LSA strictly newer than
// have (used while building a neighbor's request list).
func HeaderNewer(h Header, have LSA, haveOK bool) bool {
	if !haveOK {
		return true
	}
	return h.SeqNo > have.SeqNo
}
