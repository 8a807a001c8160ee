// Package neighbor implements the OSPF neighbor adjacency state machine
// and reliable flooding (spec §4.4, component E): the Down -> Init ->
// ExStart -> Exchange -> Loading -> Full progression, database
// description exchange, link-state request/update/ack handling, and
// retransmission-list bookkeeping for MaxAge ack-then-remove tracking.
package neighbor

import (
	"sort"

	"github.com/routesim/netsim/pkg/event"
	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/ospf"
)

// State is a neighbor adjacency's FSM state (spec §4.4).
type State int

const (
	Down State = iota
	Init
	ExStart
	Exchange
	Loading
	Full
)

func (s State) String() string {
	switch s {
	case Down:
		return "down"
	case Init:
		return "init"
	case ExStart:
		return "exstart"
	case Exchange:
		return "exchange"
	case Loading:
		return "loading"
	case Full:
		return "full"
	default:
		return "unknown"
	}
}

// retransmitTag builds the Timeout tag used to schedule/identify a
// retransmission timer for one neighbor.
func retransmitTag(peer id.RouterID) string {
	return "retransmit:" + peer.String()
}

// Neighbor tracks one adjacency from the local router's perspective.
type Neighbor struct {
	Self id.RouterID
	Peer id.RouterID
	Area ospf.Area

	State State
	// Master reports whether Self is the ExStart master (higher RouterID
	// wins, per spec §4.4's deterministic variant of the ExStart
	// negotiation — no real DD sequence number race is needed since
	// events are processed one at a time).
	Master bool

	// requestList holds headers this neighbor has advertised that the
	// local router lacks an equal-or-newer copy of; drained during
	// Loading.
	requestList []ospf.Header

	// retransmit holds (key -> LSA) entries sent to Peer but not yet
	// acknowledged; re-sent on the retransmission timer.
	retransmit map[ospf.Key]ospf.LSA
}

// NewNeighbor creates a Down-state adjacency.
func NewNeighbor(self, peer id.RouterID, area ospf.Area) *Neighbor {
	return &Neighbor{Self: self, Peer: peer, Area: area, State: Down, retransmit: make(map[ospf.Key]ospf.LSA)}
}

// Outcome is what the caller (the local-mode coordinator) must do after
// feeding an inbound event or timeout to the FSM: events to send, and
// LSAs (if any) to install into the area database.
type Outcome struct {
	Send  []event.Event
	Learn []ospf.LSA // full LSAs received via link-state update, to be installed by the caller
}

// HandleStart processes an OSPFStart event (spec: Down -> Init -> begin
// ExStart negotiation immediately, since link-up is itself the trigger).
func (n *Neighbor) HandleStart(db *ospf.AreaDB) Outcome {
	n.State = ExStart
	n.Master = n.Self > n.Peer
	headers := make([]ospf.Header, 0)
	for _, l := range db.All() {
		headers = append(headers, l.Header())
	}
	return Outcome{Send: []event.Event{event.NewOSPFDBD(n.Self, n.Peer, headers, false, true)}}
}

// HandleDBD processes an inbound database-description packet.
func (n *Neighbor) HandleDBD(db *ospf.AreaDB, dbd *event.OSPFDatabaseDescription) Outcome {
	switch n.State {
	case Down, Init:
		// Peer-initiated: mirror HandleStart's negotiation, then fall
		// through to process this DBD in Exchange.
		n.Master = n.Self > n.Peer
		n.State = ExStart
		fallthrough
	case ExStart:
		n.State = Exchange
		var out Outcome
		if dbd.Init && !n.Master {
			headers := make([]ospf.Header, 0)
			for _, l := range db.All() {
				headers = append(headers, l.Header())
			}
			out.Send = append(out.Send, event.NewOSPFDBD(n.Self, n.Peer, headers, false, false))
		}
		n.absorbHeaders(db, dbd.Headers)
		return n.afterExchange(&out)
	case Exchange:
		n.absorbHeaders(db, dbd.Headers)
		var out Outcome
		return n.afterExchange(&out)
	default:
		// Full/Loading: a fresh DBD restarts the exchange (topology
		// re-sync), matching spec §4.4's "any DBD restarts negotiation
		// if the neighbor regressed".
		n.State = ExStart
		return n.HandleStart(db)
	}
}

// absorbHeaders compares each advertised header against the local
// database, queuing a request for anything we lack or have a strictly
// older copy of.
func (n *Neighbor) absorbHeaders(db *ospf.AreaDB, headers []ospf.Header) {
	for _, h := range headers {
		have, ok := db.Get(h.Key)
		if ospf.HeaderNewer(h, have, ok) {
			n.requestList = append(n.requestList, h)
		}
	}
}

// afterExchange transitions to Loading (if requests are outstanding) or
// straight to Full, appending any needed LSR to out.
func (n *Neighbor) afterExchange(out *Outcome) Outcome {
	if len(n.requestList) == 0 {
		n.State = Full
		return *out
	}
	n.State = Loading
	keys := make([]ospf.Key, 0, len(n.requestList))
	for _, h := range n.requestList {
		keys = append(keys, h.Key)
	}
	out.Send = append(out.Send, event.NewOSPFLSR(n.Self, n.Peer, keys))
	return *out
}

// HandleLSR processes an inbound link-state request, replying with the
// full LSAs requested (any the local router no longer has are skipped;
// nothing re-sends the request for them).
func (n *Neighbor) HandleLSR(db *ospf.AreaDB, lsr *event.OSPFLinkStateRequest) Outcome {
	lsas := make([]ospf.LSA, 0, len(lsr.Keys))
	for _, k := range lsr.Keys {
		if l, ok := db.Get(k); ok {
			lsas = append(lsas, l)
		}
	}
	if len(lsas) == 0 {
		return Outcome{}
	}
	return Outcome{Send: []event.Event{event.NewOSPFLSU(n.Self, n.Peer, lsas)}}
}

// HandleLSU processes an inbound link-state update: every carried LSA is
// handed back to the caller to install, an ack is sent, and satisfied
// requests are removed from the pending request list (advancing
// Loading -> Full once empty).
func (n *Neighbor) HandleLSU(lsu *event.OSPFLinkStateUpdate) Outcome {
	headers := make([]ospf.Header, 0, len(lsu.LSAs))
	for _, l := range lsu.LSAs {
		headers = append(headers, l.Header())
		n.satisfyRequest(l.Key)
	}
	if n.State == Loading && len(n.requestList) == 0 {
		n.State = Full
	}
	return Outcome{
		Send:  []event.Event{event.NewOSPFAck(n.Self, n.Peer, headers)},
		Learn: lsu.LSAs,
	}
}

func (n *Neighbor) satisfyRequest(key ospf.Key) {
	out := n.requestList[:0]
	for _, h := range n.requestList {
		if h.Key != key {
			out = append(out, h)
		}
	}
	n.requestList = out
}

// HandleAck processes an inbound acknowledgement, clearing matched
// entries from the retransmission list.
func (n *Neighbor) HandleAck(ack *event.OSPFLinkStateAck) {
	for _, h := range ack.Headers {
		if have, ok := n.retransmit[h.Key]; ok && have.SeqNo <= h.SeqNo {
			delete(n.retransmit, h.Key)
		}
	}
}

// Flood schedules lsa for delivery to this neighbor (unless it is the
// originator or already has an equal-or-newer copy, per spec §4.4's
// flooding exclusion rule) and adds it to the retransmission list with a
// timer.
func (n *Neighbor) Flood(lsa ospf.LSA, have ospf.LSA, haveOK bool) (event.Event, bool) {
	if lsa.Key.Originator == n.Peer {
		return event.Event{}, false
	}
	if haveOK && !lsa.Newer(have) {
		return event.Event{}, false
	}
	n.retransmit[lsa.Key] = lsa
	return event.NewOSPFLSU(n.Self, n.Peer, []ospf.LSA{lsa}), true
}

// TriggerTimeout re-sends every outstanding retransmission-list entry
// (spec §4.4: unacknowledged flooded LSAs are periodically retransmitted
// until acked or superseded).
func (n *Neighbor) TriggerTimeout() []event.Event {
	if len(n.retransmit) == 0 {
		return nil
	}
	keys := make([]ospf.Key, 0, len(n.retransmit))
	for k := range n.retransmit {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	lsas := make([]ospf.LSA, 0, len(keys))
	for _, k := range keys {
		lsas = append(lsas, n.retransmit[k])
	}
	return []event.Event{event.NewOSPFLSU(n.Self, n.Peer, lsas)}
}

// PendingAck reports whether key is awaiting acknowledgement from this
// neighbor (used by MaxAge ack-then-remove tracking to decide whether a
// retiring LSA can be physically removed yet).
func (n *Neighbor) PendingAck(key ospf.Key) bool {
	_, ok := n.retransmit[key]
	return ok
}

// RetransmitTag returns this neighbor's retransmission-timer tag.
func (n *Neighbor) RetransmitTag() string { return retransmitTag(n.Peer) }
