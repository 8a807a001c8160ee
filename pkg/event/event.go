// Package event defines the messages that flow through the simulator's
// event queue (spec §2 "Event", §4 "handle_event"): BGP route
// advertisements/withdrawals and OSPF neighbor-exchange messages, plus
// the envelope that carries one from a source router to a destination
// router over a given link.
package event

import (
	"fmt"

	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/ospf"
	"github.com/routesim/netsim/pkg/prefix"
)

// Kind discriminates an Event's payload.
type Kind int

const (
	KindBGPUpdate Kind = iota
	KindBGPWithdraw
	KindOSPFStart
	KindOSPFDatabaseDescription
	KindOSPFLinkStateRequest
	KindOSPFLinkStateUpdate
	KindOSPFLinkStateAck
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindBGPUpdate:
		return "bgp-update"
	case KindBGPWithdraw:
		return "bgp-withdraw"
	case KindOSPFStart:
		return "ospf-start"
	case KindOSPFDatabaseDescription:
		return "ospf-dbd"
	case KindOSPFLinkStateRequest:
		return "ospf-lsr"
	case KindOSPFLinkStateUpdate:
		return "ospf-lsu"
	case KindOSPFLinkStateAck:
		return "ospf-ack"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// BGPUpdate carries one advertised RIB entry for Prefix.
type BGPUpdate struct {
	Prefix prefix.Prefix
	Entry  bgproute.RIBEntry
}

// BGPWithdraw retracts a previously advertised route for Prefix.
type BGPWithdraw struct {
	Prefix prefix.Prefix
}

// OSPFStart signals that a neighbor relationship should begin forming
// (spec §4.4 neighbor FSM: Down -> Init).
type OSPFStart struct{}

// OSPFDatabaseDescription carries a batch of LSA headers during the
// Exchange state.
type OSPFDatabaseDescription struct {
	Headers []ospf.Header
	More    bool
	Init    bool // first DBD packet of the exchange (ExStart handshake)
}

// OSPFLinkStateRequest asks the neighbor to send full LSAs for Keys.
type OSPFLinkStateRequest struct {
	Keys []ospf.Key
}

// OSPFLinkStateUpdate carries full LSAs, flooded or sent in response to a
// request.
type OSPFLinkStateUpdate struct {
	LSAs []ospf.LSA
}

// OSPFLinkStateAck acknowledges receipt of the given LSA headers, used to
// retire retransmissions and to drive MaxAge ack-then-remove (spec §4.4).
type OSPFLinkStateAck struct {
	Headers []ospf.Header
}

// Timeout is a self-addressed wakeup, used for retransmission timers.
// It is an ordinary queue entry, delivered in queue order.
type Timeout struct {
	// Tag identifies which timer fired, interpreted by the receiving
	// router's component (e.g. "retransmit").
	Tag string
	// Peer is set for neighbor-scoped timers (e.g. OSPF retransmission)
	// so the dispatcher can route the wakeup without parsing Tag.
	Peer    id.RouterID
	HasPeer bool
}

// Event is one message in flight between two routers over a specific
// link, carried by the kernel's event queue.
type Event struct {
	Kind Kind
	Src  id.RouterID
	Dst  id.RouterID

	BGPUpdate   *BGPUpdate
	BGPWithdraw *BGPWithdraw

	OSPFStart     *OSPFStart
	OSPFDBD       *OSPFDatabaseDescription
	OSPFLSR       *OSPFLinkStateRequest
	OSPFLSU       *OSPFLinkStateUpdate
	OSPFAck       *OSPFLinkStateAck
	Timeout       *Timeout
}

func (e Event) String() string {
	return fmt.Sprintf("Event{%s %s->%s}", e.Kind, e.Src, e.Dst)
}

// SessionKey identifies the ordered channel an event belongs to: all
// events between the same ordered (Src, Dst) pair must be delivered FIFO
// relative to each other, per spec §2's per-session ordering invariant.
// BGP and OSPF traffic between the same two routers share one session
// (a router processes messages from a given neighbor in the order they
// were sent, regardless of protocol).
type SessionKey struct {
	Src id.RouterID
	Dst id.RouterID
}

// Session returns the ordering key for e.
func (e Event) Session() SessionKey { return SessionKey{Src: e.Src, Dst: e.Dst} }

// NewBGPUpdate builds an Event carrying a BGP update.
func NewBGPUpdate(src, dst id.RouterID, p prefix.Prefix, entry bgproute.RIBEntry) Event {
	return Event{Kind: KindBGPUpdate, Src: src, Dst: dst, BGPUpdate: &BGPUpdate{Prefix: p, Entry: entry}}
}

// NewBGPWithdraw builds an Event carrying a BGP withdrawal.
func NewBGPWithdraw(src, dst id.RouterID, p prefix.Prefix) Event {
	return Event{Kind: KindBGPWithdraw, Src: src, Dst: dst, BGPWithdraw: &BGPWithdraw{Prefix: p}}
}

// NewOSPFStart builds an Event that kicks off neighbor formation.
func NewOSPFStart(src, dst id.RouterID) Event {
	return Event{Kind: KindOSPFStart, Src: src, Dst: dst, OSPFStart: &OSPFStart{}}
}

// NewOSPFDBD builds a database-description Event.
func NewOSPFDBD(src, dst id.RouterID, headers []ospf.Header, more, init bool) Event {
	return Event{Kind: KindOSPFDatabaseDescription, Src: src, Dst: dst, OSPFDBD: &OSPFDatabaseDescription{Headers: headers, More: more, Init: init}}
}

// NewOSPFLSR builds a link-state-request Event.
func NewOSPFLSR(src, dst id.RouterID, keys []ospf.Key) Event {
	return Event{Kind: KindOSPFLinkStateRequest, Src: src, Dst: dst, OSPFLSR: &OSPFLinkStateRequest{Keys: keys}}
}

// NewOSPFLSU builds a link-state-update Event.
func NewOSPFLSU(src, dst id.RouterID, lsas []ospf.LSA) Event {
	return Event{Kind: KindOSPFLinkStateUpdate, Src: src, Dst: dst, OSPFLSU: &OSPFLinkStateUpdate{LSAs: lsas}}
}

// NewOSPFAck builds a link-state-acknowledgement Event.
func NewOSPFAck(src, dst id.RouterID, headers []ospf.Header) Event {
	return Event{Kind: KindOSPFLinkStateAck, Src: src, Dst: dst, OSPFAck: &OSPFLinkStateAck{Headers: headers}}
}

// NewTimeout builds a self-addressed timeout Event (Src == Dst) not
// scoped to any particular neighbor.
func NewTimeout(router id.RouterID, tag string) Event {
	return Event{Kind: KindTimeout, Src: router, Dst: router, Timeout: &Timeout{Tag: tag}}
}

// NewNeighborTimeout builds a self-addressed timeout Event scoped to a
// specific OSPF neighbor (e.g. a retransmission timer).
func NewNeighborTimeout(router id.RouterID, peer id.RouterID, tag string) Event {
	return Event{Kind: KindTimeout, Src: router, Dst: router, Timeout: &Timeout{Tag: tag, Peer: peer, HasPeer: true}}
}
