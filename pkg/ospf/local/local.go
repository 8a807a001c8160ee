// Package local implements the OSPF "local"/distributed coordinator mode
// (spec §4.4, component F): one Coordinator per router per area, owning
// that router's link-state database and its neighbor adjacencies, and
// driving self-origination, flooding, and MaxAge retirement entirely
// through exchanged events.
package local

import (
	"sort"

	"github.com/routesim/netsim/pkg/event"
	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/ospf"
	"github.com/routesim/netsim/pkg/ospf/global"
	"github.com/routesim/netsim/pkg/ospf/neighbor"
)

// Coordinator is one router's distributed OSPF process for a single
// area.
type Coordinator struct {
	Self id.RouterID
	Area ospf.Area

	db        *ospf.AreaDB
	neighbors map[id.RouterID]*neighbor.Neighbor
	links     map[id.RouterID]float64 // this router's own intra-area links
	selfSeqNo int64

	externalSeqNo map[id.RouterID]int64 // per externally-advertised target
}

// NewCoordinator creates a coordinator for self in area, with an empty
// database.
func NewCoordinator(self id.RouterID, area ospf.Area) *Coordinator {
	return &Coordinator{
		Self:          self,
		Area:          area,
		db:            ospf.NewAreaDB(self),
		neighbors:     make(map[id.RouterID]*neighbor.Neighbor),
		links:         make(map[id.RouterID]float64),
		externalSeqNo: make(map[id.RouterID]int64),
	}
}

// Table returns this router's computed area routing table.
func (c *Coordinator) Table() map[id.RouterID]ospf.SPFEntry { return c.db.Table() }

// Database returns the underlying area database (for formatting/replay).
func (c *Coordinator) Database() *ospf.AreaDB { return c.db }

// AddLink establishes an intra-area neighbor relationship and
// re-originates this router's Router-LSA to include it. Returns the
// events to send: a flood of the updated self-LSA to every Full or
// Loading neighbor and the initial ExStart database description to the
// peer.
func (c *Coordinator) AddLink(peer id.RouterID, weight float64) []event.Event {
	c.links[peer] = weight
	if _, ok := c.neighbors[peer]; !ok {
		c.neighbors[peer] = neighbor.NewNeighbor(c.Self, peer, c.Area)
	}
	// Re-originate first so the new link is already reflected in our
	// own Router-LSA by the time the ExStart handshake's initial DBD
	// summarizes our database to the new neighbor.
	out := c.reoriginateSelf()
	out = append(out, c.neighbors[peer].HandleStart(c.db).Send...)
	return out
}

// RemoveLink tears down a neighbor relationship and re-originates this
// router's Router-LSA without it.
func (c *Coordinator) RemoveLink(peer id.RouterID) []event.Event {
	delete(c.links, peer)
	delete(c.neighbors, peer)
	return c.reoriginateSelf()
}

// reoriginateSelf rebuilds and floods this router's own Router-LSA from
// the current link set.
func (c *Coordinator) reoriginateSelf() []event.Event {
	links := make([]ospf.Link, 0, len(c.links))
	for peer, w := range c.links {
		links = append(links, ospf.Link{Neighbor: peer, Weight: w})
	}
	sort.Slice(links, func(i, j int) bool { return links[i].Neighbor < links[j].Neighbor })

	key := ospf.RouterKey(c.Self)
	prev, hadPrev := c.db.Get(key)
	seq := int64(1)
	if hadPrev {
		seq = prev.NextSeqNo()
	}
	c.selfSeqNo = seq
	lsa := ospf.LSA{Key: key, SeqNo: seq, Age: ospf.Fresh, Router: &ospf.RouterBody{Links: links}}
	c.db.Insert(lsa)
	return c.floodToFull(lsa, nil)
}

// SetExternal originates or refreshes an External-LSA advertising target
// at cost, flooding it to every Full or Loading neighbor.
func (c *Coordinator) SetExternal(target id.RouterID, cost float64) []event.Event {
	key := ospf.ExternalKey(c.Self, target)
	seq := c.externalSeqNo[target] + 1
	c.externalSeqNo[target] = seq
	lsa := ospf.LSA{Key: key, SeqNo: seq, Age: ospf.Fresh, External: &ospf.ExternalBody{Cost: cost}}
	c.db.Insert(lsa)
	return c.floodToFull(lsa, nil)
}

// WithdrawExternal sets a previously-originated External-LSA to MaxAge
// and floods the retraction; the LSA is only physically removed once
// every Full neighbor has acknowledged it (spec §4.4 ack-then-remove),
// or immediately if there are no Full neighbors in the area.
func (c *Coordinator) WithdrawExternal(target id.RouterID) []event.Event {
	key := ospf.ExternalKey(c.Self, target)
	existing, ok := c.db.Get(key)
	if !ok {
		return nil
	}
	seq := existing.NextSeqNo()
	lsa := ospf.LSA{Key: key, SeqNo: seq, Age: ospf.MaxAgeFlag, External: existing.External}
	c.db.Insert(lsa)
	out := c.floodToFull(lsa, nil)
	if !c.anyFull() {
		c.db.Remove(key)
	}
	return out
}

// floodToFull sends lsa to every Full or Loading neighbor other than
// exclude.
func (c *Coordinator) floodToFull(lsa ospf.LSA, exclude *id.RouterID) []event.Event {
	var out []event.Event
	peers := make([]id.RouterID, 0, len(c.neighbors))
	for peer := range c.neighbors {
		peers = append(peers, peer)
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i] < peers[j] })
	for _, peer := range peers {
		if exclude != nil && peer == *exclude {
			continue
		}
		n := c.neighbors[peer]
		if n.State != neighbor.Full && n.State != neighbor.Loading {
			continue
		}
		if ev, ok := n.Flood(lsa, ospf.LSA{}, false); ok {
			out = append(out, ev)
			out = append(out, event.NewNeighborTimeout(c.Self, peer, n.RetransmitTag()))
		}
	}
	return out
}

func (c *Coordinator) anyFull() bool {
	for _, n := range c.neighbors {
		if n.State == neighbor.Full {
			return true
		}
	}
	return false
}

// HandleEvent dispatches an inbound OSPF event to the owning neighbor
// and returns whatever events must be sent in response. A learned LSA
// that is new, or newer than the installed copy, is installed into the
// database and reflooded to every other Full or Loading neighbor; any
// other learned LSA is dropped.
func (c *Coordinator) HandleEvent(e event.Event) []event.Event {
	if e.Kind == event.KindTimeout {
		if e.Timeout == nil || !e.Timeout.HasPeer {
			return nil
		}
		n, ok := c.neighbors[e.Timeout.Peer]
		if !ok {
			return nil
		}
		out := n.TriggerTimeout()
		if len(out) > 0 {
			// Still awaiting acks for at least one entry; rearm the timer
			// so this neighbor's retransmission list keeps getting retried
			// until everything is acknowledged.
			out = append(out, event.NewNeighborTimeout(c.Self, e.Timeout.Peer, n.RetransmitTag()))
		}
		return out
	}

	n, ok := c.neighbors[e.Src]
	if !ok {
		n = neighbor.NewNeighbor(c.Self, e.Src, c.Area)
		c.neighbors[e.Src] = n
	}

	var outcome neighbor.Outcome
	switch e.Kind {
	case event.KindOSPFStart:
		outcome = n.HandleStart(c.db)
	case event.KindOSPFDatabaseDescription:
		outcome = n.HandleDBD(c.db, e.OSPFDBD)
	case event.KindOSPFLinkStateRequest:
		outcome = n.HandleLSR(c.db, e.OSPFLSR)
	case event.KindOSPFLinkStateUpdate:
		outcome = n.HandleLSU(e.OSPFLSU)
	case event.KindOSPFLinkStateAck:
		n.HandleAck(e.OSPFAck)
		c.reapAcked()
		return nil
	default:
		return nil
	}

	out := append([]event.Event(nil), outcome.Send...)
	for _, lsa := range outcome.Learn {
		if lsa.Key.Originator == c.Self {
			continue // never install a "received" copy of our own LSA
		}
		if have, ok := c.db.Get(lsa.Key); ok && !lsa.Newer(have) {
			continue // not newer than the installed copy: neither installed nor reflooded
		}
		c.db.Insert(lsa)
		src := e.Src
		out = append(out, c.floodToFull(lsa, &src)...)
	}
	return out
}

// reapAcked physically removes any MaxAge LSA no longer pending
// acknowledgement at any neighbor.
func (c *Coordinator) reapAcked() {
	for _, lsa := range c.db.All() {
		if lsa.Age != ospf.MaxAgeFlag {
			continue
		}
		if c.anyPending(lsa.Key) {
			continue
		}
		c.db.Remove(lsa.Key)
	}
}

func (c *Coordinator) anyPending(key ospf.Key) bool {
	for _, n := range c.neighbors {
		if n.PendingAck(key) {
			return true
		}
	}
	return false
}

// ToGlobal exports this coordinator's current database as a
// global.AreaInput, used when switching a router from distributed to
// oracle OSPF mode without losing its accumulated state.
func (c *Coordinator) ToGlobal() global.AreaInput {
	input := global.AreaInput{Area: c.Area}
	for _, lsa := range c.db.All() {
		switch lsa.Key.Type {
		case ospf.RouterLSA:
			input.RouterLSAs = append(input.RouterLSAs, lsa)
		case ospf.SummaryLSA:
			input.SummaryLSAs = append(input.SummaryLSAs, lsa)
		case ospf.ExternalLSA:
			input.ExternalLSAs = append(input.ExternalLSAs, lsa)
		}
	}
	return input
}

// FromGlobal installs every LSA from db into c, used when switching a
// router from oracle back to distributed OSPF mode.
func (c *Coordinator) FromGlobal(db *ospf.AreaDB) {
	for _, lsa := range db.All() {
		c.db.Insert(lsa)
	}
}
