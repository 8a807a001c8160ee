package kernel

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/event"
	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/prefix"
	"github.com/routesim/netsim/pkg/util"
)

// replayPrefix is a self-describing prefix encoding: kind plus a
// String()-shaped value, so a trace can be replayed without knowing
// which universe produced it (unlike pkg/persist's documents, which
// declare one universe for the whole file).
type replayPrefix struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

func encodeReplayPrefix(p prefix.Prefix) replayPrefix {
	switch v := p.(type) {
	case prefix.IPv4Net:
		return replayPrefix{Kind: "ipv4", Value: v.String()}
	case prefix.Flat:
		return replayPrefix{Kind: "flat", Value: v.String()}
	case prefix.Single:
		return replayPrefix{Kind: "single"}
	default:
		return replayPrefix{Kind: "ipv4", Value: p.String()}
	}
}

func decodeReplayPrefix(rp replayPrefix) (prefix.Prefix, error) {
	switch rp.Kind {
	case "ipv4":
		return prefix.ParseIPv4Net(rp.Value)
	case "flat":
		v, err := strconv.ParseUint(strings.TrimPrefix(rp.Value, "P"), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("kernel: flat prefix %q: %w", rp.Value, err)
		}
		return prefix.Flat(v), nil
	case "single":
		return prefix.Single{}, nil
	default:
		return nil, fmt.Errorf("kernel: unknown replay prefix kind %q", rp.Kind)
	}
}

// replayRoute is a self-contained encoding of bgproute.Route, used only
// by the replay trace (pkg/persist has its own, universe-aware RouteRecord
// for the persisted-state document's RIBs; kernel cannot import pkg/persist,
// which imports pkg/kernel).
type replayRoute struct {
	Prefix       replayPrefix          `json:"prefix"`
	ASPath       []uint32              `json:"as_path,omitempty"`
	NextHop      uint32                `json:"next_hop"`
	LocalPref    *int                  `json:"local_pref,omitempty"`
	MED          *int                  `json:"med,omitempty"`
	Communities  []replayCommunity     `json:"communities,omitempty"`
	OriginatorID *uint32               `json:"originator_id,omitempty"`
	ClusterList  []uint32              `json:"cluster_list,omitempty"`
}

type replayCommunity struct {
	ASN   uint32 `json:"asn"`
	Value uint32 `json:"value"`
}

func encodeReplayRoute(r bgproute.Route) replayRoute {
	out := replayRoute{
		Prefix:    encodeReplayPrefix(r.Prefix),
		NextHop:   uint32(r.NextHop),
		LocalPref: r.LocalPref,
		MED:       r.MED,
	}
	for _, a := range r.ASPath {
		out.ASPath = append(out.ASPath, uint32(a))
	}
	for _, c := range r.Communities {
		out.Communities = append(out.Communities, replayCommunity{ASN: uint32(c.ASN), Value: c.Value})
	}
	if r.OriginatorID != nil {
		v := uint32(*r.OriginatorID)
		out.OriginatorID = &v
	}
	for _, c := range r.ClusterList {
		out.ClusterList = append(out.ClusterList, uint32(c))
	}
	return out
}

func decodeReplayRoute(rr replayRoute) (bgproute.Route, error) {
	p, err := decodeReplayPrefix(rr.Prefix)
	if err != nil {
		return bgproute.Route{}, err
	}
	r := bgproute.Route{Prefix: p, NextHop: id.RouterID(rr.NextHop), LocalPref: rr.LocalPref, MED: rr.MED}
	for _, a := range rr.ASPath {
		r.ASPath = append(r.ASPath, id.ASN(a))
	}
	for _, c := range rr.Communities {
		r.Communities = append(r.Communities, bgproute.Community{ASN: id.ASN(c.ASN), Value: c.Value})
	}
	if rr.OriginatorID != nil {
		v := id.RouterID(*rr.OriginatorID)
		r.OriginatorID = &v
	}
	for _, c := range rr.ClusterList {
		r.ClusterList = append(r.ClusterList, id.RouterID(c))
	}
	return r, nil
}

type replayRIBEntry struct {
	Route   replayRoute `json:"route"`
	Session string      `json:"session"`
	Peer    uint32      `json:"peer"`
	IGPCost *float64    `json:"igp_cost,omitempty"`
	Weight  *int        `json:"weight,omitempty"`
}

func encodeReplayRIBEntry(e bgproute.RIBEntry) replayRIBEntry {
	out := replayRIBEntry{
		Route:   encodeReplayRoute(e.Route),
		Session: e.Session.String(),
		Peer:    uint32(e.Peer),
		Weight:  e.Weight,
	}
	if e.IGPCost.Valid() {
		v := e.IGPCost.Value()
		out.IGPCost = &v
	}
	return out
}

func decodeReplayRIBEntry(rre replayRIBEntry) (bgproute.RIBEntry, error) {
	route, err := decodeReplayRoute(rre.Route)
	if err != nil {
		return bgproute.RIBEntry{}, err
	}
	session, err := bgproute.ParseSessionType(rre.Session)
	if err != nil {
		return bgproute.RIBEntry{}, err
	}
	entry := bgproute.RIBEntry{Route: route, Session: session, Peer: id.RouterID(rre.Peer), Weight: rre.Weight}
	if rre.IGPCost != nil {
		entry.IGPCost = bgproute.NewCost(*rre.IGPCost)
	}
	return entry, nil
}

// replayEntry is one line of a replay trace (spec §6 "Replay format":
// an (Event, optional precondition-index) pair, keyed "replay" in a
// persisted document). PreconditionIndex is carried through but unused by
// Replay itself — it records, for audit, how many events the network had
// processed when the event was enqueued during capture.
type replayEntry struct {
	Kind              string `json:"kind"`
	Src               uint32 `json:"src"`
	Dst               uint32 `json:"dst"`
	PreconditionIndex *int   `json:"precondition_index,omitempty"`

	BGPUpdatePrefix   *replayPrefix   `json:"bgp_update_prefix,omitempty"`
	BGPUpdateEntry    *replayRIBEntry `json:"bgp_update_entry,omitempty"`
	BGPWithdrawPrefix *replayPrefix   `json:"bgp_withdraw_prefix,omitempty"`

	OSPFDBD *event.OSPFDatabaseDescription `json:"ospf_dbd,omitempty"`
	OSPFLSR *event.OSPFLinkStateRequest    `json:"ospf_lsr,omitempty"`
	OSPFLSU *event.OSPFLinkStateUpdate     `json:"ospf_lsu,omitempty"`
	OSPFAck *event.OSPFLinkStateAck        `json:"ospf_ack,omitempty"`
	Timeout *event.Timeout                 `json:"timeout,omitempty"`
}

func encodeReplayEntry(e event.Event, preconditionIndex int) (replayEntry, error) {
	re := replayEntry{Kind: e.Kind.String(), Src: uint32(e.Src), Dst: uint32(e.Dst)}
	if preconditionIndex >= 0 {
		re.PreconditionIndex = &preconditionIndex
	}
	switch e.Kind {
	case event.KindBGPUpdate:
		p := encodeReplayPrefix(e.BGPUpdate.Prefix)
		re.BGPUpdatePrefix = &p
		entry := encodeReplayRIBEntry(e.BGPUpdate.Entry)
		re.BGPUpdateEntry = &entry
	case event.KindBGPWithdraw:
		p := encodeReplayPrefix(e.BGPWithdraw.Prefix)
		re.BGPWithdrawPrefix = &p
	case event.KindOSPFStart:
	case event.KindOSPFDatabaseDescription:
		re.OSPFDBD = e.OSPFDBD
	case event.KindOSPFLinkStateRequest:
		re.OSPFLSR = e.OSPFLSR
	case event.KindOSPFLinkStateUpdate:
		re.OSPFLSU = e.OSPFLSU
	case event.KindOSPFLinkStateAck:
		re.OSPFAck = e.OSPFAck
	case event.KindTimeout:
		re.Timeout = e.Timeout
	default:
		return replayEntry{}, fmt.Errorf("kernel: unknown event kind %v", e.Kind)
	}
	return re, nil
}

func decodeReplayEntry(re replayEntry) (event.Event, error) {
	src, dst := id.RouterID(re.Src), id.RouterID(re.Dst)
	switch re.Kind {
	case "bgp-update":
		if re.BGPUpdatePrefix == nil || re.BGPUpdateEntry == nil {
			return event.Event{}, fmt.Errorf("kernel: bgp-update replay entry missing payload")
		}
		p, err := decodeReplayPrefix(*re.BGPUpdatePrefix)
		if err != nil {
			return event.Event{}, err
		}
		entry, err := decodeReplayRIBEntry(*re.BGPUpdateEntry)
		if err != nil {
			return event.Event{}, err
		}
		return event.NewBGPUpdate(src, dst, p, entry), nil
	case "bgp-withdraw":
		if re.BGPWithdrawPrefix == nil {
			return event.Event{}, fmt.Errorf("kernel: bgp-withdraw replay entry missing prefix")
		}
		p, err := decodeReplayPrefix(*re.BGPWithdrawPrefix)
		if err != nil {
			return event.Event{}, err
		}
		return event.NewBGPWithdraw(src, dst, p), nil
	case "ospf-start":
		return event.NewOSPFStart(src, dst), nil
	case "ospf-dbd":
		d := re.OSPFDBD
		if d == nil {
			d = &event.OSPFDatabaseDescription{}
		}
		return event.NewOSPFDBD(src, dst, d.Headers, d.More, d.Init), nil
	case "ospf-lsr":
		r := re.OSPFLSR
		if r == nil {
			r = &event.OSPFLinkStateRequest{}
		}
		return event.NewOSPFLSR(src, dst, r.Keys), nil
	case "ospf-lsu":
		u := re.OSPFLSU
		if u == nil {
			u = &event.OSPFLinkStateUpdate{}
		}
		return event.NewOSPFLSU(src, dst, u.LSAs), nil
	case "ospf-ack":
		a := re.OSPFAck
		if a == nil {
			a = &event.OSPFLinkStateAck{}
		}
		return event.NewOSPFAck(src, dst, a.Headers), nil
	case "timeout":
		t := re.Timeout
		if t == nil {
			t = &event.Timeout{}
		}
		if t.HasPeer {
			return event.NewNeighborTimeout(src, t.Peer, t.Tag), nil
		}
		return event.NewTimeout(src, t.Tag), nil
	default:
		return event.Event{}, fmt.Errorf("kernel: unknown replay event kind %q", re.Kind)
	}
}

// record mirrors e to the active recorder (set via Record) as one JSON
// replay-entry line (spec §6 "Replay format"). A trace captured this way
// can be fed back through Replay to reconstruct the same event sequence
// against a fresh network.
func (n *Network) record(e event.Event) {
	if n.recorder == nil {
		return
	}
	re, err := encodeReplayEntry(e, n.eventsProcessed)
	if err != nil {
		util.Logger.WithError(err).Warn("kernel: failed to encode replay entry")
		return
	}
	line, err := json.Marshal(re)
	if err != nil {
		util.Logger.WithError(err).Warn("kernel: failed to marshal replay entry")
		return
	}
	line = append(line, '\n')
	if _, err := n.recorder.Write(line); err != nil {
		util.Logger.WithError(err).Warn("kernel: failed to write replay entry")
	}
}

// Replay reads a JSON-lines replay trace written by Record and enqueues
// every event it describes, in order, without delivering them — the
// caller drives convergence by calling Simulate afterward. Router IDs in
// the trace must refer to routers already present in n (spec §6:
// "Events ... carry router IDs referring to the loaded network").
func (n *Network) Replay(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var re replayEntry
		if err := json.Unmarshal([]byte(line), &re); err != nil {
			return fmt.Errorf("kernel: replay line %d: %w", lineNo, err)
		}
		e, err := decodeReplayEntry(re)
		if err != nil {
			return fmt.Errorf("kernel: replay line %d: %w", lineNo, err)
		}
		n.Enqueue(e)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("kernel: replay: %w", err)
	}
	return nil
}
