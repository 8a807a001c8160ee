package persist

import (
	"fmt"

	"github.com/routesim/netsim/pkg/event"
	"github.com/routesim/netsim/pkg/id"
)

// EventRecord is the JSON encoding of one event.Event. OSPF and Timeout
// payloads are plain data and embed directly; BGPUpdate/BGPWithdraw carry
// a prefix.Prefix, which needs parsePrefix/formatPrefix (and BGPUpdate's
// RIBEntry needs the encodeRIBEntry/decodeRIBEntry codec from route.go).
type EventRecord struct {
	Kind string `json:"kind"`
	Src  uint32 `json:"src"`
	Dst  uint32 `json:"dst"`

	BGPUpdatePrefix string          `json:"bgp_update_prefix,omitempty"`
	BGPUpdateEntry  *RIBEntryRecord `json:"bgp_update_entry,omitempty"`
	BGPWithdrawPrefix string        `json:"bgp_withdraw_prefix,omitempty"`

	OSPFDBD *event.OSPFDatabaseDescription   `json:"ospf_dbd,omitempty"`
	OSPFLSR *event.OSPFLinkStateRequest      `json:"ospf_lsr,omitempty"`
	OSPFLSU *event.OSPFLinkStateUpdate       `json:"ospf_lsu,omitempty"`
	OSPFAck *event.OSPFLinkStateAck          `json:"ospf_ack,omitempty"`
	Timeout *event.Timeout                   `json:"timeout,omitempty"`
}

func encodeEvent(e event.Event, universe string) (EventRecord, error) {
	rec := EventRecord{Kind: e.Kind.String(), Src: uint32(e.Src), Dst: uint32(e.Dst)}
	switch e.Kind {
	case event.KindBGPUpdate:
		rec.BGPUpdatePrefix = formatPrefix(e.BGPUpdate.Prefix)
		entry := encodeRIBEntry(e.BGPUpdate.Entry, universe)
		rec.BGPUpdateEntry = &entry
	case event.KindBGPWithdraw:
		rec.BGPWithdrawPrefix = formatPrefix(e.BGPWithdraw.Prefix)
	case event.KindOSPFStart:
		// no payload beyond Kind/Src/Dst
	case event.KindOSPFDatabaseDescription:
		rec.OSPFDBD = e.OSPFDBD
	case event.KindOSPFLinkStateRequest:
		rec.OSPFLSR = e.OSPFLSR
	case event.KindOSPFLinkStateUpdate:
		rec.OSPFLSU = e.OSPFLSU
	case event.KindOSPFLinkStateAck:
		rec.OSPFAck = e.OSPFAck
	case event.KindTimeout:
		rec.Timeout = e.Timeout
	default:
		return EventRecord{}, fmt.Errorf("persist: unknown event kind %v", e.Kind)
	}
	return rec, nil
}

func decodeEvent(rec EventRecord, universe string) (event.Event, error) {
	src, dst := id.RouterID(rec.Src), id.RouterID(rec.Dst)
	switch rec.Kind {
	case "bgp-update":
		p, err := parsePrefix(universe, rec.BGPUpdatePrefix)
		if err != nil {
			return event.Event{}, err
		}
		if rec.BGPUpdateEntry == nil {
			return event.Event{}, fmt.Errorf("persist: bgp-update event missing entry")
		}
		entry, err := decodeRIBEntry(*rec.BGPUpdateEntry, universe)
		if err != nil {
			return event.Event{}, err
		}
		return event.NewBGPUpdate(src, dst, p, entry), nil
	case "bgp-withdraw":
		p, err := parsePrefix(universe, rec.BGPWithdrawPrefix)
		if err != nil {
			return event.Event{}, err
		}
		return event.NewBGPWithdraw(src, dst, p), nil
	case "ospf-start":
		return event.NewOSPFStart(src, dst), nil
	case "ospf-dbd":
		d := rec.OSPFDBD
		if d == nil {
			d = &event.OSPFDatabaseDescription{}
		}
		return event.NewOSPFDBD(src, dst, d.Headers, d.More, d.Init), nil
	case "ospf-lsr":
		r := rec.OSPFLSR
		if r == nil {
			r = &event.OSPFLinkStateRequest{}
		}
		return event.NewOSPFLSR(src, dst, r.Keys), nil
	case "ospf-lsu":
		u := rec.OSPFLSU
		if u == nil {
			u = &event.OSPFLinkStateUpdate{}
		}
		return event.NewOSPFLSU(src, dst, u.LSAs), nil
	case "ospf-ack":
		a := rec.OSPFAck
		if a == nil {
			a = &event.OSPFLinkStateAck{}
		}
		return event.NewOSPFAck(src, dst, a.Headers), nil
	case "timeout":
		t := rec.Timeout
		if t == nil {
			t = &event.Timeout{}
		}
		if t.HasPeer {
			return event.NewNeighborTimeout(src, t.Peer, t.Tag), nil
		}
		return event.NewTimeout(src, t.Tag), nil
	default:
		return event.Event{}, fmt.Errorf("persist: unknown event kind %q", rec.Kind)
	}
}
