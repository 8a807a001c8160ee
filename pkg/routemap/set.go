package routemap

import (
	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/id"
)

// SetAction is one set-action of an allowed item, applied in declared
// order (spec §4.2) to the RIB entry under transformation. Operating on
// the whole RIBEntry (not just its Route) lets Weight and IGP-cost
// actions reach fields that live outside the propagated Route, per spec
// §4.2's note that Weight is "visible only at the receiving router."
type SetAction interface {
	Apply(e bgproute.RIBEntry) bgproute.RIBEntry
}

// SetNextHop assigns NEXT_HOP.
type SetNextHop struct{ RouterID id.RouterID }

func (s SetNextHop) Apply(e bgproute.RIBEntry) bgproute.RIBEntry {
	e.Route = e.Route.WithNextHop(s.RouterID)
	return e
}

// SetWeight assigns (or clears, if Clear) local weight. Weight is never
// propagated onward — spec §4.2.
type SetWeight struct {
	Value int
	Clear bool
}

func (s SetWeight) Apply(e bgproute.RIBEntry) bgproute.RIBEntry {
	if s.Clear {
		e.Weight = nil
		return e
	}
	v := s.Value
	e.Weight = &v
	return e
}

// SetLocalPref assigns (or clears) LOCAL_PREF.
type SetLocalPref struct {
	Value int
	Clear bool
}

func (s SetLocalPref) Apply(e bgproute.RIBEntry) bgproute.RIBEntry {
	if s.Clear {
		e.Route.LocalPref = nil
		return e
	}
	v := s.Value
	e.Route.LocalPref = &v
	return e
}

// SetMED assigns (or clears) MED.
type SetMED struct {
	Value int
	Clear bool
}

func (s SetMED) Apply(e bgproute.RIBEntry) bgproute.RIBEntry {
	if s.Clear {
		e.Route.MED = nil
		return e
	}
	v := s.Value
	e.Route.MED = &v
	return e
}

// SetIGPCost assigns the RIB entry's IGP-cost field.
type SetIGPCost struct{ Value float64 }

func (s SetIGPCost) Apply(e bgproute.RIBEntry) bgproute.RIBEntry {
	e.IGPCost = bgproute.NewCost(s.Value)
	return e
}

// AddCommunity adds a community if not already present.
type AddCommunity struct{ Community bgproute.Community }

func (s AddCommunity) Apply(e bgproute.RIBEntry) bgproute.RIBEntry {
	if e.Route.HasCommunity(s.Community) {
		return e
	}
	e.Route.Communities = append(append([]bgproute.Community(nil), e.Route.Communities...), s.Community)
	return e
}

// RemoveCommunity removes a community if present.
type RemoveCommunity struct{ Community bgproute.Community }

func (s RemoveCommunity) Apply(e bgproute.RIBEntry) bgproute.RIBEntry {
	out := e.Route.Communities[:0:0]
	for _, c := range e.Route.Communities {
		if c != s.Community {
			out = append(out, c)
		}
	}
	e.Route.Communities = out
	return e
}
