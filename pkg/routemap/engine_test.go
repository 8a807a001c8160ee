package routemap

import (
	"testing"

	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/prefix"
)

func entry(communities ...bgproute.Community) bgproute.RIBEntry {
	return bgproute.RIBEntry{
		Route: bgproute.Route{
			Prefix:      prefix.MustParseIPv4Net("10.0.0.0/8"),
			NextHop:     id.RouterID(1),
			Communities: communities,
		},
	}
}

// TestCommunityAbsentMatching checks that CommunityAbsent matches exactly
// when the route lacks the community: the item sets MED only when it
// matches, and a route it does not match falls through the list
// unchanged.
func TestCommunityAbsentMatching(t *testing.T) {
	noExport := bgproute.Community{ASN: id.InternalASN, Value: bgproute.CommunityNoExport}

	list := NewList(Item{
		Order:   10,
		State:   Allow,
		Matches: []Match{CommunityAbsent{Community: noExport}},
		Sets:    []SetAction{SetMED{Value: 7}},
		Flow:    Flow{Kind: Exit},
	})

	withCommunity := entry(noExport)
	got, ok := Evaluate(list, withCommunity)
	if !ok || got.Route.MED != nil {
		t.Fatal("item should not match when NO_EXPORT is present; the route falls through unchanged")
	}

	without := entry()
	got, ok = Evaluate(list, without)
	if !ok || got.Route.MEDOrDefault() != 7 {
		t.Fatal("expected the item to match and set MED when NO_EXPORT is absent")
	}
}

func TestDenyDropsRoute(t *testing.T) {
	noExport := bgproute.Community{ASN: id.InternalASN, Value: bgproute.CommunityNoExport}
	list := NewList(Item{
		Order:   5,
		State:   Deny,
		Matches: []Match{CommunityContains{Community: noExport}},
		Flow:    Flow{Kind: Exit},
	})

	_, ok := Evaluate(list, entry(noExport))
	if ok {
		t.Fatal("expected route to be dropped")
	}
}

// TestExitMonotonicity is spec §8 P5: for a list with only Exit
// dispositions and no ContinueAt, replacing a later item must not affect
// routes that exited at an earlier item.
func TestExitMonotonicity(t *testing.T) {
	base := []Item{
		{Order: 10, State: Allow, Matches: []Match{ASPathLength{Exact: intp(0)}}, Flow: Flow{Kind: Exit}},
		{Order: 20, State: Allow, Flow: Flow{Kind: Exit}},
	}
	list1 := NewList(base...)
	e := entry() // empty AS-path, len 0, matches item at order 10

	got1, ok1 := Evaluate(list1, e)
	if !ok1 {
		t.Fatal("expected survival")
	}

	// Now replace the later item (order 20) with something wildly
	// different; the route that exited at order 10 must see no change.
	base[1] = Item{Order: 20, State: Deny, Flow: Flow{Kind: Exit}}
	list2 := NewList(base...)
	got2, ok2 := Evaluate(list2, e)
	if !ok2 {
		t.Fatal("expected survival unaffected by later item change")
	}
	if !got1.Route.Equal(got2.Route) {
		t.Fatal("P5 violated: replacing a later item changed a route that exited earlier")
	}
}

func TestContinueAtSkipsToOrder(t *testing.T) {
	list := NewList(
		Item{Order: 10, State: Allow, Sets: []SetAction{SetLocalPref{Value: 50}}, Flow: Flow{Kind: ContinueAt, At: 30}},
		Item{Order: 20, State: Allow, Sets: []SetAction{SetLocalPref{Value: 999}}, Flow: Flow{Kind: Exit}},
		Item{Order: 30, State: Allow, Sets: []SetAction{SetMED{Value: 7}}, Flow: Flow{Kind: Exit}},
	)
	got, ok := Evaluate(list, entry())
	if !ok {
		t.Fatal("expected survival")
	}
	if got.Route.LocalPrefOrDefault() != 50 {
		t.Fatalf("expected order-10's set to apply, got lp=%d", got.Route.LocalPrefOrDefault())
	}
	if got.Route.MEDOrDefault() != 7 {
		t.Fatalf("expected order-30's set to apply after skip, got med=%d", got.Route.MEDOrDefault())
	}
}

func TestContinueAtNoMatchingOrderReturnsCurrent(t *testing.T) {
	list := NewList(
		Item{Order: 10, State: Allow, Sets: []SetAction{SetMED{Value: 1}}, Flow: Flow{Kind: ContinueAt, At: 999}},
	)
	got, ok := Evaluate(list, entry())
	if !ok || got.Route.MEDOrDefault() != 1 {
		t.Fatalf("expected current route returned when no item has Order >= target")
	}
}

func TestWeightNeverInRoute(t *testing.T) {
	list := NewList(Item{Order: 1, State: Allow, Sets: []SetAction{SetWeight{Value: 500}}, Flow: Flow{Kind: Exit}})
	got, ok := Evaluate(list, entry())
	if !ok {
		t.Fatal("expected survival")
	}
	if got.WeightOrDefault() != 500 {
		t.Fatalf("expected weight set on entry, got %d", got.WeightOrDefault())
	}
}

func intp(v int) *int { return &v }
