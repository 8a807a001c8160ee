package config

import (
	"testing"

	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/routemap"
)

func TestInsertRemoveRoundTrip(t *testing.T) {
	c := New()
	s := LinkSubject(id.RouterID(0), id.RouterID(1))

	if err := c.Apply(Patch{{Kind: Insert, Subject: s, To: Value{Weight: 10}}}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, ok := c.Get(s)
	if !ok || got.Value.Weight != 10 {
		t.Fatalf("expected weight 10, got %+v ok=%v", got, ok)
	}

	if err := c.Apply(Patch{{Kind: Insert, Subject: s, To: Value{Weight: 20}}}); err == nil {
		t.Fatal("expected ConfigExprOverload on duplicate insert")
	}

	if err := c.Apply(Patch{{Kind: Remove, Subject: s}}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := c.Get(s); ok {
		t.Fatal("expected subject removed")
	}
}

func TestUpdatePreconditionFailurePreservesState(t *testing.T) {
	c := New()
	s := LinkSubject(id.RouterID(2), id.RouterID(3))
	if err := c.Apply(Patch{{Kind: Insert, Subject: s, To: Value{Weight: 5}}}); err != nil {
		t.Fatal(err)
	}

	badFrom := Value{Weight: 999}
	patch := Patch{{Kind: Update, Subject: s, From: &badFrom, To: Value{Weight: 7}}}
	if err := c.Apply(patch); err == nil {
		t.Fatal("expected precondition failure")
	}

	got, ok := c.Get(s)
	if !ok || got.Value.Weight != 5 {
		t.Fatalf("expected unchanged weight 5 after failed update, got %+v ok=%v", got, ok)
	}
}

func TestApplyIsAllOrNothing(t *testing.T) {
	c := New()
	s1 := SessionSubject(id.RouterID(0), id.RouterID(1))
	s2 := SessionSubject(id.RouterID(1), id.RouterID(2))

	patch := Patch{
		{Kind: Insert, Subject: s1, To: Value{SessionType: bgproute.SessionIBGPPeer}},
		{Kind: Remove, Subject: s2}, // s2 was never inserted: this step fails
	}
	if err := c.Apply(patch); err == nil {
		t.Fatal("expected the batch to fail")
	}
	if _, ok := c.Get(s1); ok {
		t.Fatal("expected no partial mutation: s1 should not have been inserted")
	}
}

func TestBatchRouteMapEditDuplicateOrderRejected(t *testing.T) {
	c := New()
	router := id.RouterID(0)
	peer := id.RouterID(1)

	m := Modifier{
		Kind:   BatchRouteMapEdit,
		Router: router,
		Edits: []RouteMapEdit{
			{Peer: peer, Dir: Out, Item: routemap.Item{Order: 10, State: routemap.Allow}},
			{Peer: peer, Dir: Out, Item: routemap.Item{Order: 10, State: routemap.Deny}},
		},
	}
	if err := c.Apply(Patch{m}); err == nil {
		t.Fatal("expected duplicate-order rejection")
	}
	if _, ok := c.Get(RouteMapSubject(router, peer, Out, 10)); ok {
		t.Fatal("expected no partial mutation on a rejected batch")
	}
}

func TestBatchRouteMapEditInsertAndDelete(t *testing.T) {
	c := New()
	router := id.RouterID(0)
	peer := id.RouterID(1)
	s := RouteMapSubject(router, peer, In, 10)

	insert := Modifier{
		Kind:   BatchRouteMapEdit,
		Router: router,
		Edits:  []RouteMapEdit{{Peer: peer, Dir: In, Item: routemap.Item{Order: 10, State: routemap.Allow}}},
	}
	if err := c.Apply(Patch{insert}); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(s); !ok {
		t.Fatal("expected route-map item claimed")
	}

	del := Modifier{
		Kind:   BatchRouteMapEdit,
		Router: router,
		Edits:  []RouteMapEdit{{Peer: peer, Dir: In, Item: routemap.Item{Order: 10}, DeleteOrder: true}},
	}
	if err := c.Apply(Patch{del}); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(s); ok {
		t.Fatal("expected route-map item removed")
	}
}

func TestDiffRoundTrip(t *testing.T) {
	a := New()
	lw := LinkSubject(id.RouterID(0), id.RouterID(1))
	lb := LoadBalancingSubject(id.RouterID(0))
	if err := a.Claim(Expr{Subject: lw, Value: Value{Weight: 1}}); err != nil {
		t.Fatal(err)
	}
	if err := a.Claim(Expr{Subject: lb, Value: Value{LBEnabled: false}}); err != nil {
		t.Fatal(err)
	}

	b := New()
	if err := b.Claim(Expr{Subject: lw, Value: Value{Weight: 3}}); err != nil {
		t.Fatal(err)
	}
	as := SessionSubject(id.RouterID(5), id.RouterID(6))
	if err := b.Claim(Expr{Subject: as, Value: Value{SessionType: bgproute.SessionEBGP}}); err != nil {
		t.Fatal(err)
	}
	// lb is present in a but absent in b: Diff should remove it.

	patch := a.Diff(b)
	if err := a.Apply(patch); err != nil {
		t.Fatalf("applying diff patch: %v", err)
	}

	for _, s := range b.Subjects() {
		got, ok := a.Get(s)
		want, _ := b.Get(s)
		if !ok || got.Value.String(s.Kind) != want.Value.String(s.Kind) {
			t.Fatalf("subject %s: got %+v ok=%v, want %+v", s, got, ok, want)
		}
	}
	if _, ok := a.Get(lb); ok {
		t.Fatal("expected lb subject removed after applying diff")
	}
}
