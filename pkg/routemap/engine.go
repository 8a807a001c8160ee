// Package routemap implements the route-map engine (spec §4.2): an
// ordered sequence of match/set items with three flow-control modes,
// evaluated as a small interpreter over an ascending cursor (spec §9).
package routemap

import (
	"fmt"
	"sort"

	"github.com/routesim/netsim/pkg/bgproute"
)

// State is whether a matched item allows or denies the route.
type State int

const (
	Allow State = iota
	Deny
)

// FlowKind distinguishes the three flow dispositions of spec §4.2.
type FlowKind int

const (
	// Exit stops evaluation, keeping the current (possibly transformed)
	// route.
	Exit FlowKind = iota
	// Continue proceeds to the next item in list order.
	Continue
	// ContinueAt skips forward to the first item whose Order >= At.
	ContinueAt
)

// Flow is an item's flow disposition.
type Flow struct {
	Kind FlowKind
	At   int16 // meaningful only when Kind == ContinueAt
}

// Item is one route-map list entry, keyed by a signed 16-bit Order.
type Item struct {
	Order   int16
	State   State
	Matches []Match // conjunction; empty means "always matches"
	Sets    []SetAction
	Flow    Flow
}

// List is an ordered sequence of Items, sorted ascending by Order at
// insertion time so ContinueAt can binary-search for its cursor (spec
// §9).
type List struct {
	items []Item // kept sorted by Order
}

// NewList builds a List from items, sorting once.
func NewList(items ...Item) *List {
	l := &List{items: append([]Item(nil), items...)}
	sort.Slice(l.items, func(i, j int) bool { return l.items[i].Order < l.items[j].Order })
	return l
}

// Insert adds an item, keeping the list sorted by Order. Order values
// are required to be distinct (spec §4.2); inserting a duplicate Order
// replaces the existing item, matching the "ordered list keyed by order"
// configuration-expression semantics of spec §4.9 (insert-or-overwrite
// by subject key).
func (l *List) Insert(it Item) {
	i := sort.Search(len(l.items), func(i int) bool { return l.items[i].Order >= it.Order })
	if i < len(l.items) && l.items[i].Order == it.Order {
		l.items[i] = it
		return
	}
	l.items = append(l.items, Item{})
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = it
}

// Remove deletes the item with the given Order, if present.
func (l *List) Remove(order int16) bool {
	i := sort.Search(len(l.items), func(i int) bool { return l.items[i].Order >= order })
	if i < len(l.items) && l.items[i].Order == order {
		l.items = append(l.items[:i], l.items[i+1:]...)
		return true
	}
	return false
}

func (l *List) Items() []Item {
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

// Evaluate runs the spec §4.2/§4.3 evaluation contract over e, returning
// the (possibly transformed) entry and whether it survived (false means
// the route was denied/dropped — "return none").
//
// Contract: for each item in ascending Order, if its match conjunction
// doesn't hold, move to the next item unchanged. If it holds and State
// is Deny, drop the route. If it holds and State is Allow, apply its Set
// actions in order, then act on Flow: Exit stops with the current route;
// Continue moves to the next item; ContinueAt(k) jumps to the first item
// with Order >= k (or returns the current route if none exists).
func Evaluate(l *List, e bgproute.RIBEntry) (bgproute.RIBEntry, bool) {
	i := 0
	for i < len(l.items) {
		it := l.items[i]
		if !all(it.Matches, e.Route) {
			i++
			continue
		}
		if it.State == Deny {
			var zero bgproute.RIBEntry
			return zero, false
		}
		for _, set := range it.Sets {
			e = set.Apply(e)
		}
		switch it.Flow.Kind {
		case Exit:
			return e, true
		case Continue:
			i++
		case ContinueAt:
			j := sort.Search(len(l.items), func(j int) bool { return l.items[j].Order >= it.Flow.At })
			if j >= len(l.items) {
				return e, true
			}
			i = j
		default:
			panic(fmt.Sprintf("routemap: unknown flow kind %v", it.Flow.Kind))
		}
	}
	return e, true
}
