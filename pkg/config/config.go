// Package config implements the declarative configuration model (spec
// §4.9, component L): a set of expressions keyed by subject, a patch
// language of modifiers that mutate a Config under a precondition, and a
// diff operation that derives the patch turning one Config into another.
// Grounded on the teacher's pkg/spec (a declarative set of expressions
// loaded from file, cross-validated) for the "expressions keyed by
// subject" shape, and pkg/network/changeset.go (Change/ChangeSet,
// ChangeAdd/Modify/Delete) for the patch-modifier shape — this package's
// Insert/Remove/Update map onto the teacher's ChangeAdd/ChangeDelete/
// ChangeModify.
package config

import (
	"fmt"
	"sort"

	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/ospf"
	"github.com/routesim/netsim/pkg/prefix"
	"github.com/routesim/netsim/pkg/routemap"
	"github.com/routesim/netsim/pkg/simerr"
	"github.com/routesim/netsim/pkg/util"
)

// Kind distinguishes the six configurable expression families spec §4.9
// lists: link weight, OSPF area, BGP session, route-map item, static
// route, and the per-router load-balancing flag.
type Kind int

const (
	LinkWeight Kind = iota
	AreaAssignment
	BGPSession
	RouteMapItem
	StaticRoute
	LoadBalancing
)

func (k Kind) String() string {
	switch k {
	case LinkWeight:
		return "link-weight"
	case AreaAssignment:
		return "area"
	case BGPSession:
		return "bgp-session"
	case RouteMapItem:
		return "route-map-item"
	case StaticRoute:
		return "static-route"
	case LoadBalancing:
		return "load-balancing"
	default:
		return "unknown"
	}
}

// Direction is the route-map application direction for a peer.
type Direction int

const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == Out {
		return "out"
	}
	return "in"
}

// Subject identifies the piece of state one configuration expression
// governs. Two expressions with equal Subjects claim the same state;
// inserting one over the other is a ConfigExprOverload.
type Subject struct {
	Kind Kind
	Key  string
}

func (s Subject) String() string { return fmt.Sprintf("%s:%s", s.Kind, s.Key) }

// LinkSubject keys a link-weight expression. Links are undirected, so
// the pair is canonicalized (lower router ID first) to give a and b
// interchangeably the same subject.
func LinkSubject(a, b id.RouterID) Subject {
	if b < a {
		a, b = b, a
	}
	return Subject{Kind: LinkWeight, Key: fmt.Sprintf("%s|%s", a, b)}
}

// AreaSubject keys an OSPF area-assignment expression for link (a, b).
func AreaSubject(a, b id.RouterID) Subject {
	if b < a {
		a, b = b, a
	}
	return Subject{Kind: AreaAssignment, Key: fmt.Sprintf("%s|%s", a, b)}
}

// SessionSubject keys a BGP session-type expression for the pair (a, b).
func SessionSubject(a, b id.RouterID) Subject {
	if b < a {
		a, b = b, a
	}
	return Subject{Kind: BGPSession, Key: fmt.Sprintf("%s|%s", a, b)}
}

// RouteMapSubject keys one route-map list entry: the (router, peer,
// direction, order) tuple spec §4.9 names as its example subject.
func RouteMapSubject(router, peer id.RouterID, dir Direction, order int16) Subject {
	return Subject{Kind: RouteMapItem, Key: fmt.Sprintf("%s|%s|%s|%d", router, peer, dir, order)}
}

// StaticRouteSubject keys a static-route override at router for prefix p.
func StaticRouteSubject(router id.RouterID, p prefix.Prefix) Subject {
	return Subject{Kind: StaticRoute, Key: fmt.Sprintf("%s|%s", router, p)}
}

// LoadBalancingSubject keys the load-balancing flag at router.
func LoadBalancingSubject(router id.RouterID) Subject {
	return Subject{Kind: LoadBalancing, Key: router.String()}
}

// Value is the typed payload of one configuration expression. Exactly
// one of these fields is meaningful, selected by the owning Expr's
// Subject.Kind.
type Value struct {
	Weight        float64
	Area          ospf.Area
	SessionType   bgproute.SessionType
	RouteMapItem  routemap.Item
	StaticNextHop id.RouterID
	LBEnabled     bool
}

func (v Value) String(kind Kind) string {
	switch kind {
	case LinkWeight:
		return fmt.Sprintf("%g", v.Weight)
	case AreaAssignment:
		return fmt.Sprintf("%d", v.Area)
	case BGPSession:
		return v.SessionType.String()
	case RouteMapItem:
		return fmt.Sprintf("%+v", v.RouteMapItem)
	case StaticRoute:
		return v.StaticNextHop.String()
	case LoadBalancing:
		return fmt.Sprintf("%v", v.LBEnabled)
	default:
		return ""
	}
}

// Expr is one configuration expression: a subject and the value claimed
// for it.
type Expr struct {
	Subject Subject
	Value   Value
}

// Config is a set of expressions keyed by subject (spec §4.9).
type Config struct {
	exprs map[Subject]Expr
}

// New returns an empty configuration.
func New() *Config {
	return &Config{exprs: make(map[Subject]Expr)}
}

// Claim installs e, returning a ConfigExprOverload error if any
// expression already claims e.Subject. Apply does not use Claim; it goes
// through the modifier preconditions below. Claim is for building up a
// Config from scratch, e.g. while loading a builder document, where any
// duplicate subject is a caller bug.
func (c *Config) Claim(e Expr) error {
	if _, exists := c.exprs[e.Subject]; exists {
		return &simerr.ConfigExprOverloadError{Subject: e.Subject.String()}
	}
	c.exprs[e.Subject] = e
	return nil
}

// Get returns the expression claiming subject s, if any.
func (c *Config) Get(s Subject) (Expr, bool) {
	e, ok := c.exprs[s]
	return e, ok
}

// Subjects returns every claimed subject, sorted for deterministic
// iteration (diff and persistence both depend on this).
func (c *Config) Subjects() []Subject {
	out := make([]Subject, 0, len(c.exprs))
	for s := range c.exprs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Clone returns a deep-enough copy (the Expr values themselves are
// plain data) safe to mutate independently of c.
func (c *Config) Clone() *Config {
	out := New()
	for s, e := range c.exprs {
		out.exprs[s] = e
	}
	return out
}

// Exprs returns every expression in the config, in Subjects order. Used
// by pkg/persist to serialize a Config as part of the persisted-state
// document (spec §6 "config" key).
func (c *Config) Exprs() []Expr {
	subjects := c.Subjects()
	out := make([]Expr, len(subjects))
	for i, s := range subjects {
		out[i] = c.exprs[s]
	}
	return out
}

// FromExprs builds a Config by claiming every expression in exprs,
// failing on the first duplicate subject. Used by pkg/persist to
// restore a Config from a persisted-state document.
func FromExprs(exprs []Expr) (*Config, error) {
	c := New()
	for _, e := range exprs {
		if err := c.Claim(e); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ModifierKind distinguishes the four patch-modifier shapes of spec
// §4.9.
type ModifierKind int

const (
	Insert ModifierKind = iota
	Remove
	Update
	BatchRouteMapEdit
)

// RouteMapEdit is one entry of a BatchRouteMapEdit modifier: either
// install Item at (Router, Peer, Dir, Item.Order), or — when DeleteOrder
// is set — remove whatever item is claimed at that order.
type RouteMapEdit struct {
	Peer        id.RouterID
	Dir         Direction
	Item        routemap.Item
	DeleteOrder bool
}

// Modifier is one step of a Patch.
type Modifier struct {
	Kind ModifierKind

	// Insert / Remove / Update
	Subject Subject
	From    *Value // Update's precondition; nil means "don't check"
	To      Value

	// BatchRouteMapEdit
	Router id.RouterID
	Edits  []RouteMapEdit
}

// Patch is a sequence of modifiers applied in order (spec §4.9).
type Patch []Modifier

// Apply validates and applies every modifier in p to c in order. On the
// first precondition failure, c is left exactly as it was before Apply
// was called (spec §7: "errors never leave the system in a
// partially-mutated state").
func (c *Config) Apply(p Patch) error {
	working := c.Clone()
	for _, m := range p {
		if err := working.applyOne(m); err != nil {
			return err
		}
	}
	*c = *working
	return nil
}

func (c *Config) applyOne(m Modifier) error {
	switch m.Kind {
	case Insert:
		if _, exists := c.exprs[m.Subject]; exists {
			return &simerr.ConfigExprOverloadError{Subject: m.Subject.String()}
		}
		c.exprs[m.Subject] = Expr{Subject: m.Subject, Value: m.To}
		return nil

	case Remove:
		cur, ok := c.exprs[m.Subject]
		if !ok {
			return &simerr.ConfigModifierError{
				Subject:  m.Subject.String(),
				Expected: "present",
				Actual:   "absent",
			}
		}
		if m.From != nil && cur.Value.String(m.Subject.Kind) != m.From.String(m.Subject.Kind) {
			return &simerr.ConfigModifierError{
				Subject:  m.Subject.String(),
				Expected: m.From.String(m.Subject.Kind),
				Actual:   cur.Value.String(m.Subject.Kind),
			}
		}
		delete(c.exprs, m.Subject)
		return nil

	case Update:
		cur, ok := c.exprs[m.Subject]
		curStr := "absent"
		if ok {
			curStr = cur.Value.String(m.Subject.Kind)
		}
		if m.From != nil {
			wantStr := m.From.String(m.Subject.Kind)
			if !ok || curStr != wantStr {
				return &simerr.ConfigModifierError{
					Subject:  m.Subject.String(),
					Expected: wantStr,
					Actual:   curStr,
				}
			}
		} else if !ok {
			return &simerr.ConfigModifierError{
				Subject:  m.Subject.String(),
				Expected: "present",
				Actual:   "absent",
			}
		}
		c.exprs[m.Subject] = Expr{Subject: m.Subject, Value: m.To}
		return nil

	case BatchRouteMapEdit:
		return c.applyBatchRouteMapEdit(m)

	default:
		return &simerr.ConfigModifierError{Subject: "<unknown modifier>", Expected: "a known kind", Actual: fmt.Sprintf("%d", m.Kind)}
	}
}

// applyBatchRouteMapEdit validates every edit in the batch up front
// (duplicate target orders within the same call are a caller bug, not a
// partial failure) before mutating, so a batch either fully applies or
// not at all.
func (c *Config) applyBatchRouteMapEdit(m Modifier) error {
	var v util.ValidationBuilder
	seen := make(map[Subject]bool, len(m.Edits))
	for _, e := range m.Edits {
		s := RouteMapSubject(m.Router, e.Peer, e.Dir, e.Item.Order)
		v.Add(!seen[s], fmt.Sprintf("duplicate edit for subject %s in batch", s))
		seen[s] = true
	}
	if v.HasErrors() {
		return &simerr.ConfigModifierError{
			Subject:  fmt.Sprintf("route-map-batch:%s", m.Router),
			Expected: "distinct orders",
			Actual:   v.Build().Error(),
		}
	}

	for _, e := range m.Edits {
		s := RouteMapSubject(m.Router, e.Peer, e.Dir, e.Item.Order)
		if e.DeleteOrder {
			delete(c.exprs, s)
			continue
		}
		c.exprs[s] = Expr{Subject: s, Value: Value{RouteMapItem: e.Item}}
	}
	return nil
}

// Diff computes the patch that, applied to c, yields other: removals for
// subjects only c has, inserts for subjects only other has, and updates
// for subjects both have with differing values.
func (c *Config) Diff(other *Config) Patch {
	var p Patch
	all := make(map[Subject]bool, len(c.exprs)+len(other.exprs))
	for s := range c.exprs {
		all[s] = true
	}
	for s := range other.exprs {
		all[s] = true
	}
	subjects := make([]Subject, 0, len(all))
	for s := range all {
		subjects = append(subjects, s)
	}
	sort.Slice(subjects, func(i, j int) bool {
		if subjects[i].Kind != subjects[j].Kind {
			return subjects[i].Kind < subjects[j].Kind
		}
		return subjects[i].Key < subjects[j].Key
	})

	for _, s := range subjects {
		from, hadFrom := c.exprs[s]
		to, hasTo := other.exprs[s]
		switch {
		case hadFrom && !hasTo:
			p = append(p, Modifier{Kind: Remove, Subject: s, From: &from.Value})
		case !hadFrom && hasTo:
			p = append(p, Modifier{Kind: Insert, Subject: s, To: to.Value})
		case hadFrom && hasTo && from.Value.String(s.Kind) != to.Value.String(s.Kind):
			p = append(p, Modifier{Kind: Update, Subject: s, From: &from.Value, To: to.Value})
		}
	}
	return p
}
