package ospf

import (
	"container/heap"
	"sort"

	"github.com/routesim/netsim/pkg/id"
)

// SPFEntry is one destination's shortest-path result: the cost from the
// local router and the union of next-hop neighbors on shortest paths
// (for ECMP), per spec §4.3.
type SPFEntry struct {
	Cost     float64
	NextHops []id.RouterID // sorted ascending; empty (nil) for the root (self, cost 0)
}

// AreaDB is one router's link-state database and derived SPF table for a
// single OSPF area (spec §3 "Area data structure").
type AreaDB struct {
	Root id.RouterID
	lsas map[Key]LSA

	// pendingRemoval holds LSAs that have been set to MaxAge locally but
	// are still being flooded, awaiting neighbor acknowledgement before
	// physical removal (spec §4.4 MaxAge tracking).
	pendingRemoval map[Key]bool
	// queuedReplacement holds a replacement LSA to install once the
	// pending removal completes.
	queuedReplacement map[Key]LSA

	table map[id.RouterID]SPFEntry
}

// NewAreaDB creates an empty area database rooted at root.
func NewAreaDB(root id.RouterID) *AreaDB {
	return &AreaDB{
		Root:              root,
		lsas:              make(map[Key]LSA),
		pendingRemoval:    make(map[Key]bool),
		queuedReplacement: make(map[Key]LSA),
		table:             make(map[id.RouterID]SPFEntry),
	}
}

// Get returns the stored LSA for key, if any.
func (a *AreaDB) Get(key Key) (LSA, bool) {
	l, ok := a.lsas[key]
	return l, ok
}

// All returns every stored LSA (including those pending removal), for
// database-description exchange and formatting.
func (a *AreaDB) All() []LSA {
	out := make([]LSA, 0, len(a.lsas))
	for _, l := range a.lsas {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Type != out[j].Key.Type {
			return out[i].Key.Type < out[j].Key.Type
		}
		return out[i].Key.Originator < out[j].Key.Originator
	})
	return out
}

// Insert installs or overwrites lsa by key and recomputes SPF if the
// topology it induces changed. Returns whether SPF changed.
func (a *AreaDB) Insert(lsa LSA) bool {
	a.lsas[lsa.Key] = lsa
	if lsa.Age == MaxAgeFlag {
		a.pendingRemoval[lsa.Key] = true
	} else {
		delete(a.pendingRemoval, lsa.Key)
	}
	return a.UpdateRoutingTable()
}

// Remove deletes the LSA at key (used once all neighbors have
// acknowledged a MaxAge LSA) and installs any queued replacement.
// Returns whether SPF changed.
func (a *AreaDB) Remove(key Key) bool {
	delete(a.lsas, key)
	delete(a.pendingRemoval, key)
	changed := a.UpdateRoutingTable()
	if repl, ok := a.queuedReplacement[key]; ok {
		delete(a.queuedReplacement, key)
		if a.Insert(repl) {
			changed = true
		}
	}
	return changed
}

// QueueReplacement records an LSA to install once key finishes being
// retired (spec §4.4: "if a replacement LSA is queued, install it after
// removal and flood it" — the flooding itself is the caller's job, this
// only tracks the pending value).
func (a *AreaDB) QueueReplacement(key Key, lsa LSA) {
	a.queuedReplacement[key] = lsa
}

// PendingRemoval reports whether key is a MaxAge LSA still awaiting
// acknowledgement.
func (a *AreaDB) PendingRemoval(key Key) bool { return a.pendingRemoval[key] }

// adjacency builds the router-to-router weighted adjacency graph induced
// by non-MaxAge Router-LSAs.
func (a *AreaDB) adjacency() map[id.RouterID]map[id.RouterID]float64 {
	g := make(map[id.RouterID]map[id.RouterID]float64)
	for _, lsa := range a.lsas {
		if lsa.Key.Type != RouterLSA || lsa.Age == MaxAgeFlag || lsa.Router == nil {
			continue
		}
		src := lsa.Key.Originator
		if g[src] == nil {
			g[src] = make(map[id.RouterID]float64)
		}
		for _, link := range lsa.Router.Links {
			g[src][link.Neighbor] = link.Weight
		}
	}
	return g
}

type pqItem struct {
	node id.RouterID
	cost float64
}
type priorityQueue []pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].cost < pq[j].cost }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	it := old[n-1]
	*pq = old[:n-1]
	return it
}

// UpdateRoutingTable recomputes SPF (Dijkstra) rooted at a.Root over the
// non-negative-weight adjacency graph induced by non-MaxAge Router-LSAs,
// then layers in Summary- and External-LSA destinations. Returns whether
// the resulting table differs from the previous one.
func (a *AreaDB) UpdateRoutingTable() bool {
	g := a.adjacency()

	dist := map[id.RouterID]float64{a.Root: 0}
	nextHops := map[id.RouterID]map[id.RouterID]bool{a.Root: {}}
	visited := map[id.RouterID]bool{}

	pq := &priorityQueue{{node: a.Root, cost: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true

		for neighbor, weight := range g[cur.node] {
			if weight < 0 {
				continue
			}
			nd := cur.cost + weight
			existing, ok := dist[neighbor]
			switch {
			case !ok || nd < existing:
				dist[neighbor] = nd
				if cur.node == a.Root {
					nextHops[neighbor] = map[id.RouterID]bool{neighbor: true}
				} else {
					nextHops[neighbor] = cloneSet(nextHops[cur.node])
				}
				heap.Push(pq, pqItem{node: neighbor, cost: nd})
			case nd == existing:
				// ECMP: union next-hop sets.
				var add map[id.RouterID]bool
				if cur.node == a.Root {
					add = map[id.RouterID]bool{neighbor: true}
				} else {
					add = nextHops[cur.node]
				}
				for nh := range add {
					nextHops[neighbor][nh] = true
				}
			}
		}
	}

	newTable := make(map[id.RouterID]SPFEntry, len(dist))
	for node, cost := range dist {
		var nhs []id.RouterID
		for nh := range nextHops[node] {
			nhs = append(nhs, nh)
		}
		sort.Slice(nhs, func(i, j int) bool { return nhs[i] < nhs[j] })
		newTable[node] = SPFEntry{Cost: cost, NextHops: nhs}
	}

	a.addSummaryDestinations(newTable)
	a.addExternalDestinations(newTable)

	changed := !tablesEqual(a.table, newTable)
	a.table = newTable
	return changed
}

func (a *AreaDB) addSummaryDestinations(table map[id.RouterID]SPFEntry) {
	for _, lsa := range a.lsas {
		if lsa.Key.Type != SummaryLSA || lsa.Age == MaxAgeFlag || lsa.Summary == nil {
			continue
		}
		origin, ok := table[lsa.Key.Originator]
		if !ok {
			continue // originator unreachable intra-area
		}
		dest := lsa.Key.Target
		cost := origin.Cost + lsa.Summary.Cost
		existing, has := table[dest]
		if !has || cost < existing.Cost {
			table[dest] = SPFEntry{Cost: cost, NextHops: append([]id.RouterID(nil), origin.NextHops...)}
		} else if cost == existing.Cost {
			table[dest] = SPFEntry{Cost: cost, NextHops: unionSorted(existing.NextHops, origin.NextHops)}
		}
	}
}

func (a *AreaDB) addExternalDestinations(table map[id.RouterID]SPFEntry) {
	for _, lsa := range a.lsas {
		if lsa.Key.Type != ExternalLSA || lsa.Age == MaxAgeFlag || lsa.External == nil {
			continue
		}
		origin, ok := table[lsa.Key.Originator]
		if !ok {
			continue // originator not known reachable (intra-area or summary)
		}
		dest := lsa.Key.Target
		cost := origin.Cost + lsa.External.Cost
		existing, has := table[dest]
		if !has || cost < existing.Cost {
			table[dest] = SPFEntry{Cost: cost, NextHops: append([]id.RouterID(nil), origin.NextHops...)}
		} else if cost == existing.Cost {
			table[dest] = SPFEntry{Cost: cost, NextHops: unionSorted(existing.NextHops, origin.NextHops)}
		}
	}
}

// Table returns the computed per-destination SPF entries.
func (a *AreaDB) Table() map[id.RouterID]SPFEntry {
	out := make(map[id.RouterID]SPFEntry, len(a.table))
	for k, v := range a.table {
		out[k] = v
	}
	return out
}

// Reachable reports whether dest has a computed entry in this area.
func (a *AreaDB) Reachable(dest id.RouterID) (SPFEntry, bool) {
	e, ok := a.table[dest]
	return e, ok
}

func cloneSet(s map[id.RouterID]bool) map[id.RouterID]bool {
	out := make(map[id.RouterID]bool, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func unionSorted(a, b []id.RouterID) []id.RouterID {
	set := make(map[id.RouterID]bool, len(a)+len(b))
	for _, x := range a {
		set[x] = true
	}
	for _, x := range b {
		set[x] = true
	}
	out := make([]id.RouterID, 0, len(set))
	for x := range set {
		out = append(out, x)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func tablesEqual(a, b map[id.RouterID]SPFEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || va.Cost != vb.Cost || !nextHopsEqual(va.NextHops, vb.NextHops) {
			return false
		}
	}
	return true
}

func nextHopsEqual(a, b []id.RouterID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
