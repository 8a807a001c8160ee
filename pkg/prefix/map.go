package prefix

import "sort"

// Map is an ordered mapping from Prefix to V, keyed by the prefix's
// total order (Less). Insertion and lookup are O(log n) via binary
// search over a sorted slice; this trades O(n) inserts (a shift) for
// simple, allocation-light iteration in Prefix order, which is the
// dominant access pattern (RIB dumps, formatter output, SPF results).
type Map[V any] struct {
	keys []Prefix
	vals []V
}

// NewMap creates an empty ordered prefix map.
func NewMap[V any]() *Map[V] { return &Map[V]{} }

func (m *Map[V]) search(p Prefix) (int, bool) {
	i := sort.Search(len(m.keys), func(i int) bool { return !m.keys[i].Less(p) })
	if i < len(m.keys) && m.keys[i].Equal(p) {
		return i, true
	}
	return i, false
}

// Get returns the value stored for p, if any.
func (m *Map[V]) Get(p Prefix) (V, bool) {
	i, ok := m.search(p)
	if !ok {
		var zero V
		return zero, false
	}
	return m.vals[i], true
}

// Set inserts or overwrites the value stored for p.
func (m *Map[V]) Set(p Prefix, v V) {
	i, ok := m.search(p)
	if ok {
		m.vals[i] = v
		return
	}
	m.keys = append(m.keys, nil)
	copy(m.keys[i+1:], m.keys[i:])
	m.keys[i] = p
	m.vals = append(m.vals, v)
	copy(m.vals[i+1:], m.vals[i:])
	m.vals[i] = v
}

// Delete removes the entry for p, if any. Reports whether it was present.
func (m *Map[V]) Delete(p Prefix) bool {
	i, ok := m.search(p)
	if !ok {
		return false
	}
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.vals = append(m.vals[:i], m.vals[i+1:]...)
	return true
}

// Len returns the number of entries.
func (m *Map[V]) Len() int { return len(m.keys) }

// Range calls f for every entry in ascending Prefix order, stopping early
// if f returns false.
func (m *Map[V]) Range(f func(p Prefix, v V) bool) {
	for i, k := range m.keys {
		if !f(k, m.vals[i]) {
			return
		}
	}
}

// Keys returns all keys in ascending order.
func (m *Map[V]) Keys() []Prefix {
	out := make([]Prefix, len(m.keys))
	copy(out, m.keys)
	return out
}
