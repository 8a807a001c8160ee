package prefix

import "fmt"

// Flat is a flat, u32-indexed prefix space: destinations are opaque
// indices with no containment relationship between them (exact match
// only). Useful for synthetic topologies that need many distinct,
// non-overlapping destinations without IPv4 semantics.
type Flat uint32

func (f Flat) String() string { return fmt.Sprintf("P%d", uint32(f)) }

func (f Flat) Equal(other Prefix) bool {
	o, ok := other.(Flat)
	return ok && f == o
}

func (f Flat) Less(other Prefix) bool {
	o, ok := other.(Flat)
	return ok && f < o
}

func (f Flat) Hash() uint64 { return 0x9e3779b97f4a7c15 ^ uint64(f) }

func (f Flat) Covers(other Prefix) bool { return f.Equal(other) }
