// Package prefix implements the destination-prefix algebra component A of
// the simulator: a common Prefix interface with three concrete
// realizations (a degenerate single-value universe, a flat u32-indexed
// space, and an IPv4 network with longest-match and prefix-equivalence-
// class semantics), plus generic ordered Map/Set types built over it.
package prefix

import "fmt"

// Prefix is implemented by every destination-prefix representation the
// simulator supports. Implementations must be comparable with == so they
// can be used as Go map keys directly (all three realizations here are
// small value types), in addition to satisfying Equal/Less/Hash below,
// which give a total order and a stable hash independent of Go's map key
// semantics (used for deterministic iteration order in formatters).
type Prefix interface {
	fmt.Stringer

	// Equal reports whether two prefixes denote the same destination.
	Equal(other Prefix) bool

	// Less gives prefixes a total, deterministic order (used for sorted
	// iteration in Map/Set and for stable JSON output).
	Less(other Prefix) bool

	// Hash returns a stable, order-independent hash of the prefix.
	Hash() uint64
}

// Matcher is implemented by prefix realizations that support
// longest-match lookup against a set of more-specific/less-specific
// prefixes (only IPv4Net is non-trivially longest-match; Single and Flat
// are exact-match only and implement it as identity).
type Matcher interface {
	Prefix
	// Covers reports whether this prefix's range fully contains other's.
	Covers(other Prefix) bool
}
