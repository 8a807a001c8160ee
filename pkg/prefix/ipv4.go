package prefix

import (
	"fmt"
	"net/netip"
)

// IPv4Net is an IPv4 network (address + prefix length) with longest-match
// semantics. The address is always masked to Len bits (zero host bits),
// so two IPv4Net values with the same (masked address, length) compare
// Equal regardless of how they were constructed.
type IPv4Net struct {
	addr netip.Addr // 4-byte, network address (host bits zeroed)
	len  int        // 0..32
}

// NewIPv4Net builds an IPv4Net from an address and prefix length,
// masking off host bits.
func NewIPv4Net(addr netip.Addr, length int) (IPv4Net, error) {
	if !addr.Is4() {
		return IPv4Net{}, fmt.Errorf("prefix: %s is not an IPv4 address", addr)
	}
	if length < 0 || length > 32 {
		return IPv4Net{}, fmt.Errorf("prefix: invalid IPv4 prefix length %d", length)
	}
	p := netip.PrefixFrom(addr, length).Masked()
	return IPv4Net{addr: p.Addr(), len: length}, nil
}

// MustParseIPv4Net parses "a.b.c.d/n" and panics on error. Intended for
// tests and for the YAML builder's literal topology documents, where a
// malformed prefix is an authoring bug, not runtime input.
func MustParseIPv4Net(s string) IPv4Net {
	p, err := ParseIPv4Net(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ParseIPv4Net parses "a.b.c.d/n".
func ParseIPv4Net(s string) (IPv4Net, error) {
	p, err := netip.ParsePrefix(s)
	if err != nil {
		return IPv4Net{}, fmt.Errorf("prefix: %w", err)
	}
	return NewIPv4Net(p.Addr(), p.Bits())
}

func (p IPv4Net) Len() int { return p.len }

func (p IPv4Net) String() string { return fmt.Sprintf("%s/%d", p.addr, p.len) }

func (p IPv4Net) Equal(other Prefix) bool {
	o, ok := other.(IPv4Net)
	return ok && p.len == o.len && p.addr == o.addr
}

// Less orders first by prefix length (more specific first, matching the
// longest-match convention used when iterating a Set), then by address.
func (p IPv4Net) Less(other Prefix) bool {
	o, ok := other.(IPv4Net)
	if !ok {
		return false
	}
	if p.len != o.len {
		return p.len > o.len
	}
	return p.addr.Less(o.addr)
}

func (p IPv4Net) Hash() uint64 {
	b := p.addr.As4()
	h := uint64(0xcbf29ce484222325)
	for _, c := range b {
		h ^= uint64(c)
		h *= 0x100000001b3
	}
	h ^= uint64(p.len)
	h *= 0x100000001b3
	return h
}

// Covers reports whether p fully contains other (other is equally or
// more specific, and numerically within p's range). Exact equality also
// counts as covering, per spec §3's "contains/covers behave as exact set
// membership" for non-overlapping subtypes.
func (p IPv4Net) Covers(other Prefix) bool {
	o, ok := other.(IPv4Net)
	if !ok {
		return false
	}
	if o.len < p.len {
		return false
	}
	np := netip.PrefixFrom(p.addr, p.len)
	return np.Contains(o.addr) || p.Equal(other)
}
