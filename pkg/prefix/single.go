package prefix

// Single is the degenerate single-prefix universe: every advertisement
// and every forwarding-table lookup refers to the one value. Used by
// scenarios that only care about BGP/OSPF mechanics, not prefix algebra.
type Single struct{}

func (Single) String() string { return "*" }

func (Single) Equal(other Prefix) bool {
	_, ok := other.(Single)
	return ok
}

func (Single) Less(other Prefix) bool { return false }

func (Single) Hash() uint64 { return 0x5111c7e }

func (Single) Covers(other Prefix) bool {
	_, ok := other.(Single)
	return ok
}
