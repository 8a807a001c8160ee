package prefix

// PEC is a prefix-equivalence-class table: a representative prefix
// stands in for a set of concrete IPv4Net prefixes that receive
// identical policy treatment (spec §3). Building one from an explicit
// list of external advertisements lets the forwarding-state builder and
// route-map engine operate once per class instead of once per concrete
// prefix, without changing observable semantics (every member of a class
// is guaranteed to resolve to the same selected route, since route-maps
// and the decision process never distinguish within a class by
// construction — callers only add prefixes to the same class when they
// know this holds).
type PEC struct {
	classOf map[Prefix]Prefix   // concrete prefix -> representative
	members map[Prefix][]Prefix // representative -> concrete prefixes
}

// NewPEC creates an empty PEC table.
func NewPEC() *PEC {
	return &PEC{classOf: make(map[Prefix]Prefix), members: make(map[Prefix][]Prefix)}
}

// key adapts a Prefix to a Go map key: Single/Flat are already
// comparable; IPv4Net is a comparable struct too, so all three
// realizations work directly as map keys.
func key(p Prefix) Prefix { return p }

// Add assigns concrete prefix p to the equivalence class represented by
// rep (rep may equal p, denoting a singleton class).
func (pec *PEC) Add(rep, p Prefix) {
	if existing, ok := pec.classOf[key(p)]; ok && !existing.Equal(rep) {
		pec.removeFromMembers(existing, p)
	}
	pec.classOf[key(p)] = rep
	pec.members[key(rep)] = appendUnique(pec.members[key(rep)], p)
}

func appendUnique(list []Prefix, p Prefix) []Prefix {
	for _, it := range list {
		if it.Equal(p) {
			return list
		}
	}
	return append(list, p)
}

func (pec *PEC) removeFromMembers(rep, p Prefix) {
	list := pec.members[key(rep)]
	for i, it := range list {
		if it.Equal(p) {
			pec.members[key(rep)] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// ClassOf returns the representative prefix for p, or p itself if it has
// not been assigned to any class.
func (pec *PEC) ClassOf(p Prefix) Prefix {
	if rep, ok := pec.classOf[key(p)]; ok {
		return rep
	}
	return p
}

// Members returns every concrete prefix assigned to rep's class.
func (pec *PEC) Members(rep Prefix) []Prefix {
	out := pec.members[key(rep)]
	cp := make([]Prefix, len(out))
	copy(cp, out)
	return cp
}
