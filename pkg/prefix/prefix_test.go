package prefix

import "testing"

func TestIPv4NetLongestMatch(t *testing.T) {
	set := NewSet(
		MustParseIPv4Net("10.0.0.0/8"),
		MustParseIPv4Net("10.1.0.0/16"),
		MustParseIPv4Net("10.1.1.0/24"),
	)

	tests := []struct {
		name string
		p    IPv4Net
		want string
		ok   bool
	}{
		{"exact most specific", MustParseIPv4Net("10.1.1.0/24"), "10.1.1.0/24", true},
		{"host within most specific", MustParseIPv4Net("10.1.1.128/25"), "10.1.1.0/24", true},
		{"falls to middle", MustParseIPv4Net("10.1.2.0/24"), "10.1.0.0/16", true},
		{"falls to widest", MustParseIPv4Net("10.2.0.0/16"), "10.0.0.0/8", true},
		{"no match", MustParseIPv4Net("192.168.0.0/16"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := set.LongestMatch(tt.p)
			if ok != tt.ok {
				t.Fatalf("LongestMatch(%s) ok = %v, want %v", tt.p, ok, tt.ok)
			}
			if ok && got.String() != tt.want {
				t.Fatalf("LongestMatch(%s) = %s, want %s", tt.p, got, tt.want)
			}
		})
	}
}

func TestIPv4NetEqualMasksHostBits(t *testing.T) {
	a := MustParseIPv4Net("10.0.0.1/24")
	b := MustParseIPv4Net("10.0.0.0/24")
	if !a.Equal(b) {
		t.Fatalf("expected host bits to be masked: %s != %s", a, b)
	}
}

func TestIPv4NetCovers(t *testing.T) {
	wide := MustParseIPv4Net("10.0.0.0/8")
	narrow := MustParseIPv4Net("10.1.0.0/16")
	if !wide.Covers(narrow) {
		t.Fatalf("%s should cover %s", wide, narrow)
	}
	if narrow.Covers(wide) {
		t.Fatalf("%s should not cover %s", narrow, wide)
	}
	if !wide.Covers(wide) {
		t.Fatalf("a prefix should cover itself")
	}
}

func TestMapOrderedIteration(t *testing.T) {
	m := NewMap[int]()
	m.Set(MustParseIPv4Net("10.1.0.0/16"), 1)
	m.Set(MustParseIPv4Net("10.0.0.0/8"), 2)
	m.Set(MustParseIPv4Net("10.1.1.0/24"), 3)

	var order []string
	m.Range(func(p Prefix, v int) bool {
		order = append(order, p.String())
		return true
	})
	// Less sorts more-specific (longer) prefixes first.
	want := []string{"10.1.1.0/24", "10.1.0.0/16", "10.0.0.0/8"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestMapGetSetDelete(t *testing.T) {
	m := NewMap[string]()
	p := Flat(1)
	if _, ok := m.Get(p); ok {
		t.Fatal("expected missing key")
	}
	m.Set(p, "a")
	if v, ok := m.Get(p); !ok || v != "a" {
		t.Fatalf("got %q, %v", v, ok)
	}
	m.Set(p, "b")
	if v, _ := m.Get(p); v != "b" {
		t.Fatalf("overwrite failed, got %q", v)
	}
	if !m.Delete(p) {
		t.Fatal("expected delete to report present")
	}
	if _, ok := m.Get(p); ok {
		t.Fatal("expected key gone after delete")
	}
}

func TestPEC(t *testing.T) {
	pec := NewPEC()
	rep := MustParseIPv4Net("10.0.0.0/8")
	a := MustParseIPv4Net("10.1.0.0/16")
	b := MustParseIPv4Net("10.2.0.0/16")

	pec.Add(rep, a)
	pec.Add(rep, b)

	if !pec.ClassOf(a).Equal(rep) {
		t.Fatalf("expected %s in class %s", a, rep)
	}
	members := pec.Members(rep)
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}

	other := MustParseIPv4Net("192.168.0.0/16")
	if !pec.ClassOf(other).Equal(other) {
		t.Fatal("unassigned prefix should be its own representative")
	}
}

func TestSingleAndFlatEquality(t *testing.T) {
	if !(Single{}).Equal(Single{}) {
		t.Fatal("Single values must compare equal")
	}
	if Flat(1).Equal(Flat(2)) {
		t.Fatal("distinct Flat values must not compare equal")
	}
	if !Flat(1).Less(Flat(2)) {
		t.Fatal("Flat ordering broken")
	}
}
