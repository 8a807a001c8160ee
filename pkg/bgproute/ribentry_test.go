package bgproute

import (
	"testing"

	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/prefix"
)

func mkEntry(nextHop id.RouterID, asPath []id.ASN, med int, peer id.RouterID) RIBEntry {
	m := med
	return RIBEntry{
		Route: Route{
			Prefix:  prefix.Single{},
			ASPath:  asPath,
			NextHop: nextHop,
			MED:     &m,
		},
		Session: SessionEBGP,
		Peer:    peer,
	}
}

// TestMEDTieBreak mirrors spec §8 Scenario B: two eBGP routes from the
// same neighboring AS, equal length paths, MEDs 50 and 100 — MED 50 wins.
func TestMEDTieBreak(t *testing.T) {
	low := mkEntry(1, []id.ASN{7, 1}, 50, 10)
	high := mkEntry(2, []id.ASN{7, 2}, 100, 11)

	if Compare(low, high) <= 0 {
		t.Fatalf("expected lower MED to win, got compare=%d", Compare(low, high))
	}
}

// TestMEDNotComparedAcrossDifferentFirstAS: changing one neighbor's AS to
// a different first-AS disables the MED comparison, per spec §8 Scenario
// B's follow-up. With MED no longer decisive, the ladder should fall
// through to IGP cost / next-hop tie-break instead.
func TestMEDNotComparedAcrossDifferentFirstAS(t *testing.T) {
	a := mkEntry(5, []id.ASN{7, 1}, 50, 10)
	b := mkEntry(3, []id.ASN{8, 2}, 100, 11) // different first AS, better MED ignored

	// Next-hop 3 < 5, so b should win once MED is disqualified (cost
	// unset for both, ladder falls to next-hop).
	if Compare(a, b) >= 0 {
		t.Fatalf("expected MED to be ignored and next-hop to decide, got compare=%d", Compare(a, b))
	}
}

func TestLocalWeightDominates(t *testing.T) {
	a := mkEntry(9, []id.ASN{1}, 0, 1)
	w := 200
	a.Weight = &w
	b := mkEntry(1, []id.ASN{1}, 0, 1)

	if Compare(a, b) <= 0 {
		t.Fatalf("expected higher weight to dominate all else, got %d", Compare(a, b))
	}
}

func TestEBGPPreferredOverIBGP(t *testing.T) {
	a := mkEntry(1, []id.ASN{1}, 0, 1)
	a.Session = SessionIBGPPeer
	b := mkEntry(2, []id.ASN{1}, 0, 1)
	b.Session = SessionEBGP

	if Compare(b, a) <= 0 {
		t.Fatalf("expected eBGP to beat iBGP, got %d", Compare(b, a))
	}
}

func TestCompareSymmetric(t *testing.T) {
	a := mkEntry(1, []id.ASN{1}, 10, 1)
	b := mkEntry(2, []id.ASN{1}, 20, 2)
	if Compare(a, b) != -Compare(b, a) {
		t.Fatalf("compare should be antisymmetric: %d vs %d", Compare(a, b), Compare(b, a))
	}
}

func TestRouteEqualAppliesDefaults(t *testing.T) {
	lp := 100
	a := Route{Prefix: prefix.Single{}, NextHop: 1, LocalPref: &lp}
	b := Route{Prefix: prefix.Single{}, NextHop: 1}
	if !a.Equal(b) {
		t.Fatal("explicit default LOCAL_PREF should equal implicit default")
	}
}

func TestStripNonPublicCommunities(t *testing.T) {
	r := Route{
		Prefix: prefix.Single{},
		Communities: []Community{
			{ASN: id.InternalASN, Value: CommunityNoExport},
			{ASN: 65001, Value: 100},
		},
	}
	stripped := r.StripNonPublicCommunities()
	if len(stripped.Communities) != 1 {
		t.Fatalf("expected 1 community to survive, got %d", len(stripped.Communities))
	}
	if !stripped.Communities[0].Public() {
		t.Fatal("surviving community should be public")
	}
}
