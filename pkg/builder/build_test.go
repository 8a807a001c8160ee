package builder

import (
	"strings"
	"testing"

	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/prefix"
)

const triangleYAML = `
name: triangle
routers:
  r0-2: {asn: 65000}
links:
  - {a: r0, b: r1, weight: 1}
  - {a: r1, b: r2, weight: 1}
  - {a: r2, b: r0, weight: 1}
sessions:
  - {a: r0, b: r1}
  - {a: r1, b: r2}
  - {a: r2, b: r0}
`

func TestParseTopologyKeepsRouterRangeAsOneEntry(t *testing.T) {
	topo, err := ParseTopology([]byte(triangleYAML))
	if err != nil {
		t.Fatal(err)
	}
	if len(topo.Routers) != 1 {
		t.Fatalf("expected one router-range entry, got %d", len(topo.Routers))
	}
}

func TestBuildTriangleDefaultsToIBGPPeer(t *testing.T) {
	topo, err := ParseTopology([]byte(triangleYAML))
	if err != nil {
		t.Fatal(err)
	}
	n, err := Build(topo)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if len(n.Routers()) != 3 {
		t.Fatalf("expected 3 routers, got %d", len(n.Routers()))
	}
	r0, err := n.RouterByName("r0")
	if err != nil {
		t.Fatal(err)
	}
	r1, err := n.RouterByName("r1")
	if err != nil {
		t.Fatalf("expected router r1 to exist: %v", err)
	}
	if pc, ok := r0.BGP.Peers()[r1.ID]; !ok || pc.Session != bgproute.SessionIBGPPeer {
		t.Fatalf("expected r0-r1 to default to an iBGP-peer session, got %+v ok=%v", pc, ok)
	}
}

const ebgpYAML = `
name: ebgp-pair
routers:
  r0: {asn: 65000}
  ext1: {asn: 65001, kind: external}
links:
  - {a: r0, b: ext1, weight: 1}
sessions:
  - {a: r0, b: ext1}
advertisements:
  - {router: ext1, prefix: "10.0.0.0/8", origin: 65001, as_path: [65001]}
`

func TestBuildEBGPSessionAndAdvertisement(t *testing.T) {
	topo, err := ParseTopology([]byte(ebgpYAML))
	if err != nil {
		t.Fatal(err)
	}
	n, err := Build(topo)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	n.StopAfter = 5000
	if err := n.Simulate(); err != nil {
		t.Fatalf("Simulate() failed: %v", err)
	}
	r0, err := n.RouterByName("r0")
	if err != nil {
		t.Fatal(err)
	}
	best, ok := r0.BGP.RIB().Get(prefix.MustParseIPv4Net("10.0.0.0/8"))
	if !ok {
		t.Fatal("expected r0 to learn the advertised prefix")
	}
	if len(best.Route.ASPath) != 1 || best.Route.ASPath[0] != 65001 {
		t.Fatalf("expected AS path [65001], got %v", best.Route.ASPath)
	}
}

func TestParseTopologyRejectsUnknownSessionType(t *testing.T) {
	_, err := ParseTopology([]byte(`
name: bad
routers:
  r0: {asn: 1}
  r1: {asn: 2}
sessions:
  - {a: r0, b: r1, type: bogus}
`))
	if err == nil || !strings.Contains(err.Error(), "type must be") {
		t.Fatalf("expected session-type validation error, got %v", err)
	}
}

func TestBuildRejectsUndefinedRouter(t *testing.T) {
	topo, err := ParseTopology([]byte(`
name: bad
routers:
  r0: {asn: 1}
links:
  - {a: r0, b: r1}
`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Build(topo); err == nil {
		t.Fatal("expected Build() to fail on undefined router r1")
	}
}
