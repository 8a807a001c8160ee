// Package builder implements spec §6's "embedded builders": a
// declarative YAML document naming routers, links, BGP sessions,
// external advertisements and a prefix universe, translated into calls
// against the component-J kernel operations in the order a human
// operator would issue them by hand. Grounded on teacher's
// pkg/labgen (same Topology/parse.go/LoadTopology shape, same
// gopkg.in/yaml.v3 dependency) and the Rust original's
// bgpsim::builder::NetworkBuilder trait (build_ibgp_full_mesh,
// build_ibgp_route_reflection, build_ebgp_sessions, build_link_weights,
// build_advertisements), minus the random-sampler generators the spec's
// Non-goals exclude.
package builder

// Topology is the top-level YAML document accepted by Build.
type Topology struct {
	Name     string         `yaml:"name"`
	Universe string         `yaml:"universe,omitempty"` // "ipv4" (default), "flat", or "single"
	Defaults Defaults       `yaml:"defaults,omitempty"`
	Routers  map[string]RouterDef `yaml:"routers"`
	Links    []LinkDef      `yaml:"links,omitempty"`
	Sessions []SessionDef   `yaml:"sessions,omitempty"`
	Adverts  []AdvertDef    `yaml:"advertisements,omitempty"`
	Statics  []StaticDef    `yaml:"static_routes,omitempty"`
	LoadBalancing []string  `yaml:"load_balancing,omitempty"` // router names with LB enabled
}

// Defaults holds network-wide settings applied when a more specific
// field is absent.
type Defaults struct {
	Area        uint32 `yaml:"area,omitempty"`        // OSPF area for links that don't name one
	LinkWeight  float64 `yaml:"link_weight,omitempty"` // link weight for links that don't name one
}

// RouterDef defines one router. Name is either a literal ("r0") or a
// range expression ("r0-4", "r0,4,8") expanded via
// util.ExpandInterfaceRange, letting one entry declare many
// identically-configured routers.
type RouterDef struct {
	ASN  uint32 `yaml:"asn"`
	Kind string `yaml:"kind,omitempty"` // "internal" (default) or "external"
}

// LinkDef defines a link between two routers by name.
type LinkDef struct {
	A      string  `yaml:"a"`
	B      string  `yaml:"b"`
	Weight float64 `yaml:"weight,omitempty"`
	Area   *uint32 `yaml:"area,omitempty"`
}

// SessionDef defines a BGP session between two routers by name. Type
// defaults per spec §6: iBGP-peer when both routers are in the same AS,
// eBGP when they are not.
type SessionDef struct {
	A    string `yaml:"a"`
	B    string `yaml:"b"`
	Type string `yaml:"type,omitempty"` // "ibgp-peer", "ibgp-client" (A is the reflector), "ebgp"
}

// AdvertDef defines one external advertisement, per spec §6
// "(origin, prefix, as_path, optional med, optional communities)".
type AdvertDef struct {
	Router      string   `yaml:"router"` // must name an external router
	Prefix      string   `yaml:"prefix"`
	Origin      uint32   `yaml:"origin"`
	ASPath      []uint32 `yaml:"as_path,omitempty"`
	MED         *int     `yaml:"med,omitempty"`
	Communities []string `yaml:"communities,omitempty"` // "asn:value"
}

// StaticDef defines one static route.
type StaticDef struct {
	Router  string `yaml:"router"`
	Prefix  string `yaml:"prefix"`
	NextHop string `yaml:"next_hop"`
}
