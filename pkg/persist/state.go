package persist

import "encoding/json"

// StaticRouteRecord is one administrator static-route override.
type StaticRouteRecord struct {
	Prefix  string `json:"prefix"`
	NextHop uint32 `json:"next_hop"`
}

// RouterRecord is the JSON encoding of one router. ID is the router's
// numeric identifier within THIS document only (spec §6 "Identifier
// stability": importing assigns fresh IDs but preserves Name).
type RouterRecord struct {
	ID            uint32              `json:"id"`
	Name          string              `json:"name"`
	ASN           uint32              `json:"asn"`
	Kind          string              `json:"kind"` // "internal" or "external"
	LoadBalancing bool                `json:"load_balancing,omitempty"`
	StaticRoutes  []StaticRouteRecord `json:"static_routes,omitempty"`
}

// LinkRecord is the JSON encoding of one topology edge.
type LinkRecord struct {
	A      uint32  `json:"a"`
	B      uint32  `json:"b"`
	Weight float64 `json:"weight"`
	Area   uint32  `json:"area"`
}

// ExternalRouteRecord is one externally-originated advertisement.
type ExternalRouteRecord struct {
	Router uint32      `json:"router"`
	Route  RouteRecord `json:"route"`
}

// State is the persisted-state document (spec §6 "Persisted state"):
// routers/links/config/external_routes/queue are always present; pos,
// spec, topology_zoo and settings are optional passthrough fields this
// package never interprets (graph layout, policy checking and
// topology-zoo provenance are all Non-goals — see spec.md's Non-goals
// and SPEC_FULL.md's carried-forward list).
type State struct {
	Universe        string                `json:"universe,omitempty"`
	Routers         []RouterRecord        `json:"routers"`
	Links           []LinkRecord          `json:"links"`
	Config          []ExprRecord          `json:"config"`
	ExternalRoutes  []ExternalRouteRecord `json:"external_routes"`
	Queue           []EventRecord         `json:"queue"`
	StopAfter       int                   `json:"stop_after,omitempty"`

	Pos         json.RawMessage `json:"pos,omitempty"`
	Spec        json.RawMessage `json:"spec,omitempty"`
	TopologyZoo json.RawMessage `json:"topology_zoo,omitempty"`
	Settings    json.RawMessage `json:"settings,omitempty"`

	// Compact marks this document as the "compact" variant: Queue is
	// always empty and is reconstructed on load by replaying Config and
	// ExternalRoutes through simulate(), per spec §6.
	Compact bool `json:"compact,omitempty"`
}
