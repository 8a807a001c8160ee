package builder

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadTopology parses a topology YAML document and validates required
// fields, mirroring teacher's labgen.LoadTopology.
func LoadTopology(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topology file: %w", err)
	}
	return ParseTopology(data)
}

// ParseTopology parses a topology YAML document from bytes already in
// memory.
func ParseTopology(data []byte) (*Topology, error) {
	var topo Topology
	if err := yaml.Unmarshal(data, &topo); err != nil {
		return nil, fmt.Errorf("parsing topology YAML: %w", err)
	}
	if err := validateTopology(&topo); err != nil {
		return nil, fmt.Errorf("validating topology: %w", err)
	}
	return &topo, nil
}

func validateTopology(topo *Topology) error {
	if topo.Name == "" {
		return fmt.Errorf("topology name is required")
	}
	if len(topo.Routers) == 0 {
		return fmt.Errorf("at least one router is required")
	}
	switch topo.Universe {
	case "", "ipv4", "flat", "single":
	default:
		return fmt.Errorf("universe must be 'ipv4', 'flat', or 'single', got %q", topo.Universe)
	}
	for name, r := range topo.Routers {
		if r.Kind != "" && r.Kind != "internal" && r.Kind != "external" {
			return fmt.Errorf("router %s: kind must be 'internal' or 'external', got %q", name, r.Kind)
		}
	}
	for i, l := range topo.Links {
		if l.A == "" || l.B == "" {
			return fmt.Errorf("link %d: a and b are required", i)
		}
	}
	for i, s := range topo.Sessions {
		if s.A == "" || s.B == "" {
			return fmt.Errorf("session %d: a and b are required", i)
		}
		switch s.Type {
		case "", "ibgp-peer", "ibgp-client", "ebgp":
		default:
			return fmt.Errorf("session %d: type must be 'ibgp-peer', 'ibgp-client', or 'ebgp', got %q", i, s.Type)
		}
	}
	for i, a := range topo.Adverts {
		if a.Router == "" {
			return fmt.Errorf("advertisement %d: router is required", i)
		}
		if a.Prefix == "" {
			return fmt.Errorf("advertisement %d: prefix is required", i)
		}
	}
	for i, s := range topo.Statics {
		if s.Router == "" || s.Prefix == "" || s.NextHop == "" {
			return fmt.Errorf("static_route %d: router, prefix, and next_hop are required", i)
		}
	}
	return nil
}
