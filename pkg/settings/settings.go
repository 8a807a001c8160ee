// Package settings manages persistent user settings for the netsim CLI.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// DefaultQueueDiscipline and DefaultOSPFMode are the simulator's own
// defaults when a settings file doesn't override them (spec §4.6 "basic
// FIFO" queue, §9 "local" being the mode the core is built against).
const (
	DefaultQueueDiscipline = "basic"
	DefaultOSPFMode        = "local"

	// DefaultStopAfter bounds a simulate() call when neither a settings
	// file nor a CLI flag overrides it (spec §5 "long runs are bounded
	// by stop_after").
	DefaultStopAfter = 100000
)

// Settings holds persistent user preferences for the netsim CLI.
type Settings struct {
	// DefaultNetworkFile names a persisted-network JSON document. It is
	// stored and shown by "netsim settings"; commands still require -f.
	DefaultNetworkFile string `json:"default_network_file,omitempty"`

	// LastNetworkFile is set together with DefaultNetworkFile by
	// SetNetworkFile; no command updates it on load or save.
	LastNetworkFile string `json:"last_network_file,omitempty"`

	// QueueDiscipline names pkg/queue's Basic ("basic") or Priority
	// implementation (spec §4.6). It is stored and shown; no command
	// applies it to a network.
	QueueDiscipline string `json:"queue_discipline,omitempty"`

	// OSPFMode names "local" (per-router distributed OSPF, the default)
	// or "global" (oracle SPF owned by the kernel) (spec §9 "OSPF mode
	// equivalence"). It is stored and shown; no command applies it to a
	// network.
	OSPFMode string `json:"ospf_mode,omitempty"`

	// StopAfter is the default event-processing cap passed to
	// Network.StopAfter for new networks (spec §5 NoConvergence bound).
	StopAfter int `json:"stop_after,omitempty"`

	// LoadBalancingByDefault is stored and shown; no command applies it
	// to new routers.
	LoadBalancingByDefault bool `json:"load_balancing_by_default,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "netsim_settings.json"
	}
	return filepath.Join(home, ".netsim", "settings.json")
}

// Load reads settings from the default location.
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes settings to the default location.
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path.
func (s *Settings) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// GetQueueDiscipline returns the configured queue discipline, falling
// back to DefaultQueueDiscipline.
func (s *Settings) GetQueueDiscipline() string {
	if s.QueueDiscipline != "" {
		return s.QueueDiscipline
	}
	return DefaultQueueDiscipline
}

// GetOSPFMode returns the configured OSPF mode, falling back to
// DefaultOSPFMode.
func (s *Settings) GetOSPFMode() string {
	if s.OSPFMode != "" {
		return s.OSPFMode
	}
	return DefaultOSPFMode
}

// GetStopAfter returns the configured event cap, falling back to
// DefaultStopAfter.
func (s *Settings) GetStopAfter() int {
	if s.StopAfter > 0 {
		return s.StopAfter
	}
	return DefaultStopAfter
}

// SetNetworkFile records path as both the default and last-used network
// file.
func (s *Settings) SetNetworkFile(path string) {
	s.DefaultNetworkFile = path
	s.LastNetworkFile = path
}

// Clear resets all settings to defaults.
func (s *Settings) Clear() {
	*s = Settings{}
}
