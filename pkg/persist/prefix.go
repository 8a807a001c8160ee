// Package persist implements spec §6's "Persisted state" and "Replay
// format": a JSON document serializing a *kernel.Network (full and
// "compact" variants) and the event trace that produced it. Grounded on
// teacher's pkg/settings/settings.go for the encoding/json
// MarshalIndent/Unmarshal round trip, and on kernel/replay.go's existing
// replayEntry JSON-lines format for the event-trace shape. An optional
// Redis mirror lives in pkg/persist/redisstore.
package persist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/routesim/netsim/pkg/prefix"
)

// parsePrefix parses s as a prefix under the chosen universe, matching pkg/builder's prefix-universe handling (spec §6
// "prefix universe choice").
func parsePrefix(universe, s string) (prefix.Prefix, error) {
	switch universe {
	case "flat":
		v, err := strconv.ParseUint(strings.TrimPrefix(s, "P"), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("flat prefix %q: %w", s, err)
		}
		return prefix.Flat(v), nil
	case "single":
		return prefix.Single{}, nil
	default:
		return prefix.ParseIPv4Net(s)
	}
}

// formatPrefix renders p as a string parsed back by parsePrefix under
// the same universe.
func formatPrefix(p prefix.Prefix) string {
	if p == nil {
		return ""
	}
	return p.String()
}
