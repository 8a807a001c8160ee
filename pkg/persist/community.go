package persist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/id"
)

// formatCommunity renders c as "asn:value", matching pkg/builder's
// community syntax (spec §6).
func formatCommunity(c bgproute.Community) string {
	return fmt.Sprintf("%d:%d", uint32(c.ASN), c.Value)
}

func parseCommunityString(s string) (bgproute.Community, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return bgproute.Community{}, fmt.Errorf("community %q must be 'asn:value'", s)
	}
	asn, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return bgproute.Community{}, fmt.Errorf("community %q: %w", s, err)
	}
	val, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return bgproute.Community{}, fmt.Errorf("community %q: %w", s, err)
	}
	return bgproute.Community{ASN: id.ASN(asn), Value: uint32(val)}, nil
}
