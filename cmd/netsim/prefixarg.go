package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/routesim/netsim/pkg/prefix"
)

// parsePrefixArg parses a prefix literal under the CLI's configured
// universe (-u / --universe), mirroring pkg/builder's prefixParser.
func parsePrefixArg(s string) (prefix.Prefix, error) {
	switch app.universe {
	case "flat":
		s = strings.TrimPrefix(s, "P")
		v, err := strconv.ParseUint(s, 10, 32)
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
