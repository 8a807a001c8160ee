package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/cli"
	"github.com/routesim/netsim/pkg/config"
	"github.com/routesim/netsim/pkg/format"
	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/prefix"
	"github.com/routesim/netsim/pkg/routemap"
)

var bgpCmd = &cobra.Command{
	Use:   "bgp",
	Short: "Configure and inspect BGP sessions, routes, and route-maps",
}

var bgpSessionCmd = &cobra.Command{
	Use:   "session <a> <b> <ibgp-peer|ibgp-client|ebgp>",
	Short: "Configure a BGP session between two routers",
	Long: `Configure a BGP session. For an ibgp-client session, a is the route
reflector and b is its client; the reverse direction is installed
automatically as a non-client peer, per spec §4.1.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireNetwork(); err != nil {
			return err
		}
		a, err := resolveRouter(app.net, args[0])
		if err != nil {
			return err
		}
		b, err := resolveRouter(app.net, args[1])
		if err != nil {
			return err
		}
		typ, err := bgproute.ParseSessionType(args[2])
		if err != nil {
			return err
		}
		if err := app.net.SetBGPSession(a, b, typ); err != nil {
			return err
		}
		return finish(false)
	},
}

var bgpAdvertiseCmd = &cobra.Command{
	Use:   "advertise <external-router> <prefix> <origin-asn> [as-path-asn...]",
	Short: "Originate an external route advertisement",
	Long: `Advertise a prefix from an external router, with an AS-path ending at
origin (the last element; the nearest hop at index 0 is the last extra
argument), per spec §3's "origin last, fresh AS prepended" ordering.

Example:
  netsim -f net.json bgp advertise e0 10.0.0.0/8 65001 -s`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireNetwork(); err != nil {
			return err
		}
		rid, err := resolveRouter(app.net, args[0])
		if err != nil {
			return err
		}
		p, err := parsePrefixArg(args[1])
		if err != nil {
			return err
		}
		origin, err := strconv.ParseUint(args[2], 10, 32)
		if err != nil {
			return fmt.Errorf("origin asn %q: %w", args[2], err)
		}
		asPath := []id.ASN{id.ASN(origin)}
		for _, a := range args[3:] {
			v, err := strconv.ParseUint(a, 10, 32)
			if err != nil {
				return fmt.Errorf("as-path asn %q: %w", a, err)
			}
			asPath = append([]id.ASN{id.ASN(v)}, asPath...)
		}
		med, _ := cmd.Flags().GetInt("med")
		communitiesFlag, _ := cmd.Flags().GetStringSlice("community")
		var communities []bgproute.Community
		for _, c := range communitiesFlag {
			com, err := parseCommunityArg(c)
			if err != nil {
				return err
			}
			communities = append(communities, com)
		}
		route := bgproute.Route{Prefix: p, NextHop: rid, ASPath: asPath, Communities: communities}
		if cmd.Flags().Changed("med") {
			route.MED = &med
		}
		if err := app.net.AdvertiseExternalRoute(rid, p, route); err != nil {
			return err
		}
		return finish(false)
	},
}

func parseCommunityArg(s string) (bgproute.Community, error) {
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

var bgpRetractCmd = &cobra.Command{
	Use:   "retract <external-router> <prefix>",
	Short: "Withdraw a previously advertised external route",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireNetwork(); err != nil {
			return err
		}
		rid, err := resolveRouter(app.net, args[0])
		if err != nil {
			return err
		}
		p, err := parsePrefixArg(args[1])
		if err != nil {
			return err
		}
		if err := app.net.RetractExternalRoute(rid, p); err != nil {
			return err
		}
		return finish(false)
	},
}

var bgpStaticCmd = &cobra.Command{
	Use:   "static <router> <prefix> <next-hop>",
	Short: "Install a static route override",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireNetwork(); err != nil {
			return err
		}
		rid, err := resolveRouter(app.net, args[0])
		if err != nil {
			return err
		}
		p, err := parsePrefixArg(args[1])
		if err != nil {
			return err
		}
		nh, err := resolveRouter(app.net, args[2])
		if err != nil {
			return err
		}
		if err := app.net.SetStaticRoute(rid, p, nh); err != nil {
			return err
		}
		return finish(false)
	},
}

var bgpLBCmd = &cobra.Command{
	Use:   "load-balancing <router> <true|false>",
	Short: "Toggle ECMP load balancing on a router",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireNetwork(); err != nil {
			return err
		}
		rid, err := resolveRouter(app.net, args[0])
		if err != nil {
			return err
		}
		enabled, err := strconv.ParseBool(args[1])
		if err != nil {
			return fmt.Errorf("enabled %q: %w", args[1], err)
		}
		if err := app.net.SetLoadBalancing(rid, enabled); err != nil {
			return err
		}
		return finish(false)
	},
}

// bgpRouteMapCmd installs a single-condition, single-action route-map
// item — enough to exercise each of spec §4.2's match/set families from
// the command line without a full policy-file syntax.
var bgpRouteMapCmd = &cobra.Command{
	Use:   "route-map <router> <peer> <in|out> <order> <allow|deny>",
	Short: "Install one route-map item on a peer session",
	Long: `Install one route-map item at the given order. At most one --match and
one --set may be given per invocation; issue the command multiple times
(with distinct orders) to build up a list, per spec §4.2's ordered
evaluation contract.

Matches:   as-path-contains=<asn>  next-hop=<router>  community=<asn:val>
           no-community=<asn:val>
Sets:      next-hop=<router>  local-pref=<n>  med=<n>  weight=<n>
           add-community=<asn:val>  remove-community=<asn:val>
Flow:      exit (default, no flag) | --continue | --continue-at=<order>

Example:
  netsim -f net.json bgp route-map r0 r1 out 10 deny \
      --match community=65535:16711680 -s`,
	Args: cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireNetwork(); err != nil {
			return err
		}
		rid, err := resolveRouter(app.net, args[0])
		if err != nil {
			return err
		}
		peer, err := resolveRouter(app.net, args[1])
		if err != nil {
			return err
		}
		var dir config.Direction
		switch args[2] {
		case "in":
			dir = config.In
		case "out":
			dir = config.Out
		default:
			return fmt.Errorf("direction must be 'in' or 'out', got %q", args[2])
		}
		order, err := strconv.ParseInt(args[3], 10, 16)
		if err != nil {
			return fmt.Errorf("order %q: %w", args[3], err)
		}
		state := routemap.Allow
		switch args[4] {
		case "allow":
		case "deny":
			state = routemap.Deny
		default:
			return fmt.Errorf("state must be 'allow' or 'deny', got %q", args[4])
		}

		item := routemap.Item{Order: int16(order), State: state}
		if m, _ := cmd.Flags().GetString("match"); m != "" {
			match, err := parseRouteMapMatch(m)
			if err != nil {
				return err
			}
			item.Matches = []routemap.Match{match}
		}
		if s, _ := cmd.Flags().GetString("set"); s != "" {
			set, err := parseRouteMapSet(s)
			if err != nil {
				return err
			}
			item.Sets = []routemap.SetAction{set}
		}
		if cont, _ := cmd.Flags().GetBool("continue"); cont {
			item.Flow = routemap.Flow{Kind: routemap.Continue}
		}
		if at, _ := cmd.Flags().GetInt("continue-at"); cmd.Flags().Changed("continue-at") {
			item.Flow = routemap.Flow{Kind: routemap.ContinueAt, At: int16(at)}
		}

		r, err := app.net.Router(rid)
		if err != nil {
			return err
		}
		cfg, ok := r.BGP.Peers()[peer]
		if !ok {
			return fmt.Errorf("no bgp session between %s and %s", args[0], args[1])
		}
		list := cfg.In
		if dir == config.Out {
			list = cfg.Out
		}
		if list == nil {
			list = routemap.NewList()
		}
		list.Insert(item)
		if dir == config.In {
			r.BGP.SetRouteMapIn(peer, list)
		} else {
			r.BGP.SetRouteMapOut(peer, list)
		}
		if err := app.cfg.Claim(config.Expr{
			Subject: config.RouteMapSubject(rid, peer, dir, int16(order)),
			Value:   config.Value{RouteMapItem: item},
		}); err != nil {
			return err
		}
		return finish(false)
	},
}

func parseRouteMapMatch(s string) (routemap.Match, error) {
	kv := strings.SplitN(s, "=", 2)
	if len(kv) != 2 {
		return nil, fmt.Errorf("match %q must be 'key=value'", s)
	}
	switch kv[0] {
	case "as-path-contains":
		v, err := strconv.ParseUint(kv[1], 10, 32)
		if err != nil {
			return nil, err
		}
		return routemap.ASPathContains{ASN: id.ASN(v)}, nil
	case "next-hop":
		rid, err := resolveRouter(app.net, kv[1])
		if err != nil {
			return nil, err
		}
		return routemap.NextHopEquals{RouterID: rid}, nil
	case "community":
		c, err := parseCommunityArg(kv[1])
		if err != nil {
			return nil, err
		}
		return routemap.CommunityContains{Community: c}, nil
	case "no-community":
		c, err := parseCommunityArg(kv[1])
		if err != nil {
			return nil, err
		}
		return routemap.CommunityAbsent{Community: c}, nil
	default:
		return nil, fmt.Errorf("unknown match key %q", kv[0])
	}
}

func parseRouteMapSet(s string) (routemap.SetAction, error) {
	kv := strings.SplitN(s, "=", 2)
	if len(kv) != 2 {
		return nil, fmt.Errorf("set %q must be 'key=value'", s)
	}
	switch kv[0] {
	case "next-hop":
		rid, err := resolveRouter(app.net, kv[1])
		if err != nil {
			return nil, err
		}
		return routemap.SetNextHop{RouterID: rid}, nil
	case "local-pref":
		v, err := strconv.Atoi(kv[1])
		if err != nil {
			return nil, err
		}
		return routemap.SetLocalPref{Value: v}, nil
	case "med":
		v, err := strconv.Atoi(kv[1])
		if err != nil {
			return nil, err
		}
		return routemap.SetMED{Value: v}, nil
	case "weight":
		v, err := strconv.Atoi(kv[1])
		if err != nil {
			return nil, err
		}
		return routemap.SetWeight{Value: v}, nil
	case "add-community":
		c, err := parseCommunityArg(kv[1])
		if err != nil {
			return nil, err
		}
		return routemap.AddCommunity{Community: c}, nil
	case "remove-community":
		c, err := parseCommunityArg(kv[1])
		if err != nil {
			return nil, err
		}
		return routemap.RemoveCommunity{Community: c}, nil
	default:
		return nil, fmt.Errorf("unknown set key %q", kv[0])
	}
}

var bgpRIBCmd = &cobra.Command{
	Use:   "rib <router> [in|out] [peer]",
	Short: "Show a router's selected RIB, or a per-peer RIB-in/RIB-out",
	Args:  cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireNetwork(); err != nil {
			return err
		}
		rid, err := resolveRouter(app.net, args[0])
		if err != nil {
			return err
		}
		r, err := app.net.Router(rid)
		if err != nil {
			return err
		}

		t := cli.NewTable("PREFIX", "ROUTE")
		switch {
		case len(args) == 1:
			r.BGP.RIB().Range(func(p prefix.Prefix, e bgproute.RIBEntry) bool {
				t.Row(p.String(), format.RIBEntryView{Entry: e}.Format(app.net))
				return true
			})
		case args[1] == "in" || args[1] == "out":
			if len(args) != 3 {
				return fmt.Errorf("rib in/out requires a peer name")
			}
			peer, err := resolveRouter(app.net, args[2])
			if err != nil {
				return err
			}
			var pm *prefix.Map[bgproute.RIBEntry]
			var ok bool
			if args[1] == "in" {
				pm, ok = r.BGP.RIBIn(peer)
			} else {
				pm, ok = r.BGP.RIBOut(peer)
			}
			if !ok {
				return fmt.Errorf("no session with %s", args[2])
			}
			pm.Range(func(p prefix.Prefix, e bgproute.RIBEntry) bool {
				t.Row(p.String(), format.RIBEntryView{Entry: e}.Format(app.net))
				return true
			})
		default:
			return fmt.Errorf("second argument must be 'in' or 'out', got %q", args[1])
		}
		t.Flush()
		return finish(true)
	},
}

func init() {
	bgpAdvertiseCmd.Flags().Int("med", 0, "MED")
	bgpAdvertiseCmd.Flags().StringSlice("community", nil, "community asn:value (repeatable)")
	bgpRouteMapCmd.Flags().String("match", "", "single match condition, key=value")
	bgpRouteMapCmd.Flags().String("set", "", "single set action, key=value")
	bgpRouteMapCmd.Flags().Bool("continue", false, "flow: continue to the next item")
	bgpRouteMapCmd.Flags().Int("continue-at", 0, "flow: continue at the given order")
	bgpCmd.AddCommand(bgpSessionCmd, bgpAdvertiseCmd, bgpRetractCmd, bgpStaticCmd, bgpLBCmd, bgpRouteMapCmd, bgpRIBCmd)
}
