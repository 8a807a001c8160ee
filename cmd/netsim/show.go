package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/routesim/netsim/pkg/cli"
	"github.com/routesim/netsim/pkg/forwarding"
	"github.com/routesim/netsim/pkg/format"
	"github.com/routesim/netsim/pkg/id"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Derive and display forwarding state (spec §4.8, component K)",
}

var showForwardingCmd = &cobra.Command{
	Use:   "forwarding <prefix> [router]",
	Short: "Show the forwarding entry for a prefix, at one router or every router",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireNetwork(); err != nil {
			return err
		}
		if err := app.net.Simulate(); err != nil {
			return err
		}
		table, err := forwarding.Build(app.net)
		if err != nil {
			return err
		}
		p, err := parsePrefixArg(args[0])
		if err != nil {
			return err
		}

		t := cli.NewTable("ROUTER", "NEXT-HOPS")
		routers := app.net.Routers()
		if len(args) == 2 {
			rid, err := resolveRouter(app.net, args[1])
			if err != nil {
				return err
			}
			routers = []id.RouterID{rid}
		}
		for _, rid := range routers {
			entry, ok := table.Entry(rid, p)
			if !ok {
				continue
			}
			t.Row(app.net.Name(rid), format.ForwardingEntryView{Entry: entry}.Format(app.net))
		}
		t.Flush()
		return finish(true)
	},
}

var showPathsCmd = &cobra.Command{
	Use:   "paths <src> <prefix>",
	Short: "Enumerate router-level paths from src to a prefix's delivery point",
	Long: `Walks the forwarding state from src toward prefix, branching under load
balancing, reporting ForwardingLoop or ForwardingBlackHole if the walk
cannot reach a "to-destination" entry (spec §4.8).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireNetwork(); err != nil {
			return err
		}
		if err := app.net.Simulate(); err != nil {
			return err
		}
		table, err := forwarding.Build(app.net)
		if err != nil {
			return err
		}
		src, err := resolveRouter(app.net, args[0])
		if err != nil {
			return err
		}
		p, err := parsePrefixArg(args[1])
		if err != nil {
			return err
		}
		paths, err := table.GetPaths(src, p)
		if err != nil {
			return err
		}
		for _, path := range paths {
			fmt.Println(format.ForwardingPathView{Path: path}.Format(app.net))
		}
		return finish(true)
	},
}

func init() {
	showCmd.AddCommand(showForwardingCmd, showPathsCmd)
}
