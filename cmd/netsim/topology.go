package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/routesim/netsim/pkg/cli"
	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/kernel"
	"github.com/routesim/netsim/pkg/ospf"
	"github.com/routesim/netsim/pkg/router"
)

var routerCmd = &cobra.Command{
	Use:   "router",
	Short: "Add and list routers",
}

var routerAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a router (internal by default)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireNetwork(); err != nil {
			return err
		}
		asn, _ := cmd.Flags().GetUint32("asn")
		external, _ := cmd.Flags().GetBool("external")
		kind := router.Internal
		if external {
			kind = router.External
		} else if asn == 0 {
			asn = uint32(id.InternalASN)
		}
		rid := app.net.AddRouter(kind, id.ASN(asn), args[0])
		fmt.Printf("added %s %s (asn=%d, id=%s)\n", kind, args[0], asn, rid)
		return finish(true)
	},
}

var routerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List routers",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireNetwork(); err != nil {
			return err
		}
		t := cli.NewTable("NAME", "ID", "KIND", "ASN", "LOAD-BALANCING")
		for _, rid := range app.net.Routers() {
			r, err := app.net.Router(rid)
			if err != nil {
				continue
			}
			t.Row(app.net.Name(rid), rid.String(), r.Kind.String(), r.ASN.String(), strconv.FormatBool(r.LoadBalancing))
		}
		t.Flush()
		return finish(true)
	},
}

func init() {
	routerAddCmd.Flags().Uint32("asn", 0, "ASN (defaults to the internal ASN 65535 for internal routers)")
	routerAddCmd.Flags().Bool("external", false, "Create an external router")
	routerCmd.AddCommand(routerAddCmd, routerListCmd)
}

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Add, list, and reconfigure topology links",
}

func resolveRouter(n *kernel.Network, name string) (id.RouterID, error) {
	r, err := n.RouterByName(name)
	if err != nil {
		return 0, err
	}
	return r.ID, nil
}

var linkAddCmd = &cobra.Command{
	Use:   "add <a> <b>",
	Short: "Add a link between two routers",
	Args:  cobra.ExactArgs(2),
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
		weight, _ := cmd.Flags().GetFloat64("weight")
		area, _ := cmd.Flags().GetUint32("area")
		if err := app.net.AddLink(a, b, weight, ospf.Area(area)); err != nil {
			return err
		}
		fmt.Printf("linked %s-%s weight=%g area=%d\n", args[0], args[1], weight, area)
		return finish(false)
	},
}

var linkWeightCmd = &cobra.Command{
	Use:   "weight <a> <b> <weight>",
	Short: "Set a link's OSPF weight",
	Args:  cobra.ExactArgs(3),
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
		w, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("weight %q: %w", args[2], err)
		}
		if err := app.net.SetLinkWeight(a, b, w); err != nil {
			return err
		}
		return finish(false)
	},
}

var linkAreaCmd = &cobra.Command{
	Use:   "area <a> <b> <area>",
	Short: "Move a link into a different OSPF area",
	Args:  cobra.ExactArgs(3),
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
		area, err := strconv.ParseUint(args[2], 10, 32)
		if err != nil {
			return fmt.Errorf("area %q: %w", args[2], err)
		}
		if err := app.net.SetOSPFArea(a, b, ospf.Area(area)); err != nil {
			return err
		}
		return finish(false)
	},
}

var linkRemoveCmd = &cobra.Command{
	Use:   "remove <a> <b>",
	Short: "Remove a link (cascades session/adjacency teardown)",
	Args:  cobra.ExactArgs(2),
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
		if err := app.net.RemoveLink(a, b); err != nil {
			return err
		}
		return finish(false)
	},
}

var linkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List topology links",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireNetwork(); err != nil {
			return err
		}
		t := cli.NewTable("A", "B", "WEIGHT", "AREA", "OSPF")
		for _, l := range app.net.Links() {
			t.Row(app.net.Name(l.A), app.net.Name(l.B), strconv.FormatFloat(l.Weight, 'g', -1, 64), l.Area.String(), strconv.FormatBool(l.HasOSPF))
		}
		t.Flush()
		return finish(true)
	},
}

func init() {
	linkAddCmd.Flags().Float64("weight", 1, "OSPF link weight")
	linkAddCmd.Flags().Uint32("area", 0, "OSPF area (0 = backbone)")
	linkCmd.AddCommand(linkAddCmd, linkWeightCmd, linkAreaCmd, linkRemoveCmd, linkListCmd)
}
