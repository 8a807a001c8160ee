package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/routesim/netsim/pkg/cli"
	"github.com/routesim/netsim/pkg/format"
	"github.com/routesim/netsim/pkg/ospf"
)

var ospfCmd = &cobra.Command{
	Use:   "ospf",
	Short: "Inspect per-router OSPF link-state databases and SPF tables",
}

var ospfLSDBCmd = &cobra.Command{
	Use:   "lsdb <router> [area]",
	Short: "Show a router's LSA database, for one area or all areas",
	Args:  cobra.RangeArgs(1, 2),
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
		areas := r.OSPFAreas()
		if len(args) == 2 {
			a, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("area %q: %w", args[1], err)
			}
			areas = []ospf.Area{ospf.Area(a)}
		}
		sort.Slice(areas, func(i, j int) bool { return areas[i] < areas[j] })

		t := cli.NewTable("AREA", "LSA")
		for _, area := range areas {
			co, ok := r.OSPFArea(area)
			if !ok {
				continue
			}
			lsas := co.Database().All()
			sort.Slice(lsas, func(i, j int) bool { return lsas[i].Key.String() < lsas[j].Key.String() })
			for _, lsa := range lsas {
				t.Row(area.String(), format.LSAView{LSA: lsa}.Format(app.net))
			}
		}
		t.Flush()
		return finish(true)
	},
}

var ospfTableCmd = &cobra.Command{
	Use:   "table <router> [area]",
	Short: "Show a router's per-area SPF table",
	Args:  cobra.RangeArgs(1, 2),
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
		areas := r.OSPFAreas()
		if len(args) == 2 {
			a, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("area %q: %w", args[1], err)
			}
			areas = []ospf.Area{ospf.Area(a)}
		}
		sort.Slice(areas, func(i, j int) bool { return areas[i] < areas[j] })

		for _, area := range areas {
			co, ok := r.OSPFArea(area)
			if !ok {
				continue
			}
			fmt.Println(format.AreaTableView{Area: area, Table: co.Table()}.Format(app.net))
		}
		return finish(true)
	},
}

func init() {
	ospfCmd.AddCommand(ospfLSDBCmd, ospfTableCmd)
}
