package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/routesim/netsim/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "View and change persistent CLI defaults",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return err
		}
		fmt.Printf("queue_discipline:    %s\n", s.GetQueueDiscipline())
		fmt.Printf("ospf_mode:           %s\n", s.GetOSPFMode())
		fmt.Printf("stop_after:          %d\n", s.GetStopAfter())
		fmt.Printf("last_network_file:   %s\n", dash(s.LastNetworkFile))
		fmt.Printf("load_balancing_default: %v\n", s.LoadBalancingByDefault)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one persistent setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return err
		}
		switch args[0] {
		case "queue_discipline":
			s.QueueDiscipline = args[1]
		case "ospf_mode":
			s.OSPFMode = args[1]
		case "default_network_file":
			s.DefaultNetworkFile = args[1]
		default:
			return fmt.Errorf("unknown setting %q", args[0])
		}
		return s.Save()
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
}
