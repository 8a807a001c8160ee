// netsim is a CLI for the BGP/OSPF control-plane simulator: build a
// topology, drive BGP/OSPF configuration changes, step or run the
// event-driven simulation to convergence, and inspect the resulting
// forwarding state.
//
// Noun-group pattern, one persisted network document per invocation:
//
//	netsim -f net.json <resource> <action> [args] [-s]
//
// Examples:
//
//	netsim -f net.json router add r0 --asn 65000
//	netsim -f net.json link add r0 r1 --weight 1 -s
//	netsim -f net.json bgp session r0 r1 ibgp-peer -s
//	netsim -f net.json simulate run -s
//	netsim -f net.json show forwarding r0 10.0.0.0/8
//	netsim shell -f net.json
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/routesim/netsim/pkg/cli"
	"github.com/routesim/netsim/pkg/config"
	"github.com/routesim/netsim/pkg/kernel"
	"github.com/routesim/netsim/pkg/settings"
	"github.com/routesim/netsim/pkg/util"
)

// App holds CLI state shared across all commands.
type App struct {
	// Option flags
	file       string
	universe   string
	saveMode   bool
	verbose    bool
	jsonOutput bool
	stopAfter  int

	// Initialized state (settings in PersistentPreRunE; net and cfg in
	// requireNetwork)
	settings *settings.Settings
	net      *kernel.Network
	cfg      *config.Config
}

var app = &App{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "netsim",
	Short:         "BGP/OSPF control-plane simulator",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `netsim drives a discrete-event simulation of a network's BGP and OSPF
control plane to convergence and reports the resulting forwarding state.

Every command (other than "build" and "settings") loads the network named
by -f, applies one change, runs simulate() (a few commands, such as
"router add" and the list/rib views, skip this step), and — with -s — writes the result back to -f.

  netsim -f net.json router add r0 --asn 65000 -s
  netsim -f net.json link add r0 r1 --weight 1 -s
  netsim -f net.json bgp session r0 r1 ibgp-peer -s
  netsim -f net.json simulate run -s
  netsim -f net.json show forwarding r0 10.0.0.0/8
  netsim settings show`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if isSettingsOrHelp(cmd) {
			return nil
		}

		var err error
		app.settings, err = settings.Load()
		if err != nil {
			util.Logger.Warnf("could not load settings: %v", err)
			app.settings = &settings.Settings{}
		}
		if app.stopAfter == 0 {
			app.stopAfter = app.settings.GetStopAfter()
		}

		if app.verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&app.file, "file", "f", "", "Persisted network document (JSON)")
	rootCmd.PersistentFlags().StringVarP(&app.universe, "universe", "u", "ipv4", "Prefix universe: ipv4, flat, or single")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Verbose logging")
	rootCmd.PersistentFlags().IntVar(&app.stopAfter, "stop-after", 0, "Event-processing cap for simulate() (0 = settings default)")

	for _, cmd := range []*cobra.Command{routerCmd, linkCmd, bgpCmd, ospfCmd, simulateCmd, showCmd, replayCmd} {
		cmd.PersistentFlags().BoolVarP(&app.saveMode, "save", "s", false, "Write the network back to -f after this command")
		cmd.PersistentFlags().BoolVar(&app.jsonOutput, "json", false, "JSON output")
	}

	rootCmd.AddGroup(
		&cobra.Group{ID: "topology", Title: "Topology:"},
		&cobra.Group{ID: "protocol", Title: "Protocols:"},
		&cobra.Group{ID: "sim", Title: "Simulation:"},
		&cobra.Group{ID: "meta", Title: "Configuration & Meta:"},
	)

	for _, cmd := range []*cobra.Command{routerCmd, linkCmd} {
		cmd.GroupID = "topology"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{bgpCmd, ospfCmd} {
		cmd.GroupID = "protocol"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{simulateCmd, showCmd, replayCmd} {
		cmd.GroupID = "sim"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{buildCmd, settingsCmd, versionCmd, shellCmd, redisCmd} {
		cmd.GroupID = "meta"
		rootCmd.AddCommand(cmd)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("netsim dev build")
	},
}

// isSettingsOrHelp checks whether cmd (or any ancestor) skips network
// loading entirely.
func isSettingsOrHelp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "version", "settings", "build", "redis":
			return true
		}
	}
	return false
}

// requireNetwork loads the network named by -f, failing if it is unset
// or unreadable. Used by every command that mutates or inspects an
// existing network.
func requireNetwork() error {
	if app.file == "" {
		return fmt.Errorf("network file required: use -f <file>")
	}
	n, cfg, u, err := loadNetwork(app.file)
	if err != nil {
		return fmt.Errorf("loading %s: %w", app.file, err)
	}
	app.net = n
	app.cfg = cfg
	if u != "" {
		app.universe = u
	}
	return nil
}

// finish runs simulate() (unless skipped) and saves the network back to
// -f if -s was given.
func finish(skipSimulate bool) error {
	if app.net == nil {
		return nil
	}
	app.net.StopAfter = app.stopAfter
	if !skipSimulate {
		if err := app.net.Simulate(); err != nil {
			return err
		}
	}
	if app.saveMode {
		if err := saveNetwork(app.file, app.net, app.cfg, app.universe); err != nil {
			return fmt.Errorf("saving %s: %w", app.file, err)
		}
	}
	return nil
}

// Color helpers — delegate to pkg/cli
func green(s string) string  { return cli.Green(s) }
func yellow(s string) string { return cli.Yellow(s) }
func red(s string) string    { return cli.Red(s) }
func bold(s string) string   { return cli.Bold(s) }

// dash returns s if non-empty, otherwise "-".
func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func joinOrDash(parts []string) string {
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}
