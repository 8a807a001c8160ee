package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <trace-file>",
	Short: "Re-enqueue a recorded event trace and run it to quiescence",
	Long: `Reads a JSON-lines replay trace (spec §6 "Replay format", written by
simulate run --record) and feeds it back through the network named by -f,
then runs simulate() to deliver it. Router IDs in the trace must refer to
routers already present in -f's network.

Example:
  netsim -f net.json simulate run --record trace.jsonl
  netsim -f empty.json replay trace.jsonl -s`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireNetwork(); err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		if err := app.net.Replay(f); err != nil {
			return err
		}
		before := app.net.EventsProcessed()
		if err := finish(false); err != nil {
			return err
		}
		fmt.Printf("replayed %s: processed %d events\n", args[0], app.net.EventsProcessed()-before)
		return nil
	},
}

