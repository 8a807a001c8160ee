package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Drive the event queue (run to quiescence, or step once)",
}

var simulateRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Pop and deliver events until the queue is empty (spec §4.7 simulate())",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireNetwork(); err != nil {
			return err
		}
		if record, _ := cmd.Flags().GetString("record"); record != "" {
			f, err := os.Create(record)
			if err != nil {
				return err
			}
			defer f.Close()
			app.net.Record(f)
		}
		before := app.net.EventsProcessed()
		if err := finish(false); err != nil {
			return err
		}
		fmt.Printf("processed %d events, queue empty\n", app.net.EventsProcessed()-before)
		return nil
	},
}

var simulateStepCmd = &cobra.Command{
	Use:   "step",
	Short: "Pop and deliver exactly one event (spec §4.7 simulate_step())",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireNetwork(); err != nil {
			return err
		}
		e, ok, err := app.net.SimulateStep()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("queue empty")
		} else {
			fmt.Printf("delivered %s: %s -> %s\n", e.Kind, app.net.Name(e.Src), app.net.Name(e.Dst))
		}
		return finish(true)
	},
}

func init() {
	simulateRunCmd.Flags().String("record", "", "Write a JSON-lines replay trace of every delivered event to this file")
	simulateCmd.AddCommand(simulateRunCmd, simulateStepCmd)
}
