package main

import (
	"github.com/spf13/cobra"
)

func newReconcileCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Replay pending vector index writes once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			report, err := app.Reconciler.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			if c.asJSON {
				return printJSON(cmd, report)
			}
			cmd.Printf("replayed=%d dropped=%d failed=%d dead_lettered=%d deferred=%d pending=%d\n",
				report.Replayed, report.Dropped, report.Failed, report.DeadLettered, report.Deferred, report.Pending)
			return nil
		},
	}
}
