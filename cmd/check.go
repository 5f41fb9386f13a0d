package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mapfbench/internal/analysis"
	"mapfbench/internal/diag"
	"mapfbench/internal/trial"
)

var flagCheckTimeoutSecs int

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <raw-csv>",
		Short: "Verify cost consistency of a raw trial table",
		Long:  "Load a raw trial table and cross-check reported path costs: every exact baseline run on an instance must agree, and no bounded variant may report a cost below the baseline optimum. Exits nonzero when a cost finding turns up.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var c diag.Collector
			table, err := trial.Load(args[0], trial.LoadOptions{TimeoutMicros: float64(flagCheckTimeoutSecs) * 1e6}, &c)
			if err != nil {
				return err
			}
			analysis.CheckConsistency(table, &c)
			c.Emit()

			findings := len(c.ByKind(diag.CostInconsistency)) + len(c.ByKind(diag.CostDiscrepancy))
			fmt.Printf("%d rows checked, %d warnings\n", len(table.Rows), c.Len())
			if findings > 0 {
				return fmt.Errorf("%d cost consistency findings", findings)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&flagCheckTimeoutSecs, "timeout-secs", 60, "experiment timeout used as the censoring penalty")
	return cmd
}
