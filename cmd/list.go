package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"mapfbench/internal/result"
)

var flagListDir string

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored benchmark runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := result.ListRuns(flagListDir)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No stored runs.")
				return nil
			}
			for _, r := range runs {
				if r.Meta == nil {
					fmt.Printf("%s  (interrupted)\n", filepath.Base(r.Dir))
					continue
				}
				m := r.Meta
				fmt.Printf("%s  %s: %d trials, %d completed, %d timeouts, %d failures, %ds\n",
					filepath.Base(r.Dir), m.Name, m.Trials, m.Completed, m.Timeouts, m.Failures, m.DurationS)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flagListDir, "dir", "results", "results directory")
	return cmd
}
