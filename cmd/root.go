package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mapfbench",
		Short: "Benchmark sweeps and statistics for multi-agent pathfinding solvers",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "mapfbench.yaml", "config file path")
	root.AddCommand(newRunCmd())
	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newListCmd())
	return root
}
