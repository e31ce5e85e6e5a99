package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabcast-cli/internal/analysis"
)

var (
	visX       string
	visY       string
	visGrouped bool
	visAgg     string
	visWhere   []string
	visFile    string
)

var visualizeCmd = &cobra.Command{
	Use:   "visualize <file>",
	Short: "Build chart series from two columns, optionally grouped and aggregated",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clauses, err := collectClauses(visWhere, visFile)
		if err != nil {
			return err
		}
		s, _, err := openSession(args[0])
		if err != nil {
			return err
		}
		chart, err := s.Visualize(analysis.VisualizeRequest{
			X:          visX,
			Y:          visY,
			Grouped:    visGrouped,
			Aggregator: visAgg,
			Filters:    clauses,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), chart)
	},
}

func init() {
	rootCmd.AddCommand(visualizeCmd)
	visualizeCmd.Flags().StringVar(&visX, "x", "", "x-axis column")
	visualizeCmd.Flags().StringVar(&visY, "y", "", "y-axis column")
	visualizeCmd.Flags().BoolVar(&visGrouped, "group", false, "group rows by x and aggregate y")
	visualizeCmd.Flags().StringVar(&visAgg, "agg", "avg", "aggregator for grouped charts: sum, avg, count, min, max")
	visualizeCmd.Flags().StringArrayVar(&visWhere, "where", nil, `filter clause "column operator value" (repeatable)`)
	visualizeCmd.Flags().StringVar(&visFile, "filters", "", "YAML file with a list of filter clauses")
	_ = visualizeCmd.MarkFlagRequired("x")
	_ = visualizeCmd.MarkFlagRequired("y")
}
