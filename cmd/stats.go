package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabcast-cli/internal/analysis"
)

var statsColumn string

var statsCmd = &cobra.Command{
	Use:   "stats <file>",
	Short: "Print statistics for one column, or all columns when --column is omitted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, sum, err := openSession(args[0])
		if err != nil {
			return err
		}
		if statsColumn != "" {
			cs, err := s.ColumnStats(statsColumn)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), cs)
		}
		all := make([]*analysis.ColumnStats, 0, len(sum.Columns))
		for _, c := range sum.Columns {
			cs, err := s.ColumnStats(c)
			if err != nil {
				return err
			}
			all = append(all, cs)
		}
		return printJSON(cmd.OutOrStdout(), all)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsColumn, "column", "", "column to summarize")
}
