package cmd

import (
	"github.com/spf13/cobra"
)

var (
	filterWhere   []string
	filterFile    string
	filterPreview int
)

var filterCmd = &cobra.Command{
	Use:   "filter <file>",
	Short: "Apply filter clauses and preview the matching rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clauses, err := collectClauses(filterWhere, filterFile)
		if err != nil {
			return err
		}
		s, sum, err := openSession(args[0])
		if err != nil {
			return err
		}
		out, err := s.ApplyFilters(clauses)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"row_count":  out.Len(),
			"total_rows": sum.TotalRows,
			"preview":    out.Head(filterPreview),
		})
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)
	filterCmd.Flags().StringArrayVar(&filterWhere, "where", nil, `filter clause "column operator value" (repeatable)`)
	filterCmd.Flags().StringVar(&filterFile, "filters", "", "YAML file with a list of filter clauses")
	filterCmd.Flags().IntVar(&filterPreview, "preview", 5, "number of matching rows to print")
}
