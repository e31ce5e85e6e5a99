package cmd

import (
	"github.com/spf13/cobra"
)

var inferCmd = &cobra.Command{
	Use:   "infer <file>",
	Short: "Load a table and print its inferred column types",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, sum, err := openSession(args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), sum)
	},
}

func init() {
	rootCmd.AddCommand(inferCmd)
}
