package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabcast-cli/internal/forecast"
)

var (
	validateDate   string
	validateTarget string
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check that a table is usable for forecasting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := openSession(args[0])
		if err != nil {
			return err
		}
		t, err := s.Table()
		if err != nil {
			return err
		}
		ok, reason := forecast.Validate(t.Records(), validateDate, validateTarget)
		if !ok {
			return errors.New(reason)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", reason)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validateDate, "date", "", "date column")
	validateCmd.Flags().StringVar(&validateTarget, "target", "", "numeric target column")
	_ = validateCmd.MarkFlagRequired("date")
	_ = validateCmd.MarkFlagRequired("target")
}
