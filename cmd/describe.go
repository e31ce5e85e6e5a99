package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabcast-cli/internal/utils"
)

var (
	describeJSON   bool
	describeOutput string
)

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Summarize every column of a table as a Markdown report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := openSession(args[0])
		if err != nil {
			return err
		}
		rep, err := s.Describe(filepath.Base(args[0]))
		if err != nil {
			return err
		}
		var out []byte
		if describeJSON {
			if out, err = utils.PrettyJSON(rep); err != nil {
				return err
			}
		} else {
			out = []byte(rep.Markdown())
		}
		if describeOutput != "" {
			if err := utils.EnsureDir(filepath.Dir(describeOutput)); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(describeOutput, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote report to %s\n", describeOutput)
			return nil
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().BoolVar(&describeJSON, "json", false, "emit the report as JSON")
	describeCmd.Flags().StringVar(&describeOutput, "output", "", "write the report to this path instead of stdout")
}
