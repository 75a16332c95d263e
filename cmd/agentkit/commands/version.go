package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/agentkit/cmd/agentkit/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("format") {
			return output(cmd, build.Get())
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, build.String())
		if IsVerbose() {
			info := build.Get()
			fmt.Fprintf(out, "  go:     %s\n", info.GoVersion)
			fmt.Fprintf(out, "  config: %s\n", cfgFile)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
