package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teranos/lineage/version"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show lineage version information",
		Long:  `Display version, build time, commit hash, and platform information for the lineage binary.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOutput, _ := cmd.Flags().GetBool("json")

			info := version.Get()
			w := cmd.OutOrStdout()

			if jsonOutput {
				return renderJSON(w, info)
			}
			fmt.Fprintln(w, info.String())
			fmt.Fprintf(w, "Platform: %s\n", info.Platform)
			fmt.Fprintf(w, "Go: %s\n", info.GoVersion)
			return nil
		},
	}
	cmd.Flags().BoolP("json", "j", false, "Output version info as JSON")
	return cmd
}
