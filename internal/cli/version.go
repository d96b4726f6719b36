package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information
var versionInfo = struct {
	version string
	commit  string
	date    string
}{
	version: "dev",
	commit:  "unknown",
	date:    "unknown",
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version information for the sqreport CLI.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sqreport version %s\n", versionInfo.version)
			if versionInfo.commit != "unknown" {
				fmt.Fprintf(out, "commit: %s\n", versionInfo.commit)
			}
			if versionInfo.date != "unknown" {
				fmt.Fprintf(out, "built: %s\n", versionInfo.date)
			}
		},
	}
}
