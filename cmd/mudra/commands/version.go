package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mudra %s (commit %s, %s/%s)\n",
			version.Current, version.Commit, runtime.GOOS, runtime.GOARCH)
	},
}
