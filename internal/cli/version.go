package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version info set via SetVersionInfo from main's ldflags.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// SetVersionInfo records build metadata for the version command.
func SetVersionInfo(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ansimon %s (commit %s, built %s)\n", buildVersion, buildCommit, buildDate)
	},
}
