package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openacq/metamigrate/internal/output"
	"github.com/openacq/metamigrate/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Show metamigrate version information.

Displays:
  - metamigrate version, commit, and build date
  - the schema version records are migrated to`,
		RunE: runVersion,
	}
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := version.GetInfo()

	output.Println(fmt.Sprintf("metamigrate version %s", info.Version))
	output.Println(fmt.Sprintf("  Commit:  %s", info.GitCommit))
	output.Println(fmt.Sprintf("  Built:   %s", info.BuildDate))
	output.Println(fmt.Sprintf("  Go:      %s", info.GoVersion))
	output.Println(fmt.Sprintf("  Schema:  %s", info.TargetSchemaVersion))

	return nil
}
