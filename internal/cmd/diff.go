package cmd

import (
	"github.com/spf13/cobra"

	"github.com/openacq/metamigrate/internal/migrate"
	"github.com/openacq/metamigrate/internal/output"
	"github.com/openacq/metamigrate/internal/record"
)

var (
	diffPermissiveFlag      bool
	diffKeepBookkeepingFlag bool
)

// NewDiffCmd creates the diff command.
func NewDiffCmd() *cobra.Command {
	diffCmd := &cobra.Command{
		Use:   "diff <record.json>",
		Short: "Show what migration would change in a record",
		Long: `Migrate a record and render a structure-aware diff between the legacy
record and the migrated document. Nothing is written anywhere; this is a
read-only preview.`,
		Args: cobra.ExactArgs(1),
		RunE: runDiff,
	}

	diffCmd.Flags().BoolVar(&diffPermissiveFlag, "permissive", false, "Keep core files that fail validation instead of aborting")
	diffCmd.Flags().BoolVar(&diffKeepBookkeepingFlag, "keep-bookkeeping", false, "Include store bookkeeping fields in the diff")

	return diffCmd
}

func runDiff(cmd *cobra.Command, args []string) error {
	rec, err := record.Load(args[0])
	if err != nil {
		return exitWithCode(err)
	}

	engine, err := newEngine(migrate.Options{Permissive: diffPermissiveFlag})
	if err != nil {
		return exitWithCode(err)
	}

	migrated, _, err := engine.Migrate(rec)
	if err != nil {
		return exitWithCode(err)
	}

	report, err := output.CompareRecords(rec, migrated, output.DiffOptions{
		UseColor:        useColor(),
		KeepBookkeeping: diffKeepBookkeepingFlag,
	})
	if err != nil {
		return exitWithCode(err)
	}

	changes := output.ChangedCoreFiles(rec, migrated)
	if report == "" && changes.Empty() {
		output.Println("no changes")
		return nil
	}
	if summary := output.RenderRecordChanges(changes); summary != "" {
		output.Println(summary)
	}
	output.Print(report)
	return nil
}
