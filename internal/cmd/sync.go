package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/openacq/metamigrate/internal/docstore"
	"github.com/openacq/metamigrate/internal/migrate"
	"github.com/openacq/metamigrate/internal/output"
	"github.com/openacq/metamigrate/internal/statusdb"
	"github.com/openacq/metamigrate/internal/sync"
)

var (
	syncLimitFlag          int
	syncDryRunFlag         bool
	syncStatusDBFlag       string
	syncStatusFormatFlag   string
	syncPermissiveFlag     bool
	syncSkipValidationFlag bool
)

// NewSyncCmd creates the sync command.
func NewSyncCmd() *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Migrate every record from the source collection into the target collection",
		Long: `Page through the source collection, migrate each record, and upsert the
result into the target collection. Per-record outcomes are written to the
status database so a rerun can be audited.`,
		Args: cobra.NoArgs,
		RunE: runSync,
	}

	syncCmd.Flags().IntVar(&syncLimitFlag, "limit", 0, "Stop after this many records (0 means all)")
	syncCmd.Flags().BoolVar(&syncDryRunFlag, "dry-run", false, "Migrate records but write nothing to the store or status database")
	syncCmd.PersistentFlags().StringVar(&syncStatusDBFlag, "status-db", "", "Status database DSN (overrides config)")
	syncCmd.Flags().BoolVar(&syncPermissiveFlag, "permissive", false, "Keep core files that fail validation instead of aborting")
	syncCmd.Flags().BoolVar(&syncSkipValidationFlag, "skip-validation", false, "Skip schema validation entirely")

	syncCmd.AddCommand(newSyncStatusCmd())

	return syncCmd
}

func newSyncStatusCmd() *cobra.Command {
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "List the recorded per-record sync outcomes",
		Args:  cobra.NoArgs,
		RunE:  runSyncStatus,
	}

	statusCmd.Flags().StringVar(&syncStatusFormatFlag, "format", "table", "Output format: "+strings.Join(output.ValidSyncFormats(), ", "))

	return statusCmd
}

func runSyncStatus(cmd *cobra.Command, args []string) error {
	status, err := openStatusStore()
	if err != nil {
		return exitWithCode(err)
	}
	defer status.Close()

	rows, err := status.List(cmd.Context())
	if err != nil {
		return exitWithCode(err)
	}

	if syncStatusFormatFlag == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(rows)
	}

	records := make([]output.RecordStatus, 0, len(rows))
	for _, row := range rows {
		records = append(records, output.RecordStatus{
			V1ID:         row.V1ID,
			V2ID:         row.V2ID,
			Version:      row.UpgraderVersion,
			LastModified: row.LastModified.Format(time.RFC3339),
			Status:       row.Status,
		})
	}
	output.Println(output.RenderStatusTable(records))
	return nil
}

// openStatusStore opens the status database named by the --status-db flag or
// the config.
func openStatusStore() (statusdb.Store, error) {
	dsn := syncStatusDBFlag
	if dsn == "" {
		dsn = GetConfig().StatusDB.DSN
	}
	return statusdb.Open(dsn)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	source, err := docstore.New(cfg.Store, cfg.Store.SourceCollection)
	if err != nil {
		return exitWithCode(err)
	}
	target, err := docstore.New(cfg.Store, cfg.Store.TargetCollection)
	if err != nil {
		return exitWithCode(err)
	}

	status, err := openStatusStore()
	if err != nil {
		return exitWithCode(err)
	}
	defer status.Close()

	engine, err := newEngine(migrate.Options{
		Permissive:     syncPermissiveFlag,
		SkipValidation: syncSkipValidationFlag,
	})
	if err != nil {
		return exitWithCode(err)
	}

	runner := sync.NewRunner(source, target, status, engine.Migrate, sync.Options{
		Limit:  syncLimitFlag,
		DryRun: syncDryRunFlag,
	})

	summary, err := runner.Run(cmd.Context())
	if err != nil {
		return exitWithCode(err)
	}

	output.Println(fmt.Sprintf("migrated %d of %d records (%d failed)",
		summary.Succeeded, summary.Total, summary.Failed))
	if summary.Failed > 0 {
		return exitWithCode(fmt.Errorf("%d of %d records failed to migrate", summary.Failed, summary.Total))
	}
	return nil
}
