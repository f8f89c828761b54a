package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openacq/metamigrate/internal/docstore"
	"github.com/openacq/metamigrate/internal/migrate"
	"github.com/openacq/metamigrate/internal/output"
	"github.com/openacq/metamigrate/internal/record"
)

var (
	runNameFlag           string
	runOutputFlag         string
	runFormatFlag         string
	runSplitFlag          string
	runDocsFlag           bool
	runStoreFlag          bool
	runPermissiveFlag     bool
	runSkipValidationFlag bool
	runReportJSONFlag     bool
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [record.json]",
		Short: "Migrate one record to the target schema version",
		Long: `Migrate a single legacy record to the target schema version.

The record comes from a local JSON or YAML file, or from the configured
document store with --name. The migrated document is written as JSON to
stdout or to --output; with --store the result is also upserted into the
target collection.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRun,
	}

	runCmd.Flags().StringVar(&runNameFlag, "name", "", "Fetch the record by name from the document store")
	runCmd.Flags().StringVarP(&runOutputFlag, "output", "o", "", "Write the migrated record to this file instead of stdout")
	runCmd.Flags().StringVar(&runFormatFlag, "format", "json", "Output format: "+strings.Join(output.ValidRunFormats(), ", "))
	runCmd.Flags().StringVar(&runSplitFlag, "split", "", "Write each core file to a separate file in this directory")
	runCmd.Flags().BoolVar(&runDocsFlag, "docs", false, "Print the core files only, without the record envelope")
	runCmd.Flags().BoolVar(&runStoreFlag, "store", false, "Upsert the migrated record into the target collection")
	runCmd.Flags().BoolVar(&runPermissiveFlag, "permissive", false, "Keep core files that fail validation instead of aborting")
	runCmd.Flags().BoolVar(&runSkipValidationFlag, "skip-validation", false, "Skip anchor-group and whole-record validation")
	runCmd.Flags().BoolVar(&runReportJSONFlag, "report-json", false, "Write the migration report as JSON")

	return runCmd
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rec, err := loadRunRecord(ctx, args)
	if err != nil {
		return exitWithCode(err)
	}

	engine, err := newEngine(migrate.Options{
		Permissive:     runPermissiveFlag,
		SkipValidation: runSkipValidationFlag,
	})
	if err != nil {
		return exitWithCode(err)
	}

	migrated, res, err := engine.Migrate(rec)

	reportErrs := []error{}
	if err != nil {
		reportErrs = append(reportErrs, err)
	}
	if werr := output.WriteMigrationReport(reportInfo(rec, res, reportErrs...), output.ReportOptions{
		JSON:   runReportJSONFlag,
		Writer: os.Stderr,
	}); werr != nil {
		output.Warn("writing migration report", "error", werr)
	}
	if err != nil {
		return exitWithCode(err)
	}

	if err := writeRunOutput(migrated); err != nil {
		return exitWithCode(err)
	}

	if runStoreFlag {
		cfg := GetConfig()
		target, err := docstore.New(cfg.Store, cfg.Store.TargetCollection)
		if err != nil {
			return exitWithCode(err)
		}
		id, err := target.Upsert(ctx, migrated)
		if err != nil {
			return exitWithCode(err)
		}
		output.Info("record upserted", "collection", cfg.Store.TargetCollection, "id", id)
	}

	return nil
}

// loadRunRecord reads the record from the file argument or fetches it from
// the document store by name.
func loadRunRecord(ctx context.Context, args []string) (map[string]any, error) {
	if runNameFlag != "" {
		cfg := GetConfig()
		source, err := docstore.New(cfg.Store, cfg.Store.SourceCollection)
		if err != nil {
			return nil, err
		}
		var rec map[string]any
		err = output.RunWithSpinner(ctx, func() error {
			var ferr error
			rec, ferr = source.RetrieveOne(ctx, runNameFlag)
			return ferr
		}, output.WithTitle(fmt.Sprintf("Fetching %s...", runNameFlag)))
		return rec, err
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("a record file argument or --name is required")
	}
	return record.Load(args[0])
}

// writeRunOutput renders the migrated record to the selected destination.
func writeRunOutput(migrated map[string]any) error {
	format := output.ParseOutputFormat(runFormatFlag)

	if runSplitFlag != "" {
		return writeSplitOutput(migrated, format)
	}
	if runDocsFlag {
		return output.WriteDocuments(coreDocuments(migrated), output.DocumentOptions{
			Format: format,
			Writer: os.Stdout,
		})
	}
	if runOutputFlag == "" {
		return output.WriteDocument(migrated, format, os.Stdout)
	}

	f, err := os.Create(runOutputFlag)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	if err := output.WriteDocument(migrated, format, f); err != nil {
		return err
	}
	output.Info("migrated record written", "path", runOutputFlag)
	return nil
}

// coreDocuments extracts the non-empty core files from a migrated record in
// a shape the document writers consume.
func coreDocuments(migrated map[string]any) []output.Document {
	var docs []output.Document
	for _, name := range record.Canonicals {
		if doc, ok := record.MapRef(migrated, name); ok && len(doc) > 0 {
			docs = append(docs, output.Document{CoreFile: name, Object: doc})
		}
	}
	return docs
}

// writeSplitOutput writes each core file to its own file under the --split
// directory and prints the resulting layout.
func writeSplitOutput(migrated map[string]any, format output.OutputFormat) error {
	docs := coreDocuments(migrated)
	if err := output.WriteSplitDocuments(docs, output.SplitOptions{
		OutDir: runSplitFlag,
		Format: format,
	}); err != nil {
		return err
	}

	files := make(map[string]string, len(docs))
	for _, doc := range docs {
		desc, _ := record.String(doc.Object, "object_type")
		files[output.SplitFilename(doc.CoreFile, format)] = desc
	}
	output.Println(output.RenderFileTree(runSplitFlag, files))
	return nil
}
