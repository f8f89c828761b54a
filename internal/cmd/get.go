package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openacq/metamigrate/internal/docstore"
	"github.com/openacq/metamigrate/internal/output"
	"github.com/openacq/metamigrate/internal/record"
)

var getOutputFlag string

// NewGetCmd creates the get command.
func NewGetCmd() *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Fetch a record from the document store",
		Long: `Fetch a single record from the source collection by exact name, falling
back to a regex match when no exact match exists, and save it as a JSON
file named after the record id.`,
		Args: cobra.ExactArgs(1),
		RunE: runGet,
	}

	getCmd.Flags().StringVarP(&getOutputFlag, "output", "o", "", "Path to write the record to (default <id>.json)")

	return getCmd
}

func runGet(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	source, err := docstore.New(cfg.Store, cfg.Store.SourceCollection)
	if err != nil {
		return exitWithCode(err)
	}

	var rec map[string]any
	err = output.RunWithSpinner(cmd.Context(), func() error {
		var ferr error
		rec, ferr = source.RetrieveOne(cmd.Context(), args[0])
		return ferr
	}, output.WithTitle(fmt.Sprintf("Fetching %s...", args[0])))
	if err != nil {
		return exitWithCode(err)
	}

	path := getOutputFlag
	if path == "" {
		id := record.ID(rec)
		if id == "" {
			id = args[0]
		}
		path = fmt.Sprintf("%s.json", id)
	}

	if err := record.Save(path, rec); err != nil {
		return exitWithCode(err)
	}
	output.Info("record saved", "name", record.Name(rec), "path", path)
	return nil
}
