package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/openacq/metamigrate/internal/config"
)

var configInitForce bool

// NewConfigCmd creates the config command group.
func NewConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  `Configuration management for metamigrate.`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigVetCmd())

	return configCmd
}

func newConfigInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new configuration file",
		Long: `Create a new configuration file with default values.

The configuration file is created at ~/.metamigrate/config.yaml by default.
Use --config to specify a different location.`,
		RunE: runConfigInit,
	}

	initCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "Overwrite existing config file")

	return initCmd
}

func runConfigInit(command *cobra.Command, _ []string) error {
	expandedPath, err := configFilePath(command)
	if err != nil {
		return err
	}

	exists, err := config.ConfigFileExists(expandedPath)
	if err != nil {
		return fmt.Errorf("checking config file: %w", err)
	}
	if exists && !configInitForce {
		return NewExitError(
			fmt.Errorf("config file already exists at %s (use --force to overwrite)", expandedPath),
			ExitGeneralError,
		)
	}

	if err := os.MkdirAll(filepath.Dir(expandedPath), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(config.DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	header := []byte("# metamigrate configuration\n\n")
	data = append(header, data...)

	if err := os.WriteFile(expandedPath, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Fprintf(command.OutOrStdout(), "Config file created: %s\n", expandedPath)
	return nil
}

func newConfigVetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vet",
		Short: "Validate the configuration file",
		Long: `Validate the configuration file against the internal schema.

The command validates the configuration file at ~/.metamigrate/config.yaml
by default. Use --config to specify a different location.`,
		RunE: runConfigVet,
	}
}

func runConfigVet(command *cobra.Command, _ []string) error {
	expandedPath, err := configFilePath(command)
	if err != nil {
		return err
	}

	exists, err := config.ConfigFileExists(expandedPath)
	if err != nil {
		return fmt.Errorf("checking config file: %w", err)
	}
	if !exists {
		return NewExitError(
			fmt.Errorf("config file not found: %s", expandedPath),
			ExitNotFound,
		)
	}

	validator, err := config.NewValidator()
	if err != nil {
		return fmt.Errorf("creating validator: %w", err)
	}

	if err := validator.ValidateFile(expandedPath); err != nil {
		var validationErrs config.ValidationErrors
		if errors.As(err, &validationErrs) {
			fmt.Fprintln(command.ErrOrStderr(), "Error: config validation failed")
			fmt.Fprintf(command.ErrOrStderr(), "  File: %s\n\n", expandedPath)
			for _, e := range validationErrs {
				fmt.Fprintf(command.ErrOrStderr(), "  %s: %s\n", e.Field, e.Message)
			}
			return NewExitError(err, ExitValidationError)
		}
		return fmt.Errorf("validating config: %w", err)
	}

	fmt.Fprintf(command.OutOrStdout(), "Config file is valid: %s\n", expandedPath)
	return nil
}

// configFilePath resolves the --config flag or the default location to an
// absolute path.
func configFilePath(command *cobra.Command) (string, error) {
	configFile := ""
	if f := command.Flag("config"); f != nil {
		configFile = f.Value.String()
	}
	if configFile == "" {
		var err error
		configFile, err = config.GetConfigFile()
		if err != nil {
			return "", fmt.Errorf("getting config file path: %w", err)
		}
	}
	return config.ExpandPath(configFile)
}
