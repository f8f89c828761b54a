package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/openacq/metamigrate/internal/config"
	"github.com/openacq/metamigrate/internal/output"
)

var (
	// Global flags
	configFlag     string
	storeURLFlag   string
	verboseFlag    bool
	noColorFlag    bool
	timestampsFlag bool

	// Loaded configuration (populated during PersistentPreRunE)
	loadedConfig *config.Config
)

// NewRootCmd creates the root command for the metamigrate CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "metamigrate",
		Short:         "Migrate legacy metadata records to the unified 2.0 schema",
		Long: `metamigrate upgrades multi-document scientific metadata records from
legacy 1.x schema versions to the unified 2.0 schema: per-file transforms,
required-file-set checks, cross-file repairs, and whole-record validation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeGlobals(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (env: METAMIGRATE_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&storeURLFlag, "store-url", "", "Document store URL (env: METAMIGRATE_STORE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable colorized output")
	rootCmd.PersistentFlags().BoolVar(&timestampsFlag, "timestamps", true, "Show timestamps in log output")

	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewDiffCmd())
	rootCmd.AddCommand(NewGetCmd())
	rootCmd.AddCommand(NewSyncCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// initializeGlobals sets up logging and loads configuration.
func initializeGlobals(cmd *cobra.Command) error {
	if noColorFlag {
		os.Setenv("NO_COLOR", "1")
	}

	resolved, err := config.ResolveConfigPath(config.ResolveConfigPathOptions{FlagValue: configFlag})
	if err != nil {
		return err
	}

	cfg, err := config.NewLoader().LoadWithDefaults(resolved.Value)
	if err != nil {
		output.Debug("config load error", "error", err)
		cfg = config.DefaultConfig()
	}
	// Store URL precedence: flag > env > config
	resolvedStore := config.ResolveStoreURL(config.ResolveStoreURLOptions{
		FlagValue:   storeURLFlag,
		ConfigValue: cfg.Store.URL,
	})
	cfg.Store.URL = resolvedStore.Value
	loadedConfig = cfg

	// Timestamps precedence: flag (if explicitly set) > config > default on
	logCfg := output.LogConfig{Verbose: verboseFlag}
	if cmd.Flags().Changed("timestamps") {
		logCfg.Timestamps = output.BoolPtr(timestampsFlag)
	} else if cfg.Log.Timestamps != nil {
		logCfg.Timestamps = cfg.Log.Timestamps
	}
	output.SetupLogging(logCfg)

	if verboseFlag {
		config.LogResolvedValues([]config.ResolvedValue{resolved, resolvedStore})
	}
	return nil
}

// GetConfig returns the loaded configuration, defaulting when the root
// command's PersistentPreRunE has not run (direct command construction in
// tests).
func GetConfig() *config.Config {
	if loadedConfig == nil {
		return config.DefaultConfig()
	}
	return loadedConfig
}

// useColor reports whether human output should be colorized.
func useColor() bool {
	return !noColorFlag && output.IsTTY()
}
