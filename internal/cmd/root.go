package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adobe/asset-compute-pipeline/internal/config"
	"github.com/adobe/asset-compute-pipeline/internal/output"
)

var (
	// Global flags
	configFlag          string
	verboseFlag         bool
	baseDirFlag         string
	killOnCleanupLeakFlag bool

	// Resolved configuration (loaded during PersistentPreRunE)
	engineConfig   *config.EngineConfig
	resolvedValues []config.ResolvedValue
)

// NewRootCmd creates the root command for the rendition CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "asset-pipeline",
		Short:         "Asset rendition pipeline engine",
		Long:          `asset-pipeline schedules registered transformers to turn a source asset into a requested rendition.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeGlobals(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (env: ASSET_COMPUTE_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&baseDirFlag, "base-dir", "", "Base working directory (env: WORKER_BASE_DIRECTORY)")
	rootCmd.PersistentFlags().BoolVar(&killOnCleanupLeakFlag, "kill-on-leak", true, "Kill the process if working-directory cleanup fails")

	rootCmd.AddCommand(NewRenderCmd())
	rootCmd.AddCommand(NewPlanCmd())
	rootCmd.AddCommand(NewTransformerCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// initializeGlobals resolves configuration and sets up logging before
// any subcommand runs.
func initializeGlobals(cmd *cobra.Command) error {
	loaded, resolved, err := config.Load(config.LoaderOptions{
		ConfigFileFlag:           configFlag,
		BaseDirectoryFlag:        baseDirFlag,
		KillOnCleanupLeakFlag:    killOnCleanupLeakFlag,
		KillOnCleanupLeakFlagSet: cmd.Flags().Changed("kill-on-leak"),
	})
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	engineConfig = loaded
	resolvedValues = resolved

	output.SetupLogging(output.LogConfig{Verbose: verboseFlag})

	if verboseFlag {
		entries := make([]output.ConfigTraceEntry, 0, len(resolved))
		for _, rv := range resolved {
			entries = append(entries, output.ConfigTraceEntry{
				Key:    rv.Key,
				Value:  fmt.Sprintf("%v", rv.Value),
				Source: string(rv.Source),
			})
		}
		_ = output.WriteConfigTrace(entries, cmd.ErrOrStderr())
	}

	return nil
}

// GetEngineConfig returns the resolved engine configuration.
func GetEngineConfig() *config.EngineConfig {
	return engineConfig
}

// GetResolvedValues returns the full configuration resolution ledger.
func GetResolvedValues() []config.ResolvedValue {
	return resolvedValues
}

// IsVerbose reports whether --verbose was set.
func IsVerbose() bool {
	return verboseFlag
}
