/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/fulmenhq/assetgen/internal/generate"
	"github.com/fulmenhq/assetgen/pkg/buildinfo"
	"github.com/fulmenhq/assetgen/pkg/config"
	"github.com/fulmenhq/assetgen/pkg/exitcode"
	"github.com/fulmenhq/assetgen/pkg/logger"
	"github.com/fulmenhq/assetgen/pkg/manifest"
	"github.com/fulmenhq/assetgen/pkg/reconcile"
	"github.com/fulmenhq/assetgen/pkg/scanner"
	"github.com/spf13/cobra"
)

// newRootCommand creates a fresh root command instance.
// Tests build isolated command trees from it.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assetgen [asset-dir] [output]",
		Short: "Keep a game asset manifest in sync with the asset directory",
		Long: `Assetgen scans an asset directory, classifies every file as an image,
particle texture, audio clip or video, and rewrites the asset manifest so it
lists exactly what exists on disk. Hand-curated labels and any extra fields on
entries whose file still exists are kept as they are.

Examples:
   assetgen                                  # public/assets -> src/game/assets.json
   assetgen public/assets src/game/assets.js # write the JS module shape
   assetgen --check                          # fail when the manifest is stale
   assetgen validate src/game/assets.json    # check a manifest against the schema
   assetgen export src/game/assets.js        # convert the module shape to JSON`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
		RunE: runGenerate,
	}

	// Add global flags
	cmd.PersistentFlags().String("config", "", "Config file (default: assetgen.yaml or .assetgen.yaml in the working directory)")
	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs and summaries in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	// The bare command generates, so it carries the generate flags too.
	addGenerateFlags(cmd)

	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("assetgen {{.Version}}\n")

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(newGenerateCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newExportCommand())
	cmd.AddCommand(newConfigCommand())
	cmd.AddCommand(newVersionCommand())
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

func init() {
	registerSubcommands(rootCmd)
}

// Execute runs the root command and exits with the code mapped from the
// returned error. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		code := exitCodeFor(err)
		logger.Error("Command execution failed", logger.Err(err), logger.String("exit", exitcode.String(code)))
		os.Exit(code)
	}
}

// exitError pins an exit code to an error that has no sentinel of its own.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// exitCodeFor maps an error to its process exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return exitcode.Success
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	switch {
	case errors.Is(err, manifest.ErrUnsupportedFormat):
		return exitcode.UnsupportedFormat
	case errors.Is(err, config.ErrInvalid), errors.Is(err, config.ErrExtensionConflict):
		return exitcode.ConfigError
	case errors.Is(err, generate.ErrSelfCheck),
		errors.Is(err, reconcile.ErrFieldDrift),
		errors.Is(err, manifest.ErrUnparseable):
		return exitcode.ValidationError
	case errors.Is(err, scanner.ErrMissingRoot),
		errors.Is(err, manifest.ErrWrite),
		errors.Is(err, fs.ErrNotExist):
		return exitcode.FileSystemError
	case errors.Is(err, fs.ErrPermission):
		return exitcode.PermissionError
	default:
		return exitcode.GeneralError
	}
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	logCfg := logger.Config{
		Level:     logger.ParseLevel(logLevelStr),
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "assetgen",
		DryRun:    dryRun,
	}

	if err := logger.Initialize(logCfg); err != nil {
		_, _ = os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(exitcode.ConfigError)
	}
}
