/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package cmd

import (
	"fmt"

	"github.com/fulmenhq/assetgen/internal/generate"
	"github.com/fulmenhq/assetgen/internal/report"
	"github.com/fulmenhq/assetgen/pkg/config"
	"github.com/fulmenhq/assetgen/pkg/exitcode"
	"github.com/fulmenhq/assetgen/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// generateBindings maps config keys to the generate flags that override them.
var generateBindings = map[string]string{
	"format":       "format",
	"missing_root": "missing-root",
	"exclude":      "exclude",
}

func newGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [asset-dir] [output]",
		Short: "Scan the asset directory and rewrite the manifest",
		Long: `Generate walks the asset directory, reconciles what it finds with the
existing manifest and writes the result.

Entries whose file still exists keep every field except path, which is
normalized. Entries whose file is gone are dropped and reported. New files get
an entry with the placeholder label "NEED LABEL".

Arguments default to public/assets and src/game/assets.json, or to asset_dir
and output from the config file.`,
		Args: cobra.MaximumNArgs(2),
		RunE: runGenerate,
	}
	addGenerateFlags(cmd)
	return cmd
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "", "Manifest shape: json, module or yaml (default: from the output extension)")
	cmd.Flags().Bool("dry-run", false, "Report what would change without writing")
	cmd.Flags().Bool("check", false, "Exit with the validation code when the manifest is out of date")
	cmd.Flags().String("missing-root", "", "When the asset directory is missing: abort or wipe")
	cmd.Flags().StringSlice("exclude", nil, "Glob patterns to skip, relative to the asset directory")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, generateBindings)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.AssetDir = args[0]
	}
	if len(args) > 1 {
		cfg.Output = args[1]
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	check, _ := cmd.Flags().GetBool("check")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	opts := generate.FromConfig(cfg)
	opts.DryRun = dryRun
	opts.Check = check

	logger.Debug("Generating manifest",
		logger.String("asset_dir", opts.AssetDir),
		logger.String("output", opts.Output),
		logger.String("config", cfg.Source()))

	out, err := generate.Run(opts)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if jsonOutput {
		err = report.JSON(w, out)
	} else {
		err = report.Summary(w, out, report.Options{DryRun: dryRun, Check: check})
	}
	if err != nil {
		return err
	}

	if check && out.Changed {
		return &exitError{code: exitcode.ValidationError, err: fmt.Errorf("%s is out of date", out.Output)}
	}
	return nil
}

// loadConfig reads the config file named by --config (or found in the working
// directory) and applies the flags in bindings that the user set.
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")

	flags := make(map[string]*pflag.Flag, len(bindings))
	for key, name := range bindings {
		if f := cmd.Flags().Lookup(name); f != nil {
			flags[key] = f
		}
	}
	return config.Load(config.LoadOptions{File: file, Flags: flags})
}
