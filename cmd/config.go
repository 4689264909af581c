/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/fulmenhq/assetgen/pkg/config"
	"github.com/fulmenhq/assetgen/pkg/logger"
	"github.com/fulmenhq/assetgen/pkg/safeio"
	"github.com/spf13/cobra"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the assetgen configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}

	initCmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default assetgen.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigInit,
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")

	cmd.AddCommand(show, initCmd)
	return cmd
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}

	source := cfg.Source()
	if source == "" {
		source = "built-in defaults"
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "# source: %s\n", source)
	_, err = out.Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	path := filepath.Join(dir, config.FileNames[0])

	exists, err := safeio.Exists(path)
	if err != nil {
		return err
	}
	if exists && !force {
		return fmt.Errorf("%w: %s already exists (use --force to overwrite)", config.ErrInvalid, path)
	}

	def := config.Default()
	data, err := def.Marshal()
	if err != nil {
		return err
	}
	if err := safeio.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	logger.Debug("Wrote default configuration", logger.String("path", path), logger.Bool("overwrite", exists))
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}
