/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/assetgen/pkg/config"
	"github.com/fulmenhq/assetgen/pkg/logger"
	"github.com/fulmenhq/assetgen/pkg/manifest"
	"github.com/spf13/cobra"
)

// formatExt is the file extension export gives a derived destination.
var formatExt = map[manifest.Format]string{
	manifest.FormatJSON:   ".json",
	manifest.FormatModule: ".js",
	manifest.FormatYAML:   ".yaml",
}

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [source] [dest]",
		Short: "Convert a manifest between the json, module and yaml shapes",
		Long: `Export reads a manifest in one shape and writes the same entries in another.
Entry fields and their order are carried over unchanged.

The source defaults to output from the config file. Without a destination the
source path is reused with the extension of the target format, so
src/game/assets.js exports to src/game/assets.json. Use "-" to print the
result instead of writing it.

When the destination is a module file that already has a hand-maintained
region, that region is kept.`,
		Args: cobra.MaximumNArgs(2),
		RunE: runExport,
	}
	cmd.Flags().String("format", "", "Target shape: json, module or yaml (default: from the destination extension, else json)")
	cmd.Flags().String("from", "", "Source shape (default: from the source extension)")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	toFlag, _ := cmd.Flags().GetString("format")
	fromFlag, _ := cmd.Flags().GetString("from")

	src := cfg.Output
	if len(args) > 0 {
		src = args[0]
	} else if fromFlag == "" {
		fromFlag = cfg.Format
	}
	var dest string
	if len(args) > 1 {
		dest = args[1]
	}

	srcFormat, err := manifest.ResolveFormat(fromFlag, src)
	if err != nil {
		return err
	}
	target, err := exportTarget(toFlag, dest)
	if err != nil {
		return err
	}
	if dest == "" {
		dest = strings.TrimSuffix(src, filepath.Ext(src)) + formatExt[target]
	}
	if dest != "-" && filepath.Clean(dest) == filepath.Clean(src) {
		return fmt.Errorf("%w: export destination %s is the source", config.ErrInvalid, dest)
	}

	srcCodec, err := manifest.CodecFor(srcFormat)
	if err != nil {
		return err
	}
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("read manifest %s: %w", src, err)
	}
	doc, err := manifest.NewStore(srcCodec).Load(src)
	if err != nil {
		return err
	}
	for _, is := range doc.Issues {
		logger.Warn("Skipping malformed manifest entry",
			logger.String("category", is.Category.String()),
			logger.Int("index", is.Index),
			logger.String("reason", is.Reason))
	}

	dstCodec, err := manifest.CodecFor(target)
	if err != nil {
		return err
	}
	dstStore := manifest.NewStore(dstCodec)

	out := &manifest.Document{Manifest: doc.Manifest}
	if target == manifest.FormatModule {
		out.Manual = doc.Manual
	}

	if dest == "-" {
		data, err := dstStore.Render(out)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	if cfg.Lock {
		lock, err := manifest.AcquireLock(dest)
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Warn("Failed to release manifest lock", logger.String("lock", lock.Path()), logger.Err(err))
			}
		}()
	}

	if target == manifest.FormatModule {
		// Load recovers the manual region even when the entries are unreadable.
		if prev, _ := dstStore.Load(dest); prev != nil && len(prev.Manual) > 0 {
			out.Manual = prev.Manual
		}
	}

	if err := dstStore.Save(dest, out); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %s (%s) -> %s (%s), %d entries\n",
		src, srcFormat, dest, target, doc.Manifest.Total())
	return nil
}

// exportTarget picks the destination format: the flag, then the destination
// extension, then json.
func exportTarget(flag, dest string) (manifest.Format, error) {
	if strings.TrimSpace(flag) != "" {
		return manifest.ParseFormat(flag)
	}
	if dest == "" || dest == "-" {
		return manifest.FormatJSON, nil
	}
	return manifest.DetectFormat(dest)
}
