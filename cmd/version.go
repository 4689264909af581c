/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/fulmenhq/assetgen/pkg/buildinfo"
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the assetgen version",
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
	cmd.Flags().Bool("extended", false, "Show detailed build and git information")
	return cmd
}

func runVersion(cmd *cobra.Command, _ []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	info := buildinfo.Read()
	out := cmd.OutOrStdout()

	if jsonOutput {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, string(data))
		return nil
	}

	_, _ = fmt.Fprintf(out, "assetgen %s\n", info.Version)
	if !extended {
		return nil
	}

	if info.ModuleVersion != "" {
		_, _ = fmt.Fprintf(out, "Module:   %s\n", info.ModuleVersion)
	}
	if info.Commit != "" {
		commit := info.Commit
		if info.Modified {
			commit += " (modified)"
		}
		_, _ = fmt.Fprintf(out, "Commit:   %s\n", commit)
	}
	_, _ = fmt.Fprintf(out, "Go:       %s\n", info.GoVersion)
	_, _ = fmt.Fprintf(out, "Platform: %s\n", info.Platform)
	return nil
}
