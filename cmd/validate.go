/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fulmenhq/assetgen/internal/schema"
	"github.com/fulmenhq/assetgen/pkg/exitcode"
	"github.com/fulmenhq/assetgen/pkg/manifest"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [manifest]",
		Short: "Check a manifest against the manifest schema",
		Long: `Validate decodes a manifest, reports malformed entries the generator
would skip, and checks the document against the embedded manifest schema.

The manifest defaults to output from the config file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runValidate,
	}
	cmd.Flags().String("format", "", "Manifest shape: json, module or yaml (default: from the file extension)")
	return cmd
}

// validation is the outcome of validating one manifest file.
type validation struct {
	Path    string   `json:"path"`
	Format  string   `json:"format"`
	Valid   bool     `json:"valid"`
	Entries int      `json:"entries"`
	Errors  []string `json:"errors,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	formatFlag, _ := cmd.Flags().GetString("format")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	path := cfg.Output
	if len(args) > 0 {
		path = args[0]
	} else if formatFlag == "" {
		formatFlag = cfg.Format
	}

	v, err := validateManifest(path, formatFlag)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return err
		}
	} else if v.Valid {
		_, _ = fmt.Fprintf(out, "%s: valid (%d entries, %s)\n", v.Path, v.Entries, v.Format)
	} else {
		_, _ = fmt.Fprintf(out, "%s: invalid (%s)\n", v.Path, v.Format)
		for _, e := range v.Errors {
			_, _ = fmt.Fprintf(out, "  - %s\n", e)
		}
	}

	if !v.Valid {
		return &exitError{code: exitcode.ValidationError, err: fmt.Errorf("%s failed validation with %d problem(s)", v.Path, len(v.Errors))}
	}
	return nil
}

func validateManifest(path, format string) (*validation, error) {
	f, err := manifest.ResolveFormat(format, path)
	if err != nil {
		return nil, err
	}
	codec, err := manifest.CodecFor(f)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) // #nosec G304 -- manifest path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	v := &validation{Path: path, Format: string(f)}
	doc, err := codec.Decode(data)
	if err != nil {
		v.Errors = append(v.Errors, fmt.Sprintf("unparseable: %v", err))
		return v, nil
	}
	v.Entries = doc.Manifest.Total()
	for _, is := range doc.Issues {
		v.Errors = append(v.Errors, is.String())
	}

	res, err := schemaCheck(f, data, doc.Manifest)
	if err != nil {
		return nil, err
	}
	for _, e := range res.Errors {
		v.Errors = append(v.Errors, e.String())
	}
	v.Valid = len(v.Errors) == 0
	return v, nil
}

// schemaCheck validates the document as written where the shape is plain
// data, and the decoded manifest for the module shape.
func schemaCheck(f manifest.Format, data []byte, m *manifest.Manifest) (*schema.Result, error) {
	switch f {
	case manifest.FormatJSON:
		return schema.ValidateJSON(data, schema.ManifestSchema)
	case manifest.FormatYAML:
		var doc interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", manifest.ErrUnparseable, err)
		}
		return schema.Validate(doc, schema.ManifestSchema)
	default:
		encoded, err := m.MarshalJSON()
		if err != nil {
			return nil, err
		}
		return schema.ValidateJSON(encoded, schema.ManifestSchema)
	}
}
