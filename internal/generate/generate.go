// Package generate runs one scan-reconcile-write pass over an asset root.
package generate

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fulmenhq/assetgen/internal/schema"
	"github.com/fulmenhq/assetgen/pkg/config"
	"github.com/fulmenhq/assetgen/pkg/ignore"
	"github.com/fulmenhq/assetgen/pkg/logger"
	"github.com/fulmenhq/assetgen/pkg/manifest"
	"github.com/fulmenhq/assetgen/pkg/reconcile"
	"github.com/fulmenhq/assetgen/pkg/scanner"
)

// ErrSelfCheck is returned when the rendered manifest fails the embedded
// manifest schema outside the entries carried over from the previous manifest.
var ErrSelfCheck = errors.New("generated manifest failed schema validation")

// Options configures a run.
type Options struct {
	AssetDir string
	Output   string
	// Format is explicit; empty means detect from Output.
	Format string

	Scanner scanner.Options
	Ignore  ignore.Options

	MissingRoot string
	Lock        bool

	// DryRun does everything except writing.
	DryRun bool
	// Check is DryRun that reports drift through Outcome.Changed.
	Check bool
}

// FromConfig builds run options from a validated configuration.
func FromConfig(cfg *config.Config) Options {
	return Options{
		AssetDir:    cfg.AssetDir,
		Output:      cfg.Output,
		Format:      cfg.Format,
		Scanner:     cfg.ScannerOptions(),
		Ignore:      cfg.IgnoreOptions(),
		MissingRoot: cfg.MissingRoot,
		Lock:        cfg.Lock,
	}
}

// Outcome describes a finished run.
type Outcome struct {
	Format manifest.Format
	Output string

	Scan   *scanner.Result
	Result *reconcile.Result
	// Issues lists malformed entries skipped while loading the previous
	// manifest, then carried entries kept despite failing the manifest schema.
	Issues []manifest.Issue

	// Unparseable is set when the previous manifest could not be read and
	// every category started empty.
	Unparseable bool
	// MissingRoot is set when the asset root was absent and the wipe policy
	// was applied.
	MissingRoot bool

	Rendered []byte
	Changed  bool
	Written  bool
}

// Run executes one generation pass.
func Run(opts Options) (*Outcome, error) {
	format, err := manifest.ResolveFormat(opts.Format, opts.Output)
	if err != nil {
		return nil, err
	}
	codec, err := manifest.CodecFor(format)
	if err != nil {
		return nil, err
	}
	store := manifest.NewStore(codec)
	writes := !opts.DryRun && !opts.Check
	out := &Outcome{Format: format, Output: opts.Output}

	if opts.Lock && writes {
		lock, err := manifest.AcquireLock(opts.Output)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Warn("Failed to release manifest lock", logger.String("lock", lock.Path()), logger.Err(err))
			}
		}()
	}

	prev, err := store.Load(opts.Output)
	if err != nil {
		if !errors.Is(err, manifest.ErrUnparseable) || prev == nil {
			return nil, err
		}
		out.Unparseable = true
		logger.Warn("Previous manifest is unparseable; every category starts empty and all found assets get the placeholder label",
			logger.String("path", opts.Output), logger.Err(err))
	}
	for _, is := range prev.Issues {
		logger.Warn("Skipping malformed manifest entry",
			logger.String("category", is.Category.String()),
			logger.Int("index", is.Index),
			logger.String("reason", is.Reason))
	}
	out.Issues = prev.Issues

	scan, err := runScan(opts)
	if err != nil {
		if !errors.Is(err, scanner.ErrMissingRoot) || opts.MissingRoot != config.MissingRootWipe {
			return nil, err
		}
		out.MissingRoot = true
		logger.Warn("Asset root is missing; reconciling against an empty scan drops every entry",
			logger.String("root", opts.AssetDir), logger.String("missing_root", opts.MissingRoot))
	}
	out.Scan = scan
	logger.Debug("Scanned asset root",
		logger.String("root", opts.AssetDir),
		logger.Int("files", scan.Files),
		logger.Int("classified", scan.Total()),
		logger.Int("ignored", scan.Ignored),
		logger.Int("excluded", scan.Excluded))

	res := reconcile.Manifest(prev.Manifest, scan.Paths())
	if err := reconcile.Verify(prev.Manifest, res); err != nil {
		return nil, err
	}
	out.Result = res

	kept, err := selfCheck(res)
	if err != nil {
		return nil, err
	}
	for _, is := range kept {
		logger.Warn("Keeping curated manifest entry that does not match the manifest schema",
			logger.String("category", is.Category.String()),
			logger.Int("index", is.Index),
			logger.String("reason", is.Reason))
	}
	out.Issues = append(out.Issues, kept...)

	rendered, err := store.Render(&manifest.Document{Manifest: res.Manifest, Manual: prev.Manual})
	if err != nil {
		return nil, err
	}
	out.Rendered = rendered

	current, err := os.ReadFile(opts.Output) // #nosec G304 -- manifest path is operator supplied
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read manifest %s: %w", opts.Output, err)
	}
	out.Changed = err != nil || !bytes.Equal(current, rendered)

	if !writes {
		return out, nil
	}
	if !out.Changed {
		logger.Debug("Manifest already up to date", logger.String("path", opts.Output))
		return out, nil
	}
	if err := store.SaveBytes(opts.Output, rendered); err != nil {
		return nil, err
	}
	out.Written = true
	logger.Debug("Manifest written", logger.String("path", opts.Output), logger.String("format", string(format)))
	return out, nil
}

func runScan(opts Options) (*scanner.Result, error) {
	scanOpts := opts.Scanner
	if info, err := os.Stat(opts.AssetDir); err == nil && info.IsDir() {
		matcher, err := ignore.NewMatcher(opts.AssetDir, opts.Ignore)
		if err != nil {
			return nil, err
		}
		scanOpts.Ignore = matcher
	}
	scanOpts.OnWalkError = func(path string, err error) error {
		logger.Warn("Skipping unreadable path", logger.String("path", path), logger.Err(err))
		return nil
	}

	s, err := scanner.New(scanOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	return s.Scan(opts.AssetDir)
}

// selfCheck validates the JSON form of the reconciled manifest. Schema errors
// inside entries carried over from the previous manifest are returned as
// issues: those entries are kept as they were. Any other error fails the run.
func selfCheck(res *reconcile.Result) ([]manifest.Issue, error) {
	data, err := res.Manifest.MarshalJSON()
	if err != nil {
		return nil, err
	}
	sr, err := schema.ValidateJSON(data, schema.ManifestSchema)
	if err != nil {
		return nil, err
	}
	if sr.Valid {
		return nil, nil
	}

	var issues []manifest.Issue
	var fatal []string
	for _, e := range sr.Errors {
		if is, ok := carriedIssue(res, e); ok {
			issues = append(issues, is)
			continue
		}
		fatal = append(fatal, e.String())
	}
	if len(fatal) > 0 {
		return issues, fmt.Errorf("%w: %s", ErrSelfCheck, strings.Join(fatal, "; "))
	}
	return issues, nil
}

// carriedIssue maps a schema error at "<category>.<index>[.<field>...]" to an
// issue when that entry was carried over rather than created by this run.
func carriedIssue(res *reconcile.Result, e schema.ValidationError) (manifest.Issue, bool) {
	parts := strings.SplitN(e.Path, ".", 3)
	if len(parts) < 2 {
		return manifest.Issue{}, false
	}
	cat, ok := manifest.ParseCategory(parts[0])
	if !ok {
		return manifest.Issue{}, false
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil {
		return manifest.Issue{}, false
	}
	entries := res.Manifest.List(cat)
	if idx < 0 || idx >= len(entries) {
		return manifest.Issue{}, false
	}
	path := entries[idx].Path()
	for _, added := range res.Category(cat).Added {
		if added.Path() == path {
			return manifest.Issue{}, false
		}
	}

	reason := e.Message
	if len(parts) == 3 {
		reason = parts[2] + ": " + reason
	}
	return manifest.Issue{Category: cat, Index: idx, Reason: reason}, true
}
