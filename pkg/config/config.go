package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/assetgen/pkg/ignore"
	"github.com/fulmenhq/assetgen/pkg/manifest"
	"github.com/fulmenhq/assetgen/pkg/scanner"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	// ErrInvalid marks a configuration that failed validation.
	ErrInvalid = errors.New("invalid configuration")

	// ErrExtensionConflict marks an extension listed under more than one category.
	ErrExtensionConflict = errors.New("extension assigned to more than one category")
)

// Missing asset root policies.
const (
	MissingRootAbort = "abort"
	MissingRootWipe  = "wipe"
)

// Project config file names, searched in order.
var FileNames = []string{"assetgen.yaml", ".assetgen.yaml", "assetgen.toml", ".assetgen.toml"}

// Config holds all configuration for assetgen
type Config struct {
	AssetDir         string           `mapstructure:"asset_dir" yaml:"asset_dir"`
	Output           string           `mapstructure:"output" yaml:"output"`
	Format           string           `mapstructure:"format" yaml:"format"`
	Extensions       ExtensionsConfig `mapstructure:"extensions" yaml:"extensions"`
	Exclude          []string         `mapstructure:"exclude" yaml:"exclude"`
	IgnoreFile       string           `mapstructure:"ignore_file" yaml:"ignore_file"`
	RespectGitignore bool             `mapstructure:"respect_gitignore" yaml:"respect_gitignore"`
	MissingRoot      string           `mapstructure:"missing_root" yaml:"missing_root"`
	Lock             bool             `mapstructure:"lock" yaml:"lock"`

	// source is the config file that was read, if any.
	source string
}

// ExtensionsConfig holds the per-category extension sets
type ExtensionsConfig struct {
	Images []string `mapstructure:"images" yaml:"images,flow"`
	Audio  []string `mapstructure:"audio" yaml:"audio,flow"`
	Video  []string `mapstructure:"video" yaml:"video,flow"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		AssetDir: "public/assets",
		Output:   "src/game/assets.json",
		Format:   "",
		Extensions: ExtensionsConfig{
			Images: append([]string(nil), scanner.DefaultImageExtensions...),
			Audio:  append([]string(nil), scanner.DefaultAudioExtensions...),
			Video:  append([]string(nil), scanner.DefaultVideoExtensions...),
		},
		Exclude:          []string{},
		IgnoreFile:       ignore.DefaultFile,
		RespectGitignore: false,
		MissingRoot:      MissingRootAbort,
		Lock:             true,
	}
}

// LoadOptions controls where Load looks for configuration.
type LoadOptions struct {
	// File is an explicit config file. It must exist.
	File string
	// Dir is searched for FileNames when File is empty. Defaults to ".".
	Dir string
	// Flags maps config keys to command-line flags. Only flags the user set
	// override file values.
	Flags map[string]*pflag.Flag
}

// Load merges defaults, the config file and flags, then validates.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	path, err := locate(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := CheckFile(path); err != nil {
			return nil, err
		}
		v.SetConfigFile(path)
		v.SetConfigType(fileType(path))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrInvalid, path, err)
		}
	}

	for key, flag := range opts.Flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag.Name, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	cfg.source = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("asset_dir", d.AssetDir)
	v.SetDefault("output", d.Output)
	v.SetDefault("format", d.Format)
	v.SetDefault("extensions.images", d.Extensions.Images)
	v.SetDefault("extensions.audio", d.Extensions.Audio)
	v.SetDefault("extensions.video", d.Extensions.Video)
	v.SetDefault("exclude", d.Exclude)
	v.SetDefault("ignore_file", d.IgnoreFile)
	v.SetDefault("respect_gitignore", d.RespectGitignore)
	v.SetDefault("missing_root", d.MissingRoot)
	v.SetDefault("lock", d.Lock)
}

// locate returns the config file to read, or "" when none exists.
func locate(opts LoadOptions) (string, error) {
	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			return "", fmt.Errorf("%w: config file %s: %v", ErrInvalid, opts.File, err)
		}
		return opts.File, nil
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	for _, name := range FileNames {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", nil
}

// Source returns the config file that was read, or "" for defaults only.
func (c *Config) Source() string { return c.source }

// Validate normalizes extension sets and checks enumerated values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AssetDir) == "" {
		return fmt.Errorf("%w: asset_dir is empty", ErrInvalid)
	}
	if strings.TrimSpace(c.Output) == "" {
		return fmt.Errorf("%w: output is empty", ErrInvalid)
	}
	if c.Format != "" {
		f, err := manifest.ParseFormat(c.Format)
		if err != nil {
			return err
		}
		c.Format = string(f)
	}

	switch c.MissingRoot {
	case "":
		c.MissingRoot = MissingRootAbort
	case MissingRootAbort, MissingRootWipe:
	default:
		return fmt.Errorf("%w: missing_root must be %q or %q, got %q", ErrInvalid, MissingRootAbort, MissingRootWipe, c.MissingRoot)
	}

	owner := make(map[string]string)
	sets := []struct {
		name string
		exts *[]string
	}{
		{"images", &c.Extensions.Images},
		{"audio", &c.Extensions.Audio},
		{"video", &c.Extensions.Video},
	}
	for _, set := range sets {
		normalized := make([]string, 0, len(*set.exts))
		for _, ext := range *set.exts {
			n := scanner.NormalizeExtension(ext)
			if n == "" || n == "." {
				return fmt.Errorf("%w: empty extension in extensions.%s", ErrInvalid, set.name)
			}
			if prev, ok := owner[n]; ok {
				if prev == set.name {
					continue
				}
				return fmt.Errorf("%w: %s is listed under %s and %s", ErrExtensionConflict, n, prev, set.name)
			}
			owner[n] = set.name
			normalized = append(normalized, n)
		}
		*set.exts = normalized
	}
	return nil
}

// ScannerOptions converts the extension and filter settings.
func (c *Config) ScannerOptions() scanner.Options {
	return scanner.Options{
		Images:  append([]string(nil), c.Extensions.Images...),
		Audio:   append([]string(nil), c.Extensions.Audio...),
		Video:   append([]string(nil), c.Extensions.Video...),
		Exclude: append([]string(nil), c.Exclude...),
	}
}

// IgnoreOptions converts the ignore settings.
func (c *Config) IgnoreOptions() ignore.Options {
	return ignore.Options{File: c.IgnoreFile, RespectGitignore: c.RespectGitignore}
}
