// Package scanner walks an asset root and classifies media files into
// manifest categories.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fulmenhq/assetgen/pkg/ignore"
	"github.com/fulmenhq/assetgen/pkg/logger"
	"github.com/fulmenhq/assetgen/pkg/manifest"
)

// ParticleMarker routes any path containing it (case-insensitive) to the
// particles category, regardless of extension.
const ParticleMarker = "particle"

// ErrMissingRoot is returned when the asset root does not exist or is not a
// directory.
var ErrMissingRoot = errors.New("asset root is missing")

// Default extension sets. .ogg is audio only.
var (
	DefaultImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}
	DefaultAudioExtensions = []string{".mp3", ".ogg", ".wav", ".m4a"}
	DefaultVideoExtensions = []string{".mp4", ".webm"}
)

// WalkErrorFunc handles an unreadable entry. Returning nil skips it (and its
// subtree); returning an error aborts the scan.
type WalkErrorFunc func(path string, err error) error

// Options configures a Scanner.
type Options struct {
	Images []string
	Audio  []string
	Video  []string

	// Exclude holds doublestar patterns matched against the relative path.
	// Patterns without a slash also match the base name.
	Exclude []string

	// Ignore filters paths with gitignore semantics. May be nil.
	Ignore *ignore.Matcher

	OnWalkError WalkErrorFunc
}

// DefaultOptions returns the reference extension sets and no filters.
func DefaultOptions() Options {
	return Options{
		Images: append([]string(nil), DefaultImageExtensions...),
		Audio:  append([]string(nil), DefaultAudioExtensions...),
		Video:  append([]string(nil), DefaultVideoExtensions...),
	}
}

// Result holds the found sets of one scan.
type Result struct {
	Found map[manifest.Category]*PathSet
	// Files counts every non-directory entry visited.
	Files int
	// Ignored counts files with no matching category.
	Ignored int
	// Excluded counts entries skipped by exclude or ignore patterns.
	Excluded int
}

func newResult() *Result {
	r := &Result{Found: make(map[manifest.Category]*PathSet, len(manifest.Categories()))}
	for _, c := range manifest.Categories() {
		r.Found[c] = NewPathSet()
	}
	return r
}

// Paths returns the sorted found paths of every category.
func (r *Result) Paths() map[manifest.Category][]string {
	out := make(map[manifest.Category][]string, len(r.Found))
	for c, set := range r.Found {
		out[c] = set.Sorted()
	}
	return out
}

// Total returns the number of classified files.
func (r *Result) Total() int {
	n := 0
	for _, set := range r.Found {
		n += set.Len()
	}
	return n
}

// Scanner classifies files beneath a root directory.
type Scanner struct {
	images  map[string]struct{}
	audio   map[string]struct{}
	video   map[string]struct{}
	exclude []string
	ignore  *ignore.Matcher
	onError WalkErrorFunc
}

// New validates opts and returns a Scanner.
func New(opts Options) (*Scanner, error) {
	exclude := make([]string, 0, len(opts.Exclude))
	for _, p := range opts.Exclude {
		p = normalizePattern(p)
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
		exclude = append(exclude, p)
	}
	return &Scanner{
		images:  extensionSet(opts.Images),
		audio:   extensionSet(opts.Audio),
		video:   extensionSet(opts.Video),
		exclude: exclude,
		ignore:  opts.Ignore,
		onError: opts.OnWalkError,
	}, nil
}

// Scan walks root. Symlinks are not followed; a symlink entry is classified by
// its own name.
func (s *Scanner) Scan(root string) (*Result, error) {
	result := newResult()

	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return result, fmt.Errorf("%w: %s", ErrMissingRoot, root)
		}
		return result, fmt.Errorf("stat asset root: %w", err)
	}
	if !info.IsDir() {
		return result, fmt.Errorf("%w: %s is not a directory", ErrMissingRoot, root)
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if s.onError == nil {
				return walkErr
			}
			if err := s.onError(path, walkErr); err != nil {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if s.skipped(rel, d.IsDir()) {
			result.Excluded++
			logger.Trace("Skipping excluded path", logger.String("path", rel))
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		result.Files++
		cat, ok := s.Classify(rel)
		if !ok {
			result.Ignored++
			return nil
		}
		result.Found[cat].Add(rel)
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("walk %s: %w", root, err)
	}
	return result, nil
}

// Classify returns the category of a relative path. The particle rule is
// checked first and is exclusive.
func (s *Scanner) Classify(rel string) (manifest.Category, bool) {
	if strings.Contains(strings.ToLower(rel), ParticleMarker) {
		return manifest.Particles, true
	}
	ext := strings.ToLower(extension(rel))
	if ext == "" {
		return "", false
	}
	if _, ok := s.images[ext]; ok {
		return manifest.Images, true
	}
	if _, ok := s.audio[ext]; ok {
		return manifest.Audio, true
	}
	if _, ok := s.video[ext]; ok {
		return manifest.Videos, true
	}
	return "", false
}

func (s *Scanner) skipped(rel string, isDir bool) bool {
	if s.ignore.IsIgnored(rel, isDir) {
		return true
	}
	for _, pattern := range s.exclude {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if matched, err := doublestar.Match(pattern, filepath.Base(rel)); err == nil && matched {
				return true
			}
		}
	}
	return false
}

// normalizePattern converts backslashes and drops a leading "./".
func normalizePattern(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	return strings.TrimPrefix(p, "./")
}

// NormalizeExtension lowercases ext and adds the leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func extensionSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		if e = NormalizeExtension(e); e != "" {
			set[e] = struct{}{}
		}
	}
	return set
}

// extension returns the extension of the base name of rel. A name whose only
// dot is its first character (".png") has none.
func extension(rel string) string {
	base := filepath.Base(rel)
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return ""
	}
	return base[i:]
}
