// Package ignore provides gitignore-style filtering of asset paths using go-git
package ignore

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// DefaultFile is the ignore file read from the asset root.
const DefaultFile = ".assetignore"

// Options controls which pattern layers a Matcher loads.
type Options struct {
	// File is the ignore file name, relative to the root. Empty disables it.
	File string
	// RespectGitignore also loads .gitignore files found under the root.
	RespectGitignore bool
}

// Matcher filters paths relative to one root directory.
type Matcher struct {
	matcher  gitignore.Matcher
	patterns int
}

// NewMatcher creates a matcher with layered pattern sources:
// 1. .gitignore files under root (only when RespectGitignore is set)
// 2. the ignore file at the root (overrides)
func NewMatcher(root string, opts Options) (*Matcher, error) {
	fs := osfs.New(root)

	var all []gitignore.Pattern

	// Layer 1: gitignore patterns, nested files included
	if opts.RespectGitignore {
		gitPatterns, err := gitignore.ReadPatterns(fs, nil)
		if err != nil {
			return nil, fmt.Errorf("read gitignore patterns: %w", err)
		}
		all = append(all, gitPatterns...)
	}

	// Layer 2: the asset ignore file
	if opts.File != "" {
		lines, err := readIgnoreFile(fs, opts.File)
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			all = append(all, gitignore.ParsePattern(line, nil))
		}
	}

	return &Matcher{matcher: gitignore.NewMatcher(all), patterns: len(all)}, nil
}

// readIgnoreFile reads one pattern per line, skipping blanks and comments.
// A missing file is not an error.
func readIgnoreFile(fs billy.Filesystem, name string) ([]string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	if strings.Count(clean, "/") != 1 {
		return nil, fmt.Errorf("ignore file %q must live at the asset root", name)
	}

	f, err := fs.Open(clean[1:])
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(string(bytes.TrimPrefix(scanner.Bytes(), []byte("\xef\xbb\xbf"))))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return patterns, nil
}

// Empty reports whether no patterns were loaded.
func (m *Matcher) Empty() bool {
	return m == nil || m.patterns == 0
}

// IsIgnored checks a slash-separated path relative to the root.
func (m *Matcher) IsIgnored(rel string, isDir bool) bool {
	if m.Empty() {
		return false
	}
	parts := splitPath(rel)
	if len(parts) == 0 {
		return false
	}
	return m.matcher.Match(parts, isDir)
}

// splitPath converts a slash-separated path into components for go-git matching
func splitPath(p string) []string {
	if p == "" || p == "." {
		return []string{}
	}

	p = strings.TrimPrefix(p, "/")
	parts := strings.Split(p, "/")

	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}

	return result
}
