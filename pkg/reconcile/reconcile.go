// Package reconcile merges the paths found on disk with the entries of a
// previous manifest, keeping curator-written fields of surviving entries.
package reconcile

import (
	"errors"
	"fmt"
	"path"
	"sort"

	"github.com/fulmenhq/assetgen/pkg/manifest"
)

// ErrFieldDrift reports an output entry that no longer matches its source.
var ErrFieldDrift = errors.New("reconciled entry drifted from its source")

// List reconciles one category. Found paths are emitted in lexicographic
// order, one entry per distinct path. An existing entry whose normalized path
// was found is deep-copied with only its path rewritten; a new path gets a
// minimal sentinel-labelled entry; every other existing entry is dropped.
func List(existing []manifest.Entry, found []string) []manifest.Entry {
	lookup := index(existing)
	paths := distinctSorted(found)

	out := make([]manifest.Entry, 0, len(paths))
	for _, p := range paths {
		if prev, ok := lookup[p]; ok {
			e := prev.Clone()
			e.SetString(manifest.FieldPath, p)
			out = append(out, e)
			continue
		}
		out = append(out, manifest.NewEntry(manifest.KeyFromPath(p), p, manifest.SentinelLabel))
	}
	return out
}

// index maps normalized path to entry. Later duplicates win; entries without
// a string path are skipped.
func index(entries []manifest.Entry) map[string]manifest.Entry {
	lookup := make(map[string]manifest.Entry, len(entries))
	for _, e := range entries {
		p, ok := e.String(manifest.FieldPath)
		if !ok {
			continue
		}
		lookup[manifest.NormalizePath(p)] = e
	}
	return lookup
}

func distinctSorted(found []string) []string {
	seen := make(map[string]struct{}, len(found))
	out := make([]string, 0, len(found))
	for _, p := range found {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Move hints that a dropped entry's file reappeared under another directory.
// The new entry starts with the sentinel label.
type Move struct {
	From  string
	To    string
	Label string
}

// CategoryResult summarizes one category of a run.
type CategoryResult struct {
	Category manifest.Category
	Before   int
	After    int
	Added    []manifest.Entry
	Kept     []manifest.Entry
	Dropped  []manifest.Entry
	// Superseded counts earlier duplicates of a path that lost to a later entry.
	Superseded int
	Moves      []Move
}

// Changed reports whether the category gained or lost entries.
func (c CategoryResult) Changed() bool {
	return len(c.Added) > 0 || len(c.Dropped) > 0
}

// Result is the reconciled manifest plus per-category summaries in
// canonical order.
type Result struct {
	Manifest   *manifest.Manifest
	Categories []CategoryResult
}

// Category returns the summary of c.
func (r *Result) Category(c manifest.Category) CategoryResult {
	for _, cr := range r.Categories {
		if cr.Category == c {
			return cr
		}
	}
	return CategoryResult{Category: c}
}

// Added returns the number of new entries across all categories.
func (r *Result) Added() int {
	n := 0
	for _, cr := range r.Categories {
		n += len(cr.Added)
	}
	return n
}

// Dropped returns the number of removed entries across all categories.
func (r *Result) Dropped() int {
	n := 0
	for _, cr := range r.Categories {
		n += len(cr.Dropped)
	}
	return n
}

// Manifest reconciles every category independently.
func Manifest(existing *manifest.Manifest, found map[manifest.Category][]string) *Result {
	res := &Result{Manifest: manifest.New()}
	for _, cat := range manifest.Categories() {
		prev := existing.List(cat)
		out := List(prev, found[cat])
		res.Manifest.Set(cat, out)
		res.Categories = append(res.Categories, summarize(cat, prev, out))
	}
	return res
}

func summarize(cat manifest.Category, prev, out []manifest.Entry) CategoryResult {
	cr := CategoryResult{Category: cat, Before: len(prev), After: len(out)}

	lookup := index(prev)
	emitted := make(map[string]struct{}, len(out))
	for _, e := range out {
		emitted[e.Path()] = struct{}{}
		if _, ok := lookup[e.Path()]; ok {
			cr.Kept = append(cr.Kept, e)
		} else {
			cr.Added = append(cr.Added, e)
		}
	}

	winners := make(map[string]int, len(lookup))
	for i, e := range prev {
		if p, ok := e.String(manifest.FieldPath); ok {
			winners[manifest.NormalizePath(p)] = i
		}
	}
	for i, e := range prev {
		p, ok := e.String(manifest.FieldPath)
		if !ok {
			continue
		}
		p = manifest.NormalizePath(p)
		if winners[p] != i {
			cr.Superseded++
			continue
		}
		if _, ok := emitted[p]; !ok {
			cr.Dropped = append(cr.Dropped, e)
		}
	}

	cr.Moves = moves(cr.Added, cr.Dropped)
	return cr
}

// moves pairs added and dropped entries that share a file name. Each dropped
// entry is paired at most once.
func moves(added, dropped []manifest.Entry) []Move {
	if len(added) == 0 || len(dropped) == 0 {
		return nil
	}
	byName := make(map[string][]manifest.Entry)
	for _, d := range dropped {
		name := path.Base(manifest.NormalizePath(d.Path()))
		byName[name] = append(byName[name], d)
	}
	var out []Move
	for _, a := range added {
		name := path.Base(a.Path())
		cands := byName[name]
		if len(cands) == 0 {
			continue
		}
		d := cands[0]
		byName[name] = cands[1:]
		out = append(out, Move{From: manifest.NormalizePath(d.Path()), To: a.Path(), Label: d.Label()})
	}
	return out
}

// Verify re-checks a result against the manifest it was built from: paths are
// unique, every surviving entry equals its source except for
// path, and every other entry is a fresh sentinel entry.
func Verify(existing *manifest.Manifest, res *Result) error {
	for _, cat := range manifest.Categories() {
		lookup := index(existing.List(cat))
		seen := make(map[string]struct{})
		for i, e := range res.Manifest.List(cat) {
			p, ok := e.String(manifest.FieldPath)
			if !ok {
				return fmt.Errorf("%w: %s[%d] has no path", ErrFieldDrift, cat, i)
			}
			if _, dup := seen[p]; dup {
				return fmt.Errorf("%w: %s path %q emitted twice", ErrFieldDrift, cat, p)
			}
			seen[p] = struct{}{}

			src, ok := lookup[p]
			if !ok {
				fresh := manifest.NewEntry(manifest.KeyFromPath(p), p, manifest.SentinelLabel)
				if !e.Equal(fresh) {
					return fmt.Errorf("%w: %s new entry %q carries unexpected fields", ErrFieldDrift, cat, p)
				}
				continue
			}
			if !e.EqualExcept(src, manifest.FieldPath) {
				return fmt.Errorf("%w: %s entry %q", ErrFieldDrift, cat, p)
			}
		}
	}
	return nil
}
