// Package report renders the console summary of a generation run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fulmenhq/assetgen/internal/generate"
	"github.com/fulmenhq/assetgen/pkg/manifest"
	"github.com/fulmenhq/assetgen/pkg/reconcile"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultLabelWidth bounds the label shown on dropped and moved lines.
const DefaultLabelWidth = 40

// Options controls the text summary.
type Options struct {
	LabelWidth int
	DryRun     bool
	Check      bool
}

// Summary writes the category table, one line per added, dropped and moved
// entry, and a closing status line.
func Summary(w io.Writer, out *generate.Outcome, opts Options) error {
	if opts.LabelWidth <= 0 {
		opts.LabelWidth = DefaultLabelWidth
	}

	if _, err := fmt.Fprintln(w, Table(out.Result)); err != nil {
		return err
	}

	for _, cr := range out.Result.Categories {
		for _, e := range cr.Added {
			if _, err := fmt.Fprintf(w, "[ADDED] (%s) %s: %s\n", cr.Category, e.Key(), e.Path()); err != nil {
				return err
			}
		}
		for _, e := range cr.Dropped {
			if _, err := fmt.Fprintf(w, "[DROPPED] (%s) %s: %s - Label: %q\n", cr.Category, e.Key(), e.Path(), truncate(e.Label(), opts.LabelWidth)); err != nil {
				return err
			}
		}
		for _, m := range cr.Moves {
			if _, err := fmt.Fprintf(w, "[MOVED?] (%s) %s -> %s - previous label %q was not carried over\n", cr.Category, m.From, m.To, truncate(m.Label, opts.LabelWidth)); err != nil {
				return err
			}
		}
	}

	_, err := fmt.Fprintln(w, status(out, opts))
	return err
}

// Table renders per-category counts.
func Table(res *reconcile.Result) string {
	title := cases.Title(language.English)

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Category", "Before", "After", "Added", "Dropped", "Need label"})

	var before, after, added, dropped, pending int
	for _, cr := range res.Categories {
		need := NeedLabel(res.Manifest.List(cr.Category))
		tw.AppendRow(table.Row{
			title.String(cr.Category.String()),
			strconv.Itoa(cr.Before),
			strconv.Itoa(cr.After),
			strconv.Itoa(len(cr.Added)),
			strconv.Itoa(len(cr.Dropped)),
			strconv.Itoa(need),
		})
		before += cr.Before
		after += cr.After
		added += len(cr.Added)
		dropped += len(cr.Dropped)
		pending += need
	}
	tw.AppendFooter(table.Row{"Total", strconv.Itoa(before), strconv.Itoa(after), strconv.Itoa(added), strconv.Itoa(dropped), strconv.Itoa(pending)})

	configs := []table.ColumnConfig{{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}}
	for i := 2; i <= 6; i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignHeader: text.AlignLeft, AlignFooter: text.AlignRight})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// NeedLabel counts entries still carrying the placeholder label.
func NeedLabel(entries []manifest.Entry) int {
	n := 0
	for _, e := range entries {
		if label, ok := e.String(manifest.FieldLabel); !ok || label == manifest.SentinelLabel {
			n++
		}
	}
	return n
}

func status(out *generate.Outcome, opts Options) string {
	switch {
	case opts.Check && out.Changed:
		return fmt.Sprintf("%s is out of date", out.Output)
	case opts.Check:
		return fmt.Sprintf("%s is up to date", out.Output)
	case opts.DryRun && out.Changed:
		return fmt.Sprintf("Dry run: would write %s (%s)", out.Output, out.Format)
	case opts.DryRun:
		return fmt.Sprintf("Dry run: %s is up to date", out.Output)
	case out.Written:
		return fmt.Sprintf("Generated %s (%s)", out.Output, out.Format)
	default:
		return fmt.Sprintf("%s is up to date", out.Output)
	}
}

func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

type entryJSON struct {
	Category string `json:"category"`
	Key      string `json:"key"`
	Path     string `json:"path"`
	Label    string `json:"label,omitempty"`
}

type categoryJSON struct {
	Category  string `json:"category"`
	Before    int    `json:"before"`
	After     int    `json:"after"`
	Added     int    `json:"added"`
	Dropped   int    `json:"dropped"`
	NeedLabel int    `json:"need_label"`
}

type moveJSON struct {
	Category string `json:"category"`
	From     string `json:"from"`
	To       string `json:"to"`
	Label    string `json:"label"`
}

type summaryJSON struct {
	Output      string         `json:"output"`
	Format      string         `json:"format"`
	Changed     bool           `json:"changed"`
	Written     bool           `json:"written"`
	Unparseable bool           `json:"unparseable_manifest,omitempty"`
	MissingRoot bool           `json:"missing_root,omitempty"`
	Categories  []categoryJSON `json:"categories"`
	Added       []entryJSON    `json:"added"`
	Dropped     []entryJSON    `json:"dropped"`
	Moves       []moveJSON     `json:"moves,omitempty"`
	Issues      []string       `json:"issues,omitempty"`
}

// JSON writes a machine-readable summary.
func JSON(w io.Writer, out *generate.Outcome) error {
	s := summaryJSON{
		Output:      out.Output,
		Format:      string(out.Format),
		Changed:     out.Changed,
		Written:     out.Written,
		Unparseable: out.Unparseable,
		MissingRoot: out.MissingRoot,
		Added:       []entryJSON{},
		Dropped:     []entryJSON{},
	}
	for _, cr := range out.Result.Categories {
		cat := cr.Category.String()
		s.Categories = append(s.Categories, categoryJSON{
			Category:  cat,
			Before:    cr.Before,
			After:     cr.After,
			Added:     len(cr.Added),
			Dropped:   len(cr.Dropped),
			NeedLabel: NeedLabel(out.Result.Manifest.List(cr.Category)),
		})
		for _, e := range cr.Added {
			s.Added = append(s.Added, entryJSON{Category: cat, Key: e.Key(), Path: e.Path()})
		}
		for _, e := range cr.Dropped {
			s.Dropped = append(s.Dropped, entryJSON{Category: cat, Key: e.Key(), Path: e.Path(), Label: e.Label()})
		}
		for _, m := range cr.Moves {
			s.Moves = append(s.Moves, moveJSON{Category: cat, From: m.From, To: m.To, Label: m.Label})
		}
	}
	for _, is := range out.Issues {
		s.Issues = append(s.Issues, is.String())
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
