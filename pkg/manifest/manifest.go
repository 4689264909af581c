package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Manifest maps each category to its ordered entries.
type Manifest struct {
	lists map[Category][]Entry
}

// New returns a manifest with all four categories empty.
func New() *Manifest {
	return &Manifest{lists: make(map[Category][]Entry, len(Categories()))}
}

// List returns the entries of a category. The slice is shared; use Clone
// before mutating.
func (m *Manifest) List(c Category) []Entry {
	if m == nil {
		return nil
	}
	return m.lists[c]
}

// Set replaces the entries of a category.
func (m *Manifest) Set(c Category, entries []Entry) {
	if m.lists == nil {
		m.lists = make(map[Category][]Entry, len(Categories()))
	}
	m.lists[c] = entries
}

// Count returns the number of entries in a category.
func (m *Manifest) Count(c Category) int {
	return len(m.List(c))
}

// Total returns the number of entries across all categories.
func (m *Manifest) Total() int {
	n := 0
	for _, c := range Categories() {
		n += m.Count(c)
	}
	return n
}

// Clone returns a deep copy.
func (m *Manifest) Clone() *Manifest {
	out := New()
	for _, c := range Categories() {
		src := m.List(c)
		if src == nil {
			continue
		}
		dst := make([]Entry, len(src))
		for i, e := range src {
			dst[i] = e.Clone()
		}
		out.lists[c] = dst
	}
	return out
}

// Equal compares every category entry by entry.
func (m *Manifest) Equal(o *Manifest) bool {
	for _, c := range Categories() {
		a, b := m.List(c), o.List(c)
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
	}
	return true
}

// MarshalJSON writes exactly the four category lists in canonical order.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range Categories() {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(marshalString(string(c)))
		buf.WriteByte(':')
		list, err := marshalList(m.List(c))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c, err)
		}
		buf.Write(list)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a manifest, silently skipping malformed parts. Use
// DecodeJSON to see what was skipped.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	parsed, _, err := DecodeJSON(data)
	if err != nil {
		return err
	}
	*m = *parsed
	return nil
}

// DecodeJSON decodes the structured-data shape. The document must be an
// object; everything below it is decoded leniently and reported as issues.
func DecodeJSON(data []byte) (*Manifest, []Issue, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, nil, err
	}
	if top == nil {
		return nil, nil, fmt.Errorf("document is null")
	}

	m := New()
	var issues []Issue
	for _, c := range Categories() {
		raw, ok := top[string(c)]
		if !ok {
			continue
		}
		entries, listIssues := decodeList(c, raw)
		m.Set(c, entries)
		issues = append(issues, listIssues...)
	}
	return m, issues, nil
}

func marshalList(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := e.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// decodeList decodes one category list. A non-list value yields no entries;
// elements that are not objects or have no string path are skipped.
func decodeList(c Category, raw json.RawMessage) ([]Entry, []Issue) {
	var elems []json.RawMessage
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, []Issue{{Category: c, Index: -1, Reason: "value is not a list"}}
	}
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, []Issue{{Category: c, Index: -1, Reason: fmt.Sprintf("invalid list: %v", err)}}
	}

	entries := make([]Entry, 0, len(elems))
	var issues []Issue
	for i, elem := range elems {
		var e Entry
		if err := e.UnmarshalJSON(elem); err != nil {
			issues = append(issues, Issue{Category: c, Index: i, Reason: err.Error()})
			continue
		}
		if !e.HasPath() {
			issues = append(issues, Issue{Category: c, Index: i, Reason: "entry has no string path"})
			continue
		}
		entries = append(entries, e)
	}
	return entries, issues
}
