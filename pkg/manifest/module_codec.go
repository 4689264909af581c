package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aymerick/raymond"
	"github.com/fulmenhq/assetgen/internal/assets"
)

// ManualMarker separates generated bindings from the hand-maintained region.
const ManualMarker = "// === MANUAL ASSETS CODE BELOW ==="

const defaultTool = "assetgen"

// ModuleCodec reads and writes the generated-module shape: one
// `export const <category> = [...];` binding per category, then everything
// from the marker line to the end of the previous file, copied verbatim.
type ModuleCodec struct {
	Tool   string
	Marker string
}

// NewModuleCodec returns a module codec with the default marker.
func NewModuleCodec() ModuleCodec {
	return ModuleCodec{Tool: defaultTool, Marker: ManualMarker}
}

func (ModuleCodec) Format() Format { return FormatModule }

func (c ModuleCodec) marker() string {
	if c.Marker == "" {
		return ManualMarker
	}
	return c.Marker
}

// DefaultManual is the region written when the previous file had no marker.
func (c ModuleCodec) DefaultManual() []byte {
	return []byte(c.marker() + "\n")
}

func (c ModuleCodec) Encode(doc *Document) ([]byte, error) {
	src, err := assets.GetTemplate(assets.ModuleTemplatePath)
	if err != nil {
		return nil, fmt.Errorf("load module template: %w", err)
	}
	tpl, err := raymond.Parse(strings.TrimRight(string(src), "\n"))
	if err != nil {
		return nil, fmt.Errorf("parse module template: %w", err)
	}

	exports := make([]map[string]string, 0, len(Categories()))
	for _, cat := range Categories() {
		list, err := marshalList(doc.Manifest.List(cat))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cat, err)
		}
		var body bytes.Buffer
		if err := json.Indent(&body, list, "", "    "); err != nil {
			return nil, fmt.Errorf("%s: %w", cat, err)
		}
		exports = append(exports, map[string]string{"name": string(cat), "body": body.String()})
	}

	tool := c.Tool
	if tool == "" {
		tool = defaultTool
	}
	header, err := tpl.Exec(map[string]interface{}{"tool": tool, "exports": exports})
	if err != nil {
		return nil, fmt.Errorf("render module: %w", err)
	}

	var out bytes.Buffer
	out.WriteString(header)
	if !strings.HasSuffix(header, "\n") {
		out.WriteByte('\n')
	}
	out.WriteByte('\n')
	if len(doc.Manual) > 0 {
		out.Write(doc.Manual)
	} else {
		out.Write(c.DefaultManual())
	}
	return out.Bytes(), nil
}

// Decode reads the bindings before the marker. The manual region is returned
// even when the bindings cannot be read.
func (c ModuleCodec) Decode(data []byte) (*Document, error) {
	doc := &Document{Manifest: New()}
	generated := data
	if i := findMarker(data, []byte(c.marker())); i >= 0 {
		doc.Manual = append([]byte(nil), data[i:]...)
		generated = data[:i]
	}

	bindings, err := scanBindings(generated)
	if err != nil {
		return doc, err
	}
	for _, cat := range Categories() {
		b, ok := bindings[string(cat)]
		if !ok {
			continue
		}
		if b.err != nil {
			doc.Issues = append(doc.Issues, Issue{Category: cat, Index: -1, Reason: b.err.Error()})
			continue
		}
		entries, issues := decodeList(cat, b.value)
		doc.Manifest.Set(cat, entries)
		doc.Issues = append(doc.Issues, issues...)
	}
	return doc, nil
}

// findMarker returns the offset of the first marker that starts a line
// (after optional spaces or tabs), or -1.
func findMarker(data, marker []byte) int {
	from := 0
	for {
		i := bytes.Index(data[from:], marker)
		if i < 0 {
			return -1
		}
		i += from
		j := i
		for j > 0 && (data[j-1] == ' ' || data[j-1] == '\t') {
			j--
		}
		if j == 0 || data[j-1] == '\n' {
			return i
		}
		from = i + len(marker)
	}
}

type binding struct {
	value json.RawMessage
	err   error
}

// scanBindings walks the generated region statement by statement. Comments
// and unrelated statements are skipped; an unterminated literal fails the
// whole region.
func scanBindings(src []byte) (map[string]binding, error) {
	out := make(map[string]binding)
	sawCode := false
	i := 0
	for i < len(src) {
		switch {
		case isSpace(src[i]):
			i++
		case bytes.HasPrefix(src[i:], []byte("//")):
			i = skipLine(src, i)
		case bytes.HasPrefix(src[i:], []byte("/*")):
			end := bytes.Index(src[i+2:], []byte("*/"))
			if end < 0 {
				return nil, errors.New("unterminated block comment")
			}
			i += 2 + end + 2
		default:
			if j, ok := matchExportConst(src, i); ok {
				name, b, next, err := parseBinding(src, j)
				if err != nil {
					return nil, err
				}
				out[name] = b
				i = next
				continue
			}
			sawCode = true
			i = skipLine(src, i)
		}
	}
	if len(out) == 0 && sawCode {
		return nil, errors.New("no export const bindings found")
	}
	return out, nil
}

// matchExportConst matches `export <ws> const <ws>` at i.
func matchExportConst(src []byte, i int) (int, bool) {
	j, ok := matchWord(src, i, "export")
	if !ok {
		return 0, false
	}
	return matchWord(src, j, "const")
}

func matchWord(src []byte, i int, word string) (int, bool) {
	if !bytes.HasPrefix(src[i:], []byte(word)) {
		return 0, false
	}
	j := i + len(word)
	if j >= len(src) || !isSpace(src[j]) {
		return 0, false
	}
	for j < len(src) && isSpace(src[j]) {
		j++
	}
	return j, true
}

func parseBinding(src []byte, j int) (string, binding, int, error) {
	start := j
	for j < len(src) && isIdentByte(src[j], j == start) {
		j++
	}
	if j == start {
		return "", binding{}, 0, fmt.Errorf("expected identifier at offset %d", start)
	}
	name := string(src[start:j])

	j = skipSpaces(src, j)
	if j >= len(src) || src[j] != '=' {
		return "", binding{}, 0, fmt.Errorf("expected '=' after %s", name)
	}
	j = skipSpaces(src, j+1)

	if j >= len(src) || src[j] != '[' {
		return name, binding{err: errors.New("value is not a list")}, skipLine(src, j), nil
	}
	end, err := scanBalanced(src, j)
	if err != nil {
		return "", binding{}, 0, fmt.Errorf("%s: %w", name, err)
	}
	literal := stripTrailingCommas(src[j:end])
	b := binding{value: literal}
	if !json.Valid(literal) {
		b = binding{err: errors.New("list is not valid JSON")}
	}

	j = end
	for j < len(src) && (src[j] == ' ' || src[j] == '\t') {
		j++
	}
	if j < len(src) && src[j] == ';' {
		j++
	}
	return name, b, j, nil
}

// scanBalanced returns the offset just past the bracket that closes src[start].
func scanBalanced(src []byte, start int) (int, error) {
	depth := 0
	var quote byte
	escaped := false
	for i := start; i < len(src); i++ {
		c := src[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return i + 1, nil
			}
			if depth < 0 {
				return 0, fmt.Errorf("unbalanced %q at offset %d", c, i)
			}
		}
	}
	return 0, fmt.Errorf("unterminated list starting at offset %d", start)
}

// stripTrailingCommas drops commas that directly precede a closing bracket,
// outside of strings. Hand-edited modules often carry them.
func stripTrailingCommas(src []byte) []byte {
	out := make([]byte, 0, len(src))
	inString, escaped := false, false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inString {
			out = append(out, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case ',':
			j := skipSpaces(src, i+1)
			if j < len(src) && (src[j] == ']' || src[j] == '}') {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

func skipLine(src []byte, i int) int {
	if k := bytes.IndexByte(src[i:], '\n'); k >= 0 {
		return i + k + 1
	}
	return len(src)
}

func skipSpaces(src []byte, i int) int {
	for i < len(src) && isSpace(src[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentByte(c byte, first bool) bool {
	switch {
	case c == '_' || c == '$':
		return true
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}
