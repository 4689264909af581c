package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// YAMLCodec stores the four lists as a YAML mapping. Entry field order is
// kept through yaml.Node; values are converted to and from their JSON form.
type YAMLCodec struct{}

func (YAMLCodec) Format() Format { return FormatYAML }

func (YAMLCodec) Encode(doc *Document) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, cat := range Categories() {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, e := range doc.Manifest.List(cat) {
			node, err := entryToNode(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", cat, err)
			}
			seq.Content = append(seq.Content, node)
		}
		if len(seq.Content) == 0 {
			seq.Style = yaml.FlowStyle
		}
		root.Content = append(root.Content, scalar(string(cat)), seq)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (YAMLCodec) Decode(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	doc := &Document{Manifest: New()}
	if root.Kind == 0 {
		return nil, errors.New("document is empty")
	}
	top := &root
	if top.Kind == yaml.DocumentNode && len(top.Content) > 0 {
		top = top.Content[0]
	}
	if top.Kind != yaml.MappingNode {
		return nil, errors.New("document is not a mapping")
	}

	for i := 0; i+1 < len(top.Content); i += 2 {
		cat, ok := ParseCategory(top.Content[i].Value)
		if !ok {
			continue
		}
		entries, issues := decodeYAMLList(cat, resolveAlias(top.Content[i+1]))
		doc.Manifest.Set(cat, entries)
		doc.Issues = append(doc.Issues, issues...)
	}
	return doc, nil
}

func decodeYAMLList(cat Category, seq *yaml.Node) ([]Entry, []Issue) {
	if seq.Kind != yaml.SequenceNode {
		return nil, []Issue{{Category: cat, Index: -1, Reason: "value is not a list"}}
	}
	entries := make([]Entry, 0, len(seq.Content))
	var issues []Issue
	for i, item := range seq.Content {
		item = resolveAlias(item)
		if item.Kind != yaml.MappingNode {
			issues = append(issues, Issue{Category: cat, Index: i, Reason: errNotObject.Error()})
			continue
		}
		raw, err := nodeToJSON(item)
		if err != nil {
			issues = append(issues, Issue{Category: cat, Index: i, Reason: err.Error()})
			continue
		}
		var e Entry
		if err := e.UnmarshalJSON(raw); err != nil {
			issues = append(issues, Issue{Category: cat, Index: i, Reason: err.Error()})
			continue
		}
		if !e.HasPath() {
			issues = append(issues, Issue{Category: cat, Index: i, Reason: "entry has no string path"})
			continue
		}
		entries = append(entries, e)
	}
	return entries, issues
}

func entryToNode(e Entry) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range e.fields {
		var value yaml.Node
		// JSON is valid YAML flow syntax, so the parser keeps nested key order.
		if err := yaml.Unmarshal(f.Value, &value); err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		v := &value
		if v.Kind == yaml.DocumentNode && len(v.Content) > 0 {
			v = v.Content[0]
		}
		clearStyle(v)
		node.Content = append(node.Content, scalar(f.Name), v)
	}
	return node, nil
}

// clearStyle switches flow/quoted nodes parsed from JSON back to block style.
// The encoder re-quotes strings that would otherwise change type.
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
	if (n.Kind == yaml.SequenceNode || n.Kind == yaml.MappingNode) && len(n.Content) == 0 {
		n.Style = yaml.FlowStyle
	}
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// nodeToJSON converts a YAML node to compact JSON, keeping mapping order.
func nodeToJSON(n *yaml.Node) ([]byte, error) {
	n = resolveAlias(n)
	var buf bytes.Buffer
	switch n.Kind {
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.Write(marshalString(n.Content[i].Value))
			buf.WriteByte(':')
			v, err := nodeToJSON(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			buf.Write(v)
		}
		buf.WriteByte('}')
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, c := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			v, err := nodeToJSON(c)
			if err != nil {
				return nil, err
			}
			buf.Write(v)
		}
		buf.WriteByte(']')
	case yaml.ScalarNode:
		v, err := scalarToJSON(n)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	default:
		return nil, fmt.Errorf("unsupported YAML node kind %d", n.Kind)
	}
	return buf.Bytes(), nil
}

func scalarToJSON(n *yaml.Node) ([]byte, error) {
	switch n.ShortTag() {
	case "!!null":
		return []byte("null"), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return json.Marshal(b)
	case "!!int", "!!float":
		if isJSONNumber(n.Value) {
			return []byte(n.Value), nil
		}
	}

	switch n.ShortTag() {
	case "!!int":
		var v interface{}
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return json.Marshal(v)
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("value %q has no JSON form", n.Value)
		}
		return json.Marshal(f)
	default:
		// strings, timestamps and anything else keep their literal text
		return marshalString(n.Value), nil
	}
}

// isJSONNumber reports whether a YAML number literal is already a JSON number,
// so it can be copied without changing its spelling.
func isJSONNumber(s string) bool {
	if s == "" || (s[0] != '-' && (s[0] < '0' || s[0] > '9')) {
		return false
	}
	return json.Valid([]byte(s))
}
