package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is one named value of an Entry. Value is compact JSON.
type Field struct {
	Name  string
	Value json.RawMessage
}

// Entry is one asset record. Fields keep their document order and their raw
// encoding so curator-written metadata survives regeneration unchanged.
type Entry struct {
	fields []Field
}

// NewEntry builds the minimal record used for a newly discovered asset.
func NewEntry(key, path, label string) Entry {
	var e Entry
	e.SetString(FieldKey, key)
	e.SetString(FieldPath, path)
	e.SetString(FieldLabel, label)
	return e
}

// Fields returns a copy of the entry's fields in order.
func (e Entry) Fields() []Field {
	out := make([]Field, len(e.fields))
	for i, f := range e.fields {
		out[i] = Field{Name: f.Name, Value: append(json.RawMessage(nil), f.Value...)}
	}
	return out
}

// Len returns the number of fields.
func (e Entry) Len() int { return len(e.fields) }

// Get returns the raw value of a field.
func (e Entry) Get(name string) (json.RawMessage, bool) {
	for _, f := range e.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// String returns a field decoded as a JSON string. ok is false when the field
// is absent or not a string.
func (e Entry) String(name string) (string, bool) {
	raw, ok := e.Get(name)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func (e Entry) Key() string {
	s, _ := e.String(FieldKey)
	return s
}

func (e Entry) Path() string {
	s, _ := e.String(FieldPath)
	return s
}

func (e Entry) Label() string {
	s, _ := e.String(FieldLabel)
	return s
}

// HasPath reports whether the entry carries a string path.
func (e Entry) HasPath() bool {
	_, ok := e.String(FieldPath)
	return ok
}

// Set replaces a field in place, or appends it when absent.
func (e *Entry) Set(name string, value json.RawMessage) error {
	compacted, err := compactJSON(value)
	if err != nil {
		return fmt.Errorf("field %q: %w", name, err)
	}
	for i := range e.fields {
		if e.fields[i].Name == name {
			e.fields[i].Value = compacted
			return nil
		}
	}
	e.fields = append(e.fields, Field{Name: name, Value: compacted})
	return nil
}

// SetString stores a string field.
func (e *Entry) SetString(name, value string) {
	// a marshalled string is always valid JSON
	_ = e.Set(name, marshalString(value))
}

// Clone returns a deep copy.
func (e Entry) Clone() Entry {
	return Entry{fields: e.Fields()}
}

// Equal reports whether both entries have the same fields, order and values.
func (e Entry) Equal(o Entry) bool {
	if len(e.fields) != len(o.fields) {
		return false
	}
	for i := range e.fields {
		if e.fields[i].Name != o.fields[i].Name || !bytes.Equal(e.fields[i].Value, o.fields[i].Value) {
			return false
		}
	}
	return true
}

// EqualExcept is Equal ignoring one field's value (its position still counts).
func (e Entry) EqualExcept(o Entry, ignored string) bool {
	if len(e.fields) != len(o.fields) {
		return false
	}
	for i := range e.fields {
		if e.fields[i].Name != o.fields[i].Name {
			return false
		}
		if e.fields[i].Name == ignored {
			continue
		}
		if !bytes.Equal(e.fields[i].Value, o.fields[i].Value) {
			return false
		}
	}
	return true
}

// MarshalJSON writes the entry as a compact object in field order.
func (e Entry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range e.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(marshalString(f.Name))
		buf.WriteByte(':')
		if len(f.Value) == 0 {
			buf.WriteString("null")
			continue
		}
		buf.Write(f.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keeping field order. A repeated name keeps its
// first position and takes the last value.
func (e *Entry) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errNotObject
	}

	var fields []Field
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		value, err := compactJSON(raw)
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		if i, seen := index[name]; seen {
			fields[i].Value = value
			continue
		}
		index[name] = len(fields)
		fields = append(fields, Field{Name: name, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	e.fields = fields
	return nil
}

func compactJSON(raw []byte) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return json.RawMessage(buf.Bytes()), nil
}

// marshalString encodes s the way JSON.stringify does: no HTML escaping.
func marshalString(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return bytes.TrimRight(buf.Bytes(), "\n")
}
