package manifest

import (
	"bytes"
	"encoding/json"
)

// JSONCodec reads and writes the structured-data shape with two-space indent.
type JSONCodec struct{}

func (JSONCodec) Format() Format { return FormatJSON }

func (JSONCodec) Decode(data []byte) (*Document, error) {
	m, issues, err := DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return &Document{Manifest: m, Issues: issues}, nil
}

func (JSONCodec) Encode(doc *Document) ([]byte, error) {
	body, err := doc.Manifest.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
