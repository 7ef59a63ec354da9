package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Canonicalize produces the byte-exact canonical form signatures cover:
// mapping keys sorted lexicographically at every level, compact UTF-8, no
// trailing whitespace (spec.md §6). Go's encoding/json already sorts map
// keys and emits compact output for json.Marshal of a map[string]interface{};
// we round-trip through that representation so struct field order never
// leaks into the signed form.
func Canonicalize(doc Document) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var generic map[string]interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}
	// The signature field itself is never covered by its own signature.
	delete(generic, "signature")

	canon, err := marshalSorted(generic)
	if err != nil {
		return nil, err
	}
	return canon, nil
}

// marshalSorted marshals v with map keys sorted at every level and no
// inserted whitespace. json.Marshal already does this for Go maps (it
// sorts string keys and omits whitespace), so this is a thin, explicit
// wrapper documenting that guarantee at the call site.
func marshalSorted(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("marshal canonical form: %w", err)
	}
	// json.Encoder.Encode appends a trailing newline; the canonical form
	// must have none.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ParseDocument unmarshals raw manifest bytes into a Document.
func ParseDocument(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("parse manifest: %w", err)
	}
	return doc, nil
}
