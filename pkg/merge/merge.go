// Package merge layers configuration documents over one another.
package merge

import (
	"bytes"
	"encoding/json"
	"maps"

	"github.com/cockroachdb/errors"
	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/tidwall/pretty"
	"go.yaml.in/yaml/v4"
)

// prettyOptions keeps rendered JSON readable: two-space indent, sorted keys,
// short arrays on one line.
var prettyOptions = &pretty.Options{
	Width:    80,
	Indent:   "  ",
	SortKeys: true,
}

// DeepMerge layers override on top of base with RFC 7396 merge-patch
// semantics: maps merge key-wise, scalars and arrays from the override
// replace, and an explicit null removes the key. This is how the user
// config file lands on the built-in defaults.
func DeepMerge(base, override map[string]any) (map[string]any, error) {
	if len(override) == 0 {
		merged := make(map[string]any, len(base))
		maps.Copy(merged, base)

		return merged, nil
	}

	if base == nil {
		base = map[string]any{}
	}

	baseJSON, err := json.Marshal(base)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedDocument, "encoding base layer")
	}

	patchJSON, err := json.Marshal(override)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedDocument, "encoding override layer")
	}

	mergedJSON, err := jsonpatch.MergePatch(baseJSON, patchJSON)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedDocument, "applying merge patch")
	}

	var merged map[string]any
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return nil, errors.Wrap(ErrMalformedDocument, "decoding merged document")
	}

	return merged, nil
}

// ParseYAML decodes YAML bytes into a generic document.
func ParseYAML(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(ErrMalformedDocument, "parsing YAML")
	}

	return doc, nil
}

// MarshalJSON renders a document as indented JSON. HTML escaping is off so
// glob patterns keep their <, >, and & characters; the trailing newline is
// trimmed so callers control line endings.
func MarshalJSON(doc map[string]any) ([]byte, error) {
	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(doc); err != nil {
		return nil, errors.Wrap(ErrMalformedDocument, "rendering JSON")
	}

	out := pretty.PrettyOptions(buf.Bytes(), prettyOptions)

	return bytes.TrimSuffix(out, []byte("\n")), nil
}

// MarshalYAML renders a document as YAML.
func MarshalYAML(doc map[string]any) ([]byte, error) {
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedDocument, "rendering YAML")
	}

	return out, nil
}
