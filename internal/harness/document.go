package harness

import (
	"github.com/roach88/vectorcheck/internal/codec"
)

// Document is the decoded form of a fixture.
type Document struct {
	Title         string
	Fail          bool
	EncodeOptions codec.Options
	DecodeOptions codec.Options
	Tests         []Vector

	// Meta is auxiliary corpus metadata, passed through untouched.
	Meta map[string]any
}

// Vector is one test case.
type Vector struct {
	Description string

	Encoded    []byte
	HasEncoded bool

	Decoded    any
	HasDecoded bool

	// Roundtrip defaults to true. When false only decoding is checked.
	Roundtrip bool
	Fail      bool
	Only      bool
	Log       bool

	EncodeOptions codec.Options
	DecodeOptions codec.Options

	// Fields holds the vector as decoded, for log output.
	Fields map[string]any
}

// ParseDocument builds a Document from the decoded fixture. The value is
// checked against the document schema first; every violation is a corpus
// integrity error.
func ParseDocument(v any) (*Document, error) {
	root, ok := v.(map[any]any)
	if !ok {
		return nil, integrityErrorf("document must be a map, got %T", v)
	}
	fields, err := stringKeyed(root, "document")
	if err != nil {
		return nil, err
	}

	checker, err := documentSchema()
	if err != nil {
		return nil, err
	}
	if err := checker.check(fields); err != nil {
		return nil, markIntegrity(err)
	}

	doc := &Document{}
	if doc.Title, err = optionalString(fields, "title"); err != nil {
		return nil, err
	}
	if doc.Fail, err = optionalBool(fields, "fail", false); err != nil {
		return nil, err
	}
	if doc.EncodeOptions, err = optionalOptions(fields, "encodeOptions"); err != nil {
		return nil, err
	}
	if doc.DecodeOptions, err = optionalOptions(fields, "decodeOptions"); err != nil {
		return nil, err
	}
	if meta, ok := fields["meta"]; ok {
		m, ok := meta.(map[any]any)
		if !ok {
			return nil, integrityErrorf("meta must be a map")
		}
		if doc.Meta, err = stringKeyed(m, "meta"); err != nil {
			return nil, err
		}
	}

	list, ok := fields["tests"].([]any)
	if !ok {
		return nil, integrityErrorf("document has no tests")
	}
	doc.Tests = make([]Vector, 0, len(list))
	for i, elem := range list {
		vec, err := parseVector(elem)
		if err != nil {
			return nil, integrityErrorf("tests[%d]: %v", i, err)
		}
		doc.Tests = append(doc.Tests, vec)
	}
	return doc, nil
}

func parseVector(v any) (Vector, error) {
	m, ok := v.(map[any]any)
	if !ok {
		return Vector{}, integrityErrorf("vector must be a map, got %T", v)
	}
	fields, err := stringKeyed(m, "vector")
	if err != nil {
		return Vector{}, err
	}

	if _, ok := fields["description"]; !ok {
		return Vector{}, integrityErrorf("vector has no description")
	}
	vec := Vector{Fields: fields}
	if vec.Description, err = optionalString(fields, "description"); err != nil {
		return Vector{}, err
	}
	if enc, ok := fields["encoded"]; ok {
		b, ok := enc.([]byte)
		if !ok {
			return Vector{}, integrityErrorf("encoded must be a byte string, got %T", enc)
		}
		vec.Encoded, vec.HasEncoded = b, true
	}
	vec.Decoded, vec.HasDecoded = fields["decoded"]
	if vec.Roundtrip, err = optionalBool(fields, "roundtrip", true); err != nil {
		return Vector{}, err
	}
	if vec.Fail, err = optionalBool(fields, "fail", false); err != nil {
		return Vector{}, err
	}
	if vec.Only, err = optionalBool(fields, "only", false); err != nil {
		return Vector{}, err
	}
	if vec.Log, err = optionalBool(fields, "log", false); err != nil {
		return Vector{}, err
	}
	if vec.EncodeOptions, err = optionalOptions(fields, "encodeOptions"); err != nil {
		return Vector{}, err
	}
	if vec.DecodeOptions, err = optionalOptions(fields, "decodeOptions"); err != nil {
		return Vector{}, err
	}
	return vec, nil
}

func stringKeyed(m map[any]any, what string) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		s, ok := k.(string)
		if !ok {
			return nil, integrityErrorf("%s keys must be text strings, found %T", what, k)
		}
		out[s] = v
	}
	return out, nil
}

func optionalString(fields map[string]any, name string) (string, error) {
	v, ok := fields[name]
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", integrityErrorf("%s must be a text string, got %T", name, v)
	}
	return s, nil
}

func optionalBool(fields map[string]any, name string, def bool) (bool, error) {
	v, ok := fields[name]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, integrityErrorf("%s must be a boolean, got %T", name, v)
	}
	return b, nil
}

func optionalOptions(fields map[string]any, name string) (codec.Options, error) {
	v, ok := fields[name]
	if !ok {
		return nil, nil
	}
	m, ok := v.(map[any]any)
	if !ok {
		return nil, integrityErrorf("%s must be a map, got %T", name, v)
	}
	opts, err := stringKeyed(m, name)
	if err != nil {
		return nil, err
	}
	return codec.Options(opts), nil
}
