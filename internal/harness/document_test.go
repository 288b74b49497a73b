package harness

import (
	"math/big"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vectorcheck/internal/codec"
)

func TestParseDocument_Full(t *testing.T) {
	doc := parseEDN(t, `{
		"title": "ints",
		"fail": false,
		"encodeOptions": {"sortKeys": "lengthFirst"},
		"decodeOptions": {"maxNestedLevels": 16},
		"meta": {"source": "rfc8949", "appendix": "A"},
		"tests": [
			{"description": "zero", "encoded": h'00', "decoded": 0},
			{"description": "big", "encoded": h'c249010000000000000000',
			 "decoded": 18446744073709551616, "roundtrip": false, "log": true},
			{"description": "focus", "only": true, "fail": true,
			 "encodeOptions": {"float64": true}, "decodeOptions": {"dupMapKey": "reject"}},
		]
	}`)

	assert.Equal(t, "ints", doc.Title)
	assert.False(t, doc.Fail)
	assert.Equal(t, codec.Options{"sortKeys": "lengthFirst"}, doc.EncodeOptions)
	assert.Equal(t, codec.Options{"maxNestedLevels": uint64(16)}, doc.DecodeOptions)
	assert.Equal(t, map[string]any{"source": "rfc8949", "appendix": "A"}, doc.Meta)
	require.Len(t, doc.Tests, 3)

	zero := doc.Tests[0]
	assert.Equal(t, "zero", zero.Description)
	assert.True(t, zero.HasEncoded)
	assert.Equal(t, []byte{0}, zero.Encoded)
	assert.True(t, zero.HasDecoded)
	assert.Equal(t, uint64(0), zero.Decoded)
	assert.True(t, zero.Roundtrip, "roundtrip defaults to true")

	bigVec := doc.Tests[1]
	assert.False(t, bigVec.Roundtrip)
	assert.True(t, bigVec.Log)
	want := new(big.Int).Lsh(big.NewInt(1), 64)
	assert.True(t, ValuesEqual(bigVec.Decoded, *want))

	focus := doc.Tests[2]
	assert.True(t, focus.Only)
	assert.True(t, focus.Fail)
	assert.False(t, focus.HasEncoded)
	assert.False(t, focus.HasDecoded)
	assert.Equal(t, codec.Options{"float64": true}, focus.EncodeOptions)
	assert.Equal(t, codec.Options{"dupMapKey": "reject"}, focus.DecodeOptions)
}

func TestParseDocument_DecodedNullIsPresent(t *testing.T) {
	doc := parseEDN(t, `{"tests": [{"description": "null", "encoded": h'f6', "decoded": null}]}`)

	require.Len(t, doc.Tests, 1)
	assert.True(t, doc.Tests[0].HasDecoded)
	assert.Nil(t, doc.Tests[0].Decoded)
}

func TestParseDocument_EmptyEncodedIsPresent(t *testing.T) {
	doc := parseEDN(t, `{"tests": [{"description": "empty", "fail": true, "encoded": h''}]}`)

	assert.True(t, doc.Tests[0].HasEncoded)
	assert.Empty(t, doc.Tests[0].Encoded)
}

func TestParseDocument_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		message string
	}{
		{"missing tests", `{"title": "x"}`, "tests"},
		{"unknown document key", `{"tests": [], "bogus": 1}`, "bogus"},
		{"unknown vector key", `{"tests": [{"description": "a", "encode": h'00'}]}`, "encode"},
		{"description not text", `{"tests": [{"description": 1}]}`, "description"},
		{"missing description", `{"tests": [{"encoded": h'00', "decoded": 0}]}`, "description"},
		{"encoded not bytes", `{"tests": [{"description": "a", "encoded": "00"}]}`, "encoded"},
		{"fail not bool", `{"fail": 1, "tests": []}`, "fail"},
		{"tests not list", `{"tests": {}}`, "tests"},
		{"option value map", `{"encodeOptions": {"x": {}}, "tests": []}`, "encodeOptions"},
		{"meta not map", `{"meta": [1], "tests": []}`, "meta"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument(decodeEDN(t, tt.src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCorpusIntegrity), "got %v", err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestParseDocument_SchemaError(t *testing.T) {
	_, err := ParseDocument(decodeEDN(t, `{"tests": [{"description": "a", "bogus": true}]}`))
	require.Error(t, err)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	require.NotEmpty(t, schemaErr.Violations)
	assert.Contains(t, schemaErr.Violations[0], "bogus")
}

func TestParseDocument_NotAMap(t *testing.T) {
	_, err := ParseDocument([]any{uint64(1)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorpusIntegrity))
	assert.Contains(t, err.Error(), "document must be a map")
}

func TestParseDocument_NonTextKeys(t *testing.T) {
	_, err := ParseDocument(decodeEDN(t, `{1: 2, "tests": []}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorpusIntegrity))
	assert.Contains(t, err.Error(), "keys must be text strings")
}

func TestParseDocument_NaNInDecodedIsAllowed(t *testing.T) {
	doc := parseEDN(t, `{"tests": [{"description": "nan", "encoded": h'f97e00', "decoded": NaN}]}`)
	assert.True(t, doc.Tests[0].HasDecoded)
}
