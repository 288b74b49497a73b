package harness

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vectorcheck/internal/codec"
)

func newExecutor(registry *EncodingRegistry) *Executor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewExecutor(codec.NewCBOR(), registry, logger, nil, nil)
}

// executeAll runs every vector of src through one executor.
func executeAll(t *testing.T, src string) []VectorResult {
	t.Helper()
	doc := parseEDN(t, src)
	exec := newExecutor(NewEncodingRegistry())
	var results []VectorResult
	for _, v := range doc.Tests {
		results = append(results, exec.Execute(doc, doc.Title, v))
	}
	return results
}

func TestExecute_RoundTripPasses(t *testing.T) {
	results := executeAll(t, `{"title": "basics", "tests": [
		{"description": "zero", "encoded": h'00', "decoded": 0},
		{"description": "minus one", "encoded": h'20', "decoded": -1},
		{"description": "half", "encoded": h'f93e00', "decoded": 1.5},
		{"description": "nan", "encoded": h'f97e00', "decoded": NaN},
		{"description": "negative zero", "encoded": h'f98000', "decoded": -0.0},
		{"description": "text", "encoded": h'6161', "decoded": "a"},
		{"description": "bytes", "encoded": h'420102', "decoded": h'0102'},
		{"description": "array", "encoded": h'820102', "decoded": [1, 2]},
		{"description": "map", "encoded": h'a2616101616202', "decoded": {"a": 1, "b": 2}},
		{"description": "tag", "encoded": h'd8206161', "decoded": 32("a")},
		{"description": "bignum", "encoded": h'c249010000000000000000', "decoded": 18446744073709551616},
		{"description": "null", "encoded": h'f6', "decoded": null},
	]}`)

	require.Len(t, results, 12)
	for _, r := range results {
		assert.NoError(t, r.Err, r.Place)
		assert.Equal(t, KindRoundTrip, r.Kind, r.Place)
	}
	assert.Equal(t, "basics - zero", results[0].Place)
}

func TestExecute_EncodingMismatch(t *testing.T) {
	results := executeAll(t, `{"title": "t", "tests": [
		{"description": "non-preferred", "encoded": h'1801', "decoded": 1},
	]}`)

	err := results[0].Err
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAssertion))
	assert.Contains(t, err.Error(), "Got h'01', expected h'1801'")
}

func TestExecute_RoundtripFalseChecksOnlyDecode(t *testing.T) {
	results := executeAll(t, `{"title": "t", "tests": [
		{"description": "non-preferred", "encoded": h'1801', "decoded": 1, "roundtrip": false},
		{"description": "wrong value", "encoded": h'1802', "decoded": 1, "roundtrip": false},
	]}`)

	assert.NoError(t, results[0].Err)

	err := results[1].Err
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAssertion))
	assert.Contains(t, err.Error(), "Decoding.  Original: h'1802'")
}

func TestExecute_NaNPayloads(t *testing.T) {
	results := executeAll(t, `{"title": "t", "tests": [
		{"description": "kept", "encoded": h'f97e01', "decoded": float'7e01',
		 "decodeOptions": {"keepNanPayloads": true}},
		{"description": "canonicalised", "encoded": h'fa7fc00001', "decoded": float'7fc00001',
		 "roundtrip": false},
	]}`)

	assert.NoError(t, results[0].Err)
	require.Error(t, results[1].Err, "payload is dropped without keepNanPayloads")
	assert.True(t, errors.Is(results[1].Err, ErrAssertion))
	assert.Contains(t, results[1].Err.Error(), "0x7ff8000000000000")
}

func TestExecute_FailureMode(t *testing.T) {
	results := executeAll(t, `{"title": "t", "tests": [
		{"description": "truncated float", "fail": true, "encoded": h'f9'},
		{"description": "decodes fine", "fail": true, "encoded": h'01'},
		{"description": "nan rejected", "fail": true, "decoded": NaN,
		 "encodeOptions": {"nanConvert": "reject"}},
		{"description": "encodes fine", "fail": true, "decoded": 1},
		{"description": "nothing to check", "fail": true},
	]}`)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, KindFailure, results[0].Kind)

	require.Error(t, results[1].Err)
	assert.True(t, errors.Is(results[1].Err, ErrAssertion))
	assert.Contains(t, results[1].Err.Error(), "decoding h'01' succeeded")

	assert.NoError(t, results[2].Err)

	require.Error(t, results[3].Err)
	assert.Contains(t, results[3].Err.Error(), "encoding 1 succeeded")

	assert.NoError(t, results[4].Err)
}

func TestExecute_DocumentFailFlag(t *testing.T) {
	results := executeAll(t, `{"title": "t", "fail": true, "tests": [
		{"description": "dup key", "encoded": h'a2616101616102', "decodeOptions": {"dupMapKey": "reject"}},
		{"description": "break", "encoded": h'ff'},
	]}`)

	for _, r := range results {
		assert.Equal(t, KindFailure, r.Kind)
		assert.NoError(t, r.Err, r.Place)
	}
}

func TestExecute_OptionErrorIsIntegrityError(t *testing.T) {
	results := executeAll(t, `{"title": "t", "tests": [
		{"description": "typo", "fail": true, "encoded": h'f9', "decodeOptions": {"dupMapKeys": "reject"}},
		{"description": "typo round trip", "encoded": h'00', "decoded": 0, "encodeOptions": {"sortkeys": "none"}},
	]}`)

	for _, r := range results {
		require.Error(t, r.Err, r.Place)
		assert.True(t, errors.Is(r.Err, ErrCorpusIntegrity), r.Place)

		var optErr *codec.OptionError
		assert.True(t, errors.As(r.Err, &optErr), r.Place)
	}
}

func TestExecute_OutOfRangeOptionIsNotAnExpectedFailure(t *testing.T) {
	results := executeAll(t, `{"title": "t", "tests": [
		{"description": "too shallow", "fail": true, "encoded": h'00', "decodeOptions": {"maxNestedLevels": 1}},
		{"description": "negative", "fail": true, "encoded": h'01', "decodeOptions": {"maxNestedLevels": -1}},
	]}`)

	for _, r := range results {
		require.Error(t, r.Err, r.Place)
		assert.True(t, errors.Is(r.Err, ErrCorpusIntegrity), r.Place)
		assert.Contains(t, r.Err.Error(), "out of range", r.Place)
	}
}

func TestExecute_OptionMerging(t *testing.T) {
	doc := parseEDN(t, `{"title": "t", "decodeOptions": {"dupMapKey": "reject"}, "tests": [
		{"description": "document option applies", "fail": true, "encoded": h'a2616101616102'},
		{"description": "vector overrides", "encoded": h'a2616101616103', "decoded": {"a": 3},
		 "roundtrip": false, "decodeOptions": {"dupMapKey": "allow"}},
	]}`)

	exec := NewExecutor(codec.NewCBOR(), NewEncodingRegistry(), slog.New(slog.NewTextHandler(io.Discard, nil)),
		codec.Options{"float64": true}, nil)
	for _, v := range doc.Tests {
		r := exec.Execute(doc, doc.Title, v)
		assert.NoError(t, r.Err, r.Place)
	}
}

func TestExecute_CorpusDefaultsSitUnderDocument(t *testing.T) {
	doc := parseEDN(t, `{"title": "t", "encodeOptions": {"float64": false}, "tests": [
		{"description": "half", "encoded": h'f93c00', "decoded": 1.0},
	]}`)

	exec := NewExecutor(codec.NewCBOR(), NewEncodingRegistry(), slog.New(slog.NewTextHandler(io.Discard, nil)),
		codec.Options{"float64": true}, nil)
	r := exec.Execute(doc, doc.Title, doc.Tests[0])
	assert.NoError(t, r.Err)
}

func TestExecute_Malformed(t *testing.T) {
	results := executeAll(t, `{"title": "t", "tests": [
		{"description": "encoded only", "encoded": h'00'},
		{"description": "decoded only", "decoded": 0},
	]}`)

	for _, r := range results {
		assert.Equal(t, KindMalformed, r.Kind)
		require.Error(t, r.Err)
		assert.True(t, errors.Is(r.Err, ErrCorpusIntegrity))
		assert.Contains(t, r.Err.Error(), "Unknown vector combination")
	}
	assert.Contains(t, results[0].Err.Error(), "encoded: h'00'")
}

func TestExecute_DuplicatesAcrossDocuments(t *testing.T) {
	registry := NewEncodingRegistry()
	exec := newExecutor(registry)

	first := parseEDN(t, `{"title": "ints", "tests": [{"description": "one", "encoded": h'01', "decoded": 1}]}`)
	second := parseEDN(t, `{"title": "more", "tests": [
		{"description": "uno", "fail": true, "encoded": h'01'},
	]}`)

	assert.NoError(t, exec.Execute(first, first.Title, first.Tests[0]).Err)

	r := exec.Execute(second, second.Title, second.Tests[0])
	require.Error(t, r.Err)
	assert.Equal(t, `Duplicate: "ints - one" and "more - uno": h'01'`, r.Err.Error())
}

func TestExecute_DuplicateWithinDocument(t *testing.T) {
	results := executeAll(t, `{"title": "t", "tests": [
		{"description": "a", "encoded": h'01', "decoded": 1},
		{"description": "b", "encoded": h'01', "decoded": 1},
	]}`)

	assert.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)
	assert.True(t, errors.Is(results[1].Err, ErrCorpusIntegrity))
	assert.Contains(t, results[1].Err.Error(), `"t - a" and "t - b"`)
}

func TestExecute_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	exec := NewExecutor(codec.NewCBOR(), NewEncodingRegistry(), logger, nil, nil)

	doc := parseEDN(t, `{"title": "t", "tests": [
		{"description": "logged", "encoded": h'00', "decoded": 0, "log": true},
		{"description": "logged failure", "fail": true, "encoded": h'f9', "log": true},
		{"description": "quiet", "encoded": h'01', "decoded": 1},
	]}`)

	rt := exec.Execute(doc, doc.Title, doc.Tests[0])
	require.NoError(t, rt.Err)
	assert.Contains(t, rt.Log, "t - logged")
	assert.Contains(t, rt.Log, "enc=h'00'")
	assert.Contains(t, rt.Log, "dec=0")

	fail := exec.Execute(doc, doc.Title, doc.Tests[1])
	require.NoError(t, fail.Err)
	assert.Contains(t, fail.Log, "encoded: h'f9'")
	assert.NotContains(t, fail.Log, "enc=")

	quiet := exec.Execute(doc, doc.Title, doc.Tests[2])
	assert.Empty(t, quiet.Log)

	assert.Contains(t, buf.String(), "place=\"t - logged\"")
	assert.NotContains(t, buf.String(), "quiet")
}

func TestCheck_DoesNotCallCodec(t *testing.T) {
	doc := parseEDN(t, `{"title": "t", "tests": [
		{"description": "would fail", "encoded": h'1801', "decoded": 1},
	]}`)

	r := newExecutor(NewEncodingRegistry()).Check(doc, doc.Title, doc.Tests[0])
	assert.NoError(t, r.Err)
	assert.Equal(t, KindRoundTrip, r.Kind)
}
