package harness

import (
	"encoding/hex"
	"math"
	"math/big"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectVectors_NoFocus(t *testing.T) {
	tests := []Vector{{Description: "a"}, {Description: "b"}}

	got, skipped := SelectVectors(tests)
	assert.Equal(t, tests, got)
	assert.Zero(t, skipped)
}

func TestSelectVectors_OnlyFocus(t *testing.T) {
	tests := []Vector{
		{Description: "a"},
		{Description: "b", Only: true},
		{Description: "c"},
		{Description: "d", Only: true},
	}

	got, skipped := SelectVectors(tests)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Description)
	assert.Equal(t, "d", got[1].Description)
	assert.Equal(t, 2, skipped)
}

func TestEncodingRegistry_Claim(t *testing.T) {
	r := NewEncodingRegistry()

	require.NoError(t, r.Claim([]byte{0x01}, "ints - one"))
	require.NoError(t, r.Claim([]byte{0x02}, "ints - two"))
	assert.Equal(t, 2, r.Len())

	err := r.Claim([]byte{0x01}, "more - uno")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorpusIntegrity))
	assert.Equal(t, `Duplicate: "ints - one" and "more - uno": h'01'`, err.Error())

	var dup *DuplicateError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "01", dup.Hex)
	assert.Equal(t, "ints - one", dup.First)
	assert.Equal(t, "more - uno", dup.Second)

	// the first claim is kept
	err = r.Claim([]byte{0x01}, "third")
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "ints - one", dup.First)
}

func TestEncodingRegistry_EmptyEncoding(t *testing.T) {
	r := NewEncodingRegistry()
	require.NoError(t, r.Claim([]byte{}, "a - empty"))
	assert.Error(t, r.Claim(nil, "b - empty"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		vector  Vector
		docFail bool
		want    VectorKind
	}{
		{"round trip", Vector{HasEncoded: true, HasDecoded: true}, false, KindRoundTrip},
		{"round trip without roundtrip flag", Vector{HasEncoded: true, HasDecoded: true, Roundtrip: false}, false, KindRoundTrip},
		{"vector fail", Vector{Fail: true, HasEncoded: true}, false, KindFailure},
		{"document fail", Vector{HasEncoded: true, HasDecoded: true}, true, KindFailure},
		{"failure without fields", Vector{Fail: true}, false, KindFailure},
		{"encoded only", Vector{HasEncoded: true}, false, KindMalformed},
		{"decoded only", Vector{HasDecoded: true}, false, KindMalformed},
		{"nothing", Vector{}, false, KindMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.vector, tt.docFail))
		})
	}
}

func TestVectorKind_String(t *testing.T) {
	assert.Equal(t, "roundtrip", KindRoundTrip.String())
	assert.Equal(t, "failure", KindFailure.String())
	assert.Equal(t, "malformed", KindMalformed.String())
}

func TestValuesEqual(t *testing.T) {
	nanPayload := math.Float64frombits(0x7ff8040000000000)
	two64 := new(big.Int).Lsh(big.NewInt(1), 64)

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"same uint", uint64(1), uint64(1), true},
		{"uint vs int", uint64(1), int64(1), false},
		{"nan equals nan", quietNaN(), quietNaN(), true},
		{"nan payloads differ", quietNaN(), nanPayload, false},
		{"signed zero", 0.0, math.Copysign(0, -1), false},
		{"big ints", *two64, *new(big.Int).Lsh(big.NewInt(1), 64), true},
		{"big int pointers", two64, new(big.Int).Set(two64), true},
		{"nested", []any{map[any]any{"a": []byte{1}}}, []any{map[any]any{"a": []byte{1}}}, true},
		{"nested differ", []any{map[any]any{"a": []byte{1}}}, []any{map[any]any{"a": []byte{2}}}, false},
		{"tags", cbor.Tag{Number: 32, Content: "x"}, cbor.Tag{Number: 32, Content: "x"}, true},
		{"nil", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValuesEqual(tt.a, tt.b))
		})
	}
}

func TestValuesDiff(t *testing.T) {
	diff := ValuesDiff([]any{uint64(1)}, []any{uint64(2)})
	assert.Contains(t, diff, "-")
	assert.Contains(t, diff, "+")
	assert.Empty(t, ValuesDiff(uint64(1), uint64(1)))
}

func TestValuesDiff_ShowsFloatBits(t *testing.T) {
	nanPayload := math.Float64frombits(0x7ff8040000000000)

	diff := ValuesDiff([]any{quietNaN()}, []any{nanPayload})
	assert.Contains(t, diff, "0x7ff8000000000000")
	assert.Contains(t, diff, "0x7ff8040000000000")

	assert.Empty(t, ValuesDiff(quietNaN(), quietNaN()))
	assert.NotEmpty(t, ValuesDiff(0.0, math.Copysign(0, -1)))
}

func TestFloatExtension(t *testing.T) {
	tests := []struct {
		payload string
		want    []byte
	}{
		{"7e00", []byte{0xf9, 0x7e, 0x00}},
		{"7fc00001", []byte{0xfa, 0x7f, 0xc0, 0x00, 0x01}},
		{"7ff8 0000 0000 0001", []byte{0xfb, 0x7f, 0xf8, 0, 0, 0, 0, 0, 0x01}},
	}

	ext := FloatExtension()
	assert.Equal(t, "float", ext.Name())
	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			got, err := ext.Decode(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFloatExtension_InvalidLength(t *testing.T) {
	_, err := FloatExtension().Decode("7e0000")
	require.Error(t, err)
	assert.Equal(t, "invalid float length: 3", err.Error())

	_, err = FloatExtension().Decode("zz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, hex.InvalidByteError('z')), "cause is kept: %v", err)
	assert.Contains(t, err.Error(), "invalid hex")
}

func TestFloatExtension_InNotation(t *testing.T) {
	v := decodeEDN(t, `[float'7e01']`)
	arr := v.([]any)
	assert.Equal(t, uint64(0x7ff8040000000000), math.Float64bits(arr[0].(float64)))
}

func quietNaN() float64 {
	return math.Float64frombits(0x7ff8000000000000)
}
