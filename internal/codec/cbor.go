package codec

import (
	"math"

	"github.com/fxamacker/cbor/v2"
)

var encodeOptionNames = map[string]bool{
	"sortKeys":    true,
	"float64":     true,
	"nanConvert":  true,
	"infConvert":  true,
	"bigInts":     true,
	"indefLength": true,
	"tags":        true,
}

var decodeOptionNames = map[string]bool{
	"keepNanPayloads": true,
	"dupMapKey":       true,
	"indefLength":     true,
	"tags":            true,
	"utf8":            true,
	"nan":             true,
	"inf":             true,
	"maxNestedLevels": true,
}

var (
	sortModes = map[string]cbor.SortMode{
		"bytewise":    cbor.SortBytewiseLexical,
		"lengthFirst": cbor.SortLengthFirst,
		"none":        cbor.SortNone,
	}
	nanConvertModes = map[string]cbor.NaNConvertMode{
		"preserve": cbor.NaNConvertPreserveSignal,
		"7e00":     cbor.NaNConvert7e00,
		"none":     cbor.NaNConvertNone,
		"quiet":    cbor.NaNConvertQuiet,
		"reject":   cbor.NaNConvertReject,
	}
	infConvertModes = map[string]cbor.InfConvertMode{
		"float16": cbor.InfConvertFloat16,
		"none":    cbor.InfConvertNone,
		"reject":  cbor.InfConvertReject,
	}
	bigIntModes = map[string]cbor.BigIntConvertMode{
		"shortest": cbor.BigIntConvertShortest,
		"bignum":   cbor.BigIntConvertNone,
		"reject":   cbor.BigIntConvertReject,
	}
	indefLengthModes = map[string]cbor.IndefLengthMode{
		"allow":  cbor.IndefLengthAllowed,
		"forbid": cbor.IndefLengthForbidden,
	}
	tagsModes = map[string]cbor.TagsMode{
		"allow":  cbor.TagsAllowed,
		"forbid": cbor.TagsForbidden,
	}
	dupMapKeyModes = map[string]cbor.DupMapKeyMode{
		"allow":  cbor.DupMapKeyQuiet,
		"reject": cbor.DupMapKeyEnforcedAPF,
	}
	utf8Modes = map[string]cbor.UTF8Mode{
		"reject":        cbor.UTF8RejectInvalid,
		"decodeInvalid": cbor.UTF8DecodeInvalid,
	}
	nanDecodeModes = map[string]cbor.NaNMode{
		"allow":  cbor.NaNDecodeAllowed,
		"forbid": cbor.NaNDecodeForbidden,
	}
	infDecodeModes = map[string]cbor.InfMode{
		"allow":  cbor.InfDecodeAllowed,
		"forbid": cbor.InfDecodeForbidden,
	}
)

// CBOR is the fxamacker/cbor backed Codec.
//
// Modes are built per call from the merged option set. Unless overridden,
// encoding uses preferred serialization: shortest integer and float forms,
// definite lengths as given, and bytewise sorted map keys so that the output
// of a Go map is deterministic.
type CBOR struct{}

var _ Codec = (*CBOR)(nil)

// NewCBOR returns the CBOR codec.
func NewCBOR() *CBOR {
	return &CBOR{}
}

// Encode marshals v with the encode mode described by opts.
func (c *CBOR) Encode(v any, opts Options) ([]byte, error) {
	em, err := EncMode(opts)
	if err != nil {
		return nil, err
	}
	return em.Marshal(v)
}

// Decode unmarshals a single data item. Trailing bytes are an error.
func (c *CBOR) Decode(data []byte, opts Options) (any, error) {
	dm, err := DecMode(opts)
	if err != nil {
		return nil, err
	}
	keepNaN, err := opts.boolean("keepNanPayloads", false)
	if err != nil {
		return nil, err
	}

	var v any
	if err := dm.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	if !keepNaN {
		v = canonicalNaN(v)
	}
	return v, nil
}

// EncMode builds an fxamacker encode mode from an option set.
func EncMode(opts Options) (cbor.EncMode, error) {
	if err := opts.checkKnown(encodeOptionNames); err != nil {
		return nil, err
	}

	eo := cbor.EncOptions{
		ShortestFloat: cbor.ShortestFloat16,
	}

	var err error
	if eo.Sort, err = choice(opts, "sortKeys", "bytewise", sortModes); err != nil {
		return nil, err
	}
	wide, err := opts.boolean("float64", false)
	if err != nil {
		return nil, err
	}
	if wide {
		eo.ShortestFloat = cbor.ShortestFloatNone
	}
	if eo.NaNConvert, err = choice(opts, "nanConvert", "preserve", nanConvertModes); err != nil {
		return nil, err
	}
	if eo.InfConvert, err = choice(opts, "infConvert", "float16", infConvertModes); err != nil {
		return nil, err
	}
	if eo.BigIntConvert, err = choice(opts, "bigInts", "shortest", bigIntModes); err != nil {
		return nil, err
	}
	if eo.IndefLength, err = choice(opts, "indefLength", "allow", indefLengthModes); err != nil {
		return nil, err
	}
	if eo.TagsMd, err = choice(opts, "tags", "allow", tagsModes); err != nil {
		return nil, err
	}

	em, err := eo.EncMode()
	if err != nil {
		return nil, &OptionError{Name: "encodeOptions", Message: err.Error()}
	}
	return em, nil
}

// Bounds fxamacker accepts for MaxNestedLevels.
const (
	minNestedLevels = 4
	maxNestedLevels = 65535
)

// DecMode builds an fxamacker decode mode from an option set.
// Modes fxamacker refuses are reported as *OptionError.
// keepNanPayloads is accepted but applied by Decode, not by the mode.
func DecMode(opts Options) (cbor.DecMode, error) {
	if err := opts.checkKnown(decodeOptionNames); err != nil {
		return nil, err
	}

	var do cbor.DecOptions
	var err error
	if do.DupMapKey, err = choice(opts, "dupMapKey", "allow", dupMapKeyModes); err != nil {
		return nil, err
	}
	if do.IndefLength, err = choice(opts, "indefLength", "allow", indefLengthModes); err != nil {
		return nil, err
	}
	if do.TagsMd, err = choice(opts, "tags", "allow", tagsModes); err != nil {
		return nil, err
	}
	if do.UTF8, err = choice(opts, "utf8", "reject", utf8Modes); err != nil {
		return nil, err
	}
	if do.NaN, err = choice(opts, "nan", "allow", nanDecodeModes); err != nil {
		return nil, err
	}
	if do.Inf, err = choice(opts, "inf", "allow", infDecodeModes); err != nil {
		return nil, err
	}
	if do.MaxNestedLevels, err = opts.integer("maxNestedLevels", 0, minNestedLevels, maxNestedLevels); err != nil {
		return nil, err
	}

	dm, err := do.DecMode()
	if err != nil {
		return nil, &OptionError{Name: "decodeOptions", Message: err.Error()}
	}
	return dm, nil
}

// quietNaN is the float64 form of the preferred CBOR NaN, f97e00.
var quietNaN = math.Float64frombits(0x7ff8000000000000)

// canonicalNaN replaces every NaN reachable from v with quietNaN.
func canonicalNaN(v any) any {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) {
			return quietNaN
		}
		return val
	case []any:
		for i, elem := range val {
			val[i] = canonicalNaN(elem)
		}
		return val
	case map[any]any:
		for k, elem := range val {
			val[k] = canonicalNaN(elem)
		}
		return val
	case cbor.Tag:
		val.Content = canonicalNaN(val.Content)
		return val
	default:
		return v
	}
}

var diagMode, _ = cbor.DiagOptions{
	ByteStringEncoding: cbor.ByteStringBase16Encoding,
	CBORSequence:       true,
}.DiagMode()

// Diagnose renders data in diagnostic notation.
func Diagnose(data []byte) (string, error) {
	return diagMode.Diagnose(data)
}
