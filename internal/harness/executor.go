package harness

import (
	"bytes"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/vectorcheck/internal/codec"
)

// Executor runs vectors against a codec. It shares an EncodingRegistry
// with every other fixture of the run.
type Executor struct {
	codec          codec.Codec
	registry       *EncodingRegistry
	logger         *slog.Logger
	encodeDefaults codec.Options
	decodeDefaults codec.Options
}

// NewExecutor creates an executor. defaults sit under document options.
func NewExecutor(c codec.Codec, registry *EncodingRegistry, logger *slog.Logger, encodeDefaults, decodeDefaults codec.Options) *Executor {
	return &Executor{
		codec:          c,
		registry:       registry,
		logger:         logger,
		encodeDefaults: encodeDefaults,
		decodeDefaults: decodeDefaults,
	}
}

// Place names a vector as "<label> - <description>".
func Place(label, description string) string {
	return label + " - " + description
}

// Check claims the vector's encoding and classifies it without calling
// the codec.
func (e *Executor) Check(doc *Document, label string, v Vector) VectorResult {
	res := VectorResult{
		Place:       Place(label, v.Description),
		Description: v.Description,
		Kind:        Classify(v, doc.Fail),
	}
	if v.HasEncoded {
		if err := e.registry.Claim(v.Encoded, res.Place); err != nil {
			res.Err = err
			return res
		}
	}
	if res.Kind == KindMalformed {
		res.Err = integrityErrorf("Unknown vector combination: %s", formatFields(v.Fields))
	}
	return res
}

// Execute checks the vector, then runs it.
func (e *Executor) Execute(doc *Document, label string, v Vector) VectorResult {
	res := e.Check(doc, label, v)
	if res.Err != nil {
		return res
	}

	encOpts := codec.Merge(codec.Merge(e.encodeDefaults, doc.EncodeOptions), v.EncodeOptions)
	decOpts := codec.Merge(codec.Merge(e.decodeDefaults, doc.DecodeOptions), v.DecodeOptions)

	switch res.Kind {
	case KindFailure:
		res.Err = e.expectFailure(v, encOpts, decOpts)
		if v.Log {
			res.Log = e.logVector(res.Place, v, nil, nil, false)
		}
	case KindRoundTrip:
		enc, dec, err := e.roundTrip(v, encOpts, decOpts)
		res.Err = err
		if v.Log {
			res.Log = e.logVector(res.Place, v, enc, dec, true)
		}
	}
	return res
}

func (e *Executor) expectFailure(v Vector, encOpts, decOpts codec.Options) error {
	if v.HasDecoded {
		_, err := e.codec.Encode(v.Decoded, encOpts)
		if err == nil {
			return assertionErrorf("encoding %s succeeded, expected an error", formatValue(v.Decoded))
		}
		if isOptionError(err) {
			return markIntegrity(err)
		}
	}
	if v.HasEncoded {
		_, err := e.codec.Decode(v.Encoded, decOpts)
		if err == nil {
			return assertionErrorf("decoding h'%x' succeeded, expected an error", v.Encoded)
		}
		if isOptionError(err) {
			return markIntegrity(err)
		}
	}
	return nil
}

func (e *Executor) roundTrip(v Vector, encOpts, decOpts codec.Options) ([]byte, any, error) {
	var enc []byte
	if v.Roundtrip {
		var err error
		enc, err = e.codec.Encode(v.Decoded, encOpts)
		if err != nil {
			return nil, nil, codecError(err, "encoding %s", formatValue(v.Decoded))
		}
		if !bytes.Equal(enc, v.Encoded) {
			return enc, nil, assertionErrorf("Encoding.  Got h'%x', expected h'%x'", enc, v.Encoded)
		}
	}

	dec, err := e.codec.Decode(v.Encoded, decOpts)
	if err != nil {
		return enc, nil, codecError(err, "decoding h'%x'", v.Encoded)
	}
	if !ValuesEqual(dec, v.Decoded) {
		msg := fmt.Sprintf("Decoding.  Original: h'%x'", v.Encoded)
		if diag, err := codec.Diagnose(v.Encoded); err == nil {
			msg += " " + diag
		}
		return enc, dec, assertionErrorf("%s\n(-want +got):\n%s", msg, ValuesDiff(dec, v.Decoded))
	}
	return enc, dec, nil
}

func (e *Executor) logVector(place string, v Vector, enc []byte, dec any, withResults bool) string {
	attrs := []any{"place", place, "vector", formatFields(v.Fields)}
	text := place + ": " + formatFields(v.Fields)
	if withResults {
		encText := "<not encoded>"
		if enc != nil {
			encText = fmt.Sprintf("h'%x'", enc)
		}
		decText := formatValue(dec)
		attrs = append(attrs, "enc", encText, "dec", decText)
		text += fmt.Sprintf(" enc=%s dec=%s", encText, decText)
	}
	e.logger.Info("vector", attrs...)
	return text
}

func isOptionError(err error) bool {
	var optErr *codec.OptionError
	return errors.As(err, &optErr)
}

// codecError wraps an unexpected codec error. Option errors are the
// fixture's fault and are reported as integrity errors instead.
func codecError(err error, format string, args ...any) error {
	if isOptionError(err) {
		return markIntegrity(err)
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrCodec)
}

// formatFields renders a decoded vector with keys in sorted order.
func formatFields(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %s", k, formatValue(fields[k]))
	}
	sb.WriteByte('}')
	return sb.String()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case []byte:
		return fmt.Sprintf("h'%x'", x)
	case string:
		return fmt.Sprintf("%q", x)
	case nil:
		return "null"
	case big.Int:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}
