package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/vectorcheck/internal/codec"
)

// domainOutcome separates outcome hashes from any other use of the same
// canonical bytes.
const domainOutcome = "vectorcheck/outcome/v1"

// marshalCanonical produces RFC 8785 canonical JSON for a flat object.
// Keys are sorted by UTF-16 code units and strings are NFC normalized.
// Values may be strings, booleans or integers; floats and null are
// rejected so that stored options compare byte for byte.
func marshalCanonical(obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lessUTF16(keys[i], keys[j]) })

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(marshalCanonicalString(k))
		buf.WriteByte(':')
		val, err := marshalCanonicalValue(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalCanonicalValue(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return marshalCanonicalString(val), nil
	case bool:
		return strconv.AppendBool(nil, val), nil
	case int:
		return strconv.AppendInt(nil, int64(val), 10), nil
	case int64:
		return strconv.AppendInt(nil, val, 10), nil
	case uint64:
		return strconv.AppendUint(nil, val, 10), nil
	case float32, float64:
		return nil, fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// marshalCanonicalString quotes s after NFC normalization. Only control
// characters, backslash and quote are escaped; in particular <, >, &,
// U+2028 and U+2029 are written as is.
func marshalCanonicalString(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(norm.NFC.String(s))
	return unescapeLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}))
}

// unescapeLineSeparators undoes the \u2028 and \u2029 escapes that
// encoding/json adds for JavaScript. Escaped backslashes are skipped as a
// unit, so `\\u2028` (a literal backslash then text) is left alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			continue
		}
		if data[i+1] == 'u' && i+6 <= len(data) {
			switch string(data[i+2 : i+6]) {
			case "2028":
				out = append(out, "\u2028"...)
				i += 5
				continue
			case "2029":
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		out = append(out, data[i], data[i+1])
		i++
	}
	return out
}

// lessUTF16 orders strings by UTF-16 code units as RFC 8785 requires.
func lessUTF16(a, b string) bool {
	ua, ub := utf16.Encode([]rune(a)), utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return len(ua) < len(ub)
}

// marshalOptions stores an option set as canonical JSON TEXT.
func marshalOptions(opts codec.Options) (string, error) {
	data, err := marshalCanonical(opts)
	if err != nil {
		return "", fmt.Errorf("marshal options: %w", err)
	}
	return string(data), nil
}

// unmarshalOptions parses stored options. Integers come back as int64,
// or uint64 when they do not fit.
func unmarshalOptions(data string) (codec.Options, error) {
	if data == "" || data == "{}" {
		return codec.Options{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal options: %w", err)
	}
	opts := make(codec.Options, len(raw))
	for k, v := range raw {
		num, ok := v.(json.Number)
		if !ok {
			opts[k] = v
			continue
		}
		if n, err := num.Int64(); err == nil {
			opts[k] = n
		} else if n, err := strconv.ParseUint(num.String(), 10, 64); err == nil {
			opts[k] = n
		} else {
			return nil, fmt.Errorf("unmarshal options: %q is not an integer", num)
		}
	}
	return opts, nil
}

// hashWithDomain computes SHA256(domain + 0x00 + data) as hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// OutcomeID computes the content-addressed ID of an outcome.
func OutcomeID(runID string, seq int64, place string) (string, error) {
	canonical, err := marshalCanonical(map[string]any{
		"run_id": runID,
		"seq":    seq,
		"place":  place,
	})
	if err != nil {
		return "", fmt.Errorf("OutcomeID: failed to marshal: %w", err)
	}
	return hashWithDomain(domainOutcome, canonical), nil
}
