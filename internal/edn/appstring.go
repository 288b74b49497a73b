package edn

import (
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/cockroachdb/errors"
)

// parseAppString parses the quoted payload of name'...' and resolves it,
// either through a built-in byte string decoder or the registry.
func (p *parser) parseAppString(name string, off int) (stringPart, error) {
	payload, err := p.parseQuoted('\'')
	if err != nil {
		return stringPart{}, err
	}
	if builtinPrefixes[name] {
		content, err := decodeBuiltin(name, payload)
		if err != nil {
			return stringPart{}, p.errorAt(off, "%s'...': %v", name, err)
		}
		return stringPart{major: majorBytes, content: content, off: off}, nil
	}
	ext, ok := p.registry.Lookup(name)
	if !ok {
		return stringPart{}, p.errorAt(off, "unknown application extension %q", name)
	}
	item, err := ext.Decode(payload)
	if err != nil {
		return stringPart{}, p.errorAt(off, "%s'%s': %v", name, payload, err)
	}
	if len(item) == 0 {
		return stringPart{}, p.errorAt(off, "%s'%s': extension produced no data item", name, payload)
	}
	return stringPart{item: item, off: off}, nil
}

func decodeBuiltin(name, payload string) ([]byte, error) {
	switch name {
	case "h":
		return decodeHex(payload)
	case "b64":
		return decodeBase64(payload)
	case "b32":
		return decodeBase32(base32.StdEncoding, payload)
	case "h32":
		return decodeBase32(base32.HexEncoding, payload)
	}
	return nil, errors.New("unsupported prefix")
}

// decodeHex decodes hex digits, ignoring whitespace and comments.
func decodeHex(payload string) ([]byte, error) {
	var digits strings.Builder
	for i := 0; i < len(payload); i++ {
		switch c := payload[i]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		case c == '#':
			for i < len(payload) && payload[i] != '\n' {
				i++
			}
		case c == '/':
			end := strings.IndexByte(payload[i+1:], '/')
			if end < 0 {
				return nil, errors.New("unterminated comment")
			}
			i += end + 1
		case isHexDigit(c):
			digits.WriteByte(c)
		default:
			return nil, errors.Newf("invalid hex digit %q", c)
		}
	}
	if digits.Len()%2 != 0 {
		return nil, errors.New("odd number of hex digits")
	}
	return hex.DecodeString(digits.String())
}

func stripSpace(payload string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, payload)
}

// decodeBase64 accepts the standard and URL alphabets, padded or not.
func decodeBase64(payload string) ([]byte, error) {
	s := stripSpace(payload)
	s = strings.NewReplacer("-", "+", "_", "/").Replace(s)
	s = strings.TrimRight(s, "=")
	return base64.RawStdEncoding.DecodeString(s)
}

func decodeBase32(enc *base32.Encoding, payload string) ([]byte, error) {
	s := strings.ToUpper(stripSpace(payload))
	s = strings.TrimRight(s, "=")
	return enc.WithPadding(base32.NoPadding).DecodeString(s)
}
