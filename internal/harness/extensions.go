package harness

import (
	"encoding/hex"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/vectorcheck/internal/edn"
)

// FloatExtension handles float'<hex>' literals, which spell out the raw
// IEEE 754 bits of a half, single or double float.
func FloatExtension() edn.Extension {
	return edn.NewExtension("float", decodeFloatLiteral)
}

func decodeFloatLiteral(payload string) ([]byte, error) {
	buf, err := hex.DecodeString(strings.Join(strings.Fields(payload), ""))
	if err != nil {
		return nil, errors.Wrap(err, "invalid hex")
	}
	var head byte
	switch len(buf) {
	case 2:
		head = 0xf9
	case 4:
		head = 0xfa
	case 8:
		head = 0xfb
	default:
		return nil, errors.Newf("invalid float length: %d", len(buf))
	}
	return append([]byte{head}, buf...), nil
}

// DefaultRegistry returns the extensions every corpus may use.
func DefaultRegistry() *edn.Registry {
	r, err := edn.NewRegistry(FloatExtension())
	if err != nil {
		panic(err)
	}
	return r
}
