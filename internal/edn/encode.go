package edn

import (
	"encoding/binary"
	"math"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/x448/float16"
)

const (
	majorUnsigned byte = 0
	majorNegative byte = 1
	majorBytes    byte = 2
	majorText     byte = 3
	majorArray    byte = 4
	majorMap      byte = 5
	majorTag      byte = 6
	majorSimple   byte = 7
)

const breakByte = 0xff

// indicator is an encoding indicator attached to a literal.
type indicator int

const (
	indPreferred indicator = iota
	indImmediate           // _i
	ind1                   // _0
	ind2                   // _1
	ind4                   // _2
	ind8                   // _3
	indIndefinite          // _
)

func (ind indicator) String() string {
	switch ind {
	case indImmediate:
		return "_i"
	case ind1:
		return "_0"
	case ind2:
		return "_1"
	case ind4:
		return "_2"
	case ind8:
		return "_3"
	case indIndefinite:
		return "_"
	default:
		return ""
	}
}

// appendHead appends the initial byte and argument of a data item.
func appendHead(dst []byte, major byte, arg uint64, ind indicator) ([]byte, error) {
	mt := major << 5
	switch ind {
	case indPreferred:
		switch {
		case arg < 24:
			return append(dst, mt|byte(arg)), nil
		case arg <= math.MaxUint8:
			return append(dst, mt|24, byte(arg)), nil
		case arg <= math.MaxUint16:
			return binary.BigEndian.AppendUint16(append(dst, mt|25), uint16(arg)), nil
		case arg <= math.MaxUint32:
			return binary.BigEndian.AppendUint32(append(dst, mt|26), uint32(arg)), nil
		default:
			return binary.BigEndian.AppendUint64(append(dst, mt|27), arg), nil
		}
	case indImmediate:
		if arg >= 24 {
			return nil, errors.Newf("argument %d does not fit encoding indicator _i", arg)
		}
		return append(dst, mt|byte(arg)), nil
	case ind1:
		if arg > math.MaxUint8 {
			return nil, errors.Newf("argument %d does not fit encoding indicator _0", arg)
		}
		return append(dst, mt|24, byte(arg)), nil
	case ind2:
		if arg > math.MaxUint16 {
			return nil, errors.Newf("argument %d does not fit encoding indicator _1", arg)
		}
		return binary.BigEndian.AppendUint16(append(dst, mt|25), uint16(arg)), nil
	case ind4:
		if arg > math.MaxUint32 {
			return nil, errors.Newf("argument %d does not fit encoding indicator _2", arg)
		}
		return binary.BigEndian.AppendUint32(append(dst, mt|26), uint32(arg)), nil
	case ind8:
		return binary.BigEndian.AppendUint64(append(dst, mt|27), arg), nil
	default:
		return nil, errors.Newf("encoding indicator %s not allowed here", ind)
	}
}

var maxUint64 = new(big.Int).SetUint64(math.MaxUint64)

// encodeInteger encodes n, falling back to tag 2 or 3 bignums when the
// value is outside the 64-bit argument range.
func encodeInteger(n *big.Int, ind indicator) ([]byte, error) {
	major := majorUnsigned
	mag := new(big.Int).Set(n)
	if n.Sign() < 0 {
		major = majorNegative
		// -1 - n
		mag.Neg(mag)
		mag.Sub(mag, big.NewInt(1))
	}
	if mag.Cmp(maxUint64) <= 0 {
		return appendHead(nil, major, mag.Uint64(), ind)
	}
	if ind != indPreferred {
		return nil, errors.Newf("encoding indicator %s not allowed on bignum", ind)
	}
	tag := uint64(2)
	if major == majorNegative {
		tag = 3
	}
	content := mag.Bytes()
	out, _ := appendHead(nil, majorTag, tag, indPreferred)
	out, _ = appendHead(out, majorBytes, uint64(len(content)), indPreferred)
	return append(out, content...), nil
}

// encodeFloat encodes f. Without an indicator the shortest width that holds
// f exactly is used; NaN always becomes the quiet NaN of the chosen width.
func encodeFloat(f float64, ind indicator) ([]byte, error) {
	mt := majorSimple << 5
	if math.IsNaN(f) {
		switch ind {
		case indPreferred, ind2:
			return []byte{mt | 25, 0x7e, 0x00}, nil
		case ind4:
			return []byte{mt | 26, 0x7f, 0xc0, 0x00, 0x00}, nil
		case ind8:
			return []byte{mt | 27, 0x7f, 0xf8, 0, 0, 0, 0, 0, 0}, nil
		}
		return nil, errors.Newf("encoding indicator %s not allowed on float", ind)
	}

	f32 := float32(f)
	fits32 := float64(f32) == f
	h := float16.Fromfloat32(f32)
	fits16 := fits32 && h.Float32() == f32

	switch ind {
	case indPreferred:
		switch {
		case fits16:
			return binary.BigEndian.AppendUint16([]byte{mt | 25}, h.Bits()), nil
		case fits32:
			return binary.BigEndian.AppendUint32([]byte{mt | 26}, math.Float32bits(f32)), nil
		default:
			return binary.BigEndian.AppendUint64([]byte{mt | 27}, math.Float64bits(f)), nil
		}
	case ind2:
		if !fits16 {
			return nil, errors.Newf("%v is not exactly representable in half precision", f)
		}
		return binary.BigEndian.AppendUint16([]byte{mt | 25}, h.Bits()), nil
	case ind4:
		if !fits32 {
			return nil, errors.Newf("%v is not exactly representable in single precision", f)
		}
		return binary.BigEndian.AppendUint32([]byte{mt | 26}, math.Float32bits(f32)), nil
	case ind8:
		return binary.BigEndian.AppendUint64([]byte{mt | 27}, math.Float64bits(f)), nil
	default:
		return nil, errors.Newf("encoding indicator %s not allowed on float", ind)
	}
}

// encodeSimple encodes simple(n). Values 24 through 31 are not well-formed.
func encodeSimple(n uint64) ([]byte, error) {
	switch {
	case n < 24:
		return []byte{majorSimple<<5 | byte(n)}, nil
	case n < 32:
		return nil, errors.Newf("simple(%d) is reserved", n)
	case n <= math.MaxUint8:
		return []byte{majorSimple<<5 | 24, byte(n)}, nil
	default:
		return nil, errors.Newf("simple(%d) out of range", n)
	}
}

// encodeString encodes a definite or indefinite length string.
// Indefinite strings carry chunks; an empty chunk list is valid.
func encodeString(major byte, chunks [][]byte, ind indicator) ([]byte, error) {
	if ind == indIndefinite {
		out := []byte{major<<5 | 31}
		for _, chunk := range chunks {
			out, _ = appendHead(out, major, uint64(len(chunk)), indPreferred)
			out = append(out, chunk...)
		}
		return append(out, breakByte), nil
	}
	var content []byte
	for _, chunk := range chunks {
		content = append(content, chunk...)
	}
	out, err := appendHead(nil, major, uint64(len(content)), ind)
	if err != nil {
		return nil, err
	}
	return append(out, content...), nil
}

// encodeContainer encodes an array or map from already encoded items.
// For maps count is the number of pairs.
func encodeContainer(major byte, items [][]byte, count int, ind indicator) ([]byte, error) {
	var out []byte
	if ind == indIndefinite {
		out = []byte{major<<5 | 31}
	} else {
		var err error
		if out, err = appendHead(nil, major, uint64(count), ind); err != nil {
			return nil, err
		}
	}
	for _, item := range items {
		out = append(out, item...)
	}
	if ind == indIndefinite {
		out = append(out, breakByte)
	}
	return out, nil
}
