// Package codec defines the codec interface the conformance harness drives
// and the CBOR implementation under test.
//
// The harness never inspects encoded bytes itself. It hands a decoded value
// and a merged option set to Encode, or an encoded byte string and a merged
// option set to Decode, and asserts on the outcome. Option sets come from
// fixture documents, so they arrive as loosely typed maps and are validated
// here before any encode or decode mode is built.
//
// # Option Names
//
// Encode:
//
//	sortKeys     "bytewise" (default) | "lengthFirst" | "none"
//	float64      bool, disables shortest float encoding
//	nanConvert   "preserve" (default) | "7e00" | "none" | "quiet" | "reject"
//	infConvert   "float16" (default) | "none" | "reject"
//	bigInts      "shortest" (default) | "bignum" | "reject"
//	indefLength  "allow" (default) | "forbid"
//	tags         "allow" (default) | "forbid"
//
// Decode:
//
//	keepNanPayloads  bool, false replaces every NaN with the canonical quiet NaN
//	dupMapKey        "allow" (default) | "reject"
//	indefLength      "allow" (default) | "forbid"
//	tags             "allow" (default) | "forbid"
//	utf8             "reject" (default) | "decodeInvalid"
//	nan, inf         "allow" (default) | "forbid"
//	maxNestedLevels  integer in [4, 65535]
package codec
