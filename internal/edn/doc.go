// Package edn compiles CBOR Extended Diagnostic Notation into CBOR.
//
// Fixtures are written in EDN so that humans can review them; the compiler
// turns a fixture into the exact bytes it describes. Nothing is normalised:
// map keys keep their written order, duplicate keys are kept, and encoding
// indicators select non-preferred argument widths.
//
// # Supported Notation
//
//	1, -1, 0x1f, 0o17, 0b101        integers; beyond 64 bits become bignums
//	1.5, 1e3, 0x1p-2, NaN, -Infinity floats in preferred (shortest exact) form
//	"text", 'bytes', h'00ff'         strings; b64'', b32'', h32'' also accepted
//	"a" + "b"                        concatenation of strings of one kind
//	[1, 2], {1: 2}                   arrays and maps, commas optional
//	[_ 1], {_ 1: 2}, (_ "a", "b")    indefinite length containers and strings
//	1_0, "a"_1, [_2 1], 24_0(h'')    encoding indicators _i _0 _1 _2 _3
//	1.5_3                            float width indicators _1 _2 _3
//	32("http://x"), simple(16)       tags and simple values
//	<<1, 2>>                         embedded CBOR sequence in a byte string
//	/ comment /, # comment           comments
//
// Application-extension literals of the form name'payload' are resolved
// through a Registry. The prefixes h, b64, b32 and h32 are built in and
// cannot be registered.
package edn
