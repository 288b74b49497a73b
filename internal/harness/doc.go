// Package harness runs a corpus of CBOR test vectors against a codec.
//
// A corpus is a directory tree of fixtures written in Extended Diagnostic
// Notation. Each fixture compiles to a document:
//
//	{
//	  "title": "integers",
//	  "encodeOptions": {"sortKeys": "bytewise"},
//	  "tests": [
//	    {"description": "zero", "encoded": h'00', "decoded": 0},
//	    {"description": "truncated", "fail": true, "encoded": h'f9'},
//	  ]
//	}
//
// For every fixture the runner:
//
//  1. compiles the source and reconciles it with the stored snapshot
//     (regenerating it when the mode is gen)
//  2. decodes the compiled bytes into a Document and checks it against the
//     embedded CUE schema
//  3. narrows the vectors to those marked "only", if any are
//  4. claims each vector's encoded bytes in a registry shared by the whole
//     run, so that two vectors can never describe the same encoding
//  5. executes each vector as a round trip, a required failure, or reports
//     it as malformed
//
// A failing vector never stops its siblings. A fixture that cannot be
// compiled, reconciled or decoded reports all of its vectors as not run.
//
// # Go Tests
//
// RunTests wires a corpus into go test, one subtest per fixture and one
// per vector:
//
//	func TestCorpus(t *testing.T) {
//	    harness.RunTests(t, harness.Options{Root: "testdata/vectors"})
//	}
package harness
