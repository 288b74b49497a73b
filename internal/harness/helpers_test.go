package harness

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/vectorcheck/internal/codec"
	"github.com/roach88/vectorcheck/internal/edn"
	"github.com/roach88/vectorcheck/internal/testutil"
)

// decodeEDN compiles src and decodes it the way the runner decodes
// documents.
func decodeEDN(t *testing.T, src string) any {
	t.Helper()
	compiled, err := edn.Compile([]byte(src), edn.Options{SourceLabel: "inline.edn", Registry: DefaultRegistry()})
	require.NoError(t, err)
	v, err := codec.NewCBOR().Decode(compiled, documentOptions)
	require.NoError(t, err)
	return v
}

func parseEDN(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := ParseDocument(decodeEDN(t, src))
	require.NoError(t, err)
	return doc
}

func newCorpus(t *testing.T) *testutil.Corpus {
	t.Helper()
	return testutil.NewCorpus(t, edn.NewCompiler(DefaultRegistry()))
}

func newRunner(t *testing.T, opts Options) *Runner {
	t.Helper()
	if opts.IDs == nil {
		opts.IDs = testutil.NewFixedIDGenerator("run-1")
	}
	r, err := NewRunner(opts)
	require.NoError(t, err)
	return r
}
