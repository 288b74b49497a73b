package cli

import (
	"bytes"
	"testing"

	"github.com/roach88/vectorcheck/internal/config"
	"github.com/roach88/vectorcheck/internal/edn"
	"github.com/roach88/vectorcheck/internal/harness"
	"github.com/roach88/vectorcheck/internal/testutil"
)

const passingFixture = `{
	"title": "ints",
	"tests": [
		{"description": "zero", "encoded": h'00', "decoded": 0},
		{"description": "bad float", "fail": true, "encoded": h'f9'},
	]
}`

const failingFixture = `{
	"title": "wrong",
	"tests": [
		{"description": "not preferred", "encoded": h'1801', "decoded": 1},
	]
}`

// execute runs the root command with args and VECTOR_MODE cleared.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv(config.ModeEnv, "")

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func newCorpus(t *testing.T) *testutil.Corpus {
	t.Helper()
	return testutil.NewCorpus(t, edn.NewCompiler(harness.DefaultRegistry()))
}
