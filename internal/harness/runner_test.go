package harness

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vectorcheck/internal/codec"
	"github.com/roach88/vectorcheck/internal/config"
	"github.com/roach88/vectorcheck/internal/testutil"
)

const intsFixture = `{
	"title": "ints",
	"tests": [
		{"description": "zero", "encoded": h'00', "decoded": 0},
		{"description": "bad float", "fail": true, "encoded": h'f9'},
	]
}`

func TestRun_Passing(t *testing.T) {
	c := newCorpus(t)
	c.Add("ints.edn", intsFixture)

	r := newRunner(t, Options{Root: c.Root})
	result, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, config.ModeVerify, result.Mode)
	assert.Equal(t, c.Root, result.Root)
	require.Len(t, result.Fixtures, 1)

	fr := result.Fixtures[0]
	assert.Equal(t, "ints.edn", fr.Path)
	assert.Equal(t, "ints", fr.Title)
	require.NoError(t, fr.Err)
	require.Len(t, fr.Vectors, 2)
	assert.Equal(t, "ints - zero", fr.Vectors[0].Place)
	assert.Equal(t, KindRoundTrip, fr.Vectors[0].Kind)
	assert.Equal(t, KindFailure, fr.Vectors[1].Kind)

	assert.True(t, result.Pass())
	passed, failed, broken, skipped := result.Counts()
	assert.Equal(t, []int{2, 0, 0, 0}, []int{passed, failed, broken, skipped})
}

func TestRun_DuplicateAcrossFixtures(t *testing.T) {
	c := newCorpus(t)
	c.Add("a.edn", `{"title": "first", "tests": [{"description": "one", "encoded": h'01', "decoded": 1}]}`)
	c.Add("b.edn", `{"title": "second", "tests": [
		{"description": "uno", "encoded": h'01', "decoded": 1},
		{"description": "two", "encoded": h'02', "decoded": 2},
	]}`)

	result, err := newRunner(t, Options{Root: c.Root}).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Fixtures, 2)
	assert.True(t, result.Fixtures[0].Pass())

	second := result.Fixtures[1]
	require.Len(t, second.Vectors, 2)
	dupErr := second.Vectors[0].Err
	require.Error(t, dupErr)
	assert.Contains(t, dupErr.Error(), `"first - one"`)
	assert.Contains(t, dupErr.Error(), `"second - uno"`)

	// a failing vector does not stop its siblings
	assert.NoError(t, second.Vectors[1].Err)
	assert.False(t, result.Pass())
}

func TestRun_FreshRegistryPerRun(t *testing.T) {
	c := newCorpus(t)
	c.Add("a.edn", intsFixture)

	r := newRunner(t, Options{Root: c.Root})
	for i := 0; i < 2; i++ {
		result, err := r.Run(context.Background())
		require.NoError(t, err)
		assert.True(t, result.Pass(), "run %d", i)
	}
}

func TestRun_OnlyIsPerFixture(t *testing.T) {
	c := newCorpus(t)
	c.Add("a.edn", `{"title": "a", "tests": [
		{"description": "skipped", "encoded": h'1801', "decoded": 1},
		{"description": "focused", "only": true, "encoded": h'02', "decoded": 2},
	]}`)
	c.Add("b.edn", `{"title": "b", "tests": [
		{"description": "runs", "encoded": h'03', "decoded": 3},
		{"description": "also runs", "encoded": h'04', "decoded": 4},
	]}`)

	result, err := newRunner(t, Options{Root: c.Root}).Run(context.Background())
	require.NoError(t, err)

	a, b := result.Fixtures[0], result.Fixtures[1]
	require.Len(t, a.Vectors, 1)
	assert.Equal(t, "focused", a.Vectors[0].Description)
	assert.Equal(t, 1, a.Skipped)
	assert.Len(t, b.Vectors, 2)
	assert.Zero(t, b.Skipped)
	assert.True(t, result.Pass())
}

func TestRun_FixtureErrorsAreIsolated(t *testing.T) {
	c := newCorpus(t)
	c.Add("good.edn", intsFixture)
	c.AddSource("missing-snapshot.edn", `{"tests": []}`)
	c.Add("no-tests.edn", `{"title": "x"}`)
	c.Add("stale.edn", `{"tests": [{"description": "a", "encoded": h'05', "decoded": 5}]}`)
	c.WriteFile("stale.cbor", []byte{0xa0})
	c.AddSource("syntax.edn", `{"tests": [`)

	result, err := newRunner(t, Options{Root: c.Root}).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Fixtures, 5)

	byPath := make(map[string]FixtureResult)
	for _, fr := range result.Fixtures {
		byPath[fr.Path] = fr
	}

	assert.True(t, byPath["good.edn"].Pass())
	assert.True(t, errors.Is(byPath["missing-snapshot.edn"].Err, ErrSnapshotDrift))
	assert.True(t, errors.Is(byPath["no-tests.edn"].Err, ErrCorpusIntegrity))
	assert.True(t, errors.Is(byPath["stale.edn"].Err, ErrSnapshotDrift))
	assert.Contains(t, byPath["syntax.edn"].Err.Error(), "syntax.edn:")
	assert.Empty(t, byPath["stale.edn"].Vectors)

	_, _, broken, _ := result.Counts()
	assert.Equal(t, 4, broken)
}

func TestRun_GenerateMode(t *testing.T) {
	c := newCorpus(t)
	c.AddSource("ints.edn", intsFixture)
	c.AddSource("sub/more.edn", `{"title": "more", "tests": [{"description": "one", "encoded": h'01', "decoded": 1}]}`)

	gen := newRunner(t, Options{Root: c.Root, Mode: config.ModeGenerate})
	result, err := gen.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, config.ModeGenerate, result.Mode)
	assert.True(t, result.Pass())
	assert.NotEmpty(t, c.ReadFile("ints.cbor"))
	assert.NotEmpty(t, c.ReadFile("sub/more.cbor"))

	verify := newRunner(t, Options{Root: c.Root})
	result, err = verify.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Pass())
}

func TestRun_Filter(t *testing.T) {
	c := newCorpus(t)
	c.Add("ints.edn", intsFixture)
	c.Add("floats.edn", `{"title": "floats", "tests": [{"description": "one", "encoded": h'f93c00', "decoded": 1.0}]}`)

	result, err := newRunner(t, Options{Root: c.Root, Filter: "flo*"}).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Fixtures, 1)
	assert.Equal(t, "floats.edn", result.Fixtures[0].Path)
}

func TestRun_UntitledFixtureUsesPath(t *testing.T) {
	c := newCorpus(t)
	c.Add("meta.edn", `{"meta": {"version": 1}, "tests": [{"description": "one", "encoded": h'01', "decoded": 1}]}`)

	result, err := newRunner(t, Options{Root: c.Root}).Run(context.Background())
	require.NoError(t, err)

	fr := result.Fixtures[0]
	assert.Equal(t, "meta.edn", fr.Label())
	assert.Equal(t, map[string]any{"version": uint64(1)}, fr.Meta)
	assert.Equal(t, "meta.edn - one", fr.Vectors[0].Place)
}

func TestRun_CorpusDefaultOptions(t *testing.T) {
	c := newCorpus(t)
	c.Add("a.edn", `{"title": "a", "tests": [{"description": "dup", "fail": true, "encoded": h'a2616101616102'}]}`)

	result, err := newRunner(t, Options{
		Root:          c.Root,
		DecodeOptions: codec.Options{"dupMapKey": "reject"},
	}).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Pass())
}

func TestRun_Canceled(t *testing.T) {
	c := newCorpus(t)
	c.Add("ints.edn", intsFixture)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newRunner(t, Options{Root: c.Root}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Empty(t, result.Fixtures)
}

func TestRun_MissingRoot(t *testing.T) {
	r := newRunner(t, Options{Root: t.TempDir() + "/nope"})
	_, err := r.Run(context.Background())
	assert.Error(t, err)
}

func TestRun_Logging(t *testing.T) {
	c := newCorpus(t)
	c.Add("ints.edn", intsFixture)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	_, err := newRunner(t, Options{Root: c.Root, Logger: logger}).Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "starting run")
	assert.Contains(t, buf.String(), "run complete")
	assert.Contains(t, buf.String(), "fixture done")
}

func TestValidate_ChecksWithoutExecuting(t *testing.T) {
	c := newCorpus(t)
	c.Add("a.edn", `{"title": "a", "tests": [
		{"description": "wrong but unchecked", "encoded": h'1801', "decoded": 1},
		{"description": "malformed", "encoded": h'02'},
		{"description": "dup", "encoded": h'1801', "decoded": 1},
	]}`)

	result, err := newRunner(t, Options{Root: c.Root}).Validate(context.Background())
	require.NoError(t, err)

	vectors := result.Fixtures[0].Vectors
	require.Len(t, vectors, 3)
	assert.NoError(t, vectors[0].Err)
	assert.True(t, errors.Is(vectors[1].Err, ErrCorpusIntegrity))
	var dup *DuplicateError
	assert.True(t, errors.As(vectors[2].Err, &dup))
}

func TestValidate_NeverWritesSnapshots(t *testing.T) {
	c := newCorpus(t)
	c.AddSource("a.edn", intsFixture)

	result, err := newRunner(t, Options{Root: c.Root, Mode: config.ModeGenerate}).Validate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, config.ModeVerify, result.Mode)
	assert.True(t, errors.Is(result.Fixtures[0].Err, ErrSnapshotDrift))
}

func TestNewRunner_Errors(t *testing.T) {
	_, err := NewRunner(Options{})
	assert.True(t, errors.Is(err, config.ErrConfiguration))

	_, err = NewRunner(Options{Root: "x", Extension: ".a", SnapshotExtension: ".a"})
	assert.True(t, errors.Is(err, config.ErrConfiguration))

	_, err = NewRunner(Options{Root: "x", Mode: "later"})
	assert.True(t, errors.Is(err, config.ErrConfiguration))
}

func TestNewRunner_UsesSequenceIDs(t *testing.T) {
	c := newCorpus(t)
	c.Add("ints.edn", intsFixture)

	r := newRunner(t, Options{Root: c.Root, IDs: testutil.NewSequenceIDGenerator("run")})
	first, err := r.Run(context.Background())
	require.NoError(t, err)
	second, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-1", first.RunID)
	assert.Equal(t, "run-2", second.RunID)
}

func TestUUIDv7Generator(t *testing.T) {
	id := UUIDv7Generator{}.Generate()
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, UUIDv7Generator{}.Generate())
}
