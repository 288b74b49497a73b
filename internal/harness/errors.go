package harness

import (
	"github.com/cockroachdb/errors"

	"github.com/roach88/vectorcheck/internal/config"
)

// Error categories. Use errors.Is to test which one applies.
var (
	// ErrCorpusIntegrity marks fixture authoring problems: duplicate
	// encodings, malformed vectors and documents that violate the schema.
	ErrCorpusIntegrity = errors.New("corpus integrity")

	// ErrSnapshotDrift marks a stored snapshot that no longer matches its
	// fixture source.
	ErrSnapshotDrift = errors.New("snapshot drift")

	// ErrCodec marks an unexpected error returned by the codec.
	ErrCodec = errors.New("codec error")

	// ErrAssertion marks a codec result that differs from the vector.
	ErrAssertion = errors.New("assertion failed")
)

// regenerateHint is attached to snapshot drift errors.
const regenerateHint = "Run with VECTOR_MODE=gen (or --update) to regenerate snapshots"

func integrityErrorf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrCorpusIntegrity)
}

func assertionErrorf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrAssertion)
}

func markIntegrity(err error) error {
	return errors.Mark(err, ErrCorpusIntegrity)
}

// Category names the error category of err: "ok" for nil, then
// "integrity", "drift", "codec", "assertion", "configuration" or "error".
func Category(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCorpusIntegrity):
		return "integrity"
	case errors.Is(err, ErrSnapshotDrift):
		return "drift"
	case errors.Is(err, ErrCodec):
		return "codec"
	case errors.Is(err, ErrAssertion):
		return "assertion"
	case errors.Is(err, config.ErrConfiguration):
		return "configuration"
	default:
		return "error"
	}
}
