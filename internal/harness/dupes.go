package harness

import (
	"encoding/hex"
	"fmt"

	"github.com/cockroachdb/errors"
)

// EncodingRegistry remembers which vector first claimed each encoding.
// One registry spans a whole run so duplicates are found across fixtures.
// It is not safe for concurrent use.
type EncodingRegistry struct {
	places map[string]string
}

// NewEncodingRegistry returns an empty registry.
func NewEncodingRegistry() *EncodingRegistry {
	return &EncodingRegistry{places: make(map[string]string)}
}

// Claim records that place produced encoded. If another place already
// claimed the same bytes, the registry is left unchanged and a
// *DuplicateError is returned.
func (r *EncodingRegistry) Claim(encoded []byte, place string) error {
	key := hex.EncodeToString(encoded)
	if prev, ok := r.places[key]; ok {
		return errors.Mark(&DuplicateError{Hex: key, First: prev, Second: place}, ErrCorpusIntegrity)
	}
	r.places[key] = place
	return nil
}

// Len returns the number of distinct encodings claimed.
func (r *EncodingRegistry) Len() int {
	return len(r.places)
}

// DuplicateError reports two vectors sharing one encoding.
type DuplicateError struct {
	Hex    string
	First  string
	Second string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("Duplicate: %q and %q: h'%s'", e.First, e.Second, e.Hex)
}
