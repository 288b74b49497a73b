package harness

// VectorKind is the execution path chosen for a vector.
type VectorKind int

const (
	// KindMalformed vectors are neither failures nor complete round trips.
	KindMalformed VectorKind = iota
	// KindRoundTrip vectors carry both encoded and decoded.
	KindRoundTrip
	// KindFailure vectors must make the codec return errors.
	KindFailure
)

func (k VectorKind) String() string {
	switch k {
	case KindRoundTrip:
		return "roundtrip"
	case KindFailure:
		return "failure"
	default:
		return "malformed"
	}
}

// Classify picks the execution path. docFail is the document level fail
// flag, which applies to every vector.
func Classify(v Vector, docFail bool) VectorKind {
	switch {
	case docFail || v.Fail:
		return KindFailure
	case v.HasEncoded && v.HasDecoded:
		return KindRoundTrip
	default:
		return KindMalformed
	}
}
