package harness

import (
	"fmt"
	"math"
	"math/big"

	"github.com/google/go-cmp/cmp"
)

// valueOptions make decoded values comparable. Floats compare by bit
// pattern so NaN payloads and signed zeros must match exactly.
var valueOptions = cmp.Options{
	cmp.Comparer(func(a, b float64) bool {
		return math.Float64bits(a) == math.Float64bits(b)
	}),
	cmp.Comparer(func(a, b float32) bool {
		return math.Float32bits(a) == math.Float32bits(b)
	}),
	bigIntOptions,
}

// diffOptions compare floats the same way but show their bit patterns,
// otherwise two different NaNs both print as NaN.
var diffOptions = cmp.Options{
	cmp.Transformer("bits64", func(f float64) floatBits {
		return floatBits{Value: fmt.Sprint(f), Bits: fmt.Sprintf("0x%016x", math.Float64bits(f))}
	}),
	cmp.Transformer("bits32", func(f float32) floatBits {
		return floatBits{Value: fmt.Sprint(f), Bits: fmt.Sprintf("0x%08x", math.Float32bits(f))}
	}),
	bigIntOptions,
}

type floatBits struct {
	Value string
	Bits  string
}

var bigIntOptions = cmp.Options{
	cmp.Comparer(func(a, b big.Int) bool {
		return a.Cmp(&b) == 0
	}),
	cmp.Comparer(func(a, b *big.Int) bool {
		if a == nil || b == nil {
			return a == b
		}
		return a.Cmp(b) == 0
	}),
}

// ValuesEqual reports whether two decoded values are structurally equal.
func ValuesEqual(got, want any) bool {
	return cmp.Equal(got, want, valueOptions)
}

// ValuesDiff describes how got differs from want, in cmp.Diff form.
// Floats are shown with their bit patterns.
func ValuesDiff(got, want any) string {
	return cmp.Diff(want, got, diffOptions)
}
