package harness

import "github.com/samber/lo"

// SelectVectors applies the "only" focus: when any vector sets only, just
// those vectors run. The second result counts the vectors left out.
func SelectVectors(tests []Vector) ([]Vector, int) {
	if !lo.SomeBy(tests, func(v Vector) bool { return v.Only }) {
		return tests, 0
	}
	focused := lo.Filter(tests, func(v Vector, _ int) bool { return v.Only })
	return focused, len(tests) - len(focused)
}
