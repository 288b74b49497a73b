package harness

import (
	_ "embed"
	"fmt"
	"math"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/cockroachdb/errors"
)

//go:embed schema.cue
var schemaSource string

// documentSchema is compiled once and shared; cue values are not safe for
// concurrent use, so validation holds mu.
var documentSchema = sync.OnceValues(func() (*schemaChecker, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to compile document schema")
	}
	def := v.LookupPath(cue.ParsePath("#Document"))
	if err := def.Err(); err != nil {
		return nil, errors.Wrap(err, "document schema")
	}
	return &schemaChecker{ctx: ctx, def: def}, nil
})

type schemaChecker struct {
	mu  sync.Mutex
	ctx *cue.Context
	def cue.Value
}

// SchemaError lists the schema violations of one document.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return "document does not match schema: " + strings.Join(e.Violations, "; ")
}

// check validates the envelope of doc. Vector "decoded" values are not
// inspected; any value is allowed there.
func (s *schemaChecker) check(doc map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.ctx.Encode(documentView(doc))
	if err := v.Err(); err != nil {
		return &SchemaError{Violations: []string{err.Error()}}
	}
	err := s.def.Unify(v).Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}
	var violations []string
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		path := strings.TrimPrefix(strings.Join(e.Path(), "."), "#Document")
		path = strings.TrimPrefix(path, ".")
		if path != "" {
			msg = path + ": " + msg
		}
		violations = append(violations, msg)
	}
	if len(violations) == 0 {
		violations = []string{err.Error()}
	}
	return &SchemaError{Violations: violations}
}

// documentView converts a decoded document into values cuecontext can
// encode. The "decoded" field of each vector is replaced by true.
func documentView(doc map[string]any) map[string]any {
	view := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == "tests" {
			view[k] = testsView(v)
			continue
		}
		view[k] = cueValue(v)
	}
	return view
}

func testsView(v any) any {
	list, ok := v.([]any)
	if !ok {
		return cueValue(v)
	}
	out := make([]any, len(list))
	for i, elem := range list {
		m, ok := elem.(map[any]any)
		if !ok {
			out[i] = cueValue(elem)
			continue
		}
		vm := make(map[string]any, len(m))
		for k, e := range m {
			key := keyString(k)
			if key == "decoded" {
				vm[key] = true
				continue
			}
			vm[key] = cueValue(e)
		}
		out[i] = vm
	}
	return out
}

// cueValue maps decoded CBOR onto JSON-like values. Types cue cannot
// represent become a descriptive string, which the schema then rejects
// wherever a non-string is expected.
func cueValue(v any) any {
	switch x := v.(type) {
	case nil, bool, string, []byte, uint64, int64:
		return x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Sprintf("<float %v>", x)
		}
		return x
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cueValue(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[keyString(k)] = cueValue(e)
		}
		return out
	default:
		return fmt.Sprintf("<%T>", v)
	}
}

func keyString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprintf("<%T %v>", k, k)
}
