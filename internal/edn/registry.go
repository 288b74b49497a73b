package edn

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// Extension resolves an application-extension literal name'payload'.
// Decode returns one complete encoded CBOR data item.
type Extension interface {
	Name() string
	Decode(payload string) ([]byte, error)
}

type funcExtension struct {
	name   string
	decode func(string) ([]byte, error)
}

func (f funcExtension) Name() string                          { return f.name }
func (f funcExtension) Decode(payload string) ([]byte, error) { return f.decode(payload) }

// NewExtension adapts a function to the Extension interface.
func NewExtension(name string, decode func(payload string) ([]byte, error)) Extension {
	return funcExtension{name: name, decode: decode}
}

// builtinPrefixes are byte string literals handled by the compiler itself.
var builtinPrefixes = map[string]bool{
	"h":   true,
	"b64": true,
	"b32": true,
	"h32": true,
}

// Registry is the table of application extensions consulted by the compiler.
// A nil Registry has no extensions.
type Registry struct {
	exts map[string]Extension
}

// NewRegistry creates a registry holding exts.
func NewRegistry(exts ...Extension) (*Registry, error) {
	r := &Registry{exts: make(map[string]Extension)}
	for _, ext := range exts {
		if err := r.Register(ext); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds ext. Names must be lower case identifiers, unique, and
// must not shadow a built-in prefix.
func (r *Registry) Register(ext Extension) error {
	name := ext.Name()
	if !isAppPrefix(name) {
		return errors.Newf("invalid extension name %q", name)
	}
	if builtinPrefixes[name] {
		return errors.Newf("extension name %q is reserved", name)
	}
	if _, exists := r.exts[name]; exists {
		return errors.Newf("extension %q already registered", name)
	}
	r.exts[name] = ext
	return nil
}

// Lookup returns the extension registered under name.
func (r *Registry) Lookup(name string) (Extension, bool) {
	if r == nil {
		return nil, false
	}
	ext, ok := r.exts[name]
	return ext, ok
}

// Names lists registered extension names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.exts))
	for name := range r.exts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// isAppPrefix reports whether s matches [a-z][a-z0-9]*.
func isAppPrefix(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
