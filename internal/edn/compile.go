package edn

import "unicode/utf8"

// Options configures a compilation.
type Options struct {
	// SourceLabel names the source in SyntaxError messages.
	SourceLabel string
	// Registry supplies application extensions. May be nil.
	Registry *Registry
}

// Compile translates notation source into the bytes it describes.
// Several top level items compile to a CBOR sequence.
// Errors are *SyntaxError.
func Compile(src []byte, opts Options) ([]byte, error) {
	p := &parser{src: src, label: opts.SourceLabel, registry: opts.Registry}
	if !utf8.Valid(src) {
		return nil, p.errorAt(invalidUTF8Offset(src), "source is not valid UTF-8")
	}
	out, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, p.errorAt(len(src), "no data item in source")
	}
	return out, nil
}

// Compiler binds a registry for repeated compilation.
type Compiler struct {
	registry *Registry
}

// NewCompiler returns a compiler resolving extensions through registry.
func NewCompiler(registry *Registry) *Compiler {
	return &Compiler{registry: registry}
}

// Compile compiles src, labelling errors with label.
func (c *Compiler) Compile(src []byte, label string) ([]byte, error) {
	return Compile(src, Options{SourceLabel: label, Registry: c.registry})
}

// Registry returns the extension registry, which may be nil.
func (c *Compiler) Registry() *Registry {
	return c.registry
}

func invalidUTF8Offset(src []byte) int {
	for i := 0; i < len(src); {
		r, size := utf8.DecodeRune(src[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(src)
}
