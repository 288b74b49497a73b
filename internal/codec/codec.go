package codec

import (
	"fmt"
	"sort"
)

// Codec is a binary codec under test.
// Both directions must return an error on malformed input.
type Codec interface {
	Encode(v any, opts Options) ([]byte, error)
	Decode(data []byte, opts Options) (any, error)
}

// Options configures a single Encode or Decode call.
type Options map[string]any

// Merge returns base overlaid with override. Keys in override win.
// Neither input is modified.
func Merge(base, override Options) Options {
	out := make(Options, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// Names returns the option names in sorted order.
func (o Options) Names() []string {
	names := make([]string, 0, len(o))
	for k := range o {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// OptionError reports an unknown option or an option with a value of the
// wrong type. It is a fixture problem, never an expected codec failure.
type OptionError struct {
	Name    string
	Message string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("option %q: %s", e.Name, e.Message)
}

func (o Options) boolean(name string, def bool) (bool, error) {
	v, ok := o[name]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, &OptionError{Name: name, Message: fmt.Sprintf("expected bool, got %T", v)}
	}
	return b, nil
}

func (o Options) str(name string, def string) (string, error) {
	v, ok := o[name]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &OptionError{Name: name, Message: fmt.Sprintf("expected string, got %T", v)}
	}
	return s, nil
}

// integer reads an integer option that must lie within [lo, hi].
func (o Options) integer(name string, def, lo, hi int) (int, error) {
	v, ok := o[name]
	if !ok {
		return def, nil
	}
	var n int64
	switch val := v.(type) {
	case int:
		n = int64(val)
	case int64:
		n = val
	case uint64:
		if val > uint64(hi) {
			return 0, rangeError(name, fmt.Sprint(val), lo, hi)
		}
		n = int64(val)
	default:
		return 0, &OptionError{Name: name, Message: fmt.Sprintf("expected integer, got %T", v)}
	}
	if n < int64(lo) || n > int64(hi) {
		return 0, rangeError(name, fmt.Sprint(n), lo, hi)
	}
	return int(n), nil
}

func rangeError(name, value string, lo, hi int) *OptionError {
	return &OptionError{Name: name, Message: fmt.Sprintf("value %s out of range [%d, %d]", value, lo, hi)}
}

// choice resolves a string option against a fixed table of accepted values.
func choice[T any](o Options, name, def string, table map[string]T) (T, error) {
	var zero T
	s, err := o.str(name, def)
	if err != nil {
		return zero, err
	}
	v, ok := table[s]
	if !ok {
		accepted := make([]string, 0, len(table))
		for k := range table {
			accepted = append(accepted, k)
		}
		sort.Strings(accepted)
		return zero, &OptionError{Name: name, Message: fmt.Sprintf("unknown value %q, must be one of %v", s, accepted)}
	}
	return v, nil
}

// checkKnown rejects option names outside the accepted set.
func (o Options) checkKnown(known map[string]bool) error {
	for _, name := range o.Names() {
		if !known[name] {
			return &OptionError{Name: name, Message: "unsupported option"}
		}
	}
	return nil
}
