package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Compiler compiles fixture source; edn.Compiler satisfies it.
type Compiler interface {
	Compile(src []byte, label string) ([]byte, error)
}

// Corpus is a fixture tree in a temporary directory using the .edn and
// .cbor extensions.
type Corpus struct {
	t        *testing.T
	compiler Compiler

	// Root is the corpus directory.
	Root string
}

// NewCorpus creates an empty corpus removed when the test ends.
func NewCorpus(t *testing.T, compiler Compiler) *Corpus {
	t.Helper()
	return &Corpus{t: t, compiler: compiler, Root: t.TempDir()}
}

// Add writes a fixture and its up to date snapshot.
func (c *Corpus) Add(rel, src string) {
	c.t.Helper()
	c.AddSource(rel, src)
	compiled, err := c.compiler.Compile([]byte(src), rel)
	if err != nil {
		c.t.Fatalf("compile %s: %v", rel, err)
	}
	c.WriteFile(SnapshotName(rel), compiled)
}

// AddSource writes a fixture without a snapshot.
func (c *Corpus) AddSource(rel, src string) {
	c.t.Helper()
	c.WriteFile(rel, []byte(src))
}

// WriteFile writes data at rel, creating directories as needed.
func (c *Corpus) WriteFile(rel string, data []byte) {
	c.t.Helper()
	path := c.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		c.t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		c.t.Fatal(err)
	}
}

// ReadFile returns the contents of rel.
func (c *Corpus) ReadFile(rel string) []byte {
	c.t.Helper()
	data, err := os.ReadFile(c.Path(rel))
	if err != nil {
		c.t.Fatal(err)
	}
	return data
}

// Path returns the absolute path of rel.
func (c *Corpus) Path(rel string) string {
	return filepath.Join(c.Root, filepath.FromSlash(rel))
}

// SnapshotName maps a fixture name to its snapshot name.
func SnapshotName(rel string) string {
	return strings.TrimSuffix(rel, ".edn") + ".cbor"
}
