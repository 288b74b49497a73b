package harness

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// Fixture is one notation source file of the corpus.
type Fixture struct {
	// Path is relative to the corpus root, slash separated.
	Path string

	// Source is the notation text as read from disk.
	Source []byte

	// SnapshotPath is the on-disk location of the binary snapshot.
	SnapshotPath string
}

// FindFixtures returns the paths of all files under root ending in ext,
// relative to root and sorted. A missing root is an error.
func FindFixtures(root, ext string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ext) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan fixtures in %s", root)
	}
	sort.Strings(paths)
	return paths, nil
}

// FilterFixtures keeps the paths whose name matches pattern. Patterns
// without a slash match the file name without extension; patterns with a
// slash match the relative path without extension.
func FilterFixtures(paths []string, pattern, ext string) ([]string, error) {
	if pattern == "" {
		return paths, nil
	}
	var out []string
	for _, p := range paths {
		name := strings.TrimSuffix(p, ext)
		if !strings.Contains(pattern, "/") {
			name = filepath.Base(name)
		}
		matched, err := filepath.Match(pattern, name)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid filter pattern %q", pattern)
		}
		if matched {
			out = append(out, p)
		}
	}
	return out, nil
}

// SnapshotPath swaps the fixture extension for the snapshot extension.
func SnapshotPath(path, ext, snapshotExt string) string {
	return strings.TrimSuffix(path, ext) + snapshotExt
}

// LoadFixture reads the fixture at rel under root.
func LoadFixture(root, rel, ext, snapshotExt string) (*Fixture, error) {
	full := filepath.Join(root, filepath.FromSlash(rel))
	src, err := os.ReadFile(full)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read fixture")
	}
	return &Fixture{
		Path:         rel,
		Source:       src,
		SnapshotPath: SnapshotPath(full, ext, snapshotExt),
	}, nil
}
