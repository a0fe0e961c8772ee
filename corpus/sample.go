// Package corpus handles the read-only sample corpus and the durable
// per-sample validation registry.
//
// The corpus directory is owned by an external collaborator. The boundary
// contract is: enumerate files matching the configured pattern, read their
// content, never write. Sample identity is the path relative to the corpus
// root, case-sensitive.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/pithecene-io/chisel/types"
)

// DefaultPattern matches RealTest scripts anywhere under the corpus root.
const DefaultPattern = "**/*.rts"

// Sample is one corpus entry: a stable identity plus content read fresh
// each run.
type Sample struct {
	// ID is the path relative to the corpus root.
	ID types.SampleID
	// Content is the raw sample bytes. Never mutated.
	Content []byte
}

// Enumerate lists sample ids under dir matching pattern, in lexical order.
// Pattern uses doublestar glob syntax (e.g. "**/*.rts").
func Enumerate(dir, pattern string) ([]types.SampleID, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("sample directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("sample path %q is not a directory", dir)
	}

	matches, err := doublestar.Glob(os.DirFS(dir), pattern)
	if err != nil {
		return nil, fmt.Errorf("bad sample pattern %q: %w", pattern, err)
	}

	ids := make([]types.SampleID, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, types.SampleID(m))
	}
	sort.Strings(ids)
	return ids, nil
}

// Read loads one sample's content fresh from disk.
func Read(dir string, id types.SampleID) (Sample, error) {
	data, err := os.ReadFile(filepath.Join(dir, string(id)))
	if err != nil {
		return Sample{}, fmt.Errorf("read sample %q: %w", id, err)
	}
	return Sample{ID: id, Content: data}, nil
}

// ReadAll loads the given samples in order.
func ReadAll(dir string, ids []types.SampleID) ([]Sample, error) {
	samples := make([]Sample, 0, len(ids))
	for _, id := range ids {
		s, err := Read(dir, id)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, nil
}
