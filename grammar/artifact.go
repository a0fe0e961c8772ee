// Package grammar models the grammar artifact: the declarative rule set
// under iterative development, versioned by content.
//
// The artifact is an opaque text blob to everything except the parse
// adapter. Its content hash is the fingerprint recorded against every
// validation result, so results computed under a stale grammar are
// detectable.
package grammar

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact is a loaded grammar artifact.
type Artifact struct {
	// Name is the artifact's base file name, used in diagnostics.
	Name string
	// Text is the grammar description text.
	Text string
	// Fingerprint is the hex-encoded SHA-256 of Text.
	Fingerprint string
}

// Load reads the grammar artifact fresh from disk.
// It is called once per run; results are never cached across runs, so a
// grammar edit between runs is always picked up.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("grammar artifact not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read grammar artifact %q: %w", path, err)
	}
	return New(filepath.Base(path), string(data)), nil
}

// New builds an artifact from in-memory grammar text.
func New(name, text string) *Artifact {
	sum := sha256.Sum256([]byte(text))
	return &Artifact{
		Name:        name,
		Text:        text,
		Fingerprint: hex.EncodeToString(sum[:]),
	}
}
