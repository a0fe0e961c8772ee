package grammar

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_FingerprintIsContentHash(t *testing.T) {
	a := New("g.llx", "script = {line};")
	b := New("other-name.llx", "script = {line};")
	c := New("g.llx", "script = {line}, $eof;")

	if a.Fingerprint == "" {
		t.Fatal("expected non-empty fingerprint")
	}
	if a.Fingerprint != b.Fingerprint {
		t.Errorf("fingerprint depends on name: %q vs %q", a.Fingerprint, b.Fingerprint)
	}
	if a.Fingerprint == c.Fingerprint {
		t.Error("different grammar text produced identical fingerprints")
	}
	if len(a.Fingerprint) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(a.Fingerprint))
	}
}

func TestLoad_ReadsFreshContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lang.llx")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if a.Name != "lang.llx" {
		t.Errorf("Name = %q, want %q", a.Name, "lang.llx")
	}

	// An edit between runs must produce a new fingerprint.
	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := Load(path)
	if err != nil {
		t.Fatalf("Load after edit failed: %v", err)
	}
	if a.Fingerprint == b.Fingerprint {
		t.Error("edited artifact kept stale fingerprint")
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.llx"))
	if err == nil {
		t.Fatal("expected error for missing artifact")
	}
}
