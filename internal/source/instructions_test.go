package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/obspack/obspack/internal/errors"
)

func TestResolveInstructions_Empty(t *testing.T) {
	text, err := ResolveInstructions("")
	if err != nil {
		t.Fatalf("ResolveInstructions failed: %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
}

func TestResolveInstructions_FileWinsOverLiteral(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "rules.txt")
	if err := os.WriteFile(path, []byte("Follow these rules."), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	text, err := ResolveInstructions(path)
	if err != nil {
		t.Fatalf("ResolveInstructions failed: %v", err)
	}
	if text != "Follow these rules." {
		t.Errorf("text = %q, want file contents", text)
	}
}

func TestResolveInstructions_LiteralFallback(t *testing.T) {
	literal := "Cite everything twice."

	text, err := ResolveInstructions(literal)
	if err != nil {
		t.Fatalf("ResolveInstructions failed: %v", err)
	}
	if text != literal {
		t.Errorf("text = %q, want literal %q", text, literal)
	}
}

func TestResolveInstructions_NonexistentPathIsLiteral(t *testing.T) {
	value := filepath.Join(t.TempDir(), "missing.txt")

	text, err := ResolveInstructions(value)
	if err != nil {
		t.Fatalf("ResolveInstructions failed: %v", err)
	}
	if text != value {
		t.Errorf("text = %q, want the path itself as literal", text)
	}
}

func TestResolveInstructions_DirectoryIsLiteral(t *testing.T) {
	dir := t.TempDir()

	text, err := ResolveInstructions(dir)
	if err != nil {
		t.Fatalf("ResolveInstructions failed: %v", err)
	}
	if text != dir {
		t.Errorf("text = %q, want the directory path as literal", text)
	}
}

func TestResolveInstructions_InvalidUTF8(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "binary.txt")
	if err := os.WriteFile(path, []byte{0xff, 0xfe}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := ResolveInstructions(path)
	if !errors.Is(err, errors.ErrInvalidEncoding) {
		t.Fatalf("err = %v, want INVALID_ENCODING", err)
	}
}
