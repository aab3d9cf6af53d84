// Package vault provides read-only access to a directory tree of
// markdown notes.
package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/obspack/obspack/internal/errors"
)

// Note is a single markdown file inside a vault. Immutable once read.
type Note struct {
	// Path is the vault-relative path of the note.
	Path string

	// Content is the raw text of the note, verbatim.
	Content string
}

// Words returns the whitespace-delimited token count of the note body.
func (n Note) Words() int {
	return len(strings.Fields(n.Content))
}

// Resolve works out the full path to a vault. If ref is itself an existing
// directory it is used directly; otherwise it is joined under defaultRoot.
// A reference that matches neither is a VAULT_NOT_FOUND error.
func Resolve(ref, defaultRoot string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", errors.NewInvalidRequest("vault is required")
	}
	if isDir(ref) {
		return ref, nil
	}
	if defaultRoot != "" {
		if candidate := filepath.Join(defaultRoot, ref); isDir(candidate) {
			return candidate, nil
		}
	}
	return "", errors.NewVaultNotFound(ref)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Vault is a read-only view over a directory of markdown notes.
type Vault struct {
	root string // absolute path to the vault directory
}

// Open creates a Vault rooted at the given directory.
// The directory must already exist.
func Open(root string) (*Vault, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.NewIO("resolve vault root", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.NewIO("stat vault root", err)
	}
	if !info.IsDir() {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("vault root is not a directory: %s", abs))
	}
	return &Vault{root: abs}, nil
}

// Root returns the absolute path of the vault directory.
func (v *Vault) Root() string {
	return v.root
}

// Walk enumerates every *.md file under the vault in traversal order and
// calls fn with each note. Traversal order is filepath.WalkDir order; no
// sorting beyond the walker's per-directory ordering is applied here.
// Notes rejected by filter are skipped. Any read error aborts the walk.
func (v *Vault) Walk(filter *Filter, fn func(Note) error) error {
	err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return errors.NewIO("walk vault", walkErr)
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(v.root, p)
		if relErr != nil {
			return errors.NewInternal(relErr)
		}
		if !filter.Match(rel) {
			return nil
		}
		content, readErr := readText(p, rel)
		if readErr != nil {
			return readErr
		}
		return fn(Note{Path: rel, Content: content})
	})
	return err
}

// Notes collects every matching note in traversal order.
func (v *Vault) Notes(filter *Filter) ([]Note, error) {
	var out []Note
	err := v.Walk(filter, func(n Note) error {
		out = append(out, n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Read returns the content of a single note by vault-relative path.
func (v *Vault) Read(rel string) (string, error) {
	abs, err := v.safePath(rel)
	if err != nil {
		return "", err
	}
	if _, statErr := os.Stat(abs); statErr != nil {
		if os.IsNotExist(statErr) {
			return "", errors.NewNotFound(rel)
		}
		return "", errors.NewIO("stat note", statErr)
	}
	return readText(abs, rel)
}

// safePath resolves a relative path against the vault root and rejects
// any result that escapes it (directory traversal).
func (v *Vault) safePath(rel string) (string, error) {
	if rel == "" {
		return v.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", errors.NewInvalidRequest(fmt.Sprintf("absolute paths not allowed: %s", rel))
	}
	joined := filepath.Join(v.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", errors.NewIO("resolve note path", err)
	}
	if !strings.HasPrefix(abs, v.root+string(os.PathSeparator)) && abs != v.root {
		return "", errors.NewInvalidRequest(fmt.Sprintf("path escapes vault root: %s", rel))
	}
	return abs, nil
}

// readText reads a file and decodes it as UTF-8 text. Content that is not
// valid UTF-8 is a fatal INVALID_ENCODING error, matching the pipeline's
// fail-fast contract.
func readText(abs, rel string) (string, error) {
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", errors.NewIO(fmt.Sprintf("read %s", rel), err)
	}
	if !utf8.Valid(data) {
		return "", errors.NewInvalidEncoding(rel)
	}
	return string(data), nil
}
