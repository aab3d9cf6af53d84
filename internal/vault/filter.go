package vault

import (
	"fmt"
	"path/filepath"

	"github.com/gobwas/glob"

	"github.com/obspack/obspack/internal/errors"
)

// Filter holds compiled include/exclude glob patterns over vault-relative
// paths. Patterns are matched against the slash form of the path.
type Filter struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewFilter compiles the given patterns. Patterns use '/' as the path
// separator regardless of platform.
func NewFilter(include, exclude []string) (*Filter, error) {
	f := &Filter{}

	for _, pattern := range include {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid include pattern %q: %v", pattern, err))
		}
		f.include = append(f.include, g)
	}

	for _, pattern := range exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid exclude pattern %q: %v", pattern, err))
		}
		f.exclude = append(f.exclude, g)
	}

	return f, nil
}

// Match returns true if the vault-relative path passes the filter.
// Exclude patterns take precedence; an empty include list admits
// everything not excluded. A nil filter matches everything.
func (f *Filter) Match(rel string) bool {
	if f == nil {
		return true
	}

	path := filepath.ToSlash(rel)

	for _, pattern := range f.exclude {
		if pattern.Match(path) {
			return false
		}
	}

	if len(f.include) == 0 {
		return true
	}

	for _, pattern := range f.include {
		if pattern.Match(path) {
			return true
		}
	}

	return false
}
