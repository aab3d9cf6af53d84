package source

import (
	"os"
	"unicode/utf8"

	"github.com/obspack/obspack/internal/errors"
)

// ResolveInstructions decides whether value names an existing file.
// If it does, the file's UTF-8 text content is returned; otherwise the
// value itself is treated as literal inline instructions. File wins over
// literal. The existence check is side-effect-free; an empty value stays
// empty.
func ResolveInstructions(value string) (string, error) {
	if value == "" {
		return "", nil
	}

	info, err := os.Stat(value)
	if err != nil || !info.Mode().IsRegular() {
		return value, nil
	}

	data, err := os.ReadFile(value)
	if err != nil {
		return "", errors.NewIO("read instructions file", err)
	}
	if !utf8.Valid(data) {
		return "", errors.NewInvalidEncoding(value)
	}
	return string(data), nil
}
