package source

import (
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer estimates model token counts for sizing output against an
// ingestion budget. When the named tiktoken encoding cannot be loaded
// (offline environments), a runes/4 heuristic stands in.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTokenizer creates a Tokenizer for the given encoding name.
// Load failure is not an error; the heuristic fallback takes over.
func NewTokenizer(encoding string) *Tokenizer {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return &Tokenizer{}
	}
	return &Tokenizer{enc: enc}
}

// Count returns the estimated token count of text.
func (t *Tokenizer) Count(text string) int {
	if text == "" {
		return 0
	}
	if t.enc != nil {
		return len(t.enc.Encode(text, nil, nil))
	}
	est := utf8.RuneCountInString(text) / 4
	if est == 0 {
		est = 1
	}
	return est
}

// Exact reports whether counts come from a real encoding rather than the
// heuristic.
func (t *Tokenizer) Exact() bool {
	return t.enc != nil
}
