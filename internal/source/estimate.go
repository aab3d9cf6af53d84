package source

import (
	"strings"

	"github.com/obspack/obspack/internal/config"
	"github.com/obspack/obspack/internal/vault"
)

// CountWords returns the whitespace-delimited token count of text.
// This is the heuristic the word-limit estimate is built on; it makes no
// attempt at language-aware tokenization.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// EstimateInput contains parameters for the Estimate operation.
type EstimateInput struct {
	VaultRef               string
	Instructions           string // optional: literal text or path; replaces the built-in preamble
	AdditionalInstructions string // optional: literal text or path
	Include                []string
	Exclude                []string
}

// EstimateOutput contains the result of the Estimate operation.
type EstimateOutput struct {
	Vault          string  `json:"vault"`
	Notes          int     `json:"notes"`
	Words          int     `json:"words"`
	TokensEstimate int     `json:"tokens_estimate"`
	TokensExact    bool    `json:"tokens_exact"`
	WordLimit      int     `json:"word_limit"`
	PercentOfLimit float64 `json:"percent_of_limit"`
	Truncated      bool    `json:"truncated"`
}

// Estimate performs the sizing pass of the pipeline without writing any
// output: word estimate per the pack contract plus a model-token estimate.
func Estimate(cfg *config.Config, input EstimateInput) (*EstimateOutput, error) {
	root, err := vault.Resolve(input.VaultRef, cfg.VaultRoot)
	if err != nil {
		return nil, err
	}

	preamble, supplement, err := resolveTexts(input.Instructions, input.AdditionalInstructions)
	if err != nil {
		return nil, err
	}

	filter, err := vault.NewFilter(
		append(append([]string{}, cfg.Include...), input.Include...),
		append(append([]string{}, cfg.Exclude...), input.Exclude...),
	)
	if err != nil {
		return nil, err
	}

	v, err := vault.Open(root)
	if err != nil {
		return nil, err
	}

	tok := NewTokenizer(cfg.TokenEncoding)

	words := CountWords(preamble) + CountWords(supplement)
	tokens := tok.Count(preamble) + tok.Count(supplement)
	notes := 0
	err = v.Walk(filter, func(n vault.Note) error {
		words += n.Words()
		tokens += tok.Count(n.Content)
		notes++
		return nil
	})
	if err != nil {
		return nil, err
	}

	words += cfg.TOCOverhead() * notes

	return &EstimateOutput{
		Vault:          root,
		Notes:          notes,
		Words:          words,
		TokensEstimate: tokens,
		TokensExact:    tok.Exact(),
		WordLimit:      cfg.WordLimit,
		PercentOfLimit: percentOfLimit(words, cfg.WordLimit),
		Truncated:      words > cfg.WordLimit,
	}, nil
}

// resolveTexts resolves the effective preamble and supplement for a run.
// An empty instructions value falls back to the built-in preamble; the
// supplement defaults to empty.
func resolveTexts(instructions, additional string) (preamble, supplement string, err error) {
	preamble = Preamble
	if instructions != "" {
		preamble, err = ResolveInstructions(instructions)
		if err != nil {
			return "", "", err
		}
	}
	supplement, err = ResolveInstructions(additional)
	if err != nil {
		return "", "", err
	}
	return preamble, supplement, nil
}

// percentOfLimit returns words as a percentage of limit.
func percentOfLimit(words, limit int) float64 {
	if limit <= 0 {
		return 0
	}
	return float64(words) / float64(limit) * 100
}
