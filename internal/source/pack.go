package source

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/obspack/obspack/internal/config"
	"github.com/obspack/obspack/internal/errors"
	"github.com/obspack/obspack/internal/vault"
)

// PackInput contains parameters for the Pack operation.
type PackInput struct {
	VaultRef               string // required: vault directory path or name under the default root
	OutputPath             string // optional: defaults to <vault base name>.md in the working directory
	Instructions           string // optional: literal text or path; replaces the built-in preamble
	AdditionalInstructions string // optional: literal text or path; appended under ADDITIONAL RULES
	Include                []string
	Exclude                []string
}

// PackOutput contains the result of the Pack operation.
type PackOutput struct {
	Vault          string   `json:"vault"`
	Path           string   `json:"path"`
	Notes          int      `json:"notes"`
	Words          int      `json:"words"`
	TokensEstimate int      `json:"tokens_estimate"`
	TokensExact    bool     `json:"tokens_exact"`
	WordLimit      int      `json:"word_limit"`
	PercentOfLimit float64  `json:"percent_of_limit"`
	Truncated      bool     `json:"truncated"`
	TOC            []string `json:"toc"`
}

// ResolveOutputPath works out the path of the output document: an explicit
// path is used verbatim, otherwise the vault reference's final path
// component with a .md extension, in the working directory.
func ResolveOutputPath(vaultRef, explicit string) string {
	if explicit != "" {
		return explicit
	}
	base := filepath.Base(filepath.Clean(vaultRef))
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".md"
}

// Pack writes the output document: effective preamble, optional additional
// rules, separator, one begin/body/end triple per note in traversal order,
// and a lexicographically sorted table of contents. Note bodies are copied
// verbatim. Any filesystem error aborts the run; a partially written output
// file may be left behind (there is no partial-success mode).
func Pack(cfg *config.Config, input PackInput) (*PackOutput, error) {
	root, err := vault.Resolve(input.VaultRef, cfg.VaultRoot)
	if err != nil {
		return nil, err
	}
	outPath := ResolveOutputPath(input.VaultRef, input.OutputPath)

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

	file, err := os.Create(outPath)
	if err != nil {
		return nil, errors.NewIO("create output file", err)
	}
	// The handle is released on every exit path; a mid-write failure still
	// closes the file and leaves whatever was flushed.
	defer file.Close()

	w := bufio.NewWriter(file)
	tok := NewTokenizer(cfg.TokenEncoding)

	words := CountWords(preamble) + CountWords(supplement)
	tokens := tok.Count(preamble) + tok.Count(supplement)

	writeBlock(w, preamble)
	w.WriteString("\n")
	if supplement != "" {
		w.WriteString(additionalRulesHeading + "\n\n")
		writeBlock(w, supplement)
		w.WriteString("\n")
	}
	w.WriteString(sectionSeparator + "\n\n")

	var toc []string
	err = v.Walk(filter, func(n vault.Note) error {
		toc = append(toc, n.Path)
		words += n.Words()
		tokens += tok.Count(n.Content)

		w.WriteString(beginSourceMarker + n.Path + "\n\n")
		w.WriteString(n.Content)
		w.WriteString("\n\n" + endSourceMarker + n.Path + "\n\n")
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The TOC is the only place any ordering transformation is applied;
	// note bodies above stay in traversal order.
	sorted := make([]string, len(toc))
	copy(sorted, toc)
	sort.Strings(sorted)

	w.WriteString("\n\n" + beginTOCMarker + "\n\n")
	for _, entry := range sorted {
		w.WriteString("* " + entry + "\n")
	}
	w.WriteString("\n\n" + endTOCMarker + "\n\n")

	if err := w.Flush(); err != nil {
		return nil, errors.NewIO("write output file", err)
	}
	if err := file.Close(); err != nil {
		return nil, errors.NewIO("close output file", err)
	}

	words += cfg.TOCOverhead() * len(toc)

	return &PackOutput{
		Vault:          root,
		Path:           outPath,
		Notes:          len(toc),
		Words:          words,
		TokensEstimate: tokens,
		TokensExact:    tok.Exact(),
		WordLimit:      cfg.WordLimit,
		PercentOfLimit: percentOfLimit(words, cfg.WordLimit),
		Truncated:      words > cfg.WordLimit,
		TOC:            sorted,
	}, nil
}

// writeBlock writes text ensuring it ends with exactly one newline.
func writeBlock(w *bufio.Writer, text string) {
	w.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		w.WriteString("\n")
	}
}
