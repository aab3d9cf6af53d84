package source

import (
	"path/filepath"
	"testing"

	"github.com/obspack/obspack/internal/errors"
)

func TestCountWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "whitespace only", text: "  \n\t ", want: 0},
		{name: "two words", text: "Hello world", want: 2},
		{name: "mixed whitespace", text: "one\ttwo\nthree  four", want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountWords(tt.text); got != tt.want {
				t.Errorf("CountWords(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestEstimate_MatchesPackWords(t *testing.T) {
	root := newTestVault(t, map[string]string{
		"a.md":     "one two three",
		"sub/c.md": "four five",
	})
	cfg := testConfig("/nonexistent")

	est, err := Estimate(cfg, EstimateInput{VaultRef: root})
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	outPath := filepath.Join(t.TempDir(), "out.md")
	packed, err := Pack(cfg, PackInput{VaultRef: root, OutputPath: outPath})
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	if est.Words != packed.Words {
		t.Errorf("Estimate words = %d, Pack words = %d; want equal", est.Words, packed.Words)
	}
	if est.Notes != packed.Notes {
		t.Errorf("Estimate notes = %d, Pack notes = %d; want equal", est.Notes, packed.Notes)
	}
}

func TestEstimate_IncludesInstructionTexts(t *testing.T) {
	root := newTestVault(t, map[string]string{"a.md": "one two"})
	cfg := testConfig("/nonexistent")

	base, err := Estimate(cfg, EstimateInput{VaultRef: root})
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	withExtra, err := Estimate(cfg, EstimateInput{
		VaultRef:               root,
		AdditionalInstructions: "three more words here",
	})
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	if withExtra.Words != base.Words+4 {
		t.Errorf("Words = %d, want %d (+4 supplement words)", withExtra.Words, base.Words+4)
	}
}

func TestEstimate_TruncationFlag(t *testing.T) {
	root := newTestVault(t, map[string]string{"a.md": "one two three four five"})
	cfg := testConfig("/nonexistent")
	cfg.WordLimit = 10

	est, err := Estimate(cfg, EstimateInput{VaultRef: root})
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	if !est.Truncated {
		t.Errorf("Truncated = false, want true (words=%d, limit=%d)", est.Words, cfg.WordLimit)
	}
	if est.PercentOfLimit <= 100 {
		t.Errorf("PercentOfLimit = %f, want > 100", est.PercentOfLimit)
	}
}

func TestEstimate_TokensExactReported(t *testing.T) {
	root := newTestVault(t, map[string]string{"a.md": "one two"})

	cfg := testConfig("/nonexistent")
	cfg.TokenEncoding = "no-such-encoding"

	est, err := Estimate(cfg, EstimateInput{VaultRef: root})
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if est.TokensExact {
		t.Error("TokensExact = true for an unloadable encoding, want heuristic flagged false")
	}

	// With the configured encoding, the flag must track whatever the
	// tokenizer actually managed to load.
	cfg = testConfig("/nonexistent")
	est, err = Estimate(cfg, EstimateInput{VaultRef: root})
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if want := NewTokenizer(cfg.TokenEncoding).Exact(); est.TokensExact != want {
		t.Errorf("TokensExact = %v, want %v", est.TokensExact, want)
	}
}

func TestEstimate_VaultNotFound(t *testing.T) {
	_, err := Estimate(testConfig(t.TempDir()), EstimateInput{VaultRef: "no-such-vault"})
	if !errors.Is(err, errors.ErrVaultNotFound) {
		t.Fatalf("err = %v, want VAULT_NOT_FOUND", err)
	}
}

func TestPercentOfLimit(t *testing.T) {
	if got := percentOfLimit(5_000, 500_000); got != 1.0 {
		t.Errorf("percentOfLimit = %f, want 1.0", got)
	}
	if got := percentOfLimit(10, 0); got != 0 {
		t.Errorf("percentOfLimit with zero limit = %f, want 0", got)
	}
}
