package source

import (
	"testing"

	"github.com/obspack/obspack/internal/errors"
)

func TestList_SortedWithFrontmatter(t *testing.T) {
	root := newTestVault(t, map[string]string{
		"zebra.md": "plain note body",
		"alpha.md": "---\ntitle: Alpha Note\ntags:\n  - daily\n  - log\n---\nbody text",
	})

	out, err := List(testConfig("/nonexistent"), ListInput{VaultRef: root})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if out.Count != 2 {
		t.Fatalf("Count = %d, want 2", out.Count)
	}
	if out.Items[0].Path != "alpha.md" || out.Items[1].Path != "zebra.md" {
		t.Errorf("items not sorted by path: %q, %q", out.Items[0].Path, out.Items[1].Path)
	}

	alpha := out.Items[0]
	if alpha.Title != "Alpha Note" {
		t.Errorf("Title = %q, want %q", alpha.Title, "Alpha Note")
	}
	if len(alpha.Tags) != 2 || alpha.Tags[0] != "daily" || alpha.Tags[1] != "log" {
		t.Errorf("Tags = %v, want [daily log]", alpha.Tags)
	}

	zebra := out.Items[1]
	if zebra.Title != "" || len(zebra.Tags) != 0 {
		t.Errorf("plain note picked up metadata: title=%q tags=%v", zebra.Title, zebra.Tags)
	}
	if zebra.Words != 3 {
		t.Errorf("Words = %d, want 3", zebra.Words)
	}
}

func TestList_MalformedFrontmatterNotFatal(t *testing.T) {
	root := newTestVault(t, map[string]string{
		"broken.md": "---\ntitle: [unclosed\n---\nbody",
	})

	out, err := List(testConfig("/nonexistent"), ListInput{VaultRef: root})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if out.Count != 1 {
		t.Fatalf("Count = %d, want 1", out.Count)
	}
	if out.Items[0].Title != "" {
		t.Errorf("Title = %q, want empty for malformed frontmatter", out.Items[0].Title)
	}
}

func TestList_ExcludePattern(t *testing.T) {
	root := newTestVault(t, map[string]string{
		"keep.md":           "kept",
		"templates/skip.md": "skipped",
	})

	out, err := List(testConfig("/nonexistent"), ListInput{
		VaultRef: root,
		Exclude:  []string{"templates/**"},
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if out.Count != 1 || out.Items[0].Path != "keep.md" {
		t.Fatalf("items = %+v, want only keep.md", out.Items)
	}
}

func TestList_VaultNotFound(t *testing.T) {
	_, err := List(testConfig(t.TempDir()), ListInput{VaultRef: "missing"})
	if !errors.Is(err, errors.ErrVaultNotFound) {
		t.Fatalf("err = %v, want VAULT_NOT_FOUND", err)
	}
}
