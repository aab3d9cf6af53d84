package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obspack/obspack/internal/config"
)

// TestPackWorkflow drives the whole pipeline over a realistic nested vault
// and checks the document structure end to end.
func TestPackWorkflow(t *testing.T) {
	root := newTestVault(t, map[string]string{
		"daily/2024-01-01.md": "First note of the year",
		"daily/2024-01-02.md": "Second note",
		"projects/alpha.md":   "---\ntitle: Alpha\ntags:\n  - project\n---\nAlpha project log",
		"templates/daily.md":  "template boilerplate",
		"inbox.md":            "loose thought",
	})
	cfg := &config.Config{
		VaultRoot:        "/nonexistent",
		WordLimit:        500_000,
		TOCEntryOverhead: config.IntPtr(7),
		TokenEncoding:    "cl100k_base",
		Exclude:          []string{"templates/**"},
	}
	outPath := filepath.Join(t.TempDir(), "vault.md")

	// Estimate first, then pack; the two must agree.
	est, err := Estimate(cfg, EstimateInput{VaultRef: root})
	require.NoError(t, err)

	out, err := Pack(cfg, PackInput{VaultRef: root, OutputPath: outPath})
	require.NoError(t, err)

	assert.Equal(t, est.Words, out.Words)
	assert.Equal(t, 4, out.Notes, "templates/** must be excluded")
	assert.False(t, out.Truncated)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	doc := string(data)

	// Preamble first, then the separator, then note blocks.
	require.True(t, strings.HasPrefix(doc, Preamble))
	sep := strings.Index(doc, "\n---\n")
	require.Greater(t, sep, 0)
	firstNote := strings.Index(doc, "BEGIN SOURCE: daily/2024-01-01.md")
	assert.Greater(t, firstNote, sep)

	// Every included note appears as a marker pair and a TOC bullet.
	for _, rel := range []string{
		"daily/2024-01-01.md", "daily/2024-01-02.md", "projects/alpha.md", "inbox.md",
	} {
		assert.Contains(t, doc, "BEGIN SOURCE: "+rel+"\n")
		assert.Contains(t, doc, "END SOURCE: "+rel+"\n")
		assert.Contains(t, doc, "* "+rel+"\n")
	}
	assert.NotContains(t, doc, "templates/daily.md")

	// Note bodies are verbatim, frontmatter included.
	assert.Contains(t, doc, "---\ntitle: Alpha\ntags:\n  - project\n---\nAlpha project log")

	// TOC is sorted even though body order follows traversal.
	toc := doc[strings.Index(doc, "BEGIN TABLE OF CONTENT"):]
	daily1 := strings.Index(toc, "* daily/2024-01-01.md")
	inbox := strings.Index(toc, "* inbox.md")
	alpha := strings.Index(toc, "* projects/alpha.md")
	require.NotEqual(t, -1, daily1)
	assert.Less(t, daily1, inbox)
	assert.Less(t, inbox, alpha)

	// List agrees with the packed set and surfaces frontmatter.
	listed, err := List(cfg, ListInput{VaultRef: root})
	require.NoError(t, err)
	assert.Equal(t, out.Notes, listed.Count)

	var alphaItem *ListItem
	for i := range listed.Items {
		if listed.Items[i].Path == "projects/alpha.md" {
			alphaItem = &listed.Items[i]
		}
	}
	require.NotNil(t, alphaItem)
	assert.Equal(t, "Alpha", alphaItem.Title)
	assert.Equal(t, []string{"project"}, alphaItem.Tags)
}
