package source

import (
	"sort"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/obspack/obspack/internal/config"
	"github.com/obspack/obspack/internal/vault"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	VaultRef string
	Include  []string
	Exclude  []string
}

// ListItem describes a single note without its body.
type ListItem struct {
	Path  string   `json:"path"`
	Words int      `json:"words"`
	Title string   `json:"title,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Vault string     `json:"vault"`
	Count int        `json:"count"`
	Items []ListItem `json:"items"`
}

// noteMatter is the frontmatter envelope read for listing. Only listing
// looks at frontmatter; pack copies note bodies verbatim.
type noteMatter struct {
	Title string   `yaml:"title"`
	Tags  []string `yaml:"tags"`
}

// List enumerates the notes of a vault without writing anything: relative
// path, word count, and frontmatter title/tags when present. Items are
// sorted lexicographically by path.
func List(cfg *config.Config, input ListInput) (*ListOutput, error) {
	root, err := vault.Resolve(input.VaultRef, cfg.VaultRoot)
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

	var items []ListItem
	err = v.Walk(filter, func(n vault.Note) error {
		item := ListItem{
			Path:  n.Path,
			Words: n.Words(),
		}

		var meta noteMatter
		// Malformed frontmatter is not fatal here; the note is listed
		// without metadata.
		if _, fmErr := frontmatter.Parse(strings.NewReader(n.Content), &meta); fmErr == nil {
			item.Title = meta.Title
			item.Tags = meta.Tags
		}

		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })

	return &ListOutput{
		Vault: root,
		Count: len(items),
		Items: items,
	}, nil
}
