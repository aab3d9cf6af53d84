package web

import (
	"net/http"

	"github.com/obspack/obspack/internal/config"
	"github.com/obspack/obspack/internal/source"
	"github.com/obspack/obspack/internal/vault"
)

// Handlers contains HTTP route handlers for the vault preview.
type Handlers struct {
	cfg      *config.Config
	vaultRef string
	renderer *Renderer
}

// HandleNotes handles GET /notes — list the vault's notes.
func (h *Handlers) HandleNotes(w http.ResponseWriter, r *http.Request) {
	result, err := source.List(h.cfg, source.ListInput{VaultRef: h.vaultRef})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "notes", NotesPageData{
		PageData: PageData{
			Title:   "Notes",
			Version: h.renderer.version,
			Nav:     "notes",
		},
		Vault: result.Vault,
		Items: result.Items,
		Count: result.Count,
	})
}

// HandleNote handles GET /notes/{path...} — render one note as HTML.
func (h *Handlers) HandleNote(w http.ResponseWriter, r *http.Request) {
	rel := r.PathValue("path")

	root, err := vault.Resolve(h.vaultRef, h.cfg.VaultRoot)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	v, err := vault.Open(root)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	content, err := v.Read(rel)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	note := vault.Note{Path: rel, Content: content}
	h.renderer.renderPage(w, "note", NotePageData{
		PageData: PageData{
			Title:   note.Path,
			Version: h.renderer.version,
			Nav:     "notes",
		},
		Vault:        root,
		Path:         note.Path,
		Words:        note.Words(),
		RenderedHTML: renderMarkdown(note.Content),
	})
}

// HandleEstimate handles GET /estimate — show the sizing summary.
func (h *Handlers) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	result, err := source.Estimate(h.cfg, source.EstimateInput{VaultRef: h.vaultRef})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "estimate", EstimatePageData{
		PageData: PageData{
			Title:   "Estimate",
			Version: h.renderer.version,
			Nav:     "estimate",
		},
		Estimate: result,
	})
}
