package api

import (
	"net/http"

	"github.com/starford/pulpitgraph/internal/markdown"
	"github.com/starford/pulpitgraph/internal/workspace"
)

// GetWorkspace handles GET /api/workspace.
func (h *Handler) GetWorkspace(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ws.State())
}

// SelectNote handles POST /api/workspace/select.
func (h *Handler) SelectNote(w http.ResponseWriter, r *http.Request) {
	var req SelectNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.NoteID == "" {
		h.ws.Deselect()
	} else if err := h.ws.Select(r.Context(), req.NoteID); err != nil {
		writeError(w, "select note", err)
		return
	}
	writeJSON(w, http.StatusOK, h.ws.State())
}

// Navigate handles POST /api/workspace/view.
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req ViewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v, err := workspace.ParseView(req.View)
	if err != nil {
		writeError(w, "navigate", err)
		return
	}
	if err := h.ws.Navigate(r.Context(), v); err != nil {
		writeError(w, "navigate", err)
		return
	}
	writeJSON(w, http.StatusOK, h.ws.State())
}

// EditContent handles PUT /api/workspace/content. HTML from a rich-text
// editor surface is converted to Markdown before anything is written, so a
// body that fails conversion leaves the title untouched too.
func (h *Handler) EditContent(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx := r.Context()
	content := req.Content
	if req.HTML != nil {
		md, err := markdown.HTMLToMarkdown(*req.HTML)
		if err != nil {
			writeError(w, "edit content", err)
			return
		}
		content = &md
	}
	if req.Title != nil {
		if _, err := h.ws.EditTitle(ctx, *req.Title); err != nil {
			writeError(w, "edit title", err)
			return
		}
	}
	if content != nil {
		if err := h.ws.EditContent(ctx, *content); err != nil {
			writeError(w, "edit content", err)
			return
		}
	}
	note, err := h.ws.Note(ctx)
	if err != nil {
		writeError(w, "edit content", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// InsertVerse handles POST /api/workspace/verse.
func (h *Handler) InsertVerse(w http.ResponseWriter, r *http.Request) {
	var req InsertVerseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.ws.InsertVerse(r.Context(), req.VerseID); err != nil {
		writeError(w, "insert verse", err)
		return
	}
	note, err := h.ws.Note(r.Context())
	if err != nil {
		writeError(w, "insert verse", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Flush handles POST /api/workspace/flush, persisting every pending edit.
func (h *Handler) Flush(w http.ResponseWriter, _ *http.Request) {
	h.ws.Flush()
	writeJSON(w, http.StatusOK, h.ws.State())
}
