package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pulpitgraph/internal/library"
)

// ListFolders handles GET /api/folders.
func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"folders": h.svc.Library().ListFolders(r.Context()),
	})
}

// CreateFolder handles POST /api/folders.
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.svc.Library().CreateFolder(r.Context(), library.FolderInput{
		Name:     req.Name,
		ParentID: req.ParentID,
		Expanded: req.Expanded,
	})
	if err != nil {
		writeError(w, "create folder", err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// GetFolder handles GET /api/folders/{id}.
func (h *Handler) GetFolder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	f, err := h.svc.Library().GetFolder(ctx, id)
	if err != nil {
		writeError(w, "get folder", err)
		return
	}
	writeJSON(w, http.StatusOK, FolderDetail{
		Folder: f,
		Path:   h.svc.Library().FolderPath(ctx, id),
		Root:   f.IsRoot(),
		Notes:  h.svc.ListNotes(ctx, id, ""),
	})
}

// UpdateFolder handles PATCH /api/folders/{id}.
func (h *Handler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	var req UpdateFolderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.svc.Library().UpdateFolder(r.Context(), chi.URLParam(r, "id"), library.FolderUpdate{
		Name:     req.Name,
		Expanded: req.Expanded,
	})
	if err != nil {
		writeError(w, "update folder", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// MoveFolder handles POST /api/folders/{id}/move.
func (h *Handler) MoveFolder(w http.ResponseWriter, r *http.Request) {
	var req MoveFolderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.svc.Library().MoveFolder(r.Context(), chi.URLParam(r, "id"), req.ParentID)
	if err != nil {
		writeError(w, "move folder", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// DeleteFolder handles DELETE /api/folders/{id}. Every note in the folder's
// subtree is deleted with it.
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Library().DeleteFolder(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete folder", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
