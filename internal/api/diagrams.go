package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pulpitgraph/internal/diagram"
)

const entityDiagram = "diagram"

// session resolves the diagram session of the note in the URL, writing the
// error response itself when it fails.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*diagram.Session, bool) {
	s, err := h.ws.Diagram(r.Context(), noteID(r))
	if err != nil {
		writeError(w, "open diagram", err)
		return nil, false
	}
	return s, true
}

func diagramResponse(s *diagram.Session) DiagramResponse {
	return DiagramResponse{Graph: s.Graph(), Selected: s.Selected(), Dirty: s.Dirty()}
}

// GetDiagram handles GET /api/notes/{id}/diagram.
func (h *Handler) GetDiagram(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, diagramResponse(s))
}

// ReplaceDiagram handles PUT /api/notes/{id}/diagram: a whole-graph edit
// from a diagram widget. The save is debounced like every other edit.
func (h *Handler) ReplaceDiagram(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var g diagram.Graph
	if !decodeJSON(w, r, &g) {
		return
	}
	if err := s.Replace(g); err != nil {
		writeError(w, "replace diagram", err)
		return
	}
	writeJSON(w, http.StatusOK, diagramResponse(s))
}

// AddShape handles POST /api/notes/{id}/diagram/shapes.
func (h *Handler) AddShape(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req AddShapeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	kind, err := diagram.ParseKind(req.Type)
	if err != nil {
		writeError(w, "add shape", err)
		return
	}
	writeJSON(w, http.StatusCreated, s.AddShape(kind, req.Position))
}

// UpdateShape handles PATCH /api/notes/{id}/diagram/shapes/{shapeID}.
func (h *Handler) UpdateShape(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req UpdateShapeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Position == nil && req.Data == nil && req.Style == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("nothing to update"))
		return
	}
	id := chi.URLParam(r, "shapeID")
	if err := applyShapeUpdate(s, id, req); err != nil {
		writeError(w, "update shape", err)
		return
	}
	g := s.Graph()
	shape, _ := g.Shape(id)
	writeJSON(w, http.StatusOK, shape)
}

func applyShapeUpdate(s *diagram.Session, id string, req UpdateShapeRequest) error {
	e := diagram.ShapeEdit{Position: req.Position, Style: req.Style}
	if d := req.Data; d != nil {
		e.Label, e.Ref, e.Text = d.Label, d.Ref, d.Text
	}
	return s.EditShape(id, e)
}

// DeleteShape handles DELETE /api/notes/{id}/diagram/shapes/{shapeID}.
func (h *Handler) DeleteShape(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.DeleteShape(chi.URLParam(r, "shapeID")); err != nil {
		writeError(w, "delete shape", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Connect handles POST /api/notes/{id}/diagram/connections. Self and
// duplicate connections are accepted as no-ops.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req ConnectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, created, err := s.Connect(req.Source, req.Target)
	if err != nil {
		writeError(w, "connect", err)
		return
	}
	if !created {
		writeJSON(w, http.StatusOK, ConnectResponse{})
		return
	}
	writeJSON(w, http.StatusCreated, ConnectResponse{Created: true, Connection: &c})
}

// Disconnect handles DELETE /api/notes/{id}/diagram/connections/{connID}.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Disconnect(chi.URLParam(r, "connID")); err != nil {
		writeError(w, "disconnect", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Drop handles POST /api/notes/{id}/diagram/drop. A payload that carries
// neither a verse nor a palette token is ignored with 204.
func (h *Handler) Drop(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req DropRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	shape, created := s.Drop(req.Data, req.Viewport.Project(req.Position))
	if !created {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, shape)
}

// SelectShape handles POST /api/notes/{id}/diagram/select.
func (h *Handler) SelectShape(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req SelectShapeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ShapeID == "" {
		s.ClearSelection()
	} else if err := s.Select(req.ShapeID); err != nil {
		writeError(w, "select shape", err)
		return
	}
	writeJSON(w, http.StatusOK, diagramResponse(s))
}

// RestyleSelected handles POST /api/notes/{id}/diagram/style, the style
// panel acting on the current selection.
func (h *Handler) RestyleSelected(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var patch diagram.StylePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if err := s.RestyleSelected(patch); err != nil {
		writeError(w, "restyle", err)
		return
	}
	writeJSON(w, http.StatusOK, diagramResponse(s))
}

// SaveDiagram handles POST /api/notes/{id}/diagram/save.
func (h *Handler) SaveDiagram(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Save(); err != nil {
		writeError(w, "save diagram", err)
		return
	}
	h.publish(entityDiagram, "saved", s.NoteID())
	writeJSON(w, http.StatusOK, diagramResponse(s))
}
