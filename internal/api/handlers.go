package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pulpitgraph/internal/checksum"
	"github.com/starford/pulpitgraph/internal/library"
	"github.com/starford/pulpitgraph/internal/markdown"
	"github.com/starford/pulpitgraph/internal/noteservice"
	"github.com/starford/pulpitgraph/internal/pulpit"
	"github.com/starford/pulpitgraph/internal/workspace"
)

// Publisher receives change notifications for events the library does not
// report itself, such as diagram saves.
type Publisher interface {
	PublishChange(entity, kind, id string)
}

// Handler holds API route handlers.
type Handler struct {
	svc    *noteservice.Service
	ws     *workspace.Workspace
	events Publisher
}

// NewHandler creates a new Handler. events may be nil.
func NewHandler(svc *noteservice.Service, ws *workspace.Workspace, events Publisher) *Handler {
	return &Handler{svc: svc, ws: ws, events: events}
}

func (h *Handler) publish(entity, kind, id string) {
	if h.events != nil {
		h.events.PublishChange(entity, kind, id)
	}
}

func noteID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes, optionally by folder and tag
//	@Tags			notes
//	@Produce		json
//	@Param			folder	query		string	false	"Folder id"
//	@Param			tag		query		string	false	"Filter by tag"
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items := h.svc.ListNotes(r.Context(), q.Get("folder"), q.Get("tag"))
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: len(items)})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.GetNote(r.Context(), noteID(r))
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag([]byte(note.Content)))
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.svc.CreateNote(r.Context(), library.NoteInput{
		Title:    req.Title,
		Content:  req.Content,
		FolderID: req.FolderID,
	})
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Update a note with optimistic concurrency
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string				true	"Note id"
//	@Param			If-Match	header		string				false	"Content checksum or ETag"
//	@Param			body		body		UpdateNoteRequest	true	"Fields to change"
//	@Success		200			{object}	NoteDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == nil && req.Content == nil && req.FolderID == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("nothing to update"))
		return
	}
	note, err := h.svc.UpdateNote(r.Context(), noteID(r), library.NoteUpdate{
		Title:    req.Title,
		Content:  req.Content,
		FolderID: req.FolderID,
	}, r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag([]byte(note.Content)))
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{id}?confirm=true.
//
//	@Summary		Delete a note and its sermon map
//	@Tags			notes
//	@Param			id		path	string	true	"Note id"
//	@Param			confirm	query	bool	true	"Must be true"
//	@Success		204		"Note deleted"
//	@Failure		404		{object}	errResponse
//	@Failure		428		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if err := h.ws.DeleteNote(r.Context(), noteID(r), confirmed); err != nil {
		writeError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Capture handles POST /api/capture.
//
//	@Summary		Quick-capture a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CaptureRequest	true	"Note to capture"
//	@Success		201		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/capture [post]
func (h *Handler) Capture(w http.ResponseWriter, r *http.Request) {
	var req CaptureRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.svc.Capture(r.Context(), req.Title, req.Content, req.FolderID)
	if err != nil {
		writeError(w, "capture", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// Preview handles GET /api/notes/{id}/preview.
//
//	@Summary		Render a note to HTML
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	PreviewResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/preview [get]
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.Library().GetNote(r.Context(), noteID(r))
	if err != nil {
		writeError(w, "preview", err)
		return
	}
	out, err := markdown.RenderPreview([]byte(note.Content))
	if err != nil {
		writeError(w, "preview", err)
		return
	}
	writeJSON(w, http.StatusOK, PreviewResponse{HTML: out})
}

// Editor handles GET /api/notes/{id}/editor: the HTML a rich-text editor
// surface loads, with bold as <b> and italics as <i>.
func (h *Handler) Editor(w http.ResponseWriter, r *http.Request) {
	note, err := h.ws.NoteByID(r.Context(), noteID(r))
	if err != nil {
		writeError(w, "editor", err)
		return
	}
	out, err := markdown.RenderEditor([]byte(note.Content))
	if err != nil {
		writeError(w, "editor", err)
		return
	}
	writeJSON(w, http.StatusOK, PreviewResponse{HTML: out})
}

// Backlinks handles GET /api/notes/{id}/backlinks.
//
//	@Summary		Notes linking to this note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteListResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/backlinks [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Backlinks(r.Context(), noteID(r))
	if err != nil {
		writeError(w, "backlinks", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: len(items)})
}

// Pulpit handles GET /api/notes/{id}/pulpit.
//
//	@Summary		One pulpit-mode section of a note
//	@Tags			pulpit
//	@Produce		json
//	@Param			id		path		string	true	"Note id"
//	@Param			section	query		int		false	"Zero-based section index"
//	@Param			font	query		int		false	"Font size in px (16-48)"
//	@Success		200		{object}	PulpitResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/pulpit [get]
func (h *Handler) Pulpit(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.Library().GetNote(r.Context(), noteID(r))
	if err != nil {
		writeError(w, "pulpit", err)
		return
	}
	p := pulpit.NewPresenter(note.Content)
	q := r.URL.Query()
	if s, err := strconv.Atoi(q.Get("section")); err == nil {
		p.Goto(s)
	}
	if f, err := strconv.Atoi(q.Get("font")); err == nil {
		p.SetFontSize(f)
	}
	out, err := p.Render()
	if err != nil {
		writeError(w, "pulpit", err)
		return
	}
	writeJSON(w, http.StatusOK, PulpitResponse{
		Index:    p.Index(),
		Total:    p.Len(),
		Position: p.Position(),
		FontSize: p.FontSize(),
		Markdown: p.Section(),
		HTML:     out,
	})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Graph handles GET /api/graph.
//
//	@Summary		Get the laid-out knowledge graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	graph.Graph
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Graph(r.Context()))
}

// defaultNodeRadius is the hit radius of a graph node in layout units.
const defaultNodeRadius = 20

// GraphNode handles GET /api/graph/node?x=&y=: a click on the graph. The
// nearest node within radius is selected in the workspace.
func (h *Handler) GraphNode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	x, errX := strconv.ParseFloat(q.Get("x"), 64)
	y, errY := strconv.ParseFloat(q.Get("y"), 64)
	if errX != nil || errY != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("x and y are required numbers"))
		return
	}
	radius := float64(defaultNodeRadius)
	if v, err := strconv.ParseFloat(q.Get("radius"), 64); err == nil && v > 0 {
		radius = v
	}
	node, ok := h.svc.Graph(r.Context()).NodeAt(x, y, radius)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("no node at that point"))
		return
	}
	if err := h.ws.Select(r.Context(), node.ID); err != nil {
		writeError(w, "graph node", err)
		return
	}
	writeJSON(w, http.StatusOK, GraphNodeResponse{Node: node, State: h.ws.State()})
}
