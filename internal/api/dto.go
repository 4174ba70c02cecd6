package api

import (
	"github.com/starford/pulpitgraph/internal/diagram"
	"github.com/starford/pulpitgraph/internal/graph"
	"github.com/starford/pulpitgraph/internal/index"
	"github.com/starford/pulpitgraph/internal/models"
	"github.com/starford/pulpitgraph/internal/noteservice"
	"github.com/starford/pulpitgraph/internal/workspace"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title    string `json:"title" example:"The Grace of God"`
	Content  string `json:"content" example:"# The Grace of God"`
	FolderID string `json:"folderId" example:"b7d6..."`
}

// UpdateNoteRequest is the request body for updating a note. Absent fields
// are left unchanged.
type UpdateNoteRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	FolderID *string `json:"folderId"`
}

// CaptureRequest is the quick-capture body. FolderID "none" files the note
// at the top level.
type CaptureRequest struct {
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content"`
	FolderID string `json:"folderId"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// PreviewResponse carries rendered note HTML.
type PreviewResponse struct {
	HTML string `json:"html"`
}

// FolderDetail is a folder with its breadcrumb and the notes filed
// directly in it.
type FolderDetail struct {
	models.Folder
	Path  []string       `json:"path"`
	Root  bool           `json:"root"`
	Notes []NoteListItem `json:"notes"`
}

// GraphNodeResponse is the note opened by clicking the graph.
type GraphNodeResponse struct {
	Node  graph.Node      `json:"node"`
	State workspace.State `json:"state"`
}

// PulpitResponse is one pulpit-mode section.
type PulpitResponse struct {
	Index    int    `json:"index"`
	Total    int    `json:"total"`
	Position string `json:"position" example:"2 / 5"`
	FontSize int    `json:"fontSize" example:"24"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

// CreateFolderRequest is the request body for creating a folder.
type CreateFolderRequest struct {
	Name     string `json:"name" example:"Sermons" validate:"required"`
	ParentID string `json:"parentId"`
	Expanded bool   `json:"expanded"`
}

// UpdateFolderRequest renames or expands/collapses a folder.
type UpdateFolderRequest struct {
	Name     *string `json:"name"`
	Expanded *bool   `json:"expanded"`
}

// MoveFolderRequest reparents a folder. An empty ParentID moves it to the root.
type MoveFolderRequest struct {
	ParentID string `json:"parentId"`
}

// DiagramResponse is a diagram plus its editing state.
type DiagramResponse struct {
	diagram.Graph
	Selected string `json:"selected,omitempty"`
	Dirty    bool   `json:"dirty"`
}

// AddShapeRequest adds a palette shape.
type AddShapeRequest struct {
	Type     string        `json:"type" example:"process" validate:"required"`
	Position diagram.Point `json:"position"`
}

// ShapeContentPatch edits shape content. Absent fields are left unchanged.
type ShapeContentPatch struct {
	Label *string `json:"label"`
	Ref   *string `json:"ref"`
	Text  *string `json:"text"`
}

// UpdateShapeRequest moves, edits and restyles one shape.
type UpdateShapeRequest struct {
	Position *diagram.Point      `json:"position"`
	Data     *ShapeContentPatch  `json:"data"`
	Style    *diagram.StylePatch `json:"style"`
}

// ConnectRequest links two shapes.
type ConnectRequest struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// ConnectResponse reports whether a new connection was created.
type ConnectResponse struct {
	Created    bool                `json:"created"`
	Connection *diagram.Connection `json:"connection,omitempty"`
}

// DropRequest is a drag payload released over the diagram surface.
// Position is in screen coordinates and is projected through Viewport.
type DropRequest struct {
	Data     diagram.DragData `json:"data"`
	Position diagram.Point    `json:"position"`
	Viewport diagram.Viewport `json:"viewport"`
}

// SelectShapeRequest selects a shape; an empty ShapeID clears the selection.
type SelectShapeRequest struct {
	ShapeID string `json:"shapeId"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// SelectNoteRequest opens a note in the workspace.
type SelectNoteRequest struct {
	NoteID string `json:"noteId" validate:"required"`
}

// ViewRequest switches the workspace view.
type ViewRequest struct {
	View string `json:"view" example:"pulpit" validate:"required"`
}

// ContentRequest edits the selected note. Content is debounced, Title is
// written immediately.
type ContentRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	HTML    *string `json:"html"`
}

// InsertVerseRequest quotes a verse into the selected note.
type InsertVerseRequest struct {
	VerseID string `json:"verseId" validate:"required"`
}

// PinResponse reports the pin state of a verse after toggling.
type PinResponse struct {
	ID     string `json:"id"`
	Pinned bool   `json:"pinned"`
}
