// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes PulpitGraph notes, verses and sermon maps over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/pulpitgraph/internal/apperr"
	"github.com/starford/pulpitgraph/internal/diagram"
	"github.com/starford/pulpitgraph/internal/graph"
	"github.com/starford/pulpitgraph/internal/models"
	"github.com/starford/pulpitgraph/internal/noteservice"
	"github.com/starford/pulpitgraph/internal/verses"
	"github.com/starford/pulpitgraph/internal/workspace"
)

// NoteFormatURI is the resource URI of the note format contract.
const NoteFormatURI = "pulpitgraph://note-format"

// Server wraps the MCP server with PulpitGraph tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
	ws  *workspace.Workspace
}

// New creates a new MCP server with all tools registered.
func New(svc *noteservice.Service, ws *workspace.Workspace, version string) *Server {
	s := &Server{svc: svc, ws: ws}

	s.mcp = server.NewMCPServer(
		"PulpitGraph",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through sermon notes content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full Markdown content of a note."),
		mcp.WithString("note", mcp.Required(), mcp.Description("Note id, folder path (e.g. Sermons/The Grace of God) or title")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Quick-capture a new note. Content should follow the note format "+
			"contract (Markdown body with [[wikilinks]]). Read it first via the get_note_contract "+
			"tool or the "+NoteFormatURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("content", mcp.Description("Markdown content; defaults to a title heading")),
		mcp.WithString("folder", mcp.Description("Optional folder id; empty or \"none\" files the note at the top level")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the canonical note format contract. "+
			"Call this before creating notes to ensure correct structure."),
	), s.getNoteContract)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes or the notes filed directly in one folder."),
		mcp.WithString("folder", mcp.Description("Optional folder id (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithString("note", mcp.Required(), mcp.Description("Note id, path or title")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("search_verses",
		mcp.WithDescription("Search the verse catalog by reference, text or theme. "+
			"Falls back to fuzzy reference matching (e.g. \"jn316\")."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchVerses)

	s.mcp.AddTool(mcp.NewTool("get_sermon_map",
		mcp.WithDescription("Return the sermon-map diagram of a note as JSON (shapes and connections)."),
		mcp.WithString("note", mcp.Required(), mcp.Description("Note id, path or title")),
	), s.getSermonMap)

	s.mcp.AddTool(mcp.NewTool("add_verse_to_map",
		mcp.WithDescription("Drop a catalog verse onto a note's sermon map and save it."),
		mcp.WithString("note", mcp.Required(), mcp.Description("Note id, path or title")),
		mcp.WithString("verse_id", mcp.Required(), mcp.Description("Verse id from search_verses")),
		mcp.WithNumber("x", mcp.Description("Diagram x coordinate (default 250)")),
		mcp.WithNumber("y", mcp.Description("Diagram y coordinate (default 200)")),
	), s.addVerseToMap)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource(NoteFormatURI, "Note Format Contract",
			mcp.WithResourceDescription("Canonical Markdown note format that all notes should follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// resolveNote finds a note by id first, then by wiki-link resolution of
// ref as a path or title.
func (s *Server) resolveNote(ctx context.Context, ref string) (models.Note, error) {
	lib := s.svc.Library()
	if n, err := lib.GetNote(ctx, ref); err == nil {
		return n, nil
	}
	notes := lib.ListNotes(ctx, "")
	r := graph.NewResolver(graph.Docs(notes, lib.NotePath))
	if id, ok := r.Resolve(ref); ok {
		return lib.GetNote(ctx, id)
	}
	return models.Note{}, fmt.Errorf("mcpserver: note %q: %w", ref, apperr.ErrNotFound)
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("note")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.resolveNote(ctx, ref)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", ref)), nil
	}
	return mcp.NewToolResultText(n.Content), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, _ := req.RequireString("content")
	folder, _ := req.RequireString("folder")

	n, err := s.svc.Capture(ctx, title, content, folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (%s)", n.Path, n.ID)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder, _ := req.RequireString("folder")

	items := s.svc.ListNotes(ctx, folder, "")
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = it.ID + "\t" + it.Path
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no notes found"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getNoteContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      NoteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("note")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.resolveNote(ctx, ref)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", ref)), nil
	}
	bl, err := s.svc.Backlinks(ctx, n.ID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	paths := make([]string, len(bl))
	for i, b := range bl {
		paths[i] = b.Path
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) searchVerses(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	found := verses.Search(query)
	if len(found) == 0 {
		found = verses.Suggest(query, 5)
	}
	if len(found) == 0 {
		return mcp.NewToolResultText("no verses found"), nil
	}
	return jsonResult(found), nil
}

func (s *Server) getSermonMap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("note")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.resolveNote(ctx, ref)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", ref)), nil
	}
	sess, err := s.ws.Diagram(ctx, n.ID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(sess.Graph()), nil
}

func (s *Server) addVerseToMap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("note")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	verseID, err := req.RequireString("verse_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := verses.Get(verseID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("unknown verse: %s", verseID)), nil
	}
	n, err := s.resolveNote(ctx, ref)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", ref)), nil
	}
	pos := diagram.Point{X: 250, Y: 200}
	if x, err := req.RequireFloat("x"); err == nil {
		pos.X = x
	}
	if y, err := req.RequireFloat("y"); err == nil {
		pos.Y = y
	}

	sess, err := s.ws.Diagram(ctx, n.ID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	shape, _ := sess.Drop(verses.Payload(v), pos)
	if err := sess.Save(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(shape), nil
}
