// Package noteservice is the read/write facade shared by the REST API and
// the MCP server: the library for records, the index for search and
// backlinks, and the knowledge graph with its layout.
package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/starford/pulpitgraph/internal/apperr"
	"github.com/starford/pulpitgraph/internal/checksum"
	"github.com/starford/pulpitgraph/internal/graph"
	"github.com/starford/pulpitgraph/internal/index"
	"github.com/starford/pulpitgraph/internal/library"
	"github.com/starford/pulpitgraph/internal/models"
	"github.com/starford/pulpitgraph/internal/parser"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Path        string         `json:"path"`
	FolderID    *string        `json:"folderId"`
	Content     string         `json:"content"`
	Checksum    string         `json:"checksum"`
	Tags        []string       `json:"tags"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Backlinks   []string       `json:"backlinks"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Path      string    `json:"path"`
	FolderID  *string   `json:"folderId"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Service coordinates library and index operations.
type Service struct {
	lib    *library.Library
	db     index.NoteIndex
	logger *slog.Logger
	layout graph.LayoutOptions

	syncMu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithLayout sets the knowledge-graph layout parameters.
func WithLayout(opts graph.LayoutOptions) Option {
	return func(s *Service) { s.layout = opts }
}

// NewService creates a note service, indexes the library and keeps the
// index current by subscribing to library changes.
func NewService(lib *library.Library, db index.NoteIndex, logger *slog.Logger, opts ...Option) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{lib: lib, db: db, logger: logger, layout: graph.DefaultLayoutOptions()}
	for _, o := range opts {
		o(s)
	}
	if err := s.Reindex(); err != nil {
		return nil, err
	}
	lib.Subscribe(func(library.Change) {
		if err := s.Reindex(); err != nil {
			s.logger.Warn("noteservice: reindex failed", slog.String("error", err.Error()))
		}
	})
	return s, nil
}

// Library exposes the underlying note/folder library.
func (s *Service) Library() *library.Library {
	return s.lib
}

// Reindex reconciles the search index with the library.
func (s *Service) Reindex() error {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	notes := s.lib.ListNotes(context.Background(), "")
	paths := s.lib.Paths()
	entries := make([]index.Entry, len(notes))
	for i, n := range notes {
		entries[i] = index.Entry{Note: n, Path: paths[n.ID]}
	}
	return index.Sync(s.db, entries, s.logger)
}

// GetNote returns a note enriched with tags and backlinks.
func (s *Service) GetNote(ctx context.Context, id string) (*NoteDetail, error) {
	n, err := s.lib.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.buildNoteDetail(n)
}

// ListNotes lists notes, optionally restricted to one folder and one tag.
func (s *Service) ListNotes(ctx context.Context, folderID, tag string) []NoteListItem {
	notes := s.lib.ListNotes(ctx, folderID)
	paths := s.lib.Paths()
	items := make([]NoteListItem, 0, len(notes))
	for _, n := range notes {
		res := parser.Parse(n.Content)
		if tag != "" && !slices.Contains(res.Tags, tag) {
			continue
		}
		items = append(items, NoteListItem{
			ID:        n.ID,
			Title:     n.Title,
			Path:      paths[n.ID],
			FolderID:  n.FolderID,
			Checksum:  checksum.Sum([]byte(n.Content)),
			Tags:      nonNilSlice(res.Tags),
			UpdatedAt: n.UpdatedAt,
		})
	}
	return items
}

// CreateNote adds a note to the library.
func (s *Service) CreateNote(ctx context.Context, in library.NoteInput) (*NoteDetail, error) {
	n, err := s.lib.CreateNote(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.buildNoteDetail(n)
}

// Capture files a quick note, see library.QuickCapture.
func (s *Service) Capture(ctx context.Context, title, content, folderID string) (*NoteDetail, error) {
	n, err := s.lib.QuickCapture(ctx, title, content, folderID)
	if err != nil {
		return nil, err
	}
	return s.buildNoteDetail(n)
}

// UpdateNote applies upd with optimistic concurrency: a non-empty ifMatch
// must equal the checksum of the current content.
func (s *Service) UpdateNote(ctx context.Context, id string, upd library.NoteUpdate, ifMatch string) (*NoteDetail, error) {
	if ifMatch != "" {
		cur, err := s.lib.GetNote(ctx, id)
		if err != nil {
			return nil, err
		}
		if !Matches(ifMatch, cur.Content) {
			return nil, fmt.Errorf("noteservice: update %s: %w", id, apperr.ErrConflict)
		}
	}
	n, err := s.lib.UpdateNote(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	return s.buildNoteDetail(n)
}

// Matches reports whether an If-Match value names content.
func Matches(ifMatch, content string) bool {
	return checksum.MatchIfMatch(ifMatch, []byte(content))
}

// DeleteNote removes a note; the index follows through the library observer.
func (s *Service) DeleteNote(ctx context.Context, id string) error {
	return s.lib.DeleteNote(ctx, id)
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	results, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(results), nil
}

// Backlinks returns the notes that link to id.
func (s *Service) Backlinks(ctx context.Context, id string) ([]NoteListItem, error) {
	if _, err := s.lib.GetNote(ctx, id); err != nil {
		return nil, err
	}
	ids, err := s.db.Backlinks(id)
	if err != nil {
		return nil, err
	}
	paths := s.lib.Paths()
	out := make([]NoteListItem, 0, len(ids))
	for _, src := range ids {
		n, err := s.lib.GetNote(ctx, src)
		if err != nil {
			continue
		}
		out = append(out, NoteListItem{
			ID:        n.ID,
			Title:     n.Title,
			Path:      paths[n.ID],
			FolderID:  n.FolderID,
			Checksum:  checksum.Sum([]byte(n.Content)),
			Tags:      nonNilSlice(parser.Parse(n.Content).Tags),
			UpdatedAt: n.UpdatedAt,
		})
	}
	return out, nil
}

// Graph builds and lays out the knowledge graph of the whole library.
func (s *Service) Graph(ctx context.Context) graph.Graph {
	g := graph.Build(graph.Docs(s.lib.ListNotes(ctx, ""), s.lib.NotePath))
	graph.Layout(&g, s.layout)
	return g
}

// buildNoteDetail constructs a NoteDetail from a library note.
func (s *Service) buildNoteDetail(n models.Note) (*NoteDetail, error) {
	res := parser.Parse(n.Content)
	bl, err := s.db.Backlinks(n.ID)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{
		ID:          n.ID,
		Title:       n.Title,
		Path:        s.lib.NotePath(n),
		FolderID:    n.FolderID,
		Content:     n.Content,
		Checksum:    checksum.Sum([]byte(n.Content)),
		Tags:        nonNilSlice(res.Tags),
		Frontmatter: res.FrontMatter,
		Backlinks:   nonNilSlice(bl),
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
