package diagram

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/pulpitgraph/internal/apperr"
	"github.com/starford/pulpitgraph/internal/debounce"
)

// Session is an open diagram editor for one note. Every mutation schedules
// a debounced autosave; Save, Flush and Close persist synchronously.
type Session struct {
	noteID string
	repo   *Repository
	logger *slog.Logger

	mu       sync.Mutex
	graph    Graph
	selected string
	dirty    bool

	autosave *debounce.Debouncer
}

// OpenSession loads the note's diagram and returns an editing session.
// A non-positive delay uses the 2s default.
func OpenSession(repo *Repository, noteID string, delay time.Duration) *Session {
	s := &Session{
		noteID: noteID,
		repo:   repo,
		logger: repo.logger,
		graph:  repo.Load(noteID),
	}
	s.autosave = debounce.New(delay, s.autosaveNow)
	return s
}

// NoteID returns the note the session edits.
func (s *Session) NoteID() string {
	return s.noteID
}

// Graph returns a copy of the current graph.
func (s *Session) Graph() Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Clone()
}

// Replace swaps in a whole graph, as a client-side editor would when it
// owns the model, and schedules an autosave. Unknown kinds and invalid
// styles are rejected with apperr.ErrValidation. Self, duplicate and
// dangling connections are dropped.
func (s *Session) Replace(g Graph) error {
	if err := g.Validate(); err != nil {
		return err
	}
	g = g.Clone()
	g.normalize()
	s.mu.Lock()
	s.graph = g
	if _, ok := s.graph.Shape(s.selected); !ok {
		s.selected = ""
	}
	s.mu.Unlock()
	s.changed()
	return nil
}

// Selected returns the selected shape id, or "" when nothing is selected.
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Select replaces the selection with shape id.
func (s *Session) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.graph.Shape(id); !ok {
		return fmt.Errorf("diagram: select %s: %w", id, apperr.ErrNotFound)
	}
	s.selected = id
	return nil
}

// ClearSelection deselects, as a click on the empty surface does.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	s.selected = ""
	s.mu.Unlock()
}

// AddShape adds a shape of kind at pos with its default label.
func (s *Session) AddShape(kind Kind, pos Point) Shape {
	s.mu.Lock()
	sh := s.graph.AddShape(kind, pos, nil)
	s.mu.Unlock()
	s.changed()
	return sh
}

// Drop applies a drag payload at pos.
func (s *Session) Drop(data DragData, pos Point) (Shape, bool) {
	s.mu.Lock()
	sh, ok := Drop(&s.graph, data, pos)
	s.mu.Unlock()
	if ok {
		s.changed()
	}
	return sh, ok
}

// EditShape applies a multi-part edit to one shape. On error the graph is
// unchanged and no autosave is scheduled.
func (s *Session) EditShape(id string, e ShapeEdit) error {
	return s.mutate(func(g *Graph) error { return g.EditShape(id, e) })
}

func (s *Session) RestyleShape(id string, patch StylePatch) error {
	return s.mutate(func(g *Graph) error { return g.RestyleShape(id, patch) })
}

// RestyleSelected restyles the selected shape. Without a selection it does nothing.
func (s *Session) RestyleSelected(patch StylePatch) error {
	id := s.Selected()
	if id == "" {
		return nil
	}
	return s.RestyleShape(id, patch)
}

// DeleteShape removes a shape and its connections, clearing the selection
// if it pointed at the shape.
func (s *Session) DeleteShape(id string) error {
	return s.mutate(func(g *Graph) error {
		if err := g.DeleteShape(id); err != nil {
			return err
		}
		if s.selected == id {
			s.selected = ""
		}
		return nil
	})
}

// Connect adds a connection. Self and duplicate connections change nothing.
func (s *Session) Connect(source, target string) (Connection, bool, error) {
	s.mu.Lock()
	c, created, err := s.graph.Connect(source, target)
	s.mu.Unlock()
	if created {
		s.changed()
	}
	return c, created, err
}

func (s *Session) Disconnect(id string) error {
	return s.mutate(func(g *Graph) error { return g.Disconnect(id) })
}

// mutate runs fn against a copy of the graph under the lock. The copy
// replaces the graph and an autosave is scheduled only when fn succeeds.
func (s *Session) mutate(fn func(g *Graph) error) error {
	s.mu.Lock()
	next := s.graph.Clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.graph = next
	s.mu.Unlock()
	s.changed()
	return nil
}

func (s *Session) changed() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
	s.autosave.Trigger()
}

// Dirty reports whether there are changes not yet persisted.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Save persists the current graph immediately.
func (s *Session) Save() error {
	s.mu.Lock()
	g := s.graph.Clone()
	s.dirty = false
	s.mu.Unlock()
	if err := s.repo.Save(s.noteID, g); err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Session) autosaveNow() {
	if err := s.Save(); err != nil {
		s.logger.Warn("diagram: autosave failed",
			slog.String("note_id", s.noteID),
			slog.String("error", err.Error()))
	}
}

// Flush runs a pending autosave now and reports whether one was pending.
func (s *Session) Flush() bool {
	return s.autosave.Flush()
}

// Close flushes any pending autosave and stops the timer.
func (s *Session) Close() {
	s.autosave.Flush()
	s.autosave.Stop()
}

// Discard stops the timer without saving, used when the note is deleted.
func (s *Session) Discard() {
	s.autosave.Stop()
}
