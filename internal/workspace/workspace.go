// Package workspace is the view shell: which view is showing, which note is
// selected, and the editing sessions open against it. Every transition
// flushes pending saves first, so switching views never drops an edit.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/pulpitgraph/internal/apperr"
	"github.com/starford/pulpitgraph/internal/debounce"
	"github.com/starford/pulpitgraph/internal/diagram"
	"github.com/starford/pulpitgraph/internal/library"
	"github.com/starford/pulpitgraph/internal/markdown"
	"github.com/starford/pulpitgraph/internal/models"
	"github.com/starford/pulpitgraph/internal/pulpit"
	"github.com/starford/pulpitgraph/internal/verses"
)

// View names a top-level screen.
type View string

const (
	ViewDashboard View = "dashboard"
	ViewEditor    View = "editor"
	ViewSermonMap View = "sermonMap"
	ViewPulpit    View = "pulpit"
)

// ParseView validates a view name.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case ViewDashboard, ViewEditor, ViewSermonMap, ViewPulpit:
		return v, nil
	}
	return "", fmt.Errorf("workspace: unknown view %q: %w", s, apperr.ErrValidation)
}

// Options tunes autosave delays. Zero values use the 2s default.
type Options struct {
	ContentDelay time.Duration
	DiagramDelay time.Duration
}

// State is a snapshot of the shell.
type State struct {
	View         View   `json:"view"`
	SelectedID   string `json:"selectedId,omitempty"`
	ContentDirty bool   `json:"contentDirty"`
	OpenDiagrams int    `json:"openDiagrams"`
}

// Workspace is safe for concurrent use.
type Workspace struct {
	lib          *library.Library
	diagrams     *diagram.Repository
	logger       *slog.Logger
	diagramDelay time.Duration

	mu       sync.Mutex
	view     View
	selected string
	draftID  string
	draft    string
	dirty    bool
	sessions map[string]*diagram.Session

	// draftBase is the stored content the pending draft was typed over.
	draftBase string
	// writing counts library writes this workspace has in flight per note.
	writing map[string]int

	contentSave *debounce.Debouncer
	pins        verses.Pins
}

// New returns a workspace on the dashboard with nothing selected.
func New(lib *library.Library, diagrams *diagram.Repository, logger *slog.Logger, opts Options) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Workspace{
		lib:          lib,
		diagrams:     diagrams,
		logger:       logger,
		diagramDelay: opts.DiagramDelay,
		view:         ViewDashboard,
		sessions:     map[string]*diagram.Session{},
		writing:      map[string]int{},
	}
	w.contentSave = debounce.New(opts.ContentDelay, w.saveDraft)
	lib.Subscribe(w.onChange)
	return w
}

// State returns the current view and selection.
func (w *Workspace) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{
		View:         w.view,
		SelectedID:   w.selected,
		ContentDirty: w.dirty,
		OpenDiagrams: len(w.sessions),
	}
}

// Navigate switches view. Views other than the dashboard need a selected note.
func (w *Workspace) Navigate(_ context.Context, v View) error {
	w.Flush()
	w.mu.Lock()
	defer w.mu.Unlock()
	if v != ViewDashboard && w.selected == "" {
		return fmt.Errorf("workspace: open %s: %w", v, apperr.ErrNoSelection)
	}
	w.view = v
	return nil
}

// Select makes id the current note and opens the editor.
func (w *Workspace) Select(ctx context.Context, id string) error {
	if _, err := w.lib.GetNote(ctx, id); err != nil {
		return err
	}
	w.Flush()
	w.mu.Lock()
	w.selected = id
	w.view = ViewEditor
	w.mu.Unlock()
	return nil
}

// Deselect returns to the dashboard with nothing selected.
func (w *Workspace) Deselect() {
	w.Flush()
	w.mu.Lock()
	w.selected = ""
	w.view = ViewDashboard
	w.mu.Unlock()
}

func (w *Workspace) selectedID() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.selected == "" {
		return "", fmt.Errorf("workspace: %w", apperr.ErrNoSelection)
	}
	return w.selected, nil
}

// Note returns the selected note with any unsaved content applied.
func (w *Workspace) Note(ctx context.Context) (models.Note, error) {
	id, err := w.selectedID()
	if err != nil {
		return models.Note{}, err
	}
	return w.NoteByID(ctx, id)
}

// NoteByID returns note id with the pending draft applied when the draft
// belongs to it.
func (w *Workspace) NoteByID(ctx context.Context, id string) (models.Note, error) {
	n, err := w.lib.GetNote(ctx, id)
	if err != nil {
		return models.Note{}, err
	}
	w.mu.Lock()
	if w.dirty && w.draftID == id {
		n.Content = w.draft
	}
	w.mu.Unlock()
	return n, nil
}

// EditContent records new content for the selected note. The write is
// debounced; Flush or any transition persists it immediately.
func (w *Workspace) EditContent(ctx context.Context, content string) error {
	id, err := w.selectedID()
	if err != nil {
		return err
	}
	stored, err := w.lib.GetNote(ctx, id)
	if err != nil {
		return err
	}
	w.mu.Lock()
	if !w.dirty || w.draftID != id {
		w.draftBase = stored.Content
	}
	w.draftID, w.draft, w.dirty = id, content, true
	w.mu.Unlock()
	w.contentSave.Trigger()
	return nil
}

// EditTitle renames the selected note right away.
func (w *Workspace) EditTitle(ctx context.Context, title string) (models.Note, error) {
	id, err := w.selectedID()
	if err != nil {
		return models.Note{}, err
	}
	done := w.beginWrite(id)
	defer done()
	return w.lib.UpdateNote(ctx, id, library.NoteUpdate{Title: &title})
}

// beginWrite marks a library write to id as the workspace's own, so
// onChange does not treat it as another writer's edit.
func (w *Workspace) beginWrite(id string) (done func()) {
	w.mu.Lock()
	w.writing[id]++
	w.mu.Unlock()
	return func() {
		w.mu.Lock()
		if w.writing[id]--; w.writing[id] == 0 {
			delete(w.writing, id)
		}
		w.mu.Unlock()
	}
}

// InsertVerse appends a verse quote to the selected note's content, as
// dropping a verse on the editor does.
func (w *Workspace) InsertVerse(ctx context.Context, verseID string) error {
	v, err := verses.Get(verseID)
	if err != nil {
		return err
	}
	n, err := w.Note(ctx)
	if err != nil {
		return err
	}
	return w.EditContent(ctx, n.Content+markdown.VerseQuote(v.Ref, v.Text))
}

func (w *Workspace) saveDraft() {
	w.mu.Lock()
	if !w.dirty {
		w.mu.Unlock()
		return
	}
	id, content := w.draftID, w.draft
	w.dirty = false
	w.mu.Unlock()

	done := w.beginWrite(id)
	_, err := w.lib.UpdateNote(context.Background(), id, library.NoteUpdate{Content: &content})
	done()
	if err == nil {
		w.mu.Lock()
		if w.dirty && w.draftID == id {
			w.draftBase = content
		}
		w.mu.Unlock()
		return
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		w.logger.Warn("workspace: content autosave failed",
			slog.String("note_id", id),
			slog.String("error", err.Error()))
	}
}

// Diagram returns the editing session for a note's diagram, opening it on
// first use.
func (w *Workspace) Diagram(ctx context.Context, noteID string) (*diagram.Session, error) {
	if _, err := w.lib.GetNote(ctx, noteID); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.sessions[noteID]
	if !ok {
		s = diagram.OpenSession(w.diagrams, noteID, w.diagramDelay)
		w.sessions[noteID] = s
	}
	return s, nil
}

// Presenter builds a pulpit presenter over the selected note.
func (w *Workspace) Presenter(ctx context.Context) (*pulpit.Presenter, error) {
	n, err := w.Note(ctx)
	if err != nil {
		return nil, err
	}
	return pulpit.NewPresenter(n.Content), nil
}

// Pins is the pinned-verse set of this workspace.
func (w *Workspace) Pins() *verses.Pins {
	return &w.pins
}

// DeleteNote deletes a note once the caller has confirmed. Deleting the
// open note returns to the dashboard.
func (w *Workspace) DeleteNote(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return fmt.Errorf("workspace: delete note %s: %w", id, apperr.ErrConfirmationRequired)
	}
	return w.lib.DeleteNote(ctx, id)
}

// onChange keeps workspace state in line with library writes made by
// others: deleted notes lose their sessions and draft, and a draft is
// dropped when the content it was typed over has been replaced.
func (w *Workspace) onChange(c library.Change) {
	if c.Entity != library.EntityNote {
		return
	}
	switch c.Kind {
	case library.KindDeleted:
		w.forget(c.ID)
	case library.KindUpdated:
		w.rebaseDraft(c.ID)
	case library.KindReloaded:
		w.mu.Lock()
		id := w.draftID
		w.mu.Unlock()
		w.rebaseDraft(id)
	}
}

func (w *Workspace) forget(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if s, ok := w.sessions[id]; ok {
		s.Discard()
		delete(w.sessions, id)
	}
	if w.draftID == id {
		w.dirty = false
	}
	if w.selected == id {
		w.selected = ""
		w.view = ViewDashboard
	}
}

// rebaseDraft drops the pending draft for id when another writer changed
// the note's content since the draft began. Title-only changes keep it.
func (w *Workspace) rebaseDraft(id string) {
	w.mu.Lock()
	if id == "" || !w.dirty || w.draftID != id || w.writing[id] > 0 {
		w.mu.Unlock()
		return
	}
	base := w.draftBase
	w.mu.Unlock()

	n, err := w.lib.GetNote(context.Background(), id)
	if err != nil || n.Content == base {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dirty && w.draftID == id && w.draftBase == base {
		w.dirty = false
		w.logger.Info("workspace: dropped draft replaced by another writer",
			slog.String("note_id", id))
	}
}

// Flush persists the pending content edit and every open diagram session.
func (w *Workspace) Flush() {
	w.contentSave.Flush()
	w.mu.Lock()
	sessions := make([]*diagram.Session, 0, len(w.sessions))
	for _, s := range w.sessions {
		sessions = append(sessions, s)
	}
	w.mu.Unlock()
	for _, s := range sessions {
		s.Flush()
	}
}

// Close flushes everything and stops all timers.
func (w *Workspace) Close() {
	w.contentSave.Flush()
	w.contentSave.Stop()
	w.mu.Lock()
	sessions := w.sessions
	w.sessions = map[string]*diagram.Session{}
	w.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
