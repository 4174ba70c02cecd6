package library

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/pulpitgraph/internal/apperr"
	"github.com/starford/pulpitgraph/internal/models"
)

// UntitledNote is the title given to a note created without one.
const UntitledNote = "Untitled Note"

// NoteInput is the payload for CreateNote.
type NoteInput struct {
	Title    string
	Content  string
	FolderID string
}

// NoteUpdate holds the mutable note fields; nil fields are left as they are.
// A non-nil empty FolderID moves the note to the root.
type NoteUpdate struct {
	Title    *string
	Content  *string
	FolderID *string
}

// ListNotes returns notes in insertion order. A non-empty folderID keeps
// only notes filed directly in that folder.
func (l *Library) ListNotes(_ context.Context, folderID string) []models.Note {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if folderID == "" {
		return slices.Clone(l.notes)
	}
	var out []models.Note
	for _, n := range l.notes {
		if n.InFolder(folderID) {
			out = append(out, n)
		}
	}
	return out
}

// GetNote returns the note with id.
func (l *Library) GetNote(_ context.Context, id string) (models.Note, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i := l.noteIndex(id)
	if i < 0 {
		return models.Note{}, fmt.Errorf("library: note %s: %w", id, apperr.ErrNotFound)
	}
	return l.notes[i], nil
}

func (l *Library) noteIndex(id string) int {
	return slices.IndexFunc(l.notes, func(n models.Note) bool { return n.ID == id })
}

// CreateNote appends a note. A blank title becomes UntitledNote.
func (l *Library) CreateNote(_ context.Context, in NoteInput) (models.Note, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = UntitledNote
	}
	now := l.now().UTC()

	l.mu.Lock()
	if in.FolderID != "" && l.folderIndex(in.FolderID) < 0 {
		l.mu.Unlock()
		return models.Note{}, fmt.Errorf("library: folder %s: %w", in.FolderID, apperr.ErrNotFound)
	}
	n := models.Note{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   in.Content,
		FolderID:  models.StringPtr(in.FolderID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := l.saveNotes(append(slices.Clone(l.notes), n))
	l.mu.Unlock()
	if err != nil {
		return models.Note{}, err
	}

	l.notify(Change{Entity: EntityNote, Kind: KindCreated, ID: n.ID})
	return n, nil
}

// UpdateNote applies upd and refreshes UpdatedAt.
func (l *Library) UpdateNote(_ context.Context, id string, upd NoteUpdate) (models.Note, error) {
	l.mu.Lock()
	i := l.noteIndex(id)
	if i < 0 {
		l.mu.Unlock()
		return models.Note{}, fmt.Errorf("library: note %s: %w", id, apperr.ErrNotFound)
	}
	if upd.FolderID != nil && *upd.FolderID != "" && l.folderIndex(*upd.FolderID) < 0 {
		l.mu.Unlock()
		return models.Note{}, fmt.Errorf("library: folder %s: %w", *upd.FolderID, apperr.ErrNotFound)
	}
	next := slices.Clone(l.notes)
	n := &next[i]
	if upd.Title != nil {
		n.Title = *upd.Title
	}
	if upd.Content != nil {
		n.Content = *upd.Content
	}
	if upd.FolderID != nil {
		n.FolderID = models.StringPtr(*upd.FolderID)
	}
	n.UpdatedAt = l.now().UTC()
	out := *n
	err := l.saveNotes(next)
	l.mu.Unlock()
	if err != nil {
		return models.Note{}, err
	}

	l.notify(Change{Entity: EntityNote, Kind: KindUpdated, ID: id})
	return out, nil
}

// DeleteNote removes the note and discards its diagram. Confirmation is
// the caller's concern.
func (l *Library) DeleteNote(_ context.Context, id string) error {
	l.mu.Lock()
	i := l.noteIndex(id)
	if i < 0 {
		l.mu.Unlock()
		return fmt.Errorf("library: note %s: %w", id, apperr.ErrNotFound)
	}
	err := l.saveNotes(slices.Delete(slices.Clone(l.notes), i, i+1))
	l.mu.Unlock()
	if err != nil {
		return err
	}

	l.discardDiagram(id)
	l.notify(Change{Entity: EntityNote, Kind: KindDeleted, ID: id})
	return nil
}

func (l *Library) discardDiagram(noteID string) {
	if l.diagrams == nil {
		return
	}
	if err := l.diagrams.Delete(noteID); err != nil {
		l.logger.Warn("library: discard diagram failed",
			slog.String("note_id", noteID),
			slog.String("error", err.Error()))
	}
}

// NotePath returns the note's folder names and title joined with "/".
func (l *Library) NotePath(n models.Note) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.notePath(n)
}

func (l *Library) notePath(n models.Note) string {
	parts := l.folderPath(models.Deref(n.FolderID))
	return strings.Join(append(parts, n.Title), "/")
}

// Paths returns NotePath for every note, keyed by note id.
func (l *Library) Paths() map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]string, len(l.notes))
	for _, n := range l.notes {
		out[n.ID] = l.notePath(n)
	}
	return out
}
