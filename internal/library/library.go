// Package library owns the note and folder collections. Every mutation is
// persisted synchronously through the storage port, one document per
// collection, and then reported to subscribers.
package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/pulpitgraph/internal/apperr"
	"github.com/starford/pulpitgraph/internal/models"
	"github.com/starford/pulpitgraph/internal/storage"
)

// Storage keys of the two collections.
const (
	KeyNotes   = "notes"
	KeyFolders = "folders"
)

// Change entities and kinds reported to subscribers.
const (
	EntityNote   = "note"
	EntityFolder = "folder"

	KindCreated  = "created"
	KindUpdated  = "updated"
	KindDeleted  = "deleted"
	KindReloaded = "reloaded"
)

// Change describes one persisted mutation.
type Change struct {
	Entity string
	Kind   string
	ID     string
}

// DiagramRemover discards the diagram of a deleted note.
type DiagramRemover interface {
	Delete(noteID string) error
}

// Option configures a Library.
type Option func(*Library)

// WithDiagrams makes note deletion also discard the note's diagram.
func WithDiagrams(d DiagramRemover) Option {
	return func(l *Library) { l.diagrams = d }
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Library) { l.now = now }
}

// Library is safe for concurrent use.
type Library struct {
	store    storage.Store
	logger   *slog.Logger
	diagrams DiagramRemover
	now      func() time.Time

	mu      sync.RWMutex
	notes   []models.Note
	folders []models.Folder

	obsMu     sync.RWMutex
	observers []func(Change)
}

// New loads both collections from store.
func New(store storage.Store, logger *slog.Logger, opts ...Option) (*Library, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Library{store: store, logger: logger, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

// Subscribe registers fn to receive every change. fn runs synchronously
// after the write and must not call back into mutating methods.
func (l *Library) Subscribe(fn func(Change)) {
	l.obsMu.Lock()
	l.observers = append(l.observers, fn)
	l.obsMu.Unlock()
}

func (l *Library) notify(changes ...Change) {
	l.obsMu.RLock()
	obs := append([]func(Change){}, l.observers...)
	l.obsMu.RUnlock()
	for _, c := range changes {
		for _, fn := range obs {
			fn(c)
		}
	}
}

// Reload re-reads both collections, used when the store changed underneath us.
func (l *Library) Reload() error {
	if err := l.load(); err != nil {
		return err
	}
	l.notify(Change{Entity: EntityNote, Kind: KindReloaded}, Change{Entity: EntityFolder, Kind: KindReloaded})
	return nil
}

func (l *Library) load() error {
	var notes []models.Note
	var folders []models.Folder
	if err := l.read(KeyNotes, &notes); err != nil {
		return err
	}
	if err := l.read(KeyFolders, &folders); err != nil {
		return err
	}
	l.mu.Lock()
	l.notes = notes
	l.folders = folders
	l.mu.Unlock()
	return nil
}

// read decodes a collection. Absent or malformed documents are an empty
// collection; only store failures are errors.
func (l *Library) read(key string, dst any) error {
	raw, err := l.store.Get(key)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("library: load %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		l.logger.Warn("library: malformed collection, starting empty",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
	return nil
}

func (l *Library) write(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("library: encode %s: %w", key, err)
	}
	if err := l.store.Set(key, raw); err != nil {
		return fmt.Errorf("library: persist %s: %w", key, err)
	}
	return nil
}

// saveNotes persists next and installs it. Callers hold mu.
func (l *Library) saveNotes(next []models.Note) error {
	if next == nil {
		next = []models.Note{}
	}
	if err := l.write(KeyNotes, next); err != nil {
		return err
	}
	l.notes = next
	return nil
}

// saveFolders persists next and installs it. Callers hold mu.
func (l *Library) saveFolders(next []models.Folder) error {
	if next == nil {
		next = []models.Folder{}
	}
	if err := l.write(KeyFolders, next); err != nil {
		return err
	}
	l.folders = next
	return nil
}

// Empty reports whether there are no notes and no folders.
func (l *Library) Empty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.notes) == 0 && len(l.folders) == 0
}
