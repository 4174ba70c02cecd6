package library

import (
	"context"
	"fmt"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/pulpitgraph/internal/apperr"
	"github.com/starford/pulpitgraph/internal/models"
)

// FolderInput is the payload for CreateFolder.
type FolderInput struct {
	Name     string
	ParentID string
	Expanded bool
}

func (in FolderInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required.Error("name is required"), validation.Length(1, 200)),
	)
}

// FolderUpdate holds the mutable folder fields; nil fields are left as they are.
type FolderUpdate struct {
	Name     *string
	Expanded *bool
}

// ListFolders returns every folder in insertion order.
func (l *Library) ListFolders(_ context.Context) []models.Folder {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.folders)
}

// GetFolder returns the folder with id.
func (l *Library) GetFolder(_ context.Context, id string) (models.Folder, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i := l.folderIndex(id)
	if i < 0 {
		return models.Folder{}, fmt.Errorf("library: folder %s: %w", id, apperr.ErrNotFound)
	}
	return l.folders[i], nil
}

func (l *Library) folderIndex(id string) int {
	return slices.IndexFunc(l.folders, func(f models.Folder) bool { return f.ID == id })
}

// CreateFolder adds a folder under in.ParentID, or at the root when empty.
func (l *Library) CreateFolder(_ context.Context, in FolderInput) (models.Folder, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return models.Folder{}, fmt.Errorf("library: create folder: %w: %w", apperr.ErrValidation, err)
	}

	l.mu.Lock()
	if in.ParentID != "" && l.folderIndex(in.ParentID) < 0 {
		l.mu.Unlock()
		return models.Folder{}, fmt.Errorf("library: parent folder %s: %w", in.ParentID, apperr.ErrNotFound)
	}
	f := models.Folder{
		ID:       uuid.NewString(),
		Name:     in.Name,
		ParentID: models.StringPtr(in.ParentID),
		Expanded: in.Expanded,
	}
	err := l.saveFolders(append(slices.Clone(l.folders), f))
	l.mu.Unlock()
	if err != nil {
		return models.Folder{}, err
	}

	l.notify(Change{Entity: EntityFolder, Kind: KindCreated, ID: f.ID})
	return f, nil
}

// UpdateFolder renames or expands/collapses a folder.
func (l *Library) UpdateFolder(_ context.Context, id string, upd FolderUpdate) (models.Folder, error) {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if err := validation.Validate(name, validation.Required.Error("name is required")); err != nil {
			return models.Folder{}, fmt.Errorf("library: update folder: %w: %w", apperr.ErrValidation, err)
		}
		upd.Name = &name
	}

	l.mu.Lock()
	i := l.folderIndex(id)
	if i < 0 {
		l.mu.Unlock()
		return models.Folder{}, fmt.Errorf("library: folder %s: %w", id, apperr.ErrNotFound)
	}
	next := slices.Clone(l.folders)
	if upd.Name != nil {
		next[i].Name = *upd.Name
	}
	if upd.Expanded != nil {
		next[i].Expanded = *upd.Expanded
	}
	f := next[i]
	err := l.saveFolders(next)
	l.mu.Unlock()
	if err != nil {
		return models.Folder{}, err
	}

	l.notify(Change{Entity: EntityFolder, Kind: KindUpdated, ID: id})
	return f, nil
}

// MoveFolder reparents a folder. An empty parentID moves it to the root.
// A parent equal to the folder or inside its subtree is rejected with ErrCycle.
func (l *Library) MoveFolder(_ context.Context, id, parentID string) (models.Folder, error) {
	l.mu.Lock()
	i := l.folderIndex(id)
	if i < 0 {
		l.mu.Unlock()
		return models.Folder{}, fmt.Errorf("library: folder %s: %w", id, apperr.ErrNotFound)
	}
	if parentID != "" {
		if l.folderIndex(parentID) < 0 {
			l.mu.Unlock()
			return models.Folder{}, fmt.Errorf("library: parent folder %s: %w", parentID, apperr.ErrNotFound)
		}
		if _, inSubtree := l.subtree(id)[parentID]; inSubtree {
			l.mu.Unlock()
			return models.Folder{}, fmt.Errorf("library: move %s under %s: %w", id, parentID, apperr.ErrCycle)
		}
	}
	next := slices.Clone(l.folders)
	next[i].ParentID = models.StringPtr(parentID)
	f := next[i]
	err := l.saveFolders(next)
	l.mu.Unlock()
	if err != nil {
		return models.Folder{}, err
	}

	l.notify(Change{Entity: EntityFolder, Kind: KindUpdated, ID: id})
	return f, nil
}

// subtree returns id and every descendant folder id. Callers hold mu.
// The visited set keeps traversal finite on data that already has a cycle.
func (l *Library) subtree(id string) map[string]struct{} {
	set := map[string]struct{}{id: {}}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, f := range l.folders {
			if f.ParentID == nil || *f.ParentID != cur {
				continue
			}
			if _, seen := set[f.ID]; seen {
				continue
			}
			set[f.ID] = struct{}{}
			queue = append(queue, f.ID)
		}
	}
	return set
}

// DeleteFolder removes the folder, all of its descendants and every note
// filed anywhere in that subtree. Notes are written first, then folders.
func (l *Library) DeleteFolder(_ context.Context, id string) error {
	l.mu.Lock()
	if l.folderIndex(id) < 0 {
		l.mu.Unlock()
		return fmt.Errorf("library: folder %s: %w", id, apperr.ErrNotFound)
	}
	set := l.subtree(id)

	var changes []Change
	var removed []string
	keptNotes := make([]models.Note, 0, len(l.notes))
	for _, n := range l.notes {
		if n.FolderID != nil {
			if _, gone := set[*n.FolderID]; gone {
				removed = append(removed, n.ID)
				continue
			}
		}
		keptNotes = append(keptNotes, n)
	}
	if err := l.saveNotes(keptNotes); err != nil {
		l.mu.Unlock()
		return err
	}
	for _, nid := range removed {
		changes = append(changes, Change{Entity: EntityNote, Kind: KindDeleted, ID: nid})
	}

	var folderChanges []Change
	keptFolders := make([]models.Folder, 0, len(l.folders))
	for _, f := range l.folders {
		if _, gone := set[f.ID]; gone {
			folderChanges = append(folderChanges, Change{Entity: EntityFolder, Kind: KindDeleted, ID: f.ID})
			continue
		}
		keptFolders = append(keptFolders, f)
	}
	err := l.saveFolders(keptFolders)
	l.mu.Unlock()
	if err == nil {
		changes = append(changes, folderChanges...)
	}

	for _, nid := range removed {
		l.discardDiagram(nid)
	}
	l.notify(changes...)
	return err
}

// FolderPath returns the folder names from the root down to id.
func (l *Library) FolderPath(_ context.Context, id string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.folderPath(id)
}

func (l *Library) folderPath(id string) []string {
	var names []string
	seen := map[string]bool{}
	for id != "" && !seen[id] {
		seen[id] = true
		i := l.folderIndex(id)
		if i < 0 {
			break
		}
		names = append(names, l.folders[i].Name)
		id = models.Deref(l.folders[i].ParentID)
	}
	slices.Reverse(names)
	return names
}
