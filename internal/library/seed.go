package library

import (
	"context"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/starford/pulpitgraph/internal/apperr"
	"github.com/starford/pulpitgraph/internal/models"
)

// SeedEntry is one note of a bulk-import document. Path is slash separated;
// its directory part becomes the folder chain. An empty Title falls back to
// the last path segment without extension.
type SeedEntry struct {
	Path    string `yaml:"path" json:"path"`
	Title   string `yaml:"title" json:"title"`
	Content string `yaml:"content" json:"content"`
}

// ParseSeed reads a YAML or JSON list of entries.
func ParseSeed(r io.Reader) ([]SeedEntry, error) {
	var entries []SeedEntry
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("library: parse seed: %w: %w", apperr.ErrValidation, err)
	}
	return entries, nil
}

// Seed imports entries into an empty library and reports whether it did.
// A library that already holds notes or folders is left untouched. Without
// entries the built-in starter library is used.
func (l *Library) Seed(_ context.Context, entries []SeedEntry) (bool, error) {
	folders, notes := l.buildSeed(entries)

	l.mu.Lock()
	if len(l.notes) > 0 || len(l.folders) > 0 {
		l.mu.Unlock()
		return false, nil
	}
	if err := l.saveFolders(folders); err != nil {
		l.mu.Unlock()
		return false, err
	}
	err := l.saveNotes(notes)
	l.mu.Unlock()

	changes := make([]Change, 0, len(folders)+len(notes))
	for _, f := range folders {
		changes = append(changes, Change{Entity: EntityFolder, Kind: KindCreated, ID: f.ID})
	}
	if err == nil {
		for _, n := range notes {
			changes = append(changes, Change{Entity: EntityNote, Kind: KindCreated, ID: n.ID})
		}
	}
	l.notify(changes...)
	return err == nil, err
}

func (l *Library) buildSeed(entries []SeedEntry) ([]models.Folder, []models.Note) {
	now := l.now().UTC()
	if len(entries) == 0 {
		return starterLibrary(now)
	}

	var folders []models.Folder
	byPath := map[string]string{}
	ensure := func(dir string) string {
		if dir == "" {
			return ""
		}
		segs := strings.Split(dir, "/")
		parent := ""
		for i := range segs {
			prefix := strings.Join(segs[:i+1], "/")
			if id, ok := byPath[prefix]; ok {
				parent = id
				continue
			}
			f := models.Folder{
				ID:       uuid.NewString(),
				Name:     segs[i],
				ParentID: models.StringPtr(parent),
				Expanded: i == 0,
			}
			folders = append(folders, f)
			byPath[prefix] = f.ID
			parent = f.ID
		}
		return parent
	}

	notes := make([]models.Note, 0, len(entries))
	for _, e := range entries {
		p := cleanSeedPath(e.Path)
		dir, file := path.Split(p)
		title := strings.TrimSpace(e.Title)
		if title == "" {
			title = strings.TrimSuffix(file, path.Ext(file))
		}
		if title == "" {
			title = UntitledNote
		}
		notes = append(notes, models.Note{
			ID:        uuid.NewString(),
			Title:     title,
			Content:   e.Content,
			FolderID:  models.StringPtr(ensure(strings.TrimSuffix(dir, "/"))),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return folders, notes
}

func cleanSeedPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	segs := slices.DeleteFunc(strings.Split(p, "/"), func(s string) bool {
		return s == "" || s == "." || s == ".."
	})
	return strings.Join(segs, "/")
}

const sampleNoteContent = "# The Grace of God\n\nIntroduction to the sermon on Grace.\n\n" +
	"## Key Points\n1. Grace is unmerited favor\n2. Grace empowers us\n\n" +
	"> \"For by grace you have been saved through faith...\" - Ephesians 2:8\n"

func starterLibrary(now time.Time) ([]models.Folder, []models.Note) {
	sermons := uuid.NewString()
	folders := []models.Folder{
		{ID: sermons, Name: "Sermons", Expanded: true},
		{ID: uuid.NewString(), Name: "Bible Studies", Expanded: true},
		{ID: uuid.NewString(), Name: "Devotionals"},
		{ID: uuid.NewString(), Name: "Series: Genesis", ParentID: models.StringPtr(sermons)},
	}
	notes := []models.Note{{
		ID:        uuid.NewString(),
		Title:     "The Grace of God",
		Content:   sampleNoteContent,
		FolderID:  models.StringPtr(sermons),
		CreatedAt: now,
		UpdatedAt: now,
	}}
	return folders, notes
}
