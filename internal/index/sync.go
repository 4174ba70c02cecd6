package index

import (
	"log/slog"

	"github.com/starford/pulpitgraph/internal/checksum"
	"github.com/starford/pulpitgraph/internal/graph"
	"github.com/starford/pulpitgraph/internal/models"
	"github.com/starford/pulpitgraph/internal/parser"
)

// Entry is one library note together with its folder path.
type Entry struct {
	Note models.Note
	Path string
}

// Sync brings the index up to date with the library:
//   - new/changed notes are parsed and upserted
//   - notes no longer in the library are deleted from the index
//
// Wiki links are resolved against the whole library, so a rename that
// changes resolution re-indexes the linking note too.
func Sync(db NoteIndex, entries []Entry, logger *slog.Logger) error {
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	docs := make([]graph.Doc, len(entries))
	for i, e := range entries {
		docs[i] = graph.Doc{ID: e.Note.ID, Title: e.Note.Title, Path: e.Path, Content: e.Note.Content}
	}
	resolver := graph.NewResolver(docs)

	live := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		id := e.Note.ID
		live[id] = struct{}{}

		res := parser.Parse(e.Note.Content)
		links := resolveLinks(resolver, id, res.Links)
		cs := entryChecksum(e, links)
		if checksums[id] == cs {
			continue
		}

		title := e.Note.Title
		if title == "" {
			title = res.Title
		}
		row := NoteRow{
			ID:        id,
			Title:     title,
			FolderID:  models.Deref(e.Note.FolderID),
			Path:      e.Path,
			Checksum:  cs,
			Tags:      res.Tags,
			UpdatedAt: e.Note.UpdatedAt,
		}
		if err := db.UpsertNote(row, e.Note.Content, links); err != nil {
			logger.Warn("sync: index failed", slog.String("id", id), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("id", id))
		}
	}

	for id := range checksums {
		if _, ok := live[id]; ok {
			continue
		}
		if err := db.DeleteNote(id); err != nil {
			logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("id", id))
		}
	}
	return nil
}

// resolveLinks maps distinct wiki-link targets to note ids, dropping
// self links and unresolved targets.
func resolveLinks(r *graph.Resolver, source string, targets []string) []string {
	seen := make(map[string]struct{}, len(targets))
	var out []string
	for _, t := range targets {
		id, ok := r.Resolve(t)
		if !ok || id == source {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func entryChecksum(e Entry, links []string) string {
	return checksum.Fields(append([]string{
		e.Note.Title,
		e.Path,
		models.Deref(e.Note.FolderID),
		e.Note.Content,
	}, links...)...)
}
