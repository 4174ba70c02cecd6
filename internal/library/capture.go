package library

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/pulpitgraph/internal/apperr"
	"github.com/starford/pulpitgraph/internal/models"
)

// NoFolder is the folder choice meaning "file at the root".
const NoFolder = "none"

// QuickCapture creates a note from a title and optional body. The title is
// required; an empty body becomes a level-one heading of the title.
func (l *Library) QuickCapture(ctx context.Context, title, content, folderID string) (models.Note, error) {
	title = strings.TrimSpace(title)
	if err := validation.Validate(title, validation.Required.Error("title is required")); err != nil {
		return models.Note{}, fmt.Errorf("library: capture: %w: %w", apperr.ErrValidation, err)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		content = "# " + title + "\n\n"
	}
	if folderID == NoFolder {
		folderID = ""
	}
	return l.CreateNote(ctx, NoteInput{Title: title, Content: content, FolderID: folderID})
}
