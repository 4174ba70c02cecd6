package index

// NoteIndex is the index surface used by Sync and the note service.
type NoteIndex interface {
	UpsertNote(n NoteRow, body string, links []string) error
	DeleteNote(id string) error
	AllChecksums() (map[string]string, error)
	Search(query string, limit int) ([]SearchResult, error)
	Backlinks(id string) ([]string, error)
}

var _ NoteIndex = (*DB)(nil)
