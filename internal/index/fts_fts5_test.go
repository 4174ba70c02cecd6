//go:build sqlite_fts5

package index

import (
	"strings"
	"testing"
	"time"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes_fts`).Scan(&count); err != nil {
		t.Fatalf("notes_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	row := NoteRow{
		ID:        "fts",
		Title:     "Mercy",
		Path:      "Bible Studies/Mercy",
		Checksum:  "f1",
		Tags:      []string{"mercy"},
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertNote(row, "His mercies are new every morning.", nil); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}

	results, err := db.Search("morning", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Path != "Bible Studies/Mercy" {
		t.Errorf("path = %q", results[0].Path)
	}
	if !strings.Contains(results[0].Snippet, "<b>morning</b>") {
		t.Errorf("snippet = %q", results[0].Snippet)
	}
}

func TestFTS5_QueryIsQuoted(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{ID: "q", Title: "Q", Checksum: "1", UpdatedAt: time.Now()}, "faith AND works", nil)

	if _, err := db.Search(`faith" OR works`, 10); err != nil {
		t.Fatalf("Search with FTS syntax characters: %v", err)
	}
	if got := matchQuery(`a "b"`); got != `"a" """b"""` {
		t.Errorf("matchQuery = %q", got)
	}
}

func TestFTS5_DeleteRemovesEntry(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{ID: "d", Title: "D", Checksum: "1", UpdatedAt: time.Now()}, "ephemeral", nil)
	_ = db.DeleteNote("d")
	results, err := db.Search("ephemeral", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results after delete, got %d", len(results))
	}
}
