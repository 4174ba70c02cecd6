package internal

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/pulpitgraph/internal/library"
	"github.com/starford/pulpitgraph/internal/storage"
)

func importConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Storage.Driver = storage.DriverSQLite
	cfg.Storage.Path = filepath.Join(dir, "store.db")
	cfg.Index.Path = filepath.Join(dir, "index.db")
	return cfg
}

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImport_EmptyStore(t *testing.T) {
	cfg := importConfig(t)
	seed := writeSeed(t, `
- path: Romans/Grace.md
  content: "Saved by grace. See [[Faith]]."
- path: Romans/Faith.md
  title: Faith
  content: "Faith comes by hearing."
`)
	ctx := context.Background()
	if err := Import(ctx, seed, WithConfig(cfg), WithLogOutput(io.Discard)); err != nil {
		t.Fatalf("import: %v", err)
	}

	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.(io.Closer).Close()
	lib, err := library.New(store, nil)
	if err != nil {
		t.Fatal(err)
	}
	notes := lib.ListNotes(ctx, "")
	if len(notes) != 2 {
		t.Fatalf("notes = %d, want 2", len(notes))
	}
}

func TestImport_RefusesNonEmptyStore(t *testing.T) {
	cfg := importConfig(t)
	seed := writeSeed(t, "- path: One.md\n  content: one\n")
	ctx := context.Background()
	opts := []Option{WithConfig(cfg), WithLogOutput(io.Discard)}

	if err := Import(ctx, seed, opts...); err != nil {
		t.Fatalf("first import: %v", err)
	}
	err := Import(ctx, seed, opts...)
	if !errors.Is(err, ErrNotEmpty) {
		t.Fatalf("second import error = %v, want ErrNotEmpty", err)
	}
}

func TestImport_RequiresConfig(t *testing.T) {
	if err := Import(context.Background(), "seed.yaml"); err == nil {
		t.Fatal("import without config should fail")
	}
}
