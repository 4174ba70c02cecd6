package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/pulpitgraph/internal/apperr"
)

func tempFS(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestFS_SetAndGet(t *testing.T) {
	s := tempFS(t)
	value := []byte(`[{"id":"1"}]`)
	if err := s.Set("notes", value); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get("notes")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(value) {
		t.Errorf("value mismatch: got %q", got)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "notes.json")); err != nil {
		t.Errorf("expected notes.json on disk: %v", err)
	}
}

func TestFS_NestedKeys(t *testing.T) {
	s := tempFS(t)
	_ = s.Set("diagrams/a", []byte("{}"))
	_ = s.Set("diagrams/b", []byte("{}"))
	_ = s.Set("notes", []byte("[]"))

	keys, err := s.Keys("diagrams/")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "diagrams/a" || keys[1] != "diagrams/b" {
		t.Errorf("keys = %v", keys)
	}
}

func TestFS_GetMissing(t *testing.T) {
	s := tempFS(t)
	_, err := s.Get("nope")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFS_DeleteIdempotent(t *testing.T) {
	s := tempFS(t)
	_ = s.Set("gone", []byte("x"))
	if err := s.Delete("gone"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete("gone"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if _, err := s.Get("gone"); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("expected ErrNotFound after delete")
	}
}

func TestFS_RejectsTraversal(t *testing.T) {
	s := tempFS(t)
	for _, key := range []string{"../escape", "a/../../b", "", "/abs", "a//b", "sp ace"} {
		if err := s.Set(key, []byte("x")); err == nil {
			t.Errorf("Set(%q) should fail", key)
		}
	}
}

func TestFS_ForeignDetection(t *testing.T) {
	s := tempFS(t)
	_ = s.Set("notes", []byte("[]"))
	if s.Foreign("notes") {
		t.Fatal("own write reported as foreign")
	}
	_ = os.WriteFile(filepath.Join(s.Root(), "notes.json"), []byte(`[{"id":"x"}]`), 0o644)
	if !s.Foreign("notes") {
		t.Error("external write not reported as foreign")
	}
}

func TestWatch_ReportsForeignWrites(t *testing.T) {
	s := tempFS(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var seen []string
	go Watch(ctx, s, logger, func(keys []string) {
		mu.Lock()
		seen = append(seen, keys...)
		mu.Unlock()
	})
	time.Sleep(100 * time.Millisecond)

	_ = s.Set("own", []byte("mine"))
	_ = os.WriteFile(filepath.Join(s.Root(), "folders.json"), []byte("[]"), 0o644)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != "folders" {
		t.Errorf("seen = %v, want [folders]", seen)
	}
}
