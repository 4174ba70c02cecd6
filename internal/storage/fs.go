package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/starford/pulpitgraph/internal/apperr"
	"github.com/starford/pulpitgraph/internal/checksum"
)

const fileExt = ".json"

// FS implements Store with one JSON file per key under a root directory.
// The key "diagrams/42" lives at <root>/diagrams/42.json.
type FS struct {
	root string // absolute path to data directory

	mu      sync.Mutex
	written map[string]string // key -> checksum of our last write
}

// NewFS creates a new FS store rooted at the given directory, creating it
// when missing.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs, written: make(map[string]string)}, nil
}

// Root returns the absolute data directory.
func (f *FS) Root() string {
	return f.root
}

// keyPath maps a key to its file and rejects any result that escapes root.
func (f *FS) keyPath(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	abs := filepath.Join(f.root, filepath.FromSlash(key)+fileExt)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: key escapes data root: %s", key)
	}
	return abs, nil
}

// KeyFor maps an absolute file path back to its key. ok is false for files
// that are not store documents (temp files, foreign extensions).
func (f *FS) KeyFor(path string) (string, bool) {
	rel, err := filepath.Rel(f.root, path)
	if err != nil || !strings.HasSuffix(rel, fileExt) {
		return "", false
	}
	key := filepath.ToSlash(strings.TrimSuffix(rel, fileExt))
	if ValidateKey(key) != nil {
		return "", false
	}
	return key, true
}

// Get reads the document stored under key.
func (f *FS) Get(key string) ([]byte, error) {
	abs, err := f.keyPath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("storage: get %s: %w", key, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("storage: get %s: %w", key, err)
	}
	return data, nil
}

// Set atomically writes value: tmp file → fsync → rename.
func (f *FS) Set(key string, value []byte) error {
	abs, err := f.keyPath(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".pulpit-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(value); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}

	// Record before the rename so a watcher never sees our own write as foreign.
	f.mu.Lock()
	f.written[key] = checksum.Sum(value)
	f.mu.Unlock()

	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes the document for key.
func (f *FS) Delete(key string) error {
	abs, err := f.keyPath(key)
	if err != nil {
		return err
	}
	f.mu.Lock()
	delete(f.written, key)
	f.mu.Unlock()
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

// Keys walks the data directory and returns every key under prefix.
func (f *FS) Keys(prefix string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		key, ok := f.KeyFor(p)
		if ok && strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: keys: %w", err)
	}
	sort.Strings(out)
	return out, nil
}

// Foreign reports whether the current file content for key differs from the
// last value this process wrote, i.e. it was changed by someone else.
func (f *FS) Foreign(key string) bool {
	abs, err := f.keyPath(key)
	if err != nil {
		return false
	}
	data, err := os.ReadFile(abs)
	f.mu.Lock()
	defer f.mu.Unlock()
	last, known := f.written[key]
	if err != nil {
		// Gone: foreign unless we deleted it ourselves.
		return known
	}
	return !known || last != checksum.Sum(data)
}
