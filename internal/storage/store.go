// Package storage defines the key-value persistence port and its drivers.
package storage

import (
	"fmt"
	"regexp"
	"strings"
)

// Store is the persistence port injected into the library and diagram layers.
// Values are opaque byte strings, usually JSON documents.
type Store interface {
	// Get returns the value stored under key, or an error wrapping
	// apperr.ErrNotFound when the key is absent.
	Get(key string) ([]byte, error)
	// Set stores value under key, replacing any prior value.
	Set(key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
	// Keys lists every key starting with prefix, sorted.
	Keys(prefix string) ([]string, error)
}

// Driver names accepted by Open.
const (
	DriverFS     = "fs"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

var keySegmentRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidateKey rejects empty keys and keys whose slash-separated segments
// contain anything but letters, digits, dot, underscore or dash.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("storage: empty key")
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." || !keySegmentRe.MatchString(seg) {
			return fmt.Errorf("storage: invalid key %q", key)
		}
	}
	return nil
}

// Open returns the Store for driver rooted at path. The memory driver ignores path.
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverFS:
		return NewFS(path)
	case DriverSQLite:
		return OpenSQLite(path)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", driver)
	}
}
