package storage

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeCallback receives the keys changed on disk by another process since
// the previous call.
type ChangeCallback func(keys []string)

const settleDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the FS store root and reports foreign
// document changes until ctx is cancelled. Bursts of events are coalesced:
// cb runs once the directory has been quiet for a short settle delay.
// Writes made through f itself are filtered out.
func Watch(ctx context.Context, f *FS, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, f.root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", f.root))

	pending := make(map[string]struct{})
	var settle *time.Timer
	var settleCh <-chan time.Time

	schedule := func() {
		if settle == nil {
			settle = time.NewTimer(settleDelay)
			settleCh = settle.C
		} else {
			settle.Reset(settleDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settle != nil {
				settle.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-settleCh:
			var keys []string
			for k := range pending {
				if f.Foreign(k) {
					keys = append(keys, k)
				}
			}
			clear(pending)
			if len(keys) > 0 {
				logger.Debug("watcher: foreign change", slog.Int("keys", len(keys)))
				if cb != nil {
					cb(keys)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					continue
				}
			}

			key, ok := f.KeyFor(ev.Name)
			if !ok {
				continue
			}
			pending[key] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
