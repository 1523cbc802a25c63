package indexer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce batches the burst of write events a single transcript
// append produces into one RunDeep call, mirroring forge's
// shell_watcher.go debounce timer.
const watchDebounce = 300 * time.Millisecond

// Watch runs RunShallow/RunDeep once, then watches rootDir for new or
// changed session files and re-runs RunDeep after each debounced burst
// of fsnotify events, until ctx is canceled.
func (idx *Indexer) Watch(ctx context.Context, rootDir string) error {
	if err := idx.RunShallow(ctx, rootDir); err != nil {
		return err
	}
	if err := idx.RunDeep(ctx, rootDir); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addProjectDirs(w, rootDir); err != nil {
		return err
	}

	var debounceTimer *time.Timer
	rerun := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return ctx.Err()

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Ext(event.Name) != ".jsonl" {
				// A newly created project directory needs its own watch.
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if err := w.Add(event.Name); err != nil {
						slog.Debug("indexer: watch new project dir", "path", event.Name, "err", err)
					}
				}
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounce, func() {
				select {
				case rerun <- struct{}{}:
				default:
				}
			})

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("indexer: watch error", "err", err)

		case <-rerun:
			if err := idx.RunDeep(ctx, rootDir); err != nil {
				return err
			}
		}
	}
}

// addProjectDirs subscribes the watcher to rootDir and every existing
// project subdirectory, since fsnotify is not recursive.
func addProjectDirs(w *fsnotify.Watcher, rootDir string) error {
	if err := w.Add(rootDir); err != nil {
		return err
	}
	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := w.Add(filepath.Join(rootDir, e.Name())); err != nil {
				slog.Debug("indexer: watch project dir", "dir", e.Name(), "err", err)
			}
		}
	}
	return nil
}
