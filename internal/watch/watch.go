// Package watch monitors a single document file and reports debounced
// change notifications, so the outline can follow edits made outside the
// service.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the bursts of write events editors emit for
// a single save.
const DefaultDebounce = 200 * time.Millisecond

// Watch watches path until ctx is cancelled and calls onChange after
// each debounced burst of modifications. The containing directory is
// watched rather than the file itself, since many editors replace files
// by rename on save.
func Watch(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, onChange func()) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("path", abs))

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time

	schedule := func() {
		if debounceTimer == nil {
			debounceTimer = time.NewTimer(debounce)
			debounceCh = debounceTimer.C
		} else {
			debounceTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-debounceCh:
			onChange()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0:
				schedule()
			case ev.Op&fsnotify.Remove != 0:
				// The file may reappear (atomic-save editors remove then
				// recreate); keep watching the directory.
				logger.Warn("watcher: file removed", slog.String("path", abs))
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: error", slog.String("error", err.Error()))
		}
	}
}
