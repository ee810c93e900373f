package corpus

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ppiankov/selah/internal/logging"
)

const defaultDebounce = 500 * time.Millisecond

// Watch reloads store whenever the file at path is written, created or
// renamed. Events inside the debounce window are coalesced into one reload.
// The parent directory is watched so editors that replace the file are seen.
// Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, store *Store, path string, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch: resolve %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watch: add %s: %w", filepath.Dir(abs), err)
	}

	logger := logging.Default()

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := store.Reload(ctx); err != nil {
			logger.Error("corpus reload failed", "path", abs, "error", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Warn("watch: close fsnotify", "error", closeErr)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("watch: fsnotify event channel closed unexpectedly")
			}
			if filepath.Clean(evt.Name) != abs {
				continue
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("corpus changed", "path", abs, "op", evt.Op.String())

			mu.Lock()
			if timer == nil {
				timer = time.AfterFunc(debounce, reload)
			} else {
				timer.Reset(debounce)
			}
			mu.Unlock()

		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("watch: fsnotify error channel closed unexpectedly")
			}
			logger.Warn("watch: fsnotify error", "error", err)
		}
	}
}
