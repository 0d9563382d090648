package store

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/ridealert/go-helmet-api/events"
	"github.com/ridealert/go-helmet-api/logger"
)

// watcher emits store.changed events when a record file is touched from
// outside the daemon (manual edits, backup restores). Only one session is
// assumed active, so this is informational, not a consistency mechanism.
type watcher struct {
	dir    string
	out    chan<- events.Event
	cancel context.CancelFunc
}

func newWatcher(dir string, out chan<- events.Event) *watcher {
	return &watcher{dir: dir, out: out}
}

func (w *watcher) start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := fsw.Add(w.dir); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Info("[store] failed to close watcher: %v", closeErr)
		}
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	logger.Info("[store] watching %s", w.dir)
	go w.listen(watchCtx, fsw)

	return nil
}

func (w *watcher) stop() {
	if w.cancel != nil {
		w.cancel()
	}
}

func (w *watcher) listen(ctx context.Context, fsw *fsnotify.Watcher) {
	defer func() {
		if err := fsw.Close(); err != nil {
			logger.Warn("[store] failed to close watcher: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.dispatch(event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("[store] watcher error: %v", err)
		}
	}
}

func (w *watcher) dispatch(event fsnotify.Event) {
	key := filepath.Base(event.Name)
	// Atomic writes go through a temp file; the rename to the final name
	// is the event that matters.
	if strings.HasSuffix(key, ".tmp") {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	logger.Debug("[store] record %s changed on disk", key)
	select {
	case w.out <- events.Event{Type: events.TypeStoreChanged, Data: key}:
	default:
		logger.Warn("[store] event channel full, dropping change for %s", key)
	}
}
