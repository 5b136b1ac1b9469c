// Package filewatcher monitors the document drop directory so files copied
// in are ingested without an upload call.
package filewatcher

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/0xcro3dile/docchat-go/internal/domain/ports"
)

// Watcher implements ports.FileWatcher using fsnotify.
type Watcher struct {
	watcher    *fsnotify.Watcher
	extensions []string
	log        *zap.Logger
}

// New creates a watcher for the given file extensions (defaults to the
// ingestable formats).
func New(extensions []string, log *zap.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if len(extensions) == 0 {
		extensions = []string{".txt", ".pdf"}
	}
	return &Watcher{watcher: w, extensions: extensions, log: log}, nil
}

// Watch starts monitoring dir and emits events until ctx is canceled.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan ports.FileEvent, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	events := make(chan ports.FileEvent, 100)
	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.watched(event.Name) {
					continue
				}
				var op ports.FileOperation
				switch {
				case event.Op.Has(fsnotify.Create):
					op = ports.FileCreated
				case event.Op.Has(fsnotify.Write):
					op = ports.FileModified
				case event.Op.Has(fsnotify.Remove):
					op = ports.FileDeleted
				default:
					continue
				}
				select {
				case events <- ports.FileEvent{Path: event.Name, Operation: op}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.log.Warn("watch error", zap.Error(err))
			}
		}
	}()
	return events, nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) watched(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
