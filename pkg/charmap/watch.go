package charmap

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads layout files as they appear or change on disk and posts the
// affected layout code onto the returned channel, so the consumer can refresh
// labels if the changed layout is the selected one. The goroutine exits when
// ctx is cancelled.
func (r *Registry) Watch(ctx context.Context, dir string) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create layouts watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch layouts dir: %w", err)
	}

	changed := make(chan string, 4)

	go func() {
		defer watcher.Close()
		defer close(changed)

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				name := filepath.Base(event.Name)
				if !strings.HasSuffix(name, ".json") {
					continue
				}
				code := strings.TrimSuffix(name, ".json")
				if err := r.LoadFile(code, event.Name); err != nil {
					r.log.Warnw("reloading layout file failed", "file", name, "error", err)
					continue
				}
				r.log.Infow("layout file reloaded", "layout", code)
				select {
				case changed <- code:
				case <-ctx.Done():
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.log.Warnw("layouts watcher error", "error", err)
			}
		}
	}()

	return changed, nil
}
