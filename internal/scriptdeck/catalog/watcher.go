package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"scriptdeck/internal/log"
)

// debounceWindow coalesces bursts of filesystem events into one reload
const debounceWindow = 500 * time.Millisecond

// Watch reloads the catalog whenever index.json changes on disk. It blocks
// until ctx is cancelled. onReload, if non-nil, runs after each successful
// reload.
func (r *Repository) Watch(ctx context.Context, onReload func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(r.baseDir); err != nil {
		return fmt.Errorf("failed to watch scripts directory: %w", err)
	}

	var debounce *time.Timer
	reloads := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != IndexFile {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceWindow, func() {
				select {
				case reloads <- struct{}{}:
				default:
				}
			})
		case <-reloads:
			if err := r.Reload(); err != nil {
				log.Error("Catalog reload failed: %v", err)
				continue
			}
			log.InfoH2("Catalog reloaded")
			if onReload != nil {
				onReload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("Watcher error: %v", err)
		}
	}
}
