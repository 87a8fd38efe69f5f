package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
)

// watchDebounceInterval settles editor write bursts (truncate + write +
// rename sequences) into a single reload.
const watchDebounceInterval = 250 * time.Millisecond

// Watch observes the store's backing file for external edits and invokes
// onChange after each settled burst of changes. The store's own saves are
// recognized by content checksum and skipped. Blocks until ctx is done or
// the watcher fails.
func (s *Store) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: atomic saves replace the file by
	// rename, which would silently detach a file-level watch.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("config watch %q: %w", dir, err)
	}

	target := filepath.Base(s.path)
	debounced := debounce.New(watchDebounceInterval)
	slog.Debug("[DEBUG-CONFIG] config watcher started", "dir", dir, "file", target)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watchRelevant(event, target) {
				continue
			}
			debounced(func() { s.handleFileChange(onChange) })
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("[config] watcher error", "error", watchErr)
		}
	}
}

// watchRelevant filters directory events down to mutations of the config
// file itself. Renames matter because atomic writes land via rename.
func watchRelevant(event fsnotify.Event, target string) bool {
	if filepath.Base(event.Name) != target {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// handleFileChange re-checks the file content and forwards genuine external
// edits to onChange.
func (s *Store) handleFileChange(onChange func()) {
	raw, err := readLimitedFile(s.path, maxConfigFileBytes)
	if err != nil {
		slog.Warn("[config] failed to read config after change event", "path", s.path, "error", err)
		return
	}
	if s.IsSelfWrite(raw) {
		slog.Debug("[DEBUG-CONFIG] ignoring own config write")
		return
	}
	slog.Info("[config] external config change detected", "path", s.path)
	if onChange != nil {
		onChange()
	}
}
