package conf

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/DevRickLin/wingman/internal/biz/domain"
)

// WatchPersonalities reloads the personalities file whenever it changes and hands
// the parsed catalog to onChange. Invalid documents are logged and ignored.
// It blocks until ctx is done.
func WatchPersonalities(ctx context.Context, path string, onChange func(*domain.Catalog), log zerolog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace files by rename, so watch the directory
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(path)
	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounce = time.After(100 * time.Millisecond)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Personality watcher error")
		case <-debounce:
			debounce = nil
			catalog, err := LoadPersonalities(path)
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("Ignoring invalid personalities file")
				continue
			}
			onChange(catalog)
			log.Info().Str("path", path).Int("count", len(catalog.Names())).Msg("Personalities reloaded")
		}
	}
}
