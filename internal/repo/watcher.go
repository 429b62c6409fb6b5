package repo

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"slate/internal/workspace"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch keeps the staging index in sync with the working tree: whenever an
// already-staged file is written, its digest is re-staged automatically.
// Files never staged are left alone. Blocks until ctx is cancelled.
func (r *Repository) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch every non-ignored directory; fsnotify does not recurse.
	err = filepath.WalkDir(r.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(r.Root, path)
		if err != nil {
			return nil
		}
		if rel != "." && workspace.ShouldIgnore(rel) {
			return fs.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("adding %s to watcher: %w", rel, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("initializing watcher: %w", err)
	}

	r.Logger.Info("watching working tree for changes to staged files")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			rel, err := filepath.Rel(r.Root, event.Name)
			if err != nil || workspace.ShouldIgnore(rel) {
				continue
			}
			if _, staged := r.Index.Lookup(rel); !staged {
				continue
			}
			result, err := r.Index.Stage(rel)
			if err != nil {
				r.Logger.Warn("failed to re-stage changed file",
					zap.String("path", rel),
					zap.Error(err))
				continue
			}
			if len(result.Updated) > 0 {
				r.Logger.Info("re-staged changed file", zap.String("path", rel))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.Logger.Warn("watcher error", zap.Error(err))
		}
	}
}
