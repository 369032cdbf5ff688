package store

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/sqve/avalanche/internal/errors"
	"github.com/sqve/avalanche/internal/fs"
	"github.com/sqve/avalanche/internal/logger"
)

// Watch observes the store directory rather than the file itself, since
// atomic saves replace the file. onChange only fires when the decoded state
// differs from the last one seen.
func (s *FileStore) Watch(ctx context.Context, project string, onChange func(State)) error {
	log := logger.WithComponent("store")
	path := s.Path(project)

	if err := s.fsys.MkdirAll(s.dir, fs.DirStrict); err != nil {
		return errors.ErrStoreIO(s.dir, err)
	}

	last, err := s.Load(ctx, project)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.ErrStoreIO(s.dir, err)
	}
	if err := watcher.Add(s.dir); err != nil {
		_ = watcher.Close()
		return errors.ErrStoreIO(s.dir, err)
	}

	go func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path || !event.Has(fsnotify.Create|fsnotify.Write|fsnotify.Rename) {
					continue
				}
				state, err := s.Load(ctx, project)
				if err != nil {
					log.Warn("ignoring unreadable state file", "path", path, "error", err)
					continue
				}
				if state.Equal(last) {
					continue
				}
				last = state
				log.Debug("state changed on disk", "path", path)
				onChange(state)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("state watch error", "path", path, "error", err)
			}
		}
	}()

	return nil
}
