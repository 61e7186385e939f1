package rules

import (
	"context"
	"github.com/fsnotify/fsnotify"
	"github.com/lni/dragonboat/v4/logger"
	"os"
	"path/filepath"
)

var Logger = logger.GetLogger("rules")

// Watch monitors the rule definition at path and calls r.Reload() every time
// the file is written, re-created or replaced by a rename. It blocks until ctx is cancelled.
//
// The directory of path is watched instead of the file itself, so the watch
// survives editors that save by writing a temporary file and renaming it.
//
// A failed reload is logged and the previously loaded rules stay active.
// onReload (optional) is called with the result of every reload attempt.
func Watch(ctx context.Context, path string, r Reloader, onReload func(err error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	path = filepath.Clean(path)
	if _, err := os.Stat(path); err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	Logger.Infof("watching %s for changes", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			err := r.Reload()
			if err != nil {
				Logger.Errorf("reload of %s failed, keeping previous rules: %v", path, err)
			} else {
				Logger.Infof("reloaded rules from %s", path)
			}
			if onReload != nil {
				onReload(err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			Logger.Errorf("watcher error: %v", err)
		}
	}
}
