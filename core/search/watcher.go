package search

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// ChangeKind classifies a workspace file change.
type ChangeKind string

const (
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// ChangeEvent is one observed workspace change, with the path relative to
// the watch root.
type ChangeEvent struct {
	Path string
	Kind ChangeKind
}

// Watcher observes a workspace tree and reports file changes. New
// directories are added to the watch set as they appear.
type Watcher struct {
	root    string
	watcher *fsnotify.Watcher
	events  chan ChangeEvent
	done    chan struct{}
	logger  *slog.Logger
}

// NewWatcher starts watching root and every non-excluded directory under it.
func NewWatcher(root string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}

	w := &Watcher{
		root:    absRoot,
		watcher: fw,
		events:  make(chan ChangeEvent, 128),
		done:    make(chan struct{}),
		logger:  logger,
	}

	if err := w.addTree(absRoot); err != nil {
		fw.Close()
		return nil, err
	}

	go w.run()
	return w, nil
}

// Events returns the change stream. The channel is closed by Close.
func (w *Watcher) Events() <-chan ChangeEvent {
	return w.events
}

// Close stops the watcher and closes the event channel.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

// addTree registers root and all non-excluded subdirectories.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || !entry.IsDir() {
			return nil
		}
		if path != root && defaultExcludedDirs[entry.Name()] {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) run() {
	defer close(w.done)
	defer close(w.events)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	switch {
	case event.Op.Has(fsnotify.Create):
		// A created directory joins the watch set; a created file is a
		// modification from the index's point of view.
		if w.maybeWatchDir(event.Name) {
			return
		}
		w.emit(ChangeEvent{Path: rel, Kind: ChangeModified})
	case event.Op.Has(fsnotify.Write):
		w.emit(ChangeEvent{Path: rel, Kind: ChangeModified})
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		w.emit(ChangeEvent{Path: rel, Kind: ChangeRemoved})
	}
}

// maybeWatchDir adds path to the watch set when it is a directory and
// reports whether it was one.
func (w *Watcher) maybeWatchDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	if defaultExcludedDirs[filepath.Base(path)] {
		return true
	}
	if err := w.addTree(path); err != nil {
		w.logger.Warn("failed to watch new directory", "path", path, "error", err)
	}
	return true
}

// emit drops events when the consumer lags rather than block the watch loop.
func (w *Watcher) emit(event ChangeEvent) {
	select {
	case w.events <- event:
	default:
		w.logger.Debug("dropping change event", "path", event.Path)
	}
}
