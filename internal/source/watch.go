package source

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"tabula/internal/config"
)

// Change reports that the file behind a dialog was written, or that the
// watcher failed.
type Change struct {
	DialogID string
	Err      error
}

// Watcher follows the files of CSV dialogs that ask to be watched. It watches
// parent directories so editors that replace a file are still noticed.
type Watcher struct {
	fs      *fsnotify.Watcher
	files   map[string][]string
	changes chan Change
}

// NewWatcher starts watching every CSV dialog with watch set. It returns nil
// when no dialog asks for it.
func NewWatcher(dialogs []config.Dialog) (*Watcher, error) {
	files := map[string][]string{}
	for _, d := range dialogs {
		if d.Source.Kind != config.SourceCSV || !d.Source.Watch {
			continue
		}
		path := filepath.Clean(d.Source.Path)
		files[path] = append(files[path], d.ID)
	}
	if len(files) == 0 {
		return nil, nil
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	dirs := map[string]bool{}
	for path := range files {
		dir := filepath.Dir(path)
		if dirs[dir] {
			continue
		}
		if err := fs.Add(dir); err != nil {
			fs.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	w := &Watcher{fs: fs, files: files, changes: make(chan Change, 16)}
	go w.loop()
	return w, nil
}

// Changes delivers one Change per dialog per relevant file event. It is
// closed by Close.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) loop() {
	defer close(w.changes)
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			for _, id := range w.files[filepath.Clean(event.Name)] {
				w.changes <- Change{DialogID: id}
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.changes <- Change{Err: err}
		}
	}
}
