package session

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// videoExtensions are the container formats the external recorder may emit.
var videoExtensions = map[string]bool{
	".mp4": true,
	".mkv": true,
	".mov": true,
	".flv": true,
}

// videoWatcher observes a session directory for the video file the external
// recorder writes into it.
type videoWatcher struct {
	watcher *fsnotify.Watcher

	mu   sync.Mutex
	file string

	done chan struct{}
}

func watchVideo(dir string) (*videoWatcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	w := &videoWatcher{watcher: fsWatcher, done: make(chan struct{})}
	go w.run()
	return w, nil
}

func (w *videoWatcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			name := filepath.Base(event.Name)
			if !videoExtensions[strings.ToLower(filepath.Ext(name))] {
				continue
			}
			w.mu.Lock()
			w.file = name
			w.mu.Unlock()
			slog.Debug("Video file detected", "file", name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Debug("Video watcher error", "error", err)
		}
	}
}

// File returns the last observed video file name, or empty.
func (w *videoWatcher) File() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file
}

// Close stops watching. Safe to call once.
func (w *videoWatcher) Close() {
	w.watcher.Close()
	<-w.done
}
