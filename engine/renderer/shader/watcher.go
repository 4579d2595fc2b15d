package shader

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-quads/common"
	"github.com/fsnotify/fsnotify"
)

// watcher is the implementation of the Watcher interface.
type watcher struct {
	mu      *sync.Mutex
	fs      *fsnotify.Watcher
	files   map[string]bool
	pending map[string]bool
	done    chan struct{}
}

// Watcher reports shader source files that changed on disk. Events are collected on a
// background goroutine and handed over through Changed, so callers on the render thread
// never block on the filesystem.
type Watcher interface {
	// Add starts watching a shader source file. The file's directory is watched so editors that
	// save by renaming a temporary file are still seen.
	//
	// Parameters:
	//   - path: the shader file to watch
	//
	// Returns:
	//   - error: an error if the directory cannot be watched
	Add(path string) error

	// Changed returns the watched files written since the previous call, sorted, and clears the list.
	//
	// Returns:
	//   - []string: absolute paths of changed files, or nil
	Changed() []string

	// Close stops the watcher and its goroutine.
	Close() error
}

var _ Watcher = &watcher{}

// NewWatcher creates a Watcher with no files.
//
// Returns:
//   - Watcher: the watcher
//   - error: an error if the OS watcher could not be created
func NewWatcher() (Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create shader watcher: %w", err)
	}
	w := &watcher{
		mu:      &sync.Mutex{},
		fs:      fs,
		files:   make(map[string]bool),
		pending: make(map[string]bool),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve shader path %q: %w", path, err)
	}
	w.mu.Lock()
	w.files[abs] = true
	w.mu.Unlock()
	if err := w.fs.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", filepath.Dir(abs), err)
	}
	return nil
}

func (w *watcher) Changed() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	out := make([]string, 0, len(w.pending))
	for p := range w.pending {
		out = append(out, p)
	}
	clear(w.pending)
	sort.Strings(out)
	return out
}

func (w *watcher) Close() error {
	close(w.done)
	return w.fs.Close()
}

func (w *watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.record(event.Name)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			common.Logger().Warn("shader watcher error", "error", err)
		}
	}
}

func (w *watcher) record(name string) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.files[abs] {
		w.pending[abs] = true
	}
}
