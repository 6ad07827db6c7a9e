package overrides

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/rtgeom/engine/containers"
	"github.com/spaghettifunk/rtgeom/engine/core"
)

const maxPendingChanges = 256

/**
 * @brief Watches a textures folder and all its sub-folders. Changed override
 * files are collected until the next Drain, which is meant to be called once
 * per frame.
 */
type Watcher struct {
	root string

	mutex    sync.Mutex
	pending  *containers.RingQueue[string]
	isClosed bool

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
}

func NewWatcher(texturesPath string) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	root, err := filepath.Abs(texturesPath)
	if err != nil {
		fsWatch.Close()
		return nil, err
	}

	w := &Watcher{
		root:     root,
		pending:  containers.NewRingQueue[string](maxPendingChanges),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	if err := w.watchRecursive(root); err != nil {
		fsWatch.Close()
		return nil, err
	}

	go w.start()
	return w, nil
}

func (w *Watcher) start() {
	defer close(w.stopped)
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s.IsDir() {
				if e.Has(fsnotify.Create) {
					if err := w.watchRecursive(e.Name); err != nil {
						core.LogWarn("Could not watch %q: %s", e.Name, err.Error())
					}
				}
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.handleFileEvent(e.Name)
			}

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-w.done:
			return
		}
	}
}

// watchRecursive adds all directories under the given one to the watch list.
func (w *Watcher) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return w.fsnotify.Add(walkPath)
		}
		return nil
	})
}

func (w *Watcher) handleFileEvent(path string) {
	switch filepath.Ext(path) {
	case KTX2Extension, DevExtension:
	default:
		return
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.pending.Push(path) {
		core.LogWarn("Too many texture changes pending, the oldest one was dropped")
	}
}

// Drain returns the changed files since the last call, as absolute paths.
func (w *Watcher) Drain() []string {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	var changed []string
	seen := make(map[string]bool)
	for !w.pending.IsEmpty() {
		p, _ := w.pending.Dequeue()
		if !seen[p] {
			seen[p] = true
			changed = append(changed, p)
		}
	}
	return changed
}

// Invalidate drains the pending changes and drops them from the loader
// cache. It returns the drained paths relative to the watched folder.
func (w *Watcher) Invalidate(l Loader) []string {
	changed := w.Drain()
	relative := make([]string, 0, len(changed))
	for _, p := range changed {
		Invalidate(l, p)
		if rel, err := filepath.Rel(w.root, p); err == nil && !strings.HasPrefix(rel, "..") {
			p = rel
		}
		relative = append(relative, p)
	}
	return relative
}

func (w *Watcher) Close() error {
	w.mutex.Lock()
	if w.isClosed {
		w.mutex.Unlock()
		return errors.New("texture watcher already closed")
	}
	w.isClosed = true
	w.mutex.Unlock()

	close(w.done)
	<-w.stopped
	return w.fsnotify.Close()
}
