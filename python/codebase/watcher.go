package codebase

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tliron/commonlog"
)

// FileWatcher keeps a Codebase in sync with the filesystem. Change events
// are debounced per file so that editors writing in several bursts trigger
// one reparse.
type FileWatcher struct {
	codebase *Codebase
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	wg       sync.WaitGroup
	log      commonlog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func NewFileWatcher(c *Codebase) (*FileWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &FileWatcher{
		codebase: c,
		watcher:  fsw,
		stopCh:   make(chan struct{}),
		log:      commonlog.GetLogger("jedi.watcher"),
		pending:  make(map[string]*time.Timer),
	}, nil
}

func (w *FileWatcher) Start() error {
	if err := w.watchTree(w.codebase.RootDir()); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.run()
	return nil
}

func (w *FileWatcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
	w.wg.Wait()

	w.mu.Lock()
	for _, timer := range w.pending {
		timer.Stop()
	}
	w.pending = make(map[string]*time.Timer)
	w.mu.Unlock()
}

func (w *FileWatcher) watchTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && w.codebase.skipDir(info.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *FileWatcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warningf("watch error: %s", err)
		}
	}
}

func (w *FileWatcher) handle(ev fsnotify.Event) {
	switch {
	case ev.Has(fsnotify.Create):
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if !w.codebase.skipDir(filepath.Base(ev.Name)) {
				w.watchTree(ev.Name)
				w.scanTree(ev.Name)
			}
			return
		}
		w.schedule(ev.Name)
	case ev.Has(fsnotify.Write):
		w.schedule(ev.Name)
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		if filepath.Ext(ev.Name) == ".py" {
			w.codebase.RemoveFile(ev.Name)
		}
	}
}

func (w *FileWatcher) scanTree(root string) {
	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if filepath.Ext(path) == ".py" {
			w.codebase.ScanFile(path)
		}
		return nil
	})
}

// schedule queues one reparse of path after the debounce window; further
// events within the window push the deadline out.
func (w *FileWatcher) schedule(path string) {
	if filepath.Ext(path) != ".py" {
		return
	}
	debounce := w.codebase.Config().Debounce()

	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[path]; ok {
		timer.Reset(debounce)
		return
	}
	w.pending[path] = time.AfterFunc(debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if err := w.codebase.ScanFile(path); err != nil {
			w.log.Debugf("scan %s: %s", path, err)
		}
	})
}
