package script

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lixenwraith/vi-runtime/core"
	"github.com/lixenwraith/vi-runtime/event"
	"github.com/lixenwraith/vi-runtime/log"
)

// DefaultDebounce collapses the write bursts editors produce on save
const DefaultDebounce = 200 * time.Millisecond

// Watcher reports modified .lua files under a directory tree as EventScriptChanged
// It never touches the VM; the loop applies reloads when it drains the dispatcher
type Watcher struct {
	root       string
	dispatcher *event.Dispatcher
	logger     log.Logger
	debounce   time.Duration

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher watches root and its subdirectories
func NewWatcher(root string, dispatcher *event.Dispatcher, logger log.Logger, debounce time.Duration) (*Watcher, error) {
	if logger == nil {
		logger = log.Nop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create script watcher: %w", err)
	}

	w := &Watcher{
		root:       filepath.Clean(root),
		dispatcher: dispatcher,
		logger:     logger.Named("watcher"),
		debounce:   debounce,
		fsw:        fsw,
		pending:    make(map[string]*time.Timer),
		done:       make(chan struct{}),
	}

	err = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}

	return w, nil
}

// Start begins forwarding change events
func (w *Watcher) Start() {
	w.wg.Add(1)
	core.Go(func() {
		defer w.wg.Done()
		w.loop()
	})
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("script watcher error", log.Err(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(ev.Name); err != nil {
				w.logger.Warn("watch new directory failed", log.String("dir", ev.Name), log.Err(err))
			}
			return
		}
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}
	if !strings.HasSuffix(ev.Name, ".lua") {
		return
	}

	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.schedule(rel)
}

// schedule rearms the debounce timer for rel; caller holds w.mu
func (w *Watcher) schedule(rel string) {
	if t, ok := w.pending[rel]; ok {
		t.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		// a newer write replaced this timer after it fired
		if w.pending[rel] != timer {
			w.mu.Unlock()
			return
		}
		delete(w.pending, rel)
		w.mu.Unlock()
		w.dispatcher.Enqueue(event.Event{Type: event.EventScriptChanged, Payload: rel})
	})
	w.pending[rel] = timer
}

// Close stops watching and drops pending notifications
func (w *Watcher) Close() error {
	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()

	w.mu.Lock()
	for rel, t := range w.pending {
		t.Stop()
		delete(w.pending, rel)
	}
	w.mu.Unlock()
	return err
}
