package blueprint

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/teranos/lineage/errors"
	"github.com/teranos/lineage/logger"
)

// DefaultDebounce is the quiet period before a changed blueprint is reloaded.
const DefaultDebounce = 300 * time.Millisecond

// ReloadCallback receives the reloaded blueprint, or the error that
// prevented loading or validating it.
type ReloadCallback func(*File, error)

// Watcher reloads a blueprint file when it changes on disk.
type Watcher struct {
	path           string
	watcher        *fsnotify.Watcher
	callbacks      []ReloadCallback
	mu             sync.RWMutex
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	done           chan struct{}
}

// NewWatcher creates a watcher for the blueprint at path. The parent
// directory is watched so that editors replacing the file by rename are
// still observed. A non-positive debounce uses DefaultDebounce.
func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve %s", path)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "failed to watch blueprint directory %s", filepath.Dir(abs))
	}

	return &Watcher{
		path:           abs,
		watcher:        fw,
		debouncePeriod: debounce,
		done:           make(chan struct{}),
	}, nil
}

// OnReload registers a callback for reloads.
func (w *Watcher) OnReload(cb ReloadCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	go w.watchLoop()
}

func (w *Watcher) watchLoop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debugw("blueprint change detected",
				logger.FieldFile, event.Name,
				logger.FieldOperation, event.Op.String())
			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnw("blueprint watcher error",
				logger.FieldError, err)
		}
	}
}

// scheduleReload collapses a burst of events into one reload.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, w.Reload)
}

// Reload loads and validates the blueprint now and notifies every callback.
func (w *Watcher) Reload() {
	f, err := Load(w.path)
	if err == nil {
		err = f.Validate()
	}
	if err != nil {
		logger.Warnw("blueprint reload failed",
			logger.FieldFile, w.path,
			logger.FieldError, err)
		f = nil
	} else {
		logger.Infow("blueprint reloaded",
			logger.FieldFile, w.path,
			logger.FieldCount, len(f.Types))
	}

	w.mu.RLock()
	callbacks := append([]ReloadCallback(nil), w.callbacks...)
	w.mu.RUnlock()

	for _, cb := range callbacks {
		cb(f, err)
	}
}

// Stop stops watching. Pending debounced reloads are cancelled.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.mu.Unlock()

	return w.watcher.Close()
}

// Done is closed when the watch loop exits after Stop.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}
