package policy

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher reloads a rule file when it changes on disk. Events are debounced
// so editors that write in several steps trigger a single reload. A file
// that fails to load is logged and skipped; the last good rule set stays
// active.
type Watcher struct {
	path     string
	registry *Registry
	log      *logrus.Entry

	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer

	stopCh chan struct{}
	doneCh chan struct{}
}

// WatchFile starts watching a rule file and applying it to the registry's
// base set. The file's directory is watched rather than the file itself so
// atomic rename-into-place saves are seen.
func WatchFile(path string, registry *Registry, debounce time.Duration, log *logrus.Entry) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}

	w := &Watcher{
		path:     path,
		registry: registry,
		log:      log,
		watcher:  fsw,
		debounce: debounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.doneCh)
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.shouldReload(event) {
				continue
			}
			w.log.WithFields(logrus.Fields{"path": event.Name, "op": event.Op.String()}).Debug("Rule file event")
			w.trigger()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Error("Rule file watcher error")
		}
	}
}

func (w *Watcher) shouldReload(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	return filepath.Clean(event.Name) == filepath.Clean(w.path)
}

// trigger arms the debounce timer, replacing any pending reload.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	select {
	case <-w.stopCh:
		return
	default:
	}

	update, err := LoadFile(w.path)
	if err != nil {
		w.log.WithError(err).Error("Rule file reload failed, keeping previous rules")
		return
	}
	base := DefaultRuleSet().Merged(update)
	if err := w.registry.SetBase(base); err != nil {
		w.log.WithError(err).Error("Rule file reload rejected, keeping previous rules")
		return
	}
	w.log.WithField("path", w.path).Info("Policy rules reloaded")
}

// Stop stops the watcher and cancels any pending reload.
func (w *Watcher) Stop() error {
	close(w.stopCh)

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	err := w.watcher.Close()
	<-w.doneCh
	return err
}
