package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/skybox/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ConfigWatcher = (*Watcher)(nil)

// DefaultWindow is the debounce window applied to bursts of writes.
const DefaultWindow = 200 * time.Millisecond

// Watcher watches a single file through its parent directory, so editors
// that replace the file by rename are still observed.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	window    time.Duration
	logger    ports.Logger
}

// NewWatcher creates a new file watcher. logger may be nil.
func NewWatcher(window time.Duration, logger ports.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create file watcher")
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Watcher{fsWatcher: fsw, window: window, logger: logger}, nil
}

// Watch emits once per debounced burst of changes to path. The channel is
// closed when ctx ends or the watcher is closed. Call it once per Watcher.
func (w *Watcher) Watch(ctx context.Context, path string) (<-chan struct{}, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve path"), "path", path)
	}

	if err := w.fsWatcher.Add(filepath.Dir(abs)); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to watch directory"), "path", filepath.Dir(abs))
	}

	n := &notifier{out: make(chan struct{}, 1)}
	d := NewDebouncer(w.window, func([]string) { n.notify() })

	go w.processEvents(ctx, abs, d, n)

	return n.out, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

func (w *Watcher) processEvents(ctx context.Context, path string, d *Debouncer, n *notifier) {
	defer n.close()

	for {
		select {
		case <-ctx.Done():
			d.Stop()
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				d.Flush()
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				d.Add(event.Name)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				d.Flush()
				return
			}
			if w.logger != nil {
				w.logger.Error(zerr.Wrap(err, "file watcher error"))
			}
		}
	}
}

// notifier delivers coalesced signals and tolerates sends after close.
type notifier struct {
	mu     sync.Mutex
	out    chan struct{}
	closed bool
}

func (n *notifier) notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	select {
	case n.out <- struct{}{}:
	default:
	}
}

func (n *notifier) close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.closed {
		n.closed = true
		close(n.out)
	}
}
