// Package watcher turns raw fsnotify events into debounced, targeted
// refresh requests for the tree layer. Events under .git are ignored;
// the git status engine has its own refresh path.
package watcher

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Event is one coalesced change notification.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// DefaultDebounce is how long a burst of events is allowed to settle
// before being flushed.
const DefaultDebounce = 100 * time.Millisecond

// Watcher wraps fsnotify with per-path coalescing.
type Watcher struct {
	fsw      *fsnotify.Watcher
	log      *zap.Logger
	debounce time.Duration
	events   chan Event
	done     chan struct{}
}

// New creates a started watcher. A nil logger disables logging; a zero
// debounce uses DefaultDebounce.
func New(log *zap.Logger, debounce time.Duration) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		log:      log,
		debounce: debounce,
		events:   make(chan Event, 64),
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Add starts watching a directory. Directories under .git are refused
// silently.
func (w *Watcher) Add(dir string) error {
	if ignored(dir) {
		return nil
	}
	return w.fsw.Add(dir)
}

// Remove stops watching a directory. Unknown paths are not an error.
func (w *Watcher) Remove(dir string) {
	_ = w.fsw.Remove(dir)
}

// Events is the coalesced output channel. It closes when the watcher
// is closed.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Close stops the watcher and closes the event channel.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	defer close(w.events)

	pending := make(map[string]fsnotify.Op)
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ignored(ev.Name) {
				continue
			}
			pending[filepath.Clean(ev.Name)] |= ev.Op
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			for path, op := range pending {
				select {
				case w.events <- Event{Path: path, Op: op}:
				default:
					w.log.Warn("watcher event dropped", zap.String("path", path))
				}
			}
			pending = make(map[string]fsnotify.Op)
			timer = nil
			timerC = nil

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", zap.Error(err))

		case <-w.done:
			return
		}
	}
}

func ignored(path string) bool {
	path = filepath.ToSlash(path)
	return strings.HasSuffix(path, "/.git") || strings.Contains(path, "/.git/")
}
