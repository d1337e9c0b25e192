package assets

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/partymix/internal/audio/sounddef"
	"github.com/zjrosen/partymix/internal/log"
)

// DefaultDebounce is how long the watcher waits for a burst of events to
// settle before reporting.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reports changed definition files in a directory. Events are
// coalesced; each value sent on Changes lists the paths touched since the
// previous one.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	changes  chan []string
	done     chan struct{}
	stopped  chan struct{}
	once     sync.Once
}

// NewWatcher starts watching dir.
func NewWatcher(dir string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		fsw:      fsw,
		debounce: debounce,
		changes:  make(chan []string, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	log.SafeGo("assets.watcher", w.loop)
	log.Debug(log.CatAssets, "Watching definitions", "dir", dir)
	return w, nil
}

// Changes delivers batches of changed paths. It is closed by Close.
func (w *Watcher) Changes() <-chan []string { return w.changes }

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		<-w.stopped
	})
	return err
}

func (w *Watcher) loop() {
	defer close(w.stopped)
	defer close(w.changes)

	pending := map[string]struct{}{}
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-w.done:
			timer.Stop()
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !relevant(ev) {
				continue
			}
			pending[ev.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatAssets, "Watcher error", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			slices.Sort(batch)
			clear(pending)

			select {
			case w.changes <- batch:
			case <-w.done:
				return
			}
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if !sounddef.IsDefinitionFile(ev.Name) {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) ||
		ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
