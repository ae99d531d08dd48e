package cli

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce coalesces the burst of events a single editor save
// produces.
const defaultDebounce = 150 * time.Millisecond

// sourceWatcher reports saves of one source file. The parent directory is
// watched so editors that save by renaming a temp file over the original
// are still seen.
type sourceWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *log.Logger

	changes  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// watchSource starts watching path. Changes are delivered on Changes at most
// once per debounce window; a pending change is never queued twice.
func watchSource(ctx context.Context, path string, debounce time.Duration, logger *log.Logger) (*sourceWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if logger == nil {
		logger = log.Default()
	}

	s := &sourceWatcher{
		path:     abs,
		watcher:  w,
		debounce: debounce,
		logger:   logger,
		changes:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go s.loop(ctx)
	return s, nil
}

// Changes returns the channel signalled after each save. It is closed once
// the watcher stops.
func (s *sourceWatcher) Changes() <-chan struct{} { return s.changes }

// Close stops the watcher. It is safe to call more than once.
func (s *sourceWatcher) Close() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		err = s.watcher.Close()
	})
	return err
}

func (s *sourceWatcher) loop(ctx context.Context) {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
		close(s.changes)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			s.logger.Debug("source changed", "path", s.path, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			select {
			case s.changes <- struct{}{}:
			default:
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("watch error", "path", s.path, "error", err)
		}
	}
}
