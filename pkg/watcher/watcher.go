package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/edp1096/toy-ybus/pkg/logging"
)

const DefaultQuietPeriod = 200 * time.Millisecond

// ChangeEvent reports that the watched file settled after one or more writes.
type ChangeEvent struct {
	Path      string
	Count     int // raw events folded into this one
	Timestamp time.Time
}

// FileWatcher watches a single case file. The parent directory is watched
// so editors that replace the file on save are still seen.
type FileWatcher struct {
	watcher     *fsnotify.Watcher
	path        string
	quietPeriod time.Duration
	events      chan ChangeEvent
}

func NewFileWatcher(path string, quietPeriod time.Duration) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if quietPeriod <= 0 {
		quietPeriod = DefaultQuietPeriod
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher:     watcher,
		path:        abs,
		quietPeriod: quietPeriod,
		events:      make(chan ChangeEvent, 1),
	}, nil
}

// Start watches until ctx is cancelled, then closes Events.
func (fw *FileWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(fw.path)
	if err := fw.watcher.Add(dir); err != nil {
		fw.watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	logging.Info("watching case file", "path", fw.path)
	go fw.processEvents(ctx)
	return nil
}

func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.watcher.Close()

	timer := time.NewTimer(fw.quietPeriod)
	timer.Stop()
	pending := 0

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logging.Trace("case file event", "op", event.Op.String())
			pending++
			timer.Reset(fw.quietPeriod)

		case <-timer.C:
			if pending == 0 {
				continue
			}
			ev := ChangeEvent{Path: fw.path, Count: pending, Timestamp: time.Now()}
			pending = 0
			select {
			case fw.events <- ev:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}
