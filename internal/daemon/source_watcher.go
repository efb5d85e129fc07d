package daemon

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/treetracer/internal/logfields"
)

// SourceWatcher monitors source directories and fires a debounced callback
// when files change. fsnotify watches are not recursive, so every directory
// below a root is added, including ones created later.
type SourceWatcher struct {
	roots        []string
	ignore       *IgnoreMatcher
	watcher      *fsnotify.Watcher
	debounceTime time.Duration
	onChange     func(path string)

	mu       sync.Mutex
	timer    *time.Timer
	lastPath string
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewSourceWatcher creates a watcher over roots. onChange receives the last
// changed path of a burst.
func NewSourceWatcher(roots []string, ignore *IgnoreMatcher, debounce time.Duration, onChange func(path string)) (*SourceWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	return &SourceWatcher{
		roots:        roots,
		ignore:       ignore,
		watcher:      watcher,
		debounceTime: debounce,
		onChange:     onChange,
		stopChan:     make(chan struct{}),
	}, nil
}

// Start adds the watches and begins processing events.
func (sw *SourceWatcher) Start(ctx context.Context) error {
	for _, root := range sw.roots {
		if err := sw.addTree(root); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Warn("Source directory missing, not watching it", logfields.Path(root))
				continue
			}
			return err
		}
	}
	slog.Info("Starting source watcher", slog.Int("roots", len(sw.roots)))
	go sw.watchLoop(ctx)
	return nil
}

// Stop closes the underlying watcher and cancels a pending callback.
func (sw *SourceWatcher) Stop() error {
	var err error
	sw.stopOnce.Do(func() {
		close(sw.stopChan)
		sw.mu.Lock()
		if sw.timer != nil {
			sw.timer.Stop()
		}
		sw.mu.Unlock()
		err = sw.watcher.Close()
	})
	return err
}

func (sw *SourceWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return fmt.Errorf("failed to watch %s: %w", root, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && sw.ignore.Ignored(p, true) {
			return filepath.SkipDir
		}
		if err := sw.watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

func (sw *SourceWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sw.stopChan:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			sw.handle(event)
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Source watcher error", logfields.Error(err))
		}
	}
}

func (sw *SourceWatcher) handle(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	info, statErr := os.Stat(event.Name)
	isDir := statErr == nil && info.IsDir()
	if sw.ignore.Ignored(event.Name, isDir) {
		return
	}
	if isDir && event.Op&fsnotify.Create != 0 {
		if err := sw.addTree(event.Name); err != nil {
			slog.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
		}
	}
	slog.Debug("Source change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
	sw.trigger(event.Name)
}

// trigger restarts the debounce timer.
func (sw *SourceWatcher) trigger(path string) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.lastPath = path
	if sw.timer != nil {
		sw.timer.Stop()
	}
	sw.timer = time.AfterFunc(sw.debounceTime, func() {
		sw.mu.Lock()
		p := sw.lastPath
		sw.mu.Unlock()
		select {
		case <-sw.stopChan:
			return
		default:
		}
		sw.onChange(p)
	})
}
