package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 150 * time.Millisecond

// Store holds the current snapshot and swaps in a fresh one when the
// document on disk changes.
type Store struct {
	loader   *Loader
	explicit string
	path     string
	debounce time.Duration

	current atomic.Pointer[Snapshot]

	mu       sync.Mutex
	handlers []func(*Snapshot)
}

// NewStore creates a Store. An empty path means discovery.
func NewStore(loader *Loader, path string) *Store {
	return &Store{
		loader:   loader,
		explicit: path,
		debounce: defaultDebounce,
	}
}

// Load performs the initial load. The returned error is diagnostic only;
// Current is always usable afterwards.
func (s *Store) Load() error {
	snapshot, err := s.loader.Load(s.explicit)
	s.path = snapshot.Source
	if s.path == "" {
		s.path = s.explicit
	}
	s.current.Store(snapshot)
	return err
}

// Current returns the active snapshot.
func (s *Store) Current() *Snapshot {
	if snapshot := s.current.Load(); snapshot != nil {
		return snapshot
	}
	return s.loader.Default()
}

// Path returns the watched document path, empty when running on defaults.
func (s *Store) Path() string {
	return s.path
}

// OnReload registers a callback invoked with every new snapshot.
func (s *Store) OnReload(handler func(*Snapshot)) {
	s.mu.Lock()
	s.handlers = append(s.handlers, handler)
	s.mu.Unlock()
}

// Reload rereads the document and publishes the result, which is the
// built-in default when the document has become unreadable.
func (s *Store) Reload() error {
	snapshot, err := s.loader.Load(s.path)
	s.current.Store(snapshot)

	s.mu.Lock()
	handlers := append([]func(*Snapshot){}, s.handlers...)
	s.mu.Unlock()

	for _, h := range handlers {
		h(snapshot)
	}
	return err
}

// Watch reloads on changes to the document until ctx is done. The parent
// directory is watched so editors that replace the file are seen.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return ErrNoConfig
	}
	target, err := filepath.Abs(s.path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	schedule := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(s.debounce, func() {
			if err := s.Reload(); err != nil {
				log.Printf("[CONFIG] Reload fell back to defaults: %v", err)
				return
			}
			log.Printf("[CONFIG] Reloaded %s", s.path)
		})
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				schedule()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[CONFIG] Watcher error: %v", err)
		}
	}
}
