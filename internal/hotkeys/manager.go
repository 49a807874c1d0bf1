// Package hotkeys connects an OS keyboard event source to the chord
// recognizer. Sources deliver every key transition to a Handler and apply
// the returned verdict.
package hotkeys

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/protab/protab/internal/chord"
)

var (
	// ErrUnsupported is returned by sources that cannot run on this platform.
	ErrUnsupported = errors.New("global keyboard hook unsupported on this platform")
	// ErrNotTrusted is returned when the process lacks accessibility access.
	ErrNotTrusted = errors.New("accessibility permission not granted")
	// ErrBusy is returned when a process-wide hook is already installed.
	ErrBusy = errors.New("keyboard hook already running")
)

// Handler decides the verdict for one key transition. It is called on the
// source's event path and must return promptly.
type Handler func(ev chord.KeyEvent) chord.Decision

// Source delivers key events until ctx is done or the source fails.
type Source interface {
	Run(ctx context.Context, handler Handler) error
}

// TapSource is the macOS CGEventTap source.
type TapSource struct {
	// Prompt shows the system accessibility dialog when access is missing.
	Prompt bool
	// LivenessInterval is how often a tap disabled by the OS is re-enabled.
	LivenessInterval time.Duration
}

// NewTapSource returns a TapSource with the default 5s liveness check.
func NewTapSource(prompt bool) *TapSource {
	return &TapSource{Prompt: prompt, LivenessInterval: 5 * time.Second}
}

// Manager runs a Source in the background.
type Manager struct {
	source  Source
	handler Handler

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
	running bool
}

func NewManager(source Source, handler Handler) *Manager {
	return &Manager{
		source:  source,
		handler: handler,
	}
}

// Start launches the source. Calling Start on a running manager is a no-op.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.err = nil
	m.running = true

	go func(done chan struct{}) {
		err := m.source.Run(ctx, m.handler)
		m.mu.Lock()
		m.err = err
		m.running = false
		m.mu.Unlock()
		close(done)
	}(m.done)

	return nil
}

// Stop cancels the source and waits for it to return.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done is closed when the source returns.
func (m *Manager) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// Err returns the error the source stopped with.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// IsRunning reports whether the source is active.
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) GetHotkeyDisplay() string {
	return "Tab + letter"
}
