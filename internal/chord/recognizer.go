// Package chord recognizes the two-key Tab+letter chord.
//
// A Recognizer consumes key transitions one at a time and returns a verdict
// immediately. Pressing the prefix key arms it; a letter key that follows
// within the window completes the chord and is reported to the Listener.
// Anything else disarms it and lets the key through.
package chord

import (
	"sync"
	"time"

	"github.com/protab/protab/internal/keycode"
)

// DefaultWindow is how long the recognizer stays armed after the prefix key.
const DefaultWindow = 500 * time.Millisecond

// Listener receives recognized chords. OnChord is called on the event path
// and must not block.
type Listener interface {
	OnChord(letter rune)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(letter rune)

func (f ListenerFunc) OnChord(letter rune) { f(letter) }

// Options configures a Recognizer. Zero values select defaults.
type Options struct {
	Window    time.Duration
	Clock     Clock
	PrefixKey int64
}

// Recognizer holds the chord state for one event source.
type Recognizer struct {
	mu       sync.Mutex
	listener Listener
	clock    Clock
	prefix   int64
	window   time.Duration

	armed   bool
	armedAt time.Time
	// generation identifies the current arm so a clear scheduled by an
	// earlier arm never disarms a later one.
	generation uint64
	pending    Timer
}

// New creates a Recognizer that reports chords to listener.
func New(listener Listener, opts Options) *Recognizer {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.PrefixKey == 0 {
		opts.PrefixKey = keycode.PrefixKey
	}
	return &Recognizer{
		listener: listener,
		clock:    opts.Clock,
		prefix:   opts.PrefixKey,
		window:   opts.Window,
	}
}

// HandleEvent decides whether ev is suppressed. It never blocks.
func (r *Recognizer) HandleEvent(ev KeyEvent) Decision {
	// Modified keys (cmd-tab and friends) are never intercepted and never
	// touch the chord state.
	if ev.Modifiers != 0 {
		return PassThrough
	}
	if ev.Phase != PhaseDown {
		return PassThrough
	}

	r.mu.Lock()

	if ev.Code == r.prefix {
		r.armLocked()
		r.mu.Unlock()
		return Suppress
	}

	if !r.liveLocked() {
		r.mu.Unlock()
		return PassThrough
	}

	letter, ok := keycode.Letter(ev.Code)
	r.disarmLocked()
	listener := r.listener
	r.mu.Unlock()

	if !ok {
		return PassThrough
	}
	if listener != nil {
		listener.OnChord(letter)
	}
	return Suppress
}

// Armed reports whether a letter key would currently complete a chord.
func (r *Recognizer) Armed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.liveLocked()
}

// SetWindow changes the timeout window for subsequent arms.
func (r *Recognizer) SetWindow(d time.Duration) {
	if d <= 0 {
		return
	}
	r.mu.Lock()
	r.window = d
	r.mu.Unlock()
}

// Window returns the current timeout window.
func (r *Recognizer) Window() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.window
}

// Reset disarms the recognizer and cancels any pending clear.
func (r *Recognizer) Reset() {
	r.mu.Lock()
	r.disarmLocked()
	r.mu.Unlock()
}

func (r *Recognizer) armLocked() {
	if r.pending != nil {
		r.pending.Stop()
	}
	r.generation++
	r.armed = true
	r.armedAt = r.clock.Now()

	gen := r.generation
	r.pending = r.clock.AfterFunc(r.window, func() { r.expire(gen) })
}

// liveLocked validates an armed state against the window, clearing it when
// stale. The timer clear is advisory; this check is authoritative.
func (r *Recognizer) liveLocked() bool {
	if !r.armed {
		return false
	}
	if r.clock.Now().Sub(r.armedAt) >= r.window {
		r.disarmLocked()
		return false
	}
	return true
}

func (r *Recognizer) disarmLocked() {
	r.armed = false
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
}

func (r *Recognizer) expire(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation != gen || !r.armed {
		return
	}
	r.armed = false
	r.pending = nil
}
