package chord

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	codeTab = 48
	codeT   = 17
	codeA   = 0
	codeOne = 18
)

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeClock only moves when told to. With fire disabled, scheduled clears
// never run, which models a timer that was starved or lost.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	fire   bool
}

func newFakeClock(fire bool) *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0), fire: fire}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	if c.fire {
		for _, t := range c.timers {
			if !t.stopped && !t.fired && !t.at.After(c.now) {
				t.fired = true
				due = append(due, t)
			}
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

func (c *fakeClock) activeTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type recordingListener struct {
	mu      sync.Mutex
	letters []rune
}

func (l *recordingListener) OnChord(letter rune) {
	l.mu.Lock()
	l.letters = append(l.letters, letter)
	l.mu.Unlock()
}

func (l *recordingListener) got() []rune {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]rune(nil), l.letters...)
}

func down(code int64) KeyEvent {
	return KeyEvent{Code: code, Phase: PhaseDown}
}

func newTestRecognizer(fire bool) (*Recognizer, *fakeClock, *recordingListener) {
	clock := newFakeClock(fire)
	listener := &recordingListener{}
	r := New(listener, Options{Window: 500 * time.Millisecond, Clock: clock})
	return r, clock, listener
}

func TestNew_Defaults(t *testing.T) {
	r := New(nil, Options{})
	assert.Equal(t, DefaultWindow, r.Window())
	assert.Equal(t, int64(codeTab), r.prefix)
	assert.IsType(t, SystemClock{}, r.clock)
}

func TestHandleEvent_ChordWithinWindow(t *testing.T) {
	for _, fire := range []bool{true, false} {
		r, clock, listener := newTestRecognizer(fire)

		require.Equal(t, Suppress, r.HandleEvent(down(codeTab)))
		require.True(t, r.Armed())

		clock.Advance(499 * time.Millisecond)
		require.Equal(t, Suppress, r.HandleEvent(down(codeT)))

		assert.Equal(t, []rune{'t'}, listener.got())
		assert.False(t, r.Armed())
		assert.Zero(t, clock.activeTimers())
	}
}

func TestHandleEvent_LetterAtOrAfterWindow(t *testing.T) {
	for _, fire := range []bool{true, false} {
		for _, wait := range []time.Duration{500 * time.Millisecond, 501 * time.Millisecond, 3 * time.Second} {
			r, clock, listener := newTestRecognizer(fire)

			require.Equal(t, Suppress, r.HandleEvent(down(codeTab)))
			clock.Advance(wait)

			assert.Equal(t, PassThrough, r.HandleEvent(down(codeT)), "fire=%v wait=%v", fire, wait)
			assert.Empty(t, listener.got())
			assert.False(t, r.Armed())
		}
	}
}

func TestHandleEvent_StaleArmWithoutTimer(t *testing.T) {
	r, clock, listener := newTestRecognizer(false)

	r.HandleEvent(down(codeTab))
	clock.Advance(time.Second)

	// The clear never fired, so the flag is still set until something reads it.
	r.mu.Lock()
	assert.True(t, r.armed)
	r.mu.Unlock()

	assert.False(t, r.Armed())
	assert.Equal(t, PassThrough, r.HandleEvent(down(codeA)))
	assert.Empty(t, listener.got())
}

func TestHandleEvent_ModifiersPassThroughUntouched(t *testing.T) {
	mods := []Modifiers{ModCommand, ModControl, ModOption, ModShift, ModCommand | ModShift}

	for _, m := range mods {
		r, _, listener := newTestRecognizer(true)

		// Unarmed: the prefix with a modifier does not arm.
		assert.Equal(t, PassThrough, r.HandleEvent(KeyEvent{Code: codeTab, Phase: PhaseDown, Modifiers: m}))
		assert.False(t, r.Armed())

		// Armed: a modified letter neither completes nor disarms.
		r.HandleEvent(down(codeTab))
		assert.Equal(t, PassThrough, r.HandleEvent(KeyEvent{Code: codeT, Phase: PhaseDown, Modifiers: m}))
		assert.True(t, r.Armed(), "modifier %s", m)
		assert.Empty(t, listener.got())

		assert.Equal(t, Suppress, r.HandleEvent(down(codeT)))
		assert.Equal(t, []rune{'t'}, listener.got())
	}
}

func TestHandleEvent_KeyUpIgnored(t *testing.T) {
	r, _, listener := newTestRecognizer(true)

	assert.Equal(t, PassThrough, r.HandleEvent(KeyEvent{Code: codeTab, Phase: PhaseUp}))
	assert.False(t, r.Armed())

	r.HandleEvent(down(codeTab))
	assert.Equal(t, PassThrough, r.HandleEvent(KeyEvent{Code: codeTab, Phase: PhaseUp}))
	assert.Equal(t, PassThrough, r.HandleEvent(KeyEvent{Code: codeT, Phase: PhaseUp}))
	assert.True(t, r.Armed())
	assert.Empty(t, listener.got())
}

func TestHandleEvent_NonLetterDisarms(t *testing.T) {
	r, _, listener := newTestRecognizer(true)

	r.HandleEvent(down(codeTab))
	assert.Equal(t, PassThrough, r.HandleEvent(down(codeOne)))
	assert.False(t, r.Armed())

	// The next letter is ordinary typing.
	assert.Equal(t, PassThrough, r.HandleEvent(down(codeT)))
	assert.Empty(t, listener.got())
}

func TestHandleEvent_UnknownCodes(t *testing.T) {
	r, _, listener := newTestRecognizer(true)

	for _, code := range []int64{-1, 999, 1 << 40} {
		assert.Equal(t, PassThrough, r.HandleEvent(down(code)))
		r.HandleEvent(down(codeTab))
		assert.Equal(t, PassThrough, r.HandleEvent(down(code)))
	}
	assert.Empty(t, listener.got())
}

func TestHandleEvent_UnarmedLetterPasses(t *testing.T) {
	r, _, listener := newTestRecognizer(true)
	assert.Equal(t, PassThrough, r.HandleEvent(down(codeT)))
	assert.Empty(t, listener.got())
}

func TestHandleEvent_RearmResetsWindow(t *testing.T) {
	for _, fire := range []bool{true, false} {
		r, clock, listener := newTestRecognizer(fire)

		require.Equal(t, Suppress, r.HandleEvent(down(codeTab)))
		clock.Advance(400 * time.Millisecond)
		require.Equal(t, Suppress, r.HandleEvent(down(codeTab)))
		assert.Empty(t, listener.got())
		assert.Equal(t, 1, clock.activeTimers())

		// 800ms after the first press, 400ms after the second.
		clock.Advance(400 * time.Millisecond)
		require.True(t, r.Armed(), "fire=%v", fire)
		assert.Equal(t, Suppress, r.HandleEvent(down(codeA)))
		assert.Equal(t, []rune{'a'}, listener.got())
	}
}

func TestHandleEvent_LateTimerIsNoop(t *testing.T) {
	r, clock, listener := newTestRecognizer(true)

	r.HandleEvent(down(codeTab))
	firstClear := clock.timers[0]

	clock.Advance(100 * time.Millisecond)
	r.HandleEvent(down(codeTab))

	// A clear from the first arm that slips past Stop must not disarm the second.
	firstClear.f()
	assert.True(t, r.Armed())

	r.HandleEvent(down(codeT))
	firstClear.f()
	assert.False(t, r.Armed())
	assert.Equal(t, []rune{'t'}, listener.got())
}

func TestHandleEvent_BackToBackChords(t *testing.T) {
	r, clock, listener := newTestRecognizer(true)

	for _, code := range []int64{codeT, codeA, codeT} {
		require.Equal(t, Suppress, r.HandleEvent(down(codeTab)))
		clock.Advance(10 * time.Millisecond)
		require.Equal(t, Suppress, r.HandleEvent(down(code)))
	}
	assert.Equal(t, []rune{'t', 'a', 't'}, listener.got())
}

func TestSetWindow(t *testing.T) {
	r, clock, listener := newTestRecognizer(true)

	r.SetWindow(0)
	assert.Equal(t, 500*time.Millisecond, r.Window())

	r.SetWindow(time.Second)
	r.HandleEvent(down(codeTab))
	clock.Advance(800 * time.Millisecond)
	assert.Equal(t, Suppress, r.HandleEvent(down(codeT)))
	assert.Equal(t, []rune{'t'}, listener.got())
}

func TestReset(t *testing.T) {
	r, clock, _ := newTestRecognizer(true)
	r.HandleEvent(down(codeTab))
	r.Reset()
	assert.False(t, r.Armed())
	assert.Zero(t, clock.activeTimers())
}

func TestHandleEvent_NilListener(t *testing.T) {
	r := New(nil, Options{Clock: newFakeClock(true)})
	r.HandleEvent(down(codeTab))
	assert.Equal(t, Suppress, r.HandleEvent(down(codeT)))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "down", PhaseDown.String())
	assert.Equal(t, "up", PhaseUp.String())
	assert.Equal(t, "unknown", Phase(7).String())
	assert.Equal(t, "none", Modifiers(0).String())
	assert.Equal(t, "cmd+shift", (ModCommand | ModShift).String())
	assert.Equal(t, "suppress", Suppress.String())
	assert.Equal(t, "pass", PassThrough.String())
}

func TestSystemClock_AfterFunc(t *testing.T) {
	done := make(chan struct{})
	SystemClock{}.AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}
