package chord

import (
	"strings"
	"time"
)

// Phase is the direction of a key transition.
type Phase int

const (
	PhaseDown Phase = iota
	PhaseUp
)

func (p Phase) String() string {
	switch p {
	case PhaseDown:
		return "down"
	case PhaseUp:
		return "up"
	default:
		return "unknown"
	}
}

// Modifiers is the set of modifier keys held during a key transition.
type Modifiers uint8

const (
	ModCommand Modifiers = 1 << iota
	ModControl
	ModOption
	ModShift
)

// Has reports whether every modifier in m2 is held.
func (m Modifiers) Has(m2 Modifiers) bool {
	return m&m2 == m2
}

func (m Modifiers) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	if m.Has(ModCommand) {
		parts = append(parts, "cmd")
	}
	if m.Has(ModControl) {
		parts = append(parts, "ctrl")
	}
	if m.Has(ModOption) {
		parts = append(parts, "opt")
	}
	if m.Has(ModShift) {
		parts = append(parts, "shift")
	}
	return strings.Join(parts, "+")
}

// KeyEvent is one physical key transition reported by the event source.
type KeyEvent struct {
	Code      int64
	Phase     Phase
	Modifiers Modifiers
	Timestamp time.Time
}

// Decision is the verdict returned to the event source for a key event.
type Decision int

const (
	// PassThrough forwards the event to the rest of the system.
	PassThrough Decision = iota
	// Suppress consumes the event.
	Suppress
)

func (d Decision) String() string {
	if d == Suppress {
		return "suppress"
	}
	return "pass"
}
