package hotkeys

import "github.com/protab/protab/internal/chord"

// CGEventFlags modifier masks.
const (
	flagMaskShift     = 0x00020000
	flagMaskControl   = 0x00040000
	flagMaskAlternate = 0x00080000
	flagMaskCommand   = 0x00100000
)

// ModifiersFromFlags converts CGEventFlags to the modifiers the recognizer
// cares about. Caps lock, fn and the numeric pad bit are ignored.
func ModifiersFromFlags(flags uint64) chord.Modifiers {
	var m chord.Modifiers
	if flags&flagMaskCommand != 0 {
		m |= chord.ModCommand
	}
	if flags&flagMaskControl != 0 {
		m |= chord.ModControl
	}
	if flags&flagMaskAlternate != 0 {
		m |= chord.ModOption
	}
	if flags&flagMaskShift != 0 {
		m |= chord.ModShift
	}
	return m
}
