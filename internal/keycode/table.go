// Package keycode maps macOS virtual keycodes (ANSI layout) to letters.
package keycode

// PrefixKey is the virtual keycode of Tab.
const PrefixKey = 48

// letters is the physical ANSI layout, independent of the active input source.
var letters = map[int64]rune{
	0:  'a',
	11: 'b',
	8:  'c',
	2:  'd',
	14: 'e',
	3:  'f',
	5:  'g',
	4:  'h',
	34: 'i',
	38: 'j',
	40: 'k',
	37: 'l',
	46: 'm',
	45: 'n',
	31: 'o',
	35: 'p',
	12: 'q',
	15: 'r',
	1:  's',
	17: 't',
	32: 'u',
	9:  'v',
	13: 'w',
	7:  'x',
	16: 'y',
	6:  'z',
}

var codes = func() map[rune]int64 {
	m := make(map[rune]int64, len(letters))
	for code, letter := range letters {
		m[letter] = code
	}
	return m
}()

// Letter returns the lowercase letter for a keycode, or false when the code
// is not a letter key.
func Letter(code int64) (rune, bool) {
	letter, ok := letters[code]
	return letter, ok
}

// Code returns the keycode producing the given lowercase letter.
func Code(letter rune) (int64, bool) {
	code, ok := codes[letter]
	return code, ok
}

// Table returns a copy of the full keycode-to-letter mapping.
func Table() map[int64]rune {
	out := make(map[int64]rune, len(letters))
	for k, v := range letters {
		out[k] = v
	}
	return out
}
