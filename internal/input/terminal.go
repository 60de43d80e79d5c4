package input

import (
	"errors"
	"unicode/utf8"
)

// ErrNotTerminal is returned when stdin is not an interactive terminal.
var ErrNotTerminal = errors.New("stdin is not a terminal")

const esc = 0x1b

// nextKey decodes the first key in p and returns the bytes after it. CSI
// sequences such as arrow keys are skipped. ok is false when p holds no
// complete key yet; rest then keeps the bytes to retry with.
func nextKey(p []byte) (r rune, rest []byte, ok bool) {
	for len(p) >= 2 && p[0] == esc && p[1] == '[' {
		i := 2
		for i < len(p) && (p[i] < 0x40 || p[i] > 0x7e) {
			i++
		}
		if i == len(p) {
			return 0, p, false
		}
		p = p[i+1:]
	}
	if len(p) == 0 || !utf8.FullRune(p) {
		return 0, p, false
	}
	if len(p) == 1 && p[0] == esc {
		// could be the start of a sequence still in flight
		return 0, p, false
	}
	r, size := utf8.DecodeRune(p)
	return r, p[size:], true
}
