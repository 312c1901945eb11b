package lexer

import (
	"bytes"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Input is a UCS-32 code-point stream with bounded lookahead. The lexer
// needs 6 code points of lookahead (enough to decide a '\uHHHH' escape).

// LookaheadMax is the number of code points an Input can reveal ahead.
const LookaheadMax = 6

// BadChar is the sentinel delivered for malformed byte sequences in the
// underlying encoding. It lies outside the Unicode range.
const BadChar rune = 0x110000

// Input delivers code points one at a time with LookaheadMax lookahead.
type Input struct {
	Filename    string
	FirstLineno int

	next func() (rune, bool) // underlying stream; false at exhaustion
	buf  []rune              // pending lookahead, buf[0] is the current point
	eof  bool                // no current point
}

func newInput(filename string, next func() (rune, bool)) *Input {
	in := &Input{Filename: filename, FirstLineno: 1, next: next}
	in.fill(1)
	return in
}

func (in *Input) fill(n int) {
	for len(in.buf) < n {
		c, ok := in.next()
		if !ok {
			return
		}
		in.buf = append(in.buf, c)
	}
}

// EOF reports stream exhaustion.
func (in *Input) EOF() bool { return len(in.buf) == 0 }

// Peek returns the current code point; only valid when !EOF().
func (in *Input) Peek() rune { return in.buf[0] }

// Skip consumes the current code point.
func (in *Input) Skip() {
	if len(in.buf) > 0 {
		in.buf = in.buf[1:]
	}
	in.fill(1)
}

// Lookahead copies up to len(dst) upcoming code points (including the
// current one) into dst and returns how many are available.
func (in *Input) Lookahead(dst []rune) int {
	in.fill(len(dst))
	n := copy(dst, in.buf)
	return n
}

// FromString builds an input over a native Go string.
func FromString(s string) *Input {
	return FromUTF8([]byte(s), "")
}

// FromUTF8 builds an input over UTF-8 bytes. A leading byte-order mark
// (UTF-8, UTF-16LE or UTF-16BE) is honored and stripped — UTF-16 input
// is transcoded first — and malformed byte sequences deliver the BadChar
// sentinel, which the lexer rejects unless the utf_unsafe compatibility
// flag is set.
func FromUTF8(b []byte, filename string) *Input {
	switch {
	case len(b) >= 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)):
		decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
		if decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(b), decoder)); err == nil {
			b = decoded
		}
	case len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF:
		b = b[3:]
	}
	pos := 0
	return newInput(filename, func() (rune, bool) {
		if pos >= len(b) {
			return 0, false
		}
		r, size := utf8.DecodeRune(b[pos:])
		pos += size
		if r == utf8.RuneError && size == 1 {
			return BadChar, true
		}
		return r, true
	})
}

// FromFile builds an input from a file on disk.
func FromFile(path string) (*Input, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromUTF8(b, path), nil
}

// FromRunes builds an input over an explicit code-point slice (used by
// tests and by string-typed eval sources).
func FromRunes(rs []rune, filename string) *Input {
	pos := 0
	return newInput(filename, func() (rune, bool) {
		if pos >= len(rs) {
			return 0, false
		}
		r := rs[pos]
		pos++
		return r, true
	})
}
