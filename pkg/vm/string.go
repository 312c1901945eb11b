package vm

import (
	"fmt"
	"unicode/utf16"
)

// Strings are arrays of 16-bit code units with UTF-16 encoding. The
// standard never needs them interpreted in full UCS-4 form, so they stay
// as []uint16 throughout. Three flavors share the one struct: growable
// (the default), static (backed by constant data, never grown) and
// interned (canonicalized; pointer equality implies content equality
// within one intern table).

type stringFlags uint8

const (
	strStatic stringFlags = 1 << iota
	strInterned
)

const stringInitialCap = 256

// String is an immutable-once-shared UTF-16 string. Builders append to a
// fresh growable instance before handing it out.
type String struct {
	data   []uint16
	flags  stringFlags
	interp *Interpreter // owning interpreter; nil for process-wide strings
}

// NewString returns an empty growable string owned by i.
func NewString(i *Interpreter) *String {
	return &String{interp: i}
}

// NewStringFromGo builds a growable string from a native Go string,
// encoding to UTF-16 (surrogate pairs for astral code points).
func NewStringFromGo(i *Interpreter, s string) *String {
	return &String{data: utf16.Encode([]rune(s)), interp: i}
}

// StaticString wraps constant text as a static string. Append operations
// on the result are an internal fault.
func StaticString(s string) *String {
	return &String{data: utf16.Encode([]rune(s)), flags: strStatic}
}

// Interned reports whether s is canonical in some intern table.
func (s *String) Interned() bool { return s.flags&strInterned != 0 }

// Static reports whether s is backed by constant data.
func (s *String) Static() bool { return s.flags&strStatic != 0 }

// Length returns the number of 16-bit code units.
func (s *String) Length() int { return len(s.data) }

// At returns the code unit at index i.
func (s *String) At(i int) uint16 { return s.data[i] }

func (s *String) grow(n int) {
	if s.flags&(strStatic|strInterned) != 0 {
		panic("corvid: cannot grow a static or interned string")
	}
	if cap(s.data) >= len(s.data)+n {
		return
	}
	newCap := cap(s.data)
	if newCap < stringInitialCap {
		newCap = stringInitialCap
	}
	for newCap < len(s.data)+n {
		newCap *= 2
	}
	nd := make([]uint16, len(s.data), newCap)
	copy(nd, s.data)
	s.data = nd
}

// AddCh appends a single code unit.
func (s *String) AddCh(c uint16) {
	s.grow(1)
	s.data = append(s.data, c)
}

// AddUCS4 appends a code point, emitting a surrogate pair for code points
// above the BMP (RFC 2781 encoding).
func (s *String) AddUCS4(c rune) {
	if c < 0x10000 {
		s.AddCh(uint16(c))
		return
	}
	c -= 0x10000
	s.grow(2)
	s.data = append(s.data, uint16(0xd800|(c>>10&0x3ff)), uint16(0xdc00|(c&0x3ff)))
}

// Append appends t to s in place.
func (s *String) Append(t *String) {
	s.grow(len(t.data))
	s.data = append(s.data, t.data...)
}

// AddInt appends the decimal rendering of n.
func (s *String) AddInt(n int) {
	if n < 0 {
		s.AddCh('-')
		n = -n
	}
	if n >= 10 {
		s.AddInt(n / 10)
	}
	s.AddCh(uint16('0' + n%10))
}

// Dup returns a growable copy of s.
func (s *String) Dup(i *Interpreter) *String {
	cp := NewString(i)
	cp.Append(s)
	return cp
}

// Substr copies out the code units [start, start+length).
func (s *String) Substr(i *Interpreter, start, length int) *String {
	if start < 0 || length < 0 || start+length > len(s.data) {
		panic("corvid: substring out of range")
	}
	cp := NewString(i)
	cp.grow(length)
	cp.data = append(cp.data, s.data[start:start+length]...)
	return cp
}

// ConcatStrings returns a new string holding a followed by b.
func ConcatStrings(i *Interpreter, a, b *String) *String {
	r := NewString(i)
	r.grow(len(a.data) + len(b.data))
	r.data = append(r.data, a.data...)
	r.data = append(r.data, b.data...)
	return r
}

// Cmp compares code-unit sequences; -1, 0 or +1.
func (s *String) Cmp(t *String) int {
	if s == t {
		return 0
	}
	a, b := s.data, t.data
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// Equals reports content equality.
func (s *String) Equals(t *String) bool { return s.Cmp(t) == 0 }

// String renders to a native Go string for display. Lone surrogates become
// U+FFFD; use UTF8 when strict output is required.
func (s *String) String() string {
	return string(utf16.Decode(s.data))
}

// UTF8 encodes to UTF-8, honoring surrogate pairs. A lone surrogate is an
// error rather than silently replaced.
func (s *String) UTF8() (string, error) {
	for i := 0; i < len(s.data); i++ {
		c := s.data[i]
		if c >= 0xd800 && c < 0xdc00 {
			if i+1 >= len(s.data) || s.data[i+1] < 0xdc00 || s.data[i+1] >= 0xe000 {
				return "", fmt.Errorf("lone high surrogate U+%04X at index %d", c, i)
			}
			i++
		} else if c >= 0xdc00 && c < 0xe000 {
			return "", fmt.Errorf("lone low surrogate U+%04X at index %d", c, i)
		}
	}
	return string(utf16.Decode(s.data)), nil
}

// key returns a byte-exact map key for the code-unit sequence.
func (s *String) key() string {
	b := make([]byte, 2*len(s.data))
	for i, c := range s.data {
		b[2*i] = byte(c >> 8)
		b[2*i+1] = byte(c)
	}
	return string(b)
}
