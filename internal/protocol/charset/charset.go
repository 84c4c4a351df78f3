// Package charset owns the character allow-list used by every wire string.
//
// Membership is a single bit test against a 256-bit table, so the cost of
// Check does not depend on how many bytes are allowed.
package charset

import "sync"

// Size is the number of allowed byte values.
const Size = 65

// Table is a 256-bit membership set indexed by byte value.
type Table [32]byte

var allowed = func() []byte {
	out := make([]byte, 0, Size)
	out = append(out, '-', '.', '_')
	for c := byte('0'); c <= '9'; c++ {
		out = append(out, c)
	}
	for c := byte('A'); c <= 'Z'; c++ {
		out = append(out, c)
	}
	for c := byte('a'); c <= 'z'; c++ {
		out = append(out, c)
	}
	return out
}()

// Build constructs a fresh membership table for the allowed set.
func Build() *Table {
	var t Table
	for _, b := range allowed {
		t[b>>3] |= 1 << (b & 7)
	}
	return &t
}

// Check reports whether b is a member of the table.
func (t *Table) Check(b byte) bool {
	return t[b>>3]&(1<<(b&7)) != 0
}

// Len returns the number of members.
func (t *Table) Len() int {
	n := 0
	for i := 0; i < 256; i++ {
		if t.Check(byte(i)) {
			n++
		}
	}
	return n
}

// Default returns the process-wide table. It is built on first use and
// never written afterwards.
var Default = sync.OnceValue(Build)

// Check reports whether b is allowed inside a wire string.
func Check(b byte) bool {
	return Default().Check(b)
}

// Allowed returns a copy of the allowed byte values in table order.
func Allowed() []byte {
	out := make([]byte, len(allowed))
	copy(out, allowed)
	return out
}
