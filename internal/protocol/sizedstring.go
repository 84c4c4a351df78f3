package protocol

import (
	"unicode/utf8"

	"github.com/danmuck/apmwire/internal/protocol/bits"
)

// SizedString is a length-prefixed run of characters whose count is packed
// into the low CountBits of a single leading byte. The high bits of that
// byte are zero padding.
//
// count mirrors the count seen at construction or decode time. Encoding
// never reads it; the prefix is always derived from the live data.
type SizedString[C Class] struct {
	count uint8
	data  []Character
}

// NewSizedString validates raw left to right and builds a string of class C.
func NewSizedString[C Class](raw []byte) (SizedString[C], error) {
	var class C
	if len(raw) > class.Max() {
		return SizedString[C]{}, LengthError{Length: len(raw), Max: class.Max()}
	}
	data := make([]Character, 0, len(raw))
	for _, b := range raw {
		c, err := NewCharacter(b)
		if err != nil {
			return SizedString[C]{}, err
		}
		data = append(data, c)
	}
	return SizedString[C]{count: uint8(len(data)), data: data}, nil
}

// ParseSizedString is NewSizedString over the bytes of s.
func ParseSizedString[C Class](s string) (SizedString[C], error) {
	return NewSizedString[C]([]byte(s))
}

// MustSizedString panics when s is not a valid string of class C.
func MustSizedString[C Class](s string) SizedString[C] {
	v, err := ParseSizedString[C](s)
	if err != nil {
		panic(err)
	}
	return v
}

// DecodeSizedString reads one string of class C at bitOffset and returns
// the offset just past it.
func DecodeSizedString[C Class](buf []byte, bitOffset int) (SizedString[C], int, error) {
	r := bits.NewReader(buf, bitOffset)
	s, err := readSizedString[C](r)
	if err != nil {
		return SizedString[C]{}, 0, err
	}
	return s, r.Offset(), nil
}

func readSizedString[C Class](r *bits.Reader) (SizedString[C], error) {
	var class C
	width := class.CountBits()
	if _, err := r.ReadBits(8 - width); err != nil {
		return SizedString[C]{}, readFailed(err)
	}
	n, err := r.ReadBits(width)
	if err != nil {
		return SizedString[C]{}, readFailed(err)
	}
	if int(n) > class.Max() {
		return SizedString[C]{}, LengthError{Length: int(n), Max: class.Max()}
	}
	data := make([]Character, 0, n)
	for i := uint64(0); i < n; i++ {
		c, err := readCharacter(r)
		if err != nil {
			return SizedString[C]{}, err
		}
		data = append(data, c)
	}
	return SizedString[C]{count: uint8(n), data: data}, nil
}

// Encode returns the packed count byte followed by the characters.
func (s SizedString[C]) Encode() ([]byte, error) {
	w := bits.NewWriter(1 + len(s.data))
	if err := s.writeTo(w); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func (s SizedString[C]) writeTo(w *bits.Writer) error {
	var class C
	n := len(s.data)
	if n > class.Max() {
		return LengthError{Length: n, Max: class.Max()}
	}
	width := class.CountBits()
	if err := w.WriteBits(0, 8-width); err != nil {
		return err
	}
	if err := w.WriteBits(uint64(n), width); err != nil {
		return err
	}
	for _, c := range s.data {
		if err := c.writeTo(w); err != nil {
			return err
		}
	}
	return nil
}

// Append adds c to the end of the string.
func (s *SizedString[C]) Append(c Character) error {
	var class C
	if len(s.data) >= class.Max() {
		return LengthError{Length: len(s.data) + 1, Max: class.Max()}
	}
	s.data = append(s.data, c)
	s.count = uint8(len(s.data))
	return nil
}

// Len returns the live number of characters.
func (s SizedString[C]) Len() int {
	return len(s.data)
}

// Count returns the count recorded at construction, decode or last Append.
func (s SizedString[C]) Count() int {
	return int(s.count)
}

// Max returns the capacity of class C.
func (s SizedString[C]) Max() int {
	var class C
	return class.Max()
}

// Characters returns a copy of the character sequence.
func (s SizedString[C]) Characters() []Character {
	out := make([]Character, len(s.data))
	copy(out, s.data)
	return out
}

// Bytes returns the raw character codes.
func (s SizedString[C]) Bytes() []byte {
	out := make([]byte, len(s.data))
	for i, c := range s.data {
		out[i] = c.b
	}
	return out
}

// Text converts the characters to a Go string, failing on invalid UTF-8.
func (s SizedString[C]) Text() (string, error) {
	b := s.Bytes()
	if !utf8.Valid(b) {
		return "", TextConversionError{Offset: firstInvalidUTF8(b)}
	}
	return string(b), nil
}

func (s SizedString[C]) String() string {
	return string(s.Bytes())
}

// Equal reports whether both strings hold the same characters.
func (s SizedString[C]) Equal(other SizedString[C]) bool {
	if len(s.data) != len(other.data) {
		return false
	}
	for i := range s.data {
		if s.data[i] != other.data[i] {
			return false
		}
	}
	return true
}

func firstInvalidUTF8(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(b)
}
