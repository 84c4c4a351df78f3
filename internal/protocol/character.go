package protocol

import (
	"errors"

	"github.com/danmuck/apmwire/internal/protocol/bits"
	"github.com/danmuck/apmwire/internal/protocol/charset"
)

// Character is one byte drawn from the allowed character set.
// The zero value is not a valid character and fails to encode.
type Character struct {
	b byte
}

// NewCharacter validates b against the allowed set.
func NewCharacter(b byte) (Character, error) {
	if !charset.Check(b) {
		return Character{}, CharacterError{Code: b}
	}
	return Character{b: b}, nil
}

// Byte returns the raw character code.
func (c Character) Byte() byte {
	return c.b
}

func (c Character) String() string {
	return string(rune(c.b))
}

// Encode returns the character byte after re-validating it.
func (c Character) Encode() (byte, error) {
	if !charset.Check(c.b) {
		return 0, CharacterError{Code: c.b}
	}
	return c.b, nil
}

// DecodeCharacter reads one character at bitOffset and returns the
// offset just past it.
func DecodeCharacter(buf []byte, bitOffset int) (Character, int, error) {
	r := bits.NewReader(buf, bitOffset)
	c, err := readCharacter(r)
	if err != nil {
		return Character{}, 0, err
	}
	return c, r.Offset(), nil
}

func readCharacter(r *bits.Reader) (Character, error) {
	b, err := r.ReadByte()
	if err != nil {
		return Character{}, readFailed(err)
	}
	return NewCharacter(b)
}

func (c Character) writeTo(w *bits.Writer) error {
	b, err := c.Encode()
	if err != nil {
		return err
	}
	return w.WriteByte(b)
}

// readFailed maps cursor errors onto the protocol taxonomy.
func readFailed(err error) error {
	if errors.Is(err, bits.ErrShortBuffer) || errors.Is(err, bits.ErrInvalidOffset) {
		return ErrTruncated
	}
	return err
}
