// Package bits provides MSB-first bit cursors over in-memory buffers.
//
// Offsets are counted in bits from the start of the buffer. Multi-byte
// integers are big-endian.
package bits

import (
	"encoding/binary"
	"errors"
)

var (
	ErrShortBuffer   = errors.New("bits: short buffer")
	ErrInvalidOffset = errors.New("bits: invalid offset")
	ErrInvalidWidth  = errors.New("bits: invalid width")
	ErrOverflow      = errors.New("bits: value does not fit width")
)

// Reader consumes bit fields from buf starting at a bit offset.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte, bitOffset int) *Reader {
	return &Reader{buf: buf, pos: bitOffset}
}

// Offset returns the current bit position.
func (r *Reader) Offset() int {
	return r.pos
}

// Remaining returns the number of unread bits.
func (r *Reader) Remaining() int {
	if r.pos < 0 {
		return 0
	}
	rem := len(r.buf)*8 - r.pos
	if rem < 0 {
		return 0
	}
	return rem
}

// Aligned reports whether the cursor sits on a byte boundary.
func (r *Reader) Aligned() bool {
	return r.pos&7 == 0
}

func (r *Reader) check(n int) error {
	if r.pos < 0 {
		return ErrInvalidOffset
	}
	if r.Remaining() < n {
		return ErrShortBuffer
	}
	return nil
}

// ReadBits reads n bits (n <= 64) as an unsigned value, most significant
// bit first.
func (r *Reader) ReadBits(n uint8) (uint64, error) {
	if n > 64 {
		return 0, ErrInvalidWidth
	}
	if err := r.check(int(n)); err != nil {
		return 0, err
	}
	var v uint64
	for i := uint8(0); i < n; i++ {
		b := r.buf[r.pos>>3]
		v = v<<1 | uint64(b>>(7-uint(r.pos&7))&1)
		r.pos++
	}
	return v, nil
}

// ReadByte reads the next 8 bits.
func (r *Reader) ReadByte() (byte, error) {
	if r.Aligned() {
		if err := r.check(8); err != nil {
			return 0, err
		}
		b := r.buf[r.pos>>3]
		r.pos += 8
		return b, nil
	}
	v, err := r.ReadBits(8)
	return byte(v), err
}

// ReadUint32 reads a big-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	if r.Aligned() {
		if err := r.check(32); err != nil {
			return 0, err
		}
		i := r.pos >> 3
		r.pos += 32
		return binary.BigEndian.Uint32(r.buf[i : i+4]), nil
	}
	v, err := r.ReadBits(32)
	return uint32(v), err
}

// ReadUint64 reads a big-endian uint64.
func (r *Reader) ReadUint64() (uint64, error) {
	if r.Aligned() {
		if err := r.check(64); err != nil {
			return 0, err
		}
		i := r.pos >> 3
		r.pos += 64
		return binary.BigEndian.Uint64(r.buf[i : i+8]), nil
	}
	return r.ReadBits(64)
}

// Writer accumulates bit fields into a growing buffer.
type Writer struct {
	buf   []byte
	nbits int
}

// NewWriter returns a writer with room for sizeHint bytes.
func NewWriter(sizeHint int) *Writer {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

// Len returns the number of bits written.
func (w *Writer) Len() int {
	return w.nbits
}

// Aligned reports whether the next write starts on a byte boundary.
func (w *Writer) Aligned() bool {
	return w.nbits&7 == 0
}

// WriteBits appends the low n bits of v, most significant bit first.
func (w *Writer) WriteBits(v uint64, n uint8) error {
	if n > 64 {
		return ErrInvalidWidth
	}
	if n < 64 && v>>n != 0 {
		return ErrOverflow
	}
	for i := int(n) - 1; i >= 0; i-- {
		if w.nbits&7 == 0 {
			w.buf = append(w.buf, 0)
		}
		if v>>uint(i)&1 == 1 {
			w.buf[len(w.buf)-1] |= 1 << (7 - uint(w.nbits&7))
		}
		w.nbits++
	}
	return nil
}

// WriteByte appends 8 bits.
func (w *Writer) WriteByte(b byte) error {
	if w.Aligned() {
		w.buf = append(w.buf, b)
		w.nbits += 8
		return nil
	}
	return w.WriteBits(uint64(b), 8)
}

// WriteUint32 appends v big-endian.
func (w *Writer) WriteUint32(v uint32) error {
	if w.Aligned() {
		w.buf = binary.BigEndian.AppendUint32(w.buf, v)
		w.nbits += 32
		return nil
	}
	return w.WriteBits(uint64(v), 32)
}

// WriteUint64 appends v big-endian.
func (w *Writer) WriteUint64(v uint64) error {
	if w.Aligned() {
		w.buf = binary.BigEndian.AppendUint64(w.buf, v)
		w.nbits += 64
		return nil
	}
	return w.WriteBits(v, 64)
}

// Bytes returns the written bits, zero padded to a whole byte.
func (w *Writer) Bytes() []byte {
	return w.buf
}
