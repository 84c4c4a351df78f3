package protocol

import (
	"fmt"

	"github.com/danmuck/apmwire/internal/protocol/bits"
)

// Discriminant is the leading tag byte selecting a message body.
type Discriminant uint8

const (
	DiscriminantAPMv1 Discriminant = 0x01
)

func (d Discriminant) String() string {
	switch d {
	case DiscriminantAPMv1:
		return "apm_v1"
	default:
		return fmt.Sprintf("unknown(%#04x)", uint8(d))
	}
}

// Message is a tagged wire record. The set of implementations is closed;
// a new body is added by implementing writeBody and registering its
// decoder in bodyDecoders.
type Message interface {
	Discriminant() Discriminant
	Encode() ([]byte, error)

	writeBody(w *bits.Writer) error
	encodedLen() int
}

type bodyDecoder func(r *bits.Reader) (Message, error)

var bodyDecoders = map[Discriminant]bodyDecoder{
	DiscriminantAPMv1: decodeAPMv1,
}

// Registered reports whether d selects a known body.
func Registered(d Discriminant) bool {
	_, ok := bodyDecoders[d]
	return ok
}

// DecodeMessage reads one message from the start of buf and returns it
// with the number of bytes consumed. Trailing bytes are left unread.
func DecodeMessage(buf []byte) (Message, int, error) {
	r := bits.NewReader(buf, 0)
	tag, err := r.ReadByte()
	if err != nil {
		return nil, 0, decodeFailed("discriminant", 0, readFailed(err))
	}
	decode, ok := bodyDecoders[Discriminant(tag)]
	if !ok {
		return nil, 0, UnknownDiscriminantError{Discriminant: tag}
	}
	msg, err := decode(r)
	if err != nil {
		return nil, 0, err
	}
	return msg, r.Offset() / 8, nil
}

// IsNil reports whether msg is nil or a nil pointer to a message body.
func IsNil(msg Message) bool {
	switch m := msg.(type) {
	case nil:
		return true
	case *APMv1:
		return m == nil
	default:
		return false
	}
}

// EncodeMessage writes the discriminant followed by the body.
func EncodeMessage(msg Message) ([]byte, error) {
	if IsNil(msg) {
		return nil, ErrNilMessage
	}
	w := bits.NewWriter(1 + msg.encodedLen())
	if err := w.WriteByte(byte(msg.Discriminant())); err != nil {
		return nil, err
	}
	if err := msg.writeBody(w); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
