package protocol

import (
	"fmt"

	"github.com/danmuck/apmwire/internal/protocol/bits"
)

// MaxParts is the largest parts list the one-byte count can describe.
const MaxParts = 255

// APMv1 is one request trace: where it ran, what it did, how long it
// took, and the parts it was broken into.
type APMv1 struct {
	Realm           Realm
	Application     Application
	ApplicationHash ApplicationHash
	Action          Action
	Status          Status
	Duration        uint64
	Parts           []TrackingPart
}

var _ Message = APMv1{}

func (APMv1) Discriminant() Discriminant {
	return DiscriminantAPMv1
}

// Encode returns the full envelope: discriminant then body.
func (m APMv1) Encode() ([]byte, error) {
	return EncodeMessage(m)
}

func (m APMv1) encodedLen() int {
	n := 1 + m.Realm.Len() + 1 + m.Application.Len() + 1 + m.ApplicationHash.Len() +
		1 + m.Action.Len() + 1 + m.Status.Len() + 8 + 1
	for _, p := range m.Parts {
		n += p.encodedLen()
	}
	return n
}

func (m APMv1) writeBody(w *bits.Writer) error {
	fields := []struct {
		name  string
		write func(*bits.Writer) error
	}{
		{"realm", m.Realm.writeTo},
		{"application", m.Application.writeTo},
		{"application_hash", m.ApplicationHash.writeTo},
		{"action", m.Action.writeTo},
		{"status", m.Status.writeTo},
	}
	for _, f := range fields {
		if err := f.write(w); err != nil {
			return fmt.Errorf("protocol: encode %s: %w", f.name, err)
		}
	}
	if err := w.WriteUint64(m.Duration); err != nil {
		return err
	}
	if len(m.Parts) > MaxParts {
		return fmt.Errorf("protocol: encode parts: %w", LengthError{Length: len(m.Parts), Max: MaxParts})
	}
	if err := w.WriteByte(byte(len(m.Parts))); err != nil {
		return err
	}
	for i, p := range m.Parts {
		if err := p.writeTo(w); err != nil {
			return fmt.Errorf("protocol: encode parts[%d]: %w", i, err)
		}
	}
	return nil
}

func decodeAPMv1(r *bits.Reader) (Message, error) {
	var (
		m     APMv1
		err   error
		start = r.Offset()
	)
	if m.Realm, err = readSizedString[Class31](r); err != nil {
		return nil, decodeFailed("realm", start, err)
	}
	start = r.Offset()
	if m.Application, err = readSizedString[Class31](r); err != nil {
		return nil, decodeFailed("application", start, err)
	}
	start = r.Offset()
	if m.ApplicationHash, err = readSizedString[Class31](r); err != nil {
		return nil, decodeFailed("application_hash", start, err)
	}
	start = r.Offset()
	if m.Action, err = readSizedString[Class255](r); err != nil {
		return nil, decodeFailed("action", start, err)
	}
	start = r.Offset()
	if m.Status, err = readSizedString[Class15](r); err != nil {
		return nil, decodeFailed("status", start, err)
	}
	start = r.Offset()
	if m.Duration, err = r.ReadUint64(); err != nil {
		return nil, decodeFailed("duration", start, readFailed(err))
	}
	start = r.Offset()
	count, err := r.ReadByte()
	if err != nil {
		return nil, decodeFailed("parts_count", start, readFailed(err))
	}
	if count > 0 {
		m.Parts = make([]TrackingPart, 0, count)
	}
	for i := 0; i < int(count); i++ {
		start = r.Offset()
		p, err := readTrackingPart(r)
		if err != nil {
			return nil, decodeFailed(fmt.Sprintf("parts[%d]", i), start, err)
		}
		m.Parts = append(m.Parts, p)
	}
	return m, nil
}

// Equal reports field-wise equality, parts compared in order.
func (m APMv1) Equal(other APMv1) bool {
	if !m.Realm.Equal(other.Realm) ||
		!m.Application.Equal(other.Application) ||
		!m.ApplicationHash.Equal(other.ApplicationHash) ||
		!m.Action.Equal(other.Action) ||
		!m.Status.Equal(other.Status) ||
		m.Duration != other.Duration ||
		len(m.Parts) != len(other.Parts) {
		return false
	}
	for i := range m.Parts {
		if !m.Parts[i].Equal(other.Parts[i]) {
			return false
		}
	}
	return true
}
