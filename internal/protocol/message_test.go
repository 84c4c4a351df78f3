package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/apmwire/internal/testutil/testlog"
)

func sampleAPM(t *testing.T) APMv1 {
	t.Helper()
	part, err := NewTrackingPart("db", 3, 900)
	if err != nil {
		t.Fatalf("part: %v", err)
	}
	return APMv1{
		Realm:           MustSizedString[Class31]("eu"),
		Application:     MustSizedString[Class31]("shop"),
		ApplicationHash: MustSizedString[Class31]("ab12"),
		Action:          MustSizedString[Class255]("GET.index"),
		Status:          MustSizedString[Class15]("200"),
		Duration:        1500,
		Parts:           []TrackingPart{part},
	}
}

func sampleWire() []byte {
	var b []byte
	b = append(b, 0x01)
	b = append(b, 2, 'e', 'u')
	b = append(b, 4, 's', 'h', 'o', 'p')
	b = append(b, 4, 'a', 'b', '1', '2')
	b = append(b, 9)
	b = append(b, "GET.index"...)
	b = append(b, 3, '2', '0', '0')
	b = append(b, 0, 0, 0, 0, 0, 0, 0x05, 0xdc)
	b = append(b, 1)
	b = append(b, 2, 'd', 'b', 0, 0, 0, 3, 0, 0, 0, 0, 0, 0, 0x03, 0x84)
	return b
}

func TestEncodeAPMv1WireLayout(t *testing.T) {
	testlog.Start(t)
	msg := sampleAPM(t)
	out, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(out, sampleWire()) {
		t.Fatalf("wire mismatch\n got %x\nwant %x", out, sampleWire())
	}
	viaMethod, err := msg.Encode()
	if err != nil || !bytes.Equal(viaMethod, out) {
		t.Fatalf("method encode differs: %x err=%v", viaMethod, err)
	}
}

func TestDecodeAPMv1RoundTrip(t *testing.T) {
	in := sampleAPM(t)
	wire, err := in.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	trailing := append(append([]byte{}, wire...), 0xde, 0xad)
	msg, n, err := DecodeMessage(trailing)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != len(wire) {
		t.Fatalf("expected %d consumed bytes, got %d", len(wire), n)
	}
	out, ok := msg.(APMv1)
	if !ok {
		t.Fatalf("expected APMv1, got %T", msg)
	}
	if out.Discriminant() != DiscriminantAPMv1 {
		t.Fatalf("unexpected discriminant %v", out.Discriminant())
	}
	if !out.Equal(in) {
		t.Fatalf("round-trip mismatch:\n got %+v\nwant %+v", out, in)
	}
}

func TestDecodeAPMv1NoParts(t *testing.T) {
	in := sampleAPM(t)
	in.Parts = nil
	wire, err := in.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if wire[len(wire)-1] != 0 {
		t.Fatalf("expected zero parts count, got %d", wire[len(wire)-1])
	}
	msg, n, err := DecodeMessage(wire)
	if err != nil || n != len(wire) {
		t.Fatalf("decode: n=%d err=%v", n, err)
	}
	if !msg.(APMv1).Equal(in) {
		t.Fatalf("mismatch")
	}
}

func TestUnknownDiscriminant(t *testing.T) {
	for _, buf := range [][]byte{{0x02}, {0x02, 0x01, 0x02, 0x03}, append([]byte{0x02}, sampleWire()[1:]...)} {
		msg, n, err := DecodeMessage(buf)
		var tagErr UnknownDiscriminantError
		if !errors.As(err, &tagErr) {
			t.Fatalf("expected UnknownDiscriminantError, got %v", err)
		}
		if tagErr.Discriminant != 0x02 || !errors.Is(err, ErrUnknownDiscriminant) {
			t.Fatalf("unexpected error %v", err)
		}
		if msg != nil || n != 0 {
			t.Fatalf("partial result: %v %d", msg, n)
		}
	}
	if Registered(0x02) || !Registered(DiscriminantAPMv1) {
		t.Fatalf("registry mismatch")
	}
}

func TestDecodeEveryTruncationFails(t *testing.T) {
	wire := sampleWire()
	for cut := 0; cut < len(wire); cut++ {
		msg, n, err := DecodeMessage(wire[:cut])
		if !errors.Is(err, ErrTruncated) {
			t.Fatalf("cut %d: expected ErrTruncated, got %v", cut, err)
		}
		if msg != nil || n != 0 {
			t.Fatalf("cut %d: partial result", cut)
		}
	}
}

func TestDecodeErrorPath(t *testing.T) {
	wire := sampleWire()
	// second byte of the part name 'd','b'
	wire[len(wire)-13] = '!'
	_, _, err := DecodeMessage(wire)
	var decErr DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decErr.Field != "parts[0].name" {
		t.Fatalf("unexpected field path %q", decErr.Field)
	}
	var charErr CharacterError
	if !errors.As(err, &charErr) || charErr.Code != '!' {
		t.Fatalf("expected CharacterError('!'), got %v", err)
	}

	wire = sampleWire()
	wire[2] = ' '
	_, _, err = DecodeMessage(wire)
	if !errors.As(err, &decErr) || decErr.Field != "realm" || decErr.Offset != 8 {
		t.Fatalf("expected realm failure at bit 8, got %v", err)
	}
}

func TestPartsCountRecomputed(t *testing.T) {
	msg := sampleAPM(t)
	extra, _ := NewTrackingPart("render", 1, 10)
	msg.Parts = append(msg.Parts, extra)
	wire, err := msg.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	countAt := len(sampleWire()) - 16
	if wire[countAt] != 2 {
		t.Fatalf("expected parts count 2, got %d", wire[countAt])
	}
	out, _, err := DecodeMessage(wire)
	if err != nil || len(out.(APMv1).Parts) != 2 {
		t.Fatalf("decode: %v", err)
	}
}

func TestEncodeTooManyParts(t *testing.T) {
	msg := sampleAPM(t)
	part := msg.Parts[0]
	msg.Parts = make([]TrackingPart, MaxParts+1)
	for i := range msg.Parts {
		msg.Parts[i] = part
	}
	_, err := msg.Encode()
	var lenErr LengthError
	if !errors.As(err, &lenErr) || lenErr.Length != MaxParts+1 || lenErr.Max != MaxParts {
		t.Fatalf("expected LengthError(256), got %v", err)
	}

	msg.Parts = msg.Parts[:MaxParts]
	wire, err := msg.Encode()
	if err != nil {
		t.Fatalf("encode 255 parts: %v", err)
	}
	out, n, err := DecodeMessage(wire)
	if err != nil || n != len(wire) || len(out.(APMv1).Parts) != MaxParts {
		t.Fatalf("decode 255 parts: n=%d err=%v", n, err)
	}
}

func TestEncodeFieldErrorsCarryContext(t *testing.T) {
	msg := sampleAPM(t)
	msg.Status = Status{count: 1, data: []Character{{}}}
	_, err := msg.Encode()
	if !errors.Is(err, ErrDisallowedCharacter) {
		t.Fatalf("expected ErrDisallowedCharacter, got %v", err)
	}
	if got := err.Error(); !bytes.Contains([]byte(got), []byte("status")) {
		t.Fatalf("expected field name in error, got %q", got)
	}
}

func TestEncodeNilMessage(t *testing.T) {
	if _, err := EncodeMessage(nil); !errors.Is(err, ErrNilMessage) {
		t.Fatalf("expected ErrNilMessage, got %v", err)
	}
	var typed *APMv1
	if _, err := EncodeMessage(typed); !errors.Is(err, ErrNilMessage) {
		t.Fatalf("expected ErrNilMessage for nil *APMv1, got %v", err)
	}
	if !IsNil(typed) || !IsNil(nil) {
		t.Fatalf("expected nil messages reported as nil")
	}
}

func TestEncodeMessagePointerBody(t *testing.T) {
	msg := sampleAPM(t)
	got, err := EncodeMessage(&msg)
	if err != nil {
		t.Fatalf("encode pointer: %v", err)
	}
	if !bytes.Equal(got, sampleWire()) {
		t.Fatalf("pointer encoding differs:\n got % x\nwant % x", got, sampleWire())
	}
	if IsNil(&msg) {
		t.Fatalf("non-nil pointer reported as nil")
	}
}

func TestDiscriminantString(t *testing.T) {
	if DiscriminantAPMv1.String() != "apm_v1" {
		t.Fatalf("unexpected name %q", DiscriminantAPMv1.String())
	}
	if Discriminant(0x7f).String() != "unknown(0x7f)" {
		t.Fatalf("unexpected name %q", Discriminant(0x7f).String())
	}
}
