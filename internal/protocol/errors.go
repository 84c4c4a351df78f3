package protocol

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDisallowedCharacter = errors.New("protocol: disallowed character")
	ErrLength              = errors.New("protocol: length exceeds capacity")
	ErrTruncated           = errors.New("protocol: truncated data")
	ErrUnknownDiscriminant = errors.New("protocol: unknown discriminant")
	ErrTextConversion      = errors.New("protocol: invalid utf-8 text")
	ErrNilMessage          = errors.New("protocol: nil message")
)

// CharacterError reports a byte outside the allowed set.
type CharacterError struct {
	Code byte
}

func (e CharacterError) Error() string {
	return fmt.Sprintf("protocol: character code %#04x is not allowed", e.Code)
}

func (e CharacterError) Is(target error) bool {
	return target == ErrDisallowedCharacter
}

// LengthError reports a length above a capacity class maximum.
type LengthError struct {
	Length int
	Max    int
}

func (e LengthError) Error() string {
	return fmt.Sprintf("protocol: length %d exceeds maximum %d", e.Length, e.Max)
}

func (e LengthError) Is(target error) bool {
	return target == ErrLength
}

// UnknownDiscriminantError reports a message tag with no registered body.
type UnknownDiscriminantError struct {
	Discriminant byte
}

func (e UnknownDiscriminantError) Error() string {
	return fmt.Sprintf("protocol: unknown discriminant %#04x", e.Discriminant)
}

func (e UnknownDiscriminantError) Is(target error) bool {
	return target == ErrUnknownDiscriminant
}

// TextConversionError reports bytes that are not valid UTF-8.
type TextConversionError struct {
	Offset int
}

func (e TextConversionError) Error() string {
	return fmt.Sprintf("protocol: invalid utf-8 at byte %d", e.Offset)
}

func (e TextConversionError) Is(target error) bool {
	return target == ErrTextConversion
}

// DecodeError locates a decode failure inside a composite record.
// Field is a dotted path such as "parts[2].name"; Offset is the bit
// position where the failing field started.
type DecodeError struct {
	Field  string
	Offset int
	Err    error
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("protocol: decode %s at bit %d: %v", e.Field, e.Offset, e.Err)
}

func (e DecodeError) Unwrap() error {
	return e.Err
}

func decodeFailed(field string, offset int, err error) error {
	var inner DecodeError
	if errors.As(err, &inner) {
		path := inner.Field
		if !strings.HasPrefix(path, "[") {
			path = "." + path
		}
		return DecodeError{Field: field + path, Offset: inner.Offset, Err: inner.Err}
	}
	return DecodeError{Field: field, Offset: offset, Err: err}
}
