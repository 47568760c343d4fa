package eventstream

import (
	"errors"
	"fmt"
)

// ErrInvalidEventBytes is returned, possibly wrapped with detail, when a
// frame cannot be parsed as a prelude+body+crc structure because bytes are
// missing or truncated.
//
// Use errors.Is to check for it:
//
//	msg, err := reader.ReadMessage()
//	if errors.Is(err, eventstream.ErrInvalidEventBytes) {
//		// the stream is desynchronized and cannot be resumed
//	}
var ErrInvalidEventBytes = errors.New("eventstream: invalid event bytes")

// ChecksumError is returned when a prelude or message CRC does not match
// the computed value.
type ChecksumError struct {
	Expected uint32
	Computed uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("eventstream: checksum mismatch: expected 0x%08x, computed 0x%08x",
		e.Expected, e.Computed)
}

// InvalidHeadersLengthError is returned when a headers block exceeds
// MaxHeadersLength.
type InvalidHeadersLengthError struct {
	Length int
}

func (e *InvalidHeadersLengthError) Error() string {
	return fmt.Sprintf("eventstream: headers length %d exceeds the maximum of %d",
		e.Length, MaxHeadersLength)
}

// InvalidPayloadLengthError is returned when a payload exceeds
// MaxPayloadLength.
type InvalidPayloadLengthError struct {
	Length int
}

func (e *InvalidPayloadLengthError) Error() string {
	return fmt.Sprintf("eventstream: payload length %d exceeds the maximum of %d",
		e.Length, MaxPayloadLength)
}

// InvalidHeaderValueLengthError is returned when a string or byte-array
// header value exceeds MaxHeaderValueLength.
type InvalidHeaderValueLengthError struct {
	Length int
}

func (e *InvalidHeaderValueLengthError) Error() string {
	return fmt.Sprintf("eventstream: header value length %d exceeds the maximum of %d",
		e.Length, MaxHeaderValueLength)
}

// InvalidHeaderValueError is returned when a header name or value is
// ill-formed: an unknown type tag, invalid UTF-8, or a name outside the
// 1..255 byte range.
type InvalidHeaderValueError struct {
	Message string
}

func (e *InvalidHeaderValueError) Error() string {
	return "eventstream: invalid header value: " + e.Message
}

// InvalidIntegerValueError is returned when an integer header value does
// not fit its declared width.
type InvalidIntegerValueError struct {
	Size  string
	Value int64
}

func (e *InvalidIntegerValueError) Error() string {
	return fmt.Sprintf("eventstream: invalid %s value: %d", e.Size, e.Value)
}

// DuplicateHeaderError is returned when two headers share a name within a
// single frame.
type DuplicateHeaderError struct {
	Name string
}

func (e *DuplicateHeaderError) Error() string {
	return fmt.Sprintf("eventstream: duplicate header %q", e.Name)
}
