package eventstream

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// valueType is the wire discriminant for header values.
type valueType uint8

const (
	trueValueType      valueType = 0
	falseValueType     valueType = 1
	int8ValueType      valueType = 2
	int16ValueType     valueType = 3
	int32ValueType     valueType = 4
	int64ValueType     valueType = 5
	bytesValueType     valueType = 6
	stringValueType    valueType = 7
	timestampValueType valueType = 8
	uuidValueType      valueType = 9
)

func (t valueType) String() string {
	switch t {
	case trueValueType:
		return "bool"
	case falseValueType:
		return "bool"
	case int8ValueType:
		return "int8"
	case int16ValueType:
		return "int16"
	case int32ValueType:
		return "int32"
	case int64ValueType:
		return "int64"
	case bytesValueType:
		return "byte_array"
	case stringValueType:
		return "string"
	case timestampValueType:
		return "timestamp"
	case uuidValueType:
		return "uuid"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Value is a typed event header value. The implementations form a closed
// set matching the ten wire type tags: BoolValue, Int8Value, Int16Value,
// Int32Value, Int64Value, BytesValue, StringValue, TimestampValue, and
// UUIDValue. Integer width is carried by the concrete type and preserved
// through a decode/encode round trip.
type Value interface {
	// Get returns the underlying Go value.
	Get() any

	String() string

	valueType() valueType
	encode(w io.Writer) error
}

// IntValue converts an integer of unspecified width to a header value.
// It selects the 32-bit encoding, failing with InvalidIntegerValueError
// when the value does not fit. Callers that need a different width should
// use the sized types directly.
func IntValue(v int64) (Value, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return nil, &InvalidIntegerValueError{Size: "int32", Value: v}
	}
	return Int32Value(v), nil
}

func writeTag(w io.Writer, t valueType) error {
	_, err := w.Write([]byte{byte(t)})
	return err
}

// BoolValue is a boolean header value. It encodes as a bare type tag with
// no value bytes.
type BoolValue bool

func (v BoolValue) Get() any { return bool(v) }

func (v BoolValue) String() string { return fmt.Sprintf("%t", bool(v)) }

func (v BoolValue) valueType() valueType {
	if v {
		return trueValueType
	}
	return falseValueType
}

func (v BoolValue) encode(w io.Writer) error {
	return writeTag(w, v.valueType())
}

// Int8Value is an 8-bit signed integer header value.
type Int8Value int8

func (v Int8Value) Get() any { return int8(v) }

func (v Int8Value) String() string { return fmt.Sprintf("%d", int8(v)) }

func (v Int8Value) valueType() valueType { return int8ValueType }

func (v Int8Value) encode(w io.Writer) error {
	_, err := w.Write([]byte{byte(int8ValueType), byte(v)})
	return err
}

// Int16Value is a 16-bit signed integer header value.
type Int16Value int16

func (v Int16Value) Get() any { return int16(v) }

func (v Int16Value) String() string { return fmt.Sprintf("%d", int16(v)) }

func (v Int16Value) valueType() valueType { return int16ValueType }

func (v Int16Value) encode(w io.Writer) error {
	var buf [3]byte
	buf[0] = byte(int16ValueType)
	binary.BigEndian.PutUint16(buf[1:], uint16(v))
	_, err := w.Write(buf[:])
	return err
}

// Int32Value is a 32-bit signed integer header value.
type Int32Value int32

func (v Int32Value) Get() any { return int32(v) }

func (v Int32Value) String() string { return fmt.Sprintf("%d", int32(v)) }

func (v Int32Value) valueType() valueType { return int32ValueType }

func (v Int32Value) encode(w io.Writer) error {
	var buf [5]byte
	buf[0] = byte(int32ValueType)
	binary.BigEndian.PutUint32(buf[1:], uint32(v))
	_, err := w.Write(buf[:])
	return err
}

// Int64Value is a 64-bit signed integer header value.
type Int64Value int64

func (v Int64Value) Get() any { return int64(v) }

func (v Int64Value) String() string { return fmt.Sprintf("%d", int64(v)) }

func (v Int64Value) valueType() valueType { return int64ValueType }

func (v Int64Value) encode(w io.Writer) error {
	var buf [9]byte
	buf[0] = byte(int64ValueType)
	binary.BigEndian.PutUint64(buf[1:], uint64(v))
	_, err := w.Write(buf[:])
	return err
}

// BytesValue is a byte-array header value. Values are limited to
// MaxHeaderValueLength bytes.
type BytesValue []byte

func (v BytesValue) Get() any { return []byte(v) }

func (v BytesValue) String() string { return hex.EncodeToString(v) }

func (v BytesValue) valueType() valueType { return bytesValueType }

func (v BytesValue) encode(w io.Writer) error {
	if len(v) > MaxHeaderValueLength {
		return &InvalidHeaderValueLengthError{Length: len(v)}
	}
	var buf [3]byte
	buf[0] = byte(bytesValueType)
	binary.BigEndian.PutUint16(buf[1:], uint16(len(v)))
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	_, err := w.Write(v)
	return err
}

// StringValue is a UTF-8 string header value. Values are limited to
// MaxHeaderValueLength bytes.
type StringValue string

func (v StringValue) Get() any { return string(v) }

func (v StringValue) String() string { return string(v) }

func (v StringValue) valueType() valueType { return stringValueType }

func (v StringValue) encode(w io.Writer) error {
	if len(v) > MaxHeaderValueLength {
		return &InvalidHeaderValueLengthError{Length: len(v)}
	}
	if !utf8.ValidString(string(v)) {
		return &InvalidHeaderValueError{Message: "string value is not valid UTF-8"}
	}
	var buf [3]byte
	buf[0] = byte(stringValueType)
	binary.BigEndian.PutUint16(buf[1:], uint16(len(v)))
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	_, err := io.WriteString(w, string(v))
	return err
}

// TimestampValue is a millisecond-resolution UTC timestamp header value.
// It encodes as a signed 64-bit count of milliseconds since the Unix
// epoch; sub-millisecond precision is truncated.
type TimestampValue time.Time

func (v TimestampValue) Get() any { return time.Time(v) }

func (v TimestampValue) String() string {
	return time.Time(v).UTC().Format(time.RFC3339Nano)
}

func (v TimestampValue) valueType() valueType { return timestampValueType }

func (v TimestampValue) encode(w io.Writer) error {
	var buf [9]byte
	buf[0] = byte(timestampValueType)
	binary.BigEndian.PutUint64(buf[1:], uint64(time.Time(v).UnixMilli()))
	_, err := w.Write(buf[:])
	return err
}

// UUIDValue is a UUID header value, encoded as 16 raw bytes.
type UUIDValue uuid.UUID

func (v UUIDValue) Get() any { return uuid.UUID(v) }

func (v UUIDValue) String() string { return uuid.UUID(v).String() }

func (v UUIDValue) valueType() valueType { return uuidValueType }

func (v UUIDValue) encode(w io.Writer) error {
	if _, err := w.Write([]byte{byte(uuidValueType)}); err != nil {
		return err
	}
	id := uuid.UUID(v)
	_, err := w.Write(id[:])
	return err
}
