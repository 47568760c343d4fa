package eventstream

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// EncodeHeaders writes the headers to w in the event stream wire format,
// in insertion order. It fails with DuplicateHeaderError if two headers
// share a name, and with InvalidHeaderValueError for names outside the
// 1..255 UTF-8 byte range.
func EncodeHeaders(w io.Writer, headers Headers) error {
	seen := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		if _, ok := seen[h.Name]; ok {
			return &DuplicateHeaderError{Name: h.Name}
		}
		seen[h.Name] = struct{}{}

		if err := encodeHeaderName(w, h.Name); err != nil {
			return err
		}
		if h.Value == nil {
			return &InvalidHeaderValueError{Message: fmt.Sprintf("header %q has no value", h.Name)}
		}
		if err := h.Value.encode(w); err != nil {
			return err
		}
	}
	return nil
}

func encodeHeaderName(w io.Writer, name string) error {
	if len(name) == 0 || len(name) > 255 {
		return &InvalidHeaderValueError{
			Message: fmt.Sprintf("header name must be 1..255 bytes, got %d", len(name)),
		}
	}
	if !utf8.ValidString(name) {
		return &InvalidHeaderValueError{Message: "header name is not valid UTF-8"}
	}
	if _, err := w.Write([]byte{byte(len(name))}); err != nil {
		return err
	}
	_, err := io.WriteString(w, name)
	return err
}

// DecodeHeaders decodes a complete headers block, reading records until
// the input is exhausted. It fails with DuplicateHeaderError on a repeated
// name and wraps ErrInvalidEventBytes on truncation.
func DecodeHeaders(data []byte) (Headers, error) {
	if len(data) > MaxHeadersLength {
		return nil, &InvalidHeadersLengthError{Length: len(data)}
	}

	var headers Headers
	seen := make(map[string]struct{})
	for len(data) > 0 {
		name, value, rest, err := decodeHeader(data)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[name]; ok {
			return nil, &DuplicateHeaderError{Name: name}
		}
		seen[name] = struct{}{}
		headers = append(headers, Header{Name: name, Value: value})
		data = rest
	}
	return headers, nil
}

// decodeHeader reads a single header record from the front of data and
// returns the remaining bytes.
func decodeHeader(data []byte) (name string, value Value, rest []byte, err error) {
	if len(data) < 1 {
		return "", nil, nil, fmt.Errorf("%w: truncated header name length", ErrInvalidEventBytes)
	}
	nameLen := int(data[0])
	if nameLen == 0 {
		return "", nil, nil, fmt.Errorf("%w: empty header name", ErrInvalidEventBytes)
	}
	if len(data) < 1+nameLen+1 {
		return "", nil, nil, fmt.Errorf("%w: truncated header name", ErrInvalidEventBytes)
	}
	name = string(data[1 : 1+nameLen])
	if !utf8.ValidString(name) {
		return "", nil, nil, &InvalidHeaderValueError{Message: "header name is not valid UTF-8"}
	}

	tag := valueType(data[1+nameLen])
	value, rest, err = decodeValue(tag, data[2+nameLen:], name)
	return name, value, rest, err
}

func decodeValue(tag valueType, data []byte, name string) (Value, []byte, error) {
	need := func(n int) error {
		if len(data) < n {
			return fmt.Errorf("%w: truncated %s value for header %q",
				ErrInvalidEventBytes, tag, name)
		}
		return nil
	}

	switch tag {
	case trueValueType:
		return BoolValue(true), data, nil
	case falseValueType:
		return BoolValue(false), data, nil
	case int8ValueType:
		if err := need(1); err != nil {
			return nil, nil, err
		}
		return Int8Value(int8(data[0])), data[1:], nil
	case int16ValueType:
		if err := need(2); err != nil {
			return nil, nil, err
		}
		return Int16Value(int16(binary.BigEndian.Uint16(data))), data[2:], nil
	case int32ValueType:
		if err := need(4); err != nil {
			return nil, nil, err
		}
		return Int32Value(int32(binary.BigEndian.Uint32(data))), data[4:], nil
	case int64ValueType:
		if err := need(8); err != nil {
			return nil, nil, err
		}
		return Int64Value(int64(binary.BigEndian.Uint64(data))), data[8:], nil
	case bytesValueType, stringValueType:
		if err := need(2); err != nil {
			return nil, nil, err
		}
		valueLen := int(binary.BigEndian.Uint16(data))
		if valueLen > MaxHeaderValueLength {
			return nil, nil, &InvalidHeaderValueLengthError{Length: valueLen}
		}
		if err := need(2 + valueLen); err != nil {
			return nil, nil, err
		}
		raw, rest := data[2:2+valueLen], data[2+valueLen:]
		if tag == bytesValueType {
			out := make([]byte, valueLen)
			copy(out, raw)
			return BytesValue(out), rest, nil
		}
		if !utf8.Valid(raw) {
			return nil, nil, &InvalidHeaderValueError{
				Message: fmt.Sprintf("string value for header %q is not valid UTF-8", name),
			}
		}
		return StringValue(raw), rest, nil
	case timestampValueType:
		if err := need(8); err != nil {
			return nil, nil, err
		}
		millis := int64(binary.BigEndian.Uint64(data))
		return TimestampValue(time.UnixMilli(millis).UTC()), data[8:], nil
	case uuidValueType:
		if err := need(16); err != nil {
			return nil, nil, err
		}
		var id uuid.UUID
		copy(id[:], data[:16])
		return UUIDValue(id), data[16:], nil
	default:
		return nil, nil, &InvalidHeaderValueError{
			Message: fmt.Sprintf("unknown type tag %d for header %q", uint8(tag), name),
		}
	}
}
