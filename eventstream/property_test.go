package eventstream

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// headersFromNames derives a unique, bounded header name from each
// generated string and cycles the value across the string, int32, int64,
// bool, and byte-array types.
func headersFromNames(names []string) Headers {
	var hs Headers
	for i, n := range names {
		name := fmt.Sprintf("h%d-%s", i, n)
		if len(name) > 255 {
			name = name[:255]
		}

		var value Value
		switch i % 5 {
		case 0:
			value = StringValue(n)
		case 1:
			value = Int32Value(int32(len(n)))
		case 2:
			value = Int64Value(int64(i) * 1_000_000_007)
		case 3:
			value = BoolValue(i%2 == 0)
		default:
			value = BytesValue([]byte(n))
		}
		hs = append(hs, Header{Name: name, Value: value})
	}
	return hs
}

func TestFrameCodec_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("decode(encode(m)) == m", prop.ForAll(
		func(names []string, payload []byte) bool {
			msg := Message{Headers: headersFromNames(names), Payload: payload}

			var wire bytes.Buffer
			if err := NewEncoder().Encode(&wire, msg); err != nil {
				return false
			}
			decoded, err := NewDecoder().Decode(&wire)
			if err != nil {
				return false
			}

			if len(decoded.Headers) != len(msg.Headers) {
				return false
			}
			for i, h := range msg.Headers {
				if decoded.Headers[i].Name != h.Name {
					return false
				}
				if decoded.Headers[i].Value.String() != h.Value.String() {
					return false
				}
			}
			return bytes.Equal(decoded.Payload, payload)
		},
		gen.SliceOf(gen.Identifier()),
		gen.SliceOf(gen.UInt8()),
	))

	properties.Property("total length matches the frame arithmetic", prop.ForAll(
		func(names []string, payload []byte) bool {
			msg := Message{Headers: headersFromNames(names), Payload: payload}

			var wire bytes.Buffer
			if err := NewEncoder().Encode(&wire, msg); err != nil {
				return false
			}
			frame := wire.Bytes()

			totalLength := int(binary.BigEndian.Uint32(frame[0:4]))
			headersLength := int(binary.BigEndian.Uint32(frame[4:8]))
			payloadLength := len(payload)

			return totalLength == len(frame) &&
				totalLength == preludeLen+headersLength+payloadLength+trailerLen
		},
		gen.SliceOf(gen.Identifier()),
		gen.SliceOf(gen.UInt8()),
	))

	properties.Property("a reader yields exactly the encoded frames", prop.ForAll(
		func(payloads [][]byte) bool {
			var wire bytes.Buffer
			enc := NewEncoder()
			for _, p := range payloads {
				if err := enc.Encode(&wire, Message{Payload: p}); err != nil {
					return false
				}
			}

			reader := NewReader(&wire)
			for _, p := range payloads {
				msg, err := reader.ReadMessage()
				if err != nil || !bytes.Equal(msg.Payload, p) {
					return false
				}
			}
			_, err := reader.ReadMessage()
			return err == io.EOF
		},
		gen.SliceOf(gen.SliceOf(gen.UInt8())),
	))

	properties.TestingRun(t)
}
