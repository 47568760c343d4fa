// Package eventstream implements the application/vnd.amazon.eventstream
// binary framing format.
//
// Every message on the wire is a self-delimiting frame:
//
//   - Total byte length (4 bytes, big-endian)
//   - Headers byte length (4 bytes, big-endian)
//   - Prelude CRC (4 bytes, IEEE CRC32 of the first 8 bytes)
//   - Headers (variable length, typed key/value records)
//   - Payload (variable length)
//   - Message CRC (4 bytes, IEEE CRC32 continued from the prelude CRC
//     over the prelude CRC bytes, headers, and payload)
//
// Messages are encoded with Encoder, decoded one at a time with Decoder,
// and pulled off a byte stream with Reader. Header values are represented
// by the closed set of Value implementations in this package.
package eventstream

import "hash/crc32"

const (
	// MaxHeadersLength is the maximum byte length of the headers block.
	MaxHeadersLength = 128 * 1024

	// MaxHeaderValueLength is the maximum byte length of a string or
	// byte-array header value.
	MaxHeaderValueLength = 32*1024 - 1

	// MaxPayloadLength is the maximum byte length of a message payload.
	MaxPayloadLength = 16 * 1024 * 1024

	// preludeLen is the byte length of the prelude, including its CRC.
	preludeLen = 12

	// trailerLen is the byte length of the trailing message CRC.
	trailerLen = 4

	// metadataLen is the framing overhead of a message: the prelude plus
	// the trailing CRC. It is also the length of the smallest valid frame.
	metadataLen = preludeLen + trailerLen
)

// crcTable is the precomputed IEEE CRC32 table used for both checksums.
var crcTable = crc32.MakeTable(crc32.IEEE)
