package eventstream

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"hash/crc32"
	"io"

	"github.com/rs/zerolog"
)

// EncoderOptions configures an Encoder.
type EncoderOptions struct {
	// Logger receives debug dumps of encoded messages when LogMessages is
	// set.
	Logger zerolog.Logger

	// LogMessages enables hex dumps of every encoded frame at debug level.
	LogMessages bool
}

// Encoder encodes messages into event stream frames. The zero cost of
// reuse comes from internal buffers; an Encoder is not safe for concurrent
// use.
type Encoder struct {
	options EncoderOptions

	headersBuf *bytes.Buffer
	messageBuf *bytes.Buffer
}

// NewEncoder returns an Encoder.
func NewEncoder(optFns ...func(*EncoderOptions)) *Encoder {
	options := EncoderOptions{Logger: zerolog.Nop()}
	for _, fn := range optFns {
		fn(&options)
	}
	return &Encoder{
		options:    options,
		headersBuf: bytes.NewBuffer(nil),
		messageBuf: bytes.NewBuffer(nil),
	}
}

// Encode writes msg to w as a single frame. The frame is fully assembled
// and checksummed before any byte reaches w, so an encoding failure never
// leaves a partial frame on the writer.
func (e *Encoder) Encode(w io.Writer, msg Message) error {
	e.headersBuf.Reset()
	e.messageBuf.Reset()

	if err := EncodeHeaders(e.headersBuf, msg.Headers); err != nil {
		return err
	}
	headers := e.headersBuf.Bytes()

	if len(headers) > MaxHeadersLength {
		return &InvalidHeadersLengthError{Length: len(headers)}
	}
	if len(msg.Payload) > MaxPayloadLength {
		return &InvalidPayloadLengthError{Length: len(msg.Payload)}
	}

	totalLength := metadataLen + len(headers) + len(msg.Payload)

	var prelude [8]byte
	binary.BigEndian.PutUint32(prelude[0:4], uint32(totalLength))
	binary.BigEndian.PutUint32(prelude[4:8], uint32(len(headers)))
	preludeCRC := crc32.Checksum(prelude[:], crcTable)

	var scratch [4]byte
	e.messageBuf.Write(prelude[:])
	binary.BigEndian.PutUint32(scratch[:], preludeCRC)
	e.messageBuf.Write(scratch[:])
	e.messageBuf.Write(headers)
	e.messageBuf.Write(msg.Payload)

	// The message CRC continues from the prelude CRC state over the
	// prelude CRC bytes, headers, and payload.
	messageCRC := crc32.Update(preludeCRC, crcTable, e.messageBuf.Bytes()[8:])
	binary.BigEndian.PutUint32(scratch[:], messageCRC)
	e.messageBuf.Write(scratch[:])

	if e.options.LogMessages {
		e.options.Logger.Debug().
			Str("frame", hex.EncodeToString(e.messageBuf.Bytes())).
			Int("total_length", totalLength).
			Msg("eventstream: encoded frame")
	}

	_, err := w.Write(e.messageBuf.Bytes())
	return err
}
