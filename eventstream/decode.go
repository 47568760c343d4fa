package eventstream

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/rs/zerolog"
)

// DecoderOptions configures a Decoder.
type DecoderOptions struct {
	// Logger receives debug dumps of decoded messages when LogMessages is
	// set.
	Logger zerolog.Logger

	// LogMessages enables hex dumps of every decoded frame at debug level.
	LogMessages bool
}

// Decoder decodes event stream frames from a reader, one frame per call.
type Decoder struct {
	options DecoderOptions
}

// NewDecoder returns a Decoder.
func NewDecoder(optFns ...func(*DecoderOptions)) *Decoder {
	options := DecoderOptions{Logger: zerolog.Nop()}
	for _, fn := range optFns {
		fn(&options)
	}
	return &Decoder{options: options}
}

// Decode reads exactly one frame from r and returns the verified message.
//
// io.EOF is returned when r is exhausted at a clean frame boundary, before
// any byte of the next prelude. Truncation at any later point wraps
// ErrInvalidEventBytes; a checksum failure returns ChecksumError. Both
// checksums are verified and the header block fully decoded before the
// message is returned, so a delivered message is always well formed.
func (d *Decoder) Decode(r io.Reader) (Message, error) {
	msg, err := decodeMessage(r)
	if err != nil {
		return Message{}, err
	}
	if d.options.LogMessages {
		d.options.Logger.Debug().
			Strs("headers", msg.Headers.Names()).
			Str("payload", hex.EncodeToString(msg.Payload)).
			Msg("eventstream: decoded frame")
	}
	return msg, nil
}

func decodeMessage(r io.Reader) (Message, error) {
	var prelude [8]byte
	if _, err := io.ReadFull(r, prelude[:]); err != nil {
		if errors.Is(err, io.EOF) {
			// Nothing read at all: a clean end of stream.
			return Message{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Message{}, fmt.Errorf("%w: truncated prelude", ErrInvalidEventBytes)
		}
		return Message{}, err
	}

	preludeCRC, err := readUint32(r, "prelude crc")
	if err != nil {
		return Message{}, err
	}
	if computed := crc32.Checksum(prelude[:], crcTable); computed != preludeCRC {
		return Message{}, &ChecksumError{Expected: preludeCRC, Computed: computed}
	}

	p := messagePrelude{
		totalLength:   binary.BigEndian.Uint32(prelude[0:4]),
		headersLength: binary.BigEndian.Uint32(prelude[4:8]),
		crc:           preludeCRC,
	}
	if err := p.validate(); err != nil {
		return Message{}, err
	}

	body := make([]byte, p.totalLength-metadataLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return Message{}, fmt.Errorf("%w: truncated message body", ErrInvalidEventBytes)
	}

	messageCRC, err := readUint32(r, "message crc")
	if err != nil {
		return Message{}, err
	}

	// Continue the CRC from the prelude state over the prelude CRC bytes
	// and the body, mirroring the encoder.
	var preludeCRCBytes [4]byte
	binary.BigEndian.PutUint32(preludeCRCBytes[:], preludeCRC)
	computed := crc32.Update(preludeCRC, crcTable, preludeCRCBytes[:])
	computed = crc32.Update(computed, crcTable, body)
	if computed != messageCRC {
		return Message{}, &ChecksumError{Expected: messageCRC, Computed: computed}
	}

	headers, err := DecodeHeaders(body[:p.headersLength])
	if err != nil {
		return Message{}, err
	}

	return Message{Headers: headers, Payload: body[p.headersLength:]}, nil
}

func readUint32(r io.Reader, what string) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, fmt.Errorf("%w: truncated %s", ErrInvalidEventBytes, what)
		}
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}
