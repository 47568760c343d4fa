package eventstream

import "io"

// Reader pulls whole, verified messages off a byte stream. It keeps no
// state between frames and buffers nothing beyond the frame currently
// being read; a message is not returned until all of its bytes have
// arrived and both checksums verified.
type Reader struct {
	source  io.Reader
	decoder *Decoder
}

// NewReader returns a Reader over source.
func NewReader(source io.Reader, optFns ...func(*DecoderOptions)) *Reader {
	return &Reader{
		source:  source,
		decoder: NewDecoder(optFns...),
	}
}

// ReadMessage returns the next message on the stream. It returns io.EOF
// when the source ends at a clean frame boundary; an end of stream at any
// other point wraps ErrInvalidEventBytes.
func (r *Reader) ReadMessage() (Message, error) {
	return r.decoder.Decode(r.source)
}
