// Package codec defines the payload codec capability consumed by the
// event pipeline, and provides the JSON implementation.
//
// A codec is invoked once per frame over an isolated byte buffer; it
// never sees the frame prelude, headers, or checksums.
package codec

import "io"

// Encoder serializes values into the byte sink it was created over.
type Encoder interface {
	Encode(v any) error
}

// Decoder deserializes values from the byte source it was created over.
type Decoder interface {
	Decode(v any) error
}

// Codec creates encoders and decoders for a payload media type.
type Codec interface {
	// MediaType returns the content type the codec produces, such as
	// "application/json".
	MediaType() string

	NewEncoder(w io.Writer) Encoder
	NewDecoder(r io.Reader) Decoder
}
