package codec

import (
	"encoding/json"
	"io"
)

// JSON is the application/json payload codec.
type JSON struct{}

func (JSON) MediaType() string { return "application/json" }

func (JSON) NewEncoder(w io.Writer) Encoder { return jsonEncoder{w: w} }

func (JSON) NewDecoder(r io.Reader) Decoder { return json.NewDecoder(r) }

// jsonEncoder marshals in one shot rather than wrapping json.Encoder,
// which terminates every value with a newline that would become part of
// the frame payload.
type jsonEncoder struct {
	w io.Writer
}

func (e jsonEncoder) Encode(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = e.w.Write(data)
	return err
}
