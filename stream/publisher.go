package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/omarluq/go-eventstream/codec"
	"github.com/omarluq/go-eventstream/eventstream"
	"github.com/omarluq/go-eventstream/schema"
	"github.com/omarluq/go-eventstream/sign"
)

// PublisherOptions configures a Publisher.
type PublisherOptions struct {
	// Mode selects the initial-message event type; it defaults to
	// ClientMode.
	Mode Mode

	// Signer enables chunked event signing: every frame is wrapped in an
	// outer signed frame, and Close emits the signed end-of-stream
	// sentinel.
	Signer *sign.EventSigner

	// InitialSignature seeds the signature chain, normally with the
	// signature of the initial HTTP request.
	InitialSignature []byte

	Logger zerolog.Logger
}

// Publisher serializes modeled events to frames and writes them to a
// sink. Sends are FIFO; a mutex serializes concurrent callers. The
// publisher owns the sink for its lifetime and closes it (when it is an
// io.Closer) on Close or after a failed write.
type Publisher[E Serializable] struct {
	mu sync.Mutex

	payloadCodec codec.Codec
	sink         io.Writer
	encoder      *eventstream.Encoder
	mode         Mode
	signer       *sign.EventSigner
	priorSig     []byte
	logger       zerolog.Logger

	closed bool
}

// NewPublisher returns a Publisher writing frames for events of type E to
// sink, serializing payloads with payloadCodec.
func NewPublisher[E Serializable](payloadCodec codec.Codec, sink io.Writer, optFns ...func(*PublisherOptions)) *Publisher[E] {
	options := PublisherOptions{Logger: zerolog.Nop()}
	for _, fn := range optFns {
		fn(&options)
	}
	return &Publisher[E]{
		payloadCodec: payloadCodec,
		sink:         sink,
		encoder:      eventstream.NewEncoder(),
		mode:         options.Mode,
		signer:       options.Signer,
		priorSig:     options.InitialSignature,
		logger:       options.Logger,
	}
}

// Send serializes event, signs it when a signer is configured, and writes
// the frame to the sink. Serialization failures leave the publisher open;
// a failed write closes it and every later Send fails with
// ErrPublisherClosed.
func (p *Publisher[E]) Send(ctx context.Context, event E) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPublisherClosed
	}

	msg, err := p.serialize(event)
	if err != nil {
		return err
	}

	p.logger.Debug().
		Strs("headers", msg.Headers.Names()).
		Int("payload_len", len(msg.Payload)).
		Msg("stream: publishing event")

	return p.writeLocked(ctx, msg)
}

// Close closes the publisher. With a signer configured it first emits the
// signed end-of-stream sentinel. Close is idempotent and propagates to
// the sink when the sink is an io.Closer.
func (p *Publisher[E]) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	var sentinelErr error
	if p.signer != nil {
		sentinelErr = p.writeSignedLocked(ctx, nil)
	}

	if closeErr := p.closeLocked(); closeErr != nil {
		return closeErr
	}
	return sentinelErr
}

// Closed reports whether the publisher has been closed.
func (p *Publisher[E]) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Publisher[E]) closeLocked() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if c, ok := p.sink.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// serialize maps an event to a frame: base headers from the schema,
// header-bound members, and the payload with its content type.
func (p *Publisher[E]) serialize(event E) (eventstream.Message, error) {
	s := event.EventSchema()

	var headers eventstream.Headers
	if s.Error {
		headers.Set(messageTypeHeader, eventstream.StringValue(messageTypeException))
		headers.Set(exceptionTypeHeader, eventstream.StringValue(s.MemberName))
	} else {
		headers.Set(messageTypeHeader, eventstream.StringValue(messageTypeEvent))
		eventType := s.MemberName
		if eventType == "" {
			if p.mode == ClientMode {
				eventType = initialRequestEventType
			} else {
				eventType = initialResponseEventType
			}
		}
		headers.Set(eventTypeHeader, eventstream.StringValue(eventType))
	}

	for _, h := range event.EventHeaders() {
		headers.Set(h.Name, h.Value)
	}

	payload, contentType, err := p.encodePayload(s, event)
	if err != nil {
		return eventstream.Message{}, err
	}
	if len(payload) > 0 {
		headers.Set(contentTypeHeader, eventstream.StringValue(contentType))
	}

	return eventstream.Message{Headers: headers, Payload: payload}, nil
}

func (p *Publisher[E]) encodePayload(s *schema.Schema, event E) (payload []byte, contentType string, err error) {
	value := event.EventPayload()
	if value == nil {
		return nil, "", nil
	}

	if pm := s.PayloadMember(); pm != nil {
		switch pm.Target.Type {
		case schema.ShapeTypeBlob:
			b, ok := value.([]byte)
			if !ok {
				return nil, "", fmt.Errorf("stream: payload member %q requires []byte, got %T", pm.Name, value)
			}
			return b, payloadMediaType(pm.Target, defaultBlobContentType), nil
		case schema.ShapeTypeString:
			str, ok := value.(string)
			if !ok {
				return nil, "", fmt.Errorf("stream: payload member %q requires string, got %T", pm.Name, value)
			}
			return []byte(str), payloadMediaType(pm.Target, defaultStringContentType), nil
		default:
			return p.encodeCodecPayload(value, payloadMediaType(pm.Target, p.payloadCodec.MediaType()))
		}
	}

	return p.encodeCodecPayload(value, p.payloadCodec.MediaType())
}

func (p *Publisher[E]) encodeCodecPayload(value any, contentType string) ([]byte, string, error) {
	if value == nil {
		return nil, "", nil
	}
	var buf bytes.Buffer
	if err := p.payloadCodec.NewEncoder(&buf).Encode(value); err != nil {
		return nil, "", fmt.Errorf("stream: encode event payload: %w", err)
	}
	return buf.Bytes(), contentType, nil
}

func payloadMediaType(target *schema.Schema, fallback string) string {
	if target.MediaType != "" {
		return target.MediaType
	}
	return fallback
}

// writeLocked encodes msg and writes it to the sink. The frame is fully
// assembled before the write, so an encoding failure leaves the publisher
// open while a sink failure closes it.
func (p *Publisher[E]) writeLocked(ctx context.Context, msg eventstream.Message) error {
	if p.signer != nil {
		var inner bytes.Buffer
		if err := p.encoder.Encode(&inner, msg); err != nil {
			return err
		}
		return p.writeSignedLocked(ctx, inner.Bytes())
	}

	var frame bytes.Buffer
	if err := p.encoder.Encode(&frame, msg); err != nil {
		return err
	}
	return p.writeFrameLocked(frame.Bytes())
}

// writeSignedLocked wraps inner (a fully encoded frame, or nil for the
// end-of-stream sentinel) in an outer signed frame and writes it.
func (p *Publisher[E]) writeSignedLocked(ctx context.Context, inner []byte) error {
	headers, signature, err := p.signer.SignEvent(ctx, inner, p.priorSig)
	if err != nil {
		return err
	}

	var frame bytes.Buffer
	outer := eventstream.Message{Headers: headers, Payload: inner}
	if err := p.encoder.Encode(&frame, outer); err != nil {
		return err
	}
	if err := p.writeFrameLocked(frame.Bytes()); err != nil {
		return err
	}

	p.priorSig = signature
	return nil
}

func (p *Publisher[E]) writeFrameLocked(frame []byte) error {
	if _, err := p.sink.Write(frame); err != nil {
		closeErr := p.closeLocked()
		p.logger.Error().Err(err).Msg("stream: sink write failed, closing publisher")
		if closeErr != nil {
			p.logger.Warn().Err(closeErr).Msg("stream: sink close failed")
		}
		return fmt.Errorf("stream: write frame: %w", err)
	}
	return nil
}
