package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/omarluq/go-eventstream/codec"
	"github.com/omarluq/go-eventstream/eventstream"
	"github.com/omarluq/go-eventstream/schema"
)

// ReceiverOptions configures a Receiver.
type ReceiverOptions struct {
	// RequireInitialResponse makes end of stream before an
	// initial-response frame a MissingInitialResponseError instead of a
	// clean EOF.
	RequireInitialResponse bool

	Logger zerolog.Logger
}

type frameResult struct {
	msg eventstream.Message
	err error
}

// Receiver reads frames from a source and dispatches them to modeled
// events. Receive returns events in frame order; io.EOF is the terminal
// sentinel. A single goroutine pumps the shared frame decoder, so the
// synchronous Reader and the context-aware Receiver parse identically.
//
// A Receiver is owned by one logical task; it is not safe for concurrent
// Receive calls.
type Receiver[E Deserializable] struct {
	payloadCodec   codec.Codec
	source         io.Reader
	resolve        Resolver[E]
	decoder        *eventstream.Decoder
	logger         zerolog.Logger
	requireInitial bool

	counting *countingReader
	frames   chan frameResult
	done     chan struct{}
	pumpOnce sync.Once

	mu                 sync.Mutex
	closed             bool
	terminated         bool
	sawInitialResponse bool
}

// NewReceiver returns a Receiver producing events of type E from source,
// decoding payloads with payloadCodec and dispatching frames through
// resolve.
func NewReceiver[E Deserializable](payloadCodec codec.Codec, source io.Reader, resolve Resolver[E], optFns ...func(*ReceiverOptions)) *Receiver[E] {
	options := ReceiverOptions{Logger: zerolog.Nop()}
	for _, fn := range optFns {
		fn(&options)
	}
	return &Receiver[E]{
		payloadCodec:   payloadCodec,
		source:         source,
		resolve:        resolve,
		decoder:        eventstream.NewDecoder(),
		logger:         options.Logger,
		requireInitial: options.RequireInitialResponse,
		counting:       &countingReader{r: source},
		frames:         make(chan frameResult),
		done:           make(chan struct{}),
	}
}

// Receive returns the next event on the stream.
//
// It returns io.EOF once the source ends at a clean frame boundary (and
// on every call after Close). Decode failures and source read failures
// close the receiver and are terminal; modeled and unmodeled service
// errors are returned as *ModeledError and *UnmodeledEventError without
// closing it.
//
// Cancelling ctx before any byte of the next frame has been consumed
// leaves the receiver usable; cancelling mid-frame closes it.
func (r *Receiver[E]) Receive(ctx context.Context) (E, error) {
	var zero E

	r.mu.Lock()
	if r.closed || r.terminated {
		r.mu.Unlock()
		return zero, io.EOF
	}
	r.mu.Unlock()

	consumed := r.counting.count()
	r.pumpOnce.Do(func() { go r.pump() })

	select {
	case <-ctx.Done():
		if r.counting.count() != consumed {
			// The pump is mid-frame; the stream cannot be resumed.
			_ = r.Close()
		}
		return zero, ctx.Err()
	case <-r.done:
		return zero, io.EOF
	case res := <-r.frames:
		if res.err != nil {
			return zero, r.terminate(res.err)
		}
		return r.dispatch(res.msg)
	}
}

// Close closes the receiver and its source (when the source is an
// io.Closer). Close is idempotent; Receive afterwards returns io.EOF.
func (r *Receiver[E]) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	close(r.done)
	if c, ok := r.source.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Closed reports whether the receiver has been closed.
func (r *Receiver[E]) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// pump reads frames off the source and hands them to Receive. It exits on
// the first error result or when the receiver closes.
func (r *Receiver[E]) pump() {
	for {
		msg, err := r.decoder.Decode(r.counting)
		select {
		case r.frames <- frameResult{msg: msg, err: err}:
		case <-r.done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (r *Receiver[E]) terminate(err error) error {
	if errors.Is(err, io.EOF) {
		r.mu.Lock()
		r.terminated = true
		sawInitial := r.sawInitialResponse
		r.mu.Unlock()

		if r.requireInitial && !sawInitial {
			return &MissingInitialResponseError{}
		}
		return io.EOF
	}

	// Decode and read failures leave the stream desynchronized.
	r.logger.Error().Err(err).Msg("stream: frame read failed, closing receiver")
	if closeErr := r.Close(); closeErr != nil {
		r.logger.Warn().Err(closeErr).Msg("stream: source close failed")
	}
	return err
}

func (r *Receiver[E]) dispatch(msg eventstream.Message) (E, error) {
	var zero E

	messageType, ok := msg.Headers.GetString(messageTypeHeader)
	if !ok {
		return zero, fmt.Errorf("stream: frame is missing the %s header", messageTypeHeader)
	}

	switch messageType {
	case messageTypeEvent:
		eventType, ok := msg.Headers.GetString(eventTypeHeader)
		if !ok {
			return zero, fmt.Errorf("stream: event frame is missing the %s header", eventTypeHeader)
		}

		// Initial messages claim the header before union member names.
		kind := KindEvent
		if eventType == initialRequestEventType || eventType == initialResponseEventType {
			kind = KindInitialMessage
			if eventType == initialResponseEventType {
				r.mu.Lock()
				r.sawInitialResponse = true
				r.mu.Unlock()
			}
		}

		event, err := r.resolve(kind, eventType)
		if err != nil {
			return zero, fmt.Errorf("stream: resolve event %q: %w", eventType, err)
		}
		if err := r.bind(event, msg); err != nil {
			return zero, err
		}
		r.logger.Debug().Str("event_type", eventType).Msg("stream: received event")
		return event, nil

	case messageTypeException:
		name, ok := msg.Headers.GetString(exceptionTypeHeader)
		if !ok {
			return zero, fmt.Errorf("stream: exception frame is missing the %s header", exceptionTypeHeader)
		}
		event, err := r.resolve(KindException, name)
		if err != nil {
			return zero, fmt.Errorf("stream: resolve exception %q: %w", name, err)
		}
		if err := r.bind(event, msg); err != nil {
			return zero, err
		}
		return zero, &ModeledError{Name: name, Value: event}

	case messageTypeError:
		code, okCode := msg.Headers.GetString(errorCodeHeader)
		message, okMessage := msg.Headers.GetString(errorMessageHeader)
		if !okCode || !okMessage {
			return zero, fmt.Errorf("stream: unmodeled error frame is missing %s or %s",
				errorCodeHeader, errorMessageHeader)
		}
		return zero, &UnmodeledEventError{Code: code, Message: message}

	default:
		return zero, fmt.Errorf("stream: unknown message type %q", messageType)
	}
}

// bind fills an event from a frame: header-bound members from the header
// map, then the payload through the raw or codec path the schema selects.
func (r *Receiver[E]) bind(event E, msg eventstream.Message) error {
	if hu, ok := any(event).(HeaderUnmarshaler); ok {
		if err := hu.UnmarshalEventHeaders(msg.Headers); err != nil {
			return fmt.Errorf("stream: unmarshal event headers: %w", err)
		}
	}

	if len(msg.Payload) == 0 {
		return nil
	}
	target := event.EventPayloadTarget()
	if target == nil {
		return nil
	}

	if pm := event.EventSchema().PayloadMember(); pm != nil {
		switch pm.Target.Type {
		case schema.ShapeTypeBlob:
			b, ok := target.(*[]byte)
			if !ok {
				return fmt.Errorf("stream: payload member %q requires a *[]byte target, got %T", pm.Name, target)
			}
			*b = msg.Payload
			return nil
		case schema.ShapeTypeString:
			s, ok := target.(*string)
			if !ok {
				return fmt.Errorf("stream: payload member %q requires a *string target, got %T", pm.Name, target)
			}
			*s = string(msg.Payload)
			return nil
		}
	}

	if err := r.payloadCodec.NewDecoder(bytes.NewReader(msg.Payload)).Decode(target); err != nil {
		return fmt.Errorf("stream: decode event payload: %w", err)
	}
	return nil
}

// countingReader tracks bytes consumed from the source so Receive can
// tell a cancellation between frames from one mid-frame.
type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

func (c *countingReader) count() int64 { return c.n.Load() }
