// Package stream bridges modeled events and event stream frames: a
// Publisher serializes, optionally signs, and writes events; a Receiver
// reads, verifies, and dispatches them back to modeled types.
package stream

import (
	"github.com/omarluq/go-eventstream/eventstream"
	"github.com/omarluq/go-eventstream/schema"
)

// Mode selects which initial-message event type a side uses for events
// whose schema has no member name: a client publishes initial-request, a
// server publishes initial-response.
type Mode int

const (
	ClientMode Mode = iota
	ServerMode
)

const (
	messageTypeHeader   = ":message-type"
	eventTypeHeader     = ":event-type"
	exceptionTypeHeader = ":exception-type"
	contentTypeHeader   = ":content-type"
	errorCodeHeader     = ":error-code"
	errorMessageHeader  = ":error-message"

	messageTypeEvent     = "event"
	messageTypeException = "exception"
	messageTypeError     = "error"

	initialRequestEventType  = "initial-request"
	initialResponseEventType = "initial-response"

	defaultBlobContentType   = "application/octet-stream"
	defaultStringContentType = "text/plain"
)

// Serializable is an event a Publisher can send.
type Serializable interface {
	// EventSchema describes the event: its union member name (empty for
	// operation input/output), error trait, and member bindings.
	EventSchema() *schema.Schema

	// EventHeaders returns the values of the event's header-bound
	// members. Events without header members return nil.
	EventHeaders() eventstream.Headers

	// EventPayload returns the value serialized as the frame payload: the
	// payload-bound member's value ([]byte for blob, string for string
	// targets), or the struct of remaining members for the payload codec.
	// A nil return produces an empty payload.
	EventPayload() any
}

// Deserializable is an event a Receiver can produce.
type Deserializable interface {
	EventSchema() *schema.Schema

	// EventPayloadTarget returns the pointer the frame payload decodes
	// into: *[]byte or *string for raw payload members, a struct pointer
	// otherwise. A nil return discards the payload.
	EventPayloadTarget() any
}

// HeaderUnmarshaler is implemented by events with header-bound members.
// Missing headers are not an error; members simply stay unset.
type HeaderUnmarshaler interface {
	UnmarshalEventHeaders(headers eventstream.Headers) error
}

// Kind classifies the name passed to a Resolver.
type Kind int

const (
	// KindEvent names a member of the event stream union.
	KindEvent Kind = iota

	// KindInitialMessage marks an initial-request or initial-response
	// frame; the resolver returns the operation input or output.
	KindInitialMessage

	// KindException names a modeled error member.
	KindException
)

// Resolver maps a frame's dispatch name to a fresh event value. It is the
// frame-to-event dispatch function a Receiver is bound to; generated
// clients supply one per operation.
type Resolver[E Deserializable] func(kind Kind, name string) (E, error)
