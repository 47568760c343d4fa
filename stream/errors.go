package stream

import (
	"errors"
	"fmt"
)

// ErrPublisherClosed is returned by Send after the publisher has been
// closed, either explicitly or by a failed write.
var ErrPublisherClosed = errors.New("stream: publisher is closed")

// UnmodeledEventError is an explicitly unmodeled error read from the
// stream: a well-formed frame with :message-type "error". These tend to
// be internal server errors on the service side. The receiver stays open
// after returning one.
type UnmodeledEventError struct {
	// Code identifies the class of error.
	Code string

	// Message is the human-readable explanation sent over the stream.
	Message string
}

func (e *UnmodeledEventError) Error() string {
	return fmt.Sprintf("stream: unmodeled event error: %s - %s", e.Code, e.Message)
}

// ModeledError wraps a modeled error event (:message-type "exception")
// whose payload deserialized successfully. The receiver stays open after
// returning one; callers may choose to stop.
type ModeledError struct {
	// Name is the :exception-type header value, the error's union member
	// name.
	Name string

	// Value is the deserialized modeled error.
	Value any
}

func (e *ModeledError) Error() string {
	return fmt.Sprintf("stream: modeled error event %q", e.Name)
}

// Unwrap exposes the modeled value when it is itself an error.
func (e *ModeledError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// MissingInitialResponseError is returned when a receiver configured to
// require an initial response reaches end of stream without seeing one.
type MissingInitialResponseError struct{}

func (e *MissingInitialResponseError) Error() string {
	return "stream: expected an initial response, but none was found"
}
