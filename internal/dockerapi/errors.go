package dockerapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/auto-dns/docker-mount-notify/internal/domain"
	"github.com/docker/docker/client"
)

// TransportError means the control socket could not be reached.
type TransportError struct {
	Op  string
	Err error
}

func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: runtime unreachable: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError means the runtime answered with a body that could not be decoded.
type ProtocolError struct {
	Op  string
	Err error
}

func NewProtocolError(op string, err error) *ProtocolError {
	return &ProtocolError{Op: op, Err: err}
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// StreamClosedError is the terminal condition of an event subscription.
type StreamClosedError struct {
	Err error
}

func NewStreamClosedError(err error) *StreamClosedError {
	return &StreamClosedError{Err: err}
}

func (e *StreamClosedError) Error() string {
	if e.Err == nil {
		return "event stream closed"
	}
	return fmt.Sprintf("event stream closed: %v", e.Err)
}

func (e *StreamClosedError) Unwrap() error { return e.Err }

// classify maps an SDK error onto the transport/protocol taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if client.IsErrConnectionFailed(err) {
		return NewTransportError(op, err)
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
		errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return NewProtocolError(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

type UnsupportedEventTypeError struct {
	eventType domain.EventType
}

func NewUnsupportedEventTypeError(eventType domain.EventType) *UnsupportedEventTypeError {
	return &UnsupportedEventTypeError{eventType: eventType}
}

func (e *UnsupportedEventTypeError) Error() string {
	return fmt.Sprintf("unsupported event type: %s", e.eventType)
}
