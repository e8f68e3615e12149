package core

import (
	"errors"
	"fmt"
)

// Error codes reported to API clients.
const (
	ErrCodeInvalidArgument = "invalid_argument"
	ErrCodeMessageTooLong  = "message_too_long"
	ErrCodeNotConnected    = "not_connected"
	ErrCodeObserverFailure = "observer_failure"
)

var (
	// ErrInvalidArgument is returned when a command target or text cannot be encoded.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrMessageTooLong is returned when an encoded line exceeds the line limit.
	ErrMessageTooLong = errors.New("message too long")
	// ErrNotConnected is returned by senders that have no live connection.
	ErrNotConnected = errors.New("not connected")
)

// ErrorCode maps an error returned by the core to its API code.
func ErrorCode(err error) string {
	var failure *ObserverFailure
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return ErrCodeInvalidArgument
	case errors.Is(err, ErrMessageTooLong):
		return ErrCodeMessageTooLong
	case errors.Is(err, ErrNotConnected):
		return ErrCodeNotConnected
	case errors.As(err, &failure):
		return ErrCodeObserverFailure
	default:
		return ""
	}
}

// ObserverFailure describes a listener that returned an error or panicked
// while handling an event. It never changes session state.
type ObserverFailure struct {
	Event Event
	Err   error
	Panic bool
}

func (f *ObserverFailure) Error() string {
	if f.Panic {
		return fmt.Sprintf("listener panicked on %s: %v", f.Event.Kind, f.Err)
	}
	return fmt.Sprintf("listener failed on %s: %v", f.Event.Kind, f.Err)
}

func (f *ObserverFailure) Unwrap() error {
	return f.Err
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
