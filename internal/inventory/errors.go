package inventory

import (
	"errors"
	"fmt"
)

// Kind classifies a failed inventory operation. Handlers map each kind
// to one HTTP status.
type Kind uint8

const (
	KindNotFound Kind = iota + 1
	KindForbidden
	KindInvalidState
	KindInsufficientSeats
	KindVehicleConflict
	KindInvalidOperation
	KindBusy
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInvalidState:
		return "invalid_state"
	case KindInsufficientSeats:
		return "insufficient_seats"
	case KindVehicleConflict:
		return "vehicle_conflict"
	case KindInvalidOperation:
		return "invalid_operation"
	case KindBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// Error is returned by every Engine operation that is rejected. The
// transaction it ran in has already been rolled back.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // underlying driver error, if any
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrInvalidState      = &Error{Kind: KindInvalidState}
	ErrInsufficientSeats = &Error{Kind: KindInsufficientSeats}
	ErrVehicleConflict   = &Error{Kind: KindVehicleConflict}
	ErrInvalidOperation  = &Error{Kind: KindInvalidOperation}
	ErrBusy              = &Error{Kind: KindBusy}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Busy wraps a lock wait timeout or deadlock reported by the store.
func Busy(cause error) *Error {
	return &Error{Kind: KindBusy, Msg: "resource is busy, please retry", Err: cause}
}

// KindOf returns the kind of err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
