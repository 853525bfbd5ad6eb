package client

import (
	"errors"
	"fmt"

	"github.com/riftlabs/yubihsm-go/commands"
	"github.com/riftlabs/yubihsm-go/connector"
	"github.com/riftlabs/yubihsm-go/session"
)

// ErrorKind is the client facade's closed error taxonomy (spec.md §7):
// every lower-layer failure (session, connector, device) is folded into
// one of these five kinds before it reaches a caller.
type ErrorKind uint8

const (
	ErrorKindCreateFailed ErrorKind = iota
	ErrorKindAuthFail
	ErrorKindConnectorError
	ErrorKindProtocolError
	ErrorKindResponseError
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindCreateFailed:
		return "CreateFailed"
	case ErrorKindAuthFail:
		return "AuthFail"
	case ErrorKindConnectorError:
		return "ConnectorError"
	case ErrorKindProtocolError:
		return "ProtocolError"
	case ErrorKindResponseError:
		return "ResponseError"
	default:
		return "Unknown"
	}
}

// Error is the only error type the client facade returns. Session-level
// failures poison the session (the caller should stop using this Client);
// a ResponseError wrapping a *commands.DeviceError does not (spec.md
// §4.5): the session is still good, only the requested command failed.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("client: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("client: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// DeviceError unwraps err to the *commands.DeviceError describing a
// command-level failure, if err carries one.
func DeviceError(err error) (*commands.DeviceError, bool) {
	var derr *commands.DeviceError
	if errors.As(err, &derr) {
		return derr, true
	}
	return nil, false
}

func newErr(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// wrapSessionErr folds a session.Error (or a bare error from a path that
// never produced one) into the client facade's taxonomy.
func wrapSessionErr(err error) error {
	if err == nil {
		return nil
	}
	var serr *session.Error
	if errors.As(err, &serr) {
		switch serr.Kind {
		case session.ErrorKindCreateFailed:
			return &Error{Kind: ErrorKindCreateFailed, Err: serr}
		case session.ErrorKindAuthFailed:
			return &Error{Kind: ErrorKindAuthFail, Err: serr}
		case session.ErrorKindTimeoutError, session.ErrorKindBusy:
			return &Error{Kind: ErrorKindConnectorError, Err: serr}
		case session.ErrorKindResponseError:
			return &Error{Kind: ErrorKindResponseError, Err: serr}
		default:
			return &Error{Kind: ErrorKindProtocolError, Err: serr}
		}
	}
	var cerr *connector.Error
	if errors.As(err, &cerr) {
		return &Error{Kind: ErrorKindConnectorError, Err: cerr}
	}
	if _, ok := DeviceError(err); ok {
		return &Error{Kind: ErrorKindResponseError, Err: err}
	}
	return &Error{Kind: ErrorKindProtocolError, Err: err}
}
