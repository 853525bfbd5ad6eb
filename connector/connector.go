// Package connector defines the transport contract between a session and
// the device (or simulator): a byte-in, byte-out request/response
// exchange plus a status probe, independent of the secure channel and
// command catalog layered on top (spec component C6).
package connector

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Connector moves already-framed command bytes to a device and returns
// its already-framed response. Implementations do not interpret the
// frame; commands.CommandMessage.Encode/DecodeResponse own that.
type Connector interface {
	// Send transmits a single framed command and returns the framed
	// response. txID tags the round trip for logging/tracing; it is
	// not placed on the wire.
	Send(ctx context.Context, txID uuid.UUID, frame []byte) ([]byte, error)

	// Status reports whether the connector (and, transitively, the
	// device behind it) is reachable and healthy.
	Status(ctx context.Context) (*Status, error)
}

// Status mirrors the connector status page the teacher's HTTPConnector
// scrapes, generalized to a struct any Connector implementation can
// populate (the in-process mockhsm connector included).
type Status struct {
	OK      bool
	Serial  string
	Version string
	Address string
}

// ErrorKind classifies a connector-level failure so session.Session can
// decide whether a retry is worthwhile (spec.md §4.4's reconnect policy).
type ErrorKind uint8

const (
	ErrorKindIO ErrorKind = iota
	ErrorKindResponse
	ErrorKindDeviceBusy
	ErrorKindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindIO:
		return "IoError"
	case ErrorKindResponse:
		return "ResponseError"
	case ErrorKindDeviceBusy:
		return "DeviceBusy"
	case ErrorKindNotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// Error is the error type every Connector implementation returns from
// Send/Status, so callers can classify failures with errors.As without
// depending on a specific transport's error types.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connector: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("connector: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Reconnectable reports whether the error represents a transient
// condition worth retrying against (IO failures and a busy device), as
// opposed to a malformed response that would only fail again.
func (e *Error) Reconnectable() bool {
	return e.Kind == ErrorKindIO || e.Kind == ErrorKindDeviceBusy
}
