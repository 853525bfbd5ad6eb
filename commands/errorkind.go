package commands

import "fmt"

// ErrorKind is the single-byte, closed device-error enum carried in an
// error response's one-byte payload (spec.md §4.2).
type ErrorKind uint8

const (
	ErrInvalidCommand             ErrorKind = 0x00
	ErrInvalidData                ErrorKind = 0x01
	ErrInvalidSession             ErrorKind = 0x02
	ErrAuthFail                   ErrorKind = 0x03
	ErrSessionsFull               ErrorKind = 0x04
	ErrSessionFailed              ErrorKind = 0x05
	ErrStorageFailed              ErrorKind = 0x06
	ErrWrongLength                ErrorKind = 0x07
	ErrInsufficientPermissions    ErrorKind = 0x08
	ErrLogFull                    ErrorKind = 0x09
	ErrObjectNotFound             ErrorKind = 0x0a
	ErrInvalidId                  ErrorKind = 0x0b
	ErrSshCaConstraintViolation   ErrorKind = 0x0c
	ErrInvalidOtp                 ErrorKind = 0x0d
	ErrDemoMode                   ErrorKind = 0x0e
	ErrCommandUnexecuted          ErrorKind = 0xff
)

var errorKindNames = map[ErrorKind]string{
	ErrInvalidCommand:           "invalid command",
	ErrInvalidData:              "invalid data",
	ErrInvalidSession:           "invalid session",
	ErrAuthFail:                 "authentication failed",
	ErrSessionsFull:             "no sessions available",
	ErrSessionFailed:            "session setup failed",
	ErrStorageFailed:            "storage full",
	ErrWrongLength:              "wrong length",
	ErrInsufficientPermissions:  "insufficient permissions",
	ErrLogFull:                  "log full and force-audit is set",
	ErrObjectNotFound:           "object not found",
	ErrInvalidId:                "invalid id",
	ErrSshCaConstraintViolation: "ssh CA constraint violation",
	ErrInvalidOtp:               "invalid OTP",
	ErrDemoMode:                 "device in demo mode, must be power-cycled",
	ErrCommandUnexecuted:        "command unexecuted",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("unknown error kind 0x%02x", uint8(k))
}

// DeviceError wraps an ErrorKind so it satisfies the error interface; it is
// the error value surfaced whenever a response frame's command-code byte
// decodes to the reserved ErrorCode opcode.
type DeviceError struct {
	Kind ErrorKind
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("hsm device error: %s", e.Kind)
}
