package commands

import (
	"fmt"

	"github.com/riftlabs/yubihsm-go/wire"
)

// MaxFrameLength is the device's wire buffer limit (spec.md §6): a
// complete command or response frame, header included, must stay under
// this size.
const MaxFrameLength = 2048

// CommandMessage is the outer command frame placed on the wire:
//
//	u8   command_code
//	u16  payload_length   (excludes these three header bytes)
//	u8   session_id       (present only for session-scoped commands)
//	u8*  payload
//	u8*  mac              (present only for MAC-protected commands)
//
// The framer never interprets Data; all semantics beyond length and
// opcode live in the secure channel and command catalog above it.
type CommandMessage struct {
	Code      Code
	SessionID *uint8
	Data      []byte
	MAC       []byte
}

// BodyLength returns the byte count following the 3-byte header: the
// optional session id, the payload, and the optional MAC trailer.
func (c *CommandMessage) BodyLength() int {
	n := len(c.Data) + len(c.MAC)
	if c.SessionID != nil {
		n++
	}
	return n
}

// Encode serializes the command frame. Returns an error if the resulting
// frame would exceed MaxFrameLength.
func (c *CommandMessage) Encode() ([]byte, error) {
	body := c.BodyLength()
	if body+3 > MaxFrameLength {
		return nil, fmt.Errorf("commands: frame length %d exceeds device limit %d", body+3, MaxFrameLength)
	}

	w := wire.NewWriter()
	w.Uint8(uint8(c.Code))
	w.Uint16(uint16(body))
	if c.SessionID != nil {
		w.Uint8(*c.SessionID)
	}
	w.Bytes(c.Data)
	w.Bytes(c.MAC)
	return w.Out(), nil
}

// ResponseMessage is the decoded response frame. RawCode preserves the
// exact byte transmitted (ResponseFlag included) since the secure
// channel's response MAC is computed over that literal header; Code is
// the same value with the flag masked off, for comparison against the
// command code that elicited the response.
type ResponseMessage struct {
	RawCode Code
	Code    Code
	Length  uint16
	Data    []byte
}

// DecodeResponse parses a raw response frame: 1-byte code (with
// ResponseFlag set on success), 2-byte length, and payload.
func DecodeResponse(raw []byte) (*ResponseMessage, error) {
	r := wire.NewReader(raw)
	codeByte, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	length, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	payload, err := r.Fixed(int(length))
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}

	code := Code(codeByte)
	if code&0x7f == ErrorCode {
		if len(payload) != 1 {
			return nil, fmt.Errorf("commands: malformed error response payload length %d", len(payload))
		}
		return nil, &DeviceError{Kind: ErrorKind(payload[0])}
	}

	return &ResponseMessage{
		RawCode: code,
		Code:    code &^ ResponseFlag,
		Length:  length,
		Data:    payload,
	}, nil
}

// IsSuccessResponseTo reports whether this response's (unflagged) code
// matches the command code that should have produced it.
func (r *ResponseMessage) IsSuccessResponseTo(cmd Code) bool {
	return r.Code == cmd
}

// EncodeRawResponse assembles a response frame's bytes from a code (with
// ResponseFlag already set by the caller, or an ErrorCode/ErrorKind pair
// for a device error) and its payload. It is the response-side
// counterpart to CommandMessage.Encode, used by the simulator to build
// replies without a command-specific Response type of its own.
func EncodeRawResponse(code Code, payload []byte) ([]byte, error) {
	if 3+len(payload) > MaxFrameLength {
		return nil, fmt.Errorf("commands: response frame length %d exceeds device limit %d", 3+len(payload), MaxFrameLength)
	}
	w := wire.NewWriter()
	w.Uint8(uint8(code))
	w.Uint16(uint16(len(payload)))
	w.Bytes(payload)
	return w.Out(), nil
}

// EncodeErrorResponse builds the wire bytes for a device-level error
// response: ErrorCode with ResponseFlag set, and the single ErrorKind
// byte as payload.
func EncodeErrorResponse(kind ErrorKind) []byte {
	raw, _ := EncodeRawResponse(ErrorCode|ResponseFlag, []byte{byte(kind)})
	return raw
}

// DecodeCommandHeader splits a raw command frame into its code and body
// (everything after the 3-byte header), without interpreting the body —
// whether it holds a session id, a MAC, or both depends on the specific
// command and is left to the caller. Used on the receiving side of the
// wire (the simulator), mirroring CommandMessage.Encode in reverse.
func DecodeCommandHeader(raw []byte) (code Code, body []byte, err error) {
	r := wire.NewReader(raw)
	codeByte, err := r.Uint8()
	if err != nil {
		return 0, nil, err
	}
	length, err := r.Uint16()
	if err != nil {
		return 0, nil, err
	}
	body, err = r.Fixed(int(length))
	if err != nil {
		return 0, nil, err
	}
	if err := r.Done(); err != nil {
		return 0, nil, err
	}
	return Code(codeByte), body, nil
}

// DecodeSessionScopedBody splits a non-SessionMessage command frame's body
// (everything after the 3-byte header) into its session id, inner data,
// and trailing MAC — the shape AuthenticateSession uses (spec.md §4.3
// step 4: MACed, not yet encrypted). Used only by mockhsm, which is the
// only code that ever parses a command frame rather than building one.
func DecodeSessionScopedBody(body []byte) (sessionID uint8, data, mac []byte, err error) {
	if len(body) < 1+MACTrailerLength {
		return 0, nil, nil, fmt.Errorf("commands: session-scoped body too short (%d bytes)", len(body))
	}
	return body[0], body[1 : len(body)-MACTrailerLength], body[len(body)-MACTrailerLength:], nil
}

// MACTrailerLength is the 8-byte truncated CMAC tag length appended to
// MAC-protected command frames (spec.md §4.2); duplicated from
// securechannel.MACLength to keep this package free of a dependency on
// the crypto layer.
const MACTrailerLength = 8

// InnerCommand is a command frame embedded inside a decrypted
// SessionMessage: just a code and payload, with no session id or MAC of
// its own (those belong to the outer SessionMessage frame).
type InnerCommand struct {
	Code Code
	Data []byte
}

// DecodeInnerCommand parses the plaintext recovered from a decrypted
// SessionMessage command.
func DecodeInnerCommand(raw []byte) (*InnerCommand, error) {
	r := wire.NewReader(raw)
	codeByte, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	length, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	payload, err := r.Fixed(int(length))
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	return &InnerCommand{Code: Code(codeByte), Data: payload}, nil
}
