package commands

import "github.com/riftlabs/yubihsm-go/wire"

// AuditOption is the tri-state value of an audit setting: off, on, or
// fixed (permanently on, cannot be turned off without a factory reset).
type AuditOption uint8

const (
	AuditOptionOff   AuditOption = 0x00
	AuditOptionOn    AuditOption = 0x01
	AuditOptionFixed AuditOption = 0x02
)

// AuditTag distinguishes the two option namespaces GetOption/SetOption
// address: the global force-audit flag, and per-command audit settings.
type AuditTag uint8

const (
	AuditTagForce   AuditTag = 0x01
	AuditTagCommand AuditTag = 0x03
)

// GetOptionRequest reads an audit setting.
type GetOptionRequest struct {
	Tag AuditTag
}

func (g *GetOptionRequest) Code() Code { return CodeGetOption }
func (g *GetOptionRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint8(uint8(g.Tag))
	return w.Out(), nil
}

// GetOptionResponse carries the tag's raw value bytes: one byte for
// AuditTagForce, or a (command code, option) pair per entry for
// AuditTagCommand.
type GetOptionResponse struct {
	Value []byte
}

func DecodeGetOptionResponse(payload []byte) (*GetOptionResponse, error) {
	return &GetOptionResponse{Value: payload}, nil
}

// SetOptionRequest writes an audit setting. For AuditTagCommand, Value is
// a 2-byte (command code, option) pair; for AuditTagForce, Value is a
// single AuditOption byte.
type SetOptionRequest struct {
	Tag   AuditTag
	Value []byte
}

func (s *SetOptionRequest) Code() Code { return CodeSetOption }
func (s *SetOptionRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint8(uint8(s.Tag))
	w.Uint16(uint16(len(s.Value)))
	w.Bytes(s.Value)
	return w.Out(), nil
}

// DecodeGetOptionRequest decodes a GetOption command body.
func DecodeGetOptionRequest(body []byte) (*GetOptionRequest, error) {
	r := wire.NewReader(body)
	tag, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	return &GetOptionRequest{Tag: AuditTag(tag)}, r.Done()
}

// DecodeSetOptionRequest decodes a SetOption command body.
func DecodeSetOptionRequest(body []byte) (*SetOptionRequest, error) {
	r := wire.NewReader(body)
	tag, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	length, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	value, err := r.Fixed(int(length))
	if err != nil {
		return nil, err
	}
	return &SetOptionRequest{Tag: AuditTag(tag), Value: value}, r.Done()
}

// DecodeGetPseudoRandomRequest decodes a GetPseudoRandom command body.
func DecodeGetPseudoRandomRequest(body []byte) (*GetPseudoRandomRequest, error) {
	r := wire.NewReader(body)
	n, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	return &GetPseudoRandomRequest{Bytes: n}, r.Done()
}

// GetPseudoRandomRequest asks for Bytes bytes of device randomness.
// MAX_RAND_BYTES (2048) is enforced by the client facade before send.
type GetPseudoRandomRequest struct {
	Bytes uint16
}

func (g *GetPseudoRandomRequest) Code() Code { return CodeGetPseudoRandom }
func (g *GetPseudoRandomRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint16(g.Bytes)
	return w.Out(), nil
}

// GetPseudoRandomResponse is the raw random bytes.
type GetPseudoRandomResponse struct {
	Data []byte
}

func DecodeGetPseudoRandomResponse(payload []byte) (*GetPseudoRandomResponse, error) {
	return &GetPseudoRandomResponse{Data: payload}, nil
}
