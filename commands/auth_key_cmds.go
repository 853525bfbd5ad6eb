package commands

import "github.com/riftlabs/yubihsm-go/wire"

// PutAuthenticationKeyRequest installs an additional authentication key.
// EncKey and MacKey are each 16 bytes, the two halves of a 32-byte shared
// static key (spec.md §3's Credentials).
type PutAuthenticationKeyRequest struct {
	ObjectID              uint16
	Label                 string
	Domains               Domain
	Capabilities          Capability
	DelegatedCapabilities Capability
	EncKey                []byte
	MacKey                []byte
}

func (p *PutAuthenticationKeyRequest) Code() Code { return CodePutAuthenticationKey }

func (p *PutAuthenticationKeyRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint16(p.ObjectID)
	if err := encodeLabel(w, p.Label); err != nil {
		return nil, err
	}
	w.Uint16(uint16(p.Domains))
	w.Uint64(uint64(p.Capabilities))
	w.Uint8(uint8(AlgorithmYubicoAESAuthentication))
	w.Uint64(uint64(p.DelegatedCapabilities))
	w.Bytes(p.EncKey)
	w.Bytes(p.MacKey)
	return w.Out(), nil
}

// DecodePutAuthenticationKeyRequest decodes a PutAuthenticationKey
// command body. The trailing enc||mac key material is a fixed 32 bytes
// (two 16-byte halves), matching authkey.AuthKey's layout.
func DecodePutAuthenticationKeyRequest(body []byte) (*PutAuthenticationKeyRequest, error) {
	r := wire.NewReader(body)
	id, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	label, err := r.Fixed(LabelLength)
	if err != nil {
		return nil, err
	}
	domains, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	caps, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	if _, err := r.Uint8(); err != nil { // algorithm byte, always AlgorithmYubicoAESAuthentication
		return nil, err
	}
	delegated, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	key, err := r.Fixed(32)
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	out := make([]byte, 32)
	copy(out, key)
	return &PutAuthenticationKeyRequest{
		ObjectID:              id,
		Label:                 decodeLabel(label),
		Domains:               Domain(domains),
		Capabilities:          Capability(caps),
		DelegatedCapabilities: Capability(delegated),
		EncKey:                out[:16],
		MacKey:                out[16:],
	}, nil
}
