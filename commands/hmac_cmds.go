package commands

import "github.com/riftlabs/yubihsm-go/wire"

// PutHmacKeyRequest imports an HMAC key. Key length must satisfy
// HMAC_MIN_KEY_SIZE <= len(Key) <= Algorithm.MaxHmacKeyLen(), enforced by
// the client facade before the command is ever sent (spec.md §4.5).
type PutHmacKeyRequest struct {
	ObjectID     uint16
	Label        string
	Domains      Domain
	Capabilities Capability
	Algorithm    Algorithm
	Key          []byte
}

func (p *PutHmacKeyRequest) Code() Code { return CodePutHmacKey }
func (p *PutHmacKeyRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint16(p.ObjectID)
	if err := encodeLabel(w, p.Label); err != nil {
		return nil, err
	}
	w.Uint16(uint16(p.Domains))
	w.Uint64(uint64(p.Capabilities))
	w.Uint8(uint8(p.Algorithm))
	w.Bytes(p.Key)
	return w.Out(), nil
}

// DecodePutHmacKeyRequest decodes a PutHmacKey command body.
func DecodePutHmacKeyRequest(body []byte) (*PutHmacKeyRequest, error) {
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
	alg, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	return &PutHmacKeyRequest{
		ObjectID:     id,
		Label:        decodeLabel(label),
		Domains:      Domain(domains),
		Capabilities: Capability(caps),
		Algorithm:    Algorithm(alg),
		Key:          r.Rest(),
	}, nil
}

// DecodeGenerateHmacKeyRequest decodes a GenerateHmacKey command body.
func DecodeGenerateHmacKeyRequest(body []byte) (*GenerateHmacKeyRequest, error) {
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
	alg, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	return &GenerateHmacKeyRequest{
		ObjectID:     id,
		Label:        decodeLabel(label),
		Domains:      Domain(domains),
		Capabilities: Capability(caps),
		Algorithm:    Algorithm(alg),
	}, r.Done()
}

// DecodeSignHmacRequest decodes a SignHmac command body.
func DecodeSignHmacRequest(body []byte) (*SignHmacRequest, error) {
	r := wire.NewReader(body)
	id, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	return &SignHmacRequest{ObjectID: id, Data: r.Rest()}, nil
}

// GenerateHmacKeyRequest asks the device to generate a random HMAC key in
// place.
type GenerateHmacKeyRequest struct {
	ObjectID     uint16
	Label        string
	Domains      Domain
	Capabilities Capability
	Algorithm    Algorithm
}

func (g *GenerateHmacKeyRequest) Code() Code { return CodeGenerateHmacKey }
func (g *GenerateHmacKeyRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint16(g.ObjectID)
	if err := encodeLabel(w, g.Label); err != nil {
		return nil, err
	}
	w.Uint16(uint16(g.Domains))
	w.Uint64(uint64(g.Capabilities))
	w.Uint8(uint8(g.Algorithm))
	return w.Out(), nil
}

// SignHmacRequest computes an HMAC tag over Data using the key ObjectID.
type SignHmacRequest struct {
	ObjectID uint16
	Data     []byte
}

func (s *SignHmacRequest) Code() Code { return CodeSignHmac }
func (s *SignHmacRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint16(s.ObjectID)
	w.Bytes(s.Data)
	return w.Out(), nil
}

// HmacTagResponse is an HMAC tag, whose length is bound to the key's
// algorithm (spec.md §9's first Open Question: the tag length must never
// be hard-coded to 32 bytes, since SHA-384/512 keys produce longer tags).
type HmacTagResponse struct {
	Tag []byte
}

func DecodeHmacTagResponse(payload []byte) (*HmacTagResponse, error) {
	return &HmacTagResponse{Tag: payload}, nil
}

// VerifyHmacRequest carries the tag to verify immediately followed by the
// data it was supposedly computed over; the simulator recovers the tag
// length from the key's bound algorithm rather than assuming 32 bytes.
type VerifyHmacRequest struct {
	ObjectID uint16
	Tag      []byte
	Data     []byte
}

func (v *VerifyHmacRequest) Code() Code { return CodeVerifyHmac }
func (v *VerifyHmacRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint16(v.ObjectID)
	w.Bytes(v.Tag)
	w.Bytes(v.Data)
	return w.Out(), nil
}

// DecodeVerifyHmacRequestHeader splits off the object id and returns the
// remaining tag||data bytes undivided: the split point depends on the
// HMAC algorithm bound to the key, which only the simulator's object
// store knows, so the wire layer stops here.
func DecodeVerifyHmacRequestHeader(payload []byte) (objectID uint16, rest []byte, err error) {
	r := wire.NewReader(payload)
	objectID, err = r.Uint16()
	if err != nil {
		return 0, nil, err
	}
	return objectID, r.Rest(), nil
}

// HmacTagLen returns the tag length produced by the given HMAC algorithm.
func HmacTagLen(a Algorithm) int {
	switch a {
	case AlgorithmHmacSha1:
		return 20
	case AlgorithmHmacSha256:
		return 32
	case AlgorithmHmacSha384:
		return 48
	case AlgorithmHmacSha512:
		return 64
	default:
		return 0
	}
}

// VerifyHmacResponse's Valid byte is 0x01 on success, matching the
// device's boolean-as-byte convention.
type VerifyHmacResponse struct {
	Valid bool
}

func DecodeVerifyHmacResponse(payload []byte) (*VerifyHmacResponse, error) {
	if len(payload) != 1 {
		return nil, wire.ErrTrailingBytes
	}
	return &VerifyHmacResponse{Valid: payload[0] == 0x01}, nil
}

func (v *VerifyHmacResponse) Marshal() []byte {
	b := uint8(0)
	if v.Valid {
		b = 1
	}
	return []byte{b}
}
