package commands

import "github.com/riftlabs/yubihsm-go/wire"

// WrapNonceLength is the AES-CCM nonce length used for object export/import
// and ad-hoc WrapData/UnwrapData.
const WrapNonceLength = 13

// PutWrapKeyRequest imports an AES-CCM wrapping key. Key length must equal
// Algorithm.KeyLen() exactly (16/24/32 bytes for AES-128/192/256-CCM).
type PutWrapKeyRequest struct {
	ObjectID              uint16
	Label                 string
	Domains               Domain
	Capabilities          Capability
	Algorithm             Algorithm
	DelegatedCapabilities Capability
	Key                   []byte
}

func (p *PutWrapKeyRequest) Code() Code { return CodePutWrapKey }
func (p *PutWrapKeyRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint16(p.ObjectID)
	if err := encodeLabel(w, p.Label); err != nil {
		return nil, err
	}
	w.Uint16(uint16(p.Domains))
	w.Uint64(uint64(p.Capabilities))
	w.Uint8(uint8(p.Algorithm))
	w.Uint64(uint64(p.DelegatedCapabilities))
	w.Bytes(p.Key)
	return w.Out(), nil
}

// DecodePutWrapKeyRequest decodes a PutWrapKey command body.
func DecodePutWrapKeyRequest(body []byte) (*PutWrapKeyRequest, error) {
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
	delegated, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	return &PutWrapKeyRequest{
		ObjectID:              id,
		Label:                 decodeLabel(label),
		Domains:               Domain(domains),
		Capabilities:          Capability(caps),
		Algorithm:             Algorithm(alg),
		DelegatedCapabilities: Capability(delegated),
		Key:                   r.Rest(),
	}, nil
}

// DecodeGenerateWrapKeyRequest decodes a GenerateWrapKey command body.
func DecodeGenerateWrapKeyRequest(body []byte) (*GenerateWrapKeyRequest, error) {
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
	delegated, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	return &GenerateWrapKeyRequest{
		ObjectID:              id,
		Label:                 decodeLabel(label),
		Domains:               Domain(domains),
		Capabilities:          Capability(caps),
		Algorithm:             Algorithm(alg),
		DelegatedCapabilities: Capability(delegated),
	}, r.Done()
}

// DecodeExportWrappedRequest decodes an ExportWrapped command body.
func DecodeExportWrappedRequest(body []byte) (*ExportWrappedRequest, error) {
	r := wire.NewReader(body)
	wrapKeyID, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	typ, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	id, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	return &ExportWrappedRequest{WrapKeyID: wrapKeyID, ObjectType: ObjectType(typ), ObjectID: id}, r.Done()
}

// DecodeImportWrappedRequest decodes an ImportWrapped command body.
func DecodeImportWrappedRequest(body []byte) (*ImportWrappedRequest, error) {
	r := wire.NewReader(body)
	wrapKeyID, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	nonce, err := r.Fixed(WrapNonceLength)
	if err != nil {
		return nil, err
	}
	req := &ImportWrappedRequest{WrapKeyID: wrapKeyID}
	copy(req.Nonce[:], nonce)
	req.Ciphertext = r.Rest()
	return req, nil
}

// DecodeWrapDataRequest decodes a WrapData command body.
func DecodeWrapDataRequest(body []byte) (*WrapDataRequest, error) {
	r := wire.NewReader(body)
	wrapKeyID, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	return &WrapDataRequest{WrapKeyID: wrapKeyID, Data: r.Rest()}, nil
}

// DecodeUnwrapDataRequest decodes an UnwrapData command body.
func DecodeUnwrapDataRequest(body []byte) (*UnwrapDataRequest, error) {
	r := wire.NewReader(body)
	wrapKeyID, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	nonce, err := r.Fixed(WrapNonceLength)
	if err != nil {
		return nil, err
	}
	req := &UnwrapDataRequest{WrapKeyID: wrapKeyID}
	copy(req.Nonce[:], nonce)
	req.Ciphertext = r.Rest()
	return req, nil
}

// GenerateWrapKeyRequest asks the device to generate a random wrap key.
type GenerateWrapKeyRequest struct {
	ObjectID              uint16
	Label                 string
	Domains               Domain
	Capabilities          Capability
	Algorithm             Algorithm
	DelegatedCapabilities Capability
}

func (g *GenerateWrapKeyRequest) Code() Code { return CodeGenerateWrapKey }
func (g *GenerateWrapKeyRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint16(g.ObjectID)
	if err := encodeLabel(w, g.Label); err != nil {
		return nil, err
	}
	w.Uint16(uint16(g.Domains))
	w.Uint64(uint64(g.Capabilities))
	w.Uint8(uint8(g.Algorithm))
	w.Uint64(uint64(g.DelegatedCapabilities))
	return w.Out(), nil
}

// ExportWrappedRequest exports ObjectID (of ObjectType) encrypted under
// WrapKeyID.
type ExportWrappedRequest struct {
	WrapKeyID  uint16
	ObjectType ObjectType
	ObjectID   uint16
}

func (e *ExportWrappedRequest) Code() Code { return CodeExportWrapped }
func (e *ExportWrappedRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint16(e.WrapKeyID)
	w.Uint8(uint8(e.ObjectType))
	w.Uint16(e.ObjectID)
	return w.Out(), nil
}

// WrapMessage is an AES-CCM-wrapped object or data blob: a random nonce
// and the ciphertext (which includes the CCM authentication tag).
type WrapMessage struct {
	Nonce      [WrapNonceLength]byte
	Ciphertext []byte
}

// ExportWrappedResponse is the wrapped object.
type ExportWrappedResponse struct {
	WrapMessage
}

func DecodeExportWrappedResponse(payload []byte) (*ExportWrappedResponse, error) {
	r := wire.NewReader(payload)
	nonce, err := r.Fixed(WrapNonceLength)
	if err != nil {
		return nil, err
	}
	resp := &ExportWrappedResponse{}
	copy(resp.Nonce[:], nonce)
	resp.Ciphertext = r.Rest()
	return resp, nil
}

func (e *ExportWrappedResponse) Marshal() []byte {
	w := wire.NewWriter()
	w.Bytes(e.Nonce[:])
	w.Bytes(e.Ciphertext)
	return w.Out()
}

// ImportWrappedRequest imports an object previously produced by
// ExportWrapped. The object retains its original type, algorithm, label,
// capabilities, delegated capabilities and domains; it is stored under a
// newly assigned object id and its Origin changes to imported.
type ImportWrappedRequest struct {
	WrapKeyID uint16
	WrapMessage
}

func (i *ImportWrappedRequest) Code() Code { return CodeImportWrapped }
func (i *ImportWrappedRequest) Marshal() ([]byte, error) {
	if len(i.Nonce) != WrapNonceLength {
		return nil, wire.ErrFieldTooLong
	}
	w := wire.NewWriter()
	w.Uint16(i.WrapKeyID)
	w.Bytes(i.Nonce[:])
	w.Bytes(i.Ciphertext)
	return w.Out(), nil
}

// ImportWrappedResponse reports the (id, type) the imported object landed
// at.
type ImportWrappedResponse struct {
	ObjectID   uint16
	ObjectType ObjectType
}

func DecodeImportWrappedResponse(payload []byte) (*ImportWrappedResponse, error) {
	r := wire.NewReader(payload)
	typ, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	id, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	return &ImportWrappedResponse{ObjectID: id, ObjectType: ObjectType(typ)}, r.Done()
}

func (i *ImportWrappedResponse) Marshal() []byte {
	w := wire.NewWriter()
	w.Uint8(uint8(i.ObjectType))
	w.Uint16(i.ObjectID)
	return w.Out()
}

// WrapDataRequest wraps an arbitrary plaintext blob under WrapKeyID,
// without involving the object store (ad-hoc encryption, not object
// export).
type WrapDataRequest struct {
	WrapKeyID uint16
	Data      []byte
}

func (w *WrapDataRequest) Code() Code { return CodeWrapData }
func (w *WrapDataRequest) Marshal() ([]byte, error) {
	ww := wire.NewWriter()
	ww.Uint16(w.WrapKeyID)
	ww.Bytes(w.Data)
	return ww.Out(), nil
}

// WrapDataResponse mirrors WrapMessage's nonce+ciphertext shape.
type WrapDataResponse struct {
	WrapMessage
}

func DecodeWrapDataResponse(payload []byte) (*WrapDataResponse, error) {
	inner, err := DecodeExportWrappedResponse(payload)
	if err != nil {
		return nil, err
	}
	return &WrapDataResponse{inner.WrapMessage}, nil
}

// UnwrapDataRequest reverses WrapData.
type UnwrapDataRequest struct {
	WrapKeyID uint16
	WrapMessage
}

func (u *UnwrapDataRequest) Code() Code { return CodeUnwrapData }
func (u *UnwrapDataRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint16(u.WrapKeyID)
	w.Bytes(u.Nonce[:])
	w.Bytes(u.Ciphertext)
	return w.Out(), nil
}

// UnwrapDataResponse is the recovered plaintext.
type UnwrapDataResponse struct {
	Data []byte
}

func DecodeUnwrapDataResponse(payload []byte) (*UnwrapDataResponse, error) {
	return &UnwrapDataResponse{Data: payload}, nil
}
