package commands

import "github.com/riftlabs/yubihsm-go/wire"

// label encodes a UTF-8-ish label, fixed-width, zero-padded.
func encodeLabel(w *wire.Writer, label string) error {
	return w.FixedField([]byte(label), LabelLength)
}

func decodeLabel(raw []byte) string {
	end := len(raw)
	for end > 0 && raw[end-1] == 0 {
		end--
	}
	return string(raw[:end])
}

// GenerateAsymmetricKeyRequest asks the device to generate a new
// asymmetric keypair in place. An ObjectID of zero lets the device choose
// an id.
type GenerateAsymmetricKeyRequest struct {
	ObjectID     uint16
	Label        string
	Domains      Domain
	Capabilities Capability
	Algorithm    Algorithm
}

func (g *GenerateAsymmetricKeyRequest) Code() Code { return CodeGenerateAsymmetricKey }

func (g *GenerateAsymmetricKeyRequest) Marshal() ([]byte, error) {
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

// DecodeGenerateAsymmetricKeyRequest decodes a GenerateAsymmetricKey
// command body, mockhsm's side of GenerateAsymmetricKeyRequest.Marshal.
func DecodeGenerateAsymmetricKeyRequest(body []byte) (*GenerateAsymmetricKeyRequest, error) {
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
	if err := r.Done(); err != nil {
		return nil, err
	}
	return &GenerateAsymmetricKeyRequest{
		ObjectID:     id,
		Label:        decodeLabel(label),
		Domains:      Domain(domains),
		Capabilities: Capability(caps),
		Algorithm:    Algorithm(alg),
	}, nil
}

// DecodePutAsymmetricKeyRequest decodes a PutAsymmetricKey command body.
// KeyPart1/KeyPart2 consume the rest of the buffer undivided; the split
// between them is algorithm-specific (RSA p/q vs. a single EC/Ed25519
// scalar) and is mockhsm's concern, not the wire layer's.
func DecodePutAsymmetricKeyRequest(body []byte) (*PutAsymmetricKeyRequest, error) {
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
	return &PutAsymmetricKeyRequest{
		ObjectID:     id,
		Label:        decodeLabel(label),
		Domains:      Domain(domains),
		Capabilities: Capability(caps),
		Algorithm:    Algorithm(alg),
		KeyPart1:     r.Rest(),
	}, nil
}

// DecodeGetPublicKeyRequest decodes a GetPublicKey command body.
func DecodeGetPublicKeyRequest(body []byte) (*GetPublicKeyRequest, error) {
	r := wire.NewReader(body)
	id, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	return &GetPublicKeyRequest{ObjectID: id}, r.Done()
}

// DecodeGetObjectInfoRequest decodes a GetObjectInfo command body.
func DecodeGetObjectInfoRequest(body []byte) (*GetObjectInfoRequest, error) {
	r := wire.NewReader(body)
	id, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	typ, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	return &GetObjectInfoRequest{ObjectID: id, ObjectType: ObjectType(typ)}, r.Done()
}

// DecodeDeleteObjectRequest decodes a DeleteObject command body.
func DecodeDeleteObjectRequest(body []byte) (*DeleteObjectRequest, error) {
	r := wire.NewReader(body)
	id, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	typ, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	return &DeleteObjectRequest{ObjectID: id, ObjectType: ObjectType(typ)}, r.Done()
}

// DecodePutOpaqueRequest decodes a PutOpaqueObject command body.
func DecodePutOpaqueRequest(body []byte) (*PutOpaqueRequest, error) {
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
	return &PutOpaqueRequest{
		ObjectID:     id,
		Label:        decodeLabel(label),
		Domains:      Domain(domains),
		Capabilities: Capability(caps),
		Algorithm:    Algorithm(alg),
		Data:         r.Rest(),
	}, nil
}

// DecodeGetOpaqueRequest decodes a GetOpaqueObject command body.
func DecodeGetOpaqueRequest(body []byte) (*GetOpaqueRequest, error) {
	r := wire.NewReader(body)
	id, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	return &GetOpaqueRequest{ObjectID: id}, r.Done()
}

// KeyIDResponse is the shared shape of every command that replies with
// just the id of the object it created (GenerateAsymmetricKey,
// PutAsymmetricKey, GenerateHmacKey, PutHmacKey, GenerateWrapKey,
// PutWrapKey, PutAuthenticationKey, PutOpaqueObject).
type KeyIDResponse struct {
	ObjectID uint16
}

func DecodeKeyIDResponse(payload []byte) (*KeyIDResponse, error) {
	r := wire.NewReader(payload)
	id, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	return &KeyIDResponse{ObjectID: id}, r.Done()
}

// PutAsymmetricKeyRequest imports an existing asymmetric keypair. KeyPart1
// is the private scalar/seed (or RSA p); KeyPart2 is empty for EC/Ed25519
// keys and RSA q for RSA keys.
type PutAsymmetricKeyRequest struct {
	ObjectID     uint16
	Label        string
	Domains      Domain
	Capabilities Capability
	Algorithm    Algorithm
	KeyPart1     []byte
	KeyPart2     []byte
}

func (p *PutAsymmetricKeyRequest) Code() Code { return CodePutAsymmetricKey }

func (p *PutAsymmetricKeyRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint16(p.ObjectID)
	if err := encodeLabel(w, p.Label); err != nil {
		return nil, err
	}
	w.Uint16(uint16(p.Domains))
	w.Uint64(uint64(p.Capabilities))
	w.Uint8(uint8(p.Algorithm))
	w.Bytes(p.KeyPart1)
	w.Bytes(p.KeyPart2)
	return w.Out(), nil
}

// GetPublicKeyRequest requests the public half of an asymmetric object.
type GetPublicKeyRequest struct {
	ObjectID uint16
}

func (g *GetPublicKeyRequest) Code() Code { return CodeGetPublicKey }
func (g *GetPublicKeyRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint16(g.ObjectID)
	return w.Out(), nil
}

// GetPublicKeyResponse's KeyData layout depends on Algorithm (raw Ed25519
// point, raw EC point, or RSA modulus+exponent), per the YubiHSM2 wire
// format; this package makes no further assumptions about its contents.
type GetPublicKeyResponse struct {
	Algorithm Algorithm
	KeyData   []byte
}

func DecodeGetPublicKeyResponse(payload []byte) (*GetPublicKeyResponse, error) {
	r := wire.NewReader(payload)
	alg, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	return &GetPublicKeyResponse{Algorithm: Algorithm(alg), KeyData: r.Rest()}, nil
}

// GetObjectInfoRequest looks up metadata by the (id, type) primary key.
type GetObjectInfoRequest struct {
	ObjectID   uint16
	ObjectType ObjectType
}

func (g *GetObjectInfoRequest) Code() Code { return CodeGetObjectInfo }
func (g *GetObjectInfoRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint16(g.ObjectID)
	w.Uint8(uint8(g.ObjectType))
	return w.Out(), nil
}

// DeleteObjectRequest deletes by the (id, type) primary key.
type DeleteObjectRequest struct {
	ObjectID   uint16
	ObjectType ObjectType
}

func (d *DeleteObjectRequest) Code() Code { return CodeDeleteObject }
func (d *DeleteObjectRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint16(d.ObjectID)
	w.Uint8(uint8(d.ObjectType))
	return w.Out(), nil
}

// Filter tag bytes for ListObjects, matching the device's option-TLV
// encoding (teacher's ListObjectParam* constants).
const (
	filterTagID        uint8 = 0x01
	filterTagType       uint8 = 0x02
	filterTagDomains   uint8 = 0x03
	filterTagAlgorithm uint8 = 0x04
	filterTagLabel     uint8 = 0x05
)

// ListFilter narrows a ListObjects query; zero or more may be combined,
// and the simulator applies them as an AND of predicates.
type ListFilter struct {
	tag   uint8
	value []byte
}

func FilterByID(id uint16) ListFilter {
	w := wire.NewWriter()
	w.Uint16(id)
	return ListFilter{filterTagID, w.Out()}
}

func FilterByType(t ObjectType) ListFilter {
	return ListFilter{filterTagType, []byte{uint8(t)}}
}

func FilterByDomains(d Domain) ListFilter {
	w := wire.NewWriter()
	w.Uint16(uint16(d))
	return ListFilter{filterTagDomains, w.Out()}
}

func FilterByAlgorithm(a Algorithm) ListFilter {
	return ListFilter{filterTagAlgorithm, []byte{uint8(a)}}
}

func FilterByLabel(label string) (ListFilter, error) {
	w := wire.NewWriter()
	if err := encodeLabel(w, label); err != nil {
		return ListFilter{}, err
	}
	return ListFilter{filterTagLabel, w.Out()}, nil
}

// ListObjectsRequest lists every object visible to the session, optionally
// narrowed by Filters.
type ListObjectsRequest struct {
	Filters []ListFilter
}

func (l *ListObjectsRequest) Code() Code { return CodeListObjects }
func (l *ListObjectsRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	for _, f := range l.Filters {
		w.Uint8(f.tag)
		w.Bytes(f.value)
	}
	return w.Out(), nil
}

// DecodeListFilters parses the wire form back into predicates; used by
// the simulator, which receives the same TLV bytes the client sent.
func DecodeListFilters(data []byte) ([]ListFilter, error) {
	r := wire.NewReader(data)
	var filters []ListFilter
	for r.Remaining() > 0 {
		tag, err := r.Uint8()
		if err != nil {
			return nil, err
		}
		var n int
		switch tag {
		case filterTagID, filterTagDomains:
			n = 2
		case filterTagType, filterTagAlgorithm:
			n = 1
		case filterTagLabel:
			n = LabelLength
		default:
			return nil, wire.ErrInvalidTag
		}
		val, err := r.Fixed(n)
		if err != nil {
			return nil, err
		}
		filters = append(filters, ListFilter{tag, val})
	}
	return filters, nil
}

// Matches reports whether info satisfies this single filter predicate.
func (f ListFilter) Matches(info *ObjectInfo) bool {
	switch f.tag {
	case filterTagID:
		return info.ObjectID == uint16(f.value[0])<<8|uint16(f.value[1])
	case filterTagType:
		return uint8(info.Type) == f.value[0]
	case filterTagDomains:
		return info.Domains.Intersects(Domain(uint16(f.value[0])<<8 | uint16(f.value[1])))
	case filterTagAlgorithm:
		return uint8(info.Algorithm) == f.value[0]
	case filterTagLabel:
		return decodeLabel(info.Label[:]) == decodeLabel(f.value)
	default:
		return false
	}
}

// ListObjectsResponse is the flattened list of matching (id, type,
// sequence) triples.
type ListObjectsResponse struct {
	Entries []ListEntry
}

func DecodeListObjectsResponse(payload []byte) (*ListObjectsResponse, error) {
	if len(payload)%4 != 0 {
		return nil, wire.ErrTrailingBytes
	}
	r := wire.NewReader(payload)
	resp := &ListObjectsResponse{}
	for r.Remaining() > 0 {
		id, err := r.Uint16()
		if err != nil {
			return nil, err
		}
		typ, err := r.Uint8()
		if err != nil {
			return nil, err
		}
		seq, err := r.Uint8()
		if err != nil {
			return nil, err
		}
		resp.Entries = append(resp.Entries, ListEntry{id, ObjectType(typ), seq})
	}
	return resp, nil
}

func (l *ListObjectsResponse) Marshal() []byte {
	w := wire.NewWriter()
	for _, e := range l.Entries {
		w.Uint16(e.ObjectID)
		w.Uint8(uint8(e.ObjectType))
		w.Uint8(e.Sequence)
	}
	return w.Out()
}

// PutOpaqueRequest stores an opaque blob (e.g. an X.509 certificate).
type PutOpaqueRequest struct {
	ObjectID     uint16
	Label        string
	Domains      Domain
	Capabilities Capability
	Algorithm    Algorithm
	Data         []byte
}

func (p *PutOpaqueRequest) Code() Code { return CodePutOpaqueObject }
func (p *PutOpaqueRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint16(p.ObjectID)
	if err := encodeLabel(w, p.Label); err != nil {
		return nil, err
	}
	w.Uint16(uint16(p.Domains))
	w.Uint64(uint64(p.Capabilities))
	w.Uint8(uint8(p.Algorithm))
	w.Bytes(p.Data)
	return w.Out(), nil
}

// GetOpaqueRequest retrieves a previously stored opaque blob.
type GetOpaqueRequest struct {
	ObjectID uint16
}

func (g *GetOpaqueRequest) Code() Code { return CodeGetOpaqueObject }
func (g *GetOpaqueRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint16(g.ObjectID)
	return w.Out(), nil
}

// GetOpaqueResponse is the raw stored blob.
type GetOpaqueResponse struct {
	Data []byte
}

func DecodeGetOpaqueResponse(payload []byte) (*GetOpaqueResponse, error) {
	return &GetOpaqueResponse{Data: payload}, nil
}
