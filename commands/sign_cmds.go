package commands

import "github.com/riftlabs/yubihsm-go/wire"

// Ed25519SignatureLength is the fixed signature size for Ed25519.
const Ed25519SignatureLength = 64

// SignEddsaRequest signs Data with the Ed25519 key ObjectID.
type SignEddsaRequest struct {
	ObjectID uint16
	Data     []byte
}

func (s *SignEddsaRequest) Code() Code { return CodeSignEddsa }
func (s *SignEddsaRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint16(s.ObjectID)
	w.Bytes(s.Data)
	return w.Out(), nil
}

// SignEddsaResponse is the 64-byte Ed25519 signature.
type SignEddsaResponse struct {
	Signature []byte
}

func DecodeSignEddsaResponse(payload []byte) (*SignEddsaResponse, error) {
	return &SignEddsaResponse{Signature: payload}, nil
}

// DecodeSignEddsaRequest decodes a SignEddsa command body.
func DecodeSignEddsaRequest(body []byte) (*SignEddsaRequest, error) {
	r := wire.NewReader(body)
	id, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	return &SignEddsaRequest{ObjectID: id, Data: r.Rest()}, nil
}

// DecodeSignEcdsaRequest decodes a SignEcdsa command body.
func DecodeSignEcdsaRequest(body []byte) (*SignEcdsaRequest, error) {
	r := wire.NewReader(body)
	id, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	return &SignEcdsaRequest{ObjectID: id, Data: r.Rest()}, nil
}

// DecodeSignAttestationCertificateRequest decodes a
// SignAttestationCertificate command body.
func DecodeSignAttestationCertificateRequest(body []byte) (*SignAttestationCertificateRequest, error) {
	r := wire.NewReader(body)
	id, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	attKeyID, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	return &SignAttestationCertificateRequest{ObjectID: id, AttestationKeyID: attKeyID}, r.Done()
}

// SignEcdsaRequest signs the SHA-256 digest of Data with the EC key
// ObjectID, returning a DER-encoded ECDSA signature.
type SignEcdsaRequest struct {
	ObjectID uint16
	Data     []byte
}

func (s *SignEcdsaRequest) Code() Code { return CodeSignEcdsa }
func (s *SignEcdsaRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint16(s.ObjectID)
	w.Bytes(s.Data)
	return w.Out(), nil
}

// SignEcdsaResponse is a DER-encoded ECDSA signature.
type SignEcdsaResponse struct {
	Signature []byte
}

func DecodeSignEcdsaResponse(payload []byte) (*SignEcdsaResponse, error) {
	return &SignEcdsaResponse{Signature: payload}, nil
}

// SignPkcs1Request signs the SHA-256 digest of Data with an RSA key using
// PKCS#1v1.5 padding.
type SignPkcs1Request struct {
	ObjectID uint16
	Data     []byte
}

func (s *SignPkcs1Request) Code() Code { return CodeSignPkcs1 }
func (s *SignPkcs1Request) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint16(s.ObjectID)
	w.Bytes(s.Data)
	return w.Out(), nil
}

type SignPkcs1Response struct {
	Signature []byte
}

func DecodeSignPkcs1Response(payload []byte) (*SignPkcs1Response, error) {
	return &SignPkcs1Response{Signature: payload}, nil
}

// SignPssRequest signs the SHA-256 digest of Data with an RSA key using
// PSS padding. RSA support is an optional, feature-gated module
// (spec.md §9): callers on a build without RSA never construct this type.
type SignPssRequest struct {
	ObjectID uint16
	Data     []byte
}

func (s *SignPssRequest) Code() Code { return CodeSignPss }
func (s *SignPssRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint16(s.ObjectID)
	w.Bytes(s.Data)
	return w.Out(), nil
}

type SignPssResponse struct {
	Signature []byte
}

func DecodeSignPssResponse(payload []byte) (*SignPssResponse, error) {
	return &SignPssResponse{Signature: payload}, nil
}

// SignAttestationCertificateRequest has the target key attest its own
// provenance, signed by AttestationKeyID.
type SignAttestationCertificateRequest struct {
	ObjectID        uint16
	AttestationKeyID uint16
}

func (s *SignAttestationCertificateRequest) Code() Code { return CodeAttestAsymmetric }
func (s *SignAttestationCertificateRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint16(s.ObjectID)
	w.Uint16(s.AttestationKeyID)
	return w.Out(), nil
}

// SignAttestationCertificateResponse is a DER-encoded X.509 certificate.
type SignAttestationCertificateResponse struct {
	Certificate []byte
}

func DecodeSignAttestationCertificateResponse(payload []byte) (*SignAttestationCertificateResponse, error) {
	return &SignAttestationCertificateResponse{Certificate: payload}, nil
}
