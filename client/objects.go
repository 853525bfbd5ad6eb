package client

import (
	"context"

	"github.com/riftlabs/yubihsm-go/commands"
)

// GenerateAsymmetricKey asks the device to generate a keypair in place,
// returning the id it landed at (0 in the request lets the device choose).
func (c *Client) GenerateAsymmetricKey(ctx context.Context, id uint16, label string, domains commands.Domain, caps commands.Capability, alg commands.Algorithm) (uint16, error) {
	resp, err := c.send(ctx, &commands.GenerateAsymmetricKeyRequest{
		ObjectID: id, Label: label, Domains: domains, Capabilities: caps, Algorithm: alg,
	})
	if err != nil {
		return 0, err
	}
	return decodeKeyID(resp)
}

// PutAsymmetricKey imports an existing keypair. keyPart1/keyPart2 follow
// commands.PutAsymmetricKeyRequest's algorithm-dependent split (a single
// EC/Ed25519 scalar in keyPart1 and an empty keyPart2, or RSA p/q).
func (c *Client) PutAsymmetricKey(ctx context.Context, id uint16, label string, domains commands.Domain, caps commands.Capability, alg commands.Algorithm, keyPart1, keyPart2 []byte) (uint16, error) {
	resp, err := c.send(ctx, &commands.PutAsymmetricKeyRequest{
		ObjectID: id, Label: label, Domains: domains, Capabilities: caps, Algorithm: alg,
		KeyPart1: keyPart1, KeyPart2: keyPart2,
	})
	if err != nil {
		return 0, err
	}
	return decodeKeyID(resp)
}

// GetPublicKey retrieves the public half of an asymmetric object.
func (c *Client) GetPublicKey(ctx context.Context, id uint16) (*commands.GetPublicKeyResponse, error) {
	resp, err := c.send(ctx, &commands.GetPublicKeyRequest{ObjectID: id})
	if err != nil {
		return nil, err
	}
	out, err := commands.DecodeGetPublicKeyResponse(resp.Data)
	if err != nil {
		return nil, newErr(ErrorKindProtocolError, "decode get public key response: %w", err)
	}
	return out, nil
}

// SignEddsa signs data with the Ed25519 key id.
func (c *Client) SignEddsa(ctx context.Context, id uint16, data []byte) ([]byte, error) {
	resp, err := c.send(ctx, &commands.SignEddsaRequest{ObjectID: id, Data: data})
	if err != nil {
		return nil, err
	}
	out, err := commands.DecodeSignEddsaResponse(resp.Data)
	if err != nil {
		return nil, newErr(ErrorKindProtocolError, "decode sign eddsa response: %w", err)
	}
	return out.Signature, nil
}

// SignEcdsa signs the SHA-256 digest of data with the EC key id, returning
// a DER-encoded ECDSA signature.
func (c *Client) SignEcdsa(ctx context.Context, id uint16, data []byte) ([]byte, error) {
	resp, err := c.send(ctx, &commands.SignEcdsaRequest{ObjectID: id, Data: data})
	if err != nil {
		return nil, err
	}
	out, err := commands.DecodeSignEcdsaResponse(resp.Data)
	if err != nil {
		return nil, newErr(ErrorKindProtocolError, "decode sign ecdsa response: %w", err)
	}
	return out.Signature, nil
}

// SignRsaPkcs1 signs the SHA-256 digest of data with the RSA key id using
// PKCS#1v1.5 padding. RSA signing is not implemented by the simulator
// regardless of its EnableRSA flag (mockhsm always returns
// ErrInvalidCommand); this method exists for a real device's benefit.
func (c *Client) SignRsaPkcs1(ctx context.Context, id uint16, data []byte) ([]byte, error) {
	resp, err := c.send(ctx, &commands.SignPkcs1Request{ObjectID: id, Data: data})
	if err != nil {
		return nil, err
	}
	out, err := commands.DecodeSignPkcs1Response(resp.Data)
	if err != nil {
		return nil, newErr(ErrorKindProtocolError, "decode sign pkcs1 response: %w", err)
	}
	return out.Signature, nil
}

// SignRsaPssSha256 signs the SHA-256 digest of data with the RSA key id
// using PSS padding, rejecting data longer than RsaPssMaxMessageSize
// before it is ever sent. The original Rust client's equivalent condition
// is inverted (it errors when data is too short, not too long); this is
// the corrected direction (spec.md §9).
func (c *Client) SignRsaPssSha256(ctx context.Context, id uint16, data []byte) ([]byte, error) {
	if len(data) > RsaPssMaxMessageSize {
		return nil, newErr(ErrorKindProtocolError, "message too large for RSA-PSS: %d bytes exceeds %d", len(data), RsaPssMaxMessageSize)
	}
	resp, err := c.send(ctx, &commands.SignPssRequest{ObjectID: id, Data: data})
	if err != nil {
		return nil, err
	}
	out, err := commands.DecodeSignPssResponse(resp.Data)
	if err != nil {
		return nil, newErr(ErrorKindProtocolError, "decode sign pss response: %w", err)
	}
	return out.Signature, nil
}

// SignAttestationCertificate has keyID attest its own provenance, signed
// by attestationKeyID, returning a DER-encoded X.509 certificate. The
// simulator's certificate is a self-signed placeholder, not a conformant
// device attestation chain (spec.md §9).
func (c *Client) SignAttestationCertificate(ctx context.Context, keyID, attestationKeyID uint16) ([]byte, error) {
	resp, err := c.send(ctx, &commands.SignAttestationCertificateRequest{ObjectID: keyID, AttestationKeyID: attestationKeyID})
	if err != nil {
		return nil, err
	}
	out, err := commands.DecodeSignAttestationCertificateResponse(resp.Data)
	if err != nil {
		return nil, newErr(ErrorKindProtocolError, "decode attestation response: %w", err)
	}
	return out.Certificate, nil
}

// GetObjectInfo looks up an object's metadata by its (id, type) key.
func (c *Client) GetObjectInfo(ctx context.Context, id uint16, typ commands.ObjectType) (*commands.ObjectInfo, error) {
	resp, err := c.send(ctx, &commands.GetObjectInfoRequest{ObjectID: id, ObjectType: typ})
	if err != nil {
		return nil, err
	}
	info := &commands.ObjectInfo{}
	if err := info.UnmarshalBinary(resp.Data); err != nil {
		return nil, newErr(ErrorKindProtocolError, "decode object info: %w", err)
	}
	return info, nil
}

// DeleteObject removes an object by its (id, type) key.
func (c *Client) DeleteObject(ctx context.Context, id uint16, typ commands.ObjectType) error {
	_, err := c.send(ctx, &commands.DeleteObjectRequest{ObjectID: id, ObjectType: typ})
	return err
}

// ListObjects lists every object visible to the session, optionally
// narrowed by filters (commands.FilterByID/FilterByType/...).
func (c *Client) ListObjects(ctx context.Context, filters ...commands.ListFilter) ([]commands.ListEntry, error) {
	resp, err := c.send(ctx, &commands.ListObjectsRequest{Filters: filters})
	if err != nil {
		return nil, err
	}
	out, err := commands.DecodeListObjectsResponse(resp.Data)
	if err != nil {
		return nil, newErr(ErrorKindProtocolError, "decode list objects response: %w", err)
	}
	return out.Entries, nil
}

// PutOpaque stores an opaque blob (e.g. an X.509 certificate).
func (c *Client) PutOpaque(ctx context.Context, id uint16, label string, domains commands.Domain, caps commands.Capability, alg commands.Algorithm, data []byte) (uint16, error) {
	resp, err := c.send(ctx, &commands.PutOpaqueRequest{
		ObjectID: id, Label: label, Domains: domains, Capabilities: caps, Algorithm: alg, Data: data,
	})
	if err != nil {
		return 0, err
	}
	return decodeKeyID(resp)
}

// GetOpaque retrieves a previously stored opaque blob.
func (c *Client) GetOpaque(ctx context.Context, id uint16) ([]byte, error) {
	resp, err := c.send(ctx, &commands.GetOpaqueRequest{ObjectID: id})
	if err != nil {
		return nil, err
	}
	out, err := commands.DecodeGetOpaqueResponse(resp.Data)
	if err != nil {
		return nil, newErr(ErrorKindProtocolError, "decode get opaque response: %w", err)
	}
	return out.Data, nil
}

// PutAuthenticationKey installs an additional authentication key, whose
// DelegatedCapabilities must be a subset of the session's own auth key's
// delegated capabilities (enforced by the device, not locally).
func (c *Client) PutAuthenticationKey(ctx context.Context, id uint16, label string, domains commands.Domain, caps, delegated commands.Capability, encKey, macKey []byte) (uint16, error) {
	resp, err := c.send(ctx, &commands.PutAuthenticationKeyRequest{
		ObjectID: id, Label: label, Domains: domains, Capabilities: caps,
		DelegatedCapabilities: delegated, EncKey: encKey, MacKey: macKey,
	})
	if err != nil {
		return 0, err
	}
	return decodeKeyID(resp)
}

func decodeKeyID(resp *commands.ResponseMessage) (uint16, error) {
	out, err := commands.DecodeKeyIDResponse(resp.Data)
	if err != nil {
		return 0, newErr(ErrorKindProtocolError, "decode key id response: %w", err)
	}
	return out.ObjectID, nil
}
