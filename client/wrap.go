package client

import (
	"context"

	"github.com/riftlabs/yubihsm-go/commands"
)

// PutWrapKey imports an AES-CCM wrapping key. key's length must equal
// alg.KeyLen() exactly (16/24/32 bytes for AES-128/192/256-CCM); a
// mismatch is rejected here with ErrorKindProtocolError before the
// command is sent.
func (c *Client) PutWrapKey(ctx context.Context, id uint16, label string, domains commands.Domain, caps commands.Capability, alg commands.Algorithm, delegated commands.Capability, key []byte) (uint16, error) {
	if len(key) != alg.KeyLen() {
		return 0, newErr(ErrorKindProtocolError, "wrap key length %d does not match %d required by algorithm %d", len(key), alg.KeyLen(), alg)
	}
	resp, err := c.send(ctx, &commands.PutWrapKeyRequest{
		ObjectID: id, Label: label, Domains: domains, Capabilities: caps,
		Algorithm: alg, DelegatedCapabilities: delegated, Key: key,
	})
	if err != nil {
		return 0, err
	}
	return decodeKeyID(resp)
}

// GenerateWrapKey asks the device to generate a random wrap key in place.
func (c *Client) GenerateWrapKey(ctx context.Context, id uint16, label string, domains commands.Domain, caps commands.Capability, alg commands.Algorithm, delegated commands.Capability) (uint16, error) {
	resp, err := c.send(ctx, &commands.GenerateWrapKeyRequest{
		ObjectID: id, Label: label, Domains: domains, Capabilities: caps,
		Algorithm: alg, DelegatedCapabilities: delegated,
	})
	if err != nil {
		return 0, err
	}
	return decodeKeyID(resp)
}

// ExportWrapped exports the object (id, typ) encrypted under wrapKeyID.
func (c *Client) ExportWrapped(ctx context.Context, wrapKeyID uint16, typ commands.ObjectType, id uint16) (*commands.WrapMessage, error) {
	resp, err := c.send(ctx, &commands.ExportWrappedRequest{WrapKeyID: wrapKeyID, ObjectType: typ, ObjectID: id})
	if err != nil {
		return nil, err
	}
	out, err := commands.DecodeExportWrappedResponse(resp.Data)
	if err != nil {
		return nil, newErr(ErrorKindProtocolError, "decode export wrapped response: %w", err)
	}
	return &out.WrapMessage, nil
}

// ImportWrapped imports an object previously produced by ExportWrapped,
// returning the (id, type) it landed at.
func (c *Client) ImportWrapped(ctx context.Context, wrapKeyID uint16, msg commands.WrapMessage) (uint16, commands.ObjectType, error) {
	resp, err := c.send(ctx, &commands.ImportWrappedRequest{WrapKeyID: wrapKeyID, WrapMessage: msg})
	if err != nil {
		return 0, 0, err
	}
	out, err := commands.DecodeImportWrappedResponse(resp.Data)
	if err != nil {
		return 0, 0, newErr(ErrorKindProtocolError, "decode import wrapped response: %w", err)
	}
	return out.ObjectID, out.ObjectType, nil
}

// WrapData wraps an arbitrary plaintext blob under wrapKeyID, without
// involving the object store.
func (c *Client) WrapData(ctx context.Context, wrapKeyID uint16, data []byte) (*commands.WrapMessage, error) {
	resp, err := c.send(ctx, &commands.WrapDataRequest{WrapKeyID: wrapKeyID, Data: data})
	if err != nil {
		return nil, err
	}
	out, err := commands.DecodeWrapDataResponse(resp.Data)
	if err != nil {
		return nil, newErr(ErrorKindProtocolError, "decode wrap data response: %w", err)
	}
	return &out.WrapMessage, nil
}

// UnwrapData reverses WrapData.
func (c *Client) UnwrapData(ctx context.Context, wrapKeyID uint16, msg commands.WrapMessage) ([]byte, error) {
	resp, err := c.send(ctx, &commands.UnwrapDataRequest{WrapKeyID: wrapKeyID, WrapMessage: msg})
	if err != nil {
		return nil, err
	}
	out, err := commands.DecodeUnwrapDataResponse(resp.Data)
	if err != nil {
		return nil, newErr(ErrorKindProtocolError, "decode unwrap data response: %w", err)
	}
	return out.Data, nil
}
