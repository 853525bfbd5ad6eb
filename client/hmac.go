package client

import (
	"context"

	"github.com/riftlabs/yubihsm-go/commands"
)

// PutHmacKey imports an HMAC key, enforcing HmacMinKeySize <= len(key) <=
// alg.MaxHmacKeyLen() locally before the command is ever sent (spec.md
// §4.5).
func (c *Client) PutHmacKey(ctx context.Context, id uint16, label string, domains commands.Domain, caps commands.Capability, alg commands.Algorithm, key []byte) (uint16, error) {
	if err := checkHmacKeyLen(alg, len(key)); err != nil {
		return 0, err
	}
	resp, err := c.send(ctx, &commands.PutHmacKeyRequest{
		ObjectID: id, Label: label, Domains: domains, Capabilities: caps, Algorithm: alg, Key: key,
	})
	if err != nil {
		return 0, err
	}
	return decodeKeyID(resp)
}

// GenerateHmacKey asks the device to generate a random HMAC key in place.
func (c *Client) GenerateHmacKey(ctx context.Context, id uint16, label string, domains commands.Domain, caps commands.Capability, alg commands.Algorithm) (uint16, error) {
	resp, err := c.send(ctx, &commands.GenerateHmacKeyRequest{
		ObjectID: id, Label: label, Domains: domains, Capabilities: caps, Algorithm: alg,
	})
	if err != nil {
		return 0, err
	}
	return decodeKeyID(resp)
}

// SignHmac computes an HMAC tag over data using the key id.
func (c *Client) SignHmac(ctx context.Context, id uint16, data []byte) ([]byte, error) {
	resp, err := c.send(ctx, &commands.SignHmacRequest{ObjectID: id, Data: data})
	if err != nil {
		return nil, err
	}
	out, err := commands.DecodeHmacTagResponse(resp.Data)
	if err != nil {
		return nil, newErr(ErrorKindProtocolError, "decode hmac tag response: %w", err)
	}
	return out.Tag, nil
}

// VerifyHmac asks the device to verify tag against data under the key id.
func (c *Client) VerifyHmac(ctx context.Context, id uint16, tag, data []byte) (bool, error) {
	resp, err := c.send(ctx, &commands.VerifyHmacRequest{ObjectID: id, Tag: tag, Data: data})
	if err != nil {
		return false, err
	}
	out, err := commands.DecodeVerifyHmacResponse(resp.Data)
	if err != nil {
		return false, newErr(ErrorKindProtocolError, "decode verify hmac response: %w", err)
	}
	return out.Valid, nil
}

func checkHmacKeyLen(alg commands.Algorithm, n int) error {
	max := alg.MaxHmacKeyLen()
	if max == 0 {
		return newErr(ErrorKindProtocolError, "algorithm %d is not an HMAC algorithm", alg)
	}
	if n < HmacMinKeySize || n > max {
		return newErr(ErrorKindProtocolError, "hmac key length %d outside [%d, %d] for algorithm %d", n, HmacMinKeySize, max, alg)
	}
	return nil
}
