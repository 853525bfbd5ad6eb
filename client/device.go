package client

import (
	"context"

	"github.com/riftlabs/yubihsm-go/commands"
)

// DeviceInfo reports firmware/serial identification and the device's
// advertised algorithm catalog.
func (c *Client) DeviceInfo(ctx context.Context) (*commands.DeviceInfoResponse, error) {
	resp, err := c.send(ctx, &commands.DeviceInfoRequest{})
	if err != nil {
		return nil, err
	}
	out, err := commands.DecodeDeviceInfoResponse(resp.Data)
	if err != nil {
		return nil, newErr(ErrorKindProtocolError, "decode device info response: %w", err)
	}
	return out, nil
}

// GetStorageInfo reports object-store capacity.
func (c *Client) GetStorageInfo(ctx context.Context) (*commands.GetStorageInfoResponse, error) {
	resp, err := c.send(ctx, &commands.GetStorageInfoRequest{})
	if err != nil {
		return nil, err
	}
	out, err := commands.DecodeGetStorageInfoResponse(resp.Data)
	if err != nil {
		return nil, newErr(ErrorKindProtocolError, "decode storage info response: %w", err)
	}
	return out, nil
}

// GetLogEntries pages the audit log.
func (c *Client) GetLogEntries(ctx context.Context) (*commands.GetLogEntriesResponse, error) {
	resp, err := c.send(ctx, &commands.GetLogEntriesRequest{})
	if err != nil {
		return nil, err
	}
	out, err := commands.DecodeGetLogEntriesResponse(resp.Data)
	if err != nil {
		return nil, newErr(ErrorKindProtocolError, "decode log entries response: %w", err)
	}
	return out, nil
}

// SetLogIndex acknowledges audit log entries up to index, letting the
// device reclaim that ring buffer space.
func (c *Client) SetLogIndex(ctx context.Context, index uint16) error {
	_, err := c.send(ctx, &commands.SetLogIndexRequest{Index: index})
	return err
}

// BlinkDevice blinks the HSM's status LED for numSeconds.
func (c *Client) BlinkDevice(ctx context.Context, numSeconds uint8) error {
	_, err := c.send(ctx, &commands.BlinkDeviceRequest{NumSeconds: numSeconds})
	return err
}

// GetOption reads an audit setting.
func (c *Client) GetOption(ctx context.Context, tag commands.AuditTag) ([]byte, error) {
	resp, err := c.send(ctx, &commands.GetOptionRequest{Tag: tag})
	if err != nil {
		return nil, err
	}
	out, err := commands.DecodeGetOptionResponse(resp.Data)
	if err != nil {
		return nil, newErr(ErrorKindProtocolError, "decode get option response: %w", err)
	}
	return out.Value, nil
}

// SetOption writes an audit setting.
func (c *Client) SetOption(ctx context.Context, tag commands.AuditTag, value []byte) error {
	_, err := c.send(ctx, &commands.SetOptionRequest{Tag: tag, Value: value})
	return err
}

// GetPseudoRandom asks the device for n bytes of randomness, rejecting n >
// MaxRandBytes locally before the command is ever sent (spec.md §4.5).
func (c *Client) GetPseudoRandom(ctx context.Context, n uint16) ([]byte, error) {
	if n > MaxRandBytes {
		return nil, newErr(ErrorKindProtocolError, "requested %d random bytes exceeds limit %d", n, MaxRandBytes)
	}
	resp, err := c.send(ctx, &commands.GetPseudoRandomRequest{Bytes: n})
	if err != nil {
		return nil, err
	}
	out, err := commands.DecodeGetPseudoRandomResponse(resp.Data)
	if err != nil {
		return nil, newErr(ErrorKindProtocolError, "decode get pseudo random response: %w", err)
	}
	return out.Data, nil
}
