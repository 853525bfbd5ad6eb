// Package client implements the typed facade applications call (spec
// component C5): it maps one operation per device command, enforces the
// input constraints only the caller's side can know (max random byte
// count, HMAC key length bounds, RSA-PSS message size), and folds every
// lower-layer error into the client.Error taxonomy. Grounded on
// original_source/src/client/mod.rs's method catalog and on the teacher's
// main.go for how a caller is expected to drive a session end to end.
package client

import (
	"context"
	"log/slog"

	"github.com/riftlabs/yubihsm-go/authkey"
	"github.com/riftlabs/yubihsm-go/commands"
	"github.com/riftlabs/yubihsm-go/connector"
	"github.com/riftlabs/yubihsm-go/session"
)

// Client-side-only constants the facade enforces before a command is ever
// sent (spec.md §4.5 and §9).
const (
	MaxRandBytes         = 2048
	HmacMinKeySize       = 1
	RsaPssMaxMessageSize = 0xffff
)

// Client owns one Session and the Connector it was opened against. It is
// not safe for concurrent use beyond what Session itself serializes
// internally (spec.md §6: "not sharable across threads without external
// exclusion").
type Client struct {
	sess *session.Session
}

// Open establishes a new authenticated session against conn using creds
// and wraps it as a Client. reconnect enables the session's transparent
// reconnect-on-timeout/invalid-session policy.
func Open(ctx context.Context, conn connector.Connector, creds authkey.Credentials, reconnect bool, logger *slog.Logger) (*Client, error) {
	sess, err := session.Open(ctx, conn, creds, reconnect, logger)
	if err != nil {
		return nil, wrapSessionErr(err)
	}
	return &Client{sess: sess}, nil
}

// Close sends CloseSession and marks the underlying session unusable.
func (c *Client) Close(ctx context.Context) error {
	return wrapSessionErr(c.sess.Close(ctx))
}

// SessionID reports the device-assigned session id the underlying
// session was authenticated under.
func (c *Client) SessionID() uint8 { return c.sess.ID() }

// send is the one path every typed method funnels through: it sends cmd
// and folds any error into the client facade's taxonomy.
func (c *Client) send(ctx context.Context, cmd commands.Command) (*commands.ResponseMessage, error) {
	resp, err := c.sess.SendCommand(ctx, cmd)
	if err != nil {
		return nil, wrapSessionErr(err)
	}
	return resp, nil
}

// Echo asks the device to return data unchanged, the simplest possible
// liveness check for an open session.
func (c *Client) Echo(ctx context.Context, data []byte) ([]byte, error) {
	resp, err := c.send(ctx, &commands.EchoRequest{Data: data})
	if err != nil {
		return nil, err
	}
	echoResp, err := commands.DecodeEchoResponse(resp.Data)
	if err != nil {
		return nil, newErr(ErrorKindProtocolError, "decode echo response: %w", err)
	}
	return echoResp.Data, nil
}

// ResetDevice asks the device to reboot. Per spec.md §4.5, the local
// session is invalidated unconditionally, whether the send itself
// succeeded or not: a rebooting device tears down every session on its
// side regardless of whether the response made it back.
func (c *Client) ResetDevice(ctx context.Context) error {
	_, sendErr := c.send(ctx, &commands.ResetDeviceRequest{})
	// Close marks the session unusable even if its own CloseSession round
	// trip fails, which it will: the device is already rebooting.
	_ = c.sess.Close(ctx)
	return sendErr
}
