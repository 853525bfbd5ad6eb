// Package session manages a single authenticated secure-channel session
// with a device: the inactivity timeout, half-duplex command
// serialization, and best-effort reconnect policy layered on top of
// securechannel.Channel (spec component C4). Grounded on
// original_source/src/session/mod.rs's Session<C>, rendered in the
// teacher's idiom (explicit Close instead of Drop, an error return
// instead of a panic-unsafe blocking mutex for the half-duplex
// invariant).
package session

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/riftlabs/yubihsm-go/authkey"
	"github.com/riftlabs/yubihsm-go/commands"
	"github.com/riftlabs/yubihsm-go/connector"
	"github.com/riftlabs/yubihsm-go/securechannel"
)

// SessionInactivityTimeout matches the device's 30-second session expiry
// (developers.yubico.com/YubiHSM2/Concepts/Session.html, as recorded by
// original_source/src/session/mod.rs).
const SessionInactivityTimeout = 30 * time.Second

// TimeoutSkewInterval is subtracted from SessionInactivityTimeout before
// comparison, so the client always times a session out slightly ahead of
// the device's own clock.
const TimeoutSkewInterval = 1 * time.Second

// Session is a single open, authenticated channel to a device.
type Session struct {
	connector connector.Connector
	channel   *securechannel.Channel
	logger    *slog.Logger

	mu                   sync.Mutex
	lastCommandTimestamp time.Time
	closed               bool

	// credentials is retained only when the caller asked for reconnect
	// support; nil otherwise, which disables reconnect-on-timeout and
	// reconnect-on-invalid-session.
	credentials *authkey.Credentials
}

// Open establishes a new authenticated session: CreateSession followed by
// AuthenticateSession, against conn using creds. When reconnect is true,
// the credentials are retained so SendCommand can transparently
// re-authenticate a lost session.
func Open(ctx context.Context, conn connector.Connector, creds authkey.Credentials, reconnect bool, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}

	channel, err := securechannel.NewChannel()
	if err != nil {
		return nil, newErr(ErrorKindCreateFailed, "generate host challenge: %w", err)
	}

	s := &Session{
		connector:            conn,
		channel:              channel,
		logger:               logger,
		lastCommandTimestamp: time.Now(),
	}
	if reconnect {
		creds := creds
		s.credentials = &creds
	}

	if err := s.createAndAuthenticate(ctx, creds); err != nil {
		return nil, err
	}

	runtime.SetFinalizer(s, finalizeSession)
	return s, nil
}

// createAndAuthenticate runs the CreateSession/AuthenticateSession
// handshake against a fresh Channel and swaps it in on success.
func (s *Session) createAndAuthenticate(ctx context.Context, creds authkey.Credentials) error {
	createReq := &commands.CreateSessionRequest{AuthKeyID: creds.AuthKeyID}
	copy(createReq.HostChallenge[:], s.channel.HostChallenge())

	createResp, err := s.roundTripUnauthenticated(ctx, createReq)
	if err != nil {
		return newErr(ErrorKindCreateFailed, "create session: %w", err)
	}
	sessionResp, err := commands.DecodeCreateSessionResponse(createResp.Data)
	if err != nil {
		return newErr(ErrorKindCreateFailed, "decode create session response: %w", err)
	}

	authCmd, err := s.channel.BeginAuthentication(creds.Key.GetEncKey(), creds.Key.GetMacKey(), sessionResp)
	if err != nil {
		return newErr(ErrorKindAuthFailed, "%w", err)
	}

	raw, err := authCmd.Encode()
	if err != nil {
		return newErr(ErrorKindAuthFailed, "encode authenticate session command: %w", err)
	}
	respBytes, err := s.connector.Send(ctx, uuid.New(), raw)
	if err != nil {
		return newErr(ErrorKindAuthFailed, "%w", err)
	}
	authResp, err := commands.DecodeResponse(respBytes)
	if err != nil {
		return newErr(ErrorKindAuthFailed, "%w", err)
	}
	if err := s.channel.FinishAuthentication(authResp); err != nil {
		return newErr(ErrorKindAuthFailed, "%w", err)
	}

	s.lastCommandTimestamp = time.Now()
	s.logger.Debug("session authenticated", "session_id", s.channel.ID(), "auth_key_id", creds.AuthKeyID)
	return nil
}

// roundTripUnauthenticated sends an unencrypted, unMACed command — used
// only for CreateSession, the one command that precedes any key
// material.
func (s *Session) roundTripUnauthenticated(ctx context.Context, cmd commands.Command) (*commands.ResponseMessage, error) {
	payload, err := cmd.Marshal()
	if err != nil {
		return nil, err
	}
	frame := &commands.CommandMessage{Code: cmd.Code(), Data: payload}
	raw, err := frame.Encode()
	if err != nil {
		return nil, err
	}
	respBytes, err := s.connector.Send(ctx, uuid.New(), raw)
	if err != nil {
		return nil, err
	}
	return commands.DecodeResponse(respBytes)
}

// ID reports the device-assigned session id.
func (s *Session) ID() uint8 { return s.channel.ID() }

// IsOpen reports whether Close has not yet been called on this session.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// SendCommand encrypts cmd, sends it, and returns the decrypted,
// type-checked response frame. Only one command may be in flight per
// session (the device is half-duplex); a concurrent caller receives a
// Busy error rather than blocking.
func (s *Session) SendCommand(ctx context.Context, cmd commands.Command) (*commands.ResponseMessage, error) {
	if !s.mu.TryLock() {
		return nil, &Error{Kind: ErrorKindBusy}
	}
	defer s.mu.Unlock()

	if s.closed {
		return nil, newErr(ErrorKindProtocolError, "session is closed")
	}
	return s.sendLocked(ctx, cmd, true)
}

func (s *Session) sendLocked(ctx context.Context, cmd commands.Command, allowReconnect bool) (*commands.ResponseMessage, error) {
	if time.Since(s.lastCommandTimestamp) > SessionInactivityTimeout-TimeoutSkewInterval {
		if allowReconnect && s.credentials != nil {
			if err := s.reconnectLocked(ctx); err != nil {
				return nil, err
			}
			return s.sendLocked(ctx, cmd, false)
		}
		return nil, &Error{Kind: ErrorKindTimeoutError, Err: errSessionTimedOut}
	}

	frame, err := s.channel.Encrypt(cmd)
	if err != nil {
		return nil, newErr(ErrorKindProtocolError, "%w", err)
	}
	raw, err := frame.Encode()
	if err != nil {
		return nil, newErr(ErrorKindProtocolError, "%w", err)
	}

	s.logger.Debug("sending command", "session_id", s.channel.ID(), "command", cmd.Code(), "length", len(raw))
	respBytes, err := s.connector.Send(ctx, uuid.New(), raw)
	if err != nil {
		var cerr *connector.Error
		if allowReconnect && s.credentials != nil && errors.As(err, &cerr) && cerr.Reconnectable() {
			if rerr := s.reconnectLocked(ctx); rerr == nil {
				return s.sendLocked(ctx, cmd, false)
			}
		}
		return nil, newErr(ErrorKindResponseError, "%w", err)
	}

	resp, err := commands.DecodeResponse(respBytes)
	if err != nil {
		var derr *commands.DeviceError
		if allowReconnect && s.credentials != nil && errors.As(err, &derr) && derr.Kind == commands.ErrInvalidSession {
			if rerr := s.reconnectLocked(ctx); rerr == nil {
				return s.sendLocked(ctx, cmd, false)
			}
		}
		return nil, newErr(ErrorKindResponseError, "%w", err)
	}

	inner, err := s.channel.Decrypt(resp)
	if err != nil {
		return nil, newErr(ErrorKindProtocolError, "%w", err)
	}
	if inner.Code != cmd.Code() {
		return nil, newErr(ErrorKindProtocolError, "command type mismatch: sent %s, got response for %s", cmd.Code(), inner.Code)
	}

	s.lastCommandTimestamp = time.Now()
	s.logger.Debug("received response", "session_id", s.channel.ID(), "command", inner.Code, "length", len(inner.Data))
	return inner, nil
}

// reconnectLocked re-runs the CreateSession/AuthenticateSession handshake
// against a fresh Channel. Caller must hold s.mu.
func (s *Session) reconnectLocked(ctx context.Context) error {
	creds := *s.credentials
	channel, err := securechannel.NewChannel()
	if err != nil {
		return newErr(ErrorKindCreateFailed, "reconnect: %w", err)
	}
	prev := s.channel
	s.channel = channel
	if err := s.createAndAuthenticate(ctx, creds); err != nil {
		s.channel = prev
		return err
	}
	s.logger.Debug("session reconnected", "session_id", s.channel.ID())
	return nil
}

// Close sends CloseSession over the (still) encrypted channel and marks
// the session unusable. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	runtime.SetFinalizer(s, nil)

	_, err := s.sendLocked(ctx, &commands.CloseSessionRequest{}, false)
	if err != nil {
		return newErr(ErrorKindProtocolError, "close session: %w", err)
	}
	return nil
}

var errSessionTimedOut = errors.New("session timed out")

// finalizeSession is a best-effort backstop for callers that forget to
// Close: Go has no deterministic destructor, so this approximates the
// original Rust client's Drop impl via runtime.SetFinalizer. It must
// never panic, since a panic inside a finalizer terminates the program.
func finalizeSession(s *Session) {
	defer func() { _ = recover() }()
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Close(ctx); err != nil {
		s.logger.Debug("finalizer: best-effort close failed", "error", err)
	}
}
