package mockhsm

import (
	"crypto/rand"
	"crypto/subtle"

	"github.com/riftlabs/yubihsm-go/commands"
	"github.com/riftlabs/yubihsm-go/securechannel"
)

type deviceSessionState uint8

const (
	deviceSessionHalfOpen deviceSessionState = iota
	deviceSessionOpen
)

// deviceSession is the simulator's half of a secure channel: the same KDF,
// MAC-chain, and counter-IV machinery securechannel.Channel uses on the
// client side, run in the opposite direction (grounded on
// the securechannel package, whose CounterIV/ChainMAC/Pad/Unpad helpers are
// exported specifically so this file can reuse them rather than
// duplicating the construction).
type deviceSession struct {
	id        uint8
	authKeyID uint16

	state deviceSessionState

	hostChallenge   []byte
	deviceChallenge []byte
	keys            *securechannel.KeyChain

	chainValue []byte
	counter    uint32
}

// createSession processes CreateSession against the named authentication
// key: generates the device's challenge and cryptogram, and parks a
// half-open deviceSession awaiting AuthenticateSession.
func (s *State) createSession(req *commands.CreateSessionRequest) (*commands.CreateSessionResponse, error) {
	key, _, ok := s.authKey(req.AuthKeyID)
	if !ok {
		return nil, &commands.DeviceError{Kind: commands.ErrObjectNotFound}
	}

	id, ok := s.freeSessionID()
	if !ok {
		return nil, &commands.DeviceError{Kind: commands.ErrSessionsFull}
	}

	deviceChallenge := make([]byte, securechannel.ChallengeLength)
	if _, err := rand.Read(deviceChallenge); err != nil {
		return nil, err
	}

	keys, err := securechannel.DeriveKeyChain(key.GetEncKey(), key.GetMacKey(), req.HostChallenge[:], deviceChallenge)
	if err != nil {
		return nil, err
	}

	cryptogram, err := securechannel.CardCryptogram(keys.MACKey, req.HostChallenge[:], deviceChallenge)
	if err != nil {
		return nil, err
	}

	s.sessions[id] = &deviceSession{
		id:              id,
		authKeyID:       req.AuthKeyID,
		state:           deviceSessionHalfOpen,
		hostChallenge:   append([]byte(nil), req.HostChallenge[:]...),
		deviceChallenge: deviceChallenge,
		keys:            keys,
		chainValue:      make([]byte, 16),
	}

	resp := &commands.CreateSessionResponse{SessionID: id}
	copy(resp.CardChallenge[:], deviceChallenge)
	copy(resp.CardCryptogram[:], cryptogram)
	return resp, nil
}

// authenticateSession validates the command MAC carried in an
// AuthenticateSession frame's body (session id || host cryptogram || MAC,
// commands.DecodeSessionScopedBody's shape) and, on success, promotes the
// deviceSession to open and returns the response frame bytes. A MAC or
// cryptogram mismatch tears the half-open session down, mirroring the
// real device's auth-fail-closes-session behavior.
func (s *State) authenticateSession(body []byte) ([]byte, error) {
	sessionID, data, mac, err := commands.DecodeSessionScopedBody(body)
	if err != nil {
		return nil, err
	}
	sess, ok := s.sessions[sessionID]
	if !ok || sess.state != deviceSessionHalfOpen {
		return commands.EncodeErrorResponse(commands.ErrInvalidSession), nil
	}

	bodyLen := uint16(1 + len(data) + len(mac))
	commandChain, err := securechannel.ChainMAC(sess.keys.MACKey, sess.chainValue, commands.CodeAuthenticateSession, bodyLen, sessionID, data)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(commandChain[:securechannel.MACLength], mac) != 1 {
		delete(s.sessions, sessionID)
		return commands.EncodeErrorResponse(commands.ErrAuthFail), nil
	}

	expectedHostCryptogram, err := securechannel.HostCryptogram(sess.keys.MACKey, sess.hostChallenge, sess.deviceChallenge)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(expectedHostCryptogram, data) != 1 {
		delete(s.sessions, sessionID)
		return commands.EncodeErrorResponse(commands.ErrAuthFail), nil
	}

	respCode := commands.CodeAuthenticateSession | commands.ResponseFlag
	respChain, err := securechannel.ChainMAC(sess.keys.RMACKey, commandChain, respCode, securechannel.MACLength, sessionID, nil)
	if err != nil {
		return nil, err
	}

	sess.chainValue = respChain
	sess.counter = 1
	sess.state = deviceSessionOpen

	return commands.EncodeRawResponse(respCode, respChain[:securechannel.MACLength])
}
