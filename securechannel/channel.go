// Package securechannel implements the SCP03-derivative secure channel:
// KDF-derived session keys, MAC-chained command/response authentication,
// and AES-CBC payload encryption under a counter-derived IV (spec
// component C3). It is grounded on the teacher repo's
// securechannel/channel.go, generalized to operate over the wire-level
// commands.CommandMessage/ResponseMessage types instead of the teacher's
// combined command+framing type.
package securechannel

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"github.com/riftlabs/yubihsm-go/commands"
)

// SecurityLevel reports whether a Channel has completed the authentication
// ceremony.
type SecurityLevel byte

const (
	SecurityLevelUnauthenticated SecurityLevel = 0
	SecurityLevelAuthenticated   SecurityLevel = 1
)

// MaxMessagesPerSession bounds the 32-bit encryption counter's practical
// reuse window; the real device enforces a much tighter limit but any
// fixed ceiling avoids counter/IV reuse (spec.md §4.3's "no counter
// reuse" invariant).
const MaxMessagesPerSession = 10000

// Channel is the per-session secure channel state machine: it owns the
// derived key material and the running MAC chain value, and transforms
// plaintext commands into authenticated (and, once established, encrypted)
// wire frames. It does not perform connector I/O or timeout/reconnect
// policy; session.Session composes those around a Channel.
type Channel struct {
	id uint8

	hostChallenge   []byte
	deviceChallenge []byte
	keys            *KeyChain

	security SecurityLevel
	counter  uint32

	chainValue []byte

	// pendingAuthChain holds the AuthenticateSession command's MAC
	// output between BeginAuthentication and FinishAuthentication,
	// since the response's chain value is computed from it rather
	// than from chainValue (which isn't updated until the handshake
	// actually succeeds).
	pendingAuthChain []byte

	// pendingIV is the IV used for the in-flight SessionMessage's
	// encryption, held so the matching response can be decrypted with
	// the same IV before the counter advances.
	pendingIV []byte
}

// NewChannel creates an unauthenticated Channel with a fresh random host
// challenge. Call BeginAuthentication once CreateSessionResponse arrives,
// then FinishAuthentication once the device acknowledges
// AuthenticateSession.
func NewChannel() (*Channel, error) {
	hostChallenge := make([]byte, ChallengeLength)
	if _, err := rand.Read(hostChallenge); err != nil {
		return nil, err
	}
	return &Channel{
		hostChallenge: hostChallenge,
		chainValue:    make([]byte, 16),
		security:      SecurityLevelUnauthenticated,
	}, nil
}

// HostChallenge returns the random challenge generated for CreateSession.
func (c *Channel) HostChallenge() []byte { return c.hostChallenge }

// ID reports the session id assigned by CreateSessionResponse.
func (c *Channel) ID() uint8 { return c.id }

// IsAuthenticated reports whether the authentication ceremony completed.
func (c *Channel) IsAuthenticated() bool { return c.security == SecurityLevelAuthenticated }

// BeginAuthentication consumes a CreateSessionResponse: it records the
// session id and device challenge, derives the session key chain, and
// validates the device's authentication cryptogram. On success it returns
// the AuthenticateSession command frame to send next.
func (c *Channel) BeginAuthentication(encKey, macKey []byte, resp *commands.CreateSessionResponse) (*commands.CommandMessage, error) {
	if c.security != SecurityLevelUnauthenticated {
		return nil, fmt.Errorf("securechannel: channel already authenticated")
	}

	c.id = resp.SessionID
	c.deviceChallenge = resp.CardChallenge[:]

	keys, err := DeriveKeyChain(encKey, macKey, c.hostChallenge, c.deviceChallenge)
	if err != nil {
		return nil, err
	}
	c.keys = keys

	expectedCardCryptogram, err := CardCryptogram(keys.MACKey, c.hostChallenge, c.deviceChallenge)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(expectedCardCryptogram, resp.CardCryptogram[:]) != 1 {
		return nil, fmt.Errorf("securechannel: device authentication cryptogram mismatch")
	}

	hostCryptogram, err := HostCryptogram(keys.MACKey, c.hostChallenge, c.deviceChallenge)
	if err != nil {
		return nil, err
	}

	cmd := &commands.AuthenticateSessionRequest{}
	copy(cmd.HostCryptogram[:], hostCryptogram)
	payload, err := cmd.Marshal()
	if err != nil {
		return nil, err
	}

	frame := &commands.CommandMessage{Code: commands.CodeAuthenticateSession, SessionID: &c.id, Data: payload}
	bodyLen := uint16(frame.BodyLength() + MACLength)
	mac, err := ChainMAC(keys.MACKey, c.chainValue, frame.Code, bodyLen, c.id, frame.Data)
	if err != nil {
		return nil, err
	}
	frame.MAC = mac[:MACLength]
	c.pendingAuthChain = mac

	return frame, nil
}

// FinishAuthentication validates the device's MACed empty acknowledgment
// that completes AuthenticateSession, and — on success — marks the
// channel authenticated with its encryption counter reset to 1 (spec.md
// §4.3's post-handshake counter invariant).
func (c *Channel) FinishAuthentication(resp *commands.ResponseMessage) error {
	if resp.Code != commands.CodeAuthenticateSession {
		return fmt.Errorf("securechannel: unexpected response code %s to AuthenticateSession", resp.Code)
	}

	expected, err := ChainMAC(c.keys.RMACKey, c.pendingAuthChain, resp.RawCode, resp.Length, c.id, nil)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(expected[:MACLength], resp.Data) != 1 {
		return fmt.Errorf("securechannel: authenticate response MAC mismatch")
	}

	c.chainValue = expected
	c.pendingAuthChain = nil
	c.counter = 1
	c.security = SecurityLevelAuthenticated
	return nil
}

// Encrypt wraps cmd's marshaled payload as an encrypted, MAC-authenticated
// SessionMessage command frame, ready to hand to a connector.
func (c *Channel) Encrypt(cmd commands.Command) (*commands.CommandMessage, error) {
	if c.security != SecurityLevelAuthenticated {
		return nil, fmt.Errorf("securechannel: channel is not authenticated")
	}
	if c.counter >= MaxMessagesPerSession {
		return nil, fmt.Errorf("securechannel: session has reached its message limit; reauthenticate")
	}

	payload, err := cmd.Marshal()
	if err != nil {
		return nil, err
	}
	inner := &commands.CommandMessage{Code: cmd.Code(), Data: payload}
	plaintext, err := inner.Encode()
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(c.keys.EncKey)
	if err != nil {
		return nil, err
	}
	iv := CounterIV(block, c.counter)

	padded := Pad(plaintext)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	outer := &commands.CommandMessage{Code: commands.CodeSessionMessage, SessionID: &c.id, Data: ciphertext}
	bodyLen := uint16(outer.BodyLength() + MACLength)
	mac, err := ChainMAC(c.keys.MACKey, c.chainValue, outer.Code, bodyLen, c.id, outer.Data)
	if err != nil {
		return nil, err
	}
	outer.MAC = mac[:MACLength]

	c.chainValue = mac
	c.pendingIV = iv
	return outer, nil
}

// Decrypt validates and decrypts a SessionMessage response previously
// elicited by Encrypt, returning the inner response frame.
func (c *Channel) Decrypt(resp *commands.ResponseMessage) (*commands.ResponseMessage, error) {
	if c.security != SecurityLevelAuthenticated {
		return nil, fmt.Errorf("securechannel: channel is not authenticated")
	}
	if resp.Code != commands.CodeSessionMessage {
		return nil, fmt.Errorf("securechannel: unexpected response code %s to SessionMessage", resp.Code)
	}

	sessionID, ciphertext, mac, err := SplitSessionMessagePayload(resp.Data)
	if err != nil {
		return nil, err
	}
	if sessionID != c.id {
		return nil, fmt.Errorf("securechannel: response session id %d does not match channel id %d", sessionID, c.id)
	}

	expected, err := ChainMAC(c.keys.RMACKey, c.chainValue, resp.RawCode, resp.Length, sessionID, ciphertext)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(expected[:MACLength], mac) != 1 {
		return nil, fmt.Errorf("securechannel: response MAC mismatch")
	}
	c.chainValue = expected
	c.counter++

	if c.pendingIV == nil {
		return nil, fmt.Errorf("securechannel: no in-flight command to match this response against")
	}
	block, err := aes.NewCipher(c.keys.EncKey)
	if err != nil {
		return nil, err
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, c.pendingIV).CryptBlocks(plaintext, ciphertext)
	c.pendingIV = nil

	return commands.DecodeResponse(Unpad(plaintext))
}

// SplitSessionMessagePayload splits a SessionMessage response's Data
// field into its session id, ciphertext, and trailing MAC tag. Exported
// so mockhsm can parse the same frame shape it sends.
func SplitSessionMessagePayload(data []byte) (sessionID uint8, ciphertext, mac []byte, err error) {
	if len(data) < 1+MACLength {
		return 0, nil, nil, fmt.Errorf("securechannel: session message payload too short (%d bytes)", len(data))
	}
	sessionID = data[0]
	ciphertext = data[1 : len(data)-MACLength]
	mac = data[len(data)-MACLength:]
	return sessionID, ciphertext, mac, nil
}

// CounterIV derives the CBC IV from the 32-bit encryption counter:
// AES-ECB-encrypt(S-ENC, 12 zero bytes || counter), per SCP03. Exported
// so mockhsm can derive the identical IV on the device side.
func CounterIV(block cipher.Block, counter uint32) []byte {
	icv := make([]byte, 16)
	icv[12] = byte(counter >> 24)
	icv[13] = byte(counter >> 16)
	icv[14] = byte(counter >> 8)
	icv[15] = byte(counter)

	iv := make([]byte, 16)
	block.Encrypt(iv, icv)
	return iv
}
