package mockhsm

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"errors"

	"github.com/riftlabs/yubihsm-go/commands"
	"github.com/riftlabs/yubihsm-go/securechannel"
)

// HandleFrame is the simulator's single entry point: given a raw command
// frame exactly as a Connector would deliver it to a real device, it
// returns the raw response frame. Unlike original_source/src/mockhsm/
// command.rs, which panics on a malformed frame, this implementation
// never panics: any parse or crypto failure degrades to a device error
// response (spec.md §4.7).
func (s *State) HandleFrame(raw []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, body, err := commands.DecodeCommandHeader(raw)
	if err != nil {
		return commands.EncodeErrorResponse(commands.ErrInvalidData)
	}

	switch code {
	case commands.CodeCreateSession:
		req, err := commands.DecodeCreateSessionRequest(body)
		if err != nil {
			return commands.EncodeErrorResponse(commands.ErrInvalidData)
		}
		resp, err := s.createSession(req)
		if err != nil {
			return errorFrame(err)
		}
		frame, err := commands.EncodeRawResponse(commands.CodeCreateSession|commands.ResponseFlag, resp.Marshal())
		if err != nil {
			return commands.EncodeErrorResponse(commands.ErrInvalidData)
		}
		return frame

	case commands.CodeAuthenticateSession:
		frame, err := s.authenticateSession(body)
		if err != nil {
			return errorFrame(err)
		}
		return frame

	case commands.CodeSessionMessage:
		frame, err := s.sessionMessage(body)
		if err != nil {
			return errorFrame(err)
		}
		return frame

	default:
		// Every other opcode only exists inside an authenticated
		// SessionMessage; seeing one bare means there is no session.
		return commands.EncodeErrorResponse(commands.ErrInvalidSession)
	}
}

func errorFrame(err error) []byte {
	var derr *commands.DeviceError
	if errors.As(err, &derr) {
		return commands.EncodeErrorResponse(derr.Kind)
	}
	return commands.EncodeErrorResponse(commands.ErrInvalidData)
}

// sessionMessage decrypts one SessionMessage command frame, dispatches its
// inner command, and encrypts the reply under the same counter-derived IV
// (spec.md §4.3's "one IV shared by a command and its response" invariant,
// mirrored from securechannel.Channel.Encrypt/Decrypt's client-side use of
// pendingIV).
func (s *State) sessionMessage(body []byte) ([]byte, error) {
	sessionID, ciphertext, mac, err := securechannel.SplitSessionMessagePayload(body)
	if err != nil {
		return nil, err
	}
	sess, ok := s.sessions[sessionID]
	if !ok || sess.state != deviceSessionOpen {
		return commands.EncodeErrorResponse(commands.ErrInvalidSession), nil
	}

	bodyLen := uint16(1 + len(ciphertext) + len(mac))
	expected, err := securechannel.ChainMAC(sess.keys.MACKey, sess.chainValue, commands.CodeSessionMessage, bodyLen, sessionID, ciphertext)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(expected[:securechannel.MACLength], mac) != 1 {
		delete(s.sessions, sessionID)
		return commands.EncodeErrorResponse(commands.ErrInvalidSession), nil
	}
	sess.chainValue = expected

	block, err := aes.NewCipher(sess.keys.EncKey)
	if err != nil {
		return nil, err
	}
	iv := securechannel.CounterIV(block, sess.counter)

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	plaintext = securechannel.Unpad(plaintext)

	inner, err := commands.DecodeInnerCommand(plaintext)
	if err != nil {
		return nil, err
	}

	payload, closeAfter, resetAfter, herr := s.handleInner(inner.Code, inner.Data, sess)

	var rawResp []byte
	if herr != nil {
		var derr *commands.DeviceError
		kind := commands.ErrInvalidData
		if errors.As(herr, &derr) {
			kind = derr.Kind
		}
		rawResp = commands.EncodeErrorResponse(kind)
	} else {
		rawResp, err = commands.EncodeRawResponse(inner.Code|commands.ResponseFlag, payload)
		if err != nil {
			return nil, err
		}
	}

	padded := securechannel.Pad(rawResp)
	ciphertextOut := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertextOut, padded)

	outerRawCode := commands.CodeSessionMessage | commands.ResponseFlag
	outerBodyLen := uint16(1 + len(ciphertextOut) + securechannel.MACLength)
	outMac, err := securechannel.ChainMAC(sess.keys.RMACKey, sess.chainValue, outerRawCode, outerBodyLen, sessionID, ciphertextOut)
	if err != nil {
		return nil, err
	}
	sess.chainValue = outMac
	sess.counter++

	outPayload := make([]byte, 0, 1+len(ciphertextOut)+securechannel.MACLength)
	outPayload = append(outPayload, sessionID)
	outPayload = append(outPayload, ciphertextOut...)
	outPayload = append(outPayload, outMac[:securechannel.MACLength]...)

	frame, err := commands.EncodeRawResponse(outerRawCode, outPayload)
	if err != nil {
		return nil, err
	}

	if closeAfter {
		delete(s.sessions, sessionID)
	}
	if resetAfter {
		s.reset()
	}
	return frame, nil
}
