package commands

import "github.com/riftlabs/yubihsm-go/wire"

// ChallengeLength and CryptogramLength match the secure channel's 8-byte
// SCP03 primitives; duplicated here (rather than importing securechannel)
// to keep the wire catalog free of a dependency on the crypto layer.
const (
	ChallengeLength  = 8
	CryptogramLength = 8
)

// CreateSessionRequest is the CreateSession command payload: the
// authentication key slot and the host's challenge.
type CreateSessionRequest struct {
	AuthKeyID     uint16
	HostChallenge [ChallengeLength]byte
}

func (c *CreateSessionRequest) Code() Code { return CodeCreateSession }

func (c *CreateSessionRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint16(c.AuthKeyID)
	w.Bytes(c.HostChallenge[:])
	return w.Out(), nil
}

// DecodeCreateSessionRequest decodes a CreateSession command body, the
// simulator's side of CreateSessionRequest.Marshal.
func DecodeCreateSessionRequest(body []byte) (*CreateSessionRequest, error) {
	r := wire.NewReader(body)
	authKeyID, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	challenge, err := r.Fixed(ChallengeLength)
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	req := &CreateSessionRequest{AuthKeyID: authKeyID}
	copy(req.HostChallenge[:], challenge)
	return req, nil
}

// CreateSessionResponse carries the card's challenge and cryptogram.
type CreateSessionResponse struct {
	SessionID      uint8
	CardChallenge  [ChallengeLength]byte
	CardCryptogram [CryptogramLength]byte
}

func DecodeCreateSessionResponse(payload []byte) (*CreateSessionResponse, error) {
	r := wire.NewReader(payload)
	id, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	challenge, err := r.Fixed(ChallengeLength)
	if err != nil {
		return nil, err
	}
	cryptogram, err := r.Fixed(CryptogramLength)
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}

	resp := &CreateSessionResponse{SessionID: id}
	copy(resp.CardChallenge[:], challenge)
	copy(resp.CardCryptogram[:], cryptogram)
	return resp, nil
}

func (r *CreateSessionResponse) Marshal() []byte {
	w := wire.NewWriter()
	w.Uint8(r.SessionID)
	w.Bytes(r.CardChallenge[:])
	w.Bytes(r.CardCryptogram[:])
	return w.Out()
}

// AuthenticateSessionRequest carries the host cryptogram, MACed (not
// encrypted) over a zero chaining value as the first authenticated
// command of the session.
type AuthenticateSessionRequest struct {
	HostCryptogram [CryptogramLength]byte
}

func (a *AuthenticateSessionRequest) Code() Code { return CodeAuthenticateSession }

func (a *AuthenticateSessionRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Bytes(a.HostCryptogram[:])
	return w.Out(), nil
}

// CloseSessionRequest has no payload.
type CloseSessionRequest struct{}

func (CloseSessionRequest) Code() Code                  { return CodeCloseSession }
func (CloseSessionRequest) Marshal() ([]byte, error)    { return nil, nil }
