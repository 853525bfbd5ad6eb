// Package authkey derives and holds the static authentication key shared
// between a client and a device object of type authentication-key: the
// long-term secret the secure channel's KDF turns into per-session keys.
package authkey

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// AuthKey is a key to authenticate with the HSM: the first half is the
// static encryption key, the second half the static MAC key, matching the
// device's authentication-key object layout.
type AuthKey []byte

const (
	authKeyLength     = 32
	authKeyIterations = 10000
	yubicoSeed        = "Yubico"
)

// NewFromPassword derives an AuthKey using PBKDF2-HMAC-SHA256 against the
// fixed Yubico salt, as specified by the device's password-derived key
// ceremony.
func NewFromPassword(password string) AuthKey {
	return pbkdf2.Key([]byte(password), []byte(yubicoSeed), authKeyIterations, authKeyLength, sha256.New)
}

// NewFromRaw wraps 32 raw bytes (16 enc || 16 mac) as an AuthKey, for
// credentials provisioned out of band rather than derived from a
// password.
func NewFromRaw(raw []byte) (AuthKey, error) {
	if len(raw) != authKeyLength {
		return nil, fmt.Errorf("authkey: raw key must be %d bytes, got %d", authKeyLength, len(raw))
	}
	out := make(AuthKey, authKeyLength)
	copy(out, raw)
	return out, nil
}

// GetEncKey returns the encryption-key half of the AuthKey.
func (k AuthKey) GetEncKey() []byte {
	return k[:authKeyLength/2]
}

// GetMacKey returns the MAC-key half of the AuthKey.
func (k AuthKey) GetMacKey() []byte {
	return k[authKeyLength/2:]
}

// Credentials pairs an authentication key's object id with the derived
// key material needed to authenticate against it.
type Credentials struct {
	AuthKeyID uint16
	Key       AuthKey
}
