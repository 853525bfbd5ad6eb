package securechannel

import (
	"bytes"
	"crypto/aes"
	"encoding/binary"
	"fmt"

	"github.com/enceve/crypto/cmac"
)

// SCP03 fixed sizes (spec.md §4.3).
const (
	KeyLength        = 16
	ChallengeLength  = 8
	CryptogramLength = 8
	MACLength        = 8
)

// derivationConstant selects which of the five SCP03-derived values a KDF
// invocation produces.
type derivationConstant byte

const (
	derivationEncKey         derivationConstant = 0x04
	derivationMACKey         derivationConstant = 0x06
	derivationRMACKey        derivationConstant = 0x07
	derivationCardCryptogram derivationConstant = 0x00
	derivationHostCryptogram derivationConstant = 0x01
)

// KeyChain holds the three session keys derived from the static
// authentication key and the host/device challenge pair.
type KeyChain struct {
	EncKey  []byte
	MACKey  []byte
	RMACKey []byte
}

// deriveKDF implements SCP03's KDF, with the output length written before
// the counter (NIST SP 800-108 counter mode with a single 1-byte counter, fixed at
// 0x01 since every SCP03 derivation needs only one pseudorandom block's
// worth of output).
func deriveKDF(key []byte, dc derivationConstant, outLen int, hostChallenge, deviceChallenge []byte) ([]byte, error) {
	if len(key) != KeyLength {
		return nil, fmt.Errorf("securechannel: derivation key must be %d bytes, got %d", KeyLength, len(key))
	}
	if len(hostChallenge) != ChallengeLength {
		return nil, fmt.Errorf("securechannel: host challenge must be %d bytes, got %d", ChallengeLength, len(hostChallenge))
	}
	if len(deviceChallenge) != ChallengeLength {
		return nil, fmt.Errorf("securechannel: device challenge must be %d bytes, got %d", ChallengeLength, len(deviceChallenge))
	}

	data := new(bytes.Buffer)
	data.Write([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, byte(dc)}) // label (11 zero bytes reserved) + derivation constant
	data.WriteByte(0x00)                                         // separator
	binary.Write(data, binary.BigEndian, uint16(outLen*8))       // requested output length, in bits
	data.WriteByte(0x01)                                         // counter
	data.Write(hostChallenge)
	data.Write(deviceChallenge)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	mac, err := cmac.New(block)
	if err != nil {
		return nil, err
	}
	mac.Write(data.Bytes())
	full := mac.Sum(nil)
	return full[:outLen], nil
}

// DeriveKeyChain derives S-ENC, S-MAC and S-RMAC from the static
// authentication key's two 16-byte halves.
func DeriveKeyChain(encKey, macKey, hostChallenge, deviceChallenge []byte) (*KeyChain, error) {
	enc, err := deriveKDF(encKey, derivationEncKey, KeyLength, hostChallenge, deviceChallenge)
	if err != nil {
		return nil, err
	}
	smac, err := deriveKDF(macKey, derivationMACKey, KeyLength, hostChallenge, deviceChallenge)
	if err != nil {
		return nil, err
	}
	rmac, err := deriveKDF(macKey, derivationRMACKey, KeyLength, hostChallenge, deviceChallenge)
	if err != nil {
		return nil, err
	}
	return &KeyChain{EncKey: enc, MACKey: smac, RMACKey: rmac}, nil
}

// CardCryptogram computes the device's expected authentication cryptogram.
func CardCryptogram(macKey, hostChallenge, deviceChallenge []byte) ([]byte, error) {
	return deriveKDF(macKey, derivationCardCryptogram, CryptogramLength, hostChallenge, deviceChallenge)
}

// HostCryptogram computes the host's authentication cryptogram.
func HostCryptogram(macKey, hostChallenge, deviceChallenge []byte) ([]byte, error) {
	return deriveKDF(macKey, derivationHostCryptogram, CryptogramLength, hostChallenge, deviceChallenge)
}
