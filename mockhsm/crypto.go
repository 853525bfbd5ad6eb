package mockhsm

import (
	"crypto/aes"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"time"

	"github.com/pschlump/AesCCM"

	"github.com/riftlabs/yubihsm-go/commands"
)

// ccmWrap encrypts plaintext under key using AES-CCM with a fresh random
// nonce, returning the wire WrapMessage shape (spec.md §9's wrap module).
func ccmWrap(key, plaintext []byte) (*commands.WrapMessage, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := aesccm.NewCCM(block, 16, commands.WrapNonceLength)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, commands.WrapNonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	ciphertext := aead.Seal(nil, nonce, plaintext, nil)
	msg := &commands.WrapMessage{Ciphertext: ciphertext}
	copy(msg.Nonce[:], nonce)
	return msg, nil
}

// ccmUnwrap reverses ccmWrap, returning a device InvalidData error (rather
// than the raw AEAD failure) on authentication failure, since that is the
// only information a real device would ever disclose to the caller.
func ccmUnwrap(key []byte, msg commands.WrapMessage) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := aesccm.NewCCM(block, 16, commands.WrapNonceLength)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, msg.Nonce[:], msg.Ciphertext, nil)
	if err != nil {
		return nil, &commands.DeviceError{Kind: commands.ErrInvalidData}
	}
	return plaintext, nil
}

// generateEd25519 returns a fresh keypair; the stored private payload is
// the 32-byte seed (ed25519.PrivateKey.Seed()), the same single-scalar
// shape PutAsymmetricKey's KeyPart1 uses for this algorithm.
func generateEd25519() (pub, seed []byte, err error) {
	p, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	return p, priv.Seed(), nil
}

func ed25519PublicFromSeed(seed []byte) []byte {
	return ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)
}

func ed25519Sign(seed, data []byte) []byte {
	return ed25519.Sign(ed25519.NewKeyFromSeed(seed), data)
}

// ecCurve maps an EC algorithm to its stdlib curve.
func ecCurve(a commands.Algorithm) elliptic.Curve {
	switch a {
	case commands.AlgorithmEcP256:
		return elliptic.P256()
	case commands.AlgorithmEcP384:
		return elliptic.P384()
	case commands.AlgorithmEcP521:
		return elliptic.P521()
	default:
		return nil
	}
}

func generateECKey(curve elliptic.Curve) (priv *ecdsa.PrivateKey, err error) {
	return ecdsa.GenerateKey(curve, rand.Reader)
}

// ecPrivateFromScalar reconstructs a private key from a raw scalar D, the
// shape PutAsymmetricKey's KeyPart1 carries for EC algorithms.
func ecPrivateFromScalar(curve elliptic.Curve, d []byte) *ecdsa.PrivateKey {
	priv := new(ecdsa.PrivateKey)
	priv.PublicKey.Curve = curve
	priv.D = new(big.Int).SetBytes(d)
	priv.PublicKey.X, priv.PublicKey.Y = curve.ScalarBaseMult(d)
	return priv
}

func ecPublicPoint(curve elliptic.Curve, x, y *big.Int) []byte {
	return elliptic.Marshal(curve, x, y)
}

type ecdsaSignature struct{ R, S *big.Int }

func ecdsaSignDER(priv *ecdsa.PrivateKey, digest []byte) ([]byte, error) {
	r, s, err := ecdsa.Sign(rand.Reader, priv, digest)
	if err != nil {
		return nil, err
	}
	return asn1.Marshal(ecdsaSignature{r, s})
}

// selfSignedAttestation builds a minimal self-signed certificate attesting
// that subjectPub was generated on this device, signed by the attestation
// key's Ed25519 private key. This is a stub, not a conformant device
// attestation chain (spec.md §9): just enough to exercise crypto/x509's
// encoder against a real certificate shape.
func selfSignedAttestation(attestSeed, subjectPub []byte, serial uint16) ([]byte, error) {
	attestPriv := ed25519.NewKeyFromSeed(attestSeed)
	template := &x509.Certificate{
		SerialNumber: big.NewInt(int64(serial)),
		Subject:      pkix.Name{CommonName: "mockhsm attested key"},
		NotBefore:    time.Unix(0, 0),
		NotAfter:     time.Unix(0, 0).AddDate(30, 0, 0),
	}
	pub := ed25519.PublicKey(subjectPub)
	return x509.CreateCertificate(rand.Reader, template, template, pub, attestPriv)
}
