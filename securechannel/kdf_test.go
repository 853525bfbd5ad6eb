package securechannel

import "testing"

func TestDeriveKeyChainDeterministic(t *testing.T) {
	encKey := make([]byte, KeyLength)
	macKey := make([]byte, KeyLength)
	for i := range encKey {
		encKey[i] = byte(i)
		macKey[i] = byte(i + 16)
	}
	hostChallenge := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	deviceChallenge := []byte{8, 7, 6, 5, 4, 3, 2, 1}

	a, err := DeriveKeyChain(encKey, macKey, hostChallenge, deviceChallenge)
	if err != nil {
		t.Fatal(err)
	}
	b, err := DeriveKeyChain(encKey, macKey, hostChallenge, deviceChallenge)
	if err != nil {
		t.Fatal(err)
	}

	if string(a.EncKey) != string(b.EncKey) || string(a.MACKey) != string(b.MACKey) || string(a.RMACKey) != string(b.RMACKey) {
		t.Fatal("DeriveKeyChain is not deterministic for identical inputs")
	}
	if string(a.EncKey) == string(a.MACKey) || string(a.MACKey) == string(a.RMACKey) {
		t.Fatal("S-ENC, S-MAC, S-RMAC must be distinct derivations")
	}
	if len(a.EncKey) != KeyLength || len(a.MACKey) != KeyLength || len(a.RMACKey) != KeyLength {
		t.Fatalf("derived keys must be %d bytes", KeyLength)
	}
}

func TestDeriveKeyChainVariesWithChallenge(t *testing.T) {
	encKey := make([]byte, KeyLength)
	macKey := make([]byte, KeyLength)
	hostChallenge := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	a, err := DeriveKeyChain(encKey, macKey, hostChallenge, []byte{0, 0, 0, 0, 0, 0, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	b, err := DeriveKeyChain(encKey, macKey, hostChallenge, []byte{1, 1, 1, 1, 1, 1, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	if string(a.EncKey) == string(b.EncKey) {
		t.Fatal("different device challenges must derive different session keys")
	}
}

func TestCardAndHostCryptogramsDiffer(t *testing.T) {
	macKey := make([]byte, KeyLength)
	hostChallenge := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	deviceChallenge := []byte{8, 7, 6, 5, 4, 3, 2, 1}

	card, err := CardCryptogram(macKey, hostChallenge, deviceChallenge)
	if err != nil {
		t.Fatal(err)
	}
	host, err := HostCryptogram(macKey, hostChallenge, deviceChallenge)
	if err != nil {
		t.Fatal(err)
	}
	if len(card) != CryptogramLength || len(host) != CryptogramLength {
		t.Fatalf("cryptograms must be %d bytes", CryptogramLength)
	}
	if string(card) == string(host) {
		t.Fatal("card and host cryptograms must use distinct KDF labels")
	}
}

func TestDeriveKeyChainRejectsWrongLengthInputs(t *testing.T) {
	shortKey := make([]byte, 8)
	validKey := make([]byte, KeyLength)
	challenge := make([]byte, ChallengeLength)

	if _, err := DeriveKeyChain(shortKey, validKey, challenge, challenge); err == nil {
		t.Fatal("expected error for short key")
	}
	if _, err := DeriveKeyChain(validKey, validKey, challenge[:4], challenge); err == nil {
		t.Fatal("expected error for short challenge")
	}
}
