package client_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha256"
	"testing"

	"github.com/riftlabs/yubihsm-go/authkey"
	"github.com/riftlabs/yubihsm-go/client"
	"github.com/riftlabs/yubihsm-go/commands"
	"github.com/riftlabs/yubihsm-go/mockhsm"
)

func defaultCredentials() authkey.Credentials {
	return authkey.Credentials{AuthKeyID: 1, Key: authkey.NewFromPassword("password")}
}

func openTestClient(t *testing.T, reconnect bool) (*client.Client, *mockhsm.State) {
	t.Helper()
	state := mockhsm.NewState(nil)
	conn := mockhsm.NewConnector(state)
	cl, err := client.Open(context.Background(), conn, defaultCredentials(), reconnect, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return cl, state
}

func TestAuthenticateDefaultSession(t *testing.T) {
	cl, _ := openTestClient(t, false)
	defer cl.Close(context.Background())

	if cl.SessionID() > 15 {
		t.Fatalf("session id %d out of range", cl.SessionID())
	}
}

func TestEchoRoundTrip(t *testing.T) {
	cl, _ := openTestClient(t, false)
	defer cl.Close(context.Background())

	out, err := cl.Echo(context.Background(), []byte("hello"))
	if err != nil {
		t.Fatalf("Echo: %v", err)
	}
	if !bytes.Equal(out, []byte("hello")) {
		t.Fatalf("Echo = %q, want %q", out, "hello")
	}
}

func TestEd25519GenerateSignVerify(t *testing.T) {
	cl, _ := openTestClient(t, false)
	defer cl.Close(context.Background())

	ctx := context.Background()
	id, err := cl.GenerateAsymmetricKey(ctx, 100, "eddsa key", commands.DomainAll, commands.CapabilitySignEddsa, commands.AlgorithmEd25519)
	if err != nil {
		t.Fatalf("GenerateAsymmetricKey: %v", err)
	}
	if id != 100 {
		t.Fatalf("id = %d, want 100", id)
	}

	pub, err := cl.GetPublicKey(ctx, id)
	if err != nil {
		t.Fatalf("GetPublicKey: %v", err)
	}
	if len(pub.KeyData) != ed25519.PublicKeySize {
		t.Fatalf("public key len = %d, want %d", len(pub.KeyData), ed25519.PublicKeySize)
	}

	msg := []byte("sign me")
	sig, err := cl.SignEddsa(ctx, id, msg)
	if err != nil {
		t.Fatalf("SignEddsa: %v", err)
	}
	if len(sig) != ed25519.SignatureSize {
		t.Fatalf("signature len = %d, want %d", len(sig), ed25519.SignatureSize)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub.KeyData), msg, sig) {
		t.Fatal("signature does not verify against the returned public key")
	}
}

// TestHmacVerifyRFC4231Case1 checks SignHmac/VerifyHmac against RFC 4231's
// first HMAC-SHA256 test vector.
func TestHmacVerifyRFC4231Case1(t *testing.T) {
	cl, _ := openTestClient(t, false)
	defer cl.Close(context.Background())

	ctx := context.Background()
	key := bytes.Repeat([]byte{0x0b}, 20)
	id, err := cl.PutHmacKey(ctx, 200, "hmac key", commands.DomainAll,
		commands.CapabilitySignHmac|commands.CapabilityVerifyHmac, commands.AlgorithmHmacSha256, key)
	if err != nil {
		t.Fatalf("PutHmacKey: %v", err)
	}

	data := []byte("Hi There")
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	want := mac.Sum(nil)

	tag, err := cl.SignHmac(ctx, id, data)
	if err != nil {
		t.Fatalf("SignHmac: %v", err)
	}
	if !bytes.Equal(tag, want) {
		t.Fatalf("tag = %x, want %x", tag, want)
	}

	ok, err := cl.VerifyHmac(ctx, id, tag, data)
	if err != nil {
		t.Fatalf("VerifyHmac: %v", err)
	}
	if !ok {
		t.Fatal("VerifyHmac should accept the correct tag")
	}

	bad := append([]byte(nil), tag...)
	bad[0] ^= 0xff
	ok, err = cl.VerifyHmac(ctx, id, bad, data)
	if err != nil {
		t.Fatalf("VerifyHmac with corrupted tag returned an error instead of a false verdict: %v", err)
	}
	if ok {
		t.Fatal("VerifyHmac should reject a corrupted tag")
	}
}

func TestResetInvalidatesSession(t *testing.T) {
	cl, _ := openTestClient(t, false)

	if err := cl.ResetDevice(context.Background()); err != nil {
		t.Fatalf("ResetDevice: %v", err)
	}
	if _, err := cl.Echo(context.Background(), []byte("x")); err == nil {
		t.Fatal("Echo after ResetDevice succeeded; the session should be unusable")
	}
}

func TestWrapDataRoundTrip(t *testing.T) {
	cl, _ := openTestClient(t, false)
	defer cl.Close(context.Background())

	ctx := context.Background()
	key := bytes.Repeat([]byte{0x11}, 16)
	wrapID, err := cl.PutWrapKey(ctx, 300, "wrap key", commands.DomainAll,
		commands.CapabilityWrapData|commands.CapabilityUnwrapData, commands.AlgorithmAES128CCMWrap, commands.CapabilityAll, key)
	if err != nil {
		t.Fatalf("PutWrapKey: %v", err)
	}

	plaintext := []byte("top secret payload")
	msg, err := cl.WrapData(ctx, wrapID, plaintext)
	if err != nil {
		t.Fatalf("WrapData: %v", err)
	}

	got, err := cl.UnwrapData(ctx, wrapID, *msg)
	if err != nil {
		t.Fatalf("UnwrapData: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("UnwrapData = %q, want %q", got, plaintext)
	}
}

func TestListObjectsFiltersByType(t *testing.T) {
	cl, _ := openTestClient(t, false)
	defer cl.Close(context.Background())

	ctx := context.Background()
	if _, err := cl.GenerateAsymmetricKey(ctx, 0, "k1", commands.DomainAll, commands.CapabilitySignEddsa, commands.AlgorithmEd25519); err != nil {
		t.Fatalf("GenerateAsymmetricKey: %v", err)
	}
	if _, err := cl.PutHmacKey(ctx, 0, "k2", commands.DomainAll, commands.CapabilitySignHmac, commands.AlgorithmHmacSha256, bytes.Repeat([]byte{1}, 32)); err != nil {
		t.Fatalf("PutHmacKey: %v", err)
	}

	entries, err := cl.ListObjects(ctx, commands.FilterByType(commands.ObjectTypeHmacKey))
	if err != nil {
		t.Fatalf("ListObjects: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].ObjectType != commands.ObjectTypeHmacKey {
		t.Fatalf("entry type = %v, want ObjectTypeHmacKey", entries[0].ObjectType)
	}
}

func TestGetPseudoRandomRejectsOversizeRequest(t *testing.T) {
	cl, _ := openTestClient(t, false)
	defer cl.Close(context.Background())

	if _, err := cl.GetPseudoRandom(context.Background(), client.MaxRandBytes+1); err == nil {
		t.Fatal("expected an error for a request above MaxRandBytes")
	}

	out, err := cl.GetPseudoRandom(context.Background(), 32)
	if err != nil {
		t.Fatalf("GetPseudoRandom: %v", err)
	}
	if len(out) != 32 {
		t.Fatalf("len = %d, want 32", len(out))
	}
}
