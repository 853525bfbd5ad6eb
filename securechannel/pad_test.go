package securechannel

import (
	"bytes"
	"crypto/aes"
	"testing"
)

func TestPadUnpadRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 5, 15, 16, 17, 31, 32} {
		src := bytes.Repeat([]byte{0x42}, n)
		padded := Pad(src)
		if len(padded)%aes.BlockSize != 0 {
			t.Fatalf("Pad(%d bytes) length %d not block-aligned", n, len(padded))
		}
		got := Unpad(padded)
		if !bytes.Equal(got, src) {
			t.Fatalf("Unpad(Pad(%d bytes)) = %v, want %v", n, got, src)
		}
	}
}

func TestPadAlreadyAlignedUnchanged(t *testing.T) {
	src := bytes.Repeat([]byte{0x01}, 32)
	padded := Pad(src)
	if !bytes.Equal(padded, src) {
		t.Fatal("Pad should leave a block-aligned message untouched")
	}
}

func TestPadAppendsMarkerByte(t *testing.T) {
	src := []byte{0x01, 0x02, 0x03}
	padded := Pad(src)
	if len(padded) != aes.BlockSize {
		t.Fatalf("len = %d, want %d", len(padded), aes.BlockSize)
	}
	if padded[3] != 0x80 {
		t.Fatalf("padded[3] = 0x%02x, want 0x80", padded[3])
	}
	for _, b := range padded[4:] {
		if b != 0 {
			t.Fatalf("expected zero padding after marker, got %v", padded[4:])
		}
	}
}
