package wire

import (
	"bytes"
	"errors"
	"testing"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	w := NewWriter()
	w.Uint8(0x42)
	w.Uint16(0xBEEF)
	w.Uint32(0xDEADBEEF)
	w.Uint64(0x0123456789ABCDEF)
	w.Bytes([]byte{0x01, 0x02, 0x03})

	r := NewReader(w.Out())
	u8, err := r.Uint8()
	if err != nil || u8 != 0x42 {
		t.Fatalf("Uint8 = %v, %v", u8, err)
	}
	u16, err := r.Uint16()
	if err != nil || u16 != 0xBEEF {
		t.Fatalf("Uint16 = %v, %v", u16, err)
	}
	u32, err := r.Uint32()
	if err != nil || u32 != 0xDEADBEEF {
		t.Fatalf("Uint32 = %v, %v", u32, err)
	}
	u64, err := r.Uint64()
	if err != nil || u64 != 0x0123456789ABCDEF {
		t.Fatalf("Uint64 = %v, %v", u64, err)
	}
	rest, err := r.Fixed(3)
	if err != nil || !bytes.Equal(rest, []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("Fixed = %v, %v", rest, err)
	}
	if err := r.Done(); err != nil {
		t.Fatalf("Done: %v", err)
	}
}

func TestReaderUnexpectedEOF(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	if _, err := r.Uint32(); !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestReaderTrailingBytes(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03})
	if _, err := r.Uint8(); err != nil {
		t.Fatal(err)
	}
	if err := r.Done(); !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("expected ErrTrailingBytes, got %v", err)
	}
}

func TestReaderRest(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03, 0x04})
	if _, err := r.Uint8(); err != nil {
		t.Fatal(err)
	}
	rest := r.Rest()
	if !bytes.Equal(rest, []byte{0x02, 0x03, 0x04}) {
		t.Fatalf("Rest = %v", rest)
	}
	if r.Remaining() != 0 {
		t.Fatalf("Remaining = %d, want 0", r.Remaining())
	}
}

func TestFixedFieldPadsAndRejectsOverlong(t *testing.T) {
	w := NewWriter()
	if err := w.FixedField([]byte("hi"), 5); err != nil {
		t.Fatal(err)
	}
	out := w.Out()
	if len(out) != 5 {
		t.Fatalf("len = %d, want 5", len(out))
	}
	if !bytes.Equal(out, []byte{'h', 'i', 0, 0, 0}) {
		t.Fatalf("out = %v", out)
	}

	w2 := NewWriter()
	if err := w2.FixedField([]byte("too long"), 3); !errors.Is(err, ErrFieldTooLong) {
		t.Fatalf("expected ErrFieldTooLong, got %v", err)
	}
}
