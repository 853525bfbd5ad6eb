package authkey

import "testing"

func TestNewFromPasswordDeterministicAndSplit(t *testing.T) {
	a := NewFromPassword("password")
	b := NewFromPassword("password")
	if string(a) != string(b) {
		t.Fatal("NewFromPassword must be deterministic for a given password")
	}
	if len(a) != authKeyLength {
		t.Fatalf("len = %d, want %d", len(a), authKeyLength)
	}
	if len(a.GetEncKey()) != authKeyLength/2 || len(a.GetMacKey()) != authKeyLength/2 {
		t.Fatal("GetEncKey/GetMacKey must each return half the key")
	}

	other := NewFromPassword("different password")
	if string(a) == string(other) {
		t.Fatal("different passwords must derive different keys")
	}
}

func TestNewFromRawValidatesLength(t *testing.T) {
	if _, err := NewFromRaw(make([]byte, 31)); err == nil {
		t.Fatal("expected error for short raw key")
	}
	k, err := NewFromRaw(make([]byte, 32))
	if err != nil {
		t.Fatal(err)
	}
	if len(k) != 32 {
		t.Fatalf("len = %d, want 32", len(k))
	}
}
