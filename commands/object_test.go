package commands

import "testing"

func TestObjectInfoRoundTrip(t *testing.T) {
	info := &ObjectInfo{
		Capabilities:          CapabilityAll,
		ObjectID:              0x1234,
		Length:                32,
		Domains:               DomainAll,
		Type:                  ObjectTypeAsymmetricKey,
		Algorithm:             AlgorithmEd25519,
		Sequence:              7,
		Origin:                OriginGenerated,
		DelegatedCapabilities: CapabilitySignEddsa,
	}
	copy(info.Label[:], "test key")

	raw, err := info.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	decoded := &ObjectInfo{}
	if err := decoded.UnmarshalBinary(raw); err != nil {
		t.Fatal(err)
	}

	if decoded.ObjectID != info.ObjectID || decoded.Type != info.Type ||
		decoded.Algorithm != info.Algorithm || decoded.Sequence != info.Sequence ||
		decoded.Capabilities != info.Capabilities || decoded.DelegatedCapabilities != info.DelegatedCapabilities ||
		decoded.Domains != info.Domains || decoded.Origin != info.Origin {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, info)
	}
}

func TestListFilterMatches(t *testing.T) {
	info := &ObjectInfo{
		ObjectID:  0x0064,
		Type:      ObjectTypeHmacKey,
		Algorithm: AlgorithmHmacSha256,
		Domains:   Domain(0x0001),
	}

	if !FilterByID(0x0064).Matches(info) {
		t.Fatal("FilterByID should match")
	}
	if FilterByID(0x0065).Matches(info) {
		t.Fatal("FilterByID should not match a different id")
	}
	if !FilterByType(ObjectTypeHmacKey).Matches(info) {
		t.Fatal("FilterByType should match")
	}
	if FilterByType(ObjectTypeOpaque).Matches(info) {
		t.Fatal("FilterByType should not match a different type")
	}
	if !FilterByAlgorithm(AlgorithmHmacSha256).Matches(info) {
		t.Fatal("FilterByAlgorithm should match")
	}
}

func TestAlgorithmKeyLen(t *testing.T) {
	cases := map[Algorithm]int{
		AlgorithmEd25519:       32,
		AlgorithmEcP256:        32,
		AlgorithmEcP384:        48,
		AlgorithmEcP521:        66,
		AlgorithmAES128CCMWrap: 16,
		AlgorithmAES256CCMWrap: 32,
	}
	for alg, want := range cases {
		if got := alg.KeyLen(); got != want {
			t.Errorf("%v.KeyLen() = %d, want %d", alg, got, want)
		}
	}
}
