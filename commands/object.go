package commands

import "github.com/riftlabs/yubihsm-go/wire"

// LabelLength is the fixed width, in bytes, of an object's label field.
const LabelLength = 40

// ObjectType enumerates the kinds of object the HSM's store can hold.
type ObjectType uint8

const (
	ObjectTypeOpaque            ObjectType = 0x01
	ObjectTypeAuthenticationKey ObjectType = 0x02
	ObjectTypeAsymmetricKey     ObjectType = 0x03
	ObjectTypeWrapKey           ObjectType = 0x04
	ObjectTypeHmacKey           ObjectType = 0x05
	ObjectTypeTemplate          ObjectType = 0x06
	ObjectTypeOtpAeadKey        ObjectType = 0x07
)

// Algorithm enumerates the fixed algorithm space bound to key and wrap
// objects. Values follow the real device's numbering as recorded by the
// teacher and extended per the catalog the simulator's device_info
// response advertises (original_source/src/mockhsm/command.rs).
type Algorithm uint8

const (
	AlgorithmRsaPkcs1Sha1    Algorithm = 1
	AlgorithmRsaPkcs1Sha256  Algorithm = 2
	AlgorithmRsaPkcs1Sha384  Algorithm = 3
	AlgorithmRsaPkcs1Sha512  Algorithm = 4
	AlgorithmRsaPssSha1      Algorithm = 5
	AlgorithmRsaPssSha256    Algorithm = 6
	AlgorithmRsaPssSha384    Algorithm = 7
	AlgorithmRsaPssSha512    Algorithm = 8
	AlgorithmRsa2048         Algorithm = 9
	AlgorithmRsa3072         Algorithm = 10
	AlgorithmRsa4096         Algorithm = 11
	AlgorithmEcP256          Algorithm = 12
	AlgorithmEcP384          Algorithm = 13
	AlgorithmEcP521          Algorithm = 14
	AlgorithmEcK256          Algorithm = 15
	AlgorithmHmacSha1        Algorithm = 16
	AlgorithmHmacSha256      Algorithm = 17
	AlgorithmHmacSha384      Algorithm = 18
	AlgorithmHmacSha512      Algorithm = 19
	AlgorithmEcdsaSha1       Algorithm = 20
	AlgorithmEcEcdh          Algorithm = 21
	AlgorithmRsaOaepSha1     Algorithm = 25
	AlgorithmRsaOaepSha256   Algorithm = 26
	AlgorithmRsaOaepSha384   Algorithm = 27
	AlgorithmRsaOaepSha512   Algorithm = 28
	AlgorithmAES128CCMWrap   Algorithm = 29
	AlgorithmOpaqueData      Algorithm = 30
	AlgorithmOpaqueX509Cert  Algorithm = 31
	AlgorithmYubicoAESAuthentication Algorithm = 38
	AlgorithmAES192CCMWrap   Algorithm = 39
	AlgorithmAES256CCMWrap   Algorithm = 40
	AlgorithmEcdsaSha256     Algorithm = 41
	AlgorithmEcdsaSha384     Algorithm = 42
	AlgorithmEcdsaSha512     Algorithm = 43
	AlgorithmEd25519         Algorithm = 46
	AlgorithmEcP224          Algorithm = 47
)

// KeyLen returns the payload length for fixed-size-key algorithms, or 0 if
// the algorithm has no single fixed length (e.g. RSA, whose length is a
// function of modulus size and handled separately by the caller).
func (a Algorithm) KeyLen() int {
	switch a {
	case AlgorithmEd25519:
		return 32
	case AlgorithmEcK256, AlgorithmEcP256:
		return 32
	case AlgorithmEcP384:
		return 48
	case AlgorithmEcP521:
		return 66
	case AlgorithmAES128CCMWrap:
		return 16
	case AlgorithmAES192CCMWrap:
		return 24
	case AlgorithmAES256CCMWrap:
		return 32
	case AlgorithmYubicoAESAuthentication:
		return 32
	default:
		return 0
	}
}

// MaxHmacKeyLen returns the maximum HMAC key length the device accepts for
// the given HMAC algorithm (the block size of the underlying hash).
func (a Algorithm) MaxHmacKeyLen() int {
	switch a {
	case AlgorithmHmacSha1:
		return 64
	case AlgorithmHmacSha256:
		return 64
	case AlgorithmHmacSha384, AlgorithmHmacSha512:
		return 128
	default:
		return 0
	}
}

// Capability is a bitmask of permitted operations, 64 bits wide.
type Capability uint64

const (
	CapabilityGetOpaque             Capability = 1 << 0
	CapabilityPutOpaque             Capability = 1 << 1
	CapabilityPutAuthenticationKey  Capability = 1 << 2
	CapabilityPutAsymmetric         Capability = 1 << 3
	CapabilityAsymmetricGen         Capability = 1 << 4
	CapabilitySignPkcs1             Capability = 1 << 5
	CapabilitySignPss               Capability = 1 << 6
	CapabilitySignEcdsa             Capability = 1 << 7
	CapabilitySignEddsa             Capability = 1 << 8
	CapabilityDecryptPkcs1          Capability = 1 << 9
	CapabilityDecryptOaep           Capability = 1 << 10
	CapabilityDecryptEcdh           Capability = 1 << 11
	CapabilityExportWrapped         Capability = 1 << 12
	CapabilityImportWrapped         Capability = 1 << 13
	CapabilityPutWrapKey            Capability = 1 << 14
	CapabilityGenerateWrapKey       Capability = 1 << 15
	CapabilityExportUnderWrap       Capability = 1 << 16
	CapabilityPutOption             Capability = 1 << 17
	CapabilityGetOption             Capability = 1 << 18
	CapabilityGetRandomness         Capability = 1 << 19
	CapabilityPutHmacKey            Capability = 1 << 20
	CapabilityGenerateHmacKey       Capability = 1 << 21
	CapabilitySignHmac              Capability = 1 << 22
	CapabilityVerifyHmac            Capability = 1 << 23
	CapabilityAudit                 Capability = 1 << 24
	CapabilitySshCertify            Capability = 1 << 25
	CapabilityAttest                Capability = 1 << 30
	CapabilityWrapData              Capability = 1 << 37
	CapabilityUnwrapData            Capability = 1 << 38
	CapabilityDeleteOpaque          Capability = 1 << 39
	CapabilityDeleteAuthenticationKey Capability = 1 << 40
	CapabilityDeleteAsymmetric      Capability = 1 << 41
	CapabilityDeleteWrapKey         Capability = 1 << 42
	CapabilityDeleteHmacKey         Capability = 1 << 43

	CapabilityNone Capability = 0
	CapabilityAll  Capability = 0xffffffffffffffff
)

// Contains reports whether every bit set in other is also set in c — the
// subset test used for the delegated-capabilities invariant.
func (c Capability) Contains(other Capability) bool {
	return other&^c == 0
}

// Domain is a 16-bit bitmask of the 16 logical visibility domains.
type Domain uint16

const (
	Domain1  Domain = 1 << 0
	Domain2  Domain = 1 << 1
	Domain3  Domain = 1 << 2
	Domain4  Domain = 1 << 3
	Domain5  Domain = 1 << 4
	Domain6  Domain = 1 << 5
	Domain7  Domain = 1 << 6
	Domain8  Domain = 1 << 7
	Domain9  Domain = 1 << 8
	Domain10 Domain = 1 << 9
	Domain11 Domain = 1 << 10
	Domain12 Domain = 1 << 11
	Domain13 Domain = 1 << 12
	Domain14 Domain = 1 << 13
	Domain15 Domain = 1 << 14
	Domain16 Domain = 1 << 15

	DomainAll Domain = 0xffff
)

// Intersects reports whether the two domain bitmasks share any bit —
// the visibility test the glossary describes.
func (d Domain) Intersects(other Domain) bool {
	return d&other != 0
}

// Origin records whether an object was generated on-device or imported.
type Origin uint8

const (
	OriginGenerated Origin = 0x01
	OriginImported  Origin = 0x02
)

// ObjectInfo is the GetObjectInfo response payload and the simulator's
// persisted per-object metadata record (spec.md §3's Object type).
type ObjectInfo struct {
	Capabilities           Capability
	ObjectID               uint16
	Length                 uint16
	Domains                Domain
	Type                   ObjectType
	Algorithm              Algorithm
	Sequence                uint8
	Origin                 Origin
	Label                  [LabelLength]byte
	DelegatedCapabilities  Capability
}

// MarshalBinary encodes the struct in declaration order, matching the
// device's GetObjectInfo response layout exactly.
func (o *ObjectInfo) MarshalBinary() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint64(uint64(o.Capabilities))
	w.Uint16(o.ObjectID)
	w.Uint16(o.Length)
	w.Uint16(uint16(o.Domains))
	w.Uint8(uint8(o.Type))
	w.Uint8(uint8(o.Algorithm))
	w.Uint8(o.Sequence)
	w.Uint8(uint8(o.Origin))
	w.Bytes(o.Label[:])
	w.Uint64(uint64(o.DelegatedCapabilities))
	return w.Out(), nil
}

// UnmarshalBinary decodes a GetObjectInfo response payload.
func (o *ObjectInfo) UnmarshalBinary(data []byte) error {
	r := wire.NewReader(data)
	caps, err := r.Uint64()
	if err != nil {
		return err
	}
	id, err := r.Uint16()
	if err != nil {
		return err
	}
	length, err := r.Uint16()
	if err != nil {
		return err
	}
	domains, err := r.Uint16()
	if err != nil {
		return err
	}
	typ, err := r.Uint8()
	if err != nil {
		return err
	}
	alg, err := r.Uint8()
	if err != nil {
		return err
	}
	seq, err := r.Uint8()
	if err != nil {
		return err
	}
	origin, err := r.Uint8()
	if err != nil {
		return err
	}
	label, err := r.Fixed(LabelLength)
	if err != nil {
		return err
	}
	delegated, err := r.Uint64()
	if err != nil {
		return err
	}

	o.Capabilities = Capability(caps)
	o.ObjectID = id
	o.Length = length
	o.Domains = Domain(domains)
	o.Type = ObjectType(typ)
	o.Algorithm = Algorithm(alg)
	o.Sequence = seq
	o.Origin = Origin(origin)
	copy(o.Label[:], label)
	o.DelegatedCapabilities = Capability(delegated)
	return r.Done()
}

// ListEntry is one entry of a ListObjects response.
type ListEntry struct {
	ObjectID   uint16
	ObjectType ObjectType
	Sequence   uint8
}
