package mockhsm

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"hash"

	"github.com/riftlabs/yubihsm-go/commands"
	"github.com/riftlabs/yubihsm-go/wire"
)

// newHash returns the HMAC constructor bound to a, or nil if a is not an
// HMAC algorithm. Resolving the hash from the key's own algorithm (rather
// than assuming SHA-256) is what lets SignHmac/VerifyHmac handle the full
// SHA-1/256/384/512 family with the correct tag length.
func newHash(a commands.Algorithm) func(key []byte) hash.Hash {
	switch a {
	case commands.AlgorithmHmacSha1:
		return func(key []byte) hash.Hash { return hmac.New(sha1.New, key) }
	case commands.AlgorithmHmacSha256:
		return func(key []byte) hash.Hash { return hmac.New(sha256.New, key) }
	case commands.AlgorithmHmacSha384:
		return func(key []byte) hash.Hash { return hmac.New(sha512.New384, key) }
	case commands.AlgorithmHmacSha512:
		return func(key []byte) hash.Hash { return hmac.New(sha512.New, key) }
	default:
		return nil
	}
}

// labelString trims a fixed-width, zero-padded label field down to its
// content, mirroring commands.decodeLabel for the wrapped-object blob
// this package encodes itself (that helper is unexported to commands).
func labelString(raw []byte) string {
	end := len(raw)
	for end > 0 && raw[end-1] == 0 {
		end--
	}
	return string(raw[:end])
}

// deviceAlgorithms is the catalog DeviceInfo advertises, grounded on
// original_source/src/mockhsm/command.rs's hardcoded device_info() list.
var deviceAlgorithms = []commands.Algorithm{
	commands.AlgorithmRsaPkcs1Sha1, commands.AlgorithmRsaPkcs1Sha256, commands.AlgorithmRsaPkcs1Sha384, commands.AlgorithmRsaPkcs1Sha512,
	commands.AlgorithmRsaPssSha1, commands.AlgorithmRsaPssSha256, commands.AlgorithmRsaPssSha384, commands.AlgorithmRsaPssSha512,
	commands.AlgorithmRsa2048, commands.AlgorithmRsa3072, commands.AlgorithmRsa4096,
	commands.AlgorithmEcP256, commands.AlgorithmEcP384, commands.AlgorithmEcP521, commands.AlgorithmEcK256,
	commands.AlgorithmHmacSha1, commands.AlgorithmHmacSha256, commands.AlgorithmHmacSha384, commands.AlgorithmHmacSha512,
	commands.AlgorithmEcdsaSha1, commands.AlgorithmEcEcdh,
	commands.AlgorithmRsaOaepSha1, commands.AlgorithmRsaOaepSha256, commands.AlgorithmRsaOaepSha384, commands.AlgorithmRsaOaepSha512,
	commands.AlgorithmAES128CCMWrap, commands.AlgorithmOpaqueData, commands.AlgorithmOpaqueX509Cert,
	commands.AlgorithmYubicoAESAuthentication, commands.AlgorithmAES192CCMWrap, commands.AlgorithmAES256CCMWrap,
	commands.AlgorithmEcdsaSha256, commands.AlgorithmEcdsaSha384, commands.AlgorithmEcdsaSha512,
	commands.AlgorithmEd25519, commands.AlgorithmEcP224,
}

// requireCapability reports an InsufficientPermissions device error unless
// the session's authenticating key carries cap (spec.md §3's Capability
// model).
func (s *State) requireCapability(sess *deviceSession, cap commands.Capability) error {
	_, keyObj, ok := s.authKey(sess.authKeyID)
	if !ok {
		return &commands.DeviceError{Kind: commands.ErrInvalidSession}
	}
	if !keyObj.info.Capabilities.Contains(cap) {
		return &commands.DeviceError{Kind: commands.ErrInsufficientPermissions}
	}
	return nil
}

// handleInner dispatches one decrypted SessionMessage payload to its
// handler, returning the response payload and whether the session should
// close or the device should reset once the reply has been assembled.
// Grounded on original_source/src/mockhsm/command.rs's per-command match
// arms, rendered as handler functions instead of one large match.
func (s *State) handleInner(code commands.Code, data []byte, sess *deviceSession) (payload []byte, closeAfter, resetAfter bool, err error) {
	switch code {
	case commands.CodeEcho:
		return data, false, false, nil

	case commands.CodeCloseSession:
		return nil, true, false, nil

	case commands.CodeResetDevice:
		// The device replies under the still-live session keys before
		// actually resetting (spec.md §4.7); resetAfter defers s.reset()
		// until after sessionMessage has encrypted this response.
		return []byte{0x01}, false, true, nil

	case commands.CodeDeviceInfo:
		resp := &commands.DeviceInfoResponse{
			MajorVersion: 2, MinorVersion: 0, BuildVersion: 0,
			SerialNumber: 0x01020304, LogStoreCapacity: 62, LogStoreUsed: 0,
			Algorithms: deviceAlgorithms,
		}
		return resp.Marshal(), false, false, nil

	case commands.CodeGetStorageInfo:
		resp := &commands.GetStorageInfoResponse{TotalRecords: 256, FreeRecords: 256, TotalPages: 1024, FreePages: 1024, PageSize: 126}
		return resp.Marshal(), false, false, nil

	case commands.CodeGetLogEntries:
		resp := &commands.GetLogEntriesResponse{}
		return resp.Marshal(), false, false, nil

	case commands.CodeSetLogIndex:
		if _, err := commands.DecodeSetLogIndexRequest(data); err != nil {
			return nil, false, false, err
		}
		return nil, false, false, nil

	case commands.CodeBlinkDevice:
		if _, err := commands.DecodeBlinkDeviceRequest(data); err != nil {
			return nil, false, false, err
		}
		return nil, false, false, nil

	case commands.CodeGetPseudoRandom:
		if err := s.requireCapability(sess, commands.CapabilityGetRandomness); err != nil {
			return nil, false, false, err
		}
		req, err := commands.DecodeGetPseudoRandomRequest(data)
		if err != nil {
			return nil, false, false, err
		}
		buf := make([]byte, req.Bytes)
		if _, err := rand.Read(buf); err != nil {
			return nil, false, false, err
		}
		return buf, false, false, nil

	case commands.CodeGetOption:
		return s.handleGetOption(sess, data)
	case commands.CodeSetOption:
		return s.handleSetOption(sess, data)

	case commands.CodeGetObjectInfo:
		return s.handleGetObjectInfo(data)
	case commands.CodeDeleteObject:
		return s.handleDeleteObject(sess, data)
	case commands.CodeListObjects:
		return s.handleListObjects(data)

	case commands.CodePutOpaqueObject:
		return s.handlePutOpaque(sess, data)
	case commands.CodeGetOpaqueObject:
		return s.handleGetOpaque(sess, data)

	case commands.CodePutAuthenticationKey:
		return s.handlePutAuthenticationKey(sess, data)

	case commands.CodeGenerateAsymmetricKey:
		return s.handleGenerateAsymmetricKey(sess, data)
	case commands.CodePutAsymmetricKey:
		return s.handlePutAsymmetricKey(sess, data)
	case commands.CodeGetPublicKey:
		return s.handleGetPublicKey(data)
	case commands.CodeSignEddsa:
		return s.handleSignEddsa(sess, data)
	case commands.CodeSignEcdsa:
		return s.handleSignEcdsa(sess, data)
	case commands.CodeAttestAsymmetric:
		return s.handleSignAttestationCertificate(sess, data)

	case commands.CodePutHmacKey:
		return s.handlePutHmacKey(sess, data)
	case commands.CodeGenerateHmacKey:
		return s.handleGenerateHmacKey(sess, data)
	case commands.CodeSignHmac:
		return s.handleSignHmac(sess, data)
	case commands.CodeVerifyHmac:
		return s.handleVerifyHmac(sess, data)

	case commands.CodePutWrapKey:
		return s.handlePutWrapKey(sess, data)
	case commands.CodeGenerateWrapKey:
		return s.handleGenerateWrapKey(sess, data)
	case commands.CodeExportWrapped:
		return s.handleExportWrapped(sess, data)
	case commands.CodeImportWrapped:
		return s.handleImportWrapped(sess, data)
	case commands.CodeWrapData:
		return s.handleWrapData(sess, data)
	case commands.CodeUnwrapData:
		return s.handleUnwrapData(sess, data)

	default:
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrInvalidCommand}
	}
}

func (s *State) handleGetOption(sess *deviceSession, data []byte) ([]byte, bool, bool, error) {
	if err := s.requireCapability(sess, commands.CapabilityGetOption); err != nil {
		return nil, false, false, err
	}
	req, err := commands.DecodeGetOptionRequest(data)
	if err != nil {
		return nil, false, false, err
	}
	switch req.Tag {
	case commands.AuditTagForce:
		return []byte{byte(s.forceAudit)}, false, false, nil
	case commands.AuditTagCommand:
		w := wire.NewWriter()
		for code, opt := range s.commandAuditOptions {
			w.Uint8(uint8(code))
			w.Uint8(uint8(opt))
		}
		return w.Out(), false, false, nil
	default:
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrInvalidData}
	}
}

func (s *State) handleSetOption(sess *deviceSession, data []byte) ([]byte, bool, bool, error) {
	if err := s.requireCapability(sess, commands.CapabilityPutOption); err != nil {
		return nil, false, false, err
	}
	req, err := commands.DecodeSetOptionRequest(data)
	if err != nil {
		return nil, false, false, err
	}
	switch req.Tag {
	case commands.AuditTagForce:
		if len(req.Value) != 1 {
			return nil, false, false, &commands.DeviceError{Kind: commands.ErrInvalidData}
		}
		s.forceAudit = commands.AuditOption(req.Value[0])
	case commands.AuditTagCommand:
		if len(req.Value) != 2 {
			return nil, false, false, &commands.DeviceError{Kind: commands.ErrInvalidData}
		}
		s.commandAuditOptions[commands.Code(req.Value[0])] = commands.AuditOption(req.Value[1])
	default:
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrInvalidData}
	}
	return nil, false, false, nil
}

func (s *State) handleGetObjectInfo(data []byte) ([]byte, bool, bool, error) {
	req, err := commands.DecodeGetObjectInfoRequest(data)
	if err != nil {
		return nil, false, false, err
	}
	obj, ok := s.objects.get(req.ObjectID, req.ObjectType)
	if !ok {
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrObjectNotFound}
	}
	payload, _ := obj.info.MarshalBinary()
	return payload, false, false, nil
}

// deleteCapability maps an object type to the capability bit that permits
// deleting objects of that type.
func deleteCapability(typ commands.ObjectType) commands.Capability {
	switch typ {
	case commands.ObjectTypeOpaque:
		return commands.CapabilityDeleteOpaque
	case commands.ObjectTypeAuthenticationKey:
		return commands.CapabilityDeleteAuthenticationKey
	case commands.ObjectTypeAsymmetricKey:
		return commands.CapabilityDeleteAsymmetric
	case commands.ObjectTypeWrapKey:
		return commands.CapabilityDeleteWrapKey
	case commands.ObjectTypeHmacKey:
		return commands.CapabilityDeleteHmacKey
	default:
		return commands.CapabilityNone
	}
}

func (s *State) handleDeleteObject(sess *deviceSession, data []byte) ([]byte, bool, bool, error) {
	req, err := commands.DecodeDeleteObjectRequest(data)
	if err != nil {
		return nil, false, false, err
	}
	if err := s.requireCapability(sess, deleteCapability(req.ObjectType)); err != nil {
		return nil, false, false, err
	}
	if !s.objects.delete(req.ObjectID, req.ObjectType) {
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrObjectNotFound}
	}
	return nil, false, false, nil
}

func (s *State) handleListObjects(data []byte) ([]byte, bool, bool, error) {
	filters, err := commands.DecodeListFilters(data)
	if err != nil {
		return nil, false, false, err
	}
	resp := &commands.ListObjectsResponse{}
	for _, info := range s.objects.list() {
		matches := true
		for _, f := range filters {
			if !f.Matches(info) {
				matches = false
				break
			}
		}
		if matches {
			resp.Entries = append(resp.Entries, commands.ListEntry{ObjectID: info.ObjectID, ObjectType: info.Type, Sequence: info.Sequence})
		}
	}
	return resp.Marshal(), false, false, nil
}

func (s *State) handlePutOpaque(sess *deviceSession, data []byte) ([]byte, bool, bool, error) {
	if err := s.requireCapability(sess, commands.CapabilityPutOpaque); err != nil {
		return nil, false, false, err
	}
	req, err := commands.DecodePutOpaqueRequest(data)
	if err != nil {
		return nil, false, false, err
	}
	id := req.ObjectID
	if id == 0 {
		id = s.objects.nextID(commands.ObjectTypeOpaque)
	}
	s.objects.put(id, commands.ObjectTypeOpaque, req.Algorithm, req.Label, req.Capabilities, commands.CapabilityNone, req.Domains, commands.OriginImported, req.Data)
	resp := &commands.KeyIDResponse{ObjectID: id}
	return keyIDPayload(resp), false, false, nil
}

func (s *State) handleGetOpaque(sess *deviceSession, data []byte) ([]byte, bool, bool, error) {
	if err := s.requireCapability(sess, commands.CapabilityGetOpaque); err != nil {
		return nil, false, false, err
	}
	req, err := commands.DecodeGetOpaqueRequest(data)
	if err != nil {
		return nil, false, false, err
	}
	obj, ok := s.objects.get(req.ObjectID, commands.ObjectTypeOpaque)
	if !ok {
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrObjectNotFound}
	}
	return obj.payload, false, false, nil
}

func (s *State) handlePutAuthenticationKey(sess *deviceSession, data []byte) ([]byte, bool, bool, error) {
	if err := s.requireCapability(sess, commands.CapabilityPutAuthenticationKey); err != nil {
		return nil, false, false, err
	}
	req, err := commands.DecodePutAuthenticationKeyRequest(data)
	if err != nil {
		return nil, false, false, err
	}
	if err := s.requireDelegatedSubset(sess, req.DelegatedCapabilities); err != nil {
		return nil, false, false, err
	}
	id := req.ObjectID
	if id == 0 {
		id = s.objects.nextID(commands.ObjectTypeAuthenticationKey)
	}
	key := append(append([]byte(nil), req.EncKey...), req.MacKey...)
	s.objects.put(id, commands.ObjectTypeAuthenticationKey, commands.AlgorithmYubicoAESAuthentication, req.Label, req.Capabilities, req.DelegatedCapabilities, req.Domains, commands.OriginImported, key)
	resp := &commands.KeyIDResponse{ObjectID: id}
	return keyIDPayload(resp), false, false, nil
}

// requireDelegatedSubset enforces that a newly delegated capability set
// never exceeds what the authenticating key is itself permitted to
// delegate (spec.md §3's delegated-capabilities subset invariant).
func (s *State) requireDelegatedSubset(sess *deviceSession, delegated commands.Capability) error {
	_, keyObj, ok := s.authKey(sess.authKeyID)
	if !ok {
		return &commands.DeviceError{Kind: commands.ErrInvalidSession}
	}
	if !keyObj.info.DelegatedCapabilities.Contains(delegated) {
		return &commands.DeviceError{Kind: commands.ErrInsufficientPermissions}
	}
	return nil
}

func keyIDPayload(r *commands.KeyIDResponse) []byte {
	w := wire.NewWriter()
	w.Uint16(r.ObjectID)
	return w.Out()
}

func (s *State) handleGenerateAsymmetricKey(sess *deviceSession, data []byte) ([]byte, bool, bool, error) {
	if err := s.requireCapability(sess, commands.CapabilityAsymmetricGen); err != nil {
		return nil, false, false, err
	}
	req, err := commands.DecodeGenerateAsymmetricKeyRequest(data)
	if err != nil {
		return nil, false, false, err
	}
	var payload []byte
	switch {
	case req.Algorithm == commands.AlgorithmEd25519:
		_, seed, err := generateEd25519()
		if err != nil {
			return nil, false, false, err
		}
		payload = seed
	case ecCurve(req.Algorithm) != nil:
		priv, err := generateECKey(ecCurve(req.Algorithm))
		if err != nil {
			return nil, false, false, err
		}
		payload = priv.D.Bytes()
	default:
		// RSA key generation is not implemented even when EnableRSA is on;
		// the flag only gates accepting RSA material via PutAsymmetricKey.
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrInvalidCommand}
	}

	id := req.ObjectID
	if id == 0 {
		id = s.objects.nextID(commands.ObjectTypeAsymmetricKey)
	}
	s.objects.put(id, commands.ObjectTypeAsymmetricKey, req.Algorithm, req.Label, req.Capabilities, commands.CapabilityNone, req.Domains, commands.OriginGenerated, payload)
	resp := &commands.KeyIDResponse{ObjectID: id}
	return keyIDPayload(resp), false, false, nil
}

func (s *State) handlePutAsymmetricKey(sess *deviceSession, data []byte) ([]byte, bool, bool, error) {
	if err := s.requireCapability(sess, commands.CapabilityPutAsymmetric); err != nil {
		return nil, false, false, err
	}
	req, err := commands.DecodePutAsymmetricKeyRequest(data)
	if err != nil {
		return nil, false, false, err
	}
	if req.Algorithm != commands.AlgorithmEd25519 && ecCurve(req.Algorithm) == nil {
		if !s.enableRSA {
			return nil, false, false, &commands.DeviceError{Kind: commands.ErrInvalidCommand}
		}
	}
	id := req.ObjectID
	if id == 0 {
		id = s.objects.nextID(commands.ObjectTypeAsymmetricKey)
	}
	s.objects.put(id, commands.ObjectTypeAsymmetricKey, req.Algorithm, req.Label, req.Capabilities, commands.CapabilityNone, req.Domains, commands.OriginImported, req.KeyPart1)
	resp := &commands.KeyIDResponse{ObjectID: id}
	return keyIDPayload(resp), false, false, nil
}

func (s *State) handleGetPublicKey(data []byte) ([]byte, bool, bool, error) {
	req, err := commands.DecodeGetPublicKeyRequest(data)
	if err != nil {
		return nil, false, false, err
	}
	obj, ok := s.objects.get(req.ObjectID, commands.ObjectTypeAsymmetricKey)
	if !ok {
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrObjectNotFound}
	}

	var keyData []byte
	switch {
	case obj.info.Algorithm == commands.AlgorithmEd25519:
		keyData = ed25519PublicFromSeed(obj.payload)
	case ecCurve(obj.info.Algorithm) != nil:
		priv := ecPrivateFromScalar(ecCurve(obj.info.Algorithm), obj.payload)
		keyData = ecPublicPoint(priv.Curve, priv.X, priv.Y)
	default:
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrInvalidCommand}
	}

	resp := &commands.GetPublicKeyResponse{Algorithm: obj.info.Algorithm, KeyData: keyData}
	w := wire.NewWriter()
	w.Uint8(uint8(resp.Algorithm))
	w.Bytes(resp.KeyData)
	return w.Out(), false, false, nil
}

func (s *State) handleSignEddsa(sess *deviceSession, data []byte) ([]byte, bool, bool, error) {
	if err := s.requireCapability(sess, commands.CapabilitySignEddsa); err != nil {
		return nil, false, false, err
	}
	req, err := commands.DecodeSignEddsaRequest(data)
	if err != nil {
		return nil, false, false, err
	}
	obj, ok := s.objects.get(req.ObjectID, commands.ObjectTypeAsymmetricKey)
	if !ok || obj.info.Algorithm != commands.AlgorithmEd25519 {
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrObjectNotFound}
	}
	return ed25519Sign(obj.payload, req.Data), false, false, nil
}

func (s *State) handleSignEcdsa(sess *deviceSession, data []byte) ([]byte, bool, bool, error) {
	if err := s.requireCapability(sess, commands.CapabilitySignEcdsa); err != nil {
		return nil, false, false, err
	}
	req, err := commands.DecodeSignEcdsaRequest(data)
	if err != nil {
		return nil, false, false, err
	}
	obj, ok := s.objects.get(req.ObjectID, commands.ObjectTypeAsymmetricKey)
	if !ok {
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrObjectNotFound}
	}
	curve := ecCurve(obj.info.Algorithm)
	if curve == nil {
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrInvalidCommand}
	}
	priv := ecPrivateFromScalar(curve, obj.payload)
	sig, err := ecdsaSignDER(priv, req.Data)
	if err != nil {
		return nil, false, false, err
	}
	return sig, false, false, nil
}

func (s *State) handleSignAttestationCertificate(sess *deviceSession, data []byte) ([]byte, bool, bool, error) {
	if err := s.requireCapability(sess, commands.CapabilityAttest); err != nil {
		return nil, false, false, err
	}
	req, err := commands.DecodeSignAttestationCertificateRequest(data)
	if err != nil {
		return nil, false, false, err
	}
	subject, ok := s.objects.get(req.ObjectID, commands.ObjectTypeAsymmetricKey)
	if !ok {
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrObjectNotFound}
	}
	attest, ok := s.objects.get(req.AttestationKeyID, commands.ObjectTypeAsymmetricKey)
	if !ok || attest.info.Algorithm != commands.AlgorithmEd25519 {
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrObjectNotFound}
	}
	var subjectPub []byte
	switch {
	case subject.info.Algorithm == commands.AlgorithmEd25519:
		subjectPub = ed25519PublicFromSeed(subject.payload)
	case ecCurve(subject.info.Algorithm) != nil:
		priv := ecPrivateFromScalar(ecCurve(subject.info.Algorithm), subject.payload)
		subjectPub = ecPublicPoint(priv.Curve, priv.X, priv.Y)
	default:
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrInvalidCommand}
	}
	cert, err := selfSignedAttestation(attest.payload, subjectPub, req.ObjectID)
	if err != nil {
		return nil, false, false, err
	}
	return cert, false, false, nil
}

func (s *State) handlePutHmacKey(sess *deviceSession, data []byte) ([]byte, bool, bool, error) {
	if err := s.requireCapability(sess, commands.CapabilityPutHmacKey); err != nil {
		return nil, false, false, err
	}
	req, err := commands.DecodePutHmacKeyRequest(data)
	if err != nil {
		return nil, false, false, err
	}
	id := req.ObjectID
	if id == 0 {
		id = s.objects.nextID(commands.ObjectTypeHmacKey)
	}
	s.objects.put(id, commands.ObjectTypeHmacKey, req.Algorithm, req.Label, req.Capabilities, commands.CapabilityNone, req.Domains, commands.OriginImported, req.Key)
	resp := &commands.KeyIDResponse{ObjectID: id}
	return keyIDPayload(resp), false, false, nil
}

func (s *State) handleGenerateHmacKey(sess *deviceSession, data []byte) ([]byte, bool, bool, error) {
	if err := s.requireCapability(sess, commands.CapabilityGenerateHmacKey); err != nil {
		return nil, false, false, err
	}
	req, err := commands.DecodeGenerateHmacKeyRequest(data)
	if err != nil {
		return nil, false, false, err
	}
	keyLen := req.Algorithm.MaxHmacKeyLen()
	if keyLen == 0 {
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrInvalidData}
	}
	key := make([]byte, keyLen)
	if _, err := rand.Read(key); err != nil {
		return nil, false, false, err
	}
	id := req.ObjectID
	if id == 0 {
		id = s.objects.nextID(commands.ObjectTypeHmacKey)
	}
	s.objects.put(id, commands.ObjectTypeHmacKey, req.Algorithm, req.Label, req.Capabilities, commands.CapabilityNone, req.Domains, commands.OriginGenerated, key)
	resp := &commands.KeyIDResponse{ObjectID: id}
	return keyIDPayload(resp), false, false, nil
}

// hmacSum computes the tag length and value bound to a, the fix for
// spec.md §9's first Open Question: the simulator never assumes SHA-256.
func hmacSum(a commands.Algorithm, key, data []byte) ([]byte, error) {
	h := newHash(a)
	if h == nil {
		return nil, &commands.DeviceError{Kind: commands.ErrInvalidData}
	}
	mac := h(key)
	mac.Write(data)
	return mac.Sum(nil), nil
}

func (s *State) handleSignHmac(sess *deviceSession, data []byte) ([]byte, bool, bool, error) {
	if err := s.requireCapability(sess, commands.CapabilitySignHmac); err != nil {
		return nil, false, false, err
	}
	req, err := commands.DecodeSignHmacRequest(data)
	if err != nil {
		return nil, false, false, err
	}
	obj, ok := s.objects.get(req.ObjectID, commands.ObjectTypeHmacKey)
	if !ok {
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrObjectNotFound}
	}
	tag, err := hmacSum(obj.info.Algorithm, obj.payload, req.Data)
	if err != nil {
		return nil, false, false, err
	}
	return tag, false, false, nil
}

func (s *State) handleVerifyHmac(sess *deviceSession, data []byte) ([]byte, bool, bool, error) {
	if err := s.requireCapability(sess, commands.CapabilityVerifyHmac); err != nil {
		return nil, false, false, err
	}
	objectID, rest, err := commands.DecodeVerifyHmacRequestHeader(data)
	if err != nil {
		return nil, false, false, err
	}
	obj, ok := s.objects.get(objectID, commands.ObjectTypeHmacKey)
	if !ok {
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrObjectNotFound}
	}
	tagLen := commands.HmacTagLen(obj.info.Algorithm)
	if tagLen == 0 || len(rest) < tagLen {
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrInvalidData}
	}
	tag, payload := rest[:tagLen], rest[tagLen:]
	expected, err := hmacSum(obj.info.Algorithm, obj.payload, payload)
	if err != nil {
		return nil, false, false, err
	}
	resp := &commands.VerifyHmacResponse{Valid: subtle.ConstantTimeCompare(expected, tag) == 1}
	return resp.Marshal(), false, false, nil
}

func (s *State) handlePutWrapKey(sess *deviceSession, data []byte) ([]byte, bool, bool, error) {
	if err := s.requireCapability(sess, commands.CapabilityPutWrapKey); err != nil {
		return nil, false, false, err
	}
	req, err := commands.DecodePutWrapKeyRequest(data)
	if err != nil {
		return nil, false, false, err
	}
	if err := s.requireDelegatedSubset(sess, req.DelegatedCapabilities); err != nil {
		return nil, false, false, err
	}
	id := req.ObjectID
	if id == 0 {
		id = s.objects.nextID(commands.ObjectTypeWrapKey)
	}
	s.objects.put(id, commands.ObjectTypeWrapKey, req.Algorithm, req.Label, req.Capabilities, req.DelegatedCapabilities, req.Domains, commands.OriginImported, req.Key)
	resp := &commands.KeyIDResponse{ObjectID: id}
	return keyIDPayload(resp), false, false, nil
}

func (s *State) handleGenerateWrapKey(sess *deviceSession, data []byte) ([]byte, bool, bool, error) {
	if err := s.requireCapability(sess, commands.CapabilityGenerateWrapKey); err != nil {
		return nil, false, false, err
	}
	req, err := commands.DecodeGenerateWrapKeyRequest(data)
	if err != nil {
		return nil, false, false, err
	}
	if err := s.requireDelegatedSubset(sess, req.DelegatedCapabilities); err != nil {
		return nil, false, false, err
	}
	keyLen := req.Algorithm.KeyLen()
	if keyLen == 0 {
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrInvalidData}
	}
	key := make([]byte, keyLen)
	if _, err := rand.Read(key); err != nil {
		return nil, false, false, err
	}
	id := req.ObjectID
	if id == 0 {
		id = s.objects.nextID(commands.ObjectTypeWrapKey)
	}
	s.objects.put(id, commands.ObjectTypeWrapKey, req.Algorithm, req.Label, req.Capabilities, req.DelegatedCapabilities, req.Domains, commands.OriginGenerated, key)
	resp := &commands.KeyIDResponse{ObjectID: id}
	return keyIDPayload(resp), false, false, nil
}

// marshalWrappedObject is the plaintext layout ExportWrapped/ImportWrapped
// encrypt under the wrap key: enough of an object's metadata to
// reconstruct it on the importing side, plus its raw payload.
func marshalWrappedObject(typ commands.ObjectType, info commands.ObjectInfo, payload []byte) []byte {
	w := wire.NewWriter()
	w.Uint8(uint8(typ))
	w.Uint8(uint8(info.Algorithm))
	w.Uint64(uint64(info.Capabilities))
	w.Uint16(uint16(info.Domains))
	w.Uint64(uint64(info.DelegatedCapabilities))
	w.FixedField(info.Label[:], commands.LabelLength)
	w.Bytes(payload)
	return w.Out()
}

func unmarshalWrappedObject(raw []byte) (typ commands.ObjectType, alg commands.Algorithm, caps commands.Capability, domains commands.Domain, delegated commands.Capability, label string, payload []byte, err error) {
	r := wire.NewReader(raw)
	t, err := r.Uint8()
	if err != nil {
		return
	}
	a, err := r.Uint8()
	if err != nil {
		return
	}
	c, err := r.Uint64()
	if err != nil {
		return
	}
	d, err := r.Uint16()
	if err != nil {
		return
	}
	del, err := r.Uint64()
	if err != nil {
		return
	}
	lbl, err := r.Fixed(commands.LabelLength)
	if err != nil {
		return
	}
	typ = commands.ObjectType(t)
	alg = commands.Algorithm(a)
	caps = commands.Capability(c)
	domains = commands.Domain(d)
	delegated = commands.Capability(del)
	label = labelString(lbl)
	payload = r.Rest()
	return
}

func (s *State) handleExportWrapped(sess *deviceSession, data []byte) ([]byte, bool, bool, error) {
	if err := s.requireCapability(sess, commands.CapabilityExportWrapped); err != nil {
		return nil, false, false, err
	}
	req, err := commands.DecodeExportWrappedRequest(data)
	if err != nil {
		return nil, false, false, err
	}
	wrapKey, ok := s.objects.get(req.WrapKeyID, commands.ObjectTypeWrapKey)
	if !ok {
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrObjectNotFound}
	}
	obj, ok := s.objects.get(req.ObjectID, req.ObjectType)
	if !ok {
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrObjectNotFound}
	}
	if !obj.info.Capabilities.Contains(commands.CapabilityExportUnderWrap) {
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrInsufficientPermissions}
	}
	blob := marshalWrappedObject(req.ObjectType, obj.info, obj.payload)
	msg, err := ccmWrap(wrapKey.payload, blob)
	if err != nil {
		return nil, false, false, err
	}
	resp := &commands.ExportWrappedResponse{WrapMessage: *msg}
	return resp.Marshal(), false, false, nil
}

func (s *State) handleImportWrapped(sess *deviceSession, data []byte) ([]byte, bool, bool, error) {
	if err := s.requireCapability(sess, commands.CapabilityImportWrapped); err != nil {
		return nil, false, false, err
	}
	req, err := commands.DecodeImportWrappedRequest(data)
	if err != nil {
		return nil, false, false, err
	}
	wrapKey, ok := s.objects.get(req.WrapKeyID, commands.ObjectTypeWrapKey)
	if !ok {
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrObjectNotFound}
	}
	plaintext, err := ccmUnwrap(wrapKey.payload, req.WrapMessage)
	if err != nil {
		return nil, false, false, err
	}
	typ, alg, caps, domains, delegated, label, payload, err := unmarshalWrappedObject(plaintext)
	if err != nil {
		return nil, false, false, err
	}
	// The imported object's own capabilities must not exceed what the
	// wrap key was permitted to carry across the boundary.
	if !wrapKey.info.DelegatedCapabilities.Contains(caps) {
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrInsufficientPermissions}
	}
	id := s.objects.nextID(typ)
	s.objects.put(id, typ, alg, label, caps, delegated, domains, commands.OriginImported, payload)
	resp := &commands.ImportWrappedResponse{ObjectID: id, ObjectType: typ}
	return resp.Marshal(), false, false, nil
}

func (s *State) handleWrapData(sess *deviceSession, data []byte) ([]byte, bool, bool, error) {
	if err := s.requireCapability(sess, commands.CapabilityWrapData); err != nil {
		return nil, false, false, err
	}
	req, err := commands.DecodeWrapDataRequest(data)
	if err != nil {
		return nil, false, false, err
	}
	wrapKey, ok := s.objects.get(req.WrapKeyID, commands.ObjectTypeWrapKey)
	if !ok {
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrObjectNotFound}
	}
	msg, err := ccmWrap(wrapKey.payload, req.Data)
	if err != nil {
		return nil, false, false, err
	}
	resp := &commands.WrapDataResponse{WrapMessage: *msg}
	return resp.Marshal(), false, false, nil
}

func (s *State) handleUnwrapData(sess *deviceSession, data []byte) ([]byte, bool, bool, error) {
	if err := s.requireCapability(sess, commands.CapabilityUnwrapData); err != nil {
		return nil, false, false, err
	}
	req, err := commands.DecodeUnwrapDataRequest(data)
	if err != nil {
		return nil, false, false, err
	}
	wrapKey, ok := s.objects.get(req.WrapKeyID, commands.ObjectTypeWrapKey)
	if !ok {
		return nil, false, false, &commands.DeviceError{Kind: commands.ErrObjectNotFound}
	}
	plaintext, err := ccmUnwrap(wrapKey.payload, req.WrapMessage)
	if err != nil {
		return nil, false, false, err
	}
	return plaintext, false, false, nil
}
