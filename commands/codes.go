// Package commands implements the YubiHSM2-style command/response catalog:
// the ~60-entry opcode space, the object/algorithm/capability/domain
// enumerations, and the framed command and response wire layout (spec
// components C1 and C2). It shares the wire codec with the secure channel
// and the simulator so that all three evolve in lockstep.
package commands

// Code identifies a command on the wire. Response frames carry the same
// code with ResponseFlag (0x80) set in their first byte.
type Code uint8

// ResponseFlag marks a response frame's command-code byte; ErrorCode is the
// reserved low-7-bit value (0x7F) that signals a device-level error instead
// of a successful response (spec.md §4.2).
const (
	ResponseFlag Code = 0x80
	ErrorCode    Code = 0x7f
)

// Opcode catalog. Values match the real YubiHSM2 wire protocol as recorded
// by the teacher (certusone/yubihsm-go's commands/types.go) and extended
// with the additional commands the original Rust client exercises
// (original_source/src/mockhsm/command.rs's dispatch table).
const (
	CodeEcho                 Code = 0x01
	CodeCreateSession        Code = 0x03
	CodeAuthenticateSession  Code = 0x04
	CodeSessionMessage       Code = 0x05
	CodeDeviceInfo           Code = 0x06
	CodeResetDevice          Code = 0x08
	CodeCloseSession         Code = 0x40
	CodeGetStorageInfo       Code = 0x41
	CodePutOpaqueObject      Code = 0x42
	CodeGetOpaqueObject      Code = 0x43
	CodePutAuthenticationKey Code = 0x44
	CodePutAsymmetricKey     Code = 0x45
	CodeGenerateAsymmetricKey Code = 0x46
	CodeSignPkcs1            Code = 0x47
	CodeListObjects          Code = 0x48
	CodeDecryptPkcs1         Code = 0x49
	CodeExportWrapped        Code = 0x4a
	CodeImportWrapped        Code = 0x4b
	CodePutWrapKey           Code = 0x4c
	CodeGetLogEntries        Code = 0x4d
	CodeGetObjectInfo        Code = 0x4e
	CodeSetOption            Code = 0x4f
	CodeGetOption            Code = 0x50
	CodeGetPseudoRandom      Code = 0x51
	CodePutHmacKey           Code = 0x52
	CodeSignHmac             Code = 0x53
	CodeGetPublicKey         Code = 0x54
	CodeSignPss              Code = 0x55
	CodeSignEcdsa            Code = 0x56
	CodeDecryptEcdh          Code = 0x57
	CodeDeleteObject         Code = 0x58
	CodeDecryptOaep          Code = 0x59
	CodeGenerateHmacKey      Code = 0x5a
	CodeGenerateWrapKey      Code = 0x5b
	CodeVerifyHmac           Code = 0x5c
	CodeSetLogIndex          Code = 0x5d
	CodeWrapData             Code = 0x5e
	CodeUnwrapData           Code = 0x5f
	CodeOtpDecrypt           Code = 0x60
	CodeOtpAeadCreate        Code = 0x61
	CodeOtpAeadRandom        Code = 0x62
	CodeOtpAeadRewrap        Code = 0x63
	CodeAttestAsymmetric     Code = 0x64
	CodePutOtpAeadKey        Code = 0x65
	CodeGenerateOtpAeadKey   Code = 0x66
	CodeSignEddsa            Code = 0x6a
	CodeBlinkDevice          Code = 0x6b
)

// names backs Code.String() for logging.
var names = map[Code]string{
	CodeEcho:                  "Echo",
	CodeCreateSession:         "CreateSession",
	CodeAuthenticateSession:   "AuthenticateSession",
	CodeSessionMessage:        "SessionMessage",
	CodeDeviceInfo:            "DeviceInfo",
	CodeResetDevice:           "ResetDevice",
	CodeCloseSession:          "CloseSession",
	CodeGetStorageInfo:        "GetStorageInfo",
	CodePutOpaqueObject:       "PutOpaqueObject",
	CodeGetOpaqueObject:       "GetOpaqueObject",
	CodePutAuthenticationKey:  "PutAuthenticationKey",
	CodePutAsymmetricKey:      "PutAsymmetricKey",
	CodeGenerateAsymmetricKey: "GenerateAsymmetricKey",
	CodeSignPkcs1:             "SignPkcs1",
	CodeListObjects:           "ListObjects",
	CodeDecryptPkcs1:          "DecryptPkcs1",
	CodeExportWrapped:         "ExportWrapped",
	CodeImportWrapped:         "ImportWrapped",
	CodePutWrapKey:            "PutWrapKey",
	CodeGetLogEntries:         "GetLogEntries",
	CodeGetObjectInfo:         "GetObjectInfo",
	CodeSetOption:             "SetOption",
	CodeGetOption:             "GetOption",
	CodeGetPseudoRandom:       "GetPseudoRandom",
	CodePutHmacKey:            "PutHmacKey",
	CodeSignHmac:              "SignHmac",
	CodeGetPublicKey:          "GetPublicKey",
	CodeSignPss:               "SignPss",
	CodeSignEcdsa:             "SignEcdsa",
	CodeDecryptEcdh:           "DecryptEcdh",
	CodeDeleteObject:          "DeleteObject",
	CodeDecryptOaep:           "DecryptOaep",
	CodeGenerateHmacKey:       "GenerateHmacKey",
	CodeGenerateWrapKey:       "GenerateWrapKey",
	CodeVerifyHmac:            "VerifyHmac",
	CodeSetLogIndex:           "SetLogIndex",
	CodeWrapData:              "WrapData",
	CodeUnwrapData:            "UnwrapData",
	CodeOtpDecrypt:            "OtpDecrypt",
	CodeOtpAeadCreate:         "OtpAeadCreate",
	CodeOtpAeadRandom:         "OtpAeadRandom",
	CodeOtpAeadRewrap:         "OtpAeadRewrap",
	CodeAttestAsymmetric:      "AttestAsymmetric",
	CodePutOtpAeadKey:         "PutOtpAeadKey",
	CodeGenerateOtpAeadKey:    "GenerateOtpAeadKey",
	CodeSignEddsa:             "SignEddsa",
	CodeBlinkDevice:           "BlinkDevice",
}

func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return "Unknown"
}
