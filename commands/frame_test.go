package commands

import (
	"bytes"
	"errors"
	"testing"
)

func TestCommandMessageEncode(t *testing.T) {
	sessionID := uint8(3)
	cmd := &CommandMessage{
		Code:      CodeSessionMessage,
		SessionID: &sessionID,
		Data:      []byte{0xAA, 0xBB},
		MAC:       []byte{1, 2, 3, 4, 5, 6, 7, 8},
	}
	raw, err := cmd.Encode()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{byte(CodeSessionMessage), 0x00, 0x0b, 3, 0xAA, 0xBB, 1, 2, 3, 4, 5, 6, 7, 8}
	if !bytes.Equal(raw, want) {
		t.Fatalf("Encode = % x, want % x", raw, want)
	}
}

func TestCommandMessageEncodeRejectsOversizeFrame(t *testing.T) {
	cmd := &CommandMessage{Code: CodeEcho, Data: make([]byte, MaxFrameLength)}
	if _, err := cmd.Encode(); err == nil {
		t.Fatal("expected oversize frame to be rejected")
	}
}

func TestDecodeResponseSuccess(t *testing.T) {
	raw, err := EncodeRawResponse(CodeEcho|ResponseFlag, []byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := DecodeResponse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Code != CodeEcho {
		t.Fatalf("Code = %v, want %v", resp.Code, CodeEcho)
	}
	if !resp.IsSuccessResponseTo(CodeEcho) {
		t.Fatal("expected IsSuccessResponseTo(CodeEcho) == true")
	}
	if !bytes.Equal(resp.Data, []byte("hello")) {
		t.Fatalf("Data = %q", resp.Data)
	}
}

func TestDecodeResponseDeviceError(t *testing.T) {
	raw := EncodeErrorResponse(ErrObjectNotFound)
	_, err := DecodeResponse(raw)
	var derr *DeviceError
	if !errors.As(err, &derr) {
		t.Fatalf("expected *DeviceError, got %v", err)
	}
	if derr.Kind != ErrObjectNotFound {
		t.Fatalf("Kind = %v, want %v", derr.Kind, ErrObjectNotFound)
	}
}

func TestDecodeResponseMalformedErrorPayload(t *testing.T) {
	raw, err := EncodeRawResponse(ErrorCode|ResponseFlag, []byte{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeResponse(raw); err == nil {
		t.Fatal("expected malformed error-response payload to be rejected")
	}
}

func TestDecodeCommandHeaderAndInnerCommandRoundTrip(t *testing.T) {
	cmd := &CommandMessage{Code: CodeEcho, Data: []byte("ping")}
	raw, err := cmd.Encode()
	if err != nil {
		t.Fatal(err)
	}
	code, body, err := DecodeCommandHeader(raw)
	if err != nil {
		t.Fatal(err)
	}
	if code != CodeEcho || !bytes.Equal(body, []byte("ping")) {
		t.Fatalf("code=%v body=%q", code, body)
	}

	inner, err := DecodeInnerCommand(raw)
	if err != nil {
		t.Fatal(err)
	}
	if inner.Code != CodeEcho || !bytes.Equal(inner.Data, []byte("ping")) {
		t.Fatalf("inner = %+v", inner)
	}
}
