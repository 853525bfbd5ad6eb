package client

import (
	"errors"
	"testing"

	"github.com/riftlabs/yubihsm-go/commands"
	"github.com/riftlabs/yubihsm-go/connector"
	"github.com/riftlabs/yubihsm-go/session"
)

func TestWrapSessionErrMapsEveryKind(t *testing.T) {
	cases := []struct {
		in   session.ErrorKind
		want ErrorKind
	}{
		{session.ErrorKindCreateFailed, ErrorKindCreateFailed},
		{session.ErrorKindAuthFailed, ErrorKindAuthFail},
		{session.ErrorKindTimeoutError, ErrorKindConnectorError},
		{session.ErrorKindBusy, ErrorKindConnectorError},
		{session.ErrorKindResponseError, ErrorKindResponseError},
		{session.ErrorKindProtocolError, ErrorKindProtocolError},
		{session.ErrorKindVerifyFailed, ErrorKindProtocolError},
	}
	for _, c := range cases {
		in := &session.Error{Kind: c.in, Err: errors.New("boom")}
		got := wrapSessionErr(in)
		var cerr *Error
		if !errors.As(got, &cerr) {
			t.Fatalf("%v: expected *Error, got %T", c.in, got)
		}
		if cerr.Kind != c.want {
			t.Fatalf("%v: Kind = %v, want %v", c.in, cerr.Kind, c.want)
		}
	}
}

func TestWrapSessionErrPassesThroughConnectorError(t *testing.T) {
	in := &connector.Error{Kind: connector.ErrorKindDeviceBusy, Err: errors.New("busy")}
	got := wrapSessionErr(in)
	var cerr *Error
	if !errors.As(got, &cerr) || cerr.Kind != ErrorKindConnectorError {
		t.Fatalf("got %v, want ErrorKindConnectorError", got)
	}
}

func TestWrapSessionErrFoldsDeviceError(t *testing.T) {
	in := &commands.DeviceError{Kind: commands.ErrObjectNotFound}
	got := wrapSessionErr(in)
	var cerr *Error
	if !errors.As(got, &cerr) || cerr.Kind != ErrorKindResponseError {
		t.Fatalf("got %v, want ErrorKindResponseError", got)
	}
	derr, ok := DeviceError(got)
	if !ok || derr.Kind != commands.ErrObjectNotFound {
		t.Fatalf("DeviceError(got) = %v, %v", derr, ok)
	}
}

func TestWrapSessionErrNilIsNil(t *testing.T) {
	if err := wrapSessionErr(nil); err != nil {
		t.Fatalf("wrapSessionErr(nil) = %v, want nil", err)
	}
}

func TestCheckHmacKeyLenEnforcesBounds(t *testing.T) {
	maxLen := commands.AlgorithmHmacSha256.MaxHmacKeyLen()

	if err := checkHmacKeyLen(commands.AlgorithmHmacSha256, 0); err == nil {
		t.Fatal("expected error for an empty key")
	}
	if err := checkHmacKeyLen(commands.AlgorithmHmacSha256, maxLen+1); err == nil {
		t.Fatal("expected error for a key longer than the algorithm allows")
	}
	if err := checkHmacKeyLen(commands.AlgorithmHmacSha256, maxLen); err != nil {
		t.Fatalf("key of exactly the max length should be accepted: %v", err)
	}
	if err := checkHmacKeyLen(commands.AlgorithmEd25519, 16); err == nil {
		t.Fatal("expected error for a non-HMAC algorithm")
	}
}
