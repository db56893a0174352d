package agent

import (
	"bytes"
	"testing"

	"github.com/imclab/otpasswd/internal/bignum"
)

func TestFrameRoundTripNoMAC(t *testing.T) {
	want := &Frame{
		ProtocolVersion: ProtocolVersion,
		Type:            OpGetPasscode,
		Status:          0,
		IntArg:          7,
		IntArg2:         -3,
		NumArg:          bignum.FromUint64(864197443),
		StrArg:          "NH7j",
	}
	var buf bytes.Buffer
	if err := writeFrame(&buf, want, nil); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	got, err := readFrame(&buf, nil)
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	if *got != *want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestFrameRoundTripWithMAC(t *testing.T) {
	key, err := deriveFrameMACKey(bignum.FromUint64(42))
	if err != nil {
		t.Fatalf("deriveFrameMACKey: %v", err)
	}
	want := &Frame{ProtocolVersion: ProtocolVersion, Type: OpAuthenticate, StrArg: "abcd"}

	var buf bytes.Buffer
	if err := writeFrame(&buf, want, key); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	got, err := readFrame(&buf, key)
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	if got.StrArg != want.StrArg || got.Type != want.Type {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestFrameTagMismatchRejected(t *testing.T) {
	key, _ := deriveFrameMACKey(bignum.FromUint64(1))
	otherKey, _ := deriveFrameMACKey(bignum.FromUint64(2))

	var buf bytes.Buffer
	f := &Frame{ProtocolVersion: ProtocolVersion, Type: OpInit}
	if err := writeFrame(&buf, f, key); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	if _, err := readFrame(&buf, otherKey); err != ErrBadTag {
		t.Fatalf("got err %v, want ErrBadTag", err)
	}
}

func TestFrameStrArgTooLong(t *testing.T) {
	f := &Frame{StrArg: string(make([]byte, MaxStrArgLen+1))}
	var buf bytes.Buffer
	if err := writeFrame(&buf, f, nil); err != ErrStrArgTooLong {
		t.Fatalf("got err %v, want ErrStrArgTooLong", err)
	}
}
