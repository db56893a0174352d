package store

import (
	"testing"

	"github.com/imclab/otpasswd/internal/bignum"
	"github.com/imclab/otpasswd/internal/ppp"
)

func sampleState() *ppp.State {
	s := &ppp.State{
		Username:       "alice",
		Key:            bignum.Key256{1, 2, 3},
		Counter:        bignum.FromUint64(42),
		LatestCard:     bignum.FromUint64(3),
		Failures:       5,
		RecentFailures: 1,
		ChannelTime:    1700000000,
		CodeLength:     4,
		AlphabetID:     1,
		Flags:          ppp.FlagShow,
		SpassTime:      1700000001,
		Contact:        "alice@example.com",
	}
	s.SetLabel("work-laptop")
	return s
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := sampleState()
	line, err := EncodeEntry(s)
	if err != nil {
		t.Fatalf("EncodeEntry: %v", err)
	}

	got, err := DecodeEntry(line)
	if err != nil {
		t.Fatalf("DecodeEntry: %v", err)
	}

	if got.Username != s.Username || got.Key != s.Key || got.Counter.Cmp(s.Counter) != 0 ||
		got.LatestCard.Cmp(s.LatestCard) != 0 || got.Failures != s.Failures ||
		got.RecentFailures != s.RecentFailures || got.ChannelTime != s.ChannelTime ||
		got.CodeLength != s.CodeLength || got.AlphabetID != s.AlphabetID ||
		got.Flags != s.Flags || got.SpassTime != s.SpassTime ||
		got.Label() != s.Label() || got.Contact != s.Contact {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, s)
	}
}

func TestEncodeDecodeWithSpass(t *testing.T) {
	s := sampleState()
	s.SpassSet = true
	s.Spass[0] = 0xAB

	line, err := EncodeEntry(s)
	if err != nil {
		t.Fatalf("EncodeEntry: %v", err)
	}
	got, err := DecodeEntry(line)
	if err != nil {
		t.Fatalf("DecodeEntry: %v", err)
	}
	if !got.SpassSet || got.Spass != s.Spass {
		t.Errorf("spass round trip mismatch: got %v set=%v, want %v set=%v", got.Spass, got.SpassSet, s.Spass, s.SpassSet)
	}
}

func TestEncodeRejectsDelimiterInField(t *testing.T) {
	s := sampleState()
	s.Contact = "bad:contact"
	if _, err := EncodeEntry(s); err != ErrParse {
		t.Errorf("EncodeEntry with ':' in contact: got %v, want ErrParse", err)
	}
}

func TestEncodeRejectsOverlongField(t *testing.T) {
	s := sampleState()
	long := make([]byte, maxFieldLength+1)
	for i := range long {
		long[i] = 'x'
	}
	s.Contact = string(long)
	if _, err := EncodeEntry(s); err != ErrParse {
		t.Errorf("EncodeEntry with overlong field: got %v, want ErrParse", err)
	}
}

func TestDecodeRejectsWrongFieldCount(t *testing.T) {
	if _, err := DecodeEntry("alice:1:2:3"); err != ErrParse {
		t.Errorf("DecodeEntry with too few fields: got %v, want ErrParse", err)
	}
}

func TestDecodeRejectsWrongVersion(t *testing.T) {
	s := sampleState()
	line, _ := EncodeEntry(s)
	// Replace the version field (second field) with "2".
	bad := "alice:2" + line[len("alice:1"):]
	if _, err := DecodeEntry(bad); err != ErrParse {
		t.Errorf("DecodeEntry with version=2: got %v, want ErrParse", err)
	}
}
