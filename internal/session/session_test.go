package session

import (
	"errors"
	"testing"

	"github.com/imclab/otpasswd/internal/alphabet"
	"github.com/imclab/otpasswd/internal/bignum"
	"github.com/imclab/otpasswd/internal/ppp"
)

// fakeStore is an in-memory store.StateStore for exercising the
// session façade without touching the filesystem.
type fakeStore struct {
	entries     map[string]*ppp.State
	permErr     error
	lockErr     error
	locked      bool
	lockCalls   int
	unlockCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: map[string]*ppp.State{}}
}

func (f *fakeStore) Permissions() error { return f.permErr }

func (f *fakeStore) Lock() error {
	f.lockCalls++
	if f.lockErr != nil {
		return f.lockErr
	}
	f.locked = true
	return nil
}

func (f *fakeStore) Unlock() error {
	f.unlockCalls++
	f.locked = false
	return nil
}

func (f *fakeStore) Load(username string) (*ppp.State, error) {
	s, ok := f.entries[username]
	if !ok {
		return nil, errors.New("fakeStore: no such user")
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) Store(username string, s *ppp.State, remove bool) error {
	if remove {
		delete(f.entries, username)
		return nil
	}
	cp := *s
	f.entries[username] = &cp
	return nil
}

func fixtureState(username string) *ppp.State {
	s := &ppp.State{
		Username:   username,
		Key:        bignum.Key256{1, 2, 3},
		Counter:    bignum.FromUint64(0),
		AlphabetID: 1,
		CodeLength: 4,
		Flags:      ppp.FlagSalted,
	}
	return s
}

func TestLoadAndReleaseRoundTrip(t *testing.T) {
	fs := newFakeStore()
	fs.entries["alice"] = fixtureState("alice")

	sess := New(fs, "alice")
	s, err := sess.Load(false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !fs.locked {
		t.Errorf("expected lock held after Load")
	}

	s.Failures = 7
	if err := sess.Release(false); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if fs.locked {
		t.Errorf("expected lock released after Release")
	}
	if fs.entries["alice"].Failures != 7 {
		t.Errorf("mutation not persisted: Failures = %d, want 7", fs.entries["alice"].Failures)
	}
}

func TestLoadRejectsDisabledByDefault(t *testing.T) {
	fs := newFakeStore()
	disabled := fixtureState("alice")
	disabled.Flags |= ppp.FlagDisabled
	fs.entries["alice"] = disabled

	sess := New(fs, "alice")
	if _, err := sess.Load(false); err != ErrDisabled {
		t.Errorf("Load on disabled state: got %v, want ErrDisabled", err)
	}
	if fs.locked {
		t.Errorf("lock should be released after a failed Load")
	}
}

func TestLoadAllowsDisabledWhenRequested(t *testing.T) {
	fs := newFakeStore()
	disabled := fixtureState("alice")
	disabled.Flags |= ppp.FlagDisabled
	fs.entries["alice"] = disabled

	sess := New(fs, "alice")
	s, err := sess.Load(true)
	if err != nil {
		t.Fatalf("Load(allowDisabled=true): %v", err)
	}
	if s.Flags&ppp.FlagDisabled == 0 {
		t.Errorf("expected disabled flag preserved")
	}
	_ = sess.Release(true)
}

func TestLoadReleasesLockOnMissingEntry(t *testing.T) {
	fs := newFakeStore()
	sess := New(fs, "nobody")
	if _, err := sess.Load(false); err == nil {
		t.Fatalf("expected error loading missing entry")
	}
	if fs.locked {
		t.Errorf("lock should be released after a failed Load")
	}
}

func TestReleaseDropDoesNotPersist(t *testing.T) {
	fs := newFakeStore()
	fs.entries["alice"] = fixtureState("alice")

	sess := New(fs, "alice")
	s, _ := sess.Load(false)
	s.Failures = 42
	if err := sess.Release(true); err != nil {
		t.Fatalf("Release(drop): %v", err)
	}
	if fs.entries["alice"].Failures == 42 {
		t.Errorf("drop should not have persisted the mutation")
	}
}

func TestCreateInstallsStateUnderLock(t *testing.T) {
	fs := newFakeStore()
	sess := New(fs, "alice")
	fresh := fixtureState("alice")
	if err := sess.Create(fresh); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !fs.locked {
		t.Errorf("expected lock held after Create")
	}
	if sess.State() != fresh {
		t.Errorf("Create did not install the given state")
	}
	if err := sess.Release(false); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, ok := fs.entries["alice"]; !ok {
		t.Errorf("Release after Create should have persisted the new entry")
	}
}

func TestSessionAuthenticateDisabledIsIndistinguishableFromMismatch(t *testing.T) {
	fs := newFakeStore()
	disabled := fixtureState("alice")
	disabled.Flags |= ppp.FlagDisabled
	fs.entries["alice"] = disabled

	reg := alphabet.NewRegistry("")
	result, err := Authenticate(fs, reg, "alice", "0000")
	if result != ppp.AuthMismatch {
		t.Errorf("Authenticate on disabled state: got %v, want AuthMismatch", result)
	}
	if err != ErrDisabled {
		t.Errorf("Authenticate on disabled state: got err %v, want ErrDisabled", err)
	}
}

func TestSessionAuthenticatePersistsCounterAdvance(t *testing.T) {
	fs := newFakeStore()
	fs.entries["alice"] = fixtureState("alice")

	reg := alphabet.NewRegistry("")
	expected, err := ppp.Derive(reg, bignum.Key256{1, 2, 3}, bignum.FromUint64(0), 1, 4)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}

	result, err := Authenticate(fs, reg, "alice", expected)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if result != ppp.AuthOK {
		t.Errorf("Authenticate: got %v, want AuthOK", result)
	}
	if fs.entries["alice"].Counter.Cmp(bignum.FromUint64(1)) != 0 {
		t.Errorf("counter not advanced and persisted")
	}
}
