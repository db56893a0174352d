package agent

import (
	"io"
	"log/slog"
	"testing"

	"github.com/imclab/otpasswd/internal/alphabet"
	"github.com/imclab/otpasswd/internal/otperr"
	"github.com/imclab/otpasswd/internal/policy"
	"github.com/imclab/otpasswd/internal/ppp"
	"github.com/imclab/otpasswd/internal/store"
)

// memStore is a minimal in-memory store.StateStore, grounded on the
// fakeStore shape in internal/session/session_test.go.
type memStore struct {
	entries map[string]*ppp.State
}

func newMemStore() *memStore { return &memStore{entries: map[string]*ppp.State{}} }

func (m *memStore) Permissions() error { return nil }
func (m *memStore) Lock() error        { return nil }
func (m *memStore) Unlock() error      { return nil }

func (m *memStore) Load(username string) (*ppp.State, error) {
	s, ok := m.entries[username]
	if !ok {
		return nil, store.ErrNonExistent
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) Store(username string, s *ppp.State, remove bool) error {
	if remove {
		delete(m.entries, username)
		return nil
	}
	cp := *s
	m.entries[username] = &cp
	return nil
}

// pair wires two Conns back-to-back over in-process pipes so a test
// can drive a Server as if it were the unprivileged client.
func pair(t *testing.T) (client *Conn, srvConn *Conn) {
	t.Helper()
	clientR, srvW := io.Pipe()
	srvR, clientW := io.Pipe()
	return NewConn(clientR, clientW), NewConn(srvR, srvW)
}

func newTestServer(t *testing.T) (*Conn, *Server, *memStore) {
	t.Helper()
	client, srvConn := pair(t)
	ms := newMemStore()
	newBackend := func(string) (store.StateStore, error) { return ms, nil }
	reg := alphabet.NewRegistry("")
	srv := NewServer(srvConn, newBackend, reg, policy.Default(), slog.Default())
	return client, srv, ms
}

// doHandshake runs srv.Handshake concurrently with the client's read of
// the resulting INIT frame, since both ends of an io.Pipe block until
// the other side is ready.
func doHandshake(t *testing.T, client *Conn, srv *Server, status otperr.Code) *Frame {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Handshake(status) }()

	initFrame, err := client.ReadFrame()
	if err != nil {
		t.Fatalf("read INIT: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	return initFrame
}

func TestAgentFirstTimeKeyGenerationAndAuthenticate(t *testing.T) {
	client, srv, _ := newTestServer(t)

	done := make(chan struct{})
	go func() {
		_ = srv.Serve(done)
	}()

	initFrame := doHandshake(t, client, srv, otperr.OK)
	if initFrame.Type != OpInit || initFrame.Status != int32(otperr.OK) {
		t.Fatalf("unexpected INIT frame: %+v", initFrame)
	}
	if err := client.EnableMAC(initFrame.NumArg); err != nil {
		t.Fatalf("EnableMAC: %v", err)
	}

	roundTrip := func(req *Frame) *Frame {
		t.Helper()
		if err := client.WriteFrame(req); err != nil {
			t.Fatalf("write %s: %v", req.Type, err)
		}
		reply, err := client.ReadFrame()
		if err != nil {
			t.Fatalf("read reply to %s: %v", req.Type, err)
		}
		return reply
	}

	reply := roundTrip(&Frame{ProtocolVersion: ProtocolVersion, Type: OpUserSet, StrArg: "alice"})
	if reply.Status != int32(otperr.OK) {
		t.Fatalf("USER_SET status = %d", reply.Status)
	}

	reply = roundTrip(&Frame{ProtocolVersion: ProtocolVersion, Type: OpStateNew})
	if reply.Status != int32(otperr.OK) {
		t.Fatalf("STATE_NEW status = %d", reply.Status)
	}

	reply = roundTrip(&Frame{ProtocolVersion: ProtocolVersion, Type: OpKeyGenerate})
	if reply.Status != int32(otperr.OK) {
		t.Fatalf("KEY_GENERATE status = %d", reply.Status)
	}

	reply = roundTrip(&Frame{ProtocolVersion: ProtocolVersion, Type: OpGetPasscode})
	if reply.Status != int32(otperr.OK) || reply.StrArg == "" {
		t.Fatalf("GET_PASSCODE reply = %+v", reply)
	}
	passcode := reply.StrArg

	reply = roundTrip(&Frame{ProtocolVersion: ProtocolVersion, Type: OpAuthenticate, StrArg: passcode})
	if reply.Status != int32(otperr.OK) {
		t.Fatalf("AUTHENTICATE status = %d, want OK", reply.Status)
	}

	reply = roundTrip(&Frame{ProtocolVersion: ProtocolVersion, Type: OpStateStore})
	if reply.Status != int32(otperr.OK) {
		t.Fatalf("STATE_STORE status = %d", reply.Status)
	}

	close(done)
}

func TestAgentAuthenticateMismatchDoesNotAdvanceWithoutStore(t *testing.T) {
	client, srv, ms := newTestServer(t)
	ms.entries["bob"] = &ppp.State{Username: "bob", AlphabetID: 1, CodeLength: 4}

	go func() { _ = srv.Serve(make(chan struct{})) }()

	initFrame := doHandshake(t, client, srv, otperr.OK)
	_ = client.EnableMAC(initFrame.NumArg)

	send := func(req *Frame) *Frame {
		t.Helper()
		if err := client.WriteFrame(req); err != nil {
			t.Fatalf("write: %v", err)
		}
		reply, err := client.ReadFrame()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		return reply
	}

	if r := send(&Frame{ProtocolVersion: ProtocolVersion, Type: OpUserSet, StrArg: "bob"}); r.Status != int32(otperr.OK) {
		t.Fatalf("USER_SET failed: %d", r.Status)
	}
	if r := send(&Frame{ProtocolVersion: ProtocolVersion, Type: OpStateLoad}); r.Status != int32(otperr.OK) {
		t.Fatalf("STATE_LOAD failed: %d", r.Status)
	}
	r := send(&Frame{ProtocolVersion: ProtocolVersion, Type: OpAuthenticate, StrArg: "wrong"})
	if r.Status != int32(otperr.AuthMismatch) {
		t.Fatalf("AUTHENTICATE status = %d, want AuthMismatch", r.Status)
	}
	if !srv.state().Counter.IsZero() {
		t.Fatalf("in-memory counter advanced on a mismatch")
	}
	if !ms.entries["bob"].Counter.IsZero() {
		t.Fatalf("stored counter changed without STATE_STORE")
	}
}

func TestAgentRejectsProtocolMismatch(t *testing.T) {
	client, srv, _ := newTestServer(t)
	go func() { _ = srv.Serve(make(chan struct{})) }()

	doHandshake(t, client, srv, otperr.OK)

	reply := func() *Frame {
		if err := client.WriteFrame(&Frame{ProtocolVersion: ProtocolVersion + 1, Type: OpUserSet, StrArg: "x"}); err != nil {
			t.Fatalf("write: %v", err)
		}
		f, err := client.ReadFrame()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		return f
	}()
	if reply.Status != int32(otperr.AgentErrProtocolMismatch) {
		t.Fatalf("status = %d, want AgentErrProtocolMismatch", reply.Status)
	}
}

func TestAgentInitNotOKSkipsMAC(t *testing.T) {
	client, srv, _ := newTestServer(t)
	initFrame := doHandshake(t, client, srv, otperr.AgentErrInitConfiguration)
	if initFrame.Status != int32(otperr.AgentErrInitConfiguration) {
		t.Fatalf("status = %d, want AgentErrInitConfiguration", initFrame.Status)
	}
	if srv.conn.macKey != nil {
		t.Fatalf("frame MAC enabled after a failed INIT")
	}
}
