/*
 * otpasswd - agent request dispatch.
 *
 * Copyright 2026, otpasswd authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package agent

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/imclab/otpasswd/internal/alphabet"
	"github.com/imclab/otpasswd/internal/bignum"
	"github.com/imclab/otpasswd/internal/otpcrypto"
	"github.com/imclab/otpasswd/internal/otperr"
	"github.com/imclab/otpasswd/internal/policy"
	"github.com/imclab/otpasswd/internal/ppp"
	"github.com/imclab/otpasswd/internal/session"
	"github.com/imclab/otpasswd/internal/store"
)

// NewBackend builds the StateStore to use for a given username; the
// agent binary wires this to either internal/store.NewUserBackend or
// internal/store.NewSystemBackend depending on its configured mode.
type NewBackend func(username string) (store.StateStore, error)

// Server holds everything one connection's worth of request dispatch
// needs: grounded on the teacher's emu/core/core.go "core" struct,
// which bundled its dispatch loop's mutable state (done channel,
// master channel, running flag) the same way this bundles a conn, a
// policy snapshot, and at most one loaded session (spec.md §4.12
// "a session holds at most one loaded state").
type Server struct {
	conn      *Conn
	newStore  NewBackend
	reg       *alphabet.Registry
	policyCfg policy.Config
	log       *slog.Logger

	username string
	sess     *session.Session
}

// NewServer builds a Server ready to run Serve on a freshly accepted
// connection.
func NewServer(conn *Conn, newStore NewBackend, reg *alphabet.Registry, cfg policy.Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{conn: conn, newStore: newStore, reg: reg, policyCfg: cfg, log: log}
}

// Handshake sends the INIT frame with the given init status and, on
// success, derives and installs the frame-integrity key from a fresh
// nonce (spec.md §4.12 "Startup handshake", SPEC_FULL.md §12.4).
func (s *Server) Handshake(initStatus otperr.Code) error {
	nonce, err := otpcrypto.RandomKey256()
	if err != nil {
		return err
	}
	var nonceWord bignum.Uint128
	if initStatus == otperr.OK {
		nonceWord = bignum.FromBytesBE([16]byte(nonce[:16]))
	}
	f := &Frame{
		ProtocolVersion: ProtocolVersion,
		Type:            OpInit,
		Status:          int32(initStatus),
		NumArg:          nonceWord,
	}
	if err := s.conn.WriteFrame(f); err != nil {
		return err
	}
	if initStatus == otperr.OK {
		return s.conn.EnableMAC(nonceWord)
	}
	return nil
}

// Serve reads and dispatches frames until a read or write fails or the
// caller-supplied done channel is closed. It returns ErrDisconnect on a
// dead or silent peer, any other read/write error as is, and nil when
// done is found closed between frames.
func (s *Server) Serve(done <-chan struct{}) error {
	defer s.cleanup()
	for {
		select {
		case <-done:
			return nil
		default:
		}

		req, err := s.conn.ReadFrame()
		if err != nil {
			return err
		}

		reply := s.dispatch(req)
		if werr := s.conn.WriteFrame(reply); werr != nil {
			return werr
		}
	}
}

func (s *Server) cleanup() {
	if s.sess != nil {
		_ = s.sess.Release(true)
		s.sess = nil
	}
}

func (s *Server) dispatch(req *Frame) *Frame {
	if req.ProtocolVersion != ProtocolVersion {
		return s.errorReply(req.Type, otperr.AgentErrProtocolMismatch)
	}

	switch req.Type {
	case OpUserSet:
		return s.handleUserSet(req)
	case OpStateNew:
		return s.handleStateNew(req)
	case OpStateLoad:
		return s.handleStateLoad(req)
	case OpStateStore:
		return s.handleStateStore(req)
	case OpStateDrop:
		return s.handleStateDrop(req)
	case OpKeyGenerate:
		return s.handleKeyGenerate(req)
	case OpKeyRemove:
		return s.handleKeyRemove(req)
	case OpFlagAdd:
		return s.handleFlagAdd(req)
	case OpFlagClear:
		return s.handleFlagClear(req)
	case OpFlagGet:
		return s.handleFlagGet(req)
	case OpGetNum:
		return s.handleGetNum(req)
	case OpGetInt:
		return s.handleGetInt(req)
	case OpGetStr:
		return s.handleGetStr(req)
	case OpGetAlphabet:
		return s.handleGetAlphabet(req)
	case OpSetInt:
		return s.handleSetInt(req)
	case OpSetStr:
		return s.handleSetStr(req)
	case OpSetSpass:
		return s.handleSetSpass(req)
	case OpGetWarnings:
		return s.handleGetWarnings(req)
	case OpGetPasscode:
		return s.handleGetPasscode(req)
	case OpGetPrompt:
		return s.handleGetPrompt(req)
	case OpAuthenticate:
		return s.handleAuthenticate(req)
	case OpSkip:
		return s.handleSkip(req)
	case OpUpdateLatest:
		return s.handleUpdateLatest(req)
	case OpClearRecentFailures:
		return s.handleClearRecentFailures(req)
	default:
		return s.errorReply(req.Type, otperr.AgentErrReq)
	}
}

func (s *Server) okReply(opcode Opcode) *Frame {
	return &Frame{ProtocolVersion: ProtocolVersion, Type: opcode, Status: int32(otperr.OK)}
}

func (s *Server) errorReply(opcode Opcode, code otperr.Code) *Frame {
	return &Frame{ProtocolVersion: ProtocolVersion, Type: opcode, Status: int32(code)}
}

func (s *Server) state() *ppp.State {
	if s.sess == nil {
		return nil
	}
	return s.sess.State()
}

func (s *Server) backend() (store.StateStore, error) {
	return s.newStore(s.username)
}

func (s *Server) handleUserSet(req *Frame) *Frame {
	if s.sess != nil {
		_ = s.sess.Release(true)
		s.sess = nil
	}
	s.username = req.StrArg
	return s.okReply(req.Type)
}

func (s *Server) handleStateNew(req *Frame) *Frame {
	if s.username == "" {
		return s.errorReply(req.Type, otperr.AgentErrReqArg)
	}
	if s.sess != nil {
		return s.errorReply(req.Type, otperr.AgentErrMustDropState)
	}

	backend, err := s.backend()
	if err != nil {
		return s.errorReply(req.Type, codeForError(err))
	}
	sess := session.New(backend, s.username)

	_, lerr := sess.Load(true)
	switch {
	case lerr == nil:
		s.sess = sess
		s.log.Info("state loaded for regeneration", "user", s.username)
		return s.okReply(req.Type)
	case errors.Is(lerr, store.ErrNonExistent), errors.Is(lerr, store.ErrNoUserEntry):
		if perr := policy.CheckKeyGeneration(s.policyCfg); perr != nil {
			return s.errorReply(req.Type, otperr.AgentErrPolicyGeneration)
		}
		fresh := &ppp.State{
			Username:   s.username,
			AlphabetID: s.policyCfg.AlphabetDef,
			CodeLength: s.policyCfg.PasscodeDefLength,
		}
		if cerr := sess.Create(fresh); cerr != nil {
			return s.errorReply(req.Type, codeForError(cerr))
		}
		s.sess = sess
		return s.okReply(req.Type)
	default:
		return s.errorReply(req.Type, codeForError(lerr))
	}
}

func (s *Server) handleStateLoad(req *Frame) *Frame {
	if s.username == "" {
		return s.errorReply(req.Type, otperr.AgentErrReqArg)
	}
	if s.sess != nil {
		return s.errorReply(req.Type, otperr.AgentErrMustDropState)
	}
	backend, err := s.backend()
	if err != nil {
		return s.errorReply(req.Type, codeForError(err))
	}
	sess := session.New(backend, s.username)
	if _, lerr := sess.Load(true); lerr != nil {
		return s.errorReply(req.Type, codeForError(lerr))
	}
	s.sess = sess
	return s.okReply(req.Type)
}

func (s *Server) handleStateStore(req *Frame) *Frame {
	if s.sess == nil {
		return s.errorReply(req.Type, otperr.AgentErrNoState)
	}
	err := s.sess.Release(false)
	s.sess = nil
	if err != nil {
		return s.errorReply(req.Type, codeForError(err))
	}
	return s.okReply(req.Type)
}

func (s *Server) handleStateDrop(req *Frame) *Frame {
	if s.sess == nil {
		return s.errorReply(req.Type, otperr.AgentErrNoState)
	}
	err := s.sess.Release(true)
	s.sess = nil
	if err != nil {
		return s.errorReply(req.Type, codeForError(err))
	}
	return s.okReply(req.Type)
}

func (s *Server) handleKeyGenerate(req *Frame) *Frame {
	state := s.state()
	if state == nil {
		return s.errorReply(req.Type, otperr.AgentErrNoState)
	}

	regenerating := !state.Key.IsZero()
	if regenerating {
		if perr := policy.CheckKeyRegeneration(s.policyCfg); perr != nil {
			return s.errorReply(req.Type, otperr.AgentErrPolicyRegeneration)
		}
	} else if perr := policy.CheckKeyGeneration(s.policyCfg); perr != nil {
		return s.errorReply(req.Type, otperr.AgentErrPolicyGeneration)
	}

	key, err := otpcrypto.RandomKey256()
	if err != nil {
		return s.errorReply(req.Type, otperr.StateIOError)
	}
	state.Key = bignum.Key256(key)
	state.Counter = bignum.Zero
	state.Failures = 0
	state.RecentFailures = 0

	salted := policy.ResolveSalt(s.policyCfg, req.IntArg != 0)
	show := policy.ResolveShow(s.policyCfg, req.IntArg2 != 0)
	state.Flags &^= ppp.FlagSalted | ppp.FlagNotSalted | ppp.FlagShow
	if salted {
		state.Flags |= ppp.FlagSalted
	} else {
		state.Flags |= ppp.FlagNotSalted
	}
	if show {
		state.Flags |= ppp.FlagShow
	}

	if err := ppp.Calculate(state); err != nil {
		return s.errorReply(req.Type, codeForError(err))
	}
	return s.okReply(req.Type)
}

func (s *Server) handleKeyRemove(req *Frame) *Frame {
	if s.sess == nil || s.state() == nil {
		return s.errorReply(req.Type, otperr.AgentErrNoState)
	}
	if perr := policy.CheckKeyRemoval(s.policyCfg); perr != nil {
		return s.errorReply(req.Type, otperr.AgentErrPolicy)
	}
	err := s.sess.Remove()
	s.sess = nil
	if err != nil {
		return s.errorReply(req.Type, codeForError(err))
	}
	return s.okReply(req.Type)
}

func (s *Server) handleFlagAdd(req *Frame) *Frame {
	state := s.state()
	if state == nil {
		return s.errorReply(req.Type, otperr.AgentErrNoState)
	}
	flag := ppp.Flags(req.IntArg)
	if flag&ppp.FlagDisabled != 0 {
		if perr := policy.CheckDisabling(s.policyCfg); perr != nil {
			return s.errorReply(req.Type, otperr.AgentErrPolicyDisabled)
		}
	}
	if flag&ppp.FlagSkip != 0 {
		if perr := policy.CheckSkipping(s.policyCfg); perr != nil {
			return s.errorReply(req.Type, otperr.AgentErrPolicy)
		}
	}
	state.Flags |= flag
	return s.okReply(req.Type)
}

func (s *Server) handleFlagClear(req *Frame) *Frame {
	state := s.state()
	if state == nil {
		return s.errorReply(req.Type, otperr.AgentErrNoState)
	}
	state.Flags &^= ppp.Flags(req.IntArg)
	return s.okReply(req.Type)
}

func (s *Server) handleFlagGet(req *Frame) *Frame {
	state := s.state()
	if state == nil {
		return s.errorReply(req.Type, otperr.AgentErrNoState)
	}
	reply := s.okReply(req.Type)
	reply.IntArg = int64(state.Flags)
	return reply
}

func (s *Server) handleGetNum(req *Frame) *Frame {
	state := s.state()
	if state == nil {
		return s.errorReply(req.Type, otperr.AgentErrNoState)
	}
	reply := s.okReply(req.Type)
	reply.NumArg = state.Counter
	return reply
}

func (s *Server) handleGetInt(req *Frame) *Frame {
	state := s.state()
	if state == nil {
		return s.errorReply(req.Type, otperr.AgentErrNoState)
	}
	reply := s.okReply(req.Type)
	switch IntField(req.IntArg) {
	case FieldCodeLength:
		reply.IntArg = int64(state.CodeLength)
	case FieldAlphabetID:
		reply.IntArg = int64(state.AlphabetID)
	case FieldFailures:
		reply.IntArg = int64(state.Failures)
	case FieldRecentFailures:
		reply.IntArg = int64(state.RecentFailures)
	case FieldChannelTime:
		reply.IntArg = state.ChannelTime
	case FieldLatestCard:
		reply.IntArg = int64(state.LatestCard.Lo)
	default:
		return s.errorReply(req.Type, otperr.AgentErrReqArg)
	}
	return reply
}

func (s *Server) handleGetStr(req *Frame) *Frame {
	state := s.state()
	if state == nil {
		return s.errorReply(req.Type, otperr.AgentErrNoState)
	}
	reply := s.okReply(req.Type)
	switch StrField(req.IntArg) {
	case FieldLabel:
		reply.StrArg = state.Label()
	case FieldContact:
		reply.StrArg = state.Contact
	default:
		return s.errorReply(req.Type, otperr.AgentErrReqArg)
	}
	return reply
}

func (s *Server) handleGetAlphabet(req *Frame) *Frame {
	state := s.state()
	if state == nil {
		return s.errorReply(req.Type, otperr.AgentErrNoState)
	}
	chars, err := s.reg.Lookup(state.AlphabetID)
	if err != nil {
		return s.errorReply(req.Type, otperr.AgentErrReqArg)
	}
	reply := s.okReply(req.Type)
	reply.StrArg = chars
	return reply
}

func (s *Server) handleSetInt(req *Frame) *Frame {
	state := s.state()
	if state == nil {
		return s.errorReply(req.Type, otperr.AgentErrNoState)
	}
	switch IntField(req.IntArg) {
	case FieldCodeLength:
		length := int(req.IntArg2)
		if perr := policy.CheckPasscodeLength(s.policyCfg, length); perr != nil {
			return s.errorReply(req.Type, otperr.AgentErrPolicy)
		}
		state.CodeLength = length
	case FieldAlphabetID:
		alphaLen, aerr := s.reg.Len(int(req.IntArg2))
		if aerr != nil {
			return s.errorReply(req.Type, otperr.AgentErrReqArg)
		}
		if perr := policy.CheckAlphabet(s.policyCfg, alphaLen); perr != nil {
			return s.errorReply(req.Type, otperr.AgentErrPolicy)
		}
		state.AlphabetID = int(req.IntArg2)
	default:
		return s.errorReply(req.Type, otperr.AgentErrReqArg)
	}
	if err := ppp.Calculate(state); err != nil {
		return s.errorReply(req.Type, codeForError(err))
	}
	return s.okReply(req.Type)
}

func (s *Server) handleSetStr(req *Frame) *Frame {
	state := s.state()
	if state == nil {
		return s.errorReply(req.Type, otperr.AgentErrNoState)
	}
	switch StrField(req.IntArg) {
	case FieldLabel:
		if perr := policy.CheckLabelChange(s.policyCfg); perr != nil {
			return s.errorReply(req.Type, otperr.AgentErrPolicy)
		}
		state.SetLabel(req.StrArg)
	case FieldContact:
		if perr := policy.CheckContactChange(s.policyCfg); perr != nil {
			return s.errorReply(req.Type, otperr.AgentErrPolicy)
		}
		state.Contact = req.StrArg
	default:
		return s.errorReply(req.Type, otperr.AgentErrReqArg)
	}
	return s.okReply(req.Type)
}

func (s *Server) handleSetSpass(req *Frame) *Frame {
	state := s.state()
	if state == nil {
		return s.errorReply(req.Type, otperr.AgentErrNoState)
	}
	if req.StrArg == "" {
		if perr := policy.CheckSpassChange(s.policyCfg); perr != nil {
			return s.errorReply(req.Type, otperr.AgentErrPolicy)
		}
		state.SpassSet = false
		state.Spass = [otpcrypto.SpassBlobLen]byte{}
		return s.okReply(req.Type)
	}

	bits := policy.ValidateSpass(s.policyCfg, req.StrArg)
	if bits != 0 {
		reply := s.errorReply(req.Type, otperr.AgentErrPolicy)
		reply.IntArg = int64(bits)
		return reply
	}

	blob, err := otpcrypto.HashSpass(req.StrArg)
	if err != nil {
		return s.errorReply(req.Type, otperr.StateIOError)
	}
	state.Spass = blob
	state.SpassSet = true
	return s.okReply(req.Type)
}

func (s *Server) handleGetWarnings(req *Frame) *Frame {
	state := s.state()
	if state == nil {
		return s.errorReply(req.Type, otperr.AgentErrNoState)
	}
	reply := s.okReply(req.Type)
	reply.IntArg = int64(ppp.Warnings(state))
	return reply
}

// handleGetPasscode derives the passcode for a caller-supplied persisted
// counter (original_source/libotp/ppp.c's agent_get_passcode: the caller
// always passes an explicit counter, typically the state's own, but a
// distinct value previews a future passcode without consuming it).
func (s *Server) handleGetPasscode(req *Frame) *Frame {
	state := s.state()
	if state == nil {
		return s.errorReply(req.Type, otperr.AgentErrNoState)
	}
	if perr := policy.CheckPasscodePrint(s.policyCfg); perr != nil {
		return s.errorReply(req.Type, otperr.AgentErrPolicy)
	}

	passcode, err := ppp.Derive(s.reg, state.Key, req.NumArg, state.AlphabetID, state.CodeLength)
	if err != nil {
		return s.errorReply(req.Type, otperr.AgentErr)
	}
	reply := s.okReply(req.Type)
	reply.StrArg = passcode
	return reply
}

// handleGetPrompt renders the "Passcode RRC [card]: " prompt for a
// caller-supplied counter (original_source/ppp.c's ppp_get_prompt),
// recomputing geometry against that counter without mutating state.Counter.
func (s *Server) handleGetPrompt(req *Frame) *Frame {
	state := s.state()
	if state == nil {
		return s.errorReply(req.Type, otperr.AgentErrNoState)
	}
	saved := state.Counter
	state.Counter = req.NumArg
	err := ppp.Calculate(state)
	state.Counter = saved
	if err != nil {
		return s.errorReply(req.Type, codeForError(err))
	}
	reply := s.okReply(req.Type)
	reply.StrArg = fmt.Sprintf("Passcode %2d%c [%s]: ", state.CurrentRow, state.CurrentCol, state.CurrentCard.HexLower())
	return reply
}

func (s *Server) handleAuthenticate(req *Frame) *Frame {
	state := s.state()
	if state == nil {
		return s.errorReply(req.Type, otperr.AgentErrNoState)
	}
	if state.Flags&ppp.FlagDisabled != 0 {
		reply := s.errorReply(req.Type, otperr.AuthMismatch)
		return reply
	}
	result, err := ppp.Authenticate(state, s.reg, req.StrArg)
	if err != nil {
		return s.errorReply(req.Type, otperr.AuthErr)
	}
	reply := s.okReply(req.Type)
	if result == ppp.AuthMismatch {
		reply.Status = int32(otperr.AuthMismatch)
	}
	return reply
}

func (s *Server) handleSkip(req *Frame) *Frame {
	state := s.state()
	if state == nil {
		return s.errorReply(req.Type, otperr.AgentErrNoState)
	}
	if perr := policy.CheckSkipping(s.policyCfg); perr != nil {
		return s.errorReply(req.Type, otperr.AgentErrPolicy)
	}
	if err := ppp.Skip(state, req.NumArg); err != nil {
		return s.errorReply(req.Type, codeForError(err))
	}
	return s.okReply(req.Type)
}

func (s *Server) handleUpdateLatest(req *Frame) *Frame {
	state := s.state()
	if state == nil {
		return s.errorReply(req.Type, otperr.AgentErrNoState)
	}
	ppp.UpdateLatestCard(state, req.NumArg)
	return s.okReply(req.Type)
}

func (s *Server) handleClearRecentFailures(req *Frame) *Frame {
	state := s.state()
	if state == nil {
		return s.errorReply(req.Type, otperr.AgentErrNoState)
	}
	state.RecentFailures = 0
	return s.okReply(req.Type)
}
