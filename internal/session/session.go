/*
 * otpasswd - session façade: lock/load/verify and store/unlock.
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

// Package session implements the two operations every agent request is
// built from: acquiring a user's state under lock and verifying it is
// usable, and releasing it back (storing a mutation or not) while
// always attempting to drop the lock. Everything above this layer
// (the agent's opcode handlers) works with a *Session and never touches
// internal/store directly.
package session

import (
	"errors"

	"github.com/imclab/otpasswd/internal/ppp"
	"github.com/imclab/otpasswd/internal/store"
)

// ErrDisabled is returned by Load when the loaded state carries
// FlagDisabled. Authentication against a disabled state is treated the
// same as a passcode mismatch to an external caller (the agent replies
// AUTH_MISMATCH either way); internally the distinct error lets
// callers of the session layer tell the two apart.
var ErrDisabled = errors.New("session: state is disabled")

// Session holds exactly one loaded state, owned by the caller until
// Release. It is not safe for concurrent use.
type Session struct {
	store    store.StateStore
	username string
	state    *ppp.State
	locked   bool
}

// New wraps a backend for a given username. No I/O happens until Load.
func New(backend store.StateStore, username string) *Session {
	return &Session{store: backend, username: username}
}

// State returns the currently loaded state, or nil if none is loaded.
func (sess *Session) State() *ppp.State {
	return sess.state
}

// Load runs permissions → lock → load → ppp_calculate → verify_range.
// On any failure after the lock is acquired, it unlocks before
// returning. allowDisabled lets callers that specifically manage the
// DISABLED flag (e.g. re-enabling it) load a disabled state without
// the ErrDisabled short-circuit; Authenticate passes true and checks
// the flag itself.
func (sess *Session) Load(allowDisabled bool) (*ppp.State, error) {
	if err := sess.store.Permissions(); err != nil {
		return nil, err
	}
	if err := sess.store.Lock(); err != nil {
		return nil, err
	}
	sess.locked = true

	s, err := sess.store.Load(sess.username)
	if err != nil {
		sess.unlockBestEffort()
		return nil, err
	}

	if err := ppp.VerifyRange(s); err != nil {
		s.Zero()
		sess.unlockBestEffort()
		return nil, err
	}

	if !allowDisabled && s.Flags&ppp.FlagDisabled != 0 {
		s.Zero()
		sess.unlockBestEffort()
		return nil, ErrDisabled
	}

	sess.state = s
	return s, nil
}

// Release stores the held state (unless drop is true, which discards
// the mutation without writing) and always attempts to release the
// lock, even if the store fails. It returns the store error if the
// store failed, otherwise the unlock error; an unlock failure that
// follows a store failure is not reported.
func (sess *Session) Release(drop bool) error {
	if sess.state == nil {
		return nil
	}
	defer sess.state.Zero()

	var storeErr error
	if !drop {
		storeErr = sess.store.Store(sess.username, sess.state, false)
	}
	sess.state = nil

	unlockErr := sess.unlockBestEffort()
	if storeErr != nil {
		return storeErr
	}
	return unlockErr
}

// Create acquires permissions and the lock, then installs s as the held
// state directly, bypassing Load. Used by STATE_NEW when no entry
// exists yet for the username: there is nothing to load, but the lock
// must still be held until the caller's next STATE_STORE/STATE_DROP.
func (sess *Session) Create(s *ppp.State) error {
	if err := sess.store.Permissions(); err != nil {
		return err
	}
	if err := sess.store.Lock(); err != nil {
		return err
	}
	sess.locked = true
	sess.state = s
	return nil
}

// Remove deletes the user's entry entirely (spec.md's `otpasswd -r`
// path) rather than storing a mutated copy, then releases the lock.
func (sess *Session) Remove() error {
	if sess.state == nil {
		return nil
	}
	defer sess.state.Zero()

	storeErr := sess.store.Store(sess.username, sess.state, true)
	sess.state = nil

	unlockErr := sess.unlockBestEffort()
	if storeErr != nil {
		return storeErr
	}
	return unlockErr
}

func (sess *Session) unlockBestEffort() error {
	if !sess.locked {
		return nil
	}
	sess.locked = false
	return sess.store.Unlock()
}
