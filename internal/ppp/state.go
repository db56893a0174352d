/*
 * otpasswd - in-memory OTP state value.
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

// Package ppp implements the core OTP engine: passcode derivation,
// passcard geometry, warnings, range verification, authentication, and
// counter advancement. It operates purely on the in-memory State value;
// persistence and locking live in internal/store and internal/session.
package ppp

import (
	"os"

	"github.com/imclab/otpasswd/internal/otpcrypto"

	"github.com/imclab/otpasswd/internal/bignum"
)

// Flags is the bitset of per-user OTP state flags (spec §3 "Flags").
type Flags uint32

const (
	FlagShow Flags = 1 << iota
	FlagSkip
	FlagAlphabetExtended // legacy; superseded by the AlphabetID field
	FlagSalted
	FlagNotSalted
	FlagDisabled
)

// SaltMask and CodeMask partition a 128-bit counter when FlagSalted is
// set: the high 64 bits are the per-user salt offset, the low 64 bits
// identify the card/row/column (spec §3 "Salt policy").
var (
	SaltMask = bignum.Uint128{Hi: ^uint64(0), Lo: 0}
	CodeMask = bignum.Uint128{Hi: 0, Lo: ^uint64(0)}
)

const (
	maxFailureCount = 1_000_000_000 - 1
)

// State is the in-memory representation of one user's OTP state.
type State struct {
	Username string

	Key     bignum.Key256
	Counter bignum.Uint128

	Flags      Flags
	AlphabetID int
	CodeLength int

	LatestCard bignum.Uint128

	Failures       uint64
	RecentFailures uint64
	ChannelTime    int64

	SpassSet  bool
	Spass     [otpcrypto.SpassBlobLen]byte
	SpassTime int64

	label   string
	Contact string

	// Geometry cache, recomputed by Calculate after counter/length
	// changes (spec §3 "Card geometry").
	CodesInRow  int
	CodesOnCard int
	CurrentCard bignum.Uint128
	CurrentRow  int
	CurrentCol  byte
	MaxCard     bignum.Uint128
	MaxCode     bignum.Uint128
}

// Label returns the stored label, or the local hostname if none was set
// (original_source/src/state.h: "Card label (might be zeroed, then
// hostname is used)", supplemented per SPEC_FULL.md §12.3).
func (s *State) Label() string {
	if s.label != "" {
		return s.label
	}
	host, err := os.Hostname()
	if err != nil {
		return ""
	}
	return host
}

// SetLabel stores an explicit label, overriding the hostname fallback.
func (s *State) SetLabel(label string) {
	s.label = label
}

// Salted reports whether the SALTED flag is set.
func (s *State) Salted() bool {
	return s.Flags&FlagSalted != 0
}

// Zero scrubs every secret-carrying field of s. Called on every release
// path, successful or not (spec §5 "Shared-resource policy").
func (s *State) Zero() {
	s.Key.Zero()
	s.Counter = bignum.Zero
	for i := range s.Spass {
		s.Spass[i] = 0
	}
}
