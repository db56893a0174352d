/*
 * otpasswd - wire-protocol status/error code taxonomy.
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

// Package otperr carries the stable numeric status/error taxonomy of
// spec.md §6-7, so that agent replies and other callers can switch on a
// fixed Code instead of string-matching sentinel errors. Every layer
// still returns its own Go sentinel errors for local handling; Code
// exists only where a stable wire-visible number is needed.
package otperr

// Code is a negative-on-error, zero-on-success status code.
type Code int32

const (
	OK Code = 0

	// State store errors.
	StateNoMem        Code = -1
	StateLockError    Code = -2
	StateNonExistent  Code = -3
	StateIOError      Code = -4
	StateNumspace     Code = -5
	StateParseError   Code = -6
	StateNoUserEntry  Code = -7
	StateNoSuchUser   Code = -8
	StateNoUserHome   Code = -9
	StateDoesntExists Code = -10

	// Agent/protocol errors.
	AgentErr                  Code = -20
	AgentErrReq               Code = -21
	AgentErrReqArg            Code = -22
	AgentErrInitExecutable    Code = -23
	AgentErrInitConfiguration Code = -24
	AgentErrInitPrivileges    Code = -25
	AgentErrInitEmergency     Code = -26
	AgentErrMemory            Code = -27
	AgentErrServerInit        Code = -28
	AgentErrProtocolMismatch  Code = -29
	AgentErrDisconnect        Code = -30

	// Policy errors.
	AgentErrPolicy             Code = -40
	AgentErrPolicyRegeneration Code = -41
	AgentErrPolicyGeneration   Code = -42
	AgentErrPolicyDisabled     Code = -43
	AgentErrPolicySalt         Code = -44
	AgentErrPolicyShow         Code = -45

	// Session-state errors.
	AgentErrMustCreateState Code = -50
	AgentErrMustDropState   Code = -51
	AgentErrNoState         Code = -52

	// Authentication outcome.
	AuthMismatch Code = -60
	AuthErr      Code = -61
)

// SpassBit is one bit of the static-password validation bitset
// (SPEC_FULL.md §12.2).
type SpassBit uint32

const (
	SpassErrShort SpassBit = 1 << iota
	SpassErrNoDigits
	SpassErrNoUppercase
	SpassErrNoSpecial
	SpassErrIllegalCharacter
	SpassErrNonASCII
	SpassErrPolicy
	SpassSet
	SpassUnset
)

// Warning is the informational warning bitset surfaced alongside a
// state (spec.md §6, mirrors internal/ppp.Warning numerically so the
// agent wire format and the engine agree on bit positions).
type Warning uint32

const (
	WarnLastCard Warning = 1 << iota
	WarnNothingLeft
	WarnRecentFailures
)
