/*
 * otpasswd - agent wire protocol opcodes.
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

// Package agent implements the privileged agent's binary request/reply
// protocol (spec.md §4.12): a fixed-size header, a bounded opcode set,
// and a server dispatch loop that holds at most one loaded state per
// connection.
package agent

// Opcode identifies a single request/reply pair on the wire.
type Opcode uint16

const (
	OpInit Opcode = iota + 1
	OpUserSet
	OpStateNew
	OpStateLoad
	OpStateStore
	OpStateDrop
	OpKeyGenerate
	OpKeyRemove
	OpFlagAdd
	OpFlagClear
	OpFlagGet
	OpGetNum
	OpGetInt
	OpGetStr
	OpGetAlphabet
	OpSetInt
	OpSetStr
	OpSetSpass
	OpGetWarnings
	OpGetPasscode
	OpGetPrompt
	OpAuthenticate
	OpSkip
	OpUpdateLatest
	OpClearRecentFailures
)

// String gives a human-readable name for logging.
func (op Opcode) String() string {
	switch op {
	case OpInit:
		return "INIT"
	case OpUserSet:
		return "USER_SET"
	case OpStateNew:
		return "STATE_NEW"
	case OpStateLoad:
		return "STATE_LOAD"
	case OpStateStore:
		return "STATE_STORE"
	case OpStateDrop:
		return "STATE_DROP"
	case OpKeyGenerate:
		return "KEY_GENERATE"
	case OpKeyRemove:
		return "KEY_REMOVE"
	case OpFlagAdd:
		return "FLAG_ADD"
	case OpFlagClear:
		return "FLAG_CLEAR"
	case OpFlagGet:
		return "FLAG_GET"
	case OpGetNum:
		return "GET_NUM"
	case OpGetInt:
		return "GET_INT"
	case OpGetStr:
		return "GET_STR"
	case OpGetAlphabet:
		return "GET_ALPHABET"
	case OpSetInt:
		return "SET_INT"
	case OpSetStr:
		return "SET_STR"
	case OpSetSpass:
		return "SET_SPASS"
	case OpGetWarnings:
		return "GET_WARNINGS"
	case OpGetPasscode:
		return "GET_PASSCODE"
	case OpGetPrompt:
		return "GET_PROMPT"
	case OpAuthenticate:
		return "AUTHENTICATE"
	case OpSkip:
		return "SKIP"
	case OpUpdateLatest:
		return "UPDATE_LATEST"
	case OpClearRecentFailures:
		return "CLEAR_RECENT_FAILURES"
	default:
		return "UNKNOWN"
	}
}

// IntField identifies which State integer field GET_INT/SET_INT act on.
type IntField int32

const (
	FieldCodeLength IntField = iota + 1
	FieldAlphabetID
	FieldFailures
	FieldRecentFailures
	FieldChannelTime
	FieldLatestCard
)

// StrField identifies which State string field GET_STR/SET_STR act on.
type StrField int32

const (
	FieldLabel StrField = iota + 1
	FieldContact
)

// ProtocolVersion is the wire format version this build speaks; a
// mismatch at INIT is AGENT_ERR_PROTOCOL_MISMATCH.
const ProtocolVersion uint16 = 1
