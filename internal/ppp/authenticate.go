package ppp

import (
	"crypto/subtle"

	"github.com/imclab/otpasswd/internal/alphabet"
)

// AuthResult is the outcome of Authenticate.
type AuthResult int

const (
	AuthOK AuthResult = iota
	AuthMismatch
)

// Authenticate derives the expected passcode for s's current counter and
// compares it to user_input in constant time (spec §4.6). On success it
// clears recent_failures and advances the counter; on mismatch it bumps
// both failure counters and leaves the counter untouched. The counter
// advance happens here, in memory, before the caller's session façade
// persists it — this is what spec §4.6 means by "advanced before
// credential acceptance is returned to the host": by the time any
// reply reaches the caller, the in-memory state already reflects the
// next expected passcode.
func Authenticate(s *State, reg *alphabet.Registry, userInput string) (AuthResult, error) {
	expected, err := Derive(reg, s.Key, s.Counter, s.AlphabetID, s.CodeLength)
	if err != nil {
		return AuthMismatch, err
	}

	match := len(expected) == len(userInput) &&
		subtle.ConstantTimeCompare([]byte(expected), []byte(userInput)) == 1

	if match {
		s.RecentFailures = 0
		s.Counter, _ = s.Counter.AddUint64(1)
		return AuthOK, nil
	}

	s.Failures++
	if s.RecentFailures < maxFailureCount {
		s.RecentFailures++
	}
	return AuthMismatch, nil
}
