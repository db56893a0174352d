package session

import (
	"github.com/imclab/otpasswd/internal/alphabet"
	"github.com/imclab/otpasswd/internal/ppp"
	"github.com/imclab/otpasswd/internal/store"
)

// Authenticate runs the full common path (spec.md's data-flow
// paragraph): load under lock, compare the passcode, persist the
// resulting counter/failure-count mutation, and unlock — regardless of
// outcome, since both a match and a mismatch mutate state that must be
// saved. A state carrying FlagDisabled is rejected as AuthMismatch
// without deriving a passcode, so a disabled account is
// indistinguishable from a wrong one to the caller.
func Authenticate(backend store.StateStore, reg *alphabet.Registry, username, userInput string) (ppp.AuthResult, error) {
	sess := New(backend, username)

	s, err := sess.Load(true)
	if err != nil {
		return ppp.AuthMismatch, err
	}

	if s.Flags&ppp.FlagDisabled != 0 {
		if relErr := sess.Release(true); relErr != nil {
			return ppp.AuthMismatch, relErr
		}
		return ppp.AuthMismatch, ErrDisabled
	}

	result, authErr := ppp.Authenticate(s, reg, userInput)

	if relErr := sess.Release(false); relErr != nil {
		return result, relErr
	}
	return result, authErr
}
