package agent

import (
	"errors"

	"github.com/imclab/otpasswd/internal/otperr"
	"github.com/imclab/otpasswd/internal/ppp"
	"github.com/imclab/otpasswd/internal/session"
	"github.com/imclab/otpasswd/internal/store"
)

// codeForError maps an internal sentinel error to the wire-visible
// status code (spec.md §6-7's error taxonomy, internal/otperr.Code).
// Unrecognized errors fall back to the generic AgentErr.
func codeForError(err error) otperr.Code {
	switch {
	case err == nil:
		return otperr.OK
	case errors.Is(err, store.ErrNonExistent):
		return otperr.StateNonExistent
	case errors.Is(err, store.ErrNoUserHome):
		return otperr.StateNoUserHome
	case errors.Is(err, store.ErrNoUserEntry):
		return otperr.StateNoUserEntry
	case errors.Is(err, store.ErrIOError):
		return otperr.StateIOError
	case errors.Is(err, store.ErrDuplicateUser):
		return otperr.StateParseError
	case errors.Is(err, store.ErrParse):
		return otperr.StateParseError
	case errors.Is(err, store.ErrLockTimeout):
		return otperr.StateLockError
	case errors.Is(err, ppp.ErrNumspace):
		return otperr.StateNumspace
	case errors.Is(err, session.ErrDisabled):
		return otperr.AgentErrPolicyDisabled
	case errors.Is(err, ppp.ErrConcurrentModification):
		return otperr.StateLockError
	default:
		return otperr.AgentErr
	}
}
