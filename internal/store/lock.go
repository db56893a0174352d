package store

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/gofrs/flock"
)

// ErrLockTimeout is returned when the sidecar lock could not be
// acquired within the bounded retry budget (spec §4.10, §5).
var ErrLockTimeout = errors.New("store: lock timeout")

const (
	lockAttempts    = 20
	lockRetryDelay  = 700 * time.Microsecond
	lockTotalBudget = lockAttempts * lockRetryDelay
)

// fileLock wraps a sidecar "<path>.lck" advisory write lock. gofrs/flock
// is used instead of hand-rolling syscall.Flock so the lock behaves
// correctly across platforms (spec §9 Design Notes: "document platform
// differences... do not close auxiliary descriptors to the lock file
// without releasing first").
type fileLock struct {
	path string
	fl   *flock.Flock
}

func newFileLock(statePath string) *fileLock {
	return &fileLock{path: statePath + ".lck", fl: flock.New(statePath + ".lck")}
}

// acquire takes the exclusive lock, retrying up to lockAttempts times
// spaced lockRetryDelay apart (total budget ~14ms).
func (l *fileLock) acquire() error {
	if err := l.ensureMode(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), lockTotalBudget)
	defer cancel()

	ok, err := l.fl.TryLockContext(ctx, lockRetryDelay)
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrLockTimeout
	}
	if err != nil {
		return err
	}
	if !ok {
		return ErrLockTimeout
	}
	return nil
}

// ensureMode creates the sidecar lock file with mode 0600 if it does not
// exist yet, and pins it to 0600 if it does, before flock ever opens it:
// gofrs/flock otherwise creates the file under the process umask (spec
// §4.10, §6: the sidecar is a 0600 file regardless of umask).
func (l *fileLock) ensureMode() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDONLY, 0o600)
	if err != nil {
		return err
	}
	if cerr := f.Close(); cerr != nil {
		return cerr
	}
	return os.Chmod(l.path, 0o600)
}

// release unlinks the sidecar file before releasing the lock, matching
// db_file_unlock's unlink-then-unlock ordering so a racing creator sees
// either the lock or a fresh file, never a stale unlocked one.
func (l *fileLock) release() error {
	unlinkErr := os.Remove(l.path)
	if unlinkErr != nil && !os.IsNotExist(unlinkErr) {
		// Still attempt to unlock; report the unlink failure if unlock
		// also succeeds, since losing track of a lock file is the more
		// recoverable of the two failures.
	}
	unlockErr := l.fl.Unlock()
	if unlockErr != nil {
		return unlockErr
	}
	if unlinkErr != nil && !os.IsNotExist(unlinkErr) {
		return unlinkErr
	}
	return nil
}
