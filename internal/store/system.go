package store

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"

	"github.com/imclab/otpasswd/internal/ppp"
)

// ErrWrongOwner is returned when the system-wide state file or its
// containing directory isn't owned by the configured service uid.
var ErrWrongOwner = errors.New("store: wrong owner")

// ErrWorldWritable is returned when the system-wide state file or its
// containing directory is writable by group or others.
var ErrWorldWritable = errors.New("store: writable by group or others")

const defaultSystemStatePath = "/etc/otpasswd/otshadow"

// SystemBackend is the single system-wide backend (spec §4.10
// "System-wide backend"). ServiceUID identifies the unprivileged
// account the agent normally runs as; after a write performed while
// running as root, the file is chowned back to it.
type SystemBackend struct {
	*fileBackend
	ServiceUID int
}

// NewSystemBackend builds a backend rooted at path (typically
// defaultSystemStatePath), creating the containing directory if it
// doesn't exist yet.
func NewSystemBackend(path string, serviceUID int) (*SystemBackend, error) {
	if path == "" {
		path = defaultSystemStatePath
	}
	if err := ensureDir(path); err != nil {
		return nil, ErrIOError
	}
	return &SystemBackend{fileBackend: newFileBackend(path), ServiceUID: serviceUID}, nil
}

// Permissions enforces spec §4.10's system-wide ownership and
// write-bit rules on both the containing directory and the state file
// itself, when the file already exists.
func (b *SystemBackend) Permissions() error {
	dir := filepath.Dir(b.path)
	dfi, err := os.Stat(dir)
	if err != nil {
		return ErrIOError
	}
	if err := checkOwnerAndMode(dfi, b.ServiceUID); err != nil {
		return err
	}

	fi, err := os.Stat(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return ErrIOError
	}
	if !fi.Mode().IsRegular() {
		return ErrNotRegularFile
	}
	return checkOwnerAndMode(fi, b.ServiceUID)
}

// Store performs the normal atomic write then, if running as root,
// chowns the result back to ServiceUID (spec §4.10: "If the agent runs
// as root, it MUST chown back to the service uid after write").
func (b *SystemBackend) Store(username string, s *ppp.State, remove bool) error {
	if err := b.fileBackend.Store(username, s, remove); err != nil {
		return err
	}
	if os.Geteuid() == 0 {
		if err := os.Chown(b.path, b.ServiceUID, -1); err != nil {
			return ErrIOError
		}
	}
	return nil
}

func checkOwnerAndMode(fi os.FileInfo, serviceUID int) error {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		if int(st.Uid) != serviceUID {
			return ErrWrongOwner
		}
	}
	if fi.Mode().Perm()&0o022 != 0 {
		return ErrWorldWritable
	}
	return nil
}
