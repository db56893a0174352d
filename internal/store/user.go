package store

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNotRegularFile is returned when the target path exists but is not
// a regular file (a symlink, device, or directory).
var ErrNotRegularFile = errors.New("store: not a regular file")

const userStateFileName = ".otpasswd"

// UserBackend is the per-user backend: a file at $HOME/.otpasswd (spec
// §4.10 "Per-user backend").
type UserBackend struct {
	*fileBackend
}

// NewUserBackend resolves the per-user state file path for the calling
// process's HOME and returns a ready-to-use backend.
func NewUserBackend() (*UserBackend, error) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return nil, ErrNoUserHome
	}
	path := filepath.Join(home, userStateFileName)
	return &UserBackend{fileBackend: newFileBackend(path)}, nil
}

// Permissions checks that an existing state file is a regular file. A
// missing file is not an error here — first-time key generation creates
// it. The home directory path comes from os.UserHomeDir at construction;
// whether that directory exists is not checked. World/group write bits
// are not checked either, since in the SUID agent model the home
// directory's owner may legitimately differ from the effective uid.
func (b *UserBackend) Permissions() error {
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
	return nil
}
