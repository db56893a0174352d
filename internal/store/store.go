package store

import (
	"errors"
	"os"
	"strings"

	"github.com/imclab/otpasswd/internal/ppp"
)

// Sentinel errors for the StateStore contract (spec §4.10 "Common
// contract").
var (
	ErrNonExistent = errors.New("store: state file does not exist")
	ErrNoUserHome  = errors.New("store: user has no home directory")
	ErrNoUserEntry = errors.New("store: no entry for user")
	ErrIOError     = errors.New("store: i/o error")
)

// StateStore is the persistence driver contract: permission check,
// lock, load entry, store entry, remove entry, unlock (spec §4.10).
type StateStore interface {
	Permissions() error
	Lock() error
	Unlock() error
	Load(username string) (*ppp.State, error)
	Store(username string, s *ppp.State, remove bool) error
}

// fileBackend implements the line-oriented flat-file format shared by
// both the per-user and system-wide backends; only path resolution and
// Permissions() differ between them.
type fileBackend struct {
	path string
	lock *fileLock
}

func newFileBackend(path string) *fileBackend {
	return &fileBackend{path: path, lock: newFileLock(path)}
}

func (b *fileBackend) Lock() error   { return b.lock.acquire() }
func (b *fileBackend) Unlock() error { return b.lock.release() }

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ErrIOError
	}
	trimmed := strings.TrimRight(string(data), "\n")
	if trimmed == "" {
		return nil, nil
	}
	return strings.Split(trimmed, "\n"), nil
}

// Load scans the file line by line for username (spec §4.10
// "Find-by-username"); a second match is a parse error (duplicate
// entry), never silently resolved.
func (b *fileBackend) Load(username string) (*ppp.State, error) {
	lines, err := readLines(b.path)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		return nil, ErrNonExistent
	}

	var found *ppp.State
	for _, line := range lines {
		s, err := DecodeEntry(line)
		if err != nil {
			return nil, err
		}
		if s.Username != username {
			continue
		}
		if found != nil {
			return nil, ErrDuplicateUser
		}
		found = s
	}
	if found == nil {
		return nil, ErrNoUserEntry
	}
	return found, nil
}

// Store rewrites the file: every non-matching line streams through
// verbatim, and the caller's entry replaces (or, if remove is set,
// deletes) the matching one. The whole result is written atomically
// (spec §4.10 "Atomic write").
func (b *fileBackend) Store(username string, s *ppp.State, remove bool) error {
	lines, err := readLines(b.path)
	if err != nil {
		return err
	}

	out := make([]string, 0, len(lines)+1)
	matched := false
	for _, line := range lines {
		existing, derr := DecodeEntry(line)
		if derr != nil {
			return derr
		}
		if existing.Username == username {
			if matched {
				return ErrDuplicateUser
			}
			matched = true
			continue
		}
		out = append(out, line)
	}

	if !remove {
		encoded, err := EncodeEntry(s)
		if err != nil {
			return err
		}
		out = append(out, encoded)
	}

	var content strings.Builder
	for _, line := range out {
		content.WriteString(line)
		content.WriteByte('\n')
	}

	mode := os.FileMode(0o600)
	if fi, err := os.Stat(b.path); err == nil {
		mode = fi.Mode()
	}
	if err := atomicWriteFile(b.path, []byte(content.String()), mode); err != nil {
		return ErrIOError
	}
	return nil
}
