package store

import (
	"os"
	"path/filepath"
)

// atomicWriteFile writes data to "<path>.tmp", fsyncs it, and renames it
// over path, preserving mode. On any failure before the rename the tmp
// file is removed so a failed write never leaves a stray fragment
// (spec §4.10 "Atomic write", §8 property 6).
func atomicWriteFile(path string, data []byte, mode os.FileMode) (err error) {
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err = f.Write(data); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return err
	}
	return nil
}

// ensureDir makes sure the parent directory of path exists; used by the
// system-wide backend whose containing directory is a fixed, policy-
// owned location (spec §4.10 "System-wide backend").
func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o700)
}
