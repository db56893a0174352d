package otpcrypto

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for the static-password verifier hash. time mirrors
// the constant occlude's OPRF wrapper uses; memory is raised to a more
// conventional single-hash working set since this isn't wrapping an OPRF
// output.
const (
	spassArgonTime    = 3
	spassArgonMemory  = 64 * 1024
	spassArgonThreads = 4
	spassSaltLen      = 8
	spassHashLen      = 32
	SpassBlobLen      = spassSaltLen + spassHashLen
)

// ErrBadSpassBlob is returned when a stored spass blob isn't exactly
// SpassBlobLen bytes.
var ErrBadSpassBlob = errors.New("otpcrypto: malformed spass blob")

// HashSpass derives the 40-byte (salt || hash) blob stored as the spass
// field (spec §3 "Static password (spass)", resolved concretely in
// SPEC_FULL.md §12.1).
func HashSpass(password string) ([SpassBlobLen]byte, error) {
	var blob [SpassBlobLen]byte
	salt, err := RandomBytes(spassSaltLen)
	if err != nil {
		return blob, err
	}
	copy(blob[:spassSaltLen], salt)
	h := argon2.IDKey([]byte(password), salt, spassArgonTime, spassArgonMemory, spassArgonThreads, spassHashLen)
	copy(blob[spassSaltLen:], h)
	return blob, nil
}

// VerifySpass checks password against a stored 40-byte blob in constant
// time.
func VerifySpass(password string, blob [SpassBlobLen]byte) bool {
	salt := blob[:spassSaltLen]
	want := blob[spassSaltLen:]
	got := argon2.IDKey([]byte(password), salt, spassArgonTime, spassArgonMemory, spassArgonThreads, spassHashLen)
	return subtle.ConstantTimeCompare(got, want) == 1
}
