package ppp

import (
	"errors"

	"github.com/imclab/otpasswd/internal/alphabet"
	"github.com/imclab/otpasswd/internal/bignum"
	"github.com/imclab/otpasswd/internal/otpcrypto"
)

// ErrInvalidAlphabet is returned when an alphabet id or the configured
// custom alphabet cannot be resolved.
var ErrInvalidAlphabet = errors.New("ppp: invalid alphabet")

// ErrInvalidLength is returned when L is outside [2,16].
var ErrInvalidLength = errors.New("ppp: invalid passcode length")

const (
	MinCodeLength = 2
	MaxCodeLength = 16
)

// Derive computes the L-character passcode for counter C under key K and
// the given alphabet (spec §4.1). The counter is fed to the block cipher,
// and the cipher's output read back, little-endian: this matches the
// worked examples in spec.md §8, not its "big-endian" prose. It is
// deterministic and side-effect free; every intermediate buffer is zeroed
// before return on every exit path, including error paths.
func Derive(reg *alphabet.Registry, key bignum.Key256, counter bignum.Uint128, alphabetID int, length int) (string, error) {
	if length < MinCodeLength || length > MaxCodeLength {
		return "", ErrInvalidLength
	}
	a, err := reg.Lookup(alphabetID)
	if err != nil {
		return "", ErrInvalidAlphabet
	}
	n := uint32(len(a))

	keyBin := key.Bytes()
	defer bignum.ZeroBytes(keyBin[:])

	block := counter.BytesLE()
	defer bignum.ZeroBytes(block[:])

	cipherBin, err := otpcrypto.EncryptBlock(keyBin, block)
	if err != nil {
		return "", err
	}
	defer bignum.ZeroBytes(cipherBin[:])

	x := bignum.FromBytesLE(cipherBin)

	out := make([]byte, length)
	var r uint32
	for i := 0; i < length; i++ {
		x, r = x.DivModUint32(n)
		out[i] = a[r]
	}
	return string(out), nil
}
