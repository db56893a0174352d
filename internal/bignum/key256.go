/*
 * otpasswd - 256-bit sequence key container.
 *
 * Copyright 2026, otpasswd authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package bignum

import (
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// Key256 is the 256-bit sequence key container. It is always zeroed
// before being dropped (see Zero), since it is the single secret that
// the whole passcode sequence for a user derives from.
type Key256 [32]byte

// FromBytes32 copies b into a new Key256.
func FromBytes32(b [32]byte) Key256 {
	return Key256(b)
}

// Bytes returns the raw 32-byte key. Callers that retain the result are
// responsible for zeroing it when done.
func (k Key256) Bytes() [32]byte {
	return [32]byte(k)
}

// HexUpper renders the key as 64 upper-case hex digits, the fixed-case
// convention the persistence format uses for keys (§4.10).
func (k Key256) HexUpper() string {
	return strings.ToUpper(hex.EncodeToString(k[:]))
}

// KeyFromHex parses exactly 64 hex digits into a Key256.
func KeyFromHex(s string) (Key256, error) {
	if len(s) != 64 {
		return Key256{}, ErrParse
	}
	var k Key256
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Key256{}, ErrParse
	}
	copy(k[:], raw)
	return k, nil
}

// Equal compares two keys in constant time.
func (k Key256) Equal(other Key256) bool {
	return subtle.ConstantTimeCompare(k[:], other[:]) == 1
}

// IsZero reports whether k is the all-zero key, the sentinel value for
// "no key generated yet" on a freshly created state.
func (k Key256) IsZero() bool {
	return k.Equal(Key256{})
}

// Zero overwrites k's backing array with zero bytes. Callers must pass a
// pointer; zeroing a copy is a no-op by construction.
func (k *Key256) Zero() {
	for i := range k {
		k[i] = 0
	}
}

// ZeroBytes overwrites an arbitrary secret-carrying byte slice in place.
// Used for the transient key_bin/cnt_bin/cipher_bin buffers of §4.1,
// which must be scrubbed on every exit path including errors.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
