/*
 * otpasswd - crypto primitives for passcode derivation.
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

// Package otpcrypto implements the crypto primitives the passcode engine
// is built on: a single-block AES-256-ECB encryption used by the
// derivation function, SHA-256, an OS-backed random byte source, and the
// static-password (spass) hashing scheme.
package otpcrypto

import (
	"crypto/aes"
	"crypto/rand"
	"crypto/sha256"
	"errors"
)

// ErrBadKeyLength is returned when a key is not exactly 32 bytes.
var ErrBadKeyLength = errors.New("otpcrypto: key must be 32 bytes")

// EncryptBlock performs a single-block AES-256-ECB encryption of block
// under key. This is the only mode the derivation function (spec §4.1)
// ever needs: exactly one 16-byte block, never chained, so there is no
// IV and no padding to get wrong.
func EncryptBlock(key [32]byte, block [16]byte) ([16]byte, error) {
	c, err := aes.NewCipher(key[:])
	if err != nil {
		return [16]byte{}, err
	}
	var out [16]byte
	c.Encrypt(out[:], block[:])
	return out, nil
}

// SHA256 returns the SHA-256 digest of data.
func SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// RandomBytes fills and returns n cryptographically random bytes drawn
// from the OS entropy source.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// RandomKey256 generates a fresh 256-bit sequence key.
func RandomKey256() ([32]byte, error) {
	var k [32]byte
	if _, err := rand.Read(k[:]); err != nil {
		return [32]byte{}, err
	}
	return k, nil
}
