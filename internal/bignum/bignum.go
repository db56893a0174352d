/*
 * otpasswd - 128-bit counter / card-index arithmetic.
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

// Package bignum implements the fixed 128-bit unsigned integer every
// counter, salt mask and card index flows through, plus the 256-bit
// container for the sequence key. It replaces the GMP dependency of the
// original C implementation with a purpose-built schoolbook type that
// only supports the operations the engine actually needs.
package bignum

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrOverflow is returned when an operation would not fit in 128 bits.
var ErrOverflow = errors.New("bignum: overflow")

// ErrParse is returned when a hex string cannot be decoded into a Uint128.
var ErrParse = errors.New("bignum: parse error")

// Uint128 is an unsigned 128-bit integer stored as two big-endian halves.
// The zero value is zero.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

// Zero is the additive identity.
var Zero = Uint128{}

// FromUint64 builds a Uint128 from a machine word.
func FromUint64(v uint64) Uint128 {
	return Uint128{Lo: v}
}

// FromBytesBE decodes a 16-byte big-endian buffer. The conversion makes no
// data-dependent branches, so it runs in constant time regardless of value.
func FromBytesBE(b [16]byte) Uint128 {
	return Uint128{
		Hi: binary.BigEndian.Uint64(b[0:8]),
		Lo: binary.BigEndian.Uint64(b[8:16]),
	}
}

// BytesBE encodes u as a 16-byte big-endian buffer.
func (u Uint128) BytesBE() [16]byte {
	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], u.Hi)
	binary.BigEndian.PutUint64(b[8:16], u.Lo)
	return b
}

// FromBytesLE decodes a 16-byte little-endian buffer, the convention the
// passcode generator feeds to and reads back from the block cipher.
func FromBytesLE(b [16]byte) Uint128 {
	return Uint128{
		Lo: binary.LittleEndian.Uint64(b[0:8]),
		Hi: binary.LittleEndian.Uint64(b[8:16]),
	}
}

// BytesLE encodes u as a 16-byte little-endian buffer.
func (u Uint128) BytesLE() [16]byte {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[0:8], u.Lo)
	binary.LittleEndian.PutUint64(b[8:16], u.Hi)
	return b
}

// IsZero reports whether u is zero.
func (u Uint128) IsZero() bool {
	return u.Hi == 0 && u.Lo == 0
}

// Cmp returns -1, 0 or 1 as u is less than, equal to, or greater than v.
func (u Uint128) Cmp(v Uint128) int {
	switch {
	case u.Hi < v.Hi:
		return -1
	case u.Hi > v.Hi:
		return 1
	case u.Lo < v.Lo:
		return -1
	case u.Lo > v.Lo:
		return 1
	default:
		return 0
	}
}

// Add returns u+v mod 2^128.
func (u Uint128) Add(v Uint128) Uint128 {
	lo := u.Lo + v.Lo
	carry := uint64(0)
	if lo < u.Lo {
		carry = 1
	}
	return Uint128{Hi: u.Hi + v.Hi + carry, Lo: lo}
}

// AddUint64 returns u+v and reports whether the result overflowed 128 bits.
func (u Uint128) AddUint64(v uint64) (Uint128, bool) {
	lo := u.Lo + v
	carry := uint64(0)
	if lo < u.Lo {
		carry = 1
	}
	hi := u.Hi + carry
	overflow := hi < u.Hi
	return Uint128{Hi: hi, Lo: lo}, overflow
}

// SubUint64 returns u-v and reports whether the subtraction underflowed.
func (u Uint128) SubUint64(v uint64) (Uint128, bool) {
	lo := u.Lo - v
	borrow := uint64(0)
	if u.Lo < v {
		borrow = 1
	}
	hi := u.Hi - borrow
	underflow := u.Hi < borrow
	return Uint128{Hi: hi, Lo: lo}, underflow
}

// MulUint64 returns u*v and reports whether the product overflowed 128 bits.
func (u Uint128) MulUint64(v uint64) (Uint128, bool) {
	if v == 0 || u.IsZero() {
		return Zero, false
	}
	hiHi, hiLo := mul64(u.Hi, v)
	loHi, loLo := mul64(u.Lo, v)
	hi := hiLo + loHi
	overflow := hiHi != 0 || hi < hiLo
	return Uint128{Hi: hi, Lo: loLo}, overflow
}

// mul64 returns the 128-bit product of two uint64 values as (hi, lo).
func mul64(a, b uint64) (hi, lo uint64) {
	const mask32 = 1<<32 - 1
	aLo, aHi := a&mask32, a>>32
	bLo, bHi := b&mask32, b>>32

	t := aLo * bLo
	w0 := t & mask32
	k := t >> 32

	t = aHi*bLo + k
	w1 := t & mask32
	w2 := t >> 32

	t = aLo*bHi + w1
	k = t >> 32

	hi = aHi*bHi + w2 + k
	lo = (t << 32) | w0
	return hi, lo
}

// And returns the bitwise AND of u and mask.
func (u Uint128) And(mask Uint128) Uint128 {
	return Uint128{Hi: u.Hi & mask.Hi, Lo: u.Lo & mask.Lo}
}

// Or returns the bitwise OR of u and v.
func (u Uint128) Or(v Uint128) Uint128 {
	return Uint128{Hi: u.Hi | v.Hi, Lo: u.Lo | v.Lo}
}

// TestBit reports whether bit n (0 = least significant) is set.
// n must be in [0, 128); callers outside that range get false.
func (u Uint128) TestBit(n uint) bool {
	switch {
	case n < 64:
		return (u.Lo>>n)&1 == 1
	case n < 128:
		return (u.Hi>>(n-64))&1 == 1
	default:
		return false
	}
}

// DivModUint32 divides u by the small divisor d and returns the quotient
// and remainder. Used by the passcode derivation loop (§4.1) to peel one
// alphabet character at a time off the AES output.
func (u Uint128) DivModUint32(d uint32) (Uint128, uint32) {
	if d == 0 {
		return Zero, 0
	}
	rem := uint64(0)
	hiQ, rem := divWord(u.Hi, rem, uint64(d))
	loQ, rem := divWord(u.Lo, rem, uint64(d))
	return Uint128{Hi: hiQ, Lo: loQ}, uint32(rem)
}

// divWord divides the 128-bit value (rem:word) by d, where rem < d,
// returning the quotient word and new remainder. Schoolbook long
// division, one machine word at a time, split into 32-bit halves so the
// intermediate product never exceeds 64 bits.
func divWord(word, rem, d uint64) (uint64, uint64) {
	hi := (rem << 32) | (word >> 32)
	qHi := hi / d
	rHi := hi % d
	lo := (rHi << 32) | (word & 0xffffffff)
	qLo := lo / d
	rLo := lo % d
	return (qHi << 32) | qLo, rLo
}

// HexLower renders u as 32 lower-case hex digits with no leading zero
// stripping (fixed width, as the persistence format requires for counters).
func (u Uint128) HexLower() string {
	b := u.BytesBE()
	return hex.EncodeToString(b[:])
}

// HexUpper renders u as 32 upper-case hex digits. The sequence key's
// upper-case encoding is Key256.HexUpper, not two calls of this.
func (u Uint128) HexUpper() string {
	return strings.ToUpper(u.HexLower())
}

// FromHex parses a hex string of at most 32 digits (shorter strings are
// treated as having leading zeros, matching the persistence format's
// "leading zeros allowed" rule) into a Uint128.
func FromHex(s string) (Uint128, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) > 32 || len(s) == 0 {
		return Zero, ErrParse
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Zero, ErrParse
	}
	var b [16]byte
	copy(b[16-len(raw):], raw)
	return FromBytesBE(b), nil
}
