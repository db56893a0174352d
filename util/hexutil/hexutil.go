/*
 * otpasswd - fixed-case hex codec helpers.
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

// Package hexutil adapts the teacher's util/hex digit-table approach
// (FormatWord/FormatByte over a fixed "0123456789ABCDEF" map) to the
// persistence format's fixed-case, fixed-width requirements (spec §4.10):
// keys upper-case, counters lower-case, both with leading zeros retained.
// Encoding and decoding go through encoding/hex and are not constant-time.
package hexutil

import (
	"encoding/hex"
	"errors"
	"strings"
)

const upperDigits = "0123456789ABCDEF"

// ErrOddLength is returned when a hex string has an odd number of digits.
var ErrOddLength = errors.New("hexutil: odd-length hex string")

// ErrLength is returned when a decoded value doesn't match the expected
// fixed width.
var ErrLength = errors.New("hexutil: wrong length")

// EncodeUpper renders b as upper-case hex, the convention the
// persistence format uses for the sequence key.
func EncodeUpper(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

// EncodeLower renders b as lower-case hex, the convention the
// persistence format uses for counters and card indices.
func EncodeLower(b []byte) string {
	return hex.EncodeToString(b)
}

// DecodeFixed decodes s into exactly want bytes, rejecting any string
// whose decoded length differs. Both upper and lower case digits are
// accepted on input even though output is always rendered in one fixed
// case; the persistence format's reader must tolerate either (see
// db_file.c's case-insensitive scanf conversion).
func DecodeFixed(s string, want int) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, ErrOddLength
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) != want {
		return nil, ErrLength
	}
	return b, nil
}

// IsHexDigit reports whether r is a valid hex digit in either case,
// matching the digit classes EncodeUpper/EncodeLower can produce.
func IsHexDigit(r byte) bool {
	return strings.IndexByte(upperDigits, upperByte(r)) >= 0
}

func upperByte(r byte) byte {
	if r >= 'a' && r <= 'f' {
		return r - ('a' - 'A')
	}
	return r
}
