/*
 * otpasswd - flat-file state persistence codec.
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

// Package store implements the persistence driver for OTP state: the
// fifteen-field flat-file format, the StateStore interface, its two
// backends (per-user home-directory file and single system-wide file),
// sidecar advisory locking, and atomic write-rename.
package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/imclab/otpasswd/internal/bignum"
	"github.com/imclab/otpasswd/internal/otpcrypto"
	"github.com/imclab/otpasswd/internal/ppp"
	"github.com/imclab/otpasswd/util/hexutil"
)

const (
	entryVersion   = 1
	maxFieldLength = 100
	maxLineLength  = 1000
	fieldCount     = 15
)

// ErrParse covers any malformed entry: wrong field count, version
// mismatch, a field exceeding its length limit, or a field containing a
// persistence-format delimiter (spec §4.10, §7 "State integrity").
var ErrParse = errors.New("store: malformed entry")

// ErrDuplicateUser is returned when a username appears more than once
// in a state file during a load or store pass (spec §4.10 "Find-by-username").
var ErrDuplicateUser = errors.New("store: duplicate username entry")

// EncodeEntry renders s as one colon-separated line, without a trailing
// newline (the caller appends one when writing to the file).
func EncodeEntry(s *ppp.State) (string, error) {
	spassField := ""
	if s.SpassSet {
		spassField = hexutil.EncodeLower(s.Spass[:])
	}

	fields := []string{
		s.Username,
		strconv.Itoa(entryVersion),
		s.Key.HexUpper(),
		s.Counter.HexLower(),
		s.LatestCard.HexLower(),
		strconv.FormatUint(s.Failures, 10),
		strconv.FormatUint(s.RecentFailures, 10),
		strconv.FormatInt(s.ChannelTime, 10),
		strconv.Itoa(s.CodeLength),
		strconv.Itoa(s.AlphabetID),
		fmt.Sprintf("%x", uint32(s.Flags)),
		spassField,
		strconv.FormatInt(s.SpassTime, 10),
		s.Label(),
		s.Contact,
	}

	for _, f := range fields {
		if len(f) > maxFieldLength {
			return "", ErrParse
		}
		if strings.ContainsAny(f, ":\n") {
			return "", ErrParse
		}
	}

	line := strings.Join(fields, ":")
	if len(line) > maxLineLength {
		return "", ErrParse
	}
	return line, nil
}

// DecodeEntry parses one line of the persistence format back into a
// State. Geometry fields are not restored; callers must run
// ppp.Calculate (or ppp.VerifyRange) after loading.
func DecodeEntry(line string) (*ppp.State, error) {
	if len(line) > maxLineLength {
		return nil, ErrParse
	}
	fields := strings.Split(line, ":")
	if len(fields) != fieldCount {
		return nil, ErrParse
	}
	for _, f := range fields {
		if len(f) > maxFieldLength {
			return nil, ErrParse
		}
	}

	version, err := strconv.Atoi(fields[1])
	if err != nil || version != entryVersion {
		return nil, ErrParse
	}

	key, err := bignum.KeyFromHex(fields[2])
	if err != nil {
		return nil, ErrParse
	}
	counter, err := bignum.FromHex(fields[3])
	if err != nil {
		return nil, ErrParse
	}
	latestCard, err := bignum.FromHex(fields[4])
	if err != nil {
		return nil, ErrParse
	}
	failures, err := strconv.ParseUint(fields[5], 10, 64)
	if err != nil {
		return nil, ErrParse
	}
	recentFailures, err := strconv.ParseUint(fields[6], 10, 64)
	if err != nil {
		return nil, ErrParse
	}
	channelTime, err := strconv.ParseInt(fields[7], 10, 64)
	if err != nil {
		return nil, ErrParse
	}
	codeLength, err := strconv.Atoi(fields[8])
	if err != nil {
		return nil, ErrParse
	}
	alphabetID, err := strconv.Atoi(fields[9])
	if err != nil || alphabetID < 0 || alphabetID > 5 {
		return nil, ErrParse
	}
	flags, err := strconv.ParseUint(fields[10], 16, 32)
	if err != nil {
		return nil, ErrParse
	}
	spassTime, err := strconv.ParseInt(fields[12], 10, 64)
	if err != nil {
		return nil, ErrParse
	}

	s := &ppp.State{
		Username:       fields[0],
		Key:            key,
		Counter:        counter,
		LatestCard:     latestCard,
		Failures:       failures,
		RecentFailures: recentFailures,
		ChannelTime:    channelTime,
		CodeLength:     codeLength,
		AlphabetID:     alphabetID,
		Flags:          ppp.Flags(flags),
		SpassTime:      spassTime,
		Contact:        fields[14],
	}
	s.SetLabel(fields[13])

	if fields[11] != "" {
		raw, err := hexutil.DecodeFixed(fields[11], otpcrypto.SpassBlobLen)
		if err != nil {
			return nil, ErrParse
		}
		copy(s.Spass[:], raw)
		s.SpassSet = true
	}

	return s, nil
}
