/*
 * otpasswd - agent wire frame codec.
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

package agent

import (
	"bytes"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"

	"github.com/imclab/otpasswd/internal/bignum"
)

// MaxStrArgLen bounds the wire str_arg field (spec.md §4.12's
// "bounded byte array... ≤ STATE_MAX_FIELD_SIZE"), matching the
// persistence codec's per-field limit.
const MaxStrArgLen = 100

// macTagLen is the length of the optional BLAKE2b-256 frame tag
// (SPEC_FULL.md §12.4).
const macTagLen = 32

var (
	ErrStrArgTooLong = errors.New("agent: str_arg exceeds MaxStrArgLen")
	ErrFrameTooLarge = errors.New("agent: frame exceeds maximum size")
	ErrBadTag        = errors.New("agent: frame integrity tag mismatch")
)

// maxFrameBody bounds a single frame's encoded size, guarding
// ReadFrame against a corrupt or hostile length prefix.
const maxFrameBody = 4 + 2 + 2 + 4 + 8 + 8 + 16 + 4 + MaxStrArgLen

// Frame is one request or reply (spec.md §4.12's "Header").
type Frame struct {
	ProtocolVersion uint16
	Type            Opcode
	Status          int32 // reply only; 0 on success, negative on error
	IntArg          int64
	IntArg2         int64
	NumArg          bignum.Uint128
	StrArg          string
}

func (f *Frame) encodeBody() ([]byte, error) {
	if len(f.StrArg) > MaxStrArgLen {
		return nil, ErrStrArgTooLong
	}
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, f.ProtocolVersion)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(f.Type))
	_ = binary.Write(&buf, binary.LittleEndian, f.Status)
	_ = binary.Write(&buf, binary.LittleEndian, f.IntArg)
	_ = binary.Write(&buf, binary.LittleEndian, f.IntArg2)
	num := f.NumArg.BytesBE()
	buf.Write(num[:])
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(f.StrArg)))
	buf.WriteString(f.StrArg)
	return buf.Bytes(), nil
}

func decodeBody(body []byte) (*Frame, error) {
	r := bytes.NewReader(body)
	f := &Frame{}
	var opcode uint16
	var strLen uint32
	var num [16]byte

	if err := binary.Read(r, binary.LittleEndian, &f.ProtocolVersion); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &opcode); err != nil {
		return nil, err
	}
	f.Type = Opcode(opcode)
	if err := binary.Read(r, binary.LittleEndian, &f.Status); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &f.IntArg); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &f.IntArg2); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, num[:]); err != nil {
		return nil, err
	}
	f.NumArg = bignum.FromBytesBE(num)
	if err := binary.Read(r, binary.LittleEndian, &strLen); err != nil {
		return nil, err
	}
	if strLen > MaxStrArgLen {
		return nil, ErrStrArgTooLong
	}
	strBytes := make([]byte, strLen)
	if _, err := io.ReadFull(r, strBytes); err != nil {
		return nil, err
	}
	f.StrArg = string(strBytes)
	return f, nil
}

// deriveFrameMACKey derives a per-connection BLAKE2b-256 key from the
// INIT handshake nonce (SPEC_FULL.md §12.4): HKDF-SHA256 over the
// nonce, with a fixed info string binding the key to its one purpose.
func deriveFrameMACKey(nonce bignum.Uint128) ([]byte, error) {
	nb := nonce.BytesBE()
	h := hkdf.New(sha256.New, nb[:], nil, []byte("otpasswd-agent-frame-mac-v1"))
	key := make([]byte, macTagLen)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, err
	}
	return key, nil
}

func tagFrame(key, body []byte) ([]byte, error) {
	mac, err := blake2b.New256(key)
	if err != nil {
		return nil, err
	}
	mac.Write(body)
	return mac.Sum(nil), nil
}

// writeFrame writes f to w, length-prefixed (uint32 LE), with an
// appended BLAKE2b tag when macKey is non-nil.
func writeFrame(w io.Writer, f *Frame, macKey []byte) error {
	body, err := f.encodeBody()
	if err != nil {
		return err
	}
	if macKey != nil {
		tag, err := tagFrame(macKey, body)
		if err != nil {
			return err
		}
		body = append(body, tag...)
	}
	if len(body) > maxFrameBody+macTagLen {
		return ErrFrameTooLarge
	}
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(body)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

// readFrame reads one frame from r, verifying and stripping the tag
// when macKey is non-nil.
func readFrame(r io.Reader, macKey []byte) (*Frame, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > uint32(maxFrameBody+macTagLen) {
		return nil, ErrFrameTooLarge
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	if macKey != nil {
		if len(body) < macTagLen {
			return nil, ErrBadTag
		}
		split := len(body) - macTagLen
		gotTag := body[split:]
		body = body[:split]
		wantTag, err := tagFrame(macKey, body)
		if err != nil {
			return nil, err
		}
		if subtle.ConstantTimeCompare(gotTag, wantTag) != 1 {
			return nil, ErrBadTag
		}
	}

	return decodeBody(body)
}
