/*
 * otpasswd - agent connection: one frame stream over two pipes.
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
	"errors"
	"io"
	"time"

	"github.com/imclab/otpasswd/internal/bignum"
)

// ErrDisconnect is returned when the peer closes the pipe mid-frame or
// a read exceeds FrameTimeout (spec.md §4.12 "Timeouts", §5
// "Cancellation").
var ErrDisconnect = errors.New("agent: peer disconnected")

// FrameTimeout bounds how long a single wait_for_frame blocks before
// the connection is considered dead.
const FrameTimeout = 5 * time.Second

// Conn is one frame-oriented connection over an io.Reader/io.Writer
// pair (in production, the agent's stdin/stdout pipes inherited from
// fork+exec). macKey is nil until the INIT handshake derives one, and
// remains nil for peers that don't opt into frame tagging.
type Conn struct {
	r      io.Reader
	w      io.Writer
	macKey []byte
}

// NewConn wraps a raw reader/writer pair with no integrity tagging.
// EnableMAC upgrades it once a handshake nonce is available.
func NewConn(r io.Reader, w io.Writer) *Conn {
	return &Conn{r: r, w: w}
}

// EnableMAC derives and installs a frame-tagging key from the INIT
// handshake nonce. Both ends must call this with the same nonce
// immediately after the INIT frame completes.
func (c *Conn) EnableMAC(nonce bignum.Uint128) error {
	key, err := deriveFrameMACKey(nonce)
	if err != nil {
		return err
	}
	c.macKey = key
	return nil
}

// WriteFrame sends f immediately; there is no internal buffering.
func (c *Conn) WriteFrame(f *Frame) error {
	return writeFrame(c.w, f, c.macKey)
}

// readResult carries a frame or an error back from the background
// reader goroutine in ReadFrame.
type readResult struct {
	frame *Frame
	err   error
}

// ReadFrame blocks for at most FrameTimeout waiting for a complete
// frame. The read runs in a goroutine because os.File/io.Reader over a
// pipe has no portable read-deadline API; the goroutine leaks only if
// the peer never writes and never closes, which a dead/hung peer can
// already do to any blocking read — the timeout here just stops the
// *caller* from waiting on it forever, mirroring the teacher's
// core-loop shape of selecting between a result channel and a timeout.
func (c *Conn) ReadFrame() (*Frame, error) {
	ch := make(chan readResult, 1)
	go func() {
		f, err := readFrame(c.r, c.macKey)
		ch <- readResult{frame: f, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			if errors.Is(res.err, io.EOF) || errors.Is(res.err, io.ErrUnexpectedEOF) {
				return nil, ErrDisconnect
			}
			return nil, res.err
		}
		return res.frame, nil
	case <-time.After(FrameTimeout):
		return nil, ErrDisconnect
	}
}
