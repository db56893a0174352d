/*
 * otpasswd - out-of-band sender subprocess interface.
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

// Package oob implements the privileged agent's side of the
// out-of-band passcode delivery hand-off (spec.md §5 "Out-of-band
// subprocess"). The actual email/SMS transport is an external
// collaborator (spec.md §1 Non-goals); this package only implements
// the documented lifecycle: drop privileges, exec a configured script
// with (contact, passcode) argv, and enforce the parent's bounded
// wait/kill protocol.
package oob

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// pollInterval and pollAttempts reproduce spec.md §5's "200 × 7 ms"
// wait budget for the child to exit on its own before it is killed.
const (
	pollInterval = 7 * time.Millisecond
	pollAttempts = 200
)

// ErrTimeout is returned when the OOB script doesn't exit within the
// parent's poll budget and has to be killed.
var ErrTimeout = errors.New("oob: script did not exit, killed")

// Sender drops privileges to (uid, gid) before exec'ing scriptPath.
// Tests substitute a fake that records calls instead of forking a real
// process.
type Sender interface {
	Send(ctx context.Context, scriptPath, contact, passcode string, uid, gid int) error
}

// ProcessSender is the production Sender: it forks scriptPath as a
// child, drops privileges via Credential.{Uid,Gid} (the Go runtime's
// equivalent of the original's setgid-then-setuid child, since exec.Cmd
// already execs after fork rather than running arbitrary code in the
// child), and enforces the bounded-wait/kill protocol.
type ProcessSender struct{}

// Send runs scriptPath with argv (contact, passcode), as an unprivileged
// uid/gid. Any state loaded in the calling process MUST already have
// been released before Send is called — spec.md §5 requires the child
// to drop the loaded state from memory before exec, which for a real
// fork+exec means before the fork; since exec.Cmd execs directly with
// no interposed Go code running as the child, there is no window where
// a forked child could observe the parent's in-memory state at all.
func (ProcessSender) Send(ctx context.Context, scriptPath, contact, passcode string, uid, gid int) error {
	cmd := exec.CommandContext(ctx, scriptPath, contact, passcode)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Credential: &syscall.Credential{Uid: uint32(uid), Gid: uint32(gid)},
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("oob: start %s: %w", scriptPath, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	for i := 0; i < pollAttempts; i++ {
		select {
		case err := <-done:
			return err
		case <-time.After(pollInterval):
		}
	}

	_ = cmd.Process.Signal(syscall.SIGKILL)
	<-done
	return ErrTimeout
}
