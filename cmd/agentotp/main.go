/*
 * otpasswd - privileged agent process entrypoint.
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

// Command agentotp is the privileged helper process of spec.md §4.12:
// it owns the state files, speaks the fixed-header binary protocol
// over its inherited stdin/stdout pipes to exactly one unprivileged
// caller, and exits when that caller disconnects. Its own bootstrap
// flags (config path, debug log, system-wide mode) are in scope even
// though the full CLI utility that spawns it is not (spec.md §1).
package main

import (
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	"github.com/imclab/otpasswd/internal/agent"
	"github.com/imclab/otpasswd/internal/alphabet"
	"github.com/imclab/otpasswd/internal/otperr"
	"github.com/imclab/otpasswd/internal/policy"
	"github.com/imclab/otpasswd/internal/store"
	"github.com/imclab/otpasswd/util/logger"

	configparser "github.com/imclab/otpasswd/config/policyconfig"
)

func main() {
	optConfig := getopt.StringLong("config", 'c', "/etc/otpasswd/otpasswd.conf", "Policy configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optSystemWide := getopt.BoolLong("system", 's', "Use the system-wide state file instead of $HOME")
	optSystemPath := getopt.StringLong("state-file", 0, "", "Override the system-wide state file path")
	optServiceUID := getopt.IntLong("service-uid", 0, -1, "Service uid the system-wide state file is chowned back to")
	optCustomAlphabet := getopt.StringLong("custom-alphabet", 0, "", "Custom alphabet for id 0")
	optDebug := getopt.BoolLong("debug", 'd', "Mirror every log record to stderr")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var logFile *os.File
	if *optLogFile != "" {
		f, err := os.OpenFile(*optLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err == nil {
			logFile = f
		}
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	log := slog.New(logger.NewHandler(logFile, &slog.HandlerOptions{Level: programLevel}, optDebug))
	slog.SetDefault(log)

	initStatus := otperr.OK

	options, perr := configparser.ParseFile(*optConfig)
	var cfg policy.Config
	switch {
	case perr == nil:
		cfg, perr = configparser.Apply(policy.Default(), options)
		if perr != nil {
			log.Error("policy configuration rejected", "error", perr)
			initStatus = otperr.AgentErrInitConfiguration
		}
	case errors.Is(perr, os.ErrNotExist):
		log.Warn("no policy configuration file, using defaults", "path", *optConfig)
		cfg = policy.Default()
	default:
		log.Error("failed to read policy configuration", "error", perr)
		initStatus = otperr.AgentErrInitConfiguration
	}

	reg := alphabet.NewRegistry(*optCustomAlphabet)

	serviceUID := *optServiceUID
	if serviceUID < 0 {
		serviceUID = os.Getuid()
	}

	newBackend := func(username string) (store.StateStore, error) {
		if *optSystemWide {
			return store.NewSystemBackend(*optSystemPath, serviceUID)
		}
		return store.NewUserBackend()
	}

	conn := agent.NewConn(os.Stdin, os.Stdout)
	srv := agent.NewServer(conn, newBackend, reg, cfg, log)

	if err := srv.Handshake(initStatus); err != nil {
		log.Error("handshake failed", "error", err)
		os.Exit(1)
	}
	if initStatus != otperr.OK {
		log.Error("refusing to serve, configuration invalid")
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		<-sigChan
		log.Info("shutting down on signal")
		close(done)
	}()

	if err := srv.Serve(done); err != nil {
		if errors.Is(err, agent.ErrDisconnect) {
			log.Info("peer disconnected")
			return
		}
		log.Error("serve failed", "error", err)
		os.Exit(1)
	}
}
