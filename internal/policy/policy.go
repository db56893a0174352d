/*
 * otpasswd - policy gate.
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

// Package policy implements the pure-function gate every externally
// requested mutation is filtered through before it touches a State
// (spec §4.9). Config is an immutable snapshot loaded once per process
// by config/policyconfig — this package never reads configuration
// itself.
package policy

import "errors"

// Mode is a three-way policy setting (spec §4.9 "salt"/"show" options).
type Mode int

const (
	Disallow Mode = iota
	Allow
	Enforce
)

// ErrDenied is returned by every gate function that refuses a mutation.
// Callers that need the specific reason should check which gate
// function returned it — spec §6's error codes map one-to-one onto
// these call sites (see internal/otperr).
var ErrDenied = errors.New("policy: denied")

// Config is the immutable policy snapshot (spec §4.9's option table).
type Config struct {
	KeyGeneration   bool
	KeyRegeneration bool
	KeyRemoval      bool
	Disabling       bool
	Skipping        bool
	PasscodePrint   bool
	KeyPrint        bool

	Salt Mode
	Show Mode

	AlphabetChange    bool
	AlphabetDef       int
	AlphabetMinLength int
	AlphabetMaxLength int

	PasscodeDefLength int
	PasscodeMinLength int
	PasscodeMaxLength int

	ContactChange bool
	LabelChange   bool

	SpassChange           bool
	SpassMinLength        int
	SpassRequireDigit     bool
	SpassRequireSpecial   bool
	SpassRequireUppercase bool
}

// Default returns a conservative snapshot matching the original
// implementation's documented defaults: generation and printing
// allowed, salt/show left to the user's choice, key removal allowed.
func Default() Config {
	return Config{
		KeyGeneration:     true,
		KeyRegeneration:   true,
		KeyRemoval:        true,
		Disabling:         true,
		Skipping:          true,
		PasscodePrint:     true,
		KeyPrint:          false,
		Salt:              Allow,
		Show:              Allow,
		AlphabetChange:    true,
		AlphabetDef:       1,
		AlphabetMinLength: 2,
		AlphabetMaxLength: 16,
		PasscodeDefLength: 4,
		PasscodeMinLength: 2,
		PasscodeMaxLength: 16,
		ContactChange:     true,
		LabelChange:       true,
		SpassChange:       true,
		SpassMinLength:    5,
	}
}

func CheckKeyGeneration(cfg Config) error {
	if !cfg.KeyGeneration {
		return ErrDenied
	}
	return nil
}

func CheckKeyRegeneration(cfg Config) error {
	if !cfg.KeyRegeneration {
		return ErrDenied
	}
	return nil
}

func CheckKeyRemoval(cfg Config) error {
	if !cfg.KeyRemoval {
		return ErrDenied
	}
	return nil
}

func CheckDisabling(cfg Config) error {
	if !cfg.Disabling {
		return ErrDenied
	}
	return nil
}

func CheckSkipping(cfg Config) error {
	if !cfg.Skipping {
		return ErrDenied
	}
	return nil
}

func CheckPasscodePrint(cfg Config) error {
	if !cfg.PasscodePrint {
		return ErrDenied
	}
	return nil
}

func CheckKeyPrint(cfg Config) error {
	if !cfg.KeyPrint {
		return ErrDenied
	}
	return nil
}

func CheckContactChange(cfg Config) error {
	if !cfg.ContactChange {
		return ErrDenied
	}
	return nil
}

func CheckLabelChange(cfg Config) error {
	if !cfg.LabelChange {
		return ErrDenied
	}
	return nil
}

// ResolveSalt applies the salt policy at key-generation time: disallow
// forces the flag off, enforce forces it on, allow honors the caller's
// request.
func ResolveSalt(cfg Config, requested bool) bool {
	switch cfg.Salt {
	case Disallow:
		return false
	case Enforce:
		return true
	default:
		return requested
	}
}

// ResolveShow mirrors ResolveSalt for the SHOW flag.
func ResolveShow(cfg Config, requested bool) bool {
	switch cfg.Show {
	case Disallow:
		return false
	case Enforce:
		return true
	default:
		return requested
	}
}

// CheckAlphabet gates an alphabet selection against the configured
// change permission and length bounds.
func CheckAlphabet(cfg Config, alphabetLen int) error {
	if !cfg.AlphabetChange {
		return ErrDenied
	}
	if alphabetLen < cfg.AlphabetMinLength || alphabetLen > cfg.AlphabetMaxLength {
		return ErrDenied
	}
	return nil
}

// CheckPasscodeLength gates a requested code length L against policy
// bounds.
func CheckPasscodeLength(cfg Config, length int) error {
	if length < cfg.PasscodeMinLength || length > cfg.PasscodeMaxLength {
		return ErrDenied
	}
	return nil
}

// CheckSpassChange gates whether a static password may be set/changed
// at all (the detailed content validation is ValidateSpass).
func CheckSpassChange(cfg Config) error {
	if !cfg.SpassChange {
		return ErrDenied
	}
	return nil
}
