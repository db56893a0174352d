/*
 * otpasswd - policy configuration file parser.
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

// Package policyconfig parses the agent's policy file: one option per
// line, '#' starts a comment, blank lines are ignored.
//
//	<line>   := <name> ['=' <value>]
//	<name>   := <letter> *(<letter> | <digit> | '_')
//	<value>  := <string> | '"' *(<any char but '"'> | '""') '"'
package policyconfig

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/imclab/otpasswd/internal/policy"
)

// ErrSyntax is returned for any line that doesn't match the grammar.
var ErrSyntax = errors.New("policyconfig: syntax error")

// Option is one name[=value] pair read from the file, in file order.
type Option struct {
	Name  string
	Value string // empty if the line had no '='
	Line  int
}

// optionLine mirrors the teacher's tokenizer shape: a cursor into one
// line of text, advanced by skipSpace/getName/parseQuoteString.
type optionLine struct {
	line string
	pos  int
}

// Parse reads every option line from r and returns them in file order.
func Parse(r io.Reader) ([]Option, error) {
	var options []Option
	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		ol := &optionLine{line: scanner.Text()}
		opt, err := ol.parseLine()
		if err != nil {
			return nil, fmt.Errorf("policyconfig: line %d: %w", lineNumber, err)
		}
		if opt == nil {
			continue
		}
		opt.Line = lineNumber
		options = append(options, *opt)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return options, nil
}

// ParseFile reads and parses a policy file from disk.
func ParseFile(path string) ([]Option, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

func (l *optionLine) skipSpace() {
	for l.pos < len(l.line) && unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
}

func (l *optionLine) isEOL() bool {
	return l.pos >= len(l.line) || l.line[l.pos] == '#'
}

func (l *optionLine) getName() (string, error) {
	l.skipSpace()
	if l.isEOL() {
		return "", nil
	}
	by := l.line[l.pos]
	if !unicode.IsLetter(rune(by)) {
		return "", ErrSyntax
	}
	var value strings.Builder
	for {
		value.WriteByte(by)
		l.pos++
		if l.isEOL() {
			break
		}
		by = l.line[l.pos]
		if !(unicode.IsLetter(rune(by)) || unicode.IsDigit(rune(by)) || by == '_') {
			break
		}
	}
	return value.String(), nil
}

// parseQuoteString reads the value following an '=' sign: l.pos must be
// at the '=' on entry. A bare value runs to the next whitespace/EOL; a
// double-quoted value runs to its closing quote, with "" as an escaped
// literal quote inside it.
func (l *optionLine) parseQuoteString() (string, bool) {
	l.pos++ // move past '='
	l.skipSpace()
	if l.isEOL() {
		return "", false
	}

	var value strings.Builder
	if l.line[l.pos] == '"' {
		l.pos++
		for {
			if l.pos >= len(l.line) {
				return "", false
			}
			by := l.line[l.pos]
			if by == '"' {
				if l.pos+1 < len(l.line) && l.line[l.pos+1] == '"' {
					value.WriteByte('"')
					l.pos += 2
					continue
				}
				l.pos++
				return value.String(), true
			}
			value.WriteByte(by)
			l.pos++
		}
	}

	for !l.isEOL() && !unicode.IsSpace(rune(l.line[l.pos])) {
		value.WriteByte(l.line[l.pos])
		l.pos++
	}
	return value.String(), true
}

func (l *optionLine) parseLine() (*Option, error) {
	name, err := l.getName()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, nil
	}

	opt := &Option{Name: name}
	l.skipSpace()
	if l.isEOL() {
		return opt, nil
	}
	if l.line[l.pos] != '=' {
		return nil, ErrSyntax
	}

	v, ok := l.parseQuoteString()
	if !ok {
		return nil, ErrSyntax
	}
	opt.Value = v

	l.skipSpace()
	if !l.isEOL() {
		return nil, ErrSyntax
	}
	return opt, nil
}

// Apply folds a parsed option list onto a policy.Config snapshot,
// starting from cfg (typically policy.Default()). Unknown option names
// are reported rather than silently ignored.
func Apply(cfg policy.Config, options []Option) (policy.Config, error) {
	for _, opt := range options {
		if err := applyOne(&cfg, opt); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func applyOne(cfg *policy.Config, opt Option) error {
	switch opt.Name {
	case "key_generation":
		cfg.KeyGeneration = boolValue(opt.Value)
	case "key_regeneration":
		cfg.KeyRegeneration = boolValue(opt.Value)
	case "key_removal":
		cfg.KeyRemoval = boolValue(opt.Value)
	case "disabling":
		cfg.Disabling = boolValue(opt.Value)
	case "skipping":
		cfg.Skipping = boolValue(opt.Value)
	case "passcode_print":
		cfg.PasscodePrint = boolValue(opt.Value)
	case "key_print":
		cfg.KeyPrint = boolValue(opt.Value)
	case "salt":
		m, err := modeValue(opt.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", opt.Name, err)
		}
		cfg.Salt = m
	case "show":
		m, err := modeValue(opt.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", opt.Name, err)
		}
		cfg.Show = m
	case "alphabet_change":
		cfg.AlphabetChange = boolValue(opt.Value)
	case "alphabet_def":
		n, err := intValue(opt.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", opt.Name, err)
		}
		cfg.AlphabetDef = n
	case "alphabet_min_length":
		n, err := intValue(opt.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", opt.Name, err)
		}
		cfg.AlphabetMinLength = n
	case "alphabet_max_length":
		n, err := intValue(opt.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", opt.Name, err)
		}
		cfg.AlphabetMaxLength = n
	case "passcode_def_length":
		n, err := intValue(opt.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", opt.Name, err)
		}
		cfg.PasscodeDefLength = n
	case "passcode_min_length":
		n, err := intValue(opt.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", opt.Name, err)
		}
		cfg.PasscodeMinLength = n
	case "passcode_max_length":
		n, err := intValue(opt.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", opt.Name, err)
		}
		cfg.PasscodeMaxLength = n
	case "contact_change":
		cfg.ContactChange = boolValue(opt.Value)
	case "label_change":
		cfg.LabelChange = boolValue(opt.Value)
	case "spass_change":
		cfg.SpassChange = boolValue(opt.Value)
	case "spass_min_length":
		n, err := intValue(opt.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", opt.Name, err)
		}
		cfg.SpassMinLength = n
	case "spass_require_digit":
		cfg.SpassRequireDigit = boolValue(opt.Value)
	case "spass_require_special":
		cfg.SpassRequireSpecial = boolValue(opt.Value)
	case "spass_require_uppercase":
		cfg.SpassRequireUppercase = boolValue(opt.Value)
	default:
		return fmt.Errorf("policyconfig: unknown option %q (line %d)", opt.Name, opt.Line)
	}
	return nil
}

func boolValue(v string) bool {
	switch strings.ToLower(v) {
	case "", "1", "true", "yes", "allow", "on":
		return true
	default:
		return false
	}
}

func modeValue(v string) (policy.Mode, error) {
	switch strings.ToLower(v) {
	case "disallow":
		return policy.Disallow, nil
	case "allow":
		return policy.Allow, nil
	case "enforce":
		return policy.Enforce, nil
	default:
		return policy.Disallow, fmt.Errorf("%w: unknown mode %q", ErrSyntax, v)
	}
}

func intValue(v string) (int, error) {
	n := 0
	if v == "" {
		return 0, fmt.Errorf("%w: empty integer value", ErrSyntax)
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: not an integer: %q", ErrSyntax, v)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}
