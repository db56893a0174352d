package policy

import (
	"unicode"

	"github.com/imclab/otpasswd/internal/otperr"
)

// ValidateSpass checks a candidate static password against every
// configured rule and returns the full violation bitset rather than a
// single boolean, matching the original implementation's diagnostic
// richness (agent_print_spass_errors in agent_interface.c, supplemented
// per SPEC_FULL.md §12.2). A zero return means the password is
// acceptable.
func ValidateSpass(cfg Config, password string) otperr.SpassBit {
	var bits otperr.SpassBit

	if !cfg.SpassChange {
		bits |= otperr.SpassErrPolicy
	}
	if len(password) < cfg.SpassMinLength {
		bits |= otperr.SpassErrShort
	}

	var hasDigit, hasUpper, hasSpecial bool
	for _, r := range password {
		switch {
		case r > unicode.MaxASCII:
			bits |= otperr.SpassErrNonASCII
		case !unicode.IsPrint(r):
			bits |= otperr.SpassErrIllegalCharacter
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			hasSpecial = true
		}
	}

	if cfg.SpassRequireDigit && !hasDigit {
		bits |= otperr.SpassErrNoDigits
	}
	if cfg.SpassRequireUppercase && !hasUpper {
		bits |= otperr.SpassErrNoUppercase
	}
	if cfg.SpassRequireSpecial && !hasSpecial {
		bits |= otperr.SpassErrNoSpecial
	}

	return bits
}
