package ppp

import "github.com/imclab/otpasswd/internal/bignum"

// AddSalt computes the persisted counter from a card-index counter and a
// salt value (spec §4.2). The invariant it preserves: the value actually
// passed to AES in Derive is always the persisted counter itself, salted
// or not — the salt IS the identity, never stripped before encryption.
func AddSalt(cardIndex bignum.Uint128, salt bignum.Uint128, salted bool) bignum.Uint128 {
	if !salted {
		return cardIndex
	}
	return cardIndex.Add(salt.And(SaltMask))
}

// Unsalt strips the salt portion of a persisted counter, returning the
// card-index portion used for geometry and range checks.
func Unsalt(counter bignum.Uint128, salted bool) bignum.Uint128 {
	if !salted {
		return counter
	}
	return counter.And(CodeMask)
}
