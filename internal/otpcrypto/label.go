package otpcrypto

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// contactFingerprintLen is the number of leading bytes of the SHA3-256
// digest surfaced as a fingerprint; enough to disambiguate two contacts
// in a log stream without printing the contact itself.
const contactFingerprintLen = 6

// ContactFingerprint returns a short, non-reversible hex fingerprint of
// a contact string (an email address or phone number), suitable for
// structured log fields where the raw contact would otherwise leak a
// user's personal information into the agent's audit trail.
func ContactFingerprint(contact string) string {
	sum := sha3.Sum256([]byte(contact))
	return hex.EncodeToString(sum[:contactFingerprintLen])
}
