// Package auth — credential verification and host session tokens.
//
// The game server hashes account passwords with bcrypt via PHP's
// crypt(), which stamps digests with the "$2y$" variant tag. Go's
// bcrypt implementation expects "$2a$". The two tags denote the same
// algorithm with the same cost and salt semantics — the difference is
// purely which character the tag carries — so digests are normalized
// before comparison rather than rejected.
package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// hashTagEquivalences maps foreign bcrypt variant tags to the tag the
// verification primitive accepts. Only the leading four characters of a
// digest are ever rewritten; salt, cost, and hash body pass through
// untouched.
//
// "$2y$" is emitted by PHP crypt() since 5.3.7; "$2x$" marks pre-5.3.7
// hashes that PHP re-tagged during its 2011 bcrypt sign-extension fix.
// Both verify identically to "$2a$" for the ASCII passwords the game
// server accepts.
var hashTagEquivalences = map[string]string{
	"$2y$": "$2a$",
	"$2x$": "$2a$",
}

// NormalizeHashEncoding rewrites a digest's leading bcrypt variant tag
// to the accepted equivalent. Digests with no known-foreign tag are
// returned unchanged. Pure function; callable independent of Verify.
func NormalizeHashEncoding(digest string) string {
	for foreign, accepted := range hashTagEquivalences {
		if strings.HasPrefix(digest, foreign) {
			return accepted + digest[len(foreign):]
		}
	}
	return digest
}

// Verifier checks cleartext passwords against stored bcrypt digests.
//
// A struct rather than a free function so the backend can take it as an
// injected dependency, mirroring how the store reader is injected.
type Verifier struct{}

// NewVerifier creates a Verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify reports whether cleartext matches the stored digest, after
// normalizing the digest's variant tag.
//
// bcrypt.CompareHashAndPassword is constant-time over the hash body, so
// response timing does not leak how much of the password was right.
// Returns nil on match; a non-nil error on mismatch or on a digest that
// bcrypt cannot parse — callers treat every non-nil result as a plain
// verification failure (fail closed).
func (v *Verifier) Verify(digest, cleartext string) error {
	err := bcrypt.CompareHashAndPassword(
		[]byte(NormalizeHashEncoding(digest)),
		[]byte(cleartext),
	)
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return errors.New("auth: invalid password")
		}
		return errors.New("auth: unverifiable digest")
	}
	return nil
}
