// Package password hashes and verifies user passwords.
//
// Plaintexts are reduced with SHA-256 before bcrypt so that inputs longer
// than bcrypt's 72-byte limit still hash (and compare) in full. Digests
// written by earlier deployments are plain SHA-256 hex strings; Verify
// accepts those as well.
package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes passwords with bcrypt at Cost.
type Hasher struct {
	Cost int
}

// New returns a Hasher using bcrypt.DefaultCost.
func New() *Hasher {
	return &Hasher{Cost: bcrypt.DefaultCost}
}

// Hash returns the stored form of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(prehash(plaintext)), cost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest.
func (h *Hasher) Verify(plaintext, digest string) bool {
	if digest == "" {
		return false
	}
	if isBcrypt(digest) {
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(prehash(plaintext))) == nil
	}
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(digest)), []byte(prehash(plaintext))) == 1
}

// NeedsRehash reports whether digest is in the legacy unsalted format.
func (h *Hasher) NeedsRehash(digest string) bool {
	return !isBcrypt(digest)
}

func prehash(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

func isBcrypt(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") || strings.HasPrefix(digest, "$2b$") || strings.HasPrefix(digest, "$2y$")
}
