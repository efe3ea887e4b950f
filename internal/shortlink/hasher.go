package shortlink

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// SHA256Hasher is a deterministic, unsalted digest over the UTF-8 bytes of
// the password. Link passwords are a light deterrent, not access control.
type SHA256Hasher struct{}

func NewSHA256Hasher() *SHA256Hasher { return &SHA256Hasher{} }

func (h *SHA256Hasher) Hash(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// digestsEqual compares two hex digests in constant time.
func digestsEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
