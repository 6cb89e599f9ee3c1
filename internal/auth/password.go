package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// legacyDigestLen is the length of a hex-encoded SHA-256 digest.
const legacyDigestLen = sha256.Size * 2

// HashPassword returns a salted bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. Both bcrypt hashes and
// unsalted SHA-256 hex digests written by older versions are accepted.
func CheckPassword(password, hash string) bool {
	if IsLegacyHash(hash) {
		want := LegacyDigest(password)
		return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(hash))) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IsLegacyHash reports whether hash is an unsalted SHA-256 hex digest.
func IsLegacyHash(hash string) bool {
	if len(hash) != legacyDigestLen {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

// LegacyDigest is the unsalted SHA-256 hex digest of password. It exists only
// to verify credentials stored before bcrypt was introduced.
func LegacyDigest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// GenerateSessionToken returns a random 32-byte hex token.
func GenerateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	return hex.EncodeToString(b), nil
}
