package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// VerifierLength is the length of generated PKCE code verifiers.
const VerifierLength = 128

// verifierCharset is the RFC 7636 unreserved character set.
const verifierCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

// GenerateVerifier returns a random PKCE code verifier of the given length
// drawn from the RFC 7636 unreserved set.
func GenerateVerifier(length int) (string, error) {
	if length <= 0 {
		length = VerifierLength
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate code verifier: %w", err)
	}

	for i, b := range buf {
		buf[i] = verifierCharset[int(b)%len(verifierCharset)]
	}

	return string(buf), nil
}

// DeriveChallenge returns the S256 code challenge for a verifier: the
// unpadded base64url encoding of its SHA-256 digest. Deterministic for a
// fixed verifier.
func DeriveChallenge(verifier string) string {
	digest := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(digest[:])
}
