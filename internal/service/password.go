package service

import (
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt only reads the first 72 bytes of the input. Longer passwords
// are truncated here on both the hash and verify paths so previously
// stored hashes keep verifying. This is a carried-over quirk of the
// hashing primitive, not a new design choice.
const bcryptMaxPasswordBytes = 72

// truncatePassword cuts the plaintext to the bcrypt byte limit without
// splitting a multi-byte character at the boundary.
func truncatePassword(plaintext string) []byte {
	b := []byte(plaintext)
	if len(b) <= bcryptMaxPasswordBytes {
		return b
	}

	cut := bcryptMaxPasswordBytes
	for cut > 0 && !utf8.RuneStart(b[cut]) {
		cut--
	}
	return b[:cut]
}

func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncatePassword(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword never reports why verification failed; a malformed
// stored hash and a wrong password look identical to the caller.
func CheckPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncatePassword(plaintext)) == nil
}
