package security

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

type Scheme string

const (
	SchemeBcrypt    Scheme = "bcrypt"
	SchemeArgon2id  Scheme = "argon2id"
	SchemePlaintext Scheme = "plaintext"
)

const (
	bcryptPrefix       = "$2a$"
	bcryptPrefixB      = "$2b$"
	bcryptLegacyPrefix = "$2y$"
	argon2Prefix       = "$argon2id$"
)

// HashPassword produces a bcrypt hash, the format existing user records
// were written with.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hash), nil
}

// PasswordScheme reports which comparison VerifyPassword will use for stored.
func PasswordScheme(stored string) Scheme {
	if len(stored) < 4 {
		return SchemePlaintext
	}
	switch {
	case strings.HasPrefix(stored, bcryptPrefix),
		strings.HasPrefix(stored, bcryptPrefixB),
		strings.HasPrefix(stored, bcryptLegacyPrefix):
		return SchemeBcrypt
	case strings.HasPrefix(stored, argon2Prefix):
		return SchemeArgon2id
	default:
		return SchemePlaintext
	}
}

// VerifyPassword compares password against stored. Values that carry no
// recognised hash prefix are compared as plaintext; legacy records still
// hold such values. Any parse or hashing failure yields false.
func VerifyPassword(password, stored string) bool {
	switch PasswordScheme(stored) {
	case SchemeBcrypt:
		if strings.HasPrefix(stored, bcryptLegacyPrefix) {
			stored = bcryptPrefix + stored[len(bcryptLegacyPrefix):]
		}
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	case SchemeArgon2id:
		ok, err := verifyArgon2id(password, stored)
		return err == nil && ok
	default:
		return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1
	}
}

// verifyArgon2id checks $argon2id$v=19$t=%d,m=%d,p=%d$salt$hash values.
func verifyArgon2id(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return false, fmt.Errorf("parse hash: expected 6 segments, got %d", len(parts))
	}

	var (
		time    uint32
		memory  uint32
		threads uint8
	)
	if _, err := fmt.Sscanf(parts[3], "t=%d,m=%d,p=%d", &time, &memory, &threads); err != nil {
		return false, fmt.Errorf("parse params: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("decode salt: %w", err)
	}
	hash, err := base64.StdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("decode hash: %w", err)
	}
	if len(hash) == 0 || threads == 0 {
		return false, fmt.Errorf("parse hash: empty key or parallelism")
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, computed) == 1, nil
}
