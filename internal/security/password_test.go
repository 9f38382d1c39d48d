package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

func TestVerifyPassword_Bcrypt(t *testing.T) {
	hash, err := HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)

	assert.Equal(t, SchemeBcrypt, PasswordScheme(hash))
	assert.True(t, VerifyPassword("secret1", hash))
	assert.False(t, VerifyPassword("wrongpass", hash))
}

func TestVerifyPassword_LegacyPrefix(t *testing.T) {
	raw, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	legacy := "$2y$" + string(raw)[4:]

	assert.Equal(t, SchemeBcrypt, PasswordScheme(legacy))
	assert.True(t, VerifyPassword("secret1", legacy))
	assert.False(t, VerifyPassword("secret2", legacy))
}

func TestVerifyPassword_Argon2id(t *testing.T) {
	salt := make([]byte, 16)
	_, err := rand.Read(salt)
	require.NoError(t, err)
	key := argon2.IDKey([]byte("secret1"), salt, 1, 8*1024, 1, 32)
	encoded := fmt.Sprintf("$argon2id$v=19$t=%d,m=%d,p=%d$%s$%s", 1, 8*1024, 1,
		base64.StdEncoding.EncodeToString(salt), base64.StdEncoding.EncodeToString(key))

	assert.Equal(t, SchemeArgon2id, PasswordScheme(encoded))
	assert.True(t, VerifyPassword("secret1", encoded))
	assert.False(t, VerifyPassword("secret2", encoded))
}

func TestVerifyPassword_PlaintextFallback(t *testing.T) {
	assert.Equal(t, SchemePlaintext, PasswordScheme("abc"))
	assert.Equal(t, SchemePlaintext, PasswordScheme("hunter22"))

	assert.True(t, VerifyPassword("abc", "abc"))
	assert.True(t, VerifyPassword("hunter22", "hunter22"))
	assert.False(t, VerifyPassword("hunter2", "hunter22"))
}

func TestVerifyPassword_MalformedHashIsFalse(t *testing.T) {
	assert.False(t, VerifyPassword("secret1", "$2a$not-a-real-hash"))
	assert.False(t, VerifyPassword("secret1", "$argon2id$garbage"))
	assert.False(t, VerifyPassword("secret1", "$argon2id$v=19$t=1,m=8,p=1$!!!$!!!"))
}
