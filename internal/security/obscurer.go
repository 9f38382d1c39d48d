package security

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// Obscurer hides log fields behind AES-256 in ECB mode keyed by
// SHA-256(secret). It is deterministic and carries no IV, so it only
// obfuscates; it does not protect confidentiality.
type Obscurer struct {
	block cipher.Block
}

func NewObscurer(secret string) *Obscurer {
	if secret == "" {
		return &Obscurer{}
	}
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return &Obscurer{}
	}
	return &Obscurer{block: block}
}

// Obscure returns base64(AES-ECB(text)). Without a secret the input is
// returned unchanged.
func (o *Obscurer) Obscure(text string) string {
	if o == nil || o.block == nil {
		return text
	}
	bs := o.block.BlockSize()
	buf := pkcs7Pad([]byte(text), bs)
	for i := 0; i < len(buf); i += bs {
		o.block.Encrypt(buf[i:i+bs], buf[i:i+bs])
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// Reveal reverses Obscure. Input that does not decode is returned unchanged.
func (o *Obscurer) Reveal(text string) string {
	if o == nil || o.block == nil {
		return text
	}
	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return text
	}
	bs := o.block.BlockSize()
	if len(raw) == 0 || len(raw)%bs != 0 {
		return text
	}
	for i := 0; i < len(raw); i += bs {
		o.block.Decrypt(raw[i:i+bs], raw[i:i+bs])
	}
	plain, err := pkcs7Unpad(raw, bs)
	if err != nil {
		return text
	}
	return string(plain)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(bytes.Clone(data), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errors.New("invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-n], nil
}
