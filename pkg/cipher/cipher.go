// Package cipher implements the deterministic field cipher used for every
// sensitive attribute and encrypted key component.
//
// The same plaintext always yields the same ciphertext under a fixed key and
// IV, which is what makes encrypted values usable inside partition and sort
// keys. Key and IV are derived from operator supplied secrets:
//
//	key = SHA-256(secretKey)      (AES-256)
//	iv  = SHA-256(secretIV)[:16]
//
// Ciphertext is the standard base64 encoding of AES-256-CBC with PKCS#7 padding.
package cipher

import (
	"crypto/aes"
	gocipher "crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	ErrMissingSecret  = errors.New("cipher secret key and iv are required")
	ErrInvalidInput   = errors.New("ciphertext is not valid base64")
	ErrInvalidLength  = errors.New("ciphertext length is not a multiple of the block size")
	ErrInvalidPadding = errors.New("ciphertext padding is invalid")
)

// FieldCipher encrypts and decrypts single string values.
// It is safe for concurrent use.
type FieldCipher struct {
	block gocipher.Block
	iv    []byte
}

// New derives the AES key and IV from the given secrets.
func New(secretKey, secretIV string) (*FieldCipher, error) {
	if secretKey == "" || secretIV == "" {
		return nil, ErrMissingSecret
	}

	key := sha256.Sum256([]byte(secretKey))
	ivSum := sha256.Sum256([]byte(secretIV))

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher block: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	copy(iv, ivSum[:aes.BlockSize])

	return &FieldCipher{block: block, iv: iv}, nil
}

// Encrypt returns the base64 ciphertext of plaintext. Empty input is passed
// through unchanged and treated as an absent field.
func (c *FieldCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	padded := pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	gocipher.NewCBCEncrypter(c.block, c.iv).CryptBlocks(out, padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt.
func (c *FieldCipher) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return "", ErrInvalidLength
	}

	out := make([]byte, len(raw))
	gocipher.NewCBCDecrypter(c.block, c.iv).CryptBlocks(out, raw)

	plain, err := unpad(out, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// EncryptFields encrypts every value of fields into a new map.
func (c *FieldCipher) EncryptFields(fields map[string]string) (map[string]string, error) {
	return c.apply(fields, c.Encrypt)
}

// DecryptFields decrypts every value of fields into a new map. The first
// failing field aborts the whole batch.
func (c *FieldCipher) DecryptFields(fields map[string]string) (map[string]string, error) {
	return c.apply(fields, c.Decrypt)
}

func (c *FieldCipher) apply(fields map[string]string, fn func(string) (string, error)) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	for name, value := range fields {
		v, err := fn(value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

func pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	out := make([]byte, len(b)+n)
	copy(out, b)
	for i := len(b); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

func unpad(b []byte, blockSize int) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, ErrInvalidPadding
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, ErrInvalidPadding
		}
	}
	return b[:len(b)-n], nil
}
