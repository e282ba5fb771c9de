package artifact

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// Encrypted artifact layout: magic(8) + salt(16) + nonce(12) + sealed data.
const encMagic = "GCM3NCR0"

const (
	saltLen   = 16
	nonceLen  = 12
	kdfRounds = 100000
	keyLen    = 32
)

// Encrypt seals data under a passphrase-derived AES-256-GCM key.
func Encrypt(data []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	key := pbkdf2.Key([]byte(passphrase), salt, kdfRounds, keyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, data, nil)
	out := make([]byte, 0, len(encMagic)+saltLen+nonceLen+len(sealed))
	out = append(out, encMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// Decrypt reverses Encrypt. Fails on a wrong passphrase or tampered data.
func Decrypt(data []byte, passphrase string) ([]byte, error) {
	header := len(encMagic) + saltLen + nonceLen
	if len(data) < header+16 {
		return nil, fmt.Errorf("encrypted data too short: %d bytes", len(data))
	}
	if string(data[:len(encMagic)]) != encMagic {
		return nil, fmt.Errorf("unrecognized encryption format")
	}
	salt := data[len(encMagic) : len(encMagic)+saltLen]
	nonce := data[len(encMagic)+saltLen : header]
	sealed := data[header:]

	key := pbkdf2.Key([]byte(passphrase), salt, kdfRounds, keyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt failed: %w", err)
	}
	return plain, nil
}
