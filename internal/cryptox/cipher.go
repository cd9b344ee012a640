// Package cryptox implements the symmetric cipher applied to tokens before
// they touch persistent storage. Plaintext tokens exist only in process
// memory; the key is derived once at startup from an external passphrase and
// is never stored alongside the ciphertext.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"github.com/saurabhpnd/tradeauth/internal/common"
	"golang.org/x/crypto/argon2"
)

// ErrDecrypt is returned when a ciphertext fails authentication, typically
// because a different key was used. Decryption never yields silently wrong
// plaintext.
var ErrDecrypt = errors.New("decryption failed")

// Cipher seals and opens small secrets. Implementations must be safe for
// concurrent use; TokenStore encrypts and decrypts from multiple goroutines.
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// DeriveKey stretches a passphrase into a 32-byte AES key using argon2id.
// The same passphrase and salt always yield the same key.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, 32)
}

// AESGCM is the production Cipher: AES-256-GCM with a random 12-byte nonce
// prepended to each ciphertext.
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM builds an AESGCM cipher from a 16/24/32-byte key.
func NewAESGCM(key []byte) (*AESGCM, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return &AESGCM{aead: aead}, nil
}

func (c *AESGCM) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := common.GenerateRandByteArray(c.aead.NonceSize())
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (c *AESGCM) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < c.aead.NonceSize() {
		return nil, ErrDecrypt
	}
	nonce, sealed := ciphertext[:c.aead.NonceSize()], ciphertext[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}
