// Package vault implements encryption at rest for named secrets: an AEAD
// cipher, the master key lifecycle, and the CredentialStore façade over a
// text-only SecretBackend.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
)

const (
	// KeySize is the master key length in bytes.
	KeySize = 32
	// NonceSize is the per-record nonce length in bytes.
	NonceSize = 12
)

// Cipher seals and opens records under a 32-byte key with no associated data.
type Cipher interface {
	Algorithm() string
	Encrypt(key, plaintext []byte) (model.EncryptedRecord, error)
	Decrypt(key []byte, rec model.EncryptedRecord) ([]byte, error)
}

// AEADCipher adapts a cipher.AEAD constructor to Cipher.
type AEADCipher struct {
	algorithm string
	newAEAD   func(key []byte) (cipher.AEAD, error)
	rand      io.Reader
}

// NewAESGCM returns the default AES-256-GCM cipher.
func NewAESGCM() *AEADCipher {
	return &AEADCipher{
		algorithm: model.AlgorithmAESGCM,
		newAEAD: func(key []byte) (cipher.AEAD, error) {
			block, err := aes.NewCipher(key)
			if err != nil {
				return nil, fmt.Errorf("aes.NewCipher: %w", err)
			}
			return cipher.NewGCM(block)
		},
		rand: rand.Reader,
	}
}

// NewChaCha20Poly1305 returns a ChaCha20-Poly1305 cipher for hosts without
// AES hardware acceleration.
func NewChaCha20Poly1305() *AEADCipher {
	return &AEADCipher{
		algorithm: model.AlgorithmChaCha20Poly1305,
		newAEAD:   chacha20poly1305.New,
		rand:      rand.Reader,
	}
}

// NewCipher selects a cipher by algorithm name. An empty name selects AES-256-GCM.
func NewCipher(algorithm string) (*AEADCipher, error) {
	switch algorithm {
	case "", model.AlgorithmAESGCM:
		return NewAESGCM(), nil
	case model.AlgorithmChaCha20Poly1305:
		return NewChaCha20Poly1305(), nil
	default:
		return nil, fmt.Errorf("unsupported cipher %q", algorithm)
	}
}

func (c *AEADCipher) Algorithm() string { return c.algorithm }

// Encrypt seals plaintext under key with a freshly generated random nonce.
func (c *AEADCipher) Encrypt(key, plaintext []byte) (model.EncryptedRecord, error) {
	const op = "vault.Encrypt"

	if len(key) != KeySize {
		return model.EncryptedRecord{}, model.Errorf(model.KindEncryption, op, "key must be %d bytes, got %d", KeySize, len(key))
	}
	aead, err := c.newAEAD(key)
	if err != nil {
		return model.EncryptedRecord{}, model.NewError(model.KindEncryption, op, err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return model.EncryptedRecord{}, model.NewError(model.KindEncryption, op, fmt.Errorf("rand nonce: %w", err))
	}

	return model.EncryptedRecord{
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, plaintext, nil),
		Algorithm:  c.algorithm,
	}, nil
}

// Decrypt opens rec under key. Any tampering with the nonce or ciphertext, or
// a key other than the one used to seal, fails authentication.
func (c *AEADCipher) Decrypt(key []byte, rec model.EncryptedRecord) ([]byte, error) {
	const op = "vault.Decrypt"

	if len(key) != KeySize {
		return nil, model.Errorf(model.KindDecryption, op, "key must be %d bytes, got %d", KeySize, len(key))
	}
	if rec.Algorithm != "" && rec.Algorithm != c.algorithm {
		return nil, model.Errorf(model.KindDecryption, op, "record sealed with %s, cipher is %s", rec.Algorithm, c.algorithm)
	}
	aead, err := c.newAEAD(key)
	if err != nil {
		return nil, model.NewError(model.KindDecryption, op, err)
	}
	if len(rec.Nonce) != aead.NonceSize() {
		return nil, model.Errorf(model.KindDecryption, op, "nonce must be %d bytes, got %d", aead.NonceSize(), len(rec.Nonce))
	}

	plaintext, err := aead.Open(nil, rec.Nonce, rec.Ciphertext, nil)
	if err != nil {
		return nil, model.NewError(model.KindDecryption, op, err)
	}
	return plaintext, nil
}
