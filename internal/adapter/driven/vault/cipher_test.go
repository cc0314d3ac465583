package vault

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func ciphers() map[string]*AEADCipher {
	return map[string]*AEADCipher{
		model.AlgorithmAESGCM:           NewAESGCM(),
		model.AlgorithmChaCha20Poly1305: NewChaCha20Poly1305(),
	}
}

func TestCipher_RoundTrip(t *testing.T) {
	plaintexts := []string{
		"",
		"a",
		"BQDn2xVl8sK-access-token",
		"ünïcødé ✓ 日本語",
		string(bytes.Repeat([]byte("x"), 4096)),
	}

	for name, c := range ciphers() {
		t.Run(name, func(t *testing.T) {
			key := testKey(t)
			for _, p := range plaintexts {
				rec, err := c.Encrypt(key, []byte(p))
				require.NoError(t, err)
				assert.Len(t, rec.Nonce, NonceSize)
				assert.Equal(t, name, rec.Algorithm)

				got, err := c.Decrypt(key, rec)
				require.NoError(t, err)
				assert.Equal(t, p, string(got))
			}
		})
	}
}

func TestCipher_NonceUniqueness(t *testing.T) {
	c := NewAESGCM()
	key := testKey(t)

	seen := make(map[string]bool)
	var prev model.EncryptedRecord
	for i := 0; i < 1000; i++ {
		rec, err := c.Encrypt(key, []byte("same plaintext"))
		require.NoError(t, err)

		n := string(rec.Nonce)
		require.False(t, seen[n], "nonce repeated at iteration %d", i)
		seen[n] = true

		if i > 0 {
			assert.NotEqual(t, prev.Ciphertext, rec.Ciphertext)
		}
		prev = rec
	}
}

func TestCipher_TamperDetection(t *testing.T) {
	for name, c := range ciphers() {
		t.Run(name, func(t *testing.T) {
			key := testKey(t)
			rec, err := c.Encrypt(key, []byte("refresh-token-value"))
			require.NoError(t, err)

			for i := range rec.Ciphertext {
				tampered := rec
				tampered.Ciphertext = bytes.Clone(rec.Ciphertext)
				tampered.Ciphertext[i] ^= 0x01

				_, err := c.Decrypt(key, tampered)
				require.ErrorIs(t, err, model.ErrDecryption, "ciphertext byte %d", i)
			}
			for i := range rec.Nonce {
				tampered := rec
				tampered.Nonce = bytes.Clone(rec.Nonce)
				tampered.Nonce[i] ^= 0x80

				_, err := c.Decrypt(key, tampered)
				require.ErrorIs(t, err, model.ErrDecryption, "nonce byte %d", i)
			}
		})
	}
}

func TestCipher_WrongKey(t *testing.T) {
	c := NewAESGCM()
	rec, err := c.Encrypt(testKey(t), []byte("secret"))
	require.NoError(t, err)

	_, err = c.Decrypt(testKey(t), rec)
	assert.ErrorIs(t, err, model.ErrDecryption)
}

func TestCipher_KeyLength(t *testing.T) {
	c := NewAESGCM()

	for _, n := range []int{0, 16, 24, 31, 33} {
		_, err := c.Encrypt(make([]byte, n), []byte("x"))
		assert.ErrorIs(t, err, model.ErrEncryption, "len %d", n)

		_, err = c.Decrypt(make([]byte, n), model.EncryptedRecord{Nonce: make([]byte, NonceSize)})
		assert.ErrorIs(t, err, model.ErrDecryption, "len %d", n)
	}
}

func TestCipher_BadNonceLength(t *testing.T) {
	c := NewAESGCM()
	key := testKey(t)
	rec, err := c.Encrypt(key, []byte("x"))
	require.NoError(t, err)

	rec.Nonce = rec.Nonce[:8]
	_, err = c.Decrypt(key, rec)
	assert.ErrorIs(t, err, model.ErrDecryption)
}

func TestCipher_AlgorithmMismatch(t *testing.T) {
	key := testKey(t)
	rec, err := NewChaCha20Poly1305().Encrypt(key, []byte("x"))
	require.NoError(t, err)

	_, err = NewAESGCM().Decrypt(key, rec)
	assert.ErrorIs(t, err, model.ErrDecryption)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestCipher_RandFailure(t *testing.T) {
	c := NewAESGCM()
	c.rand = failingReader{}

	_, err := c.Encrypt(testKey(t), []byte("x"))
	assert.ErrorIs(t, err, model.ErrEncryption)
}

func TestNewCipher(t *testing.T) {
	c, err := NewCipher("")
	require.NoError(t, err)
	assert.Equal(t, model.AlgorithmAESGCM, c.Algorithm())

	c, err = NewCipher(model.AlgorithmChaCha20Poly1305)
	require.NoError(t, err)
	assert.Equal(t, model.AlgorithmChaCha20Poly1305, c.Algorithm())

	_, err = NewCipher("rot13")
	assert.Error(t, err)
}
