package model

// Supported AEAD algorithms. AES-256-GCM is the default and is omitted from
// the stored envelope.
const (
	AlgorithmAESGCM           = "aes-256-gcm"
	AlgorithmChaCha20Poly1305 = "chacha20-poly1305"
)

// EncryptedRecord is the output of a single encryption call. Nonce is fresh
// per record and never reused with the same key.
type EncryptedRecord struct {
	Nonce      []byte
	Ciphertext []byte
	Algorithm  string
}
