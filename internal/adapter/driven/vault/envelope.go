package vault

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
)

// envelope is the text form of an EncryptedRecord. Alg is written only for
// non-default ciphers so AES-GCM envelopes stay {"nonce","ciphertext"}.
type envelope struct {
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
	Alg        string `json:"alg,omitempty"`
}

// EncodeEnvelope serializes rec for a text-only backend.
func EncodeEnvelope(rec model.EncryptedRecord) (string, error) {
	env := envelope{
		Nonce:      base64.StdEncoding.EncodeToString(rec.Nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(rec.Ciphertext),
	}
	if rec.Algorithm != model.AlgorithmAESGCM {
		env.Alg = rec.Algorithm
	}

	data, err := json.Marshal(env)
	if err != nil {
		return "", model.NewError(model.KindEncryption, "vault.EncodeEnvelope", err)
	}
	return string(data), nil
}

// DecodeEnvelope parses text produced by EncodeEnvelope. Malformed input is a
// decryption failure since the record cannot be opened.
func DecodeEnvelope(text string) (model.EncryptedRecord, error) {
	const op = "vault.DecodeEnvelope"

	var env envelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return model.EncryptedRecord{}, model.NewError(model.KindDecryption, op, fmt.Errorf("parse envelope: %w", err))
	}

	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return model.EncryptedRecord{}, model.NewError(model.KindDecryption, op, fmt.Errorf("decode nonce: %w", err))
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return model.EncryptedRecord{}, model.NewError(model.KindDecryption, op, fmt.Errorf("decode ciphertext: %w", err))
	}

	alg := env.Alg
	if alg == "" {
		alg = model.AlgorithmAESGCM
	}
	return model.EncryptedRecord{Nonce: nonce, Ciphertext: ciphertext, Algorithm: alg}, nil
}
