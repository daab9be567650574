package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// encryptedMarker tags envelope messages. It sits in the Name field, which
// never reaches a prompt because Load unwraps the envelope first.
const encryptedMarker = "__encrypted__"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new messages.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.TranscriptStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts each transcript
// message with AES-GCM before it reaches the underlying store. The role
// stays visible for monitoring; content and speaker name are hidden.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.TranscriptStore) ports.TranscriptStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Append(ctx context.Context, sessionID string, msgs ...domain.Message) error {
	envelopes := make([]domain.Message, len(msgs))
	for i, msg := range msgs {
		plainText, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}

		ciphertext, err := encrypt(plainText, m.config.ActiveKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt message: %w", err)
		}

		envelopes[i] = domain.Message{
			Role:    msg.Role,
			Name:    encryptedMarker,
			Content: base64.StdEncoding.EncodeToString(ciphertext),
		}
	}

	return m.next.Append(ctx, sessionID, envelopes...)
}

func (m *encryptionMiddleware) Load(ctx context.Context, sessionID string) ([]domain.Message, error) {
	envelopes, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	msgs := make([]domain.Message, len(envelopes))
	for i, envelope := range envelopes {
		// Fail secure: with encryption configured, a plaintext message in
		// the store is a misconfiguration, not something to pass through.
		if envelope.Name != encryptedMarker {
			return nil, errors.New("transcript message is missing its encryption envelope")
		}

		ciphertext, err := base64.StdEncoding.DecodeString(envelope.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
		}

		plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt message: %w", err)
		}

		if err := json.Unmarshal(plainText, &msgs[i]); err != nil {
			return nil, fmt.Errorf("failed to unmarshal decrypted message: %w", err)
		}
	}

	return msgs, nil
}

func (m *encryptionMiddleware) Trim(ctx context.Context, sessionID string, keep int) error {
	return m.next.Trim(ctx, sessionID, keep)
}

func (m *encryptionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	// Try active key first
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	// Try fallbacks in order
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
