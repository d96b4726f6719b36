package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the size of the master key in bytes (32 bytes = 256 bits)
	KeySize = 32

	// SaltSize is the size of the salt in bytes
	SaltSize = 16

	// NonceSize is the size of the nonce for AES-GCM
	NonceSize = 12

	// PBKDF2Iterations is the number of iterations for PBKDF2
	PBKDF2Iterations = 100000
)

// MasterKey encrypts API tokens before they are handed to the system keyring
type MasterKey []byte

// GenerateMasterKey generates a cryptographically secure random master key
func GenerateMasterKey() (MasterKey, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	return MasterKey(key), nil
}

// EncryptToken seals token with a key derived from the master key.
// Returns: base64(salt + nonce + ciphertext)
func (mk MasterKey) EncryptToken(token string) (string, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := mk.aead(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := make([]byte, 0, SaltSize+NonceSize+len(token)+gcm.Overhead())
	sealed = append(sealed, salt...)
	sealed = append(sealed, nonce...)
	sealed = gcm.Seal(sealed, nonce, []byte(token), nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptToken reverses EncryptToken
func (mk MasterKey) DecryptToken(encrypted string) (string, error) {
	combined, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("failed to decode encrypted token: %w", err)
	}

	minLength := SaltSize + NonceSize + 1
	if len(combined) < minLength {
		return "", fmt.Errorf("encrypted token too short: expected at least %d bytes, got %d", minLength, len(combined))
	}

	salt := combined[:SaltSize]
	nonce := combined[SaltSize : SaltSize+NonceSize]
	ciphertext := combined[SaltSize+NonceSize:]

	gcm, err := mk.aead(salt)
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt token: %w", err)
	}
	return string(plaintext), nil
}

// aead derives a per-salt AES-GCM cipher from the master key
func (mk MasterKey) aead(salt []byte) (cipher.AEAD, error) {
	if len(mk) != KeySize {
		return nil, fmt.Errorf("invalid master key size: expected %d, got %d", KeySize, len(mk))
	}

	derivedKey := pbkdf2.Key(mk, salt, PBKDF2Iterations, KeySize, sha256.New)

	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// String returns a safe string representation (not the actual key)
func (mk MasterKey) String() string {
	return fmt.Sprintf("MasterKey[%d bytes]", len(mk))
}

// Encode encodes the master key to base64 for storage
func (mk MasterKey) Encode() string {
	return base64.StdEncoding.EncodeToString(mk)
}

// DecodeMasterKey decodes a base64-encoded master key
func DecodeMasterKey(encoded string) (MasterKey, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode master key: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid master key size: expected %d, got %d", KeySize, len(key))
	}
	return MasterKey(key), nil
}

// Zeroize clears the master key from memory
func (mk MasterKey) Zeroize() {
	for i := range mk {
		mk[i] = 0
	}
}
