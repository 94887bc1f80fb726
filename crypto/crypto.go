// Package crypto implements the encrypted payload scheme used by ATM
// devices. A device encrypts "pin:amount" with its shared token secret and
// the resulting opaque blob doubles as the one-time withdraw token.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	ErrInvalidSecret  = errors.New("invalid token secret")
	ErrInvalidPayload = errors.New("invalid payload")
)

// GenerateTokenSecret returns a fresh hex-encoded 256-bit device secret.
func GenerateTokenSecret() (string, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("failed to generate token secret: %w", err)
	}

	return hex.EncodeToString(secret), nil
}

// EncryptDevicePayload encrypts plaintext with AES-256-CBC under the given
// hex secret and returns base64url(iv || ciphertext). The plaintext is
// zero-padded to the block size, matching what the device firmware emits.
func EncryptDevicePayload(secretHex, plaintext string) (string, error) {
	block, err := newCipher(secretHex)
	if err != nil {
		return "", err
	}

	padded := make([]byte, pad(len(plaintext), aes.BlockSize))
	copy(padded, plaintext)

	buf := make([]byte, aes.BlockSize+len(padded))
	iv := buf[:aes.BlockSize]
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	cipher.NewCBCEncrypter(block, iv).CryptBlocks(buf[aes.BlockSize:], padded)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// DecryptDevicePayload reverses EncryptDevicePayload. Anything structurally
// off (bad base64, short blob, misaligned ciphertext) comes back wrapped in
// ErrInvalidPayload.
func DecryptDevicePayload(secretHex, payload string) (string, error) {
	block, err := newCipher(secretHex)
	if err != nil {
		return "", err
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(raw) < aes.BlockSize*2 || (len(raw)-aes.BlockSize)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: bad length %d", ErrInvalidPayload, len(raw))
	}

	iv, ct := raw[:aes.BlockSize], raw[aes.BlockSize:]
	plain := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ct)

	// Strip the zero padding.
	for i, b := range plain {
		if b == 0 {
			plain = plain[:i]

			break
		}
	}

	return string(plain), nil
}

func newCipher(secretHex string) (cipher.Block, error) {
	key, err := hex.DecodeString(secretHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: want 32 bytes, got %d", ErrInvalidSecret, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}

	return block, nil
}

func pad(n, blockSize int) int {
	blocks := n/blockSize + 1
	return blocks * blockSize
}
