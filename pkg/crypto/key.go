package crypto

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"golang.org/x/crypto/argon2"
)

const (
	// AESKeySize is the AES-256 key size.
	AESKeySize = 32
	// HMACKeySize is the HMAC-SHA512 key size.
	HMACKeySize = 64
	// IVSize is the CTR initialization vector size.
	IVSize = 16
	// SaltSize is the Argon2id salt size.
	SaltSize = 32
)

// DeriveKeys derives the AES and HMAC keys from a password with Argon2id.
// Parameters: time=3, memory=64MB, threads=4, keyLen=96 (32+64).
func DeriveKeys(password string, salt []byte) (aesKey, hmacKey []byte, err error) {
	if password == "" {
		return nil, nil, fmt.Errorf("password cannot be empty")
	}
	if len(salt) != SaltSize {
		return nil, nil, fmt.Errorf("invalid salt size: expected %d, got %d", SaltSize, len(salt))
	}

	key := argon2.IDKey([]byte(password), salt, 3, 64*1024, 4, AESKeySize+HMACKeySize)
	return key[:AESKeySize], key[AESKeySize:], nil
}

// GenerateSalt generates a random salt for key derivation.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// GenerateIV generates a random initialization vector.
func GenerateIV() ([]byte, error) {
	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("failed to generate IV: %w", err)
	}
	return iv, nil
}

// ParseKeyFile parses key file content. The format is [32 bytes AES
// key][64 bytes HMAC key], either raw or hex-encoded; surrounding
// whitespace is ignored.
func ParseKeyFile(data []byte) (aesKey, hmacKey []byte, err error) {
	keyData := bytes.TrimSpace(data)
	if len(keyData) == hex.EncodedLen(AESKeySize+HMACKeySize) {
		if decoded, err := hex.DecodeString(string(keyData)); err == nil {
			keyData = decoded
		}
	}
	if len(keyData) != AESKeySize+HMACKeySize {
		return nil, nil, fmt.Errorf("invalid key file size: expected %d, got %d", AESKeySize+HMACKeySize, len(keyData))
	}
	return keyData[:AESKeySize], keyData[AESKeySize:], nil
}

// LoadKeyFile reads and parses the key file at path.
func LoadKeyFile(path string) (aesKey, hmacKey []byte, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return ParseKeyFile(data)
}

// GenerateKeyFile generates fresh random key file content.
func GenerateKeyFile() ([]byte, error) {
	keyData := make([]byte, AESKeySize+HMACKeySize)
	if _, err := rand.Read(keyData); err != nil {
		return nil, fmt.Errorf("failed to generate key file: %w", err)
	}
	return keyData, nil
}
