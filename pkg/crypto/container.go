package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"hash"
	"io"
)

// Magic identifies an encrypted archive container.
const Magic = "UNTE"

const (
	headerSize  = len(Magic) + SaltSize + IVSize
	trailerSize = 8 + sha512.Size
)

// Encryptor produces encrypted archive containers. The cipher is AES-256
// in CTR mode; integrity comes from HMAC-SHA512 over the ciphertext.
type Encryptor struct {
	aesKey  []byte
	hmacKey []byte
	salt    []byte
}

// NewEncryptor creates an encryptor from derived keys and the salt they
// were derived with. The salt is stored in the container header so
// decryption can re-derive the keys from the password alone.
func NewEncryptor(aesKey, hmacKey, salt []byte) (*Encryptor, error) {
	if len(aesKey) != AESKeySize {
		return nil, fmt.Errorf("invalid AES key size: expected %d, got %d", AESKeySize, len(aesKey))
	}
	if len(hmacKey) != HMACKeySize {
		return nil, fmt.Errorf("invalid HMAC key size: expected %d, got %d", HMACKeySize, len(hmacKey))
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("invalid salt size: expected %d, got %d", SaltSize, len(salt))
	}

	return &Encryptor{
		aesKey:  aesKey,
		hmacKey: hmacKey,
		salt:    salt,
	}, nil
}

// WrapWriter wraps w into an encrypting writer. Container format:
// [4 bytes magic][32 bytes salt][16 bytes IV][encrypted data...]
// [8 bytes data length][64 bytes HMAC]. Close writes the trailer and must
// be called for the container to be complete.
func (e *Encryptor) WrapWriter(w io.Writer) (io.WriteCloser, error) {
	block, err := aes.NewCipher(e.aesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	iv, err := GenerateIV()
	if err != nil {
		return nil, err
	}

	if _, err := w.Write([]byte(Magic)); err != nil {
		return nil, fmt.Errorf("failed to write magic: %w", err)
	}
	if _, err := w.Write(e.salt); err != nil {
		return nil, fmt.Errorf("failed to write salt: %w", err)
	}
	if _, err := w.Write(iv); err != nil {
		return nil, fmt.Errorf("failed to write IV: %w", err)
	}

	return &encryptWriter{
		stream: cipher.NewCTR(block, iv),
		mac:    hmac.New(sha512.New, e.hmacKey),
		writer: w,
	}, nil
}

type encryptWriter struct {
	stream  cipher.Stream
	mac     hash.Hash
	writer  io.Writer
	written int64
}

// Write encrypts p and feeds the ciphertext to the HMAC and the
// underlying writer.
func (ew *encryptWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	encrypted := make([]byte, len(p))
	ew.stream.XORKeyStream(encrypted, p)
	ew.mac.Write(encrypted)

	n, err := ew.writer.Write(encrypted)
	if err != nil {
		return n, err
	}
	ew.written += int64(n)
	return n, nil
}

// Close writes the data length and HMAC trailer.
func (ew *encryptWriter) Close() error {
	length := make([]byte, 8)
	binary.BigEndian.PutUint64(length, uint64(ew.written))
	if _, err := ew.writer.Write(length); err != nil {
		return fmt.Errorf("failed to write data length: %w", err)
	}

	if _, err := ew.writer.Write(ew.mac.Sum(nil)); err != nil {
		return fmt.Errorf("failed to write HMAC: %w", err)
	}
	return nil
}
