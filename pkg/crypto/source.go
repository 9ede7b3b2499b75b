package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ngrpv/untar/pkg/storage"
)

// DecryptSource wraps a source holding an encrypted container and exposes
// the plaintext archive inside it. CTR mode keeps random access cheap:
// the keystream for any offset is computed by advancing the block
// counter, never by streaming from the start.
type DecryptSource struct {
	inner    storage.Source
	password string
	aesKey   []byte
	hmacKey  []byte
}

// NewDecryptSource creates a source that derives its keys from password
// and the salt stored in the container header.
func NewDecryptSource(inner storage.Source, password string) *DecryptSource {
	return &DecryptSource{
		inner:    inner,
		password: password,
	}
}

// NewDecryptSourceWithKeys creates a source using pre-derived keys,
// bypassing password derivation.
func NewDecryptSourceWithKeys(inner storage.Source, aesKey, hmacKey []byte) (*DecryptSource, error) {
	if len(aesKey) != AESKeySize {
		return nil, fmt.Errorf("invalid AES key size: expected %d, got %d", AESKeySize, len(aesKey))
	}
	if len(hmacKey) != HMACKeySize {
		return nil, fmt.Errorf("invalid HMAC key size: expected %d, got %d", HMACKeySize, len(hmacKey))
	}
	return &DecryptSource{
		inner:   inner,
		aesKey:  aesKey,
		hmacKey: hmacKey,
	}, nil
}

// Open opens the container, checks its header and prepares the cipher.
func (s *DecryptSource) Open(ctx context.Context) (storage.Reader, error) {
	inner, err := s.inner.Open(ctx)
	if err != nil {
		return nil, err
	}
	r, err := s.newReader(inner)
	if err != nil {
		inner.Close()
		return nil, err
	}
	return r, nil
}

// Name identifies the wrapped container.
func (s *DecryptSource) Name() string {
	return s.inner.Name()
}

func (s *DecryptSource) newReader(inner storage.Reader) (*decryptReader, error) {
	total := inner.Size()
	if total < int64(headerSize+trailerSize) {
		return nil, fmt.Errorf("container %s too short: %d bytes", s.inner.Name(), total)
	}

	header := make([]byte, headerSize)
	if _, err := inner.ReadAt(header, 0); err != nil {
		return nil, fmt.Errorf("failed to read container header: %w", err)
	}
	if string(header[:len(Magic)]) != Magic {
		return nil, fmt.Errorf("invalid magic: %q", header[:len(Magic)])
	}
	salt := header[len(Magic) : len(Magic)+SaltSize]
	iv := make([]byte, IVSize)
	copy(iv, header[len(Magic)+SaltSize:])

	aesKey, hmacKey := s.aesKey, s.hmacKey
	if aesKey == nil {
		var err error
		aesKey, hmacKey, err = DeriveKeys(s.password, salt)
		if err != nil {
			return nil, err
		}
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	return &decryptReader{
		inner:   inner,
		block:   block,
		hmacKey: hmacKey,
		iv:      iv,
		size:    total - int64(headerSize) - int64(trailerSize),
	}, nil
}

// Verify recomputes the HMAC over the whole ciphertext and checks it
// against the trailer, along with the declared data length. It reads the
// full container once.
func (s *DecryptSource) Verify(ctx context.Context) error {
	inner, err := s.inner.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.inner.Name(), err)
	}
	defer inner.Close()

	r, err := s.newReader(inner)
	if err != nil {
		return err
	}

	trailer := make([]byte, trailerSize)
	if _, err := inner.ReadAt(trailer, inner.Size()-int64(trailerSize)); err != nil {
		return fmt.Errorf("failed to read container trailer: %w", err)
	}
	declared := int64(binary.BigEndian.Uint64(trailer[:8]))
	if declared != r.size {
		return fmt.Errorf("container length mismatch: trailer declares %d, frame holds %d", declared, r.size)
	}

	mac := hmac.New(sha512.New, r.hmacKey)
	if _, err := inner.Seek(int64(headerSize), io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to ciphertext: %w", err)
	}
	if _, err := io.CopyN(mac, inner, r.size); err != nil {
		return fmt.Errorf("failed to read ciphertext: %w", err)
	}
	if !hmac.Equal(mac.Sum(nil), trailer[8:]) {
		return fmt.Errorf("HMAC verification failed")
	}
	return nil
}

// decryptReader is one plaintext read session over a container.
type decryptReader struct {
	inner   storage.Reader
	block   cipher.Block
	hmacKey []byte
	iv      []byte
	size    int64
	pos     int64
}

func (r *decryptReader) Read(p []byte) (int, error) {
	if r.pos >= r.size {
		return 0, io.EOF
	}
	n, err := r.ReadAt(p, r.pos)
	r.pos += int64(n)
	return n, err
}

// ReadAt reads and decrypts len(p) bytes at plaintext offset off.
func (r *decryptReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("invalid read offset %d", off)
	}
	if len(p) == 0 {
		return 0, nil
	}
	if off >= r.size {
		return 0, io.EOF
	}

	short := false
	if max := r.size - off; int64(len(p)) > max {
		p = p[:max]
		short = true
	}

	n, err := r.inner.ReadAt(p, int64(headerSize)+off)
	if n > 0 {
		r.xorKeyStreamAt(p[:n], off)
	}
	if err != nil {
		return n, err
	}
	if short {
		return n, io.EOF
	}
	return n, nil
}

func (r *decryptReader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.pos + offset
	case io.SeekEnd:
		abs = r.size + offset
	default:
		return 0, fmt.Errorf("invalid seek whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("invalid seek offset %d", abs)
	}
	r.pos = abs
	return abs, nil
}

func (r *decryptReader) Size() int64 {
	return r.size
}

func (r *decryptReader) Close() error {
	return r.inner.Close()
}

// xorKeyStreamAt applies the keystream for plaintext offset off to p.
// The counter is the IV plus off/16, with the first off%16 keystream
// bytes of that block discarded.
func (r *decryptReader) xorKeyStreamAt(p []byte, off int64) {
	ctr := make([]byte, len(r.iv))
	copy(ctr, r.iv)
	addCounter(ctr, uint64(off)/aes.BlockSize)

	stream := cipher.NewCTR(r.block, ctr)
	if skip := off % aes.BlockSize; skip > 0 {
		var scratch [aes.BlockSize]byte
		stream.XORKeyStream(scratch[:skip], scratch[:skip])
	}
	stream.XORKeyStream(p, p)
}

// addCounter adds n to the big-endian counter, carrying leftward.
func addCounter(ctr []byte, n uint64) {
	for i := len(ctr) - 1; i >= 0 && n > 0; i-- {
		n += uint64(ctr[i])
		ctr[i] = byte(n)
		n >>= 8
	}
}
