// Package crypto provides the primitives behind the local encrypted
// container: Argon2id key derivation and AES-256-GCM sealing of container
// members.
//
// # Security Features
//
//   - AES-256-GCM authenticated encryption with caller-supplied associated data
//   - Argon2id key derivation with parameters stored alongside the data
//   - Cryptographically secure random salts and nonces
//   - Secure memory wiping for keys and passphrases
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters following OWASP recommendations.
const (
	// Argon2Memory is the memory cost in KiB (64MB).
	Argon2Memory = 64 * 1024

	// Argon2Time is the number of iterations.
	Argon2Time = 3

	// Argon2Threads is the degree of parallelism.
	Argon2Threads = 4

	// KeyLength is the length of encryption keys in bytes (256 bits).
	KeyLength = 32

	// SaltLength is the length of key derivation salts in bytes (128 bits).
	SaltLength = 16

	// NonceLength is the length of GCM nonces in bytes (96 bits).
	NonceLength = 12
)

// Sentinel errors returned by crypto functions.
var (
	// ErrInvalidKeyLength indicates the key is not 32 bytes.
	ErrInvalidKeyLength = errors.New("crypto: invalid key length, must be 32 bytes")

	// ErrInvalidNonceLength indicates the nonce is not 12 bytes.
	ErrInvalidNonceLength = errors.New("crypto: invalid nonce length, must be 12 bytes")

	// ErrInvalidParams indicates unusable key derivation parameters.
	ErrInvalidParams = errors.New("crypto: invalid key derivation parameters")

	// ErrDecryptionFailed indicates decryption or authentication tag verification failed.
	ErrDecryptionFailed = errors.New("crypto: decryption failed, authentication tag verification failed")
)

// KDFParams are the Argon2id cost parameters. They are persisted with the
// salt so a container stays readable if the defaults change.
type KDFParams struct {
	Memory  uint32
	Time    uint32
	Threads uint8
}

// DefaultKDFParams returns the OWASP-recommended parameters.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Memory:  Argon2Memory,
		Time:    Argon2Time,
		Threads: Argon2Threads,
	}
}

// Validate checks the parameters are usable by argon2.IDKey.
func (p KDFParams) Validate() error {
	if p.Memory == 0 || p.Time == 0 || p.Threads == 0 {
		return ErrInvalidParams
	}
	return nil
}

// DeriveKey derives a 256-bit key from a passphrase with Argon2id.
func DeriveKey(passphrase, salt []byte, p KDFParams) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return argon2.IDKey(passphrase, salt, p.Time, p.Memory, p.Threads, KeyLength), nil
}

// GenerateSalt returns SaltLength random bytes.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("crypto: failed to generate salt: %w", err)
	}
	return salt, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidKeyLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to create GCM: %w", err)
	}
	return gcm, nil
}

// Encrypt seals plaintext with AES-256-GCM under a fresh random nonce.
// additionalData is authenticated but not encrypted; the same value must be
// passed to Decrypt.
func Encrypt(key, plaintext, additionalData []byte) (ciphertext []byte, nonce []byte, err error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, NonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("crypto: failed to generate nonce: %w", err)
	}

	return gcm.Seal(nil, nonce, plaintext, additionalData), nonce, nil
}

// Decrypt opens ciphertext sealed by Encrypt. Any tampering with the
// ciphertext, nonce or additional data yields ErrDecryptionFailed.
func Decrypt(key, ciphertext, nonce, additionalData []byte) ([]byte, error) {
	if len(nonce) != NonceLength {
		return nil, ErrInvalidNonceLength
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.Overhead() {
		return nil, ErrDecryptionFailed
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// SecureWipe overwrites a byte slice with zeros in a way that prevents
// compiler optimization from removing the operation.
func SecureWipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
