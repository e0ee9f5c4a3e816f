// Package keys manages the escrow operator's signing key. The key is sealed
// at rest with a passphrase: scrypt derives the cipher key and
// XChaCha20-Poly1305 authenticates the payload, so a tampered key file fails
// to open rather than signing payouts with a wrong key.
package keys

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const (
	// scrypt parameters for the key-encryption key.
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32

	saltLen     = 16
	checksumLen = 4
)

// GenerateOperatorKey creates a fresh operator signing key.
func GenerateOperatorKey() (*ec.PrivateKey, error) {
	priv, err := ec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("keys: generate operator key: %w", err)
	}
	return priv, nil
}

// SealKey encrypts the operator key with a passphrase.
//
// Output format: salt(16) || nonce(24) || XChaCha20-Poly1305(scrypt(passphrase, salt), nonce, key || checksum)
//
// The checksum is SHA256(key)[:4], verified on open to confirm the right
// passphrase produced the right key.
func SealKey(priv *ec.PrivateKey, passphrase string) ([]byte, error) {
	if priv == nil {
		return nil, ErrNilKey
	}
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("keys: generate salt: %w", err)
	}

	kek, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("keys: derive key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(kek)
	if err != nil {
		return nil, fmt.Errorf("keys: create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("keys: generate nonce: %w", err)
	}

	keyBytes := priv.D.FillBytes(make([]byte, 32))
	sum := sha256.Sum256(keyBytes)
	plaintext := append(keyBytes, sum[:checksumLen]...)

	sealed := aead.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, saltLen+len(nonce)+len(sealed))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// OpenKey decrypts a sealed operator key with a passphrase.
func OpenKey(sealed []byte, passphrase string) (*ec.PrivateKey, error) {
	if len(sealed) < saltLen+chacha20poly1305.NonceSizeX+checksumLen {
		return nil, ErrDecryptionFailed
	}

	salt := sealed[:saltLen]
	nonce := sealed[saltLen : saltLen+chacha20poly1305.NonceSizeX]
	ciphertext := sealed[saltLen+chacha20poly1305.NonceSizeX:]

	kek, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("keys: derive key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(kek)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	if len(plaintext) < checksumLen+1 {
		return nil, ErrDecryptionFailed
	}

	keyBytes := plaintext[:len(plaintext)-checksumLen]
	sum := sha256.Sum256(keyBytes)
	for i := 0; i < checksumLen; i++ {
		if plaintext[len(keyBytes)+i] != sum[i] {
			return nil, ErrChecksumMismatch
		}
	}

	priv, _ := ec.PrivateKeyFromBytes(keyBytes)
	return priv, nil
}

// OperatorKeyPath returns the sealed key location inside a data directory.
func OperatorKeyPath(dataDir string) string {
	return filepath.Join(dataDir, "operator.key")
}

// SaveOperatorKey seals and writes the operator key file.
func SaveOperatorKey(path string, priv *ec.PrivateKey, passphrase string) error {
	sealed, err := SealKey(priv, passphrase)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, sealed, 0600); err != nil {
		return fmt.Errorf("keys: write operator key: %w", err)
	}
	return nil
}

// LoadOperatorKey reads and opens the operator key file.
func LoadOperatorKey(path string, passphrase string) (*ec.PrivateKey, error) {
	sealed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keys: read operator key: %w", err)
	}
	return OpenKey(sealed, passphrase)
}
