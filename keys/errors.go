package keys

import "errors"

var (
	// ErrNilKey indicates a nil private key was passed to SealKey.
	ErrNilKey = errors.New("keys: nil private key")

	// ErrEmptyPassphrase indicates an empty passphrase.
	ErrEmptyPassphrase = errors.New("keys: empty passphrase")

	// ErrDecryptionFailed indicates the sealed key could not be decrypted,
	// usually a wrong passphrase or corrupted file.
	ErrDecryptionFailed = errors.New("keys: decryption failed")

	// ErrChecksumMismatch indicates the decrypted key failed its integrity
	// check.
	ErrChecksumMismatch = errors.New("keys: checksum mismatch")
)
