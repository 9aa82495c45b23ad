// Package vault encrypts per-user and per-station secrets at rest
// using AES-256-GCM under a single process-wide key.
//
// Stored form is base64(IV || tag || ciphertext) with a 16-byte IV and
// a 16-byte tag. The key is derived once from the configured secret
// with PBKDF2; the salt is fixed by design, so changing the secret
// invalidates every previously encrypted value. There is no key
// rotation.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

const (
	ivLength      = 16
	tagLength     = 16
	keyLength     = 32
	kdfIterations = 100000
)

// Fixed KDF salt. Must stay stable or existing rows become
// undecryptable.
var kdfSalt = []byte("nextlog-encryption-salt-2024")

type Vault struct {
	key []byte
}

func New(secret string) (*Vault, error) {
	if secret == "" {
		return nil, errors.New("encryption secret is required")
	}

	key := pbkdf2.Key([]byte(secret), kdfSalt, kdfIterations, keyLength, sha256.New)
	return &Vault{key: key}, nil
}

// Encrypt returns the opaque stored form of plaintext. Empty input
// maps to empty output so absent secrets are never encrypted.
func (v *Vault) Encrypt(plaintext string) string {
	if plaintext == "" {
		return ""
	}

	gcm, err := v.gcm()
	if err != nil {
		return ""
	}

	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return ""
	}

	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)

	// Seal appends the tag; stored layout keeps it up front after the
	// IV, so split and reassemble.
	ciphertext := sealed[:len(sealed)-tagLength]
	tag := sealed[len(sealed)-tagLength:]

	combined := make([]byte, 0, ivLength+tagLength+len(ciphertext))
	combined = append(combined, iv...)
	combined = append(combined, tag...)
	combined = append(combined, ciphertext...)

	return base64.StdEncoding.EncodeToString(combined)
}

// Decrypt reverses Encrypt. Malformed, truncated or tampered input
// yields "" rather than an error; callers treat empty as "no usable
// secret".
func (v *Vault) Decrypt(encoded string) string {
	if encoded == "" {
		return ""
	}

	combined, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(combined) < ivLength+tagLength {
		return ""
	}

	iv := combined[:ivLength]
	tag := combined[ivLength : ivLength+tagLength]
	ciphertext := combined[ivLength+tagLength:]

	gcm, err := v.gcm()
	if err != nil {
		return ""
	}

	sealed := make([]byte, 0, len(ciphertext)+tagLength)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return ""
	}

	return string(plaintext)
}

func (v *Vault) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, ivLength)
}
