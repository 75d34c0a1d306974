// Package cryptox holds the credential primitives: one-way password
// hashing for stored credentials and reversible symmetric encryption for
// secrets that legitimate key holders must be able to read back.
//
// The two are deliberately separate. Hashing assumes the stored form may
// leak and must resist offline guessing; encryption assumes the passphrase
// is the secret and the operation must be reversible.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/astepanovs/gatehouse/internal/common"
)

const (
	// PBKDF2 parameters for password hashing.
	hashIterations = 10000
	hashKeyLen     = 64
	saltSize       = 16

	// Parameters for passphrase-based encryption.
	encIterations = 10000
	encKeyLen     = 32
	nonceSize     = 12
)

// HashPassword derives a one-way stored form of the given password:
// a fresh random 16-byte salt and a PBKDF2-HMAC-SHA512 hash with 10000
// iterations and a 64-byte output. The result is self-describing,
// "salt:hash" with both fields hex-encoded.
func HashPassword(password string) (string, error) {
	salt, err := common.MakeRandHexString(saltSize)
	if err != nil {
		return "", fmt.Errorf("salt generation: %w", err)
	}

	hash := pbkdf2.Key([]byte(password), []byte(salt), hashIterations, hashKeyLen, sha512.New)

	return salt + ":" + hex.EncodeToString(hash), nil
}

// VerifyPassword reports whether password matches the stored form produced
// by HashPassword. It fails closed: malformed input (missing separator,
// non-hex hash) yields false, never an error, and the caller cannot tell a
// malformed stored form apart from a plain mismatch. The comparison is
// constant-time.
func VerifyPassword(password string, stored string) bool {
	salt, hashHex, ok := strings.Cut(stored, ":")
	if !ok || salt == "" || hashHex == "" {
		return false
	}

	hash, err := hex.DecodeString(hashHex)
	if err != nil {
		return false
	}

	candidate := pbkdf2.Key([]byte(password), []byte(salt), hashIterations, hashKeyLen, sha512.New)

	if len(hash) != len(candidate) {
		return false
	}
	return subtle.ConstantTimeCompare(hash, candidate) == 1
}

// Encrypt seals plaintext with AES-256-GCM under a key derived from the
// passphrase. A fresh random salt and nonce are generated per call, so
// encrypting the same plaintext twice yields different ciphertexts.
// The output is "salt:nonce:ciphertext" with all fields hex-encoded.
func Encrypt(plaintext string, passphrase string) (string, error) {
	salt := common.GenerateRandByteArray(saltSize)
	nonce := common.GenerateRandByteArray(nonceSize)

	key := pbkdf2.Key([]byte(passphrase), salt, encIterations, encKeyLen, sha256.New)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	sealed := aesgcm.Seal(nil, nonce, []byte(plaintext), nil)

	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(nonce) + ":" + hex.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. A wrong passphrase or corrupted ciphertext
// yields common.ErrDecryptionFailed; GCM authentication guarantees no
// partially-decrypted or garbage plaintext is ever returned.
func Decrypt(ciphertext string, passphrase string) (string, error) {
	parts := strings.Split(ciphertext, ":")
	if len(parts) != 3 {
		return "", common.ErrDecryptionFailed
	}

	salt, err := hex.DecodeString(parts[0])
	if err != nil || len(salt) != saltSize {
		return "", common.ErrDecryptionFailed
	}

	nonce, err := hex.DecodeString(parts[1])
	if err != nil || len(nonce) != nonceSize {
		return "", common.ErrDecryptionFailed
	}

	sealed, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", common.ErrDecryptionFailed
	}

	key := pbkdf2.Key([]byte(passphrase), salt, encIterations, encKeyLen, sha256.New)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", common.ErrDecryptionFailed
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", common.ErrDecryptionFailed
	}

	plaintext, err := aesgcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", common.ErrDecryptionFailed
	}

	return string(plaintext), nil
}

// CanDecrypt reports whether Decrypt would succeed and yield non-empty
// output. It performs the full decryption, so its timing does not differ
// materially from a real decrypt attempt.
func CanDecrypt(ciphertext string, passphrase string) bool {
	plaintext, err := Decrypt(ciphertext, passphrase)
	return err == nil && len(plaintext) > 0
}
