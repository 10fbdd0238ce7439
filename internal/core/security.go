// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/carterperez-dev/templates/user-api/internal/config"
)

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLength   = 16

	// MaxBcryptPasswordBytes is the longest input bcrypt will hash.
	MaxBcryptPasswordBytes = 72
)

var ErrPasswordTooLong = errors.New("password too long for hash algorithm")

func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		argonTime,
		argonMemory,
		argonThreads,
		argonKeyLen,
	)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemory,
		argonTime,
		argonThreads,
		b64Salt,
		b64Hash,
	)

	return encoded, nil
}

func VerifyPassword(password, encodedHash string) (bool, error) {
	params, salt, hash, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}

	otherHash := argon2.IDKey(
		[]byte(password),
		salt,
		params.time,
		params.memory,
		params.threads,
		params.keyLen,
	)

	if subtle.ConstantTimeCompare(hash, otherHash) == 1 {
		return true, nil
	}

	return false, nil
}

type PasswordHasher struct {
	algorithm  string
	bcryptCost int
	dummyHash  string
}

func NewPasswordHasher(cfg config.PasswordConfig) (*PasswordHasher, error) {
	h := &PasswordHasher{
		algorithm:  cfg.Algorithm,
		bcryptCost: cfg.BcryptCost,
	}

	if h.algorithm == "" {
		h.algorithm = config.HashArgon2id
	}
	if h.bcryptCost == 0 {
		h.bcryptCost = bcrypt.DefaultCost
	}

	dummy, err := h.Hash("dummy_password_for_timing_attack_prevention")
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}
	h.dummyHash = dummy

	return h, nil
}

func (h *PasswordHasher) Algorithm() string {
	return h.algorithm
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	if h.algorithm == config.HashBcrypt {
		if len(password) > MaxBcryptPasswordBytes {
			return "", fmt.Errorf("bcrypt hash: %w", ErrPasswordTooLong)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
		if err != nil {
			return "", fmt.Errorf("bcrypt hash: %w", err)
		}
		return string(hash), nil
	}

	return HashPassword(password)
}

// Verify accepts both argon2id and bcrypt encodings regardless of the
// configured algorithm. Malformed hashes never verify.
func (h *PasswordHasher) Verify(password, encodedHash string) bool {
	switch {
	case strings.HasPrefix(encodedHash, "$argon2id$"):
		valid, err := VerifyPassword(password, encodedHash)
		return err == nil && valid
	case isBcryptHash(encodedHash):
		err := bcrypt.CompareHashAndPassword(
			[]byte(encodedHash),
			[]byte(password),
		)
		return err == nil
	default:
		return false
	}
}

func (h *PasswordHasher) VerifyTimingSafe(
	password string,
	encodedHash *string,
) bool {
	hashToVerify := h.dummyHash
	if encodedHash != nil && *encodedHash != "" {
		hashToVerify = *encodedHash
	}

	valid := h.Verify(password, hashToVerify)

	if encodedHash == nil || *encodedHash == "" {
		return false
	}

	return valid
}

func isBcryptHash(encodedHash string) bool {
	return strings.HasPrefix(encodedHash, "$2a$") ||
		strings.HasPrefix(encodedHash, "$2b$") ||
		strings.HasPrefix(encodedHash, "$2y$")
}

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

func decodeHash(encodedHash string) (*argonParams, []byte, []byte, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return nil, nil, nil, fmt.Errorf("invalid hash format")
	}

	if parts[1] != "argon2id" {
		return nil, nil, nil, fmt.Errorf("unsupported algorithm: %s", parts[1])
	}

	var version int
	_, err := fmt.Sscanf(parts[2], "v=%d", &version)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid version: %w", err)
	}

	if version != argon2.Version {
		return nil, nil, nil, fmt.Errorf("incompatible version: %d", version)
	}

	params := &argonParams{}
	_, err = fmt.Sscanf(
		parts[3],
		"m=%d,t=%d,p=%d",
		&params.memory,
		&params.time,
		&params.threads,
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid params: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("decode salt: %w", err)
	}

	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("decode hash: %w", err)
	}

	//nolint:gosec // G115: hash length is always small (32 bytes for Argon2id)
	params.keyLen = uint32(len(hash))

	return params, salt, hash, nil
}
