package pwhash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	DEFAULT_MEMORY      = 64 * 1024
	DEFAULT_ITERATIONS  = 1
	DEFAULT_PARALLELISM = 4
	DEFAULT_SALT_LENGTH = 16
	DEFAULT_KEY_LENGTH  = 32
)

var (
	ErrMissingPepper       = errors.New("password pepper must not be empty")
	ErrInvalidHash         = errors.New("the encoded hash is not in the correct format")
	ErrIncompatibleVersion = errors.New("incompatible version of argon2")
)

type Config struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	// Server-wide secret appended to passwords (not to opaque tokens)
	// before hashing.
	Pepper string
}

type Hasher struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
	pepper      string
}

func New(cfg Config) (*Hasher, error) {
	if cfg.Pepper == "" {
		return nil, ErrMissingPepper
	}
	h := &Hasher{
		memory:      cfg.Memory,
		iterations:  cfg.Iterations,
		parallelism: cfg.Parallelism,
		saltLength:  cfg.SaltLength,
		keyLength:   cfg.KeyLength,
		pepper:      cfg.Pepper,
	}
	if h.memory == 0 {
		h.memory = DEFAULT_MEMORY
	}
	if h.iterations == 0 {
		h.iterations = DEFAULT_ITERATIONS
	}
	if h.parallelism == 0 {
		h.parallelism = DEFAULT_PARALLELISM
	}
	if h.saltLength == 0 {
		h.saltLength = DEFAULT_SALT_LENGTH
	}
	if h.keyLength == 0 {
		h.keyLength = DEFAULT_KEY_LENGTH
	}
	return h, nil
}

// HashPassword hashes an account password with the configured pepper appended.
func (h *Hasher) HashPassword(password string) (string, error) {
	return h.generateFromSecret(password + h.pepper)
}

// ComparePasswordWithHash checks a plaintext password against an encoded hash.
// A mismatch is reported as (false, nil), errors only for malformed hashes.
func (h *Hasher) ComparePasswordWithHash(encodedHash string, password string) (bool, error) {
	return compareWithHash(encodedHash, password+h.pepper)
}

// HashToken hashes an opaque token (refresh token, reset token). Tokens carry
// enough entropy on their own, so no pepper is applied.
func (h *Hasher) HashToken(token string) (string, error) {
	return h.generateFromSecret(token)
}

func (h *Hasher) CompareTokenWithHash(encodedHash string, token string) (bool, error) {
	return compareWithHash(encodedHash, token)
}

func (h *Hasher) generateFromSecret(secret string) (string, error) {
	salt := make([]byte, h.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(secret), salt, h.iterations, h.memory, h.parallelism, h.keyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	encodedHash := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s", argon2.Version, h.memory, h.iterations, h.parallelism, b64Salt, b64Hash)
	return encodedHash, nil
}

func compareWithHash(encodedHash string, secret string) (bool, error) {
	memory, iterations, parallelism, salt, hash, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}

	otherHash := argon2.IDKey([]byte(secret), salt, iterations, memory, parallelism, uint32(len(hash)))

	if subtle.ConstantTimeCompare(hash, otherHash) == 1 {
		return true, nil
	}
	return false, nil
}

func decodeHash(encodedHash string) (memory uint32, iterations uint32, parallelism uint8, salt []byte, hash []byte, err error) {
	vals := strings.Split(encodedHash, "$")
	if len(vals) != 6 || vals[1] != "argon2id" {
		err = ErrInvalidHash
		return
	}

	var version int
	if _, err = fmt.Sscanf(vals[2], "v=%d", &version); err != nil {
		return
	}
	if version != argon2.Version {
		err = ErrIncompatibleVersion
		return
	}

	if _, err = fmt.Sscanf(vals[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return
	}

	salt, err = base64.RawStdEncoding.Strict().DecodeString(vals[4])
	if err != nil {
		return
	}

	hash, err = base64.RawStdEncoding.Strict().DecodeString(vals[5])
	return
}
