// Package cryptox hashes and verifies account passwords.
//
// Hashes are self-describing: bcrypt hashes start with "$2a$", "$2b$" or
// "$2y$", argon2id hashes use the PHC string format
// "$argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt>$<key>". Compare picks the
// algorithm from the stored hash, so switching the configured algorithm keeps
// existing accounts working.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/videotube/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"

	// DefaultBcryptCost matches the cost used for stored account hashes.
	DefaultBcryptCost = 10

	argon2Version = 19
)

var ErrInvalidHash = errors.New("invalid password hash")

// Argon2Params configures argon2id hashing.
type Argon2Params struct {
	Iterations  uint32
	MemoryKiB   uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params are the parameters new argon2id hashes are created with.
var DefaultArgon2Params = Argon2Params{
	Iterations:  1,
	MemoryKiB:   64 * 1024,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// PasswordHasher creates and checks password hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare reports whether password matches encoded. A mismatch is
	// (false, nil); an unreadable hash is ErrInvalidHash.
	Compare(encoded, password string) (bool, error)
}

type Hasher struct {
	algorithm  string
	bcryptCost int
	argon      Argon2Params
}

type Option func(*Hasher)

func WithBcryptCost(cost int) Option {
	return func(h *Hasher) { h.bcryptCost = cost }
}

func WithArgon2Params(p Argon2Params) Option {
	return func(h *Hasher) { h.argon = p }
}

// NewHasher returns a Hasher producing hashes with the given algorithm.
// An empty algorithm selects bcrypt.
func NewHasher(algorithm string, opts ...Option) (*Hasher, error) {
	switch algorithm {
	case "":
		algorithm = AlgorithmBcrypt
	case AlgorithmBcrypt, AlgorithmArgon2id:
	default:
		return nil, fmt.Errorf("unsupported password hash algorithm %q", algorithm)
	}

	h := &Hasher{algorithm: algorithm, bcryptCost: DefaultBcryptCost, argon: DefaultArgon2Params}
	for _, o := range opts {
		o(h)
	}
	return h, nil
}

func (h *Hasher) Algorithm() string {
	return h.algorithm
}

func (h *Hasher) Hash(password string) (string, error) {
	if h.algorithm == AlgorithmArgon2id {
		return h.hashArgon2id(password)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password longer than 72 bytes", common.ErrInvalidInput)
	}
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

func (h *Hasher) Compare(encoded, password string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return h.compareArgon2id(encoded, password)
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		if err == nil {
			return true, nil
		}
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, ErrInvalidHash
	default:
		return false, ErrInvalidHash
	}
}

// DeriveKey runs argon2id over password and salt with the given parameters.
func DeriveKey(password, salt []byte, p Argon2Params) []byte {
	return argon2.IDKey(password, salt, p.Iterations, p.MemoryKiB, p.Parallelism, p.KeyLength)
}

func (h *Hasher) hashArgon2id(password string) (string, error) {
	salt := common.GenerateRandByteArray(int(h.argon.SaltLength))
	key := DeriveKey([]byte(password), salt, h.argon)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		h.argon.MemoryKiB,
		h.argon.Iterations,
		h.argon.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	), nil
}

func (h *Hasher) compareArgon2id(encoded, password string) (bool, error) {
	p, salt, expected, err := decodeArgon2id(encoded)
	if err != nil {
		return false, err
	}

	// refuse hashes asking for far more work than we would ever configure
	if p.MemoryKiB > 4*h.argon.MemoryKiB || p.Iterations > 4*h.argon.Iterations+4 {
		return false, ErrInvalidHash
	}

	key := DeriveKey([]byte(password), salt, p)
	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}

func decodeArgon2id(encoded string) (Argon2Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" || parts[2] != "v=19" {
		return Argon2Params{}, nil, nil, ErrInvalidHash
	}

	var mem, it uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return Argon2Params{}, nil, nil, ErrInvalidHash
	}
	if mem == 0 || it == 0 || par == 0 {
		return Argon2Params{}, nil, nil, ErrInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) < 8 {
		return Argon2Params{}, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) < 16 || len(key) > 128 {
		return Argon2Params{}, nil, nil, ErrInvalidHash
	}

	p := Argon2Params{
		Iterations:  it,
		MemoryKiB:   mem,
		Parallelism: par,
		SaltLength:  uint32(len(salt)),
		KeyLength:   uint32(len(key)),
	}
	return p, salt, key, nil
}
