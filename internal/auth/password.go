// Package auth implements password hashing and bearer token issuance.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Supported password hashing schemes.
const (
	SchemeBcrypt   = "bcrypt"
	SchemeArgon2id = "argon2id"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	// Hash generates a salted hash with the preferred scheme.
	Hash(password string) (string, error)
	// Verify reports whether password matches hash under any supported scheme.
	Verify(password, hash string) bool
	// NeedsRehash reports whether hash was produced by a deprecated scheme or parameters.
	NeedsRehash(hash string) bool
}

type scheme interface {
	name() string
	identify(hash string) bool
	hash(password string) (string, error)
	verify(password, hash string) bool
	outdated(hash string) bool
}

type hasher struct {
	preferred scheme
	schemes   []scheme
}

// NewPasswordHasher returns a hasher producing hashes with the named scheme.
// Hashes from every other supported scheme still verify.
func NewPasswordHasher(preferred string) (PasswordHasher, error) {
	all := []scheme{
		bcryptScheme{cost: bcrypt.DefaultCost},
		argon2idScheme{params: defaultArgon2Params},
	}
	for _, s := range all {
		if s.name() == preferred {
			return &hasher{preferred: s, schemes: all}, nil
		}
	}
	return nil, fmt.Errorf("unknown password scheme %q", preferred)
}

func (h *hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	return h.preferred.hash(password)
}

func (h *hasher) Verify(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}
	for _, s := range h.schemes {
		if s.identify(hash) {
			return s.verify(password, hash)
		}
	}
	return false
}

func (h *hasher) NeedsRehash(hash string) bool {
	if !h.preferred.identify(hash) {
		return true
	}
	return h.preferred.outdated(hash)
}

type bcryptScheme struct {
	cost int
}

func (bcryptScheme) name() string { return SchemeBcrypt }

func (bcryptScheme) identify(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

func (s bcryptScheme) hash(password string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(out), nil
}

func (bcryptScheme) verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s bcryptScheme) outdated(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost < s.cost
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
	saltLen int
	keyLen  uint32
}

// Bounds accepted when reading stored hashes. Memory is in KiB.
const (
	maxArgon2Memory = 256 * 1024
	maxArgon2Time   = 16
)

var defaultArgon2Params = argon2Params{
	memory:  64 * 1024,
	time:    1,
	threads: 4,
	saltLen: 16,
	keyLen:  32,
}

type argon2idScheme struct {
	params argon2Params
}

func (argon2idScheme) name() string { return SchemeArgon2id }

func (argon2idScheme) identify(hash string) bool {
	return strings.HasPrefix(hash, "$argon2id$")
}

// hash encodes as $argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<key>.
func (s argon2idScheme) hash(password string) (string, error) {
	salt := make([]byte, s.params.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, s.params.time, s.params.memory, s.params.threads, s.params.keyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		s.params.memory,
		s.params.time,
		s.params.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (s argon2idScheme) verify(password, hash string) bool {
	p, salt, key, err := decodeArgon2id(hash)
	if err != nil {
		return false
	}
	other := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, other) == 1
}

func (s argon2idScheme) outdated(hash string) bool {
	p, _, _, err := decodeArgon2id(hash)
	if err != nil {
		return true
	}
	return p.memory < s.params.memory || p.time < s.params.time || p.threads < s.params.threads
}

func decodeArgon2id(hash string) (argon2Params, []byte, []byte, error) {
	var p argon2Params
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != SchemeArgon2id {
		return p, nil, nil, errors.New("malformed argon2id hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, fmt.Errorf("parse argon2id version: %w", err)
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("unsupported argon2id version %d", version)
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, fmt.Errorf("parse argon2id params: %w", err)
	}
	if p.time < 1 || p.time > maxArgon2Time || p.threads < 1 || p.memory < 1 || p.memory > maxArgon2Memory {
		return p, nil, nil, fmt.Errorf("argon2id params out of range: m=%d,t=%d,p=%d", p.memory, p.time, p.threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("decode argon2id salt: %w", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, errors.New("decode argon2id key")
	}
	p.saltLen = len(salt)
	p.keyLen = uint32(len(key))
	return p, salt, key, nil
}
