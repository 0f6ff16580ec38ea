// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// Argon2Params are the argon2id cost parameters.
type Argon2Params struct {
	Memory  uint32 // KiB
	Time    uint32 // iterations
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultArgon2Params are the OWASP-recommended argon2id parameters.
var DefaultArgon2Params = Argon2Params{
	Memory:  64 * 1024,
	Time:    1,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces an encoded hash of the password with a fresh salt.
	Hash(password string) (string, error)

	// Verify checks if the password matches the hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid hash.
	Verify(password, hash string) (bool, error)

	// NeedsUpgrade returns true if the hash was produced with weaker
	// parameters than the hasher currently uses.
	NeedsUpgrade(hash string) bool
}

// Argon2idHasher implements PasswordHasher using argon2id.
type Argon2idHasher struct {
	params Argon2Params
}

// NewArgon2idHasher creates an Argon2idHasher with DefaultArgon2Params.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{params: DefaultArgon2Params}
}

// NewArgon2idHasherWithParams creates an Argon2idHasher with custom parameters.
func NewArgon2idHasherWithParams(params Argon2Params) *Argon2idHasher {
	return &Argon2idHasher{params: params}
}

// Hash produces an argon2id hash of the password in PHC string format:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	hash := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify checks if the password matches the hash. Parameters are taken from
// the encoding, so hashes made with older parameters still verify.
func (h *Argon2idHasher) Verify(password, encodedHash string) (bool, error) {
	decoded, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), decoded.salt, decoded.params.Time,
		decoded.params.Memory, decoded.params.Threads, decoded.params.KeyLen)

	return subtle.ConstantTimeCompare(computed, decoded.digest) == 1, nil
}

// NeedsUpgrade returns true if the hash is not argon2id, cannot be parsed,
// or uses any cost parameter below the hasher's current one.
func (h *Argon2idHasher) NeedsUpgrade(encodedHash string) bool {
	decoded, err := decodeHash(encodedHash)
	if err != nil {
		return true
	}
	return decoded.version != argon2.Version ||
		decoded.params.Memory < h.params.Memory ||
		decoded.params.Time < h.params.Time ||
		decoded.params.Threads < h.params.Threads ||
		decoded.params.KeyLen < h.params.KeyLen
}

type decodedHash struct {
	version int
	params  Argon2Params
	salt    []byte
	digest  []byte
}

func decodeHash(encodedHash string) (*decodedHash, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash format")
	}

	if parts[1] != "argon2id" {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var d decodedHash
	if _, err := fmt.Sscanf(parts[2], "v=%d", &d.version); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &d.params.Memory, &d.params.Time, &threads); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if threads == 0 || threads > 255 {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("threads value %d out of range", threads)
	}
	d.params.Threads = uint8(threads)
	if d.params.Time == 0 || d.params.Memory == 0 {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("zero cost parameter")
	}

	var err error
	d.salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	d.digest, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	keyLen := len(d.digest)
	if keyLen == 0 || keyLen > 1<<30 {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash key length: %d", keyLen)
	}
	d.params.KeyLen = uint32(keyLen)
	d.params.SaltLen = uint32(len(d.salt))

	return &d, nil
}
