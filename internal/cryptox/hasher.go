// Package cryptox implements one-way password hashing with constant-time
// verification.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// argon2id parameters for newly written hashes.
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2SaltLen = 16
	argon2KeyLen  = 32
)

// Upper bounds accepted when verifying a stored hash.
const (
	argon2MaxTime   = 16
	argon2MaxMemory = 4 * argon2Memory
	argon2MaxKeyLen = 128
)

// ErrEmptyPassword is returned by Hash for an empty password.
var ErrEmptyPassword = common.ErrInvalidPassword

// PasswordHasher hashes passwords and verifies candidates against stored hashes.
type PasswordHasher interface {
	// Hash returns an opaque encoded hash of password.
	Hash(password string) (string, error)

	// Verify returns (true, nil) on match, (false, nil) on mismatch and an
	// error only when the stored hash cannot be parsed.
	Verify(password, hash string) (bool, error)

	// NeedsUpgrade reports whether hash was produced by a legacy algorithm.
	NeedsUpgrade(hash string) bool
}

// Argon2idHasher hashes with argon2id in PHC string format and still accepts
// bcrypt hashes imported from the previous user store.
type Argon2idHasher struct {
	memory uint32
}

func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{memory: argon2Memory}
}

// NewFastHasher returns a hasher with a tiny memory cost. Tests only.
func NewFastHasher() *Argon2idHasher {
	return &Argon2idHasher{memory: 64}
}

func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("HASH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, argon2Time, h.memory, argon2Threads, argon2KeyLen)

	// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2idHasher) Verify(password, encoded string) (bool, error) {
	if isBcrypt(encoded) {
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, oops.Code("HASH_INVALID").Wrap(err)
		}
		return true, nil
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, oops.Code("HASH_INVALID").Errorf("unsupported hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, oops.Code("HASH_INVALID").Wrap(err)
	}
	if version != argon2.Version {
		return false, oops.Code("HASH_INVALID").Errorf("unsupported argon2 version %d", version)
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, oops.Code("HASH_INVALID").Wrap(err)
	}
	if threads < 1 || iterations < 1 || iterations > argon2MaxTime || memory < 1 || memory > argon2MaxMemory {
		return false, oops.Code("HASH_INVALID").Errorf("argon2 parameters out of range: m=%d,t=%d,p=%d", memory, iterations, threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, oops.Code("HASH_INVALID").Wrap(err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, oops.Code("HASH_INVALID").Wrap(err)
	}
	if len(want) == 0 || len(want) > argon2MaxKeyLen {
		return false, oops.Code("HASH_INVALID").Errorf("key length %d out of range", len(want))
	}

	got := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(want)))

	defer common.WipeByteArray(got)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func (h *Argon2idHasher) NeedsUpgrade(encoded string) bool {
	return !strings.HasPrefix(encoded, "$argon2id$")
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") || strings.HasPrefix(encoded, "$2b$") || strings.HasPrefix(encoded, "$2y$")
}
