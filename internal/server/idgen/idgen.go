// Package idgen produces identifiers: internal account keys, address keys,
// opaque verification tokens and human-facing display identifiers.
package idgen

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Generator is consumed by the account and address services.
type Generator interface {
	AccountID() string
	AddressID() string
	VerificationToken() (string, error)
	DisplayID(now time.Time) (string, error)
}

// Random draws every identifier from crypto-grade randomness.
type Random struct {
	prefix string
}

// NewRandom returns a Random generator whose display ids start with prefix.
func NewRandom(prefix string) *Random {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = common.DisplayIDPrefix
	}
	return &Random{prefix: prefix}
}

// AccountID returns a lexicographically sortable ULID.
func (g *Random) AccountID() string {
	return ulid.Make().String()
}

func (g *Random) AddressID() string {
	return uuid.NewString()
}

// VerificationToken returns a random UUIDv4 string (122 random bits).
func (g *Random) VerificationToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// DisplayID formats PREFIX-YYYY-NNNNN with a random five digit suffix.
// Uniqueness is enforced by the store; callers retry on collision.
func (g *Random) DisplayID(now time.Time) (string, error) {
	n, err := common.RandIntn(90000)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%05d", g.prefix, now.Year(), 10000+n), nil
}
