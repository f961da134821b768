// Package accounts declares the account repository contract and its
// PostgreSQL and in-memory implementations.
package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
)

// Repository stores accounts. Lookups return common.ErrorNotFound when no row
// matches; inserts and updates that break a uniqueness rule return the
// matching typed duplicate error (common.ErrDuplicateEmail, ...).
type Repository interface {
	Create(ctx context.Context, a *models.Account) error

	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByDisplayID(ctx context.Context, displayID string) (*models.Account, error)
	// GetByVerificationToken finds the account whose pending token equals token.
	GetByVerificationToken(ctx context.Context, token string) (*models.Account, error)

	// List returns all accounts ordered by creation time.
	List(ctx context.Context) ([]*models.Account, error)

	// Update overwrites the mutable columns of an existing account.
	Update(ctx context.Context, a *models.Account) error

	// MarkVerified flips the account to verified and clears its token, but only
	// while the stored token still equals token. It returns common.ErrorNotFound
	// when no row matched, so a token is redeemed at most once.
	MarkVerified(ctx context.Context, id, token string, at time.Time) error

	// LockForUpdate takes the row lock of the account for the rest of the
	// enclosing transaction.
	LockForUpdate(ctx context.Context, id string) error

	Delete(ctx context.Context, id string) error
}
