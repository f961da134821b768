// Package addresses declares the shipping address repository contract and
// its PostgreSQL and in-memory implementations.
package addresses

import (
	"context"

	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
)

// Repository stores addresses. Every call is scoped by the owning account, so
// an address of another account is reported as common.ErrorNotFound.
type Repository interface {
	// ListByAccount returns the addresses of an account ordered by creation time.
	ListByAccount(ctx context.Context, accountID string) ([]*models.Address, error)
	Get(ctx context.Context, accountID, id string) (*models.Address, error)
	Create(ctx context.Context, a *models.Address) error
	Update(ctx context.Context, a *models.Address) error

	// ClearDefault unsets IsDefault on every address of the account except
	// exceptID and returns how many rows changed.
	ClearDefault(ctx context.Context, accountID, exceptID string) (int64, error)

	Delete(ctx context.Context, accountID, id string) error
	DeleteByAccount(ctx context.Context, accountID string) error
}
