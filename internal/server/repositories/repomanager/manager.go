// Package repomanager bundles the repositories behind one handle and scopes
// them to a transaction on demand.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/addresses"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/refreshtokens"
)

// RepositoryManager vends repositories bound to the current handle: the
// connection pool, or the open transaction inside InTx.
type RepositoryManager interface {
	Accounts() accounts.Repository
	Addresses() addresses.Repository
	RefreshTokens() refreshtokens.Repository

	// InTx runs fn with a manager whose repositories share one transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	// Calling InTx on a manager that is already transactional joins it.
	InTx(ctx context.Context, fn func(ctx context.Context, tx RepositoryManager) error) error

	RunMigrations(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
