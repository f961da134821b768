package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/addresses"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/memstate"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/refreshtokens"
)

// MemoryRepositoryManager keeps every table in process memory. Transactions
// are serialized: InTx works on a copy of the tables while holding the
// writer lock and publishes the copy on success.
type MemoryRepositoryManager struct {
	db   *memstate.DB
	inTx bool
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{db: memstate.New()}
}

func (m *MemoryRepositoryManager) Accounts() accounts.Repository {
	return accounts.NewMemoryRepository(m.db)
}

func (m *MemoryRepositoryManager) Addresses() addresses.Repository {
	return addresses.NewMemoryRepository(m.db)
}

func (m *MemoryRepositoryManager) RefreshTokens() refreshtokens.Repository {
	return refreshtokens.NewMemoryRepository(m.db)
}

func (m *MemoryRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, tx RepositoryManager) error) error {
	if m.inTx {
		return fn(ctx, m)
	}

	m.db.WriteMu.Lock()
	defer m.db.WriteMu.Unlock()

	work := m.db.Clone()
	if err := fn(ctx, &MemoryRepositoryManager{db: work, inTx: true}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.db.Replace(work)
	return nil
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Ping(ctx context.Context) error { return ctx.Err() }

func (m *MemoryRepositoryManager) Close() error { return nil }
