package repomanager

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ RepositoryManager = (*MemoryRepositoryManager)(nil)

func account(id, username string) *models.Account {
	return &models.Account{
		ID: id, DisplayID: "STZ-" + id, Username: username, Email: username + "@x.com",
		Role: models.RoleCustomer, CreatedAt: time.Now(),
	}
}

func TestMemoryInTx_Commit(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepositoryManager()

	err := m.InTx(ctx, func(ctx context.Context, tx RepositoryManager) error {
		if err := tx.Accounts().Create(ctx, account("a1", "alice")); err != nil {
			return err
		}
		// not visible outside before commit
		_, err := m.Accounts().GetByID(ctx, "a1")
		assert.ErrorIs(t, err, common.ErrorNotFound)
		return nil
	})
	require.NoError(t, err)

	_, err = m.Accounts().GetByID(ctx, "a1")
	assert.NoError(t, err)
}

func TestMemoryInTx_Rollback(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepositoryManager()
	require.NoError(t, m.Accounts().Create(ctx, account("a1", "alice")))

	boom := errors.New("boom")
	err := m.InTx(ctx, func(ctx context.Context, tx RepositoryManager) error {
		require.NoError(t, tx.Accounts().Delete(ctx, "a1"))
		require.NoError(t, tx.Accounts().Create(ctx, account("a2", "bob")))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = m.Accounts().GetByID(ctx, "a1")
	assert.NoError(t, err)
	_, err = m.Accounts().GetByID(ctx, "a2")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryInTx_CanceledContextDiscards(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewMemoryRepositoryManager()

	err := m.InTx(ctx, func(ctx context.Context, tx RepositoryManager) error {
		cancel()
		return tx.Accounts().Create(ctx, account("a1", "alice"))
	})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = m.Accounts().GetByID(context.Background(), "a1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryInTx_NoLostWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepositoryManager()

	const n = 20
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(2)
		go func() {
			defer wg.Done()
			id := "tx" + string(rune('a'+i))
			_ = m.InTx(ctx, func(ctx context.Context, tx RepositoryManager) error {
				return tx.Accounts().Create(ctx, account(id, id))
			})
		}()
		go func() {
			defer wg.Done()
			id := "plain" + string(rune('a'+i))
			_ = m.Accounts().Create(ctx, account(id, id))
		}()
	}
	wg.Wait()

	list, err := m.Accounts().List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2*n)
}

func TestMemoryPingAndMigrations(t *testing.T) {
	m := NewMemoryRepositoryManager()
	assert.NoError(t, m.RunMigrations(context.Background()))
	assert.NoError(t, m.Ping(context.Background()))
	assert.NoError(t, m.Close())
}
