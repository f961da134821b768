package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/memstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_CreateAndLookups(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(memstate.New())

	a := sampleAccount()
	require.NoError(t, repo.Create(ctx, a))

	// stored values are copies
	a.Username = "mutated"

	byID, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	for name, lookup := range map[string]func() (*models.Account, error){
		"username":  func() (*models.Account, error) { return repo.GetByUsername(ctx, "alice") },
		"email":     func() (*models.Account, error) { return repo.GetByEmail(ctx, "a@x.com") },
		"displayID": func() (*models.Account, error) { return repo.GetByDisplayID(ctx, "STZ-2026-12345") },
		"token":     func() (*models.Account, error) { return repo.GetByVerificationToken(ctx, "tok-1") },
	} {
		got, err := lookup()
		require.NoError(t, err, name)
		assert.Equal(t, a.ID, got.ID, name)
	}

	_, err = repo.GetByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryRepository_CreateConflicts(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(memstate.New())
	require.NoError(t, repo.Create(ctx, sampleAccount()))

	otherToken := "tok-2"
	base := func() *models.Account {
		return &models.Account{
			ID: "other", DisplayID: "STZ-2026-99999", Username: "bob", Email: "b@x.com",
			Role: models.RoleCustomer, VerificationToken: &otherToken,
		}
	}

	dupEmail := base()
	dupEmail.Email = "a@x.com"
	dupEmail.Username = "alice"
	assert.ErrorIs(t, repo.Create(ctx, dupEmail), common.ErrDuplicateEmail)

	dupUser := base()
	dupUser.Username = "alice"
	assert.ErrorIs(t, repo.Create(ctx, dupUser), common.ErrDuplicateUsername)

	dupDisplay := base()
	dupDisplay.DisplayID = "STZ-2026-12345"
	assert.ErrorIs(t, repo.Create(ctx, dupDisplay), common.ErrDuplicateDisplayID)

	dupToken := base()
	token := "tok-1"
	dupToken.VerificationToken = &token
	assert.ErrorIs(t, repo.Create(ctx, dupToken), common.ErrDuplicateToken)

	require.NoError(t, repo.Create(ctx, base()))
}

func TestMemoryRepository_MarkVerifiedOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(memstate.New())
	a := sampleAccount()
	require.NoError(t, repo.Create(ctx, a))

	at := time.Now()
	require.NoError(t, repo.MarkVerified(ctx, a.ID, "tok-1", at))
	assert.ErrorIs(t, repo.MarkVerified(ctx, a.ID, "tok-1", at), common.ErrorNotFound)

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Verified)
	assert.Nil(t, got.VerificationToken)

	_, err = repo.GetByVerificationToken(ctx, "tok-1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryRepository_UpdateListDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(memstate.New())

	first := sampleAccount()
	second := &models.Account{
		ID: "z-second", DisplayID: "STZ-2026-10002", Username: "bob", Email: "b@x.com",
		Role: models.RoleMerchant, CreatedAt: first.CreatedAt.Add(time.Minute),
	}
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, first))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)

	changed := first.Clone()
	changed.Phone = "555"
	changed.DisplayID = "STZ-2026-00000"
	require.NoError(t, repo.Update(ctx, changed))

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "555", got.Phone)
	assert.Equal(t, "STZ-2026-12345", got.DisplayID)

	clash := second.Clone()
	clash.Email = "a@x.com"
	assert.ErrorIs(t, repo.Update(ctx, clash), common.ErrDuplicateEmail)

	ghost := second.Clone()
	ghost.ID = "ghost"
	assert.ErrorIs(t, repo.Update(ctx, ghost), common.ErrorNotFound)

	require.NoError(t, repo.LockForUpdate(ctx, first.ID))
	require.NoError(t, repo.Delete(ctx, first.ID))
	assert.ErrorIs(t, repo.Delete(ctx, first.ID), common.ErrorNotFound)
	assert.ErrorIs(t, repo.LockForUpdate(ctx, first.ID), common.ErrorNotFound)
}
