package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults(t *testing.T, f *fixture, accountID string) []*models.Address {
	t.Helper()
	list, err := f.addresses.List(context.Background(), accountID)
	require.NoError(t, err)
	var out []*models.Address
	for _, a := range list {
		if a.IsDefault {
			out = append(out, a)
		}
	}
	return out
}

func TestScenario_SecondDefaultReplacesFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := verifiedAlice(t, f)

	a, err := f.addresses.Add(ctx, alice.ID, models.AddressInput{FullName: "Alice", City: "Oxford", IsDefault: true})
	require.NoError(t, err)
	b, err := f.addresses.Add(ctx, alice.ID, models.AddressInput{FullName: "Alice", City: "London", IsDefault: true})
	require.NoError(t, err)

	list, err := f.addresses.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	byID := map[string]*models.Address{}
	for _, addr := range list {
		byID[addr.ID] = addr
	}
	assert.False(t, byID[a.ID].IsDefault)
	assert.True(t, byID[b.ID].IsDefault)
}

func TestAddress_NonDefaultKeepsExistingDefault(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := verifiedAlice(t, f)

	a, err := f.addresses.Add(ctx, alice.ID, models.AddressInput{City: "Oxford", IsDefault: true})
	require.NoError(t, err)
	_, err = f.addresses.Add(ctx, alice.ID, models.AddressInput{City: "London"})
	require.NoError(t, err)

	d := defaults(t, f, alice.ID)
	require.Len(t, d, 1)
	assert.Equal(t, a.ID, d[0].ID)
}

func TestAddress_UpdateMovesDefault(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := verifiedAlice(t, f)

	_, err := f.addresses.Add(ctx, alice.ID, models.AddressInput{City: "Oxford", IsDefault: true})
	require.NoError(t, err)
	b, err := f.addresses.Add(ctx, alice.ID, models.AddressInput{City: "London"})
	require.NoError(t, err)

	updated, err := f.addresses.Update(ctx, alice.ID, b.ID, models.AddressInput{City: "Bath", IsDefault: true})
	require.NoError(t, err)
	assert.Equal(t, "Bath", updated.City)
	assert.True(t, updated.IsDefault)
	assert.Equal(t, b.CreatedAt, updated.CreatedAt)

	d := defaults(t, f, alice.ID)
	require.Len(t, d, 1)
	assert.Equal(t, b.ID, d[0].ID)

	// re-saving the current default keeps it
	_, err = f.addresses.Update(ctx, alice.ID, b.ID, models.AddressInput{City: "Bath", IsDefault: true})
	require.NoError(t, err)
	d = defaults(t, f, alice.ID)
	require.Len(t, d, 1)
	assert.Equal(t, b.ID, d[0].ID)
}

func TestAddress_UnsetAndDeleteNeverPromote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := verifiedAlice(t, f)

	a, err := f.addresses.Add(ctx, alice.ID, models.AddressInput{City: "Oxford", IsDefault: true})
	require.NoError(t, err)
	b, err := f.addresses.Add(ctx, alice.ID, models.AddressInput{City: "London"})
	require.NoError(t, err)

	_, err = f.addresses.Update(ctx, alice.ID, a.ID, models.AddressInput{City: "Oxford"})
	require.NoError(t, err)
	assert.Empty(t, defaults(t, f, alice.ID))

	_, err = f.addresses.Update(ctx, alice.ID, b.ID, models.AddressInput{City: "London", IsDefault: true})
	require.NoError(t, err)
	require.NoError(t, f.addresses.Delete(ctx, alice.ID, b.ID))
	assert.Empty(t, defaults(t, f, alice.ID))

	list, err := f.addresses.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)
}

func TestAddress_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := verifiedAlice(t, f)

	_, err := f.addresses.List(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrAccountNotFound)
	_, err = f.addresses.Add(ctx, "missing", models.AddressInput{IsDefault: true})
	assert.ErrorIs(t, err, common.ErrAccountNotFound)

	_, err = f.addresses.Update(ctx, alice.ID, "nope", models.AddressInput{})
	assert.ErrorIs(t, err, common.ErrAddressNotFound)
	assert.ErrorIs(t, f.addresses.Delete(ctx, alice.ID, "nope"), common.ErrAddressNotFound)

	// another account's address is not reachable through alice
	bob := aliceRequest()
	bob.Username, bob.Email = "bob", "b@x.com"
	_, err = f.accounts.Register(ctx, bob)
	require.NoError(t, err)
	bobAccount, err := f.repos.Accounts().GetByUsername(ctx, "bob")
	require.NoError(t, err)
	foreign, err := f.addresses.Add(ctx, bobAccount.ID, models.AddressInput{City: "Leeds", IsDefault: true})
	require.NoError(t, err)

	_, err = f.addresses.Update(ctx, alice.ID, foreign.ID, models.AddressInput{IsDefault: true})
	assert.ErrorIs(t, err, common.ErrAddressNotFound)
	assert.ErrorIs(t, f.addresses.Delete(ctx, alice.ID, foreign.ID), common.ErrAddressNotFound)
	assert.Len(t, defaults(t, f, bobAccount.ID), 1)
}

func TestAddress_DefaultsAreIsolatedPerAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := verifiedAlice(t, f)

	bob := aliceRequest()
	bob.Username, bob.Email = "bob", "b@x.com"
	_, err := f.accounts.Register(ctx, bob)
	require.NoError(t, err)
	bobAccount, err := f.repos.Accounts().GetByUsername(ctx, "bob")
	require.NoError(t, err)

	_, err = f.addresses.Add(ctx, alice.ID, models.AddressInput{City: "Oxford", IsDefault: true})
	require.NoError(t, err)
	_, err = f.addresses.Add(ctx, bobAccount.ID, models.AddressInput{City: "Leeds", IsDefault: true})
	require.NoError(t, err)

	assert.Len(t, defaults(t, f, alice.ID), 1)
	assert.Len(t, defaults(t, f, bobAccount.ID), 1)
}

func TestAddress_RandomWritesKeepOneDefault(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := verifiedAlice(t, f)
	rng := rand.New(rand.NewPCG(1, 2))

	var ids []string
	for i := range 200 {
		in := models.AddressInput{City: fmt.Sprintf("city-%d", i), IsDefault: rng.IntN(2) == 0}
		switch op := rng.IntN(3); {
		case op == 0 || len(ids) == 0:
			a, err := f.addresses.Add(ctx, alice.ID, in)
			require.NoError(t, err)
			ids = append(ids, a.ID)
		case op == 1:
			_, err := f.addresses.Update(ctx, alice.ID, ids[rng.IntN(len(ids))], in)
			require.NoError(t, err)
		default:
			k := rng.IntN(len(ids))
			require.NoError(t, f.addresses.Delete(ctx, alice.ID, ids[k]))
			ids = append(ids[:k], ids[k+1:]...)
		}
		require.LessOrEqual(t, len(defaults(t, f, alice.ID)), 1, "step %d", i)
	}
}

func TestAddress_ConcurrentDefaultsLeaveOne(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := verifiedAlice(t, f)

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.addresses.Add(ctx, alice.ID, models.AddressInput{City: fmt.Sprintf("c%d", i), IsDefault: true})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	list, err := f.addresses.List(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, list, writers)
	assert.Len(t, defaults(t, f, alice.ID), 1)
}
