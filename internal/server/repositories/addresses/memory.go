package addresses

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/memstate"
)

// MemoryRepository implements Repository over a memstate.DB and enforces
// the single default rule the way the partial unique index does.
type MemoryRepository struct {
	db *memstate.DB
}

func NewMemoryRepository(db *memstate.DB) *MemoryRepository {
	return &MemoryRepository{db: db}
}

func (r *MemoryRepository) defaultTaken(a *models.Address) bool {
	if !a.IsDefault {
		return false
	}
	for _, other := range r.db.Addresses {
		if other.AccountID == a.AccountID && other.ID != a.ID && other.IsDefault {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Address, error) {
	result := []*models.Address{}
	err := r.db.Read(func() error {
		for _, a := range r.db.Addresses {
			if a.AccountID == accountID {
				c := *a
				result = append(result, &c)
			}
		}
		return nil
	})
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, err
}

func (r *MemoryRepository) Get(ctx context.Context, accountID, id string) (*models.Address, error) {
	var found *models.Address
	err := r.db.Read(func() error {
		a, ok := r.db.Addresses[id]
		if !ok || a.AccountID != accountID {
			return common.ErrorNotFound
		}
		c := *a
		found = &c
		return nil
	})
	return found, err
}

func (r *MemoryRepository) Create(ctx context.Context, a *models.Address) error {
	return r.db.Write(func() error {
		if r.defaultTaken(a) {
			return ErrDefaultTaken
		}
		c := *a
		r.db.Addresses[a.ID] = &c
		return nil
	})
}

func (r *MemoryRepository) Update(ctx context.Context, a *models.Address) error {
	return r.db.Write(func() error {
		stored, ok := r.db.Addresses[a.ID]
		if !ok || stored.AccountID != a.AccountID {
			return common.ErrorNotFound
		}
		if r.defaultTaken(a) {
			return ErrDefaultTaken
		}
		c := *a
		c.CreatedAt = stored.CreatedAt
		r.db.Addresses[a.ID] = &c
		return nil
	})
}

func (r *MemoryRepository) ClearDefault(ctx context.Context, accountID, exceptID string) (int64, error) {
	var n int64
	err := r.db.Write(func() error {
		for _, a := range r.db.Addresses {
			if a.AccountID == accountID && a.ID != exceptID && a.IsDefault {
				a.IsDefault = false
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *MemoryRepository) Delete(ctx context.Context, accountID, id string) error {
	return r.db.Write(func() error {
		a, ok := r.db.Addresses[id]
		if !ok || a.AccountID != accountID {
			return common.ErrorNotFound
		}
		delete(r.db.Addresses, id)
		return nil
	})
}

func (r *MemoryRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	return r.db.Write(func() error {
		for id, a := range r.db.Addresses {
			if a.AccountID == accountID {
				delete(r.db.Addresses, id)
			}
		}
		return nil
	})
}
