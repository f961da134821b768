package accounts

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/memstate"
)

// MemoryRepository implements Repository over a memstate.DB. Values are
// copied on the way in and out.
type MemoryRepository struct {
	db *memstate.DB
}

func NewMemoryRepository(db *memstate.DB) *MemoryRepository {
	return &MemoryRepository{db: db}
}

// conflict reports the uniqueness rule a would break against the stored rows.
func (r *MemoryRepository) conflict(a *models.Account) error {
	for _, other := range r.db.Accounts {
		if other.ID == a.ID {
			continue
		}
		switch {
		case other.Email == a.Email:
			return common.ErrDuplicateEmail
		case other.Username == a.Username:
			return common.ErrDuplicateUsername
		case other.DisplayID == a.DisplayID:
			return common.ErrDuplicateDisplayID
		case a.VerificationToken != nil && other.VerificationToken != nil &&
			*a.VerificationToken == *other.VerificationToken:
			return common.ErrDuplicateToken
		}
	}
	return nil
}

func (r *MemoryRepository) Create(ctx context.Context, a *models.Account) error {
	return r.db.Write(func() error {
		if err := r.conflict(a); err != nil {
			return err
		}
		r.db.Accounts[a.ID] = a.Clone()
		return nil
	})
}

func (r *MemoryRepository) find(match func(*models.Account) bool) (*models.Account, error) {
	var found *models.Account
	err := r.db.Read(func() error {
		for _, a := range r.db.Accounts {
			if match(a) {
				found = a.Clone()
				return nil
			}
		}
		return common.ErrorNotFound
	})
	return found, err
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	var found *models.Account
	err := r.db.Read(func() error {
		a, ok := r.db.Accounts[id]
		if !ok {
			return common.ErrorNotFound
		}
		found = a.Clone()
		return nil
	})
	return found, err
}

func (r *MemoryRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.find(func(a *models.Account) bool { return a.Username == username })
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.find(func(a *models.Account) bool { return a.Email == email })
}

func (r *MemoryRepository) GetByDisplayID(ctx context.Context, displayID string) (*models.Account, error) {
	return r.find(func(a *models.Account) bool { return a.DisplayID == displayID })
}

func (r *MemoryRepository) GetByVerificationToken(ctx context.Context, token string) (*models.Account, error) {
	return r.find(func(a *models.Account) bool {
		return a.VerificationToken != nil && *a.VerificationToken == token
	})
}

func (r *MemoryRepository) List(ctx context.Context) ([]*models.Account, error) {
	var result []*models.Account
	err := r.db.Read(func() error {
		for _, a := range r.db.Accounts {
			result = append(result, a.Clone())
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

func (r *MemoryRepository) Update(ctx context.Context, a *models.Account) error {
	return r.db.Write(func() error {
		stored, ok := r.db.Accounts[a.ID]
		if !ok {
			return common.ErrorNotFound
		}
		if err := r.conflict(a); err != nil {
			return err
		}
		updated := a.Clone()
		updated.DisplayID = stored.DisplayID
		updated.CreatedAt = stored.CreatedAt
		r.db.Accounts[a.ID] = updated
		return nil
	})
}

func (r *MemoryRepository) MarkVerified(ctx context.Context, id, token string, at time.Time) error {
	return r.db.Write(func() error {
		a, ok := r.db.Accounts[id]
		if !ok || a.Verified || a.VerificationToken == nil || *a.VerificationToken != token {
			return common.ErrorNotFound
		}
		a.Verified = true
		a.VerificationToken = nil
		a.UpdatedAt = at
		return nil
	})
}

// LockForUpdate only checks existence; the memory store serializes
// transactions as a whole.
func (r *MemoryRepository) LockForUpdate(ctx context.Context, id string) error {
	return r.db.Read(func() error {
		if _, ok := r.db.Accounts[id]; !ok {
			return common.ErrorNotFound
		}
		return nil
	})
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	return r.db.Write(func() error {
		if _, ok := r.db.Accounts[id]; !ok {
			return common.ErrorNotFound
		}
		delete(r.db.Accounts, id)
		return nil
	})
}
