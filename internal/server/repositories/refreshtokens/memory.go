package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/memstate"
)

type MemoryRepository struct {
	db *memstate.DB
}

func NewMemoryRepository(db *memstate.DB) *MemoryRepository {
	return &MemoryRepository{db: db}
}

func (r *MemoryRepository) Create(ctx context.Context, accountID string, token string, validity time.Duration) error {
	now := time.Now()
	return r.db.Write(func() error {
		r.db.RefreshTokens[token] = &models.RefreshToken{
			Token:     token,
			AccountID: accountID,
			Expires:   now.Add(validity),
			CreatedAt: now,
		}
		return nil
	})
}

func (r *MemoryRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	var found *models.RefreshToken
	err := r.db.Read(func() error {
		rt, ok := r.db.RefreshTokens[token]
		if !ok {
			return common.ErrorNotFound
		}
		c := *rt
		found = &c
		return nil
	})
	return found, err
}

func (r *MemoryRepository) Delete(ctx context.Context, token string) error {
	return r.db.Write(func() error {
		if _, ok := r.db.RefreshTokens[token]; !ok {
			return common.ErrorNotFound
		}
		delete(r.db.RefreshTokens, token)
		return nil
	})
}

func (r *MemoryRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	return r.db.Write(func() error {
		for token, rt := range r.db.RefreshTokens {
			if rt.AccountID == accountID {
				delete(r.db.RefreshTokens, token)
			}
		}
		return nil
	})
}
