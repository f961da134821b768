package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/idgen"
	"github.com/dmitrijs2005/gophaccounts/internal/server/metrics"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/repomanager"
)

// AddressService manages the shipping addresses of an account and keeps at
// most one of them marked default.
//
// Every write runs in one transaction that first locks the owning account
// row, so writes for the same account are serialized and sibling defaults
// are cleared together with the write that sets a new one.
type AddressService struct {
	repos   repomanager.RepositoryManager
	ids     idgen.Generator
	log     logging.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewAddressService(repos repomanager.RepositoryManager, ids idgen.Generator, log logging.Logger, m *metrics.Metrics) *AddressService {
	return &AddressService{
		repos:   repos,
		ids:     ids,
		log:     log.With("module", "addresses"),
		metrics: m,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (s *AddressService) List(ctx context.Context, accountID string) ([]*models.Address, error) {
	if _, err := s.repos.Accounts().GetByID(ctx, accountID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAccountNotFound
		}
		return nil, s.internal(ctx, "get account", err)
	}

	list, err := s.repos.Addresses().ListByAccount(ctx, accountID)
	if err != nil {
		return nil, s.internal(ctx, "list addresses", err)
	}
	return list, nil
}

func (s *AddressService) Add(ctx context.Context, accountID string, in models.AddressInput) (addr *models.Address, err error) {
	defer func() { s.metrics.AddressWrite("add", resultOf(err)) }()

	now := s.now()
	addr = &models.Address{
		ID:        s.ids.AddressID(),
		AccountID: accountID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	addr.Apply(in)

	err = s.repos.InTx(ctx, func(ctx context.Context, tx repomanager.RepositoryManager) error {
		if err := lockOwner(ctx, tx, accountID); err != nil {
			return err
		}
		if addr.IsDefault {
			if err := s.clearSiblings(ctx, tx, accountID, addr.ID); err != nil {
				return err
			}
		}
		return tx.Addresses().Create(ctx, addr)
	})
	if err != nil {
		return nil, s.internal(ctx, "add address", err)
	}

	s.log.Info(ctx, "address added", "account_id", accountID, "address_id", addr.ID, "default", addr.IsDefault)
	return addr, nil
}

// Update replaces the editable fields of an address. Unsetting the default
// flag leaves the account without a default; nothing is promoted.
func (s *AddressService) Update(ctx context.Context, accountID, addressID string, in models.AddressInput) (addr *models.Address, err error) {
	defer func() { s.metrics.AddressWrite("update", resultOf(err)) }()

	err = s.repos.InTx(ctx, func(ctx context.Context, tx repomanager.RepositoryManager) error {
		if err := lockOwner(ctx, tx, accountID); err != nil {
			return err
		}
		current, err := tx.Addresses().Get(ctx, accountID, addressID)
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrAddressNotFound
		}
		if err != nil {
			return err
		}

		current.Apply(in)
		current.UpdatedAt = s.now()
		if current.IsDefault {
			if err := s.clearSiblings(ctx, tx, accountID, addressID); err != nil {
				return err
			}
		}
		if err := tx.Addresses().Update(ctx, current); err != nil {
			return err
		}
		addr = current
		return nil
	})
	if err != nil {
		return nil, s.internal(ctx, "update address", err)
	}
	return addr, nil
}

// Delete removes an address. Another address is never promoted to default.
func (s *AddressService) Delete(ctx context.Context, accountID, addressID string) (err error) {
	defer func() { s.metrics.AddressWrite("delete", resultOf(err)) }()

	err = s.repos.InTx(ctx, func(ctx context.Context, tx repomanager.RepositoryManager) error {
		if err := lockOwner(ctx, tx, accountID); err != nil {
			return err
		}
		err := tx.Addresses().Delete(ctx, accountID, addressID)
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrAddressNotFound
		}
		return err
	})
	if err != nil {
		return s.internal(ctx, "delete address", err)
	}
	return nil
}

func (s *AddressService) clearSiblings(ctx context.Context, tx repomanager.RepositoryManager, accountID, keepID string) error {
	n, err := tx.Addresses().ClearDefault(ctx, accountID, keepID)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Debug(ctx, "previous default address cleared", "account_id", accountID, "count", n)
	}
	return nil
}

func lockOwner(ctx context.Context, tx repomanager.RepositoryManager, accountID string) error {
	err := tx.Accounts().LockForUpdate(ctx, accountID)
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrAccountNotFound
	}
	return err
}

func (s *AddressService) internal(ctx context.Context, op string, err error) error {
	if common.KindOf(err) == common.KindInternal {
		s.log.Error(ctx, "address operation failed", "op", op, "error", err)
	}
	return common.Internal(err)
}
