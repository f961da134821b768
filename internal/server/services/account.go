// Package services contains server-side business logic: account
// registration, verification and credential checks (AccountService),
// shipping addresses (AddressService) and token sessions (SessionService).
package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/cryptox"
	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/events"
	"github.com/dmitrijs2005/gophaccounts/internal/server/idgen"
	"github.com/dmitrijs2005/gophaccounts/internal/server/metrics"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/repomanager"
	"github.com/sethvargo/go-retry"
)

const (
	MsgRegistered      = "Registration successful! Please check your email to verify account."
	MsgVerified        = "Email verified successfully! You can now login."
	MsgAlreadyVerified = "Email already verified!"
)

// idRetries bounds how often registration regenerates a display id or
// verification token that collided with a stored one.
const idRetries = 5

// Notifier delivers events without reporting failures to the caller.
type Notifier interface {
	Notify(ctx context.Context, topic string, payload any)
}

// RegistrationRequest is the input of AccountService.Register.
// ConfirmPassword is optional; when set it must equal Password.
type RegistrationRequest struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword *string
	DisplayName     string
	Phone           string
	Role            string
}

// ProfileUpdate lists the profile fields to change; nil fields are kept.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
}

// AccountService owns the credential lifecycle of accounts.
type AccountService struct {
	repos    repomanager.RepositoryManager
	hasher   cryptox.PasswordHasher
	ids      idgen.Generator
	notifier Notifier
	log      logging.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewAccountService(
	repos repomanager.RepositoryManager,
	hasher cryptox.PasswordHasher,
	ids idgen.Generator,
	notifier Notifier,
	log logging.Logger,
	m *metrics.Metrics,
) *AccountService {
	return &AccountService{
		repos:    repos,
		hasher:   hasher,
		ids:      ids,
		notifier: notifier,
		log:      log.With("module", "accounts"),
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func resultOf(err error) string {
	if err == nil {
		return metrics.ResultOK
	}
	return string(common.KindOf(err))
}

// Register creates an unverified account and asks for its email to be
// verified. The verification token is only sent through the event.
func (s *AccountService) Register(ctx context.Context, req RegistrationRequest) (msg string, err error) {
	defer func() { s.metrics.Registration(resultOf(err)) }()

	if err := s.ensureFree(ctx, req.Email, req.Username); err != nil {
		return "", err
	}
	if req.ConfirmPassword != nil && *req.ConfirmPassword != req.Password {
		return "", common.ErrPasswordMismatch
	}
	if req.Password == "" {
		return "", common.ErrInvalidPassword
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return "", common.ErrInvalidRole.Wrap(err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return "", s.internal(ctx, "hash password", err)
	}

	now := s.now()
	first, last := models.SplitDisplayName(req.DisplayName)
	account := &models.Account{
		ID:           s.ids.AccountID(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    first,
		LastName:     last,
		Phone:        req.Phone,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.insert(ctx, account); err != nil {
		return "", err
	}

	s.log.Info(ctx, "account registered", "account_id", account.ID, "display_id", account.DisplayID, "role", role)

	s.notifier.Notify(ctx, events.TopicVerificationRequested, events.VerificationRequested{
		Email:    account.Email,
		Token:    *account.VerificationToken,
		Username: account.Username,
		Role:     account.Role,
	})
	s.notifyChanged(ctx, events.ChangeCreated, account)

	return MsgRegistered, nil
}

// ensureFree reports a friendly duplicate error before the insert. The
// store's unique constraints remain the authoritative check.
func (s *AccountService) ensureFree(ctx context.Context, email, username string) error {
	repo := s.repos.Accounts()

	if _, err := repo.GetByEmail(ctx, email); err == nil {
		return common.ErrDuplicateEmail
	} else if !errors.Is(err, common.ErrorNotFound) {
		return s.internal(ctx, "lookup by email", err)
	}

	if _, err := repo.GetByUsername(ctx, username); err == nil {
		return common.ErrDuplicateUsername
	} else if !errors.Is(err, common.ErrorNotFound) {
		return s.internal(ctx, "lookup by username", err)
	}
	return nil
}

// insert stores account with a fresh verification token and display id,
// regenerating both when either collides.
func (s *AccountService) insert(ctx context.Context, account *models.Account) error {
	backoff := retry.WithMaxRetries(idRetries, retry.NewConstant(time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		token, err := s.ids.VerificationToken()
		if err != nil {
			return err
		}
		displayID, err := s.ids.DisplayID(account.CreatedAt)
		if err != nil {
			return err
		}
		account.VerificationToken = &token
		account.DisplayID = displayID

		err = s.repos.Accounts().Create(ctx, account)
		if errors.Is(err, common.ErrDuplicateDisplayID) || errors.Is(err, common.ErrDuplicateToken) {
			s.log.Debug(ctx, "generated id collided, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return err
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrDuplicateEmail), errors.Is(err, common.ErrDuplicateUsername):
		return err
	case errors.Is(err, common.ErrDuplicateDisplayID), errors.Is(err, common.ErrDuplicateToken):
		return s.internal(ctx, "generate unique ids", common.ErrInternal.Wrap(err))
	default:
		return s.internal(ctx, "create account", err)
	}
}

// Verify redeems a pending verification token. A token is redeemed at most
// once, also under concurrent calls.
func (s *AccountService) Verify(ctx context.Context, token string) (msg string, err error) {
	defer func() { s.metrics.Verification(resultOf(err)) }()

	if token == "" {
		return "", common.ErrInvalidToken
	}

	account, err := s.repos.Accounts().GetByVerificationToken(ctx, token)
	if errors.Is(err, common.ErrorNotFound) {
		return "", common.ErrInvalidToken
	}
	if err != nil {
		return "", s.internal(ctx, "lookup by token", err)
	}
	if account.Verified {
		return MsgAlreadyVerified, nil
	}

	now := s.now()
	err = s.repos.Accounts().MarkVerified(ctx, account.ID, token, now)
	if errors.Is(err, common.ErrorNotFound) {
		// a concurrent redemption got there first
		return "", common.ErrInvalidToken
	}
	if err != nil {
		return "", s.internal(ctx, "mark verified", err)
	}

	account.Verified = true
	account.VerificationToken = nil
	account.UpdatedAt = now

	s.log.Info(ctx, "account verified", "account_id", account.ID)
	s.notifyChanged(ctx, events.ChangeVerified, account)

	return MsgVerified, nil
}

// ValidateCredentials authenticates a username and password. Only verified
// accounts pass. Legacy bcrypt hashes are rehashed after a successful check.
func (s *AccountService) ValidateCredentials(ctx context.Context, username, password string) (identity *models.Identity, err error) {
	defer func() { s.metrics.CredentialCheck(resultOf(err)) }()

	account, err := s.repos.Accounts().GetByUsername(ctx, username)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrAccountNotFound
	}
	if err != nil {
		return nil, s.internal(ctx, "lookup by username", err)
	}

	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return nil, s.internal(ctx, "verify password", err)
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}
	if !account.Verified {
		return nil, common.ErrAccountNotVerified
	}

	if s.hasher.NeedsUpgrade(account.PasswordHash) {
		s.upgradeHash(ctx, account.ID, password)
	}

	return &models.Identity{
		AccountID: account.ID,
		Verified:  account.Verified,
		Role:      account.Role,
		Email:     account.Email,
	}, nil
}

// upgradeHash rehashes a legacy password hash. Failures only get logged; the
// next successful login tries again.
func (s *AccountService) upgradeHash(ctx context.Context, accountID, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Warn(ctx, "password rehash failed", "account_id", accountID, "error", err)
		return
	}
	err = s.repos.InTx(ctx, func(ctx context.Context, tx repomanager.RepositoryManager) error {
		account, err := lockAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		account.PasswordHash = hash
		return tx.Accounts().Update(ctx, account)
	})
	if err != nil {
		s.log.Warn(ctx, "password rehash failed", "account_id", accountID, "error", err)
		return
	}
	s.log.Info(ctx, "legacy password hash upgraded", "account_id", accountID)
}

// GetByID returns a verified account.
func (s *AccountService) GetByID(ctx context.Context, id string) (*models.Account, error) {
	account, err := s.repos.Accounts().GetByID(ctx, id)
	return s.verifiedOnly(ctx, account, err)
}

// GetByDisplayID returns a verified account by its public id.
func (s *AccountService) GetByDisplayID(ctx context.Context, displayID string) (*models.Account, error) {
	account, err := s.repos.Accounts().GetByDisplayID(ctx, displayID)
	return s.verifiedOnly(ctx, account, err)
}

func (s *AccountService) verifiedOnly(ctx context.Context, account *models.Account, err error) (*models.Account, error) {
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrAccountNotFound
	}
	if err != nil {
		return nil, s.internal(ctx, "get account", err)
	}
	if !account.Verified {
		return nil, common.ErrAccountNotVerified
	}
	return account, nil
}

// List returns every account ordered by creation time.
func (s *AccountService) List(ctx context.Context) ([]*models.Account, error) {
	list, err := s.repos.Accounts().List(ctx)
	if err != nil {
		return nil, s.internal(ctx, "list accounts", err)
	}
	return list, nil
}

// UpdateProfile changes name and phone. Uniqueness fields and the
// verification state are never touched here.
func (s *AccountService) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*models.Account, error) {
	var updated *models.Account

	err := s.repos.InTx(ctx, func(ctx context.Context, tx repomanager.RepositoryManager) error {
		account, err := lockAccount(ctx, tx, id)
		if err != nil {
			return err
		}
		if upd.FirstName != nil {
			account.FirstName = *upd.FirstName
		}
		if upd.LastName != nil {
			account.LastName = *upd.LastName
		}
		if upd.Phone != nil {
			account.Phone = *upd.Phone
		}
		account.UpdatedAt = s.now()
		if err := tx.Accounts().Update(ctx, account); err != nil {
			return err
		}
		updated = account
		return nil
	})
	if err != nil {
		return nil, s.internal(ctx, "update profile", err)
	}

	s.notifyChanged(ctx, events.ChangeUpdated, updated)
	return updated, nil
}

// ChangePassword replaces the password after checking the current one and
// revokes every refresh token of the account.
func (s *AccountService) ChangePassword(ctx context.Context, id, current, next, confirm string) error {
	if next != confirm {
		return common.ErrPasswordMismatch
	}
	if next == "" {
		return common.ErrInvalidPassword
	}

	account, err := s.repos.Accounts().GetByID(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrAccountNotFound
	}
	if err != nil {
		return s.internal(ctx, "get account", err)
	}

	ok, err := s.hasher.Verify(current, account.PasswordHash)
	if err != nil {
		return s.internal(ctx, "verify password", err)
	}
	if !ok {
		return common.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return s.internal(ctx, "hash password", err)
	}

	err = s.repos.InTx(ctx, func(ctx context.Context, tx repomanager.RepositoryManager) error {
		account, err := lockAccount(ctx, tx, id)
		if err != nil {
			return err
		}
		account.PasswordHash = hash
		account.UpdatedAt = s.now()
		if err := tx.Accounts().Update(ctx, account); err != nil {
			return err
		}
		return tx.RefreshTokens().DeleteByAccount(ctx, id)
	})
	if err != nil {
		return s.internal(ctx, "change password", err)
	}

	s.log.Info(ctx, "password changed", "account_id", id)
	return nil
}

// Delete removes an account together with its addresses and refresh tokens.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	var deleted *models.Account

	err := s.repos.InTx(ctx, func(ctx context.Context, tx repomanager.RepositoryManager) error {
		account, err := lockAccount(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := tx.Addresses().DeleteByAccount(ctx, id); err != nil {
			return err
		}
		if err := tx.RefreshTokens().DeleteByAccount(ctx, id); err != nil {
			return err
		}
		if err := tx.Accounts().Delete(ctx, id); err != nil {
			return err
		}
		deleted = account
		return nil
	})
	if err != nil {
		return s.internal(ctx, "delete account", err)
	}

	s.log.Info(ctx, "account deleted", "account_id", id)
	s.notifyChanged(ctx, events.ChangeDeleted, deleted)
	return nil
}

// lockAccount takes the row lock of an account and reads it back.
func lockAccount(ctx context.Context, tx repomanager.RepositoryManager, id string) (*models.Account, error) {
	if err := tx.Accounts().LockForUpdate(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAccountNotFound
		}
		return nil, err
	}
	account, err := tx.Accounts().GetByID(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrAccountNotFound
	}
	return account, err
}

func (s *AccountService) notifyChanged(ctx context.Context, kind events.ChangeKind, account *models.Account) {
	s.notifier.Notify(ctx, events.TopicAccountChanged, events.AccountChanged{
		Kind:       kind,
		Account:    account.Snapshot(),
		OccurredAt: s.now(),
	})
}

// internal logs err and converts it to an INTERNAL_ERROR unless it already
// carries a kind.
func (s *AccountService) internal(ctx context.Context, op string, err error) error {
	if common.KindOf(err) == common.KindInternal {
		s.log.Error(ctx, "account operation failed", "op", op, "error", err)
	}
	return common.Internal(err)
}
