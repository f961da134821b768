package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/server/auth"
	"github.com/dmitrijs2005/gophaccounts/internal/server/config"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SessionService issues JWT access tokens plus server-stored refresh tokens
// for identities that passed credential validation.
type SessionService struct {
	repos                        repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewSessionService constructs a SessionService using repositories and server config.
func NewSessionService(m repomanager.RepositoryManager, cfg *config.Config) *SessionService {
	return &SessionService{
		repos:                        m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Issue mints a token pair for a validated identity.
func (s *SessionService) Issue(ctx context.Context, identity *models.Identity) (*TokenPair, error) {
	return s.generateTokenPair(ctx, identity.AccountID, identity.Role, s.repos)
}

// Refresh validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.repos.RefreshTokens().Find(ctx, refreshToken)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrorUnauthorized
	}
	if err != nil {
		return nil, common.Internal(err)
	}
	if token.Expires.Before(time.Now()) {
		_ = s.repos.RefreshTokens().Delete(ctx, refreshToken)
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	err = s.repos.InTx(ctx, func(ctx context.Context, tx repomanager.RepositoryManager) error {
		if err := tx.RefreshTokens().Delete(ctx, refreshToken); err != nil {
			return err
		}
		account, err := tx.Accounts().GetByID(ctx, token.AccountID)
		if err != nil {
			return err
		}
		pair, err = s.generateTokenPair(ctx, account.ID, account.Role, tx)
		return err
	})
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrorUnauthorized
	}
	if err != nil {
		return nil, common.Internal(err)
	}
	return pair, nil
}

// Authenticate parses an access token.
func (s *SessionService) Authenticate(accessToken string) (*auth.Claims, error) {
	return auth.ParseToken(accessToken, s.jwtSecret)
}

func (s *SessionService) generateTokenPair(ctx context.Context, accountID string, role models.Role, repos repomanager.RepositoryManager) (*TokenPair, error) {
	access, err := auth.GenerateToken(accountID, role, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.Internal(err)
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.Internal(err)
	}
	if err := repos.RefreshTokens().Create(ctx, accountID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.Internal(err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
