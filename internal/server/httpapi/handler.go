// Package httpapi exposes the account services over HTTP with gin.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/auth"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/dmitrijs2005/gophaccounts/internal/server/services"
	"github.com/gin-gonic/gin"
)

const requestTimeout = 5 * time.Second

type AccountService interface {
	Register(ctx context.Context, req services.RegistrationRequest) (string, error)
	Verify(ctx context.Context, token string) (string, error)
	ValidateCredentials(ctx context.Context, username, password string) (*models.Identity, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByDisplayID(ctx context.Context, displayID string) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
	UpdateProfile(ctx context.Context, id string, upd services.ProfileUpdate) (*models.Account, error)
	ChangePassword(ctx context.Context, id, current, next, confirm string) error
	Delete(ctx context.Context, id string) error
}

type AddressService interface {
	List(ctx context.Context, accountID string) ([]*models.Address, error)
	Add(ctx context.Context, accountID string, in models.AddressInput) (*models.Address, error)
	Update(ctx context.Context, accountID, addressID string, in models.AddressInput) (*models.Address, error)
	Delete(ctx context.Context, accountID, addressID string) error
}

type SessionService interface {
	Issue(ctx context.Context, identity *models.Identity) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Authenticate(accessToken string) (*auth.Claims, error)
}

// Handler holds the gin handlers of the accounts API.
type Handler struct {
	accounts  AccountService
	addresses AddressService
	sessions  SessionService
	ping      func(context.Context) error
	log       logging.Logger
}

func NewHandler(accounts AccountService, addresses AddressService, sessions SessionService, ping func(context.Context) error, log logging.Logger) *Handler {
	return &Handler{
		accounts:  accounts,
		addresses: addresses,
		sessions:  sessions,
		ping:      ping,
		log:       log.With("module", "http"),
	}
}

func ok(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Status: http.StatusOK, Message: message, Data: data})
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.ping(ctx); err != nil {
		h.log.Warn(ctx, "store ping failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	msg, err := h.accounts.Register(ctx, req.toService())
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, msg, nil)
}

// verify answers with an HTML page when the client prefers one, e.g. a
// browser following the link from the verification email.
func (h *Handler) verify(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	msg, err := h.accounts.Verify(ctx, c.Query("token"))

	if c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML {
		if err != nil {
			status, _, message := describe(err)
			c.HTML(status, verifyTemplate, gin.H{"Success": false, "Message": message})
			return
		}
		c.HTML(http.StatusOK, verifyTemplate, gin.H{"Success": true, "Message": msg})
		return
	}

	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, msg, nil)
}

func (h *Handler) validate(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	identity, err := h.accounts.ValidateCredentials(ctx, req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	pair, err := h.sessions.Issue(ctx, identity)
	if err != nil {
		h.respondError(c, err)
		return
	}

	ok(c, "User validated successfully", userDetailResponse{
		UserID:       identity.AccountID,
		IsVerified:   identity.Verified,
		UserType:     identity.Role,
		Email:        identity.Email,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	pair, err := h.sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, "Token refreshed", tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (h *Handler) list(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.accounts.List(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]accountResponse, 0, len(list))
	for _, a := range list {
		out = append(out, newAccountResponse(a))
	}
	ok(c, "Users fetched successfully", out)
}

func (h *Handler) get(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	a, err := h.accounts.GetByID(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, "User fetched successfully", newAccountResponse(a))
}

func (h *Handler) getByDisplayID(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	a, err := h.accounts.GetByDisplayID(ctx, c.Param("displayId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, "User fetched successfully", newAccountResponse(a))
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	a, err := h.accounts.UpdateProfile(ctx, c.Param("id"), services.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.PhoneNumber,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, "User updated successfully", newAccountResponse(a))
}

func (h *Handler) changePassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.accounts.ChangePassword(ctx, c.Param("id"), req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, "Password changed successfully", nil)
}

func (h *Handler) delete(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.accounts.Delete(ctx, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, "User deleted successfully", nil)
}

func (h *Handler) listAddresses(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.addresses.List(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]addressResponse, 0, len(list))
	for _, a := range list {
		out = append(out, newAddressResponse(a))
	}
	ok(c, "Addresses fetched successfully", out)
}

func (h *Handler) addAddress(c *gin.Context) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	a, err := h.addresses.Add(ctx, c.Param("id"), req.toModel())
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, "Address added successfully", newAddressResponse(a))
}

func (h *Handler) updateAddress(c *gin.Context) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	a, err := h.addresses.Update(ctx, c.Param("id"), c.Param("addressId"), req.toModel())
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, "Address updated successfully", newAddressResponse(a))
}

func (h *Handler) deleteAddress(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.addresses.Delete(ctx, c.Param("id"), c.Param("addressId")); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, "Address deleted successfully", nil)
}
