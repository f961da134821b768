package httpapi

import (
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/dmitrijs2005/gophaccounts/internal/server/services"
)

// Response is the envelope of every successful JSON reply.
type Response struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type registerRequest struct {
	Username        string  `json:"username" binding:"required,max=50"`
	Email           string  `json:"email" binding:"required,email"`
	Password        string  `json:"password" binding:"required"`
	ConfirmPassword *string `json:"confirmPassword"`
	FullName        string  `json:"fullName" binding:"required"`
	PhoneNumber     string  `json:"phoneNumber"`
	Role            string  `json:"role" binding:"required"`
}

func (r registerRequest) toService() services.RegistrationRequest {
	return services.RegistrationRequest{
		Username:        r.Username,
		Email:           r.Email,
		Password:        r.Password,
		ConfirmPassword: r.ConfirmPassword,
		DisplayName:     r.FullName,
		Phone:           r.PhoneNumber,
		Role:            r.Role,
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type profileRequest struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	PhoneNumber *string `json:"phoneNumber"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type addressRequest struct {
	FullName    string `json:"fullName" binding:"required"`
	AddressLine string `json:"addressLine" binding:"required"`
	City        string `json:"city" binding:"required"`
	State       string `json:"state"`
	ZipCode     string `json:"zipCode"`
	PhoneNumber string `json:"phoneNumber"`
	IsDefault   bool   `json:"isDefault"`
}

func (r addressRequest) toModel() models.AddressInput {
	return models.AddressInput{
		FullName:    r.FullName,
		AddressLine: r.AddressLine,
		City:        r.City,
		State:       r.State,
		ZipCode:     r.ZipCode,
		Phone:       r.PhoneNumber,
		IsDefault:   r.IsDefault,
	}
}

type accountResponse struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	PhoneNumber string      `json:"phoneNumber"`
	Role        models.Role `json:"role"`
	IsVerified  bool        `json:"isVerified"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func newAccountResponse(a *models.Account) accountResponse {
	return accountResponse{
		ID:          a.ID,
		UserID:      a.DisplayID,
		Username:    a.Username,
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		PhoneNumber: a.Phone,
		Role:        a.Role,
		IsVerified:  a.Verified,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// userDetailResponse answers a successful credential check.
type userDetailResponse struct {
	UserID       string      `json:"userId"`
	IsVerified   bool        `json:"isVerified"`
	UserType     models.Role `json:"userType"`
	Email        string      `json:"email"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type addressResponse struct {
	ID          string    `json:"id"`
	FullName    string    `json:"fullName"`
	AddressLine string    `json:"addressLine"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	ZipCode     string    `json:"zipCode"`
	PhoneNumber string    `json:"phoneNumber"`
	IsDefault   bool      `json:"isDefault"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newAddressResponse(a *models.Address) addressResponse {
	return addressResponse{
		ID:          a.ID,
		FullName:    a.FullName,
		AddressLine: a.AddressLine,
		City:        a.City,
		State:       a.State,
		ZipCode:     a.ZipCode,
		PhoneNumber: a.Phone,
		IsDefault:   a.IsDefault,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
