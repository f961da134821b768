package models

import (
	"strings"
	"time"
)

type Account struct {
	ID           string
	DisplayID    string
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        string
	Role         Role
	Verified     bool
	// VerificationToken is set only while Verified is false.
	VerificationToken *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Clone returns a deep copy of a.
func (a *Account) Clone() *Account {
	c := *a
	if a.VerificationToken != nil {
		token := *a.VerificationToken
		c.VerificationToken = &token
	}
	return &c
}

// FullName joins first and last name.
func (a *Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// SplitDisplayName splits a free-text name into its first token and the rest.
// The rest may be empty.
func SplitDisplayName(name string) (first, rest string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// Identity is what a successful credential check reveals about an account.
type Identity struct {
	AccountID string
	Verified  bool
	Role      Role
	Email     string
}

// Snapshot is the serialized form of an account carried by change events.
// It never includes the password hash or the verification token.
type Snapshot struct {
	ID        string    `json:"id"`
	DisplayID string    `json:"display_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone,omitempty"`
	Role      Role      `json:"role"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Account) Snapshot() Snapshot {
	return Snapshot{
		ID:        a.ID,
		DisplayID: a.DisplayID,
		Username:  a.Username,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Phone:     a.Phone,
		Role:      a.Role,
		Verified:  a.Verified,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
