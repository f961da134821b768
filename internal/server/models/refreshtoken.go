package models

import "time"

type RefreshToken struct {
	Token     string
	AccountID string
	Expires   time.Time
	CreatedAt time.Time
}
