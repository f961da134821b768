// Package events publishes account notifications to downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
)

const (
	TopicVerificationRequested = "account.verification.requested"
	TopicAccountChanged        = "account.changed"
)

// ChangeKind says what happened to an account in an AccountChanged event.
type ChangeKind string

const (
	ChangeCreated  ChangeKind = "CREATED"
	ChangeVerified ChangeKind = "VERIFIED"
	ChangeUpdated  ChangeKind = "UPDATED"
	ChangeDeleted  ChangeKind = "DELETED"
)

// VerificationRequested asks the mailer to send a verification link.
type VerificationRequested struct {
	Email    string      `json:"email"`
	Token    string      `json:"token"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// AccountChanged carries the state of an account after a change.
type AccountChanged struct {
	Kind       ChangeKind      `json:"kind"`
	Account    models.Snapshot `json:"account"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Publisher delivers a payload to a topic. Implementations serialize the
// payload themselves.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}
