// Package common defines shared constants and errors used across the
// repository, service and transport layers. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Session errors.
	ErrorUnauthorized      = errors.New("unauthorized")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// Kind is the stable machine-readable class of an account error.
type Kind string

const (
	KindDuplicateEmail     Kind = "DUPLICATE_EMAIL"
	KindDuplicateUsername  Kind = "DUPLICATE_USERNAME"
	KindDuplicateDisplayID Kind = "DUPLICATE_DISPLAY_ID"
	KindDuplicateToken     Kind = "DUPLICATE_VERIFICATION_TOKEN"
	KindPasswordMismatch   Kind = "PASSWORD_MISMATCH"
	KindInvalidPassword    Kind = "INVALID_PASSWORD"
	KindInvalidRole        Kind = "INVALID_ROLE"
	KindInvalidToken       Kind = "INVALID_TOKEN"
	KindAccountNotFound    Kind = "ACCOUNT_NOT_FOUND"
	KindAddressNotFound    Kind = "ADDRESS_NOT_FOUND"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindAccountNotVerified Kind = "ACCOUNT_NOT_VERIFIED"
	KindInternal           Kind = "INTERNAL_ERROR"
)

// Error is an account error with a kind and a human-readable message.
// Two Errors match under errors.Is when their kinds are equal, so callers can
// compare against the exported sentinels regardless of message or cause.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

// NewError returns an Error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Wrap returns a copy of e that records cause.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, cause: cause}
}

var (
	ErrDuplicateEmail     = NewError(KindDuplicateEmail, "email already exists")
	ErrDuplicateUsername  = NewError(KindDuplicateUsername, "username already taken")
	ErrDuplicateDisplayID = NewError(KindDuplicateDisplayID, "display id already taken")
	ErrDuplicateToken     = NewError(KindDuplicateToken, "verification token already taken")
	ErrPasswordMismatch   = NewError(KindPasswordMismatch, "passwords do not match")
	ErrInvalidPassword    = NewError(KindInvalidPassword, "password cannot be empty")
	ErrInvalidRole        = NewError(KindInvalidRole, "invalid role")
	ErrInvalidToken       = NewError(KindInvalidToken, "invalid verification token")
	ErrAccountNotFound    = NewError(KindAccountNotFound, "account not found")
	ErrAddressNotFound    = NewError(KindAddressNotFound, "address not found")
	ErrInvalidCredentials = NewError(KindInvalidCredentials, "invalid credentials")
	ErrAccountNotVerified = NewError(KindAccountNotVerified, "email not verified, please verify your email first")
	ErrInternal           = NewError(KindInternal, "internal error")
)

// Internal wraps an unexpected collaborator failure as an INTERNAL_ERROR.
// Errors that already carry a kind are returned unchanged.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return ErrInternal.Wrap(err)
}

// KindOf reports the kind of err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the client-safe message of err. Causes are never included.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ErrInternal.Message
}
