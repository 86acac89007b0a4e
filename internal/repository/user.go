package repository

import (
	"context"
	"errors"
	"time"

	"journal-api/internal/domain"
)

var (
	// ErrNotFound indicates the requested row does not exist (or, for
	// ownership-scoped queries, does not belong to the caller).
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail indicates a unique-email violation on user creation.
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// ReplaceRefreshToken stores next as the user's sole refresh token.
	// When current is non-nil the update only applies if the stored token
	// still equals *current; the returned bool reports whether a row
	// changed. This is the compare-and-swap that makes rotation safe under
	// concurrent refresh attempts.
	ReplaceRefreshToken(ctx context.Context, userID string, current *string, next string, expiresAt time.Time) (bool, error)

	// ClearRefreshToken drops any stored refresh token. Idempotent.
	ClearRefreshToken(ctx context.Context, userID string) error

	SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error

	// ConsumePasswordReset sets the new password hash and clears the reset
	// token in one statement, matched on an unexpired stored token. The
	// returned bool reports whether a matching row was consumed.
	ConsumePasswordReset(ctx context.Context, resetToken, newPasswordHash string, now time.Time) (bool, error)
}
