package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"journal-api/internal/domain"
	"journal-api/internal/mail"
	"journal-api/internal/password"
	"journal-api/internal/repository"
	"journal-api/internal/token"
)

var (
	// ErrEmailTaken is returned when registering with an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	// ErrInvalidOrExpiredToken covers bad signature, expiry, kind mismatch and
	// stale/rotated tokens alike; callers never learn which.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	// ErrEmailDispatchFailed indicates the reset email could not be sent.
	ErrEmailDispatchFailed = errors.New("failed to send password reset email")
)

// TokenPair is the bundle returned by every authenticating operation.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService orchestrates registration, login, refresh rotation, logout and
// the password-reset lifecycle.
type AuthService interface {
	Register(ctx context.Context, email, plaintext string) (*TokenPair, error)
	Login(ctx context.Context, email, plaintext string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, userID string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, resetToken, newPlaintext string) error
	UserByAccessToken(ctx context.Context, accessToken string) (*domain.User, error)
}

type authService struct {
	users  repository.UserRepository
	codec  *token.Codec
	mailer mail.Mailer
}

func NewAuthService(users repository.UserRepository, codec *token.Codec, mailer mail.Mailer) AuthService {
	return &authService{
		users:  users,
		codec:  codec,
		mailer: mailer,
	}
}

func (s *authService) Register(ctx context.Context, email, plaintext string) (*TokenPair, error) {
	email = strings.TrimSpace(email)

	hash, err := password.Hash(plaintext)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return s.issuePair(ctx, user.ID, user.Email, nil)
}

func (s *authService) Login(ctx context.Context, email, plaintext string) (*TokenPair, error) {
	email = strings.TrimSpace(email)
	if email == "" || plaintext == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !password.Verify(plaintext, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	// A fresh login unconditionally replaces any stored refresh token.
	return s.issuePair(ctx, user.ID, user.Email, nil)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	subject, err := s.codec.Verify(refreshToken, token.KindRefresh)
	if err != nil {
		return nil, ErrInvalidOrExpiredToken
	}

	user, err := s.users.GetByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidOrExpiredToken
		}
		return nil, err
	}

	if user.RefreshToken == nil ||
		subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(refreshToken)) != 1 {
		return nil, ErrInvalidOrExpiredToken
	}

	if user.RefreshTokenExpiresAt == nil || !user.RefreshTokenExpiresAt.After(time.Now().UTC()) {
		// lazy cleanup of a stale stored token
		if err := s.users.ClearRefreshToken(ctx, user.ID); err != nil {
			return nil, err
		}
		return nil, ErrInvalidOrExpiredToken
	}

	// Rotation is conditioned on the presented token still being the stored
	// one, so two concurrent refreshes with the same token cannot both win.
	return s.issuePair(ctx, user.ID, user.Email, &refreshToken)
}

func (s *authService) Logout(ctx context.Context, userID string) error {
	return s.users.ClearRefreshToken(ctx, userID)
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// respond identically whether or not the account exists
			return nil
		}
		return err
	}

	resetToken, expiresAt, err := s.codec.IssueReset(user.Email)
	if err != nil {
		return err
	}
	if err := s.users.SetResetToken(ctx, user.ID, resetToken, expiresAt); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, resetToken); err != nil {
		return fmt.Errorf("%w: %w", ErrEmailDispatchFailed, err)
	}
	return nil
}

func (s *authService) ConfirmPasswordReset(ctx context.Context, resetToken, newPlaintext string) error {
	if _, err := s.codec.Verify(resetToken, token.KindReset); err != nil {
		return ErrInvalidOrExpiredToken
	}

	hash, err := password.Hash(newPlaintext)
	if err != nil {
		return err
	}

	consumed, err := s.users.ConsumePasswordReset(ctx, resetToken, hash, time.Now().UTC())
	if err != nil {
		return err
	}
	if !consumed {
		return ErrInvalidOrExpiredToken
	}
	return nil
}

func (s *authService) UserByAccessToken(ctx context.Context, accessToken string) (*domain.User, error) {
	subject, err := s.codec.Verify(accessToken, token.KindAccess)
	if err != nil {
		return nil, ErrInvalidOrExpiredToken
	}

	user, err := s.users.GetByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidOrExpiredToken
		}
		return nil, err
	}
	return user, nil
}

// issuePair signs a new access+refresh pair and persists the refresh token
// before anything is returned to the caller. current carries the CAS guard
// for rotation; nil overwrites unconditionally (register, login).
func (s *authService) issuePair(ctx context.Context, userID, email string, current *string) (*TokenPair, error) {
	accessToken, err := s.codec.IssueAccess(email)
	if err != nil {
		return nil, err
	}
	refreshToken, expiresAt, err := s.codec.IssueRefresh(email)
	if err != nil {
		return nil, err
	}

	replaced, err := s.users.ReplaceRefreshToken(ctx, userID, current, refreshToken, expiresAt)
	if err != nil {
		return nil, err
	}
	if !replaced {
		return nil, ErrInvalidOrExpiredToken
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
