package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"journal-api/internal/domain"
	"journal-api/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	refresh_token TEXT,
	refresh_token_expires_at DATETIME,
	reset_token TEXT,
	reset_token_expires_at DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, email, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, email, password_hash, refresh_token, refresh_token_expires_at,
       reset_token, reset_token_expires_at, created_at, updated_at
FROM users
WHERE email = ?`,
		email,
	)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, email, password_hash, refresh_token, refresh_token_expires_at,
       reset_token, reset_token_expires_at, created_at, updated_at
FROM users
WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

func (r *UserRepository) ReplaceRefreshToken(ctx context.Context, userID string, current *string, next string, expiresAt time.Time) (bool, error) {
	now := time.Now().UTC()

	var (
		res sql.Result
		err error
	)
	if current == nil {
		res, err = r.db.ExecContext(ctx, `
UPDATE users
SET refresh_token = ?, refresh_token_expires_at = ?, updated_at = ?
WHERE id = ?`,
			next, expiresAt.UTC(), now, userID,
		)
	} else {
		res, err = r.db.ExecContext(ctx, `
UPDATE users
SET refresh_token = ?, refresh_token_expires_at = ?, updated_at = ?
WHERE id = ? AND refresh_token = ?`,
			next, expiresAt.UTC(), now, userID, *current,
		)
	}
	if err != nil {
		return false, fmt.Errorf("replace refresh token: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("replace refresh token rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *UserRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE users
SET refresh_token = NULL, refresh_token_expires_at = NULL, updated_at = ?
WHERE id = ?`,
		time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE users
SET reset_token = ?, reset_token_expires_at = ?, updated_at = ?
WHERE id = ?`,
		token, expiresAt.UTC(), time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	return nil
}

func (r *UserRepository) ConsumePasswordReset(ctx context.Context, resetToken, newPasswordHash string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE users
SET password_hash = ?, reset_token = NULL, reset_token_expires_at = NULL, updated_at = ?
WHERE reset_token = ? AND reset_token_expires_at > ?`,
		newPasswordHash, now.UTC(), resetToken, now.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("consume password reset: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume password reset rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var (
		user             domain.User
		refreshToken     sql.NullString
		refreshExpiresAt sql.NullTime
		resetToken       sql.NullString
		resetExpiresAt   sql.NullTime
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&refreshToken,
		&refreshExpiresAt,
		&resetToken,
		&resetExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	if refreshToken.Valid {
		user.RefreshToken = &refreshToken.String
	}
	if refreshExpiresAt.Valid {
		t := refreshExpiresAt.Time.UTC()
		user.RefreshTokenExpiresAt = &t
	}
	if resetToken.Valid {
		user.ResetToken = &resetToken.String
	}
	if resetExpiresAt.Valid {
		t := resetExpiresAt.Time.UTC()
		user.ResetTokenExpiresAt = &t
	}
	return &user, nil
}
