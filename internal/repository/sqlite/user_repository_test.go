package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journal-api/internal/domain"
	"journal-api/internal/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestUserRepo(t *testing.T) repository.UserRepository {
	t.Helper()
	repo := NewUserRepository(openTestDB(t))
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func createTestUser(t *testing.T, repo repository.UserRepository, email string) *domain.User {
	t.Helper()
	user := &domain.User{Email: email, PasswordHash: "$2a$10$fakehash"}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestUserRepo(t)

	created := createTestUser(t, repo, "alice@example.com")
	require.NotEmpty(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	assert.Nil(t, byEmail.RefreshToken)
	assert.Nil(t, byEmail.ResetToken)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestUserRepo(t)

	createTestUser(t, repo, "alice@example.com")
	err := repo.Create(ctx, &domain.User{Email: "alice@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestUserRepository_ReplaceRefreshToken_CAS(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestUserRepo(t)
	user := createTestUser(t, repo, "alice@example.com")

	expiry := time.Now().UTC().Add(7 * 24 * time.Hour).Truncate(time.Second)

	// unconditional set (login path)
	replaced, err := repo.ReplaceRefreshToken(ctx, user.ID, nil, "token-1", expiry)
	require.NoError(t, err)
	require.True(t, replaced)

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, "token-1", *stored.RefreshToken)
	require.NotNil(t, stored.RefreshTokenExpiresAt)

	// conditional rotation with the matching current token succeeds
	old := "token-1"
	replaced, err = repo.ReplaceRefreshToken(ctx, user.ID, &old, "token-2", expiry)
	require.NoError(t, err)
	require.True(t, replaced)

	// replaying the stale token fails the compare-and-swap
	replaced, err = repo.ReplaceRefreshToken(ctx, user.ID, &old, "token-3", expiry)
	require.NoError(t, err)
	assert.False(t, replaced)

	stored, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "token-2", *stored.RefreshToken)
}

func TestUserRepository_ClearRefreshToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestUserRepo(t)
	user := createTestUser(t, repo, "alice@example.com")

	_, err := repo.ReplaceRefreshToken(ctx, user.ID, nil, "token-1", time.Now().Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, repo.ClearRefreshToken(ctx, user.ID))
	// idempotent
	require.NoError(t, repo.ClearRefreshToken(ctx, user.ID))

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.RefreshToken)
	assert.Nil(t, stored.RefreshTokenExpiresAt)
}

func TestUserRepository_ConsumePasswordReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestUserRepo(t)
	user := createTestUser(t, repo, "alice@example.com")

	require.NoError(t, repo.SetResetToken(ctx, user.ID, "reset-1", time.Now().UTC().Add(24*time.Hour)))

	consumed, err := repo.ConsumePasswordReset(ctx, "reset-1", "new-hash", time.Now().UTC())
	require.NoError(t, err)
	require.True(t, consumed)

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", stored.PasswordHash)
	assert.Nil(t, stored.ResetToken)
	assert.Nil(t, stored.ResetTokenExpiresAt)

	// the token was cleared with the password change; no reuse
	consumed, err = repo.ConsumePasswordReset(ctx, "reset-1", "other-hash", time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, consumed)
}

func TestUserRepository_ConsumePasswordReset_Expired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestUserRepo(t)
	user := createTestUser(t, repo, "alice@example.com")

	require.NoError(t, repo.SetResetToken(ctx, user.ID, "reset-1", time.Now().UTC().Add(-time.Minute)))

	consumed, err := repo.ConsumePasswordReset(ctx, "reset-1", "new-hash", time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, consumed)

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$fakehash", stored.PasswordHash, "expired token must not change the password")
}
