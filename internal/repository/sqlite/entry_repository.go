package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"journal-api/internal/domain"
	"journal-api/internal/repository"
)

const createEntriesTable = `
CREATE TABLE IF NOT EXISTS journal_entries (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	work TEXT NOT NULL CHECK (length(work) <= 256),
	struggle TEXT NOT NULL CHECK (length(struggle) <= 256),
	intention TEXT NOT NULL CHECK (length(intention) <= 256),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_journal_entries_user_id ON journal_entries(user_id);
`

type EntryRepository struct {
	db *sql.DB
}

func NewEntryRepository(db *sql.DB) repository.EntryRepository {
	return &EntryRepository{db: db}
}

func (r *EntryRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createEntriesTable); err != nil {
		return fmt.Errorf("create journal entries table: %w", err)
	}
	return nil
}

func (r *EntryRepository) Create(ctx context.Context, entry *domain.JournalEntry) error {
	now := time.Now().UTC()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = now
	entry.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO journal_entries (id, user_id, work, struggle, intention, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.UserID,
		entry.Work,
		entry.Struggle,
		entry.Intention,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

func (r *EntryRepository) ListByUser(ctx context.Context, userID string) ([]domain.JournalEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, work, struggle, intention, created_at, updated_at
FROM journal_entries
WHERE user_id = ?
ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		var entry domain.JournalEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Work,
			&entry.Struggle,
			&entry.Intention,
			&entry.CreatedAt,
			&entry.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal entries: %w", err)
	}
	return entries, nil
}

func (r *EntryRepository) GetByID(ctx context.Context, id, userID string) (*domain.JournalEntry, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, work, struggle, intention, created_at, updated_at
FROM journal_entries
WHERE id = ? AND user_id = ?`,
		id, userID,
	)

	var entry domain.JournalEntry
	if err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Work,
		&entry.Struggle,
		&entry.Intention,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan journal entry: %w", err)
	}
	return &entry, nil
}

func (r *EntryRepository) Update(ctx context.Context, entry *domain.JournalEntry) error {
	entry.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
UPDATE journal_entries
SET work = ?, struggle = ?, intention = ?, updated_at = ?
WHERE id = ? AND user_id = ?`,
		entry.Work,
		entry.Struggle,
		entry.Intention,
		entry.UpdatedAt,
		entry.ID,
		entry.UserID,
	)
	if err != nil {
		return fmt.Errorf("update journal entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update journal entry rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *EntryRepository) Delete(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM journal_entries
WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete journal entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete journal entry rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *EntryRepository) DeleteAllByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `
DELETE FROM journal_entries
WHERE user_id = ?`,
		userID,
	); err != nil {
		return fmt.Errorf("delete journal entries: %w", err)
	}
	return nil
}
