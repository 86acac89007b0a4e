package repository

import (
	"context"

	"journal-api/internal/domain"
)

// EntryRepository defines persistence operations for JournalEntry entities.
// Every read and mutation that names an entry id is also scoped by the owning
// user id, so an entry belonging to another user reads as ErrNotFound.
type EntryRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, entry *domain.JournalEntry) error
	ListByUser(ctx context.Context, userID string) ([]domain.JournalEntry, error)
	GetByID(ctx context.Context, id, userID string) (*domain.JournalEntry, error)
	Update(ctx context.Context, entry *domain.JournalEntry) error
	Delete(ctx context.Context, id, userID string) error
	DeleteAllByUser(ctx context.Context, userID string) error
}
