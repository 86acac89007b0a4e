package service

import (
	"context"
	"errors"

	"journal-api/internal/domain"
	"journal-api/internal/repository"
)

// ErrEntryNotFound is returned for missing entries and for entries owned by
// another user alike, so callers cannot probe for existence.
var ErrEntryNotFound = errors.New("journal entry not found")

// EntryUpdate carries a partial update; nil fields are left untouched.
type EntryUpdate struct {
	Work      *string
	Struggle  *string
	Intention *string
}

// EntryService coordinates journal entry operations, always scoped by the
// owning user's id.
type EntryService interface {
	Create(ctx context.Context, userID, work, struggle, intention string) (*domain.JournalEntry, error)
	List(ctx context.Context, userID string) ([]domain.JournalEntry, error)
	Get(ctx context.Context, id, userID string) (*domain.JournalEntry, error)
	Update(ctx context.Context, id, userID string, update EntryUpdate) (*domain.JournalEntry, error)
	Delete(ctx context.Context, id, userID string) error
	DeleteAll(ctx context.Context, userID string) error
}

type entryService struct {
	entries repository.EntryRepository
}

func NewEntryService(entries repository.EntryRepository) EntryService {
	return &entryService{entries: entries}
}

func (s *entryService) Create(ctx context.Context, userID, work, struggle, intention string) (*domain.JournalEntry, error) {
	entry := &domain.JournalEntry{
		UserID:    userID,
		Work:      work,
		Struggle:  struggle,
		Intention: intention,
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *entryService) List(ctx context.Context, userID string) ([]domain.JournalEntry, error) {
	return s.entries.ListByUser(ctx, userID)
}

func (s *entryService) Get(ctx context.Context, id, userID string) (*domain.JournalEntry, error) {
	entry, err := s.entries.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (s *entryService) Update(ctx context.Context, id, userID string, update EntryUpdate) (*domain.JournalEntry, error) {
	entry, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if update.Work != nil {
		entry.Work = *update.Work
	}
	if update.Struggle != nil {
		entry.Struggle = *update.Struggle
	}
	if update.Intention != nil {
		entry.Intention = *update.Intention
	}

	if err := s.entries.Update(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (s *entryService) Delete(ctx context.Context, id, userID string) error {
	if err := s.entries.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEntryNotFound
		}
		return err
	}
	return nil
}

func (s *entryService) DeleteAll(ctx context.Context, userID string) error {
	return s.entries.DeleteAllByUser(ctx, userID)
}
