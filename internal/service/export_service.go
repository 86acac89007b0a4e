package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"journal-api/internal/domain"
	"journal-api/internal/repository"
	"journal-api/internal/storage"
)

// Export describes one uploaded snapshot of a user's journal.
type Export struct {
	Key          string
	Location     string
	Size         int64
	LastModified *time.Time
	URL          string
	EntryCount   int
}

// ExportService snapshots a user's entries to object storage. Snapshot keys
// live under <keyPrefix>/<userID>/, so listing and purging stay scoped to the
// owning user.
type ExportService interface {
	Export(ctx context.Context, userID string) (*Export, error)
	ListExports(ctx context.Context, userID string) ([]Export, error)
	PurgeExports(ctx context.Context, userID string) error
}

type exportService struct {
	entries   repository.EntryRepository
	storage   storage.Service
	bucket    string
	keyPrefix string
	urlTTL    time.Duration
}

func NewExportService(entries repository.EntryRepository, store storage.Service, bucket, keyPrefix string) ExportService {
	return &exportService{
		entries:   entries,
		storage:   store,
		bucket:    bucket,
		keyPrefix: strings.Trim(keyPrefix, "/"),
		urlTTL:    15 * time.Minute,
	}
}

type exportedEntry struct {
	ID        string `json:"id"`
	Work      string `json:"work"`
	Struggle  string `json:"struggle"`
	Intention string `json:"intention"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type exportSnapshot struct {
	UserID     string          `json:"user_id"`
	ExportedAt string          `json:"exported_at"`
	Entries    []exportedEntry `json:"entries"`
}

func (s *exportService) Export(ctx context.Context, userID string) (*Export, error) {
	entries, err := s.entries.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	snapshot := exportSnapshot{
		UserID:     userID,
		ExportedAt: now.Format(time.RFC3339),
		Entries:    make([]exportedEntry, len(entries)),
	}
	for i := range entries {
		snapshot.Entries[i] = toExportedEntry(entries[i])
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal export snapshot: %w", err)
	}

	key := fmt.Sprintf("%s/%s.json", s.userPrefix(userID), now.Format("20060102T150405Z"))
	location, err := s.storage.PutObject(ctx, s.bucket, key, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	url, err := s.storage.GetObjectURL(ctx, s.bucket, key, s.urlTTL)
	if err != nil {
		return nil, err
	}

	return &Export{
		Key:        key,
		Location:   location,
		Size:       int64(len(payload)),
		URL:        url,
		EntryCount: len(entries),
	}, nil
}

func (s *exportService) ListExports(ctx context.Context, userID string) ([]Export, error) {
	objects, err := s.storage.ListObjects(ctx, s.bucket, s.userPrefix(userID)+"/")
	if err != nil {
		return nil, err
	}

	exports := make([]Export, len(objects))
	for i, obj := range objects {
		exports[i] = Export{
			Key:          obj.Key,
			Location:     fmt.Sprintf("s3://%s/%s", s.bucket, obj.Key),
			Size:         obj.Size,
			LastModified: obj.LastModified,
		}
	}
	return exports, nil
}

func (s *exportService) PurgeExports(ctx context.Context, userID string) error {
	return s.storage.DeletePrefix(ctx, s.bucket, s.userPrefix(userID)+"/")
}

func (s *exportService) userPrefix(userID string) string {
	if s.keyPrefix == "" {
		return userID
	}
	return s.keyPrefix + "/" + userID
}

func toExportedEntry(entry domain.JournalEntry) exportedEntry {
	return exportedEntry{
		ID:        entry.ID,
		Work:      entry.Work,
		Struggle:  entry.Struggle,
		Intention: entry.Intention,
		CreatedAt: entry.CreatedAt.Format(time.RFC3339),
		UpdatedAt: entry.UpdatedAt.Format(time.RFC3339),
	}
}
