package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journal-api/internal/domain"
	"journal-api/internal/repository"
	"journal-api/internal/storage"
)

type fakeEntryRepo struct {
	mu      sync.Mutex
	entries []domain.JournalEntry
}

func (r *fakeEntryRepo) Init(ctx context.Context) error { return nil }

func (r *fakeEntryRepo) Create(ctx context.Context, entry *domain.JournalEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeEntryRepo) ListByUser(ctx context.Context, userID string) ([]domain.JournalEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.JournalEntry
	for _, entry := range r.entries {
		if entry.UserID == userID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *fakeEntryRepo) GetByID(ctx context.Context, id, userID string) (*domain.JournalEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].ID == id && r.entries[i].UserID == userID {
			clone := r.entries[i]
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeEntryRepo) Update(ctx context.Context, entry *domain.JournalEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].ID == entry.ID && r.entries[i].UserID == entry.UserID {
			r.entries[i] = *entry
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeEntryRepo) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].ID == id && r.entries[i].UserID == userID {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeEntryRepo) DeleteAllByUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.entries[:0]
	for _, entry := range r.entries {
		if entry.UserID != userID {
			kept = append(kept, entry)
		}
	}
	r.entries = kept
	return nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) PutObject(ctx context.Context, bucket, key string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return "s3://" + bucket + "/" + key, nil
}

func (s *fakeStorage) ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.ObjectInfo
	for key, data := range s.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	return out, nil
}

func (s *fakeStorage) DeletePrefix(ctx context.Context, bucket, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			delete(s.objects, key)
		}
	}
	return nil
}

func (s *fakeStorage) GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	return "https://example.com/" + key, nil
}

func TestExport_SnapshotsUserEntries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := &fakeEntryRepo{}
	entrySvc := NewEntryService(repo)

	_, err := entrySvc.Create(ctx, "user-a", "w1", "s1", "i1")
	require.NoError(t, err)
	_, err = entrySvc.Create(ctx, "user-a", "w2", "s2", "i2")
	require.NoError(t, err)
	_, err = entrySvc.Create(ctx, "user-b", "other", "other", "other")
	require.NoError(t, err)

	store := newFakeStorage()
	svc := NewExportService(repo, store, "journal-bucket", "journal-exports")

	export, err := svc.Export(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, 2, export.EntryCount)
	assert.True(t, strings.HasPrefix(export.Key, "journal-exports/user-a/"), "key %q not scoped to user", export.Key)
	assert.Equal(t, "s3://journal-bucket/"+export.Key, export.Location)
	assert.NotEmpty(t, export.URL)

	var snapshot struct {
		UserID  string `json:"user_id"`
		Entries []struct {
			Work string `json:"work"`
		} `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(bytes.NewReader(store.objects[export.Key])).Decode(&snapshot))
	assert.Equal(t, "user-a", snapshot.UserID)
	assert.Len(t, snapshot.Entries, 2)
}

func TestListAndPurgeExports_ScopedToUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := &fakeEntryRepo{}
	require.NoError(t, repo.Create(ctx, &domain.JournalEntry{ID: "e1", UserID: "user-a", Work: "w"}))

	store := newFakeStorage()
	svc := NewExportService(repo, store, "journal-bucket", "journal-exports")

	_, err := svc.Export(ctx, "user-a")
	require.NoError(t, err)
	_, err = svc.Export(ctx, "user-b")
	require.NoError(t, err)

	exportsA, err := svc.ListExports(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, exportsA, 1)

	require.NoError(t, svc.PurgeExports(ctx, "user-a"))

	exportsA, err = svc.ListExports(ctx, "user-a")
	require.NoError(t, err)
	assert.Empty(t, exportsA)

	exportsB, err := svc.ListExports(ctx, "user-b")
	require.NoError(t, err)
	assert.Len(t, exportsB, 1, "purging user-a must not touch user-b exports")
}
