package store

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"

	"signet/internal/document/models"
	id "signet/pkg/domain"
	"signet/pkg/platform/sentinel"
)

// InMemory keeps document metadata in process memory.
type InMemory struct {
	mu        sync.RWMutex
	documents map[id.DocumentID]*models.Document
}

func NewInMemory() *InMemory {
	return &InMemory{documents: make(map[id.DocumentID]*models.Document)}
}

func (s *InMemory) Create(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[doc.ID]; exists {
		return sentinel.ErrConflict
	}
	clone := *doc
	s.documents[doc.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(_ context.Context, documentID id.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *doc
	return &clone, nil
}

func (s *InMemory) Update(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[doc.ID]; !exists {
		return sentinel.ErrNotFound
	}
	clone := *doc
	s.documents[doc.ID] = &clone
	return nil
}

func (s *InMemory) ListByOwner(_ context.Context, ownerID id.UserID, page, pageSize int) ([]*models.Document, int, error) {
	s.mu.RLock()
	matched := make([]*models.Document, 0)
	for _, doc := range s.documents {
		if doc.OwnerID != ownerID || doc.IsDeleted() {
			continue
		}
		clone := *doc
		matched = append(matched, &clone)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].UploadedAt.Equal(matched[j].UploadedAt) {
			return matched[i].ID.String() > matched[j].ID.String()
		}
		return matched[i].UploadedAt.After(matched[j].UploadedAt)
	})

	total := len(matched)
	start := (page - 1) * pageSize
	if start >= total {
		return []*models.Document{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// MemoryBlobStore keeps file bytes in process memory, for tests and local
// runs without object storage.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string][]byte)}
}

func (s *MemoryBlobStore) Put(_ context.Context, key string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = data
	return int64(len(data)), nil
}

func (s *MemoryBlobStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Len reports how many blobs are held. Test-only observability.
func (s *MemoryBlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

func (s *MemoryBlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.blobs, key)
	return nil
}
