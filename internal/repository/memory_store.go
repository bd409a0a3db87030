package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/domain"

	"github.com/sirupsen/logrus"
)

// MemoryDocumentStore keeps documents in process memory. Documents are
// stored JSON-encoded so callers never share maps with the store.
type MemoryDocumentStore struct {
	mu          sync.RWMutex
	collections map[string]map[string][]byte
	log         *logrus.Logger
}

func NewMemoryDocumentStore(logger *logrus.Logger) *MemoryDocumentStore {
	return &MemoryDocumentStore{
		collections: make(map[string]map[string][]byte),
		log:         logger,
	}
}

// Put creates or replaces a document.
func (s *MemoryDocumentStore) Put(_ context.Context, collection, id string, fields map[string]interface{}) error {
	data, err := encodeFields(fields)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string][]byte)
		s.collections[collection] = docs
	}
	docs[id] = data
	return nil
}

func (s *MemoryDocumentStore) GetDocument(ctx context.Context, collection, id string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, ok := s.collections[collection][id]
	s.mu.RUnlock()
	if !ok {
		s.log.Warnf("Repository: Document %s/%s not found", collection, id)
		return nil, fmt.Errorf("document %s/%s: %w", collection, id, domain.ErrNotFound)
	}
	fields, err := decodeFields(data)
	if err != nil {
		return nil, err
	}
	return &domain.Document{ID: id, Fields: fields}, nil
}

func (s *MemoryDocumentStore) ListCollection(ctx context.Context, collection string) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.collections[collection]))
	for id := range s.collections[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		fields, err := decodeFields(s.collections[collection][id])
		if err != nil {
			return nil, err
		}
		docs = append(docs, domain.Document{ID: id, Fields: fields})
	}
	return docs, nil
}

func (s *MemoryDocumentStore) UpdateDocument(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.collections[collection][id]
	if !ok {
		s.log.Warnf("Repository: Document %s/%s not found for update", collection, id)
		return fmt.Errorf("document %s/%s: %w", collection, id, domain.ErrNotFound)
	}
	stored, err := decodeFields(data)
	if err != nil {
		return err
	}
	merged, err := encodeFields(mergeFields(stored, fields))
	if err != nil {
		return err
	}
	s.collections[collection][id] = merged
	return nil
}
