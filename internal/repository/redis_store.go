package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const maxUpdateRetries = 5

// RedisDocumentStore stores each document as a JSON string under
// doc:<collection>:<id> and tracks collection membership in a set.
type RedisDocumentStore struct {
	client *redis.Client
	log    *logrus.Logger
}

func NewRedisDocumentStore(client *redis.Client, logger *logrus.Logger) *RedisDocumentStore {
	return &RedisDocumentStore{
		client: client,
		log:    logger,
	}
}

func documentKey(collection, id string) string {
	return "doc:" + collection + ":" + id
}

func collectionKey(collection string) string {
	return "docs:" + collection
}

// Put creates or replaces a document.
func (s *RedisDocumentStore) Put(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	data, err := encodeFields(fields)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, documentKey(collection, id), data, 0)
		pipe.SAdd(ctx, collectionKey(collection), id)
		return nil
	})
	if err != nil {
		s.log.Errorf("Repository: Failed to put document %s/%s: %v", collection, id, err)
		return fmt.Errorf("could not put document: %w", err)
	}
	return nil
}

func (s *RedisDocumentStore) GetDocument(ctx context.Context, collection, id string) (*domain.Document, error) {
	data, err := s.client.Get(ctx, documentKey(collection, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.log.Warnf("Repository: Document %s/%s not found", collection, id)
			return nil, fmt.Errorf("document %s/%s: %w", collection, id, domain.ErrNotFound)
		}
		s.log.Errorf("Repository: Failed to get document %s/%s: %v", collection, id, err)
		return nil, fmt.Errorf("could not get document: %w", err)
	}
	fields, err := decodeFields(data)
	if err != nil {
		return nil, err
	}
	return &domain.Document{ID: id, Fields: fields}, nil
}

func (s *RedisDocumentStore) ListCollection(ctx context.Context, collection string) ([]domain.Document, error) {
	ids, err := s.client.SMembers(ctx, collectionKey(collection)).Result()
	if err != nil {
		s.log.Errorf("Repository: Failed to list collection %s: %v", collection, err)
		return nil, fmt.Errorf("could not list collection: %w", err)
	}
	docs := []domain.Document{}
	if len(ids) == 0 {
		return docs, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = documentKey(collection, id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		s.log.Errorf("Repository: Failed to fetch documents of %s: %v", collection, err)
		return nil, fmt.Errorf("could not fetch collection documents: %w", err)
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// Listed in the set but the document key is gone.
			s.log.Warnf("Repository: Skipping dangling member %s of %s", ids[i], collection)
			continue
		}
		fields, err := decodeFields([]byte(raw))
		if err != nil {
			return nil, err
		}
		docs = append(docs, domain.Document{ID: ids[i], Fields: fields})
	}
	return docs, nil
}

// UpdateDocument merges fields under WATCH so concurrent writers to the same
// document retry instead of overwriting each other.
func (s *RedisDocumentStore) UpdateDocument(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	key := documentKey(collection, id)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return fmt.Errorf("document %s/%s: %w", collection, id, domain.ErrNotFound)
			}
			return err
		}
		stored, err := decodeFields(data)
		if err != nil {
			return err
		}
		merged, err := encodeFields(mergeFields(stored, fields))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, merged, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			s.log.Debugf("Repository: Concurrent write on %s, retrying (%d)", key, i+1)
			continue
		}
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Warnf("Repository: Document %s/%s not found for update", collection, id)
			return err
		}
		s.log.Errorf("Repository: Failed to update document %s/%s: %v", collection, id, err)
		return fmt.Errorf("could not update document: %w", err)
	}
	return fmt.Errorf("could not update document %s/%s: too many concurrent writes", collection, id)
}
