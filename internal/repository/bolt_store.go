package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/domain"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

// BoltDocumentStore maps each collection to a bucket of id -> JSON document.
type BoltDocumentStore struct {
	db  *bolt.DB
	log *logrus.Logger
}

func NewBoltDocumentStore(db *bolt.DB, logger *logrus.Logger) *BoltDocumentStore {
	return &BoltDocumentStore{
		db:  db,
		log: logger,
	}
}

// Put creates or replaces a document.
func (s *BoltDocumentStore) Put(_ context.Context, collection, id string, fields map[string]interface{}) error {
	data, err := encodeFields(fields)
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(id), data)
	})
	if err != nil {
		s.log.Errorf("Repository: Failed to put document %s/%s: %v", collection, id, err)
		return fmt.Errorf("could not put document: %w", err)
	}
	return nil
}

func (s *BoltDocumentStore) GetDocument(ctx context.Context, collection, id string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(collection))
		if bucket == nil {
			return nil
		}
		if v := bucket.Get([]byte(id)); v != nil {
			// v is only valid inside the transaction.
			data = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		s.log.Errorf("Repository: Failed to get document %s/%s: %v", collection, id, err)
		return nil, fmt.Errorf("could not get document: %w", err)
	}
	if data == nil {
		s.log.Warnf("Repository: Document %s/%s not found", collection, id)
		return nil, fmt.Errorf("document %s/%s: %w", collection, id, domain.ErrNotFound)
	}
	fields, err := decodeFields(data)
	if err != nil {
		return nil, err
	}
	return &domain.Document{ID: id, Fields: fields}, nil
}

func (s *BoltDocumentStore) ListCollection(ctx context.Context, collection string) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docs := []domain.Document{}
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(collection))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			fields, err := decodeFields(v)
			if err != nil {
				return err
			}
			docs = append(docs, domain.Document{ID: string(k), Fields: fields})
			return nil
		})
	})
	if err != nil {
		s.log.Errorf("Repository: Failed to list collection %s: %v", collection, err)
		return nil, fmt.Errorf("could not list collection: %w", err)
	}
	return docs, nil
}

func (s *BoltDocumentStore) UpdateDocument(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(collection))
		if bucket == nil {
			return fmt.Errorf("document %s/%s: %w", collection, id, domain.ErrNotFound)
		}
		data := bucket.Get([]byte(id))
		if data == nil {
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
		return bucket.Put([]byte(id), merged)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Warnf("Repository: Document %s/%s not found for update", collection, id)
			return err
		}
		s.log.Errorf("Repository: Failed to update document %s/%s: %v", collection, id, err)
		return fmt.Errorf("could not update document: %w", err)
	}
	return nil
}
