package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/domain"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT  NOT NULL,
    id         TEXT  NOT NULL,
    data       JSONB NOT NULL DEFAULT '{}'::jsonb,
    PRIMARY KEY (collection, id)
)`

// PostgresDocumentStore keeps every collection in one JSONB table keyed by
// (collection, id).
type PostgresDocumentStore struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresDocumentStore(db *sql.DB, logger *logrus.Logger) *PostgresDocumentStore {
	return &PostgresDocumentStore{
		db:  db,
		log: logger,
	}
}

func (s *PostgresDocumentStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, documentsSchema); err != nil {
		s.log.Errorf("Repository: Failed to create documents table: %v", err)
		return fmt.Errorf("could not create documents table: %w", err)
	}
	return nil
}

// Put creates or replaces a document.
func (s *PostgresDocumentStore) Put(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	data, err := encodeFields(fields)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO documents (collection, id, data)
        VALUES ($1, $2, $3::jsonb)
        ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data`
	if _, err := s.db.ExecContext(ctx, query, collection, id, string(data)); err != nil {
		s.log.Errorf("Repository: Failed to put document %s/%s: %v", collection, id, err)
		return fmt.Errorf("could not put document: %w", err)
	}
	return nil
}

func (s *PostgresDocumentStore) GetDocument(ctx context.Context, collection, id string) (*domain.Document, error) {
	query := `SELECT data FROM documents WHERE collection = $1 AND id = $2`
	var data []byte
	err := s.db.QueryRowContext(ctx, query, collection, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.log.Warnf("Repository: Document %s/%s not found", collection, id)
			return nil, fmt.Errorf("document %s/%s: %w", collection, id, domain.ErrNotFound)
		}
		s.log.Errorf("Repository: Failed to get document %s/%s: %v", collection, id, err)
		return nil, fmt.Errorf("could not get document: %w", describePQError(err))
	}

	fields, err := decodeFields(data)
	if err != nil {
		return nil, err
	}
	return &domain.Document{ID: id, Fields: fields}, nil
}

func (s *PostgresDocumentStore) ListCollection(ctx context.Context, collection string) ([]domain.Document, error) {
	query := `SELECT id, data FROM documents WHERE collection = $1 ORDER BY id ASC`
	rows, err := s.db.QueryContext(ctx, query, collection)
	if err != nil {
		s.log.Errorf("Repository: Failed to list collection %s: %v", collection, err)
		return nil, fmt.Errorf("could not list collection: %w", describePQError(err))
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		var (
			id   string
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			s.log.Errorf("Repository: Failed to scan document row in %s: %v", collection, err)
			return nil, fmt.Errorf("error scanning document: %w", err)
		}
		fields, err := decodeFields(data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, domain.Document{ID: id, Fields: fields})
	}
	if err = rows.Err(); err != nil {
		s.log.Errorf("Repository: Error during %s iteration: %v", collection, err)
		return nil, fmt.Errorf("error iterating collection: %w", err)
	}

	s.log.Debugf("Repository: Retrieved %d documents from %s", len(docs), collection)
	return docs, nil
}

// UpdateDocument merges fields with the jsonb concatenation operator, so the
// merge happens in a single statement.
func (s *PostgresDocumentStore) UpdateDocument(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	data, err := encodeFields(fields)
	if err != nil {
		return err
	}
	query := `UPDATE documents SET data = data || $3::jsonb WHERE collection = $1 AND id = $2`
	result, err := s.db.ExecContext(ctx, query, collection, id, string(data))
	if err != nil {
		s.log.Errorf("Repository: Failed to update document %s/%s: %v", collection, id, err)
		return fmt.Errorf("could not update document: %w", describePQError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.log.Errorf("Repository: Failed to get rows affected after updating %s/%s: %v", collection, id, err)
		return fmt.Errorf("could not confirm document update: %w", err)
	}
	if rowsAffected == 0 {
		s.log.Warnf("Repository: Document %s/%s not found for update", collection, id)
		return fmt.Errorf("document %s/%s: %w", collection, id, domain.ErrNotFound)
	}
	return nil
}

func describePQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%s (code %s): %w", pqErr.Message, pqErr.Code, err)
	}
	return err
}
