package domain

import "context"

// Document is one entry of a document collection.
type Document struct {
	ID     string
	Fields map[string]interface{}
}

// DocumentStore is the remote document database the edit workflow reads
// from and writes to.
type DocumentStore interface {
	// GetDocument returns ErrNotFound when the document does not exist.
	GetDocument(ctx context.Context, collection, id string) (*Document, error)
	ListCollection(ctx context.Context, collection string) ([]Document, error)
	// UpdateDocument merges fields into an existing document. It returns
	// ErrNotFound when the document does not exist.
	UpdateDocument(ctx context.Context, collection, id string, fields map[string]interface{}) error
}
