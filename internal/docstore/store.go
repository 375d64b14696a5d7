package docstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a document key has no record.
var ErrNotFound = errors.New("document not found")

// Document is a schemaless record stored under (collection, key).
type Document struct {
	Key    string
	Fields map[string]any
}

// DocumentUpdate pairs a key with the fields to merge into it.
type DocumentUpdate struct {
	Key    string
	Fields map[string]any
}

// Store is the document-store capability the core depends on. Single
// document operations are atomic; BatchUpdate applies every update in
// one transaction or none.
type Store interface {
	Get(ctx context.Context, collection, key string) (*Document, error)
	Set(ctx context.Context, collection, key string, fields map[string]any, merge bool) error
	Delete(ctx context.Context, collection, key string) error
	Query(ctx context.Context, collection, field, op string, value any) ([]Document, error)
	BatchUpdate(ctx context.Context, collection string, updates []DocumentUpdate) error
}
