package docstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// memoryStore is a map-backed Store used when no Postgres DSN is
// configured and as a fixture in tests.
type memoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]map[string]any
}

// NewMemoryStore returns an in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{data: make(map[string]map[string]map[string]any)}
}

func (s *memoryStore) Get(_ context.Context, collection, key string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.data[collection][key]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{Key: key, Fields: cloneFields(doc)}, nil
}

func (s *memoryStore) Set(_ context.Context, collection, key string, fields map[string]any, merge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data[collection] == nil {
		s.data[collection] = make(map[string]map[string]any)
	}

	if merge {
		if existing, ok := s.data[collection][key]; ok {
			merged := cloneFields(existing)
			for k, v := range fields {
				merged[k] = v
			}
			s.data[collection][key] = merged
			return nil
		}
	}
	s.data[collection][key] = cloneFields(fields)
	return nil
}

func (s *memoryStore) Delete(_ context.Context, collection, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[collection], key)
	return nil
}

func (s *memoryStore) Query(_ context.Context, collection, field, op string, value any) ([]Document, error) {
	if op != "==" {
		return nil, fmt.Errorf("unsupported query operator %q", op)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []Document
	for key, fields := range s.data[collection] {
		if got, ok := fieldAtPath(fields, field); ok && fmt.Sprint(got) == fmt.Sprint(value) {
			docs = append(docs, Document{Key: key, Fields: cloneFields(fields)})
		}
	}
	return docs, nil
}

func (s *memoryStore) BatchUpdate(_ context.Context, collection string, updates []DocumentUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, update := range updates {
		existing, ok := s.data[collection][update.Key]
		if !ok {
			continue
		}
		merged := cloneFields(existing)
		for k, v := range update.Fields {
			merged[k] = v
		}
		s.data[collection][update.Key] = merged
	}
	return nil
}

func fieldAtPath(fields map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var current any = fields
	for _, part := range parts {
		asMap, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = asMap[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
