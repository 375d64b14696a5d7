package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store backed by a jsonb documents table.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func (s *postgresStore) Get(ctx context.Context, collection, key string) (*Document, error) {
	const query = `
        SELECT data FROM documents WHERE collection=$1 AND key=$2`

	var raw []byte
	if err := s.pool.QueryRow(ctx, query, collection, key).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return &Document{Key: key, Fields: fields}, nil
}

func (s *postgresStore) Set(ctx context.Context, collection, key string, fields map[string]any, merge bool) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO documents (collection, key, data)
        VALUES ($1, $2, $3)
        ON CONFLICT (collection, key) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`
	if merge {
		query = `
        INSERT INTO documents (collection, key, data)
        VALUES ($1, $2, $3)
        ON CONFLICT (collection, key) DO UPDATE SET data = documents.data || EXCLUDED.data, updated_at = NOW()`
	}

	_, err = s.pool.Exec(ctx, query, collection, key, string(raw))
	return err
}

// Delete is idempotent; deleting an absent document is not an error.
func (s *postgresStore) Delete(ctx context.Context, collection, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE collection=$1 AND key=$2`, collection, key)
	return err
}

func (s *postgresStore) Query(ctx context.Context, collection, field, op string, value any) ([]Document, error) {
	if op != "==" {
		return nil, fmt.Errorf("unsupported query operator %q", op)
	}

	// Dotted field names address nested objects, e.g. "createdBy.email".
	path := strings.Split(field, ".")

	const query = `
        SELECT key, data FROM documents
        WHERE collection=$1 AND data #>> $2 = $3`

	rows, err := s.pool.Query(ctx, query, collection, path, fmt.Sprint(value))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			key string
			raw []byte
		)
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		fields := map[string]any{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		docs = append(docs, Document{Key: key, Fields: fields})
	}
	return docs, rows.Err()
}

// BatchUpdate merges each update into its document inside one
// transaction, so partial batches never land.
func (s *postgresStore) BatchUpdate(ctx context.Context, collection string, updates []DocumentUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        UPDATE documents SET data = data || $3, updated_at = NOW()
        WHERE collection=$1 AND key=$2`

	for _, update := range updates {
		raw, err := json.Marshal(update.Fields)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, query, collection, update.Key, string(raw)); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
