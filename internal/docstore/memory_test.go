package docstore

import (
	"context"
	"testing"
)

func TestMemoryStoreMergeSemantics(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Set(ctx, "accounts", "k1", map[string]any{"email": "a@x.com", "role": "employee"}, false); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(ctx, "accounts", "k1", map[string]any{"isActive": false}, true); err != nil {
		t.Fatalf("Set merge: %v", err)
	}

	doc, err := store.Get(ctx, "accounts", "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.Fields["email"] != "a@x.com" || doc.Fields["isActive"] != false {
		t.Fatalf("merge lost fields: %v", doc.Fields)
	}

	if err := store.Set(ctx, "accounts", "k1", map[string]any{"email": "b@x.com"}, false); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	doc, _ = store.Get(ctx, "accounts", "k1")
	if _, ok := doc.Fields["role"]; ok {
		t.Fatalf("overwrite should drop unrelated fields: %v", doc.Fields)
	}
}

func TestMemoryStoreQueryDottedPath(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_ = store.Set(ctx, "inventory", "v1", map[string]any{
		"lot":       "A100",
		"createdBy": map[string]any{"email": "a@x.com"},
	}, false)
	_ = store.Set(ctx, "inventory", "v2", map[string]any{
		"lot":       "B200",
		"createdBy": map[string]any{"email": "b@x.com"},
	}, false)

	docs, err := store.Query(ctx, "inventory", "createdBy.email", "==", "a@x.com")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(docs) != 1 || docs[0].Key != "v1" {
		t.Fatalf("expected only v1, got %v", docs)
	}

	if _, err := store.Query(ctx, "inventory", "lot", ">", "A"); err == nil {
		t.Fatal("non-equality operator should be rejected")
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Get(context.Background(), "accounts", "absent"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
