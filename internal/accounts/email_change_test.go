package accounts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vaxtrack/account-service/internal/docstore"
	"github.com/vaxtrack/account-service/internal/tokens"
	apperrors "github.com/vaxtrack/account-service/pkg/util"
)

func newTestChanger(ids *fakeProvider, store docstore.Store, mailer *fakeMailer, ttl time.Duration) *EmailChanger {
	codec := tokens.NewCodec("email-change-secret", ttl)
	return NewEmailChanger(codec, ids, store, mailer, nil, zap.NewNop(),
		"noreply@example.com", "http://localhost:8080/account/email-change/confirm")
}

func TestEmailChangeRoundTrip(t *testing.T) {
	ctx := context.Background()
	ids := newFakeProvider()
	store := docstore.NewMemoryStore()
	mailer := &fakeMailer{}
	changer := newTestChanger(ids, store, mailer, time.Hour)

	id := ids.seed("old@x.com")
	if err := store.Set(ctx, CollectionAccounts, id, map[string]any{"email": "old@x.com"}, false); err != nil {
		t.Fatalf("seed account doc: %v", err)
	}

	token, err := changer.Request(ctx, id, "old@x.com", "New@X.com")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].To != "new@x.com" {
		t.Fatalf("confirmation must go to the new address: %+v", mailer.sent)
	}
	if !strings.Contains(mailer.sent[0].Text, token) {
		t.Fatal("confirmation mail must carry the token")
	}

	if err := changer.Confirm(ctx, token); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	ident, _ := ids.Get(ctx, id)
	if ident.Email != "new@x.com" {
		t.Fatalf("provider email not updated: %s", ident.Email)
	}
	doc, _ := store.Get(ctx, CollectionAccounts, id)
	if doc.Fields["email"] != "new@x.com" {
		t.Fatalf("account document email not updated: %v", doc.Fields)
	}
}

func TestEmailChangeRejectsExpiredToken(t *testing.T) {
	ctx := context.Background()
	ids := newFakeProvider()
	changer := newTestChanger(ids, docstore.NewMemoryStore(), &fakeMailer{}, -time.Minute)

	id := ids.seed("old@x.com")
	token, err := changer.Request(ctx, id, "old@x.com", "new@x.com")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	err = changer.Confirm(ctx, token)
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "EXPIRED" {
		t.Fatalf("expected EXPIRED, got %v", err)
	}
}

func TestEmailChangeRejectsTakenAddress(t *testing.T) {
	ctx := context.Background()
	ids := newFakeProvider()
	changer := newTestChanger(ids, docstore.NewMemoryStore(), &fakeMailer{}, time.Hour)

	id := ids.seed("old@x.com")
	ids.seed("taken@x.com")

	_, err := changer.Request(ctx, id, "old@x.com", "taken@x.com")
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "CONFLICT" {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestEmailChangeSurfacesMailFailure(t *testing.T) {
	ctx := context.Background()
	ids := newFakeProvider()
	mailer := &fakeMailer{err: errors.New("relay down")}
	changer := newTestChanger(ids, docstore.NewMemoryStore(), mailer, time.Hour)

	id := ids.seed("old@x.com")
	_, err := changer.Request(ctx, id, "old@x.com", "new@x.com")
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "TRANSPORT_FAILED" {
		t.Fatalf("expected TRANSPORT_FAILED, got %v", err)
	}
}

func TestEmailChangeRejectsNoop(t *testing.T) {
	ids := newFakeProvider()
	changer := newTestChanger(ids, docstore.NewMemoryStore(), &fakeMailer{}, time.Hour)

	id := ids.seed("old@x.com")
	if _, err := changer.Request(context.Background(), id, "old@x.com", "Old@X.com"); err == nil {
		t.Fatal("changing to the current address must be rejected")
	}
}
