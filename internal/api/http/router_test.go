package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vaxtrack/account-service/internal/accounts"
	"github.com/vaxtrack/account-service/internal/api/http/handlers"
	"github.com/vaxtrack/account-service/internal/auth"
	"github.com/vaxtrack/account-service/internal/docstore"
	"github.com/vaxtrack/account-service/internal/identity"
	"github.com/vaxtrack/account-service/internal/notify"
	"github.com/vaxtrack/account-service/internal/observability"
	"github.com/vaxtrack/account-service/internal/passcode"
	"github.com/vaxtrack/account-service/internal/persistence"
	"github.com/vaxtrack/account-service/internal/tokens"

	"github.com/gofiber/fiber/v2"
)

// fakeProvider is an in-memory identity.Provider whose bearer tokens
// take the shape "token-for-<id>".
type fakeProvider struct {
	nextID int
	byID   map[string]*identity.Identity
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{byID: make(map[string]*identity.Identity)}
}

func (p *fakeProvider) Create(_ context.Context, email, _ string, disabled bool) (string, error) {
	email = identity.NormalizeEmail(email)
	for _, ident := range p.byID {
		if ident.Email == email {
			return "", identity.ErrEmailTaken
		}
	}
	p.nextID++
	id := fmt.Sprintf("id-%d", p.nextID)
	p.byID[id] = &identity.Identity{ID: id, Email: email, Disabled: disabled}
	return id, nil
}

func (p *fakeProvider) Get(_ context.Context, id string) (*identity.Identity, error) {
	ident, ok := p.byID[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	copied := *ident
	return &copied, nil
}

func (p *fakeProvider) GetByEmail(_ context.Context, email string) (*identity.Identity, error) {
	email = identity.NormalizeEmail(email)
	for _, ident := range p.byID {
		if ident.Email == email {
			copied := *ident
			return &copied, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (p *fakeProvider) Update(_ context.Context, id string, update identity.Update) error {
	ident, ok := p.byID[id]
	if !ok {
		return identity.ErrNotFound
	}
	if update.Email != nil {
		ident.Email = identity.NormalizeEmail(*update.Email)
	}
	if update.Disabled != nil {
		ident.Disabled = *update.Disabled
	}
	return nil
}

func (p *fakeProvider) Delete(_ context.Context, id string) error {
	if _, ok := p.byID[id]; !ok {
		return identity.ErrNotFound
	}
	delete(p.byID, id)
	return nil
}

func (p *fakeProvider) VerifyToken(_ context.Context, bearer string) (*identity.TokenInfo, error) {
	for _, ident := range p.byID {
		if bearer == "token-for-"+ident.ID {
			return &identity.TokenInfo{ID: ident.ID, Email: ident.Email}, nil
		}
	}
	return nil, errors.New("invalid token")
}

type memPasscodeStore struct {
	records map[string]passcode.Record
}

func (s *memPasscodeStore) Put(_ context.Context, key string, record passcode.Record) error {
	s.records[key] = record
	return nil
}

func (s *memPasscodeStore) Get(_ context.Context, key string) (*passcode.Record, error) {
	record, ok := s.records[key]
	if !ok {
		return nil, passcode.ErrNoRecord
	}
	return &record, nil
}

func (s *memPasscodeStore) Delete(_ context.Context, key string) error {
	delete(s.records, key)
	return nil
}

type dropMailer struct{}

func (dropMailer) Send(context.Context, notify.Message) error { return nil }

type testEnv struct {
	app   *fiber.App
	ids   *fakeProvider
	store docstore.Store
	codes *memPasscodeStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	ids := newFakeProvider()
	store := docstore.NewMemoryStore()
	codes := &memPasscodeStore{records: make(map[string]passcode.Record)}

	passcodes := passcode.NewService(codes, ids, nil, logger, 5*time.Minute)
	reconciler := accounts.NewReconciler(ids, store, logger)
	coordinator := accounts.NewCoordinator(reconciler, ids, store, nil, logger)
	codec := tokens.NewCodec("test-secret", time.Hour)
	emailChange := accounts.NewEmailChanger(codec, ids, store, dropMailer{}, nil, logger,
		"noreply@example.com", "http://localhost/confirm")

	app := fiber.New()
	RegisterMiddlewares(app, logger, observability.NewMetrics(), 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("test", "dev", &persistence.Postgres{}, &persistence.Redis{}),
		Auth:           handlers.NewAuthHandler(passcodes, nil),
		Account:        handlers.NewAccountHandler(emailChange),
		Admin:          handlers.NewAdminHandler(coordinator),
		AuthMiddleware: auth.NewAuthMiddleware(ids, store),
	})

	return &testEnv{app: app, ids: ids, store: store, codes: codes}
}

// seedAccount registers an identity plus its account document and
// returns the bearer token the fake provider accepts for it.
func (e *testEnv) seedAccount(t *testing.T, email string, role accounts.Role) string {
	t.Helper()
	id, err := e.ids.Create(context.Background(), email, "seeded", false)
	if err != nil {
		t.Fatalf("seed identity: %v", err)
	}
	err = e.store.Set(context.Background(), accounts.CollectionAccounts, id, map[string]any{
		"identityId": id,
		"email":      identity.NormalizeEmail(email),
		"role":       string(role),
		"isActive":   true,
	}, false)
	if err != nil {
		t.Fatalf("seed account doc: %v", err)
	}
	return "token-for-" + id
}

func (e *testEnv) request(t *testing.T, method, path, bearer string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	decoded := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &decoded)
	return resp, decoded
}

func errorCode(body map[string]any) string {
	errObj, _ := body["error"].(map[string]any)
	code, _ := errObj["code"].(string)
	return code
}

func TestAdminRoutesRequireExactRole(t *testing.T) {
	env := newTestEnv(t)
	employeeToken := env.seedAccount(t, "employee@x.com", accounts.RoleEmployee)

	resp, body := env.request(t, http.MethodPost, "/admin/accounts", "", map[string]any{"email": "new@x.com"})
	if resp.StatusCode != http.StatusUnauthorized || errorCode(body) != "UNAUTHORIZED" {
		t.Fatalf("expected 401 UNAUTHORIZED, got %d %v", resp.StatusCode, body)
	}

	resp, body = env.request(t, http.MethodPost, "/admin/accounts", employeeToken, map[string]any{"email": "new@x.com"})
	if resp.StatusCode != http.StatusForbidden || errorCode(body) != "FORBIDDEN" {
		t.Fatalf("expected 403 FORBIDDEN, got %d %v", resp.StatusCode, body)
	}
}

func TestAdminAccountLifecycle(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.seedAccount(t, "admin@x.com", accounts.RoleAdmin)

	resp, body := env.request(t, http.MethodPost, "/admin/accounts", adminToken, map[string]any{
		"email":     "Nurse@Clinic.org",
		"full_name": "Dela Cruz, Juan Miguel",
		"role":      "employee",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d %v", resp.StatusCode, body)
	}
	data, _ := body["data"].(map[string]any)
	identityID, _ := data["identity_id"].(string)
	if identityID == "" {
		t.Fatalf("missing identity id in %v", body)
	}
	if data["display_name"] != "Dela Cruz, Juan Miguel" {
		t.Fatalf("unexpected display name: %v", data)
	}

	err := env.store.Set(context.Background(), accounts.CollectionInventory, "lot-1", map[string]any{
		"isArchived": false,
		"createdBy":  map[string]any{"email": "nurse@clinic.org"},
	}, false)
	if err != nil {
		t.Fatalf("seed inventory: %v", err)
	}

	resp, body = env.request(t, http.MethodPatch, "/admin/accounts/"+identityID+"/archive", adminToken,
		map[string]any{"archived": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("archive: expected 200, got %d %v", resp.StatusCode, body)
	}
	record, err := env.store.Get(context.Background(), accounts.CollectionInventory, "lot-1")
	if err != nil {
		t.Fatalf("read inventory: %v", err)
	}
	if record.Fields["isArchived"] != true || record.Fields["archivedBy"] != "admin@x.com" {
		t.Fatalf("cascade missing: %v", record.Fields)
	}

	resp, body = env.request(t, http.MethodDelete, "/admin/accounts/"+identityID, adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d %v", resp.StatusCode, body)
	}
	if _, err := env.store.Get(context.Background(), accounts.CollectionAccounts, identityID); err != docstore.ErrNotFound {
		t.Fatalf("account doc should be gone, got %v", err)
	}
}

func TestPasscodeEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.request(t, http.MethodPost, "/auth/passcode/issue", "", map[string]any{"email": "a@x.com"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("issue: expected 202, got %d %v", resp.StatusCode, body)
	}
	code := env.codes.records["a@x.com"].Code

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	resp, body = env.request(t, http.MethodPost, "/auth/passcode/verify", "", map[string]any{
		"email": "a@x.com", "code": wrong,
	})
	if resp.StatusCode != http.StatusBadRequest || errorCode(body) != "VALIDATION_FAILED" {
		t.Fatalf("mismatch: expected 400 VALIDATION_FAILED, got %d %v", resp.StatusCode, body)
	}

	resp, body = env.request(t, http.MethodPost, "/auth/passcode/verify", "", map[string]any{
		"email": "a@x.com", "code": code,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d %v", resp.StatusCode, body)
	}

	resp, body = env.request(t, http.MethodPost, "/auth/passcode/verify", "", map[string]any{
		"email": "a@x.com", "code": code,
	})
	if resp.StatusCode != http.StatusNotFound || errorCode(body) != "NOT_FOUND" {
		t.Fatalf("replay: expected 404 NOT_FOUND, got %d %v", resp.StatusCode, body)
	}
}

func TestEmailChangeConfirmRejectsGarbageToken(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.request(t, http.MethodGet, "/account/email-change/confirm?token=garbage", "", nil)
	if resp.StatusCode != http.StatusGone || errorCode(body) != "EXPIRED" {
		t.Fatalf("expected 410 EXPIRED, got %d %v", resp.StatusCode, body)
	}
}

func TestHealthLive(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.request(t, http.MethodGet, "/health/live", "", nil)
	if resp.StatusCode != http.StatusOK || body["status"] != "alive" {
		t.Fatalf("expected alive, got %d %v", resp.StatusCode, body)
	}
}
