package identity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Sentinel errors returned by Provider implementations.
var (
	ErrNotFound   = errors.New("identity not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Identity is a provider-side account record.
type Identity struct {
	ID        string
	Email     string
	Disabled  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Update carries partial identity mutations; nil fields are left untouched.
type Update struct {
	Email    *string
	Password *string
	Disabled *bool
}

// TokenInfo is the result of verifying a bearer token.
type TokenInfo struct {
	ID    string
	Email string
}

// Provider is the identity-provider capability the core depends on.
// Implementations own credentials and session tokens; the core never
// sees password hashes.
type Provider interface {
	Create(ctx context.Context, email, password string, disabled bool) (string, error)
	Get(ctx context.Context, id string) (*Identity, error)
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	Update(ctx context.Context, id string, update Update) error
	Delete(ctx context.Context, id string) error
	VerifyToken(ctx context.Context, bearer string) (*TokenInfo, error)
}

// NormalizeEmail lowercases and trims an address; the normalized form is
// the reconciliation key everywhere.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
