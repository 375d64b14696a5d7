package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vaxtrack/account-service/internal/accounts"
	"github.com/vaxtrack/account-service/internal/docstore"
	"github.com/vaxtrack/account-service/internal/identity"
	apperrors "github.com/vaxtrack/account-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	IdentityID string
	Email      string
	Role       accounts.Role
}

// AuthMiddleware validates bearer tokens through the identity provider
// and resolves the caller's role from the account document.
type AuthMiddleware struct {
	ids   identity.Provider
	store docstore.Store
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(ids identity.Provider, store docstore.Store) *AuthMiddleware {
	return &AuthMiddleware{ids: ids, store: store}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	info, err := m.ids.VerifyToken(c.Context(), parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	principal := &Principal{
		IdentityID: info.ID,
		Email:      info.Email,
		Role:       accounts.RoleUser,
	}
	if doc, err := m.store.Get(c.Context(), accounts.CollectionAccounts, info.ID); err == nil {
		if role, ok := doc.Fields["role"].(string); ok {
			principal.Role = accounts.Role(role)
		}
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
