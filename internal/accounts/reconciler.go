package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vaxtrack/account-service/internal/docstore"
	"github.com/vaxtrack/account-service/internal/identity"
)

// birthdayLayouts are the accepted date formats for credential derivation.
var birthdayLayouts = []string{"2006-01-02", "01/02/2006", time.RFC3339}

// Reconciler guarantees exactly one identity-provider record per email
// and mirrors it into the document store.
type Reconciler struct {
	ids    identity.Provider
	store  docstore.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewReconciler builds the reconciler.
func NewReconciler(ids identity.Provider, store docstore.Store, logger *zap.Logger) *Reconciler {
	return &Reconciler{ids: ids, store: store, logger: logger, now: time.Now}
}

// Ensure creates the identity for the profile's email, or recovers the
// existing one on conflict. Recovery force-updates the credential and
// re-enables the identity, so it is destructive to prior credentials.
// The identity is re-fetched by id before returning.
func (r *Reconciler) Ensure(ctx context.Context, profile Profile) (*Account, bool, error) {
	email := identity.NormalizeEmail(profile.Email)
	if email == "" {
		return nil, false, errors.New("email required")
	}

	password := derivePassword(profile)

	created := true
	id, err := r.ids.Create(ctx, email, password, false)
	if err != nil {
		if !errors.Is(err, identity.ErrEmailTaken) {
			return nil, false, fmt.Errorf("create identity: %w", err)
		}

		existing, lookupErr := r.ids.GetByEmail(ctx, email)
		if lookupErr != nil {
			return nil, false, fmt.Errorf("recover identity: %w", lookupErr)
		}
		id = existing.ID
		created = false

		enabled := false
		if err := r.ids.Update(ctx, id, identity.Update{Password: &password, Disabled: &enabled}); err != nil {
			return nil, false, fmt.Errorf("recover identity: %w", err)
		}
		r.logger.Info("recovered existing identity",
			zap.String("identity_id", id),
			zap.String("email", email))
	}

	ident, err := r.ids.Get(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("confirm identity: %w", err)
	}

	name := resolveName(profile.FirstName, profile.MiddleName, profile.LastName, profile.FullName)
	account := &Account{
		IdentityID:  ident.ID,
		Email:       email,
		Role:        ResolveRole(profile.Role),
		IsActive:    true,
		FirstName:   name.First,
		MiddleName:  name.Middle,
		LastName:    name.Last,
		DisplayName: name.DisplayName(),
		CreatedAt:   r.now(),
	}

	fields := account.fields()
	for key, value := range profile.Extra {
		if _, reserved := reservedFields[key]; reserved {
			continue
		}
		fields[key] = value
	}

	if err := r.store.Set(ctx, CollectionAccounts, ident.ID, fields, true); err != nil {
		return nil, false, fmt.Errorf("persist account: %w", err)
	}

	return account, created, nil
}

// derivePassword picks the credential for a new or recovered identity.
// With no explicit password, a parseable birthday yields the documented
// weak MMDDYYYY default; otherwise a random fallback is generated.
// Callers requiring strong secrets must supply one explicitly.
func derivePassword(profile Profile) string {
	if profile.Password != "" {
		return profile.Password
	}
	if profile.Birthday != "" {
		for _, layout := range birthdayLayouts {
			if parsed, err := time.Parse(layout, profile.Birthday); err == nil {
				return parsed.Format("01022006")
			}
		}
	}
	return uuid.NewString()
}
