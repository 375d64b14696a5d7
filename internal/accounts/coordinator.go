package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vaxtrack/account-service/internal/docstore"
	"github.com/vaxtrack/account-service/internal/events"
	"github.com/vaxtrack/account-service/internal/identity"
	apperrors "github.com/vaxtrack/account-service/pkg/util"
)

// Coordinator orchestrates account create/delete/archive and cascades
// archive state to dependent inventory records.
type Coordinator struct {
	reconciler *Reconciler
	ids        identity.Provider
	store      docstore.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewCoordinator builds the coordinator.
func NewCoordinator(reconciler *Reconciler, ids identity.Provider, store docstore.Store, dispatcher events.Dispatcher, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		reconciler: reconciler,
		ids:        ids,
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Create provisions an account and emits a best-effort notification.
func (c *Coordinator) Create(ctx context.Context, profile Profile) (*Account, error) {
	account, created, err := c.reconciler.Ensure(ctx, profile)
	if err != nil {
		return nil, err
	}

	c.publish(ctx, events.Event{
		Type:      events.EventAccountCreated,
		AccountID: account.IdentityID,
		Email:     account.Email,
		Payload: events.AccountCreatedPayload{
			Role:        string(account.Role),
			DisplayName: account.DisplayName,
			Recovered:   !created,
		},
	})
	return account, nil
}

// Delete removes the identity-provider record and the account document.
// Identity deletion falls back to a lookup by the stored email; once
// the document is gone the operation reports success regardless of the
// identity outcome.
func (c *Coordinator) Delete(ctx context.Context, identityID string) error {
	var email string
	if doc, err := c.store.Get(ctx, CollectionAccounts, identityID); err == nil {
		email, _ = doc.Fields["email"].(string)
	}

	if err := c.deleteIdentity(ctx, identityID, email); err != nil {
		c.logger.Warn("identity deletion failed; removing account document anyway",
			zap.String("identity_id", identityID),
			zap.Error(err))
	}

	if err := c.store.Delete(ctx, CollectionAccounts, identityID); err != nil {
		return fmt.Errorf("delete account document: %w", err)
	}

	c.publish(ctx, events.Event{
		Type:      events.EventAccountDeleted,
		AccountID: identityID,
		Email:     email,
	})
	return nil
}

// Archive toggles the account's activation state and cascades the
// archive flag to every inventory record created by the account's
// email in one atomic batch. Cascade failures are isolated; they never
// fail the archive itself.
func (c *Coordinator) Archive(ctx context.Context, identityID string, archived bool, actor string) error {
	doc, err := c.store.Get(ctx, CollectionAccounts, identityID)
	if err != nil {
		if err == docstore.ErrNotFound {
			return apperrors.NewNotFound("account", map[string]any{"identity_id": identityID})
		}
		return err
	}
	email, _ := doc.Fields["email"].(string)

	if err := c.setIdentityDisabled(ctx, identityID, email, archived); err != nil {
		c.logger.Warn("identity disable/enable failed",
			zap.String("identity_id", identityID),
			zap.Bool("archived", archived),
			zap.Error(err))
	}

	if err := c.store.Set(ctx, CollectionAccounts, identityID, map[string]any{"isActive": !archived}, true); err != nil {
		return fmt.Errorf("update account document: %w", err)
	}

	cascaded := c.cascadeArchive(ctx, email, archived, actor)

	eventType := events.EventAccountArchived
	if !archived {
		eventType = events.EventAccountUnarchived
	}
	c.publish(ctx, events.Event{
		Type:      eventType,
		AccountID: identityID,
		Email:     email,
		Payload: events.AccountArchivedPayload{
			Archived: archived,
			Actor:    actor,
			Cascaded: cascaded,
		},
	})
	return nil
}

// cascadeArchive stamps every dependent inventory record in one batch.
// archivedBy is the authenticated caller performing the operation.
func (c *Coordinator) cascadeArchive(ctx context.Context, email string, archived bool, actor string) int {
	if email == "" {
		return 0
	}

	docs, err := c.store.Query(ctx, CollectionInventory, "createdBy.email", "==", email)
	if err != nil {
		c.logger.Warn("inventory cascade query failed",
			zap.String("email", email),
			zap.Error(err))
		return 0
	}
	if len(docs) == 0 {
		return 0
	}

	fields := map[string]any{
		"isArchived": archived,
		"archivedAt": nil,
		"archivedBy": nil,
	}
	if archived {
		fields["archivedAt"] = c.now().Format(time.RFC3339)
		fields["archivedBy"] = actor
	}

	updates := make([]docstore.DocumentUpdate, 0, len(docs))
	for _, doc := range docs {
		updates = append(updates, docstore.DocumentUpdate{Key: doc.Key, Fields: fields})
	}

	if err := c.store.BatchUpdate(ctx, CollectionInventory, updates); err != nil {
		c.logger.Warn("inventory cascade batch failed",
			zap.String("email", email),
			zap.Int("records", len(updates)),
			zap.Error(err))
		return 0
	}
	return len(updates)
}

// deleteIdentity deletes by id, recovering via lookup by stored email.
func (c *Coordinator) deleteIdentity(ctx context.Context, identityID, email string) error {
	err := c.ids.Delete(ctx, identityID)
	if err == nil {
		return nil
	}

	ident, lookupErr := c.recoverByEmail(ctx, email, err)
	if lookupErr != nil {
		return lookupErr
	}
	return c.ids.Delete(ctx, ident.ID)
}

// setIdentityDisabled flips the disabled flag with the same fallback.
func (c *Coordinator) setIdentityDisabled(ctx context.Context, identityID, email string, disabled bool) error {
	err := c.ids.Update(ctx, identityID, identity.Update{Disabled: &disabled})
	if err == nil {
		return nil
	}

	ident, lookupErr := c.recoverByEmail(ctx, email, err)
	if lookupErr != nil {
		return lookupErr
	}
	return c.ids.Update(ctx, ident.ID, identity.Update{Disabled: &disabled})
}

// recoverByEmail is the shared fallback: when an operation by id fails,
// retry against the identity found under the account's stored email.
func (c *Coordinator) recoverByEmail(ctx context.Context, email string, cause error) (*identity.Identity, error) {
	if email == "" {
		return nil, cause
	}
	ident, err := c.ids.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("fallback lookup by email: %w (after: %v)", err, cause)
	}
	return ident, nil
}

func (c *Coordinator) publish(ctx context.Context, event events.Event) {
	if c.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = c.now()
	_ = c.dispatcher.Publish(ctx, event)
}
