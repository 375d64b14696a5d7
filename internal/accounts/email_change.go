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
	"github.com/vaxtrack/account-service/internal/notify"
	"github.com/vaxtrack/account-service/internal/tokens"
	apperrors "github.com/vaxtrack/account-service/pkg/util"
)

// EmailChanger runs the signed-token email-change protocol. The token
// itself is the only pending state; nothing is persisted until the
// holder confirms from the new address.
type EmailChanger struct {
	codec      *tokens.Codec
	ids        identity.Provider
	store      docstore.Store
	mailer     notify.Mailer
	dispatcher events.Dispatcher
	logger     *zap.Logger
	from       string
	confirmURL string
}

// NewEmailChanger builds the service.
func NewEmailChanger(codec *tokens.Codec, ids identity.Provider, store docstore.Store, mailer notify.Mailer, dispatcher events.Dispatcher, logger *zap.Logger, from, confirmURL string) *EmailChanger {
	return &EmailChanger{
		codec:      codec,
		ids:        ids,
		store:      store,
		mailer:     mailer,
		dispatcher: dispatcher,
		logger:     logger,
		from:       from,
		confirmURL: confirmURL,
	}
}

// Request issues a signed token binding the caller's identity to the
// requested address and mails a confirmation link there. Delivering
// that mail is the operation, so a transport failure is surfaced.
func (e *EmailChanger) Request(ctx context.Context, identityID, currentEmail, newEmail string) (string, error) {
	normalized := identity.NormalizeEmail(newEmail)
	if normalized == "" {
		return "", apperrors.NewValidationError("new email required", nil)
	}
	if normalized == identity.NormalizeEmail(currentEmail) {
		return "", apperrors.NewValidationError("new email matches current email", nil)
	}

	if _, err := e.ids.GetByEmail(ctx, normalized); err == nil {
		return "", apperrors.NewConflict("email already in use", map[string]any{"email": normalized})
	}

	token, err := e.codec.Issue(map[string]any{
		"uid":       identityID,
		"new_email": normalized,
	})
	if err != nil {
		return "", err
	}

	msg := notify.Message{
		From:    e.from,
		To:      normalized,
		Subject: "Confirm your new sign-in email",
		Text: fmt.Sprintf("Open the link below to move your account to this address:\n\n%s?token=%s\n\n"+
			"If you did not request this change, ignore this message.\n", e.confirmURL, token),
	}
	if err := e.mailer.Send(ctx, msg); err != nil {
		return "", apperrors.NewTransportError("could not send confirmation email", err)
	}

	return token, nil
}

// Confirm validates the token and applies the change to the identity
// provider and the account document.
func (e *EmailChanger) Confirm(ctx context.Context, token string) error {
	payload := e.codec.Validate(token)
	if payload == nil {
		return apperrors.NewExpired("invalid or expired email-change token")
	}

	identityID, _ := payload["uid"].(string)
	newEmail, _ := payload["new_email"].(string)
	if identityID == "" || newEmail == "" {
		return apperrors.NewExpired("invalid or expired email-change token")
	}

	ident, err := e.ids.Get(ctx, identityID)
	if err != nil {
		if err == identity.ErrNotFound {
			return apperrors.NewNotFound("identity", map[string]any{"identity_id": identityID})
		}
		return err
	}
	oldEmail := ident.Email

	if err := e.ids.Update(ctx, identityID, identity.Update{Email: &newEmail}); err != nil {
		if err == identity.ErrEmailTaken {
			return apperrors.NewConflict("email already in use", map[string]any{"email": newEmail})
		}
		return err
	}

	if err := e.store.Set(ctx, CollectionAccounts, identityID, map[string]any{"email": newEmail}, true); err != nil {
		return fmt.Errorf("update account document: %w", err)
	}

	if e.dispatcher != nil {
		_ = e.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventEmailChanged,
			AccountID: identityID,
			Email:     newEmail,
			Timestamp: time.Now(),
			Payload:   events.EmailChangedPayload{OldEmail: oldEmail, NewEmail: newEmail},
		})
	}
	return nil
}
