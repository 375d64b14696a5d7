package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vaxtrack/account-service/internal/config"
	"github.com/vaxtrack/account-service/internal/events"
)

// NotificationService emits best-effort emails for account events.
// Delivery failures are logged and never surface to the publisher.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     Mailer
	logger     *zap.Logger
	cfg        config.NotifyConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mailer Mailer, logger *zap.Logger, cfg config.NotifyConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		mailer:     mailer,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventAccountCreated, n.handleAccountCreated)
	n.dispatcher.Subscribe(events.EventAccountArchived, n.handleAccountArchived)
	n.dispatcher.Subscribe(events.EventAccountUnarchived, n.handleAccountArchived)
	n.dispatcher.Subscribe(events.EventEmailChanged, n.handleEmailChanged)
	n.dispatcher.Subscribe(events.EventPasscodeIssued, n.handlePasscodeIssued)
}

func (n *NotificationService) handleAccountCreated(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.AccountCreatedPayload)
	n.send(ctx, Message{
		From:    n.cfg.EmailFrom,
		To:      event.Email,
		Subject: "Your inventory account is ready",
		Text: fmt.Sprintf("Hello %s,\n\nAn account with the %s role has been created for this address. "+
			"Use the password reset flow if you were not given a credential.\n", payload.DisplayName, payload.Role),
	}, event)
	return nil
}

func (n *NotificationService) handleAccountArchived(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.AccountArchivedPayload)
	state := "reactivated"
	if payload.Archived {
		state = "archived"
	}
	n.send(ctx, Message{
		From:    n.cfg.EmailFrom,
		To:      event.Email,
		Subject: fmt.Sprintf("Your inventory account was %s", state),
		Text:    fmt.Sprintf("Your account and the inventory records you created have been %s.\n", state),
	}, event)
	return nil
}

func (n *NotificationService) handleEmailChanged(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.EmailChangedPayload)
	n.send(ctx, Message{
		From:    n.cfg.EmailFrom,
		To:      payload.OldEmail,
		Subject: "Your sign-in email was changed",
		Text:    fmt.Sprintf("Sign-in for your account moved from %s to %s.\n", payload.OldEmail, payload.NewEmail),
	}, event)
	return nil
}

func (n *NotificationService) handlePasscodeIssued(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.PasscodeIssuedPayload)
	n.send(ctx, Message{
		From:    n.cfg.EmailFrom,
		To:      event.Email,
		Subject: "Your one-time passcode",
		Text: fmt.Sprintf("Your verification code is %s. It expires at %s.\n",
			payload.Code, payload.ExpiresAt.Format("15:04 MST")),
	}, event)
	return nil
}

func (n *NotificationService) send(ctx context.Context, msg Message, event events.Event) {
	if err := n.mailer.Send(ctx, msg); err != nil {
		n.logger.Warn("notification email failed",
			zap.String("event_type", string(event.Type)),
			zap.String("to", msg.To),
			zap.Error(err))
	}
}
