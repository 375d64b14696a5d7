package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountCreated    EventType = "account_created"
	EventAccountArchived   EventType = "account_archived"
	EventAccountUnarchived EventType = "account_unarchived"
	EventAccountDeleted    EventType = "account_deleted"
	EventEmailChanged      EventType = "email_changed"
	EventPasscodeIssued    EventType = "passcode_issued"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	AccountID string      `json:"account_id,omitempty"`
	Email     string      `json:"email"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// AccountCreatedPayload payload.
type AccountCreatedPayload struct {
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
	Recovered   bool   `json:"recovered"`
}

// AccountArchivedPayload payload.
type AccountArchivedPayload struct {
	Archived bool   `json:"archived"`
	Actor    string `json:"actor"`
	Cascaded int    `json:"cascaded"`
}

// EmailChangedPayload payload.
type EmailChangedPayload struct {
	OldEmail string `json:"old_email"`
	NewEmail string `json:"new_email"`
}

// PasscodeIssuedPayload payload.
type PasscodeIssuedPayload struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}
