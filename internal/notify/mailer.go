package notify

import (
	"context"
	"errors"
)

// ErrNotConfigured indicates no outbound mail transport is set up.
var ErrNotConfigured = errors.New("mail transport not configured")

// Attachment is an inline file carried by a message.
type Attachment struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Content  []byte `json:"content"`
}

// Message is an outbound email.
type Message struct {
	From        string       `json:"from"`
	To          string       `json:"to"`
	Subject     string       `json:"subject"`
	Text        string       `json:"text,omitempty"`
	HTML        string       `json:"html,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Mailer is the outbound mail capability the core depends on.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
