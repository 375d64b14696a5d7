package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RelayMailer delivers messages by POSTing them as JSON to a mail relay
// endpoint. An empty URL leaves the transport unconfigured.
type RelayMailer struct {
	url    string
	client *http.Client
}

// NewRelayMailer constructs the mailer.
func NewRelayMailer(url string) *RelayMailer {
	return &RelayMailer{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the message to the relay.
func (m *RelayMailer) Send(ctx context.Context, msg Message) error {
	if m.url == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mail relay responded %d", resp.StatusCode)
	}
	return nil
}
