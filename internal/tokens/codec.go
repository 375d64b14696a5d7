package tokens

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// envelope is the signed portion of a token.
type envelope struct {
	Payload   map[string]any `json:"payload"`
	IssuedAt  int64          `json:"issued_at"`
	ExpiresAt int64          `json:"expires_at"`
}

// Codec issues and validates compact signed, expiring tokens.
// Tokens carry their own state; nothing is persisted server-side.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec builds a codec with the given signing secret and token lifetime.
func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue stamps issuance and expiry times, serializes the envelope and
// returns base64url(body) + "." + hex(HMAC-SHA256(body)).
func (c *Codec) Issue(payload map[string]any) (string, error) {
	now := c.now()
	env := envelope{
		Payload:   payload,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(c.ttl).Unix(),
	}

	body, err := json.Marshal(env)
	if err != nil {
		return "", err
	}

	encoded := base64.RawURLEncoding.EncodeToString(body)
	return encoded + "." + hex.EncodeToString(c.sign(body)), nil
}

// Validate returns the token payload, or nil for any malformed, tampered
// or expired token. Absence of a payload is the only failure signal.
func (c *Codec) Validate(token string) map[string]any {
	idx := strings.LastIndex(token, ".")
	if idx <= 0 || idx == len(token)-1 {
		return nil
	}

	body, err := base64.RawURLEncoding.DecodeString(token[:idx])
	if err != nil {
		return nil
	}
	sig, err := hex.DecodeString(token[idx+1:])
	if err != nil {
		return nil
	}
	if !hmac.Equal(sig, c.sign(body)) {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil
	}
	if c.now().Unix() > env.ExpiresAt {
		return nil
	}
	return env.Payload
}

func (c *Codec) sign(body []byte) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(body)
	return mac.Sum(nil)
}
