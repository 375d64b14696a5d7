package passcode

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vaxtrack/account-service/internal/events"
	"github.com/vaxtrack/account-service/internal/identity"
)

// Status classifies the outcome of a verify attempt.
type Status string

const (
	StatusOK       Status = "OK"
	StatusNotFound Status = "NOT_FOUND"
	StatusExpired  Status = "EXPIRED"
	StatusMismatch Status = "MISMATCH"
)

// Result is the structured outcome of Verify.
type Result struct {
	Status Status
}

// OK reports whether the passcode was accepted.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// Service issues and verifies one-time passcodes.
type Service struct {
	store      RecordStore
	ids        identity.Provider
	dispatcher events.Dispatcher
	logger     *zap.Logger
	ttl        time.Duration
	now        func() time.Time
}

// NewService builds the service.
func NewService(store RecordStore, ids identity.Provider, dispatcher events.Dispatcher, logger *zap.Logger, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		store:      store,
		ids:        ids,
		dispatcher: dispatcher,
		logger:     logger,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Issue generates a 6-digit code for the address and upserts it, so at
// most one passcode is live per normalized email. The code is also
// pushed to the identity provider as a recovery credential and mailed
// out; both are best-effort and never block issuance.
func (s *Service) Issue(ctx context.Context, email string) (string, time.Time, error) {
	key := identity.NormalizeEmail(email)
	if key == "" {
		return "", time.Time{}, fmt.Errorf("email required")
	}

	code, err := generateCode()
	if err != nil {
		return "", time.Time{}, err
	}

	now := s.now()
	record := Record{
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Put(ctx, key, record); err != nil {
		return "", time.Time{}, err
	}

	s.syncRecoveryCredential(ctx, key, code)

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventPasscodeIssued,
			Email:     key,
			Timestamp: now,
			Payload:   events.PasscodeIssuedPayload{Code: code, ExpiresAt: record.ExpiresAt},
		})
	}

	return code, record.ExpiresAt, nil
}

// Verify consumes a matching passcode. A record past its expiry is
// deleted and reported EXPIRED; a mismatched code leaves the record in
// place so the caller may retry.
func (s *Service) Verify(ctx context.Context, email, code string) (Result, error) {
	key := identity.NormalizeEmail(email)

	record, err := s.store.Get(ctx, key)
	if err != nil {
		if err == ErrNoRecord {
			return Result{Status: StatusNotFound}, nil
		}
		return Result{}, err
	}

	if s.now().After(record.ExpiresAt) {
		if err := s.store.Delete(ctx, key); err != nil {
			return Result{}, err
		}
		return Result{Status: StatusExpired}, nil
	}

	if record.Code != code {
		return Result{Status: StatusMismatch}, nil
	}

	if err := s.store.Delete(ctx, key); err != nil {
		return Result{}, err
	}
	return Result{Status: StatusOK}, nil
}

// ForcePasswordChange verifies the passcode and, on success, force-sets
// the identity credential to that code so the holder can sign in once
// and rotate it. Unlike the issue-time sync, a provider failure here is
// surfaced.
func (s *Service) ForcePasswordChange(ctx context.Context, email, code string) (Result, error) {
	result, err := s.Verify(ctx, email, code)
	if err != nil || !result.OK() {
		return result, err
	}

	ident, err := s.ids.GetByEmail(ctx, identity.NormalizeEmail(email))
	if err != nil {
		return result, err
	}
	if err := s.ids.Update(ctx, ident.ID, identity.Update{Password: &code}); err != nil {
		return result, err
	}
	return result, nil
}

func (s *Service) syncRecoveryCredential(ctx context.Context, email, code string) {
	ident, err := s.ids.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Warn("passcode credential sync skipped",
			zap.String("email", email),
			zap.Error(err))
		return
	}
	if err := s.ids.Update(ctx, ident.ID, identity.Update{Password: &code}); err != nil {
		s.logger.Warn("passcode credential sync failed",
			zap.String("email", email),
			zap.Error(err))
	}
}

// generateCode draws a uniform 6-digit code, leading zeros preserved.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
