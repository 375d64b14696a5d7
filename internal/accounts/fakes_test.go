package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vaxtrack/account-service/internal/identity"
	"github.com/vaxtrack/account-service/internal/notify"
)

// fakeProvider is an in-memory identity.Provider for tests.
type fakeProvider struct {
	nextID    int
	byID      map[string]*identity.Identity
	passwords map[string]string

	createErr error
	deleteErr map[string]error
	updateErr map[string]error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		byID:      make(map[string]*identity.Identity),
		passwords: make(map[string]string),
		deleteErr: make(map[string]error),
		updateErr: make(map[string]error),
	}
}

func (p *fakeProvider) seed(email string) string {
	id, _ := p.Create(context.Background(), email, "seeded", false)
	return id
}

func (p *fakeProvider) Create(_ context.Context, email, password string, disabled bool) (string, error) {
	if p.createErr != nil {
		return "", p.createErr
	}
	email = identity.NormalizeEmail(email)
	for _, ident := range p.byID {
		if ident.Email == email {
			return "", identity.ErrEmailTaken
		}
	}
	p.nextID++
	id := fmt.Sprintf("id-%d", p.nextID)
	p.byID[id] = &identity.Identity{
		ID:        id,
		Email:     email,
		Disabled:  disabled,
		CreatedAt: time.Now(),
	}
	p.passwords[id] = password
	return id, nil
}

func (p *fakeProvider) Get(_ context.Context, id string) (*identity.Identity, error) {
	ident, ok := p.byID[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	copied := *ident
	return &copied, nil
}

func (p *fakeProvider) GetByEmail(_ context.Context, email string) (*identity.Identity, error) {
	email = identity.NormalizeEmail(email)
	for _, ident := range p.byID {
		if ident.Email == email {
			copied := *ident
			return &copied, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (p *fakeProvider) Update(_ context.Context, id string, update identity.Update) error {
	if err := p.updateErr[id]; err != nil {
		return err
	}
	ident, ok := p.byID[id]
	if !ok {
		return identity.ErrNotFound
	}
	if update.Email != nil {
		next := identity.NormalizeEmail(*update.Email)
		for otherID, other := range p.byID {
			if otherID != id && other.Email == next {
				return identity.ErrEmailTaken
			}
		}
		ident.Email = next
	}
	if update.Password != nil {
		p.passwords[id] = *update.Password
	}
	if update.Disabled != nil {
		ident.Disabled = *update.Disabled
	}
	return nil
}

func (p *fakeProvider) Delete(_ context.Context, id string) error {
	if err := p.deleteErr[id]; err != nil {
		return err
	}
	if _, ok := p.byID[id]; !ok {
		return identity.ErrNotFound
	}
	delete(p.byID, id)
	delete(p.passwords, id)
	return nil
}

func (p *fakeProvider) VerifyToken(_ context.Context, bearer string) (*identity.TokenInfo, error) {
	for _, ident := range p.byID {
		if bearer == "token-for-"+ident.ID {
			return &identity.TokenInfo{ID: ident.ID, Email: ident.Email}, nil
		}
	}
	return nil, errors.New("invalid token")
}

// fakeMailer records sent messages and can be told to fail.
type fakeMailer struct {
	sent []notify.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg notify.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}
