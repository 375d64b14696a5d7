package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// LocalProvider is a Postgres-backed identity provider for deployments
// that do not delegate credentials to an external service.
type LocalProvider struct {
	pool       *pgxpool.Pool
	tokens     *TokenManager
	bcryptCost int
}

// NewLocalProvider constructs the provider.
func NewLocalProvider(pool *pgxpool.Pool, tokens *TokenManager, bcryptCost int) *LocalProvider {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &LocalProvider{pool: pool, tokens: tokens, bcryptCost: bcryptCost}
}

// Create registers a new identity, failing with ErrEmailTaken when the
// normalized email is already present.
func (p *LocalProvider) Create(ctx context.Context, email, password string, disabled bool) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.bcryptCost)
	if err != nil {
		return "", err
	}

	const query = `
        INSERT INTO identities (id, email, password_hash, disabled)
        VALUES ($1, $2, $3, $4)`

	id := uuid.NewString()
	if _, err := p.pool.Exec(ctx, query, id, NormalizeEmail(email), string(hash), disabled); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", ErrEmailTaken
		}
		return "", err
	}
	return id, nil
}

// Get loads an identity by id.
func (p *LocalProvider) Get(ctx context.Context, id string) (*Identity, error) {
	const query = `
        SELECT id, email, disabled, created_at, updated_at
        FROM identities WHERE id=$1`
	return p.scanOne(p.pool.QueryRow(ctx, query, id))
}

// GetByEmail loads an identity by normalized email.
func (p *LocalProvider) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	const query = `
        SELECT id, email, disabled, created_at, updated_at
        FROM identities WHERE email=$1`
	return p.scanOne(p.pool.QueryRow(ctx, query, NormalizeEmail(email)))
}

// Update applies partial mutations to an identity.
func (p *LocalProvider) Update(ctx context.Context, id string, update Update) error {
	if update.Email != nil {
		normalized := NormalizeEmail(*update.Email)
		cmd, err := p.pool.Exec(ctx,
			`UPDATE identities SET email=$1, updated_at=NOW() WHERE id=$2`, normalized, id)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrEmailTaken
			}
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrNotFound
		}
	}

	if update.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*update.Password), p.bcryptCost)
		if err != nil {
			return err
		}
		cmd, err := p.pool.Exec(ctx,
			`UPDATE identities SET password_hash=$1, updated_at=NOW() WHERE id=$2`, string(hash), id)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrNotFound
		}
	}

	if update.Disabled != nil {
		cmd, err := p.pool.Exec(ctx,
			`UPDATE identities SET disabled=$1, updated_at=NOW() WHERE id=$2`, *update.Disabled, id)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrNotFound
		}
	}

	return nil
}

// Delete removes an identity record.
func (p *LocalProvider) Delete(ctx context.Context, id string) error {
	cmd, err := p.pool.Exec(ctx, `DELETE FROM identities WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// VerifyToken resolves a bearer token to its identity.
func (p *LocalProvider) VerifyToken(ctx context.Context, bearer string) (*TokenInfo, error) {
	claims, err := p.tokens.Parse(bearer)
	if err != nil {
		return nil, err
	}

	ident, err := p.Get(ctx, claims.SubjectID)
	if err != nil {
		return nil, err
	}
	if ident.Disabled {
		return nil, ErrNotFound
	}
	return &TokenInfo{ID: ident.ID, Email: ident.Email}, nil
}

// Login checks credentials and mints a bearer token.
func (p *LocalProvider) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	const query = `
        SELECT id, email, password_hash, disabled
        FROM identities WHERE email=$1`

	var (
		id, storedEmail, hash string
		disabled              bool
	)
	if err := p.pool.QueryRow(ctx, query, NormalizeEmail(email)).Scan(&id, &storedEmail, &hash, &disabled); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, ErrNotFound
		}
		return "", time.Time{}, err
	}
	if disabled {
		return "", time.Time{}, errors.New("identity disabled")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", time.Time{}, errors.New("invalid credentials")
	}
	return p.tokens.Generate(id, storedEmail)
}

func (p *LocalProvider) scanOne(row pgx.Row) (*Identity, error) {
	var ident Identity
	if err := row.Scan(
		&ident.ID,
		&ident.Email,
		&ident.Disabled,
		&ident.CreatedAt,
		&ident.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ident, nil
}
