// Package pgx provides a Postgres-backed credential store for gateway
// deployments that must survive restarts and share state between
// instances.
//
// Expected schema:
//
//	CREATE TABLE gate_credentials (
//	    profile    TEXT PRIMARY KEY,
//	    user_id    TEXT NOT NULL,
//	    salt       BYTEA NOT NULL,
//	    token_box  BYTEA NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
package pgx

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neuralbroker/tiergate"
	"github.com/neuralbroker/tiergate/pkg/crypto"
)

// Adapter stores one credential record per profile. Tokens are sealed
// at rest under a key derived from the gate secret.
type Adapter struct {
	pool    *pgxpool.Pool
	profile string
	secret  string
}

var _ tiergate.CredentialStore = (*Adapter)(nil)

var ErrProfileRequired = errors.New("profile is required")

func New(pool *pgxpool.Pool, profile, secret string) (*Adapter, error) {
	if profile == "" {
		return nil, ErrProfileRequired
	}
	if secret == "" {
		return nil, tiergate.ErrSecretRequired
	}
	return &Adapter{
		pool:    pool,
		profile: profile,
		secret:  secret,
	}, nil
}

func (a *Adapter) Load(ctx context.Context) (*tiergate.Credentials, error) {
	var (
		userID string
		salt   []byte
		sealed []byte
	)
	err := a.pool.QueryRow(ctx,
		`SELECT user_id, salt, token_box FROM gate_credentials WHERE profile = $1`,
		a.profile,
	).Scan(&userID, &salt, &sealed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tiergate.ErrNoCredentials
		}
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	token, err := crypto.NewSealer(a.secret, salt).Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to unseal token: %w", err)
	}

	return &tiergate.Credentials{Token: string(token), UserID: userID}, nil
}

func (a *Adapter) Save(ctx context.Context, creds *tiergate.Credentials) error {
	salt, err := crypto.GenerateSalt()
	if err != nil {
		return err
	}
	sealed, err := crypto.NewSealer(a.secret, salt).Seal([]byte(creds.Token))
	if err != nil {
		return fmt.Errorf("failed to seal token: %w", err)
	}

	_, err = a.pool.Exec(ctx,
		`INSERT INTO gate_credentials (profile, user_id, salt, token_box, updated_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (profile) DO UPDATE
		 SET user_id = EXCLUDED.user_id,
		     salt = EXCLUDED.salt,
		     token_box = EXCLUDED.token_box,
		     updated_at = now()`,
		a.profile, creds.UserID, salt, sealed,
	)
	if err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

func (a *Adapter) Clear(ctx context.Context) error {
	_, err := a.pool.Exec(ctx,
		`DELETE FROM gate_credentials WHERE profile = $1`,
		a.profile,
	)
	if err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
