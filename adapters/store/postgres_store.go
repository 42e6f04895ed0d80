package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

var (
	_ ports.UserStore  = (*PostgresStore)(nil)
	_ ports.TokenStore = (*PostgresStore)(nil)
)

// Schema creates the tables used by PostgresStore
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id             TEXT PRIMARY KEY,
	wallet_address TEXT NOT NULL UNIQUE,
	nonce          TEXT,
	is_active      BOOLEAN NOT NULL DEFAULT TRUE,
	created_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
	token_hash TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users (id),
	expires_at TIMESTAMPTZ NOT NULL,
	is_active  BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS refresh_tokens_user_id_idx ON refresh_tokens (user_id);
`

type userRow struct {
	ID            string         `db:"id"`
	WalletAddress string         `db:"wallet_address"`
	Nonce         sql.NullString `db:"nonce"`
	IsActive      bool           `db:"is_active"`
	CreatedAt     time.Time      `db:"created_at"`
}

func (r userRow) toUser() *core.User {
	u := &core.User{
		ID:            r.ID,
		WalletAddress: r.WalletAddress,
		IsActive:      r.IsActive,
		CreatedAt:     r.CreatedAt,
	}
	if r.Nonce.Valid {
		n := r.Nonce.String
		u.Nonce = &n
	}
	return u
}

type tokenRow struct {
	TokenHash string    `db:"token_hash"`
	UserID    string    `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}

func (r tokenRow) toToken() *core.RefreshToken {
	return &core.RefreshToken{
		TokenHash: r.TokenHash,
		UserID:    r.UserID,
		ExpiresAt: r.ExpiresAt,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
	}
}

// PostgresStore is a PostgreSQL implementation of the user and token stores
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open database handle
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ConnectPostgres opens and pings a PostgreSQL connection
func ConnectPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// Migrate applies Schema
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// UpsertNonce sets the pending nonce, creating the user if needed
func (s *PostgresStore) UpsertNonce(ctx context.Context, address, nonce, newID string, createdAt time.Time) (*core.User, error) {
	query := `
		INSERT INTO users (id, wallet_address, nonce, is_active, created_at)
		VALUES ($1, $2, $3, TRUE, $4)
		ON CONFLICT (wallet_address) DO UPDATE SET nonce = EXCLUDED.nonce
		RETURNING id, wallet_address, nonce, is_active, created_at`

	var row userRow
	if err := s.db.QueryRowxContext(ctx, query, newID, address, nonce, createdAt).StructScan(&row); err != nil {
		return nil, fmt.Errorf("failed to upsert nonce: %w", err)
	}
	return row.toUser(), nil
}

// GetByAddress looks a user up by wallet address
func (s *PostgresStore) GetByAddress(ctx context.Context, address string) (*core.User, error) {
	query := `SELECT id, wallet_address, nonce, is_active, created_at FROM users WHERE wallet_address = $1`
	return s.getUser(ctx, query, address)
}

// GetByID looks a user up by ID
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*core.User, error) {
	query := `SELECT id, wallet_address, nonce, is_active, created_at FROM users WHERE id = $1`
	return s.getUser(ctx, query, id)
}

func (s *PostgresStore) getUser(ctx context.Context, query string, arg string) (*core.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return row.toUser(), nil
}

// ClearNonce clears the nonce if it still matches expected
func (s *PostgresStore) ClearNonce(ctx context.Context, userID, expected string) error {
	query := `UPDATE users SET nonce = NULL WHERE id = $1 AND nonce = $2`

	result, err := s.db.ExecContext(ctx, query, userID, expected)
	if err != nil {
		return fmt.Errorf("failed to clear nonce: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check cleared nonce: %w", err)
	}
	if affected == 0 {
		return core.ErrNonceMismatch
	}
	return nil
}

// Deactivate marks the user inactive
func (s *PostgresStore) Deactivate(ctx context.Context, userID string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET is_active = FALSE WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deactivated user: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// CreateRefreshToken stores a new refresh token record
func (s *PostgresStore) CreateRefreshToken(ctx context.Context, token *core.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (token_hash, user_id, expires_at, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query,
		token.TokenHash,
		token.UserID,
		token.ExpiresAt,
		token.IsActive,
		token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// ConsumeRefreshToken flips an active token to inactive with a conditional update
func (s *PostgresStore) ConsumeRefreshToken(ctx context.Context, tokenHash string) (*core.RefreshToken, error) {
	query := `
		UPDATE refresh_tokens SET is_active = FALSE
		WHERE token_hash = $1 AND is_active = TRUE
		RETURNING token_hash, user_id, expires_at, is_active, created_at`

	var row tokenRow
	err := s.db.QueryRowxContext(ctx, query, tokenHash).StructScan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}

	token := row.toToken()
	// RETURNING reports the updated row
	token.IsActive = true
	return token, nil
}
