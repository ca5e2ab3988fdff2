package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/legit-games/oid4vci"
	"github.com/legit-games/oid4vci/errors"
	"github.com/legit-games/oid4vci/models"
)

// SQLCodeStore stores one-time codes in a SQL database (postgres via lib/pq,
// sqlite via modernc for tests). Consume runs a single
// DELETE ... RETURNING statement, so lookup and removal are one atomic
// operation handled by the database.
//
// The oid4vci_codes table is created by the bundled goose migrations (see
// the migrate package).
type SQLCodeStore struct {
	db  *sql.DB
	ttl time.Duration
}

// NewSQLCodeStore creates a SQL-backed code store on an open database handle.
func NewSQLCodeStore(db *sql.DB) *SQLCodeStore {
	return &SQLCodeStore{db: db, ttl: DefaultCodeTTL}
}

// SetTTL sets the TTL for issued codes.
func (s *SQLCodeStore) SetTTL(ttl time.Duration) {
	s.ttl = ttl
}

func (s *SQLCodeStore) insert(ctx context.Context, kind, code string, v interface{}, expiresAt time.Time) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal code grant: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO oid4vci_codes(code, kind, data, expires_at) VALUES($1, $2, $3, $4)`,
		code, kind, string(data), expiresAt.UTC(),
	)
	return err
}

// takeRow deletes and returns the stored grant JSON in one statement;
// sql.ErrNoRows maps to absence.
func (s *SQLCodeStore) takeRow(ctx context.Context, kind, code string) (string, time.Time, error) {
	var (
		data      string
		expiresAt time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`DELETE FROM oid4vci_codes WHERE code = $1 AND kind = $2 RETURNING data, expires_at`,
		code, kind,
	).Scan(&data, &expiresAt)
	if err == sql.ErrNoRows {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, err
	}
	return data, expiresAt, nil
}

// Issue stores the grant and returns the code.
func (s *SQLCodeStore) Issue(ctx context.Context, grant oid4vci.CodeGrantInfo) (string, error) {
	g := asCodeGrant(grant)
	if g.Code == "" {
		g.Code = newCode()
	}
	g.CreatedAt = time.Now().UTC()
	if g.ExpiresAt.IsZero() {
		g.ExpiresAt = g.CreatedAt.Add(s.ttl)
	}
	if err := s.insert(ctx, "code", g.Code, g, g.ExpiresAt); err != nil {
		return "", err
	}
	return g.Code, nil
}

// Consume removes and returns the grant for code.
func (s *SQLCodeStore) Consume(ctx context.Context, code string) (oid4vci.CodeGrantInfo, error) {
	data, expiresAt, err := s.takeRow(ctx, "code", code)
	if err != nil {
		return nil, err
	}
	if data == "" || time.Now().After(expiresAt) {
		return nil, errors.ErrAuthorizationCodeNotFound
	}
	var g models.CodeGrant
	if err := json.Unmarshal([]byte(data), &g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal code grant: %w", err)
	}
	return &g, nil
}

// PreAuthorized returns the pre-authorized code repository backed by the same
// database handle under a separate row kind.
func (s *SQLCodeStore) PreAuthorized() *SQLPreAuthorizedCodeStore {
	return &SQLPreAuthorizedCodeStore{inner: s}
}

// SQLPreAuthorizedCodeStore stores pre-authorized grants in the same table
// with identical consume semantics.
type SQLPreAuthorizedCodeStore struct {
	inner *SQLCodeStore
}

// Issue stores the grant and returns the code.
func (s *SQLPreAuthorizedCodeStore) Issue(ctx context.Context, grant oid4vci.PreAuthorizedGrantInfo) (string, error) {
	g := asPreAuthorizedGrant(grant)
	if g.Code == "" {
		g.Code = newCode()
	}
	g.CreatedAt = time.Now().UTC()
	if g.ExpiresAt.IsZero() {
		g.ExpiresAt = g.CreatedAt.Add(s.inner.ttl)
	}
	if err := s.inner.insert(ctx, "precode", g.Code, g, g.ExpiresAt); err != nil {
		return "", err
	}
	return g.Code, nil
}

// Consume removes and returns the grant for code.
func (s *SQLPreAuthorizedCodeStore) Consume(ctx context.Context, code string) (oid4vci.PreAuthorizedGrantInfo, error) {
	data, expiresAt, err := s.inner.takeRow(ctx, "precode", code)
	if err != nil {
		return nil, err
	}
	if data == "" || time.Now().After(expiresAt) {
		return nil, errors.ErrPreAuthorizedCodeNotFound
	}
	var g models.PreAuthorizedGrant
	if err := json.Unmarshal([]byte(data), &g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pre-authorized grant: %w", err)
	}
	return &g, nil
}
