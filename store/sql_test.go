package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/legit-games/oid4vci/errors"
	"github.com/legit-games/oid4vci/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	// Mirrors migrate/sql/0001_create_codes.sql.
	_, err = db.Exec(`CREATE TABLE oid4vci_codes (
		code TEXT NOT NULL,
		kind TEXT NOT NULL,
		data TEXT NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		PRIMARY KEY (code, kind)
	)`)
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func TestSQLCodeStore(t *testing.T) {
	ctx := context.Background()
	s := NewSQLCodeStore(openTestDB(t))

	code, err := s.Issue(ctx, &models.CodeGrant{
		ClientID: "client-1",
		Scopes:   []string{"openid"},
		Subject:  "user-1",
	})
	if err != nil {
		t.Fatal(err)
	}

	grant, err := s.Consume(ctx, code)
	if err != nil {
		t.Fatal(err)
	}
	if grant.GetSubject() != "user-1" {
		t.Fatalf("subject mismatch: %s", grant.GetSubject())
	}

	if _, err := s.Consume(ctx, code); err != errors.ErrAuthorizationCodeNotFound {
		t.Fatalf("second consume should fail with not found, got %v", err)
	}
}

func TestSQLPreAuthorizedCodeStore(t *testing.T) {
	ctx := context.Background()
	ps := NewSQLCodeStore(openTestDB(t)).PreAuthorized()

	code, err := ps.Issue(ctx, &models.PreAuthorizedGrant{
		Subject:         "user-2",
		CredentialNonce: "nonce-1",
		UserPINHash:     "hash",
	})
	if err != nil {
		t.Fatal(err)
	}

	grant, err := ps.Consume(ctx, code)
	if err != nil {
		t.Fatal(err)
	}
	if grant.GetCredentialNonce() != "nonce-1" || grant.GetUserPINHash() != "hash" {
		t.Fatalf("grant mismatch: %v", grant)
	}

	if _, err := ps.Consume(ctx, code); err != errors.ErrPreAuthorizedCodeNotFound {
		t.Fatalf("second consume should fail with not found, got %v", err)
	}
}
