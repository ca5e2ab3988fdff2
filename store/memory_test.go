package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/legit-games/oid4vci/errors"
	"github.com/legit-games/oid4vci/models"
)

func TestAuthorizationCodeStore(t *testing.T) {
	ctx := context.Background()
	s := NewAuthorizationCodeStore()

	code, err := s.Issue(ctx, &models.CodeGrant{
		ClientID:    "client-1",
		RedirectURI: "http://localhost/cb",
		Scopes:      []string{"openid", "credential"},
		Subject:     "user-1",
		SessionData: map[string]interface{}{"k": "v"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if code == "" {
		t.Fatal("expected a generated code")
	}

	grant, err := s.Consume(ctx, code)
	if err != nil {
		t.Fatal(err)
	}
	if grant.GetSubject() != "user-1" {
		t.Fatalf("subject mismatch: %s", grant.GetSubject())
	}
	if grant.GetClientID() != "client-1" {
		t.Fatalf("client mismatch: %s", grant.GetClientID())
	}
	if data := grant.GetSessionData(); data["k"] != "v" {
		t.Fatalf("session data lost: %v", data)
	}

	if _, err := s.Consume(ctx, code); err != errors.ErrAuthorizationCodeNotFound {
		t.Fatalf("second consume should fail with not found, got %v", err)
	}
}

func TestAuthorizationCodeStoreExpired(t *testing.T) {
	ctx := context.Background()
	s := NewAuthorizationCodeStore()

	code, err := s.Issue(ctx, &models.CodeGrant{
		ClientID:  "client-1",
		Subject:   "user-1",
		ExpiresAt: time.Now().Add(-time.Second),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Consume(ctx, code); err != errors.ErrAuthorizationCodeNotFound {
		t.Fatalf("expired code should read as absent, got %v", err)
	}
}

func TestAuthorizationCodeStoreConcurrentConsume(t *testing.T) {
	ctx := context.Background()
	s := NewAuthorizationCodeStore()

	code, err := s.Issue(ctx, &models.CodeGrant{ClientID: "client-1", Subject: "user-1"})
	if err != nil {
		t.Fatal(err)
	}

	const n = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Consume(ctx, code); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	if count != 1 {
		t.Fatalf("want exactly one successful consume, got %d", count)
	}
}

func TestPreAuthorizedCodeStore(t *testing.T) {
	ctx := context.Background()
	s := NewPreAuthorizedCodeStore()

	nonceExp := time.Now().Add(5 * time.Minute)
	code, err := s.Issue(ctx, &models.PreAuthorizedGrant{
		ClientID:                 "client-1",
		Scopes:                   []string{"credential"},
		Audience:                 []string{"https://issuer.example"},
		Subject:                  "user-2",
		CredentialNonce:          "nonce-1",
		CredentialNonceExpiresAt: nonceExp,
		UserPINHash:              "hashed",
	})
	if err != nil {
		t.Fatal(err)
	}

	grant, err := s.Consume(ctx, code)
	if err != nil {
		t.Fatal(err)
	}
	if grant.GetCredentialNonce() != "nonce-1" {
		t.Fatalf("nonce mismatch: %s", grant.GetCredentialNonce())
	}
	if grant.GetUserPINHash() != "hashed" {
		t.Fatal("user pin hash lost")
	}
	if got := grant.GetAudience(); len(got) != 1 || got[0] != "https://issuer.example" {
		t.Fatalf("audience mismatch: %v", got)
	}

	if _, err := s.Consume(ctx, code); err != errors.ErrPreAuthorizedCodeNotFound {
		t.Fatalf("second consume should fail with not found, got %v", err)
	}
}
