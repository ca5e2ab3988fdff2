package store

import (
	"context"
	"testing"

	"github.com/legit-games/oid4vci/errors"
	"github.com/legit-games/oid4vci/models"
)

func TestClientStore(t *testing.T) {
	ctx := context.Background()
	cs := NewClientStore()

	if _, err := cs.GetByID(ctx, "missing"); err != errors.ErrClientNotFound {
		t.Fatalf("unknown client should not resolve, got %v", err)
	}

	cs.Set("client-1", &models.Client{
		ID:           "client-1",
		Secret:       "s3cret",
		RedirectURIs: []string{"http://localhost/cb"},
	})

	c, err := cs.GetByID(ctx, "client-1")
	if err != nil {
		t.Fatal(err)
	}
	if c.GetSecret() != "s3cret" {
		t.Fatal("secret mismatch")
	}
	if uris := c.GetRedirectURIs(); len(uris) != 1 || uris[0] != "http://localhost/cb" {
		t.Fatalf("redirect uris mismatch: %v", uris)
	}
}

func TestAdhocClientStore(t *testing.T) {
	ctx := context.Background()
	cs := NewAdhocClientStore()

	c, err := cs.GetByID(ctx, "wallet-abc")
	if err != nil {
		t.Fatal(err)
	}
	if c.GetID() != "wallet-abc" || !c.IsPublic() {
		t.Fatalf("adhoc client should be public with the requested id: %v", c)
	}

	// registered clients still win over ad-hoc resolution
	cs.Set("wallet-abc", &models.Client{ID: "wallet-abc", Secret: "x"})
	c, err = cs.GetByID(ctx, "wallet-abc")
	if err != nil {
		t.Fatal(err)
	}
	if c.GetSecret() != "x" {
		t.Fatal("registered client should shadow ad-hoc resolution")
	}
}
