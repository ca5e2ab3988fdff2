package server

import (
	"context"
	"net/url"
	"testing"

	"github.com/legit-games/oid4vci/errors"
	"github.com/legit-games/oid4vci/store"
)

func newTestValidators() (*AuthorizationRequestValidator, *AccessTokenRequestValidator) {
	cfg := NewConfig()
	clients := store.NewAdhocClientStore()
	return &AuthorizationRequestValidator{Config: cfg, Clients: clients},
		&AccessTokenRequestValidator{Config: cfg, Clients: clients}
}

func TestValidateAuthorizationRequest(t *testing.T) {
	av, _ := newTestValidators()
	ctx := context.Background()

	req, errResp := av.Validate(ctx, url.Values{
		"response_type": {"code"},
		"client_id":     {"client-1"},
		"scope":         {"openid credential"},
		"redirect_uri":  {"http://localhost/cb"},
		"state":         {"xyz"},
		"issuer_state":  {"offer-123"},
	})
	if errResp != nil {
		t.Fatal(errResp)
	}
	if req.Client.GetID() != "client-1" {
		t.Fatalf("client mismatch: %s", req.Client.GetID())
	}
	if len(req.Scopes) != 2 || req.Scopes[0] != "openid" {
		t.Fatalf("scope split wrong: %v", req.Scopes)
	}
	if req.IssuerState != "offer-123" {
		t.Fatal("issuer_state not captured")
	}
	if req.State != "xyz" {
		t.Fatal("state not captured")
	}
}

func TestValidateAuthorizationRequestErrors(t *testing.T) {
	av, _ := newTestValidators()
	ctx := context.Background()

	cases := []struct {
		name   string
		params url.Values
		want   error
	}{
		{"missing response_type", url.Values{"client_id": {"c"}}, errors.ErrInvalidRequest},
		{"unsupported response_type", url.Values{"response_type": {"token"}, "client_id": {"c"}}, errors.ErrUnsupportedResponseType},
		{"missing client_id", url.Values{"response_type": {"code"}}, errors.ErrInvalidRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, errResp := av.Validate(ctx, c.params)
			if errResp == nil || errResp.Err != c.want {
				t.Fatalf("want %v, got %v", c.want, errResp)
			}
		})
	}
}

func TestValidateAccessTokenRequest(t *testing.T) {
	_, tv := newTestValidators()
	ctx := context.Background()

	req, errResp := tv.Validate(ctx, url.Values{
		"grant_type":   {"authorization_code"},
		"client_id":    {"client-1"},
		"code":         {"abc"},
		"redirect_uri": {"http://localhost/cb"},
	}, nil)
	if errResp != nil {
		t.Fatal(errResp)
	}
	if !req.HasGrantType("authorization_code") {
		t.Fatal("grant type not captured")
	}
	if req.Client == nil || req.Client.GetID() != "client-1" {
		t.Fatal("client not resolved")
	}
}

func TestValidateAccessTokenRequestErrors(t *testing.T) {
	_, tv := newTestValidators()
	ctx := context.Background()

	cases := []struct {
		name   string
		params url.Values
		want   error
	}{
		{"missing grant_type", url.Values{}, errors.ErrInvalidRequest},
		{"disallowed grant_type", url.Values{"grant_type": {"client_credentials"}}, errors.ErrUnsupportedGrantType},
		{"missing code", url.Values{"grant_type": {"authorization_code"}, "client_id": {"c"}, "redirect_uri": {"u"}}, errors.ErrInvalidRequest},
		{"missing pre-authorized code", url.Values{"grant_type": {"pre-authorized_code"}}, errors.ErrInvalidRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, errResp := tv.Validate(ctx, c.params, nil)
			if errResp == nil || errResp.Err != c.want {
				t.Fatalf("want %v, got %v", c.want, errResp)
			}
		})
	}
}

func TestValidateAccessTokenRequestPreAuthorizedRedirectURI(t *testing.T) {
	cfg := NewConfig()
	cfg.RequireRedirectURIForPreAuthorized = true
	tv := &AccessTokenRequestValidator{Config: cfg, Clients: store.NewAdhocClientStore()}

	_, errResp := tv.Validate(context.Background(), url.Values{
		"grant_type":          {"pre-authorized_code"},
		"pre-authorized_code": {"abc"},
	}, nil)
	if errResp == nil || errResp.Err != errors.ErrInvalidRequest {
		t.Fatalf("redirect_uri should be required, got %v", errResp)
	}
}
