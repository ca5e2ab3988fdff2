package server

import (
	"context"
	std_errors "errors"
	"net/url"
	"testing"

	"github.com/legit-games/oid4vci"
	"github.com/legit-games/oid4vci/errors"
)

type stubTokenHandler struct {
	grant oid4vci.GrantType
}

func (h *stubTokenHandler) CanHandleTokenEndpointRequest(r *AccessTokenRequest) bool {
	return r.HasGrantType(h.grant)
}

func (h *stubTokenHandler) HandleTokenEndpointRequest(ctx context.Context, r *AccessTokenRequest) (*AccessTokenResponse, *errors.Response) {
	return &AccessTokenResponse{AccessToken: "stub", TokenType: "Bearer"}, nil
}

type stubAuthorizeHandler struct {
	rt oid4vci.ResponseType
}

func (h *stubAuthorizeHandler) CanHandleAuthorizationEndpointRequest(r *AuthorizationRequest) bool {
	return r.HasResponseType(h.rt)
}

func (h *stubAuthorizeHandler) HandleAuthorizationEndpointRequest(ctx context.Context, r *AuthorizationRequest, session oid4vci.SessionInfo) (*AuthorizationResponse, *errors.Response) {
	return &AuthorizationResponse{Code: "stub"}, nil
}

func TestTokenEndpointHandlersDuplicateKey(t *testing.T) {
	var hs TokenEndpointHandlers

	if err := hs.AppendForGrant("urn:example:custom", &stubTokenHandler{grant: "urn:example:custom"}); err != nil {
		t.Fatal(err)
	}
	err := hs.AppendForGrant("urn:example:custom", &stubTokenHandler{grant: "urn:example:custom"})
	if !std_errors.Is(err, errors.ErrHandlerAlreadyRegistered) {
		t.Fatalf("duplicate key should fail with ErrHandlerAlreadyRegistered, got %v", err)
	}

	// distinct keys coexist
	if err := hs.AppendForGrant("urn:example:other", &stubTokenHandler{grant: "urn:example:other"}); err != nil {
		t.Fatal(err)
	}
}

func TestAuthorizationEndpointHandlersDuplicateKey(t *testing.T) {
	var hs AuthorizationEndpointHandlers

	if err := hs.Append(oid4vci.Code, &stubAuthorizeHandler{rt: oid4vci.Code}); err != nil {
		t.Fatal(err)
	}
	err := hs.Append(oid4vci.Code, &stubAuthorizeHandler{rt: oid4vci.Code})
	if !std_errors.Is(err, errors.ErrHandlerAlreadyRegistered) {
		t.Fatalf("duplicate key should fail with ErrHandlerAlreadyRegistered, got %v", err)
	}
}

func TestTokenEndpointHandlersDispatchNoMatch(t *testing.T) {
	var hs TokenEndpointHandlers
	if err := hs.AppendForGrant(oid4vci.AuthorizationCode, &stubTokenHandler{grant: oid4vci.AuthorizationCode}); err != nil {
		t.Fatal(err)
	}

	req := &AccessTokenRequest{
		GrantTypes: []oid4vci.GrantType{"urn:example:unknown"},
		Form:       url.Values{},
	}
	_, errResp := hs.Dispatch(context.Background(), req)
	if errResp == nil || errResp.Err != errors.ErrUnsupportedGrantType {
		t.Fatalf("no handler should report unsupported_grant_type, got %v", errResp)
	}
}
