package server

import (
	"context"
	std_errors "errors"
	"time"

	"github.com/legit-games/oid4vci"
	"github.com/legit-games/oid4vci/errors"
	"github.com/legit-games/oid4vci/models"
)

// NewAuthorizationCodeGrantHandler create the built-in token handler for
// grant_type=authorization_code.
func NewAuthorizationCodeGrantHandler(cfg *Config, repo oid4vci.AuthorizationCodeRepository, tokens oid4vci.TokenService) *AuthorizationCodeGrantHandler {
	return &AuthorizationCodeGrantHandler{Config: cfg, Repository: repo, Tokens: tokens}
}

// AuthorizationCodeGrantHandler redeems an authorization code for an access
// token. The code is consumed atomically before any further check, so a
// failed exchange still burns it.
type AuthorizationCodeGrantHandler struct {
	Config     *Config
	Repository oid4vci.AuthorizationCodeRepository
	Tokens     oid4vci.TokenService
}

// CanHandleTokenEndpointRequest accepts authorization_code grants.
func (h *AuthorizationCodeGrantHandler) CanHandleTokenEndpointRequest(r *AccessTokenRequest) bool {
	return r.HasGrantType(oid4vci.AuthorizationCode)
}

// HandleTokenEndpointRequest consumes the code, verifies the binding to the
// requesting client, and mints the access token.
func (h *AuthorizationCodeGrantHandler) HandleTokenEndpointRequest(ctx context.Context, r *AccessTokenRequest) (*AccessTokenResponse, *errors.Response) {
	code := r.Form.Get("code")

	grant, err := h.Repository.Consume(ctx, code)
	if err != nil {
		if std_errors.Is(err, errors.ErrAuthorizationCodeNotFound) {
			return nil, errors.NewResponseWithDescription(errors.ErrInvalidGrant, "authorization code is invalid, expired or already used")
		}
		return nil, errors.NewResponseWithDescription(errors.ErrServerError, "failed to consume authorization code: "+err.Error())
	}

	if grant.GetClientID() != r.Client.GetID() {
		return nil, errors.NewResponseWithDescription(errors.ErrInvalidGrant, "authorization code was issued to another client")
	}
	if uri := grant.GetRedirectURI(); uri != "" && uri != r.Form.Get("redirect_uri") {
		return nil, errors.NewResponseWithDescription(errors.ErrInvalidGrant, "redirect_uri does not match the authorization request")
	}

	session := models.NewSession(grant.GetSubject(), grant.GetSessionData())
	r.SetSession(session)
	r.GrantScopes(grant.GetScopes())
	r.MarkHandled(oid4vci.AuthorizationCode)

	now := time.Now()
	exp := h.Config.AccessTokenExp
	claims := map[string]interface{}{
		"sub":       grant.GetSubject(),
		"client_id": r.Client.GetID(),
		"iat":       now.Unix(),
		"exp":       now.Add(exp).Unix(),
	}
	if r.Issuer != "" {
		claims["iss"] = r.Issuer
	}
	if scope := joinScopes(grant.GetScopes()); scope != "" {
		claims["scope"] = scope
	}

	token, err := h.Tokens.CreateAccessToken(ctx, claims)
	if err != nil {
		return nil, errors.NewResponseWithDescription(errors.ErrServerError, "failed to create access token: "+err.Error())
	}

	return &AccessTokenResponse{
		AccessToken: token,
		TokenType:   h.Config.TokenType,
		ExpiresIn:   exp,
		Scope:       joinScopes(grant.GetScopes()),
	}, nil
}
