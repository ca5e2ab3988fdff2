package server

import (
	"context"
	std_errors "errors"
	"time"

	"github.com/legit-games/oid4vci"
	"github.com/legit-games/oid4vci/errors"
	"github.com/legit-games/oid4vci/models"
	"github.com/legit-games/oid4vci/preauth"
)

// NewPreAuthorizedCodeGrantHandler create the built-in token handler for
// grant_type=pre-authorized_code.
func NewPreAuthorizedCodeGrantHandler(cfg *Config, repo oid4vci.PreAuthorizedCodeRepository, tokens oid4vci.TokenService) *PreAuthorizedCodeGrantHandler {
	return &PreAuthorizedCodeGrantHandler{Config: cfg, Repository: repo, Tokens: tokens}
}

// PreAuthorizedCodeGrantHandler redeems a pre-authorized code for an access
// token and surfaces the credential nonce minted at issuance time so the
// wallet can request credentials immediately.
type PreAuthorizedCodeGrantHandler struct {
	Config     *Config
	Repository oid4vci.PreAuthorizedCodeRepository
	Tokens     oid4vci.TokenService
}

// CanHandleTokenEndpointRequest accepts pre-authorized_code grants.
func (h *PreAuthorizedCodeGrantHandler) CanHandleTokenEndpointRequest(r *AccessTokenRequest) bool {
	return r.HasGrantType(oid4vci.PreAuthorizedCode)
}

// HandleTokenEndpointRequest consumes the pre-authorized code, checks the
// user PIN when the grant requires one, and mints the access token. The
// consume happens first, so a wrong PIN burns the code.
func (h *PreAuthorizedCodeGrantHandler) HandleTokenEndpointRequest(ctx context.Context, r *AccessTokenRequest) (*AccessTokenResponse, *errors.Response) {
	code := r.Form.Get("pre-authorized_code")

	grant, err := h.Repository.Consume(ctx, code)
	if err != nil {
		if std_errors.Is(err, errors.ErrPreAuthorizedCodeNotFound) {
			return nil, errors.NewResponseWithDescription(errors.ErrInvalidGrant, "pre-authorized code is invalid, expired or already used")
		}
		return nil, errors.NewResponseWithDescription(errors.ErrServerError, "failed to consume pre-authorized code: "+err.Error())
	}

	if cid := grant.GetClientID(); cid != "" && r.Client != nil && r.Client.GetID() != cid {
		return nil, errors.NewResponseWithDescription(errors.ErrInvalidGrant, "pre-authorized code was issued to another client")
	}
	if err := preauth.VerifyUserPIN(grant.GetUserPINHash(), r.Form.Get("user_pin")); err != nil {
		return nil, errors.NewResponseWithDescription(errors.ErrInvalidGrant, "user PIN verification failed")
	}

	session := models.NewSession(grant.GetSubject(), grant.GetSessionData())
	r.SetSession(session)
	r.GrantScopes(grant.GetScopes())
	r.MarkHandled(oid4vci.PreAuthorizedCode)

	now := time.Now()
	exp := h.Config.AccessTokenExp
	claims := map[string]interface{}{
		"sub": grant.GetSubject(),
		"iat": now.Unix(),
		"exp": now.Add(exp).Unix(),
	}
	if r.Issuer != "" {
		claims["iss"] = r.Issuer
	}
	if aud := grant.GetAudience(); len(aud) > 0 {
		claims["aud"] = aud
	}
	if scope := joinScopes(grant.GetScopes()); scope != "" {
		claims["scope"] = scope
	}

	token, err := h.Tokens.CreateAccessToken(ctx, claims)
	if err != nil {
		return nil, errors.NewResponseWithDescription(errors.ErrServerError, "failed to create access token: "+err.Error())
	}

	resp := &AccessTokenResponse{
		AccessToken: token,
		TokenType:   h.Config.TokenType,
		ExpiresIn:   exp,
		Scope:       joinScopes(grant.GetScopes()),
	}
	if nonce := grant.GetCredentialNonce(); nonce != "" {
		resp.SetExtra("c_nonce", nonce)
		if expAt := grant.GetCredentialNonceExpiresAt(); !expAt.IsZero() {
			if remaining := time.Until(expAt); remaining > 0 {
				resp.SetExtra("c_nonce_expires_in", int64(remaining/time.Second))
			}
		}
	}
	return resp, nil
}
