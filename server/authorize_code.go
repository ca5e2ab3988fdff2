package server

import (
	"context"
	"time"

	"github.com/legit-games/oid4vci"
	"github.com/legit-games/oid4vci/errors"
	"github.com/legit-games/oid4vci/models"
)

// NewAuthorizeCodeHandler create the built-in authorize handler for
// response_type=code.
func NewAuthorizeCodeHandler(repo oid4vci.AuthorizationCodeRepository, codeTTL time.Duration) *AuthorizeCodeHandler {
	return &AuthorizeCodeHandler{Repository: repo, CodeTTL: codeTTL}
}

// AuthorizeCodeHandler issues one-time authorization codes bound to the
// request context and the caller-authenticated session.
type AuthorizeCodeHandler struct {
	Repository oid4vci.AuthorizationCodeRepository
	// CodeTTL zero leaves the repository default in place.
	CodeTTL time.Duration
}

// CanHandleAuthorizationEndpointRequest accepts requests asking for code.
func (h *AuthorizeCodeHandler) CanHandleAuthorizationEndpointRequest(r *AuthorizationRequest) bool {
	return r.HasResponseType(oid4vci.Code)
}

// HandleAuthorizationEndpointRequest issues the code and builds the
// authorize response. Once Issue succeeded the transition is final; callers
// must not treat cancellation after this point as a rollback.
func (h *AuthorizeCodeHandler) HandleAuthorizationEndpointRequest(ctx context.Context, r *AuthorizationRequest, session oid4vci.SessionInfo) (*AuthorizationResponse, *errors.Response) {
	grant := &models.CodeGrant{
		ClientID:    r.Client.GetID(),
		RedirectURI: r.RedirectURI,
		Scopes:      r.Scopes,
		IssuerState: r.IssuerState,
		Subject:     session.GetSubject(),
		SessionData: session.GetData(),
	}
	if h.CodeTTL > 0 {
		grant.ExpiresAt = time.Now().Add(h.CodeTTL)
	}

	code, err := h.Repository.Issue(ctx, grant)
	if err != nil {
		return nil, errors.NewResponseWithDescription(errors.ErrServerError, "failed to issue authorization code: "+err.Error())
	}

	redirectURI := r.RedirectURI
	if redirectURI == "" {
		if uris := r.Client.GetRedirectURIs(); len(uris) > 0 {
			redirectURI = uris[0]
		}
	}

	return &AuthorizationResponse{
		Code:         code,
		State:        r.State,
		RedirectURI:  redirectURI,
		ResponseMode: r.ResponseMode,
		Scope:        joinScopes(r.Scopes),
	}, nil
}
