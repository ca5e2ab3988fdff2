package server

import (
	"context"
	"net/url"
	"strings"

	"github.com/legit-games/oid4vci"
	"github.com/legit-games/oid4vci/errors"
)

// AuthorizationRequestValidator turns raw authorize parameters into a typed
// request. Validation is pure: no code is issued and nothing is stored.
type AuthorizationRequestValidator struct {
	Config  *Config
	Clients oid4vci.ClientStore
}

// Validate parses and validates the authorize request parameters.
func (v *AuthorizationRequestValidator) Validate(ctx context.Context, params url.Values) (*AuthorizationRequest, *errors.Response) {
	rawType := params.Get("response_type")
	if rawType == "" {
		return nil, errors.NewResponseWithDescription(errors.ErrInvalidRequest, "response_type is required")
	}

	var responseTypes []oid4vci.ResponseType
	for _, t := range strings.Fields(rawType) {
		rt := oid4vci.ResponseType(t)
		if rt != oid4vci.Code || !v.Config.CheckResponseType(rt) {
			return nil, errors.NewResponseWithDescription(errors.ErrUnsupportedResponseType, t)
		}
		responseTypes = append(responseTypes, rt)
	}

	clientID := params.Get("client_id")
	if clientID == "" {
		return nil, errors.NewResponseWithDescription(errors.ErrInvalidRequest, "client_id is required")
	}
	client, err := v.Clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, errors.NewResponseWithDescription(errors.ErrInvalidClient, "unknown client "+clientID)
	}

	req := &AuthorizationRequest{
		Client:        client,
		ResponseTypes: responseTypes,
		Scopes:        splitScopes(params.Get("scope")),
		RedirectURI:   params.Get("redirect_uri"),
		State:         params.Get("state"),
		IssuerState:   params.Get("issuer_state"),
		ResponseMode:  v.Config.DefaultResponseMode,
		Form:          params,
	}
	return req, nil
}

// AccessTokenRequestValidator turns raw token parameters into a typed
// request. Grant-level validation only; the code is consumed later by the
// grant handler, never here.
type AccessTokenRequestValidator struct {
	Config  *Config
	Clients oid4vci.ClientStore
}

// Validate parses and validates the token request parameters. session, when
// non-nil, pre-populates the request's session container; grant handlers
// replace it with the session bound to the consumed code.
func (v *AccessTokenRequestValidator) Validate(ctx context.Context, params url.Values, session oid4vci.SessionInfo) (*AccessTokenRequest, *errors.Response) {
	rawGrant := params.Get("grant_type")
	if rawGrant == "" {
		return nil, errors.NewResponseWithDescription(errors.ErrInvalidRequest, "grant_type is required")
	}
	gt := oid4vci.GrantType(rawGrant)
	if !v.Config.CheckGrantType(gt) {
		return nil, errors.NewResponseWithDescription(errors.ErrUnsupportedGrantType, rawGrant)
	}

	req := &AccessTokenRequest{
		GrantTypes: []oid4vci.GrantType{gt},
		Form:       params,
	}
	if session != nil {
		req.SetSession(session)
	}

	switch gt {
	case oid4vci.AuthorizationCode:
		for _, field := range []string{"client_id", "code", "redirect_uri"} {
			if params.Get(field) == "" {
				return nil, errors.NewResponseWithDescription(errors.ErrInvalidRequest, field+" is required")
			}
		}
	case oid4vci.PreAuthorizedCode:
		if params.Get("pre-authorized_code") == "" {
			return nil, errors.NewResponseWithDescription(errors.ErrInvalidRequest, "pre-authorized_code is required")
		}
		if v.Config.RequireRedirectURIForPreAuthorized && params.Get("redirect_uri") == "" {
			return nil, errors.NewResponseWithDescription(errors.ErrInvalidRequest, "redirect_uri is required")
		}
	default:
		// Custom grant types registered through the token handler registry
		// carry their own parameter contract; dispatch decides at handle time.
	}

	if clientID := params.Get("client_id"); clientID != "" {
		client, err := v.Clients.GetByID(ctx, clientID)
		if err != nil {
			return nil, errors.NewResponseWithDescription(errors.ErrInvalidClient, "unknown client "+clientID)
		}
		req.Client = client
	}
	return req, nil
}

// splitScopes splits a space-delimited scope value, dropping blanks.
func splitScopes(scope string) []string {
	return strings.Fields(scope)
}
