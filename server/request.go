package server

import (
	"net/url"

	"github.com/legit-games/oid4vci"
)

// AuthorizationRequest a validated authorize request. Created by
// ValidateAuthorizationRequest, consumed by authorize endpoint handlers;
// request-scoped and never shared across flows.
type AuthorizationRequest struct {
	Client        oid4vci.ClientInfo
	ResponseTypes []oid4vci.ResponseType
	Scopes        []string
	RedirectURI   string
	State         string
	// IssuerState carries the issuer_state parameter from a credential offer.
	IssuerState  string
	Issuer       string
	ResponseMode oid4vci.ResponseMode
	Form         url.Values
}

// WithIssuer returns a copy of the request carrying the issuer identifier
// used as the iss claim on minted tokens.
func (r *AuthorizationRequest) WithIssuer(issuer string) *AuthorizationRequest {
	nr := *r
	nr.Issuer = issuer
	return &nr
}

// HasResponseType reports whether the request asks for rt.
func (r *AuthorizationRequest) HasResponseType(rt oid4vci.ResponseType) bool {
	for _, t := range r.ResponseTypes {
		if t == rt {
			return true
		}
	}
	return false
}

// AccessTokenRequest a validated token request. The session and granted
// scopes are attached by the grant handler after it consumed the code, so
// callers can observe the full grant context once the exchange succeeded.
type AccessTokenRequest struct {
	Client     oid4vci.ClientInfo
	GrantTypes []oid4vci.GrantType
	Form       url.Values
	Issuer     string

	session       oid4vci.SessionInfo
	grantedScopes []string
	handled       map[oid4vci.GrantType]bool
}

// WithIssuer returns a copy of the request carrying the issuer identifier.
func (r *AccessTokenRequest) WithIssuer(issuer string) *AccessTokenRequest {
	nr := *r
	nr.Issuer = issuer
	return &nr
}

// HasGrantType reports whether the request asks for gt.
func (r *AccessTokenRequest) HasGrantType(gt oid4vci.GrantType) bool {
	for _, t := range r.GrantTypes {
		if t == gt {
			return true
		}
	}
	return false
}

// Session the session restored from the consumed code, nil before the grant
// handler ran.
func (r *AccessTokenRequest) Session() oid4vci.SessionInfo {
	return r.session
}

// SetSession attaches the session restored from the consumed code.
func (r *AccessTokenRequest) SetSession(s oid4vci.SessionInfo) {
	r.session = s
}

// GrantedScopes the scopes granted by the handled grant.
func (r *AccessTokenRequest) GrantedScopes() []string {
	return r.grantedScopes
}

// GrantScopes records the scopes granted by the handled grant.
func (r *AccessTokenRequest) GrantScopes(scopes []string) {
	r.grantedScopes = scopes
}

// MarkHandled records that a handler processed the grant type.
func (r *AccessTokenRequest) MarkHandled(gt oid4vci.GrantType) {
	if r.handled == nil {
		r.handled = make(map[oid4vci.GrantType]bool)
	}
	r.handled[gt] = true
}

// HasHandledGrantType reports whether a handler processed gt.
func (r *AccessTokenRequest) HasHandledGrantType(gt oid4vci.GrantType) bool {
	return r.handled[gt]
}
