package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/legit-games/oid4vci"
	"github.com/legit-games/oid4vci/errors"
)

// AuthorizationEndpointHandler handles authorize requests for one response
// type. Handlers may suspend on I/O (code storage).
type AuthorizationEndpointHandler interface {
	CanHandleAuthorizationEndpointRequest(r *AuthorizationRequest) bool
	HandleAuthorizationEndpointRequest(ctx context.Context, r *AuthorizationRequest, session oid4vci.SessionInfo) (*AuthorizationResponse, *errors.Response)
}

// TokenEndpointHandler handles token requests for one grant type. Handlers
// may suspend on I/O (code consumption, token signing).
type TokenEndpointHandler interface {
	CanHandleTokenEndpointRequest(r *AccessTokenRequest) bool
	HandleTokenEndpointRequest(ctx context.Context, r *AccessTokenRequest) (*AccessTokenResponse, *errors.Response)
}

// AuthorizationEndpointHandlers an ordered, keyed collection of authorize
// handlers. Registration happens at provider construction only; once request
// processing begins the collection is read-only, so dispatch needs no
// synchronization.
type AuthorizationEndpointHandlers struct {
	keys     map[oid4vci.ResponseType]bool
	handlers []AuthorizationEndpointHandler
}

// Append registers a handler under the response type key. Registering a
// second handler under an already-present key is a configuration mistake and
// fails so built-in behavior can never be shadowed silently.
func (hs *AuthorizationEndpointHandlers) Append(key oid4vci.ResponseType, h AuthorizationEndpointHandler) error {
	if hs.keys == nil {
		hs.keys = make(map[oid4vci.ResponseType]bool)
	}
	if hs.keys[key] {
		return fmt.Errorf("%w: response type %q", errors.ErrHandlerAlreadyRegistered, key)
	}
	hs.keys[key] = true
	hs.handlers = append(hs.handlers, h)
	return nil
}

// Dispatch selects the first registered handler accepting the request and
// runs it. No match reports unsupported_response_type.
func (hs *AuthorizationEndpointHandlers) Dispatch(ctx context.Context, r *AuthorizationRequest, session oid4vci.SessionInfo) (*AuthorizationResponse, *errors.Response) {
	for _, h := range hs.handlers {
		if !h.CanHandleAuthorizationEndpointRequest(r) {
			continue
		}
		return h.HandleAuthorizationEndpointRequest(ctx, r, session)
	}
	return nil, errors.NewResponseWithDescription(errors.ErrUnsupportedResponseType, joinResponseTypes(r.ResponseTypes))
}

// TokenEndpointHandlers an ordered, keyed collection of token grant handlers
// with the same configuration-time-only mutation contract.
type TokenEndpointHandlers struct {
	keys     map[oid4vci.GrantType]bool
	handlers []TokenEndpointHandler
}

// AppendForGrant registers a handler under the grant type key. Duplicate keys
// fail; distinct custom keys may coexist freely.
func (hs *TokenEndpointHandlers) AppendForGrant(key oid4vci.GrantType, h TokenEndpointHandler) error {
	if hs.keys == nil {
		hs.keys = make(map[oid4vci.GrantType]bool)
	}
	if hs.keys[key] {
		return fmt.Errorf("%w: grant type %q", errors.ErrHandlerAlreadyRegistered, key)
	}
	hs.keys[key] = true
	hs.handlers = append(hs.handlers, h)
	return nil
}

// Dispatch selects the first registered handler accepting the request and
// runs it. No match reports unsupported_grant_type.
func (hs *TokenEndpointHandlers) Dispatch(ctx context.Context, r *AccessTokenRequest) (*AccessTokenResponse, *errors.Response) {
	for _, h := range hs.handlers {
		if !h.CanHandleTokenEndpointRequest(r) {
			continue
		}
		return h.HandleTokenEndpointRequest(ctx, r)
	}
	return nil, errors.NewResponseWithDescription(errors.ErrUnsupportedGrantType, joinGrantTypes(r.GrantTypes))
}

func joinResponseTypes(rts []oid4vci.ResponseType) string {
	parts := make([]string, 0, len(rts))
	for _, rt := range rts {
		parts = append(parts, rt.String())
	}
	return strings.Join(parts, " ")
}

func joinGrantTypes(gts []oid4vci.GrantType) string {
	parts := make([]string, 0, len(gts))
	for _, gt := range gts {
		parts = append(parts, gt.String())
	}
	return strings.Join(parts, " ")
}
