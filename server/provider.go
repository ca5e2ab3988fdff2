package server

import (
	"context"
	"net/url"

	"github.com/legit-games/oid4vci"
	"github.com/legit-games/oid4vci/errors"
	"github.com/legit-games/oid4vci/generates"
	"github.com/legit-games/oid4vci/preauth"
	"github.com/legit-games/oid4vci/store"
)

// Provider is the protocol engine facade. It owns the validators, the
// handler registries, and the repositories, and exposes the four lifecycle
// operations of the code and pre-authorized code flows. A Provider is
// immutable after NewProvider returns and safe for concurrent use.
type Provider struct {
	Config  *Config
	Issuer  string
	Clients oid4vci.ClientStore

	CodeRepository    oid4vci.AuthorizationCodeRepository
	PreCodeRepository oid4vci.PreAuthorizedCodeRepository
	Tokens            oid4vci.TokenService

	authValidator  *AuthorizationRequestValidator
	tokenValidator *AccessTokenRequestValidator

	authorizeHandlers AuthorizationEndpointHandlers
	tokenHandlers     TokenEndpointHandlers

	preAuthIssuer *preauth.Issuer
}

// ProviderOption configures a Provider during construction.
type ProviderOption func(*Provider) error

// WithConfig replaces the default configuration.
func WithConfig(cfg *Config) ProviderOption {
	return func(p *Provider) error {
		p.Config = cfg
		return nil
	}
}

// WithIssuer sets the issuer identifier stamped into the iss claim of
// minted tokens.
func WithIssuer(issuer string) ProviderOption {
	return func(p *Provider) error {
		p.Issuer = issuer
		return nil
	}
}

// WithClientStore replaces the default ad-hoc client store.
func WithClientStore(cs oid4vci.ClientStore) ProviderOption {
	return func(p *Provider) error {
		p.Clients = cs
		return nil
	}
}

// WithTokenService replaces the default opaque token service.
func WithTokenService(ts oid4vci.TokenService) ProviderOption {
	return func(p *Provider) error {
		p.Tokens = ts
		return nil
	}
}

// WithAuthorizationCodeRepository replaces the default in-memory code store.
func WithAuthorizationCodeRepository(repo oid4vci.AuthorizationCodeRepository) ProviderOption {
	return func(p *Provider) error {
		p.CodeRepository = repo
		return nil
	}
}

// WithPreAuthorizedCodeRepository replaces the default in-memory
// pre-authorized code store.
func WithPreAuthorizedCodeRepository(repo oid4vci.PreAuthorizedCodeRepository) ProviderOption {
	return func(p *Provider) error {
		p.PreCodeRepository = repo
		return nil
	}
}

// WithAuthorizationEndpointHandler registers a custom authorize handler
// under the response type key. Duplicate keys fail construction.
func WithAuthorizationEndpointHandler(key oid4vci.ResponseType, h AuthorizationEndpointHandler) ProviderOption {
	return func(p *Provider) error {
		if err := p.authorizeHandlers.Append(key, h); err != nil {
			return err
		}
		if !p.Config.CheckResponseType(key) {
			p.Config.AllowedResponseTypes = append(p.Config.AllowedResponseTypes, key)
		}
		return nil
	}
}

// WithTokenEndpointHandler registers a custom token grant handler under the
// grant type key and allows that grant type on incoming requests. Duplicate
// keys fail construction.
func WithTokenEndpointHandler(key oid4vci.GrantType, h TokenEndpointHandler) ProviderOption {
	return func(p *Provider) error {
		if err := p.tokenHandlers.AppendForGrant(key, h); err != nil {
			return err
		}
		if !p.Config.CheckGrantType(key) {
			p.Config.AllowedGrantTypes = append(p.Config.AllowedGrantTypes, key)
		}
		return nil
	}
}

// NewProvider builds a Provider with the built-in handlers for the allowed
// grant types plus any custom handlers from the options. Construction is the
// only place registration can fail; duplicate handler keys report
// ErrHandlerAlreadyRegistered here and never surface at request time.
func NewProvider(opts ...ProviderOption) (*Provider, error) {
	p := &Provider{Config: NewConfig()}

	// Custom-handler options append before the built-ins so a caller
	// claiming a built-in key fails loudly instead of being shadowed.
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	if p.Clients == nil {
		p.Clients = store.NewAdhocClientStore()
	}
	if p.Tokens == nil {
		p.Tokens = generates.NewOpaqueAccessTokenService()
	}
	if p.CodeRepository == nil {
		cs := store.NewAuthorizationCodeStore()
		if p.Config.CodeTTL > 0 {
			cs.SetTTL(p.Config.CodeTTL)
		}
		p.CodeRepository = cs
	}
	if p.PreCodeRepository == nil {
		ps := store.NewPreAuthorizedCodeStore()
		if p.Config.CodeTTL > 0 {
			ps.SetTTL(p.Config.CodeTTL)
		}
		p.PreCodeRepository = ps
	}

	if p.Config.CheckResponseType(oid4vci.Code) && !p.authorizeHandlers.keys[oid4vci.Code] {
		if err := p.authorizeHandlers.Append(oid4vci.Code, NewAuthorizeCodeHandler(p.CodeRepository, p.Config.CodeTTL)); err != nil {
			return nil, err
		}
	}
	if p.Config.CheckGrantType(oid4vci.AuthorizationCode) && !p.tokenHandlers.keys[oid4vci.AuthorizationCode] {
		if err := p.tokenHandlers.AppendForGrant(oid4vci.AuthorizationCode, NewAuthorizationCodeGrantHandler(p.Config, p.CodeRepository, p.Tokens)); err != nil {
			return nil, err
		}
	}
	if p.Config.CheckGrantType(oid4vci.PreAuthorizedCode) && !p.tokenHandlers.keys[oid4vci.PreAuthorizedCode] {
		if err := p.tokenHandlers.AppendForGrant(oid4vci.PreAuthorizedCode, NewPreAuthorizedCodeGrantHandler(p.Config, p.PreCodeRepository, p.Tokens)); err != nil {
			return nil, err
		}
	}

	p.authValidator = &AuthorizationRequestValidator{Config: p.Config, Clients: p.Clients}
	p.tokenValidator = &AccessTokenRequestValidator{Config: p.Config, Clients: p.Clients}
	p.preAuthIssuer = preauth.NewIssuer(p.PreCodeRepository)
	return p, nil
}

// CreateAuthorizationRequest validates raw authorize parameters into a typed
// request. Pure validation: nothing is issued or stored.
func (p *Provider) CreateAuthorizationRequest(ctx context.Context, params url.Values) (*AuthorizationRequest, *errors.Response) {
	req, resp := p.authValidator.Validate(ctx, params)
	if resp != nil {
		return nil, resp
	}
	return req.WithIssuer(p.Issuer), nil
}

// CreateAuthorizationResponse runs the authorize handlers for a validated
// request. The session must carry a non-empty subject; otherwise the request
// fails before any handler runs and no code is issued.
func (p *Provider) CreateAuthorizationResponse(ctx context.Context, r *AuthorizationRequest, session oid4vci.SessionInfo) (*AuthorizationResponse, *errors.Response) {
	if session == nil || session.GetSubject() == "" {
		return nil, errors.NewResponseWithDescription(errors.ErrAccessDenied, "authenticated session with a subject is required")
	}
	return p.authorizeHandlers.Dispatch(ctx, r, session)
}

// CreateAccessTokenRequest validates raw token parameters into a typed
// request.
func (p *Provider) CreateAccessTokenRequest(ctx context.Context, params url.Values) (*AccessTokenRequest, *errors.Response) {
	req, resp := p.tokenValidator.Validate(ctx, params, nil)
	if resp != nil {
		return nil, resp
	}
	return req.WithIssuer(p.Issuer), nil
}

// CreateAccessTokenResponse runs the token grant handlers for a validated
// request.
func (p *Provider) CreateAccessTokenResponse(ctx context.Context, r *AccessTokenRequest) (*AccessTokenResponse, *errors.Response) {
	return p.tokenHandlers.Dispatch(ctx, r)
}

// IssuePreAuthorizedCode issues a pre-authorized code with a fresh
// credential nonce through the provider's repository. Used by issuers
// preparing credential offers out of band.
func (p *Provider) IssuePreAuthorizedCode(ctx context.Context, req preauth.IssueRequest) (*preauth.IssuedCode, error) {
	return p.preAuthIssuer.Issue(ctx, req)
}
