package oid4vci

import (
	"context"
	"time"
)

// ResponseType the type of authorize request
type ResponseType string

// define the type of authorize request
const (
	Code ResponseType = "code"
)

func (rt ResponseType) String() string {
	return string(rt)
}

// GrantType authorization model
type GrantType string

// define authorization model
const (
	AuthorizationCode GrantType = "authorization_code"
	PreAuthorizedCode GrantType = "pre-authorized_code"
)

func (gt GrantType) String() string {
	return string(gt)
}

// ResponseMode how authorize response parameters are delivered to the redirect URI
type ResponseMode string

// define response modes
const (
	ResponseModeQuery    ResponseMode = "query"
	ResponseModeFragment ResponseMode = "fragment"
)

// ClientInfo the client information model interface
type ClientInfo interface {
	GetID() string
	GetSecret() string
	GetRedirectURIs() []string
	GetGrantTypes() []GrantType
	GetResponseTypes() []ResponseType
	IsPublic() bool
}

// ClientStore the client information storage interface
type ClientStore interface {
	// GetByID resolves client information by the client id.
	// Resolution must be deterministic: the same id always yields the same client.
	GetByID(ctx context.Context, id string) (ClientInfo, error)
}

// SessionInfo an externally-owned end-user session, supplied by the party that
// authenticated the user and threaded through from authorization to token issuance.
// This core never persists sessions on its own; it only carries them forward
// inside issued code grants.
type SessionInfo interface {
	GetSubject() string
	GetData() map[string]interface{}
}

// CodeGrantInfo the grant context bound to an issued authorization code
type CodeGrantInfo interface {
	GetCode() string
	SetCode(code string)
	GetClientID() string
	GetRedirectURI() string
	GetScopes() []string
	GetIssuerState() string
	GetSubject() string
	GetSessionData() map[string]interface{}
	GetExpiresAt() time.Time
}

// PreAuthorizedGrantInfo the grant context bound to a pre-authorized code,
// additionally carrying the credential nonce handed out with the token response
type PreAuthorizedGrantInfo interface {
	GetCode() string
	SetCode(code string)
	GetClientID() string
	GetScopes() []string
	GetAudience() []string
	GetSubject() string
	GetSessionData() map[string]interface{}
	GetCredentialNonce() string
	GetCredentialNonceExpiresAt() time.Time
	GetUserPINHash() string
	GetExpiresAt() time.Time
}

// AuthorizationCodeRepository issues and consumes one-time authorization codes.
//
// Consume must be atomic: under concurrent calls with the same code exactly one
// caller observes the grant and all others observe absence, and removal happens
// as part of the same atomic step. Issuing a code happens-before any successful
// consumption of it.
type AuthorizationCodeRepository interface {
	Issue(ctx context.Context, grant CodeGrantInfo) (string, error)
	Consume(ctx context.Context, code string) (CodeGrantInfo, error)
}

// PreAuthorizedCodeRepository issues and consumes one-time pre-authorized codes
// under the same atomicity contract as AuthorizationCodeRepository.
type PreAuthorizedCodeRepository interface {
	Issue(ctx context.Context, grant PreAuthorizedGrantInfo) (string, error)
	Consume(ctx context.Context, code string) (PreAuthorizedGrantInfo, error)
}

// TokenService turns a claim set into an access token string. Implementations
// may sign (JWT) or hand out opaque handles; signing key management stays on
// the implementation side.
type TokenService interface {
	CreateAccessToken(ctx context.Context, claims map[string]interface{}) (string, error)
}
