package server

import (
	"strings"
	"time"

	"github.com/legit-games/oid4vci"
)

// AuthorizationResponse the outcome of a successful authorize step. Created
// exactly once per authorization; immutable thereafter.
type AuthorizationResponse struct {
	Code         string
	State        string
	RedirectURI  string
	ResponseMode oid4vci.ResponseMode
	Scope        string
}

// AccessTokenResponse the outcome of a successful token exchange
type AccessTokenResponse struct {
	AccessToken string
	TokenType   string
	// ExpiresIn zero omits expires_in from the payload.
	ExpiresIn time.Duration
	Scope     string
	// Extra carries protocol extensions such as c_nonce for credential
	// issuance flows.
	Extra map[string]interface{}
}

// SetExtra records an extension field on the response.
func (r *AccessTokenResponse) SetExtra(key string, value interface{}) {
	if r.Extra == nil {
		r.Extra = make(map[string]interface{})
	}
	r.Extra[key] = value
}

func joinScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}
