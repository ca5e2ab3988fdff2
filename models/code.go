package models

import (
	"time"
)

// CodeGrant represents the grant context bound to an authorization code.
// It is created when the authorize endpoint issues a code and removed when
// the token endpoint consumes it.
type CodeGrant struct {
	Code        string                 `json:"code"`
	ClientID    string                 `json:"client_id"`
	RedirectURI string                 `json:"redirect_uri,omitempty"`
	Scopes      []string               `json:"scopes,omitempty"`
	IssuerState string                 `json:"issuer_state,omitempty"`
	Subject     string                 `json:"subject"`
	SessionData map[string]interface{} `json:"session_data,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	ExpiresAt   time.Time              `json:"expires_at"`
}

// GetCode the issued code
func (g *CodeGrant) GetCode() string { return g.Code }

// SetCode set the issued code
func (g *CodeGrant) SetCode(code string) { g.Code = code }

// GetClientID bound client id
func (g *CodeGrant) GetClientID() string { return g.ClientID }

// GetRedirectURI bound redirect uri
func (g *CodeGrant) GetRedirectURI() string { return g.RedirectURI }

// GetScopes scopes granted at authorization time
func (g *CodeGrant) GetScopes() []string { return g.Scopes }

// GetIssuerState issuer_state carried over from a credential offer
func (g *CodeGrant) GetIssuerState() string { return g.IssuerState }

// GetSubject the authenticated subject recorded at authorization time
func (g *CodeGrant) GetSubject() string { return g.Subject }

// GetSessionData session data recorded at authorization time
func (g *CodeGrant) GetSessionData() map[string]interface{} { return g.SessionData }

// GetExpiresAt code expiry
func (g *CodeGrant) GetExpiresAt() time.Time { return g.ExpiresAt }

// IsExpired checks if the code grant has expired.
func (g *CodeGrant) IsExpired() bool {
	return !g.ExpiresAt.IsZero() && time.Now().After(g.ExpiresAt)
}

// PreAuthorizedGrant represents the grant context bound to a pre-authorized
// code issued out-of-band, including the credential nonce returned with the
// eventual token response.
type PreAuthorizedGrant struct {
	Code                     string                 `json:"code"`
	ClientID                 string                 `json:"client_id,omitempty"`
	Scopes                   []string               `json:"scopes,omitempty"`
	Audience                 []string               `json:"audience,omitempty"`
	Subject                  string                 `json:"subject"`
	SessionData              map[string]interface{} `json:"session_data,omitempty"`
	CredentialNonce          string                 `json:"credential_nonce,omitempty"`
	CredentialNonceExpiresAt time.Time              `json:"credential_nonce_expires_at,omitempty"`
	UserPINHash              string                 `json:"user_pin_hash,omitempty"`
	CreatedAt                time.Time              `json:"created_at"`
	ExpiresAt                time.Time              `json:"expires_at"`
}

// GetCode the issued code
func (g *PreAuthorizedGrant) GetCode() string { return g.Code }

// SetCode set the issued code
func (g *PreAuthorizedGrant) SetCode(code string) { g.Code = code }

// GetClientID bound client id, may be empty for anonymous offers
func (g *PreAuthorizedGrant) GetClientID() string { return g.ClientID }

// GetScopes scopes granted at issuance time
func (g *PreAuthorizedGrant) GetScopes() []string { return g.Scopes }

// GetAudience audiences the minted token is intended for
func (g *PreAuthorizedGrant) GetAudience() []string { return g.Audience }

// GetSubject the subject the code was issued for
func (g *PreAuthorizedGrant) GetSubject() string { return g.Subject }

// GetSessionData session data recorded at issuance time
func (g *PreAuthorizedGrant) GetSessionData() map[string]interface{} { return g.SessionData }

// GetCredentialNonce the c_nonce bound to this grant
func (g *PreAuthorizedGrant) GetCredentialNonce() string { return g.CredentialNonce }

// GetCredentialNonceExpiresAt c_nonce expiry
func (g *PreAuthorizedGrant) GetCredentialNonceExpiresAt() time.Time {
	return g.CredentialNonceExpiresAt
}

// GetUserPINHash bcrypt hash of the transaction PIN, empty when no PIN is required
func (g *PreAuthorizedGrant) GetUserPINHash() string { return g.UserPINHash }

// GetExpiresAt code expiry
func (g *PreAuthorizedGrant) GetExpiresAt() time.Time { return g.ExpiresAt }

// IsExpired checks if the pre-authorized code grant has expired.
func (g *PreAuthorizedGrant) IsExpired() bool {
	return !g.ExpiresAt.IsZero() && time.Now().After(g.ExpiresAt)
}
