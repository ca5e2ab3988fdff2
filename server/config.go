package server

import (
	"time"

	"github.com/legit-games/oid4vci"
)

// Config configuration parameters
type Config struct {
	TokenType            string                 // token type returned on token responses
	AllowedResponseTypes []oid4vci.ResponseType // allow the authorization type
	AllowedGrantTypes    []oid4vci.GrantType    // allow the grant type
	// DefaultResponseMode applies when the authorize request names none.
	DefaultResponseMode oid4vci.ResponseMode
	// AccessTokenExp is surfaced as expires_in on token responses; zero omits it.
	AccessTokenExp time.Duration
	// CodeTTL bounds the lifetime of issued one-time codes; zero leaves the
	// repository default in place.
	CodeTTL time.Duration
	// RequireRedirectURIForPreAuthorized makes redirect_uri mandatory on
	// pre-authorized token requests. Profiles that bind pre-authorized codes
	// to a redirect target can switch this on; default off.
	RequireRedirectURIForPreAuthorized bool
}

// NewConfig create to configuration instance
func NewConfig() *Config {
	return &Config{
		TokenType:            "Bearer",
		AllowedResponseTypes: []oid4vci.ResponseType{oid4vci.Code},
		AllowedGrantTypes: []oid4vci.GrantType{
			oid4vci.AuthorizationCode,
			oid4vci.PreAuthorizedCode,
		},
		DefaultResponseMode: oid4vci.ResponseModeQuery,
		AccessTokenExp:      time.Hour * 2,
		CodeTTL:             time.Minute * 10,
	}
}

// CheckResponseType check allows response type
func (c *Config) CheckResponseType(rt oid4vci.ResponseType) bool {
	for _, art := range c.AllowedResponseTypes {
		if art == rt {
			return true
		}
	}
	return false
}

// CheckGrantType check allows grant type
func (c *Config) CheckGrantType(gt oid4vci.GrantType) bool {
	for _, agt := range c.AllowedGrantTypes {
		if agt == gt {
			return true
		}
	}
	return false
}
