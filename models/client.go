package models

import (
	"github.com/legit-games/oid4vci"
)

// Client client model
type Client struct {
	ID            string                 `json:"id"`
	Secret        string                 `json:"secret,omitempty"`
	RedirectURIs  []string               `json:"redirect_uris,omitempty"`
	GrantTypes    []oid4vci.GrantType    `json:"grant_types,omitempty"`
	ResponseTypes []oid4vci.ResponseType `json:"response_types,omitempty"`
	Public        bool                   `json:"public,omitempty"`
}

// GetID client id
func (c *Client) GetID() string {
	return c.ID
}

// GetSecret client secret
func (c *Client) GetSecret() string {
	return c.Secret
}

// GetRedirectURIs registered redirect uris
func (c *Client) GetRedirectURIs() []string {
	return c.RedirectURIs
}

// GetGrantTypes allowed grant types
func (c *Client) GetGrantTypes() []oid4vci.GrantType {
	return c.GrantTypes
}

// GetResponseTypes allowed response types
func (c *Client) GetResponseTypes() []oid4vci.ResponseType {
	return c.ResponseTypes
}

// IsPublic public
func (c *Client) IsPublic() bool {
	return c.Public
}
