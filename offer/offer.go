// Package offer models credential offers: the artifact an issuer shares with
// a wallet (QR code, deep link) to start either the authorization code flow
// (carrying issuer_state) or the pre-authorized code flow (carrying the code
// itself and an optional transaction code hint).
package offer

import (
	"encoding/json"
	"net/url"

	"github.com/legit-games/oid4vci/errors"
)

// Scheme the custom URL scheme wallets register for credential offers
const Scheme = "openid-credential-offer"

// AuthorizationCodeGrant offer parameters for the authorization code flow
type AuthorizationCodeGrant struct {
	IssuerState         string `json:"issuer_state,omitempty"`
	AuthorizationServer string `json:"authorization_server,omitempty"`
}

// TxCode hint describing the transaction code the wallet must collect from
// the user before redeeming a pre-authorized code
type TxCode struct {
	InputMode   string `json:"input_mode,omitempty"`
	Length      int    `json:"length,omitempty"`
	Description string `json:"description,omitempty"`
}

// PreAuthorizedCodeGrant offer parameters for the pre-authorized code flow
type PreAuthorizedCodeGrant struct {
	PreAuthorizedCode string  `json:"pre-authorized_code"`
	TxCode            *TxCode `json:"tx_code,omitempty"`
}

// Grants the grant section of a credential offer; absent grants mean the
// wallet should discover supported grants from issuer metadata
type Grants struct {
	AuthorizationCode *AuthorizationCodeGrant `json:"authorization_code,omitempty"`
	PreAuthorizedCode *PreAuthorizedCodeGrant `json:"pre-authorized_code,omitempty"`
}

// CredentialOffer a credential offer document
type CredentialOffer struct {
	CredentialIssuer           string   `json:"credential_issuer"`
	CredentialConfigurationIDs []string `json:"credential_configuration_ids"`
	Grants                     *Grants  `json:"grants,omitempty"`
}

// WithAuthorizationCodeGrant builds an offer for the authorization code flow.
func WithAuthorizationCodeGrant(credentialIssuer string, configurationIDs []string, issuerState string) *CredentialOffer {
	return &CredentialOffer{
		CredentialIssuer:           credentialIssuer,
		CredentialConfigurationIDs: configurationIDs,
		Grants: &Grants{
			AuthorizationCode: &AuthorizationCodeGrant{IssuerState: issuerState},
		},
	}
}

// WithPreAuthorizedCodeGrant builds an offer for the pre-authorized code flow.
func WithPreAuthorizedCodeGrant(credentialIssuer string, configurationIDs []string, code string, txCode *TxCode) *CredentialOffer {
	return &CredentialOffer{
		CredentialIssuer:           credentialIssuer,
		CredentialConfigurationIDs: configurationIDs,
		Grants: &Grants{
			PreAuthorizedCode: &PreAuthorizedCodeGrant{PreAuthorizedCode: code, TxCode: txCode},
		},
	}
}

// ToURL encodes the offer by value into an offer URL:
// openid-credential-offer://?credential_offer=<json>
func (o *CredentialOffer) ToURL() (string, error) {
	if o.CredentialIssuer == "" {
		return "", errors.New("credential_issuer is required")
	}
	data, err := json.Marshal(o)
	if err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("credential_offer", string(data))
	return Scheme + "://?" + q.Encode(), nil
}

// Parse decodes an offer URL produced by ToURL.
func Parse(rawURL string) (*CredentialOffer, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != Scheme {
		return nil, errors.New("not a credential offer URL")
	}
	payload := u.Query().Get("credential_offer")
	if payload == "" {
		return nil, errors.New("missing credential_offer parameter")
	}
	var o CredentialOffer
	if err := json.Unmarshal([]byte(payload), &o); err != nil {
		return nil, err
	}
	if o.CredentialIssuer == "" {
		return nil, errors.New("credential_issuer is required")
	}
	return &o, nil
}
