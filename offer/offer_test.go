package offer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreAuthorizedOfferRoundTrip(t *testing.T) {
	o := WithPreAuthorizedCodeGrant(
		"https://issuer.example",
		[]string{"UniversityDegreeCredential"},
		"code-123",
		&TxCode{InputMode: "numeric", Length: 6},
	)

	u, err := o.ToURL()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "openid-credential-offer://"), u)

	parsed, err := Parse(u)
	require.NoError(t, err)
	assert.Equal(t, "https://issuer.example", parsed.CredentialIssuer)
	assert.Equal(t, []string{"UniversityDegreeCredential"}, parsed.CredentialConfigurationIDs)
	require.NotNil(t, parsed.Grants)
	require.NotNil(t, parsed.Grants.PreAuthorizedCode)
	assert.Equal(t, "code-123", parsed.Grants.PreAuthorizedCode.PreAuthorizedCode)
	require.NotNil(t, parsed.Grants.PreAuthorizedCode.TxCode)
	assert.Equal(t, 6, parsed.Grants.PreAuthorizedCode.TxCode.Length)
}

func TestAuthorizationCodeOfferRoundTrip(t *testing.T) {
	o := WithAuthorizationCodeGrant("https://issuer.example", []string{"PID"}, "state-9")

	u, err := o.ToURL()
	require.NoError(t, err)

	parsed, err := Parse(u)
	require.NoError(t, err)
	require.NotNil(t, parsed.Grants)
	require.NotNil(t, parsed.Grants.AuthorizationCode)
	assert.Equal(t, "state-9", parsed.Grants.AuthorizationCode.IssuerState)
	assert.Nil(t, parsed.Grants.PreAuthorizedCode)
}

func TestParseRejectsMalformedURLs(t *testing.T) {
	for _, raw := range []string{
		"",
		"https://example.com/?credential_offer=%7B%7D",
		"openid-credential-offer://?credential_offer=not-json",
		"openid-credential-offer://?other=1",
	} {
		_, err := Parse(raw)
		assert.Error(t, err, raw)
	}
}
