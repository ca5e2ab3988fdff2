package preauth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legit-games/oid4vci/errors"
	"github.com/legit-games/oid4vci/models"
	"github.com/legit-games/oid4vci/store"
)

func TestIssuerRequiresSessionSubject(t *testing.T) {
	iss := NewIssuer(store.NewPreAuthorizedCodeStore())

	_, err := iss.Issue(context.Background(), IssueRequest{Session: nil})
	assert.ErrorIs(t, err, errors.ErrSessionSubjectRequired)

	_, err = iss.Issue(context.Background(), IssueRequest{Session: models.NewSession("", nil)})
	assert.ErrorIs(t, err, errors.ErrSessionSubjectRequired)
}

func TestIssuerMintsNonceAndBindsGrant(t *testing.T) {
	ctx := context.Background()
	repo := store.NewPreAuthorizedCodeStore()
	iss := NewIssuer(repo)

	issued, err := iss.Issue(ctx, IssueRequest{
		ClientID: "client-1",
		Scopes:   []string{"credential"},
		Audience: []string{"https://wallet.example"},
		Session:  models.NewSession("user-1", map[string]interface{}{"tenant": "acme"}),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Code)
	assert.NotEmpty(t, issued.CredentialNonce)
	assert.WithinDuration(t, time.Now().Add(DefaultNonceExp), issued.CredentialNonceExpiresAt, time.Minute)

	grant, err := repo.Consume(ctx, issued.Code)
	require.NoError(t, err)
	assert.Equal(t, "user-1", grant.GetSubject())
	assert.Equal(t, issued.CredentialNonce, grant.GetCredentialNonce())
	assert.Equal(t, []string{"https://wallet.example"}, grant.GetAudience())
	assert.Equal(t, "acme", grant.GetSessionData()["tenant"])
	assert.Empty(t, grant.GetUserPINHash())
}

func TestIssuerKeepsCallerNonce(t *testing.T) {
	iss := NewIssuer(store.NewPreAuthorizedCodeStore())

	exp := time.Now().Add(time.Minute)
	issued, err := iss.Issue(context.Background(), IssueRequest{
		Session:                  models.NewSession("user-1", nil),
		CredentialNonce:          "caller-nonce",
		CredentialNonceExpiresAt: exp,
	})
	require.NoError(t, err)
	assert.Equal(t, "caller-nonce", issued.CredentialNonce)
	assert.Equal(t, exp, issued.CredentialNonceExpiresAt)
}

func TestVerifyUserPIN(t *testing.T) {
	ctx := context.Background()
	repo := store.NewPreAuthorizedCodeStore()
	iss := NewIssuer(repo)

	issued, err := iss.Issue(ctx, IssueRequest{
		Session: models.NewSession("user-1", nil),
		UserPIN: "493536",
	})
	require.NoError(t, err)

	grant, err := repo.Consume(ctx, issued.Code)
	require.NoError(t, err)
	require.NotEmpty(t, grant.GetUserPINHash())

	assert.NoError(t, VerifyUserPIN(grant.GetUserPINHash(), "493536"))
	assert.ErrorIs(t, VerifyUserPIN(grant.GetUserPINHash(), "000000"), errors.ErrInvalidUserPIN)
	assert.ErrorIs(t, VerifyUserPIN(grant.GetUserPINHash(), ""), errors.ErrInvalidUserPIN)

	// no PIN required when the grant has no hash
	assert.NoError(t, VerifyUserPIN("", "anything"))
}
