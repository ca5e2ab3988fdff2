// Package preauth issues pre-authorized codes for out-of-band credential
// issuance flows. A code is bound to client, scopes, audience, the caller's
// session, and a fresh credential nonce; storage and single-use consumption
// are delegated to the pre-authorized code repository.
package preauth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/legit-games/oid4vci"
	"github.com/legit-games/oid4vci/errors"
	"github.com/legit-games/oid4vci/models"
)

// DefaultNonceExp default credential nonce lifetime
const DefaultNonceExp = 10 * time.Minute

// IssueRequest the input for issuing a pre-authorized code
type IssueRequest struct {
	ClientID string
	Scopes   []string
	Audience []string
	Session  oid4vci.SessionInfo
	// UserPIN, when set, must be presented by the wallet at the token
	// endpoint. Only its bcrypt hash is stored.
	UserPIN string
	// CredentialNonce is generated when empty.
	CredentialNonce          string
	CredentialNonceExpiresAt time.Time
	// TTL bounds the code lifetime; zero uses the repository default.
	TTL time.Duration
}

// IssuedCode the issued pre-authorized code plus its credential nonce
type IssuedCode struct {
	Code                     string
	CredentialNonce          string
	CredentialNonceExpiresAt time.Time
}

// NewIssuer create a pre-authorized code issuer on top of the repository.
func NewIssuer(repo oid4vci.PreAuthorizedCodeRepository) *Issuer {
	return &Issuer{repo: repo}
}

// Issuer issues pre-authorized codes
type Issuer struct {
	repo oid4vci.PreAuthorizedCodeRepository
}

// Issue builds the grant, hashes any user PIN, stores it through the
// repository, and returns the code with its credential nonce. The returned
// code is consumable exactly once at the token endpoint.
func (i *Issuer) Issue(ctx context.Context, req IssueRequest) (*IssuedCode, error) {
	if req.Session == nil || req.Session.GetSubject() == "" {
		return nil, errors.ErrSessionSubjectRequired
	}

	nonce := req.CredentialNonce
	if nonce == "" {
		nonce = uuid.NewString()
	}
	nonceExp := req.CredentialNonceExpiresAt
	if nonceExp.IsZero() {
		nonceExp = time.Now().Add(DefaultNonceExp)
	}

	grant := &models.PreAuthorizedGrant{
		ClientID:                 req.ClientID,
		Scopes:                   req.Scopes,
		Audience:                 req.Audience,
		Subject:                  req.Session.GetSubject(),
		SessionData:              req.Session.GetData(),
		CredentialNonce:          nonce,
		CredentialNonceExpiresAt: nonceExp,
	}
	if req.TTL > 0 {
		grant.ExpiresAt = time.Now().Add(req.TTL)
	}
	if req.UserPIN != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.UserPIN), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		grant.UserPINHash = string(hash)
	}

	code, err := i.repo.Issue(ctx, grant)
	if err != nil {
		return nil, err
	}
	return &IssuedCode{
		Code:                     code,
		CredentialNonce:          nonce,
		CredentialNonceExpiresAt: nonceExp,
	}, nil
}

// VerifyUserPIN checks a presented PIN against the stored bcrypt hash.
// An empty hash means no PIN was required.
func VerifyUserPIN(hash, pin string) error {
	if hash == "" {
		return nil
	}
	if pin == "" {
		return errors.ErrInvalidUserPIN
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
		return errors.ErrInvalidUserPIN
	}
	return nil
}
