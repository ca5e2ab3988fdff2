package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/legit-games/oid4vci"
	"github.com/legit-games/oid4vci/errors"
	"github.com/legit-games/oid4vci/models"
)

// DefaultCodeTTL is the default lifetime of issued one-time codes.
const DefaultCodeTTL = 10 * time.Minute

func newCode() string {
	return uuid.NewString()
}

// NewAuthorizationCodeStore create an in-memory authorization code store.
// Consume looks up and deletes under a single lock, so of N concurrent
// consumers of the same code exactly one succeeds and the rest observe
// absence.
func NewAuthorizationCodeStore() *AuthorizationCodeStore {
	return &AuthorizationCodeStore{
		ttl:   DefaultCodeTTL,
		codes: make(map[string]*models.CodeGrant),
	}
}

// AuthorizationCodeStore one-time authorization code store (in-memory)
type AuthorizationCodeStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	codes map[string]*models.CodeGrant
}

// SetTTL sets the lifetime applied to codes issued without an explicit expiry.
func (s *AuthorizationCodeStore) SetTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ttl = ttl
}

// Issue stores the grant under a fresh code (or the pre-set one) and returns it.
func (s *AuthorizationCodeStore) Issue(ctx context.Context, grant oid4vci.CodeGrantInfo) (string, error) {
	g := asCodeGrant(grant)

	s.mu.Lock()
	defer s.mu.Unlock()

	if g.Code == "" {
		g.Code = newCode()
	}
	g.CreatedAt = time.Now()
	if g.ExpiresAt.IsZero() {
		g.ExpiresAt = g.CreatedAt.Add(s.ttl)
	}
	s.codes[g.Code] = g
	return g.Code, nil
}

// Consume removes and returns the grant for code. Expired or unknown codes
// observe errors.ErrAuthorizationCodeNotFound.
func (s *AuthorizationCodeStore) Consume(ctx context.Context, code string) (oid4vci.CodeGrantInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.codes[code]
	if !ok {
		return nil, errors.ErrAuthorizationCodeNotFound
	}
	delete(s.codes, code)
	if g.IsExpired() {
		return nil, errors.ErrAuthorizationCodeNotFound
	}
	return g, nil
}

// NewPreAuthorizedCodeStore create an in-memory pre-authorized code store
// with the same single-lock consume semantics.
func NewPreAuthorizedCodeStore() *PreAuthorizedCodeStore {
	return &PreAuthorizedCodeStore{
		ttl:   DefaultCodeTTL,
		codes: make(map[string]*models.PreAuthorizedGrant),
	}
}

// PreAuthorizedCodeStore one-time pre-authorized code store (in-memory)
type PreAuthorizedCodeStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	codes map[string]*models.PreAuthorizedGrant
}

// SetTTL sets the lifetime applied to codes issued without an explicit expiry.
func (s *PreAuthorizedCodeStore) SetTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ttl = ttl
}

// Issue stores the grant under a fresh code (or the pre-set one) and returns it.
func (s *PreAuthorizedCodeStore) Issue(ctx context.Context, grant oid4vci.PreAuthorizedGrantInfo) (string, error) {
	g := asPreAuthorizedGrant(grant)

	s.mu.Lock()
	defer s.mu.Unlock()

	if g.Code == "" {
		g.Code = newCode()
	}
	g.CreatedAt = time.Now()
	if g.ExpiresAt.IsZero() {
		g.ExpiresAt = g.CreatedAt.Add(s.ttl)
	}
	s.codes[g.Code] = g
	return g.Code, nil
}

// Consume removes and returns the grant for code. Expired or unknown codes
// observe errors.ErrPreAuthorizedCodeNotFound.
func (s *PreAuthorizedCodeStore) Consume(ctx context.Context, code string) (oid4vci.PreAuthorizedGrantInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.codes[code]
	if !ok {
		return nil, errors.ErrPreAuthorizedCodeNotFound
	}
	delete(s.codes, code)
	if g.IsExpired() {
		return nil, errors.ErrPreAuthorizedCodeNotFound
	}
	return g, nil
}

// asCodeGrant reuses the concrete grant when possible so callers can observe
// the assigned code through the interface they passed in.
func asCodeGrant(grant oid4vci.CodeGrantInfo) *models.CodeGrant {
	if g, ok := grant.(*models.CodeGrant); ok {
		return g
	}
	return &models.CodeGrant{
		Code:        grant.GetCode(),
		ClientID:    grant.GetClientID(),
		RedirectURI: grant.GetRedirectURI(),
		Scopes:      grant.GetScopes(),
		IssuerState: grant.GetIssuerState(),
		Subject:     grant.GetSubject(),
		SessionData: grant.GetSessionData(),
		ExpiresAt:   grant.GetExpiresAt(),
	}
}

func asPreAuthorizedGrant(grant oid4vci.PreAuthorizedGrantInfo) *models.PreAuthorizedGrant {
	if g, ok := grant.(*models.PreAuthorizedGrant); ok {
		return g
	}
	return &models.PreAuthorizedGrant{
		Code:                     grant.GetCode(),
		ClientID:                 grant.GetClientID(),
		Scopes:                   grant.GetScopes(),
		Audience:                 grant.GetAudience(),
		Subject:                  grant.GetSubject(),
		SessionData:              grant.GetSessionData(),
		CredentialNonce:          grant.GetCredentialNonce(),
		CredentialNonceExpiresAt: grant.GetCredentialNonceExpiresAt(),
		UserPINHash:              grant.GetUserPINHash(),
		ExpiresAt:                grant.GetExpiresAt(),
	}
}
