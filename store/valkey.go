package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	valkey "github.com/valkey-io/valkey-go"

	"github.com/legit-games/oid4vci"
	"github.com/legit-games/oid4vci/errors"
	"github.com/legit-games/oid4vci/models"
)

// ValkeyCodeStore stores one-time codes in Valkey (Redis-compatible).
// Consume uses GETDEL so lookup and removal happen in one server-side step;
// under concurrent consumers of the same code only one GETDEL returns the
// value, the rest observe nil.
type ValkeyCodeStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyCodeStore creates a Valkey-backed code store.
// addr example: "127.0.0.1:6379"; prefix helps namespace keys.
func NewValkeyCodeStore(addr string, prefix string) (*ValkeyCodeStore, error) {
	cli, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, err
	}
	return NewValkeyCodeStoreWithClient(cli, prefix), nil
}

// NewValkeyCodeStoreWithClient creates a store with an existing Valkey client.
func NewValkeyCodeStoreWithClient(client valkey.Client, prefix string) *ValkeyCodeStore {
	if prefix == "" {
		prefix = "oid4vci:"
	}
	return &ValkeyCodeStore{
		client: client,
		prefix: prefix,
		ttl:    DefaultCodeTTL,
	}
}

// SetTTL sets the TTL for issued codes.
func (s *ValkeyCodeStore) SetTTL(ttl time.Duration) {
	s.ttl = ttl
}

func (s *ValkeyCodeStore) key(kind, code string) string {
	return fmt.Sprintf("%s%s:%s", s.prefix, kind, code)
}

func (s *ValkeyCodeStore) set(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal code grant: %w", err)
	}
	return s.client.Do(ctx, s.client.B().Set().Key(key).Value(string(data)).Ex(ttl).Build()).Error()
}

// getdel atomically fetches and removes the value at key; empty string means absent.
func (s *ValkeyCodeStore) getdel(ctx context.Context, key string) (string, error) {
	res := s.client.Do(ctx, s.client.B().Getdel().Key(key).Build())
	if res.Error() != nil {
		if valkey.IsValkeyNil(res.Error()) {
			return "", nil
		}
		return "", res.Error()
	}
	val, err := res.ToString()
	if err != nil {
		return "", err
	}
	return val, nil
}

// Issue stores the grant with TTL under code:<code> and returns the code.
func (s *ValkeyCodeStore) Issue(ctx context.Context, grant oid4vci.CodeGrantInfo) (string, error) {
	g := asCodeGrant(grant)
	if g.Code == "" {
		g.Code = newCode()
	}
	g.CreatedAt = time.Now().UTC()
	ttl := s.ttl
	if !g.ExpiresAt.IsZero() {
		ttl = time.Until(g.ExpiresAt)
	} else {
		g.ExpiresAt = g.CreatedAt.Add(ttl)
	}
	if err := s.set(ctx, s.key("code", g.Code), g, ttl); err != nil {
		return "", err
	}
	return g.Code, nil
}

// Consume atomically removes and returns the grant for code.
func (s *ValkeyCodeStore) Consume(ctx context.Context, code string) (oid4vci.CodeGrantInfo, error) {
	val, err := s.getdel(ctx, s.key("code", code))
	if err != nil {
		return nil, err
	}
	if val == "" {
		return nil, errors.ErrAuthorizationCodeNotFound
	}
	var g models.CodeGrant
	if err := json.Unmarshal([]byte(val), &g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal code grant: %w", err)
	}
	if g.IsExpired() {
		return nil, errors.ErrAuthorizationCodeNotFound
	}
	return &g, nil
}

// PreAuthorized returns the pre-authorized code repository backed by the same
// client and prefix.
func (s *ValkeyCodeStore) PreAuthorized() *ValkeyPreAuthorizedCodeStore {
	return &ValkeyPreAuthorizedCodeStore{inner: s}
}

// ValkeyPreAuthorizedCodeStore stores pre-authorized code grants under a
// separate key namespace with the same GETDEL consume semantics.
type ValkeyPreAuthorizedCodeStore struct {
	inner *ValkeyCodeStore
}

// Issue stores the grant with TTL under precode:<code> and returns the code.
func (s *ValkeyPreAuthorizedCodeStore) Issue(ctx context.Context, grant oid4vci.PreAuthorizedGrantInfo) (string, error) {
	g := asPreAuthorizedGrant(grant)
	if g.Code == "" {
		g.Code = newCode()
	}
	g.CreatedAt = time.Now().UTC()
	ttl := s.inner.ttl
	if !g.ExpiresAt.IsZero() {
		ttl = time.Until(g.ExpiresAt)
	} else {
		g.ExpiresAt = g.CreatedAt.Add(ttl)
	}
	if err := s.inner.set(ctx, s.inner.key("precode", g.Code), g, ttl); err != nil {
		return "", err
	}
	return g.Code, nil
}

// Consume atomically removes and returns the grant for code.
func (s *ValkeyPreAuthorizedCodeStore) Consume(ctx context.Context, code string) (oid4vci.PreAuthorizedGrantInfo, error) {
	val, err := s.inner.getdel(ctx, s.inner.key("precode", code))
	if err != nil {
		return nil, err
	}
	if val == "" {
		return nil, errors.ErrPreAuthorizedCodeNotFound
	}
	var g models.PreAuthorizedGrant
	if err := json.Unmarshal([]byte(val), &g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pre-authorized grant: %w", err)
	}
	if g.IsExpired() {
		return nil, errors.ErrPreAuthorizedCodeNotFound
	}
	return &g, nil
}
