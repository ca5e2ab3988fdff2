package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/legit-games/oid4vci"
	"github.com/legit-games/oid4vci/errors"
	"github.com/legit-games/oid4vci/models"
)

// BuntDBCodeStore stores one-time codes in an embedded buntdb file
// (":memory:" for tests). Consume runs lookup and delete inside a single
// writable transaction, so the read-then-delete window required by the
// single-use invariant is closed by buntdb's serialized writers.
type BuntDBCodeStore struct {
	db  *buntdb.DB
	ttl time.Duration
}

// NewBuntDBCodeStore creates a buntdb-backed code store at path
// (":memory:" for an ephemeral store).
func NewBuntDBCodeStore(path string) (*BuntDBCodeStore, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &BuntDBCodeStore{db: db, ttl: DefaultCodeTTL}, nil
}

// Close closes the underlying database.
func (s *BuntDBCodeStore) Close() error {
	return s.db.Close()
}

// SetTTL sets the TTL for issued codes.
func (s *BuntDBCodeStore) SetTTL(ttl time.Duration) {
	s.ttl = ttl
}

func (s *BuntDBCodeStore) put(key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, string(data), &buntdb.SetOptions{Expires: true, TTL: ttl})
		return err
	})
}

// take removes and returns the raw value at key within one transaction;
// empty string means absent.
func (s *BuntDBCodeStore) take(key string) (string, error) {
	var val string
	err := s.db.Update(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key)
		if err != nil {
			return err
		}
		val = v
		_, err = tx.Delete(key)
		return err
	})
	if err == buntdb.ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// Issue stores the grant with TTL and returns the code.
func (s *BuntDBCodeStore) Issue(ctx context.Context, grant oid4vci.CodeGrantInfo) (string, error) {
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
	if err := s.put("code:"+g.Code, g, ttl); err != nil {
		return "", err
	}
	return g.Code, nil
}

// Consume removes and returns the grant for code.
func (s *BuntDBCodeStore) Consume(ctx context.Context, code string) (oid4vci.CodeGrantInfo, error) {
	val, err := s.take("code:" + code)
	if err != nil {
		return nil, err
	}
	if val == "" {
		return nil, errors.ErrAuthorizationCodeNotFound
	}
	var g models.CodeGrant
	if err := json.Unmarshal([]byte(val), &g); err != nil {
		return nil, err
	}
	if g.IsExpired() {
		return nil, errors.ErrAuthorizationCodeNotFound
	}
	return &g, nil
}

// PreAuthorized returns the pre-authorized code repository backed by the same
// database under a separate key namespace.
func (s *BuntDBCodeStore) PreAuthorized() *BuntDBPreAuthorizedCodeStore {
	return &BuntDBPreAuthorizedCodeStore{inner: s}
}

// BuntDBPreAuthorizedCodeStore stores pre-authorized grants in the same
// buntdb file with identical consume semantics.
type BuntDBPreAuthorizedCodeStore struct {
	inner *BuntDBCodeStore
}

// Issue stores the grant with TTL and returns the code.
func (s *BuntDBPreAuthorizedCodeStore) Issue(ctx context.Context, grant oid4vci.PreAuthorizedGrantInfo) (string, error) {
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
	if err := s.inner.put("precode:"+g.Code, g, ttl); err != nil {
		return "", err
	}
	return g.Code, nil
}

// Consume removes and returns the grant for code.
func (s *BuntDBPreAuthorizedCodeStore) Consume(ctx context.Context, code string) (oid4vci.PreAuthorizedGrantInfo, error) {
	val, err := s.inner.take("precode:" + code)
	if err != nil {
		return nil, err
	}
	if val == "" {
		return nil, errors.ErrPreAuthorizedCodeNotFound
	}
	var g models.PreAuthorizedGrant
	if err := json.Unmarshal([]byte(val), &g); err != nil {
		return nil, err
	}
	if g.IsExpired() {
		return nil, errors.ErrPreAuthorizedCodeNotFound
	}
	return &g, nil
}
