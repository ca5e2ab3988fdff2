package store

import (
	"context"
	"encoding/json"
	"sync"

	"gorm.io/gorm"

	"github.com/legit-games/oid4vci"
	"github.com/legit-games/oid4vci/errors"
	"github.com/legit-games/oid4vci/models"
)

// NewClientStore create client store (memory)
func NewClientStore() *ClientStore {
	return &ClientStore{
		data: make(map[string]oid4vci.ClientInfo),
	}
}

// NewAdhocClientStore create a client store that resolves unknown ids to a
// public client carrying just that id. Resolution stays deterministic, which
// is all the request validators require; issuers that manage a closed client
// registry should use NewClientStore or the gorm-backed store instead.
func NewAdhocClientStore() *ClientStore {
	cs := NewClientStore()
	cs.adhoc = true
	return cs
}

// ClientStore client information store (in-memory)
type ClientStore struct {
	sync.RWMutex
	adhoc bool
	data  map[string]oid4vci.ClientInfo
}

// GetByID according to the ID for the client information
func (cs *ClientStore) GetByID(ctx context.Context, id string) (oid4vci.ClientInfo, error) {
	cs.RLock()
	defer cs.RUnlock()

	if c, ok := cs.data[id]; ok {
		return c, nil
	}
	if cs.adhoc {
		return &models.Client{ID: id, Public: true}, nil
	}
	return nil, errors.ErrClientNotFound
}

// Set set client information
func (cs *ClientStore) Set(id string, cli oid4vci.ClientInfo) (err error) {
	cs.Lock()
	defer cs.Unlock()

	cs.data[id] = cli
	return
}

// --- Persistent client store ---

type DBClientStore struct{ DB *gorm.DB }

func NewDBClientStore(db *gorm.DB) *DBClientStore { return &DBClientStore{DB: db} }

type clientRow struct {
	ID            string
	Secret        string
	Public        bool
	RedirectURIs  string
	GrantTypes    string
	ResponseTypes string
}

func (r clientRow) toModel() *models.Client {
	c := &models.Client{ID: r.ID, Secret: r.Secret, Public: r.Public}
	_ = json.Unmarshal([]byte(r.RedirectURIs), &c.RedirectURIs)
	_ = json.Unmarshal([]byte(r.GrantTypes), &c.GrantTypes)
	_ = json.Unmarshal([]byte(r.ResponseTypes), &c.ResponseTypes)
	return c
}

// Upsert creates or updates a client, including redirect URIs and allowed types.
func (s *DBClientStore) Upsert(ctx context.Context, c *models.Client) error {
	uris, _ := json.Marshal(c.RedirectURIs)
	grants, _ := json.Marshal(c.GrantTypes)
	responses, _ := json.Marshal(c.ResponseTypes)
	return s.DB.WithContext(ctx).Exec(
		`INSERT INTO oid4vci_clients(id, secret, public, redirect_uris, grant_types, response_types)
		 VALUES(?,?,?,?::jsonb,?::jsonb,?::jsonb)
		 ON CONFLICT(id) DO UPDATE SET secret=excluded.secret, public=excluded.public, redirect_uris=excluded.redirect_uris, grant_types=excluded.grant_types, response_types=excluded.response_types, updated_at=CURRENT_TIMESTAMP`,
		c.ID, c.Secret, c.Public, string(uris), string(grants), string(responses),
	).Error
}

// GetByID implements oid4vci.ClientStore backed by DB.
func (s *DBClientStore) GetByID(ctx context.Context, id string) (oid4vci.ClientInfo, error) {
	var row clientRow
	if err := s.DB.WithContext(ctx).Raw(
		`SELECT id, secret, public, redirect_uris::text AS redirect_uris, grant_types::text AS grant_types, response_types::text AS response_types
		 FROM oid4vci_clients WHERE id=?`, id).Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == "" {
		return nil, errors.ErrClientNotFound
	}
	return row.toModel(), nil
}

// List returns a page of clients ordered by id.
func (s *DBClientStore) List(ctx context.Context, offset, limit int) ([]models.Client, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	var rows []clientRow
	if err := s.DB.WithContext(ctx).Raw(
		`SELECT id, secret, public, redirect_uris::text AS redirect_uris, grant_types::text AS grant_types, response_types::text AS response_types
		 FROM oid4vci_clients ORDER BY id LIMIT ? OFFSET ?`, limit, offset).Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Client, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r.toModel())
	}
	return out, nil
}

// Delete removes a client by id.
func (s *DBClientStore) Delete(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Exec(`DELETE FROM oid4vci_clients WHERE id=?`, id).Error
}
