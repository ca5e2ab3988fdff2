// Package config loads provider configuration from YAML files and the
// environment.
package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/legit-games/oid4vci"
	"github.com/legit-games/oid4vci/generates"
	"github.com/legit-games/oid4vci/server"
)

// AppConfig defines application configuration loaded from files and environment.
type AppConfig struct {
	Env      string         `koanf:"env"`
	Issuer   string         `koanf:"issuer"`
	Token    TokenConfig    `koanf:"token"`
	Codes    CodeConfig     `koanf:"codes"`
	Database DatabaseConfig `koanf:"database"`
	Valkey   ValkeyConfig   `koanf:"valkey"`
}

type TokenConfig struct {
	Type string `koanf:"type"`
	// Signing selects the token service: "opaque" (default) or "jwt".
	Signing string `koanf:"signing"`
	KeyID   string `koanf:"key_id"`
	Key     string `koanf:"key"`
	// Exp access token lifetime, e.g. "2h".
	Exp string `koanf:"exp"`
}

type CodeConfig struct {
	// TTL one-time code lifetime, e.g. "10m".
	TTL string `koanf:"ttl"`
	// RequireRedirectURIForPreAuthorized see server.Config.
	RequireRedirectURIForPreAuthorized bool `koanf:"require_redirect_uri_for_pre_authorized"`
}

type DatabaseConfig struct {
	Codes   DSNConfig `koanf:"codes"`
	Clients DSNConfig `koanf:"clients"`
}

type DSNConfig struct {
	DSN string `koanf:"dsn"`
}

type ValkeyConfig struct {
	Addr string `koanf:"addr"`
}

var (
	cfgOnce sync.Once
	cfgInst *AppConfig
)

// GetConfig loads and returns the singleton AppConfig. Loading order:
// 1) config/config.yaml (optional)
// 2) config/config.<APP_ENV>.yaml (optional), APP_ENV defaults to "local"
// 3) Environment variables with prefix OID4VCI_ mapped using __ as nested
//    separator, e.g. OID4VCI_DATABASE__CODES__DSN
func GetConfig() *AppConfig {
	cfgOnce.Do(func() {
		k := koanf.New(".")
		configDir := os.Getenv("CONFIG_DIR")
		if configDir == "" {
			configDir = "config"
		}
		// Whether to load files (default: disabled to keep tests isolated)
		loadFiles := strings.EqualFold(os.Getenv("APP_CONFIG_FILES"), "1") || strings.EqualFold(os.Getenv("APP_CONFIG_FILES"), "true")
		if loadFiles {
			base := filepath.Join(configDir, "config.yaml")
			if _, err := os.Stat(base); err == nil {
				if err := k.Load(file.Provider(base), yaml.Parser()); err != nil {
					log.Printf("config: failed loading base: %v", err)
				}
			}
		}
		envName := os.Getenv("APP_ENV")
		if envName == "" {
			envName = "local"
		}
		if loadFiles {
			envFile := filepath.Join(configDir, "config."+envName+".yaml")
			if _, err := os.Stat(envFile); err == nil {
				if err := k.Load(file.Provider(envFile), yaml.Parser()); err != nil {
					log.Printf("config: failed loading env file: %v", err)
				}
			}
		}
		_ = k.Load(env.Provider("OID4VCI_", "__", func(s string) string {
			// OID4VCI_DATABASE__CODES__DSN -> database.codes.dsn
			return s
		}), nil)

		var c AppConfig
		if err := k.Unmarshal("", &c); err != nil {
			log.Printf("config: unmarshal error: %v", err)
		}
		if c.Env == "" {
			c.Env = envName
		}
		cfgInst = &c
	})
	return cfgInst
}

// ServerConfig translates the loaded application configuration into a
// provider configuration, falling back to the defaults for anything unset.
func (c *AppConfig) ServerConfig() *server.Config {
	cfg := server.NewConfig()
	if c == nil {
		return cfg
	}
	if c.Token.Type != "" {
		cfg.TokenType = c.Token.Type
	}
	if d := parseDuration(c.Token.Exp); d > 0 {
		cfg.AccessTokenExp = d
	}
	if d := parseDuration(c.Codes.TTL); d > 0 {
		cfg.CodeTTL = d
	}
	cfg.RequireRedirectURIForPreAuthorized = c.Codes.RequireRedirectURIForPreAuthorized
	return cfg
}

// TokenService builds the token service named by the configuration. JWT
// signing defaults to HS256 with the configured key.
func (c *AppConfig) TokenService() oid4vci.TokenService {
	if c != nil && strings.EqualFold(c.Token.Signing, "jwt") {
		svc := generates.NewJWTAccessTokenService(c.Token.KeyID, []byte(c.Token.Key), jwt.SigningMethodHS256)
		if d := parseDuration(c.Token.Exp); d > 0 {
			svc.AccessTokenExp = d
		}
		return svc
	}
	return generates.NewOpaqueAccessTokenService()
}

// CodesDBDSN returns the effective DSN for the code store (config first, then env).
func (c *AppConfig) CodesDBDSN() string {
	if c != nil && c.Database.Codes.DSN != "" {
		return strings.TrimSpace(c.Database.Codes.DSN)
	}
	return strings.TrimSpace(os.Getenv("CODES_DB_DSN"))
}

// ClientsDBDSN returns the effective DSN for the client store (config first,
// then env fallback to MIGRATE_DSN).
func (c *AppConfig) ClientsDBDSN() string {
	if c != nil && c.Database.Clients.DSN != "" {
		return strings.TrimSpace(c.Database.Clients.DSN)
	}
	dsn := strings.TrimSpace(os.Getenv("CLIENTS_DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("MIGRATE_DSN"))
	}
	return dsn
}

// ValkeyAddr returns the Valkey address when a shared code store is configured.
func (c *AppConfig) ValkeyAddr() string {
	if c != nil && c.Valkey.Addr != "" {
		return strings.TrimSpace(c.Valkey.Addr)
	}
	return strings.TrimSpace(os.Getenv("VALKEY_ADDR"))
}

func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("config: invalid duration %q: %v", s, err)
		return 0
	}
	return d
}
