// Package config loads shiftd and shiftctl TOML files. Keys present in a file
// override the defaults; absent keys keep them.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/shiftctl/internal/protocol/session"
)

const (
	SchemaV1 = "v1"
	SchemaV2 = "v2"
)

// BootstrapUser is created as an admin on startup unless its login exists.
type BootstrapUser struct {
	Login    string
	Password string
	Name     string
}

type ServerConfig struct {
	Addr        string
	Schemas     []string
	AdminAddr   string
	AdminToken  string
	CorsOrigins []string
	TokenSecret string
	TokenTTL    time.Duration
	BcryptCost  int
	Bootstrap   BootstrapUser
	Session     session.Config
}

type ClientConfig struct {
	Addr           string
	Schema         string
	Login          string
	RequestTimeout time.Duration
	Session        session.Config
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:        ":7400",
		Schemas:     []string{SchemaV1, SchemaV2},
		TokenTTL:    12 * time.Hour,
		BcryptCost:  10,
		CorsOrigins: []string{},
		Bootstrap:   BootstrapUser{Login: "admin", Password: "admin", Name: "Administrator"},
		Session:     session.DefaultConfig(),
	}
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Addr:           "localhost:7400",
		Schema:         SchemaV2,
		RequestTimeout: 10 * time.Second,
		Session:        session.DefaultConfig(),
	}
}

// serverFile is the shiftd config.toml key mapping.
type serverFile struct {
	Addr              string   `toml:"addr"`
	Schemas           []string `toml:"schemas"`
	AdminAddr         string   `toml:"admin_addr"`
	AdminToken        string   `toml:"admin_token"`
	CorsOrigins       []string `toml:"cors_origins"`
	TokenSecret       string   `toml:"token_secret"`
	TokenTTL          string   `toml:"token_ttl"`
	BcryptCost        int      `toml:"bcrypt_cost"`
	BootstrapLogin    string   `toml:"bootstrap_login"`
	BootstrapPassword string   `toml:"bootstrap_password"`
	BootstrapName     string   `toml:"bootstrap_name"`
	TransportKeys
}

// clientFile is the shiftctl config.toml key mapping.
type clientFile struct {
	Addr               string `toml:"addr"`
	Schema             string `toml:"schema"`
	Login              string `toml:"login"`
	RequestTimeout     string `toml:"request_timeout"`
	MaxConnectAttempts int    `toml:"max_connect_attempts"`
	TLSServerName      string `toml:"session_tls_server_name"`
	TransportKeys
}

// TransportKeys are the session keys shared by both files.
type TransportKeys struct {
	ConnectTimeout string `toml:"session_connect_timeout"`
	ReadTimeout    string `toml:"session_read_timeout"`
	WriteTimeout   string `toml:"session_write_timeout"`
	IdleTimeout    string `toml:"session_idle_timeout"`
	SecurityMode   string `toml:"session_security_mode"`
	TLSEnabled     bool   `toml:"session_tls_enabled"`
	TLSMutual      bool   `toml:"session_tls_mutual"`
	TLSCertFile    string `toml:"session_tls_cert_file"`
	TLSKeyFile     string `toml:"session_tls_key_file"`
	TLSCAFile      string `toml:"session_tls_ca_file"`
}

func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	var raw serverFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("load server config: %w", err)
	}
	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("schemas") {
		cfg.Schemas = normalizeSchemas(raw.Schemas)
	}
	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("admin_token") {
		cfg.AdminToken = strings.TrimSpace(raw.AdminToken)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = raw.CorsOrigins
	}
	if meta.IsDefined("token_secret") {
		cfg.TokenSecret = raw.TokenSecret
	}
	if meta.IsDefined("token_ttl") {
		if cfg.TokenTTL, err = parseDuration("token_ttl", raw.TokenTTL); err != nil {
			return ServerConfig{}, err
		}
	}
	if meta.IsDefined("bcrypt_cost") {
		cfg.BcryptCost = raw.BcryptCost
	}
	if meta.IsDefined("bootstrap_login") {
		cfg.Bootstrap.Login = strings.TrimSpace(raw.BootstrapLogin)
	}
	if meta.IsDefined("bootstrap_password") {
		cfg.Bootstrap.Password = raw.BootstrapPassword
	}
	if meta.IsDefined("bootstrap_name") {
		cfg.Bootstrap.Name = strings.TrimSpace(raw.BootstrapName)
	}
	if err := raw.TransportKeys.apply(meta, &cfg.Session); err != nil {
		return ServerConfig{}, err
	}
	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func LoadClientConfig(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()
	var raw clientFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ClientConfig{}, fmt.Errorf("load client config: %w", err)
	}
	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("schema") {
		cfg.Schema = strings.ToLower(strings.TrimSpace(raw.Schema))
	}
	if meta.IsDefined("login") {
		cfg.Login = strings.TrimSpace(raw.Login)
	}
	if meta.IsDefined("request_timeout") {
		if cfg.RequestTimeout, err = parseDuration("request_timeout", raw.RequestTimeout); err != nil {
			return ClientConfig{}, err
		}
	}
	if meta.IsDefined("max_connect_attempts") {
		cfg.Session.MaxConnectAttempts = raw.MaxConnectAttempts
	}
	if meta.IsDefined("session_tls_server_name") {
		cfg.Session.TLS.ServerName = strings.TrimSpace(raw.TLSServerName)
	}
	if err := raw.TransportKeys.apply(meta, &cfg.Session); err != nil {
		return ClientConfig{}, err
	}
	if err := ValidateClientConfig(cfg); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

func (f TransportKeys) apply(meta toml.MetaData, cfg *session.Config) error {
	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"session_connect_timeout", f.ConnectTimeout, &cfg.ConnectTimeout},
		{"session_read_timeout", f.ReadTimeout, &cfg.ReadTimeout},
		{"session_write_timeout", f.WriteTimeout, &cfg.WriteTimeout},
		{"session_idle_timeout", f.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := parseDuration(d.key, d.raw)
		if err != nil {
			return err
		}
		*d.dst = v
	}
	if meta.IsDefined("session_security_mode") {
		cfg.SecurityMode = session.NormalizeSecurityMode(session.SecurityMode(f.SecurityMode))
	}
	if meta.IsDefined("session_tls_enabled") {
		cfg.TLS.Enabled = f.TLSEnabled
	}
	if meta.IsDefined("session_tls_mutual") {
		cfg.TLS.Mutual = f.TLSMutual
	}
	if meta.IsDefined("session_tls_cert_file") {
		cfg.TLS.CertFile = strings.TrimSpace(f.TLSCertFile)
	}
	if meta.IsDefined("session_tls_key_file") {
		cfg.TLS.KeyFile = strings.TrimSpace(f.TLSKeyFile)
	}
	if meta.IsDefined("session_tls_ca_file") {
		cfg.TLS.CAFile = strings.TrimSpace(f.TLSCAFile)
	}
	return nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("config %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config %s: negative duration %s", key, raw)
	}
	return d, nil
}

func normalizeSchemas(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func validSchema(s string) bool {
	return s == SchemaV1 || s == SchemaV2
}

func ValidateServerConfig(cfg ServerConfig) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("server config missing addr")
	}
	if len(cfg.Schemas) == 0 {
		return fmt.Errorf("server config serves no schemas")
	}
	for _, s := range cfg.Schemas {
		if !validSchema(s) {
			return fmt.Errorf("server config unknown schema %q (expected v1 or v2)", s)
		}
	}
	if cfg.TokenSecret == "" {
		return fmt.Errorf("server config missing token_secret")
	}
	if cfg.TokenTTL <= 0 {
		return fmt.Errorf("server config token_ttl must be positive")
	}
	if strings.TrimSpace(cfg.Bootstrap.Login) == "" {
		return fmt.Errorf("server config missing bootstrap_login")
	}
	if err := cfg.Session.ValidateServerTransport(); err != nil {
		return fmt.Errorf("server config session: %w", err)
	}
	return nil
}

func ValidateClientConfig(cfg ClientConfig) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("client config missing addr")
	}
	if !validSchema(cfg.Schema) {
		return fmt.Errorf("client config unknown schema %q (expected v1 or v2)", cfg.Schema)
	}
	if cfg.Session.MaxConnectAttempts < 0 {
		return fmt.Errorf("client config max_connect_attempts must not be negative")
	}
	if err := cfg.Session.ValidateClientTransport(); err != nil {
		return fmt.Errorf("client config session: %w", err)
	}
	return nil
}
