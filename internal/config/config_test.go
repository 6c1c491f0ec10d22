package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/shiftctl/internal/protocol/session"
	"github.com/danmuck/shiftctl/internal/testutil/testlog"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadServerConfigDefaultsAndOverrides(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
addr = "127.0.0.1:7500"
schemas = ["V2", "v2"]
admin_addr = "127.0.0.1:7501"
token_secret = "s3cret"
token_ttl = "30m"
bootstrap_login = "boss"
session_idle_timeout = "90s"
session_security_mode = "production"
session_tls_enabled = true
session_tls_mutual = true
session_tls_cert_file = "/etc/shiftd/server.crt"
session_tls_key_file = "/etc/shiftd/server.key"
session_tls_ca_file = "/etc/shiftd/ca.crt"
`)
	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Addr != "127.0.0.1:7500" {
		t.Fatalf("unexpected addr: %q", cfg.Addr)
	}
	if len(cfg.Schemas) != 1 || cfg.Schemas[0] != SchemaV2 {
		t.Fatalf("unexpected schemas: %v", cfg.Schemas)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Fatalf("unexpected token ttl: %v", cfg.TokenTTL)
	}
	if cfg.Bootstrap.Login != "boss" || cfg.Bootstrap.Password != "admin" {
		t.Fatalf("unexpected bootstrap user: %+v", cfg.Bootstrap)
	}
	if cfg.BcryptCost != 10 {
		t.Fatalf("default bcrypt cost lost: %d", cfg.BcryptCost)
	}
	if cfg.Session.IdleTimeout != 90*time.Second {
		t.Fatalf("unexpected idle timeout: %v", cfg.Session.IdleTimeout)
	}
	if cfg.Session.ReadTimeout != session.DefaultConfig().ReadTimeout {
		t.Fatalf("default read timeout lost: %v", cfg.Session.ReadTimeout)
	}
	if cfg.Session.SecurityMode != session.SecurityModeProduction || !cfg.Session.TLS.Mutual {
		t.Fatalf("unexpected session security: %+v", cfg.Session)
	}
}

func TestLoadServerConfigRequiresSecret(t *testing.T) {
	testlog.Start(t)
	_, err := LoadServerConfig(writeConfig(t, `addr = ":7400"`))
	if err == nil || !strings.Contains(err.Error(), "token_secret") {
		t.Fatalf("expected missing token_secret, got %v", err)
	}
}

func TestLoadServerConfigRejectsUnknownSchema(t *testing.T) {
	testlog.Start(t)
	_, err := LoadServerConfig(writeConfig(t, `
token_secret = "x"
schemas = ["v3"]
`))
	if err == nil || !strings.Contains(err.Error(), "v3") {
		t.Fatalf("expected unknown schema error, got %v", err)
	}
}

func TestLoadServerConfigRejectsBadDuration(t *testing.T) {
	testlog.Start(t)
	_, err := LoadServerConfig(writeConfig(t, `
token_secret = "x"
session_read_timeout = "soon"
`))
	if err == nil || !strings.Contains(err.Error(), "session_read_timeout") {
		t.Fatalf("expected duration error, got %v", err)
	}
}

func TestLoadServerConfigProductionNeedsMutualTLS(t *testing.T) {
	testlog.Start(t)
	_, err := LoadServerConfig(writeConfig(t, `
token_secret = "x"
session_security_mode = "production"
session_tls_enabled = true
session_tls_cert_file = "a"
session_tls_key_file = "b"
`))
	if err == nil || !strings.Contains(err.Error(), "mtls") {
		t.Fatalf("expected mtls requirement, got %v", err)
	}
}

func TestLoadClientConfigDefaultsAndOverrides(t *testing.T) {
	testlog.Start(t)
	cfg, err := LoadClientConfig(writeConfig(t, `
addr = "shift.example:7400"
schema = "V1"
login = "ann"
max_connect_attempts = 2
session_tls_enabled = true
session_tls_ca_file = "/etc/shiftctl/ca.crt"
session_tls_server_name = "shift.internal"
`))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Schema != SchemaV1 || cfg.Login != "ann" || cfg.Addr != "shift.example:7400" {
		t.Fatalf("unexpected client config: %+v", cfg)
	}
	if cfg.Session.MaxConnectAttempts != 2 || cfg.Session.TLS.ServerName != "shift.internal" {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Fatalf("default request timeout lost: %v", cfg.RequestTimeout)
	}
}

func TestLoadClientConfigTLSNeedsCA(t *testing.T) {
	testlog.Start(t)
	_, err := LoadClientConfig(writeConfig(t, `session_tls_enabled = true`))
	if err == nil || !strings.Contains(err.Error(), "ca file") {
		t.Fatalf("expected ca requirement, got %v", err)
	}
}

func TestTemplatesLoad(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()

	server := filepath.Join(dir, "shiftd.toml")
	if err := WriteTemplate(server, KindServer, false); err != nil {
		t.Fatalf("write server template: %v", err)
	}
	cfg, err := LoadServerConfig(server)
	if err != nil {
		t.Fatalf("load server template: %v", err)
	}
	if cfg.AdminAddr == "" || cfg.TokenSecret == "" || len(cfg.Schemas) != 2 {
		t.Fatalf("unexpected server template config: %+v", cfg)
	}

	client := filepath.Join(dir, "shiftctl.toml")
	if err := WriteTemplate(client, KindClient, false); err != nil {
		t.Fatalf("write client template: %v", err)
	}
	ccfg, err := LoadClientConfig(client)
	if err != nil {
		t.Fatalf("load client template: %v", err)
	}
	if ccfg.Login != "admin" || ccfg.Schema != SchemaV2 {
		t.Fatalf("unexpected client template config: %+v", ccfg)
	}

	if err := WriteTemplate(server, KindServer, false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if _, err := Template("gateway"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
