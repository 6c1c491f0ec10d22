package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/shiftctl/internal/protocol/session"
	gotoml "github.com/pelletier/go-toml/v2"
)

const (
	KindServer = "shiftd"
	KindClient = "shiftctl"
)

func defaultServerFile() serverFile {
	cfg := DefaultServerConfig()
	return serverFile{
		Addr:              cfg.Addr,
		Schemas:           cfg.Schemas,
		AdminAddr:         "127.0.0.1:7401",
		CorsOrigins:       []string{"http://localhost:3000"},
		TokenSecret:       "change-me",
		TokenTTL:          cfg.TokenTTL.String(),
		BcryptCost:        cfg.BcryptCost,
		BootstrapLogin:    cfg.Bootstrap.Login,
		BootstrapPassword: cfg.Bootstrap.Password,
		BootstrapName:     cfg.Bootstrap.Name,
		TransportKeys:     defaultTransportKeys(),
	}
}

func defaultClientFile() clientFile {
	cfg := DefaultClientConfig()
	return clientFile{
		Addr:               cfg.Addr,
		Schema:             cfg.Schema,
		Login:              "admin",
		RequestTimeout:     cfg.RequestTimeout.String(),
		MaxConnectAttempts: cfg.Session.MaxConnectAttempts,
		TransportKeys:      defaultTransportKeys(),
	}
}

func defaultTransportKeys() TransportKeys {
	cfg := session.DefaultConfig()
	return TransportKeys{
		ConnectTimeout: cfg.ConnectTimeout.String(),
		ReadTimeout:    cfg.ReadTimeout.String(),
		WriteTimeout:   cfg.WriteTimeout.String(),
		IdleTimeout:    cfg.IdleTimeout.String(),
		SecurityMode:   string(cfg.SecurityMode),
	}
}

// Template renders a starter config file for kind.
func Template(kind string) (string, error) {
	var v any
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindServer:
		v = defaultServerFile()
	case KindClient:
		v = defaultClientFile()
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
	out, err := gotoml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("render %s template: %w", kind, err)
	}
	return string(out), nil
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}
