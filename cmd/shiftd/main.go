package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/shiftctl/internal/config"
	"github.com/danmuck/shiftctl/internal/daemon"
	"github.com/danmuck/shiftctl/internal/logging"
)

func main() {
	configPath := flag.String("config", "cmd/shiftd/config.toml", "server config path")
	addr := flag.String("addr", "", "override listen addr")
	adminAddr := flag.String("admin", "", "override admin http addr")
	level := flag.String("log-level", "", "log level (trace|debug|info|warn|error)")
	flag.Parse()

	logging.ConfigureRuntime()
	if *level != "" && !logging.SetLevel(*level) {
		fmt.Fprintf(os.Stderr, "shiftd: unknown log level %q\n", *level)
		os.Exit(2)
	}

	if err := run(*configPath, *addr, *adminAddr); err != nil {
		fmt.Fprintf(os.Stderr, "shiftd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, addr, adminAddr string) error {
	cfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		return err
	}
	if addr = strings.TrimSpace(addr); addr != "" {
		cfg.Addr = addr
	}
	if adminAddr = strings.TrimSpace(adminAddr); adminAddr != "" {
		cfg.AdminAddr = adminAddr
	}
	svc, err := daemon.NewService(cfg, nil)
	if err != nil {
		return err
	}
	return svc.Run()
}
