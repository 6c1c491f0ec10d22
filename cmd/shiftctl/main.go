package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danmuck/shiftctl/internal/config"
	"github.com/danmuck/shiftctl/internal/logging"
	"github.com/danmuck/shiftctl/internal/protocol/session"
	"golang.org/x/term"
)

const usage = `usage: shiftctl [flags] <command> [args]

commands:
  info                      show the logged-in user
  schedule YEAR MONTH       show everyone's schedule
  workday YEAR MONTH DAY true|false
  passwd                    change your password
  names ID...               look up display names
  users                     list users (admin)
  adduser LOGIN NAME        create a worker (admin)
  reset ID                  reset a password to the login (admin)
  revenue YEAR MONTH        show revenue (admin)
  salary YEAR MONTH         compute salaries (admin)
`

// readPassword is a seam for tests.
var readPassword = term.ReadPassword

func main() {
	configPath := flag.String("config", "cmd/shiftctl/config.toml", "client config path")
	addr := flag.String("addr", "", "override server addr")
	schema := flag.String("schema", "", "override schema (v1|v2)")
	login := flag.String("login", "", "override login")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logging.Configure(logging.ProfileRuntime)
	logging.SetLevel("warn")

	cfg, err := loadConfig(*configPath, flagSet("config"))
	if err != nil {
		fail(err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *schema != "" {
		cfg.Schema = strings.ToLower(*schema)
	}
	if *login != "" {
		cfg.Login = *login
	}
	if err := config.ValidateClientConfig(cfg); err != nil {
		fail(err)
	}

	out, err := run(context.Background(), cfg, terminalPrompt, flag.Args())
	if err != nil {
		fail(err)
	}
	if err := printJSON(os.Stdout, out); err != nil {
		fail(err)
	}
}

// loadConfig falls back to defaults when the default path is absent.
func loadConfig(path string, explicit bool) (config.ClientConfig, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !explicit {
		return config.DefaultClientConfig(), nil
	}
	return config.LoadClientConfig(path)
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func run(ctx context.Context, cfg config.ClientConfig, prompt promptFunc, args []string) (any, error) {
	if cfg.Login == "" {
		return nil, errors.New("no login configured (use -login)")
	}
	password, err := prompt(fmt.Sprintf("Password for %s: ", cfg.Login))
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	conn, err := session.Dial(dialCtx, cfg.Addr, cfg.Session)
	cancel()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	r, err := newRunner(cfg.Schema, conn, prompt, cfg.RequestTimeout)
	if err != nil {
		return nil, err
	}
	if err := r.login(ctx, cfg.Login, password); err != nil {
		return nil, err
	}
	return r.run(ctx, args[0], args[1:])
}

type promptFunc func(label string) (string, error)

func terminalPrompt(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "shiftctl: %v\n", err)
	os.Exit(1)
}
