// Package config resolves runtime settings from flags, the environment and an
// optional .env file, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting.
type Config struct {
	DBPath     string
	Addr       string
	ManualsDir string
	LogPath    string

	AdminUser           string
	AdminPassword       string
	DefaultUserPassword string

	CORSOrigins    []string
	MaxUploadBytes int64
	PhotoMaxDim    int

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	LoginMaxAttempts int
	LoginWindow      time.Duration
}

// LookupFunc returns an environment value and whether it was set.
type LookupFunc func(key string) (string, bool)

const usage = `Usage: inventur [flags]

Flags:
  -d, -db <path>          SQLite database path (default: inventur.sqlite3)
  -a, -addr <host:port>   listen address (default: :5000)
  -m, -manuals <dir>      directory for uploaded PDF manuals (default: static/manuals)
  -u, -user <name>        admin username created on startup (default: Admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit

Environment (also read from ./.env):
  INVENTUR_DB, INVENTUR_ADDR, INVENTUR_MANUALS_DIR, INVENTUR_LOG, INVENTUR_ADMIN_USER,
  INVENTUR_ADMIN_PASSWORD, INVENTUR_DEFAULT_USER_PASSWORD, INVENTUR_CORS_ORIGINS,
  INVENTUR_MAX_UPLOAD_MB, INVENTUR_PHOTO_MAX_DIM, REDIS_ADDR, REDIS_PASSWORD, REDIS_DB,
  LOGIN_MAX_ATTEMPTS, LOGIN_WINDOW
`

// Load reads ./.env if present and resolves the configuration for this process.
func Load(args []string, out io.Writer) (*Config, error) {
	return Parse(args, WithDotEnv(os.LookupEnv, ".env"), out)
}

// WithDotEnv layers the values of a .env file under lookup. A missing file is ignored.
func WithDotEnv(lookup LookupFunc, path string) LookupFunc {
	file, err := godotenv.Read(path)
	if err != nil {
		return lookup
	}
	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}
}

// Parse resolves the configuration from args and lookup. It returns
// flag.ErrHelp when help was requested.
func Parse(args []string, lookup LookupFunc, out io.Writer) (*Config, error) {
	env := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		AdminPassword:       env("INVENTUR_ADMIN_PASSWORD", "admin"),
		DefaultUserPassword: env("INVENTUR_DEFAULT_USER_PASSWORD", "1234"),
		RedisAddr:           env("REDIS_ADDR", ""),
		RedisPassword:       env("REDIS_PASSWORD", ""),
	}

	if s := env("INVENTUR_CORS_ORIGINS", ""); s != "" {
		for _, o := range strings.Split(s, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	var err error
	var uploadMB int
	if uploadMB, err = envInt(env, "INVENTUR_MAX_UPLOAD_MB", 20); err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(uploadMB) << 20
	if cfg.PhotoMaxDim, err = envInt(env, "INVENTUR_PHOTO_MAX_DIM", 1024); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = envInt(env, "REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.LoginMaxAttempts, err = envInt(env, "LOGIN_MAX_ATTEMPTS", 10); err != nil {
		return nil, err
	}
	if cfg.LoginWindow, err = time.ParseDuration(env("LOGIN_WINDOW", "15m")); err != nil {
		return nil, fmt.Errorf("LOGIN_WINDOW: %w", err)
	}

	fs := flag.NewFlagSet("inventur", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() { fmt.Fprint(out, usage) }

	stringFlag := func(p *string, long, short, def string) {
		fs.StringVar(p, long, def, "")
		fs.StringVar(p, short, def, "")
	}
	stringFlag(&cfg.DBPath, "db", "d", env("INVENTUR_DB", "inventur.sqlite3"))
	stringFlag(&cfg.Addr, "addr", "a", env("INVENTUR_ADDR", ":5000"))
	stringFlag(&cfg.ManualsDir, "manuals", "m", env("INVENTUR_MANUALS_DIR", "static/manuals"))
	stringFlag(&cfg.AdminUser, "user", "u", env("INVENTUR_ADMIN_USER", "Admin"))
	stringFlag(&cfg.LogPath, "log", "l", env("INVENTUR_LOG", ""))

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	if cfg.AdminUser == "" {
		return nil, errors.New("admin username must not be empty")
	}
	if cfg.MaxUploadBytes <= 0 || cfg.PhotoMaxDim <= 0 {
		return nil, errors.New("upload size and photo dimension must be positive")
	}
	return cfg, nil
}

func envInt(env func(string, string) string, key string, def int) (int, error) {
	s := env(key, "")
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
