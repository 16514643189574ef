package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BearBump/LogiTrack/config"
	"github.com/BearBump/LogiTrack/internal/api/restemu"
	"github.com/BearBump/LogiTrack/internal/storage/pgorders"
)

const minSecretLength = 32

type emulatorApp struct {
	ctx     context.Context
	cancel  context.CancelFunc
	opts    emulatorOpts
	api     *restemu.Server
	closeDB func()
}

func mustBootstrapEmulator() *emulatorApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	secret, err := jwtSecret(cfg.Emulator)
	if err != nil {
		panic(err)
	}
	httpAddr := cfg.Emulator.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":54321"
	}

	st := mustOpenPostgresWithRetry(connString(cfg.Database), 60*time.Second)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return &emulatorApp{
		ctx:     ctx,
		cancel:  cancel,
		opts:    emulatorOpts{httpAddr: httpAddr},
		api:     restemu.New(st, secret),
		closeDB: st.Close,
	}
}

func jwtSecret(c config.EmulatorConfig) (string, error) {
	if len(strings.TrimSpace(c.JWTSecret)) < minSecretLength {
		return "", fmt.Errorf("emulator jwt_secret must be at least %d characters", minSecretLength)
	}
	return c.JWTSecret, nil
}

func connString(c config.DatabaseConfig) string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Username, c.Password, c.Host, c.Port, c.DBName, sslMode)
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgorders.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgorders.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

// runMint prints a non-expiring key for the role, signed with the configured secret.
func runMint(w io.Writer, cfgPath, role string) error {
	if cfgPath == "" {
		return fmt.Errorf("configPath env var is required")
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}
	secret, err := jwtSecret(cfg.Emulator)
	if err != nil {
		return err
	}
	switch r := restemu.Role(role); r {
	case restemu.RoleAnon, restemu.RoleAuthenticated, restemu.RoleService:
		key, err := restemu.MintKey(secret, r, 0)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, key)
		return err
	default:
		return fmt.Errorf("unknown role %q", role)
	}
}

func (a *emulatorApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.closeDB != nil {
		a.closeDB()
	}
}

func (a *emulatorApp) Run() error {
	return runEmulator(a.ctx, a.opts, a.api)
}
