package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/BearBump/LogiTrack/config"
	"github.com/BearBump/LogiTrack/internal/api/restemu"
	"github.com/BearBump/LogiTrack/internal/storage/pgorders"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type emptyRepo struct{}

func (emptyRepo) Select(context.Context, pgorders.Query) ([]pgorders.Row, error) { return nil, nil }
func (emptyRepo) Insert(_ context.Context, _ string, items []pgorders.Row) ([]pgorders.Row, error) {
	return items, nil
}
func (emptyRepo) Update(context.Context, string, []pgorders.Filter, pgorders.Row) ([]pgorders.Row, error) {
	return nil, nil
}
func (emptyRepo) Delete(context.Context, string, []pgorders.Filter) ([]pgorders.Row, error) {
	return nil, nil
}

func TestRunEmulator_ServesRoutesAndMetrics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	opts := emulatorOpts{
		httpAddr: "127.0.0.1:0",
		onListen: func(httpAddr string) { addrCh <- httpAddr },
	}
	errCh := make(chan error, 1)
	go func() { errCh <- runEmulator(ctx, opts, restemu.New(emptyRepo{}, testSecret)) }()
	base := "http://" + <-addrCh

	key, err := restemu.MintKey(testSecret, restemu.RoleAnon, time.Minute)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodGet, base+"/rest/v1/orders?select=*", nil)
	require.NoError(t, err)
	req.Header.Set("apikey", key)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `[]`, string(body))

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "logitrack_emulator_requests_total")

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("emulator did not stop")
	}
}

func TestRunEmulator_ListenError(t *testing.T) {
	err := runEmulator(context.Background(), emulatorOpts{httpAddr: "bad-addr"}, restemu.New(emptyRepo{}, testSecret))
	require.Error(t, err)
}

func TestConnString(t *testing.T) {
	got := connString(config.DatabaseConfig{Host: "db", Port: 5432, Username: "u", Password: "p", DBName: "logitrack"})
	require.Equal(t, "postgres://u:p@db:5432/logitrack?sslmode=disable", got)

	got = connString(config.DatabaseConfig{Host: "db", Port: 5432, Username: "u", Password: "p", DBName: "x", SSLMode: "require"})
	require.True(t, strings.HasSuffix(got, "sslmode=require"))
}

func TestJWTSecret(t *testing.T) {
	_, err := jwtSecret(config.EmulatorConfig{JWTSecret: "short"})
	require.Error(t, err)

	s, err := jwtSecret(config.EmulatorConfig{JWTSecret: testSecret})
	require.NoError(t, err)
	require.Equal(t, testSecret, s)
}

func TestRunMint(t *testing.T) {
	t.Setenv("LOGITRACK_EMULATOR_JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("LOGITRACK_EMULATOR_JWT_SECRET"))
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("emulator:\n  jwt_secret: \""+testSecret+"\"\n"), 0o600))

	var out bytes.Buffer
	require.NoError(t, runMint(&out, path, "service_role"))

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(out.String()), claims, func(*jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	require.Equal(t, "service_role", claims["role"])

	require.Error(t, runMint(&out, path, "driver"))
	require.Error(t, runMint(&out, "", "anon"))
}
