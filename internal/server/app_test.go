package server

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/videotube/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.EndpointAddrGRPC = "127.0.0.1:0"
	cfg.LogLevel = "error"
	cfg.ShutdownTimeout = time.Second
	return cfg
}

func TestNewApp_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.RefreshTokenSecret = cfg.AccessTokenSecret

	_, err := NewApp(context.Background(), cfg)
	assert.ErrorContains(t, err, "invalid config")
}

func TestNewApp_UnknownStore(t *testing.T) {
	cfg := testConfig()
	cfg.DatabaseDSN = "cassandra://localhost"

	_, err := NewApp(context.Background(), cfg)
	assert.ErrorContains(t, err, "db init error")
}

func TestNewApp_UnknownHashAlgorithm(t *testing.T) {
	cfg := testConfig()
	cfg.PasswordHashAlgorithm = "md5"

	_, err := NewApp(context.Background(), cfg)
	assert.Error(t, err)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("app exited too early: %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop after context cancel")
	}
}

func TestApp_RunFailsWhenAServerCannotListen(t *testing.T) {
	cfg := testConfig()
	cfg.EndpointAddrGRPC = "127.0.0.1:99999"

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop after a server failed")
	}
}
