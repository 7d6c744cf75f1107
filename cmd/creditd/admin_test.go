package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/infrastructure/config"
	grpcPresentation "github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/presentation/grpc"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/pkg/auth"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startServer(t *testing.T, c config.GRPCConfig) string {
	t.Helper()
	logger := discardLogger()
	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret", Issuer: "mint-identity"})
	require.NoError(t, err)

	srv, err := grpcPresentation.NewServer(
		grpcPresentation.NewCreditEngineHandler(grpcPresentation.UseCases{}, logger),
		logger, jwtSvc,
		grpcPresentation.ServerOptions{TLSCertFile: c.TLSCertFile, TLSKeyFile: c.TLSKeyFile},
	)
	require.NoError(t, err)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.ServeListener(lis) }()
	t.Cleanup(srv.GracefulStop)
	return lis.Addr().String()
}

func TestEnsureDevCerts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")

	c, err := ensureDevCerts(config.GRPCConfig{DevCertDir: dir}, discardLogger())
	require.NoError(t, err)
	assert.True(t, c.TLSEnabled())
	for _, f := range []string{c.TLSCertFile, c.TLSKeyFile, c.CAFile} {
		_, err := os.Stat(f)
		assert.NoError(t, err, f)
	}

	before, err := os.ReadFile(c.TLSCertFile)
	require.NoError(t, err)
	again, err := ensureDevCerts(config.GRPCConfig{DevCertDir: dir}, discardLogger())
	require.NoError(t, err)
	after, err := os.ReadFile(again.TLSCertFile)
	require.NoError(t, err)
	assert.Equal(t, before, after, "existing certificates are reused")

	untouched, err := ensureDevCerts(config.GRPCConfig{}, discardLogger())
	require.NoError(t, err)
	assert.False(t, untouched.TLSEnabled())
}

func TestCheckHealth(t *testing.T) {
	t.Run("plaintext", func(t *testing.T) {
		addr := startServer(t, config.GRPCConfig{})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, checkHealth(ctx, addr, config.GRPCConfig{}))
	})

	t.Run("tls with dev certificates", func(t *testing.T) {
		c, err := ensureDevCerts(config.GRPCConfig{DevCertDir: t.TempDir()}, discardLogger())
		require.NoError(t, err)
		addr := startServer(t, c)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, checkHealth(ctx, addr, c))

		untrusted := c
		untrusted.CAFile = ""
		assert.Error(t, checkHealth(ctx, addr, untrusted), "system roots do not trust the dev CA")
	})

	t.Run("nothing listening", func(t *testing.T) {
		lis, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := lis.Addr().String()
		require.NoError(t, lis.Close())

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.Error(t, checkHealth(ctx, addr, config.GRPCConfig{}))
	})
}

func TestRunMigrateDown_RequiresPostgres(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORAGE_DRIVER", config.StorageMemory)

	err := runMigrateDown()
	assert.ErrorContains(t, err, "migrate-down needs STORAGE_DRIVER=postgres")
}
