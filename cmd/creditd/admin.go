package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/infrastructure/config"
	pgRepo "github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/infrastructure/persistence/postgres"
	pkgpostgres "github.com/MpumeleloTheAlgoHiver/onboardingmint/pkg/postgres"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/pkg/tlsutil"
)

// loadConfig reads .env (when present) and the environment.
func loadConfig() (config.Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ensureDevCerts writes a self-signed CA and server certificate to
// DevCertDir unless one is already there, and returns the config pointing at
// them. Configured certificates are left alone.
func ensureDevCerts(c config.GRPCConfig, logger *slog.Logger) (config.GRPCConfig, error) {
	if c.DevCertDir == "" || c.TLSEnabled() {
		return c, nil
	}
	if _, err := os.Stat(filepath.Join(c.DevCertDir, "server.pem")); errors.Is(err, os.ErrNotExist) {
		if err := tlsutil.GenerateSelfSignedCert([]string{"localhost", "127.0.0.1"}, c.DevCertDir); err != nil {
			return c, fmt.Errorf("generate dev certificates: %w", err)
		}
		logger.Warn("generated self-signed gRPC certificates", "dir", c.DevCertDir)
	}
	return c.WithDevCerts(), nil
}

// checkHealth asks the gRPC health service at addr for the server status.
// TLS is used when the listener has certificates, trusting c.CAFile (or the
// system pool when empty).
func checkHealth(ctx context.Context, addr string, c config.GRPCConfig) error {
	var creds credentials.TransportCredentials = insecure.NewCredentials()
	if c.TLSEnabled() {
		tlsCreds, err := tlsutil.ClientTLSConfig(c.CAFile, false)
		if err != nil {
			return err
		}
		creds = tlsCreds
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return fmt.Errorf("health check %s: %w", addr, err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("health check %s: status %s", addr, resp.GetStatus())
	}
	return nil
}

// runHealthcheck checks the local listener; used as a container healthcheck.
func runHealthcheck() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	addr := net.JoinHostPort("localhost", strconv.Itoa(cfg.GRPCPort))
	return checkHealth(ctx, addr, cfg.GRPC.WithDevCerts())
}

// runMigrateDown rolls back every migration of the configured database.
func runMigrateDown() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.StorageDriver != config.StoragePostgres {
		return fmt.Errorf("migrate-down needs STORAGE_DRIVER=%s, got %q", config.StoragePostgres, cfg.StorageDriver)
	}

	pgCfg := cfg.DB.Postgres(cfg.ServiceName)
	if err := pkgpostgres.RunMigrationsDown(pgCfg.DSN(), pgRepo.Migrations()); err != nil {
		return fmt.Errorf("roll back migrations: %w", err)
	}
	slog.Info("migrations rolled back", "database", cfg.DB.Name)
	return nil
}
