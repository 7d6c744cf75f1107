package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Kafka.Enabled())

	assert.Equal(t, ":9095", cfg.GRPCAddr())
	assert.Equal(t, ":8095", cfg.HTTPAddr())
	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, 3*time.Second, cfg.IncomeFetchTimeout)
	assert.Equal(t, "Africa/Johannesburg", cfg.Timezone)
	assert.Equal(t, 24, cfg.Credit.Fees.MaxMonths)
	assert.True(t, cfg.Credit.Fees.BaseFee.Equal(decimal.NewFromInt(169)))
	assert.True(t, cfg.Credit.Caps.DefaultCap.Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, 10, cfg.Credit.MinLeadDays)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("GRPC_PORT", "7000")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("REDIS_TTL", "2m")
	t.Setenv("INCOME_FETCH_TIMEOUT", "500ms")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("DB_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.GRPCPort)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 2*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, 500*time.Millisecond, cfg.IncomeFetchTimeout)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, 5432, cfg.DB.Port)
	require.NoError(t, cfg.Validate())
}

func TestLoad_CreditFile(t *testing.T) {
	path := writeTempConfig(t, `
fees:
  base_fee: "199"
  monthly_rate: "0.04"
  max_months: 12
caps:
  floor_cap: "500"
scheduler:
  min_lead_days: 7
`)
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Credit.Fees.BaseFee.Equal(decimal.NewFromInt(199)))
	assert.True(t, cfg.Credit.Fees.MonthlyRate.Equal(decimal.RequireFromString("0.04")))
	assert.True(t, cfg.Credit.Fees.Over1kRate.Equal(decimal.RequireFromString("0.10")))
	assert.Equal(t, 12, cfg.Credit.Fees.MaxMonths)
	assert.True(t, cfg.Credit.Caps.FloorCap.Equal(decimal.NewFromInt(500)))
	assert.True(t, cfg.Credit.Caps.DefaultCap.Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, 7, cfg.Credit.MinLeadDays)
}

func TestLoad_CreditFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("bad decimal", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", writeTempConfig(t, "fees:\n  base_fee: \"lots\"\n"))
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fees.base_fee")
	})

	t.Run("bad yaml", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", writeTempConfig(t, "fees: ["))
		_, err := Load()
		require.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func(t *testing.T) Config {
		t.Setenv("CONFIG_FILE", "")
		cfg, err := Load()
		require.NoError(t, err)
		cfg.DB.Password = "secret"
		cfg.Timezone = "UTC"
		return cfg
	}

	require.NoError(t, valid(t).Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"postgres without password", func(c *Config) { c.DB.Password = "" }},
		{"unknown storage", func(c *Config) { c.StorageDriver = "sqlite" }},
		{"zero max months", func(c *Config) { c.Credit.Fees.MaxMonths = 0 }},
		{"zero default cap", func(c *Config) { c.Credit.Caps.DefaultCap = decimal.Zero }},
		{"negative lead days", func(c *Config) { c.Credit.MinLeadDays = -1 }},
		{"unknown timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(t)
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDatabaseConfig_Postgres(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p@ss", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss@db:5433/n?sslmode=disable&application_name=credit-engine",
		db.Postgres("credit-engine").DSN())
}

func TestKafkaConfig_Client(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("KAFKA_BROKERS", "k1:9092,,k2:9092 ")
	t.Setenv("KAFKA_TLS", "true")
	t.Setenv("KAFKA_SASL_MECHANISM", "SCRAM-SHA-512")
	t.Setenv("KAFKA_SASL_USERNAME", "svc")
	t.Setenv("KAFKA_SASL_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.Kafka.Enabled())

	kc := cfg.Kafka.Client("credit-engine")
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, kc.Brokers)
	assert.Equal(t, "credit-engine", kc.ClientID)
	assert.Equal(t, "credit-engine", kc.ConsumerGroup)
	assert.True(t, kc.TLS)
	assert.True(t, kc.SASLEnabled)
	assert.Equal(t, "SCRAM-SHA-512", kc.SASLMechanism)
}

func TestLoad_GRPC(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("GRPC_TLS_CERT_FILE", "/tls/cert.pem")
	t.Setenv("GRPC_TLS_KEY_FILE", "/tls/key.pem")
	t.Setenv("GRPC_REFLECTION", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tls/cert.pem", cfg.GRPC.TLSCertFile)
	assert.Equal(t, "/tls/key.pem", cfg.GRPC.TLSKeyFile)
	assert.Empty(t, cfg.GRPC.ClientCAFile)
	assert.True(t, cfg.GRPC.Reflection)
	assert.True(t, cfg.GRPC.TLSEnabled())
}

func TestGRPCConfig_WithDevCerts(t *testing.T) {
	t.Run("fills paths from the dev cert dir", func(t *testing.T) {
		c := GRPCConfig{DevCertDir: "/tmp/certs"}.WithDevCerts()
		assert.Equal(t, "/tmp/certs/server.pem", c.TLSCertFile)
		assert.Equal(t, "/tmp/certs/server-key.pem", c.TLSKeyFile)
		assert.Equal(t, "/tmp/certs/ca.pem", c.CAFile)
		assert.True(t, c.TLSEnabled())
	})

	t.Run("configured certificates win", func(t *testing.T) {
		in := GRPCConfig{TLSCertFile: "/tls/cert.pem", TLSKeyFile: "/tls/key.pem", DevCertDir: "/tmp/certs"}
		assert.Equal(t, in, in.WithDevCerts())
	})

	t.Run("no dev cert dir", func(t *testing.T) {
		assert.False(t, GRPCConfig{}.WithDevCerts().TLSEnabled())
	})
}
