package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/service"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/pkg/kafka"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/pkg/postgres"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type KafkaConfig struct {
	Brokers       []string
	Topic         string
	IncomeTopic   string
	GroupID       string
	TLS           bool
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// GRPCConfig holds transport security for the gRPC listener. CAFile is the
// trust root used when dialing the listener, for example by -healthcheck.
// DevCertDir enables generated self-signed certificates when no cert/key
// pair is configured.
type GRPCConfig struct {
	TLSCertFile  string
	TLSKeyFile   string
	ClientCAFile string
	CAFile       string
	DevCertDir   string
	Reflection   bool
}

// TLSEnabled reports whether a certificate and key are configured.
func (c GRPCConfig) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// WithDevCerts points an unconfigured listener at the certificates written
// to DevCertDir.
func (c GRPCConfig) WithDevCerts() GRPCConfig {
	if c.DevCertDir == "" || c.TLSEnabled() {
		return c
	}
	c.TLSCertFile = filepath.Join(c.DevCertDir, "server.pem")
	c.TLSKeyFile = filepath.Join(c.DevCertDir, "server-key.pem")
	if c.CAFile == "" {
		c.CAFile = filepath.Join(c.DevCertDir, "ca.pem")
	}
	return c
}

type JWTConfig struct {
	Secret        string
	PublicKey     string
	PublicKeyFile string
	Issuer        string
}

// CreditConfig holds the pricing and cap constants.
type CreditConfig struct {
	Fees        service.FeeSchedule
	Caps        service.CapPolicy
	MinLeadDays int
}

type Config struct {
	GRPCPort           int
	HTTPPort           int
	GRPC               GRPCConfig
	DB                 DatabaseConfig
	Kafka              KafkaConfig
	Redis              RedisConfig
	Log                LogConfig
	JWT                JWTConfig
	Credit             CreditConfig
	StorageDriver      string
	IncomeFetchTimeout time.Duration
	Timezone           string
	OTLPEndpoint       string
	ServiceName        string
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StoragePostgres:
		if c.DB.Password == "" {
			return errors.New("DB_PASSWORD environment variable is required")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.Credit.Fees.MaxMonths < 1 {
		return fmt.Errorf("fees.max_months must be positive, got %d", c.Credit.Fees.MaxMonths)
	}
	if !c.Credit.Caps.DefaultCap.IsPositive() || !c.Credit.Caps.FloorCap.IsPositive() {
		return errors.New("caps.default_cap and caps.floor_cap must be positive")
	}
	if c.Credit.MinLeadDays < 0 {
		return fmt.Errorf("scheduler.min_lead_days must not be negative, got %d", c.Credit.MinLeadDays)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Load reads the environment, overlaying the YAML credit policy named by
// CONFIG_FILE when set.
func Load() (Config, error) {
	credit := CreditConfig{
		Fees:        service.DefaultFeeSchedule(),
		Caps:        service.DefaultCapPolicy(),
		MinLeadDays: service.DefaultMinLeadDays,
	}
	if path := getEnv("CONFIG_FILE", ""); path != "" {
		var err error
		credit, err = loadCreditFile(path, credit)
		if err != nil {
			return Config{}, err
		}
	}

	return Config{
		GRPCPort: getEnvInt("GRPC_PORT", 9095),
		HTTPPort: getEnvInt("HTTP_PORT", 8095),
		GRPC: GRPCConfig{
			TLSCertFile:  getEnv("GRPC_TLS_CERT_FILE", ""),
			TLSKeyFile:   getEnv("GRPC_TLS_KEY_FILE", ""),
			ClientCAFile: getEnv("GRPC_TLS_CLIENT_CA_FILE", ""),
			CAFile:       getEnv("GRPC_TLS_CA_FILE", ""),
			DevCertDir:   getEnv("GRPC_TLS_DEV_CERT_DIR", ""),
			Reflection:   getEnv("GRPC_REFLECTION", "") == "true",
		},
		DB: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "mint"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "mint_credit"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:         getEnv("KAFKA_TOPIC", "credit-engine-events"),
			IncomeTopic:   getEnv("KAFKA_INCOME_TOPIC", "bank-snapshots"),
			GroupID:       getEnv("KAFKA_GROUP_ID", "credit-engine"),
			TLS:           getEnv("KAFKA_TLS", "") == "true",
			SASLMechanism: getEnv("KAFKA_SASL_MECHANISM", ""),
			SASLUsername:  getEnv("KAFKA_SASL_USERNAME", ""),
			SASLPassword:  getEnv("KAFKA_SASL_PASSWORD", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      getEnvDuration("REDIS_TTL", 15*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		JWT: JWTConfig{
			Secret:        getEnv("JWT_SECRET", ""),
			PublicKey:     getEnv("JWT_PUBLIC_KEY", ""),
			PublicKeyFile: getEnv("JWT_PUBLIC_KEY_FILE", ""),
			Issuer:        getEnv("JWT_ISSUER", "mint-identity"),
		},
		Credit:             credit,
		StorageDriver:      getEnv("STORAGE_DRIVER", StoragePostgres),
		IncomeFetchTimeout: getEnvDuration("INCOME_FETCH_TIMEOUT", 3*time.Second),
		Timezone:           getEnv("TIMEZONE", "Africa/Johannesburg"),
		OTLPEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:        "credit-engine",
	}, nil
}

// Location returns the time zone used to turn instants into calendar dates.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) GRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// Postgres converts the settings for pkg/postgres.
func (c DatabaseConfig) Postgres(appName string) postgres.Config {
	return postgres.Config{
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Database:        c.Name,
		SSLMode:         c.SSLMode,
		ApplicationName: appName,
	}
}

// ---------------------------------------------------------------------------
// YAML credit policy
// ---------------------------------------------------------------------------

// creditFile mirrors the YAML layout. Amounts are strings so they parse
// exactly into decimals.
type creditFile struct {
	Fees struct {
		BaseFee         string `yaml:"base_fee"`
		Over1kThreshold string `yaml:"over_threshold"`
		Over1kRate      string `yaml:"over_threshold_rate"`
		MonthlyRate     string `yaml:"monthly_rate"`
		MaxMonths       int    `yaml:"max_months"`
	} `yaml:"fees"`
	Caps struct {
		DefaultCap  string `yaml:"default_cap"`
		FloorCap    string `yaml:"floor_cap"`
		IncomeShare string `yaml:"income_share"`
	} `yaml:"caps"`
	Scheduler struct {
		MinLeadDays *int `yaml:"min_lead_days"`
	} `yaml:"scheduler"`
}

func loadCreditFile(path string, base CreditConfig) (CreditConfig, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator config
	if err != nil {
		return CreditConfig{}, fmt.Errorf("read config file %s: %w", path, err)
	}
	var f creditFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return CreditConfig{}, fmt.Errorf("parse config file %s: %w", path, err)
	}

	out := base
	fields := []struct {
		name   string
		raw    string
		target *decimal.Decimal
	}{
		{"fees.base_fee", f.Fees.BaseFee, &out.Fees.BaseFee},
		{"fees.over_threshold", f.Fees.Over1kThreshold, &out.Fees.Over1kThreshold},
		{"fees.over_threshold_rate", f.Fees.Over1kRate, &out.Fees.Over1kRate},
		{"fees.monthly_rate", f.Fees.MonthlyRate, &out.Fees.MonthlyRate},
		{"caps.default_cap", f.Caps.DefaultCap, &out.Caps.DefaultCap},
		{"caps.floor_cap", f.Caps.FloorCap, &out.Caps.FloorCap},
		{"caps.income_share", f.Caps.IncomeShare, &out.Caps.IncomeShare},
	}
	for _, fld := range fields {
		if fld.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(fld.raw)
		if err != nil {
			return CreditConfig{}, fmt.Errorf("%s: %w", fld.name, err)
		}
		*fld.target = d
	}
	if f.Fees.MaxMonths != 0 {
		out.Fees.MaxMonths = f.Fees.MaxMonths
	}
	if f.Scheduler.MinLeadDays != nil {
		out.MinLeadDays = *f.Scheduler.MinLeadDays
	}
	return out, nil
}

// Enabled reports whether any brokers are configured.
func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

// Client converts the settings for pkg/kafka.
func (c KafkaConfig) Client(clientID string) kafka.Config {
	return kafka.Config{
		ClientID:      clientID,
		ConsumerGroup: c.GroupID,
		Brokers:       c.Brokers,
		TLS:           c.TLS,
		SASLEnabled:   c.SASLMechanism != "",
		SASLMechanism: c.SASLMechanism,
		SASLUsername:  c.SASLUsername,
		SASLPassword:  c.SASLPassword,
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
