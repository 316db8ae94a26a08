package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Services that read this configuration. Validate checks only what the named
// service needs.
const (
	ServiceGateway   = "gateway"
	ServiceAuth      = "auth"
	ServicePatient   = "patient"
	ServiceAnalytics = "analytics"
	ServiceMigrate   = "migrate"
)

const (
	StorageMongo    = "mongo"
	StoragePostgres = "postgres"
)

const minJWTSecretBytes = 32

type Config struct {
	Env string `env:"ENV, default=development"`

	Log       LogConfig
	JWT       JWTConfig
	Ports     PortConfig
	Gateway   GatewayConfig
	Storage   StorageConfig
	Mongo     MongoConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Billing   BillingConfig
	Patient   PatientConfig
	Stream    StreamConfig
	Analytics AnalyticsConfig
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL,  default=info"`
	Pretty bool   `env:"LOG_PRETTY, default=false"`
}

type JWTConfig struct {
	Secret string        `env:"JWT_SECRET"`
	TTL    time.Duration `env:"JWT_TTL, default=10h"`
}

type PortConfig struct {
	Gateway   string `env:"GATEWAY_PORT,   default=4004"`
	Auth      string `env:"AUTH_PORT,      default=4005"`
	Patient   string `env:"PATIENT_PORT,   default=4000"`
	Analytics string `env:"ANALYTICS_PORT, default=4002"`
}

type GatewayConfig struct {
	AuthServiceURL    string        `env:"AUTH_SERVICE_URL,       default=http://localhost:4005"`
	PatientServiceURL string        `env:"PATIENT_SERVICE_URL,    default=http://localhost:4000"`
	VerifyTimeout     time.Duration `env:"GATEWAY_VERIFY_TIMEOUT, default=2s"`
}

type StorageConfig struct {
	Driver string `env:"STORAGE_DRIVER, default=mongo"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=patient_system"`
}

type PostgresConfig struct {
	DSN string `env:"POSTGRES_DSN"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type BillingConfig struct {
	Addr    string        `env:"BILLING_ADDR,    default=localhost:9001"`
	Timeout time.Duration `env:"BILLING_TIMEOUT, default=3s"`
}

type PatientConfig struct {
	PersistTimeout time.Duration `env:"PATIENT_PERSIST_TIMEOUT, default=5s"`
	PublishTimeout time.Duration `env:"EVENT_PUBLISH_TIMEOUT,   default=2s"`
}

type StreamConfig struct {
	Name   string `env:"EVENT_STREAM,        default=patient"`
	MaxLen int64  `env:"EVENT_STREAM_MAXLEN, default=100000"`
}

type AnalyticsConfig struct {
	Group         string        `env:"ANALYTICS_GROUP,          default=analytics-service"`
	Consumer      string        `env:"ANALYTICS_CONSUMER,       default=analytics-1"`
	Workers       int           `env:"ANALYTICS_WORKERS,        default=4"`
	ClaimMinIdle  time.Duration `env:"ANALYTICS_CLAIM_MIN_IDLE, default=1m"`
	ClaimInterval time.Duration `env:"ANALYTICS_CLAIM_INTERVAL, default=30s"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every setting the given service cannot run without.
func (c *Config) Validate(service string) error {
	var errs []error

	switch service {
	case ServiceAuth:
		if len(c.JWT.Secret) < minJWTSecretBytes {
			errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minJWTSecretBytes))
		}
		if c.JWT.TTL <= 0 {
			errs = append(errs, errors.New("JWT_TTL must be positive"))
		}
		errs = append(errs, c.validateStorage()...)
	case ServicePatient, ServiceMigrate:
		errs = append(errs, c.validateStorage()...)
	case ServiceGateway:
		if c.Gateway.AuthServiceURL == "" {
			errs = append(errs, errors.New("AUTH_SERVICE_URL is required"))
		}
		if c.Gateway.PatientServiceURL == "" {
			errs = append(errs, errors.New("PATIENT_SERVICE_URL is required"))
		}
		if c.Gateway.VerifyTimeout <= 0 {
			errs = append(errs, errors.New("GATEWAY_VERIFY_TIMEOUT must be positive"))
		}
	case ServiceAnalytics:
		if c.Analytics.Workers < 1 {
			errs = append(errs, errors.New("ANALYTICS_WORKERS must be at least 1"))
		}
	default:
		return fmt.Errorf("unknown service %q", service)
	}

	return errors.Join(errs...)
}

func (c *Config) validateStorage() []error {
	switch c.Storage.Driver {
	case StorageMongo:
		if c.Mongo.URI == "" {
			return []error{errors.New("MONGO_URI is required for the mongo driver")}
		}
	case StoragePostgres:
		if c.Postgres.DSN == "" {
			return []error{errors.New("POSTGRES_DSN is required for the postgres driver")}
		}
	default:
		return []error{fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageMongo, StoragePostgres, c.Storage.Driver)}
	}
	return nil
}
