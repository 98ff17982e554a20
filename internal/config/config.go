package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	DB      DBConfig
	Storage StorageConfig
	AI      AIConfig
	Auth    AuthConfig
	Server  ServerConfig
}

// DBConfig holds database configuration
type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	Database string `envconfig:"DB_NAME" default:"replay_coach"`
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"10"`
}

// StorageConfig holds object storage (S3-compatible) configuration
type StorageConfig struct {
	Endpoint  string `envconfig:"S3_ENDPOINT" default:"localhost"`
	Port      int    `envconfig:"S3_PORT" default:"9000"`
	AccessKey string `envconfig:"S3_ACCESS_KEY"`
	SecretKey string `envconfig:"S3_SECRET_KEY"`
	UseSSL    bool   `envconfig:"S3_USE_SSL" default:"false"`
	Bucket    string `envconfig:"S3_BUCKET" default:"videos"`
}

// AIConfig holds video-AI service configuration
type AIConfig struct {
	APIKey      string        `envconfig:"AI_API_KEY"`
	IndexID     string        `envconfig:"AI_INDEX_ID"`
	BaseURL     string        `envconfig:"AI_BASE_URL" default:"https://api.twelvelabs.io/v1.3"`
	Temperature float64       `envconfig:"AI_TEMPERATURE" default:"0.2"`
	RateLimit   float64       `envconfig:"AI_RATE_LIMIT" default:"2"`
	Timeout     time.Duration `envconfig:"AI_TIMEOUT" default:"10m"`
}

// AuthConfig holds token verification configuration.
// Tokens are issued by the external identity provider; this service only
// verifies them.
type AuthConfig struct {
	JWTSecret string `envconfig:"AUTH_JWT_SECRET" required:"true"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port    int    `envconfig:"SERVER_PORT" default:"8080"`
	BaseURL string `envconfig:"SERVER_BASE_URL" default:"http://localhost:8080"`
}

// Addr returns the storage endpoint in host:port form
func (c *StorageConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Endpoint, c.Port)
}

// DSN returns the MySQL data source name
func (c *DBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg.DB); err != nil {
		return nil, fmt.Errorf("failed to load db config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Storage); err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	if err := envconfig.Process("", &cfg.AI); err != nil {
		return nil, fmt.Errorf("failed to load ai config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Auth); err != nil {
		return nil, fmt.Errorf("failed to load auth config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DB.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required")
	}
	if c.AI.RateLimit <= 0 {
		return fmt.Errorf("AI_RATE_LIMIT must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}
	return nil
}

// WarnMissing logs missing external-service credentials. They are not
// enforced so the server can still start in environments where only part
// of the pipeline is exercised.
func (c *Config) WarnMissing() {
	if c.Storage.AccessKey == "" {
		log.Warn().Msg("S3_ACCESS_KEY is not set, object storage calls will fail")
	}
	if c.Storage.SecretKey == "" {
		log.Warn().Msg("S3_SECRET_KEY is not set, object storage calls will fail")
	}
	if c.AI.APIKey == "" {
		log.Warn().Msg("AI_API_KEY is not set, video analysis calls will fail")
	}
	if c.AI.IndexID == "" {
		log.Warn().Msg("AI_INDEX_ID is not set, video indexing calls will fail")
	}
}
