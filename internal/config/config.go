package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DBHost     string `mapstructure:"db_host"`
	DBPort     string `mapstructure:"db_port"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"`
	DBSSLMode  string `mapstructure:"db_sslmode"`

	ServerPort      string        `mapstructure:"server_port"`
	WriteTimeout    time.Duration `mapstructure:"server_write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"server_shutdown_timeout"`

	LogLevel  string `mapstructure:"log_level"`
	PrettyLog bool   `mapstructure:"log_pretty"`

	JWTSecret string `mapstructure:"jwt_secret"`

	// Ingest without a bearer token is allowed unless this is set.
	IngestRequireAuth bool `mapstructure:"ingest_require_auth"`

	SummarizerProvider       string        `mapstructure:"summarizer_provider"`
	SummarizerURL            string        `mapstructure:"summarizer_url"`
	SummarizerTimeout        time.Duration `mapstructure:"summarizer_timeout"`
	SummarizerExtractContent bool          `mapstructure:"summarizer_extract_content"`
	SummarizerExtractTimeout time.Duration `mapstructure:"summarizer_extract_timeout"`
	CohereAPIKey             string        `mapstructure:"cohere_api_key"`
	CohereModel              string        `mapstructure:"cohere_model"`

	// Empty disables the in-flight ingest guard.
	RedisURL          string        `mapstructure:"redis_url"`
	InflightGuardTTL  time.Duration `mapstructure:"inflight_guard_ttl"`
	// How long a duplicate submission waits for the in-flight one before ingesting itself.
	InflightGuardWait time.Duration `mapstructure:"inflight_guard_wait"`

	R2AccountID       string `mapstructure:"r2_account_id"`
	R2AccessKeyID     string `mapstructure:"r2_access_key_id"`
	R2SecretAccessKey string `mapstructure:"r2_secret_access_key"`
	R2BucketName      string `mapstructure:"r2_bucket_name"`
	R2PublicURL       string `mapstructure:"r2_public_url"`
}

const (
	ProviderWorker = "worker"
	ProviderCohere = "cohere"
)

// LoadConfig reads .env (if present), an optional CONFIG_FILE, and the process
// environment, in increasing order of precedence.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv picks it up during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "")
	v.SetDefault("db_password", "")
	v.SetDefault("db_name", "readwatch")
	v.SetDefault("db_sslmode", "require")

	v.SetDefault("server_port", "8080")
	v.SetDefault("server_write_timeout", 120*time.Second)
	v.SetDefault("server_shutdown_timeout", 10*time.Second)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)

	v.SetDefault("jwt_secret", "")
	v.SetDefault("ingest_require_auth", false)

	v.SetDefault("summarizer_provider", ProviderWorker)
	v.SetDefault("summarizer_url", "http://127.0.0.1:5001")
	v.SetDefault("summarizer_timeout", 90*time.Second)
	v.SetDefault("summarizer_extract_content", false)
	v.SetDefault("summarizer_extract_timeout", 10*time.Second)
	v.SetDefault("cohere_api_key", "")
	v.SetDefault("cohere_model", "command-r")

	v.SetDefault("redis_url", "")
	v.SetDefault("inflight_guard_ttl", 2*time.Minute)
	v.SetDefault("inflight_guard_wait", 10*time.Second)

	v.SetDefault("r2_account_id", "")
	v.SetDefault("r2_access_key_id", "")
	v.SetDefault("r2_secret_access_key", "")
	v.SetDefault("r2_bucket_name", "")
	v.SetDefault("r2_public_url", "")
}

// Validate enforces required values and sane limits.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.SummarizerTimeout <= 0 {
		return fmt.Errorf("SUMMARIZER_TIMEOUT must be > 0")
	}
	if c.WriteTimeout <= c.SummarizerTimeout {
		return fmt.Errorf("SERVER_WRITE_TIMEOUT (%s) must exceed SUMMARIZER_TIMEOUT (%s)", c.WriteTimeout, c.SummarizerTimeout)
	}
	switch c.SummarizerProvider {
	case ProviderWorker:
		if c.SummarizerURL == "" {
			return fmt.Errorf("SUMMARIZER_URL must be set for the worker provider")
		}
	case ProviderCohere:
		if c.CohereAPIKey == "" {
			return fmt.Errorf("COHERE_API_KEY must be set for the cohere provider")
		}
	default:
		return fmt.Errorf("unknown SUMMARIZER_PROVIDER %q", c.SummarizerProvider)
	}
	return nil
}

// ExportEnabled reports whether all R2 settings needed for publishing exports are present.
func (c *Config) ExportEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicURL != ""
}
