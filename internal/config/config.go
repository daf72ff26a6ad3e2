// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags   string `mapstructure:"FEATURE_FLAGS"`

	DBDriver                 string `mapstructure:"DB_DRIVER"`
	DBHost                   string `mapstructure:"DB_HOST"`
	DBPort                   string `mapstructure:"DB_PORT"`
	DBUser                   string `mapstructure:"DB_USER"`
	DBPassword               string `mapstructure:"DB_PASSWORD"`
	DBName                   string `mapstructure:"DB_NAME"`
	DBSSLMode                string `mapstructure:"DB_SSLMODE"`
	SQLitePath               string `mapstructure:"SQLITE_PATH"`
	DBMaxOpenConns           int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns           int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	RedisURL string `mapstructure:"REDIS_URL"`

	GeminiAPIKey         string `mapstructure:"GEMINI_API_KEY"`
	LegacyAPIKey         string `mapstructure:"API_KEY"`
	GeminiModel          string `mapstructure:"GEMINI_MODEL"`
	GeminiBaseURL        string `mapstructure:"GEMINI_BASE_URL"`
	OracleTimeoutSeconds int    `mapstructure:"ORACLE_TIMEOUT_SECONDS"`
	OracleRatePerMinute  int    `mapstructure:"ORACLE_RATE_PER_MINUTE"`

	WishlistStore     string `mapstructure:"WISHLIST_STORE"`
	WishlistFile      string `mapstructure:"WISHLIST_FILE"`
	WishlistNamespace string `mapstructure:"WISHLIST_NAMESPACE"`

	DefaultViewerID         uint    `mapstructure:"DEFAULT_VIEWER_ID"`
	DefaultMaxDistanceMiles float64 `mapstructure:"DEFAULT_MAX_DISTANCE_MILES"`
	SeedDemoData            bool    `mapstructure:"SEED_DEMO_DATA"`

	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint        string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

var defaults = map[string]any{
	"PORT":            "8375",
	"APP_ENV":         "development",
	"ALLOWED_ORIGINS": "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173",
	"FEATURE_FLAGS":   "",

	"DB_DRIVER":                    "postgres",
	"DB_HOST":                      "localhost",
	"DB_PORT":                      "5432",
	"DB_USER":                      "user",
	"DB_PASSWORD":                  "password",
	"DB_NAME":                      "thrift",
	"DB_SSLMODE":                   "disable",
	"SQLITE_PATH":                  "thrift.db",
	"DB_MAX_OPEN_CONNS":            25,
	"DB_MAX_IDLE_CONNS":            10,
	"DB_CONN_MAX_LIFETIME_MINUTES": 30,

	"REDIS_URL": "localhost:6379",

	"GEMINI_API_KEY":         "",
	"API_KEY":                "",
	"GEMINI_MODEL":           "gemini-2.5-flash",
	"GEMINI_BASE_URL":        "https://generativelanguage.googleapis.com/v1beta",
	"ORACLE_TIMEOUT_SECONDS": 15,
	"ORACLE_RATE_PER_MINUTE": 30,

	"WISHLIST_STORE":     "redis",
	"WISHLIST_FILE":      "data/wishlists",
	"WISHLIST_NAMESPACE": "riceThriftWishlist",

	"DEFAULT_VIEWER_ID":          1,
	"DEFAULT_MAX_DISTANCE_MILES": 5.0,
	"SEED_DEMO_DATA":             true,

	"TRACING_ENABLED":       false,
	"TRACING_EXPORTER":      "stdout",
	"OTLP_ENDPOINT":         "localhost:4318",
	"TRACING_SAMPLER_RATIO": 1.0,
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	for key, value := range defaults {
		viper.SetDefault(key, value)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) normalize() {
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.WishlistStore = strings.ToLower(strings.TrimSpace(c.WishlistStore))
	c.GeminiAPIKey = strings.TrimSpace(c.GeminiAPIKey)
	if c.GeminiAPIKey == "" {
		c.GeminiAPIKey = strings.TrimSpace(c.LegacyAPIKey)
	}
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and consistent.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	switch c.WishlistStore {
	case "redis", "file", "db", "memory":
	default:
		return fmt.Errorf("WISHLIST_STORE must be one of redis, file, db, memory, got %q", c.WishlistStore)
	}
	if c.WishlistStore == "file" && c.WishlistFile == "" {
		return errors.New("WISHLIST_FILE is required when WISHLIST_STORE=file")
	}
	if c.OracleTimeoutSeconds <= 0 {
		return errors.New("ORACLE_TIMEOUT_SECONDS must be positive")
	}
	if c.OracleRatePerMinute < 0 {
		return errors.New("ORACLE_RATE_PER_MINUTE must not be negative")
	}
	if c.DefaultMaxDistanceMiles < 0 {
		return errors.New("DEFAULT_MAX_DISTANCE_MILES must not be negative")
	}
	if c.DBConnMaxLifetimeMinutes < 0 {
		return errors.New("DB_CONN_MAX_LIFETIME_MINUTES must not be negative")
	}

	if c.IsProduction() {
		if c.DBDriver == "postgres" && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBDriver == "postgres" && (c.DBSSLMode == "disable" || c.DBSSLMode == "") {
			return errors.New("DB_SSLMODE must enable TLS in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
		if c.WishlistStore == "memory" {
			log.Println("WARNING: WISHLIST_STORE=memory in production. Wishlists will not survive restarts.")
		}
	}

	return nil
}
