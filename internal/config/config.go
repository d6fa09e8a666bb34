package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	AppEnv     string `mapstructure:"APP_ENV" validate:"required,oneof=development staging production test"`
	ServerPort string `mapstructure:"SERVER_PORT" validate:"required,numeric"`

	DBDriver    string `mapstructure:"DB_DRIVER" validate:"required,oneof=mysql postgres sqlite sqlserver"`
	DatabaseDSN string `mapstructure:"DATABASE_DSN" validate:"required"`
	ResetDB     bool   `mapstructure:"RESET_DB"`

	CacheDriver     string        `mapstructure:"CACHE_DRIVER" validate:"required,oneof=redis memory"`
	RedisAddr       string        `mapstructure:"REDIS_ADDR" validate:"required_if=CacheDriver redis"`
	RedisPass       string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB" validate:"gte=0"`
	CacheTimeout    time.Duration `mapstructure:"CACHE_TIMEOUT" validate:"gt=0"`
	ProductCacheTTL time.Duration `mapstructure:"PRODUCT_CACHE_TTL" validate:"gt=0"`

	JWTSecret       string        `mapstructure:"JWT_SECRET" validate:"required"`
	AccessTokenTTL  time.Duration `mapstructure:"ACCESS_TOKEN_TTL" validate:"gt=0"`
	RefreshTokenTTL time.Duration `mapstructure:"REFRESH_TOKEN_TTL" validate:"gtfield=AccessTokenTTL"`

	AuthRateLimit float64 `mapstructure:"AUTH_RATE_LIMIT" validate:"gte=0"`
	AuthRateBurst int     `mapstructure:"AUTH_RATE_BURST" validate:"gte=0"`

	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"gt=0"`

	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"required,oneof=debug info warn error dpanic panic fatal"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"required,oneof=json console"`

	StorageDriver    string `mapstructure:"STORAGE_DRIVER" validate:"required,oneof=local s3"`
	StorageLocalRoot string `mapstructure:"STORAGE_LOCAL_ROOT"`
	StorageURL       string `mapstructure:"STORAGE_URL"`
	S3Bucket         string `mapstructure:"S3_BUCKET" validate:"required_if=StorageDriver s3"`
	S3Region         string `mapstructure:"S3_REGION"`
	S3Key            string `mapstructure:"S3_KEY"`
	S3Secret         string `mapstructure:"S3_SECRET"`
	S3Endpoint       string `mapstructure:"S3_ENDPOINT"`

	SwaggerHost string `mapstructure:"SWAGGER_HOST"`
}

// defaultJWTSecret is only accepted in development and test environments.
const defaultJWTSecret = "change-me"

var defaults = map[string]any{
	"APP_ENV":            "development",
	"SERVER_PORT":        "8080",
	"DB_DRIVER":          "mysql",
	"DATABASE_DSN":       "user:password@tcp(localhost:3306)/app?charset=utf8mb4&parseTime=True&loc=Local",
	"RESET_DB":           false,
	"CACHE_DRIVER":       "redis",
	"REDIS_ADDR":         "localhost:6379",
	"REDIS_PASSWORD":     "",
	"REDIS_DB":           0,
	"CACHE_TIMEOUT":      "500ms",
	"PRODUCT_CACHE_TTL":  "15m",
	"JWT_SECRET":         defaultJWTSecret,
	"ACCESS_TOKEN_TTL":   "15m",
	"REFRESH_TOKEN_TTL":  "168h",
	"AUTH_RATE_LIMIT":    5,
	"AUTH_RATE_BURST":    10,
	"REQUEST_TIMEOUT":    "10s",
	"SHUTDOWN_TIMEOUT":   "15s",
	"LOG_LEVEL":          "info",
	"LOG_FORMAT":         "json",
	"STORAGE_DRIVER":     "local",
	"STORAGE_LOCAL_ROOT": "media",
	"STORAGE_URL":        "http://localhost:8080/media",
	"S3_BUCKET":          "",
	"S3_REGION":          "us-east-1",
	"S3_KEY":             "",
	"S3_SECRET":          "",
	"S3_ENDPOINT":        "",
	"SWAGGER_HOST":       "",
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load builds Config from .env files, environment and defaults, then validates it.
func Load() (*Config, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, def := range defaults {
		v.SetDefault(key, def)
		_ = v.BindEnv(key)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}
	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if c.JWTSecret == defaultJWTSecret && c.AppEnv != "development" && c.AppEnv != "test" {
		return nil, fmt.Errorf("invalid configuration: JWT_SECRET must be set when APP_ENV=%s", c.AppEnv)
	}
	return &c, nil
}

// MustLoad loads configuration or exits the process on failure.
func MustLoad() *Config {
	c, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	return c
}
