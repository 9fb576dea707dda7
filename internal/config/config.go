// Package config loads server settings from defaults, an optional TOML file
// and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// PlaceholderSecret is the development default; it is refused in prod.
const PlaceholderSecret = "your-secret-key-change-in-production"

// Config holds runtime settings for the API server.
type Config struct {
	Port     string `toml:"port"`
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`

	DatabaseDriver string `toml:"database_driver"`
	MongoURI       string `toml:"mongo_uri"`
	DatabaseName   string `toml:"database_name"`

	JWTSecret                      string `toml:"jwt_secret_key"`
	AccessTokenExpireMinutes       int    `toml:"access_token_expire_minutes"`
	VerificationTokenExpireMinutes int    `toml:"verification_token_expire_minutes"`

	AllowedOrigins []string `toml:"allowed_origins"`
	FrontendURL    string   `toml:"frontend_url"`
	AuthRateLimit  int      `toml:"auth_rate_limit"`

	SMTP SMTPConfig `toml:"smtp"`

	StorageDriver string      `toml:"storage_driver"`
	UploadDir     string      `toml:"upload_dir"`
	Bucket        string      `toml:"storage_bucket"`
	MinIO         MinIOConfig `toml:"minio"`
	S3            S3Config    `toml:"s3"`

	MaxFileSize     int64 `toml:"max_file_size"`
	DefaultPageSize int   `toml:"default_page_size"`
	MaxPageSize     int   `toml:"max_page_size"`
}

type SMTPConfig struct {
	Server    string `toml:"server"`
	Port      int    `toml:"port"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	FromEmail string `toml:"from_email"`
	FromName  string `toml:"from_name"`
}

type MinIOConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
}

type S3Config struct {
	Region    string `toml:"region"`
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
}

// Defaults returns a development configuration.
func Defaults() *Config {
	return &Config{
		Port:     "8001",
		Env:      "dev",
		LogLevel: "info",

		DatabaseDriver: "mongo",
		MongoURI:       "mongodb://localhost:27017",
		DatabaseName:   "academic_resources_db",

		JWTSecret:                      PlaceholderSecret,
		AccessTokenExpireMinutes:       1440,
		VerificationTokenExpireMinutes: 15,

		AllowedOrigins: []string{"http://localhost:3000"},
		FrontendURL:    "http://localhost:3000",
		AuthRateLimit:  20,

		SMTP: SMTPConfig{
			Server:   "smtp.gmail.com",
			Port:     587,
			FromName: "EduResources",
		},

		StorageDriver: "local",
		UploadDir:     "uploads",
		Bucket:        "eduresources",
		S3:            S3Config{Region: "us-east-1"},

		MaxFileSize:     10 * 1024 * 1024,
		DefaultPageSize: 20,
		MaxPageSize:     100,
	}
}

// Load builds a Config from defaults, the TOML file at path (skipped when
// empty) and the environment. A .env file in the working directory is
// loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func first(lookup lookupFunc, names ...string) (string, bool) {
	for _, n := range names {
		if v, ok := lookup(n); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(dst *string, names ...string) {
		if v, ok := first(lookup, names...); ok {
			*dst = v
		}
	}
	var errs []error
	num := func(dst *int, name string) {
		if v, ok := first(lookup, name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = n
		}
	}

	str(&c.Port, "PORT")
	str(&c.Env, "ENV")
	str(&c.LogLevel, "LOG_LEVEL")

	str(&c.DatabaseDriver, "DATABASE_DRIVER")
	str(&c.MongoURI, "MONGO_URI", "MONGO_URL", "DATABASE_URL")
	str(&c.DatabaseName, "DATABASE_NAME")

	str(&c.JWTSecret, "JWT_SECRET_KEY", "SECRET_KEY", "JWT_SECRET")
	num(&c.AccessTokenExpireMinutes, "ACCESS_TOKEN_EXPIRE_MINUTES")
	num(&c.VerificationTokenExpireMinutes, "VERIFICATION_TOKEN_EXPIRE_MINUTES")

	if v, ok := first(lookup, "ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitList(v)
	}
	str(&c.FrontendURL, "FRONTEND_URL")
	num(&c.AuthRateLimit, "AUTH_RATE_LIMIT")

	str(&c.SMTP.Server, "SMTP_SERVER")
	num(&c.SMTP.Port, "SMTP_PORT")
	str(&c.SMTP.Username, "SMTP_USERNAME")
	str(&c.SMTP.Password, "SMTP_PASSWORD")
	str(&c.SMTP.FromEmail, "SMTP_FROM_EMAIL")
	str(&c.SMTP.FromName, "SMTP_FROM_NAME")

	str(&c.StorageDriver, "STORAGE_DRIVER")
	str(&c.UploadDir, "UPLOAD_DIR")
	str(&c.Bucket, "STORAGE_BUCKET", "MINIO_BUCKET")
	str(&c.MinIO.Endpoint, "MINIO_ENDPOINT")
	str(&c.MinIO.AccessKey, "MINIO_ACCESS_KEY")
	str(&c.MinIO.SecretKey, "MINIO_SECRET_KEY")
	if v, ok := first(lookup, "MINIO_USE_SSL"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("MINIO_USE_SSL: %w", err))
		}
		c.MinIO.UseSSL = b
	}
	str(&c.S3.Region, "S3_REGION", "AWS_REGION")
	str(&c.S3.Endpoint, "S3_ENDPOINT")
	str(&c.S3.AccessKey, "S3_ACCESS_KEY", "AWS_ACCESS_KEY_ID")
	str(&c.S3.SecretKey, "S3_SECRET_KEY", "AWS_SECRET_ACCESS_KEY")

	if v, ok := first(lookup, "MAX_FILE_SIZE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("MAX_FILE_SIZE: %w", err))
		}
		c.MaxFileSize = n
	}
	num(&c.DefaultPageSize, "DEFAULT_PAGE_SIZE")
	num(&c.MaxPageSize, "MAX_PAGE_SIZE")

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports the first setting that would make the server misbehave.
func (c *Config) Validate() error {
	switch {
	case c.JWTSecret == "":
		return errors.New("config: JWT_SECRET_KEY must be set")
	case c.Env == "prod" && c.JWTSecret == PlaceholderSecret:
		return errors.New("config: JWT_SECRET_KEY must be changed in prod")
	case c.AccessTokenExpireMinutes <= 0:
		return errors.New("config: ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	case c.VerificationTokenExpireMinutes <= 0:
		return errors.New("config: VERIFICATION_TOKEN_EXPIRE_MINUTES must be positive")
	case c.MaxPageSize < 1:
		return errors.New("config: MAX_PAGE_SIZE must be positive")
	case c.DefaultPageSize < 1 || c.DefaultPageSize > c.MaxPageSize:
		return fmt.Errorf("config: DEFAULT_PAGE_SIZE must be within [1, %d]", c.MaxPageSize)
	case c.MaxFileSize <= 0:
		return errors.New("config: MAX_FILE_SIZE must be positive")
	}

	switch c.DatabaseDriver {
	case "mongo", "memory":
	default:
		return fmt.Errorf("config: unknown database driver %q", c.DatabaseDriver)
	}
	switch c.StorageDriver {
	case "local", "minio", "s3":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.StorageDriver)
	}
	return nil
}

func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

func (c *Config) VerificationTTL() time.Duration {
	return time.Duration(c.VerificationTokenExpireMinutes) * time.Minute
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// MailEnabled reports whether SMTP credentials are configured.
func (c *Config) MailEnabled() bool {
	return c.SMTP.Username != "" && c.SMTP.Password != ""
}
