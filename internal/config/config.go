package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrUnconfigured is returned when a required collaborator (database, object
// store) has no credentials in the environment. Callers get this error
// instead of a degraded client.
var ErrUnconfigured = errors.New("unconfigured")

// UnconfiguredError names the missing environment variables.
type UnconfiguredError struct {
	Component string
	Missing   []string
}

func (e *UnconfiguredError) Error() string {
	return fmt.Sprintf("%s %s: missing %s", e.Component, ErrUnconfigured, strings.Join(e.Missing, ", "))
}

func (e *UnconfiguredError) Unwrap() error { return ErrUnconfigured }

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port string
	Env  string

	DB     DatabaseConfig
	Redis  RedisConfig
	S3     S3Config
	Admin  AdminConfig
	Import ImportConfig

	CatalogCacheTTL time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig contains PostgreSQL connection parameters. URL wins over
// the discrete fields when set.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// S3Config contains object storage configuration. Endpoint and
// ForcePathStyle allow S3-compatible stores (Supabase Storage, MinIO).
type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string
	PublicBaseURL   string
	ForcePathStyle  bool
	AccessKeyID     string
	SecretAccessKey string
}

// AdminConfig contains the shared admin credential and session settings.
type AdminConfig struct {
	Email        string
	Password     string
	PasswordHash string
	JWTSecret    string
	SessionTTL   time.Duration
}

// ImportConfig drives the WordPress catalog importer.
type ImportConfig struct {
	CatalogURL       string
	BaseURL          string
	ItemDelay        time.Duration
	PlaceholderImage string
	HTTPTimeout      time.Duration
	MaxBodyBytes     int64
	UserAgent        string
	Interval         time.Duration
}

// Load reads the API server configuration from environment variables. If a
// .env file exists in the working directory, it will be loaded first.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	if err := cfg.DB.Validate(); err != nil {
		return nil, err
	}
	if cfg.Admin.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for admin sessions")
	}
	if cfg.Admin.Email == "" || (cfg.Admin.Password == "" && cfg.Admin.PasswordHash == "") {
		return nil, &UnconfiguredError{Component: "admin", Missing: []string{"ADMIN_EMAIL", "ADMIN_PASSWORD or ADMIN_PASSWORD_HASH"}}
	}

	return cfg, nil
}

// LoadImporter reads the configuration needed by the batch importer. Both the
// database and the object store are mandatory here.
func LoadImporter() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.DB.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.S3.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.AllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"))

	// Database
	cfg.DB = DatabaseConfig{
		URL:      getEnv("DATABASE_URL", ""),
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Object storage
	cfg.S3 = S3Config{
		Region:          getEnv("S3_REGION", "us-east-1"),
		Bucket:          getEnv("S3_BUCKET", "ring-images"),
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		PublicBaseURL:   getEnv("S3_PUBLIC_BASE_URL", ""),
		ForcePathStyle:  getEnvBool("S3_FORCE_PATH_STYLE", false),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}

	// Admin
	cfg.Admin = AdminConfig{
		Email:        getEnv("ADMIN_EMAIL", ""),
		Password:     getEnv("ADMIN_PASSWORD", ""),
		PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		JWTSecret:    getEnv("JWT_SECRET", ""),
	}

	// Importer
	cfg.Import = ImportConfig{
		CatalogURL:       getEnv("IMPORT_CATALOG_URL", "https://anillosguillen.com/catalogo/"),
		BaseURL:          getEnv("IMPORT_BASE_URL", "https://anillosguillen.com"),
		PlaceholderImage: getEnv("IMPORT_PLACEHOLDER_IMAGE", "/placeholder.svg?height=400&width=400"),
		UserAgent:        getEnv("IMPORT_USER_AGENT", "Mozilla/5.0 (compatible; AnillosCatalogImporter/1.0)"),
		MaxBodyBytes:     int64(getEnvInt("IMPORT_MAX_BODY_BYTES", 10<<20)),
	}

	var err error
	if cfg.Import.ItemDelay, err = parseDurationEnv("IMPORT_ITEM_DELAY", "500ms"); err != nil {
		return nil, fmt.Errorf("invalid IMPORT_ITEM_DELAY: %w", err)
	}
	if cfg.Import.Interval, err = parseDurationEnv("IMPORT_INTERVAL", "0s"); err != nil {
		return nil, fmt.Errorf("invalid IMPORT_INTERVAL: %w", err)
	}
	if cfg.Import.HTTPTimeout, err = parseDurationEnv("IMPORT_HTTP_TIMEOUT", "0s"); err != nil {
		return nil, fmt.Errorf("invalid IMPORT_HTTP_TIMEOUT: %w", err)
	}
	if cfg.Admin.SessionTTL, err = parseDurationEnv("ADMIN_SESSION_TTL", "168h"); err != nil {
		return nil, fmt.Errorf("invalid ADMIN_SESSION_TTL: %w", err)
	}
	if cfg.CatalogCacheTTL, err = parseDurationEnv("CATALOG_CACHE_TTL", "1h"); err != nil {
		return nil, fmt.Errorf("invalid CATALOG_CACHE_TTL: %w", err)
	}

	return cfg, nil
}

// Validate reports ErrUnconfigured when neither DATABASE_URL nor the
// discrete connection fields are present.
func (c *DatabaseConfig) Validate() error {
	if c.URL != "" {
		return nil
	}
	var missing []string
	if c.Host == "" {
		missing = append(missing, "DB_HOST")
	}
	if c.User == "" {
		missing = append(missing, "DB_USER")
	}
	if c.Name == "" {
		missing = append(missing, "DB_NAME")
	}
	if len(missing) > 0 {
		return &UnconfiguredError{Component: "database", Missing: append([]string{"DATABASE_URL or"}, missing...)}
	}
	return nil
}

// Validate reports ErrUnconfigured when object store credentials are absent.
func (c *S3Config) Validate() error {
	var missing []string
	if c.Bucket == "" {
		missing = append(missing, "S3_BUCKET")
	}
	if c.AccessKeyID == "" {
		missing = append(missing, "AWS_ACCESS_KEY_ID")
	}
	if c.SecretAccessKey == "" {
		missing = append(missing, "AWS_SECRET_ACCESS_KEY")
	}
	if len(missing) > 0 {
		return &UnconfiguredError{Component: "object store", Missing: missing}
	}
	return nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}

// splitList parses a comma separated env value, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
