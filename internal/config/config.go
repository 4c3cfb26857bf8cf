package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StoreBackendDatabase = "database"
	StoreBackendFile     = "file"

	StorageDriverS3    = "s3"
	StorageDriverLocal = "local"
)

type Config struct {
	// Application
	AppName       string
	AppEnv        string
	Port          string
	PublicBaseURL string

	// Post store backend: "database" (Postgres/SQLite) or "file" (flat JSON document)
	StoreBackend string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Flat-file backend
	DataDir string

	// Uploads
	UploadMaxBytes int64

	// Admin: empty token permanently disables the delete endpoint
	AdminToken string

	// CORS origin allow-list (empty = same-origin only)
	CORSOrigins []string

	// Email (newsletter)
	EmailFrom        string
	ResendAPIKey     string
	ResendAudienceID string

	// Observability (optional)
	SentryDSN string

	// Blob storage: "s3" (S3-compatible: MinIO, AWS S3, R2, DO Spaces) or "local" (disk)
	StorageDriver string
	S3Region      string
	S3Bucket      string
	S3AccessKey   string
	S3SecretKey   string
	S3Endpoint    string // Optional: for S3-compatible services
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppName:       envString("APP_NAME", "Pawfeed"),
		AppEnv:        envRequired("APP_ENV"), // Required: 'development' or 'production'
		Port:          envString("PORT", "8090"),
		PublicBaseURL: envString("PUBLIC_BASE_URL", "http://localhost:"+envString("PORT", "8090")),

		StoreBackend: envString("STORE_BACKEND", StoreBackendDatabase),

		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/pawfeed.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		DataDir: envString("DATA_DIR", "./data"),

		UploadMaxBytes: envInt64("UPLOAD_MAX_BYTES", 6<<20), // 6 MiB

		AdminToken: envString("ADMIN_TOKEN", ""),

		CORSOrigins: envList("CORS_ORIGINS"),

		EmailFrom:        envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey:     envString("RESEND_API_KEY", ""),
		ResendAudienceID: envString("RESEND_AUDIENCE_ID", ""),

		SentryDSN: envString("SENTRY_DSN", ""),

		StorageDriver: envString("STORAGE_DRIVER", StorageDriverLocal),
		S3Region:      envString("S3_REGION", ""),
		S3Bucket:      envString("S3_BUCKET", ""),
		S3AccessKey:   envString("S3_ACCESS_KEY", ""),
		S3SecretKey:   envString("S3_SECRET_KEY", ""),
		S3Endpoint:    envString("S3_ENDPOINT", ""),
	}

	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	if cfg.AdminToken == "" {
		slog.Warn("ADMIN_TOKEN not set, delete endpoint is disabled for this deployment")
	}

	return cfg
}

// validateProduction ensures all required services are configured for production deployments.
func validateProduction(cfg *Config) {
	if cfg.StorageDriver == StorageDriverS3 {
		for key, v := range map[string]string{
			"S3_REGION":     cfg.S3Region,
			"S3_BUCKET":     cfg.S3Bucket,
			"S3_ACCESS_KEY": cfg.S3AccessKey,
			"S3_SECRET_KEY": cfg.S3SecretKey,
		} {
			if v == "" {
				slog.Error("production deployment with STORAGE_DRIVER=s3 requires S3 settings", "key", key)
				os.Exit(1)
			}
		}
	}
	if cfg.StoreBackend != StoreBackendDatabase && cfg.StoreBackend != StoreBackendFile {
		slog.Error("config invalid STORE_BACKEND", "value", cfg.StoreBackend)
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt64(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
