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

// AppConfig encapsulates all runtime configuration knobs.
type AppConfig struct {
	App        AppSettings
	HTTP       HTTPSettings
	Auth       AuthSettings
	Log        LogSettings
	Database   DatabaseSettings
	Audit      AuditSettings
	Extraction ExtractionSettings
	OCR        OCRSettings
	Metrics    MetricsSettings
}

type AppSettings struct {
	Name        string
	Version     string
	Environment string
}

type HTTPSettings struct {
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	WriteTimeoutBatch time.Duration // Extended timeout for batch extraction
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

type AuthSettings struct {
	Enabled     bool
	IssuerURI   string
	JWKSetURI   string
	ClockSkew   time.Duration
	BypassPaths []string
}

type LogSettings struct {
	Level  string
	Format string // "text", "json" or empty to decide from the environment
}

type DatabaseSettings struct {
	Enabled         bool
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuditSettings struct {
	Enabled         bool
	StoreExcerpt    bool
	MaxExcerptRunes int
}

// ExtractionSettings tunes the extraction service and its HTTP surface.
type ExtractionSettings struct {
	ReviewThreshold float64 // Confidence at or below which fields need manual review
	MaxBodyBytes    int64
	MaxBatchSize    int
	WorkerPoolSize  int
	RequestTimeout  time.Duration
	SourceTimeout   time.Duration // Bound for one PDF or OCR pass; 0 disables it
	CacheTTL        time.Duration
	CacheMaxEntries int
	RateLimitRPS    float64 // Document endpoint limit; 0 disables it
	RateLimitBurst  int
}

// OCRSettings configures the tesseract command line engine.
type OCRSettings struct {
	Enabled       bool
	TesseractPath string
	Languages     string
	TessdataDir   string
	PSM           int // Page segmentation mode; 0 keeps tesseract's default
	MaxConcurrent int
	Timeout       time.Duration
}

type MetricsSettings struct {
	Enabled bool
	Path    string
}

// Load resolves the application configuration from environment variables.
// It first attempts to load variables from a .env file if it exists.
// Environment variables set in the system take precedence over .env file values.
func Load() (AppConfig, error) {
	// Missing .env is fine: Docker and production inject the environment.
	_ = godotenv.Load()

	cfg := AppConfig{
		App: AppSettings{
			Name:        getEnv("APP_NAME", "ms_extraccion_facturas"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
			Environment: getEnv("APP_ENV", "local"),
		},
		HTTP: HTTPSettings{
			Port:              getEnvAsInt("APP_PORT", 8080),
			ReadTimeout:       getEnvAsDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:      getEnvAsDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
			WriteTimeoutBatch: getEnvAsDuration("HTTP_WRITE_TIMEOUT_BATCH", 10*time.Minute),
			IdleTimeout:       getEnvAsDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout:   getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Auth: AuthSettings{
			Enabled:     getEnvAsBool("AUTH_ENABLED", true),
			IssuerURI:   strings.TrimSpace(os.Getenv("JWT_ISSUER_URI")),
			JWKSetURI:   strings.TrimSpace(os.Getenv("JWT_JWK_SET_URI")),
			ClockSkew:   getEnvAsDuration("AUTH_CLOCK_SKEW", 2*time.Minute),
			BypassPaths: getEnvAsCSV("AUTH_BYPASS_PATHS", []string{"/health", "/metrics"}),
		},
		Log: LogSettings{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT"))),
		},
		Database: DatabaseSettings{
			Enabled:         getEnvAsBool("DB_ENABLED", true),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Database:        getEnv("DB_NAME", "ms_extraccion_facturas"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Audit: AuditSettings{
			Enabled:         getEnvAsBool("AUDIT_ENABLED", true),
			StoreExcerpt:    getEnvAsBool("AUDIT_STORE_EXCERPT", true),
			MaxExcerptRunes: getEnvAsInt("AUDIT_MAX_EXCERPT_RUNES", 2000),
		},
		Extraction: ExtractionSettings{
			ReviewThreshold: getEnvAsFloat("EXTRACTION_REVIEW_THRESHOLD", 0.5),
			MaxBodyBytes:    int64(getEnvAsInt("EXTRACTION_MAX_BODY_BYTES", 10<<20)),
			MaxBatchSize:    getEnvAsInt("EXTRACTION_MAX_BATCH_SIZE", 100),
			WorkerPoolSize:  getEnvAsInt("EXTRACTION_WORKER_POOL_SIZE", 4),
			RequestTimeout:  getEnvAsDuration("EXTRACTION_REQUEST_TIMEOUT", 45*time.Second),
			SourceTimeout:   getEnvAsDuration("EXTRACTION_SOURCE_TIMEOUT", 40*time.Second),
			CacheTTL:        getEnvAsDuration("EXTRACTION_CACHE_TTL", 15*time.Minute),
			CacheMaxEntries: getEnvAsInt("EXTRACTION_CACHE_MAX_ENTRIES", 500),
			RateLimitRPS:    getEnvAsFloat("EXTRACTION_RATE_LIMIT_RPS", 5),
			RateLimitBurst:  getEnvAsInt("EXTRACTION_RATE_LIMIT_BURST", 10),
		},
		OCR: OCRSettings{
			Enabled:       getEnvAsBool("OCR_ENABLED", true),
			TesseractPath: getEnv("OCR_TESSERACT_PATH", "tesseract"),
			Languages:     getEnv("OCR_LANGUAGES", "spa+eng"),
			TessdataDir:   strings.TrimSpace(os.Getenv("OCR_TESSDATA_DIR")),
			PSM:           getEnvAsInt("OCR_PSM", 0),
			MaxConcurrent: getEnvAsInt("OCR_MAX_CONCURRENT", 2),
			Timeout:       getEnvAsDuration("OCR_TIMEOUT", 30*time.Second),
		},
		Metrics: MetricsSettings{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c AppConfig) validate() error {
	ex := c.Extraction
	if ex.ReviewThreshold < 0 || ex.ReviewThreshold > 1 {
		return errors.New("invalid config: EXTRACTION_REVIEW_THRESHOLD must be between 0 and 1")
	}
	if ex.MaxBodyBytes <= 0 {
		return errors.New("invalid config: EXTRACTION_MAX_BODY_BYTES must be greater than 0")
	}
	if ex.MaxBatchSize <= 0 {
		return errors.New("invalid config: EXTRACTION_MAX_BATCH_SIZE must be greater than 0")
	}
	if ex.WorkerPoolSize <= 0 {
		return errors.New("invalid config: EXTRACTION_WORKER_POOL_SIZE must be greater than 0")
	}
	if ex.SourceTimeout < 0 {
		return errors.New("invalid config: EXTRACTION_SOURCE_TIMEOUT cannot be negative")
	}
	if ex.RateLimitRPS < 0 {
		return errors.New("invalid config: EXTRACTION_RATE_LIMIT_RPS cannot be negative")
	}
	if ex.RateLimitRPS > 0 && ex.RateLimitBurst <= 0 {
		return errors.New("invalid config: EXTRACTION_RATE_LIMIT_BURST must be greater than 0 when rate limiting is enabled")
	}

	if c.OCR.Enabled {
		if c.OCR.MaxConcurrent <= 0 {
			return errors.New("invalid config: OCR_MAX_CONCURRENT must be greater than 0")
		}
		if c.OCR.PSM < 0 || c.OCR.PSM > 13 {
			return errors.New("invalid config: OCR_PSM must be between 0 and 13")
		}
	}

	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid config: LOG_FORMAT must be 'text' or 'json', got %q", c.Log.Format)
	}

	if c.Auth.Enabled {
		if c.Auth.IssuerURI == "" {
			return errors.New("invalid config: JWT_ISSUER_URI is required when AUTH_ENABLED=true")
		}
		if c.Auth.JWKSetURI == "" {
			return errors.New("invalid config: JWT_JWK_SET_URI is required when AUTH_ENABLED=true")
		}
	}
	return nil
}

// Address returns the HTTP listen address in host:port form.
func (h HTTPSettings) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsCSV(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
