// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SessionConfig provides settings for anonymous browser sessions.
type SessionConfig interface {
	GetSessionSecret() string
	GetSessionTTL() time.Duration
	GetSessionCookieName() string
	GetSessionCookieSecure() bool
	GetSessionCookieSameSite() http.SameSite
	GetSessionCacheSize() int
}

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	IsDatabaseEnabled() bool
}

// RedisConfig provides the shared Redis connection settings.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	IsRedisEnabled() bool
}

// SchedulerConfig provides settings for the asynq task queue.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// SMTPConfig provides settings for outgoing email.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetIntakeNotifyEmail() string
	IsEmailEnabled() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketDocuments() string
	IsMinIOEnabled() bool
}

// DocParserConfig provides settings for the document parser.
type DocParserConfig interface {
	GetDocParseProvider() string
	GetDocParseOpenAIURL() string
	GetDocParseOpenAIModel() string
	GetDocParseGeminiModel() string
	GetDocParseMaxTokens() int
	GetDocParseMaxFileSize() int64
	GetDocParseRatePerMinute() int
}

// ContactConfig provides settings for applicant contact normalization.
type ContactConfig interface {
	GetPhoneDefaultRegion() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                   string
	HTTPAddr              string
	CORSAllowAll          bool
	CORSOrigins           []string
	CORSAllowCreds        bool
	SessionSecret         string
	SessionTTL            time.Duration
	SessionCookieName     string
	SessionCookieSecure   bool
	SessionCookieSameSite http.SameSite
	SessionCacheSize      int
	DatabaseURL           string
	RedisURL              string
	RedisTLSInsecure      bool
	AsynqQueueName        string
	AsynqConcurrency      int
	SMTPHost              string
	SMTPPort              int
	SMTPUsername          string
	SMTPPassword          string
	EmailFromName         string
	EmailFromAddress      string
	IntakeNotifyEmail     string
	MinIOEndpoint         string
	MinIOAccessKey        string
	MinIOSecretKey        string
	MinIOUseSSL           bool
	MinIOMaxFileSize      int64
	MinioBucketDocuments  string
	DocParseProvider      string
	DocParseOpenAIURL     string
	DocParseOpenAIModel   string
	DocParseGeminiModel   string
	DocParseMaxTokens     int
	DocParseMaxFileSize   int64
	DocParseRatePerMinute int
	PhoneDefaultRegion    string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SessionConfig implementation
func (c *Config) GetSessionSecret() string                { return c.SessionSecret }
func (c *Config) GetSessionTTL() time.Duration            { return c.SessionTTL }
func (c *Config) GetSessionCookieName() string            { return c.SessionCookieName }
func (c *Config) GetSessionCookieSecure() bool            { return c.SessionCookieSecure }
func (c *Config) GetSessionCookieSameSite() http.SameSite { return c.SessionCookieSameSite }
func (c *Config) GetSessionCacheSize() int                { return c.SessionCacheSize }

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string  { return c.DatabaseURL }
func (c *Config) IsDatabaseEnabled() bool { return c.DatabaseURL != "" }

// RedisConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) IsRedisEnabled() bool      { return c.RedisURL != "" }

// SchedulerConfig implementation
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string          { return c.SMTPHost }
func (c *Config) GetSMTPPort() int             { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string      { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string      { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string     { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string  { return c.EmailFromAddress }
func (c *Config) GetIntakeNotifyEmail() string { return c.IntakeNotifyEmail }
func (c *Config) IsEmailEnabled() bool         { return c.SMTPHost != "" && c.EmailFromAddress != "" }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string        { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string       { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string       { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool            { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64      { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketDocuments() string { return c.MinioBucketDocuments }
func (c *Config) IsMinIOEnabled() bool            { return c.MinIOEndpoint != "" }

// DocParserConfig implementation
func (c *Config) GetDocParseProvider() string    { return c.DocParseProvider }
func (c *Config) GetDocParseOpenAIURL() string   { return c.DocParseOpenAIURL }
func (c *Config) GetDocParseOpenAIModel() string { return c.DocParseOpenAIModel }
func (c *Config) GetDocParseGeminiModel() string { return c.DocParseGeminiModel }
func (c *Config) GetDocParseMaxTokens() int      { return c.DocParseMaxTokens }
func (c *Config) GetDocParseMaxFileSize() int64  { return c.DocParseMaxFileSize }
func (c *Config) GetDocParseRatePerMinute() int  { return c.DocParseRatePerMinute }

// ContactConfig implementation
func (c *Config) GetPhoneDefaultRegion() string { return c.PhoneDefaultRegion }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cookieSecure := strings.EqualFold(getEnv("SESSION_COOKIE_SECURE", ""), "true")
	if getEnv("SESSION_COOKIE_SECURE", "") == "" {
		cookieSecure = strings.EqualFold(getEnv("APP_ENV", "development"), "production")
	}

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:          corsAllowAll,
		CORSOrigins:           corsOrigins,
		CORSAllowCreds:        strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		SessionSecret:         getEnv("SESSION_SECRET", ""),
		SessionTTL:            mustDuration(getEnv("SESSION_TTL", "12h")),
		SessionCookieName:     getEnv("SESSION_COOKIE_NAME", "trialbridge_session"),
		SessionCookieSecure:   cookieSecure,
		SessionCookieSameSite: parseSameSite(getEnv("SESSION_COOKIE_SAMESITE", "Lax")),
		SessionCacheSize:      mustInt(getEnv("SESSION_CACHE_SIZE", "10000")),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		RedisURL:              getEnv("REDIS_URL", ""),
		RedisTLSInsecure:      strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:        getEnv("ASYNQ_QUEUE", "trialbridge"),
		AsynqConcurrency:      mustInt(getEnv("ASYNQ_CONCURRENCY", "5")),
		SMTPHost:              getEnv("SMTP_HOST", ""),
		SMTPPort:              mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:          getEnv("SMTP_USERNAME", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		EmailFromName:         getEnv("EMAIL_FROM_NAME", "TrialBridge"),
		EmailFromAddress:      getEnv("EMAIL_FROM_ADDRESS", ""),
		IntakeNotifyEmail:     getEnv("INTAKE_NOTIFY_EMAIL", ""),
		MinIOEndpoint:         getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:        getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:        getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:           strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:      mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "10485760")),
		MinioBucketDocuments:  getEnv("MINIO_BUCKET_DOCUMENTS", "parsed-documents"),
		DocParseProvider:      strings.ToLower(getEnv("DOCPARSE_PROVIDER", "openai")),
		DocParseOpenAIURL:     getEnv("DOCPARSE_OPENAI_URL", "https://api.openai.com/v1/chat/completions"),
		DocParseOpenAIModel:   getEnv("DOCPARSE_OPENAI_MODEL", "gpt-4o"),
		DocParseGeminiModel:   getEnv("DOCPARSE_GEMINI_MODEL", "gemini-2.5-flash"),
		DocParseMaxTokens:     mustInt(getEnv("DOCPARSE_MAX_TOKENS", "4096")),
		DocParseMaxFileSize:   mustInt64(getEnv("DOCPARSE_MAX_FILE_SIZE", "20971520")),
		DocParseRatePerMinute: mustInt(getEnv("DOCPARSE_RATE_PER_MINUTE", "10")),
		PhoneDefaultRegion:    strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "US")),
	}

	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be a positive duration")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.DocParseProvider != "openai" && cfg.DocParseProvider != "gemini" {
		return nil, fmt.Errorf("DOCPARSE_PROVIDER must be openai or gemini, got %q", cfg.DocParseProvider)
	}
	if cfg.SMTPHost != "" && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when SMTP_HOST is set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "none":
		return http.SameSiteNoneMode
	case "strict":
		return http.SameSiteStrictMode
	default:
		return http.SameSiteLaxMode
	}
}
