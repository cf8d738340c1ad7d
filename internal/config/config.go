package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode   string // Set via flag, not env
	LogFormat string // "json" or "console"

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtSecret string
	JwtTTL    time.Duration

	// Server
	ApiPort        string
	ServiceApiPort string

	// Verification provider
	VerificationBaseURL    string
	VerificationAPIKey     string
	VerificationGSTPath    string
	VerificationBankPath   string
	VerificationStatusPath string
	VerificationExecutor   string // "asynq" or "inline"
	HTTPTimeout            time.Duration

	// Poll budgets
	GSTPollMaxAttempts  int
	GSTPollDelay        time.Duration
	BankPollMaxAttempts int
	BankPollDelay       time.Duration

	// Marketplace REST API
	MarketplaceBaseURL string
	MarketplaceAPIKey  string

	// Places provider
	PlacesBaseURL string
	PlacesAPIKey  string
	PlacesCountry string

	// AWS S3
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	AwsS3Bucket        string
	UploadURLTTL       time.Duration

	// App Defaults
	AppName     string
	GetCacheTTL time.Duration

	// Verification trigger rate limit
	VerifyRateLimitBurst     int
	VerifyRateLimitPerMinute int

	// HTTP and worker tuning
	CorsAllowedOrigin string
	WorkerConcurrency int
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode,
	}

	var err error

	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	getInt := func(key, defaultValue string) (int, error) {
		v, err := strconv.Atoi(getEnv(key, defaultValue))
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return v, nil
	}

	getDuration := func(key, defaultValue string, unit time.Duration) (time.Duration, error) {
		v, err := strconv.ParseInt(getEnv(key, defaultValue), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return time.Duration(v) * unit, nil
	}

	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "sellerhub")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.LogFormat = getEnv("LOG_FORMAT", "json")
	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.ServiceApiPort = getEnv("SERVICE_API_PORT", "12345")

	cfg.VerificationBaseURL, err = getRequiredEnv("VERIFICATION_BASE_URL")
	if err != nil {
		return nil, err
	}
	cfg.VerificationAPIKey = getEnv("VERIFICATION_API_KEY", "")
	cfg.VerificationGSTPath = getEnv("VERIFICATION_GST_PATH", "/verify/gstin")
	cfg.VerificationBankPath = getEnv("VERIFICATION_BANK_PATH", "/verify/bank-account")
	cfg.VerificationStatusPath = getEnv("VERIFICATION_STATUS_PATH", "/tasks")
	cfg.VerificationExecutor = getEnv("VERIFICATION_EXECUTOR", "asynq")
	if cfg.VerificationExecutor != "asynq" && cfg.VerificationExecutor != "inline" {
		return nil, fmt.Errorf("invalid VERIFICATION_EXECUTOR: %q", cfg.VerificationExecutor)
	}

	cfg.MarketplaceBaseURL, err = getRequiredEnv("MARKETPLACE_BASE_URL")
	if err != nil {
		return nil, err
	}
	cfg.MarketplaceAPIKey = getEnv("MARKETPLACE_API_KEY", "")
	cfg.PlacesBaseURL = getEnv("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api")
	cfg.PlacesAPIKey = getEnv("PLACES_API_KEY", "")
	cfg.PlacesCountry = getEnv("PLACES_COUNTRY", "in")

	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "ap-south-1")
	cfg.AwsS3Bucket = getEnv("AWS_S3_BUCKET", "")
	cfg.AppName = getEnv("APP_NAME", "SellerHub")

	cfg.RedisDB, err = getInt("REDIS_DB", "0")
	if err != nil {
		return nil, err
	}
	cfg.JwtTTL, err = getDuration("JWT_TTL_SECONDS", "3600", time.Second)
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout, err = getDuration("HTTP_TIMEOUT_SECONDS", "10", time.Second)
	if err != nil {
		return nil, err
	}

	// Poll budgets: GST 20 x 500ms, bank 30 x 2s.
	cfg.GSTPollMaxAttempts, err = getInt("GST_POLL_MAX_ATTEMPTS", "20")
	if err != nil {
		return nil, err
	}
	cfg.GSTPollDelay, err = getDuration("GST_POLL_DELAY_MS", "500", time.Millisecond)
	if err != nil {
		return nil, err
	}
	cfg.BankPollMaxAttempts, err = getInt("BANK_POLL_MAX_ATTEMPTS", "30")
	if err != nil {
		return nil, err
	}
	cfg.BankPollDelay, err = getDuration("BANK_POLL_DELAY_MS", "2000", time.Millisecond)
	if err != nil {
		return nil, err
	}
	if cfg.GSTPollMaxAttempts <= 0 || cfg.BankPollMaxAttempts <= 0 {
		return nil, fmt.Errorf("poll max attempts must be positive")
	}

	cfg.GetCacheTTL, err = getDuration("GET_CACHE_TTL_SECONDS", "600", time.Second)
	if err != nil {
		return nil, err
	}
	cfg.UploadURLTTL, err = getDuration("UPLOAD_URL_TTL_MINUTES", "15", time.Minute)
	if err != nil {
		return nil, err
	}

	cfg.VerifyRateLimitBurst, err = getInt("VERIFY_RATE_LIMIT_BURST", "3")
	if err != nil {
		return nil, err
	}
	cfg.VerifyRateLimitPerMinute, err = getInt("VERIFY_RATE_LIMIT_PER_MINUTE", "6")
	if err != nil {
		return nil, err
	}

	cfg.CorsAllowedOrigin = getEnv("CORS_ALLOWED_ORIGIN", "*")
	cfg.WorkerConcurrency, err = getInt("WORKER_CONCURRENCY", "10")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
