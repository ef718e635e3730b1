package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Search   SearchConfig
	Download DownloadConfig
	MongoDB  MongoDBConfig
	S3       S3Config
	API      APIConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Port string
	Host string
}

// UpstreamConfig carries the endpoint templates and request headers for the
// third-party resolution services. Every base URL and key is env-overridable
// so none of them is baked into a call site.
type UpstreamConfig struct {
	SavetubeInfoURL     string
	SavetubeDownloadURL string
	SavetubeOrigin      string
	Y2SaveBaseURL       string
	ConverterBaseURL    string
	Y2MateConvertURL    string
	Y2MateServer        string
	GiftedBaseURL       string
	GiftedAPIKey        string
	YT5SBaseURL         string
	UserAgent           string
	RequestTimeout      time.Duration
}

type SearchConfig struct {
	Instances []string
	Timeout   time.Duration
}

type DownloadConfig struct {
	TempDir       string
	ArtifactTTL   time.Duration
	SweepInterval time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
	MaxFileSize   int64
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	EndpointURL     string
}

type APIConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("SERVER_PORT", "8080")
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")

	// Upstream resolver configuration
	cfg.Upstream.SavetubeInfoURL = getEnv("SAVETUBE_INFO_URL", "https://cdn59.savetube.su/info")
	cfg.Upstream.SavetubeDownloadURL = getEnv("SAVETUBE_DOWNLOAD_URL", "https://cdn61.savetube.su/download")
	cfg.Upstream.SavetubeOrigin = getEnv("SAVETUBE_ORIGIN", "https://yt.savetube.me")
	cfg.Upstream.Y2SaveBaseURL = getEnv("Y2SAVE_BASE_URL", "https://y2save.com")
	cfg.Upstream.ConverterBaseURL = getEnv("CONVERTER_BASE_URL", "https://apis.davidcyriltech.my.id")
	cfg.Upstream.Y2MateConvertURL = getEnv("Y2MATE_CONVERT_URL", "https://mate-api.y2mate.com/api/json/convert")
	cfg.Upstream.Y2MateServer = getEnv("Y2MATE_SERVER", "en68")
	cfg.Upstream.GiftedBaseURL = getEnv("GIFTED_BASE_URL", "https://api.giftedtech.web.id")
	cfg.Upstream.GiftedAPIKey = getEnv("GIFTED_API_KEY", "gifted")
	cfg.Upstream.YT5SBaseURL = getEnv("YT5S_BASE_URL", "https://yt5s.com")
	cfg.Upstream.UserAgent = getEnv("UPSTREAM_USER_AGENT",
		"Mozilla/5.0 (Linux; Android 10; K) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Mobile Safari/537.36")
	upstreamTimeout, err := time.ParseDuration(getEnv("UPSTREAM_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
	}
	cfg.Upstream.RequestTimeout = upstreamTimeout

	// Search configuration
	cfg.Search.Instances = getEnvStringSlice("SEARCH_INSTANCES", []string{
		"https://invidious.fdn.fr",
		"https://invidious.privacydev.net",
		"https://inv.tux.pizza",
		"https://yt.artemislena.eu",
	})
	searchTimeout, err := time.ParseDuration(getEnv("SEARCH_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEARCH_TIMEOUT: %w", err)
	}
	cfg.Search.Timeout = searchTimeout

	// Download configuration
	cfg.Download.TempDir = getEnv("DOWNLOAD_TEMP_DIR", "")
	artifactTTL, err := time.ParseDuration(getEnv("ARTIFACT_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ARTIFACT_TTL: %w", err)
	}
	cfg.Download.ArtifactTTL = artifactTTL
	sweepInterval, err := time.ParseDuration(getEnv("ARTIFACT_SWEEP_INTERVAL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ARTIFACT_SWEEP_INTERVAL: %w", err)
	}
	cfg.Download.SweepInterval = sweepInterval
	cfg.Download.RetryAttempts = getEnvInt("RESOLVER_RETRY_ATTEMPTS", 5)
	retryBackoff, err := time.ParseDuration(getEnv("RESOLVER_RETRY_BACKOFF", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RESOLVER_RETRY_BACKOFF: %w", err)
	}
	cfg.Download.RetryBackoff = retryBackoff
	cfg.Download.MaxFileSize = getEnvInt64("MAX_FILE_SIZE", 2*1024*1024*1024) // 2GB default

	// MongoDB cache ledger (optional, disabled when MONGODB_URI is empty)
	cfg.MongoDB.URI = getEnv("MONGODB_URI", "")
	cfg.MongoDB.Database = getEnv("MONGODB_DATABASE", "ultraxas")
	mongoTimeout, err := time.ParseDuration(getEnv("MONGODB_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid MONGODB_TIMEOUT: %w", err)
	}
	cfg.MongoDB.Timeout = mongoTimeout

	// S3 artifact offload (optional, disabled when S3_BUCKET_NAME is empty)
	cfg.S3.Region = getEnv("AWS_REGION", "us-east-1")
	cfg.S3.BucketName = getEnv("S3_BUCKET_NAME", "")
	cfg.S3.EndpointURL = getEnv("AWS_ENDPOINT_URL", "") // Optional for LocalStack
	cfg.S3.AccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.S3.SecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")

	// API configuration
	cfg.API.RateLimitRequests = getEnvInt("RATE_LIMIT_REQUESTS", 100)
	rateLimitWindow, err := time.ParseDuration(getEnv("RATE_LIMIT_WINDOW", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
	}
	cfg.API.RateLimitWindow = rateLimitWindow

	// CORS configuration
	cfg.CORS = CORSConfig{
		Enabled: getEnvBool("CORS_ENABLED", true),
		AllowedOrigins: getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:3000",
		}),
		AllowedMethods: getEnvStringSlice("CORS_ALLOWED_METHODS", []string{
			"GET", "POST", "OPTIONS",
		}),
		AllowedHeaders: getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{
			"Origin", "Content-Type", "Accept", "X-Correlation-ID",
		}),
		AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", false),
		MaxAge:           getEnvInt("CORS_MAX_AGE", 3600),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(strings.TrimSpace(value), ",")
	}
	return defaultValue
}
