package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"minicdn/internal/validation"
)

const (
	defaultPort          = 8030
	defaultBaseURL       = "http://localhost:8030"
	defaultUploadMaxSize = "30MB" // 30,000,000 bytes
	defaultUploadDir     = "./uploads"
	defaultStaticDir     = "./static"
	defaultRateLimit     = 60
)

// Config holds server configuration
type Config struct {
	Port          int    `validate:"min=1,max=65535"`              // Port to listen on
	Env           string `validate:"oneof=development production"` // Environment (development | production)
	BaseURL       string `validate:"required,baseurl"`             // Public CDN base used for full_url
	AuthMode      string `validate:"oneof=token bcrypt jwt"`       // How the bearer token is verified
	AuthToken     string `validate:"-"`                            // Shared secret, may be empty (reported per request)
	UploadMaxSize int64  `validate:"gt=0"`                         // Maximum upload size in bytes
	StaticDir     string `validate:"required"`                     // Secondary static asset root
	RateLimit     int    `validate:"min=0"`                        // Write requests per minute per IP, 0 disables
	Storage       StorageConfig
}

type StorageConfig struct {
	// Provider type ("local", "gcs" or "s3")
	Provider string `json:"provider" validate:"oneof=local gcs s3"`

	// Local storage config
	LocalPath string `json:"local_path,omitempty" validate:"required_if=Provider local"`

	// GCS config
	ProjectID  string `json:"project_id,omitempty" validate:"required_if=Provider gcs"`
	BucketName string `json:"bucket_name,omitempty" validate:"required_if=Provider gcs"`

	// S3 config
	S3Endpoint  string `json:"s3_endpoint,omitempty" validate:"required_if=Provider s3"`
	S3AccessKey string `json:"-" validate:"required_if=Provider s3"`
	S3SecretKey string `json:"-" validate:"required_if=Provider s3"`
	S3Bucket    string `json:"s3_bucket,omitempty" validate:"required_if=Provider s3"`
}

func (c *Config) Log() {
	log.Info().
		Int("port", c.Port).
		Str("env", c.Env).
		Str("base_url", c.BaseURL).
		Str("auth_mode", c.AuthMode).
		Bool("auth_token_set", c.AuthToken != "").
		Int64("upload_max_size", c.UploadMaxSize).
		Str("upload_max_size_human", humanize.Bytes(uint64(c.UploadMaxSize))).
		Str("static_dir", c.StaticDir).
		Int("rate_limit", c.RateLimit).
		Str("storage_provider", c.Storage.Provider).
		Msg("server configuration")
}

// NewConfig creates a server configuration from environment variables
func NewConfig() (*Config, error) {
	port, err := intFromEnv("PORT", defaultPort)
	if err != nil {
		log.Error().Err(err).Msg("invalid PORT environment variable")
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "production"
	}

	baseURL := strings.TrimSuffix(os.Getenv("BASE_URL"), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	authMode := os.Getenv("AUTH_MODE")
	if authMode == "" {
		authMode = "token"
	}

	// "auth" is the variable name older deployments used
	authToken := os.Getenv("AUTH_TOKEN")
	if authToken == "" {
		authToken = os.Getenv("auth")
	}
	if authToken == "" {
		log.Warn().Msg("AUTH_TOKEN is not set, upload and delete requests will fail")
	}

	uploadMaxSizeStr := os.Getenv("UPLOAD_MAX_SIZE")
	if uploadMaxSizeStr == "" {
		uploadMaxSizeStr = defaultUploadMaxSize
	}
	uploadMaxSize, err := parseUploadMaxSize(uploadMaxSizeStr)
	if err != nil {
		log.Error().Err(err).Msg("invalid UPLOAD_MAX_SIZE configuration")
		return nil, err
	}

	staticDir := os.Getenv("STATIC_DIR")
	if staticDir == "" {
		staticDir = defaultStaticDir
	}

	rateLimit, err := intFromEnv("RATE_LIMIT", defaultRateLimit)
	if err != nil {
		log.Error().Err(err).Msg("invalid RATE_LIMIT environment variable")
		return nil, fmt.Errorf("invalid RATE_LIMIT: %w", err)
	}

	// Configure storage
	storageProvider := os.Getenv("STORAGE_PROVIDER")
	if storageProvider == "" {
		storageProvider = "local"
	}

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = defaultUploadDir
	}

	cfg := &Config{
		Port:          port,
		Env:           env,
		BaseURL:       baseURL,
		AuthMode:      authMode,
		AuthToken:     authToken,
		UploadMaxSize: uploadMaxSize,
		StaticDir:     staticDir,
		RateLimit:     rateLimit,
		Storage: StorageConfig{
			Provider:    storageProvider,
			LocalPath:   uploadDir,
			ProjectID:   os.Getenv("GCS_PROJECT_ID"),
			BucketName:  os.Getenv("GCS_BUCKET_NAME"),
			S3Endpoint:  os.Getenv("S3_ENDPOINT"),
			S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
			S3SecretKey: os.Getenv("S3_SECRET_KEY"),
			S3Bucket:    os.Getenv("S3_BUCKET"),
		},
	}

	if err := validation.Validate(cfg); err != nil {
		for _, e := range validation.FormatError(err) {
			log.Error().
				Str("field", e.Field).
				Msg(e.Error)
		}
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := validateBucket(cfg.Storage); err != nil {
		log.Error().Err(err).Msg("invalid storage configuration")
		return nil, err
	}

	return cfg, nil
}

// validateBucket checks the bucket name of the selected object store.
func validateBucket(s StorageConfig) error {
	var bucket string
	switch s.Provider {
	case "gcs":
		bucket = s.BucketName
	case "s3":
		bucket = s.S3Bucket
	default:
		return nil
	}

	if err := validation.ValidateBucketName(bucket); err != nil {
		return fmt.Errorf("invalid bucket name %q: %w", bucket, err)
	}
	return nil
}

func intFromEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

// parseUploadMaxSize parses the UPLOAD_MAX_SIZE environment variable.
// Accepts plain byte counts ("30000000") as well as humanized sizes
// ("30MB", "25MiB", "1GB").
func parseUploadMaxSize(size string) (int64, error) {
	value, err := humanize.ParseBytes(size)
	if err != nil {
		return 0, fmt.Errorf("invalid UPLOAD_MAX_SIZE: %w", err)
	}
	if value == 0 {
		return 0, fmt.Errorf("invalid UPLOAD_MAX_SIZE: must be greater than zero")
	}
	return int64(value), nil
}
