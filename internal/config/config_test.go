package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "APP_ENV", "BASE_URL", "AUTH_MODE", "AUTH_TOKEN", "auth",
	"UPLOAD_MAX_SIZE", "UPLOAD_DIR", "STATIC_DIR", "RATE_LIMIT",
	"STORAGE_PROVIDER", "GCS_PROJECT_ID", "GCS_BUCKET_NAME",
	"S3_ENDPOINT", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET",
}

func setEnv(t *testing.T, envVars map[string]string) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
	for k, v := range envVars {
		t.Setenv(k, v)
	}
}

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		want    *Config
		wantErr bool
	}{
		{
			name:    "Defaults",
			envVars: map[string]string{},
			want: &Config{
				Port:          8030,
				Env:           "production",
				BaseURL:       "http://localhost:8030",
				AuthMode:      "token",
				UploadMaxSize: 30_000_000,
				StaticDir:     "./static",
				RateLimit:     60,
				Storage: StorageConfig{
					Provider:  "local",
					LocalPath: "./uploads",
				},
			},
		},
		{
			name: "Valid configuration",
			envVars: map[string]string{
				"PORT":            "8080",
				"APP_ENV":         "development",
				"BASE_URL":        "https://cdn.example.com/",
				"AUTH_TOKEN":      "mysecret",
				"UPLOAD_MAX_SIZE": "25MiB",
				"UPLOAD_DIR":      "/srv/uploads",
				"STATIC_DIR":      "/srv/static",
				"RATE_LIMIT":      "0",
			},
			want: &Config{
				Port:          8080,
				Env:           "development",
				BaseURL:       "https://cdn.example.com",
				AuthMode:      "token",
				AuthToken:     "mysecret",
				UploadMaxSize: 25 * 1024 * 1024,
				StaticDir:     "/srv/static",
				RateLimit:     0,
				Storage: StorageConfig{
					Provider:  "local",
					LocalPath: "/srv/uploads",
				},
			},
		},
		{
			name: "Legacy auth variable",
			envVars: map[string]string{
				"auth": "legacy",
			},
			want: &Config{
				Port:          8030,
				Env:           "production",
				BaseURL:       "http://localhost:8030",
				AuthMode:      "token",
				AuthToken:     "legacy",
				UploadMaxSize: 30_000_000,
				StaticDir:     "./static",
				RateLimit:     60,
				Storage: StorageConfig{
					Provider:  "local",
					LocalPath: "./uploads",
				},
			},
		},
		{
			name:    "Invalid PORT",
			envVars: map[string]string{"PORT": "abc"},
			wantErr: true,
		},
		{
			name:    "Negative PORT",
			envVars: map[string]string{"PORT": "-8080"},
			wantErr: true,
		},
		{
			name:    "Invalid UPLOAD_MAX_SIZE",
			envVars: map[string]string{"UPLOAD_MAX_SIZE": "invalid"},
			wantErr: true,
		},
		{
			name:    "Zero UPLOAD_MAX_SIZE",
			envVars: map[string]string{"UPLOAD_MAX_SIZE": "0"},
			wantErr: true,
		},
		{
			name:    "Unknown AUTH_MODE",
			envVars: map[string]string{"AUTH_MODE": "oauth"},
			wantErr: true,
		},
		{
			name:    "Invalid BASE_URL",
			envVars: map[string]string{"BASE_URL": "cdn.example.com"},
			wantErr: true,
		},
		{
			name:    "GCS without bucket",
			envVars: map[string]string{"STORAGE_PROVIDER": "gcs", "GCS_PROJECT_ID": "p"},
			wantErr: true,
		},
		{
			name: "S3 complete",
			envVars: map[string]string{
				"STORAGE_PROVIDER": "s3",
				"S3_ENDPOINT":      "minio:9000",
				"S3_ACCESS_KEY":    "access",
				"S3_SECRET_KEY":    "secret",
				"S3_BUCKET":        "cdn",
			},
			want: &Config{
				Port:          8030,
				Env:           "production",
				BaseURL:       "http://localhost:8030",
				AuthMode:      "token",
				UploadMaxSize: 30_000_000,
				StaticDir:     "./static",
				RateLimit:     60,
				Storage: StorageConfig{
					Provider:    "s3",
					LocalPath:   "./uploads",
					S3Endpoint:  "minio:9000",
					S3AccessKey: "access",
					S3SecretKey: "secret",
					S3Bucket:    "cdn",
				},
			},
		},
		{
			name: "S3 invalid bucket name",
			envVars: map[string]string{
				"STORAGE_PROVIDER": "s3",
				"S3_ENDPOINT":      "minio:9000",
				"S3_ACCESS_KEY":    "access",
				"S3_SECRET_KEY":    "secret",
				"S3_BUCKET":        "My_Bucket",
			},
			wantErr: true,
		},
		{
			name:    "BASE_URL with query",
			envVars: map[string]string{"BASE_URL": "https://cdn.example.com?x=1"},
			wantErr: true,
		},
		{
			name:    "Unsupported provider",
			envVars: map[string]string{"STORAGE_PROVIDER": "ftp"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.envVars)

			got, err := NewConfig()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_parseUploadMaxSize(t *testing.T) {
	tests := []struct {
		name    string
		size    string
		want    int64
		wantErr bool
	}{
		{name: "Plain bytes", size: "30000000", want: 30_000_000},
		{name: "SI megabytes", size: "30MB", want: 30_000_000},
		{name: "IEC mebibytes", size: "25MiB", want: 25 * 1024 * 1024},
		{name: "Gigabytes", size: "1GB", want: 1_000_000_000},
		{name: "Invalid size", size: "invalid", wantErr: true},
		{name: "Zero", size: "0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseUploadMaxSize(tt.size)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
