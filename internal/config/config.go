package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO / S3-compatible backends.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// UploadConfig holds validation and scanning settings for the upload pipeline.
type UploadConfig struct {
	MaxFileSizeMB       int
	VirusScanEnabled    bool
	ClamAVAddress       string
	PresignMinExpirySec int
	PresignMaxExpirySec int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Database DatabaseConfig
	MinIO    MinIOConfig
	Upload   UploadConfig
}

// Load reads configuration from environment variables and validates it in a
// single pass: every missing required variable is reported in one error.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Upload: UploadConfig{
			MaxFileSizeMB:       getEnvInt("MAX_FILE_SIZE_MB", 100),
			VirusScanEnabled:    getEnvBool("VIRUS_SCAN_ENABLED", true),
			ClamAVAddress:       getEnv("CLAMAV_ADDRESS", "tcp://localhost:3310"),
			PresignMinExpirySec: getEnvInt("PRESIGN_MIN_EXPIRY_SEC", 300),
			PresignMaxExpirySec: getEnvInt("PRESIGN_MAX_EXPIRY_SEC", 7200),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate collects all problems instead of stopping at the first one, so a
// misconfigured deployment fails fast with the complete list.
func (c *AppConfig) validate() error {
	required := map[string]string{
		"DB_HOST":          c.Database.Host,
		"DB_USER":          c.Database.User,
		"DB_NAME":          c.Database.Name,
		"MINIO_ENDPOINT":   c.MinIO.Endpoint,
		"MINIO_ACCESS_KEY": c.MinIO.AccessKey,
		"MINIO_SECRET_KEY": c.MinIO.SecretKey,
		"MINIO_BUCKET":     c.MinIO.Bucket,
	}

	var missing []string
	for _, key := range []string{
		"DB_HOST", "DB_USER", "DB_NAME",
		"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_BUCKET",
	} {
		if required[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if c.Upload.MaxFileSizeMB <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE_MB must be positive, got %d", c.Upload.MaxFileSizeMB)
	}
	if c.Upload.PresignMinExpirySec <= 0 || c.Upload.PresignMaxExpirySec < c.Upload.PresignMinExpirySec {
		return fmt.Errorf("invalid presign expiry bounds: min=%d max=%d",
			c.Upload.PresignMinExpirySec, c.Upload.PresignMaxExpirySec)
	}
	if c.Upload.VirusScanEnabled && c.Upload.ClamAVAddress == "" {
		return fmt.Errorf("CLAMAV_ADDRESS is required when VIRUS_SCAN_ENABLED=true")
	}
	return nil
}

// MaxFileSizeBytes returns the configured upload limit in bytes.
func (c *AppConfig) MaxFileSizeBytes() int64 {
	return int64(c.Upload.MaxFileSizeMB) << 20
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
