package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv sets the minimum environment for Load to succeed.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_USER", "test-user")
	t.Setenv("DB_NAME", "test-db")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_ACCESS_KEY", "ak")
	t.Setenv("MINIO_SECRET_KEY", "sk")
	t.Setenv("MINIO_BUCKET", "documents")
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("MAX_FILE_SIZE_MB", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, 50, cfg.Upload.MaxFileSizeMB)
	assert.Equal(t, int64(50<<20), cfg.MaxFileSizeBytes())
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_HOST", "")
	t.Setenv("MINIO_BUCKET", "")

	_, err := Load()
	require.Error(t, err)

	// The error lists every missing variable, not just the first.
	assert.Contains(t, err.Error(), "DB_HOST")
	assert.Contains(t, err.Error(), "MINIO_BUCKET")
}

func TestLoad_InvalidBounds(t *testing.T) {
	setRequiredEnv(t)

	t.Run("non-positive max file size", func(t *testing.T) {
		t.Setenv("MAX_FILE_SIZE_MB", "-1")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("presign max below min", func(t *testing.T) {
		t.Setenv("PRESIGN_MIN_EXPIRY_SEC", "600")
		t.Setenv("PRESIGN_MAX_EXPIRY_SEC", "300")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}
