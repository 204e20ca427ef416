package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3001", cfg.API.BaseURL)
	assert.Equal(t, time.Duration(0), cfg.API.Timeout)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxFileSize)
	assert.Equal(t, 2*time.Second, cfg.Upload.DisplayDelay)
	assert.Equal(t, "disk", cfg.Sink.Kind)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "file-activity", cfg.Kafka.Topic)

	strategy := cfg.UploadRetryStrategy()
	assert.Equal(t, 1, strategy.Attempts)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("API_URL", "http://files.internal:8080")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("UPLOAD_RETRY_ATTEMPTS", "0")
	t.Setenv("UPLOAD_DISPLAY_DELAY", "500ms")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://files.internal:8080", cfg.API.BaseURL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 500*time.Millisecond, cfg.Upload.DisplayDelay)
	assert.Equal(t, 1, cfg.UploadRetryStrategy().Attempts, "attempts are clamped to one")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: http://backend:3001
  timeout: 15s
upload:
  max_file_size: 1024
  retry_attempts: 3
  retry_delay: 100ms
  retry_backoff: 2
sink:
  kind: minio
  minio:
    endpoint: minio:9000
    bucket: results
kafka:
  enabled: true
  brokers: [kafka:9092]
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://backend:3001", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, int64(1024), cfg.Upload.MaxFileSize)
	assert.Equal(t, "minio", cfg.Sink.Kind)
	assert.Equal(t, "results", cfg.Sink.Minio.Bucket)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "debug", cfg.Log.Level)

	strategy := cfg.UploadRetryStrategy()
	assert.Equal(t, 3, strategy.Attempts)
	assert.Equal(t, 100*time.Millisecond, strategy.Delay)
	assert.Equal(t, 2.0, strategy.Backoff)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("SINK_KIND", "ftp")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
