package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/wb-go/wbf/retry"
)

type Config struct {
	Env    string       `yaml:"env" env:"ENV" env-default:"local"`
	API    APIConfig    `yaml:"api"`
	Upload UploadConfig `yaml:"upload"`
	Sink   SinkConfig   `yaml:"sink"`
	Kafka  KafkaConfig  `yaml:"kafka"`
	Log    LogConfig    `yaml:"log"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"API_URL" env-default:"http://localhost:3001" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"0s"`
}

type UploadConfig struct {
	MaxFileSize   int64         `yaml:"max_file_size" env:"UPLOAD_MAX_FILE_SIZE" env-default:"10485760" validate:"gt=0"`
	DisplayDelay  time.Duration `yaml:"display_delay" env:"UPLOAD_DISPLAY_DELAY" env-default:"2s"`
	RetryAttempts int           `yaml:"retry_attempts" env:"UPLOAD_RETRY_ATTEMPTS" env-default:"1" validate:"gte=0"`
	RetryDelay    time.Duration `yaml:"retry_delay" env:"UPLOAD_RETRY_DELAY" env-default:"0s"`
	RetryBackoff  float64       `yaml:"retry_backoff" env:"UPLOAD_RETRY_BACKOFF" env-default:"1"`
}

type SinkConfig struct {
	Kind  string      `yaml:"kind" env:"SINK_KIND" env-default:"disk" validate:"oneof=disk minio"`
	Dir   string      `yaml:"dir" env:"SINK_DIR" env-default:"./downloads"`
	Minio MinioConfig `yaml:"minio"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET" env-default:"filedeck"`
	UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled" env:"KAFKA_ENABLED" env-default:"false"`
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:"," env-default:"localhost:9092"`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"file-activity"`
	GroupID string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"filedeck-activity"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info" validate:"oneof=trace debug info warn error fatal panic disabled"`
}

// MustLoad reads .env (if any), then CONFIG_PATH (if set), then the environment.
func MustLoad() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	return Load(os.Getenv("CONFIG_PATH"))
}

func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// UploadRetryStrategy is the per-item policy for batch uploads. The default
// of one attempt means no retry.
func (c *Config) UploadRetryStrategy() retry.Strategy {
	attempts := c.Upload.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := c.Upload.RetryBackoff
	if backoff < 1 {
		backoff = 1
	}
	return retry.Strategy{
		Attempts: attempts,
		Delay:    c.Upload.RetryDelay,
		Backoff:  backoff,
	}
}

func (c *Config) PublishRetryStrategy() retry.Strategy {
	return retry.Strategy{
		Attempts: 3,
		Delay:    200 * time.Millisecond,
		Backoff:  2,
	}
}
