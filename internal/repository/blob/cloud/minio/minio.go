package minio

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"filedeck/internal/config"
	"filedeck/internal/domain"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// Sink stores blobs as objects in one bucket, grouped by day.
type Sink struct {
	client  *minio.Client
	bucket  string
	retries retry.Strategy
	logger  *zlog.Zerolog
	now     func() time.Time
}

func NewSink(ctx context.Context, cfg config.MinioConfig, retries retry.Strategy, logger *zlog.Zerolog) (*Sink, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	s := &Sink{
		client:  client,
		bucket:  cfg.Bucket,
		retries: retries,
		logger:  logger,
		now:     time.Now,
	}

	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sink) Save(ctx context.Context, name string, blob *domain.Blob) (string, error) {
	key := objectKey(s.now(), name)
	contentType := blob.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	err := retry.Do(func() error {
		_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(blob.Data), int64(len(blob.Data)),
			minio.PutObjectOptions{ContentType: contentType})
		return err
	}, s.retries)
	if err != nil {
		s.logger.Error().Err(err).Str("bucket", s.bucket).Str("key", key).Msg("Failed to put object")
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	location := fmt.Sprintf("minio://%s/%s", s.bucket, key)
	s.logger.Debug().Str("location", location).Int("bytes", len(blob.Data)).Msg("Blob saved")
	return location, nil
}

func (s *Sink) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info().Str("bucket", s.bucket).Msg("Bucket created")
	return nil
}

func objectKey(at time.Time, name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "download"
	}
	return path.Join(at.UTC().Format("2006/01/02"), fmt.Sprintf("%d-%s", at.UnixNano(), name))
}
