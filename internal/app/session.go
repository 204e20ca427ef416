package app

import (
	"context"
	"fmt"
	"sync"

	"filedeck/internal/broker"
	kafka_impl "filedeck/internal/broker/kafka"
	"filedeck/internal/config"
	"filedeck/internal/domain"
	files_client "filedeck/internal/http-client/files"
	minio_sink "filedeck/internal/repository/blob/cloud/minio"
	disk_sink "filedeck/internal/repository/blob/disk"
	"filedeck/internal/usecase/catalog"
	"filedeck/internal/usecase/selection"
	"filedeck/internal/usecase/stats"
	"filedeck/internal/usecase/tools"
	"filedeck/internal/usecase/upload"

	"github.com/wb-go/wbf/zlog"
)

type confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type blobSink interface {
	Save(ctx context.Context, name string, blob *domain.Blob) (string, error)
}

// Session owns one set of components that share a selection and a
// mutation lane.
type Session struct {
	Client    *files_client.Client
	Selection *selection.Tracker
	Catalog   *catalog.Catalog
	Uploads   *upload.Orchestrator
	Tools     *tools.Invoker
	Stats     *stats.Aggregator

	publisher broker.Publisher
	logger    *zlog.Zerolog
}

func NewSession(ctx context.Context, cfg *config.Config, confirm confirmer, logger *zlog.Zerolog) (*Session, error) {
	sink, err := newSink(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var publisher broker.Publisher = broker.Nop{}
	if cfg.Kafka.Enabled {
		publisher = kafka_impl.NewActivityPublisher(cfg, logger)
	}

	client := files_client.NewClient(cfg.API.BaseURL, cfg.API.Timeout, logger)
	return newSession(client, sink, publisher, confirm, policyFrom(cfg), logger), nil
}

func newSession(client *files_client.Client, sink blobSink, publisher broker.Publisher, confirm confirmer, policy upload.Policy, logger *zlog.Zerolog) *Session {
	lane := &sync.Mutex{}
	tracker := selection.NewTracker()

	s := &Session{
		Client:    client,
		Selection: tracker,
		Catalog:   catalog.NewCatalog(client, tracker, confirm, publisher, lane, logger),
		Uploads:   upload.NewOrchestrator(client, publisher, lane, policy, logger),
		Tools:     tools.NewInvoker(client, sink, publisher, logger),
		Stats:     stats.NewAggregator(client, logger),
		publisher: publisher,
		logger:    logger,
	}

	s.Uploads.OnComplete(func() {
		s.Catalog.FetchAll(context.Background())
	})
	return s
}

func (s *Session) Close() error {
	return s.publisher.Close()
}

func policyFrom(cfg *config.Config) upload.Policy {
	return upload.Policy{
		Retry:        cfg.UploadRetryStrategy(),
		MaxFileSize:  cfg.Upload.MaxFileSize,
		DisplayDelay: cfg.Upload.DisplayDelay,
	}
}

func newSink(ctx context.Context, cfg *config.Config, logger *zlog.Zerolog) (blobSink, error) {
	switch cfg.Sink.Kind {
	case "minio":
		sink, err := minio_sink.NewSink(ctx, cfg.Sink.Minio, cfg.PublishRetryStrategy(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create minio sink: %w", err)
		}
		return sink, nil
	default:
		sink, err := disk_sink.NewSink(cfg.Sink.Dir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create disk sink: %w", err)
		}
		return sink, nil
	}
}
