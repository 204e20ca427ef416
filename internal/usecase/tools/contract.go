package tools

import (
	"context"

	"filedeck/internal/domain"
)

type toolsClient interface {
	Transform(ctx context.Context, id string, op domain.Operation, params any) (*domain.Blob, error)
	ExtractText(ctx context.Context, id string) (string, error)
	Download(ctx context.Context, id string) (*domain.Blob, error)
}

// blobSink stores a binary result under a suggested name and reports where.
type blobSink interface {
	Save(ctx context.Context, name string, blob *domain.Blob) (string, error)
}

type activityPublisher interface {
	Publish(ctx context.Context, event domain.ActivityEvent)
}
