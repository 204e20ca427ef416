package catalog

import (
	"context"

	"filedeck/internal/domain"
)

type filesClient interface {
	List(ctx context.Context) ([]domain.FileRecord, error)
	Delete(ctx context.Context, id string) error
	BatchDelete(ctx context.Context, ids []string) error
}

type confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type activityPublisher interface {
	Publish(ctx context.Context, event domain.ActivityEvent)
}
