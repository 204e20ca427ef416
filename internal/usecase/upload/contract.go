package upload

import (
	"context"

	"filedeck/internal/domain"
)

type uploader interface {
	Upload(ctx context.Context, src domain.UploadSource) (*domain.FileRecord, error)
}

type activityPublisher interface {
	Publish(ctx context.Context, event domain.ActivityEvent)
}
