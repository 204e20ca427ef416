package stats

import (
	"context"

	"filedeck/internal/domain"
)

type statsClient interface {
	Summary(ctx context.Context) (*domain.StatsSummary, error)
	Duplicates(ctx context.Context) ([]domain.DuplicateGroup, error)
}
