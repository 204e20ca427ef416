package stats

import (
	"context"
	"sync"

	"filedeck/internal/domain"

	"github.com/wb-go/wbf/zlog"
	"golang.org/x/sync/errgroup"
)

// View is the last fetched summary and duplicate groups.
type View struct {
	Summary    domain.StatsSummary
	Duplicates []domain.DuplicateGroup
}

// Aggregator reads statistics. Failures degrade to zero values and are
// only logged.
type Aggregator struct {
	client statsClient
	logger *zlog.Zerolog

	mu   sync.RWMutex
	last View
}

func NewAggregator(client statsClient, logger *zlog.Zerolog) *Aggregator {
	return &Aggregator{
		client: client,
		logger: logger,
		last:   View{Duplicates: []domain.DuplicateGroup{}},
	}
}

func (a *Aggregator) FetchSummary(ctx context.Context) domain.StatsSummary {
	summary, err := a.client.Summary(ctx)
	if err != nil || summary == nil {
		a.logger.Error().Err(err).Msg("Failed to fetch stats summary")
		summary = &domain.StatsSummary{}
	}

	a.mu.Lock()
	a.last.Summary = *summary
	a.mu.Unlock()
	return *summary
}

func (a *Aggregator) FetchDuplicates(ctx context.Context) []domain.DuplicateGroup {
	groups, err := a.client.Duplicates(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to fetch duplicates")
		groups = []domain.DuplicateGroup{}
	}

	a.mu.Lock()
	a.last.Duplicates = groups
	a.mu.Unlock()
	return groups
}

// Refresh fetches summary and duplicates concurrently.
func (a *Aggregator) Refresh(ctx context.Context) View {
	var g errgroup.Group
	g.Go(func() error {
		a.FetchSummary(ctx)
		return nil
	})
	g.Go(func() error {
		a.FetchDuplicates(ctx)
		return nil
	})
	_ = g.Wait()

	return a.Last()
}

func (a *Aggregator) Last() View {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return View{
		Summary:    a.last.Summary,
		Duplicates: append([]domain.DuplicateGroup{}, a.last.Duplicates...),
	}
}
