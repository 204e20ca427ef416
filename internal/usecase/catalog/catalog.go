package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"filedeck/internal/domain"
	"filedeck/internal/usecase/selection"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

// FetchResult is the outcome of a catalog fetch. On failure Files is empty
// and Retryable is set.
type FetchResult struct {
	Files     []domain.FileRecord
	Status    string
	Retryable bool
	Err       error
}

type DeleteOutcome struct {
	Confirmed bool
	OK        bool
	Count     int
	Status    string
	Err       error
}

type Catalog struct {
	client    filesClient
	selection *selection.Tracker
	confirm   confirmer
	publisher activityPublisher
	lane      sync.Locker
	logger    *zlog.Zerolog

	mu       sync.RWMutex
	snapshot []domain.FileRecord
	lastErr  error
}

func NewCatalog(client filesClient, tracker *selection.Tracker, confirm confirmer, publisher activityPublisher, lane sync.Locker, logger *zlog.Zerolog) *Catalog {
	if lane == nil {
		lane = &sync.Mutex{}
	}
	return &Catalog{
		client:    client,
		selection: tracker,
		confirm:   confirm,
		publisher: publisher,
		lane:      lane,
		logger:    logger,
	}
}

// FetchAll replaces the snapshot with the backend's list, in backend order.
func (c *Catalog) FetchAll(ctx context.Context) FetchResult {
	records, err := c.client.List(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to fetch files")
		records = []domain.FileRecord{}
	}

	c.mu.Lock()
	c.snapshot = records
	c.lastErr = err
	c.mu.Unlock()

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	if pruned := c.selection.Reconcile(ids); len(pruned) > 0 {
		c.logger.Debug().Strs("file_ids", pruned).Msg("Pruned stale selection")
	}

	if err != nil {
		return FetchResult{
			Files:     records,
			Status:    fetchFailedMessage,
			Retryable: true,
			Err:       err,
		}
	}

	c.logger.Debug().Int("count", len(records)).Msg("Catalog fetched")
	return FetchResult{Files: records}
}

// DeleteOne asks for confirmation, deletes id and refetches. A failed delete
// leaves the snapshot and selection untouched.
func (c *Catalog) DeleteOne(ctx context.Context, id string) DeleteOutcome {
	if id == "" {
		err := domain.NewValidationError(domain.ErrEmptySelection, "file id is required")
		return DeleteOutcome{Status: err.Error(), Err: err}
	}

	if !c.confirm.Confirm(ctx, confirmDeleteOne) {
		c.logger.Debug().Str("file_id", id).Msg("Delete declined")
		return DeleteOutcome{Err: domain.ErrDeclined}
	}

	c.lane.Lock()
	defer c.lane.Unlock()

	if err := c.client.Delete(ctx, id); err != nil {
		c.logger.Error().Err(err).Str("file_id", id).Msg("Failed to delete file")
		c.publish(ctx, domain.ActivityEvent{Kind: domain.ActivityDeleted, FileID: id, Count: 1, Message: err.Error()})
		return DeleteOutcome{
			Confirmed: true,
			Status:    domain.StatusText(err, deleteFailedMessage),
			Err:       err,
		}
	}

	c.selection.Remove(id)
	c.FetchAll(ctx)

	c.logger.Info().Str("file_id", id).Msg("File deleted")
	c.publish(ctx, domain.ActivityEvent{Kind: domain.ActivityDeleted, FileID: id, Count: 1, OK: true})
	return DeleteOutcome{Confirmed: true, OK: true, Count: 1, Status: "File deleted"}
}

// BatchDelete removes ids in one request. An empty set does nothing and
// prompts for nothing.
func (c *Catalog) BatchDelete(ctx context.Context, ids []string) DeleteOutcome {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return DeleteOutcome{Err: domain.NewValidationError(domain.ErrEmptySelection, "")}
	}

	if !c.confirm.Confirm(ctx, fmt.Sprintf(confirmDeleteBatch, len(ids))) {
		c.logger.Debug().Int("count", len(ids)).Msg("Batch delete declined")
		return DeleteOutcome{Count: len(ids), Err: domain.ErrDeclined}
	}

	c.lane.Lock()
	defer c.lane.Unlock()

	if err := c.client.BatchDelete(ctx, ids); err != nil {
		c.logger.Error().Err(err).Int("count", len(ids)).Msg("Failed to batch delete files")
		c.publish(ctx, domain.ActivityEvent{Kind: domain.ActivityBatchDeleted, Count: len(ids), Message: err.Error()})
		return DeleteOutcome{
			Confirmed: true,
			Count:     len(ids),
			Status:    domain.StatusText(err, batchFailedMessage),
			Err:       err,
		}
	}

	c.selection.Clear()
	c.FetchAll(ctx)

	c.logger.Info().Int("count", len(ids)).Msg("Files deleted")
	c.publish(ctx, domain.ActivityEvent{Kind: domain.ActivityBatchDeleted, Count: len(ids), OK: true})
	return DeleteOutcome{
		Confirmed: true,
		OK:        true,
		Count:     len(ids),
		Status:    fmt.Sprintf("Deleted %d file(s)", len(ids)),
	}
}

// DeleteSelected batch-deletes the current selection.
func (c *Catalog) DeleteSelected(ctx context.Context) DeleteOutcome {
	return c.BatchDelete(ctx, c.selection.IDs())
}

func (c *Catalog) Snapshot() []domain.FileRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.FileRecord(nil), c.snapshot...)
}

// Find looks id up in the last snapshot.
func (c *Catalog) Find(id string) (domain.FileRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.snapshot {
		if r.ID == id {
			return r, true
		}
	}
	return domain.FileRecord{}, false
}

func (c *Catalog) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

func (c *Catalog) Selection() *selection.Tracker {
	return c.selection
}

func (c *Catalog) publish(ctx context.Context, event domain.ActivityEvent) {
	if c.publisher == nil {
		return
	}
	event.ID = uuid.New().String()
	event.At = time.Now().UTC()
	c.publisher.Publish(ctx, event)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
