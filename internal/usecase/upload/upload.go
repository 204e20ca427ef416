package upload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"filedeck/internal/domain"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// Policy controls how a run treats each item.
type Policy struct {
	// Retry is applied per item to transport failures. One attempt means
	// every failure is final.
	Retry        retry.Strategy
	MaxFileSize  int64
	DisplayDelay time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		Retry:        retry.Strategy{Attempts: 1, Backoff: 1},
		MaxFileSize:  domain.DefaultMaxUploadSize,
		DisplayDelay: 2 * time.Second,
	}
}

func (p Policy) normalized() Policy {
	if p.Retry.Attempts < 1 {
		p.Retry.Attempts = 1
	}
	if p.Retry.Backoff < 1 {
		p.Retry.Backoff = 1
	}
	if p.MaxFileSize <= 0 {
		p.MaxFileSize = domain.DefaultMaxUploadSize
	}
	if p.DisplayDelay < 0 {
		p.DisplayDelay = 0
	}
	return p
}

type Item struct {
	Name     string
	Size     int64
	MimeType string
	Progress domain.Progress
	Record   *domain.FileRecord
	Err      error
}

// Tally accumulates per-item outcomes of a batch.
type Tally struct {
	Succeeded int
	Failed    int
}

func (t Tally) add(err error) Tally {
	if err != nil {
		t.Failed++
	} else {
		t.Succeeded++
	}
	return t
}

func (t Tally) Total() int {
	return t.Succeeded + t.Failed
}

type Result struct {
	RunID   string
	Mode    domain.UploadMode
	State   domain.UploadState
	Message string
	Items   []Item
	Tally   Tally
	Err     error
}

type Snapshot struct {
	Mode    domain.UploadMode
	State   domain.UploadState
	Message string
	Items   []Item
}

// ProgressByName maps display names to rendered progress values.
func (s Snapshot) ProgressByName() map[string]int {
	out := make(map[string]int, len(s.Items))
	for _, it := range s.Items {
		out[it.Name] = it.Progress.Value()
	}
	return out
}

// Orchestrator drives single and batch uploads through
// idle -> uploading -> success|error -> idle.
type Orchestrator struct {
	client    uploader
	publisher activityPublisher
	lane      sync.Locker
	policy    Policy
	logger    *zlog.Zerolog

	mu         sync.Mutex
	mode       domain.UploadMode
	state      domain.UploadState
	message    string
	single     *domain.UploadSource
	pending    []domain.UploadSource
	items      []Item
	runID      string
	idle       chan struct{}
	onComplete func()
	onProgress func(index int, item Item)
}

func NewOrchestrator(client uploader, publisher activityPublisher, lane sync.Locker, policy Policy, logger *zlog.Zerolog) *Orchestrator {
	if lane == nil {
		lane = &sync.Mutex{}
	}
	return &Orchestrator{
		client:    client,
		publisher: publisher,
		lane:      lane,
		policy:    policy.normalized(),
		logger:    logger,
		mode:      domain.ModeSingle,
		state:     domain.UploadIdle,
	}
}

// OnComplete sets the callback fired after the display delay. Batches
// always fire it; single uploads only on success.
func (o *Orchestrator) OnComplete(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onComplete = fn
}

func (o *Orchestrator) OnProgress(fn func(index int, item Item)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onProgress = fn
}

// SelectSingle replaces the pending set with one source.
func (o *Orchestrator) SelectSingle(src domain.UploadSource) error {
	return o.selectSources(domain.ModeSingle, []domain.UploadSource{src})
}

// SelectBatch replaces the pending set with srcs.
func (o *Orchestrator) SelectBatch(srcs []domain.UploadSource) error {
	return o.selectSources(domain.ModeBatch, srcs)
}

func (o *Orchestrator) selectSources(mode domain.UploadMode, srcs []domain.UploadSource) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == domain.UploadUploading {
		return domain.ErrBusy
	}

	// A pending idle timer from the previous run must not touch this selection.
	o.runID = ""
	o.mode = mode
	o.single = nil
	o.pending = nil
	if mode == domain.ModeSingle && len(srcs) > 0 {
		src := srcs[0]
		o.single = &src
	} else if mode == domain.ModeBatch {
		o.pending = append([]domain.UploadSource(nil), srcs...)
	}
	o.items = itemsFor(srcs)
	if mode == domain.ModeSingle && len(o.items) > 1 {
		o.items = o.items[:1]
	}
	o.state = domain.UploadIdle
	o.message = ""
	return nil
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot{
		Mode:    o.mode,
		State:   o.state,
		Message: o.message,
		Items:   append([]Item(nil), o.items...),
	}
}

// WaitIdle blocks until the display delay of the last run has elapsed and
// its completion callback has returned.
func (o *Orchestrator) WaitIdle(ctx context.Context) error {
	o.mu.Lock()
	idle := o.idle
	o.mu.Unlock()

	if idle == nil {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run uploads the pending selection. With nothing selected it is a no-op.
func (o *Orchestrator) Run(ctx context.Context) Result {
	o.mu.Lock()
	if o.state == domain.UploadUploading {
		o.mu.Unlock()
		return Result{State: domain.UploadUploading, Err: domain.ErrBusy}
	}

	mode := o.mode
	var sources []domain.UploadSource
	switch {
	case mode == domain.ModeSingle && o.single != nil:
		sources = []domain.UploadSource{*o.single}
	case mode == domain.ModeBatch:
		sources = append(sources, o.pending...)
	}
	if len(sources) == 0 {
		state := o.state
		o.mu.Unlock()
		return Result{Mode: mode, State: state, Err: domain.NewValidationError(domain.ErrNoSource, "")}
	}

	runID := uuid.New().String()
	o.runID = runID
	o.state = domain.UploadUploading
	o.message = ""
	o.items = itemsFor(sources)
	idle := make(chan struct{})
	o.idle = idle
	o.mu.Unlock()

	o.lane.Lock()
	var res Result
	if mode == domain.ModeSingle {
		res = o.runSingle(ctx, sources[0])
	} else {
		res = o.runBatch(ctx, sources)
	}
	o.lane.Unlock()

	res.RunID = runID
	res.Mode = mode

	o.mu.Lock()
	o.state = res.State
	o.message = res.Message
	res.Items = append([]Item(nil), o.items...)
	notify := res.State == domain.UploadSuccess || mode == domain.ModeBatch
	if res.State == domain.UploadSuccess && mode == domain.ModeSingle {
		o.single = nil
	}
	if mode == domain.ModeBatch {
		o.pending = nil
	}
	o.mu.Unlock()

	o.scheduleIdle(runID, idle, notify)
	return res
}

func (o *Orchestrator) runSingle(ctx context.Context, src domain.UploadSource) Result {
	log := o.logger.With().Str("filename", src.Name).Int64("size", src.Size).Logger()

	o.setProgress(0, domain.InProgress(0), nil, nil)
	record, err := o.uploadOne(ctx, src)
	if err != nil {
		o.setProgress(0, domain.Failed(), nil, err)
		log.Error().Err(err).Msg("Upload failed")
		o.publish(ctx, domain.ActivityEvent{Kind: domain.ActivityUploaded, Filename: src.Name, Count: 1, Message: err.Error()})
		return Result{
			State:   domain.UploadError,
			Message: domain.StatusText(err, singleFailedMessage),
			Tally:   Tally{Failed: 1},
			Err:     err,
		}
	}

	o.setProgress(0, domain.Succeeded(), record, nil)
	log.Info().Str("file_id", record.ID).Msg("File uploaded")
	o.publish(ctx, domain.ActivityEvent{Kind: domain.ActivityUploaded, FileID: record.ID, Filename: src.Name, Count: 1, OK: true})
	return Result{
		State:   domain.UploadSuccess,
		Message: singleSuccessMessage,
		Tally:   Tally{Succeeded: 1},
	}
}

// runBatch folds over sources strictly in order: item N+1 is not sent before
// item N has a final outcome, and every item is visited.
func (o *Orchestrator) runBatch(ctx context.Context, sources []domain.UploadSource) Result {
	tally := fold(sources, Tally{}, func(t Tally, i int, src domain.UploadSource) Tally {
		o.setProgress(i, domain.InProgress(0), nil, nil)

		record, err := o.uploadOne(ctx, src)
		if err != nil {
			o.setProgress(i, domain.Failed(), nil, err)
			o.logger.Warn().Err(err).Int("index", i).Str("filename", src.Name).Msg("Batch item failed")
		} else {
			o.setProgress(i, domain.Succeeded(), record, nil)
			o.logger.Debug().Int("index", i).Str("filename", src.Name).Str("file_id", record.ID).Msg("Batch item uploaded")
		}
		return t.add(err)
	})

	res := Result{Tally: tally}
	if tally.Failed == 0 {
		res.State = domain.UploadSuccess
		res.Message = fmt.Sprintf(batchSuccessMessage, tally.Succeeded)
	} else {
		res.State = domain.UploadError
		res.Message = fmt.Sprintf(batchFailedMessage, tally.Succeeded, tally.Total(), tally.Succeeded, tally.Failed)
	}

	o.logger.Info().
		Int("succeeded", tally.Succeeded).
		Int("failed", tally.Failed).
		Msg("Batch upload finished")
	o.publish(ctx, domain.ActivityEvent{
		Kind:    domain.ActivityBatchUploaded,
		Count:   tally.Total(),
		OK:      tally.Failed == 0,
		Message: res.Message,
	})
	return res
}

// uploadOne validates src locally, then uploads it under the retry policy.
// Only transport-level failures are retried.
func (o *Orchestrator) uploadOne(ctx context.Context, src domain.UploadSource) (*domain.FileRecord, error) {
	if err := o.check(src); err != nil {
		return nil, err
	}

	var (
		record    *domain.FileRecord
		permanent error
	)
	err := retry.Do(func() error {
		if err := ctx.Err(); err != nil {
			permanent = &domain.TransportError{Op: "upload " + src.Name, Err: err}
			return nil
		}
		r, err := o.client.Upload(ctx, src)
		if err != nil {
			if domain.Retryable(err) {
				return err
			}
			permanent = err
			return nil
		}
		record = r
		return nil
	}, o.policy.Retry)
	if err == nil {
		err = permanent
	}
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("upload of %s returned no record", src.Name)
	}
	return record, nil
}

func (o *Orchestrator) check(src domain.UploadSource) error {
	if src.Open == nil {
		return domain.NewValidationError(domain.ErrNoSource, src.Name)
	}
	if src.Size > o.policy.MaxFileSize {
		return domain.NewValidationError(domain.ErrFileTooLarge,
			fmt.Sprintf("%s is %s, limit is %s", src.Name, domain.FormatBytes(src.Size), domain.FormatBytes(o.policy.MaxFileSize)))
	}
	if !domain.Accepted(src.MimeType) {
		return domain.NewValidationError(domain.ErrUnsupportedType, fmt.Sprintf("%s (%s)", src.Name, src.MimeType))
	}
	return nil
}

func (o *Orchestrator) setProgress(i int, p domain.Progress, record *domain.FileRecord, err error) {
	o.mu.Lock()
	if i >= len(o.items) {
		o.mu.Unlock()
		return
	}
	it := &o.items[i]
	it.Progress = it.Progress.Advance(p)
	if record != nil {
		it.Record = record
	}
	if err != nil {
		it.Err = err
	}
	item := *it
	hook := o.onProgress
	o.mu.Unlock()

	if hook != nil {
		hook(i, item)
	}
}

func (o *Orchestrator) scheduleIdle(runID string, idle chan struct{}, notify bool) {
	o.mu.Lock()
	callback := o.onComplete
	o.mu.Unlock()

	time.AfterFunc(o.policy.DisplayDelay, func() {
		if notify && callback != nil {
			callback()
		}

		o.mu.Lock()
		if o.runID == runID && o.state != domain.UploadUploading {
			o.state = domain.UploadIdle
			o.message = ""
			if o.mode == domain.ModeBatch || o.single == nil {
				o.items = nil
			}
		}
		o.mu.Unlock()

		close(idle)
	})
}

func (o *Orchestrator) publish(ctx context.Context, event domain.ActivityEvent) {
	if o.publisher == nil {
		return
	}
	event.ID = uuid.New().String()
	event.At = time.Now().UTC()
	o.publisher.Publish(ctx, event)
}

// fold visits every element in order; it never short-circuits.
func fold[T, A any](xs []T, acc A, step func(A, int, T) A) A {
	for i, x := range xs {
		acc = step(acc, i, x)
	}
	return acc
}

func itemsFor(srcs []domain.UploadSource) []Item {
	items := make([]Item, len(srcs))
	for i, s := range srcs {
		items[i] = Item{Name: s.Name, Size: s.Size, MimeType: s.MimeType, Progress: domain.NotStarted()}
	}
	return items
}
