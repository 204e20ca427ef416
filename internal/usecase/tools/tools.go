package tools

import (
	"context"
	"fmt"
	"sync"
	"time"

	"filedeck/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

type Outcome struct {
	Operation domain.Operation
	FileID    string
	OK        bool
	Filename  string
	Location  string
	Text      string
	Status    string
	Err       error
}

// Invoker runs server-side transforms for single catalog entries. No error
// escapes it; every failure is folded into the Outcome.
type Invoker struct {
	client    toolsClient
	sink      blobSink
	publisher activityPublisher
	validate  *validator.Validate
	logger    *zlog.Zerolog

	mu    sync.RWMutex
	texts map[string]string
}

func NewInvoker(client toolsClient, sink blobSink, publisher activityPublisher, logger *zlog.Zerolog) *Invoker {
	return &Invoker{
		client:    client,
		sink:      sink,
		publisher: publisher,
		validate:  validator.New(),
		logger:    logger,
		texts:     make(map[string]string),
	}
}

// Invoke dispatches op on record. params must be the request type matching
// op: ConversionRequest, CompressRequest, ResizeRequest or CropRequest, and
// nil for extract-text.
func (i *Invoker) Invoke(ctx context.Context, record domain.FileRecord, op domain.Operation, params any) Outcome {
	if err := guard(record, op); err != nil {
		i.logger.Warn().Err(err).Str("file_id", record.ID).Str("operation", string(op)).Msg("Operation rejected")
		return rejected(record, op, err)
	}

	if op == domain.OpExtractText {
		return i.extractText(ctx, record)
	}

	body, format, err := i.requestFor(op, params)
	if err != nil {
		i.logger.Warn().Err(err).Str("file_id", record.ID).Str("operation", string(op)).Msg("Invalid parameters")
		return rejected(record, op, err)
	}

	blob, err := i.client.Transform(ctx, record.ID, op, body)
	if err != nil {
		i.logger.Error().Err(err).Str("file_id", record.ID).Str("operation", string(op)).Msg("Transform failed")
		return i.failed(ctx, record, op, err)
	}

	return i.save(ctx, record, op, domain.ResultFilename(op, record.OriginalFilename, format), blob)
}

func (i *Invoker) Convert(ctx context.Context, record domain.FileRecord, req domain.ConversionRequest) Outcome {
	return i.Invoke(ctx, record, domain.OpConvert, req)
}

func (i *Invoker) Compress(ctx context.Context, record domain.FileRecord, quality int) Outcome {
	return i.Invoke(ctx, record, domain.OpCompress, domain.CompressRequest{Quality: quality})
}

// Resize keeps the aspect ratio; nil dimensions are left to the server.
func (i *Invoker) Resize(ctx context.Context, record domain.FileRecord, width, height *int) Outcome {
	return i.Invoke(ctx, record, domain.OpResize, domain.ResizeRequest{Width: width, Height: height, Fit: domain.FitInside})
}

func (i *Invoker) Crop(ctx context.Context, record domain.FileRecord, req domain.CropRequest) Outcome {
	return i.Invoke(ctx, record, domain.OpCrop, req)
}

func (i *Invoker) ExtractText(ctx context.Context, record domain.FileRecord) Outcome {
	return i.Invoke(ctx, record, domain.OpExtractText, nil)
}

// Download saves the stored original under its own filename.
func (i *Invoker) Download(ctx context.Context, record domain.FileRecord) Outcome {
	blob, err := i.client.Download(ctx, record.ID)
	if err != nil {
		i.logger.Error().Err(err).Str("file_id", record.ID).Msg("Download failed")
		return Outcome{
			FileID: record.ID,
			Status: domain.StatusText(err, downloadFailedMessage),
			Err:    err,
		}
	}

	name := record.OriginalFilename
	if name == "" {
		name = blob.Filename
	}
	if name == "" {
		name = record.ID
	}

	location, err := i.sink.Save(ctx, name, blob)
	if err != nil {
		i.logger.Error().Err(err).Str("file_id", record.ID).Str("filename", name).Msg("Failed to save download")
		wrapped := fmt.Errorf("%w: %w", ErrSinkFailed, err)
		return Outcome{FileID: record.ID, Filename: name, Status: wrapped.Error(), Err: wrapped}
	}

	i.logger.Info().Str("file_id", record.ID).Str("location", location).Msg("File downloaded")
	i.publish(ctx, domain.ActivityEvent{Kind: domain.ActivityDownloaded, FileID: record.ID, Filename: name, OK: true})
	return Outcome{
		FileID:   record.ID,
		OK:       true,
		Filename: name,
		Location: location,
		Status:   "Saved " + location,
	}
}

// Text returns the last text extracted from id.
func (i *Invoker) Text(id string) (string, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	text, ok := i.texts[id]
	return text, ok
}

func (i *Invoker) extractText(ctx context.Context, record domain.FileRecord) Outcome {
	text, err := i.client.ExtractText(ctx, record.ID)
	if err != nil {
		i.logger.Error().Err(err).Str("file_id", record.ID).Msg("Text extraction failed")
		return i.failed(ctx, record, domain.OpExtractText, err)
	}

	i.mu.Lock()
	i.texts[record.ID] = text
	i.mu.Unlock()

	i.logger.Info().Str("file_id", record.ID).Int("chars", len(text)).Msg("Text extracted")
	i.publish(ctx, domain.ActivityEvent{Kind: domain.ActivityTransformed, FileID: record.ID, Filename: record.OriginalFilename, Operation: domain.OpExtractText, OK: true})
	return Outcome{
		Operation: domain.OpExtractText,
		FileID:    record.ID,
		OK:        true,
		Text:      text,
		Status:    "Text extracted",
	}
}

func (i *Invoker) requestFor(op domain.Operation, params any) (any, domain.ImageFormat, error) {
	var (
		body   any
		format domain.ImageFormat
	)

	switch op {
	case domain.OpConvert:
		req, ok := params.(domain.ConversionRequest)
		if !ok {
			return nil, "", paramsTypeError(op, params)
		}
		body, format = req, req.Format
	case domain.OpCompress:
		req, ok := params.(domain.CompressRequest)
		if !ok {
			return nil, "", paramsTypeError(op, params)
		}
		body = req
	case domain.OpResize:
		req, ok := params.(domain.ResizeRequest)
		if !ok {
			return nil, "", paramsTypeError(op, params)
		}
		if req.Fit == "" {
			req.Fit = domain.FitInside
		}
		body = req
	case domain.OpCrop:
		req, ok := params.(domain.CropRequest)
		if !ok {
			return nil, "", paramsTypeError(op, params)
		}
		body = req
	default:
		return nil, "", domain.NewValidationError(domain.ErrInvalidParams, fmt.Sprintf("unknown operation %q", op))
	}

	if err := i.validate.Struct(body); err != nil {
		return nil, "", domain.NewValidationError(domain.ErrInvalidParams, err.Error())
	}
	return body, format, nil
}

func (i *Invoker) save(ctx context.Context, record domain.FileRecord, op domain.Operation, name string, blob *domain.Blob) Outcome {
	location, err := i.sink.Save(ctx, name, blob)
	if err != nil {
		i.logger.Error().Err(err).Str("file_id", record.ID).Str("filename", name).Msg("Failed to save result")
		wrapped := fmt.Errorf("%w: %w", ErrSinkFailed, err)
		return Outcome{Operation: op, FileID: record.ID, Filename: name, Status: wrapped.Error(), Err: wrapped}
	}

	i.logger.Info().
		Str("file_id", record.ID).
		Str("operation", string(op)).
		Str("location", location).
		Int("bytes", len(blob.Data)).
		Msg("Transform saved")
	i.publish(ctx, domain.ActivityEvent{Kind: domain.ActivityTransformed, FileID: record.ID, Filename: name, Operation: op, OK: true})

	return Outcome{
		Operation: op,
		FileID:    record.ID,
		OK:        true,
		Filename:  name,
		Location:  location,
		Status:    "Saved " + location,
	}
}

func (i *Invoker) failed(ctx context.Context, record domain.FileRecord, op domain.Operation, err error) Outcome {
	i.publish(ctx, domain.ActivityEvent{Kind: domain.ActivityTransformed, FileID: record.ID, Filename: record.OriginalFilename, Operation: op, Message: err.Error()})
	return Outcome{
		Operation: op,
		FileID:    record.ID,
		Status:    domain.StatusText(err, failureMessage(op)),
		Err:       err,
	}
}

func (i *Invoker) publish(ctx context.Context, event domain.ActivityEvent) {
	if i.publisher == nil {
		return
	}
	event.ID = uuid.New().String()
	event.At = time.Now().UTC()
	i.publisher.Publish(ctx, event)
}

func guard(record domain.FileRecord, op domain.Operation) error {
	switch {
	case op.ImageOnly() && !record.IsImage():
		return domain.NewValidationError(domain.ErrNotImage, record.MimeType)
	case op == domain.OpExtractText && !record.IsPDF():
		return domain.NewValidationError(domain.ErrNotPDF, record.MimeType)
	}
	return nil
}

func rejected(record domain.FileRecord, op domain.Operation, err error) Outcome {
	return Outcome{
		Operation: op,
		FileID:    record.ID,
		Status:    domain.StatusText(err, failureMessage(op)),
		Err:       err,
	}
}

func paramsTypeError(op domain.Operation, params any) error {
	return domain.NewValidationError(domain.ErrInvalidParams, fmt.Sprintf("%s does not accept %T", op, params))
}
