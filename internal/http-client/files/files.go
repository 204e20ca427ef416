package files

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"filedeck/internal/domain"
	"filedeck/internal/http-client/files/dto"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

const (
	maxBodySize     = 64 << 20
	requestIDHeader = "X-Request-ID"
	jsonContentType = "application/json"
)

type Client struct {
	baseURL string
	http    httpDoer
	logger  *zlog.Zerolog
}

// NewClient builds a client for baseURL. A zero timeout keeps the
// transport default.
func NewClient(baseURL string, timeout time.Duration, logger *zlog.Zerolog) *Client {
	return NewClientWithDoer(baseURL, &http.Client{Timeout: timeout}, logger)
}

func NewClientWithDoer(baseURL string, doer httpDoer, logger *zlog.Zerolog) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		logger:  logger,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) List(ctx context.Context) ([]domain.FileRecord, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/files", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var records []domain.FileRecord
	if err := c.decodeEnvelope(resp, "Fetch", &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.FileRecord{}
	}
	return records, nil
}

func (c *Client) Upload(ctx context.Context, src domain.UploadSource) (*domain.FileRecord, error) {
	if src.Open == nil {
		return nil, ErrNoOpener
	}

	body, contentType, err := multipartBody(src)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, http.MethodPost, "/api/files/upload", body, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var record domain.FileRecord
	if err := c.decodeEnvelope(resp, "Upload", &record); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("file_id", record.ID).
		Str("filename", src.Name).
		Int64("size", src.Size).
		Msg("File uploaded")
	return &record, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyID
	}

	resp, err := c.send(ctx, http.MethodDelete, "/api/files/"+url.PathEscape(id), nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.expectOK(resp, "Delete")
}

func (c *Client) BatchDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return ErrNothingToSend
	}

	payload, err := json.Marshal(dto.BatchDeleteRequest{IDs: ids})
	if err != nil {
		return fmt.Errorf("failed to encode batch delete request: %w", err)
	}

	resp, err := c.send(ctx, http.MethodPost, "/api/files/batch/delete", bytes.NewReader(payload), jsonContentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.expectOK(resp, "Batch delete")
}

// Transform posts params to one of the binary tool routes.
func (c *Client) Transform(ctx context.Context, id string, op domain.Operation, params any) (*domain.Blob, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	payload, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", op, err)
	}

	path := fmt.Sprintf("/api/files/%s/%s", url.PathEscape(id), op)
	resp, err := c.send(ctx, http.MethodPost, path, bytes.NewReader(payload), jsonContentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return c.readBlob(resp)
}

func (c *Client) ExtractText(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", ErrEmptyID
	}

	path := fmt.Sprintf("/api/files/%s/extract-text", url.PathEscape(id))
	resp, err := c.send(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var data dto.ExtractTextResponse
	if err := c.decodeEnvelope(resp, "Text extraction", &data); err != nil {
		return "", err
	}
	return data.Text, nil
}

func (c *Client) Download(ctx context.Context, id string) (*domain.Blob, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	path := fmt.Sprintf("/api/files/%s/download", url.PathEscape(id))
	resp, err := c.send(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return c.readBlob(resp)
}

func (c *Client) Summary(ctx context.Context) (*domain.StatsSummary, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/files/stats/summary", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var summary domain.StatsSummary
	if err := c.decodeEnvelope(resp, "Stats", &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) Duplicates(ctx context.Context) ([]domain.DuplicateGroup, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/files/duplicates", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var groups []domain.DuplicateGroup
	if err := c.decodeEnvelope(resp, "Duplicates", &groups); err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []domain.DuplicateGroup{}
	}
	return groups, nil
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	op := method + " " + path

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request %s: %w", op, err)
	}

	requestID := uuid.New().String()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", jsonContentType+", */*")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("request_id", requestID).
			Str("op", op).
			Msg("Request failed")
		return nil, &domain.TransportError{Op: op, Err: err}
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Request completed")
	return resp, nil
}

// decodeEnvelope checks the declared content type before parsing and fills
// target from the envelope's data on success.
func (c *Client) decodeEnvelope(resp *http.Response, op string, target any) error {
	raw, err := readBody(resp)
	if err != nil {
		return err
	}

	if !isJSON(resp.Header.Get("Content-Type")) {
		return domain.NewProtocolError(resp.StatusCode, raw)
	}

	var env dto.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return domain.NewProtocolError(resp.StatusCode, raw)
	}

	if !isSuccess(resp.StatusCode) || !env.Success {
		return applicationError(resp, env.Error, op)
	}

	if target == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return domain.NewProtocolError(resp.StatusCode, env.Data)
	}
	return nil
}

// expectOK accepts any 2xx. Bodies are optional; a JSON envelope that
// reports failure still counts as failure.
func (c *Client) expectOK(resp *http.Response, op string) error {
	raw, err := readBody(resp)
	if err != nil {
		return err
	}

	var env dto.Envelope
	hasEnvelope := isJSON(resp.Header.Get("Content-Type")) && len(bytes.TrimSpace(raw)) > 0 &&
		json.Unmarshal(raw, &env) == nil

	if isSuccess(resp.StatusCode) {
		if hasEnvelope && !env.Success && env.Error != nil {
			return applicationError(resp, env.Error, op)
		}
		return nil
	}

	if hasEnvelope {
		return applicationError(resp, env.Error, op)
	}
	if len(bytes.TrimSpace(raw)) > 0 && !isJSON(resp.Header.Get("Content-Type")) {
		return domain.NewProtocolError(resp.StatusCode, raw)
	}
	return applicationError(resp, nil, op)
}

func (c *Client) readBlob(resp *http.Response) (*domain.Blob, error) {
	raw, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if !isSuccess(resp.StatusCode) {
		if !isJSON(contentType) {
			return nil, domain.NewProtocolError(resp.StatusCode, raw)
		}
		var env dto.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, domain.NewProtocolError(resp.StatusCode, raw)
		}
		return nil, &domain.ApplicationError{Status: resp.StatusCode, Code: errorCode(env.Error), Message: errorMessage(env.Error)}
	}

	return &domain.Blob{
		Data:        raw,
		ContentType: contentType,
		Filename:    dispositionFilename(resp.Header.Get("Content-Disposition")),
	}, nil
}

func multipartBody(src domain.UploadSource) (io.Reader, string, error) {
	file, err := src.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s: %w", src.Name, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, src.Name))
	partType := src.MimeType
	if partType == "" {
		partType = "application/octet-stream"
	}
	header.Set("Content-Type", partType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", src.Name, err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish form: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

func readBody(resp *http.Response) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &domain.TransportError{Op: "read response body", Err: err}
	}
	return raw, nil
}

func applicationError(resp *http.Response, body *dto.ErrorBody, op string) *domain.ApplicationError {
	message := errorMessage(body)
	if message == "" {
		message = fmt.Sprintf("%s failed: %s", op, resp.Status)
	}
	return &domain.ApplicationError{
		Status:  resp.StatusCode,
		Code:    errorCode(body),
		Message: message,
	}
}

func errorMessage(body *dto.ErrorBody) string {
	if body == nil {
		return ""
	}
	return body.Message
}

func errorCode(body *dto.ErrorBody) string {
	if body == nil {
		return ""
	}
	return body.Code
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), jsonContentType)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}
