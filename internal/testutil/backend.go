package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"filedeck/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Failure int

const (
	FailNone Failure = iota
	// FailHTTP answers 500 with an error envelope.
	FailHTTP
	// FailHTML answers 502 with an HTML page.
	FailHTML
	// FailDrop closes the connection without a response.
	FailDrop
)

const FailureMessage = "simulated backend failure"

// Backend is an in-memory implementation of the files API.
type Backend struct {
	mu         sync.Mutex
	files      []domain.FileRecord
	blobs      map[string][]byte
	texts      map[string]string
	hits       map[string]int
	bodies     map[string][]byte
	failRoute  map[string]Failure
	failUpload map[string]Failure
	summary    json.RawMessage

	inflight    int
	maxInflight int
	uploadOrder []string

	server *httptest.Server
}

func NewBackend(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		blobs:      make(map[string][]byte),
		texts:      make(map[string]string),
		hits:       make(map[string]int),
		bodies:     make(map[string][]byte),
		failRoute:  make(map[string]Failure),
		failUpload: make(map[string]Failure),
	}
	b.server = httptest.NewServer(b.router())
	t.Cleanup(b.server.Close)
	return b
}

func (b *Backend) URL() string {
	return b.server.URL
}

func (b *Backend) router() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer(Logger()))
	r.Use(logRequests(Logger()))

	r.Route("/api/files", func(r chi.Router) {
		r.Get("/", b.list)
		r.Post("/upload", b.upload)
		r.Post("/batch/delete", b.batchDelete)
		r.Get("/stats/summary", b.stats)
		r.Get("/duplicates", b.duplicates)
		r.Delete("/{id}", b.delete)
		r.Post("/{id}/{op}", b.transform)
		r.Get("/{id}/extract-text", b.extractText)
		r.Get("/{id}/download", b.download)
	})

	return r
}

// AddFile seeds a record with its content.
func (b *Backend) AddFile(name, mimeType string, data []byte) domain.FileRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addLocked(name, mimeType, data)
}

func (b *Backend) SetText(id, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.texts[id] = text
}

// SetSummary overrides the data of /stats/summary with raw JSON.
func (b *Backend) SetSummary(raw string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.summary = json.RawMessage(raw)
}

// FailRoute makes every request to key ("METHOD /pattern") fail.
func (b *Backend) FailRoute(key string, f Failure) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failRoute[key] = f
}

// FailUpload makes uploads of the named file fail.
func (b *Backend) FailUpload(filename string, f Failure) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failUpload[filename] = f
}

func (b *Backend) Hits(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[key]
}

func (b *Backend) TotalHits() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, n := range b.hits {
		total += n
	}
	return total
}

// LastBody returns the last request body sent to key.
func (b *Backend) LastBody(key string) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies[key]
}

func (b *Backend) Files() []domain.FileRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.FileRecord, len(b.files))
	copy(out, b.files)
	return out
}

// MaxConcurrentUploads is the peak number of uploads in flight at once.
func (b *Backend) MaxConcurrentUploads() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.maxInflight
}

// UploadOrder lists filenames in the order their requests arrived.
func (b *Backend) UploadOrder() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.uploadOrder...)
}

func (b *Backend) list(w http.ResponseWriter, r *http.Request) {
	if b.enter(w, r) {
		return
	}
	respondData(w, http.StatusOK, b.Files())
}

func (b *Backend) upload(w http.ResponseWriter, r *http.Request) {
	if b.enter(w, r) {
		return
	}

	b.mu.Lock()
	b.inflight++
	if b.inflight > b.maxInflight {
		b.maxInflight = b.inflight
	}
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.inflight--
		b.mu.Unlock()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "File is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Failed to read file")
		return
	}

	b.mu.Lock()
	b.uploadOrder = append(b.uploadOrder, header.Filename)
	failure := b.failUpload[header.Filename]
	b.mu.Unlock()

	// Yield so an overlapping upload would be observable.
	time.Sleep(5 * time.Millisecond)

	if fail(w, failure) {
		return
	}

	mimeType := header.Header.Get("Content-Type")
	b.mu.Lock()
	record := b.addLocked(header.Filename, mimeType, data)
	b.mu.Unlock()

	respondData(w, http.StatusCreated, record)
}

func (b *Backend) delete(w http.ResponseWriter, r *http.Request) {
	if b.enter(w, r) {
		return
	}

	id := chi.URLParam(r, "id")
	b.mu.Lock()
	removed := b.removeLocked(id)
	b.mu.Unlock()

	if !removed {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "File not found")
		return
	}
	respondData(w, http.StatusOK, map[string]string{"id": id})
}

func (b *Backend) batchDelete(w http.ResponseWriter, r *http.Request) {
	if b.enter(w, r) {
		return
	}

	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal(b.LastBody(routeKey(r)), &req); err != nil || len(req.IDs) == 0 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "ids must be a non-empty array")
		return
	}

	deleted := 0
	b.mu.Lock()
	for _, id := range req.IDs {
		if b.removeLocked(id) {
			deleted++
		}
	}
	b.mu.Unlock()

	respondData(w, http.StatusOK, map[string]int{"deleted": deleted})
}

func (b *Backend) transform(w http.ResponseWriter, r *http.Request) {
	if b.enter(w, r) {
		return
	}

	op := chi.URLParam(r, "op")
	record, ok := b.find(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "File not found")
		return
	}
	if !strings.HasPrefix(record.MimeType, "image/") {
		respondError(w, http.StatusBadRequest, "INVALID_FILE_TYPE", "File is not an image")
		return
	}

	contentType := record.MimeType
	if op == string(domain.OpConvert) {
		var req struct {
			Format string `json:"format"`
		}
		_ = json.Unmarshal(b.LastBody(routeKey(r)), &req)
		if req.Format == "" {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "format is required")
			return
		}
		contentType = "image/" + req.Format
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(op + ":" + record.ID))
}

func (b *Backend) extractText(w http.ResponseWriter, r *http.Request) {
	if b.enter(w, r) {
		return
	}

	id := chi.URLParam(r, "id")
	record, ok := b.find(id)
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "File not found")
		return
	}
	if record.MimeType != domain.MimePDF {
		respondError(w, http.StatusBadRequest, "INVALID_FILE_TYPE", "File is not a PDF")
		return
	}

	b.mu.Lock()
	text := b.texts[id]
	b.mu.Unlock()
	respondData(w, http.StatusOK, map[string]string{"text": text})
}

func (b *Backend) download(w http.ResponseWriter, r *http.Request) {
	if b.enter(w, r) {
		return
	}

	id := chi.URLParam(r, "id")
	record, ok := b.find(id)
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "File not found")
		return
	}

	b.mu.Lock()
	data := b.blobs[id]
	b.mu.Unlock()

	w.Header().Set("Content-Type", record.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.OriginalFilename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// stats reports numbers as strings, the way SQL aggregates often arrive.
func (b *Backend) stats(w http.ResponseWriter, r *http.Request) {
	if b.enter(w, r) {
		return
	}

	b.mu.Lock()
	override := b.summary
	b.mu.Unlock()
	if override != nil {
		respondRaw(w, http.StatusOK, override)
		return
	}

	var total, images, pdfs, size, largest int64
	for _, f := range b.Files() {
		total++
		size += f.Size.Int64()
		if f.Size.Int64() > largest {
			largest = f.Size.Int64()
		}
		switch {
		case f.IsImage():
			images++
		case f.IsPDF():
			pdfs++
		}
	}
	avg := "0"
	if total > 0 {
		avg = fmt.Sprintf("%.4f", float64(size)/float64(total))
	}

	respondData(w, http.StatusOK, map[string]any{
		"total_files":   fmt.Sprint(total),
		"total_size":    fmt.Sprint(size),
		"image_count":   fmt.Sprint(images),
		"pdf_count":     fmt.Sprint(pdfs),
		"avg_file_size": avg,
		"max_file_size": largest,
	})
}

func (b *Backend) duplicates(w http.ResponseWriter, r *http.Request) {
	if b.enter(w, r) {
		return
	}

	type key struct {
		name string
		size int64
	}
	counts := make(map[key]int)
	var order []key
	for _, f := range b.Files() {
		k := key{f.OriginalFilename, f.Size.Int64()}
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}

	groups := make([]map[string]any, 0)
	for _, k := range order {
		if counts[k] < 2 {
			continue
		}
		groups = append(groups, map[string]any{
			"original_filename": k.name,
			"size":              k.size,
			"duplicate_count":   fmt.Sprint(counts[k]),
		})
	}
	respondData(w, http.StatusOK, groups)
}

// enter records the hit and body, then applies a route failure if one is set.
func (b *Backend) enter(w http.ResponseWriter, r *http.Request) bool {
	key := routeKey(r)

	var body []byte
	if r.Body != nil && !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		body, _ = io.ReadAll(r.Body)
	}

	b.mu.Lock()
	b.hits[key]++
	if body != nil {
		b.bodies[key] = body
	}
	failure := b.failRoute[key]
	b.mu.Unlock()

	return fail(w, failure)
}

func (b *Backend) find(id string) (domain.FileRecord, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, f := range b.files {
		if f.ID == id {
			return f, true
		}
	}
	return domain.FileRecord{}, false
}

func (b *Backend) addLocked(name, mimeType string, data []byte) domain.FileRecord {
	record := domain.FileRecord{
		ID:               uuid.New().String(),
		OriginalFilename: name,
		MimeType:         mimeType,
		Size:             domain.FlexInt(len(data)),
		CreatedAt:        time.Now().UTC(),
		Metadata:         domain.Metadata(fmt.Sprintf(`{"original_name":%q}`, name)),
	}
	b.files = append(b.files, record)
	b.blobs[record.ID] = append([]byte(nil), data...)
	return record
}

func (b *Backend) removeLocked(id string) bool {
	for i, f := range b.files {
		if f.ID == id {
			b.files = append(b.files[:i], b.files[i+1:]...)
			delete(b.blobs, id)
			return true
		}
	}
	return false
}

func routeKey(r *http.Request) string {
	pattern := r.URL.Path
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		pattern = rctx.RoutePattern()
	}
	return r.Method + " " + strings.TrimSuffix(pattern, "/")
}

func fail(w http.ResponseWriter, f Failure) bool {
	switch f {
	case FailHTTP:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", FailureMessage)
	case FailHTML:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html><head><title>502 Bad Gateway</title></head><body><h1>Bad Gateway</h1></body></html>"))
	case FailDrop:
		hj, ok := w.(http.Hijacker)
		if !ok {
			panic("response writer does not support hijacking")
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			_ = conn.Close()
		}
	default:
		return false
	}
	return true
}

func respondData(w http.ResponseWriter, status int, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondRaw(w, status, raw)
}

func respondRaw(w http.ResponseWriter, status int, data json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   map[string]string{"code": code, "message": message},
	})
}
