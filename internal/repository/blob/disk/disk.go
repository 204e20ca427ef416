package disk

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"filedeck/internal/domain"

	"github.com/wb-go/wbf/zlog"
)

const maxSuffix = 1000

// Sink writes blobs into a directory without overwriting existing files.
type Sink struct {
	dir    string
	logger *zlog.Zerolog
}

func NewSink(dir string, logger *zlog.Zerolog) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sink directory: %w", err)
	}
	return &Sink{dir: dir, logger: logger}, nil
}

// Save writes blob as name, or "name (n).ext" when name is taken.
func (s *Sink) Save(ctx context.Context, name string, blob *domain.Blob) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	base := sanitize(name)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for n := 0; n < maxSuffix; n++ {
		candidate := base
		if n > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}
		path := filepath.Join(s.dir, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create %s: %w", path, err)
		}

		if _, err := f.Write(blob.Data); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("failed to write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to close %s: %w", path, err)
		}

		s.logger.Debug().Str("path", path).Int("bytes", len(blob.Data)).Msg("Blob saved")
		return path, nil
	}

	return "", fmt.Errorf("no free name for %s in %s", base, s.dir)
}

func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "download"
	}
	return name
}
