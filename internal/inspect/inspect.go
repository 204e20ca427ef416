// Package inspect describes local files before they are uploaded.
package inspect

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"filedeck/internal/domain"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrNotRegular = errors.New("not a regular file")

type Info struct {
	Path     string
	Name     string
	Size     int64
	MimeType string
	Ext      string
	Width    int
	Height   int
	Format   string
}

func (i Info) IsImage() bool {
	return strings.HasPrefix(i.MimeType, "image/")
}

// Source turns the inspected file into an upload source.
func (i Info) Source() domain.UploadSource {
	return domain.SourceFromFile(i.Path, i.Name, i.MimeType, i.Size)
}

// FromPath sniffs the content type of path and, for images, reads the
// dimensions from the header.
func FromPath(path string) (Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !st.Mode().IsRegular() {
		return Info{}, fmt.Errorf("%s: %w", path, ErrNotRegular)
	}

	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("failed to detect type of %s: %w", path, err)
	}

	info := Info{
		Path:     path,
		Name:     filepath.Base(path),
		Size:     st.Size(),
		MimeType: baseType(detected.String()),
		Ext:      detected.Extension(),
	}

	if info.IsImage() {
		if w, h, format, ok := dimensions(path); ok {
			info.Width, info.Height, info.Format = w, h, format
		}
	}
	return info, nil
}

func dimensions(path string) (int, int, string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, "", false
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, "", false
	}
	return cfg.Width, cfg.Height, format, true
}

func baseType(m string) string {
	base, _, _ := strings.Cut(m, ";")
	return strings.TrimSpace(base)
}
