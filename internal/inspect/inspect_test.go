package inspect

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestFromPathImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pic.bin")
	writePNG(t, path, 32, 16)

	info, err := FromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "pic.bin", info.Name)
	assert.Equal(t, "image/png", info.MimeType)
	assert.Equal(t, ".png", info.Ext)
	assert.True(t, info.IsImage())
	assert.Equal(t, 32, info.Width)
	assert.Equal(t, 16, info.Height)
	assert.Equal(t, "png", info.Format)
}

func TestFromPathText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("just some notes\n"), 0o644))

	info, err := FromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "text/plain", info.MimeType)
	assert.False(t, info.IsImage())
	assert.Zero(t, info.Width)

	src := info.Source()
	assert.Equal(t, "notes.txt", src.Name)
	assert.Equal(t, int64(16), src.Size)
	rc, err := src.Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "just some notes\n", string(data))
}

func TestFromPathPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n%EOF\n"), 0o644))

	info, err := FromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", info.MimeType)
}

func TestFromPathDirectory(t *testing.T) {
	_, err := FromPath(t.TempDir())
	assert.ErrorIs(t, err, ErrNotRegular)
}

func TestFromPathMissing(t *testing.T) {
	_, err := FromPath(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
