package disk

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"filedeck/internal/domain"
	"filedeck/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveDoesNotOverwrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink, err := NewSink(dir, testutil.Logger())
	require.NoError(t, err)
	ctx := context.Background()

	first, err := sink.Save(ctx, "photo.jpeg", &domain.Blob{Data: []byte("one")})
	require.NoError(t, err)
	second, err := sink.Save(ctx, "photo.jpeg", &domain.Blob{Data: []byte("two")})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "photo.jpeg"), first)
	assert.Equal(t, filepath.Join(dir, "photo (1).jpeg"), second)

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
	data, err = os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestSaveStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewSink(dir, testutil.Logger())
	require.NoError(t, err)

	path, err := sink.Save(context.Background(), "../../etc/passwd", &domain.Blob{Data: []byte("x")})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "passwd"), path)
}

func TestSaveCancelled(t *testing.T) {
	sink, err := NewSink(t.TempDir(), testutil.Logger())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = sink.Save(ctx, "a.txt", &domain.Blob{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "download", sanitize(""))
	assert.Equal(t, "download", sanitize("/"))
	assert.Equal(t, "b.png", sanitize(`a\b.png`))
}
