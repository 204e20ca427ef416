package domain

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressIsMonotonic(t *testing.T) {
	p := NotStarted()
	assert.Equal(t, 0, p.Value())

	p = p.Advance(InProgress(40))
	assert.Equal(t, 40, p.Value())

	p = p.Advance(InProgress(10))
	assert.Equal(t, 40, p.Value(), "progress must not move backwards")

	p = p.Advance(NotStarted())
	assert.Equal(t, PhaseInProgress, p.Phase)

	p = p.Advance(Failed())
	assert.Equal(t, ProgressFailed, p.Value())

	p = p.Advance(Succeeded())
	assert.Equal(t, ProgressFailed, p.Value(), "terminal state is final")
}

func TestProgressValues(t *testing.T) {
	assert.Equal(t, 100, Succeeded().Value())
	assert.Equal(t, -1, Failed().Value())
	assert.Equal(t, 99, InProgress(150).Value())
	assert.Equal(t, 0, InProgress(-3).Value())
}

func TestAccepted(t *testing.T) {
	for _, m := range []string{"image/png", "image/jpeg", "application/pdf", "text/plain", "text/plain; charset=utf-8"} {
		assert.True(t, Accepted(m), m)
	}
	for _, m := range []string{"", "application/zip", "text/html", "video/mp4"} {
		assert.False(t, Accepted(m), m)
	}
}

func TestSourceFromBytesReopens(t *testing.T) {
	src := SourceFromBytes("a.txt", MimeText, []byte("hello"))
	assert.Equal(t, int64(5), src.Size)

	for i := 0; i < 2; i++ {
		rc, err := src.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, "hello", string(data))
	}
}
