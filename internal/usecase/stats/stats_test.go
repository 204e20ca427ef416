package stats_test

import (
	"context"
	"testing"

	"filedeck/internal/http-client/files"
	"filedeck/internal/testutil"
	"filedeck/internal/usecase/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAggregator(t *testing.T) (*stats.Aggregator, *testutil.Backend) {
	t.Helper()
	backend := testutil.NewBackend(t)
	client := files.NewClient(backend.URL(), 0, testutil.Logger())
	return stats.NewAggregator(client, testutil.Logger()), backend
}

func TestFetchSummaryCoercesStrings(t *testing.T) {
	agg, backend := newAggregator(t)
	backend.SetSummary(`{"total_files":"3","total_size":"4096","image_count":"2","pdf_count":"1","avg_file_size":"1365.3333","max_file_size":"2048"}`)

	summary := agg.FetchSummary(context.Background())

	assert.Equal(t, int64(3), summary.TotalFiles.Int64())
	assert.Equal(t, int64(4096), summary.TotalSize.Int64())
	assert.Equal(t, int64(2), summary.ImageCount.Int64())
	assert.Equal(t, int64(1), summary.PDFCount.Int64())
	assert.Equal(t, int64(1365), summary.AvgFileSize.Int64())
	assert.Equal(t, int64(2048), summary.MaxFileSize.Int64())
}

func TestFetchSummaryNullsAreZero(t *testing.T) {
	agg, backend := newAggregator(t)
	backend.SetSummary(`{"total_files":"0","total_size":null,"image_count":0,"pdf_count":"0","avg_file_size":null,"max_file_size":null}`)

	summary := agg.FetchSummary(context.Background())

	assert.Zero(t, summary.TotalSize.Int64())
	assert.Zero(t, summary.AvgFileSize.Int64())
}

func TestFetchSummaryFailureDefaultsToZero(t *testing.T) {
	agg, backend := newAggregator(t)
	backend.FailRoute("GET /api/files/stats/summary", testutil.FailHTML)

	summary := agg.FetchSummary(context.Background())

	assert.Zero(t, summary.TotalFiles.Int64())
	assert.Zero(t, summary.TotalSize.Int64())
}

func TestFetchDuplicatesFailureIsEmpty(t *testing.T) {
	agg, backend := newAggregator(t)
	backend.FailRoute("GET /api/files/duplicates", testutil.FailHTTP)

	groups := agg.FetchDuplicates(context.Background())

	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestRefresh(t *testing.T) {
	agg, backend := newAggregator(t)
	backend.AddFile("a.png", "image/png", []byte("xx"))
	backend.AddFile("a.png", "image/png", []byte("xx"))
	backend.AddFile("b.pdf", "application/pdf", []byte("yyyy"))

	view := agg.Refresh(context.Background())

	assert.Equal(t, int64(3), view.Summary.TotalFiles.Int64())
	assert.Equal(t, int64(8), view.Summary.TotalSize.Int64())
	require.Len(t, view.Duplicates, 1)
	assert.Equal(t, "a.png", view.Duplicates[0].OriginalFilename)
	assert.Equal(t, int64(2), view.Duplicates[0].DuplicateCount.Int64())

	assert.Equal(t, view, agg.Last())
	assert.Equal(t, 1, backend.Hits("GET /api/files/stats/summary"))
	assert.Equal(t, 1, backend.Hits("GET /api/files/duplicates"))
}
