package catalog_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"filedeck/internal/domain"
	"filedeck/internal/http-client/files"
	"filedeck/internal/testutil"
	"filedeck/internal/usecase/catalog"
	"filedeck/internal/usecase/selection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	backend   *testutil.Backend
	tracker   *selection.Tracker
	confirm   *testutil.Confirmer
	publisher *testutil.Publisher
	catalog   *catalog.Catalog
}

func newFixture(t *testing.T, answer bool) *fixture {
	t.Helper()

	f := &fixture{
		backend:   testutil.NewBackend(t),
		tracker:   selection.NewTracker(),
		confirm:   testutil.NewConfirmer(answer),
		publisher: &testutil.Publisher{},
	}
	client := files.NewClient(f.backend.URL(), 0, testutil.Logger())
	f.catalog = catalog.NewCatalog(client, f.tracker, f.confirm, f.publisher, &sync.Mutex{}, testutil.Logger())
	return f
}

func ids(records []domain.FileRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestFetchAll(t *testing.T) {
	f := newFixture(t, true)
	a := f.backend.AddFile("a.png", "image/png", []byte("a"))
	b := f.backend.AddFile("b.pdf", "application/pdf", []byte("b"))

	res := f.catalog.FetchAll(context.Background())

	require.NoError(t, res.Err)
	assert.False(t, res.Retryable)
	assert.Equal(t, []string{a.ID, b.ID}, ids(res.Files))
	assert.Equal(t, []string{a.ID, b.ID}, f.tracker.Catalog())

	found, ok := f.catalog.Find(b.ID)
	require.True(t, ok)
	assert.Equal(t, "b.pdf", found.OriginalFilename)
}

func TestFetchAllFailureIsRetryableAndEmpty(t *testing.T) {
	f := newFixture(t, true)
	a := f.backend.AddFile("a.png", "image/png", []byte("a"))
	f.catalog.FetchAll(context.Background())
	f.tracker.Toggle(a.ID)

	f.backend.FailRoute("GET /api/files", testutil.FailHTML)
	res := f.catalog.FetchAll(context.Background())

	require.Error(t, res.Err)
	assert.True(t, res.Retryable)
	assert.Empty(t, res.Files)
	assert.Equal(t, "Failed to fetch files. Make sure the backend API is running.", res.Status)
	assert.Empty(t, f.catalog.Snapshot())
	assert.Zero(t, f.tracker.Len())
	assert.Error(t, f.catalog.Err())
}

func TestDeleteOneConfirmed(t *testing.T) {
	f := newFixture(t, true)
	a := f.backend.AddFile("a.png", "image/png", []byte("a"))
	b := f.backend.AddFile("b.png", "image/png", []byte("b"))
	f.catalog.FetchAll(context.Background())
	f.tracker.Toggle(a.ID)
	f.tracker.Toggle(b.ID)

	out := f.catalog.DeleteOne(context.Background(), a.ID)

	require.NoError(t, out.Err)
	assert.True(t, out.Confirmed)
	assert.True(t, out.OK)
	assert.Equal(t, []string{"Are you sure you want to delete this file?"}, f.confirm.Prompts())
	assert.Equal(t, []string{b.ID}, ids(f.catalog.Snapshot()))
	assert.Equal(t, []string{b.ID}, f.tracker.IDs())

	events := f.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.ActivityDeleted, events[0].Kind)
	assert.True(t, events[0].OK)
	assert.NotEmpty(t, events[0].ID)
}

func TestDeleteOneDeclinedSendsNothing(t *testing.T) {
	f := newFixture(t, false)
	a := f.backend.AddFile("a.png", "image/png", []byte("a"))
	f.catalog.FetchAll(context.Background())
	before := f.backend.TotalHits()

	out := f.catalog.DeleteOne(context.Background(), a.ID)

	assert.ErrorIs(t, out.Err, domain.ErrDeclined)
	assert.False(t, out.Confirmed)
	assert.Equal(t, before, f.backend.TotalHits())
	assert.Len(t, f.backend.Files(), 1)
	assert.Empty(t, f.publisher.Events())
}

func TestDeleteOneFailureLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, true)
	a := f.backend.AddFile("a.png", "image/png", []byte("a"))
	f.catalog.FetchAll(context.Background())
	f.tracker.Toggle(a.ID)
	f.backend.FailRoute("DELETE /api/files/{id}", testutil.FailHTTP)

	out := f.catalog.DeleteOne(context.Background(), a.ID)

	require.Error(t, out.Err)
	assert.True(t, out.Confirmed)
	assert.False(t, out.OK)
	assert.Equal(t, testutil.FailureMessage, out.Status)
	assert.Equal(t, []string{a.ID}, ids(f.catalog.Snapshot()))
	assert.Equal(t, []string{a.ID}, f.tracker.IDs())
	assert.Equal(t, 1, f.backend.Hits("GET /api/files"))
}

func TestBatchDeleteSelection(t *testing.T) {
	f := newFixture(t, true)
	a := f.backend.AddFile("a.png", "image/png", []byte("a"))
	b := f.backend.AddFile("b.png", "image/png", []byte("b"))
	c := f.backend.AddFile("c.png", "image/png", []byte("c"))
	f.catalog.FetchAll(context.Background())
	f.tracker.Toggle(a.ID)
	f.tracker.Toggle(c.ID)

	out := f.catalog.DeleteSelected(context.Background())

	require.NoError(t, out.Err)
	assert.True(t, out.OK)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, "Deleted 2 file(s)", out.Status)
	assert.Equal(t, []string{"Are you sure you want to delete 2 file(s)?"}, f.confirm.Prompts())
	assert.Zero(t, f.tracker.Len())
	assert.Equal(t, []string{b.ID}, ids(f.catalog.Snapshot()))
}

func TestBatchDeleteEmptyIsNoop(t *testing.T) {
	f := newFixture(t, true)

	out := f.catalog.BatchDelete(context.Background(), nil)

	assert.ErrorIs(t, out.Err, domain.ErrEmptySelection)
	var verr *domain.ValidationError
	assert.True(t, errors.As(out.Err, &verr))
	assert.Empty(t, f.confirm.Prompts())
	assert.Zero(t, f.backend.TotalHits())
}

func TestBatchDeleteDedupes(t *testing.T) {
	f := newFixture(t, true)
	a := f.backend.AddFile("a.png", "image/png", []byte("a"))
	f.catalog.FetchAll(context.Background())

	out := f.catalog.BatchDelete(context.Background(), []string{a.ID, a.ID, ""})

	require.NoError(t, out.Err)
	assert.Equal(t, 1, out.Count)
	assert.JSONEq(t, `{"ids":["`+a.ID+`"]}`, string(f.backend.LastBody("POST /api/files/batch/delete")))
}

func TestBatchDeleteFailureKeepsSelection(t *testing.T) {
	f := newFixture(t, true)
	a := f.backend.AddFile("a.png", "image/png", []byte("a"))
	b := f.backend.AddFile("b.png", "image/png", []byte("b"))
	f.catalog.FetchAll(context.Background())
	f.tracker.ToggleAll()
	f.backend.FailRoute("POST /api/files/batch/delete", testutil.FailDrop)

	out := f.catalog.DeleteSelected(context.Background())

	var transportErr *domain.TransportError
	require.ErrorAs(t, out.Err, &transportErr)
	assert.Contains(t, out.Status, "Failed to delete files: ")
	assert.Equal(t, []string{a.ID, b.ID}, f.tracker.IDs())
	assert.Len(t, f.catalog.Snapshot(), 2)

	events := f.publisher.Events()
	require.Len(t, events, 1)
	assert.False(t, events[0].OK)
}

func TestSelectionStaysWithinCatalogAfterExternalDelete(t *testing.T) {
	f := newFixture(t, true)
	a := f.backend.AddFile("a.png", "image/png", []byte("a"))
	b := f.backend.AddFile("b.png", "image/png", []byte("b"))
	f.catalog.FetchAll(context.Background())
	f.tracker.ToggleAll()

	client := files.NewClient(f.backend.URL(), 0, testutil.Logger())
	require.NoError(t, client.Delete(context.Background(), a.ID))
	f.catalog.FetchAll(context.Background())

	assert.Equal(t, []string{b.ID}, f.tracker.IDs())
	for _, id := range f.tracker.IDs() {
		_, ok := f.catalog.Find(id)
		assert.True(t, ok)
	}
}
