package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astronuts/neo-data-etl/internal/domain"
	"github.com/astronuts/neo-data-etl/internal/observability"
)

type fakeFetcher struct {
	feed    domain.FeedResponse
	feedErr error
	neo     domain.RawNeo
	neoErr  error
}

func (f *fakeFetcher) FetchFeed(context.Context, time.Time, time.Time) (domain.FeedResponse, error) {
	return f.feed, f.feedErr
}

func (f *fakeFetcher) FetchNeo(context.Context, string) (domain.RawNeo, error) {
	return f.neo, f.neoErr
}

type fakeStore struct {
	saved   [][]domain.NormalizedRecord
	saveErr error
	pingErr error
}

func (s *fakeStore) SaveBatch(_ context.Context, records []domain.NormalizedRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, records)
	return nil
}

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }

type fakeSink struct {
	published [][]domain.AsteroidView
	err       error
}

func (s *fakeSink) PublishBatch(_ context.Context, views []domain.AsteroidView) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, views)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rawNeo(id string) domain.RawNeo {
	min, max := 0.2, 0.4
	return domain.RawNeo{
		ID:   id,
		Name: fmt.Sprintf("(test %s)", id),
		EstimatedDiameter: domain.RawDiameterBlock{
			Kilometers: &domain.RawDiameterRange{Min: &min, Max: &max},
		},
	}
}

func feedWith(neos ...domain.RawNeo) domain.FeedResponse {
	return domain.FeedResponse{
		ElementCount:     len(neos),
		NearEarthObjects: map[string][]domain.RawNeo{"2025-10-01": neos},
	}
}

func window() (time.Time, time.Time) {
	start := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

func TestIngestor_IngestRange(t *testing.T) {
	fetcher := &fakeFetcher{feed: feedWith(rawNeo("2465633"), rawNeo("3542519"))}
	store := &fakeStore{}
	sink := &fakeSink{}
	ing := New(fetcher, store, sink, testLogger(), observability.NewMetricsForTesting())

	start, end := window()
	report, err := ing.IngestRange(context.Background(), start, end)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "2025-10-01", report.StartDate)
	assert.Equal(t, "2025-10-02", report.EndDate)
	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 2, report.Stored)
	assert.Empty(t, report.Skipped)

	require.Len(t, store.saved, 1)
	require.Len(t, store.saved[0], 2)
	assert.Equal(t, "2465633", store.saved[0][0].Asteroid.ID)

	require.Len(t, sink.published, 1)
	require.Len(t, sink.published[0], 2)
	assert.Equal(t, "2465633", sink.published[0][0].ID)
}

func TestIngestor_IngestRange_FetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{feedErr: fmt.Errorf("%w: status 503", domain.ErrUpstream)}
	store := &fakeStore{}
	ing := New(fetcher, store, nil, testLogger(), observability.NewMetricsForTesting())

	start, end := window()
	report, err := ing.IngestRange(context.Background(), start, end)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Zero(t, report.Fetched)
	assert.Empty(t, store.saved)
}

func TestIngestor_IngestRange_StoreFailure(t *testing.T) {
	fetcher := &fakeFetcher{feed: feedWith(rawNeo("2465633"))}
	store := &fakeStore{saveErr: fmt.Errorf("%w: asteroid 2465633: disk full", domain.ErrStoreWrite)}
	sink := &fakeSink{}
	ing := New(fetcher, store, sink, testLogger(), observability.NewMetricsForTesting())

	start, end := window()
	report, err := ing.IngestRange(context.Background(), start, end)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreWrite)
	assert.Zero(t, report.Stored)
	// Nothing committed, so nothing published.
	assert.Empty(t, sink.published)
}

func TestIngestor_IngestRange_SkipsBadRecords(t *testing.T) {
	bad := rawNeo("")
	fetcher := &fakeFetcher{feed: feedWith(rawNeo("2465633"), bad)}
	store := &fakeStore{}
	ing := New(fetcher, store, nil, testLogger(), observability.NewMetricsForTesting())

	start, end := window()
	report, err := ing.IngestRange(context.Background(), start, end)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 1, report.Stored)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, 1, report.Skipped[0].Index)

	require.Len(t, store.saved, 1)
	assert.Len(t, store.saved[0], 1)
}

func TestIngestor_IngestRange_SinkFailureDoesNotFailBatch(t *testing.T) {
	fetcher := &fakeFetcher{feed: feedWith(rawNeo("2465633"))}
	store := &fakeStore{}
	sink := &fakeSink{err: errors.New("broker unreachable")}
	ing := New(fetcher, store, sink, testLogger(), observability.NewMetricsForTesting())

	start, end := window()
	report, err := ing.IngestRange(context.Background(), start, end)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Stored)
	require.Len(t, store.saved, 1)
}

func TestIngestor_IngestRange_EmptyFeed(t *testing.T) {
	fetcher := &fakeFetcher{feed: domain.FeedResponse{}}
	store := &fakeStore{}
	sink := &fakeSink{}
	ing := New(fetcher, store, sink, testLogger(), observability.NewMetricsForTesting())

	start, end := window()
	report, err := ing.IngestRange(context.Background(), start, end)
	require.NoError(t, err)
	assert.Zero(t, report.Fetched)
	assert.Zero(t, report.Stored)
	assert.Empty(t, store.saved)
	assert.Empty(t, sink.published)
}

func TestIngestor_RefreshOne(t *testing.T) {
	fetcher := &fakeFetcher{neo: rawNeo("2465633")}
	store := &fakeStore{}
	ing := New(fetcher, store, nil, testLogger(), observability.NewMetricsForTesting())

	report, err := ing.RefreshOne(context.Background(), "2465633")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Fetched)
	assert.Equal(t, 1, report.Stored)
	require.Len(t, store.saved, 1)
	assert.Equal(t, "2465633", store.saved[0][0].Asteroid.ID)
}

func TestIngestor_RefreshOne_FetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{neoErr: fmt.Errorf("%w: status 404", domain.ErrUpstream)}
	ing := New(fetcher, &fakeStore{}, nil, testLogger(), observability.NewMetricsForTesting())

	_, err := ing.RefreshOne(context.Background(), "0000000")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestIngestor_CheckReadiness(t *testing.T) {
	t.Run("store reachable before first batch", func(t *testing.T) {
		ing := New(&fakeFetcher{}, &fakeStore{}, nil, testLogger(), observability.NewMetricsForTesting())
		assert.NoError(t, ing.CheckReadiness(context.Background()))
	})

	t.Run("store unreachable before first batch", func(t *testing.T) {
		store := &fakeStore{pingErr: errors.New("locked")}
		ing := New(&fakeFetcher{}, store, nil, testLogger(), observability.NewMetricsForTesting())
		assert.Error(t, ing.CheckReadiness(context.Background()))
	})

	t.Run("ready after a successful batch even if ping fails", func(t *testing.T) {
		store := &fakeStore{}
		fetcher := &fakeFetcher{feed: feedWith(rawNeo("2465633"))}
		ing := New(fetcher, store, nil, testLogger(), observability.NewMetricsForTesting())

		start, end := window()
		_, err := ing.IngestRange(context.Background(), start, end)
		require.NoError(t, err)

		store.pingErr = errors.New("locked")
		assert.NoError(t, ing.CheckReadiness(context.Background()))
	})
}
