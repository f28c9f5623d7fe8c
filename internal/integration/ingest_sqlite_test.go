package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/astronuts/neo-data-etl/internal/adapter/http"
	"github.com/astronuts/neo-data-etl/internal/adapter/nasa"
	"github.com/astronuts/neo-data-etl/internal/adapter/sqlite"
	"github.com/astronuts/neo-data-etl/internal/domain"
	"github.com/astronuts/neo-data-etl/internal/observability"
	"github.com/astronuts/neo-data-etl/internal/pipeline"
)

// feedFixture is a two-day window with three objects, one of them missing its
// id and therefore skipped during normalization.
const feedFixture = `{
	"element_count": 3,
	"near_earth_objects": {
		"2025-09-02": [
			{
				"id": "2465633",
				"neo_reference_id": "2465633",
				"name": "465633 (2009 JR5)",
				"nasa_jpl_url": "https://ssd.jpl.nasa.gov/tools/sbdb_lookup.html#/?sstr=2465633",
				"absolute_magnitude_h": 20.44,
				"estimated_diameter": {
					"kilometers": {"estimated_diameter_min": 0.2170475943, "estimated_diameter_max": 0.4853331752},
					"meters": {"estimated_diameter_min": 217.0475943071, "estimated_diameter_max": 485.3331752235},
					"miles": {"estimated_diameter_min": 0.1348670807, "estimated_diameter_max": 0.3016106259},
					"feet": {"estimated_diameter_min": 712.0984293066, "estimated_diameter_max": 1592.3004946003}
				},
				"is_potentially_hazardous_asteroid": true,
				"close_approach_data": [{
					"close_approach_date": "2025-09-02",
					"close_approach_date_full": "2025-Sep-02 09:46",
					"epoch_date_close_approach": 1756806360000,
					"relative_velocity": {
						"kilometers_per_second": "18.1279360862",
						"kilometers_per_hour": "65260.5699103704",
						"miles_per_hour": "40550.3802312521"
					},
					"miss_distance": {
						"astronomical": "0.3027469457",
						"lunar": "117.7685618773",
						"kilometers": "45290298.225725659",
						"miles": "28142086.3515817342"
					},
					"orbiting_body": "Earth"
				}],
				"is_sentry_object": false
			},
			{"name": "orphan without id"}
		],
		"2025-09-03": [
			{
				"id": "3542519",
				"name": "(2010 PK9)",
				"absolute_magnitude_h": 21.81,
				"estimated_diameter": {
					"kilometers": {"estimated_diameter_min": 0.1160259082, "estimated_diameter_max": 0.2594418179}
				},
				"is_potentially_hazardous_asteroid": false,
				"close_approach_data": [],
				"is_sentry_object": false
			}
		]
	}
}`

func discardSlog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/feed", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(feedFixture))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestIngestEndToEnd drives the full path with a real database: NeoWs client
// against a fixture server, normalization, atomic store, then reads through
// both the store and the HTTP API.
func TestIngestEndToEnd(t *testing.T) {
	ctx := context.Background()
	logger := discardSlog()
	metrics := observability.NewMetricsForTesting()

	feedSrv := newFeedServer(t)
	client := nasa.NewClient("test-key", feedSrv.URL, 5*time.Second, logger, metrics)

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "neo.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ing := pipeline.New(client, store, nil, logger, metrics)

	start := time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	report, err := ing.IngestRange(ctx, start, end)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Fetched)
	assert.Equal(t, 2, report.Stored)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "record has no id", report.Skipped[0].Reason)

	// The stored projection carries the full nested shape.
	view, err := store.GetAsteroidByID(ctx, "2465633")
	require.NoError(t, err)
	assert.Equal(t, "465633 (2009 JR5)", view.Name)
	assert.True(t, view.Hazardous)
	require.Len(t, view.Diameters, 4)
	assert.InDelta(t, 0.2170475943, view.Diameters[domain.UnitKilometers].Min, 1e-9)
	require.Len(t, view.Approaches, 1)
	assert.Equal(t, "2025-09-02", view.Approaches[0].Date)
	assert.InDelta(t, 18.1279360862, view.Approaches[0].Velocity.KmS, 1e-9)
	assert.InDelta(t, 117.7685618773, view.Approaches[0].MissDistance.Lunar, 1e-9)

	ids, err := store.ListAsteroidIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2465633", "3542519"}, ids)

	// Re-ingesting the same window must not duplicate rows.
	report, err = ing.IngestRange(ctx, start, end)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Stored)

	view, err = store.GetAsteroidByID(ctx, "2465633")
	require.NoError(t, err)
	assert.Len(t, view.Diameters, 4)
	assert.Len(t, view.Approaches, 1)

	// And the API serves the same data.
	srv := httpadapter.NewServer(":0", httpadapter.Deps{
		Ready:    ing,
		Store:    store,
		Ingestor: ing,
		Fetcher:  client,
	}, logger)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/asteroids/2465633", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var apiView domain.AsteroidView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiView))
	assert.Equal(t, view.Name, apiView.Name)
	assert.Len(t, apiView.Approaches, 1)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/ingest?start_date=2025-09-02&end_date=2025-09-03", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var apiReport domain.IngestReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiReport))
	assert.Equal(t, 2, apiReport.Stored)
}
