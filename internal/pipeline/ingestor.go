// Package pipeline orchestrates the fetch-normalize-store ingest flow.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/astronuts/neo-data-etl/internal/domain"
	"github.com/astronuts/neo-data-etl/internal/observability"
)

// Fetcher supplies raw records from the remote catalog.
type Fetcher interface {
	FetchFeed(ctx context.Context, start, end time.Time) (domain.FeedResponse, error)
	FetchNeo(ctx context.Context, id string) (domain.RawNeo, error)
}

// Store persists one normalized batch atomically.
type Store interface {
	SaveBatch(ctx context.Context, records []domain.NormalizedRecord) error
	Ping(ctx context.Context) error
}

// EventSink receives the stored views after a successful batch. Publishing
// is best-effort: a sink failure never rolls the batch back.
type EventSink interface {
	PublishBatch(ctx context.Context, views []domain.AsteroidView) error
}

// Ingestor runs synchronous ingest operations: fetch a window (or a single
// object), normalize, store atomically, then publish to the optional sink.
type Ingestor struct {
	fetcher Fetcher
	store   Store
	sink    EventSink
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates an Ingestor. Pass a nil sink to disable publishing.
func New(f Fetcher, s Store, sink EventSink, logger *slog.Logger, metrics *observability.Metrics) *Ingestor {
	return &Ingestor{
		fetcher: f,
		store:   s,
		sink:    sink,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once at least one batch has been ingested, or
// while the store is reachable for read-only serving.
func (i *Ingestor) CheckReadiness(ctx context.Context) error {
	if i.ready.Load() {
		return nil
	}
	if err := i.store.Ping(ctx); err != nil {
		return fmt.Errorf("store not reachable: %w", err)
	}
	return nil
}

// IngestRange fetches the feed for [start, end], normalizes every record,
// and stores the batch in one transaction. The report carries both the
// stored count and the skipped list with reasons.
func (i *Ingestor) IngestRange(ctx context.Context, start, end time.Time) (domain.IngestReport, error) {
	report := domain.IngestReport{
		RunID:     uuid.NewString(),
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
	}

	i.metrics.IngestInFlight.Set(1)
	defer i.metrics.IngestInFlight.Set(0)
	began := time.Now()

	feed, err := i.fetcher.FetchFeed(ctx, start, end)
	if err != nil {
		i.metrics.IngestRuns.WithLabelValues("fetch_error").Inc()
		return report, fmt.Errorf("fetch feed %s..%s: %w", report.StartDate, report.EndDate, err)
	}

	raws := domain.FlattenFeed(feed)
	return i.finishBatch(ctx, report, raws, began)
}

// RefreshOne re-fetches a single object by id and stores it, replacing the
// prior row and its children.
func (i *Ingestor) RefreshOne(ctx context.Context, id string) (domain.IngestReport, error) {
	report := domain.IngestReport{RunID: uuid.NewString()}

	i.metrics.IngestInFlight.Set(1)
	defer i.metrics.IngestInFlight.Set(0)
	began := time.Now()

	raw, err := i.fetcher.FetchNeo(ctx, id)
	if err != nil {
		i.metrics.IngestRuns.WithLabelValues("fetch_error").Inc()
		return report, fmt.Errorf("fetch neo %s: %w", id, err)
	}

	return i.finishBatch(ctx, report, []domain.RawNeo{raw}, began)
}

func (i *Ingestor) finishBatch(ctx context.Context, report domain.IngestReport, raws []domain.RawNeo, began time.Time) (domain.IngestReport, error) {
	report.Fetched = len(raws)
	i.metrics.RecordsFetched.Add(float64(len(raws)))
	i.metrics.BatchSize.Observe(float64(len(raws)))

	result := domain.NormalizeAll(raws)
	report.Skipped = result.Skipped
	report.FieldErrors = result.FieldErrors
	i.metrics.RecordsSkipped.Add(float64(len(result.Skipped)))
	i.metrics.FieldErrors.Add(float64(len(result.FieldErrors)))

	for _, s := range result.Skipped {
		i.logger.Warn("record skipped", "run_id", report.RunID, "index", s.Index, "asteroid_id", s.AsteroidID, "reason", s.Reason)
	}
	for _, fe := range result.FieldErrors {
		i.logger.Warn("field error", "run_id", report.RunID, "asteroid_id", fe.AsteroidID, "field", fe.Field, "reason", fe.Reason)
	}

	if len(result.Records) > 0 {
		if err := i.store.SaveBatch(ctx, result.Records); err != nil {
			i.metrics.IngestRuns.WithLabelValues("store_error").Inc()
			return report, err
		}
	}

	report.Stored = len(result.Records)
	report.DurationMS = time.Since(began).Milliseconds()
	i.metrics.RecordsStored.Add(float64(report.Stored))
	i.metrics.IngestDuration.Observe(time.Since(began).Seconds())
	i.metrics.IngestRuns.WithLabelValues("success").Inc()
	i.ready.Store(true)

	i.publish(ctx, report.RunID, result.Records)

	i.logger.Info("ingest complete",
		"run_id", report.RunID,
		"fetched", report.Fetched,
		"stored", report.Stored,
		"skipped", len(report.Skipped),
		"field_errors", len(report.FieldErrors),
		"duration_ms", report.DurationMS,
	)
	return report, nil
}

// publish sends the stored views to the sink if one is configured. Failures
// are logged and counted; the batch is already committed.
func (i *Ingestor) publish(ctx context.Context, runID string, records []domain.NormalizedRecord) {
	if i.sink == nil || len(records) == 0 {
		return
	}

	views := make([]domain.AsteroidView, len(records))
	for idx, rec := range records {
		views[idx] = rec.View()
	}

	if err := i.sink.PublishBatch(ctx, views); err != nil {
		i.metrics.SinkErrors.Inc()
		i.logger.Warn("sink publish failed", "run_id", runID, "views", len(views), "error", err)
		return
	}
	i.metrics.SinkMessages.Add(float64(len(views)))
}
