// Package report renders human-readable summaries of normalized asteroids.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/astronuts/neo-data-etl/internal/domain"
	"github.com/astronuts/neo-data-etl/internal/observability"
)

// reportTemplate renders the deterministic text report over the nested view.
// The primary approach is the first stored entry; further entries are
// summarized by count only.
const reportTemplate = `Asteroid {{.Name}} (SPK-ID {{.ID}}) has an absolute magnitude of {{printf "%.2f" .AbsoluteMagnitude}}.
{{- with index .Diameters "kilometers"}}
Its estimated diameter is between {{printf "%.3f" .Min}} and {{printf "%.3f" .Max}} km.
{{- end}}
It is {{if not .Hazardous}}not {{end}}classified as potentially hazardous{{if .Sentry}} and is a Sentry monitored object{{end}}.
{{- with .Approaches}}
{{- $first := index . 0}}
Its closest recorded approach was on {{$first.Date}}, passing {{$first.OrbitingBody}} at {{printf "%.2f" $first.Velocity.KmS}} km/s with a miss distance of {{printf "%.0f" $first.MissDistance.Km}} km ({{printf "%.2f" $first.MissDistance.Lunar}} lunar distances).
{{- if gt (len .) 1}}
{{len .}} close approaches are on record in total.
{{- end}}
{{- else}}
No close approaches are on record.
{{- end}}
`

// Polisher rewrites a rendered report, typically through an LLM.
type Polisher interface {
	Polish(ctx context.Context, text string) (string, error)
}

// Reporter builds text reports from asteroid views. With a nil Polisher the
// deterministic template output is served directly; with one configured, a
// polish failure falls back to the template text.
type Reporter struct {
	tmpl     *template.Template
	polisher Polisher
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewReporter creates a Reporter. Pass a nil polisher to disable LLM polish.
func NewReporter(polisher Polisher, logger *slog.Logger, metrics *observability.Metrics) *Reporter {
	return &Reporter{
		tmpl:     template.Must(template.New("report").Parse(reportTemplate)),
		polisher: polisher,
		logger:   logger,
		metrics:  metrics,
	}
}

// BuildReport renders the report for one asteroid view.
func (r *Reporter) BuildReport(ctx context.Context, view domain.AsteroidView) (string, error) {
	var buf strings.Builder
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render report for %s: %w", view.ID, err)
	}
	text := buf.String()

	if r.polisher == nil {
		r.metrics.SummaryRequests.WithLabelValues("template").Inc()
		return text, nil
	}

	polished, err := r.polisher.Polish(ctx, text)
	if err != nil {
		r.metrics.SummaryRequests.WithLabelValues("llm_fallback").Inc()
		r.logger.Warn("report polish failed, serving template text", "asteroid_id", view.ID, "error", err)
		return text, nil
	}
	r.metrics.SummaryRequests.WithLabelValues("llm").Inc()
	return polished, nil
}
