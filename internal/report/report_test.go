package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astronuts/neo-data-etl/internal/domain"
	"github.com/astronuts/neo-data-etl/internal/observability"
)

type fakePolisher struct {
	out     string
	err     error
	gotText string
}

func (f *fakePolisher) Polish(_ context.Context, text string) (string, error) {
	f.gotText = text
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleView() domain.AsteroidView {
	return domain.AsteroidView{
		ID:                "2465633",
		Name:              "465633 (2009 JR5)",
		AbsoluteMagnitude: 20.44,
		Hazardous:         true,
		Diameters: map[string]domain.DiameterRange{
			domain.UnitKilometers: {Min: 0.2170475943, Max: 0.4853331752},
		},
		Approaches: []domain.ApproachView{
			{
				Date:         "2025-09-02",
				OrbitingBody: "Earth",
				Velocity:     domain.VelocityView{KmS: 18.1279360862},
				MissDistance: domain.MissDistanceView{Km: 45290298.2, Lunar: 117.6},
			},
		},
		IngestedAt: time.Date(2025, 10, 3, 6, 0, 0, 0, time.UTC),
	}
}

func TestReporter_TemplateOnly(t *testing.T) {
	r := NewReporter(nil, testLogger(), observability.NewMetricsForTesting())

	text, err := r.BuildReport(context.Background(), sampleView())
	require.NoError(t, err)

	assert.Contains(t, text, "Asteroid 465633 (2009 JR5) (SPK-ID 2465633)")
	assert.Contains(t, text, "absolute magnitude of 20.44")
	assert.Contains(t, text, "between 0.217 and 0.485 km")
	assert.Contains(t, text, "classified as potentially hazardous")
	assert.NotContains(t, text, "not classified")
	assert.Contains(t, text, "2025-09-02")
	assert.Contains(t, text, "passing Earth at 18.13 km/s")
	assert.Contains(t, text, "117.60 lunar distances")
}

func TestReporter_NotHazardousNoApproaches(t *testing.T) {
	r := NewReporter(nil, testLogger(), observability.NewMetricsForTesting())

	view := sampleView()
	view.Hazardous = false
	view.Approaches = nil

	text, err := r.BuildReport(context.Background(), view)
	require.NoError(t, err)
	assert.Contains(t, text, "not classified as potentially hazardous")
	assert.Contains(t, text, "No close approaches are on record")
}

func TestReporter_MultipleApproachesCounted(t *testing.T) {
	r := NewReporter(nil, testLogger(), observability.NewMetricsForTesting())

	view := sampleView()
	view.Approaches = append(view.Approaches, domain.ApproachView{
		Date:         "2057-08-14",
		OrbitingBody: "Earth",
	}, domain.ApproachView{
		Date:         "2088-03-01",
		OrbitingBody: "Earth",
	})

	text, err := r.BuildReport(context.Background(), view)
	require.NoError(t, err)
	// The first stored approach stays primary; later ones are only counted.
	assert.Contains(t, text, "2025-09-02")
	assert.NotContains(t, text, "2057-08-14")
	assert.Contains(t, text, "3 close approaches are on record")
}

func TestReporter_PolishedOutputWins(t *testing.T) {
	polisher := &fakePolisher{out: "A quarter-kilometer rock passed by in September 2025."}
	r := NewReporter(polisher, testLogger(), observability.NewMetricsForTesting())

	text, err := r.BuildReport(context.Background(), sampleView())
	require.NoError(t, err)
	assert.Equal(t, polisher.out, text)
	assert.Contains(t, polisher.gotText, "SPK-ID 2465633")
}

func TestReporter_PolishFailureFallsBackToTemplate(t *testing.T) {
	polisher := &fakePolisher{err: errors.New("model overloaded")}
	r := NewReporter(polisher, testLogger(), observability.NewMetricsForTesting())

	text, err := r.BuildReport(context.Background(), sampleView())
	require.NoError(t, err)
	assert.Contains(t, text, "Asteroid 465633 (2009 JR5)")
}
