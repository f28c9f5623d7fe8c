package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalizedSample(t *testing.T) NormalizedRecord {
	t.Helper()
	rec, fieldErrs, err := NormalizeRecord(sampleNeo(t))
	require.NoError(t, err)
	require.Empty(t, fieldErrs)
	return rec
}

func TestNormalizedRecord_View(t *testing.T) {
	rec := normalizedSample(t)
	view := rec.View()

	assert.Equal(t, "2465633", view.ID)
	assert.Equal(t, "465633 (2009 JR5)", view.Name)
	assert.True(t, view.Hazardous)
	assert.False(t, view.Sentry)

	require.Len(t, view.Diameters, 4)
	km := view.Diameters[UnitKilometers]
	assert.InEpsilon(t, 0.2170475943, km.Min, 1e-9)
	assert.InEpsilon(t, 0.4853331752, km.Max, 1e-9)

	require.Len(t, view.Approaches, 1)
	expected := ApproachView{
		Date:     "2015-09-08",
		DateFull: "2015-Sep-08 20:28",
		Epoch:    1441744080000,
		Velocity: VelocityView{
			KmS: 18.1279360862,
			KmH: 65260.5699103704,
			Mph: 40550.3802312521,
		},
		MissDistance: MissDistanceView{
			Au:    0.3027469457,
			Lunar: 117.7685618773,
			Km:    45290298.225725659,
			Mi:    28142086.3515817342,
		},
		OrbitingBody: "Earth",
	}
	if diff := cmp.Diff(expected, view.Approaches[0]); diff != "" {
		t.Fatalf("approach view mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizedRecord_View_RetainsAllApproaches(t *testing.T) {
	raw := sampleNeo(t)
	second := raw.CloseApproachData[0]
	second.CloseApproachDate = "2031-01-15"
	raw.CloseApproachData = append(raw.CloseApproachData, second)

	rec, _, err := NormalizeRecord(raw)
	require.NoError(t, err)

	view := rec.View()
	require.Len(t, view.Approaches, 2)
	assert.Equal(t, "2015-09-08", view.Approaches[0].Date)
	assert.Equal(t, "2031-01-15", view.Approaches[1].Date)
}

func TestNormalizedRecord_Summary(t *testing.T) {
	t.Run("flattens the first approach only", func(t *testing.T) {
		raw := sampleNeo(t)
		second := raw.CloseApproachData[0]
		second.CloseApproachDate = "2031-01-15"
		second.RelativeVelocity.KilometersPerSecond = "25.5"
		raw.CloseApproachData = append(raw.CloseApproachData, second)

		rec, _, err := NormalizeRecord(raw)
		require.NoError(t, err)

		s := rec.Summary()
		assert.Equal(t, "2465633", s.ID)
		assert.True(t, s.Hazardous)
		assert.InEpsilon(t, 0.2170475943, s.DiameterKmMin, 1e-9)
		assert.InEpsilon(t, 485.3331752235, s.DiameterMMax, 1e-9)
		assert.InEpsilon(t, 0.3015719604, s.DiameterMiMax, 1e-9)
		assert.InEpsilon(t, 712.0984293066, s.DiameterFtMin, 1e-9)

		require.NotNil(t, s.CloseApproachDate)
		assert.Equal(t, "2015-09-08", *s.CloseApproachDate)
		require.NotNil(t, s.VelocityKmS)
		assert.InEpsilon(t, 18.1279360862, *s.VelocityKmS, 1e-9)
		require.NotNil(t, s.OrbitingBody)
		assert.Equal(t, "Earth", *s.OrbitingBody)
	})

	t.Run("no approaches leaves approach fields unset", func(t *testing.T) {
		raw := sampleNeo(t)
		raw.CloseApproachData = nil

		rec, _, err := NormalizeRecord(raw)
		require.NoError(t, err)

		s := rec.Summary()
		assert.Nil(t, s.CloseApproachDate)
		assert.Nil(t, s.VelocityKmS)
		assert.Nil(t, s.MissKm)
		assert.Nil(t, s.OrbitingBody)
		assert.InEpsilon(t, 0.4853331752, s.DiameterKmMax, 1e-9)
	})
}
