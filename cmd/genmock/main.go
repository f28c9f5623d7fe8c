// Command genmock writes deterministic NeoWs mock fixtures for the test
// suites: a raw /feed response and the expected normalized records. It uses
// the actual domain package under a fixed clock so the normalized output
// matches real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -feed-out data/mock/neo_feed.json \
//	  -normalized-out data/mock/neo_normalized.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/astronuts/neo-data-etl/internal/domain"
)

// baseDate anchors the generated feed window.
var baseDate = time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)

// fixedIngestTime freezes IngestedAt stamps for reproducible fixtures.
var fixedIngestTime = time.Date(2025, time.October, 3, 6, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	feedOut := flag.String("feed-out", "", "output path for the raw feed JSON fixture")
	normalizedOut := flag.String("normalized-out", "", "output path for the expected normalized JSON fixture")
	days := flag.Int("days", 2, "number of feed days to generate")
	perDay := flag.Int("per-day", 3, "number of objects per day")
	flag.Parse()

	if *feedOut == "" || *normalizedOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -feed-out, -normalized-out")
	}

	domain.SetClock(clockwork.NewFakeClockAt(fixedIngestTime))
	defer domain.SetClock(nil)

	feed := generateFeed(*days, *perDay)
	result := domain.NormalizeFeed(feed)
	if len(result.Skipped) > 0 || len(result.FieldErrors) > 0 {
		return fmt.Errorf("generated feed did not normalize cleanly: %d skipped, %d field errors",
			len(result.Skipped), len(result.FieldErrors))
	}

	if err := writeJSON(*feedOut, feed); err != nil {
		return fmt.Errorf("writing feed fixture: %w", err)
	}
	log.Printf("wrote feed fixture: %s", *feedOut)

	if err := writeJSON(*normalizedOut, result.Records); err != nil {
		return fmt.Errorf("writing normalized fixture: %w", err)
	}
	log.Printf("wrote normalized fixture: %s", *normalizedOut)

	printStats(result.Records)
	return nil
}

// generateFeed builds a synthetic but realistic feed response. Every value
// is a deterministic function of the object's sequence number.
func generateFeed(days, perDay int) domain.FeedResponse {
	feed := domain.FeedResponse{
		NearEarthObjects: make(map[string][]domain.RawNeo, days),
	}

	seq := 0
	for d := 0; d < days; d++ {
		date := baseDate.AddDate(0, 0, d).Format("2006-01-02")
		objects := make([]domain.RawNeo, 0, perDay)
		for n := 0; n < perDay; n++ {
			objects = append(objects, generateNeo(seq))
			seq++
		}
		feed.NearEarthObjects[date] = objects
		feed.ElementCount += perDay
	}
	return feed
}

func generateNeo(seq int) domain.RawNeo {
	id := fmt.Sprintf("3%06d", 400000+seq*17)

	// Diameter in km scales with the sequence number; other units follow
	// from fixed conversion factors so min <= max always holds.
	kmMin := 0.05 + float64(seq)*0.021
	kmMax := kmMin * 2.236

	approachTime := baseDate.AddDate(0, 0, seq%3).Add(time.Duration(seq) * 97 * time.Minute)
	velocityKmS := 8.5 + float64(seq)*1.375
	missKm := 1.2e6 + float64(seq)*3.7e5

	raw := domain.RawNeo{
		ID:                id,
		NeoReferenceID:    id,
		Name:              fmt.Sprintf("(2025 MX%d)", seq+1),
		NasaJplURL:        "https://ssd.jpl.nasa.gov/tools/sbdb_lookup.html#/?sstr=" + id,
		AbsoluteMagnitude: 19.2 + float64(seq)*0.43,
		EstimatedDiameter: domain.RawDiameterBlock{
			Kilometers: diameterRange(kmMin, kmMax),
			Meters:     diameterRange(kmMin*1000, kmMax*1000),
			Miles:      diameterRange(kmMin*0.6213711922, kmMax*0.6213711922),
			Feet:       diameterRange(kmMin*3280.839895, kmMax*3280.839895),
		},
		Hazardous: seq%4 == 0,
		Sentry:    seq%7 == 0,
	}

	// Every second object gets a second approach entry to exercise the
	// multi-event path.
	approaches := 1 + seq%2
	for i := 0; i < approaches; i++ {
		t := approachTime.Add(time.Duration(i) * 45 * 24 * time.Hour)
		v := velocityKmS + float64(i)*2.1
		m := missKm + float64(i)*8.9e5
		raw.CloseApproachData = append(raw.CloseApproachData, domain.RawApproach{
			CloseApproachDate:      t.Format("2006-01-02"),
			CloseApproachDateFull:  t.Format("2006-Jan-02 15:04"),
			EpochDateCloseApproach: t.UnixMilli(),
			RelativeVelocity: domain.RawVelocity{
				KilometersPerSecond: fmt.Sprintf("%.10f", v),
				KilometersPerHour:   fmt.Sprintf("%.10f", v*3600),
				MilesPerHour:        fmt.Sprintf("%.10f", v*2236.936292),
			},
			MissDistance: domain.RawMissDistance{
				Astronomical: fmt.Sprintf("%.10f", m/1.495978707e8),
				Lunar:        fmt.Sprintf("%.10f", m/384400),
				Kilometers:   fmt.Sprintf("%.9f", m),
				Miles:        fmt.Sprintf("%.10f", m*0.6213711922),
			},
			OrbitingBody: "Earth",
		})
	}

	return raw
}

func diameterRange(min, max float64) *domain.RawDiameterRange {
	return &domain.RawDiameterRange{Min: &min, Max: &max}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func printStats(records []domain.NormalizedRecord) {
	var hazardous, diameters, approaches int
	for _, rec := range records {
		if rec.Asteroid.Hazardous {
			hazardous++
		}
		diameters += len(rec.Diameters)
		approaches += len(rec.Approaches)
	}
	log.Printf("stats: %d asteroids (%d hazardous), %d diameter rows, %d approach rows",
		len(records), hazardous, diameters, approaches)
}
