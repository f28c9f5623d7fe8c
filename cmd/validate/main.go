// Command validate performs data integrity checks across the mock fixtures:
// the raw feed JSON and the expected normalized JSON. It verifies record
// counts, normalization correctness, projection consistency, and ordering.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -feed data/mock/neo_feed.json \
//	  -normalized data/mock/neo_normalized.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/astronuts/neo-data-etl/internal/domain"
)

// fixedIngestTime matches genmock so re-normalizing reproduces IngestedAt.
var fixedIngestTime = time.Date(2025, time.October, 3, 6, 0, 0, 0, time.UTC)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	feedPath := flag.String("feed", "", "path to the raw feed JSON fixture")
	normalizedPath := flag.String("normalized", "", "path to the expected normalized JSON fixture")
	flag.Parse()

	if *feedPath == "" || *normalizedPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*feedPath, *normalizedPath); code != 0 {
		os.Exit(code)
	}
}

func run(feedPath, normalizedPath string) int {
	domain.SetClock(clockwork.NewFakeClockAt(fixedIngestTime))
	defer domain.SetClock(nil)

	fmt.Println("=== NEO Fixture Integrity Validation ===")
	fmt.Println()

	feed, err := loadJSON[domain.FeedResponse](feedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load feed JSON: %v\n", err)
		return 1
	}

	expected, err := loadJSON[[]domain.NormalizedRecord](normalizedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load normalized JSON: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateFeedIntegrity(feed),
		validateNormalizationParity(feed, expected),
		validateProjectionConsistency(expected),
		validateOrdering(feed, expected),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = "FAIL"
			allPassed = false
		}
		fmt.Printf("[%s] %s\n", status, p.name)
		for _, e := range p.errors {
			fmt.Printf("       - %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	fmt.Println()
	fmt.Println("All phases passed.")
	return 0
}

// ── Phase 1: Feed Integrity ──

func validateFeedIntegrity(feed domain.FeedResponse) *phase {
	p := &phase{name: "Phase 1: Feed Integrity (raw fixture)"}

	seen := map[string]bool{}
	total := 0
	for date, objects := range feed.NearEarthObjects {
		for i, raw := range objects {
			total++
			if raw.ID == "" {
				p.errorf("%s[%d]: missing id", date, i)
				continue
			}
			if seen[raw.ID] {
				p.errorf("duplicate id %s", raw.ID)
			}
			seen[raw.ID] = true

			checkDiameterBlock(p, raw)
			checkApproachNumerics(p, raw)
		}
	}

	if feed.ElementCount != 0 && feed.ElementCount != total {
		p.errorf("element_count %d does not match %d objects", feed.ElementCount, total)
	}
	return p
}

func checkDiameterBlock(p *phase, raw domain.RawNeo) {
	for unit, r := range map[string]*domain.RawDiameterRange{
		domain.UnitKilometers: raw.EstimatedDiameter.Kilometers,
		domain.UnitMeters:     raw.EstimatedDiameter.Meters,
		domain.UnitMiles:      raw.EstimatedDiameter.Miles,
		domain.UnitFeet:       raw.EstimatedDiameter.Feet,
	} {
		if r == nil {
			continue
		}
		if r.Min == nil || r.Max == nil {
			p.errorf("%s: %s diameter range incomplete", raw.ID, unit)
			continue
		}
		if *r.Min > *r.Max {
			p.errorf("%s: %s diameter min %g > max %g", raw.ID, unit, *r.Min, *r.Max)
		}
	}
}

func checkApproachNumerics(p *phase, raw domain.RawNeo) {
	for i, a := range raw.CloseApproachData {
		for field, v := range map[string]string{
			"velocity km/s":    a.RelativeVelocity.KilometersPerSecond,
			"velocity km/h":    a.RelativeVelocity.KilometersPerHour,
			"velocity mph":     a.RelativeVelocity.MilesPerHour,
			"miss distance au": a.MissDistance.Astronomical,
			"miss distance km": a.MissDistance.Kilometers,
		} {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				p.errorf("%s approach[%d]: %s %q not numeric", raw.ID, i, field, v)
			}
		}
	}
}

// ── Phase 2: Normalization Parity ──

// validateNormalizationParity re-normalizes the feed under the fixed clock
// and compares against the expected fixture.
func validateNormalizationParity(feed domain.FeedResponse, expected []domain.NormalizedRecord) *phase {
	p := &phase{name: "Phase 2: Normalization Parity (re-run vs fixture)"}

	result := domain.NormalizeFeed(feed)
	if len(result.Skipped) > 0 {
		p.errorf("%d records skipped on re-normalization", len(result.Skipped))
	}
	if len(result.FieldErrors) > 0 {
		p.errorf("%d field errors on re-normalization", len(result.FieldErrors))
	}
	if len(result.Records) != len(expected) {
		p.errorf("record count mismatch: re-run %d, fixture %d", len(result.Records), len(expected))
		return p
	}

	for i, got := range result.Records {
		want := expected[i]
		if got.Asteroid.ID != want.Asteroid.ID {
			p.errorf("record %d: id %s != fixture %s", i, got.Asteroid.ID, want.Asteroid.ID)
			continue
		}
		compareRecords(p, got, want)
	}
	return p
}

func compareRecords(p *phase, got, want domain.NormalizedRecord) {
	id := want.Asteroid.ID
	if got.Asteroid.Hazardous != want.Asteroid.Hazardous {
		p.errorf("%s: hazardous flag mismatch", id)
	}
	if !floatEq(got.Asteroid.AbsoluteMagnitude, want.Asteroid.AbsoluteMagnitude) {
		p.errorf("%s: magnitude %g != %g", id, got.Asteroid.AbsoluteMagnitude, want.Asteroid.AbsoluteMagnitude)
	}
	if len(got.Diameters) != len(want.Diameters) {
		p.errorf("%s: %d diameter rows != %d", id, len(got.Diameters), len(want.Diameters))
	}
	if len(got.Approaches) != len(want.Approaches) {
		p.errorf("%s: %d approach rows != %d", id, len(got.Approaches), len(want.Approaches))
		return
	}
	for i := range got.Approaches {
		if !floatEq(got.Approaches[i].VelocityKmS, want.Approaches[i].VelocityKmS) {
			p.errorf("%s approach[%d]: velocity %g != %g", id, i,
				got.Approaches[i].VelocityKmS, want.Approaches[i].VelocityKmS)
		}
	}
}

// ── Phase 3: Projection Consistency ──

// validateProjectionConsistency checks that the nested view and the flat
// summary agree with the relational rows they are derived from.
func validateProjectionConsistency(records []domain.NormalizedRecord) *phase {
	p := &phase{name: "Phase 3: Projection Consistency (view vs summary)"}

	for _, rec := range records {
		id := rec.Asteroid.ID
		view := rec.View()
		summary := rec.Summary()

		if len(view.Diameters) != len(rec.Diameters) {
			p.errorf("%s: view has %d diameter units, rows have %d", id, len(view.Diameters), len(rec.Diameters))
		}
		if len(view.Approaches) != len(rec.Approaches) {
			p.errorf("%s: view has %d approaches, rows have %d", id, len(view.Approaches), len(rec.Approaches))
		}

		if km, ok := view.Diameters[domain.UnitKilometers]; ok {
			if !floatEq(km.Min, summary.DiameterKmMin) || !floatEq(km.Max, summary.DiameterKmMax) {
				p.errorf("%s: km diameter differs between view and summary", id)
			}
		}

		if len(rec.Approaches) == 0 {
			if summary.CloseApproachDate != nil {
				p.errorf("%s: summary has approach fields but no approach rows exist", id)
			}
			continue
		}
		if summary.VelocityKmS == nil {
			p.errorf("%s: summary missing first-approach velocity", id)
			continue
		}
		if !floatEq(*summary.VelocityKmS, rec.Approaches[0].VelocityKmS) {
			p.errorf("%s: summary velocity %g != first approach %g", id,
				*summary.VelocityKmS, rec.Approaches[0].VelocityKmS)
		}
	}
	return p
}

// ── Phase 4: Ordering & Keys ──

func validateOrdering(feed domain.FeedResponse, records []domain.NormalizedRecord) *phase {
	p := &phase{name: "Phase 4: Ordering & Keys (source order preserved)"}

	flat := domain.FlattenFeed(feed)
	if len(flat) != len(records) {
		p.errorf("flattened feed has %d objects, fixture %d records", len(flat), len(records))
		return p
	}

	validUnits := map[string]bool{
		domain.UnitKilometers: true,
		domain.UnitMeters:     true,
		domain.UnitMiles:      true,
		domain.UnitFeet:       true,
	}

	for i, rec := range records {
		if flat[i].ID != rec.Asteroid.ID {
			p.errorf("position %d: feed id %s, fixture id %s", i, flat[i].ID, rec.Asteroid.ID)
		}
		for _, d := range rec.Diameters {
			if !validUnits[d.Unit] {
				p.errorf("%s: unknown diameter unit %q", rec.Asteroid.ID, d.Unit)
			}
		}
		for j, a := range rec.Approaches {
			if j < len(flat[i].CloseApproachData) && a.Date != flat[i].CloseApproachData[j].CloseApproachDate {
				p.errorf("%s approach[%d]: date %s out of source order", rec.Asteroid.ID, j, a.Date)
			}
		}
	}
	return p
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func loadJSON[T any](path string) (T, error) {
	var v T
	data, err := os.ReadFile(path)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, err
	}
	return v, nil
}
