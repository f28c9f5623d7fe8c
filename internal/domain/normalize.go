package domain

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// NormalizeRecord decomposes one raw object into an asteroid row plus child
// rows. Field extraction is total: every optional field falls back to its
// zero value, and the only condition that rejects the whole record is a
// missing identifier. Incomplete diameter units and unparsable approach
// entries are skipped individually and reported as field errors.
func NormalizeRecord(raw RawNeo) (NormalizedRecord, []FieldError, error) {
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return NormalizedRecord{}, nil, ErrMissingID
	}

	rec := NormalizedRecord{
		Asteroid: Asteroid{
			ID:                id,
			NeoReferenceID:    raw.NeoReferenceID,
			Name:              raw.Name,
			NasaJplURL:        raw.NasaJplURL,
			AbsoluteMagnitude: raw.AbsoluteMagnitude,
			Hazardous:         raw.Hazardous,
			Sentry:            raw.Sentry,
			IngestedAt:        clock.Now().UTC(),
		},
	}

	var fieldErrs []FieldError

	for _, u := range []struct {
		unit  string
		block *RawDiameterRange
	}{
		{UnitKilometers, raw.EstimatedDiameter.Kilometers},
		{UnitMeters, raw.EstimatedDiameter.Meters},
		{UnitMiles, raw.EstimatedDiameter.Miles},
		{UnitFeet, raw.EstimatedDiameter.Feet},
	} {
		if u.block == nil {
			continue
		}
		row, err := normalizeDiameter(id, u.unit, u.block)
		if err != nil {
			fieldErrs = append(fieldErrs, FieldError{
				AsteroidID: id,
				Field:      "estimated_diameter." + u.unit,
				Reason:     err.Error(),
			})
			continue
		}
		rec.Diameters = append(rec.Diameters, row)
	}

	for i, approach := range raw.CloseApproachData {
		row, err := normalizeApproach(id, approach)
		if err != nil {
			fieldErrs = append(fieldErrs, FieldError{
				AsteroidID: id,
				Field:      fmt.Sprintf("close_approach_data[%d].%s", i, err.field),
				Reason:     err.reason,
			})
			continue
		}
		rec.Approaches = append(rec.Approaches, row)
	}

	return rec, fieldErrs, nil
}

// normalizeDiameter validates one unit block. A block missing either bound,
// or with an inverted range, is rejected so the invariant min <= max holds
// for every stored row.
func normalizeDiameter(id, unit string, r *RawDiameterRange) (DiameterEstimate, error) {
	if r.Min == nil || r.Max == nil {
		return DiameterEstimate{}, errors.New("incomplete diameter range")
	}
	if *r.Min > *r.Max {
		return DiameterEstimate{}, fmt.Errorf("diameter min %g exceeds max %g", *r.Min, *r.Max)
	}
	return DiameterEstimate{AsteroidID: id, Unit: unit, Min: *r.Min, Max: *r.Max}, nil
}

// approachFieldError pinpoints which string value inside an approach entry
// failed to parse.
type approachFieldError struct {
	field  string
	reason string
}

func (e *approachFieldError) Error() string {
	return e.field + ": " + e.reason
}

// normalizeApproach parses one close-approach entry. All seven numeric
// values must parse; a single failure rejects the entry, not the record.
func normalizeApproach(id string, a RawApproach) (CloseApproach, *approachFieldError) {
	row := CloseApproach{
		AsteroidID:   id,
		Date:         a.CloseApproachDate,
		DateFull:     a.CloseApproachDateFull,
		Epoch:        a.EpochDateCloseApproach,
		OrbitingBody: a.OrbitingBody,
	}

	for _, f := range []struct {
		name string
		src  string
		dst  *float64
	}{
		{"relative_velocity.kilometers_per_second", a.RelativeVelocity.KilometersPerSecond, &row.VelocityKmS},
		{"relative_velocity.kilometers_per_hour", a.RelativeVelocity.KilometersPerHour, &row.VelocityKmH},
		{"relative_velocity.miles_per_hour", a.RelativeVelocity.MilesPerHour, &row.VelocityMph},
		{"miss_distance.astronomical", a.MissDistance.Astronomical, &row.MissAu},
		{"miss_distance.lunar", a.MissDistance.Lunar, &row.MissLunar},
		{"miss_distance.kilometers", a.MissDistance.Kilometers, &row.MissKm},
		{"miss_distance.miles", a.MissDistance.Miles, &row.MissMi},
	} {
		v, err := strconv.ParseFloat(strings.TrimSpace(f.src), 64)
		if err != nil {
			return CloseApproach{}, &approachFieldError{
				field:  f.name,
				reason: fmt.Sprintf("unparsable numeric %q", f.src),
			}
		}
		*f.dst = v
	}

	return row, nil
}

// FlattenFeed collapses a date-keyed feed into a single ordered slice:
// ascending date order, then source list order within each date.
func FlattenFeed(feed FeedResponse) []RawNeo {
	dates := make([]string, 0, len(feed.NearEarthObjects))
	for date := range feed.NearEarthObjects {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	var all []RawNeo
	for _, date := range dates {
		all = append(all, feed.NearEarthObjects[date]...)
	}
	return all
}

// NormalizeAll applies NormalizeRecord across a batch. A record that fails
// outright becomes a skipped-with-reason entry; field-level errors from
// surviving records are aggregated alongside.
func NormalizeAll(raws []RawNeo) BatchResult {
	var result BatchResult
	for i, raw := range raws {
		rec, fieldErrs, err := NormalizeRecord(raw)
		result.FieldErrors = append(result.FieldErrors, fieldErrs...)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedRecord{
				Index:      i,
				AsteroidID: raw.ID,
				Reason:     err.Error(),
			})
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result
}

// NormalizeFeed flattens and normalizes a feed response in one step.
func NormalizeFeed(feed FeedResponse) BatchResult {
	return NormalizeAll(FlattenFeed(feed))
}
