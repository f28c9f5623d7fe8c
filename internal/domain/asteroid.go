package domain

import (
	"errors"
	"time"
)

// Diameter unit labels. The set is closed; rows never carry any other value.
const (
	UnitKilometers = "kilometers"
	UnitMeters     = "meters"
	UnitMiles      = "miles"
	UnitFeet       = "feet"
)

// Sentinel errors surfaced at package boundaries.
var (
	// ErrMissingID marks a record that cannot be normalized because it has
	// no identifier at all. The record is skipped; the batch continues.
	ErrMissingID = errors.New("record has no id")

	// ErrNotFound signals a lookup for an identifier with no stored row.
	ErrNotFound = errors.New("asteroid not found")

	// ErrInvalidWindow signals a feed date range that violates the NeoWs
	// contract (end before start, or more than 7 days inclusive).
	ErrInvalidWindow = errors.New("invalid date window")

	// ErrUpstream marks a failure talking to the remote catalog.
	ErrUpstream = errors.New("catalog fetch failed")

	// ErrStoreWrite marks a persistence failure; the in-flight batch has
	// been rolled back and no partial asteroid is visible.
	ErrStoreWrite = errors.New("store write failed")
)

// Asteroid is the parent row, one per unique identifier. Re-ingestion
// replaces it wholesale (last-write-wins), never duplicates it.
type Asteroid struct {
	ID                string    `json:"id"`
	NeoReferenceID    string    `json:"neo_reference_id,omitempty"`
	Name              string    `json:"name"`
	NasaJplURL        string    `json:"nasa_jpl_url"`
	AbsoluteMagnitude float64   `json:"absolute_magnitude_h"`
	Hazardous         bool      `json:"is_potentially_hazardous"`
	Sentry            bool      `json:"is_sentry_object"`
	IngestedAt        time.Time `json:"ingested_at"`
}

// DiameterEstimate is one child row per unit system present in the source.
type DiameterEstimate struct {
	AsteroidID string  `json:"asteroid_id"`
	Unit       string  `json:"unit"`
	Min        float64 `json:"diameter_min"`
	Max        float64 `json:"diameter_max"`
}

// CloseApproach is one child row per close-approach entry, in source order.
type CloseApproach struct {
	AsteroidID   string  `json:"asteroid_id"`
	Date         string  `json:"close_approach_date"`
	DateFull     string  `json:"close_approach_date_full"`
	Epoch        int64   `json:"epoch_date_close_approach"`
	VelocityKmS  float64 `json:"velocity_km_s"`
	VelocityKmH  float64 `json:"velocity_km_h"`
	VelocityMph  float64 `json:"velocity_mph"`
	MissAu       float64 `json:"miss_distance_au"`
	MissLunar    float64 `json:"miss_distance_lunar"`
	MissKm       float64 `json:"miss_distance_km"`
	MissMi       float64 `json:"miss_distance_mi"`
	OrbitingBody string  `json:"orbiting_body"`
}

// NormalizedRecord is the full relational decomposition of one raw object:
// the asteroid row plus all of its child rows.
type NormalizedRecord struct {
	Asteroid   Asteroid
	Diameters  []DiameterEstimate
	Approaches []CloseApproach
}

// FieldError reports a field-level normalization failure attributed to an
// asteroid identifier and the offending unit or entry index. The affected
// unit/entry is skipped; the rest of the record still normalizes.
type FieldError struct {
	AsteroidID string `json:"asteroid_id"`
	Field      string `json:"field"`
	Reason     string `json:"reason"`
}

// SkippedRecord reports a whole record dropped from a batch, with the source
// position it held and the reason.
type SkippedRecord struct {
	Index      int    `json:"index"`
	AsteroidID string `json:"asteroid_id,omitempty"`
	Reason     string `json:"reason"`
}

// BatchResult carries the outcome of normalizing a batch: the records that
// normalized, the records skipped with reasons, and all field-level errors.
type BatchResult struct {
	Records     []NormalizedRecord
	Skipped     []SkippedRecord
	FieldErrors []FieldError
}

// IngestReport summarizes one ingest run for callers and logs.
type IngestReport struct {
	RunID       string          `json:"run_id"`
	StartDate   string          `json:"start_date,omitempty"`
	EndDate     string          `json:"end_date,omitempty"`
	Fetched     int             `json:"fetched"`
	Stored      int             `json:"stored"`
	Skipped     []SkippedRecord `json:"skipped,omitempty"`
	FieldErrors []FieldError    `json:"field_errors,omitempty"`
	DurationMS  int64           `json:"duration_ms"`
}

// AsteroidView is the nested projection reconstructed from the three tables:
// the shape external callers (HTTP API, reports, sinks) consume. Diameters
// are keyed by unit; approaches preserve storage (insertion) order.
type AsteroidView struct {
	ID                string                   `json:"id"`
	NeoReferenceID    string                   `json:"neo_reference_id,omitempty"`
	Name              string                   `json:"name"`
	NasaJplURL        string                   `json:"nasa_jpl_url"`
	AbsoluteMagnitude float64                  `json:"absolute_magnitude_h"`
	Hazardous         bool                     `json:"is_potentially_hazardous"`
	Sentry            bool                     `json:"is_sentry_object"`
	Diameters         map[string]DiameterRange `json:"diameters"`
	Approaches        []ApproachView           `json:"close_approaches"`
	IngestedAt        time.Time                `json:"ingested_at"`
}

// DiameterRange is one unit's min/max range inside a view.
type DiameterRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ApproachView is one close-approach entry inside a view, with parsed
// velocity and miss-distance values grouped by unit.
type ApproachView struct {
	Date         string           `json:"close_approach_date"`
	DateFull     string           `json:"close_approach_date_full"`
	Epoch        int64            `json:"epoch_date_close_approach"`
	Velocity     VelocityView     `json:"relative_velocity"`
	MissDistance MissDistanceView `json:"miss_distance"`
	OrbitingBody string           `json:"orbiting_body"`
}

// VelocityView holds relative velocity per unit, parsed to floats.
type VelocityView struct {
	KmS float64 `json:"km_s"`
	KmH float64 `json:"km_h"`
	Mph float64 `json:"mph"`
}

// MissDistanceView holds miss distance per unit, parsed to floats.
type MissDistanceView struct {
	Au    float64 `json:"au"`
	Lunar float64 `json:"lunar"`
	Km    float64 `json:"km"`
	Mi    float64 `json:"mi"`
}

// Summary is the flat single-approach projection: asteroid fields, per-unit
// diameter bounds, and only the first close-approach entry. Approach fields
// are pointers so they are omitted entirely when the object has no recorded
// approaches, matching the nested view's empty list.
type Summary struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	NasaJplURL        string  `json:"nasa_jpl_url"`
	AbsoluteMagnitude float64 `json:"absolute_magnitude_h"`

	DiameterKmMin float64 `json:"estimated_diameter_km_min"`
	DiameterKmMax float64 `json:"estimated_diameter_km_max"`
	DiameterMMin  float64 `json:"estimated_diameter_m_min"`
	DiameterMMax  float64 `json:"estimated_diameter_m_max"`
	DiameterMiMin float64 `json:"estimated_diameter_mi_min"`
	DiameterMiMax float64 `json:"estimated_diameter_mi_max"`
	DiameterFtMin float64 `json:"estimated_diameter_ft_min"`
	DiameterFtMax float64 `json:"estimated_diameter_ft_max"`

	Hazardous bool `json:"is_potentially_hazardous_asteroid"`
	Sentry    bool `json:"is_sentry_object"`

	CloseApproachDate     *string  `json:"close_approach_date,omitempty"`
	CloseApproachDateFull *string  `json:"close_approach_date_full,omitempty"`
	Epoch                 *int64   `json:"epoch_date_close_approach,omitempty"`
	VelocityKmS           *float64 `json:"relative_velocity_km_s,omitempty"`
	VelocityKmH           *float64 `json:"relative_velocity_km_h,omitempty"`
	VelocityMph           *float64 `json:"relative_velocity_mph,omitempty"`
	MissAu                *float64 `json:"miss_distance_au,omitempty"`
	MissLunar             *float64 `json:"miss_distance_lunar,omitempty"`
	MissKm                *float64 `json:"miss_distance_km,omitempty"`
	MissMi                *float64 `json:"miss_distance_mi,omitempty"`
	OrbitingBody          *string  `json:"orbiting_body,omitempty"`
}
