// Package domain models NASA near-Earth-object (NEO) catalog data.
//
// # Data Source
//
// Records originate from the NASA NeoWs REST API at
// https://api.nasa.gov/neo/rest/v1/. The feed endpoint returns objects grouped
// by calendar date under "near_earth_objects"; each object carries the asteroid
// fields, a nested per-unit "estimated_diameter" block, and a
// "close_approach_data" list with one entry per predicted pass.
//
// # NeoWs Data Conventions
//
// Identifiers:
//
//	"id" is the SPK-ID of the object and is stable across ingestions; it is the
//	primary key throughout this service. "neo_reference_id" usually repeats the
//	SPK-ID and is carried as a secondary reference only.
//
// Diameter units:
//
//	The estimated_diameter block holds min/max ranges for a closed set of unit
//	systems: kilometers, meters, miles, feet. All four are usually present but
//	none is required; a missing or incomplete unit block is skipped rather than
//	failing the record.
//
// String-encoded numerics:
//
//	NeoWs encodes relative velocity (km/s, km/h, mph) and miss distance
//	(astronomical units, lunar distances, km, mi) as JSON strings, e.g.
//	"18.1279360862". These are parsed to float64 during normalization; a value
//	that fails to parse skips that close-approach entry and is reported as a
//	field-level error attributed to the asteroid id and entry index.
//
// Close-approach ordering:
//
//	Entries are kept in source list order. NeoWs emits them chronologically for
//	the feed endpoint but this is not guaranteed, so nothing here re-sorts or
//	deduplicates them.
//
// # Normalization
//
// [NormalizeRecord] decomposes one raw object into exactly one [Asteroid] row,
// one [DiameterEstimate] row per unit present, and one [CloseApproach] row per
// close-approach entry. [NormalizeFeed] flattens a date-keyed feed (ascending
// date order, then source list order) and normalizes every record, collecting
// per-record skips and field-level errors without aborting the batch.
//
// Two projections are derived from a normalized record: [NormalizedRecord.View]
// rebuilds the full nested shape with all approaches, and
// [NormalizedRecord.Summary] flattens only the first approach entry for
// single-approach summary consumers.
package domain
